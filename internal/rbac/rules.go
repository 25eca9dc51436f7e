package rbac

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Permissions checked by the course engine and the HTTP layer.
const (
	PermCourseView       = "course:view"
	PermCourseImport     = "course:import"
	PermCourseManage     = "course:manage"
	PermCoursePublish    = "course:publish"
	PermEnrollmentCreate = "enrollment:create"
	PermLessonView       = "lesson:view"
	PermLessonComplete   = "lesson:complete"
	PermQuizAttempt      = "quiz:attempt"
	PermQuizResults      = "quiz:results"
	PermCertificateView  = "certificate:view"
	PermRatingCreate     = "rating:create"
	PermUsersManage      = "users:manage"
	PermUsersList        = "users:list"
)

// RolePermissions is the default policy.
var RolePermissions = map[Role][]string{
	RoleStudent: {
		PermCourseView,
		PermEnrollmentCreate,
		PermLessonView,
		PermLessonComplete,
		PermQuizAttempt,
		PermQuizResults,
		PermCertificateView,
		PermRatingCreate,
	},
	RoleInstructor: {
		PermCourseView,
		PermCourseImport,
		PermCourseManage,
		PermCoursePublish,
		PermLessonView,
		PermQuizResults,
		PermUsersList,
	},
	RoleAdmin: {
		"*", // everything
	},
}
