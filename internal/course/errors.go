package course

import (
	"github.com/pkg/errors"
)

// Kind classifies an engine error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindBadRequest
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a business-rule failure. Reason is shown to end users verbatim.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// Is matches any *Error of the same kind when target carries no reason,
// so errors.Is(err, ErrForbidden) works for every forbidden error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Reason == e.Reason
}

var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrBadRequest = &Error{Kind: KindBadRequest}
	ErrConflict   = &Error{Kind: KindConflict}
)

// Store sentinels.
var (
	ErrNoRecord  = errors.New("course: no record")
	ErrDuplicate = errors.New("course: duplicate record")
)

func notFound(reason string) error   { return &Error{Kind: KindNotFound, Reason: reason} }
func forbidden(reason string) error  { return &Error{Kind: KindForbidden, Reason: reason} }
func badRequest(reason string) error { return &Error{Kind: KindBadRequest, Reason: reason} }
func conflict(reason string) error   { return &Error{Kind: KindConflict, Reason: reason} }

// KindOf reports the kind of err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// User-facing reasons.
const (
	ReasonNotEnrolled        = "You are not enrolled in this course."
	ReasonSequence           = "Complete previous lesson first."
	ReasonQuizGate           = "You must pass the quiz to unlock the next lesson."
	ReasonNoLessons          = "No lessons found for this course."
	ReasonPrerequisite       = "Complete the final lesson before attempting the quiz."
	ReasonAlreadyPassed      = "Quiz already passed."
	ReasonMalformedAnswers   = "Answers must be a dictionary {question_id: option}"
	ReasonNoQuestions        = "Quiz has no questions."
	ReasonNotEligible        = "You must complete and pass the course quiz to receive a certificate."
	ReasonAlreadyEnrolled    = "Already enrolled"
	ReasonAlreadyRated       = "You have already rated this course"
	ReasonRatingNotEnrolled  = "You must be enrolled to rate this course"
	ReasonCourseNotFound     = "course not found"
	ReasonLessonNotFound     = "lesson not found"
	ReasonQuizNotFound       = "quiz not found"
	ReasonEnrollmentNotFound = "enrollment not found"
	ReasonNotOwner           = "You do not have permission to modify this course."
	ReasonIDInUse            = "lesson order or id already in use"
	ReasonUserNotFound       = "user not found"
	ReasonAdminStatus        = "Cannot toggle status of admin users"
	ReasonUserAlreadyActive  = "User is already active"
)
