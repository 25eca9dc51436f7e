package course

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// owns allows admins and the course's instructor.
func (e *Engine) owns(a Actor, c Course) error {
	if a.Role == rbac.RoleAdmin || c.InstructorID == a.ID {
		return nil
	}
	return forbidden(ReasonNotOwner)
}

func statusOf(active bool) Status {
	if active {
		return StatusActive
	}
	return StatusInactive
}

// SetCourseStatus activates or deactivates a course. Inactive courses
// disappear from every lookup, so students get NotFound.
func (e *Engine) SetCourseStatus(ctx context.Context, a Actor, courseID string, active bool) (Course, error) {
	if err := e.authorize(a, rbac.PermCourseManage); err != nil {
		return Course{}, err
	}
	c, err := e.store.FindCourseAnyStatus(ctx, courseID)
	if err != nil {
		return Course{}, lookup(err, ReasonCourseNotFound, "course: find course")
	}
	if err := e.owns(a, c); err != nil {
		return Course{}, err
	}
	c.Status = statusOf(active)
	if err := e.store.SetCourseStatus(ctx, c.ID, c.Status); err != nil {
		return Course{}, lookup(err, ReasonCourseNotFound, "course: set course status")
	}
	e.log.Info("course status changed", map[string]interface{}{"course_id": c.ID, "status": string(c.Status), "by": a.ID})
	return c, nil
}

// SetCoursePublished publishes or unpublishes an active course owned by
// the actor. Publishing notifies the instructor.
func (e *Engine) SetCoursePublished(ctx context.Context, a Actor, courseID string, published bool) (Course, error) {
	if err := e.authorize(a, rbac.PermCoursePublish); err != nil {
		return Course{}, err
	}
	c, err := e.store.FindCourse(ctx, courseID)
	if err != nil {
		return Course{}, lookup(err, ReasonCourseNotFound, "course: find course")
	}
	if err := e.owns(a, c); err != nil {
		return Course{}, err
	}
	was := c.Published
	c.Published = published
	if err := e.store.SetCoursePublished(ctx, c.ID, published); err != nil {
		return Course{}, lookup(err, ReasonCourseNotFound, "course: set published")
	}
	if published && !was {
		e.emit(ctx, c.InstructorID, notify.NewCourse, fmt.Sprintf("Course '%s' is now published", c.Title), map[string]interface{}{
			"course_id":    c.ID,
			"course_title": c.Title,
		})
	}
	return c, nil
}

// SetUserStatus activates or deactivates a non-admin account. Inactive
// users can no longer log in.
func (e *Engine) SetUserStatus(ctx context.Context, a Actor, userID string, active bool) (User, error) {
	if err := e.authorize(a, rbac.PermUsersManage); err != nil {
		return User{}, err
	}
	u, err := e.store.FindUserAnyStatus(ctx, userID)
	if err != nil {
		return User{}, lookup(err, ReasonUserNotFound, "course: find user")
	}
	if u.Role == rbac.RoleAdmin {
		return User{}, forbidden(ReasonAdminStatus)
	}
	if active && isActive(u.Status) {
		return User{}, badRequest(ReasonUserAlreadyActive)
	}
	u.Status = statusOf(active)
	if err := e.store.SetUserStatus(ctx, u.ID, u.Status); err != nil {
		if errors.Is(err, ErrNoRecord) {
			return User{}, notFound(ReasonUserNotFound)
		}
		return User{}, errors.Wrap(err, "course: set user status")
	}
	return u, nil
}
