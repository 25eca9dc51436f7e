package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// CertificateEligibility returns the data for a certificate backed by the
// actor's most recent passed attempt on the course quiz. Unpublished
// courses issue no certificates.
func (e *Engine) CertificateEligibility(ctx context.Context, a Actor, courseID string) (Certificate, error) {
	if err := e.authorize(a, rbac.PermCertificateView); err != nil {
		return Certificate{}, err
	}
	course, err := e.store.FindCourse(ctx, courseID)
	if err != nil {
		return Certificate{}, lookup(err, ReasonCourseNotFound, "course: find course")
	}
	if !course.Published {
		return Certificate{}, notFound(ReasonCourseNotFound)
	}
	attempt, err := e.store.FindLatestPassedAttempt(ctx, a.ID, courseID)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return Certificate{}, forbidden(ReasonNotEligible)
		}
		return Certificate{}, errors.Wrap(err, "course: latest passed attempt")
	}
	return Certificate{
		CourseID:    course.ID,
		CourseTitle: course.Title,
		StudentID:   a.ID,
		AttemptID:   attempt.ID,
		Score:       attempt.Score,
		CompletedAt: attempt.AttemptedAt,
	}, nil
}
