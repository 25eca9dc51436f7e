package course

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// RateCourse records the actor's single 1..5 rating for an enrolled course.
func (e *Engine) RateCourse(ctx context.Context, a Actor, courseID string, rating int, feedback string) (Rating, error) {
	if err := e.authorize(a, rbac.PermRatingCreate); err != nil {
		return Rating{}, err
	}
	if rating < 1 || rating > 5 {
		return Rating{}, badRequest("rating must be between 1 and 5")
	}
	if _, err := e.store.FindCourse(ctx, courseID); err != nil {
		return Rating{}, lookup(err, ReasonCourseNotFound, "course: find course")
	}
	if _, err := e.store.FindEnrollment(ctx, a.ID, courseID); err != nil {
		if errors.Is(err, ErrNoRecord) {
			return Rating{}, forbidden(ReasonRatingNotEnrolled)
		}
		return Rating{}, errors.Wrap(err, "course: find enrollment")
	}
	r, err := e.store.CreateRating(ctx, Rating{
		ID:        uuid.NewString(),
		StudentID: a.ID,
		CourseID:  courseID,
		Rating:    rating,
		Feedback:  feedback,
		CreatedAt: e.now(),
	})
	if errors.Is(err, ErrDuplicate) {
		return Rating{}, conflict(ReasonAlreadyRated)
	}
	if err != nil {
		return Rating{}, errors.Wrap(err, "course: create rating")
	}
	return r, nil
}

func (e *Engine) CourseRatings(ctx context.Context, a Actor, courseID string) (RatingSummary, error) {
	if err := e.authorize(a, rbac.PermCourseView); err != nil {
		return RatingSummary{}, err
	}
	c, err := e.store.FindCourse(ctx, courseID)
	if err != nil {
		return RatingSummary{}, lookup(err, ReasonCourseNotFound, "course: find course")
	}
	rs, err := e.store.ListRatings(ctx, courseID)
	if err != nil {
		return RatingSummary{}, errors.Wrap(err, "course: list ratings")
	}
	sum := RatingSummary{CourseID: c.ID, CourseTitle: c.Title, TotalRatings: len(rs), Ratings: rs}
	if len(rs) > 0 {
		total := 0
		for _, r := range rs {
			total += r.Rating
		}
		sum.AverageRating = math.Round(float64(total)/float64(len(rs))*100) / 100
	}
	return sum, nil
}
