package http

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/logger"
)

// CourseAPI exposes the course engine. Routes are mounted in main.go.
type CourseAPI struct {
	Engine *course.Engine
	Log    logger.Logger
}

func (a *CourseAPI) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, a.Log, r, err)
}

// POST /courses/import
func (a *CourseAPI) ImportCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b course.Bundle
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		out, err := a.Engine.ImportCourse(r.Context(), authmw.ActorFromContext(r.Context()), b)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// POST /courses/{courseID}/enroll
func (a *CourseAPI) Enroll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enr, err := a.Engine.Enroll(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "courseID"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, enr)
	}
}

// GET /my-courses
func (a *CourseAPI) MyCourses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := a.Engine.MyCourses(r.Context(), authmw.ActorFromContext(r.Context()))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /courses/{courseID}/lessons
func (a *CourseAPI) Lessons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := a.Engine.LessonsWithState(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "courseID"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /lessons/{lessonID}/complete
func (a *CourseAPI) CompleteLesson() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Engine.CompleteLesson(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "lessonID"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Lesson completed", "data": p})
	}
}

// GET /quizzes/{quizID}/eligibility
func (a *CourseAPI) QuizEligibility() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Engine.CanAttemptQuiz(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "quizID")); err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"eligible": true})
	}
}

type attemptReq struct {
	Answers map[string]interface{} `json:"answers" validate:"required"`
}

// POST /quizzes/{quizID}/attempt  {"answers": {"<question id>": "A" | 0}}
func (a *CourseAPI) SubmitAttempt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attemptReq
		if err := decode(r, &req); err != nil {
			a.fail(w, r, &course.Error{Kind: course.KindBadRequest, Reason: course.ReasonMalformedAnswers})
			return
		}
		answers, err := stringifyAnswers(req.Answers)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		out, err := a.Engine.SubmitQuizAttempt(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "quizID"), answers)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// stringifyAnswers accepts string or integral number values.
func stringifyAnswers(in map[string]interface{}) (course.Answers, error) {
	out := make(course.Answers, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			if t != math.Trunc(t) {
				return nil, &course.Error{Kind: course.KindBadRequest, Reason: "answer for question " + k + " must be an option letter or index"}
			}
			out[k] = strconv.FormatInt(int64(t), 10)
		default:
			return nil, &course.Error{Kind: course.KindBadRequest, Reason: "answer for question " + k + " must be an option letter or index"}
		}
	}
	return out, nil
}

// GET /quizzes/{quizID}/results
func (a *CourseAPI) QuizResults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := a.Engine.QuizResults(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /certificates/{courseID}
func (a *CourseAPI) Certificate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := a.Engine.CertificateEligibility(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "courseID"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type rateReq struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

// POST /courses/{courseID}/rate
func (a *CourseAPI) Rate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rateReq
		if err := decode(r, &req); err != nil {
			a.fail(w, r, err)
			return
		}
		out, err := a.Engine.RateCourse(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "courseID"), req.Rating, req.Feedback)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// GET /courses/{courseID}/ratings
func (a *CourseAPI) Ratings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := a.Engine.CourseRatings(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "courseID"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type courseStatusReq struct {
	Active *bool `json:"is_active" validate:"required"`
}

// PATCH /courses/{courseID}/status  {"is_active": false}
func (a *CourseAPI) SetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseStatusReq
		if err := decode(r, &req); err != nil {
			a.fail(w, r, err)
			return
		}
		c, err := a.Engine.SetCourseStatus(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "courseID"), *req.Active)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"course_id": c.ID, "status": c.Status})
	}
}

type publishReq struct {
	Published *bool `json:"is_published" validate:"required"`
}

// PATCH /courses/{courseID}/publish  {"is_published": true}
func (a *CourseAPI) Publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req publishReq
		if err := decode(r, &req); err != nil {
			a.fail(w, r, err)
			return
		}
		c, err := a.Engine.SetCoursePublished(r.Context(), authmw.ActorFromContext(r.Context()), chi.URLParam(r, "courseID"), *req.Published)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		msg := "Course unpublished"
		if c.Published {
			msg = "Course published"
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"course_id": c.ID, "is_published": c.Published, "message": msg})
	}
}

// Mount registers the course routes on a router that already runs the
// auth middleware.
func (a *CourseAPI) Mount(r chi.Router) {
	r.Post("/courses/import", a.ImportCourse())
	r.Patch("/courses/{courseID}/status", a.SetStatus())
	r.Patch("/courses/{courseID}/publish", a.Publish())
	r.Post("/courses/{courseID}/enroll", a.Enroll())
	r.Get("/courses/{courseID}/lessons", a.Lessons())
	r.Post("/courses/{courseID}/rate", a.Rate())
	r.Get("/courses/{courseID}/ratings", a.Ratings())
	r.Get("/my-courses", a.MyCourses())
	r.Post("/lessons/{lessonID}/complete", a.CompleteLesson())
	r.Get("/quizzes/{quizID}/eligibility", a.QuizEligibility())
	r.Post("/quizzes/{quizID}/attempt", a.SubmitAttempt())
	r.Get("/quizzes/{quizID}/results", a.QuizResults())
	r.Get("/certificates/{courseID}", a.Certificate())
}
