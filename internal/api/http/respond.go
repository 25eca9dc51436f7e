package http

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/logger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates its struct tags.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &course.Error{Kind: course.KindBadRequest, Reason: "bad json"}
	}
	if err := validate.Struct(dst); err != nil {
		return &course.Error{Kind: course.KindBadRequest, Reason: validationMessage(err)}
	}
	return nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "oneof":
			parts = append(parts, fe.Field()+" must be one of: "+fe.Param())
		default:
			parts = append(parts, fe.Field()+" failed "+fe.Tag()+" "+fe.Param())
		}
	}
	return strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var kindStatus = map[course.Kind]int{
	course.KindNotFound:   http.StatusNotFound,
	course.KindForbidden:  http.StatusForbidden,
	course.KindBadRequest: http.StatusBadRequest,
	course.KindConflict:   http.StatusConflict,
}

// writeError renders business errors as {"error": reason}; anything else
// is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, log logger.Logger, r *http.Request, err error) {
	kind := course.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		log.Error("request failed", err, map[string]interface{}{"method": r.Method, "path": r.URL.Path})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
