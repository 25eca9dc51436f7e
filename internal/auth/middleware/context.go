package auth

import (
	"context"

	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

type ctxKey string

const ctxKeySub ctxKey = "sub"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ActorFromContext builds the engine actor from what JWTMiddleware and
// AttachRoleFromStore stored.
func ActorFromContext(ctx context.Context) course.Actor {
	return course.Actor{ID: SubjectFromContext(ctx), Role: rbac.RoleFromContext(ctx)}
}
