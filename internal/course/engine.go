package course

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// Notifier receives side effects. Both calls are best-effort and must not
// block; *notify.Dispatcher satisfies it.
type Notifier interface {
	Emit(ctx context.Context, ev notify.Event)
	SendEmail(ctx context.Context, msg notify.EmailMessage)
}

type Options struct {
	// StrictQuizGate rejects completing the lesson that follows the final
	// lesson until the course quiz is passed.
	StrictQuizGate bool
	AppName        string
	Grader         grading.Grader
	Now            func() time.Time
}

// Engine implements lesson progression, the quiz gate, grading and
// certificate eligibility on top of a Store.
type Engine struct {
	store    Store
	notifier Notifier
	policy   *rbac.Checker
	log      logger.Logger
	opts     Options
}

func New(store Store, n Notifier, policy *rbac.Checker, log logger.Logger, opts Options) *Engine {
	if policy == nil {
		policy = rbac.NewChecker(rbac.RolePermissions)
	}
	if log == nil {
		log = logger.Discard()
	}
	if opts.Grader == nil {
		opts.Grader = grading.NewDefaultGrader()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AppName == "" {
		opts.AppName = "MindEngage Courses"
	}
	return &Engine{store: store, notifier: n, policy: policy, log: log, opts: opts}
}

func (e *Engine) now() time.Time { return e.opts.Now().UTC() }

func (e *Engine) authorize(a Actor, perm string) error {
	if a.ID == "" || !e.policy.Has(a.Role, perm) {
		return forbidden(fmt.Sprintf("role %s may not %s", a.Role, perm))
	}
	return nil
}

// lookup maps ErrNoRecord to a NotFound error and wraps anything else.
func lookup(err error, reason, op string) error {
	if errors.Is(err, ErrNoRecord) {
		return notFound(reason)
	}
	return errors.Wrap(err, op)
}

func (e *Engine) emit(ctx context.Context, userID string, typ notify.EventType, msg string, data map[string]interface{}) {
	if e.notifier == nil {
		return
	}
	e.notifier.Emit(ctx, notify.Event{UserID: userID, Type: typ, Message: msg, Data: data})
}

func (e *Engine) email(ctx context.Context, userID, subject, body string) {
	if e.notifier == nil {
		return
	}
	u, err := e.store.FindUser(ctx, userID)
	if err != nil {
		e.log.Warn("email skipped: user lookup failed", err, map[string]interface{}{"user_id": userID})
		return
	}
	if u.Email == "" {
		e.log.Info("email skipped: no address", map[string]interface{}{"user_id": userID})
		return
	}
	e.notifier.SendEmail(ctx, notify.EmailMessage{
		To:      []mail.Address{{Name: u.Username, Address: u.Email}},
		Subject: subject,
		Body:    fmt.Sprintf("Hi %s,\n\n%s", u.Username, body),
	})
}
