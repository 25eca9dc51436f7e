package notify

import (
	"context"
	"net/mail"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-courses/internal/logger"
)

type failingMailer struct{ calls int }

func (f *failingMailer) Send(context.Context, EmailMessage) error {
	f.calls++
	return errors.New("smtp down")
}

func TestDispatcherPersistsEvents(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	mailer := NewConsoleMailer(logger.Discard(), "Courses", "noreply@localhost")
	d := NewDispatcher(store, mailer, logger.Discard(), 8)
	d.Start(ctx)

	d.Emit(ctx, Event{UserID: "u1", Type: LessonComplete, Message: "done", Data: map[string]interface{}{"lesson_id": "l1"}})
	d.Emit(ctx, Event{UserID: "u2", Type: Enrolled, Message: "hi"})
	d.SendEmail(ctx, EmailMessage{To: []mail.Address{{Address: "s@example.com"}}, Subject: "passed", Body: "yay"})
	d.Close()

	list, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, LessonComplete, list[0].Type)
	assert.Equal(t, "l1", list[0].Data["lesson_id"])
	assert.NotEmpty(t, list[0].ID)

	sent := mailer.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "passed", sent[0].Subject)
}

func TestDispatcherSwallowsMailErrors(t *testing.T) {
	ctx := context.Background()
	mailer := &failingMailer{}
	d := NewDispatcher(NewInMemoryStore(), mailer, logger.Discard(), 1)
	d.Start(ctx)

	assert.NotPanics(t, func() {
		d.SendEmail(ctx, EmailMessage{To: []mail.Address{{Address: "s@example.com"}}})
	})
	d.Close()
	assert.Equal(t, 1, mailer.calls)
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	d := NewDispatcher(store, &failingMailer{}, logger.Discard(), 1)
	d.Start(ctx)
	d.Close()
	d.Close()

	d.Emit(ctx, Event{UserID: "u1", Type: Enrolled})
	n, err := store.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStoreReadFlags(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_, _ = store.SaveNotification(ctx, Notification{ID: "n1", UserID: "u1"})
	_, _ = store.SaveNotification(ctx, Notification{ID: "n2", UserID: "u1"})
	_, _ = store.SaveNotification(ctx, Notification{ID: "n3", UserID: "u2"})

	require.NoError(t, store.MarkRead(ctx, "u1", "n1"))
	assert.ErrorIs(t, store.MarkRead(ctx, "u1", "n3"), ErrNotFound)

	n, _ := store.UnreadCount(ctx, "u1")
	assert.Equal(t, 1, n)

	updated, err := store.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_, _ = store.SaveNotification(ctx, Notification{ID: "n1", UserID: "u1"})
	_, _ = store.SaveNotification(ctx, Notification{ID: "n2", UserID: "u2"})
	_, _ = store.SaveNotification(ctx, Notification{ID: "n3", UserID: "u1"})

	removed, err := store.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, left)
	other, err := store.ListNotifications(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
