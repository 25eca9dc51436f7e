package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// SQLStore keeps notifications in the notifications table and mirrors
// every saved one into the append-only event_log.
type SQLStore struct {
	db     *sqlx.DB
	siteID string
}

func NewSQLStore(db *sql.DB, driver, siteID string) *SQLStore {
	if siteID == "" {
		siteID = "local"
	}
	return &SQLStore{db: sqlx.NewDb(db, driver), siteID: siteID}
}

type notificationRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Type      string `db:"typ"`
	Message   string `db:"message"`
	Data      string `db:"data"`
	Read      bool   `db:"is_read"`
	CreatedAt int64  `db:"created_at"`
}

func (r notificationRow) toNotification() Notification {
	n := Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      EventType(r.Type),
		Message:   r.Message,
		Read:      r.Read,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(r.Data), &n.Data); err != nil || n.Data == nil {
		n.Data = map[string]interface{}{}
	}
	return n
}

func (s *SQLStore) SaveNotification(ctx context.Context, n Notification) (Notification, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return Notification{}, errors.Wrap(err, "notify: encode data")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Notification{}, errors.Wrap(err, "notify: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	created := n.CreatedAt.UnixMilli()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO notifications (id,user_id,typ,message,data,is_read,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.UserID, string(n.Type), n.Message, string(data), n.Read, created); err != nil {
		return Notification{}, errors.Wrap(err, "notify: insert notification")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		s.siteID, string(n.Type), n.UserID, string(data), created); err != nil {
		return Notification{}, errors.Wrap(err, "notify: append event log")
	}
	if err := tx.Commit(); err != nil {
		return Notification{}, errors.Wrap(err, "notify: commit")
	}
	return n, nil
}

func (s *SQLStore) ListNotifications(ctx context.Context, userID string) ([]Notification, error) {
	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id,user_id,typ,message,data,is_read,created_at
		   FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`, userID); err != nil {
		return nil, errors.Wrap(err, "notify: list")
	}
	out := make([]Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toNotification())
	}
	return out, nil
}

func (s *SQLStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND is_read=$2`, userID, false); err != nil {
		return 0, errors.Wrap(err, "notify: unread count")
	}
	return n, nil
}

func (s *SQLStore) MarkRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read=$1 WHERE id=$2 AND user_id=$3`, true, id, userID)
	if err != nil {
		return errors.Wrap(err, "notify: mark read")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read=$1 WHERE user_id=$2 AND is_read=$3`, true, userID, false)
	if err != nil {
		return 0, errors.Wrap(err, "notify: mark all read")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLStore) Clear(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id=$1`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "notify: clear")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
