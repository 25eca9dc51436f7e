package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("notification not found")

type Store interface {
	SaveNotification(ctx context.Context, n Notification) (Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]Notification, error) // newest first
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	// Clear deletes every notification of userID and reports how many.
	Clear(ctx context.Context, userID string) (int, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	items []Notification
}

func NewInMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) SaveNotification(_ context.Context, n Notification) (Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
	return n, nil
}

func (m *memoryStore) ListNotifications(_ context.Context, userID string) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Notification{}
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) UnreadCount(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) MarkRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryStore) MarkAllRead(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated := 0
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].Read {
			m.items[i].Read = true
			updated++
		}
	}
	return updated, nil
}

func (m *memoryStore) Clear(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, n := range m.items {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	removed := len(m.items) - len(kept)
	m.items = kept
	return removed, nil
}
