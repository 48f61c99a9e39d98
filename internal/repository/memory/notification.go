package memory

import (
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/google/uuid"
)

type notificationRepository struct {
	store *Store
}

func (s *Store) Notifications() notification.Repository {
	return notificationRepository{store: s}
}

func insert(t *tables, n *notification.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Category == "" {
		n.Category = notification.CategoryOf(n.Type)
	}
	t.notifications[n.ID] = *n
}

// Create implements notification.Repository.
func (r notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.store.write(ctx, func(t *tables) error {
		insert(t, n)
		return nil
	})
}

// CreateBatch implements notification.Repository.
func (r notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	return r.store.write(ctx, func(t *tables) error {
		for _, n := range notifications {
			insert(t, n)
		}
		return nil
	})
}

// GetByRecipient implements notification.Repository.
func (r notificationRepository) GetByRecipient(ctx context.Context, recipientID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	var matched []notification.Notification
	r.store.read(ctx, func(t *tables) {
		for _, n := range t.notifications {
			if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
				continue
			}
			matched = append(matched, n)
		}
	})
	slices.SortFunc(matched, func(a, b notification.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := len(matched)
	offset := (page - 1) * pageSize
	if offset > total {
		offset = total
	}
	end := min(offset+pageSize, total)

	result := make([]*notification.Notification, 0, end-offset)
	for i := offset; i < end; i++ {
		n := matched[i]
		result = append(result, &n)
	}
	return result, total, nil
}

// GetUnreadCount implements notification.Repository.
func (r notificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	count := 0
	r.store.read(ctx, func(t *tables) {
		for _, n := range t.notifications {
			if n.RecipientID == recipientID && !n.IsRead {
				count++
			}
		}
	})
	return count, nil
}

// MarkAsRead implements notification.Repository.
func (r notificationRepository) MarkAsRead(ctx context.Context, ids []string, recipientID string) error {
	return r.store.write(ctx, func(t *tables) error {
		now := time.Now()
		for _, id := range ids {
			n, ok := t.notifications[id]
			if !ok || n.RecipientID != recipientID || n.IsRead {
				continue
			}
			n.IsRead = true
			n.ReadAt = &now
			t.notifications[id] = n
		}
		return nil
	})
}

// MarkAllAsRead implements notification.Repository.
func (r notificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) error {
	return r.store.write(ctx, func(t *tables) error {
		now := time.Now()
		for id, n := range t.notifications {
			if n.RecipientID != recipientID || n.IsRead {
				continue
			}
			n.IsRead = true
			n.ReadAt = &now
			t.notifications[id] = n
		}
		return nil
	})
}
