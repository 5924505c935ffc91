package bunstore

import (
	"context"
	"fmt"

	"github.com/xraph/hrflow/notify"
)

// RecordNotification persists a sent notification for audit.
func (s *Store) RecordNotification(ctx context.Context, n *notify.Notification) error {
	if _, err := s.db.NewInsert().Model(toNotificationModel(n)).Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/bun: record notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications for a recipient, oldest first.
// An empty recipient returns all notifications.
func (s *Store) ListNotifications(ctx context.Context, recipient string) ([]*notify.Notification, error) {
	var models []notificationModel
	q := s.db.NewSelect().Model(&models)
	if recipient != "" {
		q = q.Where("recipient = ?", recipient)
	}
	if err := q.Order("sent_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("hrflow/bun: list notifications: %w", err)
	}

	out := make([]*notify.Notification, 0, len(models))
	for i := range models {
		n, convErr := fromNotificationModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/bun: list notifications convert: %w", convErr)
		}
		out = append(out, n)
	}
	return out, nil
}
