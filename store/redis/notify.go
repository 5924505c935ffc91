package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/notify"
)

// RecordNotification persists a sent notification. The log List keeps
// IDs in send order so listings need no sort.
func (s *Store) RecordNotification(ctx context.Context, n *notify.Notification) error {
	nID := n.ID.String()
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("hrflow/redis: encode notification: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, notificationKey(nID), data, 0)
	pipe.RPush(ctx, notificationLogKey, nID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/redis: record notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications for a recipient, oldest first.
// An empty recipient returns all notifications.
func (s *Store) ListNotifications(ctx context.Context, recipient string) ([]*notify.Notification, error) {
	ids, err := s.client.LRange(ctx, notificationLogKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: list notifications: %w", err)
	}

	var out []*notify.Notification
	for _, nID := range ids {
		var n notify.Notification
		if getErr := s.getJSON(ctx, notificationKey(nID), &n, hrflow.ErrRunNotFound); getErr != nil {
			continue
		}
		if recipient != "" && n.Recipient != recipient {
			continue
		}
		out = append(out, &n)
	}
	return out, nil
}
