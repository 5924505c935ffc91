package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/hrflow/notify"
)

// RecordNotification persists a sent notification for audit.
func (s *Store) RecordNotification(ctx context.Context, n *notify.Notification) error {
	if _, err := s.db.Collection(colNotifications).InsertOne(ctx, toNotificationModel(n)); err != nil {
		return fmt.Errorf("hrflow/mongo: record notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications for a recipient, oldest first.
// An empty recipient returns all notifications.
func (s *Store) ListNotifications(ctx context.Context, recipient string) ([]*notify.Notification, error) {
	filter := bson.M{}
	if recipient != "" {
		filter["recipient"] = recipient
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}})

	cursor, err := s.db.Collection(colNotifications).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var models []notificationModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list notifications decode: %w", err)
	}

	out := make([]*notify.Notification, 0, len(models))
	for i := range models {
		n, convErr := fromNotificationModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/mongo: list notifications convert: %w", convErr)
		}
		out = append(out, n)
	}
	return out, nil
}
