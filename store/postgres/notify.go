package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/notify"
)

const notificationColumns = `
	id, run_id, kind, recipient, subject, body, sent_at,
	created_at, updated_at`

// RecordNotification persists a sent notification for audit.
func (s *Store) RecordNotification(ctx context.Context, n *notify.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hrflow_notifications (
			id, run_id, kind, recipient, subject, body, sent_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID.String(), optionalID(n.RunID), string(n.Kind), n.Recipient,
		n.Subject, n.Body, n.SentAt, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: record notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications for a recipient, oldest first.
// An empty recipient returns all notifications.
func (s *Store) ListNotifications(ctx context.Context, recipient string) ([]*notify.Notification, error) {
	query := `SELECT` + notificationColumns + ` FROM hrflow_notifications`
	args := []any{}
	if recipient != "" {
		query += ` WHERE recipient = $1`
		args = append(args, recipient)
	}
	query += ` ORDER BY sent_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("hrflow/postgres: list notifications: %w", err)
	}
	defer rows.Close()

	var out []*notify.Notification
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("hrflow/postgres: list notifications: %w", scanErr)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNotification(row pgx.Row) (*notify.Notification, error) {
	var (
		n      notify.Notification
		rawID  string
		rawRun string
		kind   string
	)
	err := row.Scan(
		&rawID, &rawRun, &kind, &n.Recipient, &n.Subject, &n.Body,
		&n.SentAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if n.ID, err = id.ParseNotificationID(rawID); err != nil {
		return nil, fmt.Errorf("parse notification id %q: %w", rawID, err)
	}
	if n.RunID, err = parseOptionalID(rawRun, id.ParseRunID); err != nil {
		return nil, err
	}
	n.Kind = notify.Kind(kind)
	return &n, nil
}
