// Package notify delivers workflow notifications (email-style messages)
// and records each delivery for audit.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/id"
)

// Kind classifies a notification.
type Kind string

const (
	KindWelcome         Kind = "welcome"
	KindRejection       Kind = "rejection"
	KindInterviewInvite Kind = "interview_invite"
	KindReviewNotice    Kind = "review_notice"
	KindManualReview    Kind = "manual_review"
)

// Notification is one delivered message.
type Notification struct {
	hrflow.Entity

	ID        id.NotificationID `json:"id"`
	RunID     id.RunID          `json:"run_id,omitempty"`
	Kind      Kind              `json:"kind"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body,omitempty"`
	SentAt    time.Time         `json:"sent_at"`
}

// Store defines the persistence contract for notification records.
type Store interface {
	// RecordNotification persists a sent notification.
	RecordNotification(ctx context.Context, n *Notification) error

	// ListNotifications returns notifications for a recipient, oldest
	// first. An empty recipient returns all notifications.
	ListNotifications(ctx context.Context, recipient string) ([]*Notification, error)
}

// Mailer delivers a notification to its recipient.
type Mailer interface {
	Send(ctx context.Context, n *Notification) error
}

// LogMailer writes notifications to a logger instead of an SMTP relay.
// Useful for development and tests. Deliveries are rate limited so a
// runaway workflow cannot flood the log.
type LogMailer struct {
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewLogMailer creates a LogMailer allowing perSecond deliveries with
// the given burst.
func NewLogMailer(logger *slog.Logger, perSecond float64, burst int) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Send logs the notification, blocking until the rate limiter admits it.
func (m *LogMailer) Send(ctx context.Context, n *Notification) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limit: %w", err)
	}
	m.logger.Info("notification sent",
		slog.String("kind", string(n.Kind)),
		slog.String("recipient", n.Recipient),
		slog.String("subject", n.Subject),
	)
	return nil
}

// Sender sends notifications through a Mailer and records each delivery.
type Sender struct {
	mailer Mailer
	store  Store
}

// NewSender creates a Sender.
func NewSender(mailer Mailer, store Store) *Sender {
	return &Sender{mailer: mailer, store: store}
}

// Send delivers and records a notification, stamping ID and SentAt.
func (s *Sender) Send(ctx context.Context, n *Notification) error {
	if n.ID.IsNil() {
		n.ID = id.NewNotificationID()
	}
	n.Entity = hrflow.NewEntity()
	n.SentAt = time.Now().UTC()

	if err := s.mailer.Send(ctx, n); err != nil {
		return fmt.Errorf("send %s to %s: %w", n.Kind, n.Recipient, err)
	}
	if err := s.store.RecordNotification(ctx, n); err != nil {
		return fmt.Errorf("record %s to %s: %w", n.Kind, n.Recipient, err)
	}
	return nil
}
