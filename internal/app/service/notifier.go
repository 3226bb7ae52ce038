package service

import (
	"context"
	"time"

	"github.com/sifan077/PowerLink/internal/app/model"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	"go.uber.org/zap"
)

// SessionNotifier stores notifications for one session so the dashboard can list them.
type SessionNotifier struct {
	repo      apprepository.NotificationRepository
	sessionID string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewSessionNotifier returns a Notifier writing to the notifications of sessionID.
func NewSessionNotifier(repo apprepository.NotificationRepository, sessionID string, ttl time.Duration, logger *zap.Logger) *SessionNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionNotifier{repo: repo, sessionID: sessionID, ttl: ttl, logger: logger}
}

// Notify stores notification. A storage failure is only logged; the caller has
// already logged the failed operation itself.
func (n *SessionNotifier) Notify(ctx context.Context, notification model.Notification) {
	if err := n.repo.Add(ctx, n.sessionID, notification, n.ttl); err != nil {
		n.logger.Error("failed to store notification",
			zap.String("notification_id", notification.ID),
			zap.String("op", notification.Op),
			zap.Error(err),
		)
	}
}
