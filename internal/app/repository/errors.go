package repository

import "errors"

var (
	// ErrSessionNotFound signals a missing or expired session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotificationNotFound signals that the notification was already dismissed.
	ErrNotificationNotFound = errors.New("notification not found")
)
