package model

import "time"

const (
	NotificationError   = "error"
	NotificationWarning = "warning"
)

// Notification is a dismissible message describing a failed operation.
type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Op        string    `json:"op"`
	LinkID    int64     `json:"link_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
