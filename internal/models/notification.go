package models

import "time"

type NotificationType string

const (
	NotificationRequestAccepted NotificationType = "request_accepted"
	NotificationRequestDeclined NotificationType = "request_declined"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
