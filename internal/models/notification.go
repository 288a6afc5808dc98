package models

import "time"

// NotificationType categorises in-app notifications.
type NotificationType string

const (
	NotificationAgreementExpiring NotificationType = "agreement_expiring"
	NotificationReportPending     NotificationType = "report_pending"
	NotificationActivityAssigned  NotificationType = "activity_assigned"
	NotificationSystem            NotificationType = "system"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	ReadAt    *time.Time       `db:"read_at" json:"read_at,omitempty"`
}
