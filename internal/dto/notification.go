package dto

import "github.com/noah-isme/agreements-api/internal/models"

// NotificationList is the caller's notifications plus the unread count.
type NotificationList struct {
	Items  []models.Notification `json:"items"`
	Unread int                   `json:"unread"`
}
