package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/agreements-api/internal/models"
)

const notificationColumns = "id, user_id, title, message, type, read, created_at, read_at"

// NotificationRepository persists in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, title, message, type, read, created_at, read_at) VALUES (:id, :user_id, :title, :message, :type, :read, :created_at, :read_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListForUser returns the user's latest notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := "SELECT " + notificationColumns + " FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2"
	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// FindForUser fetches a notification owned by userID.
func (r *NotificationRepository) FindForUser(ctx context.Context, id, userID string) (*models.Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications WHERE id = $1 AND user_id = $2"
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id, userID); err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRead flags an unread notification as read at the given time. Already-read rows are left untouched.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	const query = `UPDATE notifications SET read = TRUE, read_at = $3 WHERE id = $1 AND user_id = $2 AND read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, userID, at); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// UnreadCount counts the user's unread notifications.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
