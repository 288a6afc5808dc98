package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

const defaultNotificationLimit = 20

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	FindForUser(ctx context.Context, id, userID string) (*models.Notification, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// notifier is the slice of NotificationService other services depend on.
type notifier interface {
	Notify(ctx context.Context, userID string, kind models.NotificationType, title, message string) (*models.Notification, error)
}

// NotificationService manages in-app notifications.
type NotificationService struct {
	repo    notificationRepository
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Notify creates an unread notification for userID.
func (s *NotificationService) Notify(ctx context.Context, userID string, kind models.NotificationType, title, message string) (*models.Notification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recipient is required")
	}
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "notification title and message are required")
	}
	n := &models.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, appErrors.Internal(err, "failed to create notification")
	}
	s.metrics.RecordNotification(kind)
	s.logger.Debug("notification created", zap.String("user_id", userID), zap.String("type", string(kind)))
	return n, nil
}

// ListForUser returns the newest notifications of userID and the unread count.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) (*dto.NotificationList, error) {
	if limit <= 0 || limit > models.MaxPageSize {
		limit = defaultNotificationLimit
	}
	items, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list notifications")
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count unread notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &dto.NotificationList{Items: items, Unread: unread}, nil
}

// UnreadCount counts the user's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count unread notifications")
	}
	return count, nil
}

// MarkRead flags a notification of userID as read. Repeated calls keep the first read_at.
// Notifications of other users are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, err := s.repo.FindForUser(ctx, id, userID)
	if err != nil {
		return nil, lookupError(err, "notification not found", "failed to load notification")
	}
	if n.Read {
		return n, nil
	}
	at := s.now().UTC()
	if err := s.repo.MarkRead(ctx, id, userID, at); err != nil {
		return nil, appErrors.Internal(err, "failed to mark notification read")
	}
	n.Read = true
	n.ReadAt = &at
	return n, nil
}
