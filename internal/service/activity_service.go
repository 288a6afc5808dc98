package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

const defaultRecentActivities = 5

type activityRepository interface {
	ListByAgreement(ctx context.Context, agreementID string) ([]models.Activity, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
	Recent(ctx context.Context, limit int) ([]models.RecentActivity, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ActivityService manages activities scheduled under agreements.
type ActivityService struct {
	repo       activityRepository
	agreements agreementLookup
	users      userLookup
	notifier   notifier
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewActivityService constructs an ActivityService.
func NewActivityService(repo activityRepository, agreements agreementLookup, users userLookup, notify notifier, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		repo:       repo,
		agreements: agreements,
		users:      users,
		notifier:   notify,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// ListByAgreement lists activities of an agreement, newest first.
func (s *ActivityService) ListByAgreement(ctx context.Context, agreementID string) ([]models.Activity, error) {
	if _, err := s.agreements.FindByID(ctx, agreementID); err != nil {
		return nil, lookupError(err, "agreement not found", "failed to load agreement")
	}
	items, err := s.repo.ListByAgreement(ctx, agreementID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list activities")
	}
	if items == nil {
		items = []models.Activity{}
	}
	return items, nil
}

// Create schedules an activity and notifies its responsible user, if any.
func (s *ActivityService) Create(ctx context.Context, agreementID string, req dto.ActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid activity payload")
	}
	agreement, err := s.agreements.FindByID(ctx, agreementID)
	if err != nil {
		return nil, lookupError(err, "agreement not found", "failed to load agreement")
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	responsible := trimOptional(req.ResponsibleID)
	if err := s.ensureUser(ctx, responsible); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		ID:            uuid.NewString(),
		AgreementID:   agreementID,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		StartDate:     start,
		EndDate:       end,
		ResponsibleID: responsible,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Internal(err, "failed to create activity")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	if responsible != nil {
		s.notifyAssignment(ctx, *responsible, activity, agreement.Counterparty)
	}
	return activity, nil
}

// Update patches an activity. Reassigning it notifies the new responsible user.
func (s *ActivityService) Update(ctx context.Context, id string, req dto.ActivityUpdateRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid activity payload")
	}
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "activity not found", "failed to load activity")
	}
	previous := activity.ResponsibleID

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title cannot be empty")
		}
		activity.Title = title
	}
	if req.Description != nil {
		activity.Description = strings.TrimSpace(*req.Description)
	}
	if req.StartDate != nil {
		if activity.StartDate, err = parseDate("start_date", *req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if activity.EndDate, err = parseDate("end_date", *req.EndDate); err != nil {
			return nil, err
		}
	}
	if activity.EndDate.Before(activity.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	if req.ResponsibleID != nil {
		activity.ResponsibleID = trimOptional(req.ResponsibleID)
		if err := s.ensureUser(ctx, activity.ResponsibleID); err != nil {
			return nil, err
		}
	}
	if req.Completed != nil {
		activity.Completed = *req.Completed
	}

	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, lookupError(err, "activity not found", "failed to update activity")
	}
	invalidateDashboard(ctx, s.cache, s.logger)

	if activity.ResponsibleID != nil && (previous == nil || *previous != *activity.ResponsibleID) {
		counterparty := ""
		if agreement, err := s.agreements.FindByID(ctx, activity.AgreementID); err == nil {
			counterparty = agreement.Counterparty
		}
		s.notifyAssignment(ctx, *activity.ResponsibleID, activity, counterparty)
	}
	return activity, nil
}

// Complete marks an activity as done.
func (s *ActivityService) Complete(ctx context.Context, id string) (*models.Activity, error) {
	done := true
	return s.Update(ctx, id, dto.ActivityUpdateRequest{Completed: &done})
}

// Delete removes an activity.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "activity not found", "failed to delete activity")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// Recent returns the latest activities across agreements.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.RecentActivity, error) {
	if limit <= 0 {
		limit = defaultRecentActivities
	}
	items, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load recent activities")
	}
	if items == nil {
		items = []models.RecentActivity{}
	}
	return items, nil
}

func (s *ActivityService) ensureUser(ctx context.Context, userID *string) error {
	if userID == nil {
		return nil
	}
	_, err := s.users.FindByID(ctx, *userID)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrValidation, "responsible_id does not reference an existing user")
	}
	if err != nil {
		return appErrors.Internal(err, "failed to load responsible user")
	}
	return nil
}

func (s *ActivityService) notifyAssignment(ctx context.Context, userID string, activity *models.Activity, counterparty string) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("You are responsible for %q from %s to %s", activity.Title, activity.StartDate.Format(dateLayout), activity.EndDate.Format(dateLayout))
	if counterparty != "" {
		message += " (" + counterparty + ")"
	}
	if _, err := s.notifier.Notify(ctx, userID, models.NotificationActivityAssigned, "New activity assigned", message); err != nil {
		s.logger.Warn("failed to notify activity assignment", zap.String("activity_id", activity.ID), zap.Error(err))
	}
}
