package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

type reportRepository interface {
	ListByAgreement(ctx context.Context, agreementID string) ([]models.Report, error)
	ListBySupervisorUser(ctx context.Context, userID string) ([]models.Report, error)
	FindByID(ctx context.Context, id string) (*models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	UpdateReview(ctx context.Context, id string, status models.ReportStatus, observations string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type agreementLookup interface {
	FindByID(ctx context.Context, id string) (*models.AgreementView, error)
}

type roleDirectory interface {
	UserIDsByRole(ctx context.Context, role models.UserRole) ([]string, error)
}

// ReportService manages supervision reports.
type ReportService struct {
	repo       reportRepository
	agreements agreementLookup
	directory  roleDirectory
	notifier   notifier
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(repo reportRepository, agreements agreementLookup, directory roleDirectory, notify notifier, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:       repo,
		agreements: agreements,
		directory:  directory,
		notifier:   notify,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// ListByAgreement lists the reports filed against an agreement.
func (s *ReportService) ListByAgreement(ctx context.Context, agreementID string) ([]models.Report, error) {
	if _, err := s.agreements.FindByID(ctx, agreementID); err != nil {
		return nil, lookupError(err, "agreement not found", "failed to load agreement")
	}
	reports, err := s.repo.ListByAgreement(ctx, agreementID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reports")
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// ListBySupervisorUser lists the reports submitted by a supervisor user.
func (s *ReportService) ListBySupervisorUser(ctx context.Context, userID string) ([]models.Report, error) {
	reports, err := s.repo.ListBySupervisorUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reports")
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// Get returns a report by id.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "report not found", "failed to load report")
	}
	return report, nil
}

// Create files a pending report against an agreement. Supervisors submit as themselves;
// admins may name the supervisor user the report belongs to.
func (s *ReportService) Create(ctx context.Context, agreementID string, actor *models.JWTClaims, req dto.ReportRequest) (*models.Report, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid report payload")
	}
	agreement, err := s.agreements.FindByID(ctx, agreementID)
	if err != nil {
		return nil, lookupError(err, "agreement not found", "failed to load agreement")
	}

	submitter := actor.UserID
	if requested := trimOptional(req.SupervisorID); requested != nil && *requested != actor.UserID {
		if actor.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "reports can only be submitted for yourself")
		}
		submitter = *requested
	}

	delivery := models.CalendarDate(s.now(), time.UTC)
	if strings.TrimSpace(req.DeliveryDate) != "" {
		if delivery, err = parseDate("delivery_date", req.DeliveryDate); err != nil {
			return nil, err
		}
	}

	report := &models.Report{
		ID:           uuid.NewString(),
		AgreementID:  agreementID,
		SupervisorID: submitter,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		FilePath:     strings.TrimSpace(req.FilePath),
		Status:       models.ReportPending,
		DeliveryDate: delivery,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Internal(err, "failed to create report")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	s.notifyReviewers(ctx, report, agreement.Counterparty)
	return report, nil
}

func (s *ReportService) notifyReviewers(ctx context.Context, report *models.Report, counterparty string) {
	if s.notifier == nil || s.directory == nil {
		return
	}
	admins, err := s.directory.UserIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		s.logger.Warn("failed to resolve report reviewers", zap.Error(err))
		return
	}
	message := fmt.Sprintf("%q for %s is awaiting review", report.Title, counterparty)
	for _, adminID := range admins {
		if _, err := s.notifier.Notify(ctx, adminID, models.NotificationReportPending, "Report pending review", message); err != nil {
			s.logger.Warn("failed to notify reviewer", zap.String("user_id", adminID), zap.Error(err))
		}
	}
}

// Review records the review outcome of a report.
func (s *ReportService) Review(ctx context.Context, id string, req dto.ReviewReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid review payload")
	}
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "report not found", "failed to load report")
	}
	at := s.now().UTC()
	observations := strings.TrimSpace(req.Observations)
	if err := s.repo.UpdateReview(ctx, id, req.Status, observations, at); err != nil {
		return nil, lookupError(err, "report not found", "failed to review report")
	}
	report.Status = req.Status
	report.Observations = observations
	report.UpdatedAt = at
	invalidateDashboard(ctx, s.cache, s.logger)
	return report, nil
}

// Delete removes a report.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "report not found", "failed to delete report")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}
