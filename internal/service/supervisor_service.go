package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

// SupervisorAlertTitle is the title of notifications sent through SendAlert.
const SupervisorAlertTitle = "System alert"

type supervisorRepository interface {
	List(ctx context.Context, filter models.SupervisorFilter) ([]models.SupervisorDetail, error)
	FindByID(ctx context.Context, id string) (*models.SupervisorDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.SupervisorDetail, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, supervisor *models.Supervisor) error
	Update(ctx context.Context, supervisor *models.Supervisor) error
	Assign(ctx context.Context, link *models.AssignmentLink) (bool, error)
	Unassign(ctx context.Context, supervisorID, agreementID string) error
	AssignedAgreements(ctx context.Context, supervisorID string) ([]models.Agreement, error)
	AssignedAgreementsBySupervisor(ctx context.Context, supervisorIDs []string) (map[string][]models.Agreement, error)
	AvailableAgreements(ctx context.Context, supervisorID string) ([]models.Agreement, error)
}

type supervisorReportRepository interface {
	ListBySupervisorUser(ctx context.Context, userID string) ([]models.Report, error)
	CountBySupervisorUser(ctx context.Context, userID string) (models.ReportTally, error)
	CountBySupervisorUsers(ctx context.Context, userIDs []string) (map[string]models.ReportTally, error)
}

type evaluationLister interface {
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.EvaluationView, error)
}

// SupervisorServiceParams groups constructor dependencies.
type SupervisorServiceParams struct {
	Repo        supervisorRepository
	Reports     supervisorReportRepository
	Evaluations evaluationLister
	Agreements  agreementLookup
	Profiles    profileLookup
	Notifier    notifier
	Cache       *CacheService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// SupervisorService manages supervisors, their assignments and workload.
type SupervisorService struct {
	repo        supervisorRepository
	reports     supervisorReportRepository
	evaluations evaluationLister
	agreements  agreementLookup
	profiles    profileLookup
	notifier    notifier
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSupervisorService constructs a SupervisorService.
func NewSupervisorService(params SupervisorServiceParams) *SupervisorService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupervisorService{
		repo:        params.Repo,
		reports:     params.Reports,
		evaluations: params.Evaluations,
		agreements:  params.Agreements,
		profiles:    params.Profiles,
		notifier:    params.Notifier,
		cache:       params.Cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns supervisors with names, initials, assigned agreements and a freshly computed workload.
func (s *SupervisorService) List(ctx context.Context, filter models.SupervisorFilter) ([]dto.SupervisorSummary, error) {
	supervisors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list supervisors")
	}
	ids := make([]string, 0, len(supervisors))
	userIDs := make([]string, 0, len(supervisors))
	for _, sup := range supervisors {
		ids = append(ids, sup.ID)
		userIDs = append(userIDs, sup.UserID)
	}
	assigned, err := s.repo.AssignedAgreementsBySupervisor(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load assigned agreements")
	}
	tallies, err := s.reports.CountBySupervisorUsers(ctx, userIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count supervisor reports")
	}

	result := make([]dto.SupervisorSummary, 0, len(supervisors))
	for _, sup := range supervisors {
		result = append(result, summarize(sup, assigned[sup.ID], tallies[sup.UserID]))
	}
	return result, nil
}

func summarize(sup models.SupervisorDetail, agreements []models.Agreement, tally models.ReportTally) dto.SupervisorSummary {
	if agreements == nil {
		agreements = []models.Agreement{}
	}
	return dto.SupervisorSummary{
		SupervisorDetail: sup,
		FullName:         sup.FullName(),
		Initials:         sup.Initials(),
		Agreements:       agreements,
		Workload:         tally,
	}
}

// Get returns a supervisor with reports, assigned agreements, evaluations and workload.
func (s *SupervisorService) Get(ctx context.Context, id string) (*dto.SupervisorProfile, error) {
	sup, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	agreements, err := s.repo.AssignedAgreements(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load assigned agreements")
	}
	reports, err := s.reports.ListBySupervisorUser(ctx, sup.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load supervisor reports")
	}
	evaluations, err := s.evaluations.ListBySupervisor(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load evaluations")
	}
	if reports == nil {
		reports = []models.Report{}
	}
	if evaluations == nil {
		evaluations = []models.EvaluationView{}
	}

	var average *float64
	if len(evaluations) > 0 {
		var sum float64
		for i := range evaluations {
			evaluations[i].Average = evaluations[i].AverageScore()
			sum += evaluations[i].Average
		}
		mean := sum / float64(len(evaluations))
		average = &mean
	}

	return &dto.SupervisorProfile{
		SupervisorSummary: summarize(*sup, agreements, models.TallyReports(reports, sup.UserID)),
		Reports:           reports,
		Evaluations:       evaluations,
		AverageScore:      average,
	}, nil
}

func (s *SupervisorService) find(ctx context.Context, id string) (*models.SupervisorDetail, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "supervisor not found", "failed to load supervisor")
	}
	return sup, nil
}

// Create registers a supervisor for a user holding the supervisor role.
func (s *SupervisorService) Create(ctx context.Context, req dto.SupervisorRequest) (*models.SupervisorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid supervisor payload")
	}
	profile, err := s.profiles.FindByUserID(ctx, req.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load user profile")
	}
	if profile == nil || profile.Role != models.RoleSupervisor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user must have the supervisor role")
	}
	if _, err := s.repo.FindByUserID(ctx, req.UserID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user is already a supervisor")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check existing supervisor")
	}
	code := strings.TrimSpace(req.Code)
	if err := s.ensureUniqueCode(ctx, code, ""); err != nil {
		return nil, err
	}

	joined := models.CalendarDate(s.now(), time.UTC)
	if strings.TrimSpace(req.JoinedOn) != "" {
		if joined, err = parseDate("joined_on", req.JoinedOn); err != nil {
			return nil, err
		}
	}
	status := req.Status
	if status == "" {
		status = models.SupervisorActive
	}
	supervisor := &models.Supervisor{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Code:            code,
		Specialty:       strings.TrimSpace(req.Specialty),
		ExperienceYears: req.ExperienceYears,
		Status:          status,
		JoinedOn:        joined,
	}
	if err := s.repo.Create(ctx, supervisor); err != nil {
		return nil, appErrors.Internal(err, "failed to create supervisor")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return s.find(ctx, supervisor.ID)
}

// Update patches a supervisor.
func (s *SupervisorService) Update(ctx context.Context, id string, req dto.SupervisorUpdateRequest) (*models.SupervisorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid supervisor payload")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	supervisor := current.Supervisor
	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "code cannot be empty")
		}
		if code != supervisor.Code {
			if err := s.ensureUniqueCode(ctx, code, id); err != nil {
				return nil, err
			}
		}
		supervisor.Code = code
	}
	if req.Specialty != nil {
		supervisor.Specialty = strings.TrimSpace(*req.Specialty)
	}
	if req.ExperienceYears != nil {
		supervisor.ExperienceYears = *req.ExperienceYears
	}
	if req.Status != nil {
		supervisor.Status = *req.Status
	}
	if err := s.repo.Update(ctx, &supervisor); err != nil {
		return nil, lookupError(err, "supervisor not found", "failed to update supervisor")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return s.find(ctx, id)
}

func (s *SupervisorService) ensureUniqueCode(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check code uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "supervisor code already used")
	}
	return nil
}

// Assign links an agreement to a supervisor.
func (s *SupervisorService) Assign(ctx context.Context, supervisorID string, req dto.AssignAgreementRequest) (*models.AssignmentLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid assignment payload")
	}
	if _, err := s.find(ctx, supervisorID); err != nil {
		return nil, err
	}
	if _, err := s.agreements.FindByID(ctx, req.AgreementID); err != nil {
		return nil, lookupError(err, "agreement not found", "failed to load agreement")
	}
	link := &models.AssignmentLink{SupervisorID: supervisorID, AgreementID: req.AgreementID, CreatedAt: s.now().UTC()}
	created, err := s.repo.Assign(ctx, link)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to assign agreement")
	}
	if !created {
		return nil, appErrors.Clone(appErrors.ErrConflict, "agreement already assigned to supervisor")
	}
	return link, nil
}

// Unassign removes the link between a supervisor and an agreement.
func (s *SupervisorService) Unassign(ctx context.Context, supervisorID, agreementID string) error {
	if err := s.repo.Unassign(ctx, supervisorID, agreementID); err != nil {
		return lookupError(err, "assignment not found", "failed to unassign agreement")
	}
	return nil
}

// AvailableAgreements lists agreements the supervisor is not yet assigned to.
func (s *SupervisorService) AvailableAgreements(ctx context.Context, supervisorID string) ([]models.Agreement, error) {
	if _, err := s.find(ctx, supervisorID); err != nil {
		return nil, err
	}
	items, err := s.repo.AvailableAgreements(ctx, supervisorID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list available agreements")
	}
	if items == nil {
		items = []models.Agreement{}
	}
	return items, nil
}

// Workload counts the reports submitted by the supervisor's user account.
func (s *SupervisorService) Workload(ctx context.Context, supervisorID string) (*dto.Workload, error) {
	sup, err := s.find(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	tally, err := s.reports.CountBySupervisorUser(ctx, sup.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count supervisor reports")
	}
	return &dto.Workload{SupervisorID: supervisorID, ReportTally: tally}, nil
}

// SendAlert delivers a system notification to the supervisor's user account.
func (s *SupervisorService) SendAlert(ctx context.Context, supervisorID string, req dto.AlertRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid alert payload")
	}
	sup, err := s.find(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	return s.notifier.Notify(ctx, sup.UserID, models.NotificationSystem, SupervisorAlertTitle, req.Message)
}
