package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

type evaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.EvaluationView, error)
}

type assignmentChecker interface {
	FindByID(ctx context.Context, id string) (*models.SupervisorDetail, error)
	IsAssigned(ctx context.Context, supervisorID, agreementID string) (bool, error)
}

// EvaluationService records and lists supervisor evaluations.
type EvaluationService struct {
	repo        evaluationRepository
	supervisors assignmentChecker
	agreements  agreementLookup
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(repo evaluationRepository, supervisors assignmentChecker, agreements agreementLookup, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		repo:        repo,
		supervisors: supervisors,
		agreements:  agreements,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Create evaluates a supervisor for one of its assigned agreements. Every rating must lie in [1, 10].
func (s *EvaluationService) Create(ctx context.Context, supervisorID, evaluatorID string, req dto.EvaluationRequest) (*models.EvaluationView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid evaluation payload")
	}
	evaluation := models.Evaluation{
		SupervisorID:  supervisorID,
		EvaluatorID:   evaluatorID,
		AgreementID:   req.AgreementID,
		Overall:       req.Overall,
		Punctuality:   req.Punctuality,
		ReportQuality: req.ReportQuality,
		Communication: req.Communication,
		Observations:  strings.TrimSpace(req.Observations),
		EvaluatedAt:   s.now().UTC(),
	}
	if err := evaluation.Validate(); err != nil {
		return nil, appErrors.Invalid(err, err.Error())
	}

	if _, err := s.supervisors.FindByID(ctx, supervisorID); err != nil {
		return nil, lookupError(err, "supervisor not found", "failed to load supervisor")
	}
	agreement, err := s.agreements.FindByID(ctx, req.AgreementID)
	if err != nil {
		return nil, lookupError(err, "agreement not found", "failed to load agreement")
	}
	assigned, err := s.supervisors.IsAssigned(ctx, supervisorID, req.AgreementID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrValidation, "agreement is not assigned to this supervisor")
	}

	if err := s.repo.Create(ctx, &evaluation); err != nil {
		return nil, appErrors.Internal(err, "failed to create evaluation")
	}
	s.logger.Info("supervisor evaluated",
		zap.String("supervisor_id", supervisorID),
		zap.String("agreement_id", req.AgreementID),
		zap.Float64("average_score", evaluation.AverageScore()),
	)
	return &models.EvaluationView{
		Evaluation:   evaluation,
		Counterparty: agreement.Counterparty,
		Average:      evaluation.AverageScore(),
	}, nil
}

// ListBySupervisor returns a supervisor's evaluations, newest first, with average scores.
func (s *EvaluationService) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.EvaluationView, error) {
	if _, err := s.supervisors.FindByID(ctx, supervisorID); err != nil {
		return nil, lookupError(err, "supervisor not found", "failed to load supervisor")
	}
	items, err := s.repo.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list evaluations")
	}
	if items == nil {
		items = []models.EvaluationView{}
	}
	for i := range items {
		items[i].Average = items[i].AverageScore()
	}
	return items, nil
}
