package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/agreements-api/internal/models"
)

// EvaluationRepository persists supervisor evaluations.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs an EvaluationRepository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts an evaluation.
func (r *EvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	if evaluation.EvaluatedAt.IsZero() {
		evaluation.EvaluatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluations (id, supervisor_id, evaluator_id, agreement_id, overall, punctuality, report_quality, communication, observations, evaluated_at)
		VALUES (:id, :supervisor_id, :evaluator_id, :agreement_id, :overall, :punctuality, :report_quality, :communication, :observations, :evaluated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// ListBySupervisor returns a supervisor's evaluations, newest first.
func (r *EvaluationRepository) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.EvaluationView, error) {
	const query = `SELECT e.id, e.supervisor_id, e.evaluator_id, e.agreement_id, e.overall, e.punctuality, e.report_quality, e.communication, e.observations, e.evaluated_at, a.counterparty
		FROM evaluations e JOIN agreements a ON a.id = e.agreement_id
		WHERE e.supervisor_id = $1 ORDER BY e.evaluated_at DESC`
	var items []models.EvaluationView
	if err := r.db.SelectContext(ctx, &items, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return items, nil
}
