package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/agreements-api/internal/models"
)

const reportColumns = "id, agreement_id, supervisor_id, title, description, file_path, status, delivery_date, observations, created_at, updated_at"

// ReportRepository manages persistence for supervision reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListByAgreement returns the reports filed against an agreement, newest first.
func (r *ReportRepository) ListByAgreement(ctx context.Context, agreementID string) ([]models.Report, error) {
	query := "SELECT " + reportColumns + " FROM reports WHERE agreement_id = $1 ORDER BY delivery_date DESC, created_at DESC"
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, agreementID); err != nil {
		return nil, fmt.Errorf("list reports by agreement: %w", err)
	}
	return reports, nil
}

// ListBySupervisorUser returns the reports submitted by a user account, newest first.
func (r *ReportRepository) ListBySupervisorUser(ctx context.Context, userID string) ([]models.Report, error) {
	query := "SELECT " + reportColumns + " FROM reports WHERE supervisor_id = $1 ORDER BY delivery_date DESC, created_at DESC"
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, userID); err != nil {
		return nil, fmt.Errorf("list reports by supervisor: %w", err)
	}
	return reports, nil
}

// FindByID fetches a report by ID.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := "SELECT " + reportColumns + " FROM reports WHERE id = $1"
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create inserts a report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	const query = `INSERT INTO reports (id, agreement_id, supervisor_id, title, description, file_path, status, delivery_date, observations, created_at, updated_at)
		VALUES (:id, :agreement_id, :supervisor_id, :title, :description, :file_path, :status, :delivery_date, :observations, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// UpdateReview stores a review decision.
func (r *ReportRepository) UpdateReview(ctx context.Context, id string, status models.ReportStatus, observations string, at time.Time) error {
	const query = `UPDATE reports SET status = $2, observations = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, observations, at)
	if err != nil {
		return fmt.Errorf("review report: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return requireAffected(res)
}

// CountBySupervisorUser tallies the reports submitted by one user account.
func (r *ReportRepository) CountBySupervisorUser(ctx context.Context, userID string) (models.ReportTally, error) {
	const query = `SELECT COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		COUNT(*) FILTER (WHERE status = 'approved') AS approved
		FROM reports WHERE supervisor_id = $1`
	var tally models.ReportTally
	if err := r.db.GetContext(ctx, &tally, query, userID); err != nil {
		return models.ReportTally{}, fmt.Errorf("count reports by supervisor: %w", err)
	}
	return tally, nil
}

// CountBySupervisorUsers tallies reports for several user accounts in one query.
// Users without reports are absent from the map.
func (r *ReportRepository) CountBySupervisorUsers(ctx context.Context, userIDs []string) (map[string]models.ReportTally, error) {
	result := make(map[string]models.ReportTally, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	const query = `SELECT supervisor_id, COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		COUNT(*) FILTER (WHERE status = 'approved') AS approved
		FROM reports WHERE supervisor_id = ANY($1) GROUP BY supervisor_id`
	var rows []struct {
		SupervisorID string `db:"supervisor_id"`
		models.ReportTally
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("count reports by supervisors: %w", err)
	}
	for _, row := range rows {
		result[row.SupervisorID] = row.ReportTally
	}
	return result, nil
}

// Totals tallies every report in the system.
func (r *ReportRepository) Totals(ctx context.Context) (models.ReportTally, error) {
	const query = `SELECT COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		COUNT(*) FILTER (WHERE status = 'approved') AS approved
		FROM reports`
	var tally models.ReportTally
	if err := r.db.GetContext(ctx, &tally, query); err != nil {
		return models.ReportTally{}, fmt.Errorf("count reports: %w", err)
	}
	return tally, nil
}
