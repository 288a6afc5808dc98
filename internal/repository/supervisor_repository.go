package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/agreements-api/internal/models"
)

const supervisorDetailSelect = `SELECT s.id, s.user_id, s.code, s.specialty, s.experience_years, s.status, s.joined_on, s.created_at, s.updated_at, u.username, u.email, u.first_name, u.last_name FROM supervisors s JOIN users u ON u.id = s.user_id`

const plainAgreementColumns = "id, counterparty, type, start_date, expiration_date, status, supervisor_id, description, file_path, file_mime_type, created_at, updated_at"

// SupervisorRepository manages supervisors and their agreement assignments.
type SupervisorRepository struct {
	db *sqlx.DB
}

// NewSupervisorRepository constructs a SupervisorRepository.
func NewSupervisorRepository(db *sqlx.DB) *SupervisorRepository {
	return &SupervisorRepository{db: db}
}

// List returns supervisors joined with their user accounts, ordered by name.
func (r *SupervisorRepository) List(ctx context.Context, filter models.SupervisorFilter) ([]models.SupervisorDetail, error) {
	query := supervisorDetailSelect + " WHERE 1=1"
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, containsPattern(search))
		n := len(args)
		query += fmt.Sprintf(" AND (LOWER(u.first_name) LIKE $%d ESCAPE '\\' OR LOWER(u.last_name) LIKE $%d ESCAPE '\\' OR LOWER(s.code) LIKE $%d ESCAPE '\\' OR LOWER(s.specialty) LIKE $%d ESCAPE '\\')", n, n, n, n)
	}
	query += " ORDER BY u.first_name, u.last_name, u.username"

	var items []models.SupervisorDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list supervisors: %w", err)
	}
	return items, nil
}

// FindByID fetches a supervisor with user details.
func (r *SupervisorRepository) FindByID(ctx context.Context, id string) (*models.SupervisorDetail, error) {
	var item models.SupervisorDetail
	if err := r.db.GetContext(ctx, &item, supervisorDetailSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByUserID fetches the supervisor linked to a user account.
func (r *SupervisorRepository) FindByUserID(ctx context.Context, userID string) (*models.SupervisorDetail, error) {
	var item models.SupervisorDetail
	if err := r.db.GetContext(ctx, &item, supervisorDetailSelect+" WHERE s.user_id = $1", userID); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistsByCode checks whether another supervisor uses the code.
func (r *SupervisorRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM supervisors WHERE code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check supervisor code: %w", err)
	}
	return true, nil
}

// Create inserts a supervisor.
func (r *SupervisorRepository) Create(ctx context.Context, supervisor *models.Supervisor) error {
	if supervisor.ID == "" {
		supervisor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if supervisor.CreatedAt.IsZero() {
		supervisor.CreatedAt = now
	}
	supervisor.UpdatedAt = now

	const query = `INSERT INTO supervisors (id, user_id, code, specialty, experience_years, status, joined_on, created_at, updated_at)
		VALUES (:id, :user_id, :code, :specialty, :experience_years, :status, :joined_on, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, supervisor); err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}
	return nil
}

// Update modifies a supervisor's editable fields.
func (r *SupervisorRepository) Update(ctx context.Context, supervisor *models.Supervisor) error {
	supervisor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE supervisors SET code = :code, specialty = :specialty, experience_years = :experience_years, status = :status, joined_on = :joined_on, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, supervisor)
	if err != nil {
		return fmt.Errorf("update supervisor: %w", err)
	}
	return requireAffected(res)
}

// CountActive counts supervisors in active status.
func (r *SupervisorRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM supervisors WHERE status = 'active'`); err != nil {
		return 0, fmt.Errorf("count active supervisors: %w", err)
	}
	return count, nil
}

// Assign links a supervisor to an agreement. It reports false when the link already existed.
func (r *SupervisorRepository) Assign(ctx context.Context, link *models.AssignmentLink) (bool, error) {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO supervisor_agreements (supervisor_id, agreement_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (supervisor_id, agreement_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, link.SupervisorID, link.AgreementID, link.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("assign supervisor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign supervisor: %w", err)
	}
	return n > 0, nil
}

// Unassign removes a link. It returns sql.ErrNoRows when no link existed.
func (r *SupervisorRepository) Unassign(ctx context.Context, supervisorID, agreementID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM supervisor_agreements WHERE supervisor_id = $1 AND agreement_id = $2`, supervisorID, agreementID)
	if err != nil {
		return fmt.Errorf("unassign supervisor: %w", err)
	}
	return requireAffected(res)
}

// IsAssigned reports whether the supervisor oversees the agreement.
func (r *SupervisorRepository) IsAssigned(ctx context.Context, supervisorID, agreementID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM supervisor_agreements WHERE supervisor_id = $1 AND agreement_id = $2 LIMIT 1`, supervisorID, agreementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// AssignedAgreements lists the agreements linked to a supervisor, by counterparty.
func (r *SupervisorRepository) AssignedAgreements(ctx context.Context, supervisorID string) ([]models.Agreement, error) {
	query := "SELECT " + agreementColumns + " FROM agreements a JOIN supervisor_agreements sa ON sa.agreement_id = a.id WHERE sa.supervisor_id = $1 ORDER BY a.counterparty"
	var items []models.Agreement
	if err := r.db.SelectContext(ctx, &items, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list assigned agreements: %w", err)
	}
	return items, nil
}

// AssignedAgreementsBySupervisor batches AssignedAgreements for several supervisors.
func (r *SupervisorRepository) AssignedAgreementsBySupervisor(ctx context.Context, supervisorIDs []string) (map[string][]models.Agreement, error) {
	result := make(map[string][]models.Agreement, len(supervisorIDs))
	if len(supervisorIDs) == 0 {
		return result, nil
	}
	query := "SELECT sa.supervisor_id AS assigned_supervisor_id, " + agreementColumns + " FROM agreements a JOIN supervisor_agreements sa ON sa.agreement_id = a.id WHERE sa.supervisor_id = ANY($1) ORDER BY a.counterparty"
	var rows []struct {
		AssignedSupervisorID string `db:"assigned_supervisor_id"`
		models.Agreement
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(supervisorIDs)); err != nil {
		return nil, fmt.Errorf("list assigned agreements: %w", err)
	}
	for _, row := range rows {
		result[row.AssignedSupervisorID] = append(result[row.AssignedSupervisorID], row.Agreement)
	}
	return result, nil
}

// AvailableAgreements lists agreements not yet linked to the supervisor.
func (r *SupervisorRepository) AvailableAgreements(ctx context.Context, supervisorID string) ([]models.Agreement, error) {
	query := "SELECT " + plainAgreementColumns + " FROM agreements WHERE id NOT IN (SELECT agreement_id FROM supervisor_agreements WHERE supervisor_id = $1) ORDER BY counterparty"
	var items []models.Agreement
	if err := r.db.SelectContext(ctx, &items, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list available agreements: %w", err)
	}
	return items, nil
}
