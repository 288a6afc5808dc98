package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/agreements-api/internal/models"
)

const agreementColumns = "a.id, a.counterparty, a.type, a.start_date, a.expiration_date, a.status, a.supervisor_id, a.description, a.file_path, a.file_mime_type, a.created_at, a.updated_at"

const agreementViewSelect = "SELECT " + agreementColumns + ", u.first_name AS supervisor_first_name, u.last_name AS supervisor_last_name, u.username AS supervisor_username FROM agreements a LEFT JOIN users u ON u.id = a.supervisor_id"

// AgreementRepository manages persistence for agreements.
type AgreementRepository struct {
	db *sqlx.DB
}

// NewAgreementRepository constructs an AgreementRepository.
func NewAgreementRepository(db *sqlx.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

// List returns one page of agreements matching the filter along with the total count.
func (r *AgreementRepository) List(ctx context.Context, filter models.AgreementFilter) ([]models.AgreementView, int, error) {
	where, args := agreementWhere(filter)
	order := agreementOrder(filter)

	_, size, offset := models.PageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s %s ORDER BY %s LIMIT %d OFFSET %d", agreementViewSelect, where, order, size, offset)
	var items []models.AgreementView
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list agreements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM agreements a LEFT JOIN users u ON u.id = a.supervisor_id %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count agreements: %w", err)
	}

	return items, total, nil
}

// ListAll returns every agreement matching the filter, ignoring pagination.
func (r *AgreementRepository) ListAll(ctx context.Context, filter models.AgreementFilter) ([]models.AgreementView, error) {
	where, args := agreementWhere(filter)
	query := fmt.Sprintf("%s %s ORDER BY %s", agreementViewSelect, where, agreementOrder(filter))
	var items []models.AgreementView
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list all agreements: %w", err)
	}
	return items, nil
}

func agreementWhere(filter models.AgreementFilter) (string, []interface{}) {
	clause := "WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("a.type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.StartFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.start_date >= $%d", len(args)+1))
		args = append(args, *filter.StartFrom)
	}
	if filter.StartTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.start_date <= $%d", len(args)+1))
		args = append(args, *filter.StartTo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(a.counterparty) LIKE $%d ESCAPE '\\' OR LOWER(COALESCE(u.first_name, '')) LIKE $%d ESCAPE '\\' OR LOWER(COALESCE(u.last_name, '')) LIKE $%d ESCAPE '\\')", n, n, n))
		args = append(args, containsPattern(search))
	}

	if len(conditions) > 0 {
		clause += " AND " + strings.Join(conditions, " AND ")
	}
	return clause, args
}

func agreementOrder(filter models.AgreementFilter) string {
	allowedSorts := map[string]string{
		"counterparty":    "a.counterparty",
		"type":            "a.type",
		"status":          "a.status",
		"start_date":      "a.start_date",
		"expiration_date": "a.expiration_date",
		"created_at":      "a.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "a.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return column + " " + order
}

// Counters tallies agreements by stored temporal status.
func (r *AgreementRepository) Counters(ctx context.Context) (models.AgreementCounters, error) {
	const query = `SELECT COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'active') AS active,
		COUNT(*) FILTER (WHERE status = 'about-to-expire') AS about_to_expire,
		COUNT(*) FILTER (WHERE status = 'expired') AS expired
		FROM agreements`
	var counters models.AgreementCounters
	if err := r.db.GetContext(ctx, &counters, query); err != nil {
		return models.AgreementCounters{}, fmt.Errorf("count agreements by status: %w", err)
	}
	return counters, nil
}

// FindByID fetches an agreement with its supervisor names.
func (r *AgreementRepository) FindByID(ctx context.Context, id string) (*models.AgreementView, error) {
	query := agreementViewSelect + " WHERE a.id = $1"
	var item models.AgreementView
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new agreement.
func (r *AgreementRepository) Create(ctx context.Context, agreement *models.Agreement) error {
	if agreement.ID == "" {
		agreement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if agreement.CreatedAt.IsZero() {
		agreement.CreatedAt = now
	}
	agreement.UpdatedAt = now

	const query = `INSERT INTO agreements (id, counterparty, type, start_date, expiration_date, status, supervisor_id, description, file_path, file_mime_type, created_at, updated_at)
		VALUES (:id, :counterparty, :type, :start_date, :expiration_date, :status, :supervisor_id, :description, :file_path, :file_mime_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, agreement); err != nil {
		return fmt.Errorf("create agreement: %w", err)
	}
	return nil
}

// Update modifies the editable fields of an agreement. Attachment columns are managed by UpdateFile.
func (r *AgreementRepository) Update(ctx context.Context, agreement *models.Agreement) error {
	agreement.UpdatedAt = time.Now().UTC()
	const query = `UPDATE agreements SET counterparty = :counterparty, type = :type, start_date = :start_date, expiration_date = :expiration_date, status = :status, supervisor_id = :supervisor_id, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, agreement)
	if err != nil {
		return fmt.Errorf("update agreement: %w", err)
	}
	return requireAffected(res)
}

// UpdateFile records the stored attachment key and MIME type.
func (r *AgreementRepository) UpdateFile(ctx context.Context, id, path, mimeType string) error {
	const query = `UPDATE agreements SET file_path = $2, file_mime_type = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, path, mimeType, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update agreement file: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an agreement; dependent rows cascade at the schema level.
func (r *AgreementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM agreements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agreement: %w", err)
	}
	return requireAffected(res)
}

// Expiring lists agreements whose expiration date falls in [from, to], soonest first.
func (r *AgreementRepository) Expiring(ctx context.Context, from, to time.Time, limit int) ([]models.AgreementView, error) {
	query := agreementViewSelect + " WHERE a.expiration_date BETWEEN $1 AND $2 ORDER BY a.expiration_date ASC"
	args := []interface{}{from, to}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}
	var items []models.AgreementView
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list expiring agreements: %w", err)
	}
	return items, nil
}

// TypeDistribution counts agreements per type.
func (r *AgreementRepository) TypeDistribution(ctx context.Context) ([]models.TypeCount, error) {
	const query = `SELECT type, COUNT(*) AS count FROM agreements GROUP BY type ORDER BY type`
	var counts []models.TypeCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("agreement type distribution: %w", err)
	}
	return counts, nil
}

// ListTemporal returns agreements whose stored status the calendar can move.
func (r *AgreementRepository) ListTemporal(ctx context.Context) ([]models.Agreement, error) {
	const query = `SELECT id, counterparty, type, start_date, expiration_date, status, supervisor_id, description, file_path, file_mime_type, created_at, updated_at
		FROM agreements WHERE status IN ('active', 'about-to-expire', 'expired') ORDER BY expiration_date ASC`
	var items []models.Agreement
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list temporal agreements: %w", err)
	}
	return items, nil
}

// CompareAndSetStatus moves an agreement from one status to another, reporting whether the row changed.
func (r *AgreementRepository) CompareAndSetStatus(ctx context.Context, id string, from, to models.AgreementStatus) (bool, error) {
	const query = `UPDATE agreements SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set agreement status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set agreement status: %w", err)
	}
	return n > 0, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
