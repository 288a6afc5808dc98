package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/agreements-api/internal/models"
)

const activityColumns = "id, agreement_id, title, description, start_date, end_date, responsible_id, completed, created_at"

// ActivityRepository manages persistence for agreement activities.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListByAgreement returns an agreement's activities, newest first.
func (r *ActivityRepository) ListByAgreement(ctx context.Context, agreementID string) ([]models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities WHERE agreement_id = $1 ORDER BY created_at DESC"
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, agreementID); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// FindByID fetches an activity by ID.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities WHERE id = $1"
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Create inserts an activity.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activities (id, agreement_id, title, description, start_date, end_date, responsible_id, completed, created_at)
		VALUES (:id, :agreement_id, :title, :description, :start_date, :end_date, :responsible_id, :completed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// Update modifies an activity's editable fields.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	const query = `UPDATE activities SET title = :title, description = :description, start_date = :start_date, end_date = :end_date, responsible_id = :responsible_id, completed = :completed WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, activity)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an activity.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return requireAffected(res)
}

// Recent returns the latest activities across all agreements.
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]models.RecentActivity, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT ac.id, ac.agreement_id, ac.title, ac.description, ac.start_date, ac.end_date, ac.responsible_id, ac.completed, ac.created_at, a.counterparty
		FROM activities ac JOIN agreements a ON a.id = ac.agreement_id
		ORDER BY ac.created_at DESC LIMIT $1`
	var items []models.RecentActivity
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}
	return items, nil
}

// CountIncomplete counts activities not yet completed.
func (r *ActivityRepository) CountIncomplete(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM activities WHERE completed = FALSE`); err != nil {
		return 0, fmt.Errorf("count incomplete activities: %w", err)
	}
	return count, nil
}
