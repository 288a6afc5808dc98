package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/agreements-api/internal/models"
)

// ProfileRepository persists optional user profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID returns the user's profile, or (nil, nil) when the user has none.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	const query = `SELECT id, user_id, role, status, phone, address, birth_date, last_access, created_at, updated_at FROM user_profiles WHERE user_id = $1`
	var profile models.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// Upsert creates the profile or replaces the existing one for the same user.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO user_profiles (id, user_id, role, status, phone, address, birth_date, last_access, created_at, updated_at)
		VALUES (:id, :user_id, :role, :status, :phone, :address, :birth_date, :last_access, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status, phone = EXCLUDED.phone, address = EXCLUDED.address, birth_date = EXCLUDED.birth_date, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// TouchLastAccess stamps last_access; it reports false when the user has no profile.
func (r *ProfileRepository) TouchLastAccess(ctx context.Context, userID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE user_profiles SET last_access = $2 WHERE user_id = $1`, userID, at)
	if err != nil {
		return false, fmt.Errorf("touch last access: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("touch last access: %w", err)
	}
	return n > 0, nil
}

// UserIDsByRole lists the users holding role whose profile is active.
func (r *ProfileRepository) UserIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	var ids []string
	const query = `SELECT p.user_id FROM user_profiles p JOIN users u ON u.id = p.user_id WHERE p.role = $1 AND p.status = 'active' AND u.active = TRUE ORDER BY p.user_id`
	if err := r.db.SelectContext(ctx, &ids, query, role); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return ids, nil
}
