package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/models"
)

func TestProfileFindByUserIDMissingIsNotAnError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery("FROM user_profiles WHERE user_id").WithArgs("u-1").WillReturnError(sql.ErrNoRows)

	profile, err := repo.FindByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, profile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileFindByUserID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "role", "status", "phone", "address", "birth_date", "last_access", "created_at", "updated_at"}).
		AddRow("p-1", "u-1", "supervisor", "active", "555", "Main St", nil, now, now, now)
	mock.ExpectQuery("FROM user_profiles WHERE user_id").WithArgs("u-1").WillReturnRows(rows)

	profile, err := repo.FindByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, models.RoleSupervisor, profile.Role)
	assert.NotNil(t, profile.LastAccess)
}

func TestProfileTouchLastAccessWithoutProfile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("UPDATE user_profiles SET last_access").WillReturnResult(sqlmock.NewResult(0, 0))

	touched, err := repo.TouchLastAccess(context.Background(), "u-1", time.Now())
	require.NoError(t, err)
	assert.False(t, touched)
}

func TestProfileUserIDsByRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery("SELECT p.user_id FROM user_profiles p").
		WithArgs(models.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("a-1").AddRow("a-2"))

	ids, err := repo.UserIDsByRole(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "a-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
