package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/models"
)

func TestReportRepositoryListByAgreement(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "agreement_id", "supervisor_id", "title", "description", "file_path", "status", "delivery_date", "observations", "created_at", "updated_at"}).
		AddRow("r1", "a1", "u1", "Monthly", "", "", "pending", now, "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + reportColumns + " FROM reports WHERE agreement_id = $1 ORDER BY delivery_date DESC, created_at DESC")).
		WithArgs("a1").
		WillReturnRows(rows)

	reports, err := repo.ListByAgreement(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, models.ReportPending, reports[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCountBySupervisorUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("FROM reports WHERE supervisor_id = \\$1").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "approved"}).AddRow(3, 2, 1))

	tally, err := repo.CountBySupervisorUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportTally{Total: 3, Pending: 2, Approved: 1}, tally)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCountBySupervisorUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("WHERE supervisor_id = ANY\\(\\$1\\) GROUP BY supervisor_id").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"supervisor_id", "total", "pending", "approved"}).AddRow("u1", 3, 2, 1))

	tallies, err := repo.CountBySupervisorUsers(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportTally{Total: 3, Pending: 2, Approved: 1}, tallies["u1"])
	_, ok := tallies["u2"]
	assert.False(t, ok)

	empty, err := repo.CountBySupervisorUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateReviewMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET status = $2, observations = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("missing", models.ReportApproved, "ok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateReview(context.Background(), "missing", models.ReportApproved, "ok", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
