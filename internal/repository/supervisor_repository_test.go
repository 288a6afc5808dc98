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

var supervisorDetailCols = []string{"id", "user_id", "code", "specialty", "experience_years", "status", "joined_on", "created_at", "updated_at", "username", "email", "first_name", "last_name"}

func TestSupervisorRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSupervisorRepository(db)

	now := time.Now()
	status := models.SupervisorActive
	mock.ExpectQuery(regexp.QuoteMeta(supervisorDetailSelect+" WHERE 1=1 AND s.status = $1 AND (LOWER(u.first_name) LIKE $2 ESCAPE '\\'")).
		WithArgs(status, "%ana%").
		WillReturnRows(sqlmock.NewRows(supervisorDetailCols).
			AddRow("s1", "u1", "SUP-01", "Pediatrics", 4, "active", now, now, now, "agomez", "ana@uni.edu", "Ana", "Gomez"))

	items, err := repo.List(context.Background(), models.SupervisorFilter{Status: &status, Search: "Ana"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "AG", items[0].Initials())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisorRepositoryAssign(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSupervisorRepository(db)

	mock.ExpectExec("INSERT INTO supervisor_agreements").
		WithArgs("s1", "a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO supervisor_agreements").
		WithArgs("s1", "a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.Assign(context.Background(), &models.AssignmentLink{SupervisorID: "s1", AgreementID: "a1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Assign(context.Background(), &models.AssignmentLink{SupervisorID: "s1", AgreementID: "a1"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisorRepositoryUnassignMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSupervisorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM supervisor_agreements WHERE supervisor_id = $1 AND agreement_id = $2")).
		WithArgs("s1", "a9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Unassign(context.Background(), "s1", "a9"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisorRepositoryIsAssigned(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSupervisorRepository(db)

	mock.ExpectQuery("SELECT 1 FROM supervisor_agreements").
		WithArgs("s1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM supervisor_agreements").
		WithArgs("s1", "a2").
		WillReturnError(sql.ErrNoRows)

	ok, err := repo.IsAssigned(context.Background(), "s1", "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsAssigned(context.Background(), "s1", "a2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisorRepositoryAssignedAgreementsBySupervisor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSupervisorRepository(db)

	now := time.Now()
	cols := append([]string{"assigned_supervisor_id"}, "id", "counterparty", "type", "start_date", "expiration_date", "status", "supervisor_id", "description", "file_path", "file_mime_type", "created_at", "updated_at")
	mock.ExpectQuery("WHERE sa.supervisor_id = ANY\\(\\$1\\)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", "a1", "Acme", "framework", now, now, "active", nil, "", nil, nil, now, now).
			AddRow("s1", "a2", "Beta", "welfare", now, now, "active", nil, "", nil, nil, now, now).
			AddRow("s2", "a1", "Acme", "framework", now, now, "active", nil, "", nil, nil, now, now))

	byID, err := repo.AssignedAgreementsBySupervisor(context.Background(), []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Len(t, byID["s1"], 2)
	assert.Len(t, byID["s2"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectExec("INSERT INTO evaluations").WillReturnResult(sqlmock.NewResult(1, 1))
	evaluation := &models.Evaluation{SupervisorID: "s1", EvaluatorID: "u9", AgreementID: "a1", Overall: 8, Punctuality: 6, ReportQuality: 7, Communication: 9}
	require.NoError(t, repo.Create(context.Background(), evaluation))
	assert.NotEmpty(t, evaluation.ID)
	assert.False(t, evaluation.EvaluatedAt.IsZero())

	now := time.Now()
	mock.ExpectQuery("FROM evaluations e JOIN agreements a").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "supervisor_id", "evaluator_id", "agreement_id", "overall", "punctuality", "report_quality", "communication", "observations", "evaluated_at", "counterparty"}).
			AddRow("e1", "s1", "u9", "a1", 8, 6, 7, 9, "", now, "Acme"))

	items, err := repo.ListBySupervisor(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.InDelta(t, 7.5, items[0].AverageScore(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
