package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

func newEvaluationServiceForTest() (*EvaluationService, *mockSupervisorRepo, *mockEvaluationRepo) {
	supervisors := newMockSupervisorRepo()
	supervisors.add(models.SupervisorDetail{Supervisor: models.Supervisor{ID: "s1", UserID: "u-sup", Code: "SUP-1"}})
	evals := &mockEvaluationRepo{}
	agreements := newMockAgreementRepo(models.Agreement{ID: agreementUUID, Counterparty: "Acme"})
	svc := NewEvaluationService(evals, supervisors, agreements, nil, nil)
	svc.now = func() time.Time { return fixedToday }
	return svc, supervisors, evals
}

func validEvaluation() dto.EvaluationRequest {
	return dto.EvaluationRequest{AgreementID: agreementUUID, Overall: 8, Punctuality: 9, ReportQuality: 7, Communication: 10}
}

func TestEvaluationCreateReturnsAverage(t *testing.T) {
	svc, supervisors, evals := newEvaluationServiceForTest()
	supervisors.links["s1"] = map[string]bool{agreementUUID: true}

	view, err := svc.Create(context.Background(), "s1", "admin-1", validEvaluation())
	require.NoError(t, err)
	assert.Equal(t, 8.5, view.Average)
	assert.Equal(t, "Acme", view.Counterparty)
	assert.Equal(t, "admin-1", view.EvaluatorID)
	assert.Equal(t, fixedToday, view.EvaluatedAt)
	require.Len(t, evals.created, 1)
}

func TestEvaluationRatingsMustBeInRange(t *testing.T) {
	svc, supervisors, evals := newEvaluationServiceForTest()
	supervisors.links["s1"] = map[string]bool{agreementUUID: true}

	for _, mutate := range []func(*dto.EvaluationRequest){
		func(r *dto.EvaluationRequest) { r.Overall = 0 },
		func(r *dto.EvaluationRequest) { r.Punctuality = 11 },
		func(r *dto.EvaluationRequest) { r.ReportQuality = -3 },
		func(r *dto.EvaluationRequest) { r.Communication = 100 },
	} {
		req := validEvaluation()
		mutate(&req)
		_, err := svc.Create(context.Background(), "s1", "admin-1", req)
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	}
	assert.Empty(t, evals.created)

	edge := validEvaluation()
	edge.Overall, edge.Punctuality, edge.ReportQuality, edge.Communication = 1, 10, 1, 10
	view, err := svc.Create(context.Background(), "s1", "admin-1", edge)
	require.NoError(t, err)
	assert.Equal(t, 5.5, view.Average)
}

func TestEvaluationRequiresAssignment(t *testing.T) {
	svc, _, evals := newEvaluationServiceForTest()

	_, err := svc.Create(context.Background(), "s1", "admin-1", validEvaluation())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Empty(t, evals.created)

	_, err = svc.Create(context.Background(), "missing", "admin-1", validEvaluation())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestEvaluationListComputesAverages(t *testing.T) {
	svc, _, evals := newEvaluationServiceForTest()
	evals.items = []models.EvaluationView{{Evaluation: models.Evaluation{Overall: 4, Punctuality: 4, ReportQuality: 5, Communication: 5}}}

	items, err := svc.ListBySupervisor(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4.5, items[0].Average)
}
