package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

type mockActivityRepo struct {
	items  map[string]*models.Activity
	recent []models.RecentActivity
	limit  int
}

func (m *mockActivityRepo) ListByAgreement(ctx context.Context, agreementID string) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range m.items {
		if a.AgreementID == agreementID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockActivityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	cp := *activity
	m.items[activity.ID] = &cp
	return nil
}

func (m *mockActivityRepo) Update(ctx context.Context, activity *models.Activity) error {
	if _, ok := m.items[activity.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *activity
	m.items[activity.ID] = &cp
	return nil
}

func (m *mockActivityRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *mockActivityRepo) Recent(ctx context.Context, limit int) ([]models.RecentActivity, error) {
	m.limit = limit
	return m.recent, nil
}

type mockUserLookup struct{ users map[string]*models.User }

func (m *mockUserLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

const (
	studentID = "6f1c2a9e-8d7b-4c3a-9e1f-0a2b3c4d5e01"
	otherID   = "6f1c2a9e-8d7b-4c3a-9e1f-0a2b3c4d5e02"
)

func newActivityServiceForTest() (*ActivityService, *mockActivityRepo, *recordingNotifier) {
	repo := &mockActivityRepo{items: map[string]*models.Activity{}}
	agreements := newMockAgreementRepo(models.Agreement{ID: "a1", Counterparty: "Acme"})
	users := &mockUserLookup{users: map[string]*models.User{
		studentID: {ID: studentID, Username: "student"},
		otherID:   {ID: otherID, Username: "other"},
	}}
	notify := &recordingNotifier{}
	return NewActivityService(repo, agreements, users, notify, nil, nil, nil), repo, notify
}

func TestActivityCreateNotifiesResponsible(t *testing.T) {
	svc, repo, notify := newActivityServiceForTest()
	responsible := studentID

	activity, err := svc.Create(context.Background(), "a1", dto.ActivityRequest{
		Title: "Site visit", StartDate: "2026-06-01", EndDate: "2026-06-02", ResponsibleID: &responsible,
	})
	require.NoError(t, err)
	assert.False(t, activity.Completed)
	assert.Len(t, repo.items, 1)
	require.Len(t, notify.sent, 1)
	assert.Equal(t, studentID, notify.sent[0].UserID)
	assert.Equal(t, models.NotificationActivityAssigned, notify.sent[0].Type)
	assert.Contains(t, notify.sent[0].Message, "Acme")
}

func TestActivityCreateWithoutResponsibleDoesNotNotify(t *testing.T) {
	svc, _, notify := newActivityServiceForTest()

	_, err := svc.Create(context.Background(), "a1", dto.ActivityRequest{Title: "Kickoff", StartDate: "2026-06-01", EndDate: "2026-06-01"})
	require.NoError(t, err)
	assert.Empty(t, notify.sent)
}

func TestActivityCreateValidation(t *testing.T) {
	svc, _, _ := newActivityServiceForTest()

	_, err := svc.Create(context.Background(), "a1", dto.ActivityRequest{Title: "x", StartDate: "2026-06-02", EndDate: "2026-06-01"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	ghost := "6f1c2a9e-8d7b-4c3a-9e1f-0a2b3c4d5eff"
	_, err = svc.Create(context.Background(), "a1", dto.ActivityRequest{Title: "x", StartDate: "2026-06-01", EndDate: "2026-06-01", ResponsibleID: &ghost})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), "missing", dto.ActivityRequest{Title: "x", StartDate: "2026-06-01", EndDate: "2026-06-01"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestActivityReassignNotifiesOnlyOnChange(t *testing.T) {
	svc, repo, notify := newActivityServiceForTest()
	current := studentID
	repo.items["act"] = &models.Activity{ID: "act", AgreementID: "a1", Title: "Visit", StartDate: date(2026, 6, 1), EndDate: date(2026, 6, 2), ResponsibleID: &current}

	same := studentID
	_, err := svc.Update(context.Background(), "act", dto.ActivityUpdateRequest{ResponsibleID: &same})
	require.NoError(t, err)
	assert.Empty(t, notify.sent)

	next := otherID
	updated, err := svc.Update(context.Background(), "act", dto.ActivityUpdateRequest{ResponsibleID: &next})
	require.NoError(t, err)
	assert.Equal(t, otherID, *updated.ResponsibleID)
	require.Len(t, notify.sent, 1)
	assert.Equal(t, otherID, notify.sent[0].UserID)
}

func TestActivityComplete(t *testing.T) {
	svc, repo, _ := newActivityServiceForTest()
	repo.items["act"] = &models.Activity{ID: "act", AgreementID: "a1", Title: "Visit", StartDate: date(2026, 6, 1), EndDate: date(2026, 6, 2)}

	activity, err := svc.Complete(context.Background(), "act")
	require.NoError(t, err)
	assert.True(t, activity.Completed)
	assert.True(t, repo.items["act"].Completed)

	_, err = svc.Complete(context.Background(), "missing")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestActivityRecentDefaultsLimit(t *testing.T) {
	svc, repo, _ := newActivityServiceForTest()

	items, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Equal(t, defaultRecentActivities, repo.limit)
}
