package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

type mockReportRepo struct {
	items map[string]*models.Report
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{items: map[string]*models.Report{}}
}

func (m *mockReportRepo) ListByAgreement(ctx context.Context, agreementID string) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.items {
		if r.AgreementID == agreementID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReportRepo) ListBySupervisorUser(ctx context.Context, userID string) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.items {
		if r.SupervisorID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReportRepo) FindByID(ctx context.Context, id string) (*models.Report, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.Report) error {
	cp := *report
	m.items[report.ID] = &cp
	return nil
}

func (m *mockReportRepo) UpdateReview(ctx context.Context, id string, status models.ReportStatus, observations string, at time.Time) error {
	r, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	r.Observations = observations
	return nil
}

func (m *mockReportRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

type stubDirectory struct{ ids map[models.UserRole][]string }

func (s *stubDirectory) UserIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	return s.ids[role], nil
}

func newReportServiceForTest() (*ReportService, *mockReportRepo, *recordingNotifier) {
	repo := newMockReportRepo()
	agreements := newMockAgreementRepo(models.Agreement{ID: "a1", Counterparty: "Acme"})
	notify := &recordingNotifier{}
	directory := &stubDirectory{ids: map[models.UserRole][]string{models.RoleAdmin: {"admin-1", "admin-2"}}}
	svc := NewReportService(repo, agreements, directory, notify, nil, nil, nil)
	svc.now = func() time.Time { return fixedToday }
	return svc, repo, notify
}

func TestReportCreateDefaultsAndNotifiesAdmins(t *testing.T) {
	svc, repo, notify := newReportServiceForTest()
	actor := &models.JWTClaims{UserID: "sup-user", Role: models.RoleSupervisor}

	report, err := svc.Create(context.Background(), "a1", actor, dto.ReportRequest{Title: " Monthly visit "})
	require.NoError(t, err)
	assert.Equal(t, models.ReportPending, report.Status)
	assert.Equal(t, "sup-user", report.SupervisorID)
	assert.Equal(t, "Monthly visit", report.Title)
	assert.Equal(t, date(2026, 5, 10), report.DeliveryDate)
	assert.Len(t, repo.items, 1)

	require.Len(t, notify.sent, 2)
	assert.Equal(t, models.NotificationReportPending, notify.sent[0].Type)
	assert.Equal(t, "admin-1", notify.sent[0].UserID)
	assert.Contains(t, notify.sent[0].Message, "Acme")
}

func TestReportCreateOnBehalfRequiresAdmin(t *testing.T) {
	svc, _, _ := newReportServiceForTest()
	other := "4b0b6a1e-33f4-4a53-9b55-3ad4d4a0c001"
	req := dto.ReportRequest{Title: "Visit", SupervisorID: &other}

	_, err := svc.Create(context.Background(), "a1", &models.JWTClaims{UserID: "sup-user", Role: models.RoleSupervisor}, req)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	report, err := svc.Create(context.Background(), "a1", &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, req)
	require.NoError(t, err)
	assert.Equal(t, other, report.SupervisorID)
}

func TestReportCreateUnknownAgreement(t *testing.T) {
	svc, _, _ := newReportServiceForTest()

	_, err := svc.Create(context.Background(), "missing", &models.JWTClaims{UserID: "u"}, dto.ReportRequest{Title: "x"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestReportReview(t *testing.T) {
	svc, repo, _ := newReportServiceForTest()
	repo.items["r1"] = &models.Report{ID: "r1", AgreementID: "a1", Status: models.ReportPending}

	report, err := svc.Review(context.Background(), "r1", dto.ReviewReportRequest{Status: models.ReportApproved, Observations: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportApproved, report.Status)
	assert.Equal(t, models.ReportApproved, repo.items["r1"].Status)

	_, err = svc.Review(context.Background(), "r1", dto.ReviewReportRequest{Status: "archived"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.Review(context.Background(), "missing", dto.ReviewReportRequest{Status: models.ReportRejected})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestReportDelete(t *testing.T) {
	svc, repo, _ := newReportServiceForTest()
	repo.items["r1"] = &models.Report{ID: "r1"}

	require.NoError(t, svc.Delete(context.Background(), "r1"))
	err := svc.Delete(context.Background(), "r1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
