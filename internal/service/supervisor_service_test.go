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

type mockSupervisorRepo struct {
	items       map[string]*models.SupervisorDetail
	links       map[string]map[string]bool
	agreements  map[string]models.Agreement
	codes       map[string]string
	listFilter  models.SupervisorFilter
	batchedIDs  []string
	createCalls int
}

func newMockSupervisorRepo() *mockSupervisorRepo {
	return &mockSupervisorRepo{
		items:      map[string]*models.SupervisorDetail{},
		links:      map[string]map[string]bool{},
		agreements: map[string]models.Agreement{},
		codes:      map[string]string{},
	}
}

func (m *mockSupervisorRepo) add(d models.SupervisorDetail) {
	cp := d
	m.items[d.ID] = &cp
	m.codes[d.Code] = d.ID
}

func (m *mockSupervisorRepo) List(ctx context.Context, filter models.SupervisorFilter) ([]models.SupervisorDetail, error) {
	m.listFilter = filter
	var out []models.SupervisorDetail
	for _, d := range m.items {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockSupervisorRepo) FindByID(ctx context.Context, id string) (*models.SupervisorDetail, error) {
	d, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (m *mockSupervisorRepo) FindByUserID(ctx context.Context, userID string) (*models.SupervisorDetail, error) {
	for _, d := range m.items {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSupervisorRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	owner, ok := m.codes[code]
	return ok && owner != excludeID, nil
}

func (m *mockSupervisorRepo) Create(ctx context.Context, supervisor *models.Supervisor) error {
	m.createCalls++
	m.add(models.SupervisorDetail{Supervisor: *supervisor, Username: "new.sup"})
	return nil
}

func (m *mockSupervisorRepo) Update(ctx context.Context, supervisor *models.Supervisor) error {
	d, ok := m.items[supervisor.ID]
	if !ok {
		return sql.ErrNoRows
	}
	d.Supervisor = *supervisor
	m.codes[supervisor.Code] = supervisor.ID
	return nil
}

func (m *mockSupervisorRepo) Assign(ctx context.Context, link *models.AssignmentLink) (bool, error) {
	if m.links[link.SupervisorID] == nil {
		m.links[link.SupervisorID] = map[string]bool{}
	}
	if m.links[link.SupervisorID][link.AgreementID] {
		return false, nil
	}
	m.links[link.SupervisorID][link.AgreementID] = true
	return true, nil
}

func (m *mockSupervisorRepo) Unassign(ctx context.Context, supervisorID, agreementID string) error {
	if !m.links[supervisorID][agreementID] {
		return sql.ErrNoRows
	}
	delete(m.links[supervisorID], agreementID)
	return nil
}

func (m *mockSupervisorRepo) IsAssigned(ctx context.Context, supervisorID, agreementID string) (bool, error) {
	return m.links[supervisorID][agreementID], nil
}

func (m *mockSupervisorRepo) AssignedAgreements(ctx context.Context, supervisorID string) ([]models.Agreement, error) {
	var out []models.Agreement
	for id := range m.links[supervisorID] {
		out = append(out, m.agreements[id])
	}
	return out, nil
}

func (m *mockSupervisorRepo) AssignedAgreementsBySupervisor(ctx context.Context, supervisorIDs []string) (map[string][]models.Agreement, error) {
	m.batchedIDs = supervisorIDs
	out := map[string][]models.Agreement{}
	for _, id := range supervisorIDs {
		items, _ := m.AssignedAgreements(ctx, id)
		if items != nil {
			out[id] = items
		}
	}
	return out, nil
}

func (m *mockSupervisorRepo) AvailableAgreements(ctx context.Context, supervisorID string) ([]models.Agreement, error) {
	var out []models.Agreement
	for id, a := range m.agreements {
		if !m.links[supervisorID][id] {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockSupervisorReports struct {
	reports []models.Report
}

func (m *mockSupervisorReports) ListBySupervisorUser(ctx context.Context, userID string) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.reports {
		if r.SupervisorID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockSupervisorReports) CountBySupervisorUser(ctx context.Context, userID string) (models.ReportTally, error) {
	return models.TallyReports(m.reports, userID), nil
}

func (m *mockSupervisorReports) CountBySupervisorUsers(ctx context.Context, userIDs []string) (map[string]models.ReportTally, error) {
	out := map[string]models.ReportTally{}
	for _, id := range userIDs {
		out[id] = models.TallyReports(m.reports, id)
	}
	return out, nil
}

type mockEvaluationRepo struct {
	items   []models.EvaluationView
	created []models.Evaluation
}

func (m *mockEvaluationRepo) Create(ctx context.Context, evaluation *models.Evaluation) error {
	evaluation.ID = "e-new"
	m.created = append(m.created, *evaluation)
	return nil
}

func (m *mockEvaluationRepo) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.EvaluationView, error) {
	return m.items, nil
}

const agreementUUID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c01"

type supervisorFixture struct {
	svc      *SupervisorService
	repo     *mockSupervisorRepo
	reports  *mockSupervisorReports
	evals    *mockEvaluationRepo
	notifier *recordingNotifier
}

func newSupervisorFixture() supervisorFixture {
	repo := newMockSupervisorRepo()
	repo.add(models.SupervisorDetail{
		Supervisor: models.Supervisor{ID: "s1", UserID: "u-sup", Code: "SUP-1", Status: models.SupervisorActive},
		Username:   "mlopez", FirstName: "maria", LastName: "lopez",
	})
	repo.agreements[agreementUUID] = models.Agreement{ID: agreementUUID, Counterparty: "Acme"}
	reports := &mockSupervisorReports{reports: []models.Report{
		{ID: "r1", SupervisorID: "u-sup", Status: models.ReportPending},
		{ID: "r2", SupervisorID: "u-sup", Status: models.ReportApproved},
		{ID: "r3", SupervisorID: "u-sup", Status: models.ReportRejected},
		{ID: "r4", SupervisorID: "someone-else", Status: models.ReportPending},
	}}
	evals := &mockEvaluationRepo{}
	notify := &recordingNotifier{}
	profiles := &mockProfileLookup{profiles: map[string]*models.UserProfile{
		"6f1c2a9e-8d7b-4c3a-9e1f-0a2b3c4d5e10": {Role: models.RoleSupervisor},
		"6f1c2a9e-8d7b-4c3a-9e1f-0a2b3c4d5e11": {Role: models.RoleStudent},
	}}
	svc := NewSupervisorService(SupervisorServiceParams{
		Repo:        repo,
		Reports:     reports,
		Evaluations: evals,
		Agreements:  newMockAgreementRepo(models.Agreement{ID: agreementUUID, Counterparty: "Acme"}),
		Profiles:    profiles,
		Notifier:    notify,
	})
	return supervisorFixture{svc: svc, repo: repo, reports: reports, evals: evals, notifier: notify}
}

func TestSupervisorListComputesWorkloadAndInitials(t *testing.T) {
	f := newSupervisorFixture()
	f.repo.links["s1"] = map[string]bool{agreementUUID: true}

	items, err := f.svc.List(context.Background(), models.SupervisorFilter{Search: "lop"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ML", items[0].Initials)
	assert.Equal(t, "maria lopez", items[0].FullName)
	assert.Equal(t, models.ReportTally{Total: 3, Pending: 1, Approved: 1}, items[0].Workload)
	assert.Len(t, items[0].Agreements, 1)
	assert.Equal(t, []string{"s1"}, f.repo.batchedIDs)
	assert.Equal(t, "lop", f.repo.listFilter.Search)
}

func TestSupervisorWorkloadIsRecomputed(t *testing.T) {
	f := newSupervisorFixture()

	first, err := f.svc.Workload(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, first.Total)

	f.reports.reports = append(f.reports.reports, models.Report{ID: "r5", SupervisorID: "u-sup", Status: models.ReportApproved})
	second, err := f.svc.Workload(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, second.Total)
	assert.Equal(t, 2, second.Approved)
}

func TestSupervisorGetAveragesEvaluations(t *testing.T) {
	f := newSupervisorFixture()
	f.evals.items = []models.EvaluationView{
		{Evaluation: models.Evaluation{ID: "e1", Overall: 8, Punctuality: 9, ReportQuality: 7, Communication: 10}},
		{Evaluation: models.Evaluation{ID: "e2", Overall: 6, Punctuality: 6, ReportQuality: 6, Communication: 6}},
	}

	profile, err := f.svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 8.5, profile.Evaluations[0].Average)
	assert.Equal(t, 6.0, profile.Evaluations[1].Average)
	require.NotNil(t, profile.AverageScore)
	assert.InDelta(t, 7.25, *profile.AverageScore, 1e-9)
	assert.Len(t, profile.Reports, 3)
	assert.Equal(t, 3, profile.Workload.Total)

	_, err = f.svc.Get(context.Background(), "missing")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestSupervisorCreateRules(t *testing.T) {
	f := newSupervisorFixture()
	student := "6f1c2a9e-8d7b-4c3a-9e1f-0a2b3c4d5e11"
	candidate := "6f1c2a9e-8d7b-4c3a-9e1f-0a2b3c4d5e10"

	_, err := f.svc.Create(context.Background(), dto.SupervisorRequest{UserID: student, Code: "SUP-2"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = f.svc.Create(context.Background(), dto.SupervisorRequest{UserID: candidate, Code: "SUP-1"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))

	created, err := f.svc.Create(context.Background(), dto.SupervisorRequest{UserID: candidate, Code: " SUP-2 ", ExperienceYears: 4})
	require.NoError(t, err)
	assert.Equal(t, "SUP-2", created.Code)
	assert.Equal(t, models.SupervisorActive, created.Status)

	_, err = f.svc.Create(context.Background(), dto.SupervisorRequest{UserID: candidate, Code: "SUP-3"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.Equal(t, 1, f.repo.createCalls)
}

func TestSupervisorUpdate(t *testing.T) {
	f := newSupervisorFixture()
	f.repo.add(models.SupervisorDetail{Supervisor: models.Supervisor{ID: "s2", UserID: "u2", Code: "SUP-9"}})

	taken := "SUP-9"
	_, err := f.svc.Update(context.Background(), "s1", dto.SupervisorUpdateRequest{Code: &taken})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))

	suspended := models.SupervisorSuspended
	updated, err := f.svc.Update(context.Background(), "s1", dto.SupervisorUpdateRequest{Status: &suspended})
	require.NoError(t, err)
	assert.Equal(t, models.SupervisorSuspended, updated.Status)
}

func TestSupervisorAssignAndUnassign(t *testing.T) {
	f := newSupervisorFixture()

	link, err := f.svc.Assign(context.Background(), "s1", dto.AssignAgreementRequest{AgreementID: agreementUUID})
	require.NoError(t, err)
	assert.Equal(t, "s1", link.SupervisorID)

	_, err = f.svc.Assign(context.Background(), "s1", dto.AssignAgreementRequest{AgreementID: agreementUUID})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))

	available, err := f.svc.AvailableAgreements(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, available)

	require.NoError(t, f.svc.Unassign(context.Background(), "s1", agreementUUID))
	err = f.svc.Unassign(context.Background(), "s1", agreementUUID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	_, err = f.svc.Assign(context.Background(), "s1", dto.AssignAgreementRequest{AgreementID: "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7cff"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestSupervisorSendAlert(t *testing.T) {
	f := newSupervisorFixture()

	n, err := f.svc.SendAlert(context.Background(), "s1", dto.AlertRequest{Message: "Three reports overdue"})
	require.NoError(t, err)
	assert.Equal(t, "u-sup", n.UserID)
	assert.Equal(t, models.NotificationSystem, n.Type)
	assert.Equal(t, SupervisorAlertTitle, n.Title)
	require.Len(t, f.notifier.sent, 1)

	_, err = f.svc.SendAlert(context.Background(), "s1", dto.AlertRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
