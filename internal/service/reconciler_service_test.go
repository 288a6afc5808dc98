package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

type mockTemporalStore struct {
	mu      sync.Mutex
	items   []models.Agreement
	stale   map[string]bool
	sets    []models.StatusChange
	listErr error
	runs    int
}

func (m *mockTemporalStore) ListTemporal(ctx context.Context) ([]models.Agreement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Agreement, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *mockTemporalStore) CompareAndSetStatus(ctx context.Context, id string, from, to models.AgreementStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stale[id] {
		return false, nil
	}
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].Status == from {
			m.items[i].Status = to
			m.sets = append(m.sets, models.StatusChange{AgreementID: id, From: from, To: to})
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTemporalStore) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

func TestReconcilerRunMovesTemporalStatuses(t *testing.T) {
	supervisor := "u-sup"
	store := &mockTemporalStore{items: []models.Agreement{
		{ID: "a1", Counterparty: "Acme", Status: models.StatusActive, ExpirationDate: date(2026, 6, 30), SupervisorID: &supervisor},
		{ID: "a2", Counterparty: "Globex", Status: models.StatusAboutToExpire, ExpirationDate: date(2026, 5, 9)},
		{ID: "a3", Counterparty: "Initech", Status: models.StatusActive, ExpirationDate: date(2027, 1, 1)},
		{ID: "a4", Counterparty: "Umbrella", Status: models.StatusExpired, ExpirationDate: date(2028, 1, 1)},
	}}
	notify := &recordingNotifier{}
	metrics := NewMetricsService()
	svc := NewReconcilerService(store, notify, metrics, nil, nil, ReconcilerConfig{})
	svc.now = func() time.Time { return fixedToday }

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Checked)
	assert.Equal(t, []models.StatusChange{
		{AgreementID: "a1", Counterparty: "Acme", From: models.StatusActive, To: models.StatusAboutToExpire},
		{AgreementID: "a2", Counterparty: "Globex", From: models.StatusAboutToExpire, To: models.StatusExpired},
		{AgreementID: "a4", Counterparty: "Umbrella", From: models.StatusExpired, To: models.StatusActive},
	}, result.Changes)

	require.Len(t, notify.sent, 1)
	assert.Equal(t, "u-sup", notify.sent[0].UserID)
	assert.Equal(t, models.NotificationAgreementExpiring, notify.sent[0].Type)
	assert.Contains(t, notify.sent[0].Message, "2026-06-30")
	assert.Contains(t, notify.sent[0].Message, "51 days left")
	assert.Equal(t, uint64(3), metrics.Snapshot().StatusReconciliations)

	again, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Changes)
}

func TestReconcilerSkipsConcurrentEdits(t *testing.T) {
	store := &mockTemporalStore{
		items: []models.Agreement{{ID: "a1", Status: models.StatusActive, ExpirationDate: date(2026, 1, 1)}},
		stale: map[string]bool{"a1": true},
	}
	svc := NewReconcilerService(store, nil, nil, nil, nil, ReconcilerConfig{})
	svc.now = func() time.Time { return fixedToday }

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Changes)
}

func TestReconcilerRunReportsListErrors(t *testing.T) {
	store := &mockTemporalStore{listErr: errors.New("db down")}
	svc := NewReconcilerService(store, nil, nil, nil, nil, ReconcilerConfig{})

	_, err := svc.Run(context.Background())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal))
}

func TestReconcilerStartRunsImmediately(t *testing.T) {
	store := &mockTemporalStore{}
	svc := NewReconcilerService(store, nil, nil, nil, nil, ReconcilerConfig{Interval: time.Hour, Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	defer svc.Stop()

	assert.Eventually(t, func() bool { return store.runCount() == 1 }, time.Second, 10*time.Millisecond)
}
