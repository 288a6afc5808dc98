package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/models"
)

type stubDashboardAgreements struct {
	calls        int
	expiringDays int
	counters     models.AgreementCounters
	expiring     []models.AgreementView
}

func (s *stubDashboardAgreements) Counters(ctx context.Context) (models.AgreementCounters, error) {
	s.calls++
	return s.counters, nil
}

func (s *stubDashboardAgreements) Expiring(ctx context.Context, days, limit int) ([]models.AgreementView, error) {
	s.expiringDays = days
	if len(s.expiring) > limit {
		return s.expiring[:limit], nil
	}
	return s.expiring, nil
}

func (s *stubDashboardAgreements) TypeDistribution(ctx context.Context) ([]models.TypeCount, error) {
	return []models.TypeCount{{Type: models.AgreementInternship, Count: 2}, {Type: models.AgreementWelfare, Count: 0}}, nil
}

type stubDashboardCounts struct {
	reports    models.ReportTally
	active     int
	incomplete int
	recent     []models.RecentActivity
	recentErr  error
	lastLimit  int
}

func (s *stubDashboardCounts) Totals(ctx context.Context) (models.ReportTally, error) {
	return s.reports, nil
}

func (s *stubDashboardCounts) CountActive(ctx context.Context) (int, error) {
	return s.active, nil
}

func (s *stubDashboardCounts) Recent(ctx context.Context, limit int) ([]models.RecentActivity, error) {
	s.lastLimit = limit
	return s.recent, s.recentErr
}

func (s *stubDashboardCounts) CountIncomplete(ctx context.Context) (int, error) {
	return s.incomplete, nil
}

func newDashboardForTest(cache *CacheService) (*DashboardService, *stubDashboardAgreements, *stubDashboardCounts) {
	agreements := &stubDashboardAgreements{
		counters: models.AgreementCounters{Total: 9, Active: 4, AboutToExpire: 2, Expired: 1},
	}
	for i := 0; i < 7; i++ {
		agreements.expiring = append(agreements.expiring, models.AgreementView{Agreement: models.Agreement{ID: string(rune('a' + i))}})
	}
	counts := &stubDashboardCounts{
		reports:    models.ReportTally{Total: 6, Pending: 2, Approved: 3},
		active:     3,
		incomplete: 4,
	}
	svc := NewDashboardService(DashboardServiceParams{
		Agreements:  agreements,
		Reports:     counts,
		Supervisors: counts,
		Activities:  counts,
		Cache:       cache,
		Logger:      zap.NewNop(),
		Config:      DashboardServiceConfig{CacheTTL: time.Minute, ExpiryWindowDays: 60},
	})
	return svc, agreements, counts
}

func TestDashboardSummaryComposes(t *testing.T) {
	svc, agreements, counts := newDashboardForTest(nil)

	summary, hit, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 9, summary.Agreements.Total)
	assert.Equal(t, 2, summary.Agreements.AboutToExpire)
	assert.Equal(t, 6, summary.Reports.Total)
	assert.Equal(t, 3, summary.ActiveSupervisors)
	assert.Equal(t, 4, summary.PendingProposals)
	assert.Len(t, summary.Expiring, 5)
	assert.Equal(t, 60, agreements.expiringDays)
	assert.Equal(t, dashboardListLimit, counts.lastLimit)
	assert.NotNil(t, summary.RecentActivities)
	assert.Len(t, summary.TypeDistribution, 2)
}

func TestDashboardSummaryCaches(t *testing.T) {
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc, agreements, _ := newDashboardForTest(cacheSvc)
	ctx := context.Background()

	first, hit, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, cacheRepo.store, dashboardCacheKey)
	assert.Equal(t, time.Minute, cacheRepo.ttls[dashboardCacheKey])

	second, hit, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Agreements, second.Agreements)
	assert.Equal(t, first.PendingProposals, second.PendingProposals)
	assert.Equal(t, 1, agreements.calls)

	invalidateDashboard(ctx, cacheSvc, zap.NewNop())
	_, hit, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, agreements.calls)
}

func TestDashboardSummaryFallsBackWhenCacheFails(t *testing.T) {
	cacheRepo := &stubCacheRepo{getErr: errors.New("redis down")}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc, _, _ := newDashboardForTest(cacheSvc)

	summary, hit, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 9, summary.Agreements.Total)
}

func TestDashboardSummaryPropagatesErrors(t *testing.T) {
	svc, _, counts := newDashboardForTest(nil)
	counts.recentErr = errors.New("boom")

	_, _, err := svc.Summary(context.Background())
	require.Error(t, err)
}
