package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

const (
	dashboardCacheKey   = "dash:admin"
	dashboardListLimit  = 5
	dashboardDefaultTTL = 5 * time.Minute
)

type dashboardAgreements interface {
	Counters(ctx context.Context) (models.AgreementCounters, error)
	Expiring(ctx context.Context, days, limit int) ([]models.AgreementView, error)
	TypeDistribution(ctx context.Context) ([]models.TypeCount, error)
}

type reportTotals interface {
	Totals(ctx context.Context) (models.ReportTally, error)
}

type activeSupervisorCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type activityFeed interface {
	Recent(ctx context.Context, limit int) ([]models.RecentActivity, error)
	CountIncomplete(ctx context.Context) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL         time.Duration
	ExpiryWindowDays int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Agreements  dashboardAgreements
	Reports     reportTotals
	Supervisors activeSupervisorCounter
	Activities  activityFeed
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService orchestrates composition of dashboard payloads.
type DashboardService struct {
	agreements  dashboardAgreements
	reports     reportTotals
	supervisors activeSupervisorCounter
	activities  activityFeed
	cache       *CacheService
	logger      *zap.Logger
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = dashboardDefaultTTL
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		agreements:  params.Agreements,
		reports:     params.Reports,
		supervisors: params.Supervisors,
		activities:  params.Activities,
		cache:       params.Cache,
		logger:      logger,
		cfg:         cfg,
	}
}

// Summary returns the dashboard payload and whether it was served from cache.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, bool, error) {
	if summary, hit := s.tryCache(ctx, dashboardCacheKey); hit {
		return summary, true, nil
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, dashboardCacheKey, summary)
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardSummary, error) {
	counters, err := s.agreements.Counters(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.Totals(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count reports")
	}
	supervisors, err := s.supervisors.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count supervisors")
	}
	proposals, err := s.activities.CountIncomplete(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count pending proposals")
	}
	recent, err := s.activities.Recent(ctx, dashboardListLimit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load recent activities")
	}
	expiring, err := s.agreements.Expiring(ctx, s.cfg.ExpiryWindowDays, dashboardListLimit)
	if err != nil {
		return nil, err
	}
	distribution, err := s.agreements.TypeDistribution(ctx)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.RecentActivity{}
	}
	if expiring == nil {
		expiring = []models.AgreementView{}
	}

	return &dto.DashboardSummary{
		Agreements:        counters,
		Reports:           reports,
		ActiveSupervisors: supervisors,
		PendingProposals:  proposals,
		RecentActivities:  recent,
		Expiring:          expiring,
		TypeDistribution:  distribution,
	}, nil
}

// tryCache treats cache errors as misses so Redis outages never fail the dashboard.
func (s *DashboardService) tryCache(ctx context.Context, key string) (*dto.DashboardSummary, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached dto.DashboardSummary
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
