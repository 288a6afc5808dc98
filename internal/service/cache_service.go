package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CacheRepository persists cached JSON payloads.
type CacheRepository interface {
	Load(ctx context.Context, key string, dest interface{}) (bool, error)
	Store(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Purge(ctx context.Context, pattern string) (int, error)
}

// CacheService fronts the cache repository for read models such as the dashboard.
// Lookups feed the hit ratio in MetricsService; a backend failure is reported to the caller,
// which decides whether to treat it as a miss.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads key into dest and reports a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	hit, err := s.repo.Load(ctx, key, dest)
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit && err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return hit, nil
}

// Set stores value under key; a non-positive ttl falls back to the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Store(ctx, key, value, ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	return err
}

// Invalidate drops every entry matching pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	removed, err := s.repo.Purge(ctx, pattern)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int("removed", removed))
	}
	return nil
}
