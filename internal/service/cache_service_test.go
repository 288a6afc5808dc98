package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCacheRepo struct {
	store  map[string][]byte
	getErr error
	ttls   map[string]time.Duration
}

func (s *stubCacheRepo) Load(_ context.Context, key string, dest interface{}) (bool, error) {
	if s.getErr != nil {
		return false, s.getErr
	}
	payload, ok := s.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Store(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
		s.ttls = make(map[string]time.Duration)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	s.ttls[key] = ttl
	return nil
}

func (s *stubCacheRepo) Purge(_ context.Context, pattern string) (int, error) {
	removed := 0
	for key := range s.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.store, key)
			removed++
		}
	}
	return removed, nil
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := &stubCacheRepo{}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, zap.NewNop(), true)
	ctx := context.Background()

	var out map[string]int
	hit, err := svc.Get(ctx, "dash:admin", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "dash:admin", map[string]int{"total": 3}, 0))
	assert.Equal(t, 10*time.Minute, repo.ttls["dash:admin"])

	hit, err = svc.Get(ctx, "dash:admin", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, out["total"])

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)

	require.NoError(t, svc.Invalidate(ctx, dashboardCachePattern))
	assert.Empty(t, repo.store)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.store)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	hit, err := nilSvc.Get(context.Background(), "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := &stubCacheRepo{getErr: errors.New("connection refused")}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)

	hit, err := svc.Get(context.Background(), "k", new(int))
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Equal(t, uint64(1), metrics.Snapshot().CacheMisses)
}
