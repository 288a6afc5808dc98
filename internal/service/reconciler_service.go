package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
	"github.com/noah-isme/agreements-api/pkg/jobs"
)

const reconcileJobType = "agreement_status_reconcile"

type temporalAgreementStore interface {
	ListTemporal(ctx context.Context) ([]models.Agreement, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to models.AgreementStatus) (bool, error)
}

// ReconcilerConfig tunes the background sweep.
type ReconcilerConfig struct {
	Interval time.Duration
	Workers  int
	Retries  int
	Location *time.Location
}

// ReconcilerService rewrites stale temporal statuses so stored values follow the calendar.
// Workflow statuses are never touched.
type ReconcilerService struct {
	repo     temporalAgreementStore
	notifier notifier
	metrics  *MetricsService
	cache    *CacheService
	logger   *zap.Logger
	cfg      ReconcilerConfig
	now      func() time.Time
	queue    *jobs.Queue
}

// NewReconcilerService constructs a ReconcilerService.
func NewReconcilerService(repo temporalAgreementStore, notify notifier, metrics *MetricsService, cache *CacheService, logger *zap.Logger, cfg ReconcilerConfig) *ReconcilerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ReconcilerService{
		repo:     repo,
		notifier: notify,
		metrics:  metrics,
		cache:    cache,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run performs one reconciliation pass.
func (s *ReconcilerService) Run(ctx context.Context) (*dto.ReconcileResult, error) {
	agreements, err := s.repo.ListTemporal(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list agreements for reconciliation")
	}
	today := models.CalendarDate(s.now(), s.cfg.Location)
	result := &dto.ReconcileResult{Checked: len(agreements), Changes: []models.StatusChange{}}

	for _, agreement := range agreements {
		target := agreement.DerivedStatus(today)
		if target == agreement.Status {
			continue
		}
		changed, err := s.repo.CompareAndSetStatus(ctx, agreement.ID, agreement.Status, target)
		if err != nil {
			return result, appErrors.Internal(err, "failed to update agreement status")
		}
		if !changed {
			// Edited concurrently; the next pass sees the new row.
			continue
		}
		result.Changes = append(result.Changes, models.StatusChange{AgreementID: agreement.ID, Counterparty: agreement.Counterparty, From: agreement.Status, To: target})
		s.metrics.RecordStatusChange(target)
		s.logger.Info("agreement status reconciled",
			zap.String("agreement_id", agreement.ID),
			zap.String("from", string(agreement.Status)),
			zap.String("to", string(target)),
		)
		if target == models.StatusAboutToExpire {
			s.notifyExpiring(ctx, agreement, today)
		}
	}

	if len(result.Changes) > 0 {
		invalidateDashboard(ctx, s.cache, s.logger)
	}
	return result, nil
}

func (s *ReconcilerService) notifyExpiring(ctx context.Context, agreement models.Agreement, today time.Time) {
	if s.notifier == nil || agreement.SupervisorID == nil || *agreement.SupervisorID == "" {
		return
	}
	message := fmt.Sprintf("The agreement with %s expires on %s (%d days left).",
		agreement.Counterparty, agreement.ExpirationDate.Format(dateLayout), agreement.DaysRemaining(today))
	if _, err := s.notifier.Notify(ctx, *agreement.SupervisorID, models.NotificationAgreementExpiring, "Agreement about to expire", message); err != nil {
		s.logger.Warn("failed to notify supervisor of expiring agreement", zap.String("agreement_id", agreement.ID), zap.Error(err))
	}
}

// Start schedules Run on the configured interval through a job queue; it runs once immediately.
func (s *ReconcilerService) Start(ctx context.Context) {
	s.queue = jobs.NewQueue("status-reconciler", func(ctx context.Context, job jobs.Job) error {
		result, err := s.Run(ctx)
		if err != nil {
			return err
		}
		s.logger.Debug("reconciliation pass finished", zap.String("job_id", job.ID), zap.Int("checked", result.Checked), zap.Int("changed", len(result.Changes)))
		return nil
	}, jobs.QueueConfig{
		Workers:    s.cfg.Workers,
		MaxRetries: s.cfg.Retries,
		Logger:     s.logger,
	})
	s.queue.Start(ctx)
	s.queue.Every(ctx, s.cfg.Interval, true, func(at time.Time) jobs.Job {
		return jobs.Job{ID: uuid.NewString(), Type: reconcileJobType, Key: reconcileJobType, Enqueued: at}
	})
}

// Stop drains the reconciler workers.
func (s *ReconcilerService) Stop() {
	if s.queue == nil {
		return
	}
	s.queue.Stop()
	stats := s.queue.Stats()
	s.logger.Info("status reconciler stopped",
		zap.Uint64("passes", stats.Completed),
		zap.Uint64("failed", stats.Failed),
		zap.Uint64("skipped_ticks", stats.Coalesced),
	)
}
