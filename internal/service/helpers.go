package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

const (
	dateLayout = "2006-01-02"

	dashboardCachePattern = "dash:*"
)

// lookupError maps repository lookup failures: sql.ErrNoRows becomes a NOT_FOUND with notFoundMsg.
func lookupError(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Internal(err, internalMsg)
}

func pageOf(page, size, total int) *models.Pagination {
	page, size, _ = models.PageWindow(page, size)
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// checkPage rejects page numbers past models.MaxPage instead of silently serving another page.
func checkPage(page int) error {
	if page > models.MaxPage {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("page must not exceed %d", models.MaxPage))
	}
	return nil
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Invalid(err, field+" must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// invalidateDashboard drops cached dashboard payloads after a write that changes its counts.
func invalidateDashboard(ctx context.Context, cache *CacheService, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
