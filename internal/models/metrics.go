package models

import "time"

// SystemMetrics is a JSON snapshot of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	NotificationsSent        uint64            `json:"notifications_sent"`
	StatusReconciliations    uint64            `json:"status_reconciliations"`
	ExportsRendered          map[string]uint64 `json:"exports_rendered"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
