package models

import "time"

// SystemMetrics is a point-in-time summary of the service's instrumentation.
type SystemMetrics struct {
	RunsSucceeded            uint64    `json:"runs_succeeded"`
	RunsFailed               uint64    `json:"runs_failed"`
	SlotsFilled              uint64    `json:"slots_filled"`
	SlotsUnfilled            uint64    `json:"slots_unfilled"`
	FillRate                 float64   `json:"fill_rate"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
