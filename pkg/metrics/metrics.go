// Package metrics 定义推荐引擎的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 操作名称
const (
	OpRecommend = "recommend"
	OpCapsule   = "capsule"
	OpInsights  = "insights"
	OpQuiz      = "quiz"
)

// 请求状态
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardrobe_engine_request_duration_seconds",
			Help:    "Duration of engine operations in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"op"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_engine_requests_total",
			Help: "Total engine operations by status",
		},
		[]string{"op", "status"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_engine_candidates_scored_total",
			Help: "Catalog items scored against a taste profile",
		},
		[]string{"op"},
	)

	CapsuleFallback = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wardrobe_capsule_fallback_total",
			Help: "Capsules built by random sampling because no item had a valid embedding",
		},
	)

	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wardrobe_catalog_items",
			Help: "Items in the active catalog snapshot",
		},
	)

	CatalogEmbedded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wardrobe_catalog_valid_embeddings",
			Help: "Items with a valid embedding in the active catalog snapshot",
		},
	)

	// 0 = closed, 1 = half-open, 2 = open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wardrobe_circuit_breaker_state",
			Help: "Circuit breaker state per upstream",
		},
		[]string{"name"},
	)
)

// ObserveRequest 记录一次引擎调用的耗时与状态。
func ObserveRequest(op, status string, start time.Time) {
	RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	RequestsTotal.WithLabelValues(op, status).Inc()
}

// SetCatalog 更新当前目录快照的规模。
func SetCatalog(items, embedded int) {
	CatalogItems.Set(float64(items))
	CatalogEmbedded.Set(float64(embedded))
}
