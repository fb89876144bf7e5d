// Package metrics регистрирует счетчики Prometheus, отдаваемые через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadingsTotal число завершенных раскладов по способу выбора карт.
	ReadingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tarotbot_readings_total",
		Help: "Completed readings by card selection method.",
	}, []string{"method"})

	// GenerationFailures число отказов генерации по причине.
	GenerationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tarotbot_generation_failures_total",
		Help: "Failed interpretation generations by reason.",
	}, []string{"reason"})

	// GenerationDuration длительность обращений к сервису генерации.
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tarotbot_generation_duration_seconds",
		Help:    "Interpretation generation latency.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	// BroadcastSent число доставленных сообщений рассылки.
	BroadcastSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tarotbot_broadcast_sent_total",
		Help: "Broadcast messages delivered.",
	})

	// BroadcastFailed число недоставленных сообщений рассылки.
	BroadcastFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tarotbot_broadcast_failed_total",
		Help: "Broadcast messages that could not be delivered.",
	})
)
