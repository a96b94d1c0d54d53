// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "matchlens"

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Completed single-image analyses by resulting image type.",
	}, []string{"type"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallbacks_total",
		Help:      "Simulation fallbacks by reason (engine_unavailable, timeout).",
	}, []string{"reason"})

	engineFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_failures_total",
		Help:      "Recognition failures propagated to callers.",
	})

	engineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "engine_latency_seconds",
		Help:      "Recognition engine call latency.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
	})

	slotFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_slot_failures_total",
		Help:      "Batch slots that failed analysis, by slot name.",
	}, []string{"slot"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Analyses served from the record cache.",
	})
)

func RecordAnalysis(imageType string) { analysesTotal.WithLabelValues(imageType).Inc() }

func RecordFallback(reason string) { fallbacksTotal.WithLabelValues(reason).Inc() }

func RecordEngineFailure() { engineFailuresTotal.Inc() }

func RecordEngineLatency(d time.Duration) { engineLatency.Observe(d.Seconds()) }

func RecordSlotFailure(slot string) { slotFailuresTotal.WithLabelValues(slot).Inc() }

func RecordCacheHit() { cacheHitsTotal.Inc() }
