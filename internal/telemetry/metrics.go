package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики конвейера. Регистрируются в default registry,
// отдаются через promhttp на /metrics.
var (
	// PackagesSubmitted — количество принятых packages.
	PackagesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "packsmith_packages_submitted_total",
		Help: "Total packages submitted to the pipeline",
	})

	// PackagesFinished — количество завершённых packages по терминальному статусу.
	PackagesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "packsmith_packages_finished_total",
		Help: "Total packages that reached a terminal status",
	}, []string{"status"})

	// StageDuration — длительность стадий конвейера.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "packsmith_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"stage"})

	// GenerationAttempts — попытки вызова генерирующей способности по исходу.
	GenerationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "packsmith_generation_attempts_total",
		Help: "Generation capability invocations by outcome",
	}, []string{"outcome"})

	// LintFailures — количество packages, не прошедших проверку линтера.
	LintFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "packsmith_lint_failures_total",
		Help: "Total packages whose rendered script failed lint",
	})

	// PackagesResumed — количество packages, возобновлённых после рестарта.
	PackagesResumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "packsmith_packages_resumed_total",
		Help: "Total non-terminal packages re-entered by the resume sweep",
	})
)
