package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, path, and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doctran_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// RequestDuration tracks end-to-end HTTP latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "doctran_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// TranslateDuration tracks provider latency.
	TranslateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "doctran_translate_duration_seconds",
		Help:    "Time spent waiting on the translation provider.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})

	// ExtractedChars tracks the distribution of extracted text lengths.
	ExtractedChars = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "doctran_extracted_chars",
		Help:    "Number of characters extracted from uploaded documents.",
		Buckets: []float64{100, 500, 1000, 5000, 10000, 25000, 50000},
	}, []string{"format"})

	// ProviderAvailable tracks whether each provider is configured.
	ProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "doctran_provider_available",
		Help: "Whether a translation provider is available (1) or not (0).",
	}, []string{"provider"})

	// StageFailures counts pipeline failures by stage and error kind.
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doctran_stage_failures_total",
		Help: "Pipeline failures by stage and error kind.",
	}, []string{"stage", "kind"})

	// FallbackTranslations counts offline stand-in translations.
	FallbackTranslations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doctran_fallback_translations_total",
		Help: "Translations served by the offline fallback.",
	}, []string{"language"})
)
