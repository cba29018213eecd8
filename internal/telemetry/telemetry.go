package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Go-Pr0/stock-analyze-backend/config"
)

// Telemetry tracks pipeline health: completion calls, grounding fallbacks,
// extraction failures and end-to-end report generation.
type Telemetry struct {
	config config.TelemetryConfig
	logger *log.Logger

	completionCalls     *prometheus.CounterVec
	groundingFallbacks  *prometheus.CounterVec
	extractionFailures  prometheus.Counter
	branchAnalyses      *prometheus.CounterVec
	competitorLookups   *prometheus.CounterVec
	pipelineDuration    prometheus.Histogram
	pipelineDegradation *prometheus.CounterVec
}

var registerOnce sync.Once

// NewTelemetry creates a telemetry instance and registers its collectors on
// the default prometheus registry. Safe to call more than once in tests.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		config: cfg,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		completionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockan_completion_calls_total",
			Help: "Completion calls by grounding mode and outcome.",
		}, []string{"mode", "outcome"}),
		groundingFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockan_grounding_fallbacks_total",
			Help: "Grounding modes skipped because the capability reported them unsupported.",
		}, []string{"mode"}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockan_extraction_failures_total",
			Help: "Responses with no parseable structured envelope.",
		}),
		branchAnalyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockan_branch_analyses_total",
			Help: "Branch analysis tasks by outcome.",
		}, []string{"outcome"}),
		competitorLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockan_competitor_lookups_total",
			Help: "Competitor company-data lookups by outcome.",
		}, []string{"outcome"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockan_pipeline_duration_seconds",
			Help:    "End-to-end research pipeline duration.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		pipelineDegradation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockan_pipeline_degradations_total",
			Help: "Reports assembled with degraded sections.",
		}, []string{"section"}),
	}

	registerOnce.Do(func() {
		prometheus.MustRegister(
			t.completionCalls,
			t.groundingFallbacks,
			t.extractionFailures,
			t.branchAnalyses,
			t.competitorLookups,
			t.pipelineDuration,
			t.pipelineDegradation,
		)
	})
	return t
}

// RecordCompletion records one provider call.
func (t *Telemetry) RecordCompletion(mode string, err error) {
	if t == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if mode == "" {
		mode = "none"
	}
	t.completionCalls.WithLabelValues(mode, outcome).Inc()
}

// RecordGroundingFallback records a mode skipped as unsupported.
func (t *Telemetry) RecordGroundingFallback(mode string) {
	if t == nil {
		return
	}
	t.groundingFallbacks.WithLabelValues(mode).Inc()
}

// RecordExtractionFailure records a response with no structured payload.
func (t *Telemetry) RecordExtractionFailure() {
	if t == nil {
		return
	}
	t.extractionFailures.Inc()
}

// RecordBranchAnalysis records the outcome of one branch task.
func (t *Telemetry) RecordBranchAnalysis(ok bool) {
	if t == nil {
		return
	}
	if ok {
		t.branchAnalyses.WithLabelValues("ok").Inc()
	} else {
		t.branchAnalyses.WithLabelValues("failed").Inc()
	}
}

// RecordCompetitorLookup records the outcome of one competitor data fetch.
func (t *Telemetry) RecordCompetitorLookup(ok bool) {
	if t == nil {
		return
	}
	if ok {
		t.competitorLookups.WithLabelValues("ok").Inc()
	} else {
		t.competitorLookups.WithLabelValues("failed").Inc()
	}
}

// RecordDegradation records a report section replaced by a placeholder.
// Sections: narrative, competitive, overview.
func (t *Telemetry) RecordDegradation(section string) {
	if t == nil {
		return
	}
	t.pipelineDegradation.WithLabelValues(section).Inc()
}

// RecordPipeline records one full orchestrator run.
func (t *Telemetry) RecordPipeline(d time.Duration, degraded bool) {
	if t == nil {
		return
	}
	t.pipelineDuration.Observe(d.Seconds())
	if t.config.Enabled {
		t.logger.Printf("Pipeline completed in %v (degraded=%t)", d, degraded)
	}
}
