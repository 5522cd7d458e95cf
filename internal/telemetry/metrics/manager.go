package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterSeriesBuilt        prometheus.Counter
	CounterUpstreamCalls      *prometheus.CounterVec
	CounterUpstreamCacheHits  prometheus.Counter
	CounterAnalysisRequests   prometheus.Counter
	CounterReportsSaved       prometheus.Counter
	CounterHandleRequestPanic prometheus.Counter
	CounterSkippedMeasurement prometheus.Counter

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistogramRequestDuration  *prometheus.HistogramVec
	HistSnapshotFetchDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("outputdash", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("outputdash", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterSeriesBuilt := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "series_built",
		Help:      "The total number of chart series computed",
	})
	counterUpstreamCalls := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "upstream_calls",
		Help:      "The total number of Output Sports API calls",
	}, []string{"endpoint", "status"})
	counterUpstreamCacheHits := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "upstream_cache_hits",
		Help:      "The total number of Output Sports responses served from cache",
	})
	counterAnalysisRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "analysis_requests",
		Help:      "The total number of LLM analysis requests",
	})
	counterReportsSaved := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reports_saved",
		Help:      "The total number of saved reports",
	})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterSkippedMeasurement := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "skipped_measurements",
		Help:      "Measurements skipped due to malformed completed date",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histSnapshotFetchDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_fetch_duration_seconds",
		Help:      "Duration of a full measurement snapshot fetch in seconds",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	})

	return &Manager{
		CounterRequests:           counterRequests,
		CounterSeriesBuilt:        counterSeriesBuilt,
		CounterUpstreamCalls:      counterUpstreamCalls,
		CounterUpstreamCacheHits:  counterUpstreamCacheHits,
		CounterAnalysisRequests:   counterAnalysisRequests,
		CounterReportsSaved:       counterReportsSaved,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		CounterSkippedMeasurement: counterSkippedMeasurement,
		GaugeRequests:             gaugeRequests,
		GaugeLifeSignal:           gaugeLifeSignal,
		HistogramRequestDuration:  histogramRequestDuration,
		HistSnapshotFetchDuration: histSnapshotFetchDuration,
	}
}
