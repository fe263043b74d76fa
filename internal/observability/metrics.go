package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	SheetLoads        prometheus.Counter
	SheetLoadDuration prometheus.Histogram
	RowsLoaded        prometheus.Histogram
	SnapshotsCached   prometheus.Gauge
	WorkbookReloads   prometheus.Counter
	ReportRequests    prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SheetLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kampung_insights",
			Name:      "sheet_loads_total",
			Help:      "Total worksheet snapshot loads from the workbook.",
		}),
		SheetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kampung_insights",
			Name:      "sheet_load_duration_seconds",
			Help:      "Duration of a complete worksheet load, including geocoding.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RowsLoaded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kampung_insights",
			Name:      "rows_loaded",
			Help:      "Number of submission rows per worksheet load.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		SnapshotsCached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kampung_insights",
			Name:      "snapshots_cached",
			Help:      "Worksheet snapshots currently held in memory.",
		}),
		WorkbookReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kampung_insights",
			Name:      "workbook_reloads_total",
			Help:      "Snapshot cache invalidations from workbook changes.",
		}),
		ReportRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kampung_insights",
			Name:      "report_requests_total",
			Help:      "Dashboard report payloads assembled.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kampung_insights",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kampung_insights",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kampung_insights",
			Name:      "geocode_api_duration_seconds",
			Help:      "OneMap API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kampung_insights",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.SheetLoads,
		m.SheetLoadDuration,
		m.RowsLoaded,
		m.SnapshotsCached,
		m.WorkbookReloads,
		m.ReportRequests,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SheetLoads:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "kampung_insights", Name: "sheet_loads_total"}),
		SheetLoadDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "kampung_insights", Name: "sheet_load_duration_seconds"}),
		RowsLoaded:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "kampung_insights", Name: "rows_loaded"}),
		SnapshotsCached:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "kampung_insights", Name: "snapshots_cached"}),
		WorkbookReloads:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "kampung_insights", Name: "workbook_reloads_total"}),
		ReportRequests:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "kampung_insights", Name: "report_requests_total"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "kampung_insights", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "kampung_insights", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "kampung_insights", Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "kampung_insights", Name: "geocode_enabled"}),
	}
}
