// Package metrics owns the Prometheus registry served on the ops port.
// Labels are kept to bounded sets: route patterns, never raw paths or tags.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/folio-labs/folio-web/internal/version"
)

const namespace = "folio"

type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	inflight  prometheus.Gauge
	reqTotal  *prometheus.CounterVec
	reqDur    *prometheus.HistogramVec
	respBytes *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	panics    prometheus.Counter
	buildInfo *prometheus.GaugeVec

	rateLimited        prometheus.Counter
	rateLimitOffenders prometheus.Counter

	contentSource   *prometheus.GaugeVec
	contentLoadedTS prometheus.Gauge
	contentBundle   *prometheus.GaugeVec
	projects        prometheus.Gauge
	featured        prometheus.Gauge
	tags            prometheus.Gauge
	filterResults   *prometheus.HistogramVec

	profilingActive prometheus.Gauge

	watcherPolls       prometheus.Counter
	watcherSwaps       prometheus.Counter
	watcherErrors      *prometheus.CounterVec
	bundleLoadDuration prometheus.Histogram
	watcherLastSuccess prometheus.Gauge
	watcherStale       prometheus.Gauge
}

// New returns a fresh registry with the Go and process collectors.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: prometheus.ExponentialBuckets(256, 4, 9),
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_errors_total",
			Help: "5xx responses by method and route",
		}, []string{"method", "route"}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_panics_total",
			Help: "Recovered handler panics",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "component", "version", "commit", "commit_date", "build_date", "vcs_dirty", "go_version"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_rate_limited_total",
			Help: "Requests rejected by the per-IP limiter",
		}),
		rateLimitOffenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rate_limit_offenders_total",
			Help: "Distinct client IPs that hit the rate limit",
		}),
		contentSource: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "content_source_info",
			Help: "Where the active content came from (value is always 1)",
		}, []string{"source"}),
		contentLoadedTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "content_loaded_timestamp_seconds",
			Help: "Unix time the active content was loaded",
		}),
		contentBundle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "content_bundle_info",
			Help: "Active content bundle identity (value is always 1)",
		}, []string{"version", "sha256"}),
		projects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "projects",
			Help: "Projects in the active content",
		}),
		featured: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "projects_featured",
			Help: "Featured projects in the active content",
		}),
		tags: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "project_tags",
			Help: "Distinct project tags in the active content",
		}),
		filterResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "project_filter_results",
			Help:    "Projects matched per filtered listing, by surface (page, api)",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}, []string{"surface"}),
		profilingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "profiling_active",
			Help: "Whether continuous profiling is running (1) or not (0)",
		}),
		watcherPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "content_watcher_polls_total",
			Help: "Watcher poll cycles",
		}),
		watcherSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "content_watcher_swaps_total",
			Help: "Successful content swaps",
		}),
		watcherErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "content_watcher_errors_total",
			Help: "Watcher errors by kind (ssm, load, validation)",
		}, []string{"kind"}),
		bundleLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "content_bundle_load_duration_seconds",
			Help:    "Time to download, verify, extract and render a bundle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		watcherLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "content_watcher_last_success_timestamp_seconds",
			Help: "Unix time of the last successful SSM poll",
		}),
		watcherStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "content_watcher_stale",
			Help: "1 while SSM has been unreachable past the stale threshold",
		}),
	}
	reg.MustRegister(
		m.inflight, m.reqTotal, m.reqDur, m.respBytes, m.errors, m.panics, m.buildInfo,
		m.rateLimited, m.rateLimitOffenders,
		m.contentSource, m.contentLoadedTS, m.contentBundle, m.projects, m.featured, m.tags, m.filterResults,
		m.profilingActive,
		m.watcherPolls, m.watcherSwaps, m.watcherErrors, m.bundleLoadDuration, m.watcherLastSuccess, m.watcherStale,
	)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	m.reg = reg
	return m
}

func (m *ServerMetrics) Handler() http.Handler { return m.handler }

// Registry is exposed for tests and extra collectors.
func (m *ServerMetrics) Registry() *prometheus.Registry { return m.reg }

// SetBuildInfo is called once at startup.
func (m *ServerMetrics) SetBuildInfo(component string, vi version.Info) {
	dirty := "unknown"
	if vi.Dirty != nil {
		dirty = strconv.FormatBool(*vi.Dirty)
	}
	m.buildInfo.With(prometheus.Labels{
		"app":         vi.App,
		"component":   component,
		"version":     vi.Version,
		"commit":      vi.Commit,
		"commit_date": vi.CommitDate,
		"build_date":  vi.BuildDate,
		"go_version":  vi.GoVersion,
		"vcs_dirty":   dirty,
	}).Set(1)
}

func (m *ServerMetrics) IncHTTPPanic() { m.panics.Inc() }

func (m *ServerMetrics) IncRateLimitDenied() { m.rateLimited.Inc() }

func (m *ServerMetrics) IncRateLimitOffender() { m.rateLimitOffenders.Inc() }

// ContentState is what SetContent records about the active snapshot.
type ContentState struct {
	Source   string
	Version  string
	Hash     string
	LoadedAt time.Time
	Projects int
	Featured int
	Tags     int
}

// SetContent replaces every content gauge; called at startup and on swap.
func (m *ServerMetrics) SetContent(s ContentState) {
	m.contentSource.Reset()
	m.contentSource.WithLabelValues(s.Source).Set(1)
	m.contentBundle.Reset()
	m.contentBundle.WithLabelValues(s.Version, s.Hash).Set(1)
	m.contentLoadedTS.Set(float64(s.LoadedAt.Unix()))
	m.projects.Set(float64(s.Projects))
	m.featured.Set(float64(s.Featured))
	m.tags.Set(float64(s.Tags))
}

// ObserveFilter records how many projects a filtered listing returned.
func (m *ServerMetrics) ObserveFilter(surface string, matched int) {
	m.filterResults.WithLabelValues(surface).Observe(float64(matched))
}

func (m *ServerMetrics) SetProfilingActive(active bool) { m.profilingActive.Set(boolFloat(active)) }

func (m *ServerMetrics) IncWatcherPolls() { m.watcherPolls.Inc() }

func (m *ServerMetrics) IncWatcherSwaps() { m.watcherSwaps.Inc() }

func (m *ServerMetrics) IncWatcherError(kind string) { m.watcherErrors.WithLabelValues(kind).Inc() }

func (m *ServerMetrics) ObserveBundleLoadDuration(seconds float64) {
	m.bundleLoadDuration.Observe(seconds)
}

func (m *ServerMetrics) SetWatcherLastSuccess(unixSeconds float64) {
	m.watcherLastSuccess.Set(unixSeconds)
}

func (m *ServerMetrics) SetWatcherStale(stale bool) { m.watcherStale.Set(boolFloat(stale)) }

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
