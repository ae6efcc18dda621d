package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "regionstats"

// Recorder holds the service metrics on its own registry. All methods are
// safe for concurrent use.
type Recorder struct {
	reg *prometheus.Registry

	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	queries   *prometheus.CounterVec
	breaches  prometheus.Counter
	records   prometheus.Gauge
	regions   prometheus.Gauge
	loadedAt  prometheus.Gauge
	reloads   prometheus.Counter

	handler http.Handler
}

// New returns a Recorder with every family registered on a private registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_queries_total",
			Help:      "Requested regions by whether the dataset had records for them.",
		}, []string{"result"}),
		breaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaches_reported_total",
			Help:      "Threshold breaches returned to callers.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Records in the served dataset.",
		}),
		regions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_regions",
			Help:      "Distinct regions in the served dataset.",
		}),
		loadedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_loaded_timestamp_seconds",
			Help:      "Unix time the served dataset was loaded.",
		}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Successful dataset reloads since start.",
		}),
	}

	r.reg.MustRegister(
		r.requests,
		r.durations,
		r.queries,
		r.breaches,
		r.records,
		r.regions,
		r.loadedAt,
		r.reloads,
	)

	// Both results are always exported, even before the first query.
	r.queries.WithLabelValues("found")
	r.queries.WithLabelValues("missing")

	r.handler = promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
	return r
}

// ObserveRequest records one finished HTTP request.
func (r *Recorder) ObserveRequest(route string, code int, d time.Duration) {
	r.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.durations.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveQuery records how many requested regions were answered and how many
// were absent from the dataset, and the breaches reported for them.
func (r *Recorder) ObserveQuery(found, missing, breaches int) {
	r.queries.WithLabelValues("found").Add(float64(found))
	r.queries.WithLabelValues("missing").Add(float64(missing))
	r.breaches.Add(float64(breaches))
}

// SetDataset publishes the shape of the currently served dataset.
func (r *Recorder) SetDataset(records, regions int, loadedAt time.Time) {
	r.records.Set(float64(records))
	r.regions.Set(float64(regions))
	r.loadedAt.Set(float64(loadedAt.UnixNano()) / 1e9)
}

// IncReloads counts a successful dataset reload.
func (r *Recorder) IncReloads() { r.reloads.Inc() }

// Gather returns a snapshot of all metric families, sorted by name.
func (r *Recorder) Gather() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}

// WriteText encodes all families in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	mfs, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// ServeHTTP serves the registry in whatever exposition format the scraper
// negotiates.
func (r *Recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
