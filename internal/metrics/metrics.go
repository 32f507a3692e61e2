package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "log_triage"

// Recorder holds the triage counters. A nil *Recorder records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	events        *prometheus.CounterVec
	linesDropped  prometheus.Counter
	groups        prometheus.Gauge
	annotations   *prometheus.CounterVec
	tickets       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Triage runs by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Parsed log events by level.",
		}, []string{"level"}),
		linesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Input lines that did not match the log grammar.",
		}),
		groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_groups",
			Help:      "Number of signature groups in the last run.",
		}),
		annotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotations_total",
			Help:      "Annotation outcomes by status.",
		}, []string{"status"}),
		tickets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_total",
			Help:      "Ticket filing outcomes.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Digest notifications by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of triage runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	r.registry.MustRegister(r.runs, r.events, r.linesDropped, r.groups, r.annotations, r.tickets, r.notifications, r.runDuration)
	return r
}

// Handler exposes the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func (r *Recorder) RunFinished(outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.Observe(seconds)
}

func (r *Recorder) EventParsed(level string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(level).Inc()
}

func (r *Recorder) LinesDropped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.linesDropped.Add(float64(n))
}

func (r *Recorder) Groups(n int) {
	if r == nil {
		return
	}
	r.groups.Set(float64(n))
}

func (r *Recorder) Annotation(status string) {
	if r == nil {
		return
	}
	r.annotations.WithLabelValues(status).Inc()
}

func (r *Recorder) Ticket(result string) {
	if r == nil {
		return
	}
	r.tickets.WithLabelValues(result).Inc()
}

func (r *Recorder) Notification(result string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(result).Inc()
}
