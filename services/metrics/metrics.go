package metricsvc

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/internmanagementsystem2025/internshipmanagementsystem-sub005/core/supervisor"
)

// SourceAPI labels uploads received over HTTP.
const SourceAPI = "api"

// Row outcomes
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)

// Recorder holds the supervisor upload metrics on its own registry.
type Recorder struct {
	reg *prometheus.Registry

	uploads  *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supervisors",
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Total number of processed supervisor spreadsheets broken down by source.",
		}, []string{"source"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supervisors",
			Subsystem: "upload",
			Name:      "rows_total",
			Help:      "Total number of supervisor spreadsheet rows broken down by source and outcome.",
		}, []string{"source", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "supervisors",
			Subsystem: "upload",
			Name:      "duration_seconds",
			Help:      "Time spent reconciling a supervisor spreadsheet.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
	}
}

// ObserveUpload records one processed upload. A nil Recorder is a no-op.
func (r *Recorder) ObserveUpload(source string, res supervisor.UploadResult, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(source).Inc()
	r.rows.WithLabelValues(source, OutcomeCreated).Add(float64(res.Created))
	r.rows.WithLabelValues(source, OutcomeUpdated).Add(float64(res.Updated))
	r.rows.WithLabelValues(source, OutcomeFailed).Add(float64(len(res.Failed)))
	r.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
