package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements the application Metrics interface using Prometheus.
type Collector struct {
	uploads    *prometheus.CounterVec
	edits      *prometheus.CounterVec
	detections *prometheus.CounterVec
	deletes    *prometheus.CounterVec
	moves      prometheus.Counter

	editDuration   *prometheus.HistogramVec
	detectDuration *prometheus.HistogramVec
	eventClients   prometheus.Gauge
}

// NewCollector creates and registers the Prometheus metrics.
func NewCollector() *Collector {
	return &Collector{
		uploads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pixo_uploads_total",
				Help: "Total number of image uploads",
			},
			[]string{"status"},
		),
		edits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pixo_edits_total",
				Help: "Total number of edit operations",
			},
			[]string{"op", "status"},
		),
		detections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pixo_detections_total",
				Help: "Total number of detection runs",
			},
			[]string{"backend", "status"},
		),
		deletes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pixo_deletes_total",
				Help: "Total number of image deletions",
			},
			[]string{"folder"},
		),
		moves: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pixo_moves_total",
				Help: "Total number of image moves between folders",
			},
		),
		editDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pixo_edit_duration_seconds",
				Help:    "Edit operation duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"op"},
		),
		detectDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pixo_detect_duration_seconds",
				Help:    "Detection duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"backend"},
		),
		eventClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pixo_event_clients",
				Help: "Number of connected event stream clients",
			},
		),
	}
}

// IncUploads increments the upload counter.
func (c *Collector) IncUploads(status string) {
	c.uploads.WithLabelValues(status).Inc()
}

// IncEdits increments the edit counter for an operation.
func (c *Collector) IncEdits(op string, status string) {
	c.edits.WithLabelValues(op, status).Inc()
}

// IncDetections increments the detection counter for a backend.
func (c *Collector) IncDetections(backend string, status string) {
	c.detections.WithLabelValues(backend, status).Inc()
}

// IncDeletes increments the delete counter for a folder.
func (c *Collector) IncDeletes(folder string) {
	c.deletes.WithLabelValues(folder).Inc()
}

// IncMoves increments the move counter.
func (c *Collector) IncMoves() {
	c.moves.Inc()
}

// ObserveEditDuration records an edit operation duration.
func (c *Collector) ObserveEditDuration(op string, d time.Duration) {
	c.editDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveDetectDuration records a detection duration.
func (c *Collector) ObserveDetectDuration(backend string, d time.Duration) {
	c.detectDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// SetEventClients sets the connected event stream client gauge.
func (c *Collector) SetEventClients(n int) {
	c.eventClients.Set(float64(n))
}
