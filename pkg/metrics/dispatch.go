package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeUnreachable = "unreachable"
	OutcomeTimeout     = "timeout"
)

// DispatchMetrics records print submissions per destination.
type DispatchMetrics struct {
	duration   *prometheus.HistogramVec
	tickets    *prometheus.CounterVec
	unassigned *prometheus.CounterVec
}

// NewDispatchMetrics registers the print dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "print_submit_duration_seconds",
		Help:    "Duration of ticket submissions per destination.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"destination"})
	tickets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "print_tickets_total",
		Help: "Tickets submitted per destination, kind and outcome.",
	}, []string{"destination", "kind", "outcome"})
	unassigned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "print_unassigned_lines_total",
		Help: "Order lines left without a print destination.",
	}, []string{"kind"})
	reg.MustRegister(duration, tickets, unassigned)
	return &DispatchMetrics{
		duration:   duration,
		tickets:    tickets,
		unassigned: unassigned,
	}
}

// ObserveSubmit records one submission attempt.
func (d *DispatchMetrics) ObserveSubmit(destination, kind, outcome string, elapsed time.Duration) {
	if d == nil || d.tickets == nil {
		return
	}
	destination = normalizeLabel(destination)
	d.duration.WithLabelValues(destination).Observe(elapsed.Seconds())
	d.tickets.WithLabelValues(destination, normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// AddUnassigned counts lines that were skipped for lack of a destination.
func (d *DispatchMetrics) AddUnassigned(kind string, lines int) {
	if d == nil || d.unassigned == nil || lines <= 0 {
		return
	}
	d.unassigned.WithLabelValues(normalizeLabel(kind)).Add(float64(lines))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
