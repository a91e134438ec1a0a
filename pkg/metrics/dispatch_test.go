package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDispatchMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDispatchMetrics(reg)
	metrics.ObserveSubmit("Cocina", "order", OutcomeSuccess, 250*time.Millisecond)
	metrics.ObserveSubmit("Barra", "order", OutcomeTimeout, 30*time.Second)
	metrics.AddUnassigned("order", 2)
	metrics.AddUnassigned("order", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "print_tickets_total", map[string]string{"destination": "Cocina", "outcome": OutcomeSuccess}); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "print_tickets_total", map[string]string{"destination": "Barra", "outcome": OutcomeTimeout}); err != nil {
		t.Fatalf("fetch timeout: %v", err)
	} else if got != 1 {
		t.Fatalf("expected timeout=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "print_unassigned_lines_total", map[string]string{"kind": "order"}); err != nil {
		t.Fatalf("fetch unassigned: %v", err)
	} else if got != 2 {
		t.Fatalf("expected unassigned=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "print_submit_duration_seconds", map[string]string{"destination": "Barra"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got != 30 {
		t.Fatalf("expected duration sum 30, got %f", got)
	}
}

func TestNilDispatchMetricsIsSafe(t *testing.T) {
	var metrics *DispatchMetrics
	metrics.ObserveSubmit("Cocina", "order", OutcomeSuccess, time.Second)
	metrics.AddUnassigned("order", 1)

	NewDispatchMetrics(nil).ObserveSubmit("", "", "", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
