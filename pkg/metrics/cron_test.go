package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "test-job"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "vb_cron_job_success_total", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "vb_cron_job_failure_total", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "vb_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestGatewayMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	gm := NewGatewayMetrics(reg)
	gm.Observe("razorpay", "initialize", 120*time.Millisecond, nil)
	gm.Observe("razorpay", "verify", 80*time.Millisecond, errors.New("bad signature"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "vb_payment_gateway_requests_total", "outcome", "error"); err != nil || got != 1 {
		t.Fatalf("expected one error outcome, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "vb_payment_gateway_duration_seconds", "operation", "initialize"); err != nil || got <= 0 {
		t.Fatalf("expected initialize latency, got %f (%v)", got, err)
	}
}

func TestHTTPMetricsUsesRouteLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	hm := NewHTTPMetrics(reg)
	hm.Observe("GET", "/api/orders/{orderId}", 200, 10*time.Millisecond)
	hm.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "vb_http_requests_total", "route", "/api/orders/{orderId}"); err != nil || got != 1 {
		t.Fatalf("expected route counter, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "vb_http_requests_total", "route", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown route counter, got %f (%v)", got, err)
	}
}

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	om := NewOutboxMetrics(reg)
	om.Published("order.created")
	om.Published("order.created")
	om.DeadLettered("payment.failed")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "vb_outbox_events_total", "event_type", "order.created"); err != nil || got != 2 {
		t.Fatalf("expected two published events, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "vb_outbox_events_total", "outcome", "dead_lettered"); err != nil || got != 1 {
		t.Fatalf("expected one dead-lettered event, got %f (%v)", got, err)
	}
}

func TestAnalyticsMetricsLabelsUnknownType(t *testing.T) {
	reg := prometheus.NewRegistry()
	am := NewAnalyticsMetrics(reg)
	am.Record("order.created", AnalyticsHandled)
	am.Record("", AnalyticsDropped)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "vb_analytics_messages_total", "event_type", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected one unknown drop, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "vb_analytics_messages_total", "outcome", "handled"); err != nil || got != 1 {
		t.Fatalf("expected one handled message, got %f (%v)", got, err)
	}
}

func TestNilRecordersAreSafe(t *testing.T) {
	var gm *GatewayMetrics
	gm.Observe("stripe", "refund", time.Second, nil)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
	NewCronJobMetrics(nil).IncSuccess("x")
	var om *OutboxMetrics
	om.Retried("order.created")
	var am *AnalyticsMetrics
	am.Record("order.created", AnalyticsRetry)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
