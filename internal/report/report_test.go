// FilePath: internal/report/report_test.go
package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/strct-org/beeportal/internal/models"
)

func f64(v float64) *float64 { return &v }

func sample(ts time.Time, latency, loss float64) models.NetworkSample {
	down := false
	return models.NetworkSample{
		LatencyMs:   f64(latency),
		LossPercent: f64(loss),
		IsDown:      &down,
		Timestamp:   ts,
	}
}

func TestSummarizeEmptyInputIsAllZeros(t *testing.T) {
	summary := Summarize(nil, MetricLatency)

	if summary.Average != 0 || summary.Maximum != 0 || summary.Minimum != 0 {
		t.Fatalf("empty input must summarize to zeros, got %+v", summary)
	}
	if summary.Samples != 0 {
		t.Fatalf("expected zero samples, got %d", summary.Samples)
	}
}

func TestSummarizeMath(t *testing.T) {
	now := time.Now()
	samples := []models.NetworkSample{
		sample(now, 10, 0),
		sample(now, 20, 0),
		sample(now, 30, 0),
	}

	summary := Summarize(samples, MetricLatency)

	if summary.Average != 20 {
		t.Fatalf("expected average 20, got %v", summary.Average)
	}
	if summary.Maximum != 30 {
		t.Fatalf("expected maximum 30, got %v", summary.Maximum)
	}
	if summary.Minimum != 10 {
		t.Fatalf("expected minimum 10, got %v", summary.Minimum)
	}
	if summary.Samples != 3 {
		t.Fatalf("expected 3 samples, got %d", summary.Samples)
	}
}

func TestSummarizeBandwidthSkipsUnmeasuredSamples(t *testing.T) {
	now := time.Now()
	withBandwidth := sample(now, 15, 0)
	withBandwidth.BandwidthMbps = f64(200)

	samples := []models.NetworkSample{
		sample(now, 10, 0),
		withBandwidth,
		sample(now, 20, 0),
	}

	summary := Summarize(samples, MetricBandwidth)

	if summary.Samples != 1 {
		t.Fatalf("only measured samples count for bandwidth, got %d", summary.Samples)
	}
	if summary.Average != 200 || summary.Maximum != 200 || summary.Minimum != 200 {
		t.Fatalf("unexpected bandwidth summary: %+v", summary)
	}
}

func TestFilterSamplesHonorsCutoff(t *testing.T) {
	now := time.Now()
	samples := []models.NetworkSample{
		sample(now.Add(-48*time.Hour), 10, 0),
		sample(now.Add(-1*time.Hour), 20, 0),
		sample(now, 30, 0),
	}

	kept := filterSamples(samples, MetricLatency, now.Add(-24*time.Hour))

	if len(kept) != 2 {
		t.Fatalf("expected the 48h-old sample to be cut, got %d kept", len(kept))
	}
	if *kept[0].LatencyMs != 20 {
		t.Fatalf("expected input order to be preserved")
	}
}

func TestRequestValidation(t *testing.T) {
	base := Request{DeviceID: "d1", Metric: MetricLatency, Range: RangeDay}
	if err := base.validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	bad := base
	bad.Metric = "jitter"
	if err := bad.validate(); err == nil {
		t.Fatalf("expected unknown metric to be rejected")
	}

	bad = base
	bad.DeviceID = ""
	if err := bad.validate(); err == nil {
		t.Fatalf("expected missing device id to be rejected")
	}

	bad = base
	bad.Range = RangeCustom
	if err := bad.validate(); err == nil {
		t.Fatalf("expected custom range without start to be rejected")
	}
	bad.Start = time.Now().Add(-time.Hour)
	if err := bad.validate(); err != nil {
		t.Fatalf("custom range with start rejected: %v", err)
	}
}

func TestGenerateProducesPDF(t *testing.T) {
	now := time.Now()
	samples := []models.NetworkSample{
		sample(now.Add(-2*time.Hour), 12, 0),
		sample(now.Add(-1*time.Hour), 18, 0.5),
	}

	pdf, err := Generate(Request{
		DeviceID:   "d1",
		DeviceName: "Living Room",
		Metric:     MetricLatency,
		Range:      RangeDay,
	}, samples)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got prefix %q", pdf[:4])
	}
}

func TestGenerateEmptyHistoryStillRenders(t *testing.T) {
	pdf, err := Generate(Request{
		DeviceID: "d1",
		Metric:   MetricLoss,
		Range:    RangeWeek,
	}, nil)
	if err != nil {
		t.Fatalf("Generate with empty history failed: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("expected a rendered document for empty history")
	}
}
