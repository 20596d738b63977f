// FilePath: internal/report/report.go
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/models"
)

// Metric selects which value of a network sample a report is built over.
type Metric string

const (
	MetricLatency   Metric = "latency"
	MetricBandwidth Metric = "bandwidth"
	MetricLoss      Metric = "loss"
)

// Range selects how far back the report reaches.
type Range string

const (
	RangeDay    Range = "24h"
	RangeWeek   Range = "7d"
	RangeMonth  Range = "30d"
	RangeCustom Range = "custom"
)

// Request describes one report to generate.
type Request struct {
	DeviceID   string    `schema:"device_id"`
	DeviceName string    `schema:"device_name"`
	Metric     Metric    `schema:"metric"`
	Range      Range     `schema:"range"`
	Start      time.Time `schema:"start"`
}

// Summary is the aggregate row of a report. Zero values throughout for an
// empty input, never NaN or infinities.
type Summary struct {
	Average float64 `json:"average"`
	Maximum float64 `json:"maximum"`
	Minimum float64 `json:"minimum"`
	Samples int     `json:"samples"`
}

func (r Request) validate() error {
	if r.DeviceID == "" {
		return errors.NewValidationError("device_id is required", nil)
	}
	switch r.Metric {
	case MetricLatency, MetricBandwidth, MetricLoss:
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown metric %q", r.Metric), nil)
	}
	switch r.Range {
	case RangeDay, RangeWeek, RangeMonth:
	case RangeCustom:
		if r.Start.IsZero() {
			return errors.NewValidationError("custom range requires a start time", nil)
		}
	case "":
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown range %q", r.Range), nil)
	}
	return nil
}

// cutoff returns the earliest timestamp included in the report.
func (r Request) cutoff(now time.Time) time.Time {
	switch r.Range {
	case RangeWeek:
		return now.Add(-7 * 24 * time.Hour)
	case RangeMonth:
		return now.Add(-30 * 24 * time.Hour)
	case RangeCustom:
		return r.Start
	default:
		return now.Add(-24 * time.Hour)
	}
}

// metricValue extracts the requested metric from a sample, reporting whether
// the sample carries it at all. Bandwidth is only present on the sparse
// samples where a measurement actually ran.
func metricValue(sample models.NetworkSample, metric Metric) (float64, bool) {
	switch metric {
	case MetricBandwidth:
		if sample.BandwidthMbps == nil {
			return 0, false
		}
		return *sample.BandwidthMbps, true
	case MetricLoss:
		if sample.LossPercent == nil {
			return 0, false
		}
		return *sample.LossPercent, true
	default:
		if sample.LatencyMs == nil {
			return 0, false
		}
		return *sample.LatencyMs, true
	}
}

func metricUnit(metric Metric) string {
	switch metric {
	case MetricBandwidth:
		return "Mbps"
	case MetricLoss:
		return "%"
	default:
		return "ms"
	}
}

func metricLabel(metric Metric) string {
	switch metric {
	case MetricBandwidth:
		return "Bandwidth"
	case MetricLoss:
		return "Packet Loss"
	default:
		return "Latency"
	}
}

// filterSamples keeps the samples in range that carry the metric, in input
// order.
func filterSamples(samples []models.NetworkSample, metric Metric, cutoff time.Time) []models.NetworkSample {
	kept := make([]models.NetworkSample, 0, len(samples))
	for _, sample := range samples {
		if sample.Timestamp.Before(cutoff) {
			continue
		}
		if _, ok := metricValue(sample, metric); !ok {
			continue
		}
		kept = append(kept, sample)
	}
	return kept
}

// Summarize computes the aggregate row over the samples that carry the
// metric. An empty input yields all zeros.
func Summarize(samples []models.NetworkSample, metric Metric) Summary {
	var values []float64
	for _, sample := range samples {
		if v, ok := metricValue(sample, metric); ok {
			values = append(values, v)
		}
	}

	summary := Summary{Samples: len(values)}
	if len(values) == 0 {
		return summary
	}

	sum := 0.0
	max := values[0]
	min := values[0]
	for _, v := range values {
		sum += v
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	summary.Average = sum / float64(len(values))
	summary.Maximum = max
	summary.Minimum = min
	return summary
}

// Generate renders the PDF report: a header naming device, metric and
// period, the summary row, and one detail row per sample.
func Generate(req Request, samples []models.NetworkSample) ([]byte, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	kept := filterSamples(samples, req.Metric, req.cutoff(now))
	summary := Summarize(kept, req.Metric)
	unit := metricUnit(req.Metric)

	deviceName := req.DeviceName
	if deviceName == "" {
		deviceName = req.DeviceID
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s Report - %s", metricLabel(req.Metric), deviceName), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s Report", metricLabel(req.Metric)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Device: %s", deviceName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", now.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	summaryRows := [][2]string{
		{"Average", fmt.Sprintf("%.2f %s", summary.Average, unit)},
		{"Maximum", fmt.Sprintf("%.2f %s", summary.Maximum, unit)},
		{"Minimum", fmt.Sprintf("%.2f %s", summary.Minimum, unit)},
		{"Samples", fmt.Sprintf("%d", summary.Samples)},
	}
	for _, row := range summaryRows {
		pdf.CellFormat(50, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Measurements", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(70, 7, "Timestamp", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 7, metricLabel(req.Metric), "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Status", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, sample := range kept {
		value, _ := metricValue(sample, req.Metric)
		status := "Online"
		if sample.IsDown != nil && *sample.IsDown {
			status = "Offline"
		}
		pdf.CellFormat(70, 6, sample.Timestamp.Format("2006-01-02 15:04:05"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.2f %s", value, unit), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, status, "1", 1, "L", false, 0, "")
	}
	if len(kept) == 0 {
		pdf.CellFormat(160, 6, "No measurements in the selected period", "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename suggests a download name for the report.
func Filename(req Request, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.pdf", req.DeviceID, req.Metric, now.Format("20060102"))
}
