// Package metrics exports analysis results as a Prometheus textfile.
//
// The tool runs once and exits, so nothing is served over HTTP. Results are
// held by an Exporter that implements prometheus.Collector; WriteFile
// gathers a private registry and writes the text exposition format, ready
// for node_exporter's textfile collector or a CI artifact.
//
// Exported families:
//   - rtc_delay_info{version}                          always 1
//   - rtc_delay_milliseconds{analysis,kind}            histogram of samples
//   - rtc_delay_quantile_milliseconds{analysis,quantile}
//   - rtc_delay_bucket_records{analysis,bucket}        e2e bucket rows
//   - rtc_delay_incomplete_records{analysis}           e2e sends never received
//   - rtc_delay_malformed_lines                        lines skipped in lenient mode
package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/stats"
)

// DelayBounds are the histogram upper bounds in milliseconds. They match
// the finite edges of stats.Buckets.
var DelayBounds = []float64{5, 10, 15, 20, 35, 60, 100}

var (
	infoDesc = prometheus.NewDesc(
		"rtc_delay_info",
		"Information about the delay analysis run (value always 1)",
		[]string{"version"}, nil,
	)
	delayDesc = prometheus.NewDesc(
		"rtc_delay_milliseconds",
		"Observed delay samples per analysis",
		[]string{"analysis", "kind"}, nil,
	)
	quantileDesc = prometheus.NewDesc(
		"rtc_delay_quantile_milliseconds",
		"Delay quantiles estimated with a t-digest",
		[]string{"analysis", "quantile"}, nil,
	)
	bucketDesc = prometheus.NewDesc(
		"rtc_delay_bucket_records",
		"Correlated records per end-to-end delay bucket",
		[]string{"analysis", "bucket"}, nil,
	)
	incompleteDesc = prometheus.NewDesc(
		"rtc_delay_incomplete_records",
		"Sent packets with no matching receive event",
		[]string{"analysis"}, nil,
	)
	malformedDesc = prometheus.NewDesc(
		"rtc_delay_malformed_lines",
		"Malformed log lines skipped during the run",
		nil, nil,
	)
)

// Result is one analysis as seen by the exporter.
type Result struct {
	Name    string
	Kind    string
	Samples stats.Histogram
	Summary stats.Summary

	// Set for end-to-end analyses only.
	Buckets    []stats.BucketRow
	Incomplete int
}

// Exporter collects analysis results for a single textfile write.
type Exporter struct {
	version  string
	registry *prometheus.Registry

	mu        sync.Mutex
	results   []Result
	malformed int64
}

// NewExporter creates an exporter with its own registry.
func NewExporter(version string) *Exporter {
	e := &Exporter{
		version:  version,
		registry: prometheus.NewRegistry(),
	}
	e.registry.MustRegister(e)
	return e
}

// Add records one analysis result.
func (e *Exporter) Add(r Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = append(e.results, r)
}

// SetMalformed records the number of malformed lines skipped.
func (e *Exporter) SetMalformed(n int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.malformed = n
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- infoDesc
	ch <- delayDesc
	ch <- quantileDesc
	ch <- bucketDesc
	ch <- incompleteDesc
	ch <- malformedDesc
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(infoDesc, prometheus.GaugeValue, 1, e.version)
	ch <- prometheus.MustNewConstMetric(malformedDesc, prometheus.GaugeValue, float64(e.malformed))

	for _, r := range e.results {
		count, sum, buckets := cumulative(r.Samples)
		ch <- prometheus.MustNewConstHistogram(delayDesc, count, sum, buckets, r.Name, r.Kind)

		if r.Summary.Count > 0 {
			for _, q := range []struct {
				label string
				value float64
			}{
				{"0.5", r.Summary.P50},
				{"0.95", r.Summary.P95},
				{"0.99", r.Summary.P99},
			} {
				ch <- prometheus.MustNewConstMetric(quantileDesc, prometheus.GaugeValue, q.value, r.Name, q.label)
			}
		}

		if r.Buckets == nil {
			continue
		}
		for _, row := range r.Buckets {
			ch <- prometheus.MustNewConstMetric(bucketDesc, prometheus.GaugeValue, float64(row.Count), r.Name, row.Label)
		}
		ch <- prometheus.MustNewConstMetric(incompleteDesc, prometheus.GaugeValue, float64(r.Incomplete), r.Name)
	}
}

// cumulative converts an exact histogram into Prometheus bucket form.
func cumulative(h stats.Histogram) (count uint64, sum float64, buckets map[float64]uint64) {
	buckets = make(map[float64]uint64, len(DelayBounds))
	for _, b := range DelayBounds {
		buckets[b] = 0
	}
	for k, c := range h {
		if c <= 0 {
			continue
		}
		count += uint64(c)
		sum += float64(k) * float64(c)
		for _, b := range DelayBounds {
			if float64(k) <= b {
				buckets[b] += uint64(c)
			}
		}
	}
	return count, sum, buckets
}

// Gather returns the current metric families.
func (e *Exporter) Gather() ([]*dto.MetricFamily, error) {
	return e.registry.Gather()
}

// Write writes all families in the text exposition format.
func (e *Exporter) Write(w io.Writer) error {
	families, err := e.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile replaces path atomically with a temp file renamed from the
// same directory.
func (e *Exporter) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := e.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metrics file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename metrics file: %w", err)
	}
	return nil
}

