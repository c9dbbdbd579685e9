package stats

import (
	"github.com/influxdata/tdigest"
)

// Summary condenses a histogram into a few numbers for the report footer
// and the metrics textfile.
type Summary struct {
	Count int64
	Min   int64
	Max   int64
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Summarize computes percentiles with a t-digest fed by the histogram's
// (value, count) pairs. An empty histogram yields a zero Summary.
func Summarize(h Histogram) Summary {
	var s Summary
	if len(h) == 0 {
		return s
	}

	td := tdigest.NewWithCompression(100) // ~100 centroids is plenty for ms-resolution delays
	var sum float64
	first := true
	for _, k := range h.Keys() {
		c := h[k]
		if c <= 0 {
			continue
		}
		td.Add(float64(k), float64(c))
		s.Count += c
		sum += float64(k) * float64(c)
		if first {
			s.Min = k
			first = false
		}
		s.Max = k
	}
	if s.Count == 0 {
		return Summary{}
	}

	s.Mean = sum / float64(s.Count)
	s.P50 = td.Quantile(0.50)
	s.P95 = td.Quantile(0.95)
	s.P99 = td.Quantile(0.99)
	return s
}
