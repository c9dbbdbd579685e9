// Package stats aggregates audio pipeline delays into histograms.
//
// Two shapes of data come out of the logs:
//   - exact histograms (delay value → occurrence count) from single-marker
//     scans such as "Playout delay:", reported against a validity ceiling
//   - fixed-bucket reports over correlated sender/receiver records
package stats

import (
	"sort"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/correlate"
)

// Histogram maps a delay value to how many times it was observed.
type Histogram map[int64]int64

// NewHistogram creates an empty histogram.
func NewHistogram() Histogram {
	return make(Histogram)
}

// Add records one sample.
func (h Histogram) Add(delay int64) {
	h[delay]++
}

// Keys returns the observed delays in ascending order.
func (h Histogram) Keys() []int64 {
	keys := make([]int64, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Total returns the number of samples.
func (h Histogram) Total() int64 {
	var n int64
	for _, c := range h {
		n += c
	}
	return n
}

// TotalBelow returns the number of samples with delay strictly below
// ceiling. This is the denominator of every fraction in a histogram report.
func (h Histogram) TotalBelow(ceiling int64) int64 {
	var n int64
	for k, c := range h {
		if k < ceiling {
			n += c
		}
	}
	return n
}

// Below returns a copy of h holding only delays strictly below ceiling.
func (h Histogram) Below(ceiling int64) Histogram {
	out := NewHistogram()
	for k, c := range h {
		if k < ceiling {
			out[k] = c
		}
	}
	return out
}

// Merge adds every count of other into h.
func (h Histogram) Merge(other Histogram) {
	for k, c := range other {
		h[k] += c
	}
}

// FromSendRecords builds the send-queue delay histogram.
func FromSendRecords(records []correlate.SendRecord) Histogram {
	h := NewHistogram()
	for _, r := range records {
		h.Add(r.Delay())
	}
	return h
}
