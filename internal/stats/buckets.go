package stats

import (
	"fmt"
	"math"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/correlate"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
)

// Bucket is one fixed delay range. A delay d lands in the first bucket
// whose Upper satisfies d <= Upper, so the first bucket also takes zero and
// negative delays caused by clock skew between the two capture hosts.
type Bucket struct {
	Label string
	Upper int64
}

// Buckets are the end-to-end delay ranges in ascending order.
var Buckets = []Bucket{
	{"(0-5]", 5},
	{"(5-10]", 10},
	{"(10-15]", 15},
	{"(15-20]", 20},
	{"(20-35]", 35},
	{"(35-60]", 60},
	{"(60-100]", 100},
	{"(100-...]", math.MaxInt64},
}

// OutlierBucket is the index of the open-ended last bucket.
var OutlierBucket = len(Buckets) - 1

// BucketIndex returns the bucket a delay belongs to.
func BucketIndex(delay int64) int {
	for i, b := range Buckets {
		if delay <= b.Upper {
			return i
		}
	}
	return OutlierBucket
}

// BucketRow is one line of a bucketed report.
type BucketRow struct {
	Bucket
	Count int64
}

// BucketReport is the bucketed view of a correlation table.
type BucketReport struct {
	Rows []BucketRow

	// Total is the number of complete records with both ends present. It
	// is the denominator of every fraction.
	Total int64

	// Incomplete counts sender records that never saw a receive event.
	Incomplete int

	// Excluded counts complete records with a missing send or receive time.
	Excluded int

	// Outliers are the records in the last bucket, in table order, each
	// with its delay appended as a sixth field.
	Outliers []*correlate.Record

	// Delays is the exact histogram behind the buckets.
	Delays Histogram
}

// BuildBucketReport buckets every complete record of table. With
// zeroAsMissing, a zero send or receive time excludes the record from both
// the counts and the denominator.
func BuildBucketReport(table *correlate.Table, zeroAsMissing bool) *BucketReport {
	rep := &BucketReport{
		Rows:   make([]BucketRow, len(Buckets)),
		Delays: NewHistogram(),
	}
	for i, b := range Buckets {
		rep.Rows[i].Bucket = b
	}

	for _, rec := range table.Records() {
		if !rec.Complete() {
			rep.Incomplete++
			continue
		}
		recv, _ := rec.RecvTime()
		if zeroAsMissing && (rec.SendTime() == 0 || recv == 0) {
			rep.Excluded++
			continue
		}

		delay := recv - rec.SendTime()
		idx := BucketIndex(delay)
		rep.Rows[idx].Count++
		rep.Total++
		rep.Delays.Add(delay)

		if idx == OutlierBucket {
			rec.AppendDelay(delay)
			rep.Outliers = append(rep.Outliers, rec)
		}
	}
	return rep
}

// Fraction returns Rows[i].Count / Total. It fails with
// parser.ErrMissingCorrelation when no record was correlated.
func (r *BucketReport) Fraction(i int) (float64, error) {
	if r.Total == 0 {
		return 0, fmt.Errorf("%w: bucket %s", parser.ErrMissingCorrelation, r.Rows[i].Label)
	}
	return float64(r.Rows[i].Count) / float64(r.Total), nil
}
