package benchmark

import (
	"math"
	"sort"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// TargetPercentile selects which benchmark percentile a comparison is made
// against. Using a fixed enum instead of free-form keys keeps an invalid
// target a compile-time concern.
type TargetPercentile string

const (
	TargetP25 TargetPercentile = "p25"
	TargetP50 TargetPercentile = "p50"
	TargetP75 TargetPercentile = "p75"
	TargetP90 TargetPercentile = "p90"
)

// IsValidTargetPercentile checks if a target percentile is valid
func IsValidTargetPercentile(t TargetPercentile) bool {
	switch t {
	case TargetP25, TargetP50, TargetP75, TargetP90:
		return true
	}
	return false
}

// Value resolves the target against a set of percentiles
func (t TargetPercentile) Value(p domain.Percentiles) float64 {
	switch t {
	case TargetP25:
		return p.P25
	case TargetP75:
		return p.P75
	case TargetP90:
		return p.P90
	default:
		return p.P50
	}
}

// CalculatePercentiles computes the p25/p50/p75/p90 percentiles of values
// using linear interpolation over a sorted copy. An empty input yields all
// zeros; a single value yields four equal percentiles. The result is
// non-decreasing and bounded by the input's min and max.
func CalculatePercentiles(values []float64) domain.Percentiles {
	if len(values) == 0 {
		return domain.Percentiles{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return domain.Percentiles{
		P25: interpolate(sorted, 0.25),
		P50: interpolate(sorted, 0.50),
		P75: interpolate(sorted, 0.75),
		P90: interpolate(sorted, 0.90),
	}
}

// interpolate returns the p-th quantile of sorted using linear interpolation
// between the two nearest ranks
func interpolate(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// GetPercentileRange classifies value into one of five buckets relative to a
// benchmark's percentiles. A nil benchmark yields RangeUnknown.
func GetPercentileRange(value float64, b *domain.Benchmark) domain.PercentileRange {
	if b == nil {
		return domain.RangeUnknown
	}
	p := b.Percentiles
	switch {
	case value < p.P25:
		return domain.RangeBelow25
	case value < p.P50:
		return domain.Range25To50
	case value < p.P75:
		return domain.Range50To75
	case value <= p.P90:
		return domain.Range75To90
	default:
		return domain.RangeAbove90
	}
}

// PerformanceGap is the numeric distance between a value and its benchmark
// target. Gap and Percentage are meaningless when Status is StatusNoBenchmark.
type PerformanceGap struct {
	Gap        float64                 `json:"gap"`
	Percentage float64                 `json:"percentage"`
	Status     domain.ComparisonStatus `json:"status"`
}

// CalculatePerformanceGap measures value against the benchmark's target
// percentile. A nil benchmark yields StatusNoBenchmark; a zero target yields
// a zero percentage rather than a division error.
func CalculatePerformanceGap(value float64, b *domain.Benchmark, target TargetPercentile) PerformanceGap {
	if b == nil {
		return PerformanceGap{Status: domain.StatusNoBenchmark}
	}

	targetValue := target.Value(b.Percentiles)
	gap := value - targetValue

	var percentage float64
	if targetValue != 0 {
		percentage = gap / targetValue * 100
	}

	status := domain.StatusExact
	switch {
	case gap > 0:
		status = domain.StatusAboveTarget
	case gap < 0:
		status = domain.StatusBelowTarget
	}

	return PerformanceGap{
		Gap:        gap,
		Percentage: percentage,
		Status:     status,
	}
}
