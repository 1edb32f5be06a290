package comparison

import (
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/domain"
)

// MetricGap is a comparison result graded by how far it misses (or beats) the
// benchmark target
type MetricGap struct {
	domain.ComparisonResult
	Severity domain.GapSeverity `json:"severity"`
}

// GapAnalysis buckets a project's metrics by their benchmark standing
type GapAnalysis struct {
	Underperforming []MetricGap `json:"underperforming"`
	Outperforming   []MetricGap `json:"outperforming"`
	AtTarget        []MetricGap `json:"at_target"`
}

// OverallPosition classifies a project's standing across all compared metrics
type OverallPosition struct {
	Position domain.MarketPosition `json:"position"`
	Score    float64               `json:"score"`
}

// gapSeverity grades an underperforming metric by its absolute gap percentage
func gapSeverity(gapPercentage float64, cfg config.ComparisonConfig) domain.GapSeverity {
	abs := gapPercentage
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= cfg.GapHighPercent:
		return domain.SeverityHigh
	case abs >= cfg.GapMediumPercent:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// IdentifyPerformanceGaps buckets comparison results by status. Metrics
// without a benchmark are skipped entirely; their gap fields carry no meaning.
func IdentifyPerformanceGaps(results []domain.ComparisonResult, cfg config.ComparisonConfig) GapAnalysis {
	var analysis GapAnalysis
	for _, r := range results {
		switch r.Status {
		case domain.StatusBelowTarget:
			analysis.Underperforming = append(analysis.Underperforming, MetricGap{
				ComparisonResult: r,
				Severity:         gapSeverity(r.GapPercentage, cfg),
			})
		case domain.StatusAboveTarget:
			analysis.Outperforming = append(analysis.Outperforming, MetricGap{
				ComparisonResult: r,
				Severity:         domain.SeverityLow,
			})
		case domain.StatusExact:
			analysis.AtTarget = append(analysis.AtTarget, MetricGap{
				ComparisonResult: r,
				Severity:         domain.SeverityLow,
			})
		}
	}
	return analysis
}

// rangeScore maps a percentile range onto a 1-5 scale
func rangeScore(r domain.PercentileRange) (float64, bool) {
	switch r {
	case domain.RangeBelow25:
		return 1, true
	case domain.Range25To50:
		return 2, true
	case domain.Range50To75:
		return 3, true
	case domain.Range75To90:
		return 4, true
	case domain.RangeAbove90:
		return 5, true
	default:
		return 0, false
	}
}

// CalculateOverallPosition averages the percentile standing of every metric
// with a resolved benchmark and classifies the project. When no metric has a
// resolved range the position is unknown.
func CalculateOverallPosition(results []domain.ComparisonResult, cfg config.ComparisonConfig) OverallPosition {
	var sum float64
	var count int
	for _, r := range results {
		if score, ok := rangeScore(r.PercentileRange); ok {
			sum += score
			count++
		}
	}
	if count == 0 {
		return OverallPosition{Position: domain.PositionUnknown}
	}

	avg := sum / float64(count)
	position := domain.PositionBelowAverage
	switch {
	case avg >= cfg.TopPerformerMin:
		position = domain.PositionTopPerformer
	case avg >= cfg.AverageMin:
		position = domain.PositionAverage
	}
	return OverallPosition{Position: position, Score: avg}
}
