package insight

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlytics/wallet-insights/internal/comparison"
	"github.com/zlytics/wallet-insights/internal/domain"
)

func underperforming(metric string, severity domain.GapSeverity, gapPct float64) comparison.MetricGap {
	return comparison.MetricGap{
		ComparisonResult: domain.ComparisonResult{
			Metric:          metric,
			CurrentValue:    40,
			BenchmarkTarget: 60,
			Gap:             -20,
			GapPercentage:   gapPct,
			Status:          domain.StatusBelowTarget,
		},
		Severity: severity,
	}
}

func outperforming(metric string) comparison.MetricGap {
	return comparison.MetricGap{
		ComparisonResult: domain.ComparisonResult{
			Metric:        metric,
			CurrentValue:  80,
			GapPercentage: 15,
			Status:        domain.StatusAboveTarget,
		},
		Severity: domain.SeverityLow,
	}
}

func TestIdentifyDecliningMetrics(t *testing.T) {
	t.Run("healthy score has no declining metrics", func(t *testing.T) {
		score := domain.ProductivityScore{
			RetentionScore: 70, AdoptionScore: 65, ActivityScore: 80, DiversityScore: 55,
		}
		assert.Empty(t, IdentifyDecliningMetrics(score))
	})

	t.Run("grades by how far under the line", func(t *testing.T) {
		score := domain.ProductivityScore{
			RetentionScore: 45, // medium
			AdoptionScore:  30, // high
			ActivityScore:  70,
			DiversityScore: 34.9, // high
		}
		declining := IdentifyDecliningMetrics(score)
		require.Len(t, declining, 3)

		bySeverity := map[string]domain.GapSeverity{}
		for _, d := range declining {
			bySeverity[d.Name] = d.Severity
		}
		assert.Equal(t, domain.SeverityMedium, bySeverity["retention"])
		assert.Equal(t, domain.SeverityHigh, bySeverity["adoption"])
		assert.Equal(t, domain.SeverityHigh, bySeverity["diversity"])
	})
}

func TestAnalyzeProjectHealth(t *testing.T) {
	t.Run("tallies distributions and percentages", func(t *testing.T) {
		scores := []domain.ProductivityScore{
			{TotalScore: 80, Status: domain.HealthStatusHealthy, RiskLevel: domain.RiskLevelLow},
			{TotalScore: 60, Status: domain.HealthStatusHealthy, RiskLevel: domain.RiskLevelLow},
			{TotalScore: 50, Status: domain.HealthStatusAtRisk, RiskLevel: domain.RiskLevelMedium},
			{TotalScore: 10, Status: domain.HealthStatusChurn, RiskLevel: domain.RiskLevelHigh},
		}
		health := AnalyzeProjectHealth(scores)

		assert.Equal(t, 4, health.TotalWallets)
		assert.Equal(t, 2, health.HealthDistribution[domain.HealthStatusHealthy])
		assert.Equal(t, 1, health.RiskDistribution[domain.RiskLevelHigh])
		assert.InDelta(t, 50, health.HealthPercentage, 1e-9)
		assert.InDelta(t, 25, health.AtRiskPercentage, 1e-9)
		assert.InDelta(t, 25, health.ChurnPercentage, 1e-9)
		assert.InDelta(t, 50, health.AverageScore, 1e-9)
	})

	t.Run("empty input yields NaN average, not zero", func(t *testing.T) {
		health := AnalyzeProjectHealth(nil)
		assert.Zero(t, health.TotalWallets)
		assert.True(t, math.IsNaN(health.AverageScore))
	})
}

func TestGenerateComparisonRecommendations(t *testing.T) {
	gaps := comparison.GapAnalysis{
		Underperforming: []comparison.MetricGap{
			underperforming(comparison.MetricActivityScore, domain.SeverityLow, -5),
			underperforming(comparison.MetricRetentionRate, domain.SeverityHigh, -60),
			underperforming(comparison.MetricAdoptionScore, domain.SeverityMedium, -15),
		},
		Outperforming: []comparison.MetricGap{
			outperforming(comparison.MetricDiversityScore),
		},
	}

	recs := GenerateComparisonRecommendations(gaps)
	require.Len(t, recs, 4)

	t.Run("sorted by priority descending", func(t *testing.T) {
		assert.Equal(t, 10, recs[0].Priority)
		assert.Equal(t, 7, recs[1].Priority)
		assert.Equal(t, 5, recs[2].Priority)
		assert.Equal(t, reinforcementPriority, recs[3].Priority)
	})

	t.Run("types follow the metric taxonomy", func(t *testing.T) {
		assert.Equal(t, domain.RecRetentionImprovement, recs[0].Type)
		assert.Equal(t, domain.RecAdoptionPush, recs[1].Type)
		assert.Equal(t, domain.RecActivityBoost, recs[2].Type)
		assert.Equal(t, domain.RecReinforceStrength, recs[3].Type)
	})

	t.Run("completion indicators target the benchmark", func(t *testing.T) {
		assert.Equal(t, 60.0, recs[0].CompletionIndicators[comparison.MetricRetentionRate])
	})
}

func TestGenerateStrategicRecommendations(t *testing.T) {
	gaps := comparison.GapAnalysis{
		Underperforming: []comparison.MetricGap{
			underperforming(comparison.MetricRetentionRate, domain.SeverityHigh, -60),
		},
	}

	t.Run("alarming churn always leads with a priority 10 prevention", func(t *testing.T) {
		health := ProjectHealth{TotalWallets: 10, ChurnPercentage: 30, AtRiskPercentage: 20}
		recs := GenerateStrategicRecommendations(health, gaps)
		require.NotEmpty(t, recs)
		assert.Equal(t, domain.RecChurnPrevention, recs[0].Type)
		assert.Equal(t, churnPreventionPriority, recs[0].Priority)
	})

	t.Run("low churn adds no prevention recommendation", func(t *testing.T) {
		health := ProjectHealth{TotalWallets: 10, ChurnPercentage: 5}
		recs := GenerateStrategicRecommendations(health, gaps)
		for _, r := range recs {
			assert.NotEqual(t, domain.RecChurnPrevention, r.Type)
		}
	})
}

func TestIdentifyQuickWins(t *testing.T) {
	gaps := comparison.GapAnalysis{
		Underperforming: []comparison.MetricGap{
			underperforming(comparison.MetricActivityScore, domain.SeverityLow, -5),
			underperforming(comparison.MetricRetentionRate, domain.SeverityHigh, -60),
		},
	}

	wins := IdentifyQuickWins(gaps)
	require.Len(t, wins, 1)
	assert.Equal(t, comparison.MetricActivityScore, wins[0].Metric)
	assert.Equal(t, domain.EffortLow, wins[0].Effort)
}

func TestCalculateCompetitiveAdvantage(t *testing.T) {
	manyGaps := func(n int, out bool) comparison.GapAnalysis {
		var gaps comparison.GapAnalysis
		for i := 0; i < n; i++ {
			if out {
				gaps.Outperforming = append(gaps.Outperforming, outperforming("m"))
			} else {
				gaps.Underperforming = append(gaps.Underperforming, underperforming("m", domain.SeverityLow, -5))
			}
		}
		return gaps
	}

	t.Run("top performer with strengths is strong", func(t *testing.T) {
		adv := CalculateCompetitiveAdvantage(
			comparison.OverallPosition{Position: domain.PositionTopPerformer}, manyGaps(2, true))
		assert.Equal(t, AdvantageStrong, adv.Level)
		assert.InDelta(t, 90, adv.Score, 1e-9)
	})

	t.Run("below average with many gaps is weak", func(t *testing.T) {
		adv := CalculateCompetitiveAdvantage(
			comparison.OverallPosition{Position: domain.PositionBelowAverage}, manyGaps(3, false))
		assert.Equal(t, AdvantageWeak, adv.Level)
		assert.InDelta(t, 5, adv.Score, 1e-9)
	})

	t.Run("average standing is moderate", func(t *testing.T) {
		adv := CalculateCompetitiveAdvantage(
			comparison.OverallPosition{Position: domain.PositionAverage}, comparison.GapAnalysis{})
		assert.Equal(t, AdvantageModerate, adv.Level)
	})

	t.Run("score clamps to bounds", func(t *testing.T) {
		adv := CalculateCompetitiveAdvantage(
			comparison.OverallPosition{Position: domain.PositionBelowAverage}, manyGaps(10, false))
		assert.Zero(t, adv.Score)

		adv = CalculateCompetitiveAdvantage(
			comparison.OverallPosition{Position: domain.PositionTopPerformer}, manyGaps(10, true))
		assert.InDelta(t, 100, adv.Score, 1e-9)
	})
}
