package insight

import (
	"fmt"
	"math"
	"sort"

	"github.com/zlytics/wallet-insights/internal/comparison"
	"github.com/zlytics/wallet-insights/internal/domain"
)

// DecliningMetric is a component score that fell under the declining line
type DecliningMetric struct {
	Name     string             `json:"name"`
	Score    float64            `json:"score"`
	Severity domain.GapSeverity `json:"severity"`
}

// ProjectHealth is the tallied health picture of a project's wallets.
// AverageScore is NaN when there are no wallets; callers must guard for it
// rather than read a silent zero.
type ProjectHealth struct {
	TotalWallets       int                         `json:"total_wallets"`
	HealthDistribution map[domain.HealthStatus]int `json:"health_distribution"`
	RiskDistribution   map[domain.RiskLevel]int    `json:"risk_distribution"`
	HealthPercentage   float64                     `json:"health_percentage"`
	AtRiskPercentage   float64                     `json:"at_risk_percentage"`
	ChurnPercentage    float64                     `json:"churn_percentage"`
	AverageScore       float64                     `json:"average_score"`
}

// QuickWin is a small, low-effort underperformance worth fixing first
type QuickWin struct {
	Metric        string             `json:"metric"`
	Gap           float64            `json:"gap"`
	GapPercentage float64            `json:"gap_percentage"`
	Effort        domain.EffortLevel `json:"effort"`
}

// CompetitiveAdvantage grades a project's standing against its market
type CompetitiveAdvantage struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

const (
	AdvantageStrong   = "Strong"
	AdvantageModerate = "Moderate"
	AdvantageWeak     = "Weak"
)

const (
	decliningLine    = 50.0
	decliningHighBar = 35.0
)

// IdentifyDecliningMetrics flags component scores under the declining line.
// Scores under the high bar are graded high, the rest medium.
func IdentifyDecliningMetrics(score domain.ProductivityScore) []DecliningMetric {
	components := []struct {
		name  string
		value float64
	}{
		{"retention", score.RetentionScore},
		{"adoption", score.AdoptionScore},
		{"activity", score.ActivityScore},
		{"diversity", score.DiversityScore},
	}

	var declining []DecliningMetric
	for _, c := range components {
		if c.value >= decliningLine {
			continue
		}
		severity := domain.SeverityMedium
		if c.value < decliningHighBar {
			severity = domain.SeverityHigh
		}
		declining = append(declining, DecliningMetric{
			Name:     c.name,
			Score:    c.value,
			Severity: severity,
		})
	}
	return declining
}

// AnalyzeProjectHealth tallies health and risk distributions over wallet
// scores. An empty input yields zero totals and a NaN average.
func AnalyzeProjectHealth(scores []domain.ProductivityScore) ProjectHealth {
	health := ProjectHealth{
		TotalWallets:       len(scores),
		HealthDistribution: make(map[domain.HealthStatus]int),
		RiskDistribution:   make(map[domain.RiskLevel]int),
		AverageScore:       math.NaN(),
	}
	if len(scores) == 0 {
		return health
	}

	var total float64
	for _, s := range scores {
		health.HealthDistribution[s.Status]++
		health.RiskDistribution[s.RiskLevel]++
		total += s.TotalScore
	}

	n := float64(len(scores))
	health.HealthPercentage = float64(health.HealthDistribution[domain.HealthStatusHealthy]) / n * 100
	health.AtRiskPercentage = float64(health.HealthDistribution[domain.HealthStatusAtRisk]) / n * 100
	health.ChurnPercentage = float64(health.HealthDistribution[domain.HealthStatusChurn]) / n * 100
	health.AverageScore = total / n
	return health
}

// metricRecommendationType maps a compared metric onto the recommendation
// taxonomy
func metricRecommendationType(metric string) domain.RecommendationType {
	switch metric {
	case comparison.MetricRetentionRate:
		return domain.RecRetentionImprovement
	case comparison.MetricAdoptionScore:
		return domain.RecAdoptionPush
	case comparison.MetricDiversityScore, comparison.MetricShieldedShare:
		return domain.RecDiversitySpread
	default:
		return domain.RecActivityBoost
	}
}

func severityPriority(severity domain.GapSeverity) int {
	switch severity {
	case domain.SeverityHigh:
		return 10
	case domain.SeverityMedium:
		return 7
	default:
		return 5
	}
}

func severityEffort(severity domain.GapSeverity) domain.EffortLevel {
	switch severity {
	case domain.SeverityHigh:
		return domain.EffortHigh
	case domain.SeverityMedium:
		return domain.EffortMedium
	default:
		return domain.EffortLow
	}
}

// reinforcementPriority is the fixed priority of keep-doing-this
// recommendations for outperforming metrics
const reinforcementPriority = 3

// GenerateComparisonRecommendations turns a gap analysis into prioritized
// recommendations: one per underperforming metric, priority scaled by
// severity, plus fixed low-priority reinforcements for outperforming metrics.
// The result is sorted by priority, highest first.
func GenerateComparisonRecommendations(gaps comparison.GapAnalysis) []domain.Recommendation {
	var recs []domain.Recommendation

	for _, gap := range gaps.Underperforming {
		recs = append(recs, domain.Recommendation{
			Type:     metricRecommendationType(gap.Metric),
			Title:    fmt.Sprintf("Close the %s gap", gap.Metric),
			Priority: severityPriority(gap.Severity),
			CurrentState: fmt.Sprintf("%s at %.1f, %.1f%% under the market target",
				gap.Metric, gap.CurrentValue, math.Abs(gap.GapPercentage)),
			TargetState:    fmt.Sprintf("reach the market target of %.1f", gap.BenchmarkTarget),
			Timeline:       recommendationTimeline(gap.Severity),
			ExpectedImpact: fmt.Sprintf("closes a %.1f point gap against peers", math.Abs(gap.Gap)),
			CompletionIndicators: map[string]float64{
				gap.Metric: gap.BenchmarkTarget,
			},
			EffortLevel: severityEffort(gap.Severity),
		})
	}

	for _, gap := range gaps.Outperforming {
		recs = append(recs, domain.Recommendation{
			Type:     domain.RecReinforceStrength,
			Title:    fmt.Sprintf("Keep investing in %s", gap.Metric),
			Priority: reinforcementPriority,
			CurrentState: fmt.Sprintf("%s at %.1f, %.1f%% above the market target",
				gap.Metric, gap.CurrentValue, gap.GapPercentage),
			TargetState:    "hold or extend the lead",
			Timeline:       "ongoing",
			ExpectedImpact: "protects an existing advantage",
			CompletionIndicators: map[string]float64{
				gap.Metric: gap.CurrentValue,
			},
			EffortLevel: domain.EffortLow,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority > recs[j].Priority })
	return recs
}

// churnPreventionPriority is the fixed, always-highest priority of churn work
const churnPreventionPriority = 10

// churnAlarmPercentage is the churn share above which a churn prevention
// recommendation is generated
const churnAlarmPercentage = 20.0

// GenerateStrategicRecommendations combines gap-driven recommendations with a
// health-driven churn prevention recommendation when churn is alarming.
// Churn prevention always carries the highest priority.
func GenerateStrategicRecommendations(health ProjectHealth, gaps comparison.GapAnalysis) []domain.Recommendation {
	recs := GenerateComparisonRecommendations(gaps)

	if health.TotalWallets > 0 && health.ChurnPercentage >= churnAlarmPercentage {
		churn := domain.Recommendation{
			Type:     domain.RecChurnPrevention,
			Title:    "Stop active churn",
			Priority: churnPreventionPriority,
			CurrentState: fmt.Sprintf("%.1f%% of wallets have churned, %.1f%% more are at risk",
				health.ChurnPercentage, health.AtRiskPercentage),
			TargetState:    "churn share under 10%",
			Timeline:       "2-4 weeks",
			ExpectedImpact: "recovers the largest avoidable revenue loss",
			CompletionIndicators: map[string]float64{
				"churn_percentage": 10,
			},
			EffortLevel: domain.EffortHigh,
		}
		recs = append([]domain.Recommendation{churn}, recs...)
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority > recs[j].Priority })
	return recs
}

func recommendationTimeline(severity domain.GapSeverity) string {
	switch severity {
	case domain.SeverityHigh:
		return "2-4 weeks"
	case domain.SeverityMedium:
		return "4-6 weeks"
	default:
		return "6-8 weeks"
	}
}

// IdentifyQuickWins picks the low-severity underperforming gaps. Every quick
// win is low effort by definition.
func IdentifyQuickWins(gaps comparison.GapAnalysis) []QuickWin {
	var wins []QuickWin
	for _, gap := range gaps.Underperforming {
		if gap.Severity != domain.SeverityLow {
			continue
		}
		wins = append(wins, QuickWin{
			Metric:        gap.Metric,
			Gap:           gap.Gap,
			GapPercentage: gap.GapPercentage,
			Effort:        domain.EffortLow,
		})
	}
	return wins
}

// CalculateCompetitiveAdvantage scores a project's market standing from its
// overall position and the balance of outperforming vs underperforming
// metrics. Score is clamped to [0, 100].
func CalculateCompetitiveAdvantage(position comparison.OverallPosition, gaps comparison.GapAnalysis) CompetitiveAdvantage {
	var base float64
	switch position.Position {
	case domain.PositionTopPerformer:
		base = 80
	case domain.PositionAverage:
		base = 50
	case domain.PositionBelowAverage:
		base = 20
	default:
		base = 40
	}

	score := base + 5*float64(len(gaps.Outperforming)) - 5*float64(len(gaps.Underperforming))
	score = math.Max(0, math.Min(100, score))

	level := AdvantageModerate
	switch {
	case score >= 70:
		level = AdvantageStrong
	case score < 40:
		level = AdvantageWeak
	}
	return CompetitiveAdvantage{Level: level, Score: score}
}
