package task

import (
	"math"
	"strings"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// Indicator keys understood by the completion check. Score-style indicators
// use the metric name directly (e.g. "retention_score": 60).
const (
	// IndicatorActivityIncrease is met when current transaction count exceeds
	// the baseline. The indicator value is ignored.
	IndicatorActivityIncrease = "activity_increase"
	// IndicatorTxFrequency is met when the wallet's transaction frequency
	// level reaches the indicator value (0 inactive, 1 low, 2 medium, 3 high)
	IndicatorTxFrequency = "tx_frequency_level"
	// IndicatorActivityResumed is met when the wallet was active within the
	// indicator value in days
	IndicatorActivityResumed = "activity_resumed_within_days"
	// IndicatorChurnPercentage is met when the project churn share has been
	// reduced to the indicator value or below
	IndicatorChurnPercentage = "churn_percentage"
)

// completionThreshold is the share of indicators that must be met for a task
// to count as completed
const completionThreshold = 0.8

// Snapshot captures the wallet metrics a task is judged against
type Snapshot struct {
	// Metrics holds score and counter values by name
	Metrics map[string]float64 `json:"metrics"`
	// TransactionCount is the recent-window transaction total
	TransactionCount int `json:"transaction_count"`
	// LastActiveDaysAgo is days since the last active day; negative means
	// never active
	LastActiveDaysAgo int `json:"last_active_days_ago"`
}

// CompletionCheck is the result of evaluating a task's indicators
type CompletionCheck struct {
	IsCompleted          bool    `json:"is_completed"`
	MetCount             int     `json:"met_count"`
	TotalCount           int     `json:"total_count"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// FrequencyLevel buckets a recent-window transaction count into 0-3
func FrequencyLevel(transactionCount int) int {
	switch {
	case transactionCount == 0:
		return 0
	case transactionCount < 10:
		return 1
	case transactionCount < 50:
		return 2
	default:
		return 3
	}
}

// CheckCompletionIndicators evaluates each indicator against the baseline and
// current snapshots. A task completes when at least 80% of its indicators are
// met; a task with no indicators never completes.
func CheckCompletionIndicators(indicators map[string]float64, baseline, current Snapshot) CompletionCheck {
	check := CompletionCheck{TotalCount: len(indicators)}
	if len(indicators) == 0 {
		return check
	}

	for key, value := range indicators {
		if indicatorMet(key, value, baseline, current) {
			check.MetCount++
		}
	}

	check.CompletionPercentage = float64(check.MetCount) / float64(check.TotalCount) * 100
	check.IsCompleted = float64(check.MetCount)/float64(check.TotalCount) >= completionThreshold
	return check
}

func indicatorMet(key string, value float64, baseline, current Snapshot) bool {
	switch key {
	case IndicatorActivityIncrease:
		return current.TransactionCount > baseline.TransactionCount
	case IndicatorTxFrequency:
		return FrequencyLevel(current.TransactionCount) >= int(value)
	case IndicatorActivityResumed:
		return current.LastActiveDaysAgo >= 0 && float64(current.LastActiveDaysAgo) <= value
	case IndicatorChurnPercentage:
		// reduce-below target; a missing sample never counts as met
		v, ok := current.Metrics[key]
		return ok && v <= value
	default:
		// numeric threshold against a named metric
		return current.Metrics[key] >= value
	}
}

// effectivenessMetric resolves which metric a task type is judged by
func effectivenessMetric(taskType string) string {
	switch strings.ToLower(taskType) {
	case "retention", string(domain.RecRetentionImprovement):
		return "retention_score"
	case "adoption", string(domain.RecAdoptionPush):
		return "adoption_score"
	case "activity", string(domain.RecActivityBoost):
		return "activity_score"
	case "diversity", string(domain.RecDiversitySpread):
		return "diversity_score"
	default:
		return "total_score"
	}
}

// Effectiveness grades how much a completed task moved its metric
type Effectiveness struct {
	Score float64                   `json:"score"`
	Level domain.EffectivenessLevel `json:"level"`
}

// CalculateEffectiveness scores the improvement of the task's metric from
// baseline to current. Regressions earn zero rather than a penalty.
func CalculateEffectiveness(baseline, current Snapshot, taskType string) Effectiveness {
	metric := effectivenessMetric(taskType)
	score := math.Max(0, current.Metrics[metric]-baseline.Metrics[metric])

	level := domain.EffectivenessLow
	switch {
	case score >= 20:
		level = domain.EffectivenessHigh
	case score >= 10:
		level = domain.EffectivenessMedium
	}
	return Effectiveness{Score: score, Level: level}
}
