package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zlytics/wallet-insights/internal/domain"
)

func TestCheckCompletionIndicators(t *testing.T) {
	baseline := Snapshot{
		Metrics:           map[string]float64{"retention_score": 45, "activity_score": 30},
		TransactionCount:  10,
		LastActiveDaysAgo: 20,
	}
	current := Snapshot{
		Metrics:           map[string]float64{"retention_score": 75, "activity_score": 35},
		TransactionCount:  25,
		LastActiveDaysAgo: 2,
	}

	t.Run("four of five indicators met completes the task", func(t *testing.T) {
		indicators := map[string]float64{
			IndicatorActivityIncrease: 1,   // met: 25 > 10
			IndicatorTxFrequency:      2,   // met: 25 tx is level 2
			IndicatorActivityResumed:  7,   // met: active 2 days ago
			"retention_score":         60,  // met: 75 >= 60
			"activity_score":          50,  // not met: 35 < 50
		}
		check := CheckCompletionIndicators(indicators, baseline, current)
		assert.Equal(t, 4, check.MetCount)
		assert.Equal(t, 5, check.TotalCount)
		assert.InDelta(t, 80, check.CompletionPercentage, 1e-9)
		assert.True(t, check.IsCompleted)
	})

	t.Run("two of five indicators is far from done", func(t *testing.T) {
		indicators := map[string]float64{
			IndicatorActivityIncrease: 1,
			IndicatorTxFrequency:      3, // not met: level 2 < 3
			IndicatorActivityResumed:  1, // not met: 2 days > 1
			"retention_score":         60,
			"activity_score":          50, // not met
		}
		check := CheckCompletionIndicators(indicators, baseline, current)
		assert.Equal(t, 2, check.MetCount)
		assert.InDelta(t, 40, check.CompletionPercentage, 1e-9)
		assert.False(t, check.IsCompleted)
	})

	t.Run("no indicators never completes", func(t *testing.T) {
		check := CheckCompletionIndicators(nil, baseline, current)
		assert.False(t, check.IsCompleted)
		assert.Zero(t, check.CompletionPercentage)
		assert.Zero(t, check.TotalCount)
	})

	t.Run("churn indicator is met when churn falls under the target", func(t *testing.T) {
		before := Snapshot{Metrics: map[string]float64{IndicatorChurnPercentage: 40}}
		after := Snapshot{Metrics: map[string]float64{IndicatorChurnPercentage: 5}}
		check := CheckCompletionIndicators(map[string]float64{
			IndicatorChurnPercentage: 10,
		}, before, after)
		assert.Equal(t, 1, check.MetCount)
	})

	t.Run("churn indicator fails while churn stays high", func(t *testing.T) {
		before := Snapshot{Metrics: map[string]float64{IndicatorChurnPercentage: 40}}
		after := Snapshot{Metrics: map[string]float64{IndicatorChurnPercentage: 50}}
		check := CheckCompletionIndicators(map[string]float64{
			IndicatorChurnPercentage: 10,
		}, before, after)
		assert.Zero(t, check.MetCount)
	})

	t.Run("churn indicator fails without a churn sample", func(t *testing.T) {
		check := CheckCompletionIndicators(map[string]float64{
			IndicatorChurnPercentage: 10,
		}, baseline, current)
		assert.Zero(t, check.MetCount)
	})

	t.Run("never-active wallet fails the resumed indicator", func(t *testing.T) {
		inactive := current
		inactive.LastActiveDaysAgo = -1
		check := CheckCompletionIndicators(map[string]float64{
			IndicatorActivityResumed: 30,
		}, baseline, inactive)
		assert.Zero(t, check.MetCount)
	})
}

func TestFrequencyLevel(t *testing.T) {
	assert.Equal(t, 0, FrequencyLevel(0))
	assert.Equal(t, 1, FrequencyLevel(5))
	assert.Equal(t, 2, FrequencyLevel(25))
	assert.Equal(t, 3, FrequencyLevel(100))
}

func TestCalculateEffectiveness(t *testing.T) {
	t.Run("thirty point retention lift is high", func(t *testing.T) {
		baseline := Snapshot{Metrics: map[string]float64{"retention_score": 45}}
		current := Snapshot{Metrics: map[string]float64{"retention_score": 75}}

		eff := CalculateEffectiveness(baseline, current, "retention")
		assert.InDelta(t, 30, eff.Score, 1e-9)
		assert.Equal(t, domain.EffectivenessHigh, eff.Level)
	})

	t.Run("regression floors at zero", func(t *testing.T) {
		baseline := Snapshot{Metrics: map[string]float64{"retention_score": 75}}
		current := Snapshot{Metrics: map[string]float64{"retention_score": 45}}

		eff := CalculateEffectiveness(baseline, current, "retention")
		assert.Zero(t, eff.Score)
		assert.Equal(t, domain.EffectivenessLow, eff.Level)
	})

	t.Run("level bands", func(t *testing.T) {
		grade := func(delta float64) domain.EffectivenessLevel {
			baseline := Snapshot{Metrics: map[string]float64{"activity_score": 40}}
			current := Snapshot{Metrics: map[string]float64{"activity_score": 40 + delta}}
			return CalculateEffectiveness(baseline, current, "activity").Level
		}
		assert.Equal(t, domain.EffectivenessLow, grade(9.9))
		assert.Equal(t, domain.EffectivenessMedium, grade(10))
		assert.Equal(t, domain.EffectivenessMedium, grade(19.9))
		assert.Equal(t, domain.EffectivenessHigh, grade(20))
	})

	t.Run("recommendation types map to their metric", func(t *testing.T) {
		baseline := Snapshot{Metrics: map[string]float64{"adoption_score": 40, "total_score": 50}}
		current := Snapshot{Metrics: map[string]float64{"adoption_score": 65, "total_score": 55}}

		eff := CalculateEffectiveness(baseline, current, string(domain.RecAdoptionPush))
		assert.InDelta(t, 25, eff.Score, 1e-9)

		eff = CalculateEffectiveness(baseline, current, string(domain.RecChurnPrevention))
		assert.InDelta(t, 5, eff.Score, 1e-9)
	})
}
