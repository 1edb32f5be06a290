package dashboard

import (
	"math"
	"time"

	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// scoreWindowDays is the sample history a score is computed over
const scoreWindowDays = 30

// Component weights. They sum to 1.
const (
	retentionWeight = 0.30
	adoptionWeight  = 0.25
	activityWeight  = 0.25
	diversityWeight = 0.20
)

// Status cut points over the total score
const (
	healthyMin = 70.0
	atRiskMin  = 40.0
)

// ComputeScore derives a wallet's productivity score from its recent daily
// samples. Components:
//   - retention: share of window days the wallet was active
//   - adoption: shielded share of its transactions
//   - activity: average daily transaction count, saturating at 5/day
//   - diversity: balance between shielded and transparent usage
func ComputeScore(walletID string, samples []*schema.MetricSample, computedAt time.Time) *schema.ProductivityScore {
	var activeDays, txCount, shielded, transparent int
	for _, s := range samples {
		if s.Active {
			activeDays++
		}
		txCount += s.TransactionCount
		shielded += s.ShieldedCount
		transparent += s.TransparentCount
	}

	retention := float64(activeDays) / scoreWindowDays * 100
	if retention > 100 {
		retention = 100
	}

	var adoption, diversity float64
	if txCount > 0 {
		adoption = float64(shielded) / float64(txCount) * 100
		diversity = 100 - math.Abs(float64(shielded)-float64(transparent))/float64(txCount)*100
	}

	activity := float64(txCount) / scoreWindowDays * 20
	if activity > 100 {
		activity = 100
	}

	total := retention*retentionWeight + adoption*adoptionWeight + activity*activityWeight + diversity*diversityWeight

	status := domain.HealthStatusChurn
	risk := domain.RiskLevelHigh
	switch {
	case total >= healthyMin:
		status = domain.HealthStatusHealthy
		risk = domain.RiskLevelLow
	case total >= atRiskMin:
		status = domain.HealthStatusAtRisk
		risk = domain.RiskLevelMedium
	}

	return &schema.ProductivityScore{
		WalletID:       walletID,
		TotalScore:     total,
		RetentionScore: retention,
		AdoptionScore:  adoption,
		ActivityScore:  activity,
		DiversityScore: diversity,
		Status:         status,
		RiskLevel:      risk,
		ComputedAt:     computedAt,
	}
}
