package schema

import (
	"time"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// ProductivityScore represents the productivity_scores table. Scores are
// recomputed periodically from metric sample history; each recomputation
// inserts a new row and the latest computed_at per wallet is authoritative.
type ProductivityScore struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// WalletID references the scored wallet
	WalletID string `gorm:"column:wallet_id;not null;type:text;index:idx_scores_wallet_computed,priority:1"`
	// TotalScore is the 0-100 composite health score
	TotalScore float64 `gorm:"column:total_score;not null"`
	// Component scores, each 0-100
	RetentionScore float64 `gorm:"column:retention_score;not null"`
	AdoptionScore  float64 `gorm:"column:adoption_score;not null"`
	ActivityScore  float64 `gorm:"column:activity_score;not null"`
	DiversityScore float64 `gorm:"column:diversity_score;not null"`
	// Status classifies overall health: healthy, at_risk, churn
	Status domain.HealthStatus `gorm:"column:status;not null;type:text"`
	// RiskLevel classifies churn risk: low, medium, high
	RiskLevel domain.RiskLevel `gorm:"column:risk_level;not null;type:text"`
	// ComputedAt orders recomputations; the newest row wins
	ComputedAt time.Time `gorm:"column:computed_at;not null;default:now();type:timestamptz;index:idx_scores_wallet_computed,priority:2,sort:desc"`
}

// TableName specifies the table name for the ProductivityScore model
func (ProductivityScore) TableName() string {
	return "productivity_scores"
}

// Domain converts the row to its domain representation
func (s *ProductivityScore) Domain() domain.ProductivityScore {
	return domain.ProductivityScore{
		WalletID:       s.WalletID,
		TotalScore:     s.TotalScore,
		RetentionScore: s.RetentionScore,
		AdoptionScore:  s.AdoptionScore,
		ActivityScore:  s.ActivityScore,
		DiversityScore: s.DiversityScore,
		Status:         s.Status,
		RiskLevel:      s.RiskLevel,
		ComputedAt:     s.ComputedAt,
	}
}
