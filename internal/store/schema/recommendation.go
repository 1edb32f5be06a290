package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// Recommendation represents the recommendations table
type Recommendation struct {
	// ID is the recommendation identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ProjectID scopes the recommendation
	ProjectID string `gorm:"column:project_id;not null;type:text;index"`
	// Type is one of the fixed recommendation taxonomy values
	Type domain.RecommendationType `gorm:"column:type;not null;type:text"`
	// Title is the short display title
	Title string `gorm:"column:title;not null;type:text"`
	// Priority is 0-10; churn prevention is always 10
	Priority       int    `gorm:"column:priority;not null"`
	CurrentState   string `gorm:"column:current_state;type:text"`
	TargetState    string `gorm:"column:target_state;type:text"`
	Timeline       string `gorm:"column:timeline;type:text"`
	ExpectedImpact string `gorm:"column:expected_impact;type:text"`
	// CompletionIndicators maps indicator name to threshold (JSON)
	CompletionIndicators datatypes.JSON `gorm:"column:completion_indicators;type:jsonb"`
	// EffortLevel is Low, Medium, or High
	EffortLevel domain.EffortLevel `gorm:"column:effort_level;not null;type:text"`
	CreatedAt   time.Time          `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Recommendation model
func (Recommendation) TableName() string {
	return "recommendations"
}

// Task represents the recommendation_tasks table - tracks whether an acted-on
// recommendation moved the wallet's metrics.
type Task struct {
	// ID is the task identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// RecommendationID references the source recommendation
	RecommendationID string `gorm:"column:recommendation_id;not null;uniqueIndex;type:text"`
	// WalletID is the wallet the task targets
	WalletID string `gorm:"column:wallet_id;not null;type:text;index"`
	// Baseline is the metric snapshot captured at task creation (JSON)
	Baseline datatypes.JSON `gorm:"column:baseline;type:jsonb"`
	// Status is pending or completed
	Status domain.TaskStatus `gorm:"column:status;not null;default:pending;type:text"`
	// CompletionPercentage is the share of indicators met at last check
	CompletionPercentage float64 `gorm:"column:completion_percentage;not null;default:0"`
	// EffectivenessScore and EffectivenessLevel are set when the task closes
	EffectivenessScore float64                   `gorm:"column:effectiveness_score;not null;default:0"`
	EffectivenessLevel domain.EffectivenessLevel `gorm:"column:effectiveness_level;type:text"`
	CreatedAt          time.Time                 `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	CompletedAt        *time.Time                `gorm:"column:completed_at;type:timestamptz"`
}

// TableName specifies the table name for the Task model
func (Task) TableName() string {
	return "recommendation_tasks"
}
