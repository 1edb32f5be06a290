package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// AlertLog represents the alert_log table - an append-only history of
// threshold alerts. Alerts themselves are ephemeral and recomputed on demand;
// this log exists only for auditing.
type AlertLog struct {
	// ID is a ULID, time-sortable
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ProjectID scopes the alert
	ProjectID string `gorm:"column:project_id;not null;type:text;index:idx_alert_log_project_created,priority:1"`
	// Type identifies the triggering condition
	Type domain.AlertType `gorm:"column:type;not null;type:text"`
	// Severity is info, warning, or critical
	Severity domain.AlertSeverity `gorm:"column:severity;not null;type:text"`
	// Message is the human-readable summary
	Message string `gorm:"column:message;not null;type:text"`
	// Data is the structured metric payload (JSON)
	Data      datatypes.JSON `gorm:"column:data;type:jsonb"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz;index:idx_alert_log_project_created,priority:2,sort:desc"`
}

// TableName specifies the table name for the AlertLog model
func (AlertLog) TableName() string {
	return "alert_log"
}
