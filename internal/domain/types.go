package domain

import "time"

// PrivacyMode is the per-wallet visibility tier. The default for new wallets is
// PrivacyModePrivate; transitions between modes are absolute (no ordering).
type PrivacyMode string

const (
	PrivacyModePrivate     PrivacyMode = "private"
	PrivacyModePublic      PrivacyMode = "public"
	PrivacyModeMonetizable PrivacyMode = "monetizable"
)

// IsValidPrivacyMode checks if a privacy mode is valid
func IsValidPrivacyMode(mode PrivacyMode) bool {
	return mode == PrivacyModePrivate ||
		mode == PrivacyModePublic ||
		mode == PrivacyModeMonetizable
}

// DataLevel describes how much wallet data an access decision grants
type DataLevel string

const (
	DataLevelNone       DataLevel = "none"
	DataLevelAggregated DataLevel = "aggregated"
	DataLevelFull       DataLevel = "full"
)

// AccessDecision is the result of evaluating a data-access request against a
// wallet's privacy mode and the requester's payment status
type AccessDecision struct {
	Allowed         bool      `json:"allowed"`
	Reason          string    `json:"reason"`
	DataLevel       DataLevel `json:"data_level"`
	RequiresPayment bool      `json:"requires_payment"`
}

// HealthStatus classifies a wallet's overall health
type HealthStatus string

const (
	HealthStatusHealthy HealthStatus = "healthy"
	HealthStatusAtRisk  HealthStatus = "at_risk"
	HealthStatusChurn   HealthStatus = "churn"
)

// RiskLevel classifies a wallet's churn risk
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Percentiles holds the four benchmark percentile values
type Percentiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// Benchmark is a dated percentile snapshot for a (type, category) peer sample
type Benchmark struct {
	BenchmarkType string      `json:"benchmark_type"`
	Category      string      `json:"category"`
	Percentiles   Percentiles `json:"percentiles"`
	SampleSize    int         `json:"sample_size"`
	AsOfDate      time.Time   `json:"as_of_date"`
}

// PercentileRange positions a value relative to a benchmark's percentiles
type PercentileRange string

const (
	RangeBelow25 PercentileRange = "below_25"
	Range25To50  PercentileRange = "25_50"
	Range50To75  PercentileRange = "50_75"
	Range75To90  PercentileRange = "75_90"
	RangeAbove90 PercentileRange = "above_90"
	RangeUnknown PercentileRange = "unknown"
)

// ComparisonStatus describes a metric's standing against its benchmark target
type ComparisonStatus string

const (
	StatusAboveTarget ComparisonStatus = "above_target"
	StatusBelowTarget ComparisonStatus = "below_target"
	StatusExact       ComparisonStatus = "exact"
	StatusNoBenchmark ComparisonStatus = "no_benchmark"
)

// GapSeverity grades how far a metric is from its benchmark target
type GapSeverity string

const (
	SeverityLow    GapSeverity = "low"
	SeverityMedium GapSeverity = "medium"
	SeverityHigh   GapSeverity = "high"
)

// ComparisonResult compares one project metric against the market benchmark.
// When Status is StatusNoBenchmark the gap fields are meaningless and callers
// must not use them.
type ComparisonResult struct {
	Metric          string           `json:"metric"`
	CurrentValue    float64          `json:"current_value"`
	BenchmarkTarget float64          `json:"benchmark_target"`
	Gap             float64          `json:"gap"`
	GapPercentage   float64          `json:"gap_percentage"`
	Status          ComparisonStatus `json:"status"`
	PercentileRange PercentileRange  `json:"percentile_range"`
}

// MarketPosition classifies a project's overall standing across metrics
type MarketPosition string

const (
	PositionTopPerformer MarketPosition = "top_performer"
	PositionAverage      MarketPosition = "average"
	PositionBelowAverage MarketPosition = "below_average"
	PositionUnknown      MarketPosition = "unknown"
)

// AlertSeverity grades threshold alerts
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// AlertType identifies the condition that raised an alert
type AlertType string

const (
	AlertRetentionDrop     AlertType = "retention_drop"
	AlertRetentionWarning  AlertType = "retention_warning"
	AlertRetentionCritical AlertType = "retention_critical"
	AlertChurnCritical     AlertType = "churn_critical"
	AlertChurnHighRisk     AlertType = "churn_high_risk"
	AlertFunnelStageDrop   AlertType = "funnel_stage_drop"
	AlertFunnelConversion  AlertType = "funnel_conversion"
	AlertShieldedSpike     AlertType = "shielded_spike"
	AlertShieldedDrop      AlertType = "shielded_drop"
	AlertVolumeSwing       AlertType = "volume_swing"
)

// Alert is a threshold finding. Alerts are ephemeral: they are generated from
// current metrics on demand and only appended to the alert log for history.
type Alert struct {
	ID        string             `json:"id"`
	Type      AlertType          `json:"type"`
	Severity  AlertSeverity      `json:"severity"`
	Message   string             `json:"message"`
	Data      map[string]float64 `json:"data,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// UrgencyLevel grades how fast an alert needs a response
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Urgency describes the required response speed for an enriched alert
type Urgency struct {
	Level        UrgencyLevel `json:"level"`
	Score        int          `json:"score"`
	ResponseTime string       `json:"response_time"`
}

// ImpactLevel grades an estimated impact dimension
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// EstimatedImpact breaks an alert's projected impact down by dimension
type EstimatedImpact struct {
	User    ImpactLevel `json:"user"`
	Revenue ImpactLevel `json:"revenue"`
	Growth  ImpactLevel `json:"growth"`
	Overall ImpactLevel `json:"overall"`
}

// Timeline estimates the phases of responding to an alert
type Timeline struct {
	Investigation  string `json:"investigation"`
	Planning       string `json:"planning"`
	Implementation string `json:"implementation"`
	Validation     string `json:"validation"`
	Total          string `json:"total"`
}

// ActionItem is a single recommended response step for an alert
type ActionItem struct {
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

// EnrichedAlert augments a raw alert with generated response guidance
type EnrichedAlert struct {
	Alert           Alert           `json:"alert"`
	Urgency         Urgency         `json:"urgency"`
	PriorityScore   int             `json:"priority_score"`
	EstimatedImpact EstimatedImpact `json:"estimated_impact"`
	Timeline        Timeline        `json:"timeline"`
	ActionItems     []ActionItem    `json:"action_items"`
	AISuggestions   []string        `json:"ai_suggestions"`
}

// RecommendationType is the fixed taxonomy of strategic recommendations
type RecommendationType string

const (
	RecChurnPrevention      RecommendationType = "churn_prevention"
	RecRetentionImprovement RecommendationType = "retention_improvement"
	RecAdoptionPush         RecommendationType = "adoption_push"
	RecActivityBoost        RecommendationType = "activity_boost"
	RecDiversitySpread      RecommendationType = "diversity_spread"
	RecReinforceStrength    RecommendationType = "reinforce_strength"
)

// EffortLevel grades the work a recommendation needs
type EffortLevel string

const (
	EffortLow    EffortLevel = "Low"
	EffortMedium EffortLevel = "Medium"
	EffortHigh   EffortLevel = "High"
)

// Recommendation is a prioritized, actionable suggestion derived from gaps and
// alerts. Churn prevention always carries the highest priority (10).
type Recommendation struct {
	ID                   string             `json:"id"`
	Type                 RecommendationType `json:"type"`
	Title                string             `json:"title"`
	Priority             int                `json:"priority"`
	CurrentState         string             `json:"current_state"`
	TargetState          string             `json:"target_state"`
	Timeline             string             `json:"timeline"`
	ExpectedImpact       string             `json:"expected_impact"`
	CompletionIndicators map[string]float64 `json:"completion_indicators"`
	EffortLevel          EffortLevel        `json:"effort_level"`
	TaskID               string             `json:"task_id,omitempty"`
}

// TaskStatus tracks whether a recommendation task is done
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// EffectivenessLevel grades how well an acted-on recommendation worked
type EffectivenessLevel string

const (
	EffectivenessLow    EffectivenessLevel = "Low"
	EffectivenessMedium EffectivenessLevel = "Medium"
	EffectivenessHigh   EffectivenessLevel = "High"
)

// PaymentStatus tracks a data-access payment through the gateway
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// EarningStatus tracks whether an earning has been withdrawn
type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusWithdrawn EarningStatus = "withdrawn"
)

// WithdrawalStatus tracks a withdrawal through the gateway payout
type WithdrawalStatus string

const (
	// WithdrawalStatusPayoutPending means the earnings are consumed but the
	// gateway has not confirmed the payout. Reconciliation replays these.
	WithdrawalStatusPayoutPending WithdrawalStatus = "payout_pending"
	WithdrawalStatusSent          WithdrawalStatus = "sent"
)

// ProductivityScore is the composite 0-100 health score for a wallet
type ProductivityScore struct {
	WalletID       string       `json:"wallet_id"`
	TotalScore     float64      `json:"total_score"`
	RetentionScore float64      `json:"retention_score"`
	AdoptionScore  float64      `json:"adoption_score"`
	ActivityScore  float64      `json:"activity_score"`
	DiversityScore float64      `json:"diversity_score"`
	Status         HealthStatus `json:"status"`
	RiskLevel      RiskLevel    `json:"risk_level"`
	ComputedAt     time.Time    `json:"computed_at"`
}

// BlockProcessedEvent is the indexer's notification that a block touched a set
// of watched wallets. Consumed from NATS by the resync bridge.
type BlockProcessedEvent struct {
	Height    uint64    `json:"height"`
	BlockHash string    `json:"block_hash"`
	WalletIDs []string  `json:"wallet_ids"`
	EmittedAt time.Time `json:"emitted_at"`
}
