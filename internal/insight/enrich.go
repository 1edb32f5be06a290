package insight

import (
	"math"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// EnrichmentContext carries the situational inputs that shape enrichment but
// never decide whether the underlying alert fires
type EnrichmentContext struct {
	// WorseningTrend escalates urgency by one level
	WorseningTrend bool `json:"worsening_trend"`
	// AffectedPercentage is the share of wallets the alert touches
	AffectedPercentage float64 `json:"affected_percentage"`
}

// criticalTypes are alert types that combined with critical severity demand an
// immediate response
var criticalTypes = map[domain.AlertType]bool{
	domain.AlertRetentionCritical: true,
	domain.AlertChurnCritical:     true,
	domain.AlertFunnelConversion:  true,
}

// impactTable maps alert types onto their dominant impact dimensions
var impactTable = map[domain.AlertType]domain.EstimatedImpact{
	domain.AlertRetentionCritical: {User: domain.ImpactHigh, Revenue: domain.ImpactHigh, Growth: domain.ImpactHigh, Overall: domain.ImpactHigh},
	domain.AlertRetentionWarning:  {User: domain.ImpactMedium, Revenue: domain.ImpactMedium, Growth: domain.ImpactMedium, Overall: domain.ImpactMedium},
	domain.AlertRetentionDrop:     {User: domain.ImpactHigh, Revenue: domain.ImpactMedium, Growth: domain.ImpactMedium, Overall: domain.ImpactMedium},
	domain.AlertChurnCritical:     {User: domain.ImpactHigh, Revenue: domain.ImpactHigh, Growth: domain.ImpactMedium, Overall: domain.ImpactHigh},
	domain.AlertChurnHighRisk:     {User: domain.ImpactMedium, Revenue: domain.ImpactMedium, Growth: domain.ImpactMedium, Overall: domain.ImpactMedium},
	domain.AlertFunnelStageDrop:   {User: domain.ImpactMedium, Revenue: domain.ImpactMedium, Growth: domain.ImpactHigh, Overall: domain.ImpactMedium},
	domain.AlertFunnelConversion:  {User: domain.ImpactMedium, Revenue: domain.ImpactHigh, Growth: domain.ImpactHigh, Overall: domain.ImpactHigh},
	domain.AlertShieldedSpike:     {User: domain.ImpactLow, Revenue: domain.ImpactLow, Growth: domain.ImpactLow, Overall: domain.ImpactLow},
	domain.AlertShieldedDrop:      {User: domain.ImpactLow, Revenue: domain.ImpactLow, Growth: domain.ImpactMedium, Overall: domain.ImpactLow},
	domain.AlertVolumeSwing:       {User: domain.ImpactLow, Revenue: domain.ImpactMedium, Growth: domain.ImpactLow, Overall: domain.ImpactLow},
}

var suggestionTable = map[domain.AlertType][]string{
	domain.AlertRetentionCritical: {
		"Reach out to recently inactive wallets with a reactivation incentive",
		"Audit the last product or fee change for regression",
	},
	domain.AlertRetentionWarning: {
		"Watch the next period closely before escalating",
		"Compare against category benchmarks before reacting",
	},
	domain.AlertRetentionDrop: {
		"Segment the drop by wallet cohort to find the source",
		"Compare against category benchmarks before reacting",
	},
	domain.AlertChurnCritical: {
		"Prioritize win-back outreach for the highest-value churned wallets",
		"Freeze changes that raise friction until churn stabilizes",
	},
	domain.AlertChurnHighRisk: {
		"Engage at-risk wallets before they lapse",
	},
	domain.AlertFunnelStageDrop: {
		"Instrument the failing stage to find where wallets stall",
	},
	domain.AlertFunnelConversion: {
		"Shorten the path from first activity to habitual use",
	},
	domain.AlertShieldedSpike: {
		"Verify the spike is organic and not a single large actor",
	},
	domain.AlertShieldedDrop: {
		"Check whether shielded transaction fees or UX changed",
	},
	domain.AlertVolumeSwing: {
		"Correlate the swing with market-wide ZEC movement",
	},
}

// GenerateAlertContent builds deterministic response guidance for an alert.
// Urgency derives from severity and type; a worsening trend escalates it one
// level but never changes the alert itself.
func GenerateAlertContent(alert domain.Alert, ectx EnrichmentContext) domain.EnrichedAlert {
	urgency := computeUrgency(alert, ectx)

	impact, ok := impactTable[alert.Type]
	if !ok {
		impact = domain.EstimatedImpact{User: domain.ImpactLow, Revenue: domain.ImpactLow, Growth: domain.ImpactLow, Overall: domain.ImpactLow}
	}

	return domain.EnrichedAlert{
		Alert:           alert,
		Urgency:         urgency,
		PriorityScore:   urgency.Score,
		EstimatedImpact: impact,
		Timeline:        buildTimeline(alert.Severity),
		ActionItems:     buildActionItems(alert),
		AISuggestions:   suggestionTable[alert.Type],
	}
}

func computeUrgency(alert domain.Alert, ectx EnrichmentContext) domain.Urgency {
	var level domain.UrgencyLevel
	switch alert.Severity {
	case domain.AlertSeverityCritical:
		level = domain.UrgencyHigh
		if criticalTypes[alert.Type] {
			level = domain.UrgencyCritical
		}
	case domain.AlertSeverityWarning:
		level = domain.UrgencyMedium
	default:
		level = domain.UrgencyLow
	}
	if ectx.WorseningTrend {
		level = escalate(level)
	}

	score := urgencyBase(alert.Severity) + ectx.AffectedPercentage*0.2
	if ectx.WorseningTrend {
		score += 10
	}
	score = math.Min(100, score)

	return domain.Urgency{
		Level:        level,
		Score:        int(math.Round(score)),
		ResponseTime: responseTime(level),
	}
}

func urgencyBase(severity domain.AlertSeverity) float64 {
	switch severity {
	case domain.AlertSeverityCritical:
		return 70
	case domain.AlertSeverityWarning:
		return 40
	default:
		return 10
	}
}

func escalate(level domain.UrgencyLevel) domain.UrgencyLevel {
	switch level {
	case domain.UrgencyLow:
		return domain.UrgencyMedium
	case domain.UrgencyMedium:
		return domain.UrgencyHigh
	default:
		return domain.UrgencyCritical
	}
}

func responseTime(level domain.UrgencyLevel) string {
	switch level {
	case domain.UrgencyCritical:
		return "immediate"
	case domain.UrgencyHigh:
		return "within 24 hours"
	case domain.UrgencyMedium:
		return "within 3 days"
	default:
		return "within a week"
	}
}

func buildTimeline(severity domain.AlertSeverity) domain.Timeline {
	if severity == domain.AlertSeverityCritical {
		return domain.Timeline{
			Investigation:  "24-48 hours",
			Planning:       "2-3 days",
			Implementation: "1 week",
			Validation:     "3-5 days",
			Total:          "2-3 weeks",
		}
	}
	return domain.Timeline{
		Investigation:  "3-5 days",
		Planning:       "1 week",
		Implementation: "2 weeks",
		Validation:     "1 week",
		Total:          "4-5 weeks",
	}
}

func buildActionItems(alert domain.Alert) []domain.ActionItem {
	var items []domain.ActionItem
	if alert.Severity == domain.AlertSeverityCritical {
		items = append(items, domain.ActionItem{
			Priority:    "P0",
			Description: "Open an incident and assign an owner now",
		})
	}
	items = append(items,
		domain.ActionItem{Priority: "P1", Description: "Identify the wallet cohorts driving the change"},
		domain.ActionItem{Priority: "P2", Description: "Schedule a follow-up scan to confirm the trend"},
	)
	return items
}
