package alerting

import (
	"fmt"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// FunnelStage is one step of the adoption funnel with its conversion from the
// previous stage
type FunnelStage struct {
	Name              string  `json:"name"`
	Count             int     `json:"count"`
	ConversionPercent float64 `json:"conversion_percent"`
}

// Metrics is the stateless input to one alert scan: current values plus the
// prior-period values needed for delta rules
type Metrics struct {
	RetentionRate      float64       `json:"retention_rate"`
	PriorRetentionRate float64       `json:"prior_retention_rate"`
	ChurnRate          float64       `json:"churn_rate"`
	HighRiskPercent    float64       `json:"high_risk_percent"`
	FunnelStages       []FunnelStage `json:"funnel_stages"`
	ShieldedCount      float64       `json:"shielded_count"`
	RollingAvgShielded float64       `json:"rolling_avg_shielded"`
	VolumeZEC          float64       `json:"volume_zec"`
	PriorVolumeZEC     float64       `json:"prior_volume_zec"`
}

// Scan evaluates metrics against thresholds and returns every alert that
// fires. Detection is pure: the same metrics and thresholds always produce
// the same alerts.
func Scan(m Metrics, th Thresholds, now time.Time) []domain.Alert {
	var alerts []domain.Alert
	add := func(alertType domain.AlertType, severity domain.AlertSeverity, message string, data map[string]float64) {
		alerts = append(alerts, domain.Alert{
			ID:        ulid.Make().String(),
			Type:      alertType,
			Severity:  severity,
			Message:   message,
			Data:      data,
			CreatedAt: now,
		})
	}

	// Retention
	if m.RetentionRate < th.Retention.CriticalLevel {
		add(domain.AlertRetentionCritical, domain.AlertSeverityCritical,
			fmt.Sprintf("retention at %.1f%%, below critical level %.1f%%", m.RetentionRate, th.Retention.CriticalLevel),
			map[string]float64{"retention_rate": m.RetentionRate, "critical_level": th.Retention.CriticalLevel})
	} else if m.RetentionRate < th.Retention.WarningLevel {
		add(domain.AlertRetentionWarning, domain.AlertSeverityWarning,
			fmt.Sprintf("retention at %.1f%%, below warning level %.1f%%", m.RetentionRate, th.Retention.WarningLevel),
			map[string]float64{"retention_rate": m.RetentionRate, "warning_level": th.Retention.WarningLevel})
	} else if m.PriorRetentionRate > 0 {
		dropPct := (m.PriorRetentionRate - m.RetentionRate) / m.PriorRetentionRate * 100
		if dropPct >= th.Retention.DropPercent {
			add(domain.AlertRetentionDrop, domain.AlertSeverityWarning,
				fmt.Sprintf("retention dropped %.1f%% from the prior period", dropPct),
				map[string]float64{"drop_percent": dropPct, "retention_rate": m.RetentionRate, "prior_retention_rate": m.PriorRetentionRate})
		}
	}

	// Churn
	if m.ChurnRate >= th.Churn.CriticalRate {
		add(domain.AlertChurnCritical, domain.AlertSeverityCritical,
			fmt.Sprintf("churn rate at %.1f%%, above critical rate %.1f%%", m.ChurnRate, th.Churn.CriticalRate),
			map[string]float64{"churn_rate": m.ChurnRate, "critical_rate": th.Churn.CriticalRate})
	}
	if m.HighRiskPercent >= th.Churn.HighRiskPercent {
		add(domain.AlertChurnHighRisk, domain.AlertSeverityWarning,
			fmt.Sprintf("%.1f%% of wallets are high churn risk", m.HighRiskPercent),
			map[string]float64{"high_risk_percent": m.HighRiskPercent})
	}

	// Funnel
	for _, stage := range m.FunnelStages {
		drop := 100 - stage.ConversionPercent
		if drop >= th.Funnel.StageDropCritical {
			add(domain.AlertFunnelStageDrop, domain.AlertSeverityCritical,
				fmt.Sprintf("funnel stage %q loses %.1f%% of wallets", stage.Name, drop),
				map[string]float64{"drop_percent": drop, "conversion_percent": stage.ConversionPercent})
		} else if drop >= th.Funnel.StageDropWarn {
			add(domain.AlertFunnelStageDrop, domain.AlertSeverityWarning,
				fmt.Sprintf("funnel stage %q loses %.1f%% of wallets", stage.Name, drop),
				map[string]float64{"drop_percent": drop, "conversion_percent": stage.ConversionPercent})
		}
	}
	if n := len(m.FunnelStages); n > 0 {
		overall := overallConversion(m.FunnelStages)
		if overall < th.Funnel.CriticalConversion {
			add(domain.AlertFunnelConversion, domain.AlertSeverityCritical,
				fmt.Sprintf("end-to-end funnel conversion at %.1f%%", overall),
				map[string]float64{"conversion_percent": overall})
		}
	}

	// Shielded activity
	if m.RollingAvgShielded > 0 {
		if m.ShieldedCount >= m.RollingAvgShielded*th.Shielded.SpikeMultiplier {
			add(domain.AlertShieldedSpike, domain.AlertSeverityInfo,
				fmt.Sprintf("shielded transactions at %.0f, %.1fx the rolling average", m.ShieldedCount, m.ShieldedCount/m.RollingAvgShielded),
				map[string]float64{"shielded_count": m.ShieldedCount, "rolling_avg": m.RollingAvgShielded})
		} else if m.ShieldedCount <= m.RollingAvgShielded*th.Shielded.DropMultiplier {
			add(domain.AlertShieldedDrop, domain.AlertSeverityWarning,
				fmt.Sprintf("shielded transactions at %.0f, down from a rolling average of %.0f", m.ShieldedCount, m.RollingAvgShielded),
				map[string]float64{"shielded_count": m.ShieldedCount, "rolling_avg": m.RollingAvgShielded})
		}
	}
	if swing := math.Abs(m.VolumeZEC - m.PriorVolumeZEC); swing >= th.Shielded.VolumeThreshold && th.Shielded.VolumeThreshold > 0 {
		add(domain.AlertVolumeSwing, domain.AlertSeverityInfo,
			fmt.Sprintf("volume moved %.1f ZEC against the prior period", swing),
			map[string]float64{"swing_zec": swing, "volume_zec": m.VolumeZEC, "prior_volume_zec": m.PriorVolumeZEC})
	}

	return alerts
}

// overallConversion multiplies stage conversions into an end-to-end rate
func overallConversion(stages []FunnelStage) float64 {
	overall := 100.0
	for _, stage := range stages {
		overall = overall * stage.ConversionPercent / 100
	}
	return overall
}
