package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlytics/wallet-insights/internal/domain"
)

func findAlert(alerts []domain.Alert, alertType domain.AlertType) *domain.Alert {
	for i := range alerts {
		if alerts[i].Type == alertType {
			return &alerts[i]
		}
	}
	return nil
}

func TestScan(t *testing.T) {
	th := DefaultThresholds()
	now := time.Now().UTC()

	// Baseline that triggers nothing
	quiet := Metrics{
		RetentionRate:      80,
		PriorRetentionRate: 82,
		ChurnRate:          5,
		HighRiskPercent:    10,
		FunnelStages: []FunnelStage{
			{Name: "active", ConversionPercent: 90},
			{Name: "engaged", ConversionPercent: 80},
		},
		ShieldedCount:      10,
		RollingAvgShielded: 10,
		VolumeZEC:          500,
		PriorVolumeZEC:     520,
	}

	t.Run("healthy metrics raise no alerts", func(t *testing.T) {
		assert.Empty(t, Scan(quiet, th, now))
	})

	t.Run("retention drop raises a warning", func(t *testing.T) {
		m := quiet
		m.RetentionRate = 60
		m.PriorRetentionRate = 80 // 25% relative drop

		alerts := Scan(m, th, now)
		a := findAlert(alerts, domain.AlertRetentionDrop)
		require.NotNil(t, a)
		assert.Equal(t, domain.AlertSeverityWarning, a.Severity)
		assert.InDelta(t, 25, a.Data["drop_percent"], 1e-9)
	})

	t.Run("retention under the warning level warns without a prior drop", func(t *testing.T) {
		m := quiet
		m.RetentionRate = 45
		m.PriorRetentionRate = 45

		alerts := Scan(m, th, now)
		a := findAlert(alerts, domain.AlertRetentionWarning)
		require.NotNil(t, a)
		assert.Equal(t, domain.AlertSeverityWarning, a.Severity)
		assert.InDelta(t, th.Retention.WarningLevel, a.Data["warning_level"], 1e-9)
	})

	t.Run("retention under the critical level is critical", func(t *testing.T) {
		m := quiet
		m.RetentionRate = 20

		alerts := Scan(m, th, now)
		a := findAlert(alerts, domain.AlertRetentionCritical)
		require.NotNil(t, a)
		assert.Equal(t, domain.AlertSeverityCritical, a.Severity)
		// The critical alert subsumes the drop warning
		assert.Nil(t, findAlert(alerts, domain.AlertRetentionDrop))
	})

	t.Run("churn thresholds", func(t *testing.T) {
		m := quiet
		m.ChurnRate = 35
		m.HighRiskPercent = 45

		alerts := Scan(m, th, now)
		require.NotNil(t, findAlert(alerts, domain.AlertChurnCritical))
		require.NotNil(t, findAlert(alerts, domain.AlertChurnHighRisk))
		assert.Equal(t, domain.AlertSeverityCritical, findAlert(alerts, domain.AlertChurnCritical).Severity)
	})

	t.Run("funnel stage drop grading", func(t *testing.T) {
		m := quiet
		m.FunnelStages = []FunnelStage{
			{Name: "active", ConversionPercent: 55},  // 45% drop, warn
			{Name: "engaged", ConversionPercent: 15}, // 85% drop, critical
		}

		alerts := Scan(m, th, now)
		var warn, critical int
		for _, a := range alerts {
			if a.Type != domain.AlertFunnelStageDrop {
				continue
			}
			switch a.Severity {
			case domain.AlertSeverityWarning:
				warn++
			case domain.AlertSeverityCritical:
				critical++
			}
		}
		assert.Equal(t, 1, warn)
		assert.Equal(t, 1, critical)

		// 55% x 15% conversion is under the 10% critical floor
		require.NotNil(t, findAlert(alerts, domain.AlertFunnelConversion))
	})

	t.Run("shielded spike and drop", func(t *testing.T) {
		spike := quiet
		spike.ShieldedCount = 40
		spike.RollingAvgShielded = 10
		a := findAlert(Scan(spike, th, now), domain.AlertShieldedSpike)
		require.NotNil(t, a)
		assert.Equal(t, domain.AlertSeverityInfo, a.Severity)

		drop := quiet
		drop.ShieldedCount = 2
		drop.RollingAvgShielded = 10
		a = findAlert(Scan(drop, th, now), domain.AlertShieldedDrop)
		require.NotNil(t, a)
		assert.Equal(t, domain.AlertSeverityWarning, a.Severity)
	})

	t.Run("volume swing", func(t *testing.T) {
		m := quiet
		m.VolumeZEC = 700
		m.PriorVolumeZEC = 500

		a := findAlert(Scan(m, th, now), domain.AlertVolumeSwing)
		require.NotNil(t, a)
		assert.InDelta(t, 200, a.Data["swing_zec"], 1e-9)
	})

	t.Run("zero rolling average never divides", func(t *testing.T) {
		m := quiet
		m.RollingAvgShielded = 0
		m.ShieldedCount = 100
		alerts := Scan(m, th, now)
		assert.Nil(t, findAlert(alerts, domain.AlertShieldedSpike))
		assert.Nil(t, findAlert(alerts, domain.AlertShieldedDrop))
	})

	t.Run("scan is deterministic aside from IDs", func(t *testing.T) {
		m := quiet
		m.ChurnRate = 35
		a := Scan(m, th, now)
		b := Scan(m, th, now)
		require.Len(t, b, len(a))
		for i := range a {
			assert.Equal(t, a[i].Type, b[i].Type)
			assert.Equal(t, a[i].Severity, b[i].Severity)
			assert.Equal(t, a[i].Message, b[i].Message)
		}
	})
}
