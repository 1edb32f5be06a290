package alerting

// RetentionThresholds configures retention alerts
type RetentionThresholds struct {
	// DropPercent is the relative retention drop that raises a warning
	DropPercent float64 `mapstructure:"drop_percent"`
	// CriticalLevel is the absolute retention below which the alert is critical
	CriticalLevel float64 `mapstructure:"critical_level"`
	// WarningLevel is the absolute retention below which a warning is raised
	WarningLevel float64 `mapstructure:"warning_level"`
}

// ChurnThresholds configures churn alerts
type ChurnThresholds struct {
	// CriticalRate is the churn percentage that raises a critical alert
	CriticalRate float64 `mapstructure:"critical_rate"`
	// HighRiskPercent is the high-risk wallet share that raises a warning
	HighRiskPercent float64 `mapstructure:"high_risk_percent"`
}

// FunnelThresholds configures adoption funnel alerts
type FunnelThresholds struct {
	// StageDropWarn is the stage-to-stage drop percentage that raises a warning
	StageDropWarn float64 `mapstructure:"stage_drop_warn"`
	// StageDropCritical is the drop percentage that escalates to critical
	StageDropCritical float64 `mapstructure:"stage_drop_critical"`
	// CriticalConversion is the end-to-end conversion below which the funnel is critical
	CriticalConversion float64 `mapstructure:"critical_conversion"`
}

// ShieldedThresholds configures shielded activity alerts
type ShieldedThresholds struct {
	// SpikeMultiplier over the rolling average raises a spike alert
	SpikeMultiplier float64 `mapstructure:"spike_multiplier"`
	// DropMultiplier under the rolling average raises a drop alert
	DropMultiplier float64 `mapstructure:"drop_multiplier"`
	// VolumeThreshold is the absolute ZEC volume swing that raises an alert
	VolumeThreshold float64 `mapstructure:"volume_threshold"`
}

// Thresholds is the full alert configuration. Detection is threshold-only:
// trend context never changes whether an alert fires, only its urgency.
type Thresholds struct {
	Retention RetentionThresholds `mapstructure:"retention"`
	Churn     ChurnThresholds     `mapstructure:"churn"`
	Funnel    FunnelThresholds    `mapstructure:"funnel"`
	Shielded  ShieldedThresholds  `mapstructure:"shielded"`
}

// DefaultThresholds returns the stock alert configuration
func DefaultThresholds() Thresholds {
	return Thresholds{
		Retention: RetentionThresholds{
			DropPercent:   15,
			CriticalLevel: 30,
			WarningLevel:  50,
		},
		Churn: ChurnThresholds{
			CriticalRate:    30,
			HighRiskPercent: 40,
		},
		Funnel: FunnelThresholds{
			StageDropWarn:      40,
			StageDropCritical:  70,
			CriticalConversion: 10,
		},
		Shielded: ShieldedThresholds{
			SpikeMultiplier: 3,
			DropMultiplier:  0.3,
			VolumeThreshold: 100,
		},
	}
}
