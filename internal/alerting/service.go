package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/logger"
	"github.com/zlytics/wallet-insights/internal/store"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

const (
	recentWindow  = 7 * 24 * time.Hour
	funnelWindow  = 30 * 24 * time.Hour
	engagedDays   = 7
	committedDays = 15
)

// Service scans project metrics for threshold breaches and keeps the alert
// history
type Service struct {
	store      store.Store
	clock      adapter.Clock
	thresholds Thresholds
}

// NewService creates a new alerting service
func NewService(s store.Store, clock adapter.Clock, th Thresholds) *Service {
	return &Service{store: s, clock: clock, thresholds: th}
}

// ScanProject evaluates a project's current metrics against the thresholds,
// appends any findings to the alert log, and returns them. Scans are
// stateless: the same data always produces the same alerts.
func (s *Service) ScanProject(ctx context.Context, projectID string) ([]domain.Alert, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, domain.ErrProjectNotFound
	}

	metrics, err := s.BuildMetrics(ctx, projectID)
	if err != nil {
		return nil, err
	}

	alerts := Scan(metrics, s.thresholds, s.clock.Now().UTC())
	if len(alerts) == 0 {
		return nil, nil
	}

	rows := make([]*schema.AlertLog, 0, len(alerts))
	for _, a := range alerts {
		data, err := json.Marshal(a.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode alert data: %w", err)
		}
		rows = append(rows, &schema.AlertLog{
			ID:        a.ID,
			ProjectID: projectID,
			Type:      a.Type,
			Severity:  a.Severity,
			Message:   a.Message,
			Data:      data,
			CreatedAt: a.CreatedAt,
		})
	}
	if err := s.store.AppendAlerts(ctx, rows); err != nil {
		// History is best effort; the scan result is still valid
		logger.ErrorCtx(ctx, fmt.Errorf("failed to append alert log: %w", err),
			zap.String("project_id", projectID))
	}

	return alerts, nil
}

// History returns a project's logged alerts, newest first
func (s *Service) History(ctx context.Context, projectID string, limit int) ([]domain.Alert, error) {
	rows, err := s.store.ListAlertLog(ctx, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert log: %w", err)
	}

	alerts := make([]domain.Alert, 0, len(rows))
	for _, row := range rows {
		a := domain.Alert{
			ID:        row.ID,
			Type:      row.Type,
			Severity:  row.Severity,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		}
		if len(row.Data) > 0 {
			if err := json.Unmarshal(row.Data, &a.Data); err != nil {
				logger.WarnCtx(ctx, "skipping malformed alert data", zap.String("alert_id", row.ID))
			}
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// BuildMetrics derives the scan input from stored scores and samples.
// Retention compares wallet activity in the last week against the week
// before; funnel stages come from activity depth over the last month.
func (s *Service) BuildMetrics(ctx context.Context, projectID string) (Metrics, error) {
	now := s.clock.Now().UTC()

	wallets, err := s.store.GetProjectWallets(ctx, projectID)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to load wallets: %w", err)
	}

	scores, err := s.store.GetLatestProjectScores(ctx, projectID)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to load scores: %w", err)
	}

	samples, err := s.store.GetProjectMetricSamples(ctx, projectID, now.Add(-funnelWindow))
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to load samples: %w", err)
	}

	var m Metrics

	// Churn and risk distribution from the latest scores
	if len(scores) > 0 {
		var churned, highRisk int
		for _, sc := range scores {
			if sc.Status == domain.HealthStatusChurn {
				churned++
			}
			if sc.RiskLevel == domain.RiskLevelHigh {
				highRisk++
			}
		}
		n := float64(len(scores))
		m.ChurnRate = float64(churned) / n * 100
		m.HighRiskPercent = float64(highRisk) / n * 100
	}

	// Per-wallet activity tallies over the sample window
	type walletActivity struct {
		activeDays     int
		activeRecent   bool
		activePrior    bool
		shieldedCount  int
		recentShielded int
	}
	activity := make(map[string]*walletActivity, len(wallets))
	for _, w := range wallets {
		activity[w.ID] = &walletActivity{}
	}

	recentStart := now.Add(-recentWindow)
	priorStart := now.Add(-2 * recentWindow)
	var recentVolume, priorVolume float64
	var recentDayShielded float64

	for _, sample := range samples {
		a, ok := activity[sample.WalletID]
		if !ok {
			continue
		}
		if sample.Active {
			a.activeDays++
		}
		a.shieldedCount += sample.ShieldedCount

		if !sample.Date.Before(recentStart) {
			if sample.Active {
				a.activeRecent = true
			}
			a.recentShielded += sample.ShieldedCount
			recentVolume += sample.VolumeZEC
			recentDayShielded += float64(sample.ShieldedCount)
		} else if !sample.Date.Before(priorStart) {
			if sample.Active {
				a.activePrior = true
			}
			priorVolume += sample.VolumeZEC
		}
	}

	if len(wallets) > 0 {
		var recent, prior, active, engaged, committed, shieldedAdopters int
		var windowShielded int
		for _, a := range activity {
			if a.activeRecent {
				recent++
			}
			if a.activePrior {
				prior++
			}
			if a.activeDays > 0 {
				active++
			}
			if a.activeDays >= engagedDays {
				engaged++
			}
			if a.activeDays >= committedDays {
				committed++
			}
			if a.shieldedCount > 0 {
				shieldedAdopters++
			}
			windowShielded += a.shieldedCount
		}
		total := float64(len(wallets))
		m.RetentionRate = float64(recent) / total * 100
		m.PriorRetentionRate = float64(prior) / total * 100

		m.FunnelStages = []FunnelStage{
			{Name: "active", Count: active, ConversionPercent: pct(active, len(wallets))},
			{Name: "engaged", Count: engaged, ConversionPercent: pct(engaged, active)},
			{Name: "committed", Count: committed, ConversionPercent: pct(committed, engaged)},
			{Name: "shielded_adopter", Count: shieldedAdopters, ConversionPercent: pct(shieldedAdopters, active)},
		}

		windowDays := funnelWindow.Hours() / 24
		recentDays := recentWindow.Hours() / 24
		m.RollingAvgShielded = float64(windowShielded) / windowDays
		m.ShieldedCount = recentDayShielded / recentDays
	}

	m.VolumeZEC = recentVolume
	m.PriorVolumeZEC = priorVolume
	return m, nil
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
