package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/alerting"
	"github.com/zlytics/wallet-insights/internal/benchmark"
	"github.com/zlytics/wallet-insights/internal/cache"
	"github.com/zlytics/wallet-insights/internal/comparison"
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/insight"
	"github.com/zlytics/wallet-insights/internal/logger"
	"github.com/zlytics/wallet-insights/internal/store"
)

const (
	dashboardKeyPrefix  = "dashboard:"
	comparisonKeyPrefix = "comparison:"

	recentActivityWindow = 7 * 24 * time.Hour
	cohortMonths         = 6
)

// Service composes the engines into one cached dashboard payload
type Service struct {
	store      store.Store
	cache      *cache.QueryCache
	alerts     *alerting.Service
	insights   *insight.Service
	comparison *comparison.Service
	clock      adapter.Clock
	cacheCfg   config.CacheConfig
	batchCfg   config.BatchConfig
}

// NewService creates a new dashboard service
func NewService(
	s store.Store,
	qc *cache.QueryCache,
	alerts *alerting.Service,
	insights *insight.Service,
	cmp *comparison.Service,
	clock adapter.Clock,
	cacheCfg config.CacheConfig,
	batchCfg config.BatchConfig,
) *Service {
	return &Service{
		store:      s,
		cache:      qc,
		alerts:     alerts,
		insights:   insights,
		comparison: cmp,
		clock:      clock,
		cacheCfg:   cacheCfg,
		batchCfg:   batchCfg,
	}
}

// Overview is the headline activity picture of a project
type Overview struct {
	WalletCount      int     `json:"wallet_count"`
	ActiveWallets    int     `json:"active_wallets"`
	TransactionCount int     `json:"transaction_count"`
	VolumeZEC        float64 `json:"volume_zec"`
	FeesZEC          float64 `json:"fees_zec"`
	ShieldedShare    float64 `json:"shielded_share"`
}

// ProductivitySummary tallies latest wallet scores by status and risk
type ProductivitySummary struct {
	ScoredWallets int                         `json:"scored_wallets"`
	AverageScore  float64                     `json:"average_score"`
	ByStatus      map[domain.HealthStatus]int `json:"by_status"`
	ByRisk        map[domain.RiskLevel]int    `json:"by_risk"`
}

// Cohort groups wallets registered in the same month
type Cohort struct {
	Month       string  `json:"month"`
	Wallets     int     `json:"wallets"`
	StillActive int     `json:"still_active"`
	Retention   float64 `json:"retention"`
}

// Dashboard is the full aggregated payload served to the frontend
type Dashboard struct {
	ProjectID    string                   `json:"project_id"`
	Overview     Overview                 `json:"overview"`
	Productivity ProductivitySummary      `json:"productivity"`
	Cohorts      []Cohort                 `json:"cohorts"`
	Funnel       []alerting.FunnelStage   `json:"funnel"`
	Alerts       []domain.Alert           `json:"alerts"`
	Insights     *insight.ProjectInsights `json:"insights,omitempty"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

// GetProjectDashboard assembles the dashboard, serving a cached payload when
// one is still fresh for this project
func (s *Service) GetProjectDashboard(ctx context.Context, projectID string) (*Dashboard, error) {
	value, err := s.cache.Do(ctx, dashboardKeyPrefix+projectID, s.cacheCfg.DashboardTTL, func(ctx context.Context) (interface{}, error) {
		return s.buildDashboard(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return value.(*Dashboard), nil
}

// buildDashboard runs the fan-out. Overview and productivity are required;
// insights degrade to nil on failure so a missing benchmark never takes the
// whole dashboard down.
func (s *Service) buildDashboard(ctx context.Context, projectID string) (*Dashboard, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, domain.ErrProjectNotFound
	}

	d := &Dashboard{
		ProjectID:   projectID,
		GeneratedAt: s.clock.Now().UTC(),
	}

	if err := s.buildOverviewAndCohorts(ctx, projectID, d); err != nil {
		return nil, err
	}
	if err := s.buildProductivity(ctx, projectID, d); err != nil {
		return nil, err
	}

	metrics, err := s.alerts.BuildMetrics(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to build funnel metrics: %w", err)
	}
	d.Funnel = metrics.FunnelStages

	alerts, err := s.alerts.ScanProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan alerts: %w", err)
	}
	d.Alerts = alerts

	insights, err := s.insights.Insights(ctx, projectID)
	if err != nil {
		logger.WarnCtx(ctx, "dashboard insights degraded", zap.String("project_id", projectID), zap.Error(err))
	} else {
		if math.IsNaN(insights.Health.AverageScore) {
			insights.Health.AverageScore = 0
		}
		d.Insights = insights
	}

	return d, nil
}

func (s *Service) buildOverviewAndCohorts(ctx context.Context, projectID string, d *Dashboard) error {
	now := s.clock.Now().UTC()

	wallets, err := s.store.GetProjectWallets(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load wallets: %w", err)
	}

	samples, err := s.store.GetProjectMetricSamples(ctx, projectID, now.AddDate(0, 0, -scoreWindowDays))
	if err != nil {
		return fmt.Errorf("failed to load samples: %w", err)
	}

	overview := Overview{WalletCount: len(wallets)}
	activeRecently := make(map[string]bool)
	var shielded, total int
	for _, sample := range samples {
		overview.TransactionCount += sample.TransactionCount
		overview.VolumeZEC += sample.VolumeZEC
		overview.FeesZEC += sample.FeeZEC
		shielded += sample.ShieldedCount
		total += sample.TransactionCount
		if sample.Active && now.Sub(sample.Date) <= recentActivityWindow {
			activeRecently[sample.WalletID] = true
		}
	}
	overview.ActiveWallets = len(activeRecently)
	if total > 0 {
		overview.ShieldedShare = float64(shielded) / float64(total) * 100
	}
	d.Overview = overview

	// cohorts by registration month, newest first
	cutoff := now.AddDate(0, -cohortMonths, 0)
	byMonth := make(map[string]*Cohort)
	for _, w := range wallets {
		if w.CreatedAt.Before(cutoff) {
			continue
		}
		month := w.CreatedAt.UTC().Format("2006-01")
		c, ok := byMonth[month]
		if !ok {
			c = &Cohort{Month: month}
			byMonth[month] = c
		}
		c.Wallets++
		if activeRecently[w.ID] {
			c.StillActive++
		}
	}
	for _, c := range byMonth {
		if c.Wallets > 0 {
			c.Retention = float64(c.StillActive) / float64(c.Wallets) * 100
		}
		d.Cohorts = append(d.Cohorts, *c)
	}
	sort.Slice(d.Cohorts, func(i, j int) bool { return d.Cohorts[i].Month > d.Cohorts[j].Month })

	return nil
}

func (s *Service) buildProductivity(ctx context.Context, projectID string, d *Dashboard) error {
	scores, err := s.store.GetLatestProjectScores(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load scores: %w", err)
	}

	summary := ProductivitySummary{
		ScoredWallets: len(scores),
		ByStatus:      make(map[domain.HealthStatus]int),
		ByRisk:        make(map[domain.RiskLevel]int),
	}
	var sum float64
	for _, sc := range scores {
		sum += sc.TotalScore
		summary.ByStatus[sc.Status]++
		summary.ByRisk[sc.RiskLevel]++
	}
	if len(scores) > 0 {
		summary.AverageScore = sum / float64(len(scores))
	}
	d.Productivity = summary
	return nil
}

// Export renders the dashboard payload as json or a section-labeled csv
func (s *Service) Export(ctx context.Context, projectID, format string) ([]byte, string, error) {
	d, err := s.GetProjectDashboard(ctx, projectID)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode dashboard: %w", err)
		}
		return data, "application/json", nil
	case "csv":
		data, err := renderCSV(d)
		if err != nil {
			return nil, "", err
		}
		return data, "text/csv", nil
	default:
		return nil, "", domain.NewValidationError("format", "must be json or csv")
	}
}

// renderCSV flattens the dashboard into labeled sections of key/value rows
func renderCSV(d *Dashboard) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	write := func(record ...string) {
		_ = w.Write(record)
	}
	num := func(v float64) string { return fmt.Sprintf("%.2f", v) }

	write("OVERVIEW")
	write("project_id", d.ProjectID)
	write("generated_at", d.GeneratedAt.Format(time.RFC3339))
	write("wallet_count", fmt.Sprintf("%d", d.Overview.WalletCount))
	write("active_wallets", fmt.Sprintf("%d", d.Overview.ActiveWallets))
	write("transaction_count", fmt.Sprintf("%d", d.Overview.TransactionCount))
	write("volume_zec", num(d.Overview.VolumeZEC))
	write("fees_zec", num(d.Overview.FeesZEC))
	write("shielded_share", num(d.Overview.ShieldedShare))

	write("PRODUCTIVITY")
	write("scored_wallets", fmt.Sprintf("%d", d.Productivity.ScoredWallets))
	write("average_score", num(d.Productivity.AverageScore))
	for _, status := range []domain.HealthStatus{domain.HealthStatusHealthy, domain.HealthStatusAtRisk, domain.HealthStatusChurn} {
		write("status_"+string(status), fmt.Sprintf("%d", d.Productivity.ByStatus[status]))
	}

	write("COHORTS")
	for _, c := range d.Cohorts {
		write(c.Month, fmt.Sprintf("%d", c.Wallets), fmt.Sprintf("%d", c.StillActive), num(c.Retention))
	}

	write("FUNNEL")
	for _, stage := range d.Funnel {
		write(stage.Name, fmt.Sprintf("%d", stage.Count), num(stage.ConversionPercent))
	}

	write("ALERTS")
	for _, a := range d.Alerts {
		write(string(a.Type), string(a.Severity), a.Message)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WarmupCache pre-populates the queries a freshly opened project page hits
func (s *Service) WarmupCache(ctx context.Context, projectID string) error {
	if _, err := s.GetProjectDashboard(ctx, projectID); err != nil {
		return err
	}

	_, err := s.cache.Do(ctx, comparisonKeyPrefix+projectID, s.cacheCfg.DashboardTTL, func(ctx context.Context) (interface{}, error) {
		return s.comparison.CompareProjectToMarket(ctx, projectID, benchmark.TargetP50)
	})
	if err != nil {
		logger.WarnCtx(ctx, "comparison warmup skipped", zap.String("project_id", projectID), zap.Error(err))
	}
	return nil
}

// SweepExpiredCache drops stale cache entries and reports how many were swept
func (s *Service) SweepExpiredCache() int {
	return s.cache.SweepExpired()
}
