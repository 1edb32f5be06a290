package comparison

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/benchmark"
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store"
)

// Metric names shared between project aggregation and benchmark types
const (
	MetricTotalScore     = "total_score"
	MetricRetentionRate  = "retention_rate"
	MetricAdoptionScore  = "adoption_score"
	MetricActivityScore  = "activity_score"
	MetricDiversityScore = "diversity_score"
	MetricShieldedShare  = "shielded_share"
)

const sampleWindow = 30 * 24 * time.Hour

// Service compares a project's metrics against category benchmarks
type Service struct {
	store      store.Store
	benchmarks *benchmark.Service
	clock      adapter.Clock
	cfg        config.ComparisonConfig
}

// NewService creates a new comparison service
func NewService(s store.Store, b *benchmark.Service, clock adapter.Clock, cfg config.ComparisonConfig) *Service {
	return &Service{store: s, benchmarks: b, clock: clock, cfg: cfg}
}

// MarketComparison is the full project-vs-market result
type MarketComparison struct {
	ProjectID   string                    `json:"project_id"`
	Category    string                    `json:"category"`
	Target      benchmark.TargetPercentile `json:"target"`
	Results     []domain.ComparisonResult `json:"results"`
	Gaps        GapAnalysis               `json:"gaps"`
	Position    OverallPosition           `json:"position"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// ShieldedComparison contrasts shielded and transparent activity for a project
type ShieldedComparison struct {
	ProjectID        string  `json:"project_id"`
	ShieldedCount    int     `json:"shielded_count"`
	TransparentCount int     `json:"transparent_count"`
	ShieldedShare    float64 `json:"shielded_share"`
	PriorShare       float64 `json:"prior_share"`
	ShareChange      float64 `json:"share_change"`
	WindowDays       int     `json:"window_days"`
}

// ProjectMetrics aggregates a project's current metric values by metric name.
// Score components come from the latest productivity scores; the shielded
// share comes from the recent sample window.
func (s *Service) ProjectMetrics(ctx context.Context, projectID string) (map[string]float64, error) {
	scores, err := s.store.GetLatestProjectScores(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project scores: %w", err)
	}

	metrics := make(map[string]float64)
	if len(scores) > 0 {
		var total, retention, adoption, activity, diversity float64
		for _, sc := range scores {
			total += sc.TotalScore
			retention += sc.RetentionScore
			adoption += sc.AdoptionScore
			activity += sc.ActivityScore
			diversity += sc.DiversityScore
		}
		n := float64(len(scores))
		metrics[MetricTotalScore] = total / n
		metrics[MetricRetentionRate] = retention / n
		metrics[MetricAdoptionScore] = adoption / n
		metrics[MetricActivityScore] = activity / n
		metrics[MetricDiversityScore] = diversity / n
	}

	since := s.clock.Now().UTC().Add(-sampleWindow)
	samples, err := s.store.GetProjectMetricSamples(ctx, projectID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load project samples: %w", err)
	}
	var shielded, all int
	for _, sample := range samples {
		shielded += sample.ShieldedCount
		all += sample.ShieldedCount + sample.TransparentCount
	}
	if all > 0 {
		metrics[MetricShieldedShare] = float64(shielded) / float64(all) * 100
	}

	return metrics, nil
}

// CompareProjectToMarket measures every project metric against the latest
// benchmark of the project's category. Metrics without a benchmark degrade to
// StatusNoBenchmark and RangeUnknown instead of failing the whole comparison.
func (s *Service) CompareProjectToMarket(ctx context.Context, projectID string, target benchmark.TargetPercentile) (*MarketComparison, error) {
	if !benchmark.IsValidTargetPercentile(target) {
		return nil, domain.NewValidationError("target", fmt.Sprintf("invalid target percentile %q", target))
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, domain.ErrProjectNotFound
	}

	metrics, err := s.ProjectMetrics(ctx, projectID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]domain.ComparisonResult, 0, len(names))
	for _, name := range names {
		value := metrics[name]
		b, err := s.benchmarks.Latest(ctx, name, project.Category)
		if err != nil {
			return nil, err
		}

		gap := benchmark.CalculatePerformanceGap(value, b, target)
		result := domain.ComparisonResult{
			Metric:          name,
			CurrentValue:    value,
			Gap:             gap.Gap,
			GapPercentage:   gap.Percentage,
			Status:          gap.Status,
			PercentileRange: benchmark.GetPercentileRange(value, b),
		}
		if b != nil {
			result.BenchmarkTarget = target.Value(b.Percentiles)
		}
		results = append(results, result)
	}

	return &MarketComparison{
		ProjectID:   projectID,
		Category:    project.Category,
		Target:      target,
		Results:     results,
		Gaps:        IdentifyPerformanceGaps(results, s.cfg),
		Position:    CalculateOverallPosition(results, s.cfg),
		GeneratedAt: s.clock.Now().UTC(),
	}, nil
}

// CompareShieldedActivity contrasts shielded vs transparent transactions over
// the recent window against the window before it
func (s *Service) CompareShieldedActivity(ctx context.Context, projectID string) (*ShieldedComparison, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, domain.ErrProjectNotFound
	}

	now := s.clock.Now().UTC()
	windowStart := now.Add(-sampleWindow)
	priorStart := now.Add(-2 * sampleWindow)

	samples, err := s.store.GetProjectMetricSamples(ctx, projectID, priorStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load project samples: %w", err)
	}

	var curShielded, curTotal, priorShielded, priorTotal int
	for _, sample := range samples {
		if sample.Date.Before(windowStart) {
			priorShielded += sample.ShieldedCount
			priorTotal += sample.ShieldedCount + sample.TransparentCount
		} else {
			curShielded += sample.ShieldedCount
			curTotal += sample.ShieldedCount + sample.TransparentCount
		}
	}

	out := &ShieldedComparison{
		ProjectID:        projectID,
		ShieldedCount:    curShielded,
		TransparentCount: curTotal - curShielded,
		WindowDays:       int(sampleWindow.Hours() / 24),
	}
	if curTotal > 0 {
		out.ShieldedShare = float64(curShielded) / float64(curTotal) * 100
	}
	if priorTotal > 0 {
		out.PriorShare = float64(priorShielded) / float64(priorTotal) * 100
	}
	out.ShareChange = out.ShieldedShare - out.PriorShare
	return out, nil
}
