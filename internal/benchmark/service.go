package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// Service stores and serves benchmark snapshots
type Service struct {
	store store.Store
	clock adapter.Clock
}

// NewService creates a new benchmark service
func NewService(s store.Store, clock adapter.Clock) *Service {
	return &Service{store: s, clock: clock}
}

// StoreBenchmark appends a new benchmark snapshot. Prior dates are never
// overwritten; readers always resolve the most recent as_of_date.
func (s *Service) StoreBenchmark(ctx context.Context, benchmarkType, category string, p domain.Percentiles, sampleSize int, asOfDate time.Time) error {
	if benchmarkType == "" {
		return domain.NewValidationError("benchmark_type", "must not be empty")
	}
	if category == "" {
		return domain.NewValidationError("category", "must not be empty")
	}
	if sampleSize < 0 {
		return domain.NewValidationError("sample_size", "must not be negative")
	}
	if asOfDate.IsZero() {
		asOfDate = s.clock.Now().UTC()
	}

	row := &schema.Benchmark{
		BenchmarkType: benchmarkType,
		Category:      category,
		P25:           p.P25,
		P50:           p.P50,
		P75:           p.P75,
		P90:           p.P90,
		SampleSize:    sampleSize,
		AsOfDate:      asOfDate,
	}
	if err := s.store.InsertBenchmark(ctx, row); err != nil {
		return fmt.Errorf("failed to store benchmark: %w", err)
	}
	return nil
}

// ComputeAndStore calculates percentiles over a peer sample and persists the
// snapshot dated now
func (s *Service) ComputeAndStore(ctx context.Context, benchmarkType, category string, values []float64) (domain.Benchmark, error) {
	p := CalculatePercentiles(values)
	asOf := s.clock.Now().UTC().Truncate(24 * time.Hour)
	if err := s.StoreBenchmark(ctx, benchmarkType, category, p, len(values), asOf); err != nil {
		return domain.Benchmark{}, err
	}
	return domain.Benchmark{
		BenchmarkType: benchmarkType,
		Category:      category,
		Percentiles:   p,
		SampleSize:    len(values),
		AsOfDate:      asOf,
	}, nil
}

// Latest returns the most recent snapshot for (type, category), or nil when
// no snapshot exists
func (s *Service) Latest(ctx context.Context, benchmarkType, category string) (*domain.Benchmark, error) {
	row, err := s.store.LatestBenchmark(ctx, benchmarkType, category)
	if err != nil {
		return nil, fmt.Errorf("failed to load benchmark: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	b := row.Domain()
	return &b, nil
}

// ListLatest returns the latest snapshot of every benchmark type in a category
func (s *Service) ListLatest(ctx context.Context, category string) ([]domain.Benchmark, error) {
	rows, err := s.store.ListLatestBenchmarks(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list benchmarks: %w", err)
	}
	out := make([]domain.Benchmark, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	return out, nil
}
