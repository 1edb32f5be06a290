package schema

import (
	"time"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// Benchmark represents the benchmarks table - an append-only time series of
// percentile snapshots per (benchmark_type, category). Prior dates are never
// overwritten; the most recent as_of_date is "latest".
type Benchmark struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// BenchmarkType names the metric (e.g. "retention_rate", "shielded_share")
	BenchmarkType string `gorm:"column:benchmark_type;not null;type:text;uniqueIndex:idx_benchmarks_type_category_date,priority:1"`
	// Category is the peer category the sample was drawn from
	Category string `gorm:"column:category;not null;type:text;uniqueIndex:idx_benchmarks_type_category_date,priority:2"`
	P25      float64 `gorm:"column:p25;not null"`
	P50      float64 `gorm:"column:p50;not null"`
	P75      float64 `gorm:"column:p75;not null"`
	P90      float64 `gorm:"column:p90;not null"`
	// SampleSize is how many peer values produced this snapshot
	SampleSize int `gorm:"column:sample_size;not null"`
	// AsOfDate dates the snapshot
	AsOfDate  time.Time `gorm:"column:as_of_date;not null;type:date;uniqueIndex:idx_benchmarks_type_category_date,priority:3,sort:desc"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Benchmark model
func (Benchmark) TableName() string {
	return "benchmarks"
}

// Domain converts the row to its domain representation
func (b *Benchmark) Domain() domain.Benchmark {
	return domain.Benchmark{
		BenchmarkType: b.BenchmarkType,
		Category:      b.Category,
		Percentiles: domain.Percentiles{
			P25: b.P25,
			P50: b.P50,
			P75: b.P75,
			P90: b.P90,
		},
		SampleSize: b.SampleSize,
		AsOfDate:   b.AsOfDate,
	}
}
