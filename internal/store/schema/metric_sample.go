package schema

import "time"

// MetricSample represents the wallet_metric_samples table - one per-wallet,
// per-day activity aggregate. Rows are written by the external indexer and are
// immutable once written; the analytics core only reads them.
type MetricSample struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// WalletID references the wallet this sample belongs to
	WalletID string `gorm:"column:wallet_id;not null;type:text;uniqueIndex:idx_metric_samples_wallet_date,priority:1"`
	// Date is the UTC day this sample aggregates
	Date time.Time `gorm:"column:date;not null;type:date;uniqueIndex:idx_metric_samples_wallet_date,priority:2"`
	// TransactionCount is the number of transactions on this day
	TransactionCount int `gorm:"column:transaction_count;not null;default:0"`
	// VolumeZEC is the total transacted volume in ZEC
	VolumeZEC float64 `gorm:"column:volume_zec;not null;default:0"`
	// FeeZEC is the total fees paid in ZEC
	FeeZEC float64 `gorm:"column:fee_zec;not null;default:0"`
	// ShieldedCount is the number of shielded transactions
	ShieldedCount int `gorm:"column:shielded_count;not null;default:0"`
	// TransparentCount is the number of transparent transactions
	TransparentCount int `gorm:"column:transparent_count;not null;default:0"`
	// Active flags whether the wallet had any activity on this day
	Active bool `gorm:"column:active;not null;default:false"`
}

// TableName specifies the table name for the MetricSample model
func (MetricSample) TableName() string {
	return "wallet_metric_samples"
}
