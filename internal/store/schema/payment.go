package schema

import (
	"time"

	"github.com/zlytics/wallet-insights/internal/domain"
)

// DataAccessPayment represents the data_access_payments table - one row per
// marketplace purchase attempt against a monetizable wallet.
type DataAccessPayment struct {
	// ID is the payment record identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// RequesterID is the buying user
	RequesterID string `gorm:"column:requester_id;not null;type:text;index:idx_payments_requester_wallet,priority:1"`
	// WalletID is the wallet whose data is being purchased
	WalletID string `gorm:"column:wallet_id;not null;type:text;index:idx_payments_requester_wallet,priority:2"`
	// InvoiceID is the gateway invoice identifier
	InvoiceID string `gorm:"column:invoice_id;not null;uniqueIndex;type:text"`
	// AmountZEC is the purchase price
	AmountZEC float64 `gorm:"column:amount_zec;not null"`
	// Status is pending until the gateway reports the invoice paid
	Status domain.PaymentStatus `gorm:"column:status;not null;default:pending;type:text"`
	// PaidAt is set on the first observed paid transition
	PaidAt    *time.Time `gorm:"column:paid_at;type:timestamptz"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DataAccessPayment model
func (DataAccessPayment) TableName() string {
	return "data_access_payments"
}

// Earning represents the earnings table - the wallet owner's credited share of
// a completed data-access payment. Rows flip to withdrawn when consumed by a
// withdrawal; they are never deleted.
type Earning struct {
	// ID is the earning identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// OwnerID is the user credited
	OwnerID string `gorm:"column:owner_id;not null;type:text;index"`
	// WalletID is the wallet that generated the earning
	WalletID string `gorm:"column:wallet_id;not null;type:text"`
	// PaymentID references the source payment
	PaymentID string `gorm:"column:payment_id;not null;uniqueIndex;type:text"`
	// AmountZEC is the owner's share
	AmountZEC float64 `gorm:"column:amount_zec;not null"`
	// PlatformFeeZEC is the platform's share of the same payment
	PlatformFeeZEC float64 `gorm:"column:platform_fee_zec;not null"`
	// Status is pending until consumed by a withdrawal
	Status domain.EarningStatus `gorm:"column:status;not null;default:pending;type:text"`
	// WithdrawalID references the consuming withdrawal, if any
	WithdrawalID *string   `gorm:"column:withdrawal_id;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Earning model
func (Earning) TableName() string {
	return "earnings"
}

// Withdrawal represents the withdrawals table
type Withdrawal struct {
	// ID is the withdrawal identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// OwnerID is the withdrawing user
	OwnerID string `gorm:"column:owner_id;not null;type:text;index"`
	// ToAddress is the destination ZEC address
	ToAddress string `gorm:"column:to_address;not null;type:text"`
	// AmountZEC is the withdrawn amount
	AmountZEC float64 `gorm:"column:amount_zec;not null"`
	// GatewayRef is the gateway-side withdrawal identifier
	GatewayRef string `gorm:"column:gateway_ref;type:text"`
	// Status stays payout_pending until the gateway accepts the payout
	Status    domain.WithdrawalStatus `gorm:"column:status;not null;default:payout_pending;type:text;index"`
	CreatedAt time.Time               `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Withdrawal model
func (Withdrawal) TableName() string {
	return "withdrawals"
}
