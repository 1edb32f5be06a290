package store

import (
	"context"
	"time"

	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// MarketplaceFilter narrows and orders the marketplace listing
type MarketplaceFilter struct {
	// MinScore drops wallets whose latest total score is below this value
	MinScore *float64
	// SortBy is "score" (default) or "purchases"
	SortBy string
	Limit  int
	Offset int
}

// Store defines the interface for database operations. Production uses the
// Postgres implementation; tests (and embedded deployments) use the memory
// implementation. Read methods return (nil, nil) when the row does not exist.
type Store interface {
	// CreateProject registers a project
	CreateProject(ctx context.Context, p *schema.Project) error
	// CreateWallet registers a wallet under its project
	CreateWallet(ctx context.Context, w *schema.Wallet) error
	// GetProject retrieves a project by ID
	GetProject(ctx context.Context, id string) (*schema.Project, error)
	// GetWallet retrieves a wallet by ID
	GetWallet(ctx context.Context, id string) (*schema.Wallet, error)
	// GetProjectWallets retrieves all wallets of a project
	GetProjectWallets(ctx context.Context, projectID string) ([]*schema.Wallet, error)
	// SetWalletPrivacyMode updates a wallet's privacy mode.
	// Returns domain.ErrWalletNotFound if the wallet does not exist.
	SetWalletPrivacyMode(ctx context.Context, walletID string, mode domain.PrivacyMode) error
	// CountWalletsByPrivacyMode tallies a project's wallets per privacy mode
	CountWalletsByPrivacyMode(ctx context.Context, projectID string) (map[domain.PrivacyMode]int64, error)
	// ListMonetizableWallets lists monetizable wallets for the marketplace
	ListMonetizableWallets(ctx context.Context, filter MarketplaceFilter) ([]*schema.Wallet, error)

	// GetMetricSamples retrieves a wallet's daily samples since a date, oldest first
	GetMetricSamples(ctx context.Context, walletID string, since time.Time) ([]*schema.MetricSample, error)
	// GetProjectMetricSamples retrieves samples for every wallet of a project since a date
	GetProjectMetricSamples(ctx context.Context, projectID string, since time.Time) ([]*schema.MetricSample, error)
	// UpsertMetricSamples writes indexer-produced samples idempotently (wallet_id+date)
	UpsertMetricSamples(ctx context.Context, samples []*schema.MetricSample) error

	// InsertProductivityScores appends recomputed scores (never mutates prior rows)
	InsertProductivityScores(ctx context.Context, scores []*schema.ProductivityScore) error
	// GetLatestScore retrieves the most recently computed score for a wallet
	GetLatestScore(ctx context.Context, walletID string) (*schema.ProductivityScore, error)
	// GetLatestProjectScores retrieves the latest score per wallet for a project
	GetLatestProjectScores(ctx context.Context, projectID string) ([]*schema.ProductivityScore, error)

	// InsertBenchmark appends a benchmark snapshot; prior dates are never overwritten
	InsertBenchmark(ctx context.Context, b *schema.Benchmark) error
	// LatestBenchmark retrieves the most recent snapshot for (type, category)
	LatestBenchmark(ctx context.Context, benchmarkType, category string) (*schema.Benchmark, error)
	// ListLatestBenchmarks retrieves the latest snapshot of every type in a category
	ListLatestBenchmarks(ctx context.Context, category string) ([]*schema.Benchmark, error)

	// CreateDataAccessPayment persists a pending marketplace payment
	CreateDataAccessPayment(ctx context.Context, p *schema.DataAccessPayment) error
	// GetPaymentByInvoiceID retrieves a payment by its gateway invoice ID
	GetPaymentByInvoiceID(ctx context.Context, invoiceID string) (*schema.DataAccessPayment, error)
	// MarkPaymentPaid transitions a payment to paid and credits the owner's
	// earning in one transaction. Returns false without error when the payment
	// was already paid, so the earning is credited exactly once.
	MarkPaymentPaid(ctx context.Context, invoiceID string, paidAt time.Time, earning *schema.Earning) (bool, error)
	// HasPaidAccess reports whether the requester holds a paid purchase for the wallet
	HasPaidAccess(ctx context.Context, requesterID, walletID string) (bool, error)

	// ListEarnings retrieves all earnings of an owner, newest first
	ListEarnings(ctx context.Context, ownerID string) ([]*schema.Earning, error)
	// PendingEarningsTotal sums the owner's unwithdrawn earnings
	PendingEarningsTotal(ctx context.Context, ownerID string) (float64, error)
	// ConsumeEarnings atomically marks pending earnings withdrawn, oldest first,
	// until the withdrawal amount is covered, and persists the withdrawal.
	// Returns domain.ErrInsufficientBalance when pending earnings cannot cover
	// the amount. The owner's rows are serialized for the whole check-then-deduct.
	ConsumeEarnings(ctx context.Context, w *schema.Withdrawal) error
	// SetWithdrawalGatewayRef records the gateway-side reference once the payout
	// request has been accepted and marks the withdrawal sent
	SetWithdrawalGatewayRef(ctx context.Context, withdrawalID, gatewayRef string) error
	// ListWithdrawals retrieves all withdrawals of an owner, newest first.
	// Rows still in payout_pending are awaiting gateway confirmation or replay.
	ListWithdrawals(ctx context.Context, ownerID string) ([]*schema.Withdrawal, error)

	// InsertRecommendations persists generated recommendations
	InsertRecommendations(ctx context.Context, recs []*schema.Recommendation) error
	// GetRecommendation retrieves a recommendation by ID
	GetRecommendation(ctx context.Context, id string) (*schema.Recommendation, error)
	// ListRecommendations retrieves a project's recommendations, highest priority first
	ListRecommendations(ctx context.Context, projectID string) ([]*schema.Recommendation, error)
	// CreateTask persists a recommendation task with its baseline snapshot
	CreateTask(ctx context.Context, t *schema.Task) error
	// GetTask retrieves a task by ID
	GetTask(ctx context.Context, id string) (*schema.Task, error)
	// UpdateTaskCompletion stores the latest completion check result
	UpdateTaskCompletion(ctx context.Context, t *schema.Task) error

	// AppendAlerts writes alerts to the append-only alert log
	AppendAlerts(ctx context.Context, alerts []*schema.AlertLog) error
	// ListAlertLog retrieves a project's alert history, newest first
	ListAlertLog(ctx context.Context, projectID string, limit int) ([]*schema.AlertLog, error)
}
