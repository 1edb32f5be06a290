package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to safe defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// AutoMigrate creates or updates the analytics core tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Project{},
		&schema.Wallet{},
		&schema.MetricSample{},
		&schema.ProductivityScore{},
		&schema.Benchmark{},
		&schema.DataAccessPayment{},
		&schema.Earning{},
		&schema.Withdrawal{},
		&schema.Recommendation{},
		&schema.Task{},
		&schema.AlertLog{},
	)
}

// CreateProject registers a project
func (s *pgStore) CreateProject(ctx context.Context, p *schema.Project) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// CreateWallet registers a wallet under its project
func (s *pgStore) CreateWallet(ctx context.Context, w *schema.Wallet) error {
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID
func (s *pgStore) GetProject(ctx context.Context, id string) (*schema.Project, error) {
	var project schema.Project
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// GetWallet retrieves a wallet by ID
func (s *pgStore) GetWallet(ctx context.Context, id string) (*schema.Wallet, error) {
	var wallet schema.Wallet
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// GetProjectWallets retrieves all wallets of a project
func (s *pgStore) GetProjectWallets(ctx context.Context, projectID string) ([]*schema.Wallet, error) {
	var wallets []*schema.Wallet
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get project wallets: %w", err)
	}
	return wallets, nil
}

// SetWalletPrivacyMode updates a wallet's privacy mode
func (s *pgStore) SetWalletPrivacyMode(ctx context.Context, walletID string, mode domain.PrivacyMode) error {
	result := s.db.WithContext(ctx).
		Model(&schema.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{
			"privacy_mode": mode,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set privacy mode: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

// CountWalletsByPrivacyMode tallies a project's wallets per privacy mode
func (s *pgStore) CountWalletsByPrivacyMode(ctx context.Context, projectID string) (map[domain.PrivacyMode]int64, error) {
	type row struct {
		PrivacyMode domain.PrivacyMode
		Count       int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&schema.Wallet{}).
		Select("privacy_mode, count(*) as count").
		Where("project_id = ?", projectID).
		Group("privacy_mode").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count wallets by privacy mode: %w", err)
	}

	counts := make(map[domain.PrivacyMode]int64, len(rows))
	for _, r := range rows {
		counts[r.PrivacyMode] = r.Count
	}
	return counts, nil
}

// ListMonetizableWallets lists monetizable wallets for the marketplace.
// Sorting happens over the latest productivity score or purchase count.
func (s *pgStore) ListMonetizableWallets(ctx context.Context, filter MarketplaceFilter) ([]*schema.Wallet, error) {
	q := s.db.WithContext(ctx).
		Model(&schema.Wallet{}).
		Where("privacy_mode = ?", domain.PrivacyModeMonetizable)

	latestScore := s.db.
		Table("productivity_scores ps").
		Select("ps.total_score").
		Where("ps.wallet_id = wallets.id").
		Order("ps.computed_at DESC").
		Limit(1)

	if filter.MinScore != nil {
		q = q.Where("(?) >= ?", latestScore, *filter.MinScore)
	}

	switch filter.SortBy {
	case "purchases":
		q = q.Order("purchase_count DESC")
	default:
		q = q.Order(clause.Expr{SQL: "(?) DESC NULLS LAST", Vars: []interface{}{latestScore}})
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var wallets []*schema.Wallet
	if err := q.Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to list monetizable wallets: %w", err)
	}
	return wallets, nil
}

// GetMetricSamples retrieves a wallet's daily samples since a date, oldest first
func (s *pgStore) GetMetricSamples(ctx context.Context, walletID string, since time.Time) ([]*schema.MetricSample, error) {
	var samples []*schema.MetricSample
	err := s.db.WithContext(ctx).
		Where("wallet_id = ? AND date >= ?", walletID, since).
		Order("date ASC").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get metric samples: %w", err)
	}
	return samples, nil
}

// GetProjectMetricSamples retrieves samples for every wallet of a project since a date
func (s *pgStore) GetProjectMetricSamples(ctx context.Context, projectID string, since time.Time) ([]*schema.MetricSample, error) {
	var samples []*schema.MetricSample
	err := s.db.WithContext(ctx).
		Joins("JOIN wallets ON wallets.id = wallet_metric_samples.wallet_id").
		Where("wallets.project_id = ? AND wallet_metric_samples.date >= ?", projectID, since).
		Order("wallet_metric_samples.date ASC").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get project metric samples: %w", err)
	}
	return samples, nil
}

// UpsertMetricSamples writes indexer-produced samples idempotently
func (s *pgStore) UpsertMetricSamples(ctx context.Context, samples []*schema.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wallet_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"transaction_count", "volume_zec", "fee_zec",
				"shielded_count", "transparent_count", "active",
			}),
		}).
		CreateInBatches(samples, 500).Error
	if err != nil {
		return fmt.Errorf("failed to upsert metric samples: %w", err)
	}
	return nil
}

// InsertProductivityScores appends recomputed scores
func (s *pgStore) InsertProductivityScores(ctx context.Context, scores []*schema.ProductivityScore) error {
	if len(scores) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(scores, 500).Error; err != nil {
		return fmt.Errorf("failed to insert productivity scores: %w", err)
	}
	return nil
}

// GetLatestScore retrieves the most recently computed score for a wallet
func (s *pgStore) GetLatestScore(ctx context.Context, walletID string) (*schema.ProductivityScore, error) {
	var score schema.ProductivityScore
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("computed_at DESC").
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest score: %w", err)
	}
	return &score, nil
}

// GetLatestProjectScores retrieves the latest score per wallet for a project
func (s *pgStore) GetLatestProjectScores(ctx context.Context, projectID string) ([]*schema.ProductivityScore, error) {
	var scores []*schema.ProductivityScore
	err := s.db.WithContext(ctx).
		Select("DISTINCT ON (productivity_scores.wallet_id) productivity_scores.*").
		Joins("JOIN wallets ON wallets.id = productivity_scores.wallet_id").
		Where("wallets.project_id = ?", projectID).
		Order("productivity_scores.wallet_id, productivity_scores.computed_at DESC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest project scores: %w", err)
	}
	return scores, nil
}

// InsertBenchmark appends a benchmark snapshot
func (s *pgStore) InsertBenchmark(ctx context.Context, b *schema.Benchmark) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to insert benchmark: %w", err)
	}
	return nil
}

// LatestBenchmark retrieves the most recent snapshot for (type, category)
func (s *pgStore) LatestBenchmark(ctx context.Context, benchmarkType, category string) (*schema.Benchmark, error) {
	var b schema.Benchmark
	err := s.db.WithContext(ctx).
		Where("benchmark_type = ? AND category = ?", benchmarkType, category).
		Order("as_of_date DESC").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest benchmark: %w", err)
	}
	return &b, nil
}

// ListLatestBenchmarks retrieves the latest snapshot of every type in a category
func (s *pgStore) ListLatestBenchmarks(ctx context.Context, category string) ([]*schema.Benchmark, error) {
	var benchmarks []*schema.Benchmark
	err := s.db.WithContext(ctx).
		Select("DISTINCT ON (benchmark_type) *").
		Where("category = ?", category).
		Order("benchmark_type, as_of_date DESC").
		Find(&benchmarks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list latest benchmarks: %w", err)
	}
	return benchmarks, nil
}

// CreateDataAccessPayment persists a pending marketplace payment
func (s *pgStore) CreateDataAccessPayment(ctx context.Context, p *schema.DataAccessPayment) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create data access payment: %w", err)
	}
	return nil
}

// GetPaymentByInvoiceID retrieves a payment by its gateway invoice ID
func (s *pgStore) GetPaymentByInvoiceID(ctx context.Context, invoiceID string) (*schema.DataAccessPayment, error) {
	var p schema.DataAccessPayment
	err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// MarkPaymentPaid transitions a payment to paid and credits the owner's
// earning exactly once. The conditional update on status=pending is the
// idempotency guard: a second observer of the paid invoice changes nothing.
func (s *pgStore) MarkPaymentPaid(ctx context.Context, invoiceID string, paidAt time.Time, earning *schema.Earning) (bool, error) {
	credited := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&schema.DataAccessPayment{}).
			Where("invoice_id = ? AND status = ?", invoiceID, domain.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":  domain.PaymentStatusPaid,
				"paid_at": paidAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark payment paid: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Already paid: nothing to credit
			return nil
		}

		if err := tx.Create(earning).Error; err != nil {
			return fmt.Errorf("failed to credit earning: %w", err)
		}

		if err := tx.Model(&schema.Wallet{}).
			Where("id = ?", earning.WalletID).
			UpdateColumn("purchase_count", gorm.Expr("purchase_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment purchase count: %w", err)
		}

		credited = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return credited, nil
}

// HasPaidAccess reports whether the requester holds a paid purchase for the wallet
func (s *pgStore) HasPaidAccess(ctx context.Context, requesterID, walletID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.DataAccessPayment{}).
		Where("requester_id = ? AND wallet_id = ? AND status = ?", requesterID, walletID, domain.PaymentStatusPaid).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check paid access: %w", err)
	}
	return count > 0, nil
}

// ListEarnings retrieves all earnings of an owner, newest first
func (s *pgStore) ListEarnings(ctx context.Context, ownerID string) ([]*schema.Earning, error) {
	var earnings []*schema.Earning
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&earnings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}
	return earnings, nil
}

// PendingEarningsTotal sums the owner's unwithdrawn earnings
func (s *pgStore) PendingEarningsTotal(ctx context.Context, ownerID string) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).
		Model(&schema.Earning{}).
		Select("COALESCE(SUM(amount_zec), 0)").
		Where("owner_id = ? AND status = ?", ownerID, domain.EarningStatusPending).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum pending earnings: %w", err)
	}
	return total, nil
}

// ConsumeEarnings atomically marks pending earnings withdrawn oldest-first
// until the withdrawal amount is covered. SELECT FOR UPDATE serializes
// concurrent withdrawals per owner so the balance check and the deduct see
// the same rows.
func (s *pgStore) ConsumeEarnings(ctx context.Context, w *schema.Withdrawal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending []*schema.Earning
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ? AND status = ?", w.OwnerID, domain.EarningStatusPending).
			Order("created_at ASC").
			Find(&pending).Error
		if err != nil {
			return fmt.Errorf("failed to lock pending earnings: %w", err)
		}

		var available float64
		for _, e := range pending {
			available += e.AmountZEC
		}
		if w.AmountZEC > available {
			return domain.ErrInsufficientBalance
		}

		if w.Status == "" {
			w.Status = domain.WithdrawalStatusPayoutPending
		}
		if err := tx.Create(w).Error; err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}

		var consumed float64
		var consumedIDs []string
		for _, e := range pending {
			if consumed >= w.AmountZEC {
				break
			}
			consumed += e.AmountZEC
			consumedIDs = append(consumedIDs, e.ID)
		}

		result := tx.Model(&schema.Earning{}).
			Where("id IN ?", consumedIDs).
			Updates(map[string]interface{}{
				"status":        domain.EarningStatusWithdrawn,
				"withdrawal_id": w.ID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark earnings withdrawn: %w", result.Error)
		}
		if result.RowsAffected != int64(len(consumedIDs)) {
			return fmt.Errorf("expected to consume %d earnings, consumed %d", len(consumedIDs), result.RowsAffected)
		}
		return nil
	})
}

func (s *pgStore) SetWithdrawalGatewayRef(ctx context.Context, withdrawalID, gatewayRef string) error {
	result := s.db.WithContext(ctx).Model(&schema.Withdrawal{}).
		Where("id = ?", withdrawalID).
		UpdateColumns(map[string]interface{}{
			"gateway_ref": gatewayRef,
			"status":      domain.WithdrawalStatusSent,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set withdrawal gateway ref: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("withdrawal %s not found", withdrawalID)
	}
	return nil
}

// ListWithdrawals retrieves all withdrawals of an owner, newest first
func (s *pgStore) ListWithdrawals(ctx context.Context, ownerID string) ([]*schema.Withdrawal, error) {
	var withdrawals []*schema.Withdrawal
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&withdrawals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// InsertRecommendations persists generated recommendations
func (s *pgStore) InsertRecommendations(ctx context.Context, recs []*schema.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(recs, 200).Error; err != nil {
		return fmt.Errorf("failed to insert recommendations: %w", err)
	}
	return nil
}

// GetRecommendation retrieves a recommendation by ID
func (s *pgStore) GetRecommendation(ctx context.Context, id string) (*schema.Recommendation, error) {
	var rec schema.Recommendation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return &rec, nil
}

// ListRecommendations retrieves a project's recommendations, highest priority first
func (s *pgStore) ListRecommendations(ctx context.Context, projectID string) ([]*schema.Recommendation, error) {
	var recs []*schema.Recommendation
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("priority DESC, created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

// CreateTask persists a recommendation task with its baseline snapshot
func (s *pgStore) CreateTask(ctx context.Context, t *schema.Task) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID
func (s *pgStore) GetTask(ctx context.Context, id string) (*schema.Task, error) {
	var t schema.Task
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// UpdateTaskCompletion stores the latest completion check result
func (s *pgStore) UpdateTaskCompletion(ctx context.Context, t *schema.Task) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Task{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"status":                t.Status,
			"completion_percentage": t.CompletionPercentage,
			"effectiveness_score":   t.EffectivenessScore,
			"effectiveness_level":   t.EffectivenessLevel,
			"completed_at":          t.CompletedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update task completion: %w", err)
	}
	return nil
}

// AppendAlerts writes alerts to the append-only alert log
func (s *pgStore) AppendAlerts(ctx context.Context, alerts []*schema.AlertLog) error {
	if len(alerts) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(alerts, 200).Error; err != nil {
		return fmt.Errorf("failed to append alerts: %w", err)
	}
	return nil
}

// ListAlertLog retrieves a project's alert history, newest first
func (s *pgStore) ListAlertLog(ctx context.Context, projectID string, limit int) ([]*schema.AlertLog, error) {
	q := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var alerts []*schema.AlertLog
	if err := q.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list alert log: %w", err)
	}
	return alerts, nil
}
