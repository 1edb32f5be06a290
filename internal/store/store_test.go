package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func buildTestProject(id, ownerID string) *schema.Project {
	return &schema.Project{
		ID:        id,
		OwnerID:   ownerID,
		Name:      "Project " + id,
		Category:  "defi",
		CreatedAt: time.Now().UTC(),
	}
}

func buildTestWallet(id, projectID string, mode domain.PrivacyMode) *schema.Wallet {
	now := time.Now().UTC()
	return &schema.Wallet{
		ID:          id,
		ProjectID:   projectID,
		Address:     "zs1" + id,
		Label:       "wallet " + id,
		PrivacyMode: mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func buildTestSample(walletID string, date time.Time, txCount int) *schema.MetricSample {
	return &schema.MetricSample{
		WalletID:         walletID,
		Date:             date,
		TransactionCount: txCount,
		VolumeZEC:        float64(txCount) * 1.5,
		FeeZEC:           float64(txCount) * 0.0001,
		ShieldedCount:    txCount / 2,
		TransparentCount: txCount - txCount/2,
		Active:           txCount > 0,
	}
}

func buildTestScore(walletID string, total float64, computedAt time.Time) *schema.ProductivityScore {
	return &schema.ProductivityScore{
		WalletID:       walletID,
		TotalScore:     total,
		RetentionScore: total,
		AdoptionScore:  total,
		ActivityScore:  total,
		DiversityScore: total,
		Status:         domain.HealthStatusHealthy,
		RiskLevel:      domain.RiskLevelLow,
		ComputedAt:     computedAt,
	}
}

func seedProjectWithWallets(t *testing.T, s Store, projectID, ownerID string, wallets ...*schema.Wallet) {
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, buildTestProject(projectID, ownerID)))
	for _, w := range wallets {
		require.NoError(t, s.CreateWallet(ctx, w))
	}
}

// =============================================================================
// Test: Projects and Wallets
// =============================================================================

func testProjectsAndWallets(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("get project returns nil for unknown ID", func(t *testing.T) {
		p, err := s.GetProject(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("project and wallets round trip", func(t *testing.T) {
		w1 := buildTestWallet("w1", "p1", domain.PrivacyModePrivate)
		w2 := buildTestWallet("w2", "p1", domain.PrivacyModePublic)
		w2.CreatedAt = w1.CreatedAt.Add(time.Second)
		seedProjectWithWallets(t, s, "p1", "owner1", w1, w2)

		p, err := s.GetProject(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "owner1", p.OwnerID)
		assert.Equal(t, "defi", p.Category)

		wallets, err := s.GetProjectWallets(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, wallets, 2)
		assert.Equal(t, "w1", wallets[0].ID)
		assert.Equal(t, "w2", wallets[1].ID)

		w, err := s.GetWallet(ctx, "w2")
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, domain.PrivacyModePublic, w.PrivacyMode)
	})

	t.Run("get wallet returns nil for unknown ID", func(t *testing.T) {
		w, err := s.GetWallet(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, w)
	})
}

// =============================================================================
// Test: Privacy Mode
// =============================================================================

func testPrivacyMode(t *testing.T, s Store) {
	ctx := context.Background()

	w1 := buildTestWallet("pm-w1", "pm-p1", domain.PrivacyModePrivate)
	w2 := buildTestWallet("pm-w2", "pm-p1", domain.PrivacyModePrivate)
	w3 := buildTestWallet("pm-w3", "pm-p1", domain.PrivacyModeMonetizable)
	seedProjectWithWallets(t, s, "pm-p1", "pm-owner", w1, w2, w3)

	t.Run("set privacy mode persists", func(t *testing.T) {
		err := s.SetWalletPrivacyMode(ctx, "pm-w1", domain.PrivacyModePublic)
		require.NoError(t, err)

		w, err := s.GetWallet(ctx, "pm-w1")
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, domain.PrivacyModePublic, w.PrivacyMode)
	})

	t.Run("set privacy mode on unknown wallet fails", func(t *testing.T) {
		err := s.SetWalletPrivacyMode(ctx, "nope", domain.PrivacyModePublic)
		assert.ErrorIs(t, err, domain.ErrWalletNotFound)
	})

	t.Run("count wallets by privacy mode", func(t *testing.T) {
		counts, err := s.CountWalletsByPrivacyMode(ctx, "pm-p1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[domain.PrivacyModePublic])
		assert.Equal(t, int64(1), counts[domain.PrivacyModePrivate])
		assert.Equal(t, int64(1), counts[domain.PrivacyModeMonetizable])
	})
}

// =============================================================================
// Test: Marketplace Listing
// =============================================================================

func testMarketplaceListing(t *testing.T, s Store) {
	ctx := context.Background()

	w1 := buildTestWallet("mk-w1", "mk-p1", domain.PrivacyModeMonetizable)
	w2 := buildTestWallet("mk-w2", "mk-p1", domain.PrivacyModeMonetizable)
	w2.PurchaseCount = 5
	w3 := buildTestWallet("mk-w3", "mk-p1", domain.PrivacyModePublic)
	seedProjectWithWallets(t, s, "mk-p1", "mk-owner", w1, w2, w3)

	now := time.Now().UTC()
	require.NoError(t, s.InsertProductivityScores(ctx, []*schema.ProductivityScore{
		buildTestScore("mk-w1", 85, now),
		buildTestScore("mk-w2", 40, now),
	}))

	t.Run("only monetizable wallets are listed", func(t *testing.T) {
		wallets, err := s.ListMonetizableWallets(ctx, MarketplaceFilter{})
		require.NoError(t, err)
		require.Len(t, wallets, 2)
		for _, w := range wallets {
			assert.Equal(t, domain.PrivacyModeMonetizable, w.PrivacyMode)
		}
	})

	t.Run("default sort is latest score descending", func(t *testing.T) {
		wallets, err := s.ListMonetizableWallets(ctx, MarketplaceFilter{})
		require.NoError(t, err)
		require.Len(t, wallets, 2)
		assert.Equal(t, "mk-w1", wallets[0].ID)
		assert.Equal(t, "mk-w2", wallets[1].ID)
	})

	t.Run("min score filter drops low scorers", func(t *testing.T) {
		min := 50.0
		wallets, err := s.ListMonetizableWallets(ctx, MarketplaceFilter{MinScore: &min})
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.Equal(t, "mk-w1", wallets[0].ID)
	})

	t.Run("sort by purchases", func(t *testing.T) {
		wallets, err := s.ListMonetizableWallets(ctx, MarketplaceFilter{SortBy: "purchases"})
		require.NoError(t, err)
		require.Len(t, wallets, 2)
		assert.Equal(t, "mk-w2", wallets[0].ID)
	})

	t.Run("limit and offset paginate", func(t *testing.T) {
		wallets, err := s.ListMonetizableWallets(ctx, MarketplaceFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.Equal(t, "mk-w2", wallets[0].ID)
	})
}

// =============================================================================
// Test: Metric Samples
// =============================================================================

func testMetricSamples(t *testing.T, s Store) {
	ctx := context.Background()

	w1 := buildTestWallet("ms-w1", "ms-p1", domain.PrivacyModePrivate)
	seedProjectWithWallets(t, s, "ms-p1", "ms-owner", w1)

	day := func(offset int) time.Time {
		return time.Date(2026, 8, 1+offset, 0, 0, 0, 0, time.UTC)
	}

	t.Run("upsert is idempotent per wallet and day", func(t *testing.T) {
		require.NoError(t, s.UpsertMetricSamples(ctx, []*schema.MetricSample{
			buildTestSample("ms-w1", day(0), 10),
			buildTestSample("ms-w1", day(1), 20),
		}))
		// Second write with updated counts for the same days
		require.NoError(t, s.UpsertMetricSamples(ctx, []*schema.MetricSample{
			buildTestSample("ms-w1", day(1), 25),
		}))

		samples, err := s.GetMetricSamples(ctx, "ms-w1", day(0))
		require.NoError(t, err)
		require.Len(t, samples, 2)
		assert.Equal(t, 10, samples[0].TransactionCount)
		assert.Equal(t, 25, samples[1].TransactionCount)
	})

	t.Run("since cutoff excludes earlier days", func(t *testing.T) {
		samples, err := s.GetMetricSamples(ctx, "ms-w1", day(1))
		require.NoError(t, err)
		require.Len(t, samples, 1)
		assert.Equal(t, 25, samples[0].TransactionCount)
	})

	t.Run("project samples span all wallets", func(t *testing.T) {
		w2 := buildTestWallet("ms-w2", "ms-p1", domain.PrivacyModePrivate)
		require.NoError(t, s.CreateWallet(ctx, w2))
		require.NoError(t, s.UpsertMetricSamples(ctx, []*schema.MetricSample{
			buildTestSample("ms-w2", day(0), 5),
		}))

		samples, err := s.GetProjectMetricSamples(ctx, "ms-p1", day(0))
		require.NoError(t, err)
		assert.Len(t, samples, 3)
	})
}

// =============================================================================
// Test: Productivity Scores
// =============================================================================

func testProductivityScores(t *testing.T, s Store) {
	ctx := context.Background()

	w1 := buildTestWallet("sc-w1", "sc-p1", domain.PrivacyModePrivate)
	w2 := buildTestWallet("sc-w2", "sc-p1", domain.PrivacyModePrivate)
	seedProjectWithWallets(t, s, "sc-p1", "sc-owner", w1, w2)

	now := time.Now().UTC()

	t.Run("latest score wins over earlier recomputations", func(t *testing.T) {
		require.NoError(t, s.InsertProductivityScores(ctx, []*schema.ProductivityScore{
			buildTestScore("sc-w1", 50, now.Add(-time.Hour)),
			buildTestScore("sc-w1", 72, now),
		}))

		score, err := s.GetLatestScore(ctx, "sc-w1")
		require.NoError(t, err)
		require.NotNil(t, score)
		assert.Equal(t, 72.0, score.TotalScore)
	})

	t.Run("no score yields nil", func(t *testing.T) {
		score, err := s.GetLatestScore(ctx, "sc-w2")
		require.NoError(t, err)
		assert.Nil(t, score)
	})

	t.Run("project scores return one row per wallet", func(t *testing.T) {
		require.NoError(t, s.InsertProductivityScores(ctx, []*schema.ProductivityScore{
			buildTestScore("sc-w2", 33, now),
		}))

		scores, err := s.GetLatestProjectScores(ctx, "sc-p1")
		require.NoError(t, err)
		require.Len(t, scores, 2)
		byWallet := map[string]float64{}
		for _, sc := range scores {
			byWallet[sc.WalletID] = sc.TotalScore
		}
		assert.Equal(t, 72.0, byWallet["sc-w1"])
		assert.Equal(t, 33.0, byWallet["sc-w2"])
	})
}

// =============================================================================
// Test: Benchmarks
// =============================================================================

func testBenchmarks(t *testing.T, s Store) {
	ctx := context.Background()

	date := func(offset int) time.Time {
		return time.Date(2026, 7, 1+offset, 0, 0, 0, 0, time.UTC)
	}

	t.Run("latest snapshot per type and category", func(t *testing.T) {
		require.NoError(t, s.InsertBenchmark(ctx, &schema.Benchmark{
			BenchmarkType: "retention_rate", Category: "defi",
			P25: 40, P50: 55, P75: 70, P90: 85, SampleSize: 100, AsOfDate: date(0),
		}))
		require.NoError(t, s.InsertBenchmark(ctx, &schema.Benchmark{
			BenchmarkType: "retention_rate", Category: "defi",
			P25: 42, P50: 58, P75: 73, P90: 88, SampleSize: 120, AsOfDate: date(7),
		}))

		b, err := s.LatestBenchmark(ctx, "retention_rate", "defi")
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, 58.0, b.P50)
		assert.Equal(t, 120, b.SampleSize)
	})

	t.Run("unknown type yields nil", func(t *testing.T) {
		b, err := s.LatestBenchmark(ctx, "nope", "defi")
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("list latest returns one snapshot per type", func(t *testing.T) {
		require.NoError(t, s.InsertBenchmark(ctx, &schema.Benchmark{
			BenchmarkType: "shielded_share", Category: "defi",
			P25: 10, P50: 20, P75: 35, P90: 50, SampleSize: 80, AsOfDate: date(7),
		}))

		benchmarks, err := s.ListLatestBenchmarks(ctx, "defi")
		require.NoError(t, err)
		require.Len(t, benchmarks, 2)
		for _, b := range benchmarks {
			assert.Equal(t, date(7), b.AsOfDate.UTC())
		}
	})
}

// =============================================================================
// Test: Payments and Earnings
// =============================================================================

func testPayments(t *testing.T, s Store) {
	ctx := context.Background()

	w1 := buildTestWallet("pay-w1", "pay-p1", domain.PrivacyModeMonetizable)
	seedProjectWithWallets(t, s, "pay-p1", "pay-owner", w1)

	payment := &schema.DataAccessPayment{
		ID:          "pay-1",
		RequesterID: "buyer-1",
		WalletID:    "pay-w1",
		InvoiceID:   "inv-1",
		AmountZEC:   1.0,
		Status:      domain.PaymentStatusPending,
	}
	earning := &schema.Earning{
		ID:             "earn-1",
		OwnerID:        "pay-owner",
		WalletID:       "pay-w1",
		PaymentID:      "pay-1",
		AmountZEC:      0.8,
		PlatformFeeZEC: 0.2,
		Status:         domain.EarningStatusPending,
	}

	t.Run("pending payment round trip", func(t *testing.T) {
		require.NoError(t, s.CreateDataAccessPayment(ctx, payment))

		p, err := s.GetPaymentByInvoiceID(ctx, "inv-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, domain.PaymentStatusPending, p.Status)

		paid, err := s.HasPaidAccess(ctx, "buyer-1", "pay-w1")
		require.NoError(t, err)
		assert.False(t, paid)
	})

	t.Run("mark paid credits earning exactly once", func(t *testing.T) {
		paidAt := time.Now().UTC()
		credited, err := s.MarkPaymentPaid(ctx, "inv-1", paidAt, earning)
		require.NoError(t, err)
		assert.True(t, credited)

		// Replay of the same paid invoice must not credit again
		credited, err = s.MarkPaymentPaid(ctx, "inv-1", paidAt, earning)
		require.NoError(t, err)
		assert.False(t, credited)

		earnings, err := s.ListEarnings(ctx, "pay-owner")
		require.NoError(t, err)
		require.Len(t, earnings, 1)
		assert.Equal(t, 0.8, earnings[0].AmountZEC)

		paid, err := s.HasPaidAccess(ctx, "buyer-1", "pay-w1")
		require.NoError(t, err)
		assert.True(t, paid)
	})

	t.Run("purchase count increments once", func(t *testing.T) {
		w, err := s.GetWallet(ctx, "pay-w1")
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, 1, w.PurchaseCount)
	})
}

// =============================================================================
// Test: Withdrawals
// =============================================================================

func testWithdrawals(t *testing.T, s Store) {
	ctx := context.Background()

	w1 := buildTestWallet("wd-w1", "wd-p1", domain.PrivacyModeMonetizable)
	seedProjectWithWallets(t, s, "wd-p1", "wd-owner", w1)

	// Three paid purchases credit 0.8 ZEC each
	for i := 1; i <= 3; i++ {
		p := &schema.DataAccessPayment{
			ID:          fmt.Sprintf("wd-pay-%d", i),
			RequesterID: fmt.Sprintf("buyer-%d", i),
			WalletID:    "wd-w1",
			InvoiceID:   fmt.Sprintf("wd-inv-%d", i),
			AmountZEC:   1.0,
			Status:      domain.PaymentStatusPending,
		}
		require.NoError(t, s.CreateDataAccessPayment(ctx, p))
		e := &schema.Earning{
			ID:             fmt.Sprintf("wd-earn-%d", i),
			OwnerID:        "wd-owner",
			WalletID:       "wd-w1",
			PaymentID:      p.ID,
			AmountZEC:      0.8,
			PlatformFeeZEC: 0.2,
			Status:         domain.EarningStatusPending,
			CreatedAt:      time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		credited, err := s.MarkPaymentPaid(ctx, p.InvoiceID, time.Now().UTC(), e)
		require.NoError(t, err)
		require.True(t, credited)
	}

	t.Run("pending total sums unwithdrawn earnings", func(t *testing.T) {
		total, err := s.PendingEarningsTotal(ctx, "wd-owner")
		require.NoError(t, err)
		assert.InDelta(t, 2.4, total, 1e-9)
	})

	t.Run("withdrawal over balance fails without side effects", func(t *testing.T) {
		err := s.ConsumeEarnings(ctx, &schema.Withdrawal{
			ID:        "wd-over",
			OwnerID:   "wd-owner",
			ToAddress: "zs1dest",
			AmountZEC: 5.0,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

		total, err := s.PendingEarningsTotal(ctx, "wd-owner")
		require.NoError(t, err)
		assert.InDelta(t, 2.4, total, 1e-9)
	})

	t.Run("withdrawal consumes oldest earnings first", func(t *testing.T) {
		err := s.ConsumeEarnings(ctx, &schema.Withdrawal{
			ID:        "wd-1",
			OwnerID:   "wd-owner",
			ToAddress: "zs1dest",
			AmountZEC: 1.0,
		})
		require.NoError(t, err)

		// 0.8 + 0.8 covers 1.0, leaving one pending earning
		total, err := s.PendingEarningsTotal(ctx, "wd-owner")
		require.NoError(t, err)
		assert.InDelta(t, 0.8, total, 1e-9)

		earnings, err := s.ListEarnings(ctx, "wd-owner")
		require.NoError(t, err)
		require.Len(t, earnings, 3)
		withdrawn := 0
		for _, e := range earnings {
			if e.Status == domain.EarningStatusWithdrawn {
				withdrawn++
				require.NotNil(t, e.WithdrawalID)
				assert.Equal(t, "wd-1", *e.WithdrawalID)
			}
		}
		assert.Equal(t, 2, withdrawn)
	})

	t.Run("new withdrawal awaits payout confirmation", func(t *testing.T) {
		withdrawals, err := s.ListWithdrawals(ctx, "wd-owner")
		require.NoError(t, err)
		require.Len(t, withdrawals, 1)
		assert.Equal(t, domain.WithdrawalStatusPayoutPending, withdrawals[0].Status)
		assert.Empty(t, withdrawals[0].GatewayRef)
	})

	t.Run("gateway ref recorded after payout accepted", func(t *testing.T) {
		require.NoError(t, s.SetWithdrawalGatewayRef(ctx, "wd-1", "gw-ref-1"))

		withdrawals, err := s.ListWithdrawals(ctx, "wd-owner")
		require.NoError(t, err)
		require.Len(t, withdrawals, 1)
		assert.Equal(t, domain.WithdrawalStatusSent, withdrawals[0].Status)
		assert.Equal(t, "gw-ref-1", withdrawals[0].GatewayRef)

		err = s.SetWithdrawalGatewayRef(ctx, "wd-missing", "gw-ref-2")
		require.Error(t, err)
	})

	t.Run("unknown owner has zero balance", func(t *testing.T) {
		total, err := s.PendingEarningsTotal(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

// =============================================================================
// Test: Recommendations and Tasks
// =============================================================================

func testRecommendationsAndTasks(t *testing.T, s Store) {
	ctx := context.Background()

	w1 := buildTestWallet("rec-w1", "rec-p1", domain.PrivacyModePrivate)
	seedProjectWithWallets(t, s, "rec-p1", "rec-owner", w1)

	t.Run("list is ordered by priority descending", func(t *testing.T) {
		require.NoError(t, s.InsertRecommendations(ctx, []*schema.Recommendation{
			{ID: "rec-1", ProjectID: "rec-p1", Type: domain.RecActivityBoost, Title: "boost", Priority: 5, EffortLevel: domain.EffortLow},
			{ID: "rec-2", ProjectID: "rec-p1", Type: domain.RecChurnPrevention, Title: "churn", Priority: 10, EffortLevel: domain.EffortHigh},
			{ID: "rec-3", ProjectID: "rec-p1", Type: domain.RecRetentionImprovement, Title: "retain", Priority: 7, EffortLevel: domain.EffortMedium},
		}))

		recs, err := s.ListRecommendations(ctx, "rec-p1")
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "rec-2", recs[0].ID)
		assert.Equal(t, "rec-3", recs[1].ID)
		assert.Equal(t, "rec-1", recs[2].ID)
	})

	t.Run("task lifecycle", func(t *testing.T) {
		task := &schema.Task{
			ID:               "task-1",
			RecommendationID: "rec-1",
			WalletID:         "rec-w1",
			Status:           domain.TaskStatusPending,
		}
		require.NoError(t, s.CreateTask(ctx, task))

		got, err := s.GetTask(ctx, "task-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.TaskStatusPending, got.Status)

		completedAt := time.Now().UTC()
		got.Status = domain.TaskStatusCompleted
		got.CompletionPercentage = 100
		got.EffectivenessScore = 30
		got.EffectivenessLevel = domain.EffectivenessHigh
		got.CompletedAt = &completedAt
		require.NoError(t, s.UpdateTaskCompletion(ctx, got))

		got, err = s.GetTask(ctx, "task-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		assert.Equal(t, 30.0, got.EffectivenessScore)
		require.NotNil(t, got.CompletedAt)
	})

	t.Run("get task returns nil for unknown ID", func(t *testing.T) {
		got, err := s.GetTask(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// =============================================================================
// Test: Alert Log
// =============================================================================

func testAlertLog(t *testing.T, s Store) {
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.AppendAlerts(ctx, []*schema.AlertLog{
		{ID: "al-1", ProjectID: "al-p1", Type: domain.AlertRetentionDrop, Severity: domain.AlertSeverityWarning, Message: "retention dropped", CreatedAt: now.Add(-time.Minute)},
		{ID: "al-2", ProjectID: "al-p1", Type: domain.AlertChurnCritical, Severity: domain.AlertSeverityCritical, Message: "churn risk", CreatedAt: now},
		{ID: "al-3", ProjectID: "al-p2", Type: domain.AlertShieldedSpike, Severity: domain.AlertSeverityInfo, Message: "shielded spike", CreatedAt: now},
	}))

	t.Run("newest first, scoped by project", func(t *testing.T) {
		alerts, err := s.ListAlertLog(ctx, "al-p1", 0)
		require.NoError(t, err)
		require.Len(t, alerts, 2)
		assert.Equal(t, "al-2", alerts[0].ID)
		assert.Equal(t, "al-1", alerts[1].ID)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		alerts, err := s.ListAlertLog(ctx, "al-p1", 1)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, "al-2", alerts[0].ID)
	})
}

// RunStoreTests runs the full store suite against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"ProjectsAndWallets", testProjectsAndWallets},
		{"PrivacyMode", testPrivacyMode},
		{"MarketplaceListing", testMarketplaceListing},
		{"MetricSamples", testMetricSamples},
		{"ProductivityScores", testProductivityScores},
		{"Benchmarks", testBenchmarks},
		{"Payments", testPayments},
		{"Withdrawals", testWithdrawals},
		{"RecommendationsAndTasks", testRecommendationsAndTasks},
		{"AlertLog", testAlertLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
