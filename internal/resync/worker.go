package resync

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/dashboard"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/logger"
	"github.com/zlytics/wallet-insights/internal/store"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// Worker recomputes productivity scores for wallets touched by new blocks.
// Resyncs are fire-and-forget: throttled per wallet set, time-bounded, and a
// failure logs and moves on without blocking the event stream.
type Worker struct {
	store    store.Store
	clock    adapter.Clock
	throttle *Throttle
	pool     pond.Pool
	cfg      config.ResyncConfig
}

// NewWorker creates a resync worker with its own pond pool
func NewWorker(s store.Store, clock adapter.Clock, cfg config.ResyncConfig) *Worker {
	return &Worker{
		store:    s,
		clock:    clock,
		throttle: NewThrottle(cfg.Interval),
		pool: pond.NewPool(
			cfg.PoolSize,
			pond.WithQueueSize(cfg.QueueSize),
		),
		cfg: cfg,
	}
}

// HandleEvent schedules a resync for the event's wallet set. Returns true
// when a resync was scheduled, false when the set was throttled or empty.
func (w *Worker) HandleEvent(ctx context.Context, event *domain.BlockProcessedEvent) bool {
	if len(event.WalletIDs) == 0 {
		return false
	}

	key := WalletSetKey(event.WalletIDs)
	if !w.throttle.Allow(key) {
		logger.DebugCtx(ctx, "resync throttled",
			zap.Uint64("height", event.Height),
			zap.Int("wallet_count", len(event.WalletIDs)))
		return false
	}

	walletIDs := event.WalletIDs
	height := event.Height
	w.pool.Submit(func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.Timeout)
		defer cancel()

		if err := w.resync(runCtx, walletIDs); err != nil {
			logger.ErrorCtx(runCtx, fmt.Errorf("resync failed: %w", err),
				zap.Uint64("height", height),
				zap.Int("wallet_count", len(walletIDs)))
			return
		}
		logger.InfoCtx(runCtx, "resync completed",
			zap.Uint64("height", height),
			zap.Int("wallet_count", len(walletIDs)))
	})
	return true
}

// resync recomputes and persists the latest score for each wallet
func (w *Worker) resync(ctx context.Context, walletIDs []string) error {
	now := w.clock.Now().UTC()
	since := now.AddDate(0, 0, -30)

	computed := 0
	for _, walletID := range walletIDs {
		wallet, err := w.store.GetWallet(ctx, walletID)
		if err != nil {
			return fmt.Errorf("failed to load wallet %s: %w", walletID, err)
		}
		if wallet == nil {
			logger.WarnCtx(ctx, "skipping unknown wallet in resync", zap.String("wallet_id", walletID))
			continue
		}

		samples, err := w.store.GetMetricSamples(ctx, walletID, since)
		if err != nil {
			return fmt.Errorf("failed to load samples for %s: %w", walletID, err)
		}

		score := dashboard.ComputeScore(walletID, samples, now)
		if err := w.store.InsertProductivityScores(ctx, []*schema.ProductivityScore{score}); err != nil {
			return fmt.Errorf("failed to persist score for %s: %w", walletID, err)
		}
		computed++
	}

	if computed == 0 {
		logger.WarnCtx(ctx, "resync matched no known wallets")
	}
	return nil
}

// Drain waits for in-flight resyncs to finish
func (w *Worker) Drain() {
	w.pool.StopAndWait()
}
