package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/logger"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// chunk splits items into fixed-size slices. The last chunk may be shorter.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// BatchCalculateProductivityScores recomputes and persists scores for the
// given wallets, chunked onto a worker pool so no single query carries the
// whole list. Unknown wallet IDs are skipped. The result set is equivalent to
// scoring each wallet individually; order is not guaranteed.
func (s *Service) BatchCalculateProductivityScores(ctx context.Context, walletIDs []string) ([]*schema.ProductivityScore, error) {
	if len(walletIDs) == 0 {
		return nil, nil
	}

	now := s.clock.Now().UTC()
	since := now.AddDate(0, 0, -scoreWindowDays)

	pool := pond.NewPool(
		s.batchCfg.PoolSize,
		pond.WithQueueSize(s.batchCfg.QueueSize),
		pond.WithContext(ctx),
	)

	var mu sync.Mutex
	var scores []*schema.ProductivityScore
	var firstErr error

	for _, ids := range chunk(walletIDs, s.batchCfg.ChunkSize) {
		pool.Submit(func() {
			for _, walletID := range ids {
				wallet, err := s.store.GetWallet(ctx, walletID)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("failed to load wallet %s: %w", walletID, err)
					}
					mu.Unlock()
					return
				}
				if wallet == nil {
					logger.WarnCtx(ctx, "skipping unknown wallet in batch scoring", zap.String("wallet_id", walletID))
					continue
				}

				samples, err := s.store.GetMetricSamples(ctx, walletID, since)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("failed to load samples for %s: %w", walletID, err)
					}
					mu.Unlock()
					return
				}

				score := ComputeScore(walletID, samples, now)
				mu.Lock()
				scores = append(scores, score)
				mu.Unlock()
			}
		})
	}
	pool.StopAndWait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := s.store.InsertProductivityScores(ctx, scores); err != nil {
		return nil, fmt.Errorf("failed to persist scores: %w", err)
	}

	s.cache.Invalidate(dashboardKeyPrefix)
	return scores, nil
}

// BatchUpdateActivityMetrics upserts indexer-produced daily samples in
// fixed-size chunks. Chunks are independent upserts keyed on wallet_id+date,
// so a retry after partial failure converges to the same state.
func (s *Service) BatchUpdateActivityMetrics(ctx context.Context, records []*schema.MetricSample) error {
	if len(records) == 0 {
		return nil
	}

	pool := pond.NewPool(
		s.batchCfg.PoolSize,
		pond.WithQueueSize(s.batchCfg.QueueSize),
		pond.WithContext(ctx),
	)

	var mu sync.Mutex
	var firstErr error

	for _, batch := range chunk(records, s.batchCfg.ChunkSize) {
		pool.Submit(func() {
			if err := s.store.UpsertMetricSamples(ctx, batch); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to upsert sample chunk: %w", err)
				}
				mu.Unlock()
			}
		})
	}
	pool.StopAndWait()

	if firstErr != nil {
		return firstErr
	}
	s.cache.Invalidate(dashboardKeyPrefix)
	return nil
}
