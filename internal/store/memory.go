package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// memoryStore is an in-memory Store used by tests and embedded deployments.
// All methods copy on read so callers never share slices with the store.
type memoryStore struct {
	mu sync.RWMutex

	projects        map[string]*schema.Project
	wallets         map[string]*schema.Wallet
	samples         []*schema.MetricSample
	scores          []*schema.ProductivityScore
	benchmarks      []*schema.Benchmark
	payments        map[string]*schema.DataAccessPayment // keyed by invoice ID
	earnings        []*schema.Earning
	withdrawals     []*schema.Withdrawal
	recommendations []*schema.Recommendation
	tasks           map[string]*schema.Task
	alertLog        []*schema.AlertLog
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		projects: make(map[string]*schema.Project),
		wallets:  make(map[string]*schema.Wallet),
		payments: make(map[string]*schema.DataAccessPayment),
		tasks:    make(map[string]*schema.Task),
	}
}

func (s *memoryStore) CreateProject(_ context.Context, p *schema.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.projects[p.ID] = &cp
	return nil
}

func (s *memoryStore) CreateWallet(_ context.Context, w *schema.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = now
	}
	s.wallets[w.ID] = &cp
	return nil
}

func (s *memoryStore) GetProject(_ context.Context, id string) (*schema.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) GetWallet(_ context.Context, id string) (*schema.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (s *memoryStore) GetProjectWallets(_ context.Context, projectID string) ([]*schema.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*schema.Wallet
	for _, w := range s.wallets {
		if w.ProjectID == projectID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) SetWalletPrivacyMode(_ context.Context, walletID string, mode domain.PrivacyMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	w.PrivacyMode = mode
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryStore) CountWalletsByPrivacyMode(_ context.Context, projectID string) (map[domain.PrivacyMode]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.PrivacyMode]int64)
	for _, w := range s.wallets {
		if w.ProjectID == projectID {
			counts[w.PrivacyMode]++
		}
	}
	return counts, nil
}

func (s *memoryStore) ListMonetizableWallets(_ context.Context, filter MarketplaceFilter) ([]*schema.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]*schema.ProductivityScore)
	for _, sc := range s.scores {
		cur, ok := latest[sc.WalletID]
		if !ok || sc.ComputedAt.After(cur.ComputedAt) {
			latest[sc.WalletID] = sc
		}
	}

	var out []*schema.Wallet
	for _, w := range s.wallets {
		if w.PrivacyMode != domain.PrivacyModeMonetizable {
			continue
		}
		if filter.MinScore != nil {
			sc, ok := latest[w.ID]
			if !ok || sc.TotalScore < *filter.MinScore {
				continue
			}
		}
		cp := *w
		out = append(out, &cp)
	}

	switch filter.SortBy {
	case "purchases":
		sort.Slice(out, func(i, j int) bool { return out[i].PurchaseCount > out[j].PurchaseCount })
	default:
		score := func(w *schema.Wallet) float64 {
			if sc, ok := latest[w.ID]; ok {
				return sc.TotalScore
			}
			return -1
		}
		sort.Slice(out, func(i, j int) bool { return score(out[i]) > score(out[j]) })
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memoryStore) GetMetricSamples(_ context.Context, walletID string, since time.Time) ([]*schema.MetricSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*schema.MetricSample
	for _, m := range s.samples {
		if m.WalletID == walletID && !m.Date.Before(since) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *memoryStore) GetProjectMetricSamples(_ context.Context, projectID string, since time.Time) ([]*schema.MetricSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*schema.MetricSample
	for _, m := range s.samples {
		w, ok := s.wallets[m.WalletID]
		if !ok || w.ProjectID != projectID {
			continue
		}
		if !m.Date.Before(since) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *memoryStore) UpsertMetricSamples(_ context.Context, samples []*schema.MetricSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range samples {
		replaced := false
		for i, existing := range s.samples {
			if existing.WalletID == in.WalletID && existing.Date.Equal(in.Date) {
				cp := *in
				cp.ID = existing.ID
				s.samples[i] = &cp
				replaced = true
				break
			}
		}
		if !replaced {
			cp := *in
			cp.ID = int64(len(s.samples) + 1)
			s.samples = append(s.samples, &cp)
		}
	}
	return nil
}

func (s *memoryStore) InsertProductivityScores(_ context.Context, scores []*schema.ProductivityScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range scores {
		cp := *in
		cp.ID = int64(len(s.scores) + 1)
		if cp.ComputedAt.IsZero() {
			cp.ComputedAt = time.Now().UTC()
		}
		s.scores = append(s.scores, &cp)
	}
	return nil
}

func (s *memoryStore) GetLatestScore(_ context.Context, walletID string) (*schema.ProductivityScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *schema.ProductivityScore
	for _, sc := range s.scores {
		if sc.WalletID != walletID {
			continue
		}
		if latest == nil || sc.ComputedAt.After(latest.ComputedAt) {
			latest = sc
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *memoryStore) GetLatestProjectScores(_ context.Context, projectID string) ([]*schema.ProductivityScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[string]*schema.ProductivityScore)
	for _, sc := range s.scores {
		w, ok := s.wallets[sc.WalletID]
		if !ok || w.ProjectID != projectID {
			continue
		}
		cur, seen := latest[sc.WalletID]
		if !seen || sc.ComputedAt.After(cur.ComputedAt) {
			latest[sc.WalletID] = sc
		}
	}
	out := make([]*schema.ProductivityScore, 0, len(latest))
	for _, sc := range latest {
		cp := *sc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WalletID < out[j].WalletID })
	return out, nil
}

func (s *memoryStore) InsertBenchmark(_ context.Context, b *schema.Benchmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	cp.ID = int64(len(s.benchmarks) + 1)
	s.benchmarks = append(s.benchmarks, &cp)
	return nil
}

func (s *memoryStore) LatestBenchmark(_ context.Context, benchmarkType, category string) (*schema.Benchmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *schema.Benchmark
	for _, b := range s.benchmarks {
		if b.BenchmarkType != benchmarkType || b.Category != category {
			continue
		}
		if latest == nil || b.AsOfDate.After(latest.AsOfDate) {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *memoryStore) ListLatestBenchmarks(_ context.Context, category string) ([]*schema.Benchmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[string]*schema.Benchmark)
	for _, b := range s.benchmarks {
		if b.Category != category {
			continue
		}
		cur, seen := latest[b.BenchmarkType]
		if !seen || b.AsOfDate.After(cur.AsOfDate) {
			latest[b.BenchmarkType] = b
		}
	}
	out := make([]*schema.Benchmark, 0, len(latest))
	for _, b := range latest {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BenchmarkType < out[j].BenchmarkType })
	return out, nil
}

func (s *memoryStore) CreateDataAccessPayment(_ context.Context, p *schema.DataAccessPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.payments[p.InvoiceID] = &cp
	return nil
}

func (s *memoryStore) GetPaymentByInvoiceID(_ context.Context, invoiceID string) (*schema.DataAccessPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[invoiceID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) MarkPaymentPaid(_ context.Context, invoiceID string, paidAt time.Time, earning *schema.Earning) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[invoiceID]
	if !ok || p.Status != domain.PaymentStatusPending {
		return false, nil
	}
	p.Status = domain.PaymentStatusPaid
	at := paidAt
	p.PaidAt = &at

	ec := *earning
	if ec.CreatedAt.IsZero() {
		ec.CreatedAt = time.Now().UTC()
	}
	s.earnings = append(s.earnings, &ec)

	if w, ok := s.wallets[earning.WalletID]; ok {
		w.PurchaseCount++
	}
	return true, nil
}

func (s *memoryStore) HasPaidAccess(_ context.Context, requesterID, walletID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.RequesterID == requesterID && p.WalletID == walletID && p.Status == domain.PaymentStatusPaid {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) ListEarnings(_ context.Context, ownerID string) ([]*schema.Earning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*schema.Earning
	for _, e := range s.earnings {
		if e.OwnerID == ownerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) PendingEarningsTotal(_ context.Context, ownerID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, e := range s.earnings {
		if e.OwnerID == ownerID && e.Status == domain.EarningStatusPending {
			total += e.AmountZEC
		}
	}
	return total, nil
}

func (s *memoryStore) ConsumeEarnings(_ context.Context, w *schema.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*schema.Earning
	var available float64
	for _, e := range s.earnings {
		if e.OwnerID == w.OwnerID && e.Status == domain.EarningStatusPending {
			pending = append(pending, e)
			available += e.AmountZEC
		}
	}
	if w.AmountZEC > available {
		return domain.ErrInsufficientBalance
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })

	cp := *w
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if cp.Status == "" {
		cp.Status = domain.WithdrawalStatusPayoutPending
	}
	s.withdrawals = append(s.withdrawals, &cp)

	var consumed float64
	for _, e := range pending {
		if consumed >= w.AmountZEC {
			break
		}
		consumed += e.AmountZEC
		e.Status = domain.EarningStatusWithdrawn
		id := w.ID
		e.WithdrawalID = &id
	}
	return nil
}

func (s *memoryStore) SetWithdrawalGatewayRef(_ context.Context, withdrawalID, gatewayRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.withdrawals {
		if w.ID == withdrawalID {
			w.GatewayRef = gatewayRef
			w.Status = domain.WithdrawalStatusSent
			return nil
		}
	}
	return fmt.Errorf("withdrawal %s not found", withdrawalID)
}

func (s *memoryStore) ListWithdrawals(_ context.Context, ownerID string) ([]*schema.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*schema.Withdrawal
	for _, w := range s.withdrawals {
		if w.OwnerID == ownerID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) InsertRecommendations(_ context.Context, recs []*schema.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		cp := *r
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
		s.recommendations = append(s.recommendations, &cp)
	}
	return nil
}

func (s *memoryStore) GetRecommendation(_ context.Context, id string) (*schema.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recommendations {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListRecommendations(_ context.Context, projectID string) ([]*schema.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*schema.Recommendation
	for _, r := range s.recommendations {
		if r.ProjectID == projectID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) CreateTask(_ context.Context, t *schema.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.tasks[t.ID] = &cp
	return nil
}

func (s *memoryStore) GetTask(_ context.Context, id string) (*schema.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *memoryStore) UpdateTaskCompletion(_ context.Context, t *schema.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	existing.Status = t.Status
	existing.CompletionPercentage = t.CompletionPercentage
	existing.EffectivenessScore = t.EffectivenessScore
	existing.EffectivenessLevel = t.EffectivenessLevel
	existing.CompletedAt = t.CompletedAt
	return nil
}

func (s *memoryStore) AppendAlerts(_ context.Context, alerts []*schema.AlertLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range alerts {
		cp := *a
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
		s.alertLog = append(s.alertLog, &cp)
	}
	return nil
}

func (s *memoryStore) ListAlertLog(_ context.Context, projectID string, limit int) ([]*schema.AlertLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*schema.AlertLog
	for _, a := range s.alertLog {
		if a.ProjectID == projectID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
