package privacy

import (
	"context"
	"fmt"
	"time"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store"
)

// metricsWindow is how far back behavioral summaries look
const metricsWindow = 30 * 24 * time.Hour

// Gate evaluates per-wallet privacy modes and serves data at the level each
// requester is entitled to
type Gate struct {
	store store.Store
	clock adapter.Clock
}

// NewGate creates a new privacy gate
func NewGate(s store.Store, clock adapter.Clock) *Gate {
	return &Gate{store: s, clock: clock}
}

// BehavioralMetrics is the aggregated activity summary exposed at the
// aggregated data level. It intentionally has no address or identity fields.
type BehavioralMetrics struct {
	TransactionCount int     `json:"transaction_count"`
	VolumeZEC        float64 `json:"volume_zec"`
	ShieldedShare    float64 `json:"shielded_share"`
	ActiveDays       int     `json:"active_days"`
	WindowDays       int     `json:"window_days"`
}

// AggregatedWalletData is what non-owners see for public wallets and what the
// marketplace previews. The wallet address is never part of this shape.
type AggregatedWalletData struct {
	WalletID    string             `json:"wallet_id"`
	PrivacyMode domain.PrivacyMode `json:"privacy_mode"`
	Metrics     BehavioralMetrics  `json:"metrics"`
	Score       *float64           `json:"score,omitempty"`
}

// FullWalletData is the owner's (or paid requester's) view, address included
type FullWalletData struct {
	WalletID    string             `json:"wallet_id"`
	Address     string             `json:"address"`
	Label       string             `json:"label"`
	PrivacyMode domain.PrivacyMode `json:"privacy_mode"`
	Metrics     BehavioralMetrics  `json:"metrics"`
	Score       *float64           `json:"score,omitempty"`
}

// WalletData carries exactly one of the two data shapes, matching Level
type WalletData struct {
	Level      domain.DataLevel      `json:"level"`
	Full       *FullWalletData       `json:"full,omitempty"`
	Aggregated *AggregatedWalletData `json:"aggregated,omitempty"`
}

// ProjectPrivacyStats tallies a project's wallets per privacy mode
type ProjectPrivacyStats struct {
	ProjectID   string `json:"project_id"`
	Total       int64  `json:"total"`
	Private     int64  `json:"private"`
	Public      int64  `json:"public"`
	Monetizable int64  `json:"monetizable"`
}

// SetPrivacyPreference sets a wallet's privacy mode. Any mode can transition
// to any other mode.
func (g *Gate) SetPrivacyPreference(ctx context.Context, walletID string, mode domain.PrivacyMode) error {
	if !domain.IsValidPrivacyMode(mode) {
		return domain.NewValidationError("privacy_mode", fmt.Sprintf("invalid mode %q", mode))
	}
	return g.store.SetWalletPrivacyMode(ctx, walletID, mode)
}

// GetPrivacyMode returns a wallet's current privacy mode
func (g *Gate) GetPrivacyMode(ctx context.Context, walletID string) (domain.PrivacyMode, error) {
	wallet, err := g.store.GetWallet(ctx, walletID)
	if err != nil {
		return "", fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return "", domain.ErrWalletNotFound
	}
	return wallet.PrivacyMode, nil
}

// CheckDataAccess decides what level of wallet data a requester may see.
// Owners always get full access. Paid status is only consulted for
// monetizable wallets.
func (g *Gate) CheckDataAccess(ctx context.Context, walletID, requesterID string) (domain.AccessDecision, error) {
	wallet, err := g.store.GetWallet(ctx, walletID)
	if err != nil {
		return domain.AccessDecision{}, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return domain.AccessDecision{}, domain.ErrWalletNotFound
	}

	project, err := g.store.GetProject(ctx, wallet.ProjectID)
	if err != nil {
		return domain.AccessDecision{}, fmt.Errorf("failed to load project: %w", err)
	}
	if project != nil && project.OwnerID == requesterID {
		return domain.AccessDecision{
			Allowed:   true,
			Reason:    "owner",
			DataLevel: domain.DataLevelFull,
		}, nil
	}

	switch wallet.PrivacyMode {
	case domain.PrivacyModePublic:
		return domain.AccessDecision{
			Allowed:   true,
			Reason:    "public wallet",
			DataLevel: domain.DataLevelAggregated,
		}, nil

	case domain.PrivacyModeMonetizable:
		paid, err := g.store.HasPaidAccess(ctx, requesterID, walletID)
		if err != nil {
			return domain.AccessDecision{}, fmt.Errorf("failed to check paid access: %w", err)
		}
		if paid {
			return domain.AccessDecision{
				Allowed:   true,
				Reason:    "paid access",
				DataLevel: domain.DataLevelFull,
			}, nil
		}
		return domain.AccessDecision{
			Allowed:         false,
			Reason:          "payment required",
			DataLevel:       domain.DataLevelNone,
			RequiresPayment: true,
		}, nil

	default:
		return domain.AccessDecision{
			Allowed:   false,
			Reason:    "private wallet",
			DataLevel: domain.DataLevelNone,
		}, nil
	}
}

// GetWalletData evaluates access for the requester and returns wallet data at
// the granted level. Denied requests surface ErrPaymentRequired for unpaid
// monetizable wallets and ErrAccessDenied otherwise.
func (g *Gate) GetWalletData(ctx context.Context, walletID, requesterID string) (*WalletData, error) {
	decision, err := g.CheckDataAccess(ctx, walletID, requesterID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		if decision.RequiresPayment {
			return nil, domain.ErrPaymentRequired
		}
		return nil, domain.ErrAccessDenied
	}

	wallet, err := g.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrWalletNotFound
	}

	metrics, err := g.behavioralMetrics(ctx, walletID)
	if err != nil {
		return nil, err
	}

	var score *float64
	latest, err := g.store.GetLatestScore(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load score: %w", err)
	}
	if latest != nil {
		score = &latest.TotalScore
	}

	if decision.DataLevel == domain.DataLevelFull {
		return &WalletData{
			Level: domain.DataLevelFull,
			Full: &FullWalletData{
				WalletID:    wallet.ID,
				Address:     wallet.Address,
				Label:       wallet.Label,
				PrivacyMode: wallet.PrivacyMode,
				Metrics:     metrics,
				Score:       score,
			},
		}, nil
	}

	return &WalletData{
		Level: domain.DataLevelAggregated,
		Aggregated: &AggregatedWalletData{
			WalletID:    wallet.ID,
			PrivacyMode: wallet.PrivacyMode,
			Metrics:     metrics,
			Score:       score,
		},
	}, nil
}

// AggregatedPreview builds the anonymized marketplace preview for a wallet
func (g *Gate) AggregatedPreview(ctx context.Context, walletID string) (*AggregatedWalletData, error) {
	wallet, err := g.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrWalletNotFound
	}

	metrics, err := g.behavioralMetrics(ctx, walletID)
	if err != nil {
		return nil, err
	}

	var score *float64
	latest, err := g.store.GetLatestScore(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load score: %w", err)
	}
	if latest != nil {
		score = &latest.TotalScore
	}

	return &AggregatedWalletData{
		WalletID:    wallet.ID,
		PrivacyMode: wallet.PrivacyMode,
		Metrics:     metrics,
		Score:       score,
	}, nil
}

// Stats tallies a project's wallets per privacy mode
func (g *Gate) Stats(ctx context.Context, projectID string) (*ProjectPrivacyStats, error) {
	project, err := g.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, domain.ErrProjectNotFound
	}

	counts, err := g.store.CountWalletsByPrivacyMode(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count wallets: %w", err)
	}

	stats := &ProjectPrivacyStats{
		ProjectID:   projectID,
		Private:     counts[domain.PrivacyModePrivate],
		Public:      counts[domain.PrivacyModePublic],
		Monetizable: counts[domain.PrivacyModeMonetizable],
	}
	stats.Total = stats.Private + stats.Public + stats.Monetizable
	return stats, nil
}

func (g *Gate) behavioralMetrics(ctx context.Context, walletID string) (BehavioralMetrics, error) {
	since := g.clock.Now().UTC().Add(-metricsWindow)
	samples, err := g.store.GetMetricSamples(ctx, walletID, since)
	if err != nil {
		return BehavioralMetrics{}, fmt.Errorf("failed to load metric samples: %w", err)
	}

	m := BehavioralMetrics{WindowDays: int(metricsWindow.Hours() / 24)}
	var shielded, total int
	for _, s := range samples {
		m.TransactionCount += s.TransactionCount
		m.VolumeZEC += s.VolumeZEC
		shielded += s.ShieldedCount
		total += s.ShieldedCount + s.TransparentCount
		if s.Active {
			m.ActiveDays++
		}
	}
	if total > 0 {
		m.ShieldedShare = float64(shielded) / float64(total) * 100
	}
	return m, nil
}
