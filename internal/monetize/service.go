package monetize

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/gateway"
	"github.com/zlytics/wallet-insights/internal/logger"
	"github.com/zlytics/wallet-insights/internal/privacy"
	"github.com/zlytics/wallet-insights/internal/store"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// Service sells access to monetizable wallet data and accounts for the
// owner's earnings
type Service struct {
	store   store.Store
	gateway gateway.Client
	privacy *privacy.Gate
	clock   adapter.Clock
	cfg     config.MonetizationConfig
}

// NewService creates a new monetization service
func NewService(s store.Store, gw gateway.Client, gate *privacy.Gate, clock adapter.Clock, cfg config.MonetizationConfig) *Service {
	return &Service{
		store:   s,
		gateway: gw,
		privacy: gate,
		clock:   clock,
		cfg:     cfg,
	}
}

// PurchaseInvoice is returned to a buyer starting a data-access purchase
type PurchaseInvoice struct {
	PaymentID  string  `json:"payment_id"`
	InvoiceID  string  `json:"invoice_id"`
	Address    string  `json:"address"`
	QRCode     string  `json:"qr_code"`
	PaymentURI string  `json:"payment_uri"`
	AmountZEC  float64 `json:"amount_zec"`
}

// PaymentStatus is the buyer's view of a purchase in flight
type PaymentStatus struct {
	PaymentID string               `json:"payment_id"`
	InvoiceID string               `json:"invoice_id"`
	WalletID  string               `json:"wallet_id"`
	Status    domain.PaymentStatus `json:"status"`
	TxID      string               `json:"txid,omitempty"`
}

// WithdrawalReceipt confirms an accepted payout
type WithdrawalReceipt struct {
	WithdrawalID string  `json:"withdrawal_id"`
	GatewayRef   string  `json:"gateway_ref"`
	ToAddress    string  `json:"to_address"`
	AmountZEC    float64 `json:"amount_zec"`
}

// EarningsSummary lists an owner's earnings with pending and withdrawn totals.
// PendingPayoutZEC is the amount tied up in withdrawals the gateway has not
// yet confirmed.
type EarningsSummary struct {
	Earnings         []*schema.Earning    `json:"earnings"`
	Withdrawals      []*schema.Withdrawal `json:"withdrawals"`
	PendingZEC       float64              `json:"pending_zec"`
	WithdrawnZEC     float64              `json:"withdrawn_zec"`
	PendingPayoutZEC float64              `json:"pending_payout_zec"`
	PlatformFeeZEC   float64              `json:"platform_fee_zec"`
}

// Listing is one marketplace entry: an anonymized preview plus purchase stats
type Listing struct {
	Preview       *privacy.AggregatedWalletData `json:"preview"`
	PriceZEC      float64                       `json:"price_zec"`
	PurchaseCount int                           `json:"purchase_count"`
}

// CreateDataAccessPayment opens a purchase of a monetizable wallet's data.
// An invoice is created at the gateway before the pending payment record is
// persisted, so a recorded payment can always be polled.
func (s *Service) CreateDataAccessPayment(ctx context.Context, requesterID, walletID, email string) (*PurchaseInvoice, error) {
	if requesterID == "" {
		return nil, domain.NewValidationError("requester_id", "must not be empty")
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "must be a valid email address")
	}

	wallet, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrWalletNotFound
	}
	if wallet.PrivacyMode != domain.PrivacyModeMonetizable {
		return nil, domain.NewValidationError("wallet_id", "wallet is not monetizable")
	}

	invoice, err := s.gateway.CreateInvoice(ctx, requesterID, s.cfg.WalletPriceZEC, walletID)
	if err != nil {
		return nil, err
	}

	payment := &schema.DataAccessPayment{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		WalletID:    walletID,
		InvoiceID:   invoice.InvoiceID,
		AmountZEC:   s.cfg.WalletPriceZEC,
		Status:      domain.PaymentStatusPending,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.store.CreateDataAccessPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	return &PurchaseInvoice{
		PaymentID:  payment.ID,
		InvoiceID:  invoice.InvoiceID,
		Address:    invoice.Address,
		QRCode:     invoice.QRCode,
		PaymentURI: invoice.PaymentURI,
		AmountZEC:  payment.AmountZEC,
	}, nil
}

// CheckPaymentStatus polls the gateway for an invoice. On the first observed
// paid transition the payment record flips to paid and the wallet owner's
// earning is credited at the configured split, exactly once.
func (s *Service) CheckPaymentStatus(ctx context.Context, invoiceID string) (*PaymentStatus, error) {
	payment, err := s.store.GetPaymentByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, domain.ErrInvoiceNotFound
	}

	status := &PaymentStatus{
		PaymentID: payment.ID,
		InvoiceID: payment.InvoiceID,
		WalletID:  payment.WalletID,
		Status:    payment.Status,
	}
	if payment.Status == domain.PaymentStatusPaid {
		return status, nil
	}

	state, err := s.gateway.CheckPayment(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !state.Paid {
		return status, nil
	}

	earning, err := s.buildEarning(ctx, payment)
	if err != nil {
		return nil, err
	}

	credited, err := s.store.MarkPaymentPaid(ctx, invoiceID, s.clock.Now().UTC(), earning)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment paid: %w", err)
	}
	if credited {
		logger.InfoCtx(ctx, "data access payment completed",
			zap.String("invoice_id", invoiceID),
			zap.String("wallet_id", payment.WalletID),
			zap.Float64("owner_share_zec", earning.AmountZEC),
			zap.Float64("platform_fee_zec", earning.PlatformFeeZEC))
	}

	status.Status = domain.PaymentStatusPaid
	status.TxID = state.TxID
	return status, nil
}

// buildEarning splits a payment into the owner's share and the platform fee
func (s *Service) buildEarning(ctx context.Context, payment *schema.DataAccessPayment) (*schema.Earning, error) {
	wallet, err := s.store.GetWallet(ctx, payment.WalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrWalletNotFound
	}
	project, err := s.store.GetProject(ctx, wallet.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, domain.ErrProjectNotFound
	}

	ownerShare := payment.AmountZEC * s.cfg.OwnerSharePercent / 100
	return &schema.Earning{
		ID:             uuid.New().String(),
		OwnerID:        project.OwnerID,
		WalletID:       payment.WalletID,
		PaymentID:      payment.ID,
		AmountZEC:      ownerShare,
		PlatformFeeZEC: payment.AmountZEC - ownerShare,
		Status:         domain.EarningStatusPending,
		CreatedAt:      s.clock.Now().UTC(),
	}, nil
}

// RequestWithdrawal pays out pending earnings to a Zcash address. Earnings
// are deducted atomically before the gateway payout is requested, so two
// concurrent withdrawals can never both spend the same earning.
func (s *Service) RequestWithdrawal(ctx context.Context, ownerID, toAddress string, amountZEC float64) (*WithdrawalReceipt, error) {
	if toAddress == "" {
		return nil, domain.NewValidationError("to_address", "must not be empty")
	}
	if amountZEC <= 0 {
		return nil, domain.NewValidationError("amount_zec", "must be positive")
	}

	withdrawal := &schema.Withdrawal{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		ToAddress: toAddress,
		AmountZEC: amountZEC,
		Status:    domain.WithdrawalStatusPayoutPending,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.store.ConsumeEarnings(ctx, withdrawal); err != nil {
		return nil, err
	}

	payout, err := s.gateway.CreateWithdrawal(ctx, ownerID, toAddress, amountZEC)
	if err != nil {
		// earnings stay consumed and the row stays payout_pending, so the
		// payout can be replayed without double-spending the balance
		logger.ErrorCtx(ctx, fmt.Errorf("withdrawal payout failed, left pending for replay: %w", err),
			zap.String("withdrawal_id", withdrawal.ID),
			zap.String("owner_id", ownerID))
		return nil, err
	}

	if err := s.store.SetWithdrawalGatewayRef(ctx, withdrawal.ID, payout.WithdrawalID); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record withdrawal gateway ref: %w", err),
			zap.String("withdrawal_id", withdrawal.ID),
			zap.String("gateway_ref", payout.WithdrawalID))
	}

	return &WithdrawalReceipt{
		WithdrawalID: withdrawal.ID,
		GatewayRef:   payout.WithdrawalID,
		ToAddress:    toAddress,
		AmountZEC:    amountZEC,
	}, nil
}

// Earnings summarizes an owner's credited earnings
func (s *Service) Earnings(ctx context.Context, ownerID string) (*EarningsSummary, error) {
	earnings, err := s.store.ListEarnings(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}

	withdrawals, err := s.store.ListWithdrawals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}

	// the pending total comes from the same store query the withdrawal path
	// checks against, so the summary never overstates what is withdrawable
	pending, err := s.store.PendingEarningsTotal(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum pending earnings: %w", err)
	}

	summary := &EarningsSummary{Earnings: earnings, Withdrawals: withdrawals, PendingZEC: pending}
	for _, e := range earnings {
		summary.PlatformFeeZEC += e.PlatformFeeZEC
		if e.Status == domain.EarningStatusWithdrawn {
			summary.WithdrawnZEC += e.AmountZEC
		}
	}
	for _, w := range withdrawals {
		if w.Status == domain.WithdrawalStatusPayoutPending {
			summary.PendingPayoutZEC += w.AmountZEC
		}
	}
	return summary, nil
}

// MarketplaceListing lists monetizable wallets with anonymized previews.
// Wallets whose preview cannot be built are skipped rather than failing the
// whole listing.
func (s *Service) MarketplaceListing(ctx context.Context, filter store.MarketplaceFilter) ([]*Listing, error) {
	wallets, err := s.store.ListMonetizableWallets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list monetizable wallets: %w", err)
	}

	listings := make([]*Listing, 0, len(wallets))
	for _, w := range wallets {
		preview, err := s.privacy.AggregatedPreview(ctx, w.ID)
		if err != nil {
			logger.WarnCtx(ctx, "skipping marketplace wallet without preview",
				zap.String("wallet_id", w.ID), zap.Error(err))
			continue
		}
		listings = append(listings, &Listing{
			Preview:       preview,
			PriceZEC:      s.cfg.WalletPriceZEC,
			PurchaseCount: w.PurchaseCount,
		})
	}
	return listings, nil
}
