package dto

import (
	"fmt"
	"strings"

	"github.com/zlytics/wallet-insights/internal/api/shared/constants"
	apierrors "github.com/zlytics/wallet-insights/internal/api/shared/errors"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/insight"
)

// SetPrivacyRequest represents the request body for updating a wallet's privacy mode
type SetPrivacyRequest struct {
	Mode string `json:"mode"`
}

// Validate validates the request body
func (r *SetPrivacyRequest) Validate() error {
	switch domain.PrivacyMode(r.Mode) {
	case domain.PrivacyModePrivate, domain.PrivacyModePublic, domain.PrivacyModeMonetizable:
		return nil
	default:
		return apierrors.NewValidationError(fmt.Sprintf("invalid privacy mode: %s. Must be private, public or monetizable", r.Mode))
	}
}

// CreatePurchaseRequest represents the request body for purchasing wallet data access
type CreatePurchaseRequest struct {
	RequesterID string `json:"requester_id"`
	WalletID    string `json:"wallet_id"`
	Email       string `json:"email"`
}

// Validate validates the request body
func (r *CreatePurchaseRequest) Validate() error {
	if r.RequesterID == "" {
		return apierrors.NewValidationError("requester_id is required")
	}
	if r.WalletID == "" {
		return apierrors.NewValidationError("wallet_id is required")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return apierrors.NewValidationError(fmt.Sprintf("invalid email: %s", r.Email))
	}
	return nil
}

// CreateWithdrawalRequest represents the request body for withdrawing earnings
type CreateWithdrawalRequest struct {
	ToAddress string  `json:"to_address"`
	AmountZEC float64 `json:"amount_zec"`
}

// Validate validates the request body
func (r *CreateWithdrawalRequest) Validate() error {
	if r.ToAddress == "" {
		return apierrors.NewValidationError("to_address is required")
	}
	if r.AmountZEC <= 0 {
		return apierrors.NewValidationError("amount_zec must be positive")
	}
	return nil
}

// StoreBenchmarkRequest represents the request body for storing a benchmark
// snapshot. Percentiles are computed from the submitted peer values.
type StoreBenchmarkRequest struct {
	BenchmarkType string    `json:"benchmark_type"`
	Category      string    `json:"category"`
	Values        []float64 `json:"values"`
}

// Validate validates the request body
func (r *StoreBenchmarkRequest) Validate() error {
	if r.BenchmarkType == "" {
		return apierrors.NewValidationError("benchmark_type is required")
	}
	if r.Category == "" {
		return apierrors.NewValidationError("category is required")
	}
	if len(r.Values) == 0 {
		return apierrors.NewValidationError("values is required")
	}
	if len(r.Values) > constants.MAX_BENCHMARK_VALUES_PER_REQUEST {
		return apierrors.NewValidationError(fmt.Sprintf("maximum %d values allowed", constants.MAX_BENCHMARK_VALUES_PER_REQUEST))
	}
	return nil
}

// CreateTaskRequest represents the request body for accepting a recommendation
// as a tracked task
type CreateTaskRequest struct {
	WalletID string `json:"wallet_id"`
}

// Validate validates the request body
func (r *CreateTaskRequest) Validate() error {
	if r.WalletID == "" {
		return apierrors.NewValidationError("wallet_id is required")
	}
	return nil
}

// EnrichAlertRequest represents the request body for enriching an alert payload
type EnrichAlertRequest struct {
	Alert   domain.Alert              `json:"alert"`
	Context insight.EnrichmentContext `json:"context"`
}

// Validate validates the request body
func (r *EnrichAlertRequest) Validate() error {
	if r.Alert.Type == "" {
		return apierrors.NewValidationError("alert.type is required")
	}
	if r.Alert.Severity == "" {
		return apierrors.NewValidationError("alert.severity is required")
	}
	if r.Context.AffectedPercentage < 0 || r.Context.AffectedPercentage > 100 {
		return apierrors.NewValidationError("context.affected_percentage must be within [0,100]")
	}
	return nil
}
