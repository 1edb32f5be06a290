package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/logger"
)

// Invoice is a payment request issued by the gateway. The requester pays the
// address (or scans the QR code) and the gateway reports the payment later.
type Invoice struct {
	InvoiceID  string `json:"invoice_id"`
	Address    string `json:"address"`
	QRCode     string `json:"qr_code"`
	PaymentURI string `json:"payment_uri"`
}

// PaymentState is the gateway's view of an invoice
type PaymentState struct {
	Paid bool   `json:"paid"`
	TxID string `json:"txid,omitempty"`
}

// Withdrawal is an accepted payout request
type Withdrawal struct {
	WithdrawalID string `json:"withdrawal_id"`
}

// Client defines the payment gateway operations
type Client interface {
	// CreateInvoice opens an invoice for a requester buying wallet data access
	CreateInvoice(ctx context.Context, requesterID string, amountZEC float64, walletID string) (*Invoice, error)

	// CheckPayment returns the current payment state of an invoice
	CheckPayment(ctx context.Context, invoiceID string) (*PaymentState, error)

	// CreateWithdrawal requests a payout of earned ZEC to a Zcash address
	CreateWithdrawal(ctx context.Context, ownerID, toAddress string, amountZEC float64) (*Withdrawal, error)
}

// httpClient implements Client against the gateway's HTTP API
type httpClient struct {
	client *http.Client
	cfg    config.GatewayConfig
}

// NewHTTPClient creates a gateway client from configuration
func NewHTTPClient(cfg config.GatewayConfig) Client {
	return &httpClient{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		cfg: cfg,
	}
}

func (c *httpClient) CreateInvoice(ctx context.Context, requesterID string, amountZEC float64, walletID string) (*Invoice, error) {
	payload := map[string]interface{}{
		"requester_id": requesterID,
		"amount_zec":   amountZEC,
		"item_id":      walletID,
	}

	var invoice Invoice
	if err := c.postJSON(ctx, "/v1/invoices", payload, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (c *httpClient) CheckPayment(ctx context.Context, invoiceID string) (*PaymentState, error) {
	var state PaymentState
	if err := c.get(ctx, "/v1/invoices/"+invoiceID, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *httpClient) CreateWithdrawal(ctx context.Context, ownerID, toAddress string, amountZEC float64) (*Withdrawal, error) {
	payload := map[string]interface{}{
		"owner_id":   ownerID,
		"to_address": toAddress,
		"amount_zec": amountZEC,
	}

	var withdrawal Withdrawal
	if err := c.postJSON(ctx, "/v1/withdrawals", payload, &withdrawal); err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (c *httpClient) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	body, err := c.doRequestWithRetry(ctx, req, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *httpClient) postJSON(ctx context.Context, path string, payload, result interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.doRequestWithRetry(ctx, req, reqBody)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doRequestWithRetry executes an HTTP request with exponential backoff.
// Rate limiting and server-side failures are retried; other non-OK statuses
// are permanent. An exhausted retry budget maps to ErrUpstreamUnavailable.
func (c *httpClient) doRequestWithRetry(ctx context.Context, req *http.Request, reqBody []byte) ([]byte, error) {
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	var respBody []byte

	operation := func() error {
		// the body must be rewound on every attempt
		if reqBody != nil {
			req.Body = io.NopCloser(bytes.NewReader(reqBody))
			req.ContentLength = int64(len(reqBody))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Network errors are retryable
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("url", req.URL.String()))
			}
		}()

		if resp.StatusCode == http.StatusTooManyRequests {
			logger.WarnCtx(ctx, "gateway rate limited, retrying with backoff", zap.String("url", req.URL.String()))
			return fmt.Errorf("%w: rate limited (429)", domain.ErrUpstreamUnavailable)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			logger.WarnCtx(ctx, "gateway server error, retrying with backoff",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode))
			return fmt.Errorf("%w: server error (%d)", domain.ErrUpstreamUnavailable, resp.StatusCode)
		}

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body)))
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = c.cfg.MaxRetryFor
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}

	return respBody, nil
}
