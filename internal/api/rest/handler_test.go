package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/alerting"
	"github.com/zlytics/wallet-insights/internal/api/middleware"
	"github.com/zlytics/wallet-insights/internal/api/shared/dto"
	"github.com/zlytics/wallet-insights/internal/benchmark"
	"github.com/zlytics/wallet-insights/internal/cache"
	"github.com/zlytics/wallet-insights/internal/comparison"
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/dashboard"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/gateway"
	"github.com/zlytics/wallet-insights/internal/insight"
	"github.com/zlytics/wallet-insights/internal/logger"
	"github.com/zlytics/wallet-insights/internal/monetize"
	"github.com/zlytics/wallet-insights/internal/privacy"
	"github.com/zlytics/wallet-insights/internal/store"
	"github.com/zlytics/wallet-insights/internal/store/schema"
	"github.com/zlytics/wallet-insights/internal/task"
)

const testAPIKey = "test-api-key"

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

// fakeGateway satisfies the payment gateway without a network
type fakeGateway struct {
	invoiceSeq int
}

func (g *fakeGateway) CreateInvoice(_ context.Context, _ string, amountZEC float64, _ string) (*gateway.Invoice, error) {
	g.invoiceSeq++
	id := fmt.Sprintf("inv-%d", g.invoiceSeq)
	return &gateway.Invoice{
		InvoiceID:  id,
		Address:    "zs1gatewayaddr",
		QRCode:     "qr-" + id,
		PaymentURI: fmt.Sprintf("zcash:zs1gatewayaddr?amount=%.4f", amountZEC),
	}, nil
}

func (g *fakeGateway) CheckPayment(context.Context, string) (*gateway.PaymentState, error) {
	return &gateway.PaymentState{Paid: false}, nil
}

func (g *fakeGateway) CreateWithdrawal(context.Context, string, string, float64) (*gateway.Withdrawal, error) {
	return &gateway.Withdrawal{WithdrawalID: "gw-wd-1"}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, store.Store) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	clock := adapter.NewClock()

	require.NoError(t, s.CreateProject(ctx, &schema.Project{
		ID: "p1", OwnerID: "owner1", Name: "Test", Category: "defi",
	}))
	for _, w := range []*schema.Wallet{
		{ID: "w-public", ProjectID: "p1", Address: "zs1public", PrivacyMode: domain.PrivacyModePublic, CreatedAt: clock.Now()},
		{ID: "w-private", ProjectID: "p1", Address: "zs1private", PrivacyMode: domain.PrivacyModePrivate, CreatedAt: clock.Now()},
		{ID: "w-monetize", ProjectID: "p1", Address: "zs1monetize", PrivacyMode: domain.PrivacyModeMonetizable, CreatedAt: clock.Now()},
	} {
		require.NoError(t, s.CreateWallet(ctx, w))
	}

	gate := privacy.NewGate(s, clock)
	benchmarks := benchmark.NewService(s, clock)
	cmp := comparison.NewService(s, benchmarks, clock, config.ComparisonConfig{
		TopPerformerMin:  4.0,
		AverageMin:       2.5,
		GapHighPercent:   50.0,
		GapMediumPercent: 10.0,
	})
	insights := insight.NewService(s, cmp, clock)
	tasks := task.NewService(s, clock)
	alerts := alerting.NewService(s, clock, alerting.DefaultThresholds())
	mon := monetize.NewService(s, &fakeGateway{}, gate, clock, config.MonetizationConfig{
		WalletPriceZEC:    1.0,
		OwnerSharePercent: 80.0,
	})
	dashboards := dashboard.NewService(
		s, cache.NewQueryCache(clock), alerts, insights, cmp, clock,
		config.CacheConfig{DashboardTTL: 5 * time.Minute},
		config.BatchConfig{ChunkSize: 10, PoolSize: 2, QueueSize: 16},
	)

	router := gin.New()
	handler := NewHandler(gate, mon, benchmarks, cmp, insights, tasks, alerts, dashboards)
	SetupRoutes(router, handler, middleware.AuthConfig{APIKeys: []string{testAPIKey}})
	return router, s
}

func doRequest(router *gin.Engine, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "APIKey "+testAPIKey)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestPrivacyEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("get privacy mode", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/wallets/w-public/privacy", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		require.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "public", data["mode"])
	})

	t.Run("unknown wallet is a 404", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/wallets/nope/privacy", nil, false)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, decodeResponse(t, w).Success)
	})

	t.Run("set privacy mode requires auth", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/v1/wallets/w-private/privacy",
			dto.SetPrivacyRequest{Mode: "public"}, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("set privacy mode", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/v1/wallets/w-private/privacy",
			dto.SetPrivacyRequest{Mode: "public"}, true)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(router, http.MethodGet, "/api/v1/wallets/w-private/privacy", nil, false)
		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "public", data["mode"])
	})

	t.Run("invalid privacy mode", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/v1/wallets/w-private/privacy",
			dto.SetPrivacyRequest{Mode: "stealth"}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("privacy stats", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/projects/p1/privacy/stats", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.EqualValues(t, 3, data["total"])
	})
}

func TestAccessGating(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("public wallet grants aggregated access", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/wallets/w-public/access?requester_id=stranger", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, true, data["allowed"])
		assert.Equal(t, "aggregated", data["data_level"])
	})

	t.Run("unpaid monetizable wallet requires payment", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/wallets/w-monetize/access?requester_id=stranger", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, false, data["allowed"])
		assert.Equal(t, true, data["requires_payment"])
	})

	t.Run("gated data returns 402 for unpaid monetizable", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/wallets/w-monetize/data?requester_id=stranger", nil, false)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("gated data returns 403 for private", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/wallets/w-private/data?requester_id=stranger", nil, false)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner gets full data", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/wallets/w-private/data?requester_id=owner1", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "full", data["level"])
	})
}

func TestMarketplaceEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("listing shows monetizable wallets", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/marketplace/wallets", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		listings := resp.Data.([]interface{})
		require.Len(t, listings, 1)
	})

	t.Run("invalid sort is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/marketplace/wallets?sort=price", nil, false)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("purchase creates a pending payment", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/marketplace/purchases",
			dto.CreatePurchaseRequest{RequesterID: "buyer1", WalletID: "w-monetize"}, false)
		require.Equal(t, http.StatusCreated, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		invoiceID := data["invoice_id"].(string)
		require.NotEmpty(t, invoiceID)

		w = doRequest(router, http.MethodGet, "/api/v1/marketplace/purchases/"+invoiceID, nil, false)
		require.Equal(t, http.StatusOK, w.Code)
		status := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "pending", status["status"])
	})

	t.Run("purchasing a private wallet is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/marketplace/purchases",
			dto.CreatePurchaseRequest{RequesterID: "buyer1", WalletID: "w-private"}, false)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown invoice is a 404", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/marketplace/purchases/inv-unknown", nil, false)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEarningsAndWithdrawals(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("earnings summary is empty without sales", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/users/owner1/earnings", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.EqualValues(t, 0, data["pending_zec"])
	})

	t.Run("withdrawal requires auth", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/users/owner1/withdrawals",
			dto.CreateWithdrawalRequest{ToAddress: "zs1payout", AmountZEC: 1.0}, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("withdrawal over balance is a 422", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/users/owner1/withdrawals",
			dto.CreateWithdrawalRequest{ToAddress: "zs1payout", AmountZEC: 1.0}, true)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/users/owner1/withdrawals",
			dto.CreateWithdrawalRequest{ToAddress: "zs1payout", AmountZEC: 0}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBenchmarkEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("store and fetch a snapshot", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/benchmarks", dto.StoreBenchmarkRequest{
			BenchmarkType: "retention",
			Category:      "defi",
			Values:        []float64{10, 20, 30, 40, 50},
		}, true)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(router, http.MethodGet, "/api/v1/benchmarks?category=defi&type=retention", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		percentiles := data["percentiles"].(map[string]interface{})
		assert.EqualValues(t, 30, percentiles["p50"])
	})

	t.Run("category is required", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/benchmarks", nil, false)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing snapshot is a 404", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/benchmarks?category=defi&type=adoption", nil, false)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty values are rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/benchmarks", dto.StoreBenchmarkRequest{
			BenchmarkType: "retention",
			Category:      "defi",
		}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAlertEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("scan succeeds on a quiet project", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/projects/p1/alerts", nil, false)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeResponse(t, w).Success)
	})

	t.Run("history returns logged alerts", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/projects/p1/alerts?history=10", nil, false)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeResponse(t, w).Success)
	})

	t.Run("history rejects a negative limit", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/projects/p1/alerts?history=-1", nil, false)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("enrich returns guidance", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/alerts/enrich", dto.EnrichAlertRequest{
			Alert: domain.Alert{
				Type:     domain.AlertRetentionCritical,
				Severity: domain.AlertSeverityCritical,
				Message:  "retention fell below the critical floor",
			},
			Context: insight.EnrichmentContext{WorseningTrend: true, AffectedPercentage: 40},
		}, false)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		urgency := data["urgency"].(map[string]interface{})
		assert.Equal(t, "critical", urgency["level"])
		assert.NotEmpty(t, data["ai_suggestions"])
	})

	t.Run("enrich validates the payload", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/alerts/enrich", dto.EnrichAlertRequest{
			Alert: domain.Alert{Severity: domain.AlertSeverityInfo},
		}, false)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDashboardEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("dashboard renders", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/projects/p1/dashboard", nil, false)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "p1", data["project_id"])
	})

	t.Run("unknown project is a 404", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/projects/ghost/dashboard", nil, false)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("csv report downloads", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/projects/p1/report?format=csv", nil, false)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "report-p1.csv")
		assert.Contains(t, w.Body.String(), "OVERVIEW")
	})

	t.Run("unsupported format is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/projects/p1/report?format=xml", nil, false)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
