package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zlytics/wallet-insights/internal/alerting"
	"github.com/zlytics/wallet-insights/internal/api/middleware"
	"github.com/zlytics/wallet-insights/internal/api/shared/constants"
	"github.com/zlytics/wallet-insights/internal/api/shared/dto"
	"github.com/zlytics/wallet-insights/internal/benchmark"
	"github.com/zlytics/wallet-insights/internal/comparison"
	"github.com/zlytics/wallet-insights/internal/dashboard"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/insight"
	"github.com/zlytics/wallet-insights/internal/monetize"
	"github.com/zlytics/wallet-insights/internal/privacy"
	"github.com/zlytics/wallet-insights/internal/task"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)

	// GetPrivacyMode retrieves a wallet's privacy mode
	// GET /api/v1/wallets/:id/privacy
	GetPrivacyMode(c *gin.Context)

	// SetPrivacyMode updates a wallet's privacy mode (requires authentication)
	// PUT /api/v1/wallets/:id/privacy
	SetPrivacyMode(c *gin.Context)

	// CheckAccess evaluates the requester's access to a wallet's data
	// GET /api/v1/wallets/:id/access?requester_id=<id>
	CheckAccess(c *gin.Context)

	// GetWalletData returns wallet data at the level the privacy gate grants
	// GET /api/v1/wallets/:id/data?requester_id=<id>
	GetWalletData(c *gin.Context)

	// GetPrivacyStats tallies a project's wallets per privacy mode
	// GET /api/v1/projects/:id/privacy/stats
	GetPrivacyStats(c *gin.Context)

	// ListMarketplaceWallets lists monetizable wallets with anonymized previews
	// GET /api/v1/marketplace/wallets?min_score=<score>&sort=<score|purchases>&limit=<limit>&offset=<offset>
	ListMarketplaceWallets(c *gin.Context)

	// CreatePurchase creates a data-access payment and its gateway invoice
	// POST /api/v1/marketplace/purchases
	CreatePurchase(c *gin.Context)

	// GetPaymentStatus polls the gateway and settles the payment when paid
	// GET /api/v1/marketplace/purchases/:invoice_id
	GetPaymentStatus(c *gin.Context)

	// GetEarnings summarizes an owner's earnings
	// GET /api/v1/users/:id/earnings
	GetEarnings(c *gin.Context)

	// CreateWithdrawal withdraws pending earnings to a ZEC address (requires authentication)
	// POST /api/v1/users/:id/withdrawals
	CreateWithdrawal(c *gin.Context)

	// GetBenchmarks retrieves the latest benchmark snapshots for a category
	// GET /api/v1/benchmarks?category=<category>&type=<type>
	GetBenchmarks(c *gin.Context)

	// StoreBenchmark computes and stores a benchmark snapshot from peer values (requires authentication)
	// POST /api/v1/benchmarks
	StoreBenchmark(c *gin.Context)

	// GetComparison compares a project against its market benchmarks
	// GET /api/v1/projects/:id/comparison?target=<p25|p50|p75|p90>
	GetComparison(c *gin.Context)

	// GetShieldedComparison compares a project's shielded vs transparent activity
	// GET /api/v1/projects/:id/comparison/shielded
	GetShieldedComparison(c *gin.Context)

	// GetInsights builds competitive insights and quick wins for a project
	// GET /api/v1/projects/:id/insights
	GetInsights(c *gin.Context)

	// GetRecommendations generates and persists strategic recommendations
	// GET /api/v1/projects/:id/recommendations
	GetRecommendations(c *gin.Context)

	// CreateTask accepts a recommendation as a tracked task (requires authentication)
	// POST /api/v1/recommendations/:id/tasks
	CreateTask(c *gin.Context)

	// CheckTask recomputes task completion against live metrics
	// POST /api/v1/tasks/:id/check
	CheckTask(c *gin.Context)

	// ScanAlerts runs the threshold scan for a project
	// GET /api/v1/projects/:id/alerts
	ScanAlerts(c *gin.Context)

	// EnrichAlert builds response guidance for an alert payload
	// POST /api/v1/alerts/enrich
	EnrichAlert(c *gin.Context)

	// GetDashboard returns the cached project dashboard
	// GET /api/v1/projects/:id/dashboard
	GetDashboard(c *gin.Context)

	// ExportReport renders the dashboard as a downloadable report
	// GET /api/v1/projects/:id/report?format=<json|csv>
	ExportReport(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	privacy    *privacy.Gate
	monetize   *monetize.Service
	benchmarks *benchmark.Service
	comparison *comparison.Service
	insights   *insight.Service
	tasks      *task.Service
	alerts     *alerting.Service
	dashboards *dashboard.Service
}

// NewHandler creates a new REST API handler
func NewHandler(
	gate *privacy.Gate,
	mon *monetize.Service,
	bm *benchmark.Service,
	cmp *comparison.Service,
	ins *insight.Service,
	tasks *task.Service,
	alerts *alerting.Service,
	dash *dashboard.Service,
) Handler {
	return &handler{
		privacy:    gate,
		monetize:   mon,
		benchmarks: bm,
		comparison: cmp,
		insights:   ins,
		tasks:      tasks,
		alerts:     alerts,
		dashboards: dash,
	}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OK(dto.HealthResponse{
		Status:  "ok",
		Service: "wallet-insights",
	}))
}

// GetPrivacyMode retrieves a wallet's privacy mode
func (h *handler) GetPrivacyMode(c *gin.Context) {
	walletID := c.Param("id")
	if walletID == "" {
		respondBadRequest(c, "Wallet ID is required")
		return
	}

	mode, err := h.privacy.GetPrivacyMode(c.Request.Context(), walletID)
	if err != nil {
		respondServiceError(c, err, "Failed to get privacy mode")
		return
	}

	c.JSON(http.StatusOK, dto.OK(dto.PrivacyModeResponse{WalletID: walletID, Mode: string(mode)}))
}

// SetPrivacyMode updates a wallet's privacy mode
func (h *handler) SetPrivacyMode(c *gin.Context) {
	walletID := c.Param("id")
	if walletID == "" {
		respondBadRequest(c, "Wallet ID is required")
		return
	}

	var req dto.SetPrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(c, err, "Invalid privacy mode")
		return
	}

	err := h.privacy.SetPrivacyPreference(c.Request.Context(), walletID, domain.PrivacyMode(req.Mode))
	if err != nil {
		respondServiceError(c, err, "Failed to set privacy mode")
		return
	}

	c.JSON(http.StatusOK, dto.OKMessage(
		dto.PrivacyModeResponse{WalletID: walletID, Mode: req.Mode},
		"privacy mode updated",
	))
}

// CheckAccess evaluates the requester's access to a wallet's data
func (h *handler) CheckAccess(c *gin.Context) {
	walletID := c.Param("id")
	if walletID == "" {
		respondBadRequest(c, "Wallet ID is required")
		return
	}

	decision, err := h.privacy.CheckDataAccess(c.Request.Context(), walletID, middleware.RequesterID(c))
	if err != nil {
		respondServiceError(c, err, "Failed to check access")
		return
	}

	c.JSON(http.StatusOK, dto.OK(decision))
}

// GetWalletData returns wallet data at the level the privacy gate grants
func (h *handler) GetWalletData(c *gin.Context) {
	walletID := c.Param("id")
	if walletID == "" {
		respondBadRequest(c, "Wallet ID is required")
		return
	}

	data, err := h.privacy.GetWalletData(c.Request.Context(), walletID, middleware.RequesterID(c))
	if err != nil {
		respondServiceError(c, err, "Failed to get wallet data")
		return
	}

	c.JSON(http.StatusOK, dto.OK(data))
}

// GetPrivacyStats tallies a project's wallets per privacy mode
func (h *handler) GetPrivacyStats(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		respondBadRequest(c, "Project ID is required")
		return
	}

	stats, err := h.privacy.Stats(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err, "Failed to get privacy stats")
		return
	}

	c.JSON(http.StatusOK, dto.OK(stats))
}

// ListMarketplaceWallets lists monetizable wallets with anonymized previews
func (h *handler) ListMarketplaceWallets(c *gin.Context) {
	filter, err := ParseMarketplaceQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	listings, err := h.monetize.MarketplaceListing(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to list marketplace wallets")
		return
	}

	c.JSON(http.StatusOK, dto.OK(listings))
}

// CreatePurchase creates a data-access payment and its gateway invoice
func (h *handler) CreatePurchase(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(c, err, "Invalid purchase request")
		return
	}

	invoice, err := h.monetize.CreateDataAccessPayment(c.Request.Context(), req.RequesterID, req.WalletID, req.Email)
	if err != nil {
		respondServiceError(c, err, "Failed to create purchase")
		return
	}

	c.JSON(http.StatusCreated, dto.OK(invoice))
}

// GetPaymentStatus polls the gateway and settles the payment when paid
func (h *handler) GetPaymentStatus(c *gin.Context) {
	invoiceID := c.Param("invoice_id")
	if invoiceID == "" {
		respondBadRequest(c, "Invoice ID is required")
		return
	}

	status, err := h.monetize.CheckPaymentStatus(c.Request.Context(), invoiceID)
	if err != nil {
		respondServiceError(c, err, "Failed to check payment status")
		return
	}

	c.JSON(http.StatusOK, dto.OK(status))
}

// GetEarnings summarizes an owner's earnings
func (h *handler) GetEarnings(c *gin.Context) {
	ownerID := c.Param("id")
	if ownerID == "" {
		respondBadRequest(c, "User ID is required")
		return
	}

	summary, err := h.monetize.Earnings(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, err, "Failed to get earnings")
		return
	}

	c.JSON(http.StatusOK, dto.OK(summary))
}

// CreateWithdrawal withdraws pending earnings to a ZEC address
func (h *handler) CreateWithdrawal(c *gin.Context) {
	ownerID := c.Param("id")
	if ownerID == "" {
		respondBadRequest(c, "User ID is required")
		return
	}

	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(c, err, "Invalid withdrawal request")
		return
	}

	receipt, err := h.monetize.RequestWithdrawal(c.Request.Context(), ownerID, req.ToAddress, req.AmountZEC)
	if err != nil {
		respondServiceError(c, err, "Failed to create withdrawal")
		return
	}

	c.JSON(http.StatusCreated, dto.OK(receipt))
}

// GetBenchmarks retrieves the latest benchmark snapshots for a category
func (h *handler) GetBenchmarks(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		respondValidationError(c, "category is required")
		return
	}

	if benchmarkType := c.Query("type"); benchmarkType != "" {
		b, err := h.benchmarks.Latest(c.Request.Context(), benchmarkType, category)
		if err != nil {
			respondServiceError(c, err, "Failed to get benchmark")
			return
		}
		if b == nil {
			respondNotFound(c, "Benchmark not found")
			return
		}
		c.JSON(http.StatusOK, dto.OK(b))
		return
	}

	benchmarks, err := h.benchmarks.ListLatest(c.Request.Context(), category)
	if err != nil {
		respondServiceError(c, err, "Failed to list benchmarks")
		return
	}

	c.JSON(http.StatusOK, dto.OK(benchmarks))
}

// StoreBenchmark computes and stores a benchmark snapshot from peer values
func (h *handler) StoreBenchmark(c *gin.Context) {
	var req dto.StoreBenchmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(c, err, "Invalid benchmark request")
		return
	}

	b, err := h.benchmarks.ComputeAndStore(c.Request.Context(), req.BenchmarkType, req.Category, req.Values)
	if err != nil {
		respondServiceError(c, err, "Failed to store benchmark")
		return
	}

	c.JSON(http.StatusCreated, dto.OK(b))
}

// GetComparison compares a project against its market benchmarks
func (h *handler) GetComparison(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		respondBadRequest(c, "Project ID is required")
		return
	}

	target, err := ParseTargetPercentile(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	result, err := h.comparison.CompareProjectToMarket(c.Request.Context(), projectID, target)
	if err != nil {
		respondServiceError(c, err, "Failed to compare project")
		return
	}

	c.JSON(http.StatusOK, dto.OK(result))
}

// GetShieldedComparison compares a project's shielded vs transparent activity
func (h *handler) GetShieldedComparison(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		respondBadRequest(c, "Project ID is required")
		return
	}

	result, err := h.comparison.CompareShieldedActivity(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err, "Failed to compare shielded activity")
		return
	}

	c.JSON(http.StatusOK, dto.OK(result))
}

// GetInsights builds competitive insights and quick wins for a project
func (h *handler) GetInsights(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		respondBadRequest(c, "Project ID is required")
		return
	}

	insights, err := h.insights.Insights(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err, "Failed to build insights")
		return
	}

	c.JSON(http.StatusOK, dto.OK(insights))
}

// GetRecommendations generates and persists strategic recommendations
func (h *handler) GetRecommendations(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		respondBadRequest(c, "Project ID is required")
		return
	}

	recs, err := h.insights.Recommendations(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err, "Failed to generate recommendations")
		return
	}

	c.JSON(http.StatusOK, dto.OK(recs))
}

// CreateTask accepts a recommendation as a tracked task
func (h *handler) CreateTask(c *gin.Context) {
	recommendationID := c.Param("id")
	if recommendationID == "" {
		respondBadRequest(c, "Recommendation ID is required")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(c, err, "Invalid task request")
		return
	}

	status, err := h.tasks.CreateTask(c.Request.Context(), recommendationID, req.WalletID)
	if err != nil {
		respondServiceError(c, err, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, dto.OK(status))
}

// CheckTask recomputes task completion against live metrics
func (h *handler) CheckTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "Task ID is required")
		return
	}

	status, err := h.tasks.CheckTask(c.Request.Context(), taskID)
	if err != nil {
		respondServiceError(c, err, "Failed to check task")
		return
	}

	c.JSON(http.StatusOK, dto.OK(status))
}

// ScanAlerts runs the threshold scan for a project. With ?history=N it
// returns the most recent logged alerts instead of scanning.
func (h *handler) ScanAlerts(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		respondBadRequest(c, "Project ID is required")
		return
	}

	if raw := c.Query("history"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondValidationError(c, "history must be a non-negative integer")
			return
		}
		if limit == 0 || limit > constants.MAX_ALERT_HISTORY_LIMIT {
			limit = constants.MAX_ALERT_HISTORY_LIMIT
		}

		history, err := h.alerts.History(c.Request.Context(), projectID, limit)
		if err != nil {
			respondServiceError(c, err, "Failed to load alert history")
			return
		}

		c.JSON(http.StatusOK, dto.OK(history))
		return
	}

	alerts, err := h.alerts.ScanProject(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err, "Failed to scan alerts")
		return
	}

	c.JSON(http.StatusOK, dto.OK(alerts))
}

// EnrichAlert builds response guidance for an alert payload
func (h *handler) EnrichAlert(c *gin.Context) {
	var req dto.EnrichAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondServiceError(c, err, "Invalid enrichment request")
		return
	}

	enriched := insight.GenerateAlertContent(req.Alert, req.Context)
	c.JSON(http.StatusOK, dto.OK(enriched))
}

// GetDashboard returns the cached project dashboard
func (h *handler) GetDashboard(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		respondBadRequest(c, "Project ID is required")
		return
	}

	d, err := h.dashboards.GetProjectDashboard(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err, "Failed to build dashboard")
		return
	}

	c.JSON(http.StatusOK, dto.OK(d))
}

// ExportReport renders the dashboard as a downloadable report
func (h *handler) ExportReport(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		respondBadRequest(c, "Project ID is required")
		return
	}

	format := c.DefaultQuery("format", "json")
	data, contentType, err := h.dashboards.Export(c.Request.Context(), projectID, format)
	if err != nil {
		respondServiceError(c, err, "Failed to export report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s.%s", projectID, format))
	c.Data(http.StatusOK, contentType, data)
}
