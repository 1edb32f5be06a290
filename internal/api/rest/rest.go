package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/zlytics/wallet-insights/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Privacy gate (reads are open, preference changes require auth)
		v1.GET("/wallets/:id/privacy", handler.GetPrivacyMode)
		v1.PUT("/wallets/:id/privacy", middleware.Auth(authCfg), handler.SetPrivacyMode)
		v1.GET("/wallets/:id/access", handler.CheckAccess)
		v1.GET("/wallets/:id/data", handler.GetWalletData)
		v1.GET("/projects/:id/privacy/stats", handler.GetPrivacyStats)

		// Marketplace
		v1.GET("/marketplace/wallets", handler.ListMarketplaceWallets)
		v1.POST("/marketplace/purchases", handler.CreatePurchase)
		v1.GET("/marketplace/purchases/:invoice_id", handler.GetPaymentStatus)

		// Earnings and withdrawals (withdrawals move funds, so they require auth)
		v1.GET("/users/:id/earnings", handler.GetEarnings)
		v1.POST("/users/:id/withdrawals", middleware.Auth(authCfg), handler.CreateWithdrawal)

		// Benchmarks (snapshots are written by trusted aggregation jobs)
		v1.GET("/benchmarks", handler.GetBenchmarks)
		v1.POST("/benchmarks", middleware.Auth(authCfg), handler.StoreBenchmark)

		// Comparison and insights
		v1.GET("/projects/:id/comparison", handler.GetComparison)
		v1.GET("/projects/:id/comparison/shielded", handler.GetShieldedComparison)
		v1.GET("/projects/:id/insights", handler.GetInsights)
		v1.GET("/projects/:id/recommendations", handler.GetRecommendations)

		// Tasks
		v1.POST("/recommendations/:id/tasks", middleware.Auth(authCfg), handler.CreateTask)
		v1.POST("/tasks/:id/check", handler.CheckTask)

		// Alerts
		v1.GET("/projects/:id/alerts", handler.ScanAlerts)
		v1.POST("/alerts/enrich", handler.EnrichAlert)

		// Dashboard and reports
		v1.GET("/projects/:id/dashboard", handler.GetDashboard)
		v1.GET("/projects/:id/report", handler.ExportReport)
	}
}
