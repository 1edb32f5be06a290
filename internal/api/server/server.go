package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/alerting"
	"github.com/zlytics/wallet-insights/internal/api/middleware"
	"github.com/zlytics/wallet-insights/internal/api/rest"
	"github.com/zlytics/wallet-insights/internal/benchmark"
	"github.com/zlytics/wallet-insights/internal/cache"
	"github.com/zlytics/wallet-insights/internal/comparison"
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/dashboard"
	"github.com/zlytics/wallet-insights/internal/gateway"
	"github.com/zlytics/wallet-insights/internal/insight"
	"github.com/zlytics/wallet-insights/internal/logger"
	"github.com/zlytics/wallet-insights/internal/monetize"
	"github.com/zlytics/wallet-insights/internal/privacy"
	"github.com/zlytics/wallet-insights/internal/store"
	"github.com/zlytics/wallet-insights/internal/task"
)

// Server wraps the HTTP server and the services behind it
type Server struct {
	config     *config.APIConfig
	store      store.Store
	gateway    gateway.Client
	clock      adapter.Clock
	cache      *cache.QueryCache
	httpServer *http.Server
	sweepStop  chan struct{}
}

// New creates a new API server
func New(cfg *config.APIConfig, st store.Store, gw gateway.Client, clock adapter.Clock) *Server {
	return &Server{
		config:    cfg,
		store:     st,
		gateway:   gw,
		clock:     clock,
		cache:     cache.NewQueryCache(clock),
		sweepStop: make(chan struct{}),
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(s.config.Server.AllowOrigins))

	// Wire services
	gate := privacy.NewGate(s.store, s.clock)
	benchmarks := benchmark.NewService(s.store, s.clock)
	cmp := comparison.NewService(s.store, benchmarks, s.clock, s.config.Comparison)
	insights := insight.NewService(s.store, cmp, s.clock)
	tasks := task.NewService(s.store, s.clock)
	alerts := alerting.NewService(s.store, s.clock, alerting.DefaultThresholds())
	mon := monetize.NewService(s.store, s.gateway, gate, s.clock, s.config.Monetization)
	dashboards := dashboard.NewService(
		s.store, s.cache, alerts, insights, cmp,
		s.clock, s.config.Cache, s.config.Batch,
	)

	handler := rest.NewHandler(gate, mon, benchmarks, cmp, insights, tasks, alerts, dashboards)

	authCfg := middleware.AuthConfig{
		JWTPublicKey: s.config.Auth.JWTPublicKey,
		APIKeys:      s.config.Auth.APIKeys,
	}
	rest.SetupRoutes(router, handler, authCfg)

	// Evict stale dashboard entries in the background
	go s.sweepLoop(dashboards)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// sweepLoop periodically evicts expired cache entries
func (s *Server) sweepLoop(dashboards *dashboard.Service) {
	interval := s.config.Cache.SweepInterval
	if interval <= 0 {
		return
	}

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.sweepStop:
			return
		case <-ticker.C:
			if evicted := dashboards.SweepExpiredCache(); evicted > 0 {
				logger.Debug("Swept expired cache entries", zap.Int("evicted", evicted))
			}
		}
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	close(s.sweepStop)

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
