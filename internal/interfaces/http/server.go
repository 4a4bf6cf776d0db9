// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/routes"
	"github.com/your-org/marketplace-backend/internal/pkg/metrics"
)

const readinessTimeout = 3 * time.Second

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators the server wires into gin
type Dependencies struct {
	Routes *routes.Handlers

	// RateLimiter is optional; without it requests are not limited
	RateLimiter middleware.WindowCounter
	// Metrics is optional; without it /metrics is not served
	Metrics *metrics.Metrics
	// Checks are run by /ready, keyed by dependency name
	Checks map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *logrus.Logger
	deps       Dependencies
	engine     *gin.Engine
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer builds the gin engine with middleware and routes
func NewServer(cfg *config.Config, logger *logrus.Logger, deps Dependencies) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	binding.EnableDecoderDisallowUnknownFields = true

	s := &Server{
		config:    cfg,
		logger:    logger,
		deps:      deps,
		engine:    gin.New(),
		startedAt: time.Now(),
	}
	if err := s.engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		logger.WithError(err).Warn("Ignoring invalid trusted proxies")
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.engine,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.logger.WithFields(logrus.Fields{
		"port":    s.config.Server.Port,
		"api":     "/api/v1",
		"version": s.config.App.Version,
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger(s.logger))
	if s.deps.Metrics != nil {
		s.engine.Use(middleware.Metrics(s.deps.Metrics))
	}
	s.engine.Use(middleware.CORS(&s.config.Security))
	s.engine.Use(middleware.SecurityHeaders())
	if s.deps.RateLimiter != nil {
		s.engine.Use(middleware.RateLimit(s.deps.RateLimiter, s.config.Security.RateLimitPerMinute, s.logger))
	}
	s.engine.Use(middleware.MaxBodySize(s.config.Server.MaxBodyBytes))
	s.engine.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthCheck)
	s.engine.GET("/ready", s.readinessCheck)
	if s.deps.Metrics != nil && s.config.Metrics.Enabled {
		s.engine.GET(s.config.Metrics.Path, gin.WrapH(s.deps.Metrics.Handler()))
	}

	storage := s.config.Storage
	if storage.Provider == config.StorageProviderLocal && strings.HasPrefix(storage.LocalURL, "/") {
		s.engine.Static(storage.LocalURL, storage.LocalPath)
	}

	apiV1 := s.engine.Group("/api/v1")
	apiV1.Use(middleware.Session(&s.config.Session))
	routes.SetupRoutes(apiV1, s.deps.Routes)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "code": "NOT_FOUND"})
	})
}

// healthCheck reports liveness only
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck pings every dependency
func (s *Server) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(gin.H, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Warn("Readiness check failed")
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"timestamp":    time.Now().UTC(),
		"uptime":       time.Since(s.startedAt).Round(time.Second).String(),
		"dependencies": results,
	})
}
