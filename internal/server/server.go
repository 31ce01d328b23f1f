// Package server exposes the admin API over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meridian-crm/meridian/internal/analytics"
	"github.com/meridian-crm/meridian/internal/automation"
	"github.com/meridian-crm/meridian/internal/crm"
	"github.com/meridian-crm/meridian/internal/lifecycle"
	"github.com/meridian-crm/meridian/internal/segment"
	"github.com/meridian-crm/meridian/internal/service"
)

// Server wires the application services behind the HTTP API.
type Server struct {
	storage      service.Storage
	crm          *crm.Service
	analytics    *analytics.Service
	segments     *segment.Evaluator
	recalculator *lifecycle.Recalculator
	dispatcher   *automation.Dispatcher
	router       *gin.Engine
}

// New creates a server over the given storage and builds the full service
// graph on top of it.
func New(storage service.Storage) *Server {
	engine := automation.NewEngine(storage, nil)

	s := &Server{
		storage:      storage,
		crm:          crm.NewService(storage),
		analytics:    analytics.NewService(storage),
		segments:     segment.NewEvaluator(storage),
		recalculator: lifecycle.NewRecalculator(storage),
		dispatcher:   automation.NewDispatcher(engine),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	s.registerRoutes(router)
	s.router = router

	return s
}

// Router exposes the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/login", s.handleLogin)

		api.GET("/dashboard", s.handleDashboard)
		api.GET("/funnel", s.handleFunnel)
		api.GET("/cohorts", s.handleCohorts)
		api.GET("/retention", s.handleRetention)

		api.POST("/segments/preview", s.handleSegmentPreview)
		api.GET("/segments", s.handleListSegments)
		api.POST("/segments", s.handleCreateSegment)
		api.DELETE("/segments/:id", s.handleDeleteSegment)

		api.POST("/lifecycle/refresh", s.handleLifecycleRefresh)
		api.GET("/customers/:id/lifecycle-history", s.handleLifecycleHistory)

		api.GET("/users", s.handleListUsers)
		api.POST("/users", s.handleCreateUser)
		api.PUT("/users/:id", s.handleUpdateUser)
		api.DELETE("/users/:id", s.handleDeleteUser)

		api.GET("/orders", s.handleListOrders)
		api.POST("/orders", s.handleCreateOrder)
		api.DELETE("/orders/:id", s.handleDeleteOrder)

		api.GET("/automations", s.handleListAutomations)
		api.POST("/automations", s.handleCreateAutomation)
		api.DELETE("/automations/:id", s.handleDeleteAutomation)
	}
}

// Run serves the API until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("API server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requestLogger logs each request through the application logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Handled request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
