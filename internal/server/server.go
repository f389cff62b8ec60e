// Package server exposes the rota store over HTTP. The handlers translate
// the boundary error taxonomy into status codes: rule refusals become 422
// with the violation list attached, concurrent-delete races become 404.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/internal/metrics"
	"github.com/TokiACD/caretrack/pkg/core/services"
	"github.com/TokiACD/caretrack/pkg/db"
)

// Server is the rota API server
type Server struct {
	store    db.RotaStore
	packages db.PackageDirectory
	audit    services.AuditSink
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewServer creates an API server over the given store
func NewServer(store db.RotaStore, packages db.PackageDirectory, audit services.AuditSink, m *metrics.Metrics, logger *zap.Logger) *Server {
	return &Server{
		store:    store,
		packages: packages,
		audit:    audit,
		metrics:  m,
		logger:   logger,
	}
}

// Router builds the gin engine with all routes attached
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/packages", s.listPackages)
		v1.GET("/packages/:packageId", s.getPackage)
		v1.GET("/packages/:packageId/weekly-schedule", s.getWeeklySchedule)

		v1.POST("/rota-entries/validate", s.validateEntry)
		v1.POST("/rota-entries", s.createEntry)
		v1.PATCH("/rota-entries/:entryId/confirm", s.confirmEntry)
		v1.DELETE("/rota-entries/:entryId", s.deleteEntry)
		v1.POST("/rota-entries/batch-delete", s.batchDeleteEntries)
	}

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("Starting rota API server", zap.String("addr", addr))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("Server exited")
		return nil
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
