// Package server is the thin HTTP surface over the verdict orchestrator:
// one check endpoint plus health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postcheck/internal/fields"
	"github.com/hyperifyio/postcheck/internal/receipts"
	"github.com/hyperifyio/postcheck/internal/verdict"
)

// checkRequest is the wire shape of POST /api/check.
type checkRequest struct {
	Platform   string          `json:"platform"`
	Fields     json.RawMessage `json:"fields"`
	StrictMode bool            `json:"strictMode"`
	ScanImages *bool           `json:"scanImages"`
}

// Server wires the orchestrator behind gin.
type Server struct {
	router   *gin.Engine
	orch     *verdict.Orchestrator
	receipts *receipts.Log
	metrics  *Metrics
}

// New builds the router with recovery, request logging and all routes.
// receiptLog may be nil to disable receipts.
func New(orch *verdict.Orchestrator, receiptLog *receipts.Log, reg *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	router.Use(requestLogger())

	s := &Server{
		router:   router,
		orch:     orch,
		receipts: receiptLog,
		metrics:  NewMetrics(reg),
	}

	router.POST("/api/check", s.handleCheck)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return s
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) handleCheck(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	f, err := fields.Parse(req.Fields)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fields payload"})
		return
	}

	scan := true
	if req.ScanImages != nil {
		scan = *req.ScanImages
	}

	start := time.Now()
	v := s.orch.Check(c.Request.Context(), req.Platform, f, verdict.Options{
		Strict:     req.StrictMode,
		ScanImages: scan,
	})
	s.metrics.CheckDuration.Observe(time.Since(start).Seconds())
	s.metrics.ChecksTotal.WithLabelValues(req.Platform, v.Level.String()).Inc()
	s.metrics.ImageFindingsTotal.Add(float64(len(v.ImageFindings)))
	if v.Model != nil {
		outcome := "ok"
		if v.Model.Error != "" {
			outcome = "error"
		}
		s.metrics.ModelCallsTotal.WithLabelValues(outcome).Inc()
	}

	if s.receipts != nil {
		if _, err := s.receipts.Append(req.Platform, v.Level.String(), len(v.Issues), req.StrictMode); err != nil {
			s.metrics.ReceiptWriteErrors.Inc()
			log.Warn().Err(err).Msg("receipt append failed")
		}
	}

	c.JSON(http.StatusOK, v)
}

// requestLogger emits one zerolog line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
