// Package http provides the HTTP adapter over the workflow and
// transcription services. It is a thin layer: request decoding,
// feature gating and error-to-status mapping only.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iamSachinDev/transcription-workflow-api/internal/config"
	"github.com/iamSachinDev/transcription-workflow-api/internal/report"
	"github.com/iamSachinDev/transcription-workflow-api/internal/service"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	RateLimitPerMinute int
	CORSOrigins        []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:               "0.0.0.0",
		Port:               7777,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		RateLimitPerMinute: 100,
		CORSOrigins:        []string{"*"},
	}
}

// Server is the HTTP adapter
type Server struct {
	config     ServerConfig
	flags      config.Flags
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	cfg ServerConfig,
	flags config.Flags,
	workflows service.WorkflowService,
	transcriptions service.TranscriptionService,
	exporter *report.Exporter,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   cfg,
		flags:    flags,
		router:   gin.New(),
		handlers: NewHandlers(workflows, transcriptions, exporter, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(CORS(s.config.CORSOrigins))
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware logs every request with its correlation id
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// health checks are noise
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		s.logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
		)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api")
	api.Use(RateLimit(s.config.RateLimitPerMinute))

	if s.flags.ModuleEnabled("workflows") {
		workflows := api.Group("/workflows")
		{
			workflows.POST("", RequireFeature(s.flags, "workflows", ""), s.handlers.CreateWorkflow)
			workflows.GET("", RequireFeature(s.flags, "workflows", ""), s.handlers.ListWorkflows)
			workflows.GET("/export", RequireFeature(s.flags, "workflows", "export"), s.handlers.ExportWorkflows)
			workflows.GET("/:id", RequireFeature(s.flags, "workflows", "getOne"), s.handlers.GetWorkflow)
			workflows.PATCH("/:id/advance", RequireFeature(s.flags, "workflows", "advance"), s.handlers.AdvanceWorkflow)
			workflows.PATCH("/:id/reject", RequireFeature(s.flags, "workflows", "reject"), s.handlers.RejectWorkflow)
		}
	} else {
		s.logger.Info("Module disabled via feature flags", "module", "workflows")
	}

	if s.flags.ModuleEnabled("transcriptions") {
		transcriptions := api.Group("/transcriptions")
		{
			transcriptions.POST("", RequireFeature(s.flags, "transcriptions", ""), s.handlers.PostTranscription)
			transcriptions.POST("/speech", RequireFeature(s.flags, "transcriptions", "speech"), s.handlers.PostSpeechTranscription)
			transcriptions.GET("", RequireFeature(s.flags, "transcriptions", ""), s.handlers.GetTranscriptions)
			transcriptions.GET("/recent", RequireFeature(s.flags, "transcriptions", "recent"), s.handlers.GetRecentTranscriptions)
			transcriptions.GET("/audio/:id", RequireFeature(s.flags, "transcriptions", "getOne"), s.handlers.GetTranscription)
			transcriptions.PATCH("/:id", RequireFeature(s.flags, "transcriptions", ""), s.handlers.UpdateTranscription)
			transcriptions.PUT("/:id", RequireFeature(s.flags, "transcriptions", ""), s.handlers.UpdateTranscription)
		}
	} else {
		s.logger.Info("Module disabled via feature flags", "module", "transcriptions")
	}
}

// Router exposes the gin engine (used by handler tests)
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
