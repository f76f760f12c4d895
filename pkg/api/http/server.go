package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/internal/application/detection"
	"github.com/aescanero/pixo/internal/application/editor"
	"github.com/aescanero/pixo/internal/application/images"
)

// Server represents the HTTP API server
type Server struct {
	router    *gin.Engine
	server    *http.Server
	images    *images.Manager
	editor    *editor.Service
	detection *detection.Manager
	logger    *zap.Logger
	maxUpload int64
}

// Config holds HTTP server configuration
type Config struct {
	Port      int
	Images    *images.Manager
	Editor    *editor.Service
	Detection *detection.Manager
	Logger    *zap.Logger
	MaxUpload int64
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:    router,
		images:    cfg.Images,
		editor:    cfg.Editor,
		detection: cfg.Detection,
		logger:    cfg.Logger,
		maxUpload: cfg.MaxUpload,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Image CRUD
	img := s.router.Group("/images")
	{
		img.POST("/upload", s.handleUpload)
		img.GET("/", s.handleList)
		img.GET("/:name/detail", s.handleDetail)
		img.GET("/:name/metadata/dimensions", s.handleDimensions)
		img.DELETE("/:name/delete", s.handleDelete)
		img.POST("/:name/move", s.handleMove)
		img.DELETE("/clear_all", s.handleClearAll)
	}

	// Image editing
	edit := s.router.Group("/images/edit")
	{
		edit.POST("/resize", s.handleResize)
		edit.POST("/grayscale", s.handleGrayscale)
		edit.POST("/rotate", s.handleRotate)
		edit.POST("/crop", s.handleCrop)
		edit.POST("/blur", s.handleBlur)
		edit.POST("/sharpen", s.handleSharpen)
		edit.POST("/brightness", s.handleBrightness)
		edit.POST("/contrast", s.handleContrast)
		edit.POST("/watermark", s.handleWatermark)
	}

	// Object detection
	det := s.router.Group("/images/detect")
	{
		det.POST("/bounding_boxes/", s.handleBoundingBoxes)
		det.GET("/detected_objects/", s.handleDetectedObjects)
	}
}

// SetupWebSocket adds the event stream handler to the server
func (s *Server) SetupWebSocket(handler interface {
	HandleEventStream(*gin.Context)
}) {
	s.router.GET("/ws/events", handler.HandleEventStream)
}

// Handler exposes the router, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()))
	}
}
