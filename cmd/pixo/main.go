package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/pixo/internal/application/detection"
	"github.com/aescanero/pixo/internal/application/editor"
	"github.com/aescanero/pixo/internal/application/images"
	"github.com/aescanero/pixo/internal/config"
	memorycache "github.com/aescanero/pixo/pkg/adapters/cache/memory"
	rediscache "github.com/aescanero/pixo/pkg/adapters/cache/redis"
	"github.com/aescanero/pixo/pkg/adapters/detect"
	eventsmemory "github.com/aescanero/pixo/pkg/adapters/events/memory"
	"github.com/aescanero/pixo/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/pixo/pkg/adapters/storage/local"
	"github.com/aescanero/pixo/pkg/api/http"
	"github.com/aescanero/pixo/pkg/api/websocket"
	"github.com/aescanero/pixo/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting pixo",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Initialize storage
	store, err := local.New(cfg.Storage.Root, cfg.Storage.Quality, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	logger.Info("storage ready", zap.String("root", cfg.Storage.Root))

	// Initialize detection cache
	var (
		cache       ports.DetectionCache
		redisClient *goredis.Client
	)
	switch cfg.Cache.Backend {
	case "redis":
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		cache = rediscache.NewDetectionCache(redisClient, cfg.Cache.TTL, logger)
	default:
		cache = memorycache.NewDetectionCache()
	}

	// Initialize detector
	detector, err := detect.NewDetector(&detect.Config{
		Backend:   cfg.Detect.Backend,
		OllamaURL: cfg.Detect.OllamaURL,
		Model:     cfg.Detect.Model,
		Threshold: cfg.Detect.Threshold,
		Timeout:   cfg.Detect.Timeout,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to create detector", zap.Error(err))
	}
	logger.Info("detector ready", zap.String("backend", detector.Name()))

	eventBus := eventsmemory.NewEventBus()
	metricsCollector := prometheus.NewCollector()

	// Initialize application components
	imagesMgr := images.NewManager(store, eventBus, metricsCollector, logger)
	editorSvc := editor.NewService(store, eventBus, metricsCollector, logger)
	detectionMgr := detection.NewManager(
		store,
		detector,
		cache,
		eventBus,
		metricsCollector,
		logger,
		cfg.Detect.MaxConcurrent,
	)

	// Initialize API server
	httpServer := http.NewServer(&http.Config{
		Port:      cfg.HTTPPort,
		Images:    imagesMgr,
		Editor:    editorSvc,
		Detection: detectionMgr,
		Logger:    logger,
		MaxUpload: cfg.MaxUploadBytes(),
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, metricsCollector, logger)
	httpServer.SetupWebSocket(wsHandler)

	// Start server
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("pixo started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("detect_backend", cfg.Detect.Backend),
		zap.String("cache_backend", cfg.Cache.Backend))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("pixo shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
