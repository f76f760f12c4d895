package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the pixo service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"PIXO_HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage configuration
	Storage StorageConfig

	// Detection configuration
	Detect DetectConfig

	// Cache configuration
	Cache CacheConfig

	// Redis configuration (used when Cache.Backend is "redis")
	Redis RedisConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// StorageConfig holds filesystem storage configuration
type StorageConfig struct {
	Root        string `env:"PIXO_DATA_DIR" envDefault:"./data"`
	Quality     int    `env:"PIXO_JPEG_QUALITY" envDefault:"95"`
	MaxUploadMB int64  `env:"PIXO_MAX_UPLOAD_MB" envDefault:"25"`
}

// DetectConfig holds object detection configuration
type DetectConfig struct {
	Backend       string        `env:"PIXO_DETECT_BACKEND" envDefault:"saliency"`
	OllamaURL     string        `env:"PIXO_OLLAMA_URL" envDefault:"http://localhost:11434"`
	Model         string        `env:"PIXO_DETECT_MODEL" envDefault:"minicpm-v"`
	Threshold     float64       `env:"PIXO_DETECT_THRESHOLD" envDefault:"0.5"`
	MaxConcurrent int           `env:"PIXO_DETECT_MAX_CONCURRENT" envDefault:"2"`
	Timeout       time.Duration `env:"PIXO_DETECT_TIMEOUT" envDefault:"300s"`
}

// CacheConfig selects the detection result cache backend
type CacheConfig struct {
	Backend string        `env:"PIXO_CACHE_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"PIXO_CACHE_TTL" envDefault:"24h"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.Storage.Root == "" {
		return fmt.Errorf("storage root is required")
	}
	if c.Storage.Quality < 1 || c.Storage.Quality > 100 {
		return fmt.Errorf("JPEG quality must be between 1 and 100")
	}
	if c.Storage.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB")
	}

	switch c.Detect.Backend {
	case "ollama":
		if c.Detect.OllamaURL == "" {
			return fmt.Errorf("ollama URL is required for the ollama backend")
		}
		if c.Detect.Model == "" {
			return fmt.Errorf("detection model is required for the ollama backend")
		}
	case "saliency":
	default:
		return fmt.Errorf("unsupported detection backend: %s (must be ollama or saliency)", c.Detect.Backend)
	}
	if c.Detect.Threshold < 0 || c.Detect.Threshold > 1 {
		return fmt.Errorf("detection threshold must be between 0 and 1")
	}
	if c.Detect.MaxConcurrent < 1 {
		return fmt.Errorf("detection concurrency must be at least 1")
	}

	switch c.Cache.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis cache backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported cache backend: %s (must be redis or memory)", c.Cache.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxUploadMB * 1024 * 1024
}
