package detect

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/pixo/pkg/adapters/detect/ollama"
	"github.com/aescanero/pixo/pkg/adapters/detect/saliency"
	"github.com/aescanero/pixo/pkg/ports"
)

// Config holds detector configuration.
type Config struct {
	Backend   string
	OllamaURL string
	Model     string
	Threshold float64
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewDetector creates a detector based on the configured backend.
func NewDetector(cfg *Config) (ports.Detector, error) {
	switch cfg.Backend {
	case "ollama":
		return ollama.New(&ollama.Config{
			URL:       cfg.OllamaURL,
			Model:     cfg.Model,
			Threshold: cfg.Threshold,
			Timeout:   cfg.Timeout,
			Logger:    cfg.Logger,
		})
	case "saliency":
		return saliency.New(), nil
	default:
		return nil, fmt.Errorf("unsupported detection backend: %s", cfg.Backend)
	}
}
