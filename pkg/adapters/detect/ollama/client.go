package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/pkg/domain"
)

const detectPrompt = `Detect every distinct object in this image. Respond with ONLY a JSON object of the form
{"detections":[{"label":"<object name>","confidence":<0..1>,"box":{"x":<0..1>,"y":<0..1>,"w":<0..1>,"h":<0..1>}}]}
where box coordinates are the top-left corner and size, normalized to the image dimensions. No prose, no code fences.`

// Detector runs object detection through a vision model served by Ollama.
type Detector struct {
	client    *api.Client
	model     string
	threshold float64
	timeout   time.Duration
	logger    *zap.Logger
}

// Config holds detector configuration.
type Config struct {
	URL       string
	Model     string
	Threshold float64
	Timeout   time.Duration
	Logger    *zap.Logger
}

// New creates a detector talking to the Ollama server at cfg.URL.
func New(cfg *Config) (*Detector, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	return &Detector{
		client:    api.NewClient(base, http.DefaultClient),
		model:     cfg.Model,
		threshold: cfg.Threshold,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}, nil
}

// Name identifies the backend for logging and cache keying.
func (d *Detector) Name() string {
	return "ollama/" + d.model
}

// Detect sends the image to the vision model and parses the detections it
// returns. Results below the confidence threshold are dropped.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]domain.Detection, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image for model: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: d.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: detectPrompt,
				Images:  []api.ImageData{api.ImageData(buf.Bytes())},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err := d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}
	if responseContent == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	detections, err := parseDetections(responseContent)
	if err != nil {
		d.logger.Warn("unparseable model response",
			zap.String("model", d.model),
			zap.Error(err))
		return nil, err
	}

	filtered := make([]domain.Detection, 0, len(detections))
	for _, det := range detections {
		if det.Confidence < d.threshold {
			continue
		}
		det.Box = det.Box.Clamp()
		filtered = append(filtered, det)
	}
	return filtered, nil
}

// parseDetections extracts the detection list from the model response.
func parseDetections(raw string) ([]domain.Detection, error) {
	raw = sanitizeModelJSON(raw)

	var envelope struct {
		Detections []domain.Detection `json:"detections"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil {
		return envelope.Detections, nil
	}

	// Some models return a bare array.
	var list []domain.Detection
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list, nil
	}

	// Conservative brace-slice fallback.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &envelope); err == nil {
			return envelope.Detections, nil
		}
	}
	return nil, fmt.Errorf("no valid JSON detections in response")
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments, and trailing commas from
// a model response before parsing.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	return strings.TrimSpace(raw)
}
