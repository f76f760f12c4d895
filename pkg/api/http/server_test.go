package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/internal/application/detection"
	"github.com/aescanero/pixo/internal/application/editor"
	"github.com/aescanero/pixo/internal/application/images"
	cachememory "github.com/aescanero/pixo/pkg/adapters/cache/memory"
	eventsmemory "github.com/aescanero/pixo/pkg/adapters/events/memory"
	"github.com/aescanero/pixo/pkg/adapters/metrics/noop"
	"github.com/aescanero/pixo/pkg/adapters/storage/local"
	"github.com/aescanero/pixo/pkg/domain"
)

type stubDetector struct{}

func (stubDetector) Name() string { return "stub" }

func (stubDetector) Detect(_ context.Context, _ image.Image) ([]domain.Detection, error) {
	return []domain.Detection{
		{Label: "cat", Confidence: 0.9, Box: domain.Box{X: 0.1, Y: 0.1, W: 0.4, H: 0.4}},
	}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	store, err := local.New(t.TempDir(), 95, logger)
	require.NoError(t, err)

	bus := eventsmemory.NewEventBus()
	metrics := noop.NewCollector()

	return NewServer(&Config{
		Port:      0,
		Images:    images.NewManager(store, bus, metrics, logger),
		Editor:    editor.NewService(store, bus, metrics, logger),
		Detection: detection.NewManager(store, stubDetector{}, cachememory.NewDetectionCache(), bus, metrics, logger, 1),
		Logger:    logger,
		MaxUpload: 1 << 20,
	})
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 3), uint8(y * 3), 80, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "upload.png")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(t *testing.T, s *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func uploadImage(t *testing.T, s *Server, name string, width, height int) {
	t.Helper()
	body, contentType := multipartBody(t, pngBytes(t, width, height))
	target := fmt.Sprintf("/images/upload?filename=%s&format=PNG", name)
	rec := doRequest(t, s, http.MethodPost, target, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeJSON(t, rec)["status"])
}

func TestUploadAndDetail(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "photo", 30, 20)

	rec := doRequest(t, s, http.MethodGet, "/images/photo.png/detail", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	assert.Equal(t, "photo.png", body["filename"])
	assert.Equal(t, "PNG", body["format"])
	assert.Equal(t, float64(30), body["width"])
	assert.Equal(t, float64(20), body["height"])
}

func TestUploadRejectsMissingFile(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/images/upload", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsBadFormat(t *testing.T) {
	s := newTestServer(t)
	body, contentType := multipartBody(t, pngBytes(t, 10, 10))

	rec := doRequest(t, s, http.MethodPost, "/images/upload?format=heic", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "INVALID_REQUEST", errBody.Error.Code)
}

func TestUploadRejectsGarbagePayload(t *testing.T) {
	s := newTestServer(t)
	body, contentType := multipartBody(t, []byte("not an image"))

	rec := doRequest(t, s, http.MethodPost, "/images/upload?format=PNG", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsOversizePayload(t *testing.T) {
	s := newTestServer(t)
	body, contentType := multipartBody(t, bytes.Repeat([]byte{0}, 2<<20))

	rec := doRequest(t, s, http.MethodPost, "/images/upload?format=PNG", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestList(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "a", 10, 10)
	uploadImage(t, s, "b", 10, 10)

	rec := doRequest(t, s, http.MethodGet, "/images/?folder=uploaded", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, float64(2), body["count"])

	rec = doRequest(t, s, http.MethodGet, "/images/?folder=archive", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/images/?limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/images/?offset=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDimensions(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "photo", 33, 21)

	rec := doRequest(t, s, http.MethodGet, "/images/photo.png/metadata/dimensions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, float64(33), body["width"])
	assert.Equal(t, float64(21), body["height"])

	rec = doRequest(t, s, http.MethodGet, "/images/ghost.png/metadata/dimensions", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoveAndConflicts(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "mv", 10, 10)

	move := func(source, target string) *httptest.ResponseRecorder {
		payload := fmt.Sprintf(`{"source_folder":%q,"target_folder":%q}`, source, target)
		return doRequest(t, s, http.MethodPost, "/images/mv.png/move",
			bytes.NewBufferString(payload), "application/json")
	}

	rec := move(domain.FolderUploaded, domain.FolderEdited)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Source is gone now.
	rec = move(domain.FolderUploaded, domain.FolderEdited)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Same source and target.
	rec = move(domain.FolderEdited, domain.FolderEdited)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Collision with an existing file.
	uploadImage(t, s, "mv", 10, 10)
	rec = move(domain.FolderUploaded, domain.FolderEdited)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing body.
	rec = doRequest(t, s, http.MethodPost, "/images/mv.png/move",
		bytes.NewBufferString(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAndClearAll(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "a", 10, 10)
	uploadImage(t, s, "b", 10, 10)

	rec := doRequest(t, s, http.MethodDelete, "/images/a.png/delete", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/images/a.png/delete", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/images/clear_all?folder=uploaded", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeJSON(t, rec)["deleted"])
}

func TestEditEndpoints(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "src", 40, 30)

	tests := []struct {
		name   string
		target string
	}{
		{"resize", "/images/edit/resize?image_name=src.png&width=20&height=10"},
		{"grayscale", "/images/edit/grayscale?image_name=src.png"},
		{"rotate", "/images/edit/rotate?image_name=src.png&degrees=90&expand=true"},
		{"crop", "/images/edit/crop?image_name=src.png&left=5&upper=5&right=25&lower=20"},
		{"blur", "/images/edit/blur?image_name=src.png&radius=2"},
		{"sharpen", "/images/edit/sharpen?image_name=src.png"},
		{"brightness", "/images/edit/brightness?image_name=src.png&factor=1.4"},
		{"contrast", "/images/edit/contrast?image_name=src.png&factor=0.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, tt.target, nil, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			body := decodeJSON(t, rec)
			assert.Equal(t, "success", body["status"])
			assert.Contains(t, body["path"], "edited")
		})
	}
}

func TestEditValidation(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "src", 40, 30)

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"missing image name", "/images/edit/resize?width=10&height=10", http.StatusBadRequest},
		{"zero width", "/images/edit/resize?image_name=src.png&width=0&height=10", http.StatusBadRequest},
		{"non-integer width", "/images/edit/resize?image_name=src.png&width=abc&height=10", http.StatusBadRequest},
		{"missing source", "/images/edit/resize?image_name=ghost.png&width=10&height=10", http.StatusNotFound},
		{"empty crop", "/images/edit/crop?image_name=src.png&left=20&upper=5&right=5&lower=20", http.StatusBadRequest},
		{"bad blur radius", "/images/edit/blur?image_name=src.png&radius=0", http.StatusBadRequest},
		{"bad factor", "/images/edit/brightness?image_name=src.png&factor=0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, tt.target, nil, "")
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestWatermarkEndpoint(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "src", 40, 30)
	uploadImage(t, s, "mark", 8, 8)

	rec := doRequest(t, s, http.MethodPost,
		"/images/edit/watermark?image_name=src.png&watermark=mark.png&center=true&opacity=0.5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, s, http.MethodPost,
		"/images/edit/watermark?image_name=src.png", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectEndpoints(t *testing.T) {
	s := newTestServer(t)
	uploadImage(t, s, "scene", 60, 60)

	rec := doRequest(t, s, http.MethodPost, "/images/detect/bounding_boxes/?image_name=scene.png", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	assert.Contains(t, body["image_path"], "scene_boxes.png")
	assert.Len(t, body["detections"], 1)

	rec = doRequest(t, s, http.MethodGet, "/images/detect/detected_objects/?image_name=scene.png", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body = decodeJSON(t, rec)
	objects, ok := body["detected_objects"].([]any)
	require.True(t, ok)
	require.Len(t, objects, 1)
	first, ok := objects[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cat", first["label"])

	rec = doRequest(t, s, http.MethodGet, "/images/detect/detected_objects/?image_name=ghost.png", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/images/detect/bounding_boxes/", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorEnvelopeShape(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/images/ghost.png/detail", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errBody ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "NOT_FOUND", errBody.Error.Code)
	assert.True(t, strings.Contains(errBody.Error.Message, "ghost.png"))
}
