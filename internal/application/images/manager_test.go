package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/pkg/adapters/events/memory"
	"github.com/aescanero/pixo/pkg/adapters/metrics/noop"
	"github.com/aescanero/pixo/pkg/adapters/storage/local"
	"github.com/aescanero/pixo/pkg/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := local.New(t.TempDir(), 95, zap.NewNop())
	require.NoError(t, err)
	return NewManager(store, memory.NewEventBus(), noop.NewCollector(), zap.NewNop())
}

func pngPayload(t *testing.T, width, height int) *bytes.Reader {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{10, 200, 30, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

func TestSaveUploaded(t *testing.T) {
	mgr := newTestManager(t)

	meta, err := mgr.SaveUploaded(context.Background(), pngPayload(t, 24, 12), "photo", "PNG")
	require.NoError(t, err)

	assert.Equal(t, "photo.png", meta.Filename)
	assert.Equal(t, "PNG", meta.Format)
	assert.Equal(t, 24, meta.Width)
	assert.Equal(t, 12, meta.Height)
	assert.Equal(t, domain.FolderUploaded, meta.Folder)
	assert.Greater(t, meta.SizeBytes, int64(0))
}

func TestSaveUploadedGeneratedName(t *testing.T) {
	mgr := newTestManager(t)

	meta, err := mgr.SaveUploaded(context.Background(), pngPayload(t, 8, 8), "", "JPEG")
	require.NoError(t, err)
	assert.NotEmpty(t, meta.Filename)
	assert.Equal(t, "JPEG", meta.Format)
}

func TestGetAndDimensions(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.SaveUploaded(context.Background(), pngPayload(t, 24, 12), "photo", "PNG")
	require.NoError(t, err)

	meta, err := mgr.Get(context.Background(), "photo.png", domain.FolderUploaded)
	require.NoError(t, err)
	assert.Equal(t, 24, meta.Width)

	w, h, err := mgr.GetDimensions(context.Background(), "photo.png", domain.FolderUploaded)
	require.NoError(t, err)
	assert.Equal(t, 24, w)
	assert.Equal(t, 12, h)

	_, err = mgr.Get(context.Background(), "ghost.png", domain.FolderUploaded)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveUploadedWritesSidecar(t *testing.T) {
	mgr := newTestManager(t)

	meta, err := mgr.SaveUploaded(context.Background(), pngPayload(t, 8, 8), "side", "PNG")
	require.NoError(t, err)

	fromSidecar, ok := ReadSidecar(meta.Path)
	require.True(t, ok)
	assert.Equal(t, meta.Filename, fromSidecar.Filename)
	assert.Equal(t, meta.Width, fromSidecar.Width)
}

func TestList(t *testing.T) {
	mgr := newTestManager(t)

	for _, n := range []string{"a", "b", "c"} {
		_, err := mgr.SaveUploaded(context.Background(), pngPayload(t, 4, 4), n, "PNG")
		require.NoError(t, err)
	}

	items, err := mgr.List(context.Background(), domain.FolderUploaded, 100, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, domain.FolderUploaded, items[0].Folder)

	page, err := mgr.List(context.Background(), domain.FolderAll, 2, 1)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	_, err = mgr.List(context.Background(), "archive", 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidFolder)
}

func TestDeleteReturnsMetadata(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.SaveUploaded(context.Background(), pngPayload(t, 6, 6), "del", "PNG")
	require.NoError(t, err)

	meta, err := mgr.Delete(context.Background(), "del.png", domain.FolderUploaded)
	require.NoError(t, err)
	assert.Equal(t, "del.png", meta.Filename)
	assert.Equal(t, 6, meta.Width)

	_, err = mgr.Delete(context.Background(), "del.png", domain.FolderUploaded)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteAll(t *testing.T) {
	mgr := newTestManager(t)

	for _, n := range []string{"a", "b"} {
		_, err := mgr.SaveUploaded(context.Background(), pngPayload(t, 4, 4), n, "PNG")
		require.NoError(t, err)
	}

	count, err := mgr.DeleteAll(context.Background(), domain.FolderUploaded)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = mgr.DeleteAll(context.Background(), domain.FolderUploaded)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMove(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.SaveUploaded(context.Background(), pngPayload(t, 4, 4), "mv", "PNG")
	require.NoError(t, err)

	meta, err := mgr.Move(context.Background(), "mv.png", domain.FolderUploaded, domain.FolderEdited)
	require.NoError(t, err)
	assert.Equal(t, domain.FolderEdited, meta.Folder)

	_, err = mgr.Move(context.Background(), "mv.png", domain.FolderUploaded, domain.FolderEdited)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = mgr.Move(context.Background(), "mv.png", domain.FolderEdited, domain.FolderEdited)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
