package blobstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*AferoStore, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/data", 0o755))
	return NewAferoStore(mem, "/data", "https://files.example.com/files/", nil), mem
}

func TestAferoStore_UploadExistsDelete(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	err := store.Upload(ctx, "receipts/owner-1/a.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	raw, err := afero.ReadFile(mem, "/data/receipts/owner-1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(raw))

	exists, err := store.Exists(ctx, "receipts/owner-1/a.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, []string{"receipts/owner-1/a.jpg", "receipts/owner-1/missing.jpg"}))

	exists, err = store.Exists(ctx, "receipts/owner-1/a.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAferoStore_ExistsOnDirectoryIsFalse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "receipts/owner-1/a.jpg", strings.NewReader("x"), "image/jpeg"))

	exists, err := store.Exists(ctx, "receipts/owner-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAferoStore_RejectsEscapingPaths(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"", "/etc/passwd", "../outside.txt", "receipts/../../outside.txt", `receipts\a.jpg`, "."} {
		t.Run(p, func(t *testing.T) {
			err := store.Upload(ctx, p, strings.NewReader("x"), "text/plain")
			assert.ErrorIs(t, err, ErrInvalidPath)

			_, err = store.Exists(ctx, p)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestAferoStore_DeleteContinuesAfterInvalidPath(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "receipts/owner-1/b.png", strings.NewReader("x"), "image/png"))

	err := store.Delete(ctx, []string{"../bad", "receipts/owner-1/b.png"})
	assert.ErrorIs(t, err, ErrInvalidPath)

	exists, err := store.Exists(ctx, "receipts/owner-1/b.png")
	require.NoError(t, err)
	assert.False(t, exists, "valid paths are still deleted")
}

func TestAferoStore_UploadHonoursCancelledContext(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Upload(ctx, "receipts/owner-1/a.jpg", strings.NewReader("x"), "image/jpeg")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAferoStore_PublicURL(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Equal(t, "https://files.example.com/files/receipts/owner-1/a.jpg", store.PublicURL("receipts/owner-1/a.jpg"))
}

func TestAferoStore_FileSystemServesFilesOnly(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Upload(context.Background(), "receipts/owner-1/a.txt", strings.NewReader("hello"), "text/plain"))

	server := httptest.NewServer(http.FileServer(store.FileSystem()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/receipts/owner-1/a.txt")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))

	resp, err = http.Get(server.URL + "/receipts/owner-1/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
