package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploads_Serve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scans"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scans", "a.jpg"), []byte("jpegdata"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "..thumb.jpg"), []byte("thumb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "secret.txt"), []byte("nope"), 0o644))
	t.Cleanup(func() { _ = os.Remove(filepath.Join(filepath.Dir(dir), "secret.txt")) })

	e := newEcho()
	e.GET("/uploads/*", NewUploadsHandler(dir).Serve)

	rec := serveReq(e, httptest.NewRequest(http.MethodGet, "/uploads/scans/a.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpegdata", rec.Body.String())

	rec = serveReq(e, httptest.NewRequest(http.MethodGet, "/uploads/..thumb.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "thumb", rec.Body.String())

	for _, path := range []string{
		"/uploads/scans/missing.jpg",
		"/uploads/scans",
		"/uploads/",
		"/uploads/..%2Fsecret.txt",
		"/uploads/scans/..%2F..%2Fsecret.txt",
	} {
		rec := serveReq(e, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestUploads_Resolve(t *testing.T) {
	h := NewUploadsHandler("/srv/uploads")

	full, ok := h.resolve("scans/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/srv/uploads/scans/a.jpg"), full)

	full, ok = h.resolve("../../etc/passwd")
	assert.True(t, ok, "cleaned against the root, never above it")
	assert.Equal(t, filepath.FromSlash("/srv/uploads/etc/passwd"), full)

	full, ok = h.resolve("..thumb.jpg")
	assert.True(t, ok, "a name starting with dots stays inside the root")
	assert.Equal(t, filepath.FromSlash("/srv/uploads/..thumb.jpg"), full)

	_, ok = h.resolve("")
	assert.False(t, ok)
	_, ok = h.resolve("..")
	assert.False(t, ok)
}
