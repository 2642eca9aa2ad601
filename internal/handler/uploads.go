package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// UploadsHandler serves scan images from a single directory.
type UploadsHandler struct {
	dir string
}

func NewUploadsHandler(dir string) *UploadsHandler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &UploadsHandler{dir: dir}
}

// resolve maps a request name onto a path inside dir. Names that would
// escape dir are rejected.
func (h *UploadsHandler) resolve(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	clean := filepath.Clean("/" + name)
	if clean == "/" {
		return "", false
	}
	full := filepath.Join(h.dir, filepath.FromSlash(clean))
	rel, err := filepath.Rel(h.dir, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// Serve handles GET /uploads/*.
func (h *UploadsHandler) Serve(c echo.Context) error {
	full, ok := h.resolve(c.Param("*"))
	if !ok {
		return fail(c, http.StatusNotFound, "File not found")
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return fail(c, http.StatusNotFound, "File not found")
	}
	return c.File(full)
}
