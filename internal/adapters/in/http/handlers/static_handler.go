// internal/adapters/in/http/handlers/static_handler.go
package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves the built frontend and falls back to index.html for
// client-side routes.
type StaticHandler struct {
	dir   string
	files http.Handler
}

func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir, files: http.FileServer(http.Dir(dir))}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w)
		return
	}

	p := path.Clean("/" + r.URL.Path)
	if strings.HasPrefix(p, "/api/") {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	full := filepath.Join(h.dir, filepath.FromSlash(p))
	if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
