package assets

import (
	"net/http"
	"os"
	"path"
	"strings"
)

// Handler serves regular files below a directory.
type Handler struct {
	dir        string
	fileSystem http.FileSystem
	fileServer http.Handler
}

// New returns a Handler for dir. If dir is empty or not a directory the
// handler answers every request with 404; check Available to warn about it.
func New(dir string) *Handler {
	h := &Handler{dir: dir}

	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			h.fileSystem = http.Dir(dir)
			h.fileServer = http.FileServer(h.fileSystem)
		}
	}

	return h
}

// Available reports whether the directory exists.
func (h *Handler) Available() bool {
	return h.fileSystem != nil
}

// Dir returns the configured directory.
func (h *Handler) Dir() string {
	return h.dir
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.fileSystem == nil {
		http.NotFound(w, r)
		return
	}

	upath := path.Clean("/" + r.URL.Path)
	if upath == "/" || hasDotSegment(upath) {
		http.NotFound(w, r)
		return
	}

	f, err := h.fileSystem.Open(upath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	info, err := f.Stat()
	f.Close()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, must-revalidate")
	h.fileServer.ServeHTTP(w, r)
}

// hasDotSegment reports whether any path element is hidden (".git", ".env").
func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
