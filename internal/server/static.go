package server

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves files from a directory on disk.
//
// Dotfiles (such as .env) and any explicitly hidden file names answer 404.
type StaticHandler struct {
	root   string
	files  http.Handler
	hidden map[string]struct{}
}

// NewStaticHandler creates a handler serving files under root. An empty root means the working directory.
//
// Requests whose final path element matches the base name of any hidden path are refused.
func NewStaticHandler(root string, hidden ...string) *StaticHandler {
	if root == "" {
		root = "."
	}
	names := make(map[string]struct{}, len(hidden))
	for _, h := range hidden {
		if h != "" {
			names[filepath.Base(h)] = struct{}{}
		}
	}
	return &StaticHandler{root: root, files: http.FileServer(http.Dir(root)), hidden: names}
}

// Routes returns the catch-all route.
func (h *StaticHandler) Routes() []string {
	return []string{"/"}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.refused(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}

func (h *StaticHandler) refused(urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	for _, part := range strings.Split(clean, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	_, ok := h.hidden[path.Base(clean)]
	return ok
}
