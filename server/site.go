package server

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// siteHandler serves the web root. HTML documents and markdown pages go
// through the rewriting pipeline; everything else is served as-is.
type siteHandler struct {
	server *Server
}

func newSiteHandler(s *Server) *siteHandler {
	return &siteHandler{server: s}
}

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path

	// Security: reject paths with .. components (path traversal)
	if containsPathTraversal(urlPath) {
		h.server.logger.Warn().Str("path", urlPath).Msg("blocked path traversal attempt")
		http.Error(w, "400 Bad Request", http.StatusBadRequest)
		return
	}

	// Security: reject paths starting with . (dotfiles/hidden files)
	if containsDotfile(urlPath) {
		h.server.logger.Warn().Str("path", urlPath).Msg("blocked dotfile access attempt")
		http.NotFound(w, r)
		return
	}

	// Strip the base path the app is mounted under
	if base := h.server.cfg.BasePath; base != "" {
		rest, ok := strings.CutPrefix(urlPath, base)
		if !ok {
			http.NotFound(w, r)
			return
		}
		urlPath = rest
		if urlPath == "" {
			urlPath = "/"
		}
	}

	filePath := filepath.Join(h.server.cfg.WebRoot, filepath.FromSlash(urlPath))

	// Directory requests fall through to index.html, then index.md
	if info, err := os.Stat(filePath); err == nil && info.IsDir() {
		indexHTML := filepath.Join(filePath, "index.html")
		indexMD := filepath.Join(filePath, "index.md")
		switch {
		case fileExists(indexHTML):
			filePath = indexHTML
		case h.server.renderer != nil && fileExists(indexMD):
			filePath = indexMD
		default:
			http.NotFound(w, r)
			return
		}
	}

	switch {
	case strings.HasSuffix(filePath, ".html"):
		h.serveHTML(w, r, filePath)
	case strings.HasSuffix(filePath, ".md") && h.server.renderer != nil:
		h.servePage(w, r, filePath)
	default:
		h.serveStatic(w, r, filePath)
	}
}

// serveHTML runs an HTML file through the script tag rewriter.
func (h *siteHandler) serveHTML(w http.ResponseWriter, r *http.Request, filePath string) {
	f, err := os.Open(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := h.server.rewriter.Rewrite(f, &buf); err != nil {
		h.server.logger.Error().Err(err).Str("file", filePath).Msg("rewrite failed")
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.setCacheHeaders(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// servePage renders a markdown page and runs the result through the
// rewriter.
func (h *siteHandler) servePage(w http.ResponseWriter, r *http.Request, filePath string) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	doc, err := h.server.renderer.Render(source)
	if err != nil {
		h.server.logger.Error().Err(err).Str("file", filePath).Msg("page render failed")
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.server.rewriter.Rewrite(bytes.NewReader(doc), &buf); err != nil {
		h.server.logger.Error().Err(err).Str("file", filePath).Msg("rewrite failed")
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.setCacheHeaders(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// serveStatic serves any other file from the web root.
func (h *siteHandler) serveStatic(w http.ResponseWriter, r *http.Request, filePath string) {
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	h.setCacheHeaders(w, r)
	http.ServeFile(w, r, filePath)
}

// setCacheHeaders picks cache headers by mode: no caching in dev to avoid
// stale content, aggressive immutable caching for versioned URLs since the
// token changes with the content.
func (h *siteHandler) setCacheHeaders(w http.ResponseWriter, r *http.Request) {
	if h.server.cfg.Server.Dev {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		return
	}
	if r.URL.Query().Get("v") != "" {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
}

// containsPathTraversal checks for .. components in a URL path.
func containsPathTraversal(urlPath string) bool {
	for _, segment := range strings.Split(urlPath, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

// containsDotfile checks for path segments starting with a dot.
func containsDotfile(urlPath string) bool {
	for _, segment := range strings.Split(urlPath, "/") {
		if len(segment) > 1 && segment[0] == '.' {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
