package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// versionEntry holds a cached token for a file, invalidated when the file's
// modtime or size changes.
type versionEntry struct {
	token   string
	modTime time.Time
	size    int64
}

// Versioner computes content-derived version tokens for files under a web
// root. The same file content always yields the same token; changed content
// yields a different one. Tokens are cached per path.
type Versioner struct {
	root     string
	basePath string

	mu    sync.RWMutex
	cache map[string]versionEntry
}

// NewVersioner creates a versioner for files under root. URLs are mapped to
// files after stripping basePath.
func NewVersioner(root, basePath string) *Versioner {
	return &Versioner{
		root:     root,
		basePath: basePath,
		cache:    make(map[string]versionEntry),
	}
}

// VersionOf returns the version token for the file a URL refers to.
// ok is false when the URL does not map to a readable file; the caller then
// leaves the URL unversioned.
func (v *Versioner) VersionOf(urlPath string) (string, bool) {
	fp, ok := v.filePath(urlPath)
	if !ok {
		return "", false
	}

	stat, err := os.Stat(fp)
	if err != nil || stat.IsDir() {
		return "", false
	}

	v.mu.RLock()
	if entry, found := v.cache[fp]; found {
		if entry.modTime.Equal(stat.ModTime()) && entry.size == stat.Size() {
			v.mu.RUnlock()
			return entry.token, true
		}
	}
	v.mu.RUnlock()

	content, err := os.ReadFile(fp)
	if err != nil {
		return "", false
	}
	token := versionToken(content)

	v.mu.Lock()
	v.cache[fp] = versionEntry{
		token:   token,
		modTime: stat.ModTime(),
		size:    stat.Size(),
	}
	v.mu.Unlock()

	return token, true
}

// Invalidate drops all cached tokens (called on file changes in dev mode).
func (v *Versioner) Invalidate() {
	v.mu.Lock()
	v.cache = make(map[string]versionEntry)
	v.mu.Unlock()
}

// filePath maps a URL path onto a file under the web root. Absolute and
// protocol-relative URLs never map to local files.
func (v *Versioner) filePath(urlPath string) (string, bool) {
	if urlPath == "" || strings.Contains(urlPath, "://") || strings.HasPrefix(urlPath, "//") {
		return "", false
	}

	// Drop any query string before mapping to the filesystem.
	if i := strings.IndexByte(urlPath, '?'); i >= 0 {
		urlPath = urlPath[:i]
	}

	if v.basePath != "" {
		urlPath = strings.TrimPrefix(urlPath, v.basePath)
	}
	urlPath = strings.TrimPrefix(urlPath, "/")
	if urlPath == "" || strings.Contains(urlPath, "..") {
		return "", false
	}

	return filepath.Join(v.root, filepath.FromSlash(urlPath)), true
}

// versionToken computes SHA256 and returns the first 16 hex chars.
func versionToken(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])[:16]
}
