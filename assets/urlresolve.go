package assets

import (
	"path"
	"strings"
)

// PathResolver maps app-relative URLs (the "~/" prefix) onto a configured
// base path. All other URLs pass through untouched.
type PathResolver struct {
	basePath string
}

// NewPathResolver creates a resolver for the given base path. An empty base
// path resolves "~/" URLs to root-relative ones.
func NewPathResolver(basePath string) *PathResolver {
	basePath = strings.TrimSuffix(basePath, "/")
	return &PathResolver{basePath: basePath}
}

// Resolve applies base-path rules to a raw URL.
func (r *PathResolver) Resolve(raw string) string {
	rest, ok := strings.CutPrefix(raw, "~/")
	if !ok {
		return raw
	}
	return path.Join(r.basePath+"/", rest)
}
