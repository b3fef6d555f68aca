package server

import (
	"compress/gzip"
	"net/http"

	"tagmint/config"

	"github.com/klauspost/compress/gzhttp"
)

// compressionLevels maps config level names to gzip levels. Unknown names
// fall back to the default level rather than failing startup.
var compressionLevels = map[string]int{
	"fastest": gzip.BestSpeed,
	"default": gzip.DefaultCompression,
	"best":    gzip.BestCompression,
}

// newCompressionHandler applies gzip to responses above the configured
// minimum size. Level "none" or a disabled config leaves the handler
// untouched; rewritten HTML compresses well, so this is on by default.
func newCompressionHandler(h http.Handler, cfg config.CompressionConfig) http.Handler {
	if !cfg.Enabled || cfg.Level == "none" {
		return h
	}

	level, ok := compressionLevels[cfg.Level]
	if !ok {
		level = gzip.DefaultCompression
	}

	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.MinSize),
		gzhttp.CompressionLevel(level),
	)
	if err != nil {
		// NewWrapper only rejects out-of-range option values, which the
		// table above cannot produce; serve uncompressed if it ever does.
		return h
	}

	return wrapper(h)
}
