package assets

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"tagmint/logging"
)

// Expander expands comma-separated glob patterns against a web root
// directory and returns stable, deduplicated URL lists. Pattern results
// are cached until Invalidate is called (the server watcher does this on
// file changes).
type Expander struct {
	root string

	mu    sync.RWMutex
	cache map[string][]string
}

// NewExpander creates an expander over the given web root directory.
func NewExpander(root string) *Expander {
	return &Expander{
		root:  root,
		cache: make(map[string][]string),
	}
}

// Expand resolves include minus exclude patterns to matching file URLs,
// relative to the web root. A non-empty staticURL leads the result list.
// Patterns that match nothing contribute nothing; malformed patterns are
// treated the same way, never as errors.
func (e *Expander) Expand(staticURL, include, exclude string) []string {
	matched := e.expandPatterns(include, exclude)

	urls := make([]string, 0, len(matched)+1)
	seen := make(map[string]bool, len(matched)+1)
	if staticURL != "" {
		urls = append(urls, staticURL)
		seen[strings.ToLower(staticURL)] = true
	}
	for _, u := range matched {
		key := strings.ToLower(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		urls = append(urls, u)
	}
	return urls
}

// Invalidate drops all cached pattern results.
func (e *Expander) Invalidate() {
	e.mu.Lock()
	e.cache = make(map[string][]string)
	e.mu.Unlock()
}

// expandPatterns walks the web root once per uncached include/exclude pair.
func (e *Expander) expandPatterns(include, exclude string) []string {
	if include == "" {
		return nil
	}

	key := include + "|" + exclude
	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return cached
	}

	includes := splitPatterns(include)
	excludes := splitPatterns(exclude)

	var matched []string
	err := fs.WalkDir(os.DirFS(e.root), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if matchesAny(includes, p) && !matchesAny(excludes, p) {
			matched = append(matched, p)
		}
		return nil
	})
	if err != nil {
		logger := logging.GetLogger("assets.glob")
		logger.Warn().
			Err(err).
			Str("root", e.root).
			Msg("glob walk failed")
		return nil
	}
	sort.Strings(matched)

	e.mu.Lock()
	e.cache[key] = matched
	e.mu.Unlock()
	return matched
}

// splitPatterns splits a comma-separated pattern list, trimming whitespace
// and dropping empty entries.
func splitPatterns(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, "/")
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if globMatch(p, name) {
			return true
		}
	}
	return false
}

// globMatch matches a slash-separated path against a pattern, segment by
// segment. A "**" segment spans any number of directories; other segments
// use path.Match semantics.
func globMatch(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, name []string) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	if pattern[0] == "**" {
		if matchSegments(pattern[1:], name) {
			return true
		}
		return len(name) > 0 && matchSegments(pattern, name[1:])
	}
	if len(name) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], name[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], name[1:])
}
