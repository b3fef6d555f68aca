package tags

// Mode selects how a <script> element is rewritten. Modes are mutually
// exclusive; ResolveMode picks exactly one or reports no match.
type Mode int

const (
	// ModeNone means no recognized attribute combination was present.
	// The element renders unchanged.
	ModeNone Mode = iota

	// ModeAppendVersion appends a content-derived version query parameter
	// to the src URL.
	ModeAppendVersion

	// ModeGlobbedSrc expands src include/exclude patterns into one
	// rendered <script> tag per matched file.
	ModeGlobbedSrc

	// ModeFallback emits an inline script that loads alternate sources
	// via document.write when the fallback test fails.
	ModeFallback
)

func (m Mode) String() string {
	switch m {
	case ModeAppendVersion:
		return "append-version"
	case ModeGlobbedSrc:
		return "globbed-src"
	case ModeFallback:
		return "fallback"
	}
	return "none"
}

// modeEntry pairs a mode with the attribute names that select it.
type modeEntry struct {
	mode     Mode
	required []string
}

// modeTable is checked in order; the first entry whose required names are
// all present wins. The ordering is deliberate policy, not derived:
//   - fallback entries come before globbed-src so an element carrying both
//     fallback and src-include attributes resolves to fallback (the globbed
//     primary expansion still runs for it, see Process)
//   - static fallback src beats globbed fallback src
//   - exclude-capable variants precede their exclude-less counterparts,
//     otherwise first-match-wins would make them unreachable
//   - append-version is last: it is orthogonal to the other modes and only
//     selects on its own when nothing else applies
var modeTable = []modeEntry{
	{ModeFallback, []string{FallbackSrcAttr, FallbackTestAttr}},
	{ModeFallback, []string{FallbackSrcIncludeAttr, FallbackSrcExcludeAttr, FallbackTestAttr}},
	{ModeFallback, []string{FallbackSrcIncludeAttr, FallbackTestAttr}},
	{ModeGlobbedSrc, []string{SrcIncludeAttr, SrcExcludeAttr}},
	{ModeGlobbedSrc, []string{SrcIncludeAttr}},
	{ModeAppendVersion, []string{AppendVersionAttr}},
}

// ResolveMode determines the rendering mode for an element's attribute set.
// It returns ModeNone and false when no table entry matches; the caller
// then leaves the element alone.
func ResolveMode(attrs AttributeList) (Mode, bool) {
	for _, entry := range modeTable {
		if hasAll(attrs, entry.required) {
			return entry.mode, true
		}
	}
	return ModeNone, false
}

func hasAll(attrs AttributeList, names []string) bool {
	for _, name := range names {
		if !attrs.Has(name) {
			return false
		}
	}
	return true
}
