package tags

import (
	"errors"
	"strings"

	"tagmint/logging"

	"github.com/rs/zerolog"
)

// Precondition violations for Process. These are the only errors the
// transformer raises itself; collaborator misses degrade to no output.
var (
	ErrNilContext = errors.New("tags: nil tag context")
	ErrNilOutput  = errors.New("tags: nil tag output")
)

// URLResolver applies application base-path rules to a raw URL.
type URLResolver interface {
	Resolve(raw string) string
}

// GlobExpander expands comma-separated include/exclude patterns against a
// web root. The static URL, when non-empty, is part of the result set.
// Results are ordered and deduplicated; a pattern matching nothing
// contributes nothing.
type GlobExpander interface {
	Expand(staticURL, include, exclude string) []string
}

// VersionProvider returns a deterministic content-derived token for a URL.
// ok is false when no token is available (e.g. the file does not exist),
// in which case the URL renders unversioned.
type VersionProvider interface {
	VersionOf(urlPath string) (token string, ok bool)
}

// TagContext is the element under transformation: its tag name and every
// bound attribute in source order.
type TagContext struct {
	TagName    string
	Attributes AttributeList
}

// Output receives the transformation result. TagName set to "" suppresses
// the original element, in which case Content renders in its place.
// PostElement is markup rendered immediately after the element. Both
// buffers are append-only and consumed once by the caller.
type Output struct {
	TagName     string
	Attributes  AttributeList
	Content     strings.Builder
	PostElement strings.Builder
}

// ScriptTagHelper rewrites <script> elements: version query strings,
// glob-expanded sources, and fallback loading blocks.
type ScriptTagHelper struct {
	resolver      URLResolver
	globber       GlobExpander
	versions      VersionProvider
	appendDefault bool
	logger        zerolog.Logger
}

// NewScriptTagHelper creates a transformer with the given collaborators.
// Any collaborator may be nil: URL resolution then passes URLs through,
// glob expansion yields only static URLs, and versioning is skipped.
func NewScriptTagHelper(resolver URLResolver, globber GlobExpander, versions VersionProvider) *ScriptTagHelper {
	return &ScriptTagHelper{
		resolver: resolver,
		globber:  globber,
		versions: versions,
		logger:   logging.GetLogger("tags.script"),
	}
}

// AppendVersionByDefault makes the helper version every emitted URL even
// without an asp-append-version attribute. An explicit attribute still
// wins.
func (h *ScriptTagHelper) AppendVersionByDefault(on bool) {
	h.appendDefault = on
}

// Process transforms one element. With no recognized attribute combination
// the element passes through unchanged; this is a no-op, not an error.
func (h *ScriptTagHelper) Process(ctx *TagContext, out *Output) error {
	if ctx == nil {
		return ErrNilContext
	}
	if out == nil {
		return ErrNilOutput
	}

	mode, ok := ResolveMode(ctx.Attributes)
	if !ok {
		out.TagName = ctx.TagName
		out.Attributes = ctx.Attributes.Clone()
		if h.appendDefault {
			if src, hasSrc := ctx.Attributes.Get(SrcAttr); hasSrc {
				out.Attributes.Set(SrcAttr, h.versioned(h.resolve(src), true))
			}
		}
		return nil
	}

	h.logger.Debug().
		Str("mode", mode.String()).
		Msg("resolved script tag mode")

	appendVersion := h.appendDefault
	if v, present := ctx.Attributes.Get(AppendVersionAttr); present {
		appendVersion = boolValue(v)
	}

	out.TagName = ctx.TagName
	out.Attributes = ctx.Attributes.passThrough()

	srcRaw, hasSrc := ctx.Attributes.Get(SrcAttr)
	if hasSrc {
		out.Attributes.Set(SrcAttr, h.versioned(h.resolve(srcRaw), appendVersion))
	}

	// Globbed expansion of the primary source runs for globbed-src mode and
	// for fallback mode when the element also carries an include pattern.
	if mode == ModeGlobbedSrc || (mode == ModeFallback && ctx.Attributes.Has(SrcIncludeAttr)) {
		h.expandPrimary(ctx, out, srcRaw, hasSrc, appendVersion)
	}

	if mode == ModeFallback {
		h.writeFallbackBlock(ctx, out, appendVersion)
	}

	return nil
}

// expandPrimary renders one <script> tag per glob-matched URL. With no
// direct src the original element is suppressed and only the expanded tags
// render; with a src the tags follow the original element.
func (h *ScriptTagHelper) expandPrimary(ctx *TagContext, out *Output, srcRaw string, hasSrc, appendVersion bool) {
	include, _ := ctx.Attributes.Get(SrcIncludeAttr)
	exclude, _ := ctx.Attributes.Get(SrcExcludeAttr)

	var b strings.Builder
	for _, u := range h.expand("", include, exclude) {
		// Never duplicate the primary src.
		if hasSrc && strings.EqualFold(u, srcRaw) {
			continue
		}
		h.writeScriptTag(&b, ctx.Attributes, h.versioned(u, appendVersion))
	}

	if hasSrc {
		out.PostElement.WriteString(b.String())
	} else {
		out.TagName = ""
		out.Content.WriteString(b.String())
	}
}

// writeFallbackBlock emits the inline bootstrap script:
//
//	<script>(test||document.write("<script src=\"url\"><\/script>"));</script>
//
// Attribute values are HTML-attribute-encoded when the tag string is built
// and the whole tag is then JavaScript-escaped, so the src ends up double
// encoded and quotes inside values survive as &quot;.
func (h *ScriptTagHelper) writeFallbackBlock(ctx *TagContext, out *Output, appendVersion bool) {
	fallbackSrc, _ := ctx.Attributes.Get(FallbackSrcAttr)
	include, _ := ctx.Attributes.Get(FallbackSrcIncludeAttr)
	exclude, _ := ctx.Attributes.Get(FallbackSrcExcludeAttr)
	test, _ := ctx.Attributes.Get(FallbackTestAttr)

	static := ""
	if fallbackSrc != "" {
		static = h.resolve(fallbackSrc)
	}

	urls := h.expand(static, include, exclude)
	if len(urls) == 0 {
		return
	}

	out.PostElement.WriteString("<script>(")
	out.PostElement.WriteString(test)
	out.PostElement.WriteString(`||document.write("`)
	for _, u := range urls {
		var tag strings.Builder
		h.writeScriptTag(&tag, ctx.Attributes, h.versioned(u, appendVersion))
		out.PostElement.WriteString(jsStringEscape(tag.String()))
	}
	out.PostElement.WriteString(`"));</script>`)
}

// writeScriptTag serializes a full <script ...></script> tag carrying the
// element's pass-through attributes, with src set to url. The src keeps its
// original position when the element had one, otherwise it renders last.
func (h *ScriptTagHelper) writeScriptTag(b *strings.Builder, attrs AttributeList, url string) {
	b.WriteString("<script")
	wroteSrc := false
	for _, a := range attrs.passThrough() {
		value := a.Value
		if a.Name == SrcAttr {
			value = url
			wroteSrc = true
		}
		b.WriteString(" ")
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(htmlAttributeEncode(value))
		b.WriteString(`"`)
	}
	if !wroteSrc {
		b.WriteString(` src="`)
		b.WriteString(htmlAttributeEncode(url))
		b.WriteString(`"`)
	}
	b.WriteString("></script>")
}

func (h *ScriptTagHelper) resolve(raw string) string {
	if h.resolver == nil {
		return raw
	}
	return h.resolver.Resolve(raw)
}

func (h *ScriptTagHelper) expand(static, include, exclude string) []string {
	if h.globber == nil {
		if static != "" {
			return []string{static}
		}
		return nil
	}
	return h.globber.Expand(static, include, exclude)
}

func (h *ScriptTagHelper) versioned(url string, appendVersion bool) string {
	if !appendVersion || h.versions == nil {
		return url
	}
	token, ok := h.versions.VersionOf(url)
	if !ok {
		return url
	}
	return appendVersionParam(url, token)
}

// appendVersionParam appends the version token as a v query parameter.
func appendVersionParam(url, token string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "v=" + token
}
