package tags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGlobber records what was asked for and returns canned URLs plus the
// static URL, like the real expander.
type fakeGlobber struct {
	urls       []string
	gotStatic  string
	gotInclude string
	gotExclude string
}

func (g *fakeGlobber) Expand(staticURL, include, exclude string) []string {
	g.gotStatic = staticURL
	g.gotInclude = include
	g.gotExclude = exclude

	var out []string
	if staticURL != "" {
		out = append(out, staticURL)
	}
	return append(out, g.urls...)
}

// fakeVersions maps URLs to fixed tokens.
type fakeVersions map[string]string

func (v fakeVersions) VersionOf(urlPath string) (string, bool) {
	token, ok := v[urlPath]
	return token, ok
}

// fakeResolver prefixes app-relative URLs with a base path.
type fakeResolver struct{ base string }

func (r fakeResolver) Resolve(raw string) string {
	if rest, ok := strings.CutPrefix(raw, "~/"); ok {
		return r.base + "/" + rest
	}
	return raw
}

func TestProcess_NilArguments(t *testing.T) {
	h := NewScriptTagHelper(nil, nil, nil)

	err := h.Process(nil, &Output{})
	assert.ErrorIs(t, err, ErrNilContext)

	err = h.Process(&TagContext{TagName: "script"}, nil)
	assert.ErrorIs(t, err, ErrNilOutput)
}

func TestProcess_NoRecognizedAttributes(t *testing.T) {
	h := NewScriptTagHelper(nil, &fakeGlobber{}, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js"},
			{Name: "type", Value: "module"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	assert.Equal(t, "script", out.TagName)
	assert.Equal(t, ctx.Attributes, out.Attributes)
	assert.Empty(t, out.Content.String())
	assert.Empty(t, out.PostElement.String())
}

func TestProcess_AppendVersion(t *testing.T) {
	versions := fakeVersions{"x.js": "abc123"}
	h := NewScriptTagHelper(nil, nil, versions)

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js"},
			{Name: AppendVersionAttr, Value: "true"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	src, _ := out.Attributes.Get("src")
	assert.Equal(t, "x.js?v=abc123", src)
	assert.False(t, out.Attributes.Has(AppendVersionAttr), "directive must not render")

	// Idempotent: a second pass over the same content yields the same URL
	out2 := &Output{}
	require.NoError(t, h.Process(ctx, out2))
	src2, _ := out2.Attributes.Get("src")
	assert.Equal(t, src, src2)
}

func TestProcess_AppendVersionFalseOrUnknownFile(t *testing.T) {
	h := NewScriptTagHelper(nil, nil, fakeVersions{})

	// Unknown file: URL renders unversioned
	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "missing.js"},
			{Name: AppendVersionAttr, Value: "true"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))
	src, _ := out.Attributes.Get("src")
	assert.Equal(t, "missing.js", src)

	// Explicit false disables versioning
	ctx = &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js"},
			{Name: AppendVersionAttr, Value: "false"},
		},
	}
	out = &Output{}
	require.NoError(t, h.Process(ctx, out))
	src, _ = out.Attributes.Get("src")
	assert.Equal(t, "x.js", src)
}

func TestProcess_AppendVersionExistingQuery(t *testing.T) {
	h := NewScriptTagHelper(nil, nil, fakeVersions{"x.js?raw=1": "abc123"})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js?raw=1"},
			{Name: AppendVersionAttr, Value: "true"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	src, _ := out.Attributes.Get("src")
	assert.Equal(t, "x.js?raw=1&v=abc123", src)
}

func TestProcess_GlobbedSrcWithoutSrc(t *testing.T) {
	globber := &fakeGlobber{urls: []string{"js/a.js", "js/b.js"}}
	h := NewScriptTagHelper(nil, globber, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: SrcIncludeAttr, Value: "js/*.js"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	assert.Equal(t, "js/*.js", globber.gotInclude)
	assert.Empty(t, globber.gotStatic)

	// Original tag suppressed, only expanded tags render
	assert.Empty(t, out.TagName)
	assert.Equal(t,
		`<script src="js/a.js"></script><script src="js/b.js"></script>`,
		out.Content.String())
	assert.Empty(t, out.PostElement.String())
}

func TestProcess_GlobbedSrcWithVersioning(t *testing.T) {
	globber := &fakeGlobber{urls: []string{"js/a.js", "js/b.js"}}
	versions := fakeVersions{"js/a.js": "aaa", "js/b.js": "bbb"}
	h := NewScriptTagHelper(nil, globber, versions)

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: SrcIncludeAttr, Value: "js/*.js"},
			{Name: AppendVersionAttr, Value: "true"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	assert.Equal(t,
		`<script src="js/a.js?v=aaa"></script><script src="js/b.js?v=bbb"></script>`,
		out.Content.String())
}

func TestProcess_GlobbedSrcSkipsPrimary(t *testing.T) {
	// Expansion must never duplicate the primary src, compared
	// case-insensitively.
	globber := &fakeGlobber{urls: []string{"js/Main.js", "js/extra.js"}}
	h := NewScriptTagHelper(nil, globber, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "js/main.js"},
			{Name: SrcIncludeAttr, Value: "js/*.js"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	// Original tag kept (it has a src), expansion follows the element
	assert.Equal(t, "script", out.TagName)
	src, _ := out.Attributes.Get("src")
	assert.Equal(t, "js/main.js", src)
	assert.Equal(t, `<script src="js/extra.js"></script>`, out.PostElement.String())
	assert.Empty(t, out.Content.String())
}

func TestProcess_GlobbedSrcCarriesAttributes(t *testing.T) {
	globber := &fakeGlobber{urls: []string{"js/a.js"}}
	h := NewScriptTagHelper(nil, globber, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "type", Value: "module"},
			{Name: SrcIncludeAttr, Value: "js/*.js"},
			{Name: "defer", Value: ""},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	assert.Equal(t,
		`<script type="module" defer="" src="js/a.js"></script>`,
		out.Content.String())
}

func TestProcess_GlobbedSrcEmptyMatch(t *testing.T) {
	globber := &fakeGlobber{}
	h := NewScriptTagHelper(nil, globber, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: SrcIncludeAttr, Value: "js/*.js"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	// Nothing matched and there was no src: the element disappears
	assert.Empty(t, out.TagName)
	assert.Empty(t, out.Content.String())
}

func TestProcess_FallbackBlock(t *testing.T) {
	h := NewScriptTagHelper(nil, &fakeGlobber{}, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js"},
			{Name: FallbackSrcAttr, Value: "y.js"},
			{Name: FallbackTestAttr, Value: "window.X"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	// Primary tag renders with its src and without directives
	assert.Equal(t, "script", out.TagName)
	assert.Equal(t, AttributeList{{Name: "src", Value: "x.js"}}, out.Attributes)

	assert.Equal(t,
		`<script>(window.X||document.write("<script src=\"y.js\"><\/script>"));</script>`,
		out.PostElement.String())
}

func TestProcess_FallbackBlockEscaping(t *testing.T) {
	h := NewScriptTagHelper(nil, &fakeGlobber{}, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js"},
			{Name: "data-label", Value: `say "hi" & <bye>`},
			{Name: FallbackSrcAttr, Value: "y.js"},
			{Name: FallbackTestAttr, Value: "window.X"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	post := out.PostElement.String()
	// Quotes inside attribute values survive as &quot;, not as JS escapes
	assert.Contains(t, post, `data-label=\"say &quot;hi&quot; &amp; &lt;bye&gt;\"`)
	// Serialized closing tags cannot terminate the enclosing script element
	assert.NotContains(t, post[len("<script>"):len(post)-len("</script>")], "</script>")
}

func TestProcess_FallbackResolvesAppRelativeURL(t *testing.T) {
	h := NewScriptTagHelper(fakeResolver{base: "/app"}, &fakeGlobber{}, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "~/js/x.js"},
			{Name: FallbackSrcAttr, Value: "~/js/y.js"},
			{Name: FallbackTestAttr, Value: "window.X"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	src, _ := out.Attributes.Get("src")
	assert.Equal(t, "/app/js/x.js", src)
	assert.Contains(t, out.PostElement.String(), `src=\"/app/js/y.js\"`)
}

func TestProcess_FallbackEmptyMatchEmitsNoBlock(t *testing.T) {
	// A globbed fallback with zero matches must not emit an inline block.
	globber := &fakeGlobber{}
	h := NewScriptTagHelper(nil, globber, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js"},
			{Name: FallbackSrcIncludeAttr, Value: "js/fallback/*.js"},
			{Name: FallbackTestAttr, Value: "window.X"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	assert.Empty(t, out.PostElement.String())
}

func TestProcess_FallbackWithGlobbedPrimary(t *testing.T) {
	// Fallback mode still expands the primary include patterns.
	globber := &fakeGlobber{urls: []string{"js/a.js"}}
	h := NewScriptTagHelper(nil, globber, fakeVersions{})

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: SrcIncludeAttr, Value: "js/*.js"},
			{Name: FallbackSrcAttr, Value: "y.js"},
			{Name: FallbackTestAttr, Value: "window.X"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	// No direct src: original suppressed, expansion in content.
	// The fake globber returns its canned URLs plus the static fallback, so
	// the fallback block carries both.
	assert.Empty(t, out.TagName)
	assert.Equal(t, `<script src="js/a.js"></script>`, out.Content.String())
	assert.Contains(t, out.PostElement.String(), `document.write("<script src=\"y.js\"><\/script><script src=\"js/a.js\"><\/script>")`)
}

func TestProcess_FallbackVersioned(t *testing.T) {
	versions := fakeVersions{"x.js": "xxx", "y.js": "yyy"}
	h := NewScriptTagHelper(nil, &fakeGlobber{}, versions)

	ctx := &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js"},
			{Name: FallbackSrcAttr, Value: "y.js"},
			{Name: FallbackTestAttr, Value: "window.X"},
			{Name: AppendVersionAttr, Value: "true"},
		},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))

	src, _ := out.Attributes.Get("src")
	assert.Equal(t, "x.js?v=xxx", src)
	assert.Contains(t, out.PostElement.String(), `src=\"y.js?v=yyy\"`)
}

func TestProcess_AppendVersionByDefault(t *testing.T) {
	versions := fakeVersions{"x.js": "abc123"}
	h := NewScriptTagHelper(nil, nil, versions)
	h.AppendVersionByDefault(true)

	// Versioning applies even without any recognized attribute
	ctx := &TagContext{
		TagName:    "script",
		Attributes: AttributeList{{Name: "src", Value: "x.js"}},
	}
	out := &Output{}
	require.NoError(t, h.Process(ctx, out))
	src, _ := out.Attributes.Get("src")
	assert.Equal(t, "x.js?v=abc123", src)

	// An explicit false attribute still wins over the default
	ctx = &TagContext{
		TagName: "script",
		Attributes: AttributeList{
			{Name: "src", Value: "x.js"},
			{Name: AppendVersionAttr, Value: "false"},
		},
	}
	out = &Output{}
	require.NoError(t, h.Process(ctx, out))
	src, _ = out.Attributes.Get("src")
	assert.Equal(t, "x.js", src)
}

func TestAppendVersionParam(t *testing.T) {
	assert.Equal(t, "x.js?v=t", appendVersionParam("x.js", "t"))
	assert.Equal(t, "x.js?a=1&v=t", appendVersionParam("x.js?a=1", "t"))
}
