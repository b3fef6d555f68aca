// Package pages renders markdown files into HTML documents ready for
// script tag rewriting: YAML frontmatter declares the page's scripts, the
// body is converted with goldmark, and both are poured into an HTML shell.
package pages

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// defaultLayout is the HTML shell used when no layout file is configured.
const defaultLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{.Scripts}}</head>
<body>
{{.Content}}</body>
</html>
`

// Renderer converts markdown pages into full HTML documents.
type Renderer struct {
	md        goldmark.Markdown
	layout    *template.Template
	layoutDir string
}

// layoutData feeds the layout template. Scripts and Content are markup the
// renderer produced itself, so they bypass template escaping.
type layoutData struct {
	Title   string
	Scripts template.HTML
	Content template.HTML
}

// NewRenderer creates a renderer. layoutPath may be empty for the built-in
// shell; otherwise it names an HTML template file with .Title, .Scripts and
// .Content slots. Relative per-page layout: overrides are resolved against
// layoutDir (typically the web root).
func NewRenderer(layoutPath, layoutDir string) (*Renderer, error) {
	layout, err := parseLayoutFile(layoutPath)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		layout:    layout,
		layoutDir: layoutDir,
	}, nil
}

// parseLayoutFile parses the layout at path, or the built-in shell for "".
func parseLayoutFile(path string) (*template.Template, error) {
	layoutSrc := defaultLayout
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("pages: reading layout: %w", err)
		}
		layoutSrc = string(data)
	}

	layout, err := template.New("layout").Parse(layoutSrc)
	if err != nil {
		return nil, fmt.Errorf("pages: parsing layout: %w", err)
	}
	return layout, nil
}

// Render converts one markdown source into a complete HTML document.
// The result still carries the directive attributes of any declared
// scripts; the caller runs it through the rewriter.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	fm, body := ParseFrontmatter(string(source))

	var content bytes.Buffer
	if err := r.md.Convert([]byte(body), &content); err != nil {
		return nil, fmt.Errorf("pages: converting markdown: %w", err)
	}

	layout := r.layout
	if fm.Layout != "" {
		path := fm.Layout
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.layoutDir, path)
		}
		var err error
		layout, err = parseLayoutFile(path)
		if err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	err := layout.Execute(&out, layoutData{
		Title:   fm.Title,
		Scripts: template.HTML(scriptMarkup(fm.Scripts)),
		Content: template.HTML(content.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("pages: executing layout: %w", err)
	}
	return out.Bytes(), nil
}

// scriptMarkup serializes the declared scripts as <script> elements with
// transformer directive attributes, one per line.
func scriptMarkup(scripts []Script) string {
	var b strings.Builder
	for _, s := range scripts {
		b.WriteString("<script")
		writeAttr(&b, "src", s.Src)
		writeAttr(&b, "asp-src-include", s.Include)
		writeAttr(&b, "asp-src-exclude", s.Exclude)
		writeAttr(&b, "asp-fallback-src", s.FallbackSrc)
		writeAttr(&b, "asp-fallback-src-include", s.FallbackInclude)
		writeAttr(&b, "asp-fallback-src-exclude", s.FallbackExclude)
		writeAttr(&b, "asp-fallback-test", s.FallbackTest)
		if s.AppendVersion {
			writeAttr(&b, "asp-append-version", "true")
		}
		b.WriteString("></script>\n")
	}
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, " %s=\"%s\"", name, stdhtml.EscapeString(value))
}
