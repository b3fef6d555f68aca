package pages

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the parsed YAML header of a markdown page. Layout names
// an HTML shell file overriding the renderer's configured one, resolved
// against the renderer's layout directory when relative.
type Frontmatter struct {
	Title   string   `yaml:"title"`
	Layout  string   `yaml:"layout"`
	Scripts []Script `yaml:"scripts"`
}

// Script declares one <script> element to inject into the rendered page.
// The fields mirror the transformer's attributes, so a declared script can
// use globbing, versioning and fallbacks like a hand-written tag.
type Script struct {
	Src             string `yaml:"src"`
	Include         string `yaml:"include"`
	Exclude         string `yaml:"exclude"`
	FallbackSrc     string `yaml:"fallback_src"`
	FallbackInclude string `yaml:"fallback_include"`
	FallbackExclude string `yaml:"fallback_exclude"`
	FallbackTest    string `yaml:"fallback_test"`
	AppendVersion   bool   `yaml:"append_version"`
}

// ParseFrontmatter extracts and parses YAML frontmatter from markdown
// content. Frontmatter must be between --- delimiters at the start of the
// file. Returns parsed metadata and remaining content; a missing or
// malformed header yields empty metadata and the full content.
func ParseFrontmatter(content string) (*Frontmatter, string) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return &Frontmatter{}, content
	}

	lines := strings.Split(content, "\n")
	closingIndex := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closingIndex = i
			break
		}
	}
	if closingIndex == -1 {
		return &Frontmatter{}, content
	}

	yamlContent := strings.Join(lines[1:closingIndex], "\n")
	fm := &Frontmatter{}
	if err := yaml.Unmarshal([]byte(yamlContent), fm); err != nil {
		// Invalid YAML - treat as no frontmatter rather than failing the page
		return &Frontmatter{}, content
	}

	remaining := strings.Join(lines[closingIndex+1:], "\n")
	return fm, remaining
}
