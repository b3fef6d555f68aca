package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tagmint/assets"
	"tagmint/config"
	"tagmint/logging"
	"tagmint/pages"
	"tagmint/rewrite"
	"tagmint/tags"
)

// runBuild rewrites every page under the web root into an output
// directory: .html files go through the script tag transformer, .md files
// are rendered first, everything else is copied through.
func runBuild(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("tagmint build", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath = flags.String("config", "", "Path to config file")
		outDir     = flags.String("out", "dist", "Output directory")
		verbosity  = flags.Int("v", 1, "Log verbosity (0-3)")
	)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logging.Setup(*verbosity)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	b, err := newBuilder(cfg, *outDir)
	if err != nil {
		return err
	}

	written, err := b.buildAll()
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "built %d files into %s\n", written, *outDir)
	return nil
}

// builder holds the rewriting pipeline for one build run.
type builder struct {
	cfg      *config.Config
	outDir   string
	rewriter *rewrite.Rewriter
	renderer *pages.Renderer
}

func newBuilder(cfg *config.Config, outDir string) (*builder, error) {
	resolver := assets.NewPathResolver(cfg.BasePath)
	expander := assets.NewExpander(cfg.WebRoot)
	versioner := assets.NewVersioner(cfg.WebRoot, cfg.BasePath)
	helper := tags.NewScriptTagHelper(resolver, expander, versioner)
	helper.AppendVersionByDefault(cfg.Rewrite.AppendVersion)

	var renderer *pages.Renderer
	if cfg.Pages.Enabled {
		var err error
		renderer, err = pages.NewRenderer(cfg.Pages.Layout, cfg.WebRoot)
		if err != nil {
			return nil, err
		}
	}

	return &builder{
		cfg:      cfg,
		outDir:   outDir,
		rewriter: rewrite.New(helper),
		renderer: renderer,
	}, nil
}

// buildAll walks the web root and writes the built site, returning the
// number of files written.
func (b *builder) buildAll() (int, error) {
	written := 0
	err := filepath.WalkDir(b.cfg.WebRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != b.cfg.WebRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			return nil
		}

		rel, err := filepath.Rel(b.cfg.WebRoot, path)
		if err != nil {
			return err
		}

		if err := b.buildFile(path, rel); err != nil {
			return fmt.Errorf("building %s: %w", rel, err)
		}
		written++
		return nil
	})
	return written, err
}

func (b *builder) buildFile(path, rel string) error {
	switch {
	case strings.HasSuffix(path, ".html"):
		return b.buildHTML(path, rel)
	case strings.HasSuffix(path, ".md") && b.renderer != nil:
		return b.buildPage(path, rel)
	default:
		return b.copyFile(path, rel)
	}
}

func (b *builder) buildHTML(path, rel string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := b.rewriter.Rewrite(f, &buf); err != nil {
		return err
	}
	return b.writeOutput(rel, buf.Bytes())
}

func (b *builder) buildPage(path, rel string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := b.renderer.Render(source)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := b.rewriter.Rewrite(bytes.NewReader(doc), &buf); err != nil {
		return err
	}

	return b.writeOutput(strings.TrimSuffix(rel, ".md")+".html", buf.Bytes())
}

func (b *builder) copyFile(path, rel string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return b.writeOutput(rel, data)
}

func (b *builder) writeOutput(rel string, data []byte) error {
	dest := filepath.Join(b.outDir, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
