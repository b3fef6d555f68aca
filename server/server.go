// Package server implements the tagmint dev server: it serves a web root,
// rewriting HTML documents through the script tag transformer on the way
// out and invalidating asset caches when files change.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"tagmint/assets"
	"tagmint/config"
	"tagmint/logging"
	"tagmint/pages"
	"tagmint/rewrite"
	"tagmint/tags"

	"github.com/rs/zerolog"
)

// Server ties the rewriting pipeline to an HTTP listener.
type Server struct {
	cfg       *config.Config
	rewriter  *rewrite.Rewriter
	renderer  *pages.Renderer
	expander  *assets.Expander
	versioner *assets.Versioner
	logger    zerolog.Logger
}

// New builds a server and its rewriting pipeline from configuration.
func New(cfg *config.Config) (*Server, error) {
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

	return &Server{
		cfg:       cfg,
		rewriter:  rewrite.New(helper),
		renderer:  renderer,
		expander:  expander,
		versioner: versioner,
		logger:    logging.GetLogger("server"),
	}, nil
}

// Handler returns the server's HTTP handler with compression applied.
func (s *Server) Handler() http.Handler {
	site := newSiteHandler(s)
	return newCompressionHandler(site, s.cfg.Compression)
}

// Run serves until ctx is cancelled, then shuts down gracefully. In dev
// mode a file watcher invalidates asset caches on changes.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Server.Dev {
		watcher, err := NewWatcher(s.cfg.WebRoot, s.invalidate)
		if err != nil {
			return fmt.Errorf("server: starting watcher: %w", err)
		}
		go watcher.Start(ctx)
	}

	addr := net.JoinHostPort(s.cfg.Server.Host, fmt.Sprintf("%d", s.cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// invalidate drops cached glob results and version tokens. Called by the
// watcher after file changes.
func (s *Server) invalidate() {
	s.expander.Invalidate()
	s.versioner.Invalidate()
	s.logger.Debug().Msg("asset caches invalidated")
}
