package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tagmint/config"
	"tagmint/logging"
	"tagmint/server"
)

// Version information, set at build time via -ldflags
var (
	Version = "dev"     // -X main.Version=$(git describe --tags --always)
	Commit  = "unknown" // -X main.Commit=$(git rev-parse --short HEAD)
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	switch args[0] {
	case "build":
		return runBuild(args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stdout, stderr)
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "tagmint %s (%s)\n", Version, Commit)
		return nil
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return nil
	}

	printUsage(stderr)
	return fmt.Errorf("unknown command: %s", args[0])
}

// runServe runs the dev server until interrupted
func runServe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("tagmint serve", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath = flags.String("config", "", "Path to config file")
		devMode    = flags.Bool("dev", false, "Development mode (no caching, hot reload)")
		port       = flags.Int("port", 0, "Override listen port")
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
	cfg.Server.Dev = *devMode
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *verbosity == 1 {
		// Config level applies unless the flag asked for more
		logging.SetLevel(cfg.Logging.Level)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "tagmint serving %s on http://%s:%d\n", cfg.WebRoot, cfg.Server.Host, cfg.Server.Port)
	return srv.Run(ctx)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `tagmint - server-side script tag rewriting

Usage:
  tagmint build [flags]   Rewrite a site into an output directory
  tagmint serve [flags]   Serve a site with live rewriting
  tagmint version         Show version

Build flags:
  -config path   Path to config file (default: tagmint.yaml)
  -out dir       Output directory (default: dist)
  -v n           Log verbosity 0-3 (default: 1)

Serve flags:
  -config path   Path to config file (default: tagmint.yaml)
  -dev           Development mode: no caching, hot reload
  -port n        Override listen port
  -v n           Log verbosity 0-3 (default: 1)
`)
}
