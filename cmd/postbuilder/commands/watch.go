package commands

import (
	"context"
	"io"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/site"
	"git.home.luguber.info/inful/postbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Serve    string        `help:"Serve the output directory on this address (e.g. 127.0.0.1:1313)"`
	Debounce time.Duration `help:"Quiet period before a rebuild" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	if _, err := loadConfig(g, root); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunWatch(ctx, root.Config, w.Serve, w.Debounce, g.logger(), g.stdout())
}

// RunWatch builds once, then rebuilds on change until ctx is canceled. The
// configuration is reloaded for every rebuild so edits to it apply too. Each
// rebuild reports the posts whose content fingerprint changed since the last
// successful build.
func RunWatch(ctx context.Context, configPath, serveAddr string, debounce time.Duration, logger *slog.Logger, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Only touched by the initial build and the watcher's single worker.
	var digests map[string]string
	build := func(ctx context.Context, cfg *config.Config) error {
		report, err := RunBuild(ctx, cfg, logger, out, site.WithBaseline(digests))
		if err != nil {
			return err
		}
		for _, slug := range report.Changed {
			logger.Info("Post changed", logfields.Slug(slug))
		}
		digests = report.Digests
		return nil
	}

	if err := build(ctx, cfg); err != nil {
		logger.Warn("Initial build failed; watching anyway", slog.String("error", err.Error()))
	}

	if serveAddr != "" {
		srv, err := watch.Listen(serveAddr, cfg.Resolve(cfg.Output.Directory), logger)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(); err != nil {
				logger.Error("HTTP server stopped", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			if err := srv.Shutdown(); err != nil {
				logger.Warn("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}()
	}

	rebuild := func(ctx context.Context) error {
		next, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return build(ctx, next)
	}

	dirs := []string{cfg.Resolve(cfg.Content.Dir), cfg.Resolve(cfg.Templates.Dir)}
	w := watch.New(dirs, rebuild, watch.WithDebounce(debounce), watch.WithLogger(logger))
	return w.Run(ctx)
}
