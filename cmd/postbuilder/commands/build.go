package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
	"git.home.luguber.info/inful/postbuilder/internal/site"
	"github.com/prometheus/client_golang/prometheus"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output          string `short:"o" help:"Override output.directory"`
	MetricsTextfile string `name:"metrics-textfile" help:"Write Prometheus metrics to this file after the build (overrides metrics.textfile)"`
	CollectLinks    bool   `name:"collect-links" help:"Store scanned absolute links in maybeAbsoluteLinks"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := b.loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	_, err = RunBuild(ctx, cfg, g.logger(), g.stdout())
	return err
}

// loadConfig loads the configuration and validates it again once the
// command-line overrides are applied.
func (b *BuildCmd) loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return nil, err
	}
	b.applyOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b *BuildCmd) applyOverrides(cfg *config.Config) {
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.MetricsTextfile != "" {
		cfg.Metrics.Textfile = b.MetricsTextfile
	}
	if b.CollectLinks {
		cfg.Links.CollectAbsolute = true
	}
}

// RunBuild builds the site once and prints a summary to out. When
// metrics.textfile is set the build's metrics are written there, even for a
// failed build. extra options are applied after the defaults.
func RunBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, extra ...site.Option) (*site.Report, error) {
	opts := []site.Option{site.WithLogger(logger)}

	var reg *prometheus.Registry
	if cfg.Metrics.Textfile != "" {
		reg = prometheus.NewRegistry()
		opts = append(opts, site.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	}

	opts = append(opts, extra...)
	report, err := site.NewBuilder(cfg, opts...).Build(ctx)

	if reg != nil {
		path := cfg.Resolve(cfg.Metrics.Textfile)
		if werr := metrics.WriteTextfile(path, reg); werr != nil {
			logger.Warn("Failed to write metrics textfile", slog.String("path", path), slog.String("error", werr.Error()))
		}
	}
	if err != nil {
		return report, err
	}

	_, _ = fmt.Fprintf(out, "Built %d pages from %d posts into %s (%s)\n",
		report.PagesWritten, report.NodesDiscovered, cfg.Resolve(cfg.Output.Directory), report.Outcome)
	if report.Changed != nil {
		_, _ = fmt.Fprintf(out, "%d post(s) changed since the previous build\n", len(report.Changed))
	}
	if report.QueryErrors > 0 {
		_, _ = fmt.Fprintf(out, "Posts query reported %d error(s); only the index page was created\n", report.QueryErrors)
	}
	for _, s := range report.Skipped {
		_, _ = fmt.Fprintf(out, "Skipped %s: %v\n", s.Path, s.Err)
	}
	return report, nil
}
