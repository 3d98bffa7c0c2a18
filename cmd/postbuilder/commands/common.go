// Package commands implements the postbuilder subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"github.com/alecthomas/kong"
)

// Global is passed to every subcommand's Run method.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site into the output directory"`
	Discover DiscoverCmd `cmd:"" help:"List the posts and their derived fields without rendering"`
	Init     InitCmd     `cmd:"" help:"Create a configuration file, templates and a sample post"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild on every change to content or templates"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.setupLogging()
	return nil
}

func (c *CLI) setupLogging() {
	level := config.LogLevel(c.Verbose)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadConfig loads root.Config and rebuilds the logger, because the .env
// files loaded with the configuration may set POSTBUILDER_LOG_LEVEL.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	root.setupLogging()
	if g != nil {
		g.Logger = slog.Default()
	}
	return cfg, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
