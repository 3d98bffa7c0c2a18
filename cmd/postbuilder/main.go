package main

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/postbuilder/cmd/postbuilder/commands"
	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/version"
	"github.com/alecthomas/kong"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("postbuilder"),
		kong.Description("Build a static blog from a directory of Markdown posts."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default(), Stdout: os.Stdout}
	if err := parser.Run(global, &cli); err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Report(os.Stderr, err))
	}
}
