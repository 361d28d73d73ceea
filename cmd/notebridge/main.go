package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/notebridge/cmd/notebridge/commands"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("notebridge"),
		kong.Description("Publish notes to a GitHub-hosted site by moving them between folders."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
