package commands

import (
	"fmt"

	"git.home.luguber.info/inful/notebridge/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	out := g.out()
	fmt.Fprintf(out, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Fprintln(out, "Edit vault, sites and github.oauth_client_id, then run `notebridge login`.")
	return nil
}
