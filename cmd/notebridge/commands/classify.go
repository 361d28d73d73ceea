package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/intent"
)

// ClassifyCmd implements the 'classify' command. It never touches the remote.
type ClassifyCmd struct {
	Old string `arg:"" help:"Path before the move"`
	New string `arg:"" help:"Path after the move"`
	Dir bool   `help:"Treat the move as a directory move"`
}

func (c *ClassifyCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	registry := intent.NewRegistry(cfg)

	oldPath, err := filepath.Abs(c.Old)
	if err != nil {
		return err
	}
	newPath, err := filepath.Abs(c.New)
	if err != nil {
		return err
	}

	out := g.out()
	got := registry.Interpret(intent.Move{OldPath: oldPath, NewPath: newPath, IsDir: c.Dir})
	if u, ok := got.(intent.Update); ok && u.Immediate {
		fmt.Fprintf(out, "intent: %s (immediate)\n", got.Kind())
	} else {
		fmt.Fprintf(out, "intent: %s\n", got.Kind())
	}
	if target, ok := intent.TargetOf(got); ok {
		fmt.Fprintf(out, "site:   %s (%s)\n", target.Site.Name, target.Site.Repo)
		fmt.Fprintf(out, "file:   %s\n", target.File)
	}
	return nil
}
