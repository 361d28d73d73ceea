package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/frontmatter"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	File string `arg:"" help:"Document to check" type:"path"`
}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	rules := frontmatter.DefaultRules()
	if _, err := os.Stat(root.Config); err == nil {
		cfg, err := config.Load(root.Config)
		if err != nil {
			return err
		}
		rules = cfg.Frontmatter.RuleSet()
	}

	data, err := os.ReadFile(v.File)
	if err != nil {
		return errors.FileSystemError("failed to read document").WithCause(err).WithContext("path", v.File).Build()
	}

	out := g.out()
	result := frontmatter.Validate(data, rules)
	for _, issue := range result.Errors {
		fmt.Fprintf(out, "error    %s: %s\n", issue.Field, issue.Message)
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(out, "warning  %s: %s\n", issue.Field, issue.Message)
	}
	if !result.Valid {
		return errors.ValidationError(fmt.Sprintf("%s has invalid frontmatter", v.File)).
			WithContext("errors", len(result.Errors)).
			Build()
	}
	fmt.Fprintf(out, "%s is valid\n", v.File)
	return nil
}
