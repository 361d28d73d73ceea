package commands

import (
	"fmt"
	"net/http"

	"git.home.luguber.info/inful/notebridge/internal/auth"
	"git.home.luguber.info/inful/notebridge/internal/config"
)

// LoginCmd implements the 'login' command.
type LoginCmd struct{}

func (l *LoginCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.GitHub.TimeoutDuration()}
	}
	flow := &auth.DeviceFlow{
		WebURL:     cfg.GitHub.WebURL,
		ClientID:   cfg.GitHub.OAuthClientID,
		Scopes:     cfg.GitHub.Scopes,
		HTTPClient: client,
		Logger:     g.logger(),
	}

	ctx, cancel := signalContext()
	defer cancel()

	code, err := flow.Start(ctx)
	if err != nil {
		return err
	}
	out := g.out()
	fmt.Fprintf(out, "Open %s and enter the code %s\n", code.VerificationURI, code.UserCode)
	fmt.Fprintln(out, "Waiting for authorization (Ctrl-C to cancel)...")

	token, err := flow.Poll(ctx, code, nil)
	if err != nil {
		return err
	}
	store := auth.NewFileStore(cfg.GitHub.TokenFile)
	if err := store.Save(token.AccessToken); err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged in. Token saved to %s\n", cfg.GitHub.TokenFile)
	return nil
}

// LogoutCmd implements the 'logout' command.
type LogoutCmd struct{}

func (l *LogoutCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if err := auth.NewFileStore(cfg.GitHub.TokenFile).Delete(); err != nil {
		return err
	}
	fmt.Fprintln(g.out(), "Logged out")
	return nil
}
