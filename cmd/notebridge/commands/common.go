package commands

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/notebridge/internal/activity"
	"git.home.luguber.info/inful/notebridge/internal/auth"
	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/docstore"
	"git.home.luguber.info/inful/notebridge/internal/forge"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/intent"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
	"git.home.luguber.info/inful/notebridge/internal/metrics"
	"git.home.luguber.info/inful/notebridge/internal/publish"
	"git.home.luguber.info/inful/notebridge/internal/retry"
)

// Global is passed to every command's Run method.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing output; stdout when nil.
	Out io.Writer
	// HTTPClient overrides the client used for GitHub calls.
	HTTPClient *http.Client
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"notebridge.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
	Watch     WatchCmd     `cmd:"" help:"Watch the note tree and publish on folder moves"`
	Publish   PublishCmd   `cmd:"" help:"Publish a document through a pull request"`
	Update    UpdateCmd    `cmd:"" help:"Replace an already published post"`
	Unpublish UnpublishCmd `cmd:"" help:"Remove a published post and its assets"`
	Withdraw  WithdrawCmd  `cmd:"" help:"Close a queued pull request that has not been merged"`
	Classify  ClassifyCmd  `cmd:"" help:"Show the intent a move between two paths would produce"`
	Validate  ValidateCmd  `cmd:"" help:"Validate a document's frontmatter"`
	Login     LoginCmd     `cmd:"" help:"Authorize with GitHub using the device flow"`
	Logout    LogoutCmd    `cmd:"" help:"Forget the stored GitHub token"`
	History   HistoryCmd   `cmd:"" help:"Show recent workflow outcomes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runtime bundles the collaborators shared by the workflow commands.
type runtime struct {
	cfg       *config.Config
	registry  *intent.Registry
	docs      *docstore.Store
	tokens    *auth.Manager
	workflows *publish.Orchestrator
}

func newRuntime(g *Global, cfg *config.Config, recorder metrics.Recorder) *runtime {
	logger := g.logger()
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	newClient := func(token string) *forge.Client {
		return forge.NewClient(forge.Options{
			APIURL:     cfg.GitHub.APIURL,
			Token:      token,
			HTTPClient: g.HTTPClient,
			Timeout:    cfg.GitHub.TimeoutDuration(),
			Policy:     retry.FromConfig(cfg.Retry),
			Recorder:   recorder,
			Logger:     logger,
		})
	}

	rt := &runtime{
		cfg:      cfg,
		registry: intent.NewRegistry(cfg),
		docs:     docstore.New(cfg.Vault),
		tokens:   auth.NewManager(cfg.GitHub),
	}
	rt.workflows = publish.New(publish.Options{
		Remote:    publish.ForgeFactory(newClient),
		Documents: rt.docs,
		Tokens:    rt.tokens,
		Rules:     cfg.Frontmatter.RuleSet(),
		Recorder:  recorder,
		Logger:    logger,
	})
	return rt
}

// target resolves the site a document belongs to, or the named site.
func (rt *runtime) target(file, siteName string) (intent.Target, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return intent.Target{}, errors.FileSystemError("failed to resolve path").WithCause(err).WithContext("path", file).Build()
	}
	if siteName != "" {
		site, ok := rt.registry.Site(siteName)
		if !ok {
			return intent.Target{}, errors.ConfigError("unknown site").
				WithContext("site", siteName).
				Build()
		}
		return intent.Target{File: abs, Site: site}, nil
	}
	site, ok := rt.registry.Resolve(abs)
	if !ok {
		return intent.Target{}, errors.ConfigError("document is not inside any configured site").
			WithContext("path", abs).
			WithContext("hint", "move the document below a site root or pass --site").
			UserAction().
			Build()
	}
	return intent.Target{File: abs, Site: site}, nil
}

// sinks are the activity destinations opened for one command run.
type sinks struct {
	store *activity.SQLiteStore
	nats  *activity.NATSPublisher
	sink  activity.Sink
}

func openSinks(cfg *config.Config, logger *slog.Logger) (*sinks, error) {
	store, err := activity.NewSQLiteStore(cfg.Activity.Database)
	if err != nil {
		return nil, err
	}
	s := &sinks{store: store}
	multi := activity.MultiSink{store, activity.LogSink{Logger: logger}}
	if cfg.Activity.NATS.Enabled {
		pub, err := activity.NewNATSPublisher(cfg.Activity.NATS)
		if err != nil {
			// History still works locally without the fan-out.
			logger.Warn("NATS activity publisher unavailable", logfields.Error(err))
		} else {
			s.nats = pub
			multi = append(multi, pub)
		}
	}
	s.sink = multi
	return s, nil
}

func (s *sinks) Close() {
	if s.nats != nil {
		_ = s.nats.Close()
	}
	_ = s.store.Close()
}
