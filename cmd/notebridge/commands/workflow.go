package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/activity"
	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/intent"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
	"git.home.luguber.info/inful/notebridge/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	File string `arg:"" help:"Document to publish" type:"path"`
	Now  bool   `help:"Merge immediately instead of queueing a scheduled pull request"`
	Site string `help:"Site name (defaults to the site whose root contains FILE)"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	return runWorkflow(g, root, p.File, p.Site, func(t intent.Target) intent.Intent {
		if p.Now {
			return intent.ImmediatePublish{Target: t}
		}
		return intent.SchedulePublish{Target: t}
	})
}

// UpdateCmd implements the 'update' command.
type UpdateCmd struct {
	File string `arg:"" help:"Document whose published post is replaced" type:"path"`
	Now  bool   `help:"Merge immediately instead of queueing a scheduled pull request"`
	Site string `help:"Site name (defaults to the site whose root contains FILE)"`
}

func (u *UpdateCmd) Run(g *Global, root *CLI) error {
	return runWorkflow(g, root, u.File, u.Site, func(t intent.Target) intent.Intent {
		return intent.Update{Target: t, Immediate: u.Now}
	})
}

// UnpublishCmd implements the 'unpublish' command.
type UnpublishCmd struct {
	File string `arg:"" help:"Document whose published post is removed" type:"path"`
	Site string `help:"Site name (defaults to the site whose root contains FILE)"`
}

func (u *UnpublishCmd) Run(g *Global, root *CLI) error {
	return runWorkflow(g, root, u.File, u.Site, func(t intent.Target) intent.Intent {
		return intent.Unpublish{Target: t}
	})
}

// WithdrawCmd implements the 'withdraw' command.
type WithdrawCmd struct {
	File string `arg:"" help:"Document whose queued pull request is closed" type:"path"`
	Site string `help:"Site name (defaults to the site whose root contains FILE)"`
}

func (w *WithdrawCmd) Run(g *Global, root *CLI) error {
	return runWorkflow(g, root, w.File, w.Site, func(t intent.Target) intent.Intent {
		return intent.Withdraw{Target: t}
	})
}

func runWorkflow(g *Global, root *CLI, file, siteName string, build func(intent.Target) intent.Intent) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	rt := newRuntime(g, cfg, nil)
	target, err := rt.target(file, siteName)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res := rt.workflows.Dispatch(ctx, build(target))

	if s, err := openSinks(cfg, g.logger()); err != nil {
		g.logger().Warn("Activity history unavailable", logfields.Error(err))
	} else {
		defer s.Close()
		if rec, ok := activity.FromResult(res, target.Site.Name, target.File, time.Now()); ok {
			if err := s.sink.Record(ctx, rec); err != nil {
				g.logger().Warn("Failed to record activity", logfields.Error(err))
			}
		}
	}

	printResult(g.out(), res)
	return res.Failed().AsError()
}

func printResult(w io.Writer, res publish.Result) {
	if f := res.Failed(); f != nil {
		fmt.Fprintf(w, "%s failed (%s): %s\n", res.Operation(), f.Kind, f.Message)
		if f.Validation != nil {
			for _, issue := range f.Validation.Errors {
				fmt.Fprintf(w, "  - %s: %s\n", issue.Field, issue.Message)
			}
		}
		return
	}

	switch r := res.(type) {
	case *publish.PublishResult:
		fmt.Fprintf(w, "%s %s: %s\n", r.Op, r.Slug, r.Path)
		fmt.Fprintf(w, "  pull request #%d %s\n", r.PRNumber, r.PRURL)
		if r.Merged {
			fmt.Fprintln(w, "  merged")
		} else {
			fmt.Fprintln(w, "  queued for scheduled merge")
		}
		if r.LiveURL != "" {
			fmt.Fprintf(w, "  live at %s\n", r.LiveURL)
		}
		if len(r.SkippedAssets) > 0 {
			fmt.Fprintf(w, "  skipped assets: %s\n", strings.Join(r.SkippedAssets, ", "))
		}
	case *publish.UnpublishResult:
		fmt.Fprintf(w, "unpublish %s: pull request #%d %s\n", r.Slug, r.PRNumber, r.PRURL)
		for _, path := range r.DeletedFiles {
			fmt.Fprintf(w, "  deleted %s\n", path)
		}
	case *publish.WithdrawResult:
		fmt.Fprintf(w, "withdraw %s: closed pull request #%d on %s\n", r.Slug, r.PRNumber, r.Branch)
	default:
		fmt.Fprintln(w, "nothing to do")
	}
}
