package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/activity"
	"git.home.luguber.info/inful/notebridge/internal/config"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of records to show" default:"20"`
	Slug  string `help:"Only show records for this slug"`
	JSON  bool   `name:"json" help:"Print records as JSON lines"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	store, err := activity.NewSQLiteStore(cfg.Activity.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	records, err := store.Recent(ctx, h.Limit, h.Slug)
	if err != nil {
		return err
	}

	out := g.out()
	if h.JSON {
		enc := json.NewEncoder(out)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No activity recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOPERATION\tSITE\tSLUG\tRESULT\tDETAIL")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Time.Local().Format(time.DateTime), rec.Operation, rec.Site, rec.Slug, outcome(rec), detail(rec))
	}
	return tw.Flush()
}

func outcome(rec activity.Record) string {
	if rec.Success {
		return "ok"
	}
	return rec.FailureKind
}

func detail(rec activity.Record) string {
	switch {
	case !rec.Success:
		return rec.Message
	case rec.LiveURL != "" && rec.Merged:
		return rec.LiveURL
	case rec.PRURL != "":
		return rec.PRURL
	}
	return ""
}
