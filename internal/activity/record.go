// Package activity keeps a history of workflow outcomes.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/notebridge/internal/publish"
)

// Record is one workflow outcome.
type Record struct {
	ID            string    `json:"id"`
	Time          time.Time `json:"time"`
	Operation     string    `json:"operation"`
	Site          string    `json:"site"`
	File          string    `json:"file"`
	Slug          string    `json:"slug,omitempty"`
	Success       bool      `json:"success"`
	FailureKind   string    `json:"failure_kind,omitempty"`
	Message       string    `json:"message,omitempty"`
	Branch        string    `json:"branch,omitempty"`
	PRNumber      int       `json:"pr_number,omitempty"`
	PRURL         string    `json:"pr_url,omitempty"`
	Merged        bool      `json:"merged,omitempty"`
	LiveURL       string    `json:"live_url,omitempty"`
	DeletedFiles  []string  `json:"deleted_files,omitempty"`
	SkippedAssets []string  `json:"skipped_assets,omitempty"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
}

// Sink persists or forwards records.
type Sink interface {
	Record(ctx context.Context, rec Record) error
}

// FromResult builds a record for a workflow result. NoAction results are not
// recorded and yield ok == false.
func FromResult(res publish.Result, site, file string, at time.Time) (rec Record, ok bool) {
	if _, none := res.(publish.NoAction); none || res == nil {
		return Record{}, false
	}
	rec = Record{
		ID:        uuid.NewString(),
		Time:      at.UTC(),
		Operation: string(res.Operation()),
		Site:      site,
		File:      file,
		Success:   res.Succeeded(),
	}
	if f := res.Failed(); f != nil {
		rec.FailureKind = string(f.Kind)
		rec.Message = f.Message
	}
	switch r := res.(type) {
	case *publish.PublishResult:
		rec.Slug, rec.Branch = r.Slug, r.Branch
		rec.PRNumber, rec.PRURL, rec.Merged = r.PRNumber, r.PRURL, r.Merged
		rec.LiveURL, rec.Fingerprint = r.LiveURL, r.Fingerprint
		rec.SkippedAssets = r.SkippedAssets
	case *publish.UnpublishResult:
		rec.Slug, rec.Branch = r.Slug, r.Branch
		rec.PRNumber, rec.PRURL = r.PRNumber, r.PRURL
		rec.Merged = r.Failure == nil
		rec.DeletedFiles = r.DeletedFiles
	case *publish.WithdrawResult:
		rec.Slug, rec.Branch = r.Slug, r.Branch
		rec.PRNumber, rec.PRURL = r.PRNumber, r.PRURL
	}
	return rec, true
}
