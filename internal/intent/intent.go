// Package intent turns file moves inside the note tree into publish intents.
package intent

import (
	"git.home.luguber.info/inful/notebridge/internal/config"
)

// Kind names an intent variant. It is used for logs and metric labels.
type Kind string

const (
	KindNone             Kind = "none"
	KindSchedulePublish  Kind = "schedule-publish"
	KindImmediatePublish Kind = "immediate-publish"
	KindUpdate           Kind = "update"
	KindUnpublish        Kind = "unpublish"
	KindWithdraw         Kind = "withdraw"
)

// Intent is one of None, SchedulePublish, ImmediatePublish, Update, Unpublish
// or Withdraw. Consumers dispatch with a type switch.
type Intent interface {
	Kind() Kind
	isIntent()
}

// Target is the document and site an actionable intent applies to.
type Target struct {
	File string
	Site config.SiteConfig
}

// None means the move requires no remote action.
type None struct{}

// SchedulePublish publishes through a labelled, unmerged pull request.
type SchedulePublish struct{ Target }

// ImmediatePublish publishes and merges right away.
type ImmediatePublish struct{ Target }

// Update replaces an already published post.
type Update struct {
	Target
	Immediate bool
}

// Unpublish removes a published post.
type Unpublish struct{ Target }

// Withdraw cancels a queued, not yet merged publish.
type Withdraw struct{ Target }

func (None) Kind() Kind             { return KindNone }
func (SchedulePublish) Kind() Kind  { return KindSchedulePublish }
func (ImmediatePublish) Kind() Kind { return KindImmediatePublish }
func (Update) Kind() Kind           { return KindUpdate }
func (Unpublish) Kind() Kind        { return KindUnpublish }
func (Withdraw) Kind() Kind         { return KindWithdraw }

func (None) isIntent()             {}
func (SchedulePublish) isIntent()  {}
func (ImmediatePublish) isIntent() {}
func (Update) isIntent()           {}
func (Unpublish) isIntent()        {}
func (Withdraw) isIntent()         {}

// TargetOf returns the target of an actionable intent.
func TargetOf(in Intent) (Target, bool) {
	switch v := in.(type) {
	case SchedulePublish:
		return v.Target, true
	case ImmediatePublish:
		return v.Target, true
	case Update:
		return v.Target, true
	case Unpublish:
		return v.Target, true
	case Withdraw:
		return v.Target, true
	default:
		return Target{}, false
	}
}
