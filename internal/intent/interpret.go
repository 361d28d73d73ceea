package intent

// Move is a rename of a file-tree entry from OldPath to NewPath.
type Move struct {
	OldPath string
	NewPath string
	IsDir   bool
}

type transition struct {
	from, to Folder // FolderNone as from matches any origin
	build    func(Target) Intent
}

// transitions is evaluated in order; the first match wins. Moves out of
// published come first so they are never mistaken for fresh publishes.
var transitions = []transition{
	{FolderPublished, FolderScheduled, func(t Target) Intent { return Update{Target: t, Immediate: false} }},
	{FolderPublished, FolderImmediate, func(t Target) Intent { return Update{Target: t, Immediate: true} }},
	{FolderPublished, FolderUnpublished, func(t Target) Intent { return Unpublish{t} }},
	{FolderScheduled, FolderUnpublished, func(t Target) Intent { return Withdraw{t} }},
	{FolderNone, FolderScheduled, func(t Target) Intent { return SchedulePublish{t} }},
	{FolderNone, FolderImmediate, func(t Target) Intent { return ImmediatePublish{t} }},
}

// Interpret maps a move to an intent. It has no side effects.
//
// A move whose old path lies outside every site yields None: files that
// appear from outside a tracked tree, for example via sync, never trigger
// remote actions.
func (r *Registry) Interpret(m Move) Intent {
	if m.IsDir || !r.Tracked(m.NewPath) {
		return None{}
	}
	if len(r.sites) == 0 {
		return None{}
	}
	oldSite, ok := r.Resolve(m.OldPath)
	if !ok {
		return None{}
	}
	newSite, ok := r.Resolve(m.NewPath)
	if !ok {
		return None{}
	}

	from := r.Classify(oldSite, m.OldPath)
	to := r.Classify(newSite, m.NewPath)
	target := Target{File: m.NewPath, Site: newSite}

	for _, tr := range transitions {
		if tr.to != to {
			continue
		}
		if tr.from != FolderNone && tr.from != from {
			continue
		}
		if tr.from == FolderNone && from == to {
			// same-folder rename
			return None{}
		}
		return tr.build(target)
	}
	return None{}
}
