package watch

import (
	"path/filepath"
	"time"
)

type pendingRename struct {
	path string
	at   time.Time
}

// pairer matches the Rename event fired for a move's old path with the
// Create event fired for its new path. Renames that find no Create within
// the window left the watched tree and are dropped.
type pairer struct {
	window  time.Duration
	pending []pendingRename
}

func (p *pairer) rename(path string, at time.Time) {
	p.pending = append(p.pending, pendingRename{path: path, at: at})
}

// create returns the old path of the move that produced path. A pending
// rename with the same base name pairs across directories. Otherwise only
// the most recent rename in the same directory pairs, so a file that merely
// appears elsewhere is never taken for a move.
func (p *pairer) create(path string, at time.Time) (string, bool) {
	p.expire(at)
	idx := -1
	base, dir := filepath.Base(path), filepath.Dir(path)
	for i, r := range p.pending {
		if filepath.Base(r.path) == base {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i := len(p.pending) - 1; i >= 0; i-- {
			if filepath.Dir(p.pending[i].path) == dir {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return "", false
	}
	old := p.pending[idx].path
	p.pending = append(p.pending[:idx], p.pending[idx+1:]...)
	return old, true
}

// expire drops renames older than the window and returns their paths.
func (p *pairer) expire(now time.Time) []string {
	var dropped []string
	kept := p.pending[:0]
	for _, r := range p.pending {
		if now.Sub(r.at) > p.window {
			dropped = append(dropped, r.path)
			continue
		}
		kept = append(kept, r)
	}
	p.pending = kept
	return dropped
}
