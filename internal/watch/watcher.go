// Package watch reports file moves inside the note tree.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/intent"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
)

// DefaultPairWindow is how long a Rename waits for its matching Create.
const DefaultPairWindow = 500 * time.Millisecond

// Watcher turns fsnotify rename/create pairs into moves. Every directory
// below the root is watched; hidden directories are skipped.
type Watcher struct {
	root    string
	window  time.Duration
	fs      *fsnotify.Watcher
	moves   chan intent.Move
	logger  *slog.Logger
	now     func() time.Time
	pairing pairer
}

// New starts watching root and every directory below it.
func New(root string, window time.Duration, logger *slog.Logger) (*Watcher, error) {
	if window <= 0 {
		window = DefaultPairWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.DaemonError("failed to create file watcher").WithCause(err).Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		_ = fw.Close()
		return nil, errors.FileSystemError("failed to resolve watch root").WithCause(err).WithContext("path", root).Build()
	}
	w := &Watcher{
		root:    abs,
		window:  window,
		fs:      fw,
		moves:   make(chan intent.Move, 16),
		logger:  logger,
		now:     time.Now,
		pairing: pairer{window: window},
	}
	if err := w.addTree(abs); err != nil {
		_ = fw.Close()
		return nil, err
	}
	logger.Info("Watching note tree", logfields.Path(abs))
	return w, nil
}

// Moves delivers detected moves. It is closed when Run returns.
func (w *Watcher) Moves() <-chan intent.Move { return w.moves }

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.moves)
	ticker := time.NewTicker(w.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, gone := range w.pairing.expire(w.now()) {
				w.logger.Debug("Rename left the watched tree", logfields.OldPath(gone))
			}
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if m, ok := w.handle(event); ok {
				select {
				case w.moves <- m:
				case <-ctx.Done():
					return nil
				}
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handle(event fsnotify.Event) (intent.Move, bool) {
	if hidden(w.root, event.Name) {
		return intent.Move{}, false
	}
	switch {
	case event.Has(fsnotify.Rename):
		w.pairing.rename(event.Name, w.now())
		// The watch on a renamed directory is stale; Create re-adds it.
		_ = w.fs.Remove(event.Name)
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		isDir := err == nil && info.IsDir()
		if isDir {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
		}
		old, ok := w.pairing.create(event.Name, w.now())
		if !ok {
			return intent.Move{}, false
		}
		w.logger.Debug("Move detected", logfields.OldPath(old), logfields.Path(event.Name))
		return intent.Move{OldPath: old, NewPath: event.Name, IsDir: isDir}, true
	}
	return intent.Move{}, false
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			return errors.FileSystemError("failed to watch directory").WithCause(err).WithContext("path", p).Build()
		}
		return nil
	})
}

// hidden reports whether path lies in a dot-directory below root or is a
// dot-file.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
