// Package docstore reads notes and their attachments from the local tree.
package docstore

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

var errFound = stderrors.New("found")

// Store is a filesystem document store rooted at the vault.
type Store struct {
	root string
}

// New returns a store over root.
func New(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Root returns the vault directory.
func (s *Store) Root() string { return s.root }

// ReadText returns the content of a document.
func (s *Store) ReadText(path string) (string, error) {
	data, err := s.ReadBinary(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBinary returns the raw bytes of a document or attachment.
func (s *Store) ReadBinary(path string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("file not found").WithContext("path", path).WithCause(err).Build()
		}
		return nil, errors.FileSystemError("failed to read file").WithContext("path", path).WithCause(err).Build()
	}
	return data, nil
}

// FindByName searches the vault for a file called name and returns its path.
// Names are compared after Unicode NFC normalisation since some filesystems
// store decomposed names. Hidden directories are skipped.
func (s *Store) FindByName(name string) (string, bool) {
	want := norm.NFC.String(filepath.Base(name))
	if want == "" || want == "." {
		return "", false
	}
	var found string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if norm.NFC.String(d.Name()) == want {
			found = p
			return errFound
		}
		return nil
	})
	if err != nil && !stderrors.Is(err, errFound) {
		return "", false
	}
	return found, found != ""
}

// Move renames a document, creating the destination directory if needed.
// An existing destination is never overwritten.
func (s *Store) Move(from, to string) error {
	to = s.abs(to)
	if _, err := os.Lstat(to); err == nil {
		return errors.FileSystemError("destination already exists").WithContext("path", to).Build()
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return errors.FileSystemError("failed to create directory").WithContext("path", filepath.Dir(to)).WithCause(err).Build()
	}
	if err := os.Rename(s.abs(from), to); err != nil {
		return errors.FileSystemError("failed to move file").
			WithContext("from", from).
			WithContext("to", to).
			WithCause(err).
			Build()
	}
	return nil
}

func (s *Store) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}
