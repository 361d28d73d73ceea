package auth

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/notebridge/internal/config"
)

// TokenProvider supplies an API token from one source.
type TokenProvider interface {
	// Token returns "" when the source holds no token.
	Token() (string, error)
	// Name returns a human-readable name for this provider (for logging/debugging).
	Name() string
}

// StaticProvider returns a token fixed at construction, typically from the
// config file or the environment.
type StaticProvider struct {
	Value string
}

func (p StaticProvider) Token() (string, error) { return strings.TrimSpace(p.Value), nil }
func (p StaticProvider) Name() string           { return "config" }

// Manager resolves the token from its providers in order.
type Manager struct {
	providers []TokenProvider
	store     *FileStore
}

// NewManager resolves tokens from github.token first, then the token file.
func NewManager(gh config.GitHubConfig) *Manager {
	store := NewFileStore(gh.TokenFile)
	return &Manager{
		providers: []TokenProvider{StaticProvider{Value: gh.Token}, store},
		store:     store,
	}
}

// Token returns the first non-empty token. A missing token is not an error;
// callers decide whether they need one.
func (m *Manager) Token() (string, error) {
	for _, p := range m.providers {
		tok, err := p.Token()
		if err != nil {
			return "", err
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", nil
}

// Store returns the file store used to persist tokens obtained by login.
func (m *Manager) Store() *FileStore { return m.store }

// HasToken reports whether any provider yields a token.
func (m *Manager) HasToken() bool {
	tok, err := m.Token()
	return err == nil && tok != ""
}

// FileStore persists a token in a single file readable only by its owner.
type FileStore struct {
	Path string
}

// NewFileStore returns a store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Name() string { return "token_file" }

// Token reads the stored token. A missing file yields "".
func (s *FileStore) Token() (string, error) {
	if s.Path == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errFileStore("failed to read token file", s.Path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes token with 0600 permissions, creating the parent directory.
func (s *FileStore) Save(token string) error {
	if s.Path == "" {
		return errFileStore("no token file configured", "", nil)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return errFileStore("failed to create token directory", s.Path, err)
	}
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0o600); err != nil {
		return errFileStore("failed to write token file", s.Path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(s.Path, 0o600); err != nil {
		return errFileStore("failed to restrict token file", s.Path, err)
	}
	return nil
}

// Delete removes the stored token. A missing file is not an error.
func (s *FileStore) Delete() error {
	if s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return errFileStore("failed to remove token file", s.Path, err)
	}
	return nil
}
