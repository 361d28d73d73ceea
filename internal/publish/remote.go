package publish

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/notebridge/internal/forge"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

// RemoteClient is the hosting API surface the workflows drive. *forge.Repo
// implements it.
type RemoteClient interface {
	GetBranchHeadRef(ctx context.Context, branch string) (string, error)
	BranchExists(ctx context.Context, branch string) (bool, error)
	CreateBranch(ctx context.Context, name, fromBranch string) (forge.BranchRef, error)
	EnsureFreshBranch(ctx context.Context, name, fromBranch string) (forge.BranchRef, error)
	PutFile(ctx context.Context, path string, content []byte, message, branch, existingSHA string) (forge.FileRef, error)
	OpenPullRequest(ctx context.Context, title, head, base, body string) (forge.PullRequest, error)
	AddLabels(ctx context.Context, number int, labels []string) error
	MergePullRequest(ctx context.Context, number int, commitTitle string) error
	ClosePullRequest(ctx context.Context, number int) error
	FindOpenPullRequest(ctx context.Context, branch string) *forge.PullRequest
	DeleteBranch(ctx context.Context, name string) error
	ListFiles(ctx context.Context, dir, branch string) ([]forge.RepoFile, error)
	DeleteFile(ctx context.Context, path, message, branch, sha string) error
	GetFile(ctx context.Context, path, branch string) *forge.FileContent
}

var _ RemoteClient = (*forge.Repo)(nil)

// RemoteFactory returns a client for owner/repo authenticated with token.
type RemoteFactory func(token, owner, repo string) RemoteClient

// ForgeFactory adapts a forge client constructor to a RemoteFactory.
func ForgeFactory(newClient func(token string) *forge.Client) RemoteFactory {
	return func(token, owner, repo string) RemoteClient {
		return newClient(token).Repo(owner, repo)
	}
}

// DocumentStore reads notes and attachments.
type DocumentStore interface {
	ReadText(path string) (string, error)
	ReadBinary(path string) ([]byte, error)
	FindByName(name string) (string, bool)
}

// TokenSource yields the API token, or "" when the user is not logged in.
type TokenSource interface {
	Token() (string, error)
}

// ParseRepo splits "owner/repo".
func ParseRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", errors.ConfigError("invalid repository " + quote(s) + ", expected owner/repo").
			WithContext("repo", s).
			Build()
	}
	return owner, repo, nil
}

func quote(s string) string { return `"` + s + `"` }
