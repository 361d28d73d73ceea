package forge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
	"git.home.luguber.info/inful/notebridge/internal/metrics"
	"git.home.luguber.info/inful/notebridge/internal/retry"
)

const (
	userAgent        = "notebridge/1.0"
	githubAPIVersion = "2022-11-28"
	defaultAPIURL    = "https://api.github.com"
)

// Options configures a Client. Zero values select production defaults.
type Options struct {
	APIURL     string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Policy     retry.Policy
	// Sleep and Random override the retry runner's clock and jitter source.
	Sleep    func(ctx context.Context, d time.Duration) error
	Random   func() float64
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Client talks to the GitHub REST API with retries on transient failures.
type Client struct {
	base     *BaseForge
	runner   retry.Runner
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	policy := opts.Policy
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseForge(httpClient, apiURL, opts.Token)
	base.SetCustomHeader("Accept", "application/vnd.github+json")
	base.SetCustomHeader("X-GitHub-Api-Version", githubAPIVersion)

	return &Client{
		base: base,
		runner: retry.Runner{
			Policy:    policy,
			Retryable: IsRetryable,
			Sleep:     opts.Sleep,
			Random:    opts.Random,
			Logger:    logger,
		},
		recorder: recorder,
		logger:   logger,
	}
}

// Repo returns a handle for one repository.
func (c *Client) Repo(owner, name string) *Repo {
	return &Repo{client: c, owner: owner, name: name}
}

// Repo performs the bridge's operations against one owner/repo.
type Repo struct {
	client *Client
	owner  string
	name   string
}

// FullName returns "owner/repo".
func (r *Repo) FullName() string { return r.owner + "/" + r.name }

func (r *Repo) endpoint(format string, args ...any) string {
	return fmt.Sprintf("repos/%s/%s/", r.owner, r.name) + fmt.Sprintf(format, args...)
}

// call runs one API request under the retry runner. The request is rebuilt on
// every attempt so its body can be re-sent.
func (r *Repo) call(ctx context.Context, method, endpoint string, body, result any) error {
	runner := r.client.runner
	runner.OnRetry = func(int, time.Duration, error) {
		r.client.recorder.IncRemoteRetry(method)
	}
	err := runner.Do(ctx, func(ctx context.Context) error {
		req, err := r.client.base.NewRequest(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
		return r.client.base.DoRequest(req, result)
	})
	var exhausted *retry.ExhaustedError
	if stderrors.As(err, &exhausted) {
		r.client.recorder.IncRemoteRetryExhausted(method)
	}
	return err
}

// GetBranchHeadRef returns the commit sha at the head of branch. A missing
// branch yields a not_found classified error.
func (r *Repo) GetBranchHeadRef(ctx context.Context, branch string) (string, error) {
	var raw json.RawMessage
	if err := r.call(ctx, http.MethodGet, r.endpoint("git/refs/heads/%s", branch), nil, &raw); err != nil {
		return "", err
	}
	// An inexact ref answers with the list of refs sharing the prefix.
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		return "", branchNotFound(branch)
	}
	var ref refResponse
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", errors.ForgeError("failed to decode branch ref").WithCause(err).Build()
	}
	if ref.Object.SHA == "" {
		return "", branchNotFound(branch)
	}
	return ref.Object.SHA, nil
}

func branchNotFound(branch string) error {
	return errors.NotFoundError(fmt.Sprintf("branch %s not found", branch)).
		WithContext("branch", branch).
		Build()
}

// BranchExists reports whether branch exists.
func (r *Repo) BranchExists(ctx context.Context, branch string) (bool, error) {
	_, err := r.GetBranchHeadRef(ctx, branch)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// CreateBranch creates name at the head of fromBranch. It fails if name
// already exists.
func (r *Repo) CreateBranch(ctx context.Context, name, fromBranch string) (BranchRef, error) {
	sha, err := r.GetBranchHeadRef(ctx, fromBranch)
	if err != nil {
		return BranchRef{}, err
	}
	var ref refResponse
	body := createRefRequest{Ref: "refs/heads/" + name, SHA: sha}
	if err := r.call(ctx, http.MethodPost, r.endpoint("git/refs"), body, &ref); err != nil {
		return BranchRef{}, err
	}
	return BranchRef{Ref: ref.Ref, SHA: ref.Object.SHA}, nil
}

// EnsureFreshBranch deletes name if it exists and creates it again from
// fromBranch. A failed deletion is ignored so a protected or concurrently
// removed branch cannot block the retry.
func (r *Repo) EnsureFreshBranch(ctx context.Context, name, fromBranch string) (BranchRef, error) {
	if exists, err := r.BranchExists(ctx, name); err == nil && exists {
		r.client.logger.Debug("Deleting stale branch", logfields.Branch(name))
		if err := r.DeleteBranch(ctx, name); err != nil {
			r.client.logger.Debug("Stale branch deletion failed", logfields.Branch(name), logfields.Error(err))
		}
	}
	return r.CreateBranch(ctx, name, fromBranch)
}

// PutFile creates or, when existingSHA is set, replaces path on branch.
func (r *Repo) PutFile(ctx context.Context, path string, content []byte, message, branch, existingSHA string) (FileRef, error) {
	body := putContentRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  branch,
		SHA:     existingSHA,
	}
	var resp putContentResponse
	if err := r.call(ctx, http.MethodPut, r.endpoint("contents/%s", path), body, &resp); err != nil {
		return FileRef{}, err
	}
	return FileRef{SHA: resp.Content.SHA, Path: resp.Content.Path}, nil
}

// OpenPullRequest opens a pull request from head into base.
func (r *Repo) OpenPullRequest(ctx context.Context, title, head, base, body string) (PullRequest, error) {
	var resp pullResponse
	req := createPullRequest{Title: title, Head: head, Base: base, Body: body}
	if err := r.call(ctx, http.MethodPost, r.endpoint("pulls"), req, &resp); err != nil {
		return PullRequest{}, err
	}
	return PullRequest{Number: resp.Number, URL: resp.HTMLURL, Title: resp.Title}, nil
}

// AddLabels attaches labels to a pull request.
func (r *Repo) AddLabels(ctx context.Context, number int, labels []string) error {
	return r.call(ctx, http.MethodPost, r.endpoint("issues/%d/labels", number), labelsRequest{Labels: labels}, nil)
}

// MergePullRequest squash-merges a pull request.
func (r *Repo) MergePullRequest(ctx context.Context, number int, commitTitle string) error {
	body := mergeRequest{MergeMethod: "squash", CommitTitle: commitTitle}
	return r.call(ctx, http.MethodPut, r.endpoint("pulls/%d/merge", number), body, nil)
}

// ClosePullRequest closes a pull request without merging.
func (r *Repo) ClosePullRequest(ctx context.Context, number int) error {
	return r.call(ctx, http.MethodPatch, r.endpoint("pulls/%d", number), updatePullRequest{State: "closed"}, nil)
}

// FindOpenPullRequest returns the first open pull request whose head is
// branch. Lookup failures are reported as "none found".
func (r *Repo) FindOpenPullRequest(ctx context.Context, branch string) *PullRequest {
	query := url.Values{}
	query.Set("head", r.owner+":"+branch)
	query.Set("state", "open")

	var pulls []pullResponse
	if err := r.call(ctx, http.MethodGet, r.endpoint("pulls?%s", query.Encode()), nil, &pulls); err != nil {
		r.client.logger.Debug("Pull request lookup failed", logfields.Branch(branch), logfields.Error(err))
		return nil
	}
	if len(pulls) == 0 {
		return nil
	}
	return &PullRequest{Number: pulls[0].Number, URL: pulls[0].HTMLURL, Title: pulls[0].Title}
}

// DeleteBranch removes a branch.
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	return r.call(ctx, http.MethodDelete, r.endpoint("git/refs/heads/%s", name), nil, nil)
}

// ListFiles lists the files (not directories) in dir. An empty branch reads
// the default branch.
func (r *Repo) ListFiles(ctx context.Context, dir, branch string) ([]RepoFile, error) {
	var entries []contentEntry
	if err := r.call(ctx, http.MethodGet, r.contentsEndpoint(dir, branch), nil, &entries); err != nil {
		return nil, err
	}
	files := make([]RepoFile, 0, len(entries))
	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		files = append(files, RepoFile{Name: e.Name, Path: e.Path, SHA: e.SHA})
	}
	return files, nil
}

// DeleteFile removes path on branch. sha must be the file's current blob sha.
func (r *Repo) DeleteFile(ctx context.Context, path, message, branch, sha string) error {
	body := deleteContentRequest{Message: message, SHA: sha, Branch: branch}
	return r.call(ctx, http.MethodDelete, r.endpoint("contents/%s", path), body, nil)
}

// GetFile fetches path. Any failure, including a missing file, yields nil.
func (r *Repo) GetFile(ctx context.Context, path, branch string) *FileContent {
	var entry contentEntry
	if err := r.call(ctx, http.MethodGet, r.contentsEndpoint(path, branch), nil, &entry); err != nil {
		if !IsNotFound(err) {
			r.client.logger.Debug("File lookup failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	}
	return &FileContent{SHA: entry.SHA, Content: entry.Content}
}

func (r *Repo) contentsEndpoint(path, branch string) string {
	ep := r.endpoint("contents/%s", strings.Trim(path, "/"))
	if branch != "" {
		ep += "?ref=" + url.QueryEscape(branch)
	}
	return ep
}
