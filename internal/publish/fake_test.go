package publish

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/forge"
	"git.home.luguber.info/inful/notebridge/internal/metrics"
)

// fakeRemote records calls in order and serves canned listings.
type fakeRemote struct {
	mu       sync.Mutex
	calls    []string
	listings map[string][]forge.RepoFile // keyed by dir@branch
	listErr  map[string]error
	files    map[string]*forge.FileContent
	openPRs  map[string]*forge.PullRequest
	fail     map[string]error
	panicOn  string
	puts     map[string][]byte
	putSHAs  map[string]string
	labels   []string
	nextPR   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		listings: map[string][]forge.RepoFile{},
		listErr:  map[string]error{},
		files:    map[string]*forge.FileContent{},
		openPRs:  map[string]*forge.PullRequest{},
		fail:     map[string]error{},
		puts:     map[string][]byte{},
		putSHAs:  map[string]string{},
		nextPR:   41,
	}
}

func (f *fakeRemote) record(method string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := method
	for _, a := range args {
		call += fmt.Sprintf(" %v", a)
	}
	f.calls = append(f.calls, call)
	if f.panicOn == method {
		panic("boom")
	}
	return f.fail[method]
}

func (f *fakeRemote) methods() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		m, _, _ := strings.Cut(c, " ")
		out = append(out, m)
	}
	return out
}

func (f *fakeRemote) GetBranchHeadRef(_ context.Context, branch string) (string, error) {
	return "sha-" + branch, f.record("GetBranchHeadRef", branch)
}

func (f *fakeRemote) BranchExists(_ context.Context, branch string) (bool, error) {
	return true, f.record("BranchExists", branch)
}

func (f *fakeRemote) CreateBranch(_ context.Context, name, from string) (forge.BranchRef, error) {
	return forge.BranchRef{Ref: "refs/heads/" + name}, f.record("CreateBranch", name, from)
}

func (f *fakeRemote) EnsureFreshBranch(_ context.Context, name, from string) (forge.BranchRef, error) {
	return forge.BranchRef{Ref: "refs/heads/" + name}, f.record("EnsureFreshBranch", name, from)
}

func (f *fakeRemote) PutFile(_ context.Context, p string, content []byte, _, branch, sha string) (forge.FileRef, error) {
	if err := f.record("PutFile", p, branch); err != nil {
		return forge.FileRef{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts[p] = content
	f.putSHAs[p] = sha
	return forge.FileRef{SHA: "new-" + path.Base(p), Path: p}, nil
}

func (f *fakeRemote) OpenPullRequest(_ context.Context, title, head, base, _ string) (forge.PullRequest, error) {
	if err := f.record("OpenPullRequest", head, base); err != nil {
		return forge.PullRequest{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPR++
	return forge.PullRequest{Number: f.nextPR, URL: fmt.Sprintf("https://github.com/me/blog/pull/%d", f.nextPR), Title: title}, nil
}

func (f *fakeRemote) AddLabels(_ context.Context, n int, labels []string) error {
	f.labels = append(f.labels, labels...)
	return f.record("AddLabels", n)
}

func (f *fakeRemote) MergePullRequest(_ context.Context, n int, _ string) error {
	return f.record("MergePullRequest", n)
}

func (f *fakeRemote) ClosePullRequest(_ context.Context, n int) error {
	return f.record("ClosePullRequest", n)
}

func (f *fakeRemote) FindOpenPullRequest(_ context.Context, branch string) *forge.PullRequest {
	_ = f.record("FindOpenPullRequest", branch)
	return f.openPRs[branch]
}

func (f *fakeRemote) DeleteBranch(_ context.Context, name string) error {
	return f.record("DeleteBranch", name)
}

func (f *fakeRemote) ListFiles(_ context.Context, dir, branch string) ([]forge.RepoFile, error) {
	if err := f.record("ListFiles", dir, branch); err != nil {
		return nil, err
	}
	key := dir + "@" + branch
	if err := f.listErr[key]; err != nil {
		return nil, err
	}
	return f.listings[key], nil
}

func (f *fakeRemote) DeleteFile(_ context.Context, p, _, branch, sha string) error {
	return f.record("DeleteFile", p, branch, sha)
}

func (f *fakeRemote) GetFile(_ context.Context, p, branch string) *forge.FileContent {
	_ = f.record("GetFile", p, branch)
	return f.files[p]
}

// fakeDocs serves documents by path and attachments by base name.
type fakeDocs struct {
	texts       map[string]string
	attachments map[string][]byte
}

func (d fakeDocs) ReadText(p string) (string, error) {
	if t, ok := d.texts[p]; ok {
		return t, nil
	}
	return "", fmt.Errorf("no such document %s", p)
}

func (d fakeDocs) ReadBinary(p string) ([]byte, error) {
	if b, ok := d.attachments[path.Base(p)]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("no such attachment %s", p)
}

func (d fakeDocs) FindByName(name string) (string, bool) {
	if _, ok := d.attachments[name]; ok {
		return "/vault/Attachments/" + name, true
	}
	return "", false
}

type staticToken string

func (t staticToken) Token() (string, error) { return string(t), nil }

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes map[string]metrics.OutcomeLabel
	skipped  int
}

func (r *countingRecorder) IncWorkflowOutcome(op string, outcome metrics.OutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]metrics.OutcomeLabel{}
	}
	r.outcomes[op] = outcome
}

func (r *countingRecorder) IncAssetSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
