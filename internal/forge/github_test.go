package forge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/metrics"
	"git.home.luguber.info/inful/notebridge/internal/retry"
)

type countingRecorder struct {
	metrics.NoopRecorder
	retries   atomic.Int32
	exhausted atomic.Int32
}

func (c *countingRecorder) IncRemoteRetry(string)          { c.retries.Add(1) }
func (c *countingRecorder) IncRemoteRetryExhausted(string) { c.exhausted.Add(1) }

func noSleep(context.Context, time.Duration) error { return nil }

func newTestRepo(t *testing.T, handler http.HandlerFunc) (*Repo, *countingRecorder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	rec := &countingRecorder{}
	client := NewClient(Options{
		APIURL:     server.URL,
		Token:      "tok",
		HTTPClient: server.Client(),
		Sleep:      noSleep,
		Recorder:   rec,
	})
	return client.Repo("octo", "blog"), rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestRequestsCarryGitHubHeaders(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "/repos/octo/blog/git/refs/heads/main", r.URL.Path)
		writeJSON(w, 200, map[string]any{"ref": "refs/heads/main", "object": map[string]any{"sha": "abc"}})
	})

	sha, err := repo.GetBranchHeadRef(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "abc", sha)
}

func TestRetryOnRateLimitThenSuccess(t *testing.T) {
	var calls atomic.Int32
	repo, rec := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"message": "API rate limit exceeded"})
			return
		}
		writeJSON(w, 200, map[string]any{"object": map[string]any{"sha": "abc"}})
	})

	sha, err := repo.GetBranchHeadRef(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "abc", sha)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(2), rec.retries.Load())
	assert.Equal(t, int32(0), rec.exhausted.Load())
}

func TestRetryExhaustedOnSustainedServerError(t *testing.T) {
	var calls atomic.Int32
	repo, rec := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"message": "Service Unavailable"})
	})

	_, err := repo.GetBranchHeadRef(context.Background(), "main")
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.Equal(t, int32(1), rec.exhausted.Load())

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, 503, StatusCode(err))
}

func TestNoRetryOnClientErrors(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusUnauthorized, http.StatusUnprocessableEntity} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			repo, rec := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(w, status, map[string]any{"message": http.StatusText(status)})
			})

			_, err := repo.PutFile(context.Background(), "_posts/a.md", []byte("x"), "msg", "publish/a", "")
			require.Error(t, err)
			assert.Equal(t, int32(1), calls.Load())
			assert.Equal(t, int32(0), rec.retries.Load())
			assert.Equal(t, status, StatusCode(err))

			var exhausted *retry.ExhaustedError
			assert.False(t, stderrors.As(err, &exhausted))
		})
	}
}

func TestUnauthorizedIsClassifiedAuth(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
	})

	err := repo.AddLabels(context.Background(), 3, []string{"scheduled"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAuth))
	assert.Contains(t, errors.UserMessage(err), "HTTP 401: Bad credentials")
}

type flakyTransport struct {
	calls atomic.Int32
	err   error
}

func (f *flakyTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return nil, f.err
}

func TestNetworkFailuresRetriedBySignature(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		wantCalls int32
	}{
		{"connection refused", stderrors.New("dial tcp 127.0.0.1:443: connect: connection refused"), 4},
		{"dns failure", stderrors.New("dial tcp: lookup api.github.com: no such host"), 4},
		{"certificate problem", stderrors.New("x509: certificate signed by unknown authority"), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &flakyTransport{err: tc.err}
			client := NewClient(Options{
				APIURL:     "https://api.example.test",
				Token:      "tok",
				HTTPClient: &http.Client{Transport: tr},
				Sleep:      noSleep,
			})

			err := client.Repo("o", "r").DeleteBranch(context.Background(), "publish/x")
			require.Error(t, err)
			assert.Equal(t, tc.wantCalls, tr.calls.Load())
			assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
		})
	}
}

func TestCancelledContextStopsRetries(t *testing.T) {
	tr := &flakyTransport{err: stderrors.New("connection reset by peer")}
	client := NewClient(Options{
		APIURL:     "https://api.example.test",
		HTTPClient: &http.Client{Transport: tr},
		Sleep:      retry.SleepContext,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Repo("o", "r").DeleteBranch(ctx, "x")
	require.Error(t, err)
	assert.LessOrEqual(t, tr.calls.Load(), int32(1))
}

func TestGetBranchHeadRefPrefixListIsNotFound(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []map[string]any{{"ref": "refs/heads/publish/abc", "object": map[string]any{"sha": "1"}}})
	})

	_, err := repo.GetBranchHeadRef(context.Background(), "publish/ab")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	exists, err := repo.BranchExists(context.Background(), "publish/ab")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBranchExists(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/octo/blog/git/refs/heads/main" {
			writeJSON(w, 200, map[string]any{"object": map[string]any{"sha": "abc"}})
			return
		}
		writeJSON(w, 404, map[string]any{"message": "Not Found"})
	})

	exists, err := repo.BranchExists(context.Background(), "main")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.BranchExists(context.Background(), "publish/gone")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnsureFreshBranchSwallowsDeleteFailure(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch {
		case r.Method == http.MethodGet:
			writeJSON(w, 200, map[string]any{"object": map[string]any{"sha": "base-sha"}})
		case r.Method == http.MethodDelete:
			writeJSON(w, 422, map[string]any{"message": "Reference cannot be deleted"})
		case r.Method == http.MethodPost:
			body := decodeBody(t, r)
			assert.Equal(t, "refs/heads/publish/hello", body["ref"])
			assert.Equal(t, "base-sha", body["sha"])
			writeJSON(w, 201, map[string]any{"ref": "refs/heads/publish/hello", "object": map[string]any{"sha": "base-sha"}})
		}
	})

	ref, err := repo.EnsureFreshBranch(context.Background(), "publish/hello", "main")
	require.NoError(t, err)
	assert.Equal(t, BranchRef{Ref: "refs/heads/publish/hello", SHA: "base-sha"}, ref)
	assert.Equal(t, []string{
		"GET /repos/octo/blog/git/refs/heads/publish/hello",
		"DELETE /repos/octo/blog/git/refs/heads/publish/hello",
		"GET /repos/octo/blog/git/refs/heads/main",
		"POST /repos/octo/blog/git/refs",
	}, seen)
}

func TestPutFileEncodesContent(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/repos/octo/blog/contents/assets/images/hello-a.png", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'}), body["content"])
		assert.Equal(t, "publish/hello", body["branch"])
		assert.Equal(t, "old-sha", body["sha"])
		writeJSON(w, 200, map[string]any{"content": map[string]any{"sha": "new-sha", "path": "assets/images/hello-a.png"}})
	})

	ref, err := repo.PutFile(context.Background(), "assets/images/hello-a.png", []byte{0x89, 'P', 'N', 'G'}, "Add asset", "publish/hello", "old-sha")
	require.NoError(t, err)
	assert.Equal(t, FileRef{SHA: "new-sha", Path: "assets/images/hello-a.png"}, ref)
}

func TestPutFileOmitsShaForCreate(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		_, hasSHA := body["sha"]
		assert.False(t, hasSHA)
		writeJSON(w, 201, map[string]any{"content": map[string]any{"sha": "s", "path": "_posts/a.md"}})
	})

	_, err := repo.PutFile(context.Background(), "_posts/a.md", []byte("# A"), "Publish", "publish/a", "")
	require.NoError(t, err)
}

func TestPullRequestLifecycle(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /repos/octo/blog/pulls":
			body := decodeBody(t, r)
			assert.Equal(t, "publish/hello", body["head"])
			assert.Equal(t, "main", body["base"])
			writeJSON(w, 201, map[string]any{"number": 7, "html_url": "https://github.com/octo/blog/pull/7", "title": body["title"]})
		case "POST /repos/octo/blog/issues/7/labels":
			body := decodeBody(t, r)
			assert.Equal(t, []any{"scheduled"}, body["labels"])
			writeJSON(w, 200, []any{})
		case "PUT /repos/octo/blog/pulls/7/merge":
			body := decodeBody(t, r)
			assert.Equal(t, "squash", body["merge_method"])
			assert.Equal(t, "Publish: Hello", body["commit_title"])
			writeJSON(w, 200, map[string]any{"merged": true})
		case "PATCH /repos/octo/blog/pulls/7":
			body := decodeBody(t, r)
			assert.Equal(t, "closed", body["state"])
			writeJSON(w, 200, map[string]any{"number": 7})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(500)
		}
	})
	ctx := context.Background()

	pr, err := repo.OpenPullRequest(ctx, "Publish: Hello", "publish/hello", "main", "body")
	require.NoError(t, err)
	assert.Equal(t, PullRequest{Number: 7, URL: "https://github.com/octo/blog/pull/7", Title: "Publish: Hello"}, pr)

	require.NoError(t, repo.AddLabels(ctx, 7, []string{"scheduled"}))
	require.NoError(t, repo.MergePullRequest(ctx, 7, "Publish: Hello"))
	require.NoError(t, repo.ClosePullRequest(ctx, 7))
}

func TestFindOpenPullRequest(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "octo:publish/hello", r.URL.Query().Get("head"))
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		writeJSON(w, 200, []map[string]any{
			{"number": 9, "html_url": "https://github.com/octo/blog/pull/9"},
			{"number": 10, "html_url": "https://github.com/octo/blog/pull/10"},
		})
	})

	pr := repo.FindOpenPullRequest(context.Background(), "publish/hello")
	require.NotNil(t, pr)
	assert.Equal(t, 9, pr.Number)
}

func TestFindOpenPullRequestFailureIsNil(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Resource not accessible"})
	})

	assert.Nil(t, repo.FindOpenPullRequest(context.Background(), "publish/hello"))
}

func TestListFilesFiltersNonFiles(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/blog/contents/_posts", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		writeJSON(w, 200, []map[string]any{
			{"name": "2025-01-15-foo.md", "path": "_posts/2025-01-15-foo.md", "sha": "s1", "type": "file"},
			{"name": "drafts", "path": "_posts/drafts", "sha": "s2", "type": "dir"},
			{"name": "bar.md", "path": "_posts/bar.md", "sha": "s3", "type": "file"},
		})
	})

	files, err := repo.ListFiles(context.Background(), "_posts", "main")
	require.NoError(t, err)
	assert.Equal(t, []RepoFile{
		{Name: "2025-01-15-foo.md", Path: "_posts/2025-01-15-foo.md", SHA: "s1"},
		{Name: "bar.md", Path: "_posts/bar.md", SHA: "s3"},
	}, files)
}

func TestDeleteFile(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/repos/octo/blog/contents/_posts/bar.md", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "s3", body["sha"])
		assert.Equal(t, "unpublish/bar", body["branch"])
		writeJSON(w, 200, map[string]any{"commit": map[string]any{}})
	})

	require.NoError(t, repo.DeleteFile(context.Background(), "_posts/bar.md", "Unpublish bar", "unpublish/bar", "s3"))
}

func TestGetFile(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/octo/blog/contents/_posts/a.md" {
			writeJSON(w, 200, map[string]any{"sha": "s", "type": "file", "content": "IyBB\nCg==\n"})
			return
		}
		writeJSON(w, 404, map[string]any{"message": "Not Found"})
	})
	ctx := context.Background()

	f := repo.GetFile(ctx, "_posts/a.md", "main")
	require.NotNil(t, f)
	assert.Equal(t, "s", f.SHA)
	data, err := f.Decode()
	require.NoError(t, err)
	assert.Equal(t, "# A\n", string(data))

	assert.Nil(t, repo.GetFile(ctx, "_posts/missing.md", "main"))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&APIError{Status: 429}))
	assert.True(t, IsRetryable(&APIError{Status: 502}))
	assert.False(t, IsRetryable(&APIError{Status: 403}))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(stderrors.New("fetch failed")))
	assert.True(t, IsRetryable(stderrors.New("read: connection reset by peer")))
	assert.False(t, IsRetryable(stderrors.New("permission denied")))
	assert.False(t, IsRetryable(nil))
}
