package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

func TestManager_TokenResolutionOrder(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("from-file\n"), 0o600))

	tests := []struct {
		name   string
		gh     config.GitHubConfig
		want   string
		wantOK bool
	}{
		{"config token wins", config.GitHubConfig{Token: "from-config", TokenFile: tokenFile}, "from-config", true},
		{"falls back to file", config.GitHubConfig{TokenFile: tokenFile}, "from-file", true},
		{"nothing configured", config.GitHubConfig{TokenFile: filepath.Join(dir, "missing")}, "", false},
		{"blank config token ignored", config.GitHubConfig{Token: "  ", TokenFile: tokenFile}, "from-file", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.gh)
			tok, err := m.Token()
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok)
			assert.Equal(t, tt.wantOK, m.HasToken())
		})
	}
}

func TestFileStore_SaveLoadDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileStore(path)

	require.NoError(t, store.Save("gho_abc"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", tok)

	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete())
	tok, err = store.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

type deviceServer struct {
	responses []string
	polls     atomic.Int32
}

func (d *deviceServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client-123", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login/device/code":
			assert.Equal(t, "repo", r.PostForm.Get("scope"))
			_, _ = w.Write([]byte(`{"device_code":"dev","user_code":"ABCD-1234","verification_uri":"https://github.com/login/device","expires_in":900,"interval":5}`))
		case "/login/oauth/access_token":
			assert.Equal(t, "dev", r.PostForm.Get("device_code"))
			assert.Equal(t, deviceGrantType, r.PostForm.Get("grant_type"))
			n := int(d.polls.Add(1)) - 1
			if n >= len(d.responses) {
				n = len(d.responses) - 1
			}
			_, _ = w.Write([]byte(d.responses[n]))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newFlow(t *testing.T, ds *deviceServer, sleeps *[]time.Duration) *DeviceFlow {
	server := httptest.NewServer(ds.handler(t))
	t.Cleanup(server.Close)
	return &DeviceFlow{
		WebURL:     server.URL,
		ClientID:   "client-123",
		Scopes:     []string{"repo"},
		HTTPClient: server.Client(),
		Sleep: func(_ context.Context, d time.Duration) error {
			*sleeps = append(*sleeps, d)
			return nil
		},
	}
}

func TestDeviceFlow_PendingSlowDownThenToken(t *testing.T) {
	ds := &deviceServer{responses: []string{
		`{"error":"authorization_pending"}`,
		`{"error":"slow_down"}`,
		`{"access_token":"gho_xyz","token_type":"bearer","scope":"repo"}`,
	}}
	var sleeps []time.Duration
	flow := newFlow(t, ds, &sleeps)
	ctx := context.Background()

	code, err := flow.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1234", code.UserCode)

	tok, err := flow.Poll(ctx, code, nil)
	require.NoError(t, err)
	assert.Equal(t, "gho_xyz", tok.AccessToken)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 10 * time.Second}, sleeps)
}

func TestDeviceFlow_TerminalErrors(t *testing.T) {
	cases := map[string]error{
		`{"error":"expired_token"}`: ErrDeviceCodeExpired,
		`{"error":"access_denied"}`: ErrAccessDenied,
	}
	for body, want := range cases {
		t.Run(want.Error(), func(t *testing.T) {
			var sleeps []time.Duration
			flow := newFlow(t, &deviceServer{responses: []string{body}}, &sleeps)
			code, err := flow.Start(context.Background())
			require.NoError(t, err)

			_, err = flow.Poll(context.Background(), code, nil)
			assert.ErrorIs(t, err, want)
			assert.True(t, errors.HasCategory(err, errors.CategoryAuth))
		})
	}
}

func TestDeviceFlow_CancelledPredicateStopsPolling(t *testing.T) {
	ds := &deviceServer{responses: []string{`{"error":"authorization_pending"}`}}
	var sleeps []time.Duration
	flow := newFlow(t, ds, &sleeps)
	code, err := flow.Start(context.Background())
	require.NoError(t, err)

	checks := 0
	_, err = flow.Poll(context.Background(), code, func() bool {
		checks++
		return checks > 4
	})
	assert.ErrorIs(t, err, ErrLoginCancelled)
	assert.Equal(t, int32(2), ds.polls.Load())
}

func TestDeviceFlow_ExpiresByClock(t *testing.T) {
	ds := &deviceServer{responses: []string{`{"error":"authorization_pending"}`}}
	var sleeps []time.Duration
	flow := newFlow(t, ds, &sleeps)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	flow.Now = func() time.Time { return now }
	flow.Sleep = func(_ context.Context, d time.Duration) error {
		now = now.Add(d)
		return nil
	}

	code, err := flow.Start(context.Background())
	require.NoError(t, err)

	_, err = flow.Poll(context.Background(), code, nil)
	assert.ErrorIs(t, err, ErrDeviceCodeExpired)
	// 900s window at 5s per poll
	assert.Equal(t, int32(181), ds.polls.Load())
}

func TestDeviceFlow_RequiresClientID(t *testing.T) {
	flow := &DeviceFlow{WebURL: "https://github.com"}
	_, err := flow.Start(context.Background())
	assert.ErrorIs(t, err, ErrClientIDMissing)
}
