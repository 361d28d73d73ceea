package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOTEBRIDGE_TEST_TOKEN", "ghp_test")

	configContent := "vault: " + dir + "\n" +
		"github:\n" +
		"  token: ${NOTEBRIDGE_TEST_TOKEN}\n" +
		"sites:\n" +
		"  - name: blog\n" +
		"    repo: octo/blog\n" +
		"    root: Blog\n" +
		"    base_url: https://octo.github.io/\n" +
		"    date_prefix: false\n"

	path := filepath.Join(dir, "notebridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	assert.Equal(t, ".md", cfg.Extension)
	require.Len(t, cfg.Sites, 1)

	site := cfg.Sites[0]
	assert.Equal(t, filepath.Join(dir, "Blog"), site.Root)
	assert.Equal(t, "main", site.Branch)
	assert.Equal(t, "_posts", site.PostsPath)
	assert.Equal(t, "assets/images", site.AssetsPath)
	assert.Equal(t, "scheduled", site.ScheduledLabel)
	assert.Equal(t, "https://octo.github.io", site.BaseURL)
	assert.Equal(t, LinkStyleText, site.LinkStyle)
	assert.False(t, site.UseDatePrefix())
	assert.True(t, site.UnpublishAssets())
}

func TestRetryDefaults(t *testing.T) {
	cfg, err := Parse([]byte("vault: /notes\n"))
	require.NoError(t, err)

	assert.Equal(t, RetryBackoffExponential, cfg.Retry.Backoff)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelayDuration())
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelayDuration())
	assert.InDelta(t, 0.25, cfg.Retry.Jitter, 1e-9)
}

func TestRetryExplicitZeroDisablesRetries(t *testing.T) {
	cfg, err := Parse([]byte("vault: /notes\nretry:\n  max_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Retry.MaxRetries)
}

func TestFolderDefaults(t *testing.T) {
	cfg, err := Parse([]byte("vault: /notes\n"))
	require.NoError(t, err)

	assert.Equal(t, FolderNames{
		Unpublished: "unpublished",
		Scheduled:   "scheduled",
		Immediate:   "publish-now",
		Published:   "published",
	}, cfg.Folders)
	assert.True(t, cfg.Watch.MoveBack())
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.PairWindowDuration())
}

func TestFrontmatterRuleSetOverride(t *testing.T) {
	cfg, err := Parse([]byte("vault: /notes\n" +
		"frontmatter:\n" +
		"  rules:\n" +
		"    - field: summary\n" +
		"      required: true\n" +
		"      type: string\n"))
	require.NoError(t, err)

	rules := cfg.Frontmatter.RuleSet()
	require.Len(t, rules, 1)
	assert.Equal(t, "summary", rules[0].Field)
	assert.True(t, rules[0].Required)
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing vault", "sites: []\n"},
		{"duplicate site", "vault: /n\nsites:\n  - {name: a, repo: o/r, root: A}\n  - {name: a, repo: o/r, root: B}\n"},
		{"shared root", "vault: /n\nsites:\n  - {name: a, repo: o/r, root: A}\n  - {name: b, repo: o/r, root: A}\n"},
		{"missing repo", "vault: /n\nsites:\n  - {name: a, root: A}\n"},
		{"bad link style", "vault: /n\nsites:\n  - {name: a, repo: o/r, root: A, link_style: wiki}\n"},
		{"bad backoff", "vault: /n\nretry:\n  backoff: random\n"},
		{"bad pair window", "vault: /n\nwatch:\n  pair_window: soon\n"},
		{"bad rule pattern", "vault: /n\nfrontmatter:\n  rules:\n    - {field: x, pattern: '('}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig), "got %v", err)
		})
	}
}

func TestMalformedRepoAcceptedAtLoad(t *testing.T) {
	// Repo format problems surface when a workflow runs, not at load time.
	_, err := Parse([]byte("vault: /n\nsites:\n  - {name: a, repo: not-a-repo, root: A}\n"))
	require.NoError(t, err)
}

func TestInitWritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notebridge.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false), "second init without force must fail")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "blog", cfg.Sites[0].Name)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "notes"), ExpandHome("~/notes"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
}
