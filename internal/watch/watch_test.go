package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairer_MatchesSameBaseName(t *testing.T) {
	p := pairer{window: time.Second}
	now := time.Unix(1000, 0)
	p.rename("/v/a/one.md", now)
	p.rename("/v/a/two.md", now)

	old, ok := p.create("/v/b/one.md", now.Add(10*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "/v/a/one.md", old)

	old, ok = p.create("/v/a/renamed.md", now.Add(20*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "/v/a/two.md", old, "in-place rename pairs with the remaining rename")

	_, ok = p.create("/v/b/three.md", now.Add(30*time.Millisecond))
	assert.False(t, ok, "plain creates are not moves")
}

func TestPairer_UnrelatedCreateInOtherDirectoryIsNotAMove(t *testing.T) {
	p := pairer{window: time.Second}
	now := time.Unix(1000, 0)
	p.rename("/v/Blog/published/old-post.md", now)

	_, ok := p.create("/v/Blog/scheduled/brand-new.md", now.Add(50*time.Millisecond))
	assert.False(t, ok)
	require.Len(t, p.pending, 1, "the rename stays pending for its own create")

	old, ok := p.create("/v/Blog/scheduled/old-post.md", now.Add(60*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "/v/Blog/published/old-post.md", old)
}

func TestPairer_ExpiresOutsideWindow(t *testing.T) {
	p := pairer{window: 100 * time.Millisecond}
	now := time.Unix(1000, 0)
	p.rename("/v/a/gone.md", now)

	_, ok := p.create("/v/b/gone.md", now.Add(time.Second))
	assert.False(t, ok)

	p.rename("/v/a/x.md", now)
	assert.Equal(t, []string{"/v/a/x.md"}, p.expire(now.Add(time.Second)))
	assert.Empty(t, p.pending)
}

func TestHidden(t *testing.T) {
	assert.True(t, hidden("/v", "/v/.obsidian/workspace.json"))
	assert.True(t, hidden("/v", "/v/a/.x.md.swp"))
	assert.False(t, hidden("/v", "/v/a/b.md"))
}

func TestWatcher_ReportsMoveBetweenFolders(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "Blog", "unpublished")
	to := filepath.Join(root, "Blog", "scheduled")
	require.NoError(t, os.MkdirAll(from, 0o755))
	require.NoError(t, os.MkdirAll(to, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(from, "post.md"), []byte("x"), 0o600))

	w, err := New(root, time.Second, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.Rename(filepath.Join(from, "post.md"), filepath.Join(to, "post.md")))

	select {
	case m := <-w.Moves():
		assert.Equal(t, filepath.Join(from, "post.md"), m.OldPath)
		assert.Equal(t, filepath.Join(to, "post.md"), m.NewPath)
		assert.False(t, m.IsDir)
	case <-time.After(5 * time.Second):
		t.Fatal("no move reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
