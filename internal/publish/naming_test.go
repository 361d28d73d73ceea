package publish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/forge"
	"git.home.luguber.info/inful/notebridge/internal/frontmatter"
)

func TestMatchesSlug(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"foo.md", true},
		{"2025-01-15-foo.md", true},
		{"2025-01-15-foo.markdown", true},
		{"foo-bar.md", false},
		{"2025-01-15-foo-bar.md", false},
		{"x-2025-01-15-foo.md", false},
		{"foo", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchesSlug(tc.name, "foo"), tc.name)
	}
}

func TestFindPosts(t *testing.T) {
	listing := []forge.RepoFile{{Name: "2025-01-15-foo.md"}, {Name: "2026-02-01-foo.md"}, {Name: "bar.md"}}
	got := FindPosts(listing, "foo")
	require.Len(t, got, 2)
	assert.Equal(t, "2025-01-15-foo.md", got[0].Name)
	assert.Equal(t, "2026-02-01-foo.md", got[1].Name)
}

func TestLiveURL(t *testing.T) {
	date := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	site := config.SiteConfig{BaseURL: "https://example.com"}

	assert.Equal(t, "https://example.com/2025/06/05/slug.html", LiveURL(site, nil, "slug", date))
	assert.Equal(t, "https://example.com/go-tips/2025/06/05/slug.html",
		LiveURL(site, frontmatter.Fields{"categories": "Go Tips"}, "slug", date))
	assert.Empty(t, LiveURL(config.SiteConfig{}, nil, "slug", date))
}

func TestTargetFilename(t *testing.T) {
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	off := false
	assert.Equal(t, "2025-01-02-slug.md", TargetFilename(config.SiteConfig{}, "slug", ".MD", date))
	assert.Equal(t, "slug.md", TargetFilename(config.SiteConfig{DatePrefix: &off}, "slug", ".md", date))
}

func TestParseRepo(t *testing.T) {
	owner, repo, err := ParseRepo(" me/blog ")
	require.NoError(t, err)
	assert.Equal(t, "me", owner)
	assert.Equal(t, "blog", repo)

	_, _, err = ParseRepo("me")
	assert.Error(t, err)
}

func TestSlugFor(t *testing.T) {
	assert.Equal(t, "my-post-title", SlugFor("/vault/x/My Post Title!.md"))
	assert.Equal(t, "notes-v2", SlugFor("notes.v2.md"))
}

func TestFingerprintIgnoresExistingFingerprint(t *testing.T) {
	a := Fingerprint([]byte("title: T\n"), "body\n")
	b := Fingerprint([]byte("title: T\nfingerprint: abc\n"), "body\n")
	c := Fingerprint([]byte("title: T\r\n"), "body\r\n")
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.NotEqual(t, a, Fingerprint([]byte("title: U\n"), "body\n"))
}
