package publish

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/content"
	"git.home.luguber.info/inful/notebridge/internal/forge"
	"git.home.luguber.info/inful/notebridge/internal/frontmatter"
)

// Work branch prefixes. A branch is named <prefix>/<slug>.
const (
	publishBranchPrefix   = "publish"
	updateBranchPrefix    = "update"
	unpublishBranchPrefix = "unpublish"
)

func workBranch(prefix, slug string) string { return prefix + "/" + slug }

var datePrefixPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)

// MatchesSlug reports whether a remote filename is the post for slug, either
// as slug.ext or YYYY-MM-DD-slug.ext.
func MatchesSlug(name, slug string) bool {
	stem := strings.TrimSuffix(name, path.Ext(name))
	if stem == slug {
		return true
	}
	m := datePrefixPattern.FindStringSubmatch(stem)
	return m != nil && m[2] == slug
}

// FindPosts returns the files in listing that belong to slug, in listing order.
func FindPosts(listing []forge.RepoFile, slug string) []forge.RepoFile {
	var out []forge.RepoFile
	for _, f := range listing {
		if MatchesSlug(f.Name, slug) {
			out = append(out, f)
		}
	}
	return out
}

// dateFromFilename returns the YYYY-MM-DD prefix of name, if any.
func dateFromFilename(name string) (time.Time, bool) {
	m := datePrefixPattern.FindStringSubmatch(strings.TrimSuffix(name, path.Ext(name)))
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, m[1])
	return t, err == nil
}

// frontmatterDate returns the document's date field when it parses.
func frontmatterDate(fields frontmatter.Fields) (time.Time, bool) {
	s, ok := fields.String("date")
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := frontmatter.ParseDate(s)
	return t, err == nil
}

// TargetFilename names the published file, date-prefixed when the site
// uses date prefixes.
func TargetFilename(site config.SiteConfig, slug, ext string, date time.Time) string {
	ext = strings.ToLower(ext)
	if ext == "" {
		ext = ".md"
	}
	if site.UseDatePrefix() {
		return date.Format(time.DateOnly) + "-" + slug + ext
	}
	return slug + ext
}

// LiveURL is the public address of a post, or "" when the site has no base
// URL. The first category, slugified, becomes a leading path segment.
func LiveURL(site config.SiteConfig, fields frontmatter.Fields, slug string, date time.Time) string {
	base := strings.TrimRight(site.BaseURL, "/")
	if base == "" {
		return ""
	}
	category := ""
	if cats := fields.Strings("categories"); len(cats) > 0 {
		if c := content.Slugify(cats[0]); c != "" {
			category = c + "/"
		}
	}
	return fmt.Sprintf("%s/%s%04d/%02d/%02d/%s.html", base, category, date.Year(), int(date.Month()), date.Day(), slug)
}

func repoPath(dir, name string) string {
	return strings.TrimPrefix(path.Join(dir, name), "/")
}

func documentTitle(fields frontmatter.Fields, file string) string {
	if t, ok := fields.String("title"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
