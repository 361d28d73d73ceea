// Package content rewrites note syntax into markup a static site can serve.
package content

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"git.home.luguber.info/inful/notebridge/internal/config"
)

// Options configures Transform.
type Options struct {
	// AssetsPath is the repository directory uploaded images go to.
	AssetsPath string
	// LinkBase is the site path cross-references point at in link style.
	LinkBase string
	// SitePrefix is prepended to generated URLs for sites served from a sub-path.
	SitePrefix string
	LinkStyle  config.LinkStyle
	// AssetPrefix is prepended to uploaded asset filenames.
	AssetPrefix string
}

// DefaultOptions mirrors the site defaults.
func DefaultOptions() Options {
	return Options{AssetsPath: "assets/images", LinkBase: "posts", LinkStyle: config.LinkStyleText}
}

// OptionsForSite derives transform options from a site, with assetPrefix
// applied to uploaded filenames.
func OptionsForSite(site config.SiteConfig, assetPrefix string) Options {
	opts := DefaultOptions()
	if site.AssetsPath != "" {
		opts.AssetsPath = site.AssetsPath
	}
	if site.LinkBase != "" {
		opts.LinkBase = site.LinkBase
	}
	if site.LinkStyle != "" {
		opts.LinkStyle = site.LinkStyle
	}
	opts.SitePrefix = site.SitePrefix
	opts.AssetPrefix = assetPrefix
	return opts
}

// AssetReference is an embedded image that must be uploaded with the document.
type AssetReference struct {
	OriginalRef string // the embed as written, e.g. ![[photo.png|Caption]]
	Filename    string // attachment name to look up locally
	TargetPath  string // repository path to upload to
}

// Result is the rewritten document and the assets it references.
type Result struct {
	Content string
	Assets  []AssetReference
}

var (
	imageEmbed = regexp.MustCompile(`!\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)
	wikiLink   = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)
)

// Transform rewrites ![[image]] embeds into markdown images and [[note]]
// references into plain text or markdown links. Fenced code is not treated
// specially.
func Transform(body string, opts Options) Result {
	res := Result{Assets: []AssetReference{}}
	if body == "" {
		return res
	}

	out := imageEmbed.ReplaceAllStringFunc(body, func(match string) string {
		sub := imageEmbed.FindStringSubmatch(match)
		filename := path.Base(strings.ReplaceAll(strings.TrimSpace(sub[1]), `\`, "/"))
		caption := strings.TrimSpace(sub[2])
		if caption == "" {
			caption = strings.TrimSuffix(filename, path.Ext(filename))
		}
		unique := opts.AssetPrefix + hyphenateSpaces(filename)
		target := joinPath(opts.AssetsPath, unique)

		res.Assets = append(res.Assets, AssetReference{
			OriginalRef: match,
			Filename:    filename,
			TargetPath:  target,
		})
		return "![" + caption + "](" + siteURL(opts.SitePrefix, target) + ")"
	})

	res.Content = replaceWikiLinks(out, opts)
	return res
}

func replaceWikiLinks(s string, opts Options) string {
	matches := wikiLink.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && s[start-1] == '!' {
			continue
		}
		ref := strings.TrimSpace(s[m[2]:m[3]])
		display := ref
		if m[4] >= 0 {
			if override := strings.TrimSpace(s[m[4]:m[5]]); override != "" {
				display = override
			}
		}

		b.WriteString(s[last:start])
		if opts.LinkStyle == config.LinkStyleLink {
			b.WriteString("[" + display + "](" + siteURL(opts.SitePrefix, joinPath(opts.LinkBase, Slugify(ref))) + ")")
		} else {
			b.WriteString(display)
		}
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func siteURL(prefix, p string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(p, "/")
}

func joinPath(dir, name string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func hyphenateSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), "-")
}
