package intent

import (
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/notebridge/internal/config"
)

// Folder is one of the four workflow subfolders of a site.
type Folder int

const (
	FolderNone Folder = iota
	FolderUnpublished
	FolderScheduled
	FolderImmediate
	FolderPublished
)

func (f Folder) String() string {
	switch f {
	case FolderUnpublished:
		return "unpublished"
	case FolderScheduled:
		return "scheduled-queue"
	case FolderImmediate:
		return "immediate-queue"
	case FolderPublished:
		return "published"
	default:
		return "none"
	}
}

// Registry resolves paths to sites and workflow folders.
type Registry struct {
	sites     []config.SiteConfig // longest root first
	folders   config.FolderNames
	extension string
}

// NewRegistry builds a registry over the configured sites.
func NewRegistry(cfg *config.Config) *Registry {
	sites := make([]config.SiteConfig, 0, len(cfg.Sites))
	for _, s := range cfg.Sites {
		if s.Root == "" {
			continue
		}
		s.Root = filepath.Clean(s.Root)
		sites = append(sites, s)
	}
	sort.SliceStable(sites, func(i, j int) bool { return len(sites[i].Root) > len(sites[j].Root) })

	ext := cfg.Extension
	if ext == "" {
		ext = ".md"
	}
	return &Registry{sites: sites, folders: cfg.Folders, extension: strings.ToLower(ext)}
}

// Sites returns the registered sites, most specific root first.
func (r *Registry) Sites() []config.SiteConfig { return r.sites }

// Site returns the site with the given name.
func (r *Registry) Site(name string) (config.SiteConfig, bool) {
	for _, s := range r.sites {
		if s.Name == name {
			return s, true
		}
	}
	return config.SiteConfig{}, false
}

// Resolve returns the site whose root contains path, preferring the longest root.
func (r *Registry) Resolve(path string) (config.SiteConfig, bool) {
	if path == "" {
		return config.SiteConfig{}, false
	}
	path = filepath.Clean(path)
	for _, s := range r.sites {
		if path == s.Root || strings.HasPrefix(path, s.Root+string(filepath.Separator)) {
			return s, true
		}
	}
	return config.SiteConfig{}, false
}

// Classify returns the workflow folder path sits in below site's root. Only
// the first segment after the root is considered, so nested subfolders count.
func (r *Registry) Classify(site config.SiteConfig, path string) Folder {
	rel, err := filepath.Rel(site.Root, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return FolderNone
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) < 2 {
		return FolderNone
	}
	switch segments[0] {
	case r.folders.Unpublished:
		return FolderUnpublished
	case r.folders.Scheduled:
		return FolderScheduled
	case r.folders.Immediate:
		return FolderImmediate
	case r.folders.Published:
		return FolderPublished
	default:
		return FolderNone
	}
}

// Tracked reports whether path has the tracked document extension.
func (r *Registry) Tracked(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == r.extension
}

// FolderPath returns the absolute path of a workflow folder of site.
func (r *Registry) FolderPath(site config.SiteConfig, f Folder) string {
	var name string
	switch f {
	case FolderUnpublished:
		name = r.folders.Unpublished
	case FolderScheduled:
		name = r.folders.Scheduled
	case FolderImmediate:
		name = r.folders.Immediate
	case FolderPublished:
		name = r.folders.Published
	default:
		return site.Root
	}
	return filepath.Join(site.Root, name)
}
