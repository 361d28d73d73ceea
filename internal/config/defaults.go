package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// defaultAppliers lists appliers in dependency order: paths are resolved
// before sites, since site roots are joined onto the vault.
func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		&VaultDefaultApplier{},
		&GitHubDefaultApplier{},
		&RetryDefaultApplier{},
		&SiteDefaultApplier{},
		&ActivityDefaultApplier{},
		&MetricsDefaultApplier{},
		&WatchDefaultApplier{},
	}
}

// ApplyDefaults runs every domain applier against cfg.
func ApplyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// VaultDefaultApplier handles the note tree root, extension and folder names.
type VaultDefaultApplier struct{}

func (v *VaultDefaultApplier) Domain() string { return "vault" }

func (v *VaultDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Vault != "" {
		abs, err := filepath.Abs(ExpandHome(cfg.Vault))
		if err != nil {
			return err
		}
		cfg.Vault = abs
	}
	if cfg.Extension == "" {
		cfg.Extension = ".md"
	}
	if !strings.HasPrefix(cfg.Extension, ".") {
		cfg.Extension = "." + cfg.Extension
	}
	if cfg.Folders.Unpublished == "" {
		cfg.Folders.Unpublished = "unpublished"
	}
	if cfg.Folders.Scheduled == "" {
		cfg.Folders.Scheduled = "scheduled"
	}
	if cfg.Folders.Immediate == "" {
		cfg.Folders.Immediate = "publish-now"
	}
	if cfg.Folders.Published == "" {
		cfg.Folders.Published = "published"
	}
	return nil
}

// GitHubDefaultApplier handles API endpoints and token location.
type GitHubDefaultApplier struct{}

func (g *GitHubDefaultApplier) Domain() string { return "github" }

func (g *GitHubDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = "https://api.github.com"
	}
	if cfg.GitHub.WebURL == "" {
		cfg.GitHub.WebURL = "https://github.com"
	}
	if cfg.GitHub.TokenFile == "" {
		cfg.GitHub.TokenFile = filepath.Join(defaultStateDir(), "token")
	}
	cfg.GitHub.TokenFile = ExpandHome(cfg.GitHub.TokenFile)
	if len(cfg.GitHub.Scopes) == 0 {
		cfg.GitHub.Scopes = []string{"repo"}
	}
	if cfg.GitHub.Timeout == "" {
		cfg.GitHub.Timeout = "30s"
	}
	return nil
}

// RetryDefaultApplier handles remote call backoff. Defaults: exponential,
// 1s initial, 10s cap, 3 retries (4 attempts), 25% jitter.
type RetryDefaultApplier struct{}

func (r *RetryDefaultApplier) Domain() string { return "retry" }

func (r *RetryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = RetryBackoffExponential
	} else if m := NormalizeRetryBackoff(string(cfg.Retry.Backoff)); m != "" {
		cfg.Retry.Backoff = m
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.MaxRetries == 0 && !cfg.Retry.maxRetriesSpecified {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.InitialDelay == "" {
		cfg.Retry.InitialDelay = "1s"
	}
	if cfg.Retry.MaxDelay == "" {
		cfg.Retry.MaxDelay = "10s"
	}
	if cfg.Retry.Jitter == 0 {
		cfg.Retry.Jitter = 0.25
	}
	return nil
}

// SiteDefaultApplier fills per-site defaults and anchors site roots in the vault.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "sites" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Sites {
		site := &cfg.Sites[i]
		if site.Branch == "" {
			site.Branch = "main"
		}
		if site.PostsPath == "" {
			site.PostsPath = "_posts"
		}
		if site.AssetsPath == "" {
			site.AssetsPath = "assets/images"
		}
		if site.ScheduledLabel == "" {
			site.ScheduledLabel = "scheduled"
		}
		if site.LinkStyle == "" {
			site.LinkStyle = LinkStyleText
		}
		if site.LinkBase == "" {
			site.LinkBase = "posts"
		}
		site.PostsPath = strings.Trim(site.PostsPath, "/")
		site.AssetsPath = strings.Trim(site.AssetsPath, "/")
		site.BaseURL = strings.TrimRight(site.BaseURL, "/")
		if site.Root != "" {
			root := ExpandHome(site.Root)
			if !filepath.IsAbs(root) && cfg.Vault != "" {
				root = filepath.Join(cfg.Vault, root)
			}
			site.Root = filepath.Clean(root)
		}
	}
	return nil
}

// ActivityDefaultApplier handles the outcome history store.
type ActivityDefaultApplier struct{}

func (a *ActivityDefaultApplier) Domain() string { return "activity" }

func (a *ActivityDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Activity.Database == "" {
		cfg.Activity.Database = filepath.Join(defaultStateDir(), "activity.db")
	}
	if cfg.Activity.Database != ":memory:" {
		cfg.Activity.Database = ExpandHome(cfg.Activity.Database)
	}
	if cfg.Activity.Retention == "" {
		cfg.Activity.Retention = "720h"
	}
	if cfg.Activity.NATS.Enabled {
		if cfg.Activity.NATS.URL == "" {
			cfg.Activity.NATS.URL = "nats://127.0.0.1:4222"
		}
		if cfg.Activity.NATS.Subject == "" {
			cfg.Activity.NATS.Subject = "notebridge.activity"
		}
	}
	return nil
}

// MetricsDefaultApplier handles the Prometheus endpoint.
type MetricsDefaultApplier struct{}

func (m *MetricsDefaultApplier) Domain() string { return "metrics" }

func (m *MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = "127.0.0.1:9464"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

// WatchDefaultApplier handles the file-tree watcher.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.PairWindow == "" {
		cfg.Watch.PairWindow = "500ms"
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "notebridge")
	}
	return ".notebridge"
}
