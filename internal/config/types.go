package config

import (
	"git.home.luguber.info/inful/notebridge/internal/frontmatter"
)

// Config is the root configuration document.
type Config struct {
	Vault       string            `yaml:"vault"`               // Root of the local note tree
	Extension   string            `yaml:"extension,omitempty"` // Tracked document extension (".md")
	Folders     FolderNames       `yaml:"folders"`
	GitHub      GitHubConfig      `yaml:"github"`
	Retry       RetryConfig       `yaml:"retry"`
	Sites       []SiteConfig      `yaml:"sites"`
	Frontmatter FrontmatterConfig `yaml:"frontmatter,omitempty"`
	Activity    ActivityConfig    `yaml:"activity"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Watch       WatchConfig       `yaml:"watch"`
}

// FolderNames are the four workflow subfolders expected directly below each site root.
type FolderNames struct {
	Unpublished string `yaml:"unpublished"`
	Scheduled   string `yaml:"scheduled"`
	Immediate   string `yaml:"immediate"`
	Published   string `yaml:"published"`
}

// GitHubConfig configures the remote hosting API and the device login flow.
type GitHubConfig struct {
	APIURL        string   `yaml:"api_url"`
	WebURL        string   `yaml:"web_url"` // Base for the OAuth device flow endpoints
	Token         string   `yaml:"token,omitempty"`
	TokenFile     string   `yaml:"token_file"`
	OAuthClientID string   `yaml:"oauth_client_id,omitempty"`
	Scopes        []string `yaml:"scopes,omitempty"`
	Timeout       string   `yaml:"timeout"` // Per-request HTTP timeout
}

// RetryConfig configures backoff for remote API calls.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	MaxRetries   int              `yaml:"max_retries"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
	Jitter       float64          `yaml:"jitter"`

	maxRetriesSpecified bool
}

// LinkStyle selects how cross-document references are rendered.
type LinkStyle string

const (
	LinkStyleText LinkStyle = "text"
	LinkStyleLink LinkStyle = "link"
)

// SiteConfig describes one publishing destination.
type SiteConfig struct {
	Name           string    `yaml:"name"`
	Repo           string    `yaml:"repo"` // owner/repo
	Branch         string    `yaml:"branch"`
	PostsPath      string    `yaml:"posts_path"`
	AssetsPath     string    `yaml:"assets_path"`
	ScheduledLabel string    `yaml:"scheduled_label"`
	Root           string    `yaml:"root"` // Local folder, relative to the vault unless absolute
	BaseURL        string    `yaml:"base_url,omitempty"`
	LinkStyle      LinkStyle `yaml:"link_style,omitempty"`
	LinkBase       string    `yaml:"link_base,omitempty"`
	SitePrefix     string    `yaml:"site_prefix,omitempty"`
	DatePrefix     *bool     `yaml:"date_prefix,omitempty"`
	DeleteAssets   *bool     `yaml:"delete_assets,omitempty"`
}

// UseDatePrefix reports whether published filenames carry a YYYY-MM-DD- prefix.
func (s SiteConfig) UseDatePrefix() bool { return s.DatePrefix == nil || *s.DatePrefix }

// UnpublishAssets reports whether unpublishing also removes the post's assets.
func (s SiteConfig) UnpublishAssets() bool { return s.DeleteAssets == nil || *s.DeleteAssets }

// FrontmatterConfig replaces the default validation rules when Rules is non-empty.
type FrontmatterConfig struct {
	Rules []frontmatter.Rule `yaml:"rules,omitempty"`
}

// RuleSet returns the configured rules, or the defaults.
func (f FrontmatterConfig) RuleSet() []frontmatter.Rule {
	if len(f.Rules) == 0 {
		return frontmatter.DefaultRules()
	}
	return f.Rules
}

// ActivityConfig configures the outcome history.
type ActivityConfig struct {
	Database  string     `yaml:"database"`
	Retention string     `yaml:"retention"`
	NATS      NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig configures optional fan-out of outcome records.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint served by the watcher.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// WatchConfig configures the file-tree watcher.
type WatchConfig struct {
	PairWindow                  string `yaml:"pair_window"`
	MoveBackOnValidationFailure *bool  `yaml:"move_back_on_validation_failure,omitempty"`
}

// MoveBack reports whether a document failing validation is returned to its previous folder.
func (w WatchConfig) MoveBack() bool {
	return w.MoveBackOnValidationFailure == nil || *w.MoveBackOnValidationFailure
}
