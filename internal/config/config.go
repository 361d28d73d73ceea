package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

// Load reads, expands, defaults and validates the configuration file at configPath.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil && !os.IsNotExist(err) {
		return nil, errors.ConfigError("failed to load .env file").WithCause(err).Build()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ConfigError("failed to read config file").WithCause(err).Build()
	}
	return Parse(data)
}

// Parse builds a Config from raw YAML, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, errors.ConfigError("failed to apply defaults").WithCause(err).Build()
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		Vault:     "~/Notes",
		Extension: ".md",
		Folders: FolderNames{
			Unpublished: "unpublished",
			Scheduled:   "scheduled",
			Immediate:   "publish-now",
			Published:   "published",
		},
		GitHub: GitHubConfig{
			APIURL:    "https://api.github.com",
			WebURL:    "https://github.com",
			Token:     "${GITHUB_TOKEN}",
			TokenFile: "~/.config/notebridge/token",
			Scopes:    []string{"repo"},
			Timeout:   "30s",
		},
		Retry: RetryConfig{
			Backoff:      RetryBackoffExponential,
			MaxRetries:   3,
			InitialDelay: "1s",
			MaxDelay:     "10s",
			Jitter:       0.25,
		},
		Sites: []SiteConfig{{
			Name:           "blog",
			Repo:           "example/example.github.io",
			Branch:         "main",
			PostsPath:      "_posts",
			AssetsPath:     "assets/images",
			ScheduledLabel: "scheduled",
			Root:           "Blog",
			BaseURL:        "https://example.github.io",
			LinkStyle:      LinkStyleText,
		}},
		Activity: ActivityConfig{
			Database:  "~/.config/notebridge/activity.db",
			Retention: "720h",
		},
		Metrics: MetricsConfig{Listen: "127.0.0.1:9464", Path: "/metrics"},
		Watch:   WatchConfig{PairWindow: "500ms"},
	}
}

// TimeoutDuration parses the per-request timeout.
func (g GitHubConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(g.Timeout)
	return d
}

// RetentionDuration parses how long activity records are kept.
func (a ActivityConfig) RetentionDuration() time.Duration {
	d, _ := time.ParseDuration(a.Retention)
	return d
}

// PairWindowDuration parses how long the watcher waits to pair a rename with its create.
func (w WatchConfig) PairWindowDuration() time.Duration {
	d, _ := time.ParseDuration(w.PairWindow)
	return d
}
