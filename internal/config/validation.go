package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateVault(); err != nil {
		return err
	}
	if err := cv.validateSites(); err != nil {
		return err
	}
	if err := cv.validateRetry(); err != nil {
		return err
	}
	if err := cv.validateFrontmatter(); err != nil {
		return err
	}
	if err := cv.validateDurations(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateVault() error {
	if cv.config.Vault == "" {
		return errors.ConfigError("vault path is required").Build()
	}
	f := cv.config.Folders
	names := []string{f.Unpublished, f.Scheduled, f.Immediate, f.Published}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return errors.ConfigError("workflow folder names must be distinct").
				WithContext("folder", n).
				Build()
		}
		seen[n] = true
	}
	return nil
}

// validateSites checks per-site required fields. A malformed repo identifier is
// deliberately left for the publish workflow to report.
func (cv *configurationValidator) validateSites() error {
	names := make(map[string]bool)
	roots := make(map[string]string)
	for i, site := range cv.config.Sites {
		if site.Name == "" {
			return errors.ConfigError(fmt.Sprintf("site %d: name is required", i)).Build()
		}
		if names[site.Name] {
			return errors.ConfigError("duplicate site name").WithContext("site", site.Name).Build()
		}
		names[site.Name] = true
		if site.Repo == "" {
			return errors.ConfigError("site repo is required").WithContext("site", site.Name).Build()
		}
		if site.Root == "" {
			return errors.ConfigError("site root is required").WithContext("site", site.Name).Build()
		}
		root := filepath.Clean(site.Root)
		if other, ok := roots[root]; ok {
			return errors.ConfigError("sites share the same root folder").
				WithContext("site", site.Name).
				WithContext("other", other).
				WithContext("root", root).
				Build()
		}
		roots[root] = site.Name
		switch site.LinkStyle {
		case LinkStyleText, LinkStyleLink:
		default:
			return errors.ConfigError(fmt.Sprintf("unknown link_style %q", site.LinkStyle)).
				WithContext("site", site.Name).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateRetry() error {
	r := cv.config.Retry
	if NormalizeRetryBackoff(string(r.Backoff)) == "" {
		return errors.ConfigError(fmt.Sprintf("unknown retry backoff %q", r.Backoff)).Build()
	}
	if r.InitialDelayDuration() <= 0 {
		return errors.ConfigError("retry.initial_delay must be a positive duration").
			WithContext("value", r.InitialDelay).
			Build()
	}
	if r.MaxDelayDuration() <= 0 {
		return errors.ConfigError("retry.max_delay must be a positive duration").
			WithContext("value", r.MaxDelay).
			Build()
	}
	if r.Jitter < 0 || r.Jitter >= 1 {
		return errors.ConfigError("retry.jitter must be in [0, 1)").Build()
	}
	return nil
}

func (cv *configurationValidator) validateFrontmatter() error {
	for _, rule := range cv.config.Frontmatter.Rules {
		if rule.Field == "" {
			return errors.ConfigError("frontmatter rule without field").Build()
		}
		if rule.Pattern != "" {
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return errors.ConfigError("invalid frontmatter pattern").
					WithCause(err).
					WithContext("field", rule.Field).
					Build()
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateDurations() error {
	durations := map[string]string{
		"github.timeout":     cv.config.GitHub.Timeout,
		"activity.retention": cv.config.Activity.Retention,
		"watch.pair_window":  cv.config.Watch.PairWindow,
	}
	for key, raw := range durations {
		if _, err := time.ParseDuration(raw); err != nil {
			return errors.ConfigError(fmt.Sprintf("%s is not a valid duration", key)).
				WithCause(err).
				WithContext("value", raw).
				Build()
		}
	}
	return nil
}
