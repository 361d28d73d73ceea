package config

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}

// InitialDelayDuration parses InitialDelay, returning 0 when unset or invalid.
func (r RetryConfig) InitialDelayDuration() time.Duration {
	d, _ := time.ParseDuration(r.InitialDelay)
	return d
}

// MaxDelayDuration parses MaxDelay, returning 0 when unset or invalid.
func (r RetryConfig) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(r.MaxDelay)
	return d
}

// UnmarshalYAML records whether max_retries was present so an explicit 0 disables retries.
func (r *RetryConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RetryConfig
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*r = RetryConfig(raw)
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "max_retries" {
			r.maxRetriesSpecified = true
		}
	}
	return nil
}
