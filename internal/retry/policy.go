package retry

import (
	"time"

	"git.home.luguber.info/inful/notebridge/internal/config"
)

// Policy describes how often and how long to wait between attempts of a
// remote call. Values are copied, never shared.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int     // retries after the first attempt
	Jitter     float64 // each delay varies by up to this fraction either way, in [0,1)
}

// DefaultPolicy waits 1s, 2s and 4s between four attempts, capped at 10s,
// with 25% jitter.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffExponential,
		Initial:    time.Second,
		Max:        10 * time.Second,
		MaxRetries: 3,
		Jitter:     0.25,
	}
}

// NewPolicy starts from DefaultPolicy and applies every argument that is in
// range. Initial is clamped to Max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int, jitter float64) Policy {
	p := DefaultPolicy()
	if m := config.NormalizeRetryBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if jitter >= 0 && jitter < 1 {
		p.Jitter = jitter
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds a policy from the retry section of the configuration.
func FromConfig(rc config.RetryConfig) Policy {
	return NewPolicy(rc.Backoff, rc.InitialDelayDuration(), rc.MaxDelayDuration(), rc.MaxRetries, rc.Jitter)
}

// Delay is the unjittered wait before retry n, counting the first retry as 1.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		if n > 32 {
			return p.Max
		}
		d = p.Initial << (n - 1)
		if d <= 0 {
			return p.Max
		}
	default:
		d = time.Duration(n) * p.Initial
	}
	return min(d, p.Max)
}

// JitteredDelay scales Delay(n) by a factor in [1-Jitter, 1+Jitter). u is a
// uniform sample in [0,1); 0.5 gives the unjittered delay.
func (p Policy) JitteredDelay(n int, u float64) time.Duration {
	d := p.Delay(n)
	if d == 0 || p.Jitter == 0 {
		return d
	}
	return time.Duration(float64(d) * (1 + p.Jitter*(2*u-1)))
}
