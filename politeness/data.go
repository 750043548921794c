package politeness

import "time"

// Config configures the Gate (token bucket, delay/jitter, retry, proxies).
type Config struct {
	RateLimit        float64       // requests/sec; 0 disables the bucket
	Delay            time.Duration // fixed pause before every dispatch
	RandomDelayRange time.Duration // upper bound of a uniform random pause; the Gate sleeps the larger of this draw and Delay
	Proxies          []string      // round-robined per attempt; empty = direct
	MaxRetries       int           // default 3
	RetryBaseDelay   time.Duration // default 500ms
	RetryFactor      float64       // default 2.0
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.RetryFactor <= 0 {
		c.RetryFactor = 2.0
	}
	return c
}
