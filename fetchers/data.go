// Package fetchers implements C3: the two fetch backends sharing the
// FetchRequest -> FetchResult contract (politeness.Fetcher).
package fetchers

import (
	"net/http"
	"time"
)

const defaultMaxBodyBytes = 10 * 1024 * 1024

// StaticConfig configures the raw-HTTP backend.
type StaticConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	TLSVerify    bool
	MaxBodyBytes int64
	UserAgent    string
	Headers      map[string]string
	Cookies      []*http.Cookie
}

func (c StaticConfig) withDefaults() StaticConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 5
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = "EndAbyss/1.0 (+https://github.com/arrester/endabyss)"
	}
	return c
}

// DynamicConfig configures the headless-browser backend.
type DynamicConfig struct {
	Timeout   time.Duration // per-navigation timeout; default 30s
	WaitTime  time.Duration // quiescence window after load; default 2s
	UserAgent string
	Headers   map[string]string
	PoolSize  int  // number of reusable browser tabs; crawl.Controller sets this to Concurrency when unset
	Headless  bool // withDefaults leaves it as given: the zero value false launches a visible browser (the CLI's --headless flag defaults to true)
}

func (c DynamicConfig) withDefaults() DynamicConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.WaitTime <= 0 {
		c.WaitTime = 2 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "EndAbyss/1.0 (+https://github.com/arrester/endabyss)"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
	return c
}
