package crawl

import (
	"time"

	"github.com/arrester/endabyss/fetchers"
	"github.com/arrester/endabyss/model"
	"github.com/arrester/endabyss/politeness"
)

// Config assembles everything a Controller needs for one run. It is built
// by cmd/endabyss from flags/config file and handed to New verbatim.
type Config struct {
	Targets     []model.Target
	Mode        model.BackendMode
	Concurrency int
	MaxDepth    int

	Dirscan  bool
	Wordlist []string

	RunTimeout time.Duration // 0 = no deadline
	DrainGrace time.Duration // extra time in-flight fetches get past RunTimeout

	Denylist   []string // query-parameter denylist, passed to normalize.New
	Politeness politeness.Config
	Static     fetchers.StaticConfig
	Dynamic    fetchers.DynamicConfig
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 5
	}
	if c.DrainGrace <= 0 {
		c.DrainGrace = 2 * time.Second
	}
	if c.Mode == "" {
		c.Mode = model.BackendStatic
	}
	return c
}
