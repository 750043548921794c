package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional -config file.yaml shape. Every field mirrors a
// CLI flag and is overridden by an explicit flag of the same name (flags
// win; the file supplies defaults for anything left unset on the command
// line), matching the teacher's layered-config intent for its unused
// yaml.v3 dependency.
type fileConfig struct {
	Targets          []string      `yaml:"targets"`
	TargetFile       string        `yaml:"target_file"`
	Mode             string        `yaml:"mode"`
	ScopeMode        string        `yaml:"scope_mode"`
	Depth            int           `yaml:"depth"`
	Concurrency      int           `yaml:"concurrency"`
	Dirscan          bool          `yaml:"dirscan"`
	Wordlist         string        `yaml:"wordlist"`
	Delay            time.Duration `yaml:"delay"`
	RandomDelay      time.Duration `yaml:"random_delay"`
	Proxies          []string      `yaml:"proxies"`
	RateLimit        float64       `yaml:"rate_limit"`
	Timeout          time.Duration `yaml:"timeout"`
	WaitTime         time.Duration `yaml:"wait_time"`
	MaxBodyBytes     int64             `yaml:"max_body_bytes"`
	TrackingDenylist []string          `yaml:"tracking_denylist"`
	RunTimeout       time.Duration     `yaml:"run_timeout"`
	Headers          map[string]string `yaml:"headers"`
	Cookies          []string          `yaml:"cookies"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// parseHeaders turns a repeated "Key: Value" flag into the map
// StaticConfig/DynamicConfig expect. Malformed entries (no colon) are
// skipped rather than rejected — a stray -header value shouldn't abort a
// scan that's otherwise ready to run.
func parseHeaders(raw []string) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// parseCookies turns a repeated "name=value" flag into *http.Cookie values
// for the static backend's cookie jar.
func parseCookies(raw []string) ([]*http.Cookie, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		name, value, ok := strings.Cut(c, "=")
		if !ok {
			return nil, fmt.Errorf("cookie %q must be name=value", c)
		}
		out = append(out, &http.Cookie{Name: strings.TrimSpace(name), Value: value})
	}
	return out, nil
}

// readLines reads one non-empty, non-comment entry per line — used for
// both -targetfile and -wordlist.
func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var out []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}
