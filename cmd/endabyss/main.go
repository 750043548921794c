// Command endabyss is the CLI driver for the crawl engine: flag/config
// parsing, target/wordlist file loading, logging setup and result
// formatting. It is the core's only caller and owns nothing the core
// itself needs — everything here is the "external collaborator" spec.md
// §1 describes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arrester/endabyss/crawl"
	"github.com/arrester/endabyss/fetchers"
	"github.com/arrester/endabyss/model"
	"github.com/arrester/endabyss/politeness"
)

const version = "1.0.0"

// exit codes per spec §6.
const (
	exitOK          = 0
	exitBadUsage    = 1
	exitAllFailed   = 2
	exitInterrupted = 130
)

type flags struct {
	target      string
	targetFile  string
	mode        string
	scopeMode   string
	depth       int
	concurrency int
	dirscan     bool
	wordlist    string
	delay       time.Duration
	randomDelay time.Duration
	proxy       []string
	rateLimit   float64
	timeout     time.Duration
	waitTime    time.Duration
	headless    bool
	runTimeout  time.Duration
	configFile  string
	output      string
	verbose     int

	pipeURL      bool
	pipeEndpoint bool
	pipeParam    bool
	pipeJSON     bool

	header           []string
	cookie           []string
	maxBodyBytes     int64
	trackingDenylist []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var f flags
	root := newRootCommand(&f, stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		if _, ok := err.(usageError); ok {
			return exitBadUsage
		}
		return exitAllFailed
	}
	return lastExitCode
}

// usageError marks a cobra RunE failure as a flag/argument problem rather
// than a run-time one, so main can choose exit code 1 instead of 2.
type usageError struct{ error }

// lastExitCode lets RunE hand a non-error exit code (130 on interrupt, or 2
// on an all-targets-failed run) back to main without abusing cobra's
// error-only return channel for control flow that isn't really an error.
var lastExitCode = exitOK

func newRootCommand(f *flags, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "endabyss",
		Short:         "Bounded-concurrency endpoint-discovery crawler",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, f, stdout, stderr)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.target, "target", "t", "", "seed target URL")
	fs.StringVarP(&f.targetFile, "targetfile", "", "", "file of seed target URLs, one per line")
	fs.StringVarP(&f.mode, "mode", "m", "static", "fetch backend: static or dynamic")
	fs.StringVar(&f.scopeMode, "scope-mode", "same-registered-domain", "same-registered-domain, same-host or exact-prefix")
	fs.IntVarP(&f.depth, "depth", "d", 5, "max crawl depth")
	fs.IntVarP(&f.concurrency, "concurrency", "c", 10, "worker count")
	fs.BoolVarP(&f.dirscan, "dirscan", "", false, "enable directory wordlist probing")
	fs.StringVarP(&f.wordlist, "wordlist", "w", "", "wordlist file for -dirscan")
	fs.DurationVar(&f.delay, "delay", 0, "fixed pause before every dispatch")
	fs.DurationVar(&f.randomDelay, "random-delay", 0, "upper bound of a uniform random pause; the larger of it and --delay is slept")
	fs.StringSliceVar(&f.proxy, "proxy", nil, "outbound proxy URL (repeatable)")
	fs.Float64Var(&f.rateLimit, "rate-limit", 0, "requests/sec; 0 disables the token bucket")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-request timeout; 0 = backend default")
	fs.DurationVar(&f.waitTime, "wait-time", 0, "dynamic-backend post-load quiescence window")
	fs.BoolVar(&f.headless, "headless", true, "run the dynamic backend headless")
	fs.DurationVar(&f.runTimeout, "run-timeout", 0, "whole-run deadline; 0 = no deadline")
	fs.StringVar(&f.configFile, "config", "", "optional YAML config file")
	fs.StringVarP(&f.output, "output", "o", "", "write the result to this file in addition to stdout")
	fs.CountVarP(&f.verbose, "verbose", "v", "increase log verbosity (-v, -vv)")
	fs.StringSliceVar(&f.header, "header", nil, `static request header "Key: Value" (repeatable)`)
	fs.StringSliceVar(&f.cookie, "cookie", nil, `static cookie "name=value" (repeatable)`)
	fs.Int64Var(&f.maxBodyBytes, "max-body-bytes", 0, "response body truncation threshold; 0 = backend default (10 MiB)")
	fs.StringSliceVar(&f.trackingDenylist, "tracking-denylist", nil, "query-parameter denylist patterns (repeatable); 0 entries = default utm_*/fbclid/gclid")

	fs.BoolVar(&f.pipeURL, "pipeurl", false, "emit one endpoint URL per line")
	fs.BoolVar(&f.pipeEndpoint, "pipeendpoint", false, "emit METHOD URL per line")
	fs.BoolVar(&f.pipeParam, "pipeparam", false, "emit endpoint URLs with their query string")
	fs.BoolVar(&f.pipeJSON, "pipejson", false, "emit the result struct as a single JSON document")

	fs.SortFlags = false
	return cmd
}

func runCrawl(cmd *cobra.Command, f *flags, stdout, stderr io.Writer) error {
	if f.configFile != "" {
		fc, err := loadFileConfig(f.configFile)
		if err != nil {
			lastExitCode = exitBadUsage
			return usageError{fmt.Errorf("load config: %w", err)}
		}
		applyFileDefaults(f, cmd.Flags(), fc)
	}

	targets, err := resolveTargets(f)
	if err != nil {
		lastExitCode = exitBadUsage
		return usageError{err}
	}

	var wordlist []string
	if f.dirscan && f.wordlist != "" {
		wordlist, err = readLines(f.wordlist)
		if err != nil {
			lastExitCode = exitBadUsage
			return usageError{fmt.Errorf("read wordlist: %w", err)}
		}
	}

	stdLogger := newLogger(stderr, f.verbose)

	headers := parseHeaders(f.header)
	cookies, err := parseCookies(f.cookie)
	if err != nil {
		lastExitCode = exitBadUsage
		return usageError{fmt.Errorf("parse cookie: %w", err)}
	}

	cfg := crawl.Config{
		Targets:     targets,
		Mode:        model.BackendMode(f.mode),
		Concurrency: f.concurrency,
		MaxDepth:    f.depth,
		Dirscan:     f.dirscan,
		Wordlist:    wordlist,
		RunTimeout:  f.runTimeout,
		Denylist:    f.trackingDenylist,
		Politeness: politeness.Config{
			RateLimit:        f.rateLimit,
			Delay:            f.delay,
			RandomDelayRange: f.randomDelay,
			Proxies:          f.proxy,
		},
		Static: fetchers.StaticConfig{
			Timeout:      f.timeout,
			MaxBodyBytes: f.maxBodyBytes,
			Headers:      headers,
			Cookies:      cookies,
		},
		Dynamic: fetchers.DynamicConfig{
			Timeout:  f.timeout,
			WaitTime: f.waitTime,
			Headless: f.headless,
			Headers:  headers,
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	controller := crawl.New(cfg, stdLogger)
	result, err := controller.Run(ctx)
	if err != nil {
		lastExitCode = exitBadUsage
		return usageError{err}
	}

	if err := writeResult(stdout, result, f.pipeJSON, f.pipeParam, f.pipeEndpoint, f.pipeURL); err != nil {
		lastExitCode = exitAllFailed
		return err
	}
	if f.output != "" {
		file, ferr := os.Create(f.output)
		if ferr == nil {
			_ = writeResult(file, result, true, false, false, false)
			file.Close()
		}
	}

	switch {
	case ctx.Err() != nil:
		lastExitCode = exitInterrupted
	case result.Stats.Fetched == 0 && result.Stats.Failed > 0:
		lastExitCode = exitAllFailed
	default:
		lastExitCode = exitOK
	}
	return nil
}

func resolveTargets(f *flags) ([]model.Target, error) {
	var rawURLs []string
	if f.target != "" {
		rawURLs = append(rawURLs, strings.Split(f.target, ",")...)
	}
	if f.targetFile != "" {
		lines, err := readLines(f.targetFile)
		if err != nil {
			return nil, fmt.Errorf("read targetfile: %w", err)
		}
		rawURLs = append(rawURLs, lines...)
	}
	if len(rawURLs) == 0 {
		return nil, fmt.Errorf("at least one of -target/-targetfile is required")
	}

	scopeMode := model.ScopeMode(f.scopeMode)
	targets := make([]model.Target, 0, len(rawURLs))
	for _, raw := range rawURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		scheme, host, prefix, err := splitSeedURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse target %q: %w", raw, err)
		}
		targets = append(targets, model.Target{
			Scheme: scheme, Host: host, PathPrefix: prefix, ScopeMode: scopeMode,
		})
	}
	return targets, nil
}

func applyFileDefaults(f *flags, changed *pflag.FlagSet, fc fileConfig) {
	if !changed.Changed("target") && !changed.Changed("targetfile") {
		if len(fc.Targets) > 0 {
			f.target = strings.Join(fc.Targets, ",")
		}
		if fc.TargetFile != "" {
			f.targetFile = fc.TargetFile
		}
	}
	if !changed.Changed("mode") && fc.Mode != "" {
		f.mode = fc.Mode
	}
	if !changed.Changed("scope-mode") && fc.ScopeMode != "" {
		f.scopeMode = fc.ScopeMode
	}
	if !changed.Changed("depth") && fc.Depth > 0 {
		f.depth = fc.Depth
	}
	if !changed.Changed("concurrency") && fc.Concurrency > 0 {
		f.concurrency = fc.Concurrency
	}
	if !changed.Changed("dirscan") && fc.Dirscan {
		f.dirscan = fc.Dirscan
	}
	if !changed.Changed("wordlist") && fc.Wordlist != "" {
		f.wordlist = fc.Wordlist
	}
	if !changed.Changed("delay") && fc.Delay > 0 {
		f.delay = fc.Delay
	}
	if !changed.Changed("random-delay") && fc.RandomDelay > 0 {
		f.randomDelay = fc.RandomDelay
	}
	if !changed.Changed("proxy") && len(fc.Proxies) > 0 {
		f.proxy = fc.Proxies
	}
	if !changed.Changed("rate-limit") && fc.RateLimit > 0 {
		f.rateLimit = fc.RateLimit
	}
	if !changed.Changed("timeout") && fc.Timeout > 0 {
		f.timeout = fc.Timeout
	}
	if !changed.Changed("wait-time") && fc.WaitTime > 0 {
		f.waitTime = fc.WaitTime
	}
	if !changed.Changed("run-timeout") && fc.RunTimeout > 0 {
		f.runTimeout = fc.RunTimeout
	}
	if !changed.Changed("max-body-bytes") && fc.MaxBodyBytes > 0 {
		f.maxBodyBytes = fc.MaxBodyBytes
	}
	if !changed.Changed("tracking-denylist") && len(fc.TrackingDenylist) > 0 {
		f.trackingDenylist = fc.TrackingDenylist
	}
	if !changed.Changed("header") && len(fc.Headers) > 0 {
		for k, v := range fc.Headers {
			f.header = append(f.header, k+": "+v)
		}
	}
	if !changed.Changed("cookie") && len(fc.Cookies) > 0 {
		f.cookie = fc.Cookies
	}
}
