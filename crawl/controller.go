// Package crawl implements C6: the Controller that wires the Frontier,
// Politeness Gate, a Fetcher backend, the Extractor and the Aggregator into
// a bounded worker pool, and — when dirscan is enabled — the Directory
// Prober as a second task source feeding the same Frontier. Grounded on the
// teacher's http.Crawler worker-pool shape (fixed goroutine count pulling
// from a shared queue, a WaitGroup at shutdown).
package crawl

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arrester/endabyss/aggregate"
	"github.com/arrester/endabyss/dirscan"
	"github.com/arrester/endabyss/extract"
	"github.com/arrester/endabyss/fetchers"
	"github.com/arrester/endabyss/frontier"
	"github.com/arrester/endabyss/model"
	"github.com/arrester/endabyss/normalize"
	"github.com/arrester/endabyss/politeness"
)

// Controller owns exactly one run's worth of state: its Frontier, Gate,
// Fetcher and Aggregator are constructed fresh in Run and discarded at the
// end of it.
type Controller struct {
	cfg    Config
	logger *log.Logger
}

// New builds a Controller. logger may be nil, in which case log.Default is
// used (cmd/endabyss normally supplies a zerolog-backed *log.Logger built
// by its newLogger so every component logs through one sink).
func New(cfg Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{cfg: cfg.withDefaults(), logger: logger}
}

// Run executes one crawl to completion (or cancellation/timeout) and
// returns the assembled Result. It returns an error only for ErrNoTargets
// or a backend that cannot be constructed (fetchers.ErrBackendUnavailable
// in dynamic mode) — every other failure mode (a target unreachable, a
// fetch erroring) is recorded in Stats/Result instead of aborting the run.
func (c *Controller) Run(parent context.Context) (model.Result, error) {
	if len(c.cfg.Targets) == 0 {
		return model.Result{}, ErrNoTargets
	}

	start := time.Now()

	runCtx := parent
	var cancelRun context.CancelFunc
	fetchCtx := parent
	var cancelFetch context.CancelFunc
	if c.cfg.RunTimeout > 0 {
		runCtx, cancelRun = context.WithTimeout(parent, c.cfg.RunTimeout)
		defer cancelRun()
		fetchCtx, cancelFetch = context.WithTimeout(parent, c.cfg.RunTimeout+c.cfg.DrainGrace)
		defer cancelFetch()
	}

	fetcher, err := c.newFetcher()
	if err != nil {
		return model.Result{}, err
	}
	defer fetcher.Close()

	norm := normalize.New(c.cfg.Denylist)
	scope := normalize.NewScopeChecker(func(msg string) { c.logger.Print(msg) })
	fr := frontier.New(runCtx, norm, scope, c.cfg.MaxDepth)
	gate := politeness.New(c.cfg.Politeness)
	agg := aggregate.New()

	var prober *dirscan.Prober
	if c.cfg.Dirscan {
		prober = dirscan.New(c.cfg.Wordlist, fr)
	}

	for i := range c.cfg.Targets {
		t := c.cfg.Targets[i]
		seedURL := t.Scheme + "://" + t.Host + t.PathPrefix
		fr.Push(model.Task{URL: seedURL, Method: "GET", Depth: 0, Target: &t, Source: model.SourceSeed})
	}

	// errgroup replaces a bare sync.WaitGroup here only for its grouped
	// goroutine bookkeeping — workers never return an error themselves
	// (every recoverable failure is recorded in Stats instead), so Wait's
	// error value is always nil and is discarded.
	var g errgroup.Group
	for i := 0; i < c.cfg.Concurrency; i++ {
		g.Go(func() error {
			c.worker(runCtx, fetchCtx, fr, scope, gate, fetcher, prober, agg)
			return nil
		})
	}
	_ = g.Wait()

	endpoints, forms, params := agg.Finalise()
	fetched, failed, deduped := agg.Counters()
	elapsed := time.Since(start)

	return model.Result{
		Endpoints: endpoints,
		Forms:     forms,
		Parameters: params,
		Stats: model.Stats{
			Fetched:  fetched,
			Failed:   failed,
			Deduped:  deduped,
			Elapsed:  elapsed,
			ElapsedS: elapsed.Seconds(),
		},
		Cancelled: runCtx.Err() != nil,
	}, nil
}

func (c *Controller) newFetcher() (politeness.Fetcher, error) {
	if c.cfg.Mode == model.BackendDynamic {
		dynCfg := c.cfg.Dynamic
		if dynCfg.PoolSize <= 0 {
			dynCfg.PoolSize = c.cfg.Concurrency
		}
		return fetchers.NewDynamic(dynCfg)
	}
	return fetchers.NewStatic(c.cfg.Static), nil
}

// worker pops tasks until the Frontier signals termination. runCtx governs
// whether the Frontier keeps handing out work; fetchCtx (which may outlive
// runCtx by DrainGrace) governs how long an already-dispatched fetch is
// allowed to keep running — a task already in flight when the run times
// out gets to finish instead of being cut off mid-request.
func (c *Controller) worker(runCtx, fetchCtx context.Context, fr *frontier.Frontier, scope *normalize.ScopeChecker, gate *politeness.Gate, fetcher politeness.Fetcher, prober *dirscan.Prober, agg *aggregate.Aggregator) {
	for {
		task, ok := fr.Pop()
		if !ok {
			return
		}
		c.handleTask(fetchCtx, task, fr, scope, gate, fetcher, prober, agg)
		fr.Done()
	}
}

func (c *Controller) handleTask(ctx context.Context, task model.Task, fr *frontier.Frontier, scope *normalize.ScopeChecker, gate *politeness.Gate, fetcher politeness.Fetcher, prober *dirscan.Prober, agg *aggregate.Aggregator) {
	if task.DirProbe {
		result, found := dirscan.Probe(ctx, gate, fetcher, task)
		// The probe was dispatched either way; "found" says whether the
		// path exists, not whether the request itself succeeded.
		agg.RecordFetch(true)
		if found {
			agg.RecordEndpoint(model.Endpoint{
				URL: task.URL, Method: task.Method, Source: task.Source,
				Status: result.Status, Depth: task.Depth,
			})
			// An HTML hit is queued as an ordinary GET so its body goes
			// through the normal extraction pipeline.
			if strings.Contains(strings.ToLower(result.ContentType), "html") {
				fr.Push(model.Task{URL: task.URL, Method: "GET", Depth: task.Depth, Target: task.Target, Source: model.SourceDirscan})
			}
		}
		return
	}
	inScope := func(u string) bool { return task.Target == nil || scope.InScope(task.Target, u) }

	fr2, err := gate.Do(ctx, fetcher, model.FetchRequest{URL: task.URL, Method: task.Method})
	if err != nil {
		agg.RecordFetch(false)
		return
	}
	agg.RecordFetch(true)

	recordedURL := task.URL
	if fr2.FinalURL != "" {
		recordedURL = fr2.FinalURL
	}
	agg.RecordEndpoint(model.Endpoint{
		URL: recordedURL, Method: task.Method, Source: task.Source,
		ContentType: fr2.ContentType, Status: fr2.Status, Depth: task.Depth,
	})

	if prober != nil {
		prober.SeedFromURL(recordedURL, task.Target, task.Depth)
	}

	result, extractErr := extract.Extract(fr2, task, c.cfg.MaxDepth)
	if extractErr != nil {
		c.logger.Printf("extract: %v: %s", extractErr, recordedURL)
	}
	for _, e := range result.Endpoints {
		if inScope(e.URL) {
			agg.RecordEndpoint(e)
		}
	}
	for _, f := range result.Forms {
		if inScope(f.ActionURL) {
			agg.RecordForm(f)
		}
	}
	for _, p := range result.Parameters {
		if inScope(p.URL) {
			agg.RecordParameterSet(p)
		}
	}
	for _, nt := range result.NewTasks {
		if !fr.Push(nt) {
			agg.RecordDedup()
		}
	}
}
