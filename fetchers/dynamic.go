package fetchers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/arrester/endabyss/model"
)

// Dynamic is the headless-browser fetch backend. One chromedp tab context
// is allocated per pool slot and reused across Fetch calls within a run —
// "one browser context per worker", approximated here with a bounded pool
// rather than a caller-supplied worker id, since politeness.Fetcher has no
// such parameter. Contexts are disposed together on Close.
type Dynamic struct {
	cfg         DynamicConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	pool        chan context.Context
	tabCancels  []context.CancelFunc
}

// NewDynamic launches a headless browser and pre-warms cfg.PoolSize tabs.
// Returns ErrBackendUnavailable if the browser cannot be started — fatal
// per spec when mode=dynamic.
func NewDynamic(cfg DynamicConfig) (*Dynamic, error) {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	d := &Dynamic{
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		pool:        make(chan context.Context, cfg.PoolSize),
	}

	for i := 0; i < cfg.PoolSize; i++ {
		tabCtx, tabCancel := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
			d.Close()
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		d.tabCancels = append(d.tabCancels, tabCancel)
		d.pool <- tabCtx
	}

	return d, nil
}

// Fetch implements politeness.Fetcher. proxy is accepted for interface
// compatibility; per-request proxying isn't supported by a shared browser
// instance (proxies would need to be set at launch), so it is ignored here
// — wiring dynamic-mode proxy rotation would mean one browser per proxy,
// which the pool design deliberately avoids.
func (d *Dynamic) Fetch(ctx context.Context, req model.FetchRequest, proxy string) (model.FetchResult, error) {
	var tabCtx context.Context
	select {
	case tabCtx = <-d.pool:
	case <-ctx.Done():
		return model.FetchResult{}, ctx.Err()
	}
	defer func() { d.pool <- tabCtx }()

	var mu sync.Mutex
	var observed []model.FetchRequest

	listenCtx, stopListen := context.WithCancel(tabCtx)
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		mu.Lock()
		observed = append(observed, model.FetchRequest{
			URL:    e.Request.URL,
			Method: e.Request.Method,
		})
		mu.Unlock()
	})
	defer stopListen()

	navCtx, cancel := context.WithTimeout(tabCtx, d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	var html, finalURL string
	actions := []chromedp.Action{}
	if headers := mergedHeaders(d.cfg.Headers, req.Headers); len(headers) > 0 {
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions,
		chromedp.Navigate(req.URL),
		chromedp.Sleep(d.cfg.WaitTime), // stands in for "networkidle or wait_time"
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	err := chromedp.Run(navCtx, actions...)
	elapsed := time.Since(start)
	if err != nil {
		return model.FetchResult{}, fmt.Errorf("fetchers: dynamic navigate: %w", err)
	}

	mu.Lock()
	subreqs := append([]model.FetchRequest(nil), observed...)
	mu.Unlock()

	return model.FetchResult{
		FinalURL:            finalURL,
		Status:              200,
		ContentType:         "text/html",
		Body:                []byte(html),
		Elapsed:             elapsed,
		ObservedSubrequests: subreqs,
	}, nil
}

// mergedHeaders combines the backend-wide static headers with any
// per-request headers (the latter winning on conflict) into the
// network.Headers shape SetExtraHTTPHeaders expects.
func mergedHeaders(base, perRequest map[string]string) network.Headers {
	if len(base) == 0 && len(perRequest) == 0 {
		return nil
	}
	out := make(network.Headers, len(base)+len(perRequest))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range perRequest {
		out[k] = v
	}
	return out
}

// Close tears down every pooled tab and the browser allocator.
func (d *Dynamic) Close() error {
	for _, cancel := range d.tabCancels {
		cancel()
	}
	d.allocCancel()
	return nil
}
