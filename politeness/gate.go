// Package politeness implements C4: the rate limit / delay / jitter / retry
// / proxy-rotation layer that sits between a worker and a Fetcher.
package politeness

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/arrester/endabyss/model"
)

// Fetcher is the capability set a fetch backend must implement. proxy is
// the outbound proxy URL the Gate selected for this attempt, or "" for a
// direct connection — chosen here rather than on FetchRequest because
// proxy rotation is a politeness concern, not part of the wire request.
type Fetcher interface {
	Fetch(ctx context.Context, req model.FetchRequest, proxy string) (model.FetchResult, error)
	Close() error
}

// Gate wraps a Fetcher with the politeness sequence from spec §4.4: token
// bucket, delay+jitter, dispatch, retry-on-failure, proxy round-robin. The
// limiter is shared across every worker that holds a reference to the same
// Gate — inject one Gate per run, never construct it per worker.
type Gate struct {
	cfg        Config
	limiter    *rate.Limiter
	proxyNext  uint64
	bypassRate bool
}

// New builds a Gate. A zero or negative RateLimit bypasses the bucket
// entirely, per spec §6 ("rate_limit: 0 = disabled").
func New(cfg Config) *Gate {
	cfg = cfg.withDefaults()
	g := &Gate{cfg: cfg}
	if cfg.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	} else {
		g.bypassRate = true
	}
	return g
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Do executes one politeness-gated fetch: acquire a token, sleep, dispatch
// with retry, rotating proxies per attempt.
func (g *Gate) Do(ctx context.Context, f Fetcher, req model.FetchRequest) (model.FetchResult, error) {
	if !g.bypassRate {
		if err := g.limiter.Wait(ctx); err != nil {
			return model.FetchResult{}, ErrAborted
		}
	}

	if err := g.sleep(ctx); err != nil {
		return model.FetchResult{}, ErrAborted
	}

	return g.dispatchWithRetry(ctx, f, req)
}

func (g *Gate) sleep(ctx context.Context) error {
	wait := g.cfg.Delay
	if g.cfg.RandomDelayRange > 0 {
		jitter := time.Duration(rand.Int63n(int64(g.cfg.RandomDelayRange)))
		if jitter > wait {
			wait = jitter
		}
	}
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (g *Gate) dispatchWithRetry(ctx context.Context, f Fetcher, req model.FetchRequest) (model.FetchResult, error) {
	delay := g.cfg.RetryBaseDelay
	var lastErr error
	var lastResult model.FetchResult

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return model.FetchResult{}, ErrAborted
		default:
		}

		proxy := g.nextProxy()
		result, err := f.Fetch(ctx, req, proxy)
		if err == nil && result.Status > 0 && result.Status < 500 {
			return result, nil
		}

		lastErr = err
		lastResult = result

		// 4xx is not retried — it's a real answer, not a failure.
		if err == nil && result.Status >= 400 && result.Status < 500 {
			return result, nil
		}

		if attempt == g.cfg.MaxRetries {
			break
		}

		wait := jitterFull(delay)
		select {
		case <-ctx.Done():
			return model.FetchResult{}, ErrAborted
		case <-time.After(wait):
		}
		delay = time.Duration(float64(delay) * g.cfg.RetryFactor)
	}

	// Exhausted every attempt: a transport error or a 5xx that never
	// recovered is a failed fetch, not a usable result, regardless of
	// whether the final attempt technically returned a response.
	if lastErr != nil {
		return model.FetchResult{}, fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
	}
	return model.FetchResult{}, fmt.Errorf("%w: status %d", ErrRetriesExhausted, lastResult.Status)
}

// jitterFull applies "full jitter": a uniform random duration in [0, d].
func jitterFull(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}

func (g *Gate) nextProxy() string {
	if len(g.cfg.Proxies) == 0 {
		return ""
	}
	idx := atomic.AddUint64(&g.proxyNext, 1) - 1
	return g.cfg.Proxies[idx%uint64(len(g.cfg.Proxies))]
}
