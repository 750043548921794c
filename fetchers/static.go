package fetchers

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/arrester/endabyss/model"
)

// Static is the raw-HTTP fetch backend. Transport construction mirrors the
// teacher's http.Prober: a pooled client per outbound proxy, TLS
// verification toggle, and a CheckRedirect cap that returns the last 3xx
// instead of erroring once the hop limit is hit.
type Static struct {
	cfg     StaticConfig
	mu      sync.Mutex
	clients map[string]*http.Client
}

// NewStatic builds a Static backend. No network I/O happens until Fetch is
// called.
func NewStatic(cfg StaticConfig) *Static {
	return &Static{
		cfg:     cfg.withDefaults(),
		clients: make(map[string]*http.Client),
	}
}

// Fetch implements politeness.Fetcher.
func (s *Static) Fetch(ctx context.Context, req model.FetchRequest, proxy string) (model.FetchResult, error) {
	client := s.clientFor(proxy)

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return model.FetchResult{}, fmt.Errorf("fetchers: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", s.cfg.UserAgent)
	for k, v := range s.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for _, c := range s.cfg.Cookies {
		httpReq.AddCookie(c)
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		return model.FetchResult{}, fmt.Errorf("fetchers: dispatch: %w", err)
	}
	defer resp.Body.Close()

	limit := s.cfg.MaxBodyBytes
	body, _ := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	truncated := int64(len(body)) > limit
	if truncated {
		body = body[:limit]
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return model.FetchResult{
		FinalURL:    finalURL,
		Status:      resp.StatusCode,
		Headers:     flattenHeaders(resp.Header),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Elapsed:     elapsed,
		Truncated:   truncated,
	}, nil
}

// Close releases pooled idle connections for every proxy variant in use.
func (s *Static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.CloseIdleConnections()
	}
	return nil
}

func (s *Static) clientFor(proxy string) *http.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, ok := s.clients[proxy]; ok {
		return client
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !s.cfg.TLSVerify},
		DialContext: (&net.Dialer{
			Timeout:   s.cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	maxRedirects := s.cfg.MaxRedirects
	client := &http.Client{
		Transport: transport,
		Timeout:   s.cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// via holds every request made so far, so len(via)-1
			// redirects have already been followed.
			if len(via) > maxRedirects {
				// Hit the hop cap: return the last 3xx response rather
				// than an error, per spec.
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	s.clients[proxy] = client
	return client
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
