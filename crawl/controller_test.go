package crawl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrester/endabyss/crawl"
	"github.com/arrester/endabyss/model"
)

func TestControllerCrawlsLinkedPagesWithinDepth(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/deep1">one</a>`))
	})
	mux.HandleFunc("/deep1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/deep2">two</a>`))
	})
	mux.HandleFunc("/deep2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/deep3">three</a>`))
	})
	mux.HandleFunc("/deep3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`unreachable at this depth`))
	})
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	target := seedTarget(t, srv.URL)

	cfg := crawl.Config{
		Targets:     []model.Target{target},
		Mode:        model.BackendStatic,
		Concurrency: 4,
		MaxDepth:    2,
	}
	controller := crawl.New(cfg, nil)

	result, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Cancelled)

	var sawDeep1, sawDeep2, sawDeep3 bool
	for _, e := range result.Endpoints {
		switch e.URL {
		case srv.URL + "/deep1":
			sawDeep1 = true
		case srv.URL + "/deep2":
			sawDeep2 = true
		case srv.URL + "/deep3":
			sawDeep3 = true
		}
	}
	assert.True(t, sawDeep1)
	assert.True(t, sawDeep2)
	assert.True(t, sawDeep3, "recorded even though max_depth stopped it from being fetched")
	assert.Equal(t, 3, result.Stats.Fetched, "seed, deep1 and deep2 fetched; deep3 only discovered")
}

func TestControllerRespectsScope(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="https://out-of-scope.example/page">external</a>`))
	})
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	target := seedTarget(t, srv.URL)
	target.ScopeMode = model.ScopeSameHost

	cfg := crawl.Config{
		Targets:     []model.Target{target},
		Concurrency: 2,
		MaxDepth:    3,
	}
	controller := crawl.New(cfg, nil)

	result, err := controller.Run(context.Background())
	require.NoError(t, err)

	for _, e := range result.Endpoints {
		assert.NotContains(t, e.URL, "out-of-scope.example")
	}
}

func TestControllerMarksCancelledOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("slow"))
	}))
	defer srv.Close()

	target := seedTarget(t, srv.URL)

	cfg := crawl.Config{
		Targets:     []model.Target{target},
		Concurrency: 1,
		MaxDepth:    1,
		RunTimeout:  10 * time.Millisecond,
		DrainGrace:  10 * time.Millisecond,
	}
	controller := crawl.New(cfg, nil)

	result, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
}

func seedTarget(t *testing.T, rawURL string) model.Target {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return model.Target{Scheme: u.Scheme, Host: u.Host, ScopeMode: model.ScopeSameRegisteredDomain}
}
