package fetchers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrester/endabyss/fetchers"
	"github.com/arrester/endabyss/model"
)

func TestStaticFetchReturnsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>hi</html>"))
	}))
	defer srv.Close()

	s := fetchers.NewStatic(fetchers.StaticConfig{})
	defer s.Close()

	result, err := s.Fetch(context.Background(), model.FetchRequest{URL: srv.URL, Method: "GET"}, "")
	require.NoError(t, err)
	assert.Equal(t, 200, result.Status)
	assert.Equal(t, "<html>hi</html>", string(result.Body))
	assert.Contains(t, result.ContentType, "text/html")
	assert.False(t, result.Truncated)
}

func TestStaticFetchTruncatesOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	s := fetchers.NewStatic(fetchers.StaticConfig{MaxBodyBytes: 10})
	defer s.Close()

	result, err := s.Fetch(context.Background(), model.FetchRequest{URL: srv.URL, Method: "GET"}, "")
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Len(t, result.Body, 10)
}

func TestStaticFetchStopsAtRedirectCap(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/b", http.StatusFound) })
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/c", http.StatusFound) })
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("final")) })
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	s := fetchers.NewStatic(fetchers.StaticConfig{MaxRedirects: 1})
	defer s.Close()

	result, err := s.Fetch(context.Background(), model.FetchRequest{URL: srv.URL + "/a", Method: "GET"}, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, result.Status, "capped redirect chain returns the last 3xx instead of erroring")
}

func TestStaticFetchSendsCustomHeaders(t *testing.T) {
	var gotUA, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
	}))
	defer srv.Close()

	s := fetchers.NewStatic(fetchers.StaticConfig{UserAgent: "test-agent"})
	defer s.Close()

	_, err := s.Fetch(context.Background(), model.FetchRequest{
		URL: srv.URL, Method: "GET", Headers: map[string]string{"X-Custom": "yes"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "yes", gotCustom)
}
