package politeness_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrester/endabyss/model"
	"github.com/arrester/endabyss/politeness"
)

type stubFetcher struct {
	calls     int32
	proxies   []string
	responses []model.FetchResult
	errs      []error
}

func (s *stubFetcher) Fetch(ctx context.Context, req model.FetchRequest, proxy string) (model.FetchResult, error) {
	i := atomic.AddInt32(&s.calls, 1) - 1
	s.proxies = append(s.proxies, proxy)
	if int(i) < len(s.errs) && s.errs[i] != nil {
		return model.FetchResult{}, s.errs[i]
	}
	if int(i) < len(s.responses) {
		return s.responses[i], nil
	}
	return model.FetchResult{Status: 200}, nil
}

func (s *stubFetcher) Close() error { return nil }

func TestGateReturnsOnFirstSuccess(t *testing.T) {
	gate := politeness.New(politeness.Config{})
	f := &stubFetcher{responses: []model.FetchResult{{Status: 200}}}

	result, err := gate.Do(context.Background(), f, model.FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 200, result.Status)
	assert.EqualValues(t, 1, f.calls)
}

func TestGateDoesNotRetry4xx(t *testing.T) {
	gate := politeness.New(politeness.Config{})
	f := &stubFetcher{responses: []model.FetchResult{{Status: 404}}}

	result, err := gate.Do(context.Background(), f, model.FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 404, result.Status)
	assert.EqualValues(t, 1, f.calls)
}

func TestGateRetriesOn5xxThenSucceeds(t *testing.T) {
	gate := politeness.New(politeness.Config{MaxRetries: 2, RetryBaseDelay: time.Millisecond})
	f := &stubFetcher{responses: []model.FetchResult{{Status: 503}, {Status: 503}, {Status: 200}}}

	result, err := gate.Do(context.Background(), f, model.FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 200, result.Status)
	assert.EqualValues(t, 3, f.calls)
}

func TestGateGivesUpAfterMaxRetries(t *testing.T) {
	gate := politeness.New(politeness.Config{MaxRetries: 2, RetryBaseDelay: time.Millisecond})
	f := &stubFetcher{responses: []model.FetchResult{{Status: 503}, {Status: 503}, {Status: 503}}}

	_, err := gate.Do(context.Background(), f, model.FetchRequest{URL: "https://example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, politeness.ErrRetriesExhausted)
	assert.EqualValues(t, 3, f.calls)
}

func TestGateRotatesProxies(t *testing.T) {
	gate := politeness.New(politeness.Config{
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		Proxies:        []string{"http://p1", "http://p2"},
	})
	f := &stubFetcher{responses: []model.FetchResult{{Status: 503}, {Status: 503}, {Status: 503}, {Status: 200}}}

	_, err := gate.Do(context.Background(), f, model.FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	require.Len(t, f.proxies, 4)
	assert.Equal(t, []string{"http://p1", "http://p2", "http://p1", "http://p2"}, f.proxies)
}

func TestGateAbortsOnCancellation(t *testing.T) {
	gate := politeness.New(politeness.Config{Delay: time.Hour})
	f := &stubFetcher{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gate.Do(ctx, f, model.FetchRequest{URL: "https://example.com"})
	assert.ErrorIs(t, err, politeness.ErrAborted)
}
