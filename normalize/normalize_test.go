package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrester/endabyss/model"
	"github.com/arrester/endabyss/normalize"
)

func TestCanonicalize(t *testing.T) {
	n := normalize.New(nil)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases scheme and host", "HTTP://Example.COM/Path", "http://example.com/Path"},
		{"strips default http port", "http://example.com:80/a", "http://example.com/a"},
		{"strips default https port", "https://example.com:443/a", "https://example.com/a"},
		{"keeps non-default port", "https://example.com:8443/a", "https://example.com:8443/a"},
		{"drops fragment", "https://example.com/a#frag", "https://example.com/a"},
		{"collapses duplicate slashes", "https://example.com/a//b///c", "https://example.com/a/b/c"},
		{"resolves dot segments", "https://example.com/a/../b", "https://example.com/b"},
		{"empty path becomes slash", "https://example.com", "https://example.com/"},
		{"decodes unreserved percent-escapes", "https://example.com/%7Euser", "https://example.com/~user"},
		{"uppercases remaining percent-escapes", "https://example.com/%2f", "https://example.com/%2F"},
		{"strips denylisted query key", "https://example.com/a?utm_source=x&id=1", "https://example.com/a?id=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCanonicalizeRejectsUnparseable(t *testing.T) {
	n := normalize.New(nil)

	_, err := n.Canonicalize("not a url")
	assert.ErrorIs(t, err, normalize.ErrUnparseable)

	_, err = n.Canonicalize("ftp://example.com/a")
	assert.ErrorIs(t, err, normalize.ErrUnparseable)
}

func TestDedupKeyIgnoresQueryOrder(t *testing.T) {
	n := normalize.New(nil)

	k1, err := n.DedupKey("get", "https://example.com/a?b=2&a=1")
	require.NoError(t, err)
	k2, err := n.DedupKey("GET", "https://example.com/a?a=1&b=2")
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

func TestScopeCheckerSameRegisteredDomain(t *testing.T) {
	checker := normalize.NewScopeChecker(nil)
	target := &model.Target{Scheme: "https", Host: "www.example.com", ScopeMode: model.ScopeSameRegisteredDomain}

	assert.True(t, checker.InScope(target, "https://www.example.com/a"))
	assert.True(t, checker.InScope(target, "https://blog.example.com/a"))
	assert.False(t, checker.InScope(target, "https://example.org/a"))
}

func TestScopeCheckerSameHost(t *testing.T) {
	checker := normalize.NewScopeChecker(nil)
	target := &model.Target{Scheme: "https", Host: "www.example.com", ScopeMode: model.ScopeSameHost}

	assert.True(t, checker.InScope(target, "https://www.example.com/a"))
	assert.False(t, checker.InScope(target, "https://blog.example.com/a"))
}

func TestScopeCheckerExactPrefix(t *testing.T) {
	checker := normalize.NewScopeChecker(nil)
	target := &model.Target{Scheme: "https", Host: "example.com", PathPrefix: "/docs", ScopeMode: model.ScopeExactPrefix}

	assert.True(t, checker.InScope(target, "https://example.com/docs/page"))
	assert.False(t, checker.InScope(target, "https://example.com/blog/page"))
}
