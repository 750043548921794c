// Package normalize implements C1: URL canonicalisation and scope
// membership checks. Every URL that crosses a component boundary elsewhere
// in this module must have passed through Canonicalize first.
package normalize

import (
	"net"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/arrester/endabyss/model"
)

var defaultDenylist = []string{"utm_*", "fbclid", "gclid"}

// Normalizer canonicalises URLs per spec: lowercase scheme/host, strip
// default ports, normalise percent-encoding, resolve dot-segments, collapse
// duplicate slashes, drop fragments, and strip denylisted query keys.
type Normalizer struct {
	denylist []string
}

// New builds a Normalizer. A nil or empty denylist falls back to the
// default (utm_*, fbclid, gclid).
func New(denylist []string) *Normalizer {
	if len(denylist) == 0 {
		denylist = defaultDenylist
	}
	return &Normalizer{denylist: denylist}
}

// Canonicalize applies the full canonicalisation pipeline and returns the
// stored form of the URL (query parameters kept, but not sorted — sorting
// only applies to the dedup key).
func (n *Normalizer) Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", ErrUnparseable
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrUnparseable
	}
	u.Host = strings.ToLower(u.Host)
	stripDefaultPort(u)

	escaped := cleanPath(normalizePercentEncoding(u.EscapedPath()))
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return "", ErrUnparseable
	}
	u.Path, u.RawPath = decoded, escaped

	u.Fragment = ""
	u.RawFragment = ""

	var kept []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		key, _, _ := strings.Cut(pair, "=")
		if k, kerr := url.QueryUnescape(key); pair == "" || (kerr == nil && n.denied(k)) {
			continue
		}
		kept = append(kept, pair)
	}
	u.RawQuery = strings.Join(kept, "&")

	return u.String(), nil
}

// DedupKey returns the (method, url) identity used by the Frontier and
// Aggregator. Query parameters are sorted for the purpose of this key only
// — the stored/canonical URL keeps its original query order.
func (n *Normalizer) DedupKey(method, raw string) (string, error) {
	canon, err := n.Canonicalize(raw)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(canon)
	if err != nil {
		return "", ErrUnparseable
	}
	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		vals := q[k]
		sort.Strings(vals)
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strings.Join(vals, ","))
	}
	u.RawQuery = sb.String()
	return strings.ToUpper(method) + " " + u.String(), nil
}

func (n *Normalizer) denied(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range n.denylist {
		if strings.HasSuffix(pattern, "*") {
			if strings.HasPrefix(lower, strings.ToLower(strings.TrimSuffix(pattern, "*"))) {
				return true
			}
			continue
		}
		if lower == strings.ToLower(pattern) {
			return true
		}
	}
	return false
}

func stripDefaultPort(u *url.URL) {
	host := u.Host
	idx := strings.LastIndex(host, ":")
	if idx < 0 {
		return
	}
	portStr := host[idx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return
	}
	if (u.Scheme == "http" && port == 80) || (u.Scheme == "https" && port == 443) {
		u.Host = host[:idx]
	}
}

// normalizePercentEncoding decodes unreserved-character escapes and
// uppercases the hex digits of whatever escapes remain.
func normalizePercentEncoding(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			hi, lo := s[i+1], s[i+2]
			b := hexVal(hi)<<4 | hexVal(lo)
			if isUnreserved(b) {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('%')
				sb.WriteByte(upperHex(hi))
				sb.WriteByte(upperHex(lo))
			}
			i += 2
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func upperHex(c byte) byte {
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 'A'
	}
	return c
}

func isUnreserved(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') ||
		b == '-' || b == '_' || b == '.' || b == '~'
}

// cleanPath resolves ./.. segments, collapses duplicate slashes and maps an
// empty path to "/".
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		cleaned = "/"
	}
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(cleaned, "/") && cleaned != "/" {
		cleaned += "/"
	}
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}

// ScopeChecker decides whether a candidate URL is in-scope for a Target. It
// is safe for concurrent use; the PSL-unavailable warning fires at most
// once across the checker's lifetime.
type ScopeChecker struct {
	warnOnce sync.Once
	onWarn   func(string)
}

// NewScopeChecker builds a ScopeChecker. onWarn (optional) is invoked the
// first time the public-suffix lookup fails and same-host fallback kicks in.
func NewScopeChecker(onWarn func(string)) *ScopeChecker {
	if onWarn == nil {
		onWarn = func(string) {}
	}
	return &ScopeChecker{onWarn: onWarn}
}

// InScope reports whether candidate (already canonical) is in-scope for
// target, per target.ScopeMode.
func (s *ScopeChecker) InScope(target *model.Target, candidate string) bool {
	cu, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	switch target.ScopeMode {
	case model.ScopeExactPrefix:
		want := target.Scheme + "://" + target.Host + target.PathPrefix
		got := cu.Scheme + "://" + cu.Host + cu.Path
		return strings.HasPrefix(got, want)
	case model.ScopeSameHost:
		return sameHost(cu.Host, target.Host)
	default: // ScopeSameRegisteredDomain
		targetRoot, err1 := publicsuffix.EffectiveTLDPlusOne(stripPort(target.Host))
		candRoot, err2 := publicsuffix.EffectiveTLDPlusOne(stripPort(cu.Host))
		if err1 != nil || err2 != nil || net.ParseIP(stripPort(target.Host)) != nil || net.ParseIP(stripPort(cu.Host)) != nil {
			s.warnOnce.Do(func() {
				s.onWarn("public suffix lookup unavailable, falling back to same-host scope")
			})
			return sameHost(cu.Host, target.Host)
		}
		return strings.EqualFold(targetRoot, candRoot)
	}
}

func sameHost(host, targetHost string) bool {
	return strings.EqualFold(stripPort(host), stripPort(targetHost))
}

func stripPort(host string) string {
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		return host[:idx]
	}
	return host
}
