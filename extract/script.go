package extract

import (
	"net/url"
	"path"
	"strings"
)

// jsFinding is one candidate produced by scanning JS-like text.
type jsFinding struct {
	urls   []string
	params []string
}

// scanJS applies the LinkFinder-style regex set to text (a JS file, an
// inline <script> body, or a JSON string leaf) and resolves relative
// matches against base. Filters out: (i) obvious MIME strings, (ii)
// single-word tokens without '/' or '.', (iii) matches longer than 2048.
func scanJS(text string, base *url.URL) jsFinding {
	var out jsFinding
	seenURL := make(map[string]bool)
	seenParam := make(map[string]bool)

	for _, re := range urlLikePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			candidate := m[0]
			if len(m) > 1 && m[1] != "" {
				candidate = m[1]
			}
			candidate = cleanMatch(candidate)
			if !isCandidateURL(candidate) {
				continue
			}
			resolved := resolveAgainst(candidate, base)
			if resolved == "" || seenURL[resolved] {
				continue
			}
			seenURL[resolved] = true
			out.urls = append(out.urls, resolved)
		}
	}

	for _, re := range paramLikePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			name := m[1]
			if name == "" || seenParam[name] {
				continue
			}
			seenParam[name] = true
			out.params = append(out.params, name)
		}
	}

	return out
}

func cleanMatch(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, ".,;:!?'\")}]>`")
}

func isCandidateURL(s string) bool {
	if s == "" || len(s) > maxMatchLen {
		return false
	}
	lower := strings.ToLower(s)
	for _, mime := range mimeLikeSuffixes {
		if lower == mime {
			return false
		}
	}
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return false
	}
	// Single-word tokens without '/' or '.' are not URL-like.
	if !strings.ContainsAny(s, "/.") {
		return false
	}
	if isStaticAsset(s) {
		return false
	}
	return true
}

// isStaticAsset reports whether s's path extension names a static asset
// type (stylesheets, images, fonts, sourcemaps, video). These turn up
// constantly in JS/JSON string literals referencing bundled assets, not
// endpoints worth re-crawling or tracking as parameter-bearing targets.
func isStaticAsset(s string) bool {
	withoutQuery := s
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		withoutQuery = s[:i]
	}
	return staticAssetExt[strings.ToLower(path.Ext(withoutQuery))]
}

func resolveAgainst(raw string, base *url.URL) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base == nil {
		if u.IsAbs() {
			return u.String()
		}
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
