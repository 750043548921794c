// Package extract implements C2: pulling candidate endpoints, forms and
// parameters out of HTML, JavaScript, JSON and browser network events.
package extract

import "regexp"

const maxMatchLen = 2048

// urlLikePatterns is the LinkFinder-style regex set applied to JS (and JSON
// string leaves): absolute http(s) URLs, root-relative paths, REST-ish API
// paths, the endpoint:/baseURL:/url: config-literal idiom, and the string
// argument of fetch(, axios.*( and .open( calls. Protocol-relative
// ("//host/path") literals are matched only through those last two groups. Grounded on the teacher's ResponseAnalyzer.extractEndpoints plus
// OpenCrawler's jsextractor.go path-pattern set.
var urlLikePatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://[a-zA-Z0-9][a-zA-Z0-9.-]*(?::[0-9]+)?(?:/[^\s"'<>()\x60]*)?`),
	regexp.MustCompile(`["'](/api/v?[0-9]*/[a-zA-Z0-9/_\-{}.]+)["']`),
	regexp.MustCompile(`["'](/graphql[a-zA-Z0-9/_\-{}.]*)["']`),
	regexp.MustCompile(`["'](/rest/[a-zA-Z0-9/_\-{}.]+)["']`),
	regexp.MustCompile(`["'](/v[0-9]+/[a-zA-Z0-9/_\-{}.]+)["']`),
	regexp.MustCompile(`(?:endpoint|baseURL|url)\s*:\s*["']([^"']+)["']`),
	regexp.MustCompile(`fetch\(\s*["']([^"']+)["']`),
	regexp.MustCompile(`axios\.[a-z]+\(\s*["']([^"']+)["']`),
	regexp.MustCompile(`\.open\(\s*["'][A-Za-z]+["']\s*,\s*["']([^"']+)["']`),
	regexp.MustCompile(`["'](/[a-zA-Z0-9][a-zA-Z0-9/_\-{}.]{1,})["']`),
}

// paramLikePatterns find apparent parameter names inside JS/JSON text:
// ?foo=, &foo=, and {foo: REST-template slots.
var paramLikePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]([a-zA-Z_][a-zA-Z0-9_]*)=`),
	regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`),
	regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\s*:`),
}

var mimeLikeSuffixes = []string{
	"text/plain", "text/html", "application/json", "image/png", "image/jpeg",
	"application/octet-stream", "charset=utf-8", "application/xml",
}

var staticAssetExt = map[string]bool{
	".css": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".ico": true, ".woff": true, ".woff2": true, ".ttf": true,
	".eot": true, ".map": true, ".mp4": true, ".webp": true,
}
