package extract

import (
	"encoding/json"
	"net/url"
)

// jsonFinding mirrors jsFinding but also carries parameter names inferred
// from object keys sitting beside a URL-like sibling value.
type jsonFinding struct {
	urls   []string
	params []string
}

// scanJSON parses body and walks every string leaf, applying the same
// regex set as scanJS. Object keys whose sibling value looks like a URL are
// also recorded as candidate parameter names (e.g. {"url": "...", "id": 5}
// -> "id").
func scanJSON(body []byte, base *url.URL) (jsonFinding, error) {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return jsonFinding{}, err
	}

	var out jsonFinding
	seenURL := make(map[string]bool)
	seenParam := make(map[string]bool)

	var walk func(v interface{})
	walk = func(v interface{}) {
		switch t := v.(type) {
		case map[string]interface{}:
			hasURLSibling := false
			for _, val := range t {
				if s, ok := val.(string); ok && isCandidateURL(s) {
					hasURLSibling = true
					break
				}
			}
			for key, val := range t {
				if hasURLSibling {
					if _, ok := val.(string); !ok || !isCandidateURL(val.(string)) {
						if !seenParam[key] {
							seenParam[key] = true
							out.params = append(out.params, key)
						}
					}
				}
				walk(val)
			}
		case []interface{}:
			for _, item := range t {
				walk(item)
			}
		case string:
			// Quote the leaf before scanning: the path-shaped regexes in
			// urlLikePatterns expect to see their match surrounded by quote
			// characters, which a JSON string leaf no longer has once
			// encoding/json has unescaped it.
			finding := scanJS(`"`+t+`"`, base)
			for _, u := range finding.urls {
				if !seenURL[u] {
					seenURL[u] = true
					out.urls = append(out.urls, u)
				}
			}
			for _, p := range finding.params {
				if !seenParam[p] {
					seenParam[p] = true
					out.params = append(out.params, p)
				}
			}
		}
	}

	walk(root)
	return out, nil
}
