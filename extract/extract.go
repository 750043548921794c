package extract

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/arrester/endabyss/model"
)

// Extract is the single entry point for C2. It selects an extractor by
// content type (falling back to sniffing), assembles new Tasks (clamped at
// maxDepth), Endpoints, Forms and ParameterSets, and folds in any
// browser-observed subrequests regardless of the primary content kind.
// It returns ErrUnsupportedContentType when no extractor matched a
// non-empty body, or a parse error when a non-empty JSON body does not
// decode — the caller logs this as a warning and proceeds with whatever
// was still gathered (query parameters, browser subrequests).
func Extract(fr model.FetchResult, task model.Task, maxDepth int) (model.ExtractResult, error) {
	var result model.ExtractResult
	var extractErr error

	base, _ := url.Parse(fr.FinalURL)
	if base == nil {
		base, _ = url.Parse(task.URL)
	}

	if base != nil && base.RawQuery != "" {
		if params := flattenQuery(base.Query()); len(params) > 0 {
			result.Parameters = append(result.Parameters, model.ParameterSet{
				URL:        stripQuery(base),
				Method:     method(task.Method),
				Parameters: params,
				Source:     model.ParamQuery,
			})
		}
	}

	switch detectKind(fr.ContentType, fr.Body) {
	case kindHTML:
		extractHTMLInto(&result, fr, task, maxDepth, base)
	case kindJS:
		extractJSInto(&result, fr, task, maxDepth, base, model.SourceExternalJS)
	case kindJSON:
		if err := extractJSONInto(&result, fr, task, maxDepth, base); err != nil && len(fr.Body) > 0 {
			extractErr = err
		}
	default:
		if len(fr.Body) > 0 {
			extractErr = ErrUnsupportedContentType
		}
	}

	for _, sub := range fr.ObservedSubrequests {
		m := method(sub.Method)
		childDepth := task.Depth + 1
		result.Endpoints = append(result.Endpoints, model.Endpoint{
			URL: sub.URL, Method: m, Source: model.SourceBrowserNet, Depth: childDepth,
		})
		if childDepth <= maxDepth {
			result.NewTasks = append(result.NewTasks, model.Task{
				URL: sub.URL, Method: m, Depth: childDepth, Referrer: task.URL, Target: task.Target,
				Source: model.SourceBrowserNet,
			})
		}
	}

	return result, extractErr
}

type contentKind int

const (
	kindOther contentKind = iota
	kindHTML
	kindJS
	kindJSON
)

func detectKind(contentType string, body []byte) contentKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return kindHTML
	case strings.Contains(ct, "javascript") || strings.Contains(ct, "ecmascript"):
		return kindJS
	case strings.Contains(ct, "json"):
		return kindJSON
	}

	sniffLen := len(body)
	if sniffLen > 512 {
		sniffLen = 512
	}
	sniffed := strings.ToLower(http.DetectContentType(body[:sniffLen]))
	trimmed := strings.TrimSpace(string(body[:sniffLen]))
	switch {
	case strings.Contains(sniffed, "html"):
		return kindHTML
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return kindJSON
	}
	return kindOther
}

func extractHTMLInto(result *model.ExtractResult, fr model.FetchResult, task model.Task, maxDepth int, base *url.URL) {
	finding, err := parseHTML(fr.Body, base)
	if err != nil {
		return
	}

	for _, u := range finding.anchors {
		addFound(result, u, model.SourceHTMLAnchor, task, maxDepth, "GET")
	}
	for _, u := range finding.attrs {
		addFound(result, u, model.SourceHTMLAttr, task, maxDepth, "GET")
	}
	for _, f := range finding.forms {
		addFound(result, f.ActionURL, model.SourceHTMLForm, task, maxDepth, f.Method)
	}
	result.Forms = append(result.Forms, finding.forms...)
	result.Parameters = append(result.Parameters, finding.formParams...)

	for _, script := range finding.inlineScripts {
		js := scanJS(script, base)
		for _, u := range js.urls {
			addFound(result, u, model.SourceInlineJS, task, maxDepth, "GET")
		}
		if len(js.params) > 0 && base != nil {
			result.Parameters = append(result.Parameters, model.ParameterSet{
				URL: stripQuery(base), Method: method(task.Method),
				Parameters: toParamMap(js.params), Source: model.ParamJSInferred,
			})
		}
	}
}

func extractJSInto(result *model.ExtractResult, fr model.FetchResult, task model.Task, maxDepth int, base *url.URL, source model.Source) {
	js := scanJS(string(fr.Body), base)
	for _, u := range js.urls {
		addFound(result, u, source, task, maxDepth, "GET")
	}
	if len(js.params) > 0 && base != nil {
		result.Parameters = append(result.Parameters, model.ParameterSet{
			URL: stripQuery(base), Method: method(task.Method),
			Parameters: toParamMap(js.params), Source: model.ParamJSInferred,
		})
	}
}

func extractJSONInto(result *model.ExtractResult, fr model.FetchResult, task model.Task, maxDepth int, base *url.URL) error {
	jf, err := scanJSON(fr.Body, base)
	if err != nil {
		return fmt.Errorf("extract: parse json: %w", err)
	}
	for _, u := range jf.urls {
		addFound(result, u, model.SourceJSON, task, maxDepth, "GET")
	}
	if len(jf.params) > 0 && base != nil {
		result.Parameters = append(result.Parameters, model.ParameterSet{
			URL: stripQuery(base), Method: method(task.Method),
			Parameters: toParamMap(jf.params), Source: model.ParamJSInferred,
		})
	}
	return nil
}

// addFound records an Endpoint at child depth and, if that depth is still
// within maxDepth, enqueues a Task for it — beyond max_depth it is recorded
// but not crawled further, per spec.
func addFound(result *model.ExtractResult, rawURL string, source model.Source, task model.Task, maxDepth int, m string) {
	childDepth := task.Depth + 1
	result.Endpoints = append(result.Endpoints, model.Endpoint{
		URL: rawURL, Method: method(m), Source: source, Depth: childDepth,
	})
	if childDepth <= maxDepth {
		result.NewTasks = append(result.NewTasks, model.Task{
			URL: rawURL, Method: method(m), Depth: childDepth, Referrer: task.URL, Target: task.Target,
			Source: source,
		})
	}
}

func method(m string) string {
	if m == "" {
		return "GET"
	}
	return strings.ToUpper(m)
}

func stripQuery(u *url.URL) string {
	cp := *u
	cp.RawQuery = ""
	cp.Fragment = ""
	return cp.String()
}

func flattenQuery(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			out[k] = v[0]
		} else {
			out[k] = ""
		}
	}
	return out
}

func toParamMap(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = ""
	}
	return out
}
