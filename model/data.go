// Package model holds the data types that cross component boundaries:
// Target, Endpoint, Form, ParameterSet, FetchRequest/FetchResult, Task and
// the final Result. Every other package depends on model; model depends on
// nothing in this module.
package model

import "time"

// Source identifies which extractor produced an Endpoint.
type Source string

const (
	SourceHTMLAnchor Source = "HTML_A"
	SourceHTMLForm   Source = "HTML_FORM"
	SourceHTMLAttr   Source = "HTML_ATTR"
	SourceInlineJS   Source = "INLINE_JS"
	SourceExternalJS Source = "EXT_JS"
	SourceJSON       Source = "JSON"
	SourceBrowserNet Source = "BROWSER_NET"
	SourceDirscan    Source = "DIRSCAN"

	// SourceSeed tags a Target's own seed URL. The spec's source enum
	// covers extractor provenance; a seed isn't extracted from anything,
	// so it needs its own tag to still be recordable as an Endpoint.
	SourceSeed Source = "SEED"
)

// ParameterSource identifies where a ParameterSet's names came from.
type ParameterSource string

const (
	ParamQuery      ParameterSource = "QUERY"
	ParamForm       ParameterSource = "FORM"
	ParamJSInferred ParameterSource = "JS_INFERRED"
)

// ScopeMode selects the scope predicate applied to discovered URLs.
type ScopeMode string

const (
	ScopeSameRegisteredDomain ScopeMode = "same-registered-domain"
	ScopeSameHost             ScopeMode = "same-host"
	ScopeExactPrefix          ScopeMode = "exact-prefix"
)

// BackendMode selects which Fetcher implementation a Target's tasks use.
type BackendMode string

const (
	BackendStatic  BackendMode = "static"
	BackendDynamic BackendMode = "dynamic"
)

// Target is an immutable seed: an origin, a path prefix and a scope
// predicate. Two seeds on the same host may carry different scope modes;
// the Frontier checks scope per-Task against the Task's own Target.
type Target struct {
	Scheme     string
	Host       string // includes port when non-default
	PathPrefix string
	ScopeMode  ScopeMode
}

// Endpoint is a (method, url) pair observed or inferred as a request target.
type Endpoint struct {
	URL         string `json:"url"`
	Method      string `json:"method"`
	Source      Source `json:"source"`
	ContentType string `json:"content_type,omitempty"`
	Status      int    `json:"status,omitempty"`
	Depth       int    `json:"depth"`
}

// Field is a single named input of a Form.
type Field struct {
	Name         string `json:"name"`
	DefaultValue string `json:"default_value,omitempty"`
	InputType    string `json:"input_type,omitempty"`
}

// Form is a harvested <form> with its action and field list.
type Form struct {
	ActionURL string  `json:"action_url"`
	Method    string  `json:"method"`
	Fields    []Field `json:"fields"`
}

// ParameterSet is a named-input map attached to an endpoint.
type ParameterSet struct {
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Parameters map[string]string `json:"parameters"`
	Source     ParameterSource   `json:"source"`
}

// FetchRequest is the input to a Fetcher.
type FetchRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// FetchResult is the output of a Fetcher. ObservedSubrequests is populated
// only by the dynamic backend.
type FetchResult struct {
	FinalURL            string
	Status              int
	Headers             map[string]string
	Body                []byte
	ContentType         string
	Elapsed             time.Duration
	Truncated           bool
	ObservedSubrequests []FetchRequest
}

// Task is one unit of crawl work sitting in the Frontier.
type Task struct {
	URL      string
	Method   string
	Depth    int
	Referrer string
	Target   *Target
	Source   Source // provenance, carried forward onto the Endpoint once fetched
	DirProbe bool   // true for C7-generated wordlist probes
}

// Key returns "METHOD URL" for the Task exactly as stored. The Frontier
// (normalize.DedupKey) and the Aggregator compute their own dedup keys and
// do not call it.
func (t Task) Key() string {
	return t.Method + " " + t.URL
}

// Stats summarises a completed (or cancelled) run.
type Stats struct {
	Fetched  int           `json:"fetched"`
	Failed   int           `json:"failed"`
	Deduped  int           `json:"deduped"`
	Elapsed  time.Duration `json:"elapsed"`
	ElapsedS float64       `json:"elapsed_seconds"`
}

// Result is the core's single output value.
type Result struct {
	Endpoints  []Endpoint     `json:"endpoints"`
	Forms      []Form         `json:"forms"`
	Parameters []ParameterSet `json:"parameters"`
	Stats      Stats          `json:"stats"`
	Cancelled  bool           `json:"cancelled"`
}

// ExtractResult is the output of a single Extractor.Extract call.
type ExtractResult struct {
	NewTasks   []Task
	Endpoints  []Endpoint
	Forms      []Form
	Parameters []ParameterSet
}
