package aggregate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/arrester/endabyss/model"
)

// Aggregator holds three de-duplicated collections keyed by the identities
// in the data model: Endpoint by (method, url); Form by
// (method, action_url, sorted field names); ParameterSet by
// (method, url_without_query, sorted parameter names). record merges
// duplicates (union of sources, min depth, max status); finalise returns
// deterministically-sorted snapshots.
type Aggregator struct {
	mu sync.Mutex

	endpoints map[endpointKey]*model.Endpoint
	forms     map[formKey]*model.Form
	params    map[paramKey]*model.ParameterSet

	fetched int
	failed  int
	deduped int
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		endpoints: make(map[endpointKey]*model.Endpoint),
		forms:     make(map[formKey]*model.Form),
		params:    make(map[paramKey]*model.ParameterSet),
	}
}

// RecordFetch increments the fetched-or-failed counters; call once per
// dispatched request regardless of what (if anything) it yields.
func (a *Aggregator) RecordFetch(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ok {
		a.fetched++
	} else {
		a.failed++
	}
}

// RecordDedup counts a scope-rejection or dedup-hit drop.
func (a *Aggregator) RecordDedup() {
	a.mu.Lock()
	a.deduped++
	a.mu.Unlock()
}

// RecordEndpoint merges e into the endpoint collection.
func (a *Aggregator) RecordEndpoint(e model.Endpoint) {
	key := endpointKey{method: strings.ToUpper(e.Method), url: e.URL}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.endpoints[key]
	if !ok {
		cp := e
		a.endpoints[key] = &cp
		return
	}

	if e.Depth < existing.Depth {
		existing.Depth = e.Depth
	}
	if e.Status > existing.Status {
		existing.Status = e.Status
	}
	if e.ContentType != "" && existing.ContentType == "" {
		existing.ContentType = e.ContentType
	}
	existing.Source = unionSource(existing.Source, e.Source)
}

// RecordForm merges f into the form collection.
func (a *Aggregator) RecordForm(f model.Form) {
	fieldNames := make([]string, 0, len(f.Fields))
	for _, fl := range f.Fields {
		fieldNames = append(fieldNames, fl.Name)
	}
	sort.Strings(fieldNames)
	key := formKey{
		method:    strings.ToUpper(f.Method),
		actionURL: f.ActionURL,
		fields:    strings.Join(fieldNames, ","),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.forms[key]; ok {
		return
	}
	cp := f
	a.forms[key] = &cp
}

// RecordParameterSet merges p into the parameter-set collection.
func (a *Aggregator) RecordParameterSet(p model.ParameterSet) {
	names := make([]string, 0, len(p.Parameters))
	for n := range p.Parameters {
		names = append(names, n)
	}
	sort.Strings(names)

	key := paramKey{
		method:        strings.ToUpper(p.Method),
		urlNoQuery:    stripQuery(p.URL),
		parameterKeys: strings.Join(names, ","),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.params[key]
	if !ok {
		cp := p
		a.params[key] = &cp
		return
	}
	for k, v := range p.Parameters {
		if _, has := existing.Parameters[k]; !has || existing.Parameters[k] == "" {
			existing.Parameters[k] = v
		}
	}
}

// Finalise returns deterministic snapshots: endpoints sorted by (depth asc,
// url asc, method); forms by (action_url, method); parameter-sets by (url,
// method). Remaining ties are broken by the printed field list or parameter
// map.
func (a *Aggregator) Finalise() ([]model.Endpoint, []model.Form, []model.ParameterSet) {
	a.mu.Lock()
	defer a.mu.Unlock()

	endpoints := make([]model.Endpoint, 0, len(a.endpoints))
	for _, e := range a.endpoints {
		endpoints = append(endpoints, *e)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Depth != endpoints[j].Depth {
			return endpoints[i].Depth < endpoints[j].Depth
		}
		if endpoints[i].URL != endpoints[j].URL {
			return endpoints[i].URL < endpoints[j].URL
		}
		return endpoints[i].Method < endpoints[j].Method
	})

	forms := make([]model.Form, 0, len(a.forms))
	for _, f := range a.forms {
		forms = append(forms, *f)
	}
	sort.Slice(forms, func(i, j int) bool {
		if forms[i].ActionURL != forms[j].ActionURL {
			return forms[i].ActionURL < forms[j].ActionURL
		}
		if forms[i].Method != forms[j].Method {
			return forms[i].Method < forms[j].Method
		}
		return fmt.Sprint(forms[i].Fields) < fmt.Sprint(forms[j].Fields)
	})

	params := make([]model.ParameterSet, 0, len(a.params))
	for _, p := range a.params {
		params = append(params, *p)
	}
	sort.Slice(params, func(i, j int) bool {
		if params[i].URL != params[j].URL {
			return params[i].URL < params[j].URL
		}
		if params[i].Method != params[j].Method {
			return params[i].Method < params[j].Method
		}
		return fmt.Sprint(params[i].Parameters) < fmt.Sprint(params[j].Parameters)
	})

	return endpoints, forms, params
}

// Counters returns (fetched, failed, deduped) for the Stats struct.
func (a *Aggregator) Counters() (int, int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetched, a.failed, a.deduped
}

// unionSource folds a newly-observed source into the existing scalar
// Source field as a sorted, comma-joined set — the Endpoint identity stays
// (method, url), but §4.8's "union of sources" merge rule is still honoured
// textually since model.Source is just a string alias.
func unionSource(existing, add model.Source) model.Source {
	parts := strings.Split(string(existing), ",")
	for _, p := range parts {
		if p == string(add) {
			return existing
		}
	}
	parts = append(parts, string(add))
	sort.Strings(parts)
	return model.Source(strings.Join(parts, ","))
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
