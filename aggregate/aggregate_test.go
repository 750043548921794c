package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrester/endabyss/aggregate"
	"github.com/arrester/endabyss/model"
)

func TestRecordEndpointMergesDuplicates(t *testing.T) {
	agg := aggregate.New()

	agg.RecordEndpoint(model.Endpoint{URL: "https://example.com/a", Method: "get", Source: model.SourceHTMLAnchor, Depth: 2, Status: 200})
	agg.RecordEndpoint(model.Endpoint{URL: "https://example.com/a", Method: "GET", Source: model.SourceInlineJS, Depth: 1, Status: 404})

	endpoints, _, _ := agg.Finalise()
	require.Len(t, endpoints, 1)

	e := endpoints[0]
	assert.Equal(t, 1, e.Depth, "merge should keep the minimum observed depth")
	assert.Equal(t, 404, e.Status, "merge should keep the maximum observed status")
	assert.Contains(t, string(e.Source), string(model.SourceHTMLAnchor))
	assert.Contains(t, string(e.Source), string(model.SourceInlineJS))
}

func TestRecordEndpointTreatsMethodCaseInsensitively(t *testing.T) {
	agg := aggregate.New()
	agg.RecordEndpoint(model.Endpoint{URL: "https://example.com/a", Method: "post"})
	agg.RecordEndpoint(model.Endpoint{URL: "https://example.com/a", Method: "POST"})

	endpoints, _, _ := agg.Finalise()
	assert.Len(t, endpoints, 1)
}

func TestFinaliseSortsByDepthThenURL(t *testing.T) {
	agg := aggregate.New()
	agg.RecordEndpoint(model.Endpoint{URL: "https://example.com/z", Method: "GET", Depth: 1})
	agg.RecordEndpoint(model.Endpoint{URL: "https://example.com/a", Method: "GET", Depth: 0})
	agg.RecordEndpoint(model.Endpoint{URL: "https://example.com/b", Method: "GET", Depth: 1})

	endpoints, _, _ := agg.Finalise()
	require.Len(t, endpoints, 3)
	assert.Equal(t, "https://example.com/a", endpoints[0].URL)
	assert.Equal(t, "https://example.com/b", endpoints[1].URL)
	assert.Equal(t, "https://example.com/z", endpoints[2].URL)
}

func TestRecordFormDedupesByActionMethodAndFields(t *testing.T) {
	agg := aggregate.New()
	form := model.Form{ActionURL: "https://example.com/login", Method: "post", Fields: []model.Field{{Name: "user"}, {Name: "pass"}}}
	agg.RecordForm(form)
	agg.RecordForm(model.Form{ActionURL: "https://example.com/login", Method: "POST", Fields: []model.Field{{Name: "pass"}, {Name: "user"}}})

	_, forms, _ := agg.Finalise()
	assert.Len(t, forms, 1)
}

func TestRecordParameterSetKeyedByURLMethodAndNameSet(t *testing.T) {
	agg := aggregate.New()
	agg.RecordParameterSet(model.ParameterSet{URL: "https://example.com/a", Method: "GET", Parameters: map[string]string{"id": "1"}})
	// Same (url, method, name-set) -> merges into the existing entry.
	agg.RecordParameterSet(model.ParameterSet{URL: "https://example.com/a?id=9", Method: "GET", Parameters: map[string]string{"id": ""}})
	// A different name-set on the same URL is a distinct parameter set.
	agg.RecordParameterSet(model.ParameterSet{URL: "https://example.com/a", Method: "GET", Parameters: map[string]string{"id": "2", "page": "3"}})

	_, _, params := agg.Finalise()
	require.Len(t, params, 2)

	var single, withPage *model.ParameterSet
	for i := range params {
		if _, ok := params[i].Parameters["page"]; ok {
			withPage = &params[i]
		} else {
			single = &params[i]
		}
	}
	require.NotNil(t, single)
	require.NotNil(t, withPage)
	assert.Equal(t, "1", single.Parameters["id"], "a non-empty value is not overwritten by a later empty one")
	assert.Equal(t, "3", withPage.Parameters["page"])
}

func TestCountersTrackFetchAndDedup(t *testing.T) {
	agg := aggregate.New()
	agg.RecordFetch(true)
	agg.RecordFetch(true)
	agg.RecordFetch(false)
	agg.RecordDedup()

	fetched, failed, deduped := agg.Counters()
	assert.Equal(t, 2, fetched)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, deduped)
}
