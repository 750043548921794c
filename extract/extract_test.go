package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrester/endabyss/extract"
	"github.com/arrester/endabyss/model"
)

func TestExtractHTMLAnchorsFormsAndInlineJS(t *testing.T) {
	body := []byte(`<html><body>
		<a href="/page?x=1">link</a>
		<form action="/login" method="post">
			<input name="user" type="text" value="">
			<input name="pass" type="password">
		</form>
		<script>fetch("/api/v1/users");</script>
	</body></html>`)

	fr := model.FetchResult{FinalURL: "https://example.com/?ref=home", ContentType: "text/html", Body: body}
	task := model.Task{URL: "https://example.com/", Method: "GET", Depth: 0}

	result, err := extract.Extract(fr, task, 3)
	require.NoError(t, err)

	var gotAnchor, gotAPI bool
	for _, e := range result.Endpoints {
		if e.URL == "https://example.com/page?x=1" && e.Source == model.SourceHTMLAnchor {
			gotAnchor = true
		}
		if e.URL == "https://example.com/api/v1/users" && e.Source == model.SourceInlineJS {
			gotAPI = true
		}
	}
	assert.True(t, gotAnchor, "expected the <a href> endpoint to be recorded")
	assert.True(t, gotAPI, "expected the fetch() call inside the inline script to be recorded")

	require.Len(t, result.Forms, 1)
	assert.Equal(t, "https://example.com/login", result.Forms[0].ActionURL)
	assert.Equal(t, "POST", result.Forms[0].Method)
	assert.Len(t, result.Forms[0].Fields, 2)

	require.NotEmpty(t, result.Parameters)
	var queryParam, formParam bool
	for _, p := range result.Parameters {
		if p.Source == model.ParamQuery {
			queryParam = true
		}
		if p.Source == model.ParamForm {
			formParam = true
		}
	}
	assert.True(t, queryParam)
	assert.True(t, formParam)
}

func TestExtractClampsNewTasksAtMaxDepth(t *testing.T) {
	body := []byte(`<a href="/next">next</a>`)
	fr := model.FetchResult{FinalURL: "https://example.com/", ContentType: "text/html", Body: body}
	task := model.Task{URL: "https://example.com/", Method: "GET", Depth: 2}

	result, err := extract.Extract(fr, task, 2)
	require.NoError(t, err)

	assert.Empty(t, result.NewTasks, "a child beyond max depth must not be enqueued")
	require.Len(t, result.Endpoints, 1, "it is still recorded as an endpoint")
	assert.Equal(t, 3, result.Endpoints[0].Depth)
}

func TestExtractJSONWalksNestedStringLeaves(t *testing.T) {
	body := []byte(`{"data": {"url": "/api/v2/orders", "id": 42}, "items": ["/api/v2/items/1"]}`)
	fr := model.FetchResult{FinalURL: "https://example.com/api", ContentType: "application/json", Body: body}
	task := model.Task{URL: "https://example.com/api", Method: "GET"}

	result, err := extract.Extract(fr, task, 3)
	require.NoError(t, err)

	var found int
	for _, e := range result.Endpoints {
		if e.Source == model.SourceJSON {
			found++
		}
	}
	assert.GreaterOrEqual(t, found, 2)
}

func TestExtractFoldsInObservedSubrequestsRegardlessOfKind(t *testing.T) {
	fr := model.FetchResult{
		FinalURL:    "https://example.com/",
		ContentType: "text/plain",
		Body:        []byte("plain text, no markup"),
		ObservedSubrequests: []model.FetchRequest{
			{URL: "https://example.com/xhr/data", Method: "GET"},
		},
	}
	task := model.Task{URL: "https://example.com/", Method: "GET"}

	result, err := extract.Extract(fr, task, 3)
	assert.ErrorIs(t, err, extract.ErrUnsupportedContentType, "plain text has no extractor but subrequests are still folded in")

	require.Len(t, result.Endpoints, 1)
	assert.Equal(t, model.SourceBrowserNet, result.Endpoints[0].Source)
	assert.Equal(t, "https://example.com/xhr/data", result.Endpoints[0].URL)
}
