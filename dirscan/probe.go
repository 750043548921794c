package dirscan

import (
	"context"

	"github.com/arrester/endabyss/model"
	"github.com/arrester/endabyss/politeness"
)

// Probe dispatches a single dirscan Task through the politeness Gate. A
// HEAD that comes back 405 (method not allowed) falls back to a GET before
// giving up — some servers refuse HEAD on static paths that otherwise
// exist. The returned bool reports existence per exists().
func Probe(ctx context.Context, gate *politeness.Gate, f politeness.Fetcher, task model.Task) (model.FetchResult, bool) {
	result, err := gate.Do(ctx, f, model.FetchRequest{URL: task.URL, Method: "HEAD"})
	if err != nil {
		return model.FetchResult{}, false
	}
	if result.Status == 405 {
		result, err = gate.Do(ctx, f, model.FetchRequest{URL: task.URL, Method: "GET"})
		if err != nil {
			return model.FetchResult{}, false
		}
	}
	return result, exists(result.Status)
}
