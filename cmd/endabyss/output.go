package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/arrester/endabyss/model"
)

// writeResult dispatches on the pipe-mode flags, matching the teacher's
// outputResults/formatAsText dispatch-by-flag idiom. Exactly one pipe mode
// may be active at a time; -pipejson wins if several are set, then
// -pipeparam, -pipeendpoint, -pipeurl, falling back to a human summary.
func writeResult(w io.Writer, res model.Result, pipeJSON, pipeParam, pipeEndpoint, pipeURL bool) error {
	switch {
	case pipeJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case pipeParam:
		for _, p := range res.Parameters {
			u, err := url.Parse(p.URL)
			if err != nil {
				continue
			}
			q := u.Query()
			for name := range p.Parameters {
				q.Set(name, "")
			}
			u.RawQuery = q.Encode()
			fmt.Fprintln(w, u.String())
		}
		return nil
	case pipeEndpoint:
		for _, e := range res.Endpoints {
			fmt.Fprintf(w, "%s %s\n", e.Method, e.URL)
		}
		return nil
	case pipeURL:
		for _, e := range res.Endpoints {
			fmt.Fprintln(w, e.URL)
		}
		return nil
	default:
		return writeHuman(w, res)
	}
}

func writeHuman(w io.Writer, res model.Result) error {
	fmt.Fprintf(w, "endpoints: %d  forms: %d  parameters: %d\n", len(res.Endpoints), len(res.Forms), len(res.Parameters))
	fmt.Fprintf(w, "fetched: %d  failed: %d  deduped: %d  elapsed: %.2fs\n",
		res.Stats.Fetched, res.Stats.Failed, res.Stats.Deduped, res.Stats.ElapsedS)
	if res.Cancelled {
		fmt.Fprintln(w, "run was cancelled before completion; result is partial")
	}
	for _, e := range res.Endpoints {
		fmt.Fprintf(w, "  [%d] %-6s %s (%s, status %d)\n", e.Depth, e.Method, e.URL, e.Source, e.Status)
	}
	return nil
}
