// Package aggregate implements C8: merging endpoints/forms/parameter-sets
// from every fetch into three deduplicated, deterministically-ordered
// collections.
package aggregate

type endpointKey struct {
	method string
	url    string
}

type formKey struct {
	method    string
	actionURL string
	fields    string // sorted, comma-joined field names
}

type paramKey struct {
	method        string
	urlNoQuery    string
	parameterKeys string // sorted, comma-joined parameter names
}
