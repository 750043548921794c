package extract

import "errors"

// ErrUnsupportedContentType is returned (and logged as a warning by the
// caller, never propagated) when no extractor matches a FetchResult.
var ErrUnsupportedContentType = errors.New("extract: unsupported content type")
