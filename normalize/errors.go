package normalize

import "errors"

// ErrUnparseable is returned when a URL cannot be canonicalised at all;
// callers must not enqueue it.
var ErrUnparseable = errors.New("normalize: unparseable url")
