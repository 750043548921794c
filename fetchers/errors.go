package fetchers

import "errors"

// ErrBackendUnavailable is fatal when mode=dynamic and the headless
// browser cannot be launched; the static backend never returns it.
var ErrBackendUnavailable = errors.New("fetchers: backend unavailable")
