package crawl

import "errors"

// ErrNoTargets is returned when Run is called with an empty target list.
var ErrNoTargets = errors.New("crawl: no targets configured")
