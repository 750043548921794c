package politeness

import "errors"

// ErrAborted is returned when a wait or dispatch is cut short by
// cancellation rather than completing normally.
var ErrAborted = errors.New("politeness: aborted by cancellation")

// ErrRetriesExhausted is returned when every retry attempt for a request
// still came back with a transport error or a 5xx — per spec §7 this is a
// failed fetch, not a result to hand to an extractor, even though the last
// attempt did receive a response.
var ErrRetriesExhausted = errors.New("politeness: retries exhausted")
