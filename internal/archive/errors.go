package archive

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a worker response whose body did not decode or
// lacked the required shape. The acquirer retries it like a transport
// failure; the error text keeps the decode detail so a poisoned worker can
// be told apart from a timeout in logs.
var ErrMalformedResponse = errors.New("malformed worker response")

// ErrUpstreamUnavailable marks a failed worker resolution against the
// archive directory. It propagates immediately and is never retried.
var ErrUpstreamUnavailable = errors.New("archive directory unavailable")

// RetriesExhaustedError is returned when a chunk kept failing past the retry
// ceiling. It carries the cursor position the acquisition stopped at; no
// partial results are returned alongside it.
type RetriesExhaustedError struct {
	FromBlock uint64
	Attempts  int
	Err       error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("giving up fetching chunk at block %d after %d attempts: %v", e.FromBlock, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}
