package planner

import "errors"

// ErrValidation is returned when a query or refinement target is rejected
// before any provider is called. Handlers map it to 422.
var ErrValidation = errors.New("validation error")

// ErrTransport covers provider failures: network errors, non-success status,
// timeouts, missing credentials. Never retried automatically.
var ErrTransport = errors.New("transport error")

// ErrParse is returned when the generated text does not match the itinerary
// contract.
var ErrParse = errors.New("parse error")

// ErrBusy is returned when a refinement is already in flight for the session.
var ErrBusy = errors.New("refinement already in progress")

// ErrStale is returned when a response arrives after a newer request
// superseded it. The response is discarded.
var ErrStale = errors.New("stale response")

// IsGenerationFailure reports whether err is one of the terminal failures the
// caller should present as "generation failed, please retry".
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrParse)
}
