package serve

import "errors"

var (
	// ErrNoURL is returned for an empty request URL.
	ErrNoURL = errors.New("no url provided")
	// ErrMalformedURL is returned when the request URL cannot be parsed.
	ErrMalformedURL = errors.New("url cannot be parsed")
	// ErrInvalidHeader is returned when a stored header cannot be sent on the wire.
	ErrInvalidHeader = errors.New("invalid header")
	// ErrInvalidCursor is returned when a streaming token cannot be decoded.
	ErrInvalidCursor = errors.New("invalid streaming cursor")
	// ErrStreamGone is fatal: the streamed asset or encoding disappeared
	// between the initial response and a continuation call.
	ErrStreamGone = errors.New("streamed asset not found")
)
