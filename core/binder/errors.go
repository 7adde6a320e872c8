package binder

import "errors"

var (
	// ErrUnsupportedMediaType is returned for a Content-Type the binder does not read.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrFailedToParseJSON is returned for a malformed or oversized JSON body.
	ErrFailedToParseJSON = errors.New("failed to parse JSON request body")

	// ErrMissingContentType is returned when a body arrives without Content-Type.
	ErrMissingContentType = errors.New("missing content type")
)
