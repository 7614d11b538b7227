package apple

import "errors"

var (
	// ErrRequest indicates the request never produced a response
	ErrRequest = errors.New("apple store request failed")

	// ErrStatus indicates a non-200 HTTP status
	ErrStatus = errors.New("unexpected apple store response status")

	// ErrDecode indicates the body was not the expected JSON shape
	ErrDecode = errors.New("failed to decode apple store response")

	// ErrMissingPart indicates a store entry lacks a configured part number
	ErrMissingPart = errors.New("store response missing configured part")
)
