package osr

import "errors"

// Common errors returned by Session operations.
var (
	// ErrClosed is returned when a closed session is used.
	ErrClosed = errors.New("osr: session is closed")

	// ErrNotCreated is returned when an operation needs the engine browser
	// and it has not been created yet.
	ErrNotCreated = errors.New("osr: browser not created")

	// ErrNotSupported is returned by operations off-screen sessions do not
	// implement.
	ErrNotSupported = errors.New("osr: operation not supported")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("osr: invalid dimensions")

	// ErrNilEngine is returned when a session is created without an engine.
	ErrNilEngine = errors.New("osr: nil engine")
)
