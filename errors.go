package skoop

import "errors"

// Exported errors for library consumers.
var (
	// ErrNoDatabase indicates New was called without a database option.
	ErrNoDatabase = errors.New("skoop: no database configured")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("skoop: client is closed")
)
