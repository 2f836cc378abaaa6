package constants

import "time"

// Web server constants
const (
	// DefaultServerPort is the port the Analysis API listens on when --port is not given
	DefaultServerPort = 8080

	// DefaultServerHost is the interface the Analysis API binds to
	DefaultServerHost = "127.0.0.1"

	// RequestTimeout bounds a single HTTP request; SSE streams are excluded
	RequestTimeout = 5 * time.Minute
)
