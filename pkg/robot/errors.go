package robot

import "errors"

var (
	// ErrNotConnected indicates there's no session to close.
	ErrNotConnected = errors.New("robot not connected")
	// ErrShutdownTimeout indicates the link didn't close in time.
	ErrShutdownTimeout = errors.New("shutdown timeout")
)
