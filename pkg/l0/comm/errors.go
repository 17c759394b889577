package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrShortFrame indicates fewer bytes than a full frame were supplied.
	ErrShortFrame = errors.New("short frame")
	// ErrNotOpen indicates the channel is not open for read/write.
	ErrNotOpen = errors.New("channel not open")
)

// FrameError reports a frame which can't be read completely from a channel.
type FrameError struct {
	Want int
	Got  int
}

// Error implements error.
func (e *FrameError) Error() string {
	return fmt.Sprintf("incomplete frame: %d of %d bytes", e.Got, e.Want)
}
