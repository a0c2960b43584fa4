package relay

import (
	"errors"
	"fmt"
)

// ErrQueueClosed unblocks a queue user whose counterpart has gone away.
// Pipelines consume it internally; it is never returned to callers.
var ErrQueueClosed = errors.New("queue is closed")

// IOError is a read or write failure that ended a pipeline
type IOError struct {
	// Pipeline is the direction that failed (inbound, outbound)
	Pipeline string
	// Op is "read" or "write"
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Pipeline, e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
