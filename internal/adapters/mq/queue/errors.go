package queue

import "errors"

// ErrClosed is returned when closing an already closed queue.
var ErrClosed = errors.New("queue closed")
