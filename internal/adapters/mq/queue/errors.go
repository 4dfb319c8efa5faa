package queue

import "errors"

// ErrFull marks an enqueue rejected by a full or closed queue. Callers
// surface it as backpressure.
var ErrFull = errors.New("queue full")
