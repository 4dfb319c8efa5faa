package stats

import "errors"

// ErrRetriesExhausted marks an aggregation attempt that lost the optimistic
// write race on every try. The session stays durable; callers may re-apply it.
var ErrRetriesExhausted = errors.New("statistics update retries exhausted")
