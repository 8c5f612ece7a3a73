package domain

import "errors"

var (
	// ErrValidation marks caller-input problems; surfaced synchronously,
	// never enters the delivery pipeline.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a lookup for a notification that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks a status mutation outside the allowed
	// state graph (PENDING -> SENT | FAILED). Terminal states are final.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrQueueUnavailable marks broker connectivity failure on the enqueue
	// path; callers must fail loudly instead of dropping the task.
	ErrQueueUnavailable = errors.New("delivery queue unavailable")
)
