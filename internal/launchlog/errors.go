package launchlog

import "errors"

var (
	// ErrInvalidEvent is returned when an event is nil or has no page ID.
	ErrInvalidEvent = errors.New("launchlog: invalid event")

	// ErrQueueFull is returned by Async.Record when the queue is full and
	// the event was dropped.
	ErrQueueFull = errors.New("launchlog: queue full, event dropped")

	// ErrClosed is returned by Async.Record after Close.
	ErrClosed = errors.New("launchlog: recorder closed")
)
