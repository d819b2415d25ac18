package launchlog

import (
	"context"
	"errors"
)

// Recorder persists or announces launch events.
//
// Record may fill in the event's ID and RenderedAt when they are empty.
type Recorder interface {
	Record(ctx context.Context, ev *Event) error
}

// Lister returns recorded launches, newest first.
type Lister interface {
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, *Event) error { return nil }

// multi fans out to several recorders.
type multi []Recorder

// Multi returns a Recorder that records to every non-nil recorder in order.
// All recorders are tried; their errors are joined. With no recorders it
// returns Nop.
func Multi(recorders ...Recorder) Recorder {
	var m multi
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	}
	return m
}

// Record implements Recorder.
func (m multi) Record(ctx context.Context, ev *Event) error {
	if err := ev.prepare(); err != nil {
		return err
	}

	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
