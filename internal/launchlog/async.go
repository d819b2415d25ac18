package launchlog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// defaultQueueSize is the buffer size of the async queue.
	defaultQueueSize = 256

	// defaultWorkers is the number of goroutines draining the queue.
	defaultWorkers = 2

	// recordTimeout bounds a single Record call made by a worker.
	recordTimeout = 10 * time.Second
)

// Logger is the subset of logging.Logger used here.
type Logger interface {
	Warn(msg string, args ...any)
}

// Async records events on a bounded worker pool so the caller never waits
// on a sink. When the queue is full the event is dropped and counted.
type Async struct {
	next   Recorder
	logger Logger

	queue chan *Event
	wg    sync.WaitGroup

	closed bool
	mu     sync.RWMutex

	recorded atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

// AsyncStats is a snapshot of Async counters.
type AsyncStats struct {
	Recorded uint64 `json:"recorded"`
	Dropped  uint64 `json:"dropped"`
	Failed   uint64 `json:"failed"`
	Queued   int    `json:"queued"`
}

// NewAsync starts workers that pass events to next. Sink errors are logged
// through logger (which may be nil) and counted.
func NewAsync(next Recorder, logger Logger) *Async {
	a := &Async{
		next:   next,
		logger: logger,
		queue:  make(chan *Event, defaultQueueSize),
	}
	for i := 0; i < defaultWorkers; i++ {
		a.wg.Add(1)
		go a.worker()
	}
	return a
}

// Record queues ev without blocking.
func (a *Async) Record(_ context.Context, ev *Event) error {
	if err := ev.prepare(); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- ev:
		return nil
	default:
		a.dropped.Add(1)
		return fmt.Errorf("%w: %s", ErrQueueFull, ev.ID)
	}
}

func (a *Async) worker() {
	defer a.wg.Done()

	for ev := range a.queue {
		a.process(ev)
	}
}

func (a *Async) process(ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			a.failed.Add(1)
			if a.logger != nil {
				a.logger.Warn("launch recorder panic", "launch_id", ev.ID, "panic", r)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := a.next.Record(ctx, ev); err != nil {
		a.failed.Add(1)
		if a.logger != nil {
			a.logger.Warn("recording launch failed", "launch_id", ev.ID, "error", err)
		}
		return
	}
	a.recorded.Add(1)
}

// Close stops accepting events and waits for queued ones to be recorded.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
	return nil
}

// Stats returns the current counters.
func (a *Async) Stats() AsyncStats {
	return AsyncStats{
		Recorded: a.recorded.Load(),
		Dropped:  a.dropped.Load(),
		Failed:   a.failed.Load(),
		Queued:   len(a.queue),
	}
}
