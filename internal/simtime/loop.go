package simtime

import (
	"container/heap"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for EventLoop operation. Only truly impossible conditions
// are reported this way; ordinary network pathologies (loss, dup-acks,
// timeouts) never reach this layer.
var (
	// ErrQueueEmpty is returned by Step when there is nothing left to process.
	ErrQueueEmpty = errors.New("event queue is empty")

	// ErrTimeRegression is the fatal invariant violation raised when a
	// handler produces an event timestamped before the current clock.
	ErrTimeRegression = errors.New("event timestamp precedes current clock")
)

// Loop drains the event queue, advances the simulated clock, dispatches
// each event to whatever its Target handle resolves to, and enqueues the
// events that dispatch produces. It is the sole writer of the clock.
type Loop struct {
	seq        *SequenceAllocator
	q          queue
	clock      float64
	logger     *slog.Logger
	dispatcher Dispatcher
}

// NewLoop creates an empty Loop bound to dispatcher. If logger is nil,
// logging is a no-op.
func NewLoop(dispatcher Dispatcher, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Loop{
		seq:        NewSequenceAllocator(),
		logger:     logger,
		dispatcher: dispatcher,
	}
	heap.Init(&l.q)
	return l
}

// BindDispatcher attaches the Dispatcher events are handed to on Step. It
// exists because the dispatcher (the Network arena) and the Loop that
// drives it typically need a reference to each other: construct the Loop
// with a nil dispatcher, build the Network against it, then bind the
// Network here before the first Step.
func (l *Loop) BindDispatcher(dispatcher Dispatcher) { l.dispatcher = dispatcher }

// Clock returns the current simulated time in milliseconds.
func (l *Loop) Clock() float64 { return l.clock }

// Len reports how many events remain queued.
func (l *Loop) Len() int { return l.q.Len() }

// NewEvent stamps a fresh Event with the loop's next creation sequence
// number. Callers (bootstrap code, Handlers) must go through this rather
// than constructing Event literals directly so tie-breaking stays total.
func (l *Loop) NewEvent(t float64, target Handle, kind Kind, payload any) Event {
	return Event{
		Time:    t,
		Target:  target,
		Kind:    kind,
		Payload: payload,
		seq:     l.seq.Next(),
	}
}

// Enqueue validates and pushes events onto the queue. An event timestamped
// strictly before the current clock is a fatal invariant violation.
func (l *Loop) Enqueue(events ...Event) error {
	for _, ev := range events {
		if ev.Time < l.clock {
			return fmt.Errorf("%w: %s (clock=%.3fms)", ErrTimeRegression, ev, l.clock)
		}
		heap.Push(&l.q, ev)
	}
	return nil
}

// Step pops the minimum event, advances the clock to its timestamp,
// dispatches it, and enqueues the events the dispatch produces. Returns
// ErrQueueEmpty if there is nothing to process.
func (l *Loop) Step() (Event, error) {
	if l.q.Len() == 0 {
		return Event{}, ErrQueueEmpty
	}

	ev := heap.Pop(&l.q).(Event)
	l.clock = ev.Time

	l.logger.Debug("dispatching event",
		slog.String("kind", ev.Kind.String()),
		slog.String("target", string(ev.Target)),
		slog.Float64("time", ev.Time),
		slog.Uint64("seq", ev.seq),
	)

	newEvents, err := l.dispatcher.Dispatch(ev)
	if err != nil {
		return ev, fmt.Errorf("dispatch %s: %w", ev, err)
	}

	if err := l.Enqueue(newEvents...); err != nil {
		return ev, err
	}

	return ev, nil
}

// Run drives Step until done() reports true, the queue empties, or
// maxSteps steps have been taken (0 means unbounded). Returns the number
// of steps actually taken.
func (l *Loop) Run(maxSteps int, done func() bool) (int, error) {
	steps := 0
	for {
		if done != nil && done() {
			return steps, nil
		}
		if maxSteps > 0 && steps >= maxSteps {
			return steps, nil
		}
		if _, err := l.Step(); err != nil {
			if errors.Is(err, ErrQueueEmpty) {
				return steps, nil
			}
			return steps, err
		}
		steps++
	}
}
