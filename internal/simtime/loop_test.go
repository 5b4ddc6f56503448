package simtime_test

import (
	"errors"
	"testing"

	"github.com/timothychou/netsim/internal/simtime"
)

// recordingDispatcher records the target of every event it is handed, in
// dispatch order, and produces no new events, letting tests assert on
// dispatch order.
type recordingDispatcher struct {
	order   []string
	horizon float64
}

func (d *recordingDispatcher) Dispatch(ev simtime.Event) ([]simtime.Event, error) {
	d.order = append(d.order, string(ev.Target))
	return nil, nil
}

func TestLoopMonotoneClock(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{}
	loop := simtime.NewLoop(d, nil)

	must(t, loop.Enqueue(
		loop.NewEvent(30, "host:c", simtime.PacketArrival, nil),
		loop.NewEvent(10, "host:a", simtime.PacketArrival, nil),
		loop.NewEvent(20, "host:b", simtime.PacketArrival, nil),
	))

	var lastClock float64 = -1
	for loop.Len() > 0 {
		if _, err := loop.Step(); err != nil {
			t.Fatalf("Step() error: %v", err)
		}
		if loop.Clock() < lastClock {
			t.Fatalf("clock regressed: %v < %v", loop.Clock(), lastClock)
		}
		lastClock = loop.Clock()
	}

	want := []string{"host:a", "host:b", "host:c"}
	if len(d.order) != len(want) {
		t.Fatalf("dispatched %d events, want %d", len(d.order), len(want))
	}
	for i, target := range want {
		if d.order[i] != target {
			t.Errorf("dispatch[%d] = %q, want %q", i, d.order[i], target)
		}
	}
}

func TestLoopDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	run := func() []string {
		d := &recordingDispatcher{}
		loop := simtime.NewLoop(d, nil)
		must(t, loop.Enqueue(
			loop.NewEvent(5, "host:first", simtime.PacketArrival, nil),
			loop.NewEvent(5, "host:second", simtime.PacketArrival, nil),
			loop.NewEvent(5, "host:third", simtime.PacketArrival, nil),
		))
		if _, err := loop.Run(0, nil); err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		return d.order
	}

	first := run()
	second := run()
	if len(first) != 3 {
		t.Fatalf("got %d events, want 3", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("identical inputs produced different order: %v vs %v", first, second)
		}
	}
}

func TestEnqueueRejectsTimeRegression(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{}
	loop := simtime.NewLoop(d, nil)
	must(t, loop.Enqueue(loop.NewEvent(100, "host:a", simtime.PacketArrival, nil)))
	if _, err := loop.Step(); err != nil {
		t.Fatalf("Step() error: %v", err)
	}

	err := loop.Enqueue(loop.NewEvent(50, "host:a", simtime.PacketArrival, nil))
	if !errors.Is(err, simtime.ErrTimeRegression) {
		t.Fatalf("Enqueue() error = %v, want %v", err, simtime.ErrTimeRegression)
	}
}

func TestStepOnEmptyQueue(t *testing.T) {
	t.Parallel()

	loop := simtime.NewLoop(&recordingDispatcher{}, nil)
	if _, err := loop.Step(); !errors.Is(err, simtime.ErrQueueEmpty) {
		t.Fatalf("Step() error = %v, want %v", err, simtime.ErrQueueEmpty)
	}
}

func TestRunRespectsMaxSteps(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{}
	loop := simtime.NewLoop(d, nil)
	for i := 0; i < 5; i++ {
		must(t, loop.Enqueue(loop.NewEvent(float64(i), "host:a", simtime.PacketArrival, nil)))
	}

	steps, err := loop.Run(2, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if steps != 2 {
		t.Fatalf("Run(2, nil) took %d steps, want 2", steps)
	}
	if loop.Len() != 3 {
		t.Fatalf("queue has %d events left, want 3", loop.Len())
	}
}

func TestBindDispatcherReplacesTarget(t *testing.T) {
	t.Parallel()

	loop := simtime.NewLoop(nil, nil)
	d := &recordingDispatcher{}
	loop.BindDispatcher(d)

	must(t, loop.Enqueue(loop.NewEvent(0, "host:a", simtime.PacketArrival, nil)))
	if _, err := loop.Step(); err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	if len(d.order) != 1 {
		t.Fatalf("bound dispatcher saw %d events, want 1", len(d.order))
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
