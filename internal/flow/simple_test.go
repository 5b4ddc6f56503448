package flow_test

import (
	"testing"

	"github.com/timothychou/netsim/internal/flow"
	"github.com/timothychou/netsim/internal/packet"
)

func TestSimpleSenderKeepsExactlyWindowInFlight(t *testing.T) {
	t.Parallel()

	s := flow.NewSimpleSender("f1", "h1", "h2", 0, 0, 2, nil)

	first, _ := s.OnTimerTick(0)
	if len(first) != 2 {
		t.Fatalf("window 2 sender should offer 2 packets on first tick, got %d", len(first))
	}
	for i, p := range first {
		if p.Index != i {
			t.Errorf("packet %d has index %d, want %d", i, p.Index, i)
		}
	}

	// Re-ticking without an ack must not send more: nextSend already
	// covers the window.
	again, _ := s.OnTimerTick(10)
	if len(again) != 0 {
		t.Errorf("expected no new packets before an ack frees window space, got %d", len(again))
	}

	toSend := s.ReceiveAck(20, packet.NewAck("h2", "h1", "f1", 1))
	if len(toSend) != 1 || toSend[0].Index != 2 {
		t.Errorf("ack for index 1 should release exactly packet 2, got %+v", toSend)
	}
}

func TestSimpleSenderCompletesAtFinalIndex(t *testing.T) {
	t.Parallel()

	s := flow.NewSimpleSender("f1", "h1", "h2", 0, 1024, 1, nil) // finalPacketIndex = 1

	s.OnTimerTick(0)
	s.ReceiveAck(10, packet.NewAck("h2", "h1", "f1", 1))

	if !s.Done() {
		t.Fatalf("flow should be done once its only packet is acked")
	}
}
