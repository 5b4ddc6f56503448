// Package flow implements the TCP sender state machines (Reno and FAST),
// the cumulative-ack receiver, and the shared RTO/window arithmetic they
// both lean on.
package flow

import (
	"math"

	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/stats"
)

// Sender is implemented by every congestion-control variant. A Host
// dispatches incoming Acks and periodic FlowUpdate events to the sender
// for the flow named in the event, rather than the sender being an Event
// target in its own right — the one exception is FAST TCP's periodic
// WindowUpdate self-event, which targets the flow directly (see EventFactory).
type Sender interface {
	FlowID() string
	SourceID() string
	DestID() string
	StartTime() float64
	Done() bool

	// ReceiveAck processes an inbound Ack at time t and returns the Data
	// packets it causes to be (re)transmitted.
	ReceiveAck(t float64, ack packet.Packet) []packet.Packet

	// OnTimerTick is invoked once per FlowUpdate: the first call sends the
	// flow's initial packets, later calls enforce the retransmit timeout.
	// Returns the packets to submit and the RTO to re-arm the next
	// FlowUpdate with.
	OnTimerTick(t float64) (packets []packet.Packet, rto float64)
}

// EventFactory lets a flow sender that needs to self-schedule (FAST TCP's
// WindowUpdate) stamp new Events without depending on the topology package
// that owns the EventLoop.
type EventFactory interface {
	NewEvent(t float64, target simtime.Handle, kind simtime.Kind, payload any) simtime.Event
}

// inflightEntry records when a Data packet was sent and whether that send
// was itself a retransmission (so a later ack doesn't produce a spurious
// RTT sample off a resend).
type inflightEntry struct {
	sendTime float64
	repeated bool
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// finalIndex converts a byte budget into the final packet index using
// ceiling division, so a non-multiple-of-1024 budget still requires an ack
// for its tail packet. byteBudget == 0 means a continuous flow with no
// final index; finalIndex returns -1 in that case and callers must treat
// -1 as "never done".
func finalIndex(byteBudget int) int {
	if byteBudget <= 0 {
		return -1
	}
	return int(math.Ceil(float64(byteBudget) / float64(packet.DataSize)))
}

func sample(sink stats.Sink, kind stats.Kind, flowID string, t, v float64) {
	if sink == nil {
		return
	}
	sink.Sample(stats.Sample{Kind: kind, EntityKind: stats.Flow, EntityID: flowID, Time: t, Value: v})
}
