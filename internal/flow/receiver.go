package flow

import (
	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/stats"
)

// Receiver is the cumulative-ack endpoint of a flow. It tracks the
// contiguous run of Data packets received so far and echoes the sender's
// send-timestamp on every Ack so FAST TCP can sample RTT.
type Receiver struct {
	flowID   string
	received map[int]bool
	lastAck  int
	sink     stats.Sink
}

// NewReceiver creates a Receiver for flowID.
func NewReceiver(flowID string, sink stats.Sink) *Receiver {
	return &Receiver{flowID: flowID, received: make(map[int]bool), sink: sink}
}

// OnData records pkt and returns the cumulative Ack to send back.
func (r *Receiver) OnData(t float64, pkt packet.Packet) packet.Packet {
	sample(r.sink, stats.BytesReceived, r.flowID, t, float64(pkt.Size))

	if pkt.Index >= r.lastAck {
		r.received[pkt.Index] = true
	}
	for r.received[r.lastAck] {
		delete(r.received, r.lastAck)
		r.lastAck++
	}

	ack := packet.NewAck(pkt.Dest, pkt.Source, pkt.FlowID, r.lastAck)
	if pkt.HasSendTime {
		ack = ack.WithEchoedSendTime(pkt.SendTime)
	}
	return ack
}
