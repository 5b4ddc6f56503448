package flow

import (
	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/stats"
)

// SimpleSender is a fixed-window sender with no congestion control: it
// keeps exactly window packets in flight and advances on every cumulative
// ack, regardless of loss or delay. Used for SuperSimpleFlow (window 1)
// and SuperSimpleFlow2 (window 2), the descriptor's debug flow types for
// exercising topology and routing without Reno/FAST noise.
type SimpleSender struct {
	flowID, sourceID, destID string
	startTime                float64
	finalPacketIndex         int
	window                   int

	lastAck  int
	nextSend int
	done     bool

	sink stats.Sink
}

// NewSimpleSender creates a fixed-window sender.
func NewSimpleSender(flowID, sourceID, destID string, startTime float64, byteBudget, window int, sink stats.Sink) *SimpleSender {
	return &SimpleSender{
		flowID:           flowID,
		sourceID:         sourceID,
		destID:           destID,
		startTime:        startTime,
		finalPacketIndex: finalIndex(byteBudget),
		window:           window,
		sink:             sink,
	}
}

func (s *SimpleSender) FlowID() string     { return s.flowID }
func (s *SimpleSender) SourceID() string   { return s.sourceID }
func (s *SimpleSender) DestID() string     { return s.destID }
func (s *SimpleSender) StartTime() float64 { return s.startTime }
func (s *SimpleSender) Done() bool         { return s.done }

// ReceiveAck implements Sender: every ack simply advances the window.
func (s *SimpleSender) ReceiveAck(t float64, ack packet.Packet) []packet.Packet {
	if ack.Index > s.lastAck {
		s.lastAck = ack.Index
		s.nextSend = maxI(s.nextSend, s.lastAck)
		if s.finalPacketIndex >= 0 && s.lastAck == s.finalPacketIndex {
			s.done = true
		}
	}
	return s.sendPackets(t)
}

// OnTimerTick implements Sender. SimpleSender has no RTO backoff: every
// tick sends whatever not-yet-sent packets the fixed window allows and
// re-arms at a constant 1000 ms. Packets already sent are never resent.
func (s *SimpleSender) OnTimerTick(t float64) ([]packet.Packet, float64) {
	return s.sendPackets(t), 1000
}

func (s *SimpleSender) sendPackets(t float64) []packet.Packet {
	upper := s.lastAck + s.window
	if s.finalPacketIndex >= 0 && upper > s.finalPacketIndex {
		upper = s.finalPacketIndex
	}
	var out []packet.Packet
	for i := s.nextSend; i < upper; i++ {
		sample(s.sink, stats.BytesSent, s.flowID, t, packet.DataSize)
		out = append(out, packet.NewData(s.sourceID, s.destID, s.flowID, i))
	}
	s.nextSend = maxI(s.nextSend, upper)
	return out
}
