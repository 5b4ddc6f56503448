package flow

import (
	"math"

	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/stats"
)

// FAST TCP window-update tuning constants (spec §4.6): windowBlend weighs
// the previous continuous window estimate against the target window of
// (brtt/srtt)*cwnd + windowGain, recomputed every 2*srtt ms.
const (
	fastWindowBlend = 0.9
	fastWindowGain  = 20.0
)

// FastSender implements FAST TCP: a continuously evolving window driven by
// a self-scheduled WindowUpdate event rather than by ack arrival, using
// smoothed and baseline RTT (srtt, brtt) sampled from echoed send
// timestamps.
type FastSender struct {
	flowID, sourceID, destID string
	startTime                float64
	finalPacketIndex         int

	self   simtime.Handle
	events EventFactory

	cwnd       float64
	cwndDouble float64
	srtt       float64
	brtt       float64
	bootstrapped bool

	lastAck    int
	nextSend   int
	numLastAck int
	lastRepSent int

	fastRecovery bool
	expectedAck  int
	maxWnd       float64

	active      bool
	done        bool
	ignoreUntil float64
	nextTimeout float64
	rto         float64

	inflight map[int]inflightEntry
	sink     stats.Sink
}

// NewFastSender creates a FAST sender. self is the Handle this flow is
// addressed by in the Network arena, used to target its own WindowUpdate
// events; events stamps those events with the loop's creation sequence.
func NewFastSender(flowID, sourceID, destID string, startTime float64, byteBudget int, self simtime.Handle, events EventFactory, sink stats.Sink) *FastSender {
	return &FastSender{
		flowID:           flowID,
		sourceID:         sourceID,
		destID:           destID,
		startTime:        startTime,
		finalPacketIndex: finalIndex(byteBudget),
		self:             self,
		events:           events,
		cwnd:             1,
		cwndDouble:       1,
		srtt:             100,
		brtt:             math.Inf(1),
		rto:              60000,
		lastRepSent:      -1,
		ignoreUntil:      -1,
		inflight:         make(map[int]inflightEntry),
		sink:             sink,
	}
}

func (f *FastSender) FlowID() string     { return f.flowID }
func (f *FastSender) SourceID() string   { return f.sourceID }
func (f *FastSender) DestID() string     { return f.destID }
func (f *FastSender) StartTime() float64 { return f.startTime }
func (f *FastSender) Done() bool         { return f.done }

// ReceiveAck implements Sender.
func (f *FastSender) ReceiveAck(t float64, ack packet.Packet) []packet.Packet {
	f.active = true
	var toSend []packet.Packet

	switch {
	case ack.Index == f.lastAck && t > f.ignoreUntil:
		f.numLastAck++
		switch {
		case f.numLastAck == 4:
			toSend = append(toSend, f.retransmit(t, f.lastAck)...)
			f.fastRecovery = true
			f.expectedAck = f.nextSend
			f.maxWnd = f.cwnd * 2
			f.lastRepSent = maxI(f.lastRepSent, f.nextSend)
		case f.fastRecovery && float64(f.numLastAck) > f.maxWnd:
			f.timeout(t)
		}

	case ack.Index > f.lastAck:
		if ack.HasSendTime {
			rtt := t - ack.SendTime
			blend := math.Min(3.0/f.cwnd, 0.25)
			if !f.bootstrapped {
				f.srtt = rtt
				f.bootstrapped = true
			} else {
				f.srtt = (1-blend)*f.srtt + blend*rtt
			}
			f.brtt = math.Min(f.brtt, f.srtt)
			sample(f.sink, stats.RTTSample, f.flowID, t, rtt)
		}
		for i := f.lastAck; i < ack.Index; i++ {
			delete(f.inflight, i)
		}
		f.lastAck = ack.Index
		f.nextSend = maxI(f.nextSend, f.lastAck)
		f.numLastAck = 1
		if f.finalPacketIndex >= 0 && f.lastAck == f.finalPacketIndex {
			f.done = true
		}

		if f.fastRecovery {
			if ack.Index >= f.expectedAck {
				f.fastRecovery = false
			} else {
				f.ignoreUntil = t + 1000
				f.timeout(t)
			}
		}
	}

	sample(f.sink, stats.WindowSize, f.flowID, t, f.cwnd)
	toSend = append(toSend, f.sendPackets(t)...)
	return toSend
}

// OnTimerTick implements Sender. It schedules no WindowUpdate; the first
// one is armed separately through InitialWindowUpdate.
func (f *FastSender) OnTimerTick(t float64) ([]packet.Packet, float64) {
	if !f.active && t > f.nextTimeout {
		f.timeout(t)
	}
	f.active = false
	f.rto = clamp(fastWindowBlend*renoBeta*f.srtt, 1000, 60000)
	return f.sendPackets(t), f.rto
}

// HandleWindowUpdate recomputes the continuous window and, unless the flow
// is done, schedules the next WindowUpdate 2*srtt ms out. It is invoked by
// the topology layer when a WindowUpdate event resolves to this flow.
func (f *FastSender) HandleWindowUpdate(t float64) []simtime.Event {
	if f.bootstrapped {
		f.cwndDouble = (1-fastWindowBlend)*f.cwndDouble + fastWindowBlend*((f.brtt/f.srtt)*f.cwnd+fastWindowGain)
		f.cwnd = math.Floor(f.cwndDouble)
		if f.cwnd < 1 {
			f.cwnd = 1
		}
	}
	sample(f.sink, stats.WindowSize, f.flowID, t, f.cwnd)
	if f.done {
		return nil
	}
	return []simtime.Event{f.events.NewEvent(t+2*f.srtt, f.self, simtime.WindowUpdate, nil)}
}

// InitialWindowUpdate returns the event that arms the first WindowUpdate
// tick, scheduled by the topology layer when the flow is created.
func (f *FastSender) InitialWindowUpdate(t float64) simtime.Event {
	return f.events.NewEvent(t+2*f.srtt, f.self, simtime.WindowUpdate, nil)
}

func (f *FastSender) timeout(t float64) {
	if f.done || t <= f.nextTimeout {
		return
	}
	f.fastRecovery = false
	f.lastRepSent = maxI(f.lastRepSent, f.nextSend)
	f.nextSend = f.lastAck
	f.nextTimeout = t + 2*f.srtt
}

func (f *FastSender) retransmit(t float64, index int) []packet.Packet {
	f.inflight[index] = inflightEntry{sendTime: t, repeated: true}
	sample(f.sink, stats.BytesSent, f.flowID, t, packet.DataSize)
	return []packet.Packet{packet.NewDataWithSendTime(f.sourceID, f.destID, f.flowID, index, t)}
}

func (f *FastSender) sendPackets(t float64) []packet.Packet {
	upper := f.lastAck + int(f.cwnd)
	if f.finalPacketIndex >= 0 && upper > f.finalPacketIndex {
		upper = f.finalPacketIndex
	}
	var out []packet.Packet
	for i := f.nextSend; i < upper; i++ {
		_, seen := f.inflight[i]
		f.inflight[i] = inflightEntry{sendTime: t, repeated: seen}
		sample(f.sink, stats.BytesSent, f.flowID, t, packet.DataSize)
		out = append(out, packet.NewDataWithSendTime(f.sourceID, f.destID, f.flowID, i, t))
	}
	f.nextSend = maxI(f.nextSend, upper)
	return out
}
