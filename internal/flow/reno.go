package flow

import (
	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/stats"
)

// RenoSender implements TCP Reno: slow start, additive-increase congestion
// avoidance, triple-dup-ack fast retransmit/fast recovery, and an RTO-driven
// timeout that drops back to a window of one packet.
type RenoSender struct {
	flowID, sourceID, destID string
	startTime                float64
	finalPacketIndex         int

	cwnd      float64
	ssthresh  float64
	srtt      float64
	rto       float64
	lastAck   int
	nextSend  int
	numLastAck int
	canum     int
	lastRepSent int

	fastRecovery bool
	expectedAck  int
	maxWnd       float64

	active      bool
	done        bool
	ignoreUntil float64
	nextTimeout float64

	inflight map[int]inflightEntry
	sink     stats.Sink
}

const (
	renoAlpha = 0.9 // srtt smoothing weight given to the old estimate
	renoBeta  = 1.5 // RTO multiplier applied to srtt
)

// NewRenoSender creates a Reno sender for a flow carrying byteBudget bytes
// (0 for an open-ended flow that never reports Done).
func NewRenoSender(flowID, sourceID, destID string, startTime float64, byteBudget int, sink stats.Sink) *RenoSender {
	return &RenoSender{
		flowID:           flowID,
		sourceID:         sourceID,
		destID:           destID,
		startTime:        startTime,
		finalPacketIndex: finalIndex(byteBudget),
		cwnd:             1,
		ssthresh:         1000,
		srtt:             3000,
		rto:              60000,
		lastRepSent:      -1,
		ignoreUntil:      -1,
		inflight:         make(map[int]inflightEntry),
		sink:             sink,
	}
}

func (r *RenoSender) FlowID() string     { return r.flowID }
func (r *RenoSender) SourceID() string   { return r.sourceID }
func (r *RenoSender) DestID() string     { return r.destID }
func (r *RenoSender) StartTime() float64 { return r.startTime }
func (r *RenoSender) Done() bool         { return r.done }

// ReceiveAck implements Sender.
func (r *RenoSender) ReceiveAck(t float64, ack packet.Packet) []packet.Packet {
	r.active = true
	var toSend []packet.Packet

	switch {
	case ack.Index == r.lastAck && t > r.ignoreUntil:
		r.numLastAck++
		switch {
		case r.numLastAck == 4:
			r.ssthresh = maxF(r.cwnd/2, 2)
			toSend = append(toSend, r.retransmit(t, r.lastAck)...)
			r.cwnd = r.ssthresh + 3
			r.canum = 0
			r.fastRecovery = true
			r.expectedAck = r.nextSend
			r.maxWnd = r.cwnd * 2
			r.lastRepSent = maxI(r.lastRepSent, r.nextSend)
		case r.fastRecovery && float64(r.numLastAck) > r.maxWnd:
			r.timeout(t)
		case r.numLastAck > 4:
			r.cwnd++
			r.canum = 0
		}

	case ack.Index > r.lastAck:
		if prev, ok := r.inflight[ack.Index-1]; ok && ack.Index-1 > r.lastRepSent && !prev.repeated {
			rtt := t - prev.sendTime
			r.srtt = renoAlpha*r.srtt + (1-renoAlpha)*rtt
			sample(r.sink, stats.RTTSample, r.flowID, t, rtt)
		}
		for i := r.lastAck; i < ack.Index; i++ {
			delete(r.inflight, i)
		}
		r.lastAck = ack.Index
		r.nextSend = maxI(r.nextSend, r.lastAck)
		r.numLastAck = 1
		if r.finalPacketIndex >= 0 && r.lastAck == r.finalPacketIndex {
			r.done = true
		}

		if r.fastRecovery {
			if ack.Index >= r.expectedAck {
				r.cwnd = r.ssthresh
				r.canum = 0
				r.fastRecovery = false
			} else {
				r.ignoreUntil = t + 1000
				r.timeout(t)
			}
		} else if r.cwnd < r.ssthresh {
			r.cwnd++
		} else {
			r.canum++
			if float64(r.canum) >= r.cwnd {
				r.cwnd++
				r.canum = 0
			}
		}
	}

	displayWnd := r.cwnd
	if r.fastRecovery {
		displayWnd = r.ssthresh
	}
	sample(r.sink, stats.WindowSize, r.flowID, t, displayWnd)

	toSend = append(toSend, r.sendPackets(t)...)
	return toSend
}

// OnTimerTick implements Sender.
func (r *RenoSender) OnTimerTick(t float64) ([]packet.Packet, float64) {
	if !r.active && t > r.nextTimeout {
		r.timeout(t)
	}
	r.active = false
	r.rto = clamp(renoBeta*r.srtt, 1000, 60000)
	return r.sendPackets(t), r.rto
}

func (r *RenoSender) timeout(t float64) {
	if r.done || t <= r.nextTimeout {
		return
	}
	r.cwnd = 1
	r.canum = 0
	r.fastRecovery = false
	r.lastRepSent = maxI(r.lastRepSent, r.nextSend)
	r.nextSend = r.lastAck
	r.nextTimeout = t + 2*r.srtt
}

func (r *RenoSender) retransmit(t float64, index int) []packet.Packet {
	r.inflight[index] = inflightEntry{sendTime: t, repeated: true}
	sample(r.sink, stats.BytesSent, r.flowID, t, packet.DataSize)
	return []packet.Packet{packet.NewData(r.sourceID, r.destID, r.flowID, index)}
}

func (r *RenoSender) sendPackets(t float64) []packet.Packet {
	upper := r.lastAck + int(r.cwnd)
	if r.finalPacketIndex >= 0 && upper > r.finalPacketIndex {
		upper = r.finalPacketIndex
	}
	var out []packet.Packet
	for i := r.nextSend; i < upper; i++ {
		_, seen := r.inflight[i]
		r.inflight[i] = inflightEntry{sendTime: t, repeated: seen}
		sample(r.sink, stats.BytesSent, r.flowID, t, packet.DataSize)
		out = append(out, packet.NewData(r.sourceID, r.destID, r.flowID, i))
	}
	r.nextSend = maxI(r.nextSend, upper)
	return out
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
