package topology

import (
	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/stats"
)

// queuedPacket is one packet waiting in a Link's shared buffer, tagged with
// the side it arrived from so the Link knows which side to deliver it to.
type queuedPacket struct {
	pkt        packet.Packet
	senderSide simtime.Handle
}

// Arrival is the PacketArrival payload: the packet plus the link it
// travelled in on, so a router can apply split horizon and a host or
// router never needs to infer topology from packet contents.
type Arrival struct {
	Pkt packet.Packet
	Via simtime.Handle
}

// Link is a bidirectional, single shared-buffer connection between two
// nodes (hosts or routers), addressed only by the node ids at either end.
// The buffer is shared across both directions rather than split into two
// independent pools, matching the reference simulator's single cyclic
// buffer (original_source/icfire/networkobject.py): a burst in one
// direction can starve capacity from the other.
type Link struct {
	id        string
	sideA     simtime.Handle
	sideB     simtime.Handle
	rateMbps  float64
	delayMs   float64
	maxBuffer int

	used   int
	buffer []queuedPacket
	busy   bool
	freeAt float64

	sink stats.Sink
}

// NewLink creates a Link between sideA and sideB, given as the Handles of
// the nodes (hosts or routers) it connects.
func NewLink(id string, sideA, sideB simtime.Handle, rateMbps, delayMs float64, maxBufferBytes int, sink stats.Sink) *Link {
	return &Link{
		id:        id,
		sideA:     sideA,
		sideB:     sideB,
		rateMbps:  rateMbps,
		delayMs:   delayMs,
		maxBuffer: maxBufferBytes,
		sink:      sink,
	}
}

// ID returns the link's identifier.
func (l *Link) ID() string { return l.id }

// Handle returns the Handle this link is addressed by.
func (l *Link) Handle() simtime.Handle { return LinkHandle(l.id) }

// Sides returns the two node Handles this link connects.
func (l *Link) Sides() (simtime.Handle, simtime.Handle) { return l.sideA, l.sideB }

// OtherSide returns the node Handle at the opposite end of from.
func (l *Link) OtherSide(from simtime.Handle) simtime.Handle {
	if from == l.sideA {
		return l.sideB
	}
	return l.sideA
}

// serviceTime returns the milliseconds needed to serialize an n-byte packet
// at the link's rate (megabits/sec, n in bytes), taking a megabit as 2^20
// bits: n*8 bits / (rateMbps*2^20/1000 bits/ms) simplifies to the 125/16384
// constant used throughout.
func (l *Link) serviceTime(n int) float64 {
	return 125.0 / 16384.0 * float64(n) / l.rateMbps
}

// Cost reports the link's current routing distance: propagation delay plus
// the queueing delay implied by what's presently buffered. Distance-vector
// routers re-derive costs from this as buffer occupancy changes, so paths
// through a congested link look worse than an idle one of equal capacity.
func (l *Link) Cost() float64 {
	return l.delayMs + l.serviceTime(l.used)
}

// Submit offers pkt to the link from the sender side. If the combined
// buffer usage would exceed maxBuffer the packet is tail-dropped and a
// LostPackets sample is recorded; otherwise it is enqueued and, if the link
// was idle, a LinkTick is scheduled at max(now, freeAt) — the transmitter
// may still be busy serializing the packet that just vacated the buffer.
func (l *Link) Submit(loop *simtime.Loop, senderSide simtime.Handle, pkt packet.Packet) []simtime.Event {
	if l.used+pkt.Size > l.maxBuffer {
		if l.sink != nil {
			l.sink.Sample(stats.Sample{Kind: stats.LostPackets, EntityKind: stats.Link, EntityID: l.id, Time: loop.Clock(), Value: 1})
		}
		return nil
	}

	l.buffer = append(l.buffer, queuedPacket{pkt: pkt, senderSide: senderSide})
	l.used += pkt.Size
	if l.sink != nil {
		l.sink.Sample(stats.Sample{Kind: stats.BufferOccupancy, EntityKind: stats.Link, EntityID: l.id, Time: loop.Clock(), Value: float64(l.used)})
	}

	if l.busy {
		return nil
	}
	l.busy = true
	scheduled := loop.Clock()
	if l.freeAt > scheduled {
		scheduled = l.freeAt
	}
	return []simtime.Event{loop.NewEvent(scheduled, l.Handle(), simtime.LinkTick, nil)}
}

// Tick serializes the packet at the head of the buffer: it frees the
// transmitter after serviceTime and delivers the packet to the far side
// after serviceTime plus propagation delay. freeAt records when the
// transmitter becomes free again, so a Submit that arrives after the
// buffer has drained but before serialization of the last packet actually
// finishes still waits for it. Called by the Network when a LinkTick event
// resolves to this link.
func (l *Link) Tick(loop *simtime.Loop) []simtime.Event {
	if len(l.buffer) == 0 {
		l.busy = false
		return nil
	}

	head := l.buffer[0]
	l.buffer = l.buffer[1:]
	l.used -= head.pkt.Size

	t := loop.Clock()
	svc := l.serviceTime(head.pkt.Size)
	l.freeAt = t + svc
	dest := l.OtherSide(head.senderSide)

	if l.sink != nil {
		l.sink.Sample(stats.Sample{Kind: stats.BytesFlowed, EntityKind: stats.Link, EntityID: l.id, Time: t, Value: float64(head.pkt.Size)})
		l.sink.Sample(stats.Sample{Kind: stats.BufferOccupancy, EntityKind: stats.Link, EntityID: l.id, Time: t, Value: float64(l.used)})
	}

	events := []simtime.Event{
		loop.NewEvent(l.freeAt+l.delayMs, dest, simtime.PacketArrival, Arrival{Pkt: head.pkt, Via: l.Handle()}),
	}
	if len(l.buffer) > 0 {
		events = append(events, loop.NewEvent(l.freeAt, l.Handle(), simtime.LinkTick, nil))
	} else {
		l.busy = false
	}
	return events
}
