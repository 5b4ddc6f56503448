package topology

import (
	"fmt"

	"github.com/timothychou/netsim/internal/flow"
	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/stats"
)

// Host is a leaf node: exactly one link, zero or more outbound flows (as a
// Sender) and zero or more inbound flows (as a Receiver). It never routes —
// it only ever has one link to put a packet on.
type Host struct {
	id   string
	link simtime.Handle

	senders   map[string]flow.Sender
	receivers map[string]*flow.Receiver

	sink stats.Sink
}

// NewHost creates a Host with no flows attached yet. sink receives the
// host-level bytesSent/bytesReceived samples that aggregate every flow
// passing through it (spec.md §6.2); pass stats.Noop{} to discard them.
func NewHost(id string, sink stats.Sink) *Host {
	return &Host{
		id:        id,
		senders:   make(map[string]flow.Sender),
		receivers: make(map[string]*flow.Receiver),
		sink:      sink,
	}
}

// ID returns the host's identifier.
func (h *Host) ID() string { return h.id }

// Handle returns the Handle this host is addressed by.
func (h *Host) Handle() simtime.Handle { return HostHandle(h.id) }

// AttachLink records the single link this host sends and receives on.
func (h *Host) AttachLink(l simtime.Handle) { h.link = l }

// AddSender registers s as this host's outbound side of a flow.
func (h *Host) AddSender(s flow.Sender) { h.senders[s.FlowID()] = s }

// AddReceiver registers r as this host's inbound side of a flow.
func (h *Host) AddReceiver(r *flow.Receiver, flowID string) { h.receivers[flowID] = r }

// HandleEvent implements the dispatch target contract for PacketArrival and
// FlowUpdate events addressed to this host.
func (h *Host) HandleEvent(ev simtime.Event, net *Network) ([]simtime.Event, error) {
	switch ev.Kind {
	case simtime.PacketArrival:
		return h.onPacket(ev, net)
	case simtime.FlowUpdate:
		return h.onFlowUpdate(ev, net)
	default:
		return nil, fmt.Errorf("host %s: unexpected event kind %s", h.id, ev.Kind)
	}
}

func (h *Host) onPacket(ev simtime.Event, net *Network) ([]simtime.Event, error) {
	arr, ok := ev.Payload.(Arrival)
	if !ok {
		return nil, fmt.Errorf("host %s: PacketArrival payload is not an Arrival", h.id)
	}
	pkt := arr.Pkt

	switch pkt.Kind {
	case packet.Data:
		recv, ok := h.receivers[pkt.FlowID]
		if !ok {
			return nil, fmt.Errorf("host %s: data for unknown flow %q", h.id, pkt.FlowID)
		}
		ack := recv.OnData(ev.Time, pkt)
		h.sample(stats.BytesReceived, ev.Time, float64(pkt.Size))
		return h.transmit(net, ev.Time, ack), nil

	case packet.Ack:
		sender, ok := h.senders[pkt.FlowID]
		if !ok {
			return nil, fmt.Errorf("host %s: ack for unknown flow %q", h.id, pkt.FlowID)
		}
		toSend := sender.ReceiveAck(ev.Time, pkt)
		return h.transmitAll(net, ev.Time, toSend), nil

	case packet.RoutingRequest:
		reply := packet.NewRoutingReply(h.id, pkt.Source, map[string]packet.Route{
			h.id: {LinkID: "", Distance: 0},
		})
		return h.transmit(net, ev.Time, reply), nil

	default:
		return nil, fmt.Errorf("host %s: unexpected packet kind %s", h.id, pkt.Kind)
	}
}

func (h *Host) onFlowUpdate(ev simtime.Event, net *Network) ([]simtime.Event, error) {
	flowID, ok := ev.Payload.(string)
	if !ok {
		return nil, fmt.Errorf("host %s: FlowUpdate payload is not a flow id", h.id)
	}
	sender, ok := h.senders[flowID]
	if !ok {
		return nil, fmt.Errorf("host %s: FlowUpdate for unknown flow %q", h.id, flowID)
	}

	toSend, rto := sender.OnTimerTick(ev.Time)
	events := h.transmitAll(net, ev.Time, toSend)
	if !sender.Done() {
		events = append(events, net.loop.NewEvent(ev.Time+rto, h.Handle(), simtime.FlowUpdate, flowID))
	}
	return events, nil
}

func (h *Host) transmit(net *Network, t float64, pkt packet.Packet) []simtime.Event {
	if pkt.Kind == packet.Data {
		h.sample(stats.BytesSent, t, float64(pkt.Size))
	}
	l := net.link(h.link)
	if l == nil {
		return nil
	}
	return l.Submit(net.loop, h.Handle(), pkt)
}

// sample records a host-level observation, reusing the Flow-entity sample
// kinds (BytesSent/BytesReceived) tagged against this host's own entity id.
func (h *Host) sample(kind stats.Kind, t, v float64) {
	if h.sink == nil {
		return
	}
	h.sink.Sample(stats.Sample{Kind: kind, EntityKind: stats.Host, EntityID: h.id, Time: t, Value: v})
}

func (h *Host) transmitAll(net *Network, t float64, pkts []packet.Packet) []simtime.Event {
	var events []simtime.Event
	for _, pkt := range pkts {
		events = append(events, h.transmit(net, t, pkt)...)
	}
	return events
}
