package topology

import (
	"fmt"

	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/stats"
)

// RoutingUpdatePeriod is the fixed interval between a dynamic router's
// self-scheduled RoutingUpdate events.
const RoutingUpdatePeriod = 5000.0

// routingRequestStagger is the per-link delay added to the RoutingRequest
// a router emits on its i-th link during one RoutingUpdate, so the
// resulting wire events land at deterministic, distinct timestamps instead
// of competing solely on creation order.
const routingRequestStagger = 10.0

// Router forwards packets addressed to a destination it doesn't own,
// maintaining a distance-vector routing table built by periodically
// exchanging RoutingRequest/RoutingReply packets with its neighbors.
// Split horizon is always applied: a destination a neighbor reports
// reaching via the very link it told us over is never adopted through
// that link.
type Router struct {
	id    string
	links []simtime.Handle

	// linkTables holds, per attached link, the neighbor-advertised cost to
	// each destination last learned over that link. Rebuilt from scratch
	// on every RoutingReply, which is what lets a stale route disappear
	// instead of lingering.
	linkTables map[simtime.Handle]map[string]float64

	// routingTable is recomputed from linkTables after every update: for
	// each destination, the link giving the minimum distance.
	routingTable map[string]packet.Route

	dynamic  bool
	initTime float64

	sink stats.Sink
}

// NewRouter creates a Router. dynamic selects whether it schedules
// periodic RoutingUpdate self-events starting at initTime; a static
// router never advertises or recomputes and relies entirely on routes
// seeded into it at build time.
func NewRouter(id string, dynamic bool, initTime float64, sink stats.Sink) *Router {
	return &Router{
		id:           id,
		linkTables:   make(map[simtime.Handle]map[string]float64),
		routingTable: make(map[string]packet.Route),
		dynamic:      dynamic,
		initTime:     initTime,
		sink:         sink,
	}
}

// ID returns the router's identifier.
func (r *Router) ID() string { return r.id }

// Handle returns the Handle this router is addressed by.
func (r *Router) Handle() simtime.Handle { return RouterHandle(r.id) }

// AttachLink records l as one of this router's links, in attachment order
// (the order routingRequestStagger counts against).
func (r *Router) AttachLink(l simtime.Handle) { r.links = append(r.links, l) }

// SeedRoute installs a direct route to dest via link at the given
// distance. Used by the config loader to populate a static router's table
// at build time; a dynamic router's table is instead discovered entirely
// through the RoutingRequest/RoutingReply exchange.
func (r *Router) SeedRoute(dest string, via simtime.Handle, distance float64) {
	r.routingTable[dest] = packet.Route{LinkID: string(via), Distance: distance}
}

// Dynamic reports whether this router runs the periodic update protocol.
func (r *Router) Dynamic() bool { return r.dynamic }

// InitTime returns the time of this router's first RoutingUpdate.
func (r *Router) InitTime() float64 { return r.initTime }

// HandleEvent implements the dispatch target contract for PacketArrival and
// RoutingUpdate events addressed to this router.
func (r *Router) HandleEvent(ev simtime.Event, net *Network) ([]simtime.Event, error) {
	switch ev.Kind {
	case simtime.PacketArrival:
		return r.onPacket(ev, net)
	case simtime.RoutingUpdate:
		return r.onRoutingUpdate(ev, net)
	default:
		return nil, fmt.Errorf("router %s: unexpected event kind %s", r.id, ev.Kind)
	}
}

func (r *Router) onPacket(ev simtime.Event, net *Network) ([]simtime.Event, error) {
	arr, ok := ev.Payload.(Arrival)
	if !ok {
		return nil, fmt.Errorf("router %s: PacketArrival payload is not an Arrival", r.id)
	}
	pkt := arr.Pkt

	switch pkt.Kind {
	case packet.RoutingRequest:
		reply := packet.NewRoutingReply(r.id, pkt.Source, r.snapshotTable())
		return net.submitOn(ev.Time, arr.Via, r.Handle(), reply), nil

	case packet.RoutingReply:
		r.rebuildLinkTable(arr.Via, pkt.RoutingTable)
		r.recomputeRoutingTable(net)
		return nil, nil

	case packet.Data, packet.Ack:
		return r.forward(ev.Time, net, pkt)

	default:
		return nil, fmt.Errorf("router %s: unexpected packet kind %s", r.id, pkt.Kind)
	}
}

func (r *Router) onRoutingUpdate(ev simtime.Event, net *Network) ([]simtime.Event, error) {
	var events []simtime.Event
	for i, l := range r.links {
		req := packet.NewRoutingRequest(r.id)
		for _, e := range net.submitOn(ev.Time, l, r.Handle(), req) {
			e.Time += routingRequestStagger * float64(i)
			events = append(events, e)
		}
	}
	events = append(events, net.loop.NewEvent(ev.Time+RoutingUpdatePeriod, r.Handle(), simtime.RoutingUpdate, nil))
	return events, nil
}

// snapshotTable returns the full current routing table, unfiltered: split
// horizon is applied by the receiver of a RoutingReply, not its sender.
func (r *Router) snapshotTable() map[string]packet.Route {
	out := make(map[string]packet.Route, len(r.routingTable))
	for dest, route := range r.routingTable {
		out[dest] = route
	}
	return out
}

// rebuildLinkTable replaces link's entry in linkTables from scratch using
// the neighbor's advertised table, applying split horizon: an advertised
// route whose next link is this same link is never adopted (the neighbor
// learned that destination from us).
func (r *Router) rebuildLinkTable(link simtime.Handle, advertised map[string]packet.Route) {
	fresh := make(map[string]float64, len(advertised))
	for dest, route := range advertised {
		if route.LinkID == string(link) {
			continue
		}
		fresh[dest] = route.Distance
	}
	r.linkTables[link] = fresh
}

// recomputeRoutingTable rebuilds routingTable from scratch across every
// linkTable, picking the link with the minimum distance per destination.
// Router holds no Link pointers itself (only handles), so the current
// cost of each link is resolved live through net.
func (r *Router) recomputeRoutingTable(net *Network) {
	r.routingTable = make(map[string]packet.Route)
	for link, table := range r.linkTables {
		l := net.link(link)
		if l == nil {
			continue
		}
		cost := l.Cost()
		for dest, rawDistance := range table {
			distance := rawDistance + cost
			current, known := r.routingTable[dest]
			if !known || distance < current.Distance {
				r.routingTable[dest] = packet.Route{LinkID: string(link), Distance: distance}
			}
		}
	}
}

func (r *Router) forward(t float64, net *Network, pkt packet.Packet) ([]simtime.Event, error) {
	route, ok := r.routingTable[pkt.Dest]
	if !ok {
		if r.sink != nil {
			r.sink.Sample(stats.Sample{Kind: stats.LostPackets, EntityKind: stats.Host, EntityID: r.id, Time: t, Value: 1})
		}
		return nil, nil
	}
	via := simtime.Handle(route.LinkID)
	return net.submitOn(t, via, r.Handle(), pkt), nil
}
