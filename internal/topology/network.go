package topology

import (
	"fmt"

	"github.com/timothychou/netsim/internal/flow"
	"github.com/timothychou/netsim/internal/packet"
	"github.com/timothychou/netsim/internal/simtime"
)

// dispatchTarget is implemented by every node kind the Network can resolve
// a Handle to and hand an Event off to.
type dispatchTarget interface {
	HandleEvent(ev simtime.Event, net *Network) ([]simtime.Event, error)
}

// Network is the sole owner of every host, router, link, and flow in a
// simulated topology. It is the only thing that ever holds a real Go
// pointer to one of these objects; everything else — including Events —
// refers to them by the string Handles resolved here. This is what lets a
// host<->link<->host or router<->link<->router topology exist without
// modelling an actual reference cycle.
type Network struct {
	hosts   map[string]*Host
	routers map[string]*Router
	links   map[string]*Link
	flows   map[string]flow.Sender

	loop *simtime.Loop
}

// NewNetwork creates an empty arena.
func NewNetwork() *Network {
	return &Network{
		hosts:   make(map[string]*Host),
		routers: make(map[string]*Router),
		links:   make(map[string]*Link),
		flows:   make(map[string]flow.Sender),
	}
}

// BindLoop attaches the EventLoop this network stamps new Events through.
// Must be called once before Bootstrap or Dispatch.
func (n *Network) BindLoop(loop *simtime.Loop) { n.loop = loop }

// AddHost registers h.
func (n *Network) AddHost(h *Host) { n.hosts[h.ID()] = h }

// AddRouter registers r.
func (n *Network) AddRouter(r *Router) { n.routers[r.ID()] = r }

// AddLink registers l and attaches its handle to both endpoint nodes.
func (n *Network) AddLink(l *Link) error {
	n.links[l.ID()] = l
	a, b := l.Sides()
	for _, side := range []simtime.Handle{a, b} {
		if err := n.attach(side, l.Handle()); err != nil {
			return err
		}
	}
	return nil
}

func (n *Network) attach(node, link simtime.Handle) error {
	prefix, id := splitHandle(node)
	switch prefix {
	case hostPrefix:
		h, ok := n.hosts[id]
		if !ok {
			return fmt.Errorf("link endpoint %q: unknown host", node)
		}
		h.AttachLink(link)
	case routerPrefix:
		r, ok := n.routers[id]
		if !ok {
			return fmt.Errorf("link endpoint %q: unknown router", node)
		}
		r.AttachLink(link)
	default:
		return fmt.Errorf("link endpoint %q: not a host or router handle", node)
	}
	return nil
}

// AddFlow registers a sender/receiver pair: the sender on its source host,
// the receiver on its destination host.
func (n *Network) AddFlow(sender flow.Sender, receiver *flow.Receiver) error {
	src, ok := n.hosts[sender.SourceID()]
	if !ok {
		return fmt.Errorf("flow %s: unknown source host %q", sender.FlowID(), sender.SourceID())
	}
	dst, ok := n.hosts[sender.DestID()]
	if !ok {
		return fmt.Errorf("flow %s: unknown dest host %q", sender.FlowID(), sender.DestID())
	}
	n.flows[sender.FlowID()] = sender
	src.AddSender(sender)
	dst.AddReceiver(receiver, sender.FlowID())
	return nil
}

// SeedStaticRoute installs a route on a static router, looking up the
// named link by id. Used by the config loader to populate the explicit
// routes a static_routing router's descriptor entry carries, since a
// static router never learns anything from the RoutingRequest/Reply
// protocol.
func (n *Network) SeedStaticRoute(routerID, destID, viaLinkID string, distance float64) error {
	r, ok := n.routers[routerID]
	if !ok {
		return fmt.Errorf("static route: unknown router %q", routerID)
	}
	if _, ok := n.links[viaLinkID]; !ok {
		return fmt.Errorf("static route: unknown link %q", viaLinkID)
	}
	r.SeedRoute(destID, LinkHandle(viaLinkID), distance)
	return nil
}

// Bootstrap returns the initial events that start the simulation: the
// first FlowUpdate for every sender, the first WindowUpdate for every FAST
// sender, and the first RoutingUpdate for every dynamic router.
func (n *Network) Bootstrap() []simtime.Event {
	var events []simtime.Event
	for _, s := range n.flows {
		events = append(events, n.loop.NewEvent(s.StartTime(), HostHandle(s.SourceID()), simtime.FlowUpdate, s.FlowID()))
		if fs, ok := s.(*flow.FastSender); ok {
			events = append(events, fs.InitialWindowUpdate(s.StartTime()))
		}
	}
	for _, r := range n.routers {
		if r.Dynamic() {
			events = append(events, n.loop.NewEvent(r.InitTime(), r.Handle(), simtime.RoutingUpdate, nil))
		}
	}
	return events
}

// AllFlowsDone reports whether every registered flow has finished.
func (n *Network) AllFlowsDone() bool {
	for _, s := range n.flows {
		if !s.Done() {
			return false
		}
	}
	return true
}

// NewEvent implements flow.EventFactory so a FastSender can self-schedule
// WindowUpdate events without depending on the topology package.
func (n *Network) NewEvent(t float64, target simtime.Handle, kind simtime.Kind, payload any) simtime.Event {
	return n.loop.NewEvent(t, target, kind, payload)
}

func (n *Network) link(h simtime.Handle) *Link {
	_, id := splitHandle(h)
	return n.links[id]
}

func (n *Network) submitOn(_ float64, linkHandle, senderSide simtime.Handle, pkt packet.Packet) []simtime.Event {
	l := n.link(linkHandle)
	if l == nil {
		return nil
	}
	return l.Submit(n.loop, senderSide, pkt)
}

// Dispatch implements simtime.Dispatcher.
func (n *Network) Dispatch(ev simtime.Event) ([]simtime.Event, error) {
	prefix, id := splitHandle(ev.Target)
	switch prefix {
	case hostPrefix:
		h, ok := n.hosts[id]
		if !ok {
			return nil, fmt.Errorf("dispatch: unknown host %q", id)
		}
		return h.HandleEvent(ev, n)

	case routerPrefix:
		r, ok := n.routers[id]
		if !ok {
			return nil, fmt.Errorf("dispatch: unknown router %q", id)
		}
		return r.HandleEvent(ev, n)

	case linkPrefix:
		l, ok := n.links[id]
		if !ok {
			return nil, fmt.Errorf("dispatch: unknown link %q", id)
		}
		return l.Tick(n.loop), nil

	case flowPrefix:
		s, ok := n.flows[id]
		if !ok {
			return nil, fmt.Errorf("dispatch: unknown flow %q", id)
		}
		fs, ok := s.(*flow.FastSender)
		if !ok {
			return nil, fmt.Errorf("dispatch: flow %q received %s but is not FAST", id, ev.Kind)
		}
		return fs.HandleWindowUpdate(ev.Time), nil

	default:
		return nil, fmt.Errorf("dispatch: unresolvable handle %q", ev.Target)
	}
}

var _ dispatchTarget = (*Host)(nil)
var _ dispatchTarget = (*Router)(nil)
var _ simtime.Dispatcher = (*Network)(nil)
var _ flow.EventFactory = (*Network)(nil)
