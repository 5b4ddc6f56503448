package config

import (
	"fmt"

	"github.com/timothychou/netsim/internal/flow"
	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/stats"
	"github.com/timothychou/netsim/internal/topology"
)

// simpleWindow is the fixed in-flight window used by the descriptor's two
// no-congestion-control debug flow types.
const (
	simpleWindow1 = 1
	simpleWindow2 = 2
)

// Build constructs a *topology.Network from a validated Descriptor,
// wiring every host, router, link, and flow and seeding static routers'
// routing tables. sink receives every stats sample the built network
// produces; pass stats.Noop{} to discard them.
func Build(d Descriptor, loop *simtime.Loop, sink stats.Sink) (*topology.Network, error) {
	net := topology.NewNetwork()
	net.BindLoop(loop)

	for _, h := range d.Hosts {
		net.AddHost(topology.NewHost(h.ID, sink))
	}
	for _, r := range d.Routers {
		net.AddRouter(topology.NewRouter(r.ID, !r.StaticRouting, r.InitTime, sink))
	}
	for _, l := range d.Links {
		link := topology.NewLink(
			l.ID,
			endpointHandle(d, l.SourceID),
			endpointHandle(d, l.TargetID),
			l.Rate,
			l.Delay,
			int(l.Buffsize*1024),
			sink,
		)
		if err := net.AddLink(link); err != nil {
			return nil, fmt.Errorf("build link %q: %w", l.ID, err)
		}
	}
	for _, rt := range d.Routes {
		if err := net.SeedStaticRoute(rt.RouterID, rt.DestID, rt.ViaLink, rt.Distance); err != nil {
			return nil, fmt.Errorf("build static route to %q: %w", rt.DestID, err)
		}
	}
	for _, f := range d.Flows {
		sender, receiver, err := buildFlow(f, net, sink)
		if err != nil {
			return nil, fmt.Errorf("build flow %q: %w", f.Name, err)
		}
		if err := net.AddFlow(sender, receiver); err != nil {
			return nil, fmt.Errorf("wire flow %q: %w", f.Name, err)
		}
	}

	return net, nil
}

func endpointHandle(d Descriptor, id string) simtime.Handle {
	for _, r := range d.Routers {
		if r.ID == id {
			return topology.RouterHandle(id)
		}
	}
	return topology.HostHandle(id)
}

func buildFlow(f FlowDescriptor, net *topology.Network, sink stats.Sink) (flow.Sender, *flow.Receiver, error) {
	receiver := flow.NewReceiver(f.Name, sink)

	switch f.FlowType {
	case FlowSuperSimple:
		return flow.NewSimpleSender(f.Name, f.SourceID, f.DestID, f.Timestamp, f.Bytes, simpleWindow1, sink), receiver, nil
	case FlowSuperSimple2:
		return flow.NewSimpleSender(f.Name, f.SourceID, f.DestID, f.Timestamp, f.Bytes, simpleWindow2, sink), receiver, nil
	case FlowTCPReno:
		return flow.NewRenoSender(f.Name, f.SourceID, f.DestID, f.Timestamp, f.Bytes, sink), receiver, nil
	case FlowFastTCP:
		self := topology.FlowHandle(f.Name)
		return flow.NewFastSender(f.Name, f.SourceID, f.DestID, f.Timestamp, f.Bytes, self, net, sink), receiver, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFlowType, f.FlowType)
	}
}
