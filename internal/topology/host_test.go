package topology_test

import (
	"testing"

	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/topology"
)

func TestHostRejectsEventForUnknownFlow(t *testing.T) {
	t.Parallel()

	net := topology.NewNetwork()
	loop := simtime.NewLoop(net, nil)
	net.BindLoop(loop)

	h := topology.NewHost("a", nil)
	net.AddHost(h)

	_, err := net.Dispatch(simtime.Event{
		Time:    0,
		Target:  topology.HostHandle("a"),
		Kind:    simtime.FlowUpdate,
		Payload: "no-such-flow",
	})
	if err == nil {
		t.Fatalf("expected an error dispatching a FlowUpdate for an unregistered flow")
	}
}

func TestHostRejectsUnexpectedEventKind(t *testing.T) {
	t.Parallel()

	net := topology.NewNetwork()
	loop := simtime.NewLoop(net, nil)
	net.BindLoop(loop)

	h := topology.NewHost("a", nil)
	net.AddHost(h)

	_, err := net.Dispatch(simtime.Event{
		Time:   0,
		Target: topology.HostHandle("a"),
		Kind:   simtime.RoutingUpdate,
	})
	if err == nil {
		t.Fatalf("a host has no handler for RoutingUpdate and must report an error")
	}
}
