// Package topology owns every node, link, and flow in a simulated network
// and is the sole resolver of the simtime.Handle references that Events
// carry, so object graphs with cycles (host<->link<->host, router<->link
// <->router) never need to exist as actual Go pointers.
package topology

import (
	"strings"

	"github.com/timothychou/netsim/internal/simtime"
)

const (
	hostPrefix  = "host:"
	routerPrefix = "router:"
	linkPrefix  = "link:"
	flowPrefix  = "flow:"
)

// HostHandle returns the Handle addressing the host named id.
func HostHandle(id string) simtime.Handle { return simtime.Handle(hostPrefix + id) }

// RouterHandle returns the Handle addressing the router named id.
func RouterHandle(id string) simtime.Handle { return simtime.Handle(routerPrefix + id) }

// LinkHandle returns the Handle addressing the link named id.
func LinkHandle(id string) simtime.Handle { return simtime.Handle(linkPrefix + id) }

// FlowHandle returns the Handle addressing the flow named id.
func FlowHandle(id string) simtime.Handle { return simtime.Handle(flowPrefix + id) }

func splitHandle(h simtime.Handle) (prefix, id string) {
	s := string(h)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", s
	}
	return s[:i+1], s[i+1:]
}
