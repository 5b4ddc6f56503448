// netsim runs discrete-event packet-network simulations described by a
// JSON network descriptor: hosts, routers, links, static routes, and
// flows driven by TCP Reno, FAST TCP, or a fixed-window debug sender.
package main

import "github.com/timothychou/netsim/cmd/netsim/commands"

func main() {
	commands.Execute()
}
