// Package packet defines the immutable wire values exchanged between
// network objects: Data, Ack, RoutingRequest, and RoutingReply.
package packet

// Kind discriminates the packet variants. Packets carry no behavior —
// dispatch on Kind happens in the receiving node.
type Kind uint8

const (
	// Data carries application bytes from sender to receiver.
	Data Kind = iota + 1

	// Ack is a cumulative acknowledgment from receiver to sender.
	Ack

	// RoutingRequest asks a neighbor for its routing table.
	RoutingRequest

	// RoutingReply carries a routing table in response to a RoutingRequest.
	RoutingReply
)

// String returns the human-readable name of the packet kind.
func (k Kind) String() string {
	switch k {
	case Data:
		return "Data"
	case Ack:
		return "Ack"
	case RoutingRequest:
		return "RoutingRequest"
	case RoutingReply:
		return "RoutingReply"
	default:
		return "Unknown"
	}
}

// Fixed packet sizes in bytes (spec §3).
const (
	DataSize           = 1024
	AckSize            = 64
	RoutingRequestSize = 64
	RoutingReplySize   = 1024
)

// Route is one entry of a distributed routing table: the next-hop link's
// handle string (e.g. "link:L1") and the distance to the destination
// through it. LinkID is the zero value "" for a host's trivial self-route.
type Route struct {
	LinkID   string
	Distance float64
}

// Packet is an immutable value exchanged between nodes. Fields not
// meaningful for a given Kind are left at their zero value (e.g. Index and
// FlowID are unused for routing packets).
type Packet struct {
	Source string
	Dest   string
	Kind   Kind
	Size   int

	// Index is the data/ack sequence number. Unused for routing packets.
	Index int

	// FlowID identifies the flow for Data/Ack packets. Unused for routing
	// packets.
	FlowID string

	// SendTime is the origin timestamp FAST TCP stamps on outgoing Data
	// packets and echoes back on the matching Ack. It is meaningful only
	// when HasSendTime is set; zero is a valid send time.
	SendTime float64
	HasSendTime bool

	// RoutingTable is attached to RoutingReply packets: destination id ->
	// route through the replying node.
	RoutingTable map[string]Route
}

// NewData constructs a Data packet of the fixed Data size.
func NewData(source, dest, flowID string, index int) Packet {
	return Packet{
		Source: source,
		Dest:   dest,
		Kind:   Data,
		Size:   DataSize,
		Index:  index,
		FlowID: flowID,
	}
}

// NewDataWithSendTime constructs a Data packet carrying a FAST TCP send
// timestamp.
func NewDataWithSendTime(source, dest, flowID string, index int, sendTime float64) Packet {
	p := NewData(source, dest, flowID, index)
	p.SendTime = sendTime
	p.HasSendTime = true
	return p
}

// NewAck constructs an Ack packet carrying no send timestamp; use
// WithEchoedSendTime to echo a FAST TCP send timestamp back to the sender.
func NewAck(source, dest, flowID string, index int) Packet {
	return Packet{
		Source: source,
		Dest:   dest,
		Kind:   Ack,
		Size:   AckSize,
		Index:  index,
		FlowID: flowID,
	}
}

// WithEchoedSendTime returns a copy of the Ack carrying the data packet's
// send timestamp, for FAST TCP RTT sampling.
func (p Packet) WithEchoedSendTime(sendTime float64) Packet {
	p.SendTime = sendTime
	p.HasSendTime = true
	return p
}

// NewRoutingRequest constructs a RoutingRequest packet. Dest is left empty:
// it is addressed by the link it travels on, not by a routed destination.
func NewRoutingRequest(source string) Packet {
	return Packet{
		Source: source,
		Kind:   RoutingRequest,
		Size:   RoutingRequestSize,
	}
}

// NewRoutingReply constructs a RoutingReply packet carrying table.
func NewRoutingReply(source, dest string, table map[string]Route) Packet {
	return Packet{
		Source:       source,
		Dest:         dest,
		Kind:         RoutingReply,
		Size:         RoutingReplySize,
		RoutingTable: table,
	}
}
