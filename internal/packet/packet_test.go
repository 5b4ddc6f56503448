package packet_test

import (
	"testing"

	"github.com/timothychou/netsim/internal/packet"
)

func TestNewDataFixedSize(t *testing.T) {
	t.Parallel()

	p := packet.NewData("h1", "h2", "f1", 3)
	if p.Kind != packet.Data {
		t.Errorf("Kind = %v, want Data", p.Kind)
	}
	if p.Size != packet.DataSize {
		t.Errorf("Size = %d, want %d", p.Size, packet.DataSize)
	}
	if p.HasSendTime {
		t.Errorf("HasSendTime = true for a plain Data packet")
	}
}

func TestNewDataWithSendTime(t *testing.T) {
	t.Parallel()

	p := packet.NewDataWithSendTime("h1", "h2", "f1", 0, 123.5)
	if !p.HasSendTime || p.SendTime != 123.5 {
		t.Errorf("send time not carried: HasSendTime=%v SendTime=%v", p.HasSendTime, p.SendTime)
	}
}

func TestAckEchoesSendTime(t *testing.T) {
	t.Parallel()

	ack := packet.NewAck("h2", "h1", "f1", 1)
	if ack.HasSendTime {
		t.Fatalf("fresh Ack should not carry a send time")
	}

	echoed := ack.WithEchoedSendTime(42)
	if !echoed.HasSendTime || echoed.SendTime != 42 {
		t.Errorf("WithEchoedSendTime did not stamp the echo: %+v", echoed)
	}
	if ack.HasSendTime {
		t.Errorf("WithEchoedSendTime must not mutate the receiver")
	}
}

func TestRoutingPacketConstructors(t *testing.T) {
	t.Parallel()

	req := packet.NewRoutingRequest("r1")
	if req.Kind != packet.RoutingRequest || req.Size != packet.RoutingRequestSize {
		t.Errorf("unexpected RoutingRequest: %+v", req)
	}

	table := map[string]packet.Route{"h2": {LinkID: "link:l1", Distance: 5}}
	reply := packet.NewRoutingReply("r1", "r2", table)
	if reply.Kind != packet.RoutingReply || reply.Size != packet.RoutingReplySize {
		t.Errorf("unexpected RoutingReply: %+v", reply)
	}
	if reply.RoutingTable["h2"].Distance != 5 {
		t.Errorf("routing table not carried through: %+v", reply.RoutingTable)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	cases := map[packet.Kind]string{
		packet.Data:           "Data",
		packet.Ack:            "Ack",
		packet.RoutingRequest: "RoutingRequest",
		packet.RoutingReply:   "RoutingReply",
		packet.Kind(99):       "Unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
