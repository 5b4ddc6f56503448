package flow_test

import (
	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/stats"
)

// capturingSink counts and keeps every sample it receives, for tests that
// check how many observations were made or what the latest one was.
type capturingSink struct {
	count   int
	samples []stats.Sample
}

func (c *capturingSink) Sample(s stats.Sample) {
	c.count++
	c.samples = append(c.samples, s)
}

// stubEvents is a minimal flow.EventFactory that counts the events it
// creates, standing in for the real simtime.Loop a FastSender would
// otherwise depend on through topology. The events it returns all carry
// sequence number zero, since Event's sequence field is unexported.
type stubEvents struct{ seq uint64 }

func (s *stubEvents) NewEvent(t float64, target simtime.Handle, kind simtime.Kind, payload any) simtime.Event {
	s.seq++
	return simtime.Event{Time: t, Target: target, Kind: kind, Payload: payload}
}
