// Package stats defines the write-only observer interface the simulation
// core reports samples through. The sink never feeds back into simulation
// state (spec §4.9 / Design Notes: "Observable side effects for stats").
package stats

// Kind identifies what a Sample measures.
type Kind uint8

const (
	// Per-flow samples.
	BytesSent Kind = iota + 1
	BytesReceived
	RTTSample
	WindowSize

	// Per-link samples.
	BytesFlowed
	BufferOccupancy
	LostPackets

	// Per-host samples (reuse BytesSent/BytesReceived with a host entity id).
)

// String returns the human-readable name of the sample kind.
func (k Kind) String() string {
	switch k {
	case BytesSent:
		return "bytesSent"
	case BytesReceived:
		return "bytesReceived"
	case RTTSample:
		return "rttSample"
	case WindowSize:
		return "windowSize"
	case BytesFlowed:
		return "bytesFlowed"
	case BufferOccupancy:
		return "bufferOccupancy"
	case LostPackets:
		return "lostPackets"
	default:
		return "unknown"
	}
}

// EntityKind distinguishes which kind of entity a sample's EntityID names,
// since flow, link, and host identifier spaces can collide.
type EntityKind uint8

const (
	Flow EntityKind = iota + 1
	Link
	Host
)

// String returns the human-readable name of the entity kind.
func (e EntityKind) String() string {
	switch e {
	case Flow:
		return "flow"
	case Link:
		return "link"
	case Host:
		return "host"
	default:
		return "unknown"
	}
}

// Sample is one timestamped, keyed observation.
type Sample struct {
	Kind       Kind
	EntityKind EntityKind
	EntityID   string
	Time       float64
	Value      float64
}

// Sink receives Samples. Implementations must not block the caller for
// long and must never mutate simulation state.
type Sink interface {
	Sample(s Sample)
}

// Noop is a Sink that discards every sample. Useful as a default when no
// sink is configured.
type Noop struct{}

// Sample implements Sink.
func (Noop) Sample(Sample) {}
