package stats

import "sync"

// Recorder is an in-memory, append-only Sink used by tests and by the CLI's
// final summary. Unlike the channel-based state-change notification the
// BFD manager exposes to external consumers, the simulation core requires
// a pure synchronous observer with no feedback path, so Recorder simply
// locks and appends.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Sample implements Sink.
func (r *Recorder) Sample(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// All returns a copy of every sample recorded so far.
func (r *Recorder) All() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// ForEntity returns every sample recorded for the given entity kind, id,
// and sample kind, in recorded order.
func (r *Recorder) ForEntity(ek EntityKind, id string, k Kind) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, s := range r.samples {
		if s.EntityKind == ek && s.EntityID == id && s.Kind == k {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the most recent sample for the given entity/kind and true,
// or the zero Sample and false if none exist.
func (r *Recorder) Last(ek EntityKind, id string, k Kind) (Sample, bool) {
	matches := r.ForEntity(ek, id, k)
	if len(matches) == 0 {
		return Sample{}, false
	}
	return matches[len(matches)-1], true
}
