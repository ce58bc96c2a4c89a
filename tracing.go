package outbreaksim

import (
	"math"
	"sort"
)

// ctEntry is one contact-tracing record (§4.E): a true-positive test
// event plus the count of downstream positive tests reachable via
// traced contacts.
type ctEntry struct {
	PostestTime float64
	PresymTime  float64
	ID          uint32
	PID         uint32
	NTracedCts  uint32
}

const initNActEntries = 64

// Tracer accumulates the optional contact-tracing log for one path. It
// is reset and reused across paths like PathStats and frameStack
// (§3 "Ownership & lifecycle"), matching the teacher's
// AppendToFile/pool idiom of amortising allocation across many
// sequential records rather than allocating per event.
type Tracer struct {
	entries  []ctEntry
	parent   map[uint32]uint32 // every observed frame id -> its parent id
	positive map[uint32]int    // positive-tested frame id -> index into entries
}

// NewTracer allocates a Tracer with its pools pre-sized to
// INIT_NACTENTRIES (§4.E).
func NewTracer() *Tracer {
	t := &Tracer{
		entries:  make([]ctEntry, 0, initNActEntries),
		parent:   make(map[uint32]uint32, initNActEntries),
		positive: make(map[uint32]int, initNActEntries),
	}
	return t
}

// Reset clears per-path state while keeping the underlying pools.
func (t *Tracer) Reset() {
	t.entries = t.entries[:0]
	for k := range t.parent {
		delete(t.parent, k)
	}
	for k := range t.positive {
		delete(t.positive, k)
	}
}

// Observe registers a frame's parentage as soon as it is pushed, so
// Record can later walk the ancestor chain regardless of which
// ancestors go on to test positive.
func (t *Tracer) Observe(id, pid uint32) {
	t.parent[id] = pid
}

// Record logs a true-positive test for frame id (parent pid) at
// postestTime (end of communicable period plus tdeltat) and
// presymTime (onset of the communicable period), then walks the
// ancestor chain crediting every already-recorded positive-test
// ancestor's ntracedcts (§4.E "downstream positive tests reachable via
// traced contacts").
func (t *Tracer) Record(id, pid uint32, postestTime, presymTime float64) {
	t.entries = append(t.entries, ctEntry{
		PostestTime: postestTime,
		PresymTime:  presymTime,
		ID:          id,
		PID:         pid,
	})
	t.positive[id] = len(t.entries) - 1

	for cur, ok := t.parent[id]; ok && cur != 0; cur, ok = t.parent[cur] {
		if idx, isPositive := t.positive[cur]; isPositive {
			t.entries[idx].NTracedCts++
		}
	}
}

// Finalize returns the path's entries sorted ascending by
// postesttime, dropping any whose time bin falls beyond
// nimaxedOutMinTimeIndex when the path maxed out (§4.E). A sentinel of
// math.MaxInt32 means the path never maxed out, so nothing is
// dropped.
func (t *Tracer) Finalize(nimaxedOutMinTimeIndex int32) []ctEntry {
	sort.Slice(t.entries, func(i, j int) bool {
		return t.entries[i].PostestTime < t.entries[j].PostestTime
	})
	if nimaxedOutMinTimeIndex == math.MaxInt32 {
		return t.entries
	}
	kept := t.entries[:0:0]
	for _, e := range t.entries {
		if int32(math.Floor(e.PostestTime/1440)) <= nimaxedOutMinTimeIndex {
			kept = append(kept, e)
		}
	}
	t.entries = kept
	return t.entries
}
