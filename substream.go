package outbreaksim

import "math/rand"

// Substream yields nthreads*nsetsperthread statistically independent
// *rand.Rand streams from one master seed (§4.B). The RNG stream
// algorithm itself is explicitly out of core scope (§1); only its
// contract matters here: every (thread, set) pair gets its own
// reproducible stream, and results are a pure function of (seed,
// nthreads, nsetsperthread) regardless of how many threads actually
// run (§4.B determinism contract, §5 ordering guarantee 3).
//
// No example repo in the corpus ships a parallel-stream RNG (the
// "RngStream" family the original links against), so stream
// separation is derived here with a SplitMix64-style seed mix over
// math/rand — deliberately simple, stdlib-only, and documented as
// such in DESIGN.md.
func Substream(seed uint64, index uint64) *rand.Rand {
	s := splitmix64(seed, index)
	return rand.New(rand.NewSource(int64(s)))
}

// splitmix64 mixes a master seed with a stream index into a
// well-distributed 64-bit value, following the public-domain
// SplitMix64 finalizer (Vigna).
func splitmix64(seed, index uint64) uint64 {
	z := seed + index*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// substreamIndex computes the flat substream index for thread t
// (0-based), set s (0-based, within this thread's assigned sets), and
// nsetsperthread: thread t runs the global set indices {t, t+nthreads,
// t+2*nthreads, ...}, and its set with ordinal s draws from substream
// t*nsetsperthread + s, so each thread owns a contiguous block of
// substreams.
func substreamIndex(thread, setOrdinal, nsetsperthread int) uint64 {
	return uint64(thread*nsetsperthread + setOrdinal)
}
