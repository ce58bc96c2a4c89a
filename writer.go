package outbreaksim

import (
	"encoding/binary"
	"io"
	"math"
)

// FrameShape selects one of the four binary path-frame layouts
// (§4.G), fixed once at configuration time from the postest/reltime
// options (the original's build-flag equivalents).
type FrameShape int

const (
	// FrameReg: nbins, maxedout, extinction, inf[], newinf[].
	FrameReg FrameShape = iota
	// FrameRegPostest: FrameReg plus newpostest[].
	FrameRegPostest
	// FrameRelTime: nbins, negbins, maxedout, extinction, inf[], newinf[].
	FrameRelTime
	// FrameRelTimePostest: FrameRelTime plus newpostest[].
	FrameRelTimePostest
)

func (s FrameShape) hasPostest() bool {
	return s == FrameRegPostest || s == FrameRelTimePostest
}

func (s FrameShape) hasRelTime() bool {
	return s == FrameRelTime || s == FrameRelTimePostest
}

// WritePathFrame serialises one path's accumulated statistics to w in
// the layout selected by shape (§4.G), trimming trailing all-zero
// bins from the right (and, for reltime shapes, leading all-zero
// bins from the left). w is expected to be the shared output file
// under the caller's tlflock (§4.F).
func WritePathFrame(w io.Writer, s *PathStats, shape FrameShape) error {
	lo, hi := trimmedRange(s, shape)
	nbins := uint32(hi - lo)

	buf := make([]byte, 0, 4*3+4+4*3*int(nbins))
	buf = appendU32(buf, nbins)
	if shape.hasRelTime() {
		negbins := uint32(0)
		if lo < int(s.TimelineShift) {
			negbins = uint32(int(s.TimelineShift) - lo)
		}
		buf = appendU32(buf, negbins)
	}
	buf = appendU32(buf, maxedOutField(s))
	buf = appendI32(buf, extinctionTimeField(s))

	for i := lo; i < hi; i++ {
		buf = appendU32(buf, s.InfTimeline[i])
	}
	for i := lo; i < hi; i++ {
		buf = appendU32(buf, s.NewInfTimeline[i])
	}
	if shape.hasPostest() {
		for i := lo; i < hi; i++ {
			buf = appendU32(buf, s.NewPostestTimeline[i])
		}
	}

	_, err := w.Write(buf)
	return err
}

// trimmedRange returns the [lo, hi) bin range to emit: hi is trimmed
// left from the array's end while inf_timeline (and, for postest
// shapes, newpostest_timeline) is zero; lo is additionally trimmed
// forward from 0 for reltime shapes, while inf_timeline is zero.
func trimmedRange(s *PathStats, shape FrameShape) (lo, hi int) {
	n := len(s.InfTimeline)
	hi = n
	for hi > 0 {
		i := hi - 1
		if s.InfTimeline[i] != 0 {
			break
		}
		if shape.hasPostest() && s.NewPostestTimeline[i] != 0 {
			break
		}
		hi--
	}
	if shape.hasRelTime() {
		for lo < hi && s.InfTimeline[lo] == 0 {
			lo++
		}
	}
	return lo, hi
}

// maxedOutField reflects nimaxedoutmintimeindex verbatim; the
// math.MaxInt32 sentinel ("never maxed out") round-trips unchanged
// through the unsigned field.
func maxedOutField(s *PathStats) uint32 {
	return uint32(s.NimaxedOutMinTimeIndex)
}

// extinctionTimeField is floor(extinction_time) when the path went
// extinct, or -INT32_MAX as a sentinel otherwise (§4.G).
func extinctionTimeField(s *PathStats) int32 {
	if s.Extinction {
		return int32(math.Floor(s.ExtinctionTime))
	}
	return -math.MaxInt32
}

// WriteCTEntries serialises a path's contact-tracing entries as
// fixed 20-byte little-endian records (§4.E, §4.G), expected to run
// under the caller's ctflock.
func WriteCTEntries(w io.Writer, entries []ctEntry) error {
	buf := make([]byte, 0, 20*len(entries))
	for _, e := range entries {
		buf = appendU32(buf, uint32(math.Floor(e.PostestTime)))
		buf = appendU32(buf, uint32(math.Floor(e.PresymTime)))
		buf = appendU32(buf, e.ID)
		buf = appendU32(buf, e.PID)
		buf = appendU32(buf, e.NTracedCts)
	}
	_, err := w.Write(buf)
	return err
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendI32(buf []byte, v int32) []byte {
	return appendU32(buf, uint32(v))
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendF64(buf []byte, v float64) []byte {
	return appendU64(buf, math.Float64bits(v))
}

// stddev returns sqrt(m2/n), 0 for n<2 (§9 "store M2 ... until final
// emission").
func (t *timelineMoments) stddev() []float64 {
	out := make([]float64, len(t.mean))
	if t.n < 2 {
		return out
	}
	for i, m2 := range t.m2 {
		out[i] = math.Sqrt(m2 / float64(t.n))
	}
	return out
}

func (r *runningScalar) stddev() float64 {
	if r.n < 2 {
		return 0
	}
	return math.Sqrt(r.m2 / float64(r.n))
}

// WriteAggregate serialises a run's final merged aggregate (§1 "Final
// aggregates ... are written to a binary output file", §4.F): per-bin
// mean/stddev for each of the four extinction-conditional timeline
// streams, the rsum/commpersum/neventssum scalar moments (rsum's mean
// is the R-effective estimate), the extinction probability, and the
// optional offspring-count histogram.
func WriteAggregate(w io.Writer, result *RunResult) error {
	a := result.Aggregate
	npers := uint32(len(a.extinctInf.mean))

	buf := make([]byte, 0, 64+16*int(npers)*4)
	buf = appendU32(buf, uint32(result.NPaths))
	buf = appendU32(buf, uint32(a.nExtinct))
	buf = appendU32(buf, uint32(a.nNonExtinct))
	buf = appendU32(buf, npers)

	for _, tm := range []*timelineMoments{a.extinctInf, a.extinctNewInf, a.nonExtinctInf, a.nonExtinctNewInf} {
		for _, m := range tm.mean {
			buf = appendF64(buf, m)
		}
		for _, sd := range tm.stddev() {
			buf = appendF64(buf, sd)
		}
	}

	buf = appendF64(buf, a.rsum.mean)
	buf = appendF64(buf, a.rsum.stddev())
	buf = appendF64(buf, a.commPerSum.mean)
	buf = appendF64(buf, a.commPerSum.stddev())
	buf = appendF64(buf, a.nEventsSum.mean)
	buf = appendF64(buf, a.nEventsSum.stddev())

	total := a.nExtinct + a.nNonExtinct
	extinctionProb := 0.0
	if total > 0 {
		extinctionProb = float64(a.nExtinct) / float64(total)
	}
	buf = appendF64(buf, extinctionProb)

	buf = appendU32(buf, uint32(len(a.histogram)))
	for _, c := range a.histogram {
		buf = appendU64(buf, c)
	}

	_, err := w.Write(buf)
	return err
}
