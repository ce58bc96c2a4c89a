package outbreaksim

import (
	"io"
	"sync"
)

// RunConfig bundles the run-level knobs that sit alongside
// ModelParameters: how many paths to generate, how to split them
// across threads and substreams, and how to shape the output (§4.F,
// §6).
type RunConfig struct {
	Seed           uint64
	NPaths         int
	NThreads       int
	NSetsPerThread int
	NPers          uint32
	Shape          FrameShape
	RecordNinfs    bool
	Trace          bool
}

// runningScalar is Welford's running mean/M2 for a single scalar
// stream (rsum, commpersum, neventssum), merged with Chan's parallel
// combination (§9 "statistics merge").
type runningScalar struct {
	n    uint64
	mean float64
	m2   float64
}

func (r *runningScalar) add(x float64) {
	r.n++
	delta := x - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (x - r.mean)
}

func (r *runningScalar) merge(o *runningScalar) {
	if o.n == 0 {
		return
	}
	if r.n == 0 {
		*r = *o
		return
	}
	na, nb := float64(r.n), float64(o.n)
	delta := o.mean - r.mean
	r.mean = (na*r.mean + nb*o.mean) / (na + nb)
	r.m2 += o.m2 + delta*delta*na*nb/(na+nb)
	r.n += o.n
}

// timelineMoments is the same Welford/Chan machinery applied
// per-bin to a fixed-width (npers) timeline (§4.F "running mean and
// M2 ... for each timeline bin").
type timelineMoments struct {
	n    uint64
	mean []float64
	m2   []float64
}

func newTimelineMoments(npers uint32) *timelineMoments {
	return &timelineMoments{mean: make([]float64, npers), m2: make([]float64, npers)}
}

func (t *timelineMoments) add(sample []uint32) {
	t.n++
	for i, v := range sample {
		x := float64(v)
		delta := x - t.mean[i]
		t.mean[i] += delta / float64(t.n)
		t.m2[i] += delta * (x - t.mean[i])
	}
}

func (t *timelineMoments) merge(o *timelineMoments) {
	if o.n == 0 {
		return
	}
	if t.n == 0 {
		t.n = o.n
		copy(t.mean, o.mean)
		copy(t.m2, o.m2)
		return
	}
	na, nb := float64(t.n), float64(o.n)
	for i := range t.mean {
		delta := o.mean[i] - t.mean[i]
		t.mean[i] = (na*t.mean[i] + nb*o.mean[i]) / (na + nb)
		t.m2[i] += o.m2[i] + delta*delta*na*nb/(na+nb)
	}
	t.n += o.n
}

// threadAggregate is one thread's running statistics: inf/newinf
// timeline moments split into the extinction-conditional and
// non-extinction-conditional streams the spec calls for, plus the
// scalar sums (§4.D, §4.F).
type threadAggregate struct {
	extinctInf, extinctNewInf       *timelineMoments
	nonExtinctInf, nonExtinctNewInf *timelineMoments
	rsum, commPerSum, nEventsSum    runningScalar
	nExtinct, nNonExtinct           uint64

	// histogram accumulates ngeninfs across every observed path when
	// RecordNinfs is set; nil otherwise (§3 "ngeninfs histogram").
	histogram []uint64
}

func newThreadAggregate(npers uint32) *threadAggregate {
	return &threadAggregate{
		extinctInf:       newTimelineMoments(npers),
		extinctNewInf:    newTimelineMoments(npers),
		nonExtinctInf:    newTimelineMoments(npers),
		nonExtinctNewInf: newTimelineMoments(npers),
	}
}

// observe folds one finished path's stats into the aggregate. The
// path's (possibly negatively shifted, variable-width) timelines are
// reprojected onto the fixed [0, npers) window the aggregate tracks;
// the full variable-width history is instead preserved verbatim by
// the per-path binary frame (writer.go).
func (a *threadAggregate) observe(s *PathStats) {
	npers := uint32(len(a.extinctInf.mean))
	inf := padTo(s.InfTimeline, s.TimelineShift, npers)
	newInf := padTo(s.NewInfTimeline, s.TimelineShift, npers)

	if s.Extinction {
		a.nExtinct++
		a.extinctInf.add(inf)
		a.extinctNewInf.add(newInf)
	} else {
		a.nNonExtinct++
		a.nonExtinctInf.add(inf)
		a.nonExtinctNewInf.add(newInf)
	}
	a.rsum.add(float64(s.RSum))
	a.commPerSum.add(s.CommPerSum)
	a.nEventsSum.add(float64(s.NEventsSum))

	if s.RecordNinfs {
		a.addHistogram(s.NGenInfs)
	}
}

// addHistogram element-wise adds counts into a.histogram, growing it
// to match when counts is longer.
func (a *threadAggregate) addHistogram(counts []uint64) {
	if len(counts) > len(a.histogram) {
		grown := make([]uint64, len(counts))
		copy(grown, a.histogram)
		a.histogram = grown
	}
	for i, c := range counts {
		a.histogram[i] += c
	}
}

func mergeHistogram(a, b []uint64) []uint64 {
	if len(b) > len(a) {
		grown := make([]uint64, len(b))
		copy(grown, a)
		a = grown
	}
	for i, c := range b {
		a[i] += c
	}
	return a
}

func (a *threadAggregate) merge(o *threadAggregate) {
	a.extinctInf.merge(o.extinctInf)
	a.extinctNewInf.merge(o.extinctNewInf)
	a.nonExtinctInf.merge(o.nonExtinctInf)
	a.nonExtinctNewInf.merge(o.nonExtinctNewInf)
	a.rsum.merge(&o.rsum)
	a.commPerSum.merge(&o.commPerSum)
	a.nEventsSum.merge(&o.nEventsSum)
	a.nExtinct += o.nExtinct
	a.nNonExtinct += o.nNonExtinct
	a.histogram = mergeHistogram(a.histogram, o.histogram)
}

func padTo(timeline []uint32, shift int32, npers uint32) []uint32 {
	out := make([]uint32, npers)
	for b := uint32(0); b < npers; b++ {
		idx := int(b) + int(shift)
		if idx >= 0 && idx < len(timeline) {
			out[b] = timeline[idx]
		}
	}
	return out
}

// setPathCount returns how many paths global set index s (0-based
// over the whole run, s = t + j*nthreads, see §4.F) should run: the
// npaths/(nthreads*nsetsperthread) quotient, plus one for the first
// `npaths mod totalsets` sets, so the grand total is exactly npaths.
func setPathCount(cfg RunConfig, globalSetIndex int) int {
	totalSets := cfg.NThreads * cfg.NSetsPerThread
	perSet := cfg.NPaths / totalSets
	extra := cfg.NPaths % totalSets
	if globalSetIndex < extra {
		return perSet + 1
	}
	return perSet
}

// RunResult is the merged, thread-id-ordered outcome of a Driver.Run
// (§9 "statistics merge": "fix the merge order (sorted by thread id)
// for byte-identical output across thread counts").
type RunResult struct {
	Aggregate *threadAggregate
	NPaths    int
}

// Driver spawns nthreads workers over npaths (§4.F). The shared
// output writer and, if tracing is enabled, CT writer are protected
// by tlflock/ctflock respectively; all other state (RNG, stack,
// accumulator) is thread-local (§5 "shared resources").
type Driver struct {
	pars  *ModelParameters
	cfg   RunConfig
	out   io.Writer
	ctOut io.Writer // nil when cfg.Trace is false

	// CTSQLite, if set, additionally receives every path's CT entries
	// (§4.E, §11). database/sql's *sql.DB is safe for concurrent use,
	// so no extra lock is needed beyond tlflock/ctflock.
	CTSQLite *SQLiteCTWriter
}

// NewDriver builds a Driver over an already-Solve()d ModelParameters.
func NewDriver(pars *ModelParameters, cfg RunConfig, out, ctOut io.Writer) *Driver {
	return &Driver{pars: pars, cfg: cfg, out: out, ctOut: ctOut}
}

// Run blocks until every thread has processed its assigned
// substreams, then merges the per-thread aggregates in fixed
// (thread-id) order for bitwise-deterministic output across thread
// counts (§5 ordering guarantee 2).
func (d *Driver) Run() (*RunResult, error) {
	var tlflock, ctflock sync.Mutex
	var wg sync.WaitGroup

	aggs := make([]*threadAggregate, d.cfg.NThreads)
	errs := make([]error, d.cfg.NThreads)

	for t := 0; t < d.cfg.NThreads; t++ {
		t := t
		agg := newThreadAggregate(d.cfg.NPers)
		aggs[t] = agg
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[t] = d.runThread(t, agg, &tlflock, &ctflock)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	merged := newThreadAggregate(d.cfg.NPers)
	for t := 0; t < d.cfg.NThreads; t++ {
		merged.merge(aggs[t])
	}
	return &RunResult{Aggregate: merged, NPaths: d.cfg.NPaths}, nil
}

// runThread iterates thread t's assigned sets in order (global set
// indices t, t+nthreads, ...; substreams t*nsetsperthread+0, +1, ...),
// writing each finished path's frame (and, if enabled, CT entries)
// to the shared outputs under lock.
func (d *Driver) runThread(thread int, agg *threadAggregate, tlflock, ctflock *sync.Mutex) error {
	var tracer *Tracer
	if d.cfg.Trace {
		tracer = NewTracer()
	}
	stats := NewPathStats(d.cfg.NPers, d.pars.Lmax, d.pars.Nimax, d.pars.Tmax, d.pars.Tdeltat, d.pars.TimeType, d.cfg.RecordNinfs)

	for local := 0; local < d.cfg.NSetsPerThread; local++ {
		global := thread + local*d.cfg.NThreads
		streamIdx := substreamIndex(thread, local, d.cfg.NSetsPerThread)
		rng := NewRNG(Substream(d.cfg.Seed, streamIdx))
		walker := NewWalker(d.pars, rng, stats, tracer)

		for p, n := 0, setPathCount(d.cfg, global); p < n; p++ {
			walker.RunPath()
			agg.observe(stats)

			tlflock.Lock()
			err := WritePathFrame(d.out, stats, d.cfg.Shape)
			tlflock.Unlock()
			if err != nil {
				return err
			}

			if tracer != nil {
				entries := tracer.Finalize(stats.NimaxedOutMinTimeIndex)
				ctflock.Lock()
				err := WriteCTEntries(d.ctOut, entries)
				ctflock.Unlock()
				if err != nil {
					return err
				}
				if d.CTSQLite != nil {
					if err := d.CTSQLite.WritePath(entries); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
