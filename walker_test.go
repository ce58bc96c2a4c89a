package outbreaksim

import (
	"math"
	"math/rand"
	"testing"
)

func solvedParams(t *testing.T, lambda, tbar, p, pinf, tmax float64) *ModelParameters {
	t.Helper()
	pars := NewModelParameters()
	pars.Lambda = lambda
	pars.Main.Ave = tbar
	pars.Main.Kappa = math.Inf(1) // degenerate: comm period == tbar exactly
	pars.P = p
	pars.Pinf = pinf
	pars.Tmax = tmax
	pars.Nstart = 1
	if err := pars.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return pars
}

// Scenario 1: zero-event trivial (spec §8 scenario 1). lambda=0 means
// the primary never generates a transmission event, so the path is
// exactly one frame. Solve rejects lambda<=0, so the parameters are
// solved with lambda=1 and lambda is set to 0 for the walk.
func TestWalker_ZeroEventTrivial(t *testing.T) {
	pars := solvedParams(t, 1, 1, 0.5, 1, 10)
	pars.Lambda = 0
	stats := NewPathStats(20, math.MaxUint32, math.MaxUint32, pars.Tmax, 0, TimePriCreated, false)
	rng := NewRNG(rand.New(rand.NewSource(1)))
	w := NewWalker(pars, rng, stats, nil)

	w.RunPath()

	for i, v := range stats.NewInfTimeline {
		if v != 0 {
			t.Fatalf("newinf_timeline[%d] = %d, want 0 (no events were generated)", i, v)
		}
	}
	if !stats.Extinction {
		t.Fatal("expected extinction=true for a single zero-event primary")
	}
	if stats.RSum != 0 {
		t.Errorf(UnequalIntParameterError, "rsum", 0, int(stats.RSum))
	}
	nonZero := 0
	for _, v := range stats.InfTimeline {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Fatal("expected inf_timeline to record the primary's communicable window")
	}
}

// P2: sum(newinf_timeline) == rsum whenever extinction == true.
func TestWalker_P2_NewInfSumEqualsRSumOnExtinction(t *testing.T) {
	pars := solvedParams(t, 2, 0.2, 0.1, 1, 5)
	stats := NewPathStats(64, math.MaxUint32, math.MaxUint32, pars.Tmax, 0, TimePriCreated, false)
	rng := NewRNG(rand.New(rand.NewSource(7)))
	w := NewWalker(pars, rng, stats, nil)

	w.RunPath()

	if !stats.Extinction {
		t.Skip("this seed produced a non-extinct path; P2 only binds when extinction==true")
	}
	var sum uint32
	for _, v := range stats.NewInfTimeline {
		sum += v
	}
	if sum != stats.RSum {
		t.Errorf(UnequalIntParameterError, "sum(newinf_timeline)", int(stats.RSum), int(sum))
	}
}

// P6: if nimax = infinity (MaxUint32), nimaxedoutmintimeindex stays
// the MaxInt32 sentinel for every path.
func TestWalker_P6_NoNimaxCapMeansNeverMaxedOut(t *testing.T) {
	pars := solvedParams(t, 5, 0.3, 0.3, 1, 5)
	stats := NewPathStats(64, math.MaxUint32, math.MaxUint32, pars.Tmax, 0, TimePriCreated, false)
	rng := NewRNG(rand.New(rand.NewSource(11)))
	w := NewWalker(pars, rng, stats, nil)

	w.RunPath()

	if stats.NimaxedOutMinTimeIndex != math.MaxInt32 {
		t.Errorf(UnequalIntParameterError, "nimaxedoutmintimeindex", math.MaxInt32, int(stats.NimaxedOutMinTimeIndex))
	}
}

// Scenario 3: nimax truncation. A low cap under a high transmission
// rate should force extinction=false and set nimaxedoutmintimeindex.
func TestWalker_Scenario3_NimaxTruncation(t *testing.T) {
	pars := solvedParams(t, 10, 0.5, 0.3, 1, 5)
	pars.Nstart = 20
	stats := NewPathStats(64, math.MaxUint32, 10, pars.Tmax, 0, TimePriCreated, false)
	rng := NewRNG(rand.New(rand.NewSource(13)))
	w := NewWalker(pars, rng, stats, nil)

	w.RunPath()

	if stats.Extinction {
		t.Fatal("expected extinction=false once nimax is exceeded")
	}
	if stats.NimaxedOutMinTimeIndex == math.MaxInt32 {
		t.Fatal("expected nimaxedoutmintimeindex to be set once nimax is exceeded")
	}
}

func TestWalker_ContactTracing_RecordsTruePositiveTests(t *testing.T) {
	pars := solvedParams(t, 5, 1, 0.5, 1, 5)
	pars.Nstart = 50 // many independent primaries so at least one transmits
	pars.Ttpr = 1    // every main-period frame reports a true-positive test
	pars.Tdeltat = 1
	stats := NewPathStats(64, math.MaxUint32, math.MaxUint32, pars.Tmax, pars.Tdeltat, TimePriCreated, false)
	rng := NewRNG(rand.New(rand.NewSource(17)))
	tracer := NewTracer()
	w := NewWalker(pars, rng, stats, tracer)

	w.RunPath()
	entries := tracer.Finalize(stats.NimaxedOutMinTimeIndex)

	if len(entries) == 0 {
		t.Fatal("expected at least one contact-tracing entry across 50 primaries with ttpr=1")
	}
	for _, e := range entries {
		if e.ID == 0 {
			t.Fatal("contact-tracing entry has the sentinel ID 0")
		}
	}
}
