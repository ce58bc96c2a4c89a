package outbreaksim

import (
	"bytes"
	"testing"
)

func TestSetPathCount_DistributesRemainderToFirstSets(t *testing.T) {
	cfg := RunConfig{NPaths: 10, NThreads: 2, NSetsPerThread: 2} // 4 sets, 10/4=2 r2
	total := 0
	counts := make([]int, 4)
	for s := 0; s < 4; s++ {
		counts[s] = setPathCount(cfg, s)
		total += counts[s]
	}
	if total != cfg.NPaths {
		t.Fatalf("sum of setPathCount = %d, want %d", total, cfg.NPaths)
	}
	if counts[0] != 3 || counts[1] != 3 {
		t.Fatalf("first two sets should absorb the remainder: got %v", counts)
	}
	if counts[2] != 2 || counts[3] != 2 {
		t.Fatalf("remaining sets should get the base share: got %v", counts)
	}
}

func TestSetPathCount_ExactDivisionGivesEqualShares(t *testing.T) {
	cfg := RunConfig{NPaths: 8, NThreads: 4, NSetsPerThread: 1}
	for s := 0; s < 4; s++ {
		if got := setPathCount(cfg, s); got != 2 {
			t.Errorf(UnequalIntParameterError, "setPathCount", 2, got)
		}
	}
}

func TestPadTo_ZeroFillsOutOfRangeBins(t *testing.T) {
	timeline := []uint32{1, 2, 3}
	out := padTo(timeline, 0, 5)
	want := []uint32{1, 2, 3, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("padTo = %v, want %v", out, want)
		}
	}
}

func TestPadTo_AppliesNegativeShift(t *testing.T) {
	// TimelineShift=2 means timeline[0] is bin -2; padTo's output bin 0
	// should read timeline[2].
	timeline := []uint32{9, 9, 5, 6, 7}
	out := padTo(timeline, 2, 3)
	want := []uint32{5, 6, 7}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("padTo = %v, want %v", out, want)
		}
	}
}

func TestThreadAggregate_MergeSumsHistogramsRegardlessOfLength(t *testing.T) {
	a := newThreadAggregate(2)
	a.addHistogram([]uint64{1, 2})
	b := newThreadAggregate(2)
	b.addHistogram([]uint64{1, 1, 1})

	a.merge(b)

	want := []uint64{2, 3, 1}
	for i, w := range want {
		if a.histogram[i] != w {
			t.Fatalf("merged histogram = %v, want %v", a.histogram, want)
		}
	}
}

// Scenario 1 end to end, driven through Driver.Run rather than a bare
// Walker, exercising the full substream/thread wiring for a single
// zero-event path (lambda set to 0 after Solve, which rejects lambda<=0).
func TestDriver_Run_SinglePathSmoke(t *testing.T) {
	pars := solvedParams(t, 1, 1, 0.5, 1, 10)
	pars.Lambda = 0
	cfg := RunConfig{
		Seed: 99, NPaths: 1, NThreads: 1, NSetsPerThread: 1, NPers: 20,
		Shape: FrameReg,
	}
	var out bytes.Buffer
	d := NewDriver(pars, cfg, &out, nil)

	result, err := d.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NPaths != 1 {
		t.Errorf(UnequalIntParameterError, "result.NPaths", 1, result.NPaths)
	}
	if out.Len() == 0 {
		t.Fatal("Run wrote no path frame to the output writer")
	}
	if result.Aggregate.nExtinct != 1 {
		t.Errorf(UnequalIntParameterError, "nExtinct", 1, int(result.Aggregate.nExtinct))
	}
}

// Splitting the same npaths/seed across different
// nthreads/nsetsperthread partitions must still run exactly npaths
// paths in total (extinct plus non-extinct).
func TestDriver_Run_TotalPathCountIndependentOfPartitioning(t *testing.T) {
	pars := solvedParams(t, 1, 0.5, 0.3, 1, 5)

	run := func(nthreads, nsetsperthread int) int {
		cfg := RunConfig{
			Seed: 42, NPaths: 12, NThreads: nthreads, NSetsPerThread: nsetsperthread,
			NPers: 32, Shape: FrameReg,
		}
		var out bytes.Buffer
		d := NewDriver(pars, cfg, &out, nil)
		result, err := d.Run()
		if err != nil {
			t.Fatalf("Run(nthreads=%d, nsetsperthread=%d): %v", nthreads, nsetsperthread, err)
		}
		return int(result.Aggregate.nExtinct + result.Aggregate.nNonExtinct)
	}

	if got := run(1, 1); got != 12 {
		t.Errorf(UnequalIntParameterError, "total paths (1x1)", 12, got)
	}
	if got := run(3, 2); got != 12 {
		t.Errorf(UnequalIntParameterError, "total paths (3x2)", 12, got)
	}
	if got := run(4, 1); got != 12 {
		t.Errorf(UnequalIntParameterError, "total paths (4x1)", 12, got)
	}
}
