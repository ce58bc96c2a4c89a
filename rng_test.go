package outbreaksim

import (
	"math"
	"math/rand"
	"testing"
)

func TestRNG_Uniform_OpenAtZero(t *testing.T) {
	g := NewRNG(rand.New(rand.NewSource(1)))
	for i := 0; i < 10000; i++ {
		u := g.Uniform()
		if u <= 0 || u > 1 {
			t.Fatalf("Uniform returned %v, want (0,1]", u)
		}
	}
}

func TestRNG_Poisson_ZeroRateIsZero(t *testing.T) {
	g := NewRNG(rand.New(rand.NewSource(1)))
	if n := g.Poisson(0); n != 0 {
		t.Errorf(UnequalIntParameterError, "Poisson(0)", 0, n)
	}
}

func TestRNG_Binomial_Bounds(t *testing.T) {
	g := NewRNG(rand.New(rand.NewSource(2)))
	if n := g.Binomial(10, 0); n != 0 {
		t.Errorf(UnequalIntParameterError, "Binomial(10,0)", 0, n)
	}
	if n := g.Binomial(10, 1); n != 10 {
		t.Errorf(UnequalIntParameterError, "Binomial(10,1)", 10, n)
	}
	if n := g.Binomial(0, 0.5); n != 0 {
		t.Errorf(UnequalIntParameterError, "Binomial(0,0.5)", 0, n)
	}
	for i := 0; i < 1000; i++ {
		n := g.Binomial(10, 0.5)
		if n < 0 || n > 10 {
			t.Fatalf("Binomial(10,0.5) out of range: %d", n)
		}
	}
}

func TestRNG_GammaPeriod_DegenerateKappaInf(t *testing.T) {
	g := NewRNG(rand.New(rand.NewSource(3)))
	p := GammaParams{Ave: 4.2, Kappa: math.Inf(1), X95: 4.2}
	if got := g.GammaPeriod(p); got != 4.2 {
		t.Errorf(UnequalFloatParameterError, "degenerate gamma period", 4.2, got)
	}
}

func TestRNG_Logarithmic_SupportStartsAtOne(t *testing.T) {
	g := NewRNG(rand.New(rand.NewSource(4)))
	for i := 0; i < 10000; i++ {
		n := g.Logarithmic(0.4)
		if n < 1 {
			t.Fatalf("Logarithmic returned %d, want >= 1", n)
		}
	}
}

func TestRNG_TruncatedLogarithmic_ExcludesOne(t *testing.T) {
	g := NewRNG(rand.New(rand.NewSource(5)))
	for i := 0; i < 10000; i++ {
		n := g.truncatedLogarithmic(0.4)
		if n < 2 {
			t.Fatalf("truncatedLogarithmic returned %d, want >= 2", n)
		}
	}
}

func TestSubstream_DeterministicAndDistinct(t *testing.T) {
	a := Substream(42, 7)
	b := Substream(42, 7)
	if a.Int63() != b.Int63() {
		t.Fatal("Substream(seed, index) is not deterministic")
	}

	c := Substream(42, 8)
	va := Substream(42, 7).Int63()
	vc := c.Int63()
	if va == vc {
		t.Fatal("Substream with different indices produced the same first draw")
	}
}

func TestSubstreamIndex_MatchesThreadInterleave(t *testing.T) {
	// Thread t's set with ordinal s draws from flat substream index
	// t*nsetsperthread + s.
	nsetsperthread := 4
	got := substreamIndex(2, 1, nsetsperthread)
	want := uint64(2*nsetsperthread + 1)
	if got != want {
		t.Errorf(UnequalIntParameterError, "substreamIndex", int(want), int(got))
	}
}
