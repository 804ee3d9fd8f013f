package nested

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/vishalbelsare/DIAMONDS/constrained"
	"github.com/vishalbelsare/DIAMONDS/prior"
	"github.com/vishalbelsare/DIAMONDS/reducer"
)

func unitGaussianLogL(theta []float64) float64 {
	var sum float64
	for _, v := range theta {
		sum += v * v
	}
	return -0.5 * sum
}

func boxBounds(dim int, half float64) [][2]float64 {
	b := make([][2]float64, dim)
	for i := range b {
		b[i] = [2]float64{-half, half}
	}
	return b
}

func TestRunUnitGaussian2D(t *testing.T) {
	bx, err := prior.NewBox(boxBounds(2, 5))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.NInitial = 200
	cfg.NMin = 50
	cfg.NReclustPeriod = 25
	cfg.TerminationFactor = 0.01
	cfg.MaxIterations = 20000

	s, err := New(cfg, bx, unitGaussianLogL, reducer.Feroz{Tolerance: 0.01}, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !res.Converged {
		t.Fatal("expected convergence")
	}
	if res.Iterations == 0 {
		t.Fatal("expected a nonzero number of iterations")
	}
	if math.IsInf(res.LogZ, 0) || math.IsNaN(res.LogZ) {
		t.Fatalf("logZ = %v, want finite", res.LogZ)
	}

	var sumW float64
	for _, p := range res.Posterior {
		sumW += math.Exp(p.LogW - res.LogZ)
	}
	if math.Abs(sumW-1) > 1e-3 {
		t.Fatalf("normalized weights sum to %v, want ~1", sumW)
	}
}

func TestRunFlatLikelihoodTerminationScaling(t *testing.T) {
	bx, err := prior.NewBox(boxBounds(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	flat := func(theta []float64) float64 { return 0 }

	cfg := DefaultConfig()
	cfg.NInitial = 100
	cfg.NMin = 100
	cfg.NReclustPeriod = 1000000
	cfg.TerminationFactor = math.Exp(-2) // expect ~ N*2 iterations
	cfg.MaxIterations = 100000

	s, err := New(cfg, bx, flat, reducer.Fixed{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := 2 * cfg.NInitial
	if res.Iterations < want/3 || res.Iterations > want*3 {
		t.Fatalf("iterations = %d, want roughly %d (order of magnitude)", res.Iterations, want)
	}
}

func TestRunDegenerateSingleLivePoint(t *testing.T) {
	bx, err := prior.NewBox(boxBounds(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.NInitial = 1
	cfg.NMin = 1
	cfg.MaxDrawAttempts = 2000
	cfg.Workers = 1
	cfg.TerminationFactor = 1
	cfg.MaxIterations = 5

	s, err := New(cfg, bx, unitGaussianLogL, reducer.Fixed{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// A single live point is a degenerate boundary case (spec.md §8): the
	// ellipsoid around it collapses to a near-point, so replacement draws
	// may legitimately exhaust. Either outcome must be well-formed: no
	// panic, and on success a non-empty posterior.
	res, err := s.Run(context.Background())
	if err != nil {
		if !errors.Is(err, constrained.ErrDrawExhausted) && err != ErrCancelled {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if len(res.Posterior) == 0 {
		t.Fatal("expected at least one posterior sample")
	}
}

func TestRunCancellation(t *testing.T) {
	bx, err := prior.NewBox(boxBounds(2, 5))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.NInitial = 50
	cfg.NMin = 10

	s, err := New(cfg, bx, unitGaussianLogL, reducer.Fixed{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	if err != ErrCancelled {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	bx, err := prior.NewBox(boxBounds(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.NMin = cfg.NInitial + 1
	if _, err := New(cfg, bx, unitGaussianLogL, nil, nil); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDrawExhaustedPropagates(t *testing.T) {
	bx, err := prior.NewBox(boxBounds(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	impossible := func(theta []float64) float64 { return math.Inf(-1) }
	cfg := DefaultConfig()
	cfg.NInitial = 10
	cfg.NMin = 5
	cfg.MaxDrawAttempts = 5

	// Use a likelihood that is finite during initialization but then
	// switches to impossible, forcing DrawReplacement to exhaust.
	calls := 0
	like := func(theta []float64) float64 {
		calls++
		if calls <= cfg.NInitial {
			return unitGaussianLogL(theta)
		}
		return impossible(theta)
	}

	s, err := New(cfg, bx, like, reducer.Fixed{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Run(context.Background())
	if err == nil {
		t.Fatal("expected draw-exhaustion error")
	}
}
