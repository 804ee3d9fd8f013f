package constrained

import (
	"context"
	"math"
	"testing"

	"github.com/vishalbelsare/DIAMONDS/rng"
)

func boxPoints() [][]float64 {
	var pts [][]float64
	for i := 0; i < 30; i++ {
		pts = append(pts, []float64{0.4 + 0.02*float64(i%5), 0.4 + 0.02*float64(i%5)})
	}
	return pts
}

func identityFromUnit(u []float64) []float64 { return u }

func alwaysAccept(theta []float64) float64 { return 0 }

func TestBuildEllipsoidSetSingleCluster(t *testing.T) {
	es, err := BuildEllipsoidSet([][][]float64{boxPoints()}, 30, 1.0, 1.0, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(es.Ellipsoids()) != 1 {
		t.Fatalf("expected 1 ellipsoid, got %d", len(es.Ellipsoids()))
	}
}

func TestDrawReplacementAboveThreshold(t *testing.T) {
	es, err := BuildEllipsoidSet([][][]float64{boxPoints()}, 30, 1.0, 2.0, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	s := rng.New(99)
	// likelihood peaked at the cluster center; threshold well below peak
	like := func(theta []float64) float64 {
		dx := theta[0] - 0.48
		dy := theta[1] - 0.48
		return -0.5 * (dx*dx + dy*dy) / 0.01
	}
	res, err := es.DrawReplacement(context.Background(), -100, 5000, 1, identityFromUnit, like, s, nil)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if res.LogL <= -100 {
		t.Fatalf("accepted point below threshold: logL=%v", res.LogL)
	}
	for _, v := range res.Unit {
		if v < 0 || v > 1 {
			t.Fatalf("accepted point outside unit cube: %v", res.Unit)
		}
	}
}

func TestDrawReplacementExhausts(t *testing.T) {
	es, err := BuildEllipsoidSet([][][]float64{boxPoints()}, 30, 1.0, 1.0, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	s := rng.New(5)
	impossible := func(theta []float64) float64 { return math.Inf(-1) }
	_, err = es.DrawReplacement(context.Background(), 0, 50, 1, identityFromUnit, impossible, s, nil)
	if err != ErrDrawExhausted {
		t.Fatalf("err = %v, want ErrDrawExhausted", err)
	}
}

func TestBuildEllipsoidSetSingletonClusterDoesNotError(t *testing.T) {
	// A single repeated point has zero sample covariance in every
	// direction; flooring the eigenvalues keeps this stabilizable on its
	// own, so BuildEllipsoidSet must not error even without reaching the
	// nearest-neighbor merge path (that path only fires when flooring
	// itself cannot rescue the eigendecomposition).
	degenerate := [][]float64{{0.9, 0.9}}
	healthy := boxPoints()
	es, err := BuildEllipsoidSet([][][]float64{degenerate, healthy}, 31, 1.0, 1.0, 0.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(es.Ellipsoids()) != 2 {
		t.Fatalf("expected both clusters to produce their own ellipsoid, got %d", len(es.Ellipsoids()))
	}
}

func TestNearestOtherClusterPicksClosestCentroid(t *testing.T) {
	groups := [][][]float64{
		{{0, 0}, {0.1, 0.1}},
		{{5, 5}, {5.1, 5.1}},
		{{0.2, -0.1}, {0.3, 0}},
	}
	if got := nearestOtherCluster(groups, 0); got != 2 {
		t.Fatalf("nearestOtherCluster(0) = %d, want 2", got)
	}
}

func TestDrawReplacementParallelMatchesSequentialSuccess(t *testing.T) {
	es, err := BuildEllipsoidSet([][][]float64{boxPoints()}, 30, 1.0, 2.0, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	s := rng.New(7)
	res, err := es.DrawReplacement(context.Background(), -1e9, 2000, 4, identityFromUnit, alwaysAccept, s, nil)
	if err != nil {
		t.Fatalf("parallel draw failed: %v", err)
	}
	if res.LogL != 0 {
		t.Fatalf("logL = %v, want 0", res.LogL)
	}
}
