package ellipsoid

import (
	"math"
	"testing"

	"github.com/vishalbelsare/DIAMONDS/rng"
)

func squarePoints() [][]float64 {
	return [][]float64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
}

func TestFromPointsEnclosesSourcePoints(t *testing.T) {
	e, err := FromPoints(squarePoints(), 0)
	if err != nil {
		t.Fatal(err)
	}
	e.GrowToEnclose(squarePoints())
	for _, p := range squarePoints() {
		if !e.Contains(p) {
			t.Fatalf("ellipsoid does not contain source point %v", p)
		}
	}
}

func TestEnlargeNeverShrinksBelowOne(t *testing.T) {
	e, _ := FromPoints(squarePoints(), 0)
	e.Enlarge(0.1)
	if e.Enlargement() != 1 {
		t.Fatalf("Enlarge(0.1) = %v, want clamped to 1", e.Enlargement())
	}
}

func TestVolumeScalesWithEnlargement(t *testing.T) {
	e, _ := FromPoints(squarePoints(), 0)
	v1 := e.Volume()
	e.Enlarge(4)
	v2 := e.Volume()
	ratio := v2 / v1
	want := math.Pow(4, float64(e.Dim())/2)
	if math.Abs(ratio-want) > 1e-9 {
		t.Fatalf("volume ratio = %v, want %v", ratio, want)
	}
}

func TestSampleUniformStaysInside(t *testing.T) {
	e, _ := FromPoints(squarePoints(), 0)
	e.GrowToEnclose(squarePoints())
	e.Enlarge(e.Enlargement() * 1.2)
	s := rng.New(123)
	for i := 0; i < 500; i++ {
		x := e.SampleUniform(s)
		if !e.Contains(x) {
			t.Fatalf("sampled point %v not inside its own ellipsoid", x)
		}
	}
}

func TestFromPointsRejectsEmpty(t *testing.T) {
	if _, err := FromPoints(nil, 0); err == nil {
		t.Fatal("expected error for empty points")
	}
}

func TestFromPointsFloorsDegenerateCovariance(t *testing.T) {
	// Collinear points: covariance is singular in the orthogonal direction.
	pts := [][]float64{{0, 0}, {1, 0}, {2, 0}}
	e, err := FromPoints(pts, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	if e.Volume() <= 0 || math.IsNaN(e.Volume()) {
		t.Fatalf("degenerate covariance produced invalid volume: %v", e.Volume())
	}
}
