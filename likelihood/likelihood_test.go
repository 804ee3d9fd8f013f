package likelihood

import (
	"math"
	"testing"
)

func TestGaussianPeaksAtOrigin(t *testing.T) {
	g := Gaussian(0.5)
	if g([]float64{0, 0}) != 0 {
		t.Fatalf("Gaussian at origin = %v, want 0 (log-peak)", g([]float64{0, 0}))
	}
	if g([]float64{1, 1}) >= 0 {
		t.Fatal("Gaussian should decrease away from the origin")
	}
}

func TestUnitGaussianMatchesGaussianOne(t *testing.T) {
	g := Gaussian(1)
	pts := [][]float64{{0.3, -0.2}, {1.5, 2.1}}
	for _, p := range pts {
		if math.Abs(UnitGaussian(p)-g(p)) > 1e-12 {
			t.Fatalf("UnitGaussian(%v) = %v, want %v", p, UnitGaussian(p), g(p))
		}
	}
}

func TestHimmelblauMinimaNearZero(t *testing.T) {
	minima := [][]float64{{3, 2}, {-2.805118, 3.131312}, {-3.779310, -3.283186}, {3.584428, -1.848126}}
	for _, m := range minima {
		logL := Himmelblau(m)
		if logL < -1e-6 {
			t.Fatalf("Himmelblau(%v) = %v, want ~0 at a known minimum", m, logL)
		}
	}
}

func TestEggboxBounded(t *testing.T) {
	for x := 0.0; x < 10*math.Pi; x += 1.3 {
		for y := 0.0; y < 10*math.Pi; y += 1.7 {
			logL := Eggbox([]float64{x, y})
			if math.IsNaN(logL) || math.IsInf(logL, 0) {
				t.Fatalf("Eggbox(%v,%v) = %v, want finite", x, y, logL)
			}
		}
	}
}

func TestFlatIsZero(t *testing.T) {
	if Flat([]float64{1, 2, 3}) != 0 {
		t.Fatal("Flat should always return 0")
	}
}
