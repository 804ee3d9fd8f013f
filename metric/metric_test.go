package metric

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEuclidean(t *testing.T) {
	var e Euclidean
	got := e.Distance([]float64{0, 0}, []float64{3, 4})
	if math.Abs(got-5) > 1e-12 {
		t.Fatalf("Distance = %v, want 5", got)
	}
}

func TestMahalanobisIdentityMatchesEuclidean(t *testing.T) {
	sigma := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	m, err := NewMahalanobis(sigma)
	if err != nil {
		t.Fatal(err)
	}
	var e Euclidean
	a := []float64{0, 0}
	b := []float64{3, 4}
	if math.Abs(m.Distance(a, b)-e.Distance(a, b)) > 1e-9 {
		t.Fatalf("identity-covariance Mahalanobis should match Euclidean")
	}
}

func TestMahalanobisSingularErrors(t *testing.T) {
	sigma := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	if _, err := NewMahalanobis(sigma); err == nil {
		t.Fatal("expected error for singular covariance")
	}
}
