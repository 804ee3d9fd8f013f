// Package metric defines the narrow distance capability the clusterer
// depends on (spec.md §9: "Metric: {distance}"), with Euclidean and
// Mahalanobis implementations.
package metric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Metric computes a distance between two points of the same dimension.
type Metric interface {
	Distance(a, b []float64) float64
}

// Euclidean is the plain L2 metric.
type Euclidean struct{}

// Distance returns the Euclidean distance between a and b.
func (Euclidean) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Mahalanobis computes distance under a fixed inverse-covariance metric
// tensor: sqrt((a-b)^T Sigma^-1 (a-b)).
type Mahalanobis struct {
	dim    int
	sigInv *mat.Dense
}

// NewMahalanobis builds a Mahalanobis metric from a covariance matrix.
func NewMahalanobis(sigma *mat.SymDense) (*Mahalanobis, error) {
	n, _ := sigma.Dims()
	var inv mat.Dense
	if err := inv.Inverse(sigma); err != nil {
		return nil, fmt.Errorf("metric: covariance not invertible: %w", err)
	}
	return &Mahalanobis{dim: n, sigInv: &inv}, nil
}

// Distance returns the Mahalanobis distance between a and b.
func (m *Mahalanobis) Distance(a, b []float64) float64 {
	diff := mat.NewVecDense(m.dim, nil)
	for i := 0; i < m.dim; i++ {
		diff.SetVec(i, a[i]-b[i])
	}
	var tmp mat.VecDense
	tmp.MulVec(m.sigInv, diff)
	d := mat.Dot(diff, &tmp)
	if d < 0 {
		d = 0
	}
	return math.Sqrt(d)
}
