// Package ellipsoid implements the bounding-ellipsoid geometry primitive
// (spec.md §4.4): fit an ellipsoid to a point cloud via its mean and
// covariance, cache the covariance's eigendecomposition, enlarge it,
// test containment, sample uniformly from its interior, and report its
// volume.
//
// Geometry: { x : (x-c)^T (f*Sigma)^-1 (x-c) <= 1 }, represented not by
// Sigma directly but by its eigendecomposition (Q orthogonal, lambda_i >
// 0), which is what both the containment test and the uniform sampler
// need — computing it once at construction and reusing it is the same
// "build the operator once, apply many times" shape as the teacher's
// NTT-precomputed ring operators (ntru/matop.go, ntru/linop.go).
package ellipsoid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/vishalbelsare/DIAMONDS/rng"
)

// MinEigenvalueFloor is the default floor applied to near-singular or
// under-determined covariance eigenvalues (spec.md §4.2: "inflate its
// minimal eigenvalue to a floor ε").
const MinEigenvalueFloor = 1e-12

// ErrEmptyPoints is returned by FromPoints when given no points.
var ErrEmptyPoints = errors.New("ellipsoid: no points")

// ErrDegenerateCovariance is returned by FromPoints when the sample
// covariance's eigendecomposition fails to converge even after the
// minimal-eigenvalue floor is applied (spec.md §7: "cluster covariance
// not stabilizable after flooring"). Callers that build one ellipsoid
// per cluster (package constrained) are expected to recover by merging
// the offending cluster into its nearest neighbor rather than aborting
// the run.
var ErrDegenerateCovariance = errors.New("ellipsoid: degenerate covariance")

// Ellipsoid is an enlarged bounding ellipsoid in D-dimensional space.
type Ellipsoid struct {
	dim    int
	center []float64
	q      *mat.Dense // D x D, columns are eigenvectors of Sigma
	lambda []float64  // eigenvalues of Sigma, length D, all > 0
	f      float64    // enlargement factor, >= 1

	volCached    bool
	volBaseValue float64 // volume at f=1
}

// Dim returns the dimensionality.
func (e *Ellipsoid) Dim() int { return e.dim }

// Center returns a copy of the ellipsoid's center.
func (e *Ellipsoid) Center() []float64 { return append([]float64(nil), e.center...) }

// Enlargement returns the current enlargement factor f.
func (e *Ellipsoid) Enlargement() float64 { return e.f }

// FromPoints fits an ellipsoid to the sample mean and (unbiased, n-1
// denominator) sample covariance of points. If there are fewer than
// dim+1 points, or the resulting covariance is near-singular, the
// minimal eigenvalue(s) are floored at epsFloor (pass <= 0 to use
// MinEigenvalueFloor). The returned ellipsoid has f = 1; callers apply
// Enlarge and GrowToEnclose per spec.md §4.2.
func FromPoints(points [][]float64, epsFloor float64) (*Ellipsoid, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPoints
	}
	if epsFloor <= 0 {
		epsFloor = MinEigenvalueFloor
	}
	n := len(points)
	d := len(points[0])

	center := make([]float64, d)
	for _, p := range points {
		for i, v := range p {
			center[i] += v
		}
	}
	for i := range center {
		center[i] /= float64(n)
	}

	sigma := mat.NewSymDense(d, nil)
	denom := float64(n - 1)
	if denom <= 0 {
		denom = 1
	}
	for a := 0; a < d; a++ {
		for b := a; b < d; b++ {
			var sum float64
			for _, p := range points {
				sum += (p[a] - center[a]) * (p[b] - center[b])
			}
			sigma.SetSym(a, b, sum/denom)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sigma, true); !ok {
		return nil, fmt.Errorf("%w: eigendecomposition failed to converge", ErrDegenerateCovariance)
	}
	lambda := eig.Values(nil)
	var qMat mat.Dense
	eig.VectorsTo(&qMat)

	for i := range lambda {
		if lambda[i] < epsFloor {
			lambda[i] = epsFloor
		}
	}

	return &Ellipsoid{dim: d, center: center, q: &qMat, lambda: lambda, f: 1}, nil
}

// Enlarge sets the enlargement factor. f values below 1 are clamped to 1
// (an ellipsoid can never be shrunk below its fitted covariance).
func (e *Ellipsoid) Enlarge(f float64) {
	if f < 1 {
		f = 1
	}
	e.f = f
	e.volCached = false
}

// mahalanobisSqBase returns (x-c)^T Sigma^-1 (x-c), i.e. the Mahalanobis
// distance squared at f=1.
func (e *Ellipsoid) mahalanobisSqBase(x []float64) float64 {
	diff := make([]float64, e.dim)
	for i := range diff {
		diff[i] = x[i] - e.center[i]
	}
	// project diff onto the eigenbasis: proj = Q^T diff
	var sum float64
	for j := 0; j < e.dim; j++ {
		var proj float64
		for i := 0; i < e.dim; i++ {
			proj += e.q.At(i, j) * diff[i]
		}
		sum += (proj * proj) / e.lambda[j]
	}
	return sum
}

// GrowToEnclose raises f, if necessary, so that every point in pts
// satisfies Contains(pt) (spec.md §4.2: "clamp f_k to max Mahalanobis
// distance encountered"). It never lowers f.
func (e *Ellipsoid) GrowToEnclose(pts [][]float64) {
	maxSq := 0.0
	for _, p := range pts {
		if d := e.mahalanobisSqBase(p); d > maxSq {
			maxSq = d
		}
	}
	if maxSq > e.f {
		e.Enlarge(maxSq)
	}
}

// Contains reports whether x lies within the enlarged ellipsoid, i.e.
// (x-c)^T (f*Sigma)^-1 (x-c) <= 1.
func (e *Ellipsoid) Contains(x []float64) bool {
	return e.mahalanobisSqBase(x)/e.f <= 1.0
}

// Volume returns the current enlarged volume:
// f^(D/2) * pi^(D/2)/Gamma(D/2+1) * prod(sqrt(lambda_i)).
func (e *Ellipsoid) Volume() float64 {
	if !e.volCached {
		logProd := 0.0
		for _, l := range e.lambda {
			logProd += 0.5 * math.Log(l)
		}
		d := float64(e.dim)
		logBase := (d/2)*math.Log(math.Pi) - mustLgamma(d/2+1) + logProd
		e.volBaseValue = math.Exp(logBase)
		e.volCached = true
	}
	return math.Pow(e.f, float64(e.dim)/2) * e.volBaseValue
}

func mustLgamma(x float64) float64 {
	v, sign := math.Lgamma(x)
	if sign < 0 {
		// Gamma(x) is positive for all x we call this with (x = D/2+1, D>=1).
		panic("ellipsoid: unexpected negative gamma sign")
	}
	return v
}

// SampleUniform draws a point uniformly distributed within the enlarged
// ellipsoid (spec.md §4.2 step b): a random direction on the unit
// sphere, scaled by U^(1/D) for a uniform-in-volume radius, then mapped
// through sqrt(f) * Q * diag(sqrt(lambda)).
func (e *Ellipsoid) SampleUniform(s *rng.Stream) []float64 {
	v := s.UnitVector(e.dim)
	u := s.Float64()
	scale := math.Pow(u, 1.0/float64(e.dim))
	sqrtF := math.Sqrt(e.f)

	y := make([]float64, e.dim)
	for i := range y {
		y[i] = v[i] * scale * math.Sqrt(e.lambda[i])
	}

	out := make([]float64, e.dim)
	for i := 0; i < e.dim; i++ {
		var sum float64
		for j := 0; j < e.dim; j++ {
			sum += e.q.At(i, j) * y[j]
		}
		out[i] = e.center[i] + sqrtF*sum
	}
	return out
}
