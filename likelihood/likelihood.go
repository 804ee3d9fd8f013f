// Package likelihood provides the reference log-likelihood functions
// named in spec.md §8's testable properties: toy distributions with
// known closed-form or well-characterized evidence, used to validate
// the sampler end to end and to drive the cmd/nestedsample demo.
package likelihood

import "math"

// Gaussian returns an (unnormalized) isotropic D-dimensional Gaussian
// log-likelihood with standard deviation sigma centered at the origin:
// logL(theta) = -0.5 * sum(theta_i^2) / sigma^2. Combined with a
// uniform box prior of half-width L, the evidence has the closed form
// D*log(sigma*sqrt(2*pi)/(2*L)) (spec.md §8.e).
func Gaussian(sigma float64) func(theta []float64) float64 {
	s2 := sigma * sigma
	return func(theta []float64) float64 {
		var sum float64
		for _, v := range theta {
			sum += v * v
		}
		return -0.5 * sum / s2
	}
}

// UnitGaussian is Gaussian(1), the D=2 scenario of spec.md §8.a.
func UnitGaussian(theta []float64) float64 {
	var sum float64
	for _, v := range theta {
		sum += v * v
	}
	return -0.5 * sum
}

// Himmelblau is exp(-f(x,y)/2) in log form, where f is Himmelblau's
// function: f(x,y) = (x^2+y-11)^2 + (x+y^2-7)^2. It has four widely
// separated global minima (spec.md §8.b), making it the canonical
// multi-modal clustering stress test.
func Himmelblau(theta []float64) float64 {
	x, y := theta[0], theta[1]
	a := x*x + y - 11
	b := x + y*y - 7
	f := a*a + b*b
	return -0.5 * f
}

// Eggbox is the classic multi-modal nested-sampling benchmark:
// L(x,y) ∝ (2+cos(x/2)*cos(y/2))^5 on [0,10*pi]^2 (spec.md §8.c).
func Eggbox(theta []float64) float64 {
	x, y := theta[0], theta[1]
	base := 2 + math.Cos(x/2)*math.Cos(y/2)
	return 5 * math.Log(base)
}

// Flat is logL=0 everywhere, used to validate the termination rule's
// iteration-count scaling independent of any likelihood shape
// (spec.md §8.d).
func Flat(_ []float64) float64 { return 0 }
