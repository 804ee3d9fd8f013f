// Package reducer implements the live-point reduction schedules of
// spec.md §4.5. A Reducer is a pure function of the iteration index; it
// holds no reference back to the sampler (spec.md §9: "cyclic references
// between sampler and reducer ... should be broken by passing the needed
// scalars at each call rather than holding a back-reference").
package reducer

import "math"

// Reducer computes the target live-point population size at a given
// iteration. The driver (package nested) is responsible for enforcing
// that the returned target is monotone non-increasing and never below
// nMin; a Reducer implementation does not need to track prior calls.
type Reducer interface {
	TargetNlive(iteration int, nInitial, nMin int) int
}

// Feroz implements N(i) = N_min + (N_initial-N_min)*exp(-i*tolerance),
// the schedule named after Feroz et al.'s MultiNest reduction policy.
type Feroz struct {
	Tolerance float64
}

// TargetNlive returns the Feroz-schedule target for iteration i.
func (f Feroz) TargetNlive(i, nInitial, nMin int) int {
	target := float64(nMin) + float64(nInitial-nMin)*math.Exp(-float64(i)*f.Tolerance)
	return clampTarget(target, nInitial, nMin)
}

// Exponential implements N(i) = floor(N_initial*exp(-i*rate)), floored
// at N_min.
type Exponential struct {
	Rate float64
}

// TargetNlive returns the exponential-decay target for iteration i.
func (e Exponential) TargetNlive(i, nInitial, nMin int) int {
	target := math.Floor(float64(nInitial) * math.Exp(-float64(i)*e.Rate))
	return clampTarget(target, nInitial, nMin)
}

// Fixed never reduces the live-point population; useful for tests and
// for the D=1, N_live=N_min=1 degenerate boundary case of spec.md §8.
type Fixed struct{}

// TargetNlive always returns nInitial.
func (Fixed) TargetNlive(_ int, nInitial, _ int) int { return nInitial }

func clampTarget(target float64, nInitial, nMin int) int {
	t := int(math.Round(target))
	if t < nMin {
		t = nMin
	}
	if t > nInitial {
		t = nInitial
	}
	return t
}
