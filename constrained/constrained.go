// Package constrained implements the multi-ellipsoidal constrained
// prior sampler (spec.md §4.2): build one enlarged bounding ellipsoid
// per cluster, then draw replacement live points uniformly from the
// union of ellipsoids — picking an ellipsoid with probability
// proportional to its volume, correcting for double-counted overlap
// regions by accepting with probability 1/q where q is the number of
// ellipsoids containing the candidate — subject to the hard likelihood
// constraint L(theta) > L_min.
//
// The rejection/acceptance shape (propose, compute an acceptance ratio,
// compare to a fresh uniform draw) mirrors the teacher's own sampler
// (JonasLazardGIT-SPRUCE/ntru/sampler_z.go's sampleZ). The optional
// bounded concurrency across draw attempts (spec.md §5) is implemented
// with golang.org/x/sync/errgroup.
package constrained

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vishalbelsare/DIAMONDS/ellipsoid"
	"github.com/vishalbelsare/DIAMONDS/measure"
	"github.com/vishalbelsare/DIAMONDS/rng"
)

// ErrDrawExhausted is returned when max_attempts replacement draws all
// failed to find a point above the likelihood threshold (spec.md §7:
// fatal, the evidence estimate is no longer unbiased past this point).
var ErrDrawExhausted = errors.New("constrained: draw exhausted")

// LikelihoodFunc evaluates the user's log-likelihood at a physical
// parameter vector. Must return math.Inf(-1) for infeasible inputs.
type LikelihoodFunc func(theta []float64) float64

// FromUnitFunc maps a unit-hypercube point to physical coordinates
// (Prior.fromUnit in spec.md §4.6).
type FromUnitFunc func(u []float64) []float64

// Result is a single accepted replacement draw.
type Result struct {
	Unit     []float64
	Phys     []float64
	LogL     float64
	Attempts int
}

// EllipsoidSet is the enlarged ellipsoid union built from a cluster
// assignment, ready for weighted union sampling.
type EllipsoidSet struct {
	ellipsoids  []*ellipsoid.Ellipsoid
	cumVolume   []float64
	totalVolume float64
}

// BuildEllipsoidSet fits one enlarged ellipsoid per cluster (spec.md
// §4.2 "Ellipsoid construction"). clusters maps a cluster index to the
// unit-space points assigned to it. nLive is the total live population
// size (used to scale enlargement down for small clusters); xCurrent is
// the current prior mass X_i; initialEnlargementFraction and
// shrinkingRate are the corresponding config knobs (spec.md §6).
func BuildEllipsoidSet(clusters [][][]float64, nLive int, xCurrent, initialEnlargementFraction, shrinkingRate float64) (*EllipsoidSet, error) {
	clusters = mergeDegenerateClusters(clusters)

	es := &EllipsoidSet{}
	for _, pts := range clusters {
		if len(pts) == 0 {
			continue
		}
		e, err := ellipsoid.FromPoints(pts, 0)
		if err != nil {
			return nil, err
		}
		f := initialEnlargementFraction * enlargementShrink(xCurrent, shrinkingRate) * (float64(len(pts)) / float64(nLive))
		e.Enlarge(f)
		e.GrowToEnclose(pts)
		es.ellipsoids = append(es.ellipsoids, e)
	}
	es.rebuildVolumeIndex()
	return es, nil
}

// mergeDegenerateClusters probes each cluster with a trial FromPoints
// fit and, on ErrDegenerateCovariance (spec.md §7: "recover by merging
// the cluster with its nearest neighbor, log a warning"), folds its
// points into the nearest surviving cluster by centroid distance. Runs
// to a fixed point since a merge can itself produce a larger but still
// degenerate cluster only in pathological (all-coincident-point) cases,
// which terminate once a single cluster remains.
func mergeDegenerateClusters(clusters [][][]float64) [][][]float64 {
	groups := make([][][]float64, 0, len(clusters))
	for _, pts := range clusters {
		if len(pts) > 0 {
			groups = append(groups, pts)
		}
	}

	for {
		badIdx := -1
		for i, pts := range groups {
			if _, err := ellipsoid.FromPoints(pts, 0); err != nil && errors.Is(err, ellipsoid.ErrDegenerateCovariance) {
				badIdx = i
				break
			}
		}
		if badIdx == -1 || len(groups) <= 1 {
			return groups
		}

		nearest := nearestOtherCluster(groups, badIdx)
		log.Printf("constrained: cluster %d has a degenerate covariance after flooring; merging into cluster %d", badIdx, nearest)
		groups[nearest] = append(groups[nearest], groups[badIdx]...)
		groups = append(groups[:badIdx], groups[badIdx+1:]...)
	}
}

// nearestOtherCluster returns the index (excluding idx) of the cluster
// whose centroid is closest in Euclidean distance to the centroid of
// groups[idx].
func nearestOtherCluster(groups [][][]float64, idx int) int {
	target := centroid(groups[idx])
	best, bestD := -1, math.Inf(1)
	for i, pts := range groups {
		if i == idx {
			continue
		}
		c := centroid(pts)
		var d float64
		for j := range target {
			diff := target[j] - c[j]
			d += diff * diff
		}
		if d < bestD {
			bestD = d
			best = i
		}
	}
	if best == -1 {
		best = 0
	}
	return best
}

func centroid(pts [][]float64) []float64 {
	dim := len(pts[0])
	c := make([]float64, dim)
	for _, p := range pts {
		for j, v := range p {
			c[j] += v
		}
	}
	for j := range c {
		c[j] /= float64(len(pts))
	}
	return c
}

// enlargementShrink returns x^shrinkingRate, the X_i^shrinkingRate term
// of spec.md §4.2's enlargement formula (0 once X has underflowed to 0).
func enlargementShrink(x, shrinkingRate float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Pow(x, shrinkingRate)
}

func (es *EllipsoidSet) rebuildVolumeIndex() {
	es.cumVolume = make([]float64, len(es.ellipsoids))
	var total float64
	for i, e := range es.ellipsoids {
		total += e.Volume()
		es.cumVolume[i] = total
	}
	es.totalVolume = total
}

// Ellipsoids exposes the built ellipsoid set (read-only use: plotting,
// diagnostics).
func (es *EllipsoidSet) Ellipsoids() []*ellipsoid.Ellipsoid { return es.ellipsoids }

// pickEllipsoid chooses an ellipsoid index with probability proportional
// to its volume.
func (es *EllipsoidSet) pickEllipsoid(s *rng.Stream) int {
	if len(es.ellipsoids) == 1 {
		return 0
	}
	target := s.Float64() * es.totalVolume
	for i, c := range es.cumVolume {
		if target <= c {
			return i
		}
	}
	return len(es.ellipsoids) - 1
}

// overlapCount returns how many ellipsoids in the set contain x.
func (es *EllipsoidSet) overlapCount(x []float64) int {
	n := 0
	for _, e := range es.ellipsoids {
		if e.Contains(x) {
			n++
		}
	}
	return n
}

// attempt runs one draw: sample, overlap-correct, reject outside the
// unit hypercube, transform, evaluate. Returns ok=false on any rejection.
func (es *EllipsoidSet) attempt(s *rng.Stream, logLMin float64, fromUnit FromUnitFunc, loglike LikelihoodFunc) (Result, bool) {
	k := es.pickEllipsoid(s)
	x := es.ellipsoids[k].SampleUniform(s)

	q := es.overlapCount(x)
	if q == 0 {
		// x fell outside every ellipsoid due to floating-point edge
		// effects at the boundary; treat as a rejection.
		return Result{}, false
	}
	if s.Float64() > 1.0/float64(q) {
		return Result{}, false
	}
	for _, v := range x {
		if v < 0 || v > 1 {
			return Result{}, false
		}
	}
	theta := fromUnit(x)
	logL := loglike(theta)
	if logL > logLMin {
		return Result{Unit: x, Phys: theta, LogL: logL}, true
	}
	return Result{}, false
}

// DrawReplacement draws a replacement live point above logLMin, trying
// up to maxAttempts candidates total. If workers > 1, attempts run
// concurrently across that many goroutines, each with an independent
// RNG sub-stream split off s, joining on the first success
// (spec.md §5); the driver still receives exactly one point.
func (es *EllipsoidSet) DrawReplacement(ctx context.Context, logLMin float64, maxAttempts, workers int, fromUnit FromUnitFunc, loglike LikelihoodFunc, s *rng.Stream, rec *measure.Recorder) (Result, error) {
	if workers <= 1 {
		return es.drawSequential(logLMin, maxAttempts, fromUnit, loglike, s, rec)
	}
	return es.drawParallel(ctx, logLMin, maxAttempts, workers, fromUnit, loglike, s, rec)
}

func (es *EllipsoidSet) drawSequential(logLMin float64, maxAttempts int, fromUnit FromUnitFunc, loglike LikelihoodFunc, s *rng.Stream, rec *measure.Recorder) (Result, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, ok := es.attempt(s, logLMin, fromUnit, loglike)
		if rec != nil {
			rec.Add("draw_attempts", 1)
		}
		if ok {
			res.Attempts = attempt
			return res, nil
		}
	}
	return Result{}, ErrDrawExhausted
}

func (es *EllipsoidSet) drawParallel(parent context.Context, logLMin float64, maxAttempts, workers int, fromUnit FromUnitFunc, loglike LikelihoodFunc, s *rng.Stream, rec *measure.Recorder) (Result, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var attempts int64
	var mu sync.Mutex
	var result Result
	found := false

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		sub := s.Split(uint64(w))
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				n := atomic.AddInt64(&attempts, 1)
				if n > int64(maxAttempts) {
					return nil
				}
				res, ok := es.attempt(sub, logLMin, fromUnit, loglike)
				if rec != nil {
					rec.Add("draw_attempts", 1)
				}
				if ok {
					mu.Lock()
					if !found {
						found = true
						result = res
						result.Attempts = int(n)
						cancel()
					}
					mu.Unlock()
					return nil
				}
			}
		})
	}
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	if !found {
		return Result{}, ErrDrawExhausted
	}
	return result, nil
}
