// Package cluster implements the k-means-with-trial-repetition clusterer
// (spec.md §4.3): k-means++ seeded Lloyd's algorithm, N_trials restarts
// per candidate K, and a BIC-like criterion to pick K in [K_min,K_max].
// Structurally grounded on the k-means implementation found in the
// retrieval pack (_examples/other_examples/..._Todmy-doc-analyzer__internal-clustering-kmeans.go.go):
// a Fit loop driven by squared-distance inertia, k-means++
// initialization, and gonum/floats-based centroid updates.
package cluster

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/vishalbelsare/DIAMONDS/metric"
	"github.com/vishalbelsare/DIAMONDS/rng"
)

// ErrNoPoints is returned when Cluster is called with no points.
var ErrNoPoints = errors.New("cluster: no points")

// MaxLloydIterations caps Lloyd's algorithm per restart, per spec.md §4.3.
const MaxLloydIterations = 50

// Assignment is the result of clustering: a surjection from point index
// to cluster index in [0,K), with no empty clusters.
type Assignment struct {
	K         int
	Labels    []int
	Centroids [][]float64
	Cost      float64 // total within-cluster sum of squared distances
}

// Cluster partitions points into between kMin and kMax clusters,
// selecting K via a BIC-like criterion: cost(K) + K*dim*ln(N). It runs
// nTrials k-means++ restarts per K, iterating Lloyd's algorithm until
// the relative change in cost falls below relTol or MaxLloydIterations
// is reached. Empty clusters are dropped (K decremented accordingly);
// if every candidate K collapses to zero clusters, falls back to K=1.
func Cluster(points [][]float64, kMin, kMax, nTrials int, relTol float64, m metric.Metric, s *rng.Stream) (Assignment, error) {
	if len(points) == 0 {
		return Assignment{}, ErrNoPoints
	}
	n := len(points)
	dim := len(points[0])
	if m == nil {
		m = metric.Euclidean{}
	}
	if kMax > n {
		kMax = n
	}
	if kMin < 1 {
		kMin = 1
	}
	if kMax < kMin {
		kMax = kMin
	}

	var best Assignment
	bestBIC := math.Inf(1)
	haveBest := false

	for k := kMin; k <= kMax; k++ {
		var bestForK Assignment
		bestCostForK := math.Inf(1)
		haveForK := false
		for trial := 0; trial < nTrials; trial++ {
			a := runOneLloyd(points, k, relTol, m, s)
			if a.K == 0 {
				continue // collapsed entirely; try another trial/K
			}
			if a.Cost < bestCostForK {
				bestCostForK = a.Cost
				bestForK = a
				haveForK = true
			}
		}
		if !haveForK {
			continue
		}
		bic := bestForK.Cost + float64(bestForK.K*dim)*math.Log(float64(n))
		if bic < bestBIC {
			bestBIC = bic
			best = bestForK
			haveBest = true
		}
	}

	if !haveBest {
		// Total collapse across every K: fall back to the trivial single
		// cluster containing everything (spec.md §4.3 failure policy).
		labels := make([]int, n)
		centroid := mean(points)
		var cost float64
		for _, p := range points {
			d := m.Distance(p, centroid)
			cost += d * d
		}
		return Assignment{K: 1, Labels: labels, Centroids: [][]float64{centroid}, Cost: cost}, nil
	}
	return best, nil
}

// runOneLloyd runs one k-means++ seeded Lloyd restart for a fixed K,
// returning an Assignment with empty clusters removed (and K adjusted).
func runOneLloyd(points [][]float64, k int, relTol float64, m metric.Metric, s *rng.Stream) Assignment {
	n := len(points)
	dim := len(points[0])
	centroids := kMeansPlusPlusInit(points, k, m, s)

	labels := make([]int, n)
	prevCost := math.Inf(1)
	var cost float64

	for iter := 0; iter < MaxLloydIterations; iter++ {
		cost = 0
		for i, p := range points {
			bestJ, bestD := 0, math.Inf(1)
			for j, c := range centroids {
				d := m.Distance(p, c)
				d2 := d * d
				if d2 < bestD {
					bestD = d2
					bestJ = j
				}
			}
			labels[i] = bestJ
			cost += bestD
		}

		if iter > 0 {
			denom := prevCost
			if denom == 0 {
				denom = 1
			}
			if math.Abs(prevCost-cost)/denom < relTol {
				break
			}
		}
		prevCost = cost

		counts := make([]int, k)
		newCentroids := make([][]float64, k)
		for j := range newCentroids {
			newCentroids[j] = make([]float64, dim)
		}
		for i, lbl := range labels {
			counts[lbl]++
			floats.Add(newCentroids[lbl], points[i])
		}
		for j := range newCentroids {
			if counts[j] > 0 {
				floats.Scale(1/float64(counts[j]), newCentroids[j])
			} else {
				newCentroids[j] = centroids[j] // keep stale centroid; will be dropped below
			}
		}
		centroids = newCentroids
	}

	return dropEmptyClusters(points, labels, centroids, m)
}

// dropEmptyClusters renumbers labels to remove empty clusters and
// recomputes the final cost under the surviving centroids.
func dropEmptyClusters(points [][]float64, labels []int, centroids [][]float64, m metric.Metric) Assignment {
	present := make([]bool, len(centroids))
	for _, l := range labels {
		present[l] = true
	}
	remap := make([]int, len(centroids))
	var kept [][]float64
	next := 0
	for j, c := range centroids {
		if present[j] {
			remap[j] = next
			kept = append(kept, c)
			next++
		} else {
			remap[j] = -1
		}
	}
	newLabels := make([]int, len(labels))
	var cost float64
	for i, l := range labels {
		nl := remap[l]
		newLabels[i] = nl
		d := m.Distance(points[i], kept[nl])
		cost += d * d
	}
	return Assignment{K: len(kept), Labels: newLabels, Centroids: kept, Cost: cost}
}

// kMeansPlusPlusInit seeds k centroids with k-means++: the first
// centroid is a uniform random point, each subsequent one is drawn with
// probability proportional to its squared distance to the nearest
// already-chosen centroid.
func kMeansPlusPlusInit(points [][]float64, k int, m metric.Metric, s *rng.Stream) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	first := points[s.Intn(n)]
	centroids = append(centroids, append([]float64(nil), first...))

	dist2 := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			best := math.Inf(1)
			for _, c := range centroids {
				d := m.Distance(p, c)
				if d2 := d * d; d2 < best {
					best = d2
				}
			}
			dist2[i] = best
			total += best
		}
		if total == 0 {
			// all remaining points coincide with a chosen centroid; pick arbitrarily
			centroids = append(centroids, append([]float64(nil), points[s.Intn(n)]...))
			continue
		}
		target := s.Float64() * total
		var acc float64
		chosen := n - 1
		for i, d2 := range dist2 {
			acc += d2
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), points[chosen]...))
	}
	return centroids
}

func mean(points [][]float64) []float64 {
	dim := len(points[0])
	out := make([]float64, dim)
	for _, p := range points {
		floats.Add(out, p)
	}
	floats.Scale(1/float64(len(points)), out)
	return out
}
