// Package results implements the ResultsExtractor (spec.md §4.7):
// per-dimension marginal statistics (mean, median, mode, shortest
// credible interval) from a weighted posterior sample, plus a Writer
// that serializes the run's output artifacts in the five file formats
// spec.md §6 fixes.
//
// spec.md §9 flags the original's use of an `== -DBL_MAX` sentinel to
// mark duplicate parameter values as fragile; this package merges tied
// values with an explicit weight-accumulation pass instead (a plain
// map keyed on the value, not a sentinel float comparison).
package results

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyPosterior is returned by Extract when given no samples.
var ErrEmptyPosterior = errors.New("results: empty posterior sample")

// Sample is one weighted posterior draw: a physical parameter vector,
// its log-likelihood, and its (un-normalized) log weight.
type Sample struct {
	Phys []float64
	LogL float64
	LogW float64
}

// Summary holds the marginal statistics for a single parameter
// dimension (spec.md §4.7, §6's ParameterSummary row).
type Summary struct {
	Mean        float64
	Median      float64
	Mode        float64
	LowerOffset float64 // mode - (lower edge of the shortest credible interval)
	UpperOffset float64 // (upper edge of the shortest credible interval) - mode
}

// Extract computes per-dimension Summary statistics from a posterior
// sample and its total evidence logZ. credLevel is the credible-interval
// mass (e.g. 0.68); nBins controls the histogram resolution used for
// mode-finding.
func Extract(samples []Sample, logZ float64, credLevel float64, nBins int) ([]Summary, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyPosterior
	}
	dim := len(samples[0].Phys)
	weights := make([]float64, len(samples))
	for i, s := range samples {
		weights[i] = math.Exp(s.LogW - logZ)
	}

	summaries := make([]Summary, dim)
	for k := 0; k < dim; k++ {
		x := make([]float64, len(samples))
		for i, s := range samples {
			x[i] = s.Phys[k]
		}
		vals, w := mergeTies(x, weights)
		summaries[k] = summarizeDimension(vals, w, credLevel, nBins)
	}
	return summaries, nil
}

// mergeTies groups equal x values, summing their weights, and returns
// both slices sorted ascending by x (spec.md §4.7: "ties in theta values
// are merged before marginalization").
func mergeTies(x, w []float64) (vals, weights []float64) {
	type pair struct {
		x, w float64
	}
	merged := make(map[float64]float64, len(x))
	for i, v := range x {
		merged[v] += w[i]
	}
	pairs := make([]pair, 0, len(merged))
	for v, wt := range merged {
		pairs = append(pairs, pair{v, wt})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })
	vals = make([]float64, len(pairs))
	weights = make([]float64, len(pairs))
	for i, p := range pairs {
		vals[i] = p.x
		weights[i] = p.w
	}
	return vals, weights
}

// summarizeDimension computes mean/median/mode/credible-interval offsets
// for one dimension's already-merged, sorted (value, weight) pairs.
func summarizeDimension(vals, weights []float64, credLevel float64, nBins int) Summary {
	mean := stat.Mean(vals, weights)
	median := stat.Quantile(0.5, stat.Empirical, vals, weights)
	mode := histogramMode(vals, weights, nBins)
	lo, hi := shortestCredibleInterval(vals, weights, credLevel)

	return Summary{
		Mean:        mean,
		Median:      median,
		Mode:        mode,
		LowerOffset: mode - lo,
		UpperOffset: hi - mode,
	}
}

// histogramMode bins the weighted sample into nBins equal-width bins and
// returns the center of the highest-weight bin.
func histogramMode(vals, weights []float64, nBins int) float64 {
	if nBins < 1 {
		nBins = 1
	}
	lo, hi := vals[0], vals[len(vals)-1]
	if hi <= lo {
		return lo
	}
	width := (hi - lo) / float64(nBins)
	bins := make([]float64, nBins)
	for i, v := range vals {
		b := int((v - lo) / width)
		if b >= nBins {
			b = nBins - 1
		}
		if b < 0 {
			b = 0
		}
		bins[b] += weights[i]
	}
	best := 0
	for i := 1; i < nBins; i++ {
		if bins[i] > bins[best] {
			best = i
		}
	}
	return lo + width*(float64(best)+0.5)
}

// shortestCredibleInterval finds the narrowest contiguous window over
// the sorted (value, weight) support whose weight mass is at least
// credLevel, via a two-pointer sweep (spec.md §4.7: "smallest contiguous
// mass >= p").
func shortestCredibleInterval(vals, weights []float64, credLevel float64) (lo, hi float64) {
	n := len(vals)
	var total float64
	for _, w := range weights {
		total += w
	}
	target := credLevel * total

	lo, hi = vals[0], vals[n-1]
	bestWidth := hi - lo

	i, j := 0, 0
	var mass float64
	for j < n {
		mass += weights[j]
		for mass >= target && i <= j {
			if w := vals[j] - vals[i]; w < bestWidth {
				bestWidth = w
				lo, hi = vals[i], vals[j]
			}
			mass -= weights[i]
			i++
		}
		j++
	}
	return lo, hi
}
