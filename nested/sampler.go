package nested

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vishalbelsare/DIAMONDS/cluster"
	"github.com/vishalbelsare/DIAMONDS/constrained"
	"github.com/vishalbelsare/DIAMONDS/internal/logspace"
	"github.com/vishalbelsare/DIAMONDS/measure"
	"github.com/vishalbelsare/DIAMONDS/metric"
	"github.com/vishalbelsare/DIAMONDS/prior"
	"github.com/vishalbelsare/DIAMONDS/reducer"
	"github.com/vishalbelsare/DIAMONDS/rng"
)

// ErrInitFailed is returned when the initial live-point population could
// not be filled with finite-likelihood points within a generous attempt
// budget; this almost always indicates a likelihood/prior mismatch
// (support mostly infeasible) rather than bad luck.
var ErrInitFailed = errors.New("nested: failed to initialize live set")

// LikelihoodFunc evaluates the user's log-likelihood at a physical
// parameter vector; must return math.Inf(-1) outside its support.
type LikelihoodFunc = constrained.LikelihoodFunc

// LivePoint is one member of the current live population.
type LivePoint struct {
	Unit []float64
	Phys []float64
	LogL float64
}

// PosteriorSample is one weighted posterior draw accumulated over the
// run: a dead point (or, at finalization, a surviving live point) with
// its associated log prior-mass weight.
type PosteriorSample struct {
	Phys []float64
	LogL float64
	LogW float64 // log(weight), NOT yet normalized by logZ
}

// Result is the outcome of a completed or partially-completed run.
type Result struct {
	Posterior   []PosteriorSample
	LogZ        float64
	LogZErr     float64
	Information float64
	Iterations  int
	Converged   bool
}

// Sampler drives the nested sampling loop described in spec.md §4.1. The
// zero value is not usable; construct with New.
type Sampler struct {
	cfg     Config
	pr      prior.Prior
	like    LikelihoodFunc
	red     reducer.Reducer
	met     metric.Metric
	rec     *measure.Recorder
	masterS *rng.Stream

	live         []LivePoint
	nLiveCurrent int

	ellipsoids *constrained.EllipsoidSet

	iteration int
	logXPrev  float64 // log X_{i-1}, log X_0 = 0
	logZ      float64
	infoH     float64

	posterior []PosteriorSample
}

// New constructs a Sampler. red may be nil, in which case the live
// population is never reduced (equivalent to reducer.Fixed). met may be
// nil, in which case Euclidean distance is used for clustering.
func New(cfg Config, pr prior.Prior, like LikelihoodFunc, red reducer.Reducer, met metric.Metric) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, fmt.Errorf("%w: prior must not be nil", ErrConfigInvalid)
	}
	if like == nil {
		return nil, fmt.Errorf("%w: likelihood must not be nil", ErrConfigInvalid)
	}
	if red == nil {
		red = reducer.Fixed{}
	}
	if met == nil {
		met = metric.Euclidean{}
	}
	return &Sampler{
		cfg:      cfg,
		pr:       pr,
		like:     like,
		red:      red,
		met:      met,
		rec:      measure.NewRecorder(),
		masterS:  rng.New(cfg.Seed),
		logXPrev: 0,
		logZ:     logspace.NegInf,
	}, nil
}

// Recorder exposes the run's telemetry sink for callers that want to
// snapshot timings and counters mid-run or after Run returns.
func (s *Sampler) Recorder() *measure.Recorder { return s.rec }

// Run executes the nested sampling loop until termination, exhaustion,
// or cancellation via ctx. On ErrDrawExhausted or ctx cancellation, the
// partial Result accumulated so far is still returned alongside the
// error.
func (s *Sampler) Run(ctx context.Context) (Result, error) {
	if err := s.initLiveSet(ctx); err != nil {
		return s.partialResult(false), err
	}

	if err := s.rebuildEllipsoids(true); err != nil {
		return s.partialResult(false), err
	}

	maxIter := s.cfg.maxIterations()
	for s.iteration = 1; s.iteration <= maxIter; s.iteration++ {
		select {
		case <-ctx.Done():
			return s.partialResult(false), ErrCancelled
		default:
		}

		if err := s.runOneIteration(ctx); err != nil {
			return s.partialResult(false), err
		}

		if s.shouldRecluster() {
			if err := s.rebuildEllipsoids(true); err != nil {
				return s.partialResult(false), err
			}
		}

		if s.terminated() {
			s.finalize()
			return s.partialResult(true), nil
		}
	}
	// The iteration cap was reached before the termination test fired.
	s.iteration = maxIter
	s.finalize()
	return s.partialResult(false), nil
}

func (s *Sampler) partialResult(converged bool) Result {
	return Result{
		Posterior:   append([]PosteriorSample(nil), s.posterior...),
		LogZ:        s.logZ,
		LogZErr:     math.Sqrt(math.Max(s.infoH, 0) / float64(s.cfg.NInitial)),
		Information: s.infoH,
		Iterations:  s.iteration,
		Converged:   converged,
	}
}

// initLiveSet draws NInitial live points uniformly from the unit
// hypercube, re-drawing any point whose likelihood comes back
// -Inf or NaN (spec.md §4.1 "initialization" implicitly requires a
// well-defined worst point, which an unbounded population of -Inf
// points would break).
func (s *Sampler) initLiveSet(ctx context.Context) error {
	dim := s.pr.Dim()
	s.live = make([]LivePoint, s.cfg.NInitial)
	s.nLiveCurrent = s.cfg.NInitial

	const maxAttemptsPerPoint = 10000
	for i := range s.live {
		select {
		case <-ctx.Done():
			return ErrCancelled
		default:
		}
		ok := false
		for attempt := 0; attempt < maxAttemptsPerPoint; attempt++ {
			u := drawUnit(dim, s.masterS)
			theta := s.pr.FromUnit(u)
			logL := s.like(theta)
			if !math.IsInf(logL, -1) && !math.IsNaN(logL) {
				s.live[i] = LivePoint{Unit: u, Phys: theta, LogL: logL}
				ok = true
				break
			}
		}
		if !ok {
			return ErrInitFailed
		}
	}
	return nil
}

func drawUnit(dim int, s *rng.Stream) []float64 {
	u := make([]float64, dim)
	for i := range u {
		u[i] = s.Float64()
	}
	return u
}

// worstIndex returns the index of the minimum-likelihood active live
// point.
func (s *Sampler) worstIndex() int {
	worst := 0
	for i := 1; i < s.nLiveCurrent; i++ {
		if s.live[i].LogL < s.live[worst].LogL {
			worst = i
		}
	}
	return worst
}

// shellAndAccumulate advances the prior-mass shell by one point drawn
// from a population of size nLive, folding its contribution into logZ
// and the information accumulator H (spec.md §4.1's running-moment
// update), and appends it as a posterior sample.
func (s *Sampler) shellAndAccumulate(logL float64, phys []float64, nLive int) {
	logXi := s.logXPrev - 1/float64(nLive)
	logDeltaX := logspace.LogSubExp(s.logXPrev, logXi)
	logW := logDeltaX + logL

	logZNew := logspace.LogSumExp(s.logZ, logW)

	var secondTerm float64
	if !math.IsInf(s.logZ, -1) {
		secondTerm = math.Exp(s.logZ-logZNew) * (s.infoH + s.logZ)
	}
	s.infoH = math.Exp(logW-logZNew)*logL + secondTerm - logZNew

	s.logZ = logZNew
	s.logXPrev = logXi

	s.posterior = append(s.posterior, PosteriorSample{
		Phys: append([]float64(nil), phys...),
		LogL: logL,
		LogW: logW,
	})
}

// runOneIteration performs one replacement cycle: identify the worst
// live point, shell the prior mass past it, draw its replacement, then
// reduce the live population toward the reducer's target (spec.md
// §4.1, §4.5).
func (s *Sampler) runOneIteration(ctx context.Context) error {
	worst := s.worstIndex()
	logLWorst := s.live[worst].LogL
	s.shellAndAccumulate(logLWorst, s.live[worst].Phys, s.nLiveCurrent)

	sub := s.masterS.Split(uint64(s.iteration))
	res, err := s.ellipsoids.DrawReplacement(ctx, logLWorst, s.cfg.MaxDrawAttempts, s.cfg.Workers, s.pr.FromUnit, s.like, sub, s.rec)
	if err != nil {
		return fmt.Errorf("nested: iteration %d: %w", s.iteration, err)
	}
	s.live[worst] = LivePoint{Unit: res.Unit, Phys: res.Phys, LogL: res.LogL}

	s.reduceLiveSet()
	return nil
}

// reduceLiveSet drops the current worst live points, one at a time,
// until the population matches the reducer's target for this iteration
// (spec.md §4.5); each dropped point contributes a weighted term to the
// evidence exactly like a normal replacement step, but is removed rather
// than replaced.
func (s *Sampler) reduceLiveSet() {
	target := s.red.TargetNlive(s.iteration, s.cfg.NInitial, s.cfg.NMin)
	if target > s.nLiveCurrent {
		target = s.nLiveCurrent
	}
	if target < s.cfg.NMin {
		target = s.cfg.NMin
	}
	for s.nLiveCurrent > target {
		w := s.worstIndex()
		s.shellAndAccumulate(s.live[w].LogL, s.live[w].Phys, s.nLiveCurrent)
		last := s.nLiveCurrent - 1
		s.live[w] = s.live[last]
		s.nLiveCurrent = last
	}
}

// shouldRecluster reports whether ellipsoid geometry must be rebuilt
// before the next iteration: every iteration during the no-clustering
// warm-up window, then every n_reclust_period iterations afterward
// (spec.md §4.1, §4.3). Between rebuilds the last geometry is reused.
func (s *Sampler) shouldRecluster() bool {
	if s.iteration < s.cfg.NInitialNoClust {
		return true
	}
	elapsed := s.iteration - s.cfg.NInitialNoClust
	return elapsed >= 0 && elapsed%s.cfg.NReclustPeriod == 0
}

// rebuildEllipsoids refits the multi-ellipsoid geometry from the
// current active live set. During the no-clustering warm-up window (or
// when useClustering is false) the live set is treated as one cluster;
// afterward it is partitioned by package cluster.
func (s *Sampler) rebuildEllipsoids(useClustering bool) error {
	unit := make([][]float64, s.nLiveCurrent)
	for i := 0; i < s.nLiveCurrent; i++ {
		unit[i] = s.live[i].Unit
	}

	var groups [][][]float64
	if !useClustering || s.iteration <= s.cfg.NInitialNoClust {
		groups = [][][]float64{unit}
	} else {
		sub := s.masterS.Split(uint64(s.iteration) + (1 << 32))
		a, err := cluster.Cluster(unit, s.cfg.KMin, s.cfg.KMax, s.cfg.NTrials, s.cfg.RelTol, s.met, sub)
		if err != nil {
			return fmt.Errorf("nested: reclustering at iteration %d: %w", s.iteration, err)
		}
		groups = make([][][]float64, a.K)
		for i, lbl := range a.Labels {
			groups[lbl] = append(groups[lbl], unit[i])
		}
	}

	xCurrent := math.Exp(s.logXPrev)
	es, err := constrained.BuildEllipsoidSet(groups, s.nLiveCurrent, xCurrent, s.cfg.InitialEnlargementFraction, s.cfg.ShrinkingRate)
	if err != nil {
		return fmt.Errorf("nested: building ellipsoid set at iteration %d: %w", s.iteration, err)
	}
	s.ellipsoids = es
	return nil
}

// terminated evaluates spec.md §4.1's stopping rule: the estimated
// remaining evidence (the best live likelihood times the remaining
// prior mass) must fall below termination_factor times the evidence
// already accumulated.
func (s *Sampler) terminated() bool {
	if math.IsInf(s.logZ, -1) {
		return false
	}
	maxLogL := math.Inf(-1)
	for i := 0; i < s.nLiveCurrent; i++ {
		if s.live[i].LogL > maxLogL {
			maxLogL = s.live[i].LogL
		}
	}
	remaining := maxLogL + s.logXPrev
	return remaining-s.logZ < math.Log(s.cfg.TerminationFactor)
}

// finalize distributes the remaining prior mass uniformly across the
// surviving live points, folding each into the evidence and posterior
// sample set (spec.md §4.1 "finalization").
func (s *Sampler) finalize() {
	for i := 0; i < s.nLiveCurrent; i++ {
		logW := s.logXPrev - math.Log(float64(s.nLiveCurrent)) + s.live[i].LogL
		logZNew := logspace.LogSumExp(s.logZ, logW)
		var secondTerm float64
		if !math.IsInf(s.logZ, -1) {
			secondTerm = math.Exp(s.logZ-logZNew) * (s.infoH + s.logZ)
		}
		s.infoH = math.Exp(logW-logZNew)*s.live[i].LogL + secondTerm - logZNew
		s.logZ = logZNew
		s.posterior = append(s.posterior, PosteriorSample{
			Phys: append([]float64(nil), s.live[i].Phys...),
			LogL: s.live[i].LogL,
			LogW: logW,
		})
	}
}
