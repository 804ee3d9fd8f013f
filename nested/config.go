// Package nested implements the top-level nested sampling driver
// (spec.md §4.1): the iteration loop that shells the prior, updates the
// evidence/information accumulators in log space, replaces the worst
// live point via the constrained sampler, reduces the live population
// on the configured schedule, periodically re-clusters and rebuilds the
// ellipsoid geometry, and finalizes once the termination test fires.
//
// Config mirrors the teacher's JSON-driven parameter/preset loading
// idiom (JonasLazardGIT-SPRUCE/credential/params.go loads a named preset
// from JSON with field-level validation), generalized from credential
// issuance parameters to sampler run parameters.
package nested

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrConfigInvalid is returned by Validate when a Config's fields fall
// outside the ranges the sampler can run with.
var ErrConfigInvalid = errors.New("nested: invalid config")

// ErrCancelled is returned by Run when the caller's context is done
// before the termination test fires.
var ErrCancelled = errors.New("nested: cancelled")

// Config holds every run parameter named in spec.md §6.
type Config struct {
	Seed int64 `json:"seed"`

	NInitial int `json:"n_initial"`
	NMin     int `json:"n_min"`

	MaxDrawAttempts int `json:"max_draw_attempts"`
	Workers         int `json:"workers"`

	NInitialNoClust int `json:"n_initial_noclust"`
	NReclustPeriod  int `json:"n_reclust_period"`

	KMin    int `json:"k_min"`
	KMax    int `json:"k_max"`
	NTrials int `json:"n_trials"`
	RelTol  float64 `json:"rel_tol"`

	InitialEnlargementFraction float64 `json:"initial_enlargement_fraction"`
	ShrinkingRate              float64 `json:"shrinking_rate"`

	TerminationFactor float64 `json:"termination_factor"`

	// MaxIterations is an engineering safety valve, not a sampler
	// parameter from the spec: an outer iteration cap so a
	// misconfigured run cannot loop forever (spec.md §5 sanctions an
	// outer iteration cap as the only acceptable form of timeout).
	// Zero means "use the package default".
	MaxIterations int `json:"max_iterations"`
}

// DefaultConfig returns reasonable defaults matching spec.md §8's
// canonical scenarios, suitable as a starting point for LoadConfig
// overrides.
func DefaultConfig() Config {
	return Config{
		Seed:                       1,
		NInitial:                   400,
		NMin:                       50,
		MaxDrawAttempts:            100000,
		Workers:                    1,
		NInitialNoClust:            0,
		NReclustPeriod:             50,
		KMin:                       1,
		KMax:                       10,
		NTrials:                    5,
		RelTol:                     1e-6,
		InitialEnlargementFraction: 1.0,
		ShrinkingRate:              0.0,
		TerminationFactor:          1e-3,
		MaxIterations:              2000000,
	}
}

// LoadConfig reads a JSON config file, starting from DefaultConfig and
// overriding any fields present in the file, then validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("nested: reading config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("nested: parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether a Config's fields are internally consistent
// and in range.
func (c Config) Validate() error {
	switch {
	case c.NInitial <= 0:
		return fmt.Errorf("%w: n_initial must be positive", ErrConfigInvalid)
	case c.NMin <= 0:
		return fmt.Errorf("%w: n_min must be positive", ErrConfigInvalid)
	case c.NMin > c.NInitial:
		return fmt.Errorf("%w: n_min must not exceed n_initial", ErrConfigInvalid)
	case c.MaxDrawAttempts <= 0:
		return fmt.Errorf("%w: max_draw_attempts must be positive", ErrConfigInvalid)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be non-negative", ErrConfigInvalid)
	case c.NInitialNoClust < 0:
		return fmt.Errorf("%w: n_initial_noclust must be non-negative", ErrConfigInvalid)
	case c.NReclustPeriod <= 0:
		return fmt.Errorf("%w: n_reclust_period must be positive", ErrConfigInvalid)
	case c.KMin < 1:
		return fmt.Errorf("%w: k_min must be at least 1", ErrConfigInvalid)
	case c.KMax < c.KMin:
		return fmt.Errorf("%w: k_max must be >= k_min", ErrConfigInvalid)
	case c.NTrials < 1:
		return fmt.Errorf("%w: n_trials must be at least 1", ErrConfigInvalid)
	case c.RelTol <= 0:
		return fmt.Errorf("%w: rel_tol must be positive", ErrConfigInvalid)
	case c.InitialEnlargementFraction <= 0:
		return fmt.Errorf("%w: initial_enlargement_fraction must be positive", ErrConfigInvalid)
	case c.ShrinkingRate < 0:
		return fmt.Errorf("%w: shrinking_rate must be non-negative", ErrConfigInvalid)
	case c.TerminationFactor <= 0 || c.TerminationFactor > 1:
		return fmt.Errorf("%w: termination_factor must be in (0,1]", ErrConfigInvalid)
	}
	return nil
}

func (c Config) maxIterations() int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	return DefaultConfig().MaxIterations
}
