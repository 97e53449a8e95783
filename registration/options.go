package registration

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// default values for basin hopping.
const (
	// Number of perturb-and-minimize hops after the initial local minimization.
	defaultIterations = 100

	// Half width of the uniform perturbation applied to every parameter.
	defaultStepSize = 0.5

	// Metropolis temperature, in units of the residual sum of squares.
	defaultTemperature = 1.0

	// The step size is adapted every this many hops.
	defaultStepAdaptInterval = 50

	// The step size is multiplied or divided by this much when adapted.
	defaultStepAdaptFactor = 0.9

	// Acceptance rate the step adaptation aims for.
	defaultTargetAcceptRate = 0.5

	// A minimum only replaces the best one found so far when it is lower by more than this.
	defaultTolerance = 1e-10

	// Maximum number of quasi-Newton iterations per local minimization.
	defaultLocalMaxIterations = 200

	// Local minimization stops when the gradient norm falls below this.
	defaultGradientTolerance = 1e-6

	// Step of the central-difference gradient.
	defaultGradientStep = 1e-6
)

// the set of supported local minimizers.
const (
	LocalSolverBFGS       = "bfgs"
	LocalSolverNloptLBFGS = "nlopt-lbfgs"
)

var localSolvers = []string{LocalSolverBFGS, LocalSolverNloptLBFGS}

// Options configure a Solver. Start from DefaultOptions; a job file decoded over the defaults only
// overrides the fields it names.
type Options struct {
	// Number of hops after the initial local minimization. Zero runs the initial minimization only.
	Iterations int `json:"iterations"`

	// Half width of the uniform perturbation applied to each parameter.
	StepSize float64 `json:"step_size"`

	// If positive, the translation parameters are perturbed with this half width instead of StepSize.
	// It is adapted together with StepSize.
	TranslationStepSize float64 `json:"translation_step_size,omitempty"`

	// Metropolis temperature. A value <= 0 only accepts hops that improve the current minimum.
	Temperature float64 `json:"temperature"`

	StepAdaptInterval int     `json:"step_adapt_interval"`
	StepAdaptFactor   float64 `json:"step_adapt_factor"`
	TargetAcceptRate  float64 `json:"target_accept_rate"`

	// Minimum improvement for a new minimum to replace the best one.
	Tolerance float64 `json:"tolerance"`

	// Number of independent chains to run concurrently. Chain i is seeded with Seed+i.
	Chains int   `json:"chains"`
	Seed   int64 `json:"seed"`

	// Local minimizer, one of "bfgs" or "nlopt-lbfgs".
	LocalSolver        string  `json:"local_solver"`
	LocalMaxIterations int     `json:"local_max_iterations"`
	GradientTolerance  float64 `json:"gradient_tolerance"`
	GradientStep       float64 `json:"gradient_step"`

	// If set, parallel line pairs fail the objective with ErrDegenerateGeometry instead of being
	// measured with the parallel line separation.
	StrictParallel bool `json:"strict_parallel"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Iterations:         defaultIterations,
		StepSize:           defaultStepSize,
		Temperature:        defaultTemperature,
		StepAdaptInterval:  defaultStepAdaptInterval,
		StepAdaptFactor:    defaultStepAdaptFactor,
		TargetAcceptRate:   defaultTargetAcceptRate,
		Tolerance:          defaultTolerance,
		Chains:             1,
		LocalSolver:        LocalSolverBFGS,
		LocalMaxIterations: defaultLocalMaxIterations,
		GradientTolerance:  defaultGradientTolerance,
		GradientStep:       defaultGradientStep,
	}
}

// Validate returns an error wrapping ErrInvalidInput describing the first unusable field.
func (o Options) Validate() error {
	switch {
	case o.Iterations < 0:
		return errors.Wrapf(ErrInvalidInput, "iterations must be non-negative, got %d", o.Iterations)
	case o.StepSize <= 0:
		return errors.Wrapf(ErrInvalidInput, "step_size must be positive, got %v", o.StepSize)
	case o.TranslationStepSize < 0:
		return errors.Wrapf(ErrInvalidInput, "translation_step_size must be non-negative, got %v", o.TranslationStepSize)
	case o.StepAdaptInterval < 1:
		return errors.Wrapf(ErrInvalidInput, "step_adapt_interval must be at least 1, got %d", o.StepAdaptInterval)
	case o.StepAdaptFactor <= 0 || o.StepAdaptFactor >= 1:
		return errors.Wrapf(ErrInvalidInput, "step_adapt_factor must be in (0, 1), got %v", o.StepAdaptFactor)
	case o.TargetAcceptRate <= 0 || o.TargetAcceptRate >= 1:
		return errors.Wrapf(ErrInvalidInput, "target_accept_rate must be in (0, 1), got %v", o.TargetAcceptRate)
	case o.Tolerance < 0:
		return errors.Wrapf(ErrInvalidInput, "tolerance must be non-negative, got %v", o.Tolerance)
	case o.Chains < 1:
		return errors.Wrapf(ErrInvalidInput, "chains must be at least 1, got %d", o.Chains)
	case !lo.Contains(localSolvers, o.LocalSolver):
		return errors.Wrapf(ErrInvalidInput, "unknown local_solver %q, expected one of %v", o.LocalSolver, localSolvers)
	case o.LocalMaxIterations < 1:
		return errors.Wrapf(ErrInvalidInput, "local_max_iterations must be at least 1, got %d", o.LocalMaxIterations)
	case o.GradientTolerance <= 0:
		return errors.Wrapf(ErrInvalidInput, "gradient_tolerance must be positive, got %v", o.GradientTolerance)
	case o.GradientStep <= 0:
		return errors.Wrapf(ErrInvalidInput, "gradient_step must be positive, got %v", o.GradientStep)
	}
	return nil
}
