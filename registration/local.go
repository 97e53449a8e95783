package registration

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"go.viam.com/lineregistration/utils"
)

// localMinimum is where a local minimization stopped.
type localMinimum struct {
	x          []float64
	f          float64
	iterations int
}

// usable reports whether the location can compete for the best result.
func (m *localMinimum) usable() bool {
	return m != nil && utils.IsFinite(m.f) && utils.IsFinite(m.x...)
}

// localMinimizer refines a parameter vector to a nearby minimum of the objective. A nil minimum means
// the attempt produced nothing usable. A non-nil minimum together with an error wrapping
// ErrNumericNonconvergence is a partial result.
type localMinimizer interface {
	Minimize(obj *Objective, x0 []float64) (*localMinimum, error)
}

func newLocalMinimizer(opts Options) (localMinimizer, error) {
	switch opts.LocalSolver {
	case LocalSolverBFGS:
		return &bfgsMinimizer{
			maxIterations:     opts.LocalMaxIterations,
			gradientThreshold: opts.GradientTolerance,
			gradientStep:      opts.GradientStep,
		}, nil
	case LocalSolverNloptLBFGS:
		return newNloptMinimizer(opts)
	default:
		return nil, errors.Wrapf(ErrInvalidInput, "unknown local solver %q", opts.LocalSolver)
	}
}

// objectiveFunc adapts the objective to the plain signature the optimizers expect. The first
// evaluation error is kept in *evalErr and reported as +Inf so that line searches back off from it.
func objectiveFunc(obj *Objective, evalErr *error) func(x []float64) float64 {
	return func(x []float64) float64 {
		f, err := obj.Evaluate(x)
		if err != nil {
			if *evalErr == nil {
				*evalErr = err
			}
			return math.Inf(1)
		}
		return f
	}
}

// centralGradient estimates the gradient with central differences. The residual is not smooth where
// a transformed line becomes parallel to its target, and a symmetric stencil reads zero across such
// a fold instead of a spurious slope.
func centralGradient(f func([]float64) float64, step float64) func(grad, x []float64) {
	settings := &fd.Settings{Formula: fd.Central, Step: step}
	return func(grad, x []float64) {
		fd.Gradient(grad, f, x, settings)
	}
}

// bfgsMinimizer is the quasi-Newton BFGS method from gonum with a numerical gradient.
type bfgsMinimizer struct {
	maxIterations     int
	gradientThreshold float64
	gradientStep      float64
}

func (b *bfgsMinimizer) Minimize(obj *Objective, x0 []float64) (*localMinimum, error) {
	// Reject an unusable start before the optimizer sees it.
	if _, err := obj.Evaluate(x0); err != nil {
		return nil, err
	}

	var evalErr error
	f := objectiveFunc(obj, &evalErr)
	problem := optimize.Problem{
		Func: f,
		Grad: centralGradient(f, b.gradientStep),
	}
	settings := &optimize.Settings{
		GradientThreshold: b.gradientThreshold,
		MajorIterations:   b.maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   1e-12,
			Iterations: 20,
		},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if result == nil {
		return nil, localFailure(err, evalErr)
	}
	minimum := &localMinimum{
		x:          result.X,
		f:          result.F,
		iterations: result.Stats.MajorIterations,
	}
	if !minimum.usable() {
		return nil, localFailure(err, evalErr)
	}
	if err != nil {
		return minimum, errors.Wrapf(ErrNumericNonconvergence, "bfgs stopped with status %v: %v", result.Status, err)
	}
	if result.Status == optimize.IterationLimit {
		return minimum, errors.Wrapf(ErrNumericNonconvergence, "bfgs stopped with status %v", result.Status)
	}
	return minimum, nil
}

func localFailure(err, evalErr error) error {
	if evalErr != nil {
		return evalErr
	}
	if err == nil {
		return ErrNumericNonconvergence
	}
	return errors.Wrap(ErrNumericNonconvergence, err.Error())
}
