//go:build !windows && !no_cgo

package registration

import (
	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// nloptMinimizer runs nlopt's low-storage BFGS with the same central-difference gradient as the
// gonum minimizer.
type nloptMinimizer struct {
	maxEvaluations int
	tolerance      float64
	gradientStep   float64
}

func newNloptMinimizer(opts Options) (localMinimizer, error) {
	return &nloptMinimizer{
		// every gradient costs 12 evaluations of the objective
		maxEvaluations: opts.LocalMaxIterations * 13,
		tolerance:      opts.GradientTolerance * opts.GradientTolerance,
		gradientStep:   opts.GradientStep,
	}, nil
}

func (n *nloptMinimizer) Minimize(obj *Objective, x0 []float64) (*localMinimum, error) {
	if _, err := obj.Evaluate(x0); err != nil {
		return nil, err
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_LBFGS, uint(len(x0)))
	if err != nil {
		return nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	var evalErr error
	f := objectiveFunc(obj, &evalErr)
	grad := centralGradient(f, n.gradientStep)
	evaluations := 0
	// gradient is, under the hood, an unsafe C structure that we are meant to mutate in place.
	nloptMinFunc := func(x, gradient []float64) float64 {
		evaluations++
		if len(gradient) > 0 {
			grad(gradient, x)
		}
		return f(x)
	}

	if err := multierr.Combine(
		opt.SetFtolAbs(n.tolerance),
		opt.SetFtolRel(n.tolerance),
		opt.SetXtolRel(n.tolerance),
		opt.SetStopVal(0),
		opt.SetMaxEval(n.maxEvaluations),
		opt.SetMinObjective(nloptMinFunc),
	); err != nil {
		return nil, errors.Wrap(err, "configuring nlopt")
	}

	start := append([]float64(nil), x0...)
	x, minf, nloptErr := opt.Optimize(start)
	minimum := &localMinimum{x: x, f: minf, iterations: evaluations}
	if !minimum.usable() {
		return nil, localFailure(nloptErr, evalErr)
	}
	if nloptErr != nil {
		// Roundoff and evaluation limits still leave the best point seen.
		return minimum, errors.Wrap(ErrNumericNonconvergence, nloptErr.Error())
	}
	return minimum, nil
}
