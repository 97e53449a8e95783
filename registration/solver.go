// Package registration finds the rigid-body transform that best maps a list of source line segments
// onto their corresponding target segments. The objective is the sum of squared distances between
// corresponding infinite lines; it is minimized globally by basin hopping over the six rotation and
// translation parameters, with a quasi-Newton local minimizer refining every hop.
package registration

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/lineregistration/logging"
	"go.viam.com/lineregistration/spatialmath"
	"go.viam.com/lineregistration/utils"
)

const underdeterminedWarning = "a single line pair does not determine a unique rigid transform; " +
	"the result is one of infinitely many minimizers"

// Solver runs basin hopping over the rigid-body parameters. A Solver holds no per-solve state and
// may be reused.
type Solver struct {
	opts   Options
	local  localMinimizer
	logger logging.Logger
}

// NewSolver validates opts and returns a Solver.
func NewSolver(logger logging.Logger, opts Options) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	local, err := newLocalMinimizer(opts)
	if err != nil {
		return nil, err
	}
	return &Solver{opts: opts, local: local, logger: logger}, nil
}

// Options returns the options the solver was built with.
func (s *Solver) Options() Options {
	return s.opts
}

// FindRigidTransform solves with DefaultOptions and returns only the transform.
func FindRigidTransform(ctx context.Context, logger logging.Logger, source, target []spatialmath.Line) (spatialmath.Transform, error) {
	solver, err := NewSolver(logger, DefaultOptions())
	if err != nil {
		return spatialmath.Transform{}, err
	}
	alignment, err := solver.Solve(ctx, source, target)
	if err != nil {
		return spatialmath.Transform{}, err
	}
	return alignment.Transform(), nil
}

// Solve returns the best alignment of source onto target found across all chains. The lists must be
// non-empty and the same length. Cancelling ctx stops every chain at its next hop.
func (s *Solver) Solve(ctx context.Context, source, target []spatialmath.Line) (*Alignment, error) {
	if len(source) == 0 && len(target) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "no line correspondences to solve for")
	}
	obj, err := NewObjective(source, target, s.opts.StrictParallel)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if obj.Len() == 1 {
		s.logger.Warnw(underdeterminedWarning, "pairs", obj.Len())
		warnings = append(warnings, underdeterminedWarning)
	}

	start := time.Now()
	results := make([]*chainResult, s.opts.Chains)
	var solveErrors error
	if s.opts.Chains == 1 {
		results[0], solveErrors = s.runChain(ctx, obj, 0)
	} else {
		var activeChains sync.WaitGroup
		var solveResultLock sync.Mutex
		for i := range results {
			chain := i
			activeChains.Add(1)
			goutils.PanicCapturingGo(func() {
				defer activeChains.Done()
				res, err := s.runChain(ctx, obj, chain)

				solveResultLock.Lock()
				defer solveResultLock.Unlock()
				results[chain] = res
				solveErrors = multierr.Combine(solveErrors, err)
			})
		}
		activeChains.Wait()
	}
	for chain, res := range results {
		// A chain that panicked was recovered without leaving a result.
		if res == nil && ctx.Err() == nil {
			solveErrors = multierr.Append(solveErrors, errors.Wrapf(ErrNoSolution, "chain %d stopped without a result", chain))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if solveErrors != nil {
		return nil, solveErrors
	}

	alignment, err := s.merge(results, obj.Len(), warnings)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("line registration finished",
		"pairs", alignment.pairs,
		"residual", alignment.residual,
		"chain", alignment.chain,
		"hops", alignment.hops,
		"accepted", alignment.accepted,
		"failures", alignment.failures,
		"nonconverged", alignment.nonconverged,
		"elapsed", time.Since(start).String(),
	)
	return alignment, nil
}

// merge picks the best chain. Chains are visited in index order and a later chain must beat the
// current best by more than the tolerance, so ties go to the lowest index.
func (s *Solver) merge(results []*chainResult, pairs int, warnings []string) (*Alignment, error) {
	alignment := &Alignment{pairs: pairs}
	var best *chainResult
	var failures error
	for _, res := range results {
		if res == nil {
			continue
		}
		alignment.hops += res.hops
		alignment.accepted += res.accepted
		alignment.failures += res.failures
		alignment.nonconverged += res.nonconverged
		warnings = append(warnings, res.warnings...)
		failures = multierr.Append(failures, res.failErr)
		if res.best == nil {
			continue
		}
		if best == nil || res.best.f < best.best.f-s.opts.Tolerance {
			best = res
		}
	}
	if best == nil {
		return nil, errors.Wrapf(multierr.Combine(ErrNoSolution, failures),
			"all %d local minimizations failed", alignment.failures)
	}

	copy(alignment.params[:], best.best.x)
	alignment.transform = spatialmath.TransformFromParams(alignment.params)
	if !alignment.transform.IsFinite() {
		return nil, errors.Wrapf(ErrNoSolution, "best parameters %v give a non-finite transform", alignment.params)
	}
	alignment.residual = best.best.f
	alignment.chain = best.chain
	alignment.warnings = lo.Uniq(warnings)
	return alignment, nil
}

// chainResult is the bookkeeping of one basin-hopping chain.
type chainResult struct {
	chain        int
	best         *localMinimum
	hops         int
	accepted     int
	failures     int
	nonconverged int
	warnings     []string
	failErr      error
	seenFailures []string
}

func (res *chainResult) consider(candidate *localMinimum, tolerance float64) bool {
	if !candidate.usable() {
		return false
	}
	if res.best == nil || candidate.f < res.best.f-tolerance {
		res.best = candidate
		return true
	}
	return false
}

func (res *chainResult) recordFailure(err error) {
	res.failures++
	if err == nil || lo.Contains(res.seenFailures, err.Error()) {
		return
	}
	res.seenFailures = append(res.seenFailures, err.Error())
	res.failErr = multierr.Append(res.failErr, err)
}

// runChain is one basin-hopping run: a local minimization from the identity followed by
// Iterations perturb, minimize and accept-or-reject hops.
func (s *Solver) runChain(ctx context.Context, obj *Objective, chain int) (*chainResult, error) {
	//nolint:gosec
	rng := rand.New(rand.NewSource(s.opts.Seed + int64(chain)))
	logger := s.logger.Sublogger(fmt.Sprintf("chain%d", chain))
	res := &chainResult{chain: chain}

	current := s.minimize(logger, obj, make([]float64, 6), res)
	if current == nil {
		// Keep hopping from the identity; any usable minimum will be accepted.
		current = &localMinimum{x: make([]float64, 6), f: math.Inf(1)}
	}
	res.consider(current, s.opts.Tolerance)

	step := s.opts.StepSize
	translationStep := s.opts.TranslationStepSize
	for hop := 1; hop <= s.opts.Iterations; hop++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		trial := make([]float64, len(current.x))
		for i := range trial {
			width := step
			if i >= 3 && translationStep > 0 {
				width = translationStep
			}
			trial[i] = current.x[i] + utils.SampleUniform(width, rng)
		}

		res.hops++
		candidate := s.minimize(logger, obj, trial, res)
		accepted := false
		improved := false
		if candidate != nil {
			accepted = s.metropolis(candidate.f, current.f, rng)
			improved = res.consider(candidate, s.opts.Tolerance)
		}
		if accepted {
			current = candidate
			res.accepted++
		}
		if candidate != nil {
			logger.Debugw("hop", "hop", hop, "residual", candidate.f, "accepted", accepted, "improved", improved,
				"current", current.f, "step", step)
		}

		if hop%s.opts.StepAdaptInterval == 0 {
			rate := float64(res.accepted) / float64(res.hops)
			if rate > s.opts.TargetAcceptRate {
				step /= s.opts.StepAdaptFactor
				translationStep /= s.opts.StepAdaptFactor
			} else {
				step *= s.opts.StepAdaptFactor
				translationStep *= s.opts.StepAdaptFactor
			}
			logger.Debugw("adapted step size", "accept_rate", rate, "step", step, "translation_step", translationStep)
		}
	}

	if res.nonconverged > 0 {
		logger.Warnw("some local minimizations did not converge",
			"nonconverged", res.nonconverged, "hops", res.hops+1)
	}
	return res, nil
}

// minimize runs the local minimizer from x and records failures and warnings on res. It returns nil
// when the attempt produced no usable location.
func (s *Solver) minimize(logger logging.Logger, obj *Objective, x []float64, res *chainResult) *localMinimum {
	m, err := s.local.Minimize(obj, x)
	if !m.usable() {
		if err == nil {
			err = ErrNumericNonconvergence
		}
		logger.Debugw("local minimization failed", "error", err)
		res.recordFailure(err)
		return nil
	}
	if err != nil {
		res.nonconverged++
		res.warnings = append(res.warnings, err.Error())
	}
	return m
}

// metropolis always accepts a lower residual and accepts a higher one with probability
// exp(-(fNew - fOld) / T). A non-positive temperature only accepts improvements.
func (s *Solver) metropolis(fNew, fOld float64, rng *rand.Rand) bool {
	if fNew < fOld {
		return true
	}
	if s.opts.Temperature <= 0 {
		return false
	}
	return math.Exp(-(fNew-fOld)/s.opts.Temperature) >= rng.Float64()
}
