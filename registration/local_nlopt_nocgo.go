//go:build windows || no_cgo

package registration

import "github.com/pkg/errors"

// newNloptMinimizer is not supported on no_cgo builds.
func newNloptMinimizer(opts Options) (localMinimizer, error) {
	return nil, errors.Wrapf(ErrInvalidInput, "local solver %q is not supported on this build", LocalSolverNloptLBFGS)
}
