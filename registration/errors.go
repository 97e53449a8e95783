package registration

import (
	"github.com/pkg/errors"

	"go.viam.com/lineregistration/spatialmath"
)

var (
	// ErrInvalidInput re-exports spatialmath.ErrInvalidInput.
	ErrInvalidInput = spatialmath.ErrInvalidInput

	// ErrDegenerateGeometry re-exports spatialmath.ErrDegenerateGeometry.
	ErrDegenerateGeometry = spatialmath.ErrDegenerateGeometry

	// ErrNumericNonconvergence marks a local minimization that stopped before meeting its convergence
	// criteria. It is reported as a warning; the partial location still competes for the best result.
	ErrNumericNonconvergence = errors.New("local minimization did not converge")

	// ErrNoSolution is returned when no local minimization produced a usable location.
	ErrNoSolution = errors.New("registration could not find a rigid transform")
)
