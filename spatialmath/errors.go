package spatialmath

import "github.com/pkg/errors"

var (
	// ErrInvalidInput is returned when arguments are structurally unusable: mismatched correspondence
	// lists, zero-length segments, non-finite coordinates or non-invertible matrices.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateGeometry is returned when the shared-perpendicular line distance is requested for
	// two lines whose directions are parallel.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

func newInvalidInputError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
