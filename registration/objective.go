package registration

import (
	"github.com/pkg/errors"

	"go.viam.com/lineregistration/spatialmath"
	"go.viam.com/lineregistration/utils"
)

// DistanceFunc measures the distance between two lines.
type DistanceFunc func(a, b spatialmath.Line) (float64, error)

// Objective is the residual sum of squared line distances between transformed source lines and
// their target lines. It holds no mutable state, so one Objective may be evaluated concurrently.
type Objective struct {
	source   []spatialmath.Line
	target   []spatialmath.Line
	distance DistanceFunc
}

// NewObjective validates the correspondence lists once: they must be the same length and every line
// must be finite with non-zero length. The lists are copied. With strictParallel set, parallel pairs
// fail evaluation with ErrDegenerateGeometry.
func NewObjective(source, target []spatialmath.Line, strictParallel bool) (*Objective, error) {
	if err := validateCorrespondences(source, target); err != nil {
		return nil, err
	}
	distance := spatialmath.LineDistanceParallelSafe
	if strictParallel {
		distance = spatialmath.LineDistance
	}
	return &Objective{
		source:   append([]spatialmath.Line(nil), source...),
		target:   append([]spatialmath.Line(nil), target...),
		distance: distance,
	}, nil
}

// Len returns the number of correspondence pairs.
func (o *Objective) Len() int {
	return len(o.source)
}

// Evaluate returns the residual for a parameter vector (rx, ry, rz, tx, ty, tz).
func (o *Objective) Evaluate(params []float64) (float64, error) {
	if len(params) != 6 {
		return 0, errors.Wrapf(ErrInvalidInput, "need 6 parameters, got %d", len(params))
	}
	var p [6]float64
	copy(p[:], params)
	return residual(spatialmath.TransformFromParams(p), o.source, o.target, o.distance)
}

// ResidualSumOfSquares applies the transform built from params to every source line and sums the
// squared distances to the corresponding target lines. Parallel pairs are measured by their
// separation. Lists of different lengths fail with ErrInvalidInput; zero pairs give 0.
func ResidualSumOfSquares(params [6]float64, source, target []spatialmath.Line) (float64, error) {
	if len(source) != len(target) {
		return 0, mismatchError(source, target)
	}
	return residual(spatialmath.TransformFromParams(params), source, target, spatialmath.LineDistanceParallelSafe)
}

func residual(tf spatialmath.Transform, source, target []spatialmath.Line, distance DistanceFunc) (float64, error) {
	var sum float64
	for i, src := range source {
		d, err := distance(spatialmath.ApplyTransform(src, tf), target[i])
		if err != nil {
			return 0, errors.Wrapf(err, "pair %d", i)
		}
		sum += utils.Square(d)
	}
	return sum, nil
}

func validateCorrespondences(source, target []spatialmath.Line) error {
	if len(source) != len(target) {
		return mismatchError(source, target)
	}
	for i := range source {
		if err := source[i].Validate(); err != nil {
			return errors.Wrapf(err, "source line %d", i)
		}
		if err := target[i].Validate(); err != nil {
			return errors.Wrapf(err, "target line %d", i)
		}
	}
	return nil
}

func mismatchError(source, target []spatialmath.Line) error {
	return errors.Wrapf(ErrInvalidInput, "%d source lines but %d target lines", len(source), len(target))
}
