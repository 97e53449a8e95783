package spatialmath

import (
	"encoding/json"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/lineregistration/utils"
)

// parallelTolerance is the relative bound below which |dirA x dirB| counts as zero.
const parallelTolerance = 1e-9

// Line is a line segment between two 3D points in physical units. Distances treat it as the infinite
// line through A and B.
type Line struct {
	A r3.Vector
	B r3.Vector
}

// NewLine returns the segment from a to b.
func NewLine(a, b r3.Vector) Line {
	return Line{A: a, B: b}
}

// Direction returns B - A.
func (l Line) Direction() r3.Vector {
	return l.B.Sub(l.A)
}

// Validate fails with ErrInvalidInput when an endpoint is not finite or the segment has no length.
func (l Line) Validate() error {
	if !utils.IsFinite(l.A.X, l.A.Y, l.A.Z, l.B.X, l.B.Y, l.B.Z) {
		return newInvalidInputError("line %v has non-finite coordinates", l)
	}
	if l.Direction().Norm2() == 0 {
		return newInvalidInputError("line %v has zero length", l)
	}
	return nil
}

// AlmostEqual compares endpoints component-wise within epsilon.
func (l Line) AlmostEqual(other Line, epsilon float64) bool {
	return vecAlmostEqual(l.A, other.A, epsilon) && vecAlmostEqual(l.B, other.B, epsilon)
}

// MarshalJSON encodes the line as [[ax,ay,az],[bx,by,bz]].
func (l Line) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][3]float64{
		{l.A.X, l.A.Y, l.A.Z},
		{l.B.X, l.B.Y, l.B.Z},
	})
}

// UnmarshalJSON decodes [[ax,ay,az],[bx,by,bz]].
func (l *Line) UnmarshalJSON(data []byte) error {
	var pts [][]float64
	if err := json.Unmarshal(data, &pts); err != nil {
		return errors.Wrap(err, "decoding line")
	}
	if len(pts) != 2 || len(pts[0]) != 3 || len(pts[1]) != 3 {
		return newInvalidInputError("a line needs two points of three coordinates, got %v", pts)
	}
	l.A = r3.Vector{X: pts[0][0], Y: pts[0][1], Z: pts[0][2]}
	l.B = r3.Vector{X: pts[1][0], Y: pts[1][1], Z: pts[1][2]}
	return nil
}

// NewLineFromRay builds a line from the near and far points where a picking ray crosses a volume,
// given in pixel index space, scaling them by the physical size of a pixel along each axis.
func NewLineFromRay(near, far, pixelSize r3.Vector) (Line, error) {
	if !utils.IsFinite(pixelSize.X, pixelSize.Y, pixelSize.Z) ||
		pixelSize.X <= 0 || pixelSize.Y <= 0 || pixelSize.Z <= 0 {
		return Line{}, newInvalidInputError("pixel size %v must be positive", pixelSize)
	}
	l := Line{A: scaleComponents(near, pixelSize), B: scaleComponents(far, pixelSize)}
	if err := l.Validate(); err != nil {
		return Line{}, err
	}
	return l, nil
}

// LineDistance returns the length of the common perpendicular of the infinite lines through a and b,
// |n·(b.A - a.A)| / |n| with n = dirA x dirB. Parallel lines have no unique common perpendicular and
// fail with ErrDegenerateGeometry.
func LineDistance(a, b Line) (float64, error) {
	if err := validatePair(a, b); err != nil {
		return 0, err
	}
	dirA, dirB := a.Direction(), b.Direction()
	n := dirA.Cross(dirB)
	nNorm := n.Norm()
	if isParallel(nNorm, dirA, dirB) {
		return 0, errors.Wrapf(ErrDegenerateGeometry, "lines %v and %v are parallel", a, b)
	}
	return math.Abs(n.Dot(b.A.Sub(a.A))) / nNorm, nil
}

// LineDistanceParallelSafe is LineDistance except that parallel lines return the distance from b.A
// to the line through a, which is the exact separation of two parallel lines.
func LineDistanceParallelSafe(a, b Line) (float64, error) {
	if err := validatePair(a, b); err != nil {
		return 0, err
	}
	dirA, dirB := a.Direction(), b.Direction()
	n := dirA.Cross(dirB)
	nNorm := n.Norm()
	offset := b.A.Sub(a.A)
	if isParallel(nNorm, dirA, dirB) {
		return offset.Cross(dirA).Norm() / dirA.Norm(), nil
	}
	return math.Abs(n.Dot(offset)) / nNorm, nil
}

func isParallel(crossNorm float64, dirA, dirB r3.Vector) bool {
	return crossNorm <= parallelTolerance*dirA.Norm()*dirB.Norm()
}

func validatePair(a, b Line) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return b.Validate()
}

func scaleComponents(v, by r3.Vector) r3.Vector {
	return r3.Vector{X: v.X * by.X, Y: v.Y * by.Y, Z: v.Z * by.Z}
}

func vecAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, epsilon) &&
		utils.Float64AlmostEqual(a.Y, b.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Z, b.Z, epsilon)
}
