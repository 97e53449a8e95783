package spatialmath

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/lineregistration/utils"
)

// Transform is a 4x4 homogeneous rigid-body transform. The top-left 3x3 block is the rotation, the
// first three entries of the last column are the translation and the bottom row is [0 0 0 1].
type Transform struct {
	mat mgl64.Mat4
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{mgl64.Ident4()}
}

// NewRigidBodyTransform builds Rz(rotation.Z)·Ry(rotation.Y)·Rx(rotation.X), angles in radians, and
// injects translation into the last column. A zero rotation and translation give the exact identity.
func NewRigidBodyTransform(rotation, translation r3.Vector) Transform {
	m := mgl64.HomogRotate3DZ(rotation.Z).Mul4(
		mgl64.HomogRotate3DY(rotation.Y).Mul4(
			mgl64.HomogRotate3DX(rotation.X)))
	m.Set(0, 3, translation.X)
	m.Set(1, 3, translation.Y)
	m.Set(2, 3, translation.Z)
	return Transform{m}
}

// TransformFromParams builds a transform from the parameter vector (rx, ry, rz, tx, ty, tz).
func TransformFromParams(params [6]float64) Transform {
	return NewRigidBodyTransform(
		r3.Vector{X: params[0], Y: params[1], Z: params[2]},
		r3.Vector{X: params[3], Y: params[4], Z: params[5]},
	)
}

// NewTransformFromRows builds a transform from row-major values. The bottom row must be [0 0 0 1]
// and every entry finite; the rotation block is not checked for orthonormality.
func NewTransformFromRows(rows [4][4]float64) (Transform, error) {
	if rows[3] != [4]float64{0, 0, 0, 1} {
		return Transform{}, newInvalidInputError("bottom row of a homogeneous transform must be [0 0 0 1], got %v", rows[3])
	}
	var m mgl64.Mat4
	for r := 0; r < 4; r++ {
		if !utils.IsFinite(rows[r][:]...) {
			return Transform{}, newInvalidInputError("transform row %d has non-finite entries", r)
		}
		for c := 0; c < 4; c++ {
			m.Set(r, c, rows[r][c])
		}
	}
	return Transform{m}, nil
}

// Matrix returns the underlying 4x4 matrix.
func (t Transform) Matrix() mgl64.Mat4 {
	return t.mat
}

// At returns the entry at row, col.
func (t Transform) At(row, col int) float64 {
	return t.mat.At(row, col)
}

// Rotation returns the top-left 3x3 block.
func (t Transform) Rotation() *RotationMatrix {
	return &RotationMatrix{t.mat.Mat3()}
}

// Translation returns the translation column.
func (t Transform) Translation() r3.Vector {
	return r3.Vector{X: t.mat.At(0, 3), Y: t.mat.At(1, 3), Z: t.mat.At(2, 3)}
}

// Compose returns t·other, the transform applying other first.
func (t Transform) Compose(other Transform) Transform {
	return Transform{t.mat.Mul4(other.mat)}
}

// Inverse returns the rigid inverse [Rᵀ | -Rᵀt].
func (t Transform) Inverse() Transform {
	rt := t.mat.Mat3().Transpose()
	tr := t.mat.Col(3).Vec3()
	inv := rt.Mat4()
	back := rt.Mul3x1(tr).Mul(-1)
	inv.Set(0, 3, back[0])
	inv.Set(1, 3, back[1])
	inv.Set(2, 3, back[2])
	return Transform{inv}
}

// TransformPoint lifts p to homogeneous coordinates, applies the matrix and drops w.
func (t Transform) TransformPoint(p r3.Vector) r3.Vector {
	out := t.mat.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

// IsFinite reports whether every entry is finite.
func (t Transform) IsFinite() bool {
	return utils.IsFinite(t.mat[:]...)
}

// AlmostEqual compares every entry within an absolute epsilon.
func (t Transform) AlmostEqual(other Transform, epsilon float64) bool {
	for i := range t.mat {
		if !utils.Float64AlmostEqual(t.mat[i], other.mat[i], epsilon) {
			return false
		}
	}
	return true
}

// Rows returns the matrix as row-major nested arrays.
func (t Transform) Rows() [4][4]float64 {
	var rows [4][4]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			rows[r][c] = t.mat.At(r, c)
		}
	}
	return rows
}

// MarshalJSON encodes the transform as row-major nested arrays.
func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Rows())
}

// UnmarshalJSON decodes row-major nested arrays.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var rows [4][4]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "decoding transform")
	}
	parsed, err := NewTransformFromRows(rows)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ApplyTransform maps both endpoints of line through t.
func ApplyTransform(line Line, t Transform) Line {
	return Line{A: t.TransformPoint(line.A), B: t.TransformPoint(line.B)}
}
