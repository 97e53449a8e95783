package spatialmath

import (
	"encoding/json"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/lineregistration/utils"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat mgl64.Mat3
}

// axisReversal is the permutation exchanging the x and z axes. Conjugating a rotation matrix by it
// re-expresses the rotation in the reversed (Z-Y-X <-> X-Y-Z) axis ordering.
var axisReversal = mgl64.Mat3{
	0, 0, 1,
	0, 1, 0,
	1, 0, 0,
}

// NewRotationMatrix creates a rotation matrix from 9 row-major values. The values are not required
// to be orthonormal; use IsRotation to check.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, newInvalidInputError("input slice has %d elements, need exactly 9", len(m))
	}
	if !utils.IsFinite(m...) {
		return nil, newInvalidInputError("rotation matrix has non-finite entries")
	}
	return &RotationMatrix{mgl64.Mat3FromRows(
		mgl64.Vec3{m[0], m[1], m[2]},
		mgl64.Vec3{m[3], m[4], m[5]},
		mgl64.Vec3{m[6], m[7], m[8]},
	)}, nil
}

// AxisAngles returns the orientation in axis angle representation.
func (rm *RotationMatrix) AxisAngles() *R4AA {
	return QuatToR4AA(rm.Quaternion())
}

// Quaternion returns orientation in quaternion representation.
func (rm *RotationMatrix) Quaternion() quat.Number {
	return RotationMatrixToQuat(rm)
}

// EulerAngles decomposes the matrix as R = Rz(yaw)·Ry(pitch)·Rx(roll). At gimbal lock
// (|pitch| = pi/2) roll is pinned to zero and the whole residual rotation is reported as yaw.
func (rm *RotationMatrix) EulerAngles() *EulerAngles {
	m := rm.mat
	sinPitch := math.Max(-1, math.Min(1, -m.At(2, 0)))
	pitch := math.Asin(sinPitch)
	if math.Abs(sinPitch) > 1-gimbalLockTolerance {
		return &EulerAngles{
			Roll:  0,
			Pitch: pitch,
			Yaw:   math.Atan2(-m.At(0, 1), m.At(1, 1)),
		}
	}
	return &EulerAngles{
		Roll:  math.Atan2(m.At(2, 1), m.At(2, 2)),
		Pitch: pitch,
		Yaw:   math.Atan2(m.At(1, 0), m.At(0, 0)),
	}
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (rm *RotationMatrix) RotationMatrix() *RotationMatrix {
	return rm
}

// At returns the float corresponding to the element at the specified location.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat.At(row, col)
}

// Row returns the a 3 element vector corresponding to the specified row.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	v := rm.mat.Row(row)
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Mul returns the product of the rotation matrix and a column vector.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	out := rm.mat.Mul3x1(mgl64.Vec3{v.X, v.Y, v.Z})
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

// MulRotationMatrix returns rm·other.
func (rm *RotationMatrix) MulRotationMatrix(other *RotationMatrix) *RotationMatrix {
	return &RotationMatrix{rm.mat.Mul3(other.mat)}
}

// Transpose returns the transpose, which is the inverse of a proper rotation.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	return &RotationMatrix{rm.mat.Transpose()}
}

// SwapAxisOrder conjugates the matrix by the x/z axis reversal, P·M·P. Element-wise this is the
// same as reversing both the row and the column order. Conjugation by a permutation keeps a proper
// rotation orthonormal; since P itself is a reflection the determinant is preserved too, and applying
// the swap twice returns the original matrix.
func (rm *RotationMatrix) SwapAxisOrder() *RotationMatrix {
	return &RotationMatrix{axisReversal.Mul3(rm.mat).Mul3(axisReversal)}
}

// IsRotation reports whether the matrix is orthonormal with determinant +1 within tol.
func (rm *RotationMatrix) IsRotation(tol float64) bool {
	gram := rm.mat.Mul3(rm.mat.Transpose())
	ident := mgl64.Ident3()
	for i := range gram {
		if !utils.Float64AlmostEqual(gram[i], ident[i], tol) {
			return false
		}
	}
	return utils.Float64AlmostEqual(rm.mat.Det(), 1, tol)
}

// Dense returns a row-major gonum copy of the matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	data := make([]float64, 0, 9)
	for r := 0; r < 3; r++ {
		row := rm.mat.Row(r)
		data = append(data, row[0], row[1], row[2])
	}
	return mat.NewDense(3, 3, data)
}

// Rows returns the matrix as nested row-major arrays.
func (rm *RotationMatrix) Rows() [3][3]float64 {
	var rows [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rows[r][c] = rm.mat.At(r, c)
		}
	}
	return rows
}

// MarshalJSON encodes the matrix as row-major nested arrays.
func (rm *RotationMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(rm.Rows())
}

// UnmarshalJSON decodes row-major nested arrays.
func (rm *RotationMatrix) UnmarshalJSON(data []byte) error {
	var rows [3][3]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "decoding rotation matrix")
	}
	parsed, err := NewRotationMatrix([]float64{
		rows[0][0], rows[0][1], rows[0][2],
		rows[1][0], rows[1][1], rows[1][2],
		rows[2][0], rows[2][1], rows[2][2],
	})
	if err != nil {
		return err
	}
	*rm = *parsed
	return nil
}
