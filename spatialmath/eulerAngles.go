package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/lineregistration/utils"
)

const gimbalLockTolerance = 1e-9

// EulerAngles are three angles in radians used to represent the rotation of an object in 3D
// Euclidean space. Roll is about X, Pitch about Y and Yaw about Z. The rotations are extrinsic and
// applied X first, so the matrix is Rz(yaw)·Ry(pitch)·Rx(roll).
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// NewEulerAnglesFromDegrees builds Euler angles from X, Y, Z angles in degrees.
func NewEulerAnglesFromDegrees(x, y, z float64) *EulerAngles {
	return &EulerAngles{Roll: utils.DegToRad(x), Pitch: utils.DegToRad(y), Yaw: utils.DegToRad(z)}
}

// Degrees returns the X, Y, Z angles in degrees.
func (ea *EulerAngles) Degrees() (x, y, z float64) {
	return utils.RadToDeg(ea.Roll), utils.RadToDeg(ea.Pitch), utils.RadToDeg(ea.Yaw)
}

// EulerAngles returns orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	return RotationMatrixToQuat(ea.RotationMatrix())
}

// AxisAngles returns the orientation in axis angle representation.
func (ea *EulerAngles) AxisAngles() *R4AA {
	return QuatToR4AA(ea.Quaternion())
}

// RotationMatrix returns Rz(yaw)·Ry(pitch)·Rx(roll).
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	return &RotationMatrix{mgl64.Rotate3DZ(ea.Yaw).Mul3(mgl64.Rotate3DY(ea.Pitch)).Mul3(mgl64.Rotate3DX(ea.Roll))}
}
