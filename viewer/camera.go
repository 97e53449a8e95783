// Package viewer converts camera orientations so that two independent 3D viewers stay visually in
// step after one of their scenes has been rigidly transformed.
package viewer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/lineregistration/logging"
	"go.viam.com/lineregistration/spatialmath"
	"go.viam.com/lineregistration/utils"
)

// Matrices whose 2-norm condition number exceeds this are treated as singular.
const maxConditionNumber = 1e12

// Angles is a viewer camera orientation: Euler angles in degrees about X, Y and Z, composed
// extrinsically in that order.
type Angles struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ParseAngles parses "x,y,z" in degrees.
func ParseAngles(s string) (Angles, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Angles{}, errors.Wrapf(spatialmath.ErrInvalidInput, "camera angles need three comma separated values, got %q", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Angles{}, errors.Wrapf(spatialmath.ErrInvalidInput, "parsing camera angle %q: %v", p, err)
		}
		vals[i] = v
	}
	return Angles{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func (a Angles) String() string {
	return fmt.Sprintf("%g,%g,%g", a.X, a.Y, a.Z)
}

// EulerAngles converts to radians.
func (a Angles) EulerAngles() *spatialmath.EulerAngles {
	return spatialmath.NewEulerAnglesFromDegrees(a.X, a.Y, a.Z)
}

// AnglesFromOrientation converts any orientation to camera angles.
func AnglesFromOrientation(o spatialmath.Orientation) Angles {
	x, y, z := o.EulerAngles().Degrees()
	return Angles{X: x, Y: y, Z: z}
}

// InverseRotationOfCamera returns the camera angles that, against a scene rotated by the inverse of
// rotation, show what camera shows against the unrotated scene. rotation is given in Z-Y-X axis order
// and is re-expressed in X-Y-Z order before being inverted. The camera orientation is carried as a
// rotation vector through the inverse.
//
// Inversion errors are not masked: a singular, ill-conditioned or non-finite rotation fails with
// ErrInvalidInput.
func InverseRotationOfCamera(logger logging.Logger, rotation *spatialmath.RotationMatrix, camera Angles) (Angles, error) {
	if rotation == nil {
		return Angles{}, errors.Wrap(spatialmath.ErrInvalidInput, "no rotation matrix")
	}
	if !utils.IsFinite(camera.X, camera.Y, camera.Z) {
		return Angles{}, errors.Wrapf(spatialmath.ErrInvalidInput, "camera angles %v are not finite", camera)
	}

	rotvec := camera.EulerAngles().AxisAngles().ToR3()
	logger.Debugw("camera rotation vector", "camera", camera, "rotvec", rotvec)

	swapped := rotation.SwapAxisOrder().Dense()
	logger.Debugw("rotation in x-y-z axis order", "matrix", fmt.Sprint(mat.Formatted(swapped, mat.FormatPython())))

	if cond := mat.Cond(swapped, 2); cond > maxConditionNumber {
		return Angles{}, errors.Wrapf(spatialmath.ErrInvalidInput, "rotation matrix is singular or ill-conditioned (condition number %g)", cond)
	}
	var inverse mat.Dense
	if err := inverse.Inverse(swapped); err != nil {
		return Angles{}, errors.Wrapf(spatialmath.ErrInvalidInput, "inverting rotation matrix: %v", err)
	}
	logger.Debugw("inverse rotation", "matrix", fmt.Sprint(mat.Formatted(&inverse, mat.FormatPython())))

	var applied mat.VecDense
	applied.MulVec(&inverse, mat.NewVecDense(3, []float64{rotvec.X, rotvec.Y, rotvec.Z}))
	out := r3.Vector{X: applied.AtVec(0), Y: applied.AtVec(1), Z: applied.AtVec(2)}
	if !utils.IsFinite(out.X, out.Y, out.Z) {
		return Angles{}, errors.Wrapf(spatialmath.ErrInvalidInput, "inverse rotation produced a non-finite rotation vector %v", out)
	}

	result := AnglesFromOrientation(spatialmath.R3ToR4(out))
	logger.Debugw("new camera angles", "rotvec", out, "angles", result)
	return result, nil
}
