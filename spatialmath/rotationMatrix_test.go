package spatialmath

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func r3Zero() r3.Vector {
	return r3.Vector{}
}

func matricesAlmostEqual(t *testing.T, a, b *RotationMatrix, tol float64) {
	t.Helper()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			test.That(t, a.At(r, c), test.ShouldAlmostEqual, b.At(r, c), tol)
		}
	}
}

func TestNewRotationMatrix(t *testing.T) {
	rm, err := NewRotationMatrix([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.IsRotation(1e-12), test.ShouldBeTrue)

	_, err = NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)

	_, err = NewRotationMatrix([]float64{1, 0, 0, 0, math.NaN(), 0, 0, 0, 1})
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)

	scaled, err := NewRotationMatrix([]float64{2, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scaled.IsRotation(1e-6), test.ShouldBeFalse)

	reflection, err := NewRotationMatrix([]float64{-1, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reflection.IsRotation(1e-6), test.ShouldBeFalse)
}

func TestRotationMatrixRowsAndProducts(t *testing.T) {
	rz := (&EulerAngles{Yaw: math.Pi / 2}).RotationMatrix()
	v := rz.Mul(r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, rz.Row(1).X, test.ShouldAlmostEqual, 1)

	matricesAlmostEqual(t, rz.MulRotationMatrix(rz.Transpose()), NewZeroOrientation().RotationMatrix(), 1e-12)

	dense := rz.Dense()
	test.That(t, dense.At(0, 1), test.ShouldAlmostEqual, rz.At(0, 1))
	test.That(t, dense.At(1, 0), test.ShouldAlmostEqual, rz.At(1, 0))
}

func TestSwapAxisOrder(t *testing.T) {
	rm := (&EulerAngles{Roll: 0.4, Pitch: -0.7, Yaw: 1.9}).RotationMatrix()
	swapped := rm.SwapAxisOrder()

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			// reversing both the row and the column order
			test.That(t, swapped.At(r, c), test.ShouldEqual, rm.At(2-r, 2-c))
		}
	}
	test.That(t, swapped.IsRotation(1e-9), test.ShouldBeTrue)
	matricesAlmostEqual(t, swapped.SwapAxisOrder(), rm, 1e-15)

	// A rotation about x becomes the inverse rotation about z after swapping, since the swap is a
	// reflection of the frame.
	rx := (&EulerAngles{Roll: 0.5}).RotationMatrix()
	matricesAlmostEqual(t, rx.SwapAxisOrder(), (&EulerAngles{Yaw: -0.5}).RotationMatrix(), 1e-12)
}

func TestEulerRoundTrip(t *testing.T) {
	for _, ea := range []*EulerAngles{
		{Roll: 0.1, Pitch: 0.2, Yaw: 0.3},
		{Roll: -2.5, Pitch: 1.2, Yaw: 3.0},
		{Roll: 3.1, Pitch: -1.4, Yaw: -0.9},
	} {
		got := ea.RotationMatrix().EulerAngles()
		test.That(t, got.Roll, test.ShouldAlmostEqual, ea.Roll, 1e-9)
		test.That(t, got.Pitch, test.ShouldAlmostEqual, ea.Pitch, 1e-9)
		test.That(t, got.Yaw, test.ShouldAlmostEqual, ea.Yaw, 1e-9)
	}

	x, y, z := NewEulerAnglesFromDegrees(10, -20, 30).Degrees()
	test.That(t, x, test.ShouldAlmostEqual, 10)
	test.That(t, y, test.ShouldAlmostEqual, -20)
	test.That(t, z, test.ShouldAlmostEqual, 30)
}

func TestEulerGimbalLock(t *testing.T) {
	for _, pitch := range []float64{math.Pi / 2, -math.Pi / 2} {
		ea := &EulerAngles{Roll: 0.3, Pitch: pitch, Yaw: 0.2}
		rm := ea.RotationMatrix()
		got := rm.EulerAngles()
		test.That(t, got.Roll, test.ShouldEqual, 0.)
		test.That(t, got.Pitch, test.ShouldAlmostEqual, pitch)
		matricesAlmostEqual(t, got.RotationMatrix(), rm, 1e-9)
	}
}

func TestRotationMatrixJSON(t *testing.T) {
	rm := (&EulerAngles{Roll: 0.1, Pitch: 0.2, Yaw: 0.3}).RotationMatrix()
	data, err := json.Marshal(rm)
	test.That(t, err, test.ShouldBeNil)

	var decoded RotationMatrix
	test.That(t, json.Unmarshal(data, &decoded), test.ShouldBeNil)
	matricesAlmostEqual(t, &decoded, rm, 1e-15)

	test.That(t, json.Unmarshal([]byte(`"not a matrix"`), &decoded), test.ShouldNotBeNil)
}
