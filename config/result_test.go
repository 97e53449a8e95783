package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/lineregistration/logging"
	"go.viam.com/lineregistration/registration"
	"go.viam.com/lineregistration/spatialmath"
)

func TestResultRoundTrip(t *testing.T) {
	lines := []spatialmath.Line{
		spatialmath.NewLine(r3.Vector{}, r3.Vector{X: 1}),
		spatialmath.NewLine(r3.Vector{}, r3.Vector{Y: 1}),
		spatialmath.NewLine(r3.Vector{X: 1, Y: 1}, r3.Vector{X: 1, Y: 1, Z: 1}),
	}
	opts := registration.DefaultOptions()
	opts.Iterations = 2
	solver, err := registration.NewSolver(logging.NewTestLogger(t), opts)
	test.That(t, err, test.ShouldBeNil)
	alignment, err := solver.Solve(context.Background(), lines, lines)
	test.That(t, err, test.ShouldBeNil)

	path := filepath.Join(t.TempDir(), "result.json")
	test.That(t, WriteResult(path, alignment), test.ShouldBeNil)

	read, err := ReadResult(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Transform().AlmostEqual(alignment.Transform(), 1e-12), test.ShouldBeTrue)
	test.That(t, cmp.Equal(read.Params(), alignment.Params(), cmpopts.EquateApprox(0, 1e-12)), test.ShouldBeTrue)
	test.That(t, read.Residual(), test.ShouldAlmostEqual, alignment.Residual())
	test.That(t, read.Hops(), test.ShouldEqual, 2)
	test.That(t, read.Pairs(), test.ShouldEqual, 3)
	test.That(t, read.Warnings(), test.ShouldResemble, alignment.Warnings())
}

func TestResultErrors(t *testing.T) {
	test.That(t, WriteResult(filepath.Join(t.TempDir(), "r.json"), nil), test.ShouldNotBeNil)

	_, err := ReadResult(writeFile(t, "empty.json", `{"residual": 1}`))
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)

	_, err = ReadResult(writeFile(t, "bad.json", `{"matrix": [[1,0,0,0],[0,1,0,0],[0,0,1,0],[1,0,0,1]]}`))
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)
}
