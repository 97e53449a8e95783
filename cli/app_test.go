package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/lineregistration/config"
	"go.viam.com/lineregistration/spatialmath"
	"go.viam.com/lineregistration/viewer"
)

const identicalJob = `{
  source_lines: [[[0, 0, 0], [1, 0, 0]], [[0, 0, 0], [0, 1, 0]], [[1, 1, 0], [1, 1, 1]]],
  target_lines: [[[0, 0, 0], [1, 0, 0]], [[0, 0, 0], [0, 1, 0]], [[1, 1, 0], [1, 1, 1]]],
  solver: {iterations: 50},
  camera_angles: {x: 0, y: 0, z: 0},
}`

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"lineregister"}, args...))
	return out.String(), errOut.String(), err
}

func TestSolveCommand(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job.json5")
	test.That(t, os.WriteFile(jobPath, []byte(identicalJob), 0o600), test.ShouldBeNil)
	resultPath := filepath.Join(dir, "result.json")

	out, _, err := runApp(t, "solve", "--iterations", "3", "--seed", "5", "--out", resultPath, jobPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "residual:")
	test.That(t, out, test.ShouldContainSubstring, "3 pairs, 3 hops")
	test.That(t, out, test.ShouldContainSubstring, "source camera angles:")
	test.That(t, out, test.ShouldContainSubstring, "wrote "+resultPath)

	alignment, err := config.ReadResult(resultPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignment.Transform().AlmostEqual(spatialmath.NewTransform(), 1e-6), test.ShouldBeTrue)
}

func TestSolveCommandErrors(t *testing.T) {
	_, _, err := runApp(t, "solve")
	test.That(t, err, test.ShouldNotBeNil)

	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job.json5")
	test.That(t, os.WriteFile(jobPath, []byte(identicalJob), 0o600), test.ShouldBeNil)
	_, _, err = runApp(t, "solve", "--local-solver", "simplex", jobPath)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "local_solver")

	_, _, err = runApp(t, "solve", filepath.Join(dir, "missing.json5"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSyncCameraCommand(t *testing.T) {
	resultPath := filepath.Join(t.TempDir(), "result.json")
	test.That(t, os.WriteFile(resultPath, []byte(`{"matrix": [[1,0,0,0],[0,1,0,0],[0,0,1,0],[0,0,0,1]]}`), 0o600),
		test.ShouldBeNil)

	out, _, err := runApp(t, "sync-camera", "--angles", "10,20,30", resultPath)
	test.That(t, err, test.ShouldBeNil)
	angles, err := viewer.ParseAngles(strings.TrimSpace(out))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, angles.X, test.ShouldAlmostEqual, 10, 1e-9)
	test.That(t, angles.Y, test.ShouldAlmostEqual, 20, 1e-9)
	test.That(t, angles.Z, test.ShouldAlmostEqual, 30, 1e-9)

	_, _, err = runApp(t, "sync-camera", "--angles", "10,20", resultPath)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "sync-camera", resultPath)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTransformTable(t *testing.T) {
	rendered := transformTable(spatialmath.TransformFromParams([6]float64{0, 0, 0, 1, 2, 3}))
	test.That(t, rendered, test.ShouldContainSubstring, "1.000000")
	test.That(t, rendered, test.ShouldContainSubstring, "3.000000")
	test.That(t, len(strings.Split(rendered, "\n")), test.ShouldEqual, 8)
}

func TestSolveCommandReport(t *testing.T) {
	jobPath := filepath.Join(t.TempDir(), "job.json5")
	test.That(t, os.WriteFile(jobPath, []byte(identicalJob), 0o600), test.ShouldBeNil)

	out, _, err := runApp(t, "solve", "--iterations", "0", "--report", jobPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "DISTANCE")
	test.That(t, out, test.ShouldContainSubstring, "RMS")
	test.That(t, out, test.ShouldContainSubstring, "median")
	test.That(t, out, test.ShouldContainSubstring, "%")
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"source_lines"`)
	test.That(t, out, test.ShouldContainSubstring, `"camera_angles"`)
}
