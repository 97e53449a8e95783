// Package config reads registration jobs and reads and writes alignment results.
//
// Job files are JSON5, so they may carry comments and trailing commas:
//
//	{
//	  // voxel indices, scaled by the pixel sizes below
//	  source_lines: [[[0, 0, 0], [10, 0, 0]], [[0, 0, 0], [0, 10, 0]]],
//	  target_lines: [[[0, 0, 5], [10, 0, 5]], [[0, 0, 5], [0, 10, 5]]],
//	  source_pixel_size: [0.5, 0.5, 1],
//	  target_pixel_size: [0.5, 0.5, 1],
//	  solver: {iterations: 50, seed: 3},
//	  camera_angles: {x: 0, y: 30, z: 0},
//	}
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/lineregistration/registration"
	"go.viam.com/lineregistration/spatialmath"
	"go.viam.com/lineregistration/viewer"
)

// Job is one registration problem.
type Job struct {
	Source []spatialmath.Line
	Target []spatialmath.Line
	// Options starts from registration.DefaultOptions; the job's solver block overrides only the
	// fields it names.
	Options registration.Options
	// CameraAngles is the target viewer camera to synchronize, if given.
	CameraAngles *viewer.Angles
}

type jobFile struct {
	SourceLines     []spatialmath.Line   `json:"source_lines" jsonschema:"required,description=source line segments as [[ax ay az] [bx by bz]]"`
	TargetLines     []spatialmath.Line   `json:"target_lines" jsonschema:"required,description=target line segments matching source_lines by index"`
	SourcePixelSize *[3]float64          `json:"source_pixel_size,omitempty" jsonschema:"description=physical size of a source voxel; lines are then voxel indices"`
	TargetPixelSize *[3]float64          `json:"target_pixel_size,omitempty" jsonschema:"description=physical size of a target voxel; lines are then voxel indices"`
	Solver          registration.Options `json:"solver,omitempty" jsonschema:"description=solver options overriding the defaults"`
	CameraAngles    *viewer.Angles       `json:"camera_angles,omitempty" jsonschema:"description=target viewer camera angles in degrees to synchronize"`
}

// ReadJob reads and validates the job file at path.
func ReadJob(path string) (*Job, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading job file %q", path)
	}
	job, err := ParseJob(data)
	if err != nil {
		return nil, errors.Wrapf(err, "job file %q", path)
	}
	return job, nil
}

// ParseJob parses and validates a JSON5 job. Unknown keys are rejected.
func ParseJob(data []byte) (*Job, error) {
	normalized, err := normalizeJSON5(data)
	if err != nil {
		return nil, err
	}

	jf := jobFile{Solver: registration.DefaultOptions()}
	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&jf); err != nil {
		return nil, errors.Wrapf(spatialmath.ErrInvalidInput, "decoding job: %v", err)
	}

	if len(jf.SourceLines) != len(jf.TargetLines) {
		return nil, errors.Wrapf(spatialmath.ErrInvalidInput,
			"job has %d source lines but %d target lines", len(jf.SourceLines), len(jf.TargetLines))
	}
	if err := jf.Solver.Validate(); err != nil {
		return nil, err
	}

	source, err := scaleLines(jf.SourceLines, jf.SourcePixelSize)
	if err != nil {
		return nil, errors.Wrap(err, "source_lines")
	}
	target, err := scaleLines(jf.TargetLines, jf.TargetPixelSize)
	if err != nil {
		return nil, errors.Wrap(err, "target_lines")
	}
	return &Job{Source: source, Target: target, Options: jf.Solver, CameraAngles: jf.CameraAngles}, nil
}

// normalizeJSON5 rewrites JSON5 as plain JSON so that types with their own JSON decoding only ever
// see standard JSON. Number literals are carried through as text, so integers above 2^53 keep
// every digit.
func normalizeJSON5(data []byte) ([]byte, error) {
	dec := json5.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrapf(spatialmath.ErrInvalidInput, "parsing json5: %v", err)
	}
	if err := dec.Decode(new(interface{})); !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(spatialmath.ErrInvalidInput, "parsing json5: unexpected data after the top-level value")
	}
	return json.Marshal(plainNumbers(raw))
}

// plainNumbers swaps json5 number literals for encoding/json ones in a decoded tree.
func plainNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json5.Number:
		return json.Number(t)
	case map[string]interface{}:
		for k, e := range t {
			t[k] = plainNumbers(e)
		}
	case []interface{}:
		for i, e := range t {
			t[i] = plainNumbers(e)
		}
	}
	return v
}

// scaleLines treats lines as ray points in voxel indices when a pixel size is given.
func scaleLines(lines []spatialmath.Line, pixelSize *[3]float64) ([]spatialmath.Line, error) {
	out := make([]spatialmath.Line, 0, len(lines))
	for i, l := range lines {
		if pixelSize != nil {
			scaled, err := spatialmath.NewLineFromRay(l.A, l.B, r3.Vector{X: pixelSize[0], Y: pixelSize[1], Z: pixelSize[2]})
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", i)
			}
			l = scaled
		}
		if err := l.Validate(); err != nil {
			return nil, errors.Wrapf(err, "line %d", i)
		}
		out = append(out, l)
	}
	return out, nil
}
