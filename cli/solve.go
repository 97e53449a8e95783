package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/lineregistration/config"
	"go.viam.com/lineregistration/registration"
	"go.viam.com/lineregistration/spatialmath"
	"go.viam.com/lineregistration/viewer"
)

const (
	histogramBins  = 10
	histogramWidth = 40
)

// SolveAction solves the job file given as the only argument and prints the alignment.
func SolveAction(c *cli.Context) error {
	path, err := singleArg(c, "job file")
	if err != nil {
		return err
	}
	logger := newLogger(c)

	job, err := config.ReadJob(path)
	if err != nil {
		return err
	}
	opts := job.Options
	if c.IsSet(flagSeed) {
		opts.Seed = c.Int64(flagSeed)
	}
	if c.IsSet(flagIterations) {
		opts.Iterations = c.Int(flagIterations)
	}
	if c.IsSet(flagChains) {
		opts.Chains = c.Int(flagChains)
	}
	if c.IsSet(flagLocalSolver) {
		opts.LocalSolver = c.String(flagLocalSolver)
	}

	solver, err := registration.NewSolver(logger, opts)
	if err != nil {
		return err
	}
	alignment, err := solver.Solve(c.Context, job.Source, job.Target)
	if err != nil {
		return errors.Wrap(err, "could not register lines")
	}

	printf(c.App.Writer, "%s", transformTable(alignment.Transform()))
	printf(c.App.Writer, "residual: %.6g (%d pairs, %d hops, %d accepted, %d failed local solves)",
		alignment.Residual(), alignment.Pairs(), alignment.Hops(), alignment.Accepted(), alignment.Failures())
	for _, w := range alignment.Warnings() {
		warningf(c.App.ErrWriter, "%s", w)
	}

	if c.Bool(flagReport) {
		if err := printReport(c.App.Writer, alignment.Transform(), job); err != nil {
			return err
		}
	}

	if job.CameraAngles != nil {
		angles, err := viewer.InverseRotationOfCamera(logger, alignment.Transform().Rotation(), *job.CameraAngles)
		if err != nil {
			return errors.Wrap(err, "could not synchronize camera")
		}
		printf(c.App.Writer, "source camera angles: %s", angles)
	}

	if out := c.Path(flagOut); out != "" {
		if err := config.WriteResult(out, alignment); err != nil {
			return err
		}
		printf(c.App.Writer, "wrote %s", out)
	}
	return nil
}

// SyncCameraAction prints the source viewer camera angles for a result file and target camera.
func SyncCameraAction(c *cli.Context) error {
	path, err := singleArg(c, "result file")
	if err != nil {
		return err
	}
	camera, err := viewer.ParseAngles(c.String(flagAngles))
	if err != nil {
		return err
	}
	alignment, err := config.ReadResult(path)
	if err != nil {
		return err
	}
	angles, err := viewer.InverseRotationOfCamera(newLogger(c), alignment.Transform().Rotation(), camera)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", angles)
	return nil
}

// SchemaAction prints the JSON schema of job files.
func SchemaAction(c *cli.Context) error {
	data, err := json.MarshalIndent(config.JobSchema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", data)
	return nil
}

func printReport(w io.Writer, tf spatialmath.Transform, job *config.Job) error {
	report, err := registration.NewReport(tf, job.Source, job.Target)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Pair", "Distance"})
	for i, d := range report.Distances {
		t.AppendRow(table.Row{i, fmt.Sprintf("%.6g", d)})
	}
	t.AppendFooter(table.Row{"RMS", fmt.Sprintf("%.6g", report.RMS)})
	printf(w, "%s", t.Render())
	printf(w, "mean %.6g, median %.6g, max %.6g", report.Mean, report.Median, report.Max)
	return histogram.Fprint(w, histogram.Hist(histogramBins, report.Distances), histogram.Linear(histogramWidth))
}

// transformTable renders a homogeneous transform one matrix row per table row.
func transformTable(tf spatialmath.Transform) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"", "X", "Y", "Z", "T"})
	for r, row := range tf.Rows() {
		t.AppendRow(table.Row{
			fmt.Sprintf("%d", r),
			fmt.Sprintf("%.6f", row[0]),
			fmt.Sprintf("%.6f", row[1]),
			fmt.Sprintf("%.6f", row[2]),
			fmt.Sprintf("%.6f", row[3]),
		})
	}
	return t.Render()
}
