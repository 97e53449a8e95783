// Package cli contains all business logic needed by the lineregister command.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/lineregistration/registration"
)

const (
	// Flags.
	flagDebug       = "debug"
	flagSeed        = "seed"
	flagIterations  = "iterations"
	flagChains      = "chains"
	flagLocalSolver = "local-solver"
	flagOut         = "out"
	flagAngles      = "angles"
	flagReport      = "report"
)

var app = &cli.App{
	Name:            "lineregister",
	Usage:           "rigidly register two 3D volumes from corresponding line segments",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "solve",
			Usage:     "find the rigid transform mapping a job's source lines onto its target lines",
			ArgsUsage: "<job.json5>",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:  flagSeed,
					Usage: "seed for the first basin hopping chain, overriding the job file",
				},
				&cli.IntFlag{
					Name:  flagIterations,
					Usage: "basin hopping iterations per chain, overriding the job file",
				},
				&cli.IntFlag{
					Name:  flagChains,
					Usage: "number of chains to run concurrently, overriding the job file",
				},
				&cli.StringFlag{
					Name:  flagLocalSolver,
					Usage: "local minimizer: " + registration.LocalSolverBFGS + " or " + registration.LocalSolverNloptLBFGS,
				},
				&cli.BoolFlag{
					Name:  flagReport,
					Usage: "print per-pair line distances and their histogram",
				},
				&cli.PathFlag{
					Name:    flagOut,
					Aliases: []string{"o"},
					Usage:   "write the alignment to `FILE` as JSON",
				},
			},
			Action: SolveAction,
		},
		{
			Name:      "sync-camera",
			Usage:     "compute source viewer camera angles matching a target viewer camera",
			ArgsUsage: "<result.json>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagAngles,
					Usage:    "target viewer camera angles in degrees as `X,Y,Z`",
					Required: true,
				},
			},
			Action: SyncCameraAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of job files",
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
