package registration

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/lineregistration/spatialmath"
	"go.viam.com/lineregistration/utils"
)

// Report summarizes how well a transform maps each source line onto its target line.
type Report struct {
	// Distances holds the line distance of every pair after transforming the source line.
	Distances []float64
	Mean      float64
	Median    float64
	Max       float64
	// RMS is sqrt(residual / pairs).
	RMS float64
}

// PairDistances returns the distance of every transformed source line to its target line, measuring
// parallel pairs by their separation.
func PairDistances(tf spatialmath.Transform, source, target []spatialmath.Line) ([]float64, error) {
	if err := validateCorrespondences(source, target); err != nil {
		return nil, err
	}
	distances := make([]float64, 0, len(source))
	for i, src := range source {
		d, err := spatialmath.LineDistanceParallelSafe(spatialmath.ApplyTransform(src, tf), target[i])
		if err != nil {
			return nil, errors.Wrapf(err, "pair %d", i)
		}
		distances = append(distances, d)
	}
	return distances, nil
}

// NewReport measures tf against the correspondences. There must be at least one pair.
func NewReport(tf spatialmath.Transform, source, target []spatialmath.Line) (*Report, error) {
	distances, err := PairDistances(tf, source, target)
	if err != nil {
		return nil, err
	}
	if len(distances) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "no line correspondences to report on")
	}

	data := stats.Float64Data(distances)
	mean, errMean := data.Mean()
	median, errMedian := data.Median()
	maxDist, errMax := data.Max()
	sumSquares, errSum := stats.Sum(lo.Map(distances, func(d float64, _ int) float64 { return utils.Square(d) }))
	if err := multierr.Combine(errMean, errMedian, errMax, errSum); err != nil {
		return nil, err
	}
	return &Report{
		Distances: distances,
		Mean:      mean,
		Median:    median,
		Max:       maxDist,
		RMS:       math.Sqrt(sumSquares / float64(len(distances))),
	}, nil
}
