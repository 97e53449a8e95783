// Package session keeps the state of one interactive registration: the captured line pairs, the
// physical pixel sizes of both volumes, and the latest alignment. It is safe for concurrent use.
package session

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/lineregistration/logging"
	"go.viam.com/lineregistration/registration"
	"go.viam.com/lineregistration/spatialmath"
	"go.viam.com/lineregistration/utils"
	"go.viam.com/lineregistration/viewer"
)

var (
	// ErrNoAlignment is returned by operations that need a solved alignment before one exists.
	ErrNoAlignment = errors.New("no alignment has been computed yet")

	// ErrPairsChanged is returned by Align when lines were added, deleted or reset while it solved.
	ErrPairsChanged = errors.New("line pairs changed while solving")
)

// Config describes a session.
type Config struct {
	// SourcePixelSize and TargetPixelSize scale captured ray points from voxel indices to physical
	// units. A zero value means unit pixels.
	SourcePixelSize r3.Vector
	TargetPixelSize r3.Vector
	Solver          registration.Options
}

// NewConfig returns a Config with unit pixel sizes and default solver options.
func NewConfig() Config {
	return Config{
		SourcePixelSize: unitPixel,
		TargetPixelSize: unitPixel,
		Solver:          registration.DefaultOptions(),
	}
}

var unitPixel = r3.Vector{X: 1, Y: 1, Z: 1}

// Session is one registration in progress.
type Session struct {
	logger          logging.Logger
	solve           func(ctx context.Context, source, target []spatialmath.Line) (*registration.Alignment, error)
	sourcePixelSize r3.Vector
	targetPixelSize r3.Vector

	mu        sync.Mutex
	pairs     Pairs
	alignment *registration.Alignment
}

// New returns an empty session.
func New(logger logging.Logger, cfg Config) (*Session, error) {
	solver, err := registration.NewSolver(logger.Sublogger("solver"), cfg.Solver)
	if err != nil {
		return nil, err
	}
	return &Session{
		logger:          logger,
		solve:           solver.Solve,
		sourcePixelSize: lo.Ternary(cfg.SourcePixelSize == (r3.Vector{}), unitPixel, cfg.SourcePixelSize),
		targetPixelSize: lo.Ternary(cfg.TargetPixelSize == (r3.Vector{}), unitPixel, cfg.TargetPixelSize),
	}, nil
}

// AddSourceLine appends a source line given in physical units.
func (s *Session) AddSourceLine(line spatialmath.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pairs.AddSource(line); err != nil {
		return err
	}
	s.logger.Debugw("added source line", "index", len(s.pairs.source)-1, "line", line)
	return nil
}

// AddTargetLine appends a target line given in physical units.
func (s *Session) AddTargetLine(line spatialmath.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pairs.AddTarget(line); err != nil {
		return err
	}
	s.logger.Debugw("added target line", "index", len(s.pairs.target)-1, "line", line)
	return nil
}

// AddSourceRay captures a source line from the near and far points where a pick ray crossed the
// source volume, in voxel indices.
func (s *Session) AddSourceRay(near, far r3.Vector) error {
	line, err := spatialmath.NewLineFromRay(near, far, s.sourcePixelSize)
	if err != nil {
		return err
	}
	return s.AddSourceLine(line)
}

// AddTargetRay is AddSourceRay for the target volume.
func (s *Session) AddTargetRay(near, far r3.Vector) error {
	line, err := spatialmath.NewLineFromRay(near, far, s.targetPixelSize)
	if err != nil {
		return err
	}
	return s.AddTargetLine(line)
}

// DeletePair removes row i from both lists.
func (s *Session) DeletePair(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pairs.Delete(i); err != nil {
		return err
	}
	s.logger.Debugw("deleted line pair", "index", i)
	return nil
}

// Rows returns a snapshot of the correspondence table.
func (s *Session) Rows() []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pairs.Rows()
}

// Reset drops every line and the current alignment.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs.Clear()
	s.alignment = nil
}

// Align solves for the current pairs and replaces the session's alignment with the result. On error
// the previous alignment is kept. The session stays usable while solving; if the pairs change before
// the solve finishes its result is discarded with ErrPairsChanged.
func (s *Session) Align(ctx context.Context) (*registration.Alignment, error) {
	s.mu.Lock()
	source, target, err := s.pairs.Lines()
	generation := s.pairs.Generation()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	alignment, err := s.solve(ctx, source, target)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pairs.Generation() != generation {
		s.logger.Debugw("discarding alignment for changed pairs", "solved_pairs", len(source), "pairs", s.pairs.Len())
		return nil, ErrPairsChanged
	}
	if s.alignment != nil {
		degrees, distance := transformChange(s.alignment.Transform(), alignment.Transform())
		s.logger.Infow("alignment updated",
			"pairs", len(source),
			"residual", alignment.Residual(),
			"rotation_change_deg", degrees,
			"translation_change", distance)
	}
	s.alignment = alignment
	return alignment, nil
}

// transformChange measures how far next moves lines already placed by prev: the angle of the relative
// rotation in degrees and the length of the relative translation.
func transformChange(prev, next spatialmath.Transform) (float64, float64) {
	between := spatialmath.OrientationBetween(prev.Rotation(), next.Rotation())
	delta := next.Compose(prev.Inverse())
	return utils.RadToDeg(between.AxisAngles().Theta), delta.Translation().Norm()
}

// Alignment returns the latest alignment, or nil before the first successful Align.
func (s *Session) Alignment() *registration.Alignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alignment
}

// AlignedSourceLines returns the source lines moved by the current alignment.
func (s *Session) AlignedSourceLines() ([]spatialmath.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alignment == nil {
		return nil, ErrNoAlignment
	}
	tf := s.alignment.Transform()
	return lo.Map(s.pairs.source, func(l spatialmath.Line, _ int) spatialmath.Line {
		return spatialmath.ApplyTransform(l, tf)
	}), nil
}

// SyncCamera returns the source viewer camera angles that match the target viewer's camera under
// the current alignment. Before the first alignment the volumes are taken as already registered and
// the target camera is returned as is.
func (s *Session) SyncCamera(targetCamera viewer.Angles) (viewer.Angles, error) {
	rotation := spatialmath.NewZeroOrientation().RotationMatrix()
	if alignment := s.Alignment(); alignment != nil {
		rotation = alignment.Transform().Rotation()
	}
	return viewer.InverseRotationOfCamera(s.logger, rotation, targetCamera)
}
