package session

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/lineregistration/spatialmath"
)

// Pair is one row of the correspondence table. Source or Target is nil while its line is pending.
type Pair struct {
	Index  int
	Source *spatialmath.Line
	Target *spatialmath.Line
}

// Complete reports whether both lines of the pair have been captured.
func (p Pair) Complete() bool {
	return p.Source != nil && p.Target != nil
}

// Pairs holds the ordered source and target line lists. Lines are captured alternately: a list may
// only grow while it is not longer than the other one, so the lists never differ by more than one
// and element i of one list always corresponds to element i of the other.
type Pairs struct {
	source     []spatialmath.Line
	target     []spatialmath.Line
	generation uint64
}

// AddSource appends a source line. It fails if a source line is already waiting for its target.
func (p *Pairs) AddSource(line spatialmath.Line) error {
	if len(p.source) > len(p.target) {
		return errors.Wrapf(spatialmath.ErrInvalidInput, "source line %d is still waiting for a target line", len(p.source)-1)
	}
	if err := line.Validate(); err != nil {
		return err
	}
	p.source = append(p.source, line)
	p.generation++
	return nil
}

// AddTarget appends a target line. It fails if a target line is already waiting for its source.
func (p *Pairs) AddTarget(line spatialmath.Line) error {
	if len(p.target) > len(p.source) {
		return errors.Wrapf(spatialmath.ErrInvalidInput, "target line %d is still waiting for a source line", len(p.target)-1)
	}
	if err := line.Validate(); err != nil {
		return err
	}
	p.target = append(p.target, line)
	p.generation++
	return nil
}

// Delete removes row i from both lists, including a pending line at that row.
func (p *Pairs) Delete(i int) error {
	if i < 0 || (i >= len(p.source) && i >= len(p.target)) {
		return errors.Wrapf(spatialmath.ErrInvalidInput, "no line pair at index %d", i)
	}
	if i < len(p.source) {
		p.source = append(p.source[:i:i], p.source[i+1:]...)
	}
	if i < len(p.target) {
		p.target = append(p.target[:i:i], p.target[i+1:]...)
	}
	p.generation++
	return nil
}

// Len returns the number of complete pairs.
func (p *Pairs) Len() int {
	return min(len(p.source), len(p.target))
}

// Pending reports whether one line is waiting for its counterpart.
func (p *Pairs) Pending() bool {
	return len(p.source) != len(p.target)
}

// Lines returns copies of the source and target lists. It fails while a line is pending.
func (p *Pairs) Lines() ([]spatialmath.Line, []spatialmath.Line, error) {
	if p.Pending() {
		return nil, nil, errors.Wrapf(spatialmath.ErrInvalidInput,
			"%d source and %d target lines: finish or delete the pending pair first", len(p.source), len(p.target))
	}
	return append([]spatialmath.Line(nil), p.source...), append([]spatialmath.Line(nil), p.target...), nil
}

// Rows returns one Pair per row, pending rows included.
func (p *Pairs) Rows() []Pair {
	rows := make([]int, max(len(p.source), len(p.target)))
	return lo.Map(rows, func(_ int, i int) Pair {
		row := Pair{Index: i}
		if i < len(p.source) {
			l := p.source[i]
			row.Source = &l
		}
		if i < len(p.target) {
			l := p.target[i]
			row.Target = &l
		}
		return row
	})
}

// Clear removes every line.
func (p *Pairs) Clear() {
	p.source = nil
	p.target = nil
	p.generation++
}

// Generation counts the mutations so far. Two equal generations mean the lists did not change in
// between.
func (p *Pairs) Generation() uint64 {
	return p.generation
}
