package session

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/lineregistration/spatialmath"
)

func line(ax, ay, az, bx, by, bz float64) spatialmath.Line {
	return spatialmath.NewLine(r3.Vector{X: ax, Y: ay, Z: az}, r3.Vector{X: bx, Y: by, Z: bz})
}

func TestPairsAlternate(t *testing.T) {
	var p Pairs
	test.That(t, p.AddSource(line(0, 0, 0, 1, 0, 0)), test.ShouldBeNil)
	test.That(t, p.Pending(), test.ShouldBeTrue)
	test.That(t, p.Len(), test.ShouldEqual, 0)

	err := p.AddSource(line(0, 0, 0, 0, 1, 0))
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)

	test.That(t, p.AddTarget(line(0, 0, 1, 1, 0, 1)), test.ShouldBeNil)
	test.That(t, p.Pending(), test.ShouldBeFalse)
	test.That(t, p.Len(), test.ShouldEqual, 1)

	// either side may start the next pair
	test.That(t, p.AddTarget(line(0, 0, 1, 0, 1, 1)), test.ShouldBeNil)
	err = p.AddTarget(line(0, 0, 2, 0, 1, 2))
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, p.AddSource(line(0, 0, 0, 0, 1, 0)), test.ShouldBeNil)
	test.That(t, p.Len(), test.ShouldEqual, 2)

	source, target, err := p.Lines()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(source), test.ShouldEqual, 2)
	test.That(t, source[1], test.ShouldResemble, line(0, 0, 0, 0, 1, 0))
	test.That(t, target[1], test.ShouldResemble, line(0, 0, 1, 0, 1, 1))

	// copies
	source[0] = line(9, 9, 9, 8, 8, 8)
	again, _, err := p.Lines()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again[0], test.ShouldResemble, line(0, 0, 0, 1, 0, 0))
}

func TestPairsRejectsDegenerateLine(t *testing.T) {
	var p Pairs
	err := p.AddSource(line(1, 1, 1, 1, 1, 1))
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, p.Pending(), test.ShouldBeFalse)
}

func TestPairsPendingBlocksLines(t *testing.T) {
	var p Pairs
	test.That(t, p.AddTarget(line(0, 0, 0, 1, 0, 0)), test.ShouldBeNil)
	_, _, err := p.Lines()
	test.That(t, errors.Is(err, spatialmath.ErrInvalidInput), test.ShouldBeTrue)
}

func TestPairsDelete(t *testing.T) {
	var p Pairs
	for i := 0; i < 3; i++ {
		f := float64(i)
		test.That(t, p.AddSource(line(f, 0, 0, f, 1, 0)), test.ShouldBeNil)
		test.That(t, p.AddTarget(line(f, 0, 1, f, 1, 1)), test.ShouldBeNil)
	}
	test.That(t, p.AddSource(line(5, 0, 0, 5, 1, 0)), test.ShouldBeNil)

	test.That(t, p.Delete(1), test.ShouldBeNil)
	source, target := p.source, p.target
	test.That(t, len(source), test.ShouldEqual, 3)
	test.That(t, len(target), test.ShouldEqual, 2)
	test.That(t, source[1], test.ShouldResemble, line(2, 0, 0, 2, 1, 0))
	test.That(t, target[1], test.ShouldResemble, line(2, 0, 1, 2, 1, 1))

	// the pending source line lives in row 2
	test.That(t, p.Delete(2), test.ShouldBeNil)
	test.That(t, p.Pending(), test.ShouldBeFalse)
	test.That(t, p.Len(), test.ShouldEqual, 2)

	test.That(t, errors.Is(p.Delete(2), spatialmath.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, errors.Is(p.Delete(-1), spatialmath.ErrInvalidInput), test.ShouldBeTrue)
}

func TestPairsRows(t *testing.T) {
	var p Pairs
	test.That(t, p.Rows(), test.ShouldBeEmpty)

	test.That(t, p.AddSource(line(0, 0, 0, 1, 0, 0)), test.ShouldBeNil)
	test.That(t, p.AddTarget(line(0, 0, 1, 1, 0, 1)), test.ShouldBeNil)
	test.That(t, p.AddSource(line(0, 0, 0, 0, 1, 0)), test.ShouldBeNil)

	rows := p.Rows()
	test.That(t, len(rows), test.ShouldEqual, 2)
	test.That(t, rows[0].Complete(), test.ShouldBeTrue)
	test.That(t, rows[1].Index, test.ShouldEqual, 1)
	test.That(t, rows[1].Complete(), test.ShouldBeFalse)
	test.That(t, rows[1].Target, test.ShouldBeNil)
	test.That(t, *rows[1].Source, test.ShouldResemble, line(0, 0, 0, 0, 1, 0))

	p.Clear()
	test.That(t, p.Rows(), test.ShouldBeEmpty)
}

func TestPairsGeneration(t *testing.T) {
	var p Pairs
	test.That(t, p.Generation(), test.ShouldEqual, uint64(0))

	test.That(t, p.AddSource(line(0, 0, 0, 1, 0, 0)), test.ShouldBeNil)
	test.That(t, p.AddTarget(line(0, 0, 1, 1, 0, 1)), test.ShouldBeNil)
	test.That(t, p.Generation(), test.ShouldEqual, uint64(2))

	// rejected captures and reads leave it alone
	test.That(t, p.AddSource(line(1, 1, 1, 1, 1, 1)), test.ShouldNotBeNil)
	test.That(t, p.Delete(5), test.ShouldNotBeNil)
	_, _, err := p.Lines()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Generation(), test.ShouldEqual, uint64(2))

	test.That(t, p.Delete(0), test.ShouldBeNil)
	test.That(t, p.Generation(), test.ShouldEqual, uint64(3))
	p.Clear()
	test.That(t, p.Generation(), test.ShouldEqual, uint64(4))
}
