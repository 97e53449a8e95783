package registration

import (
	"encoding/json"

	"github.com/pkg/errors"

	"go.viam.com/lineregistration/spatialmath"
)

// Alignment is the immutable outcome of a solve. Holders replace it wholesale; it has no setters.
type Alignment struct {
	transform    spatialmath.Transform
	params       [6]float64
	residual     float64
	pairs        int
	chain        int
	hops         int
	accepted     int
	failures     int
	nonconverged int
	warnings     []string
}

// Transform returns the best-fit homogeneous transform.
func (a *Alignment) Transform() spatialmath.Transform {
	return a.transform
}

// Params returns the best parameter vector (rx, ry, rz, tx, ty, tz).
func (a *Alignment) Params() [6]float64 {
	return a.params
}

// Residual returns the objective value at Params.
func (a *Alignment) Residual() float64 {
	return a.residual
}

// Pairs returns the number of correspondences solved for.
func (a *Alignment) Pairs() int {
	return a.pairs
}

// Chain returns the index of the chain that found the best minimum.
func (a *Alignment) Chain() int {
	return a.chain
}

// Hops returns the number of hops attempted across all chains.
func (a *Alignment) Hops() int {
	return a.hops
}

// Accepted returns the number of hops accepted by the Metropolis rule across all chains.
func (a *Alignment) Accepted() int {
	return a.accepted
}

// Failures returns the number of local minimizations that produced no usable location.
func (a *Alignment) Failures() int {
	return a.failures
}

// Nonconverged returns the number of local minimizations that stopped early but still produced a
// location.
func (a *Alignment) Nonconverged() int {
	return a.nonconverged
}

// Warnings returns the distinct non-fatal conditions met during the solve.
func (a *Alignment) Warnings() []string {
	return append([]string(nil), a.warnings...)
}

type alignmentJSON struct {
	Matrix       *spatialmath.Transform `json:"matrix"`
	Params       [6]float64             `json:"params"`
	Residual     float64                `json:"residual"`
	Pairs        int                    `json:"pairs"`
	Chain        int                    `json:"chain"`
	Hops         int                    `json:"hops"`
	Accepted     int                    `json:"accepted"`
	Failures     int                    `json:"failures"`
	Nonconverged int                    `json:"nonconverged"`
	Warnings     []string               `json:"warnings"`
}

// MarshalJSON encodes the alignment for result files.
func (a *Alignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(alignmentJSON{
		Matrix:       &a.transform,
		Params:       a.params,
		Residual:     a.residual,
		Pairs:        a.pairs,
		Chain:        a.chain,
		Hops:         a.hops,
		Accepted:     a.accepted,
		Failures:     a.failures,
		Nonconverged: a.nonconverged,
		Warnings:     a.Warnings(),
	})
}

// UnmarshalJSON decodes a result file. The matrix must be a valid homogeneous transform.
func (a *Alignment) UnmarshalJSON(data []byte) error {
	var aj alignmentJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return err
	}
	if aj.Matrix == nil {
		return errors.Wrap(ErrInvalidInput, "alignment has no matrix")
	}
	*a = Alignment{
		transform:    *aj.Matrix,
		params:       aj.Params,
		residual:     aj.Residual,
		pairs:        aj.Pairs,
		chain:        aj.Chain,
		hops:         aj.Hops,
		accepted:     aj.Accepted,
		failures:     aj.Failures,
		nonconverged: aj.Nonconverged,
		warnings:     aj.Warnings,
	}
	return nil
}
