// Package interp provides clamped piecewise-linear lookup tables.
//
// Every curve in the control path (steer limits, gain schedules, accel
// limiters) is a list of breakpoints and values. Inputs outside the
// breakpoint range take the value at the nearest endpoint; nothing is
// extrapolated.
package interp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

var (
	ErrEmptyCurve       = errors.New("curve has no breakpoints")
	ErrLengthMismatch   = errors.New("curve breakpoints and values differ in length")
	ErrNotIncreasing    = errors.New("curve breakpoints are not strictly increasing")
	ErrNonFiniteEntries = errors.New("curve contains NaN entries")
)

// Curve is a breakpoint/value table, e.g. speed -> max steer command.
type Curve struct {
	BP []float64 `json:"bp"`
	V  []float64 `json:"v"`
}

// NewCurve returns a validated curve.
func NewCurve(bp, v []float64) (Curve, error) {
	c := Curve{BP: bp, V: v}
	if err := c.Validate(); err != nil {
		return Curve{}, err
	}
	return c, nil
}

// Const returns a single-breakpoint curve that evaluates to v everywhere.
func Const(v float64) Curve {
	return Curve{BP: []float64{0}, V: []float64{v}}
}

// Validate checks that the curve can be evaluated.
func (c Curve) Validate() error {
	if len(c.BP) == 0 {
		return ErrEmptyCurve
	}
	if len(c.BP) != len(c.V) {
		return fmt.Errorf("%w: %d breakpoints, %d values", ErrLengthMismatch, len(c.BP), len(c.V))
	}
	if floats.HasNaN(c.BP) || floats.HasNaN(c.V) {
		return ErrNonFiniteEntries
	}
	for i := 1; i < len(c.BP); i++ {
		if c.BP[i] <= c.BP[i-1] {
			return fmt.Errorf("%w: bp[%d]=%g after bp[%d]=%g", ErrNotIncreasing, i, c.BP[i], i-1, c.BP[i-1])
		}
	}
	return nil
}

// At evaluates the curve at x. An invalid curve evaluates to 0.
func (c Curve) At(x float64) float64 {
	return Interp(x, c.BP, c.V)
}

// Clone returns a deep copy so profiles never share backing arrays.
func (c Curve) Clone() Curve {
	return Curve{BP: append([]float64(nil), c.BP...), V: append([]float64(nil), c.V...)}
}

// Interp linearly interpolates x over (bp, v), clamping to the endpoint
// values outside [bp[0], bp[n-1]].
func Interp(x float64, bp, v []float64) float64 {
	if (Curve{BP: bp, V: v}).Validate() != nil {
		return 0
	}
	if len(bp) == 1 {
		return v[0]
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(bp, v); err != nil {
		return 0
	}
	return pl.Predict(x)
}

// Table is a pre-fitted curve for fixed tables evaluated every cycle.
type Table struct {
	pl     interp.PiecewiseLinear
	single bool
	value  float64
}

// MustTable fits bp/v and panics if the table is malformed. It is meant
// for package-level tables built from constants.
func MustTable(bp, v []float64) Table {
	c, err := NewCurve(bp, v)
	if err != nil {
		panic(fmt.Sprintf("interp: invalid table: %v", err))
	}
	if len(c.BP) == 1 {
		return Table{single: true, value: c.V[0]}
	}
	var t Table
	if err := t.pl.Fit(c.BP, c.V); err != nil {
		panic(fmt.Sprintf("interp: fit failed: %v", err))
	}
	return t
}

// At evaluates the table at x.
func (t Table) At(x float64) float64 {
	if t.single {
		return t.value
	}
	return t.pl.Predict(x)
}
