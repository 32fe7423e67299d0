package strategy

import (
	"fmt"
	"math"

	"github.com/marlinquant/marlin/internal/core"
	"github.com/marlinquant/marlin/internal/indicator"
)

// Frame is a bar series augmented with named indicator columns. Every
// column has the same length as the series, so row i of a column is
// derived only from bars [0..i].
type Frame struct {
	bars    []core.Bar
	columns map[string][]float64
}

// NewFrame creates a frame over the given bars with no columns.
func NewFrame(bars []core.Bar) *Frame {
	return &Frame{
		bars:    bars,
		columns: make(map[string][]float64),
	}
}

// SetColumn attaches an indicator series to the frame. The series must be
// exactly as long as the bar series.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != len(f.bars) {
		return core.WrapError(core.ErrValidation,
			fmt.Errorf("column %q has %d values for %d bars", name, len(values), len(f.bars)))
	}
	f.columns[name] = values
	return nil
}

// Len returns the number of bars in the frame.
func (f *Frame) Len() int {
	return len(f.bars)
}

// Row returns a view over bar i and its indicator values.
func (f *Frame) Row(i int) Row {
	return Row{frame: f, Index: i}
}

// Row is a single bar together with the indicator values computed for it.
type Row struct {
	frame *Frame
	Index int
}

// Bar returns the underlying bar.
func (r Row) Bar() core.Bar {
	return r.frame.bars[r.Index]
}

// Value returns the named indicator value at this row, or NaN when the
// column does not exist.
func (r Row) Value(column string) float64 {
	col, ok := r.frame.columns[column]
	if !ok {
		return math.NaN()
	}
	return col[r.Index]
}

// Prev returns the indicator value one bar earlier, or NaN at index 0.
func (r Row) Prev(column string) float64 {
	if r.Index == 0 {
		return math.NaN()
	}
	col, ok := r.frame.columns[column]
	if !ok {
		return math.NaN()
	}
	return col[r.Index-1]
}

// Defined reports whether all named columns are outside their warm-up
// window at this row.
func (r Row) Defined(columns ...string) bool {
	for _, c := range columns {
		if !indicator.Defined(r.Value(c)) {
			return false
		}
	}
	return true
}
