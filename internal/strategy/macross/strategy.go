// Package macross implements a trend-following moving-average crossover
// strategy: enter on a golden cross of the fast average over the slow one,
// exit on the reverse cross. With enter_on_start it instead takes its first
// position at the first tradeable bar and only the exit rule remains
// active, which makes it behave like buy-and-hold until a death cross.
package macross

import (
	"fmt"

	"github.com/marlinquant/marlin/internal/core"
	"github.com/marlinquant/marlin/internal/indicator"
	"github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/strategy"
)

const (
	colFast = "fast"
	colSlow = "slow"
)

// MACross is the moving-average crossover variant.
type MACross struct {
	fastPeriod   int
	slowPeriod   int
	maType       string // "ema" or "sma"
	enterOnStart bool
}

// New builds the strategy from parameters:
//
//	fast_period    fast average length (default 20)
//	slow_period    slow average length (default 200)
//	ma_type        "ema" or "sma" (default "ema")
//	enter_on_start enter at the first tradeable bar (default false)
func New(params strategy.Params) (*MACross, error) {
	m := &MACross{
		fastPeriod:   params.Int("fast_period", 20),
		slowPeriod:   params.Int("slow_period", 200),
		maType:       params.String("ma_type", "ema"),
		enterOnStart: params.Bool("enter_on_start", false),
	}
	if m.fastPeriod < 1 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fast_period must be positive, got %d", m.fastPeriod))
	}
	if m.fastPeriod >= m.slowPeriod {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fast_period %d must be shorter than slow_period %d", m.fastPeriod, m.slowPeriod))
	}
	if m.maType != "ema" && m.maType != "sma" {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("ma_type must be \"ema\" or \"sma\", got %q", m.maType))
	}
	return m, nil
}

func (m *MACross) Name() string {
	return "macross"
}

// WarmUp covers the slow average plus the previous row a cross check needs.
func (m *MACross) WarmUp() int {
	return m.slowPeriod
}

func (m *MACross) ComputeIndicators(bars []core.Bar) (*strategy.Frame, error) {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	ma := indicator.EMA
	if m.maType == "sma" {
		ma = indicator.SMA
	}

	frame := strategy.NewFrame(bars)
	if err := frame.SetColumn(colFast, ma(closes, m.fastPeriod)); err != nil {
		return nil, err
	}
	if err := frame.SetColumn(colSlow, ma(closes, m.slowPeriod)); err != nil {
		return nil, err
	}
	return frame, nil
}

func (m *MACross) ShouldEnter(row strategy.Row) *core.MarketSignal {
	bar := row.Bar()

	if m.enterOnStart && row.Index == m.WarmUp() {
		return strategy.Entry(bar.Symbol, core.StrengthStrong, bar.Close, 0.9,
			m.Name(), "initial entry at first tradeable bar", bar.Time)
	}

	if !row.Defined(colFast, colSlow) {
		return nil
	}
	currFast, currSlow := row.Value(colFast), row.Value(colSlow)
	prevFast, prevSlow := row.Prev(colFast), row.Prev(colSlow)
	if !indicator.Defined(prevFast) || !indicator.Defined(prevSlow) {
		return nil
	}

	// Golden cross: fast crosses above slow.
	if prevFast <= prevSlow && currFast > currSlow {
		reason := fmt.Sprintf("golden cross: MA%d %.2f over MA%d %.2f",
			m.fastPeriod, currFast, m.slowPeriod, currSlow)
		return strategy.Entry(bar.Symbol, core.StrengthStrong, bar.Close,
			m.confidence(currFast, currSlow), m.Name(), reason, bar.Time)
	}
	return nil
}

func (m *MACross) ShouldExit(row strategy.Row, pos *account.Position) *core.MarketSignal {
	if !row.Defined(colFast, colSlow) {
		return nil
	}
	currFast, currSlow := row.Value(colFast), row.Value(colSlow)
	prevFast, prevSlow := row.Prev(colFast), row.Prev(colSlow)
	if !indicator.Defined(prevFast) || !indicator.Defined(prevSlow) {
		return nil
	}

	// Death cross: fast crosses below slow.
	if prevFast >= prevSlow && currFast < currSlow {
		bar := row.Bar()
		reason := fmt.Sprintf("death cross: MA%d %.2f under MA%d %.2f",
			m.fastPeriod, currFast, m.slowPeriod, currSlow)
		return strategy.Exit(bar.Symbol, core.StrengthStrong, bar.Close,
			m.confidence(currFast, currSlow), m.Name(), reason, bar.Time)
	}
	return nil
}

// confidence grows with the divergence between the averages. A fresh cross
// starts at the actionable floor and widens toward 0.95.
func (m *MACross) confidence(fast, slow float64) float64 {
	diff := (fast - slow) / slow
	if diff < 0 {
		diff = -diff
	}
	c := 0.7 + diff*10
	if c > 0.95 {
		c = 0.95
	}
	return c
}
