// Package dca implements a periodic-accumulation strategy: buy a fraction
// of the remaining balance on a fixed bar cadence, scale the fraction up
// when price has drawn down from its running peak and down when recent
// volatility is high, take profit at a configured gain, and rebuy
// immediately after a crash.
package dca

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/core"
	"github.com/marlinquant/marlin/internal/indicator"
	"github.com/marlinquant/marlin/internal/strategy"
)

const (
	colPeak = "peak"
	colVol  = "vol"
)

// DCA is the periodic-accumulation variant.
type DCA struct {
	intervalBars     int
	baseFraction     float64
	drawdownModerate float64
	drawdownSevere   float64
	multModerate     float64
	multSevere       float64
	volPeriod        int
	volDamp          float64
	takeProfitPct    float64
	crashDrawdown    float64
}

// New builds the strategy from parameters:
//
//	interval_bars     bars between scheduled buys (default 5)
//	base_fraction     balance fraction per scheduled buy (default 0.1)
//	drawdown_moderate peak drawdown ratio scaling buys up (default 0.10)
//	drawdown_severe   deeper drawdown ratio scaling harder (default 0.25)
//	mult_moderate     multiplier at moderate drawdown (default 2)
//	mult_severe       multiplier at severe drawdown (default 4)
//	vol_period        volatility look-back (default 20)
//	vol_damp          dampening of buys per unit volatility ratio (default 10)
//	take_profit_pct   exit when unrealized gain reaches this percent (default 25)
//	crash_drawdown    immediate rebuy below this peak drawdown (default 0.35)
func New(params strategy.Params) (*DCA, error) {
	d := &DCA{
		intervalBars:     params.Int("interval_bars", 5),
		baseFraction:     params.Float("base_fraction", 0.1),
		drawdownModerate: params.Float("drawdown_moderate", 0.10),
		drawdownSevere:   params.Float("drawdown_severe", 0.25),
		multModerate:     params.Float("mult_moderate", 2),
		multSevere:       params.Float("mult_severe", 4),
		volPeriod:        params.Int("vol_period", 20),
		volDamp:          params.Float("vol_damp", 10),
		takeProfitPct:    params.Float("take_profit_pct", 25),
		crashDrawdown:    params.Float("crash_drawdown", 0.35),
	}
	if d.intervalBars < 1 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("interval_bars must be positive, got %d", d.intervalBars))
	}
	if d.baseFraction <= 0 || d.baseFraction > 1 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("base_fraction must be in (0,1], got %v", d.baseFraction))
	}
	if d.drawdownModerate >= d.drawdownSevere {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("drawdown_moderate %v must be below drawdown_severe %v",
				d.drawdownModerate, d.drawdownSevere))
	}
	if d.volPeriod < 2 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("vol_period must be at least 2, got %d", d.volPeriod))
	}
	if d.takeProfitPct <= 0 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("take_profit_pct must be positive, got %v", d.takeProfitPct))
	}
	return d, nil
}

func (d *DCA) Name() string {
	return "dca"
}

func (d *DCA) WarmUp() int {
	return d.volPeriod
}

func (d *DCA) ComputeIndicators(bars []core.Bar) (*strategy.Frame, error) {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	frame := strategy.NewFrame(bars)
	if err := frame.SetColumn(colPeak, indicator.RunningMax(closes)); err != nil {
		return nil, err
	}
	if err := frame.SetColumn(colVol, indicator.StdDev(closes, d.volPeriod)); err != nil {
		return nil, err
	}
	return frame, nil
}

func (d *DCA) ShouldEnter(row strategy.Row) *core.MarketSignal {
	bar := row.Bar()
	dd := d.drawdown(row)

	if dd >= d.crashDrawdown {
		reason := fmt.Sprintf("crash rebuy: %.1f%% below running peak", dd*100)
		return strategy.Entry(bar.Symbol, core.StrengthStrong, bar.Close, 0.9, d.Name(), reason, bar.Time)
	}

	if row.Index%d.intervalBars == 0 {
		reason := fmt.Sprintf("scheduled accumulation every %d bars", d.intervalBars)
		return strategy.Entry(bar.Symbol, core.StrengthModerate, bar.Close, 0.75, d.Name(), reason, bar.Time)
	}
	return nil
}

func (d *DCA) ShouldExit(row strategy.Row, pos *account.Position) *core.MarketSignal {
	target := decimal.NewFromFloat(d.takeProfitPct)
	if pos.PnLPercent().GreaterThanOrEqual(target) {
		bar := row.Bar()
		reason := fmt.Sprintf("take profit: up %s%% against %v%% target",
			pos.PnLPercent().StringFixed(1), d.takeProfitPct)
		return strategy.Exit(bar.Symbol, core.StrengthStrong, bar.Close, 0.9, d.Name(), reason, bar.Time)
	}
	return nil
}

// EntryFraction scales the base fraction by the drawdown multiplier and
// damps it by recent volatility. It implements strategy.Sizer.
func (d *DCA) EntryFraction(row strategy.Row) float64 {
	fraction := d.baseFraction

	switch dd := d.drawdown(row); {
	case dd >= d.drawdownSevere:
		fraction *= d.multSevere
	case dd >= d.drawdownModerate:
		fraction *= d.multModerate
	}

	bar := row.Bar()
	if vol := row.Value(colVol); indicator.Defined(vol) && bar.Close > 0 {
		fraction /= 1 + (vol/bar.Close)*d.volDamp
	}

	if fraction > 1 {
		fraction = 1
	}
	return fraction
}

// drawdown returns how far the close sits below the running peak, as a
// ratio in [0,1).
func (d *DCA) drawdown(row strategy.Row) float64 {
	peak := row.Value(colPeak)
	if !indicator.Defined(peak) || peak <= 0 {
		return 0
	}
	return (peak - row.Bar().Close) / peak
}
