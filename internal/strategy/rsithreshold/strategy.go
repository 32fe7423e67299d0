// Package rsithreshold implements a near-buy-and-hold strategy: take a
// position at the first tradeable bar, afterwards re-enter only on an
// extreme oversold oscillator reading, and exit only on an extreme
// overbought reading or a long-term trend reversal.
package rsithreshold

import (
	"fmt"

	"github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/core"
	"github.com/marlinquant/marlin/internal/indicator"
	"github.com/marlinquant/marlin/internal/strategy"
)

const (
	colRSI   = "rsi"
	colTrend = "trend"
)

// RSIThreshold is the oscillator-bounded variant.
type RSIThreshold struct {
	rsiPeriod       int
	oversold        float64
	overbought      float64
	trendPeriod     int
	trendExitFactor float64
	enterOnStart    bool
}

// New builds the strategy from parameters:
//
//	rsi_period        oscillator look-back (default 14)
//	oversold          entry bound (default 20)
//	overbought        exit bound (default 85)
//	trend_period      long-term SMA length (default 200)
//	trend_exit_factor exit when close < trend * factor (default 0.85)
//	enter_on_start    enter at the first tradeable bar (default true)
func New(params strategy.Params) (*RSIThreshold, error) {
	s := &RSIThreshold{
		rsiPeriod:       params.Int("rsi_period", 14),
		oversold:        params.Float("oversold", 20),
		overbought:      params.Float("overbought", 85),
		trendPeriod:     params.Int("trend_period", 200),
		trendExitFactor: params.Float("trend_exit_factor", 0.85),
		enterOnStart:    params.Bool("enter_on_start", true),
	}
	if s.rsiPeriod < 2 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rsi_period must be at least 2, got %d", s.rsiPeriod))
	}
	if s.oversold < 0 || s.overbought > 100 || s.oversold >= s.overbought {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("oversold %v / overbought %v must satisfy 0 <= oversold < overbought <= 100",
				s.oversold, s.overbought))
	}
	if s.trendPeriod < 2 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("trend_period must be at least 2, got %d", s.trendPeriod))
	}
	if s.trendExitFactor <= 0 || s.trendExitFactor > 1 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("trend_exit_factor must be in (0,1], got %v", s.trendExitFactor))
	}
	return s, nil
}

func (s *RSIThreshold) Name() string {
	return "rsithreshold"
}

func (s *RSIThreshold) WarmUp() int {
	if s.rsiPeriod > s.trendPeriod {
		return s.rsiPeriod
	}
	return s.trendPeriod
}

func (s *RSIThreshold) ComputeIndicators(bars []core.Bar) (*strategy.Frame, error) {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	frame := strategy.NewFrame(bars)
	if err := frame.SetColumn(colRSI, indicator.RSI(closes, s.rsiPeriod)); err != nil {
		return nil, err
	}
	if err := frame.SetColumn(colTrend, indicator.SMA(closes, s.trendPeriod)); err != nil {
		return nil, err
	}
	return frame, nil
}

func (s *RSIThreshold) ShouldEnter(row strategy.Row) *core.MarketSignal {
	bar := row.Bar()

	if s.enterOnStart && row.Index == s.WarmUp() {
		return strategy.Entry(bar.Symbol, core.StrengthStrong, bar.Close, 0.9,
			s.Name(), "initial entry at first tradeable bar", bar.Time)
	}

	rsi := row.Value(colRSI)
	if !indicator.Defined(rsi) || rsi >= s.oversold {
		return nil
	}

	// Deeper oversold readings carry more conviction.
	confidence := 0.75 + (s.oversold-rsi)/s.oversold*0.2
	if confidence > 0.95 {
		confidence = 0.95
	}
	reason := fmt.Sprintf("extreme oversold: RSI %.1f below %.1f", rsi, s.oversold)
	return strategy.Entry(bar.Symbol, core.StrengthStrong, bar.Close, confidence, s.Name(), reason, bar.Time)
}

func (s *RSIThreshold) ShouldExit(row strategy.Row, pos *account.Position) *core.MarketSignal {
	bar := row.Bar()

	if rsi := row.Value(colRSI); indicator.Defined(rsi) && rsi > s.overbought {
		reason := fmt.Sprintf("extreme overbought: RSI %.1f above %.1f", rsi, s.overbought)
		return strategy.Exit(bar.Symbol, core.StrengthStrong, bar.Close, 0.9, s.Name(), reason, bar.Time)
	}

	if trend := row.Value(colTrend); indicator.Defined(trend) && bar.Close < trend*s.trendExitFactor {
		reason := fmt.Sprintf("trend reversal: close %.2f below %.0f%% of SMA%d %.2f",
			bar.Close, s.trendExitFactor*100, s.trendPeriod, trend)
		return strategy.Exit(bar.Symbol, core.StrengthStrong, bar.Close, 0.85, s.Name(), reason, bar.Time)
	}
	return nil
}
