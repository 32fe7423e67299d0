// Package strategy defines the capability interface trading strategies
// implement and a registry the CLI builds them from. The simulator is
// generic over the interface and never branches on a variant's identity.
package strategy

import (
	"time"

	"github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/core"
)

// Strategy is the shared contract of all variants: derive indicator
// columns once for a full series, then answer entry and exit questions
// row by row. The simulator consults ShouldEnter only when flat and
// ShouldExit only when a position is open, so a variant never has to
// arbitrate between conflicting decisions on the same bar.
type Strategy interface {
	// Name identifies the variant, e.g. "macross".
	Name() string

	// WarmUp is the number of leading bars whose indicator values are
	// still undefined. The simulator skips them and refuses series that
	// are not longer than this.
	WarmUp() int

	// ComputeIndicators derives the variant's indicator columns for the
	// whole series. It is pure: same bars, same frame.
	ComputeIndicators(bars []core.Bar) (*Frame, error)

	// ShouldEnter returns an entry signal for this row, or nil.
	ShouldEnter(row Row) *core.MarketSignal

	// ShouldExit returns an exit signal for this row given the open
	// position, or nil.
	ShouldExit(row Row, pos *account.Position) *core.MarketSignal
}

// Sizer is implemented by strategies that invest only a fraction of the
// available balance per entry. Without it the simulator goes all-in.
type Sizer interface {
	// EntryFraction returns the fraction of available balance to invest
	// for an entry at this row, in (0,1].
	EntryFraction(row Row) float64
}

// Entry builds a BUY signal for a strategy decision. Strategies construct
// signals only with validated inputs, so a construction failure is
// reported as a nil decision.
func Entry(symbol string, strength core.SignalStrength, price, confidence float64, source, reason string, at time.Time) *core.MarketSignal {
	sig, err := core.NewSignal(symbol, core.SignalBuy, strength, price, confidence, source, at)
	if err != nil {
		return nil
	}
	sig = sig.WithReason(reason)
	return &sig
}

// Exit builds a SELL signal for a strategy decision.
func Exit(symbol string, strength core.SignalStrength, price, confidence float64, source, reason string, at time.Time) *core.MarketSignal {
	sig, err := core.NewSignal(symbol, core.SignalSell, strength, price, confidence, source, at)
	if err != nil {
		return nil
	}
	sig = sig.WithReason(reason)
	return &sig
}
