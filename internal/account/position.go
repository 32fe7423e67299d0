package account

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlinquant/marlin/internal/core"
)

// PositionSide represents the direction of an open exposure.
type PositionSide string

const (
	// PositionLong profits when price rises.
	PositionLong PositionSide = "LONG"
	// PositionShort profits when price falls.
	PositionShort PositionSide = "SHORT"
)

// Position is an open exposure to an instrument. Entry fields are fixed at
// construction; MarkPrice is the only mutator and touches CurrentPrice only.
type Position struct {
	Symbol       string          `json:"symbol"`
	Side         PositionSide    `json:"side"`
	Quantity     decimal.Decimal `json:"quantity"`
	EntryPrice   decimal.Decimal `json:"entry_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Leverage     int             `json:"leverage"`
	OpenedAt     time.Time       `json:"opened_at"`
}

// NewPosition constructs a validated position marked at its entry price.
func NewPosition(symbol string, side PositionSide, quantity, entryPrice decimal.Decimal, leverage int, at time.Time) (*Position, error) {
	if symbol == "" {
		return nil, core.WrapError(core.ErrValidation, fmt.Errorf("position symbol is empty"))
	}
	if side != PositionLong && side != PositionShort {
		return nil, core.WrapError(core.ErrValidation, fmt.Errorf("unknown position side %q", side))
	}
	if quantity.Sign() <= 0 {
		return nil, core.WrapError(core.ErrValidation,
			fmt.Errorf("position quantity must be positive, got %s", quantity))
	}
	if entryPrice.Sign() <= 0 {
		return nil, core.WrapError(core.ErrValidation,
			fmt.Errorf("position entry price must be positive, got %s", entryPrice))
	}
	if leverage < 1 {
		return nil, core.WrapError(core.ErrValidation,
			fmt.Errorf("position leverage must be at least 1, got %d", leverage))
	}
	return &Position{
		Symbol:       symbol,
		Side:         side,
		Quantity:     quantity,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		Leverage:     leverage,
		OpenedAt:     at,
	}, nil
}

// MarkPrice updates the mark-to-market price. Entry fields never change.
func (p *Position) MarkPrice(price decimal.Decimal) {
	p.CurrentPrice = price
}

// PnL returns the leveraged mark-to-market profit or loss:
// LONG  (current - entry) * quantity * leverage
// SHORT (entry - current) * quantity * leverage
func (p *Position) PnL() decimal.Decimal {
	diff := p.CurrentPrice.Sub(p.EntryPrice)
	if p.Side == PositionShort {
		diff = diff.Neg()
	}
	return diff.Mul(p.Quantity).Mul(decimal.NewFromInt(int64(p.Leverage)))
}

// PnLPercent returns the percentage price move in the position's favour.
// The base is the unleveraged entry notional, so the percentage reflects
// the price move rather than the leveraged dollar P&L.
func (p *Position) PnLPercent() decimal.Decimal {
	diff := p.CurrentPrice.Sub(p.EntryPrice)
	if p.Side == PositionShort {
		diff = diff.Neg()
	}
	return diff.Div(p.EntryPrice).Mul(decimal.NewFromInt(100))
}

// Value returns the current notional value of the position.
func (p *Position) Value() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentPrice)
}
