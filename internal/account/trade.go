package account

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marlinquant/marlin/internal/core"
)

// Trade is a settled fill. It is immutable once created: closing a position
// produces a new Trade value, nothing ever rewrites one. OrderID is a
// back-reference for lookup only.
type Trade struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Fee        decimal.Decimal `json:"fee"`
	FeeAsset   string          `json:"fee_asset"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// NewTrade constructs a validated trade.
func NewTrade(orderID, symbol string, side Side, quantity, price, fee decimal.Decimal, feeAsset string, at time.Time) (Trade, error) {
	if symbol == "" {
		return Trade{}, core.WrapError(core.ErrValidation, fmt.Errorf("trade symbol is empty"))
	}
	if side != SideBuy && side != SideSell {
		return Trade{}, core.WrapError(core.ErrValidation, fmt.Errorf("unknown trade side %q", side))
	}
	if quantity.Sign() <= 0 {
		return Trade{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("trade quantity must be positive, got %s", quantity))
	}
	if price.Sign() < 0 {
		return Trade{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("trade price cannot be negative, got %s", price))
	}
	if fee.Sign() < 0 {
		return Trade{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("trade fee cannot be negative, got %s", fee))
	}
	return Trade{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Fee:        fee,
		FeeAsset:   feeAsset,
		ExecutedAt: at,
	}, nil
}

// TotalCost returns quantity*price + fee, what the buyer paid in total.
func (t Trade) TotalCost() decimal.Decimal {
	return t.Quantity.Mul(t.Price).Add(t.Fee)
}

// NetValue returns quantity*price - fee, what the seller received net.
func (t Trade) NetValue() decimal.Decimal {
	return t.Quantity.Mul(t.Price).Sub(t.Fee)
}
