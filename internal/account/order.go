// Package account holds the trading-state entities: orders, trades,
// positions and balances. Money and quantity fields use decimals so fee
// arithmetic stays exact.
package account

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marlinquant/marlin/internal/core"
)

// Side represents the direction of an order or trade.
type Side string

const (
	// SideBuy represents a buy.
	SideBuy Side = "BUY"
	// SideSell represents a sell.
	SideSell Side = "SELL"
)

// OrderType represents the type of order execution.
type OrderType string

const (
	// OrderTypeMarket executes at current market price.
	OrderTypeMarket OrderType = "MARKET"
	// OrderTypeLimit executes at specified price or better.
	OrderTypeLimit OrderType = "LIMIT"
)

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	// OrderStatusNew indicates the order has been created but not settled.
	OrderStatusNew OrderStatus = "NEW"
	// OrderStatusFilled indicates the order has been completely filled.
	OrderStatusFilled OrderStatus = "FILLED"
	// OrderStatusCancelled indicates the order was cancelled.
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusRejected indicates the order was rejected.
	OrderStatusRejected OrderStatus = "REJECTED"
)

// transitions is the full order state machine. States absent from the map
// are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew: {OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected},
}

// Order is an intent to trade. Symbol and side are fixed at construction;
// only the status (and its timestamp) ever changes, and only through
// Transition.
type Order struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Type      OrderType       `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewOrder constructs a validated order in status NEW.
func NewOrder(symbol string, side Side, typ OrderType, quantity, price decimal.Decimal, at time.Time) (Order, error) {
	if symbol == "" {
		return Order{}, core.WrapError(core.ErrValidation, fmt.Errorf("order symbol is empty"))
	}
	if side != SideBuy && side != SideSell {
		return Order{}, core.WrapError(core.ErrValidation, fmt.Errorf("unknown order side %q", side))
	}
	if typ != OrderTypeMarket && typ != OrderTypeLimit {
		return Order{}, core.WrapError(core.ErrValidation, fmt.Errorf("unknown order type %q", typ))
	}
	if quantity.Sign() <= 0 {
		return Order{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("order quantity must be positive, got %s", quantity))
	}
	if price.Sign() < 0 {
		return Order{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("order price cannot be negative, got %s", price))
	}
	if typ == OrderTypeLimit && price.Sign() <= 0 {
		return Order{}, core.WrapError(core.ErrValidation,
			fmt.Errorf("limit order requires a positive price, got %s", price))
	}
	return Order{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Type:      typ,
		Quantity:  quantity,
		Price:     price,
		Status:    OrderStatusNew,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

// Transition returns a copy of the order in the next status. An attempt
// not allowed by the state machine fails and leaves the receiver unchanged.
func (o Order) Transition(next OrderStatus, at time.Time) (Order, error) {
	for _, allowed := range transitions[o.Status] {
		if next == allowed {
			o.Status = next
			o.UpdatedAt = at
			return o, nil
		}
	}
	return o, core.WrapError(core.ErrInvalidTransition,
		fmt.Errorf("order %s: %s -> %s", o.ID, o.Status, next))
}

// IsTerminal returns true if no further transitions are possible.
func (o Order) IsTerminal() bool {
	return len(transitions[o.Status]) == 0
}

// Value returns the notional value of the order, quantity times price.
func (o Order) Value() decimal.Decimal {
	return o.Quantity.Mul(o.Price)
}
