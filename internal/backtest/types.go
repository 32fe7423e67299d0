package backtest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/core"
)

// ClosedTrade is one settled round trip: an entry fill and its exit fill,
// with realized P&L net of fees. Once appended to a result it is never
// rewritten.
type ClosedTrade struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Strategy   string          `json:"strategy"`
	Side       account.PositionSide `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	Fees       decimal.Decimal `json:"fees"`
	PnL        decimal.Decimal `json:"pnl"`
	PnLPercent float64         `json:"pnl_percent"`
	EntryTime  time.Time       `json:"entry_time"`
	ExitTime   time.Time       `json:"exit_time"`
	Reason     string          `json:"reason"`
}

// IsWin returns true if the trade realized a profit.
func (t ClosedTrade) IsWin() bool {
	return t.PnL.Sign() > 0
}

// HoldDuration returns how long the position was open.
func (t ClosedTrade) HoldDuration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// EquityPoint is the account value at the close of one bar.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// Result holds the complete output of one simulation run.
type Result struct {
	Strategy       string              `json:"strategy"`
	Symbol         string              `json:"symbol"`
	Start          time.Time           `json:"start"`
	End            time.Time           `json:"end"`
	InitialBalance float64             `json:"initial_balance"`
	FinalBalance   float64             `json:"final_balance"`
	Signals        []core.MarketSignal `json:"signals"`
	Orders         []account.Order     `json:"orders"`
	Trades         []ClosedTrade       `json:"trades"`
	Equity         []EquityPoint       `json:"equity"`
	Report         Report              `json:"report"`
}

// AccountStore is the narrow persistence interface the simulator writes
// through. Implementations live in internal/storage/account; the simulator
// only needs these operations. A write failure aborts the run, it is never
// swallowed.
type AccountStore interface {
	// LoadBalances returns the persisted balances for an account.
	LoadBalances(ctx context.Context, accountID string) ([]account.Balance, error)

	// SaveBalances persists the balances for an account in one transaction.
	SaveBalances(ctx context.Context, accountID string, balances []account.Balance) error

	// SaveTrade persists one closed trade in one transaction.
	SaveTrade(ctx context.Context, accountID string, trade ClosedTrade) error

	// UpdateOrderStatus records an order's status change.
	UpdateOrderStatus(ctx context.Context, orderID string, status account.OrderStatus) error

	// AppendMetrics stores a performance report snapshot for an account.
	AppendMetrics(ctx context.Context, accountID string, report Report) error
}
