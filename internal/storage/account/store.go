package account

import (
	"context"

	acct "github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/backtest"
)

// Store is the full surface an account store offers. It extends the
// simulator-facing backtest.AccountStore with the read-side queries used
// by reporting and a Close for stores holding OS resources.
type Store interface {
	backtest.AccountStore

	Trades(ctx context.Context, accountID string) ([]backtest.ClosedTrade, error)
	OrderStatus(ctx context.Context, orderID string) (acct.OrderStatus, error)
	MetricsHistory(ctx context.Context, accountID string) ([]backtest.Report, error)
	Close() error
}

var (
	_ Store = (*BadgerStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
