package account

import (
	"context"
	"sync"

	acct "github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/backtest"
)

// MemoryStore is an in-memory account store for tests and throwaway runs.
type MemoryStore struct {
	mu       sync.RWMutex
	balances map[string][]acct.Balance
	trades   map[string][]backtest.ClosedTrade
	orders   map[string]acct.OrderStatus
	metrics  map[string][]backtest.Report
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[string][]acct.Balance),
		trades:   make(map[string][]backtest.ClosedTrade),
		orders:   make(map[string]acct.OrderStatus),
		metrics:  make(map[string][]backtest.Report),
	}
}

func (m *MemoryStore) LoadBalances(ctx context.Context, accountID string) ([]acct.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.balances[accountID]
	if !ok {
		return nil, nil
	}
	out := make([]acct.Balance, len(stored))
	copy(out, stored)
	return out, nil
}

func (m *MemoryStore) SaveBalances(ctx context.Context, accountID string, balances []acct.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]acct.Balance, len(balances))
	copy(stored, balances)
	m.balances[accountID] = stored
	return nil
}

func (m *MemoryStore) SaveTrade(ctx context.Context, accountID string, trade backtest.ClosedTrade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trades[accountID] = append(m.trades[accountID], trade)
	return nil
}

// Trades returns all closed trades stored for an account.
func (m *MemoryStore) Trades(ctx context.Context, accountID string) ([]backtest.ClosedTrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]backtest.ClosedTrade, len(m.trades[accountID]))
	copy(out, m.trades[accountID])
	return out, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, orderID string, status acct.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[orderID] = status
	return nil
}

// OrderStatus returns the stored status of an order, or "" if unknown.
func (m *MemoryStore) OrderStatus(ctx context.Context, orderID string) (acct.OrderStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.orders[orderID], nil
}

func (m *MemoryStore) AppendMetrics(ctx context.Context, accountID string, report backtest.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics[accountID] = append(m.metrics[accountID], report)
	return nil
}

// MetricsHistory returns all report snapshots stored for an account.
func (m *MemoryStore) MetricsHistory(ctx context.Context, accountID string) ([]backtest.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]backtest.Report, len(m.metrics[accountID]))
	copy(out, m.metrics[accountID])
	return out, nil
}

// Close is a no-op; the in-memory store holds no OS resources.
func (m *MemoryStore) Close() error { return nil }
