// Package account provides durable stores for simulated account state:
// balances, closed trades, order status and report history.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	acct "github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/backtest"
)

// BadgerStore persists account state in an embedded BadgerDB. Keys are
// namespaced per account so parallel runs with disjoint account IDs never
// touch each other's state.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database at dbPath.
func NewBadgerStore(dbPath string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	// Badger's own logging stays off; errors still surface from operations.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func balancesKey(accountID string) []byte {
	return []byte(fmt.Sprintf("acct:%s:balances", accountID))
}

func tradeKey(accountID, tradeID string) []byte {
	return []byte(fmt.Sprintf("acct:%s:trade:%s", accountID, tradeID))
}

func orderKey(orderID string) []byte {
	return []byte(fmt.Sprintf("order:%s", orderID))
}

func metricsKey(accountID string, seq int64) []byte {
	return []byte(fmt.Sprintf("acct:%s:metrics:%020d", accountID, seq))
}

// LoadBalances returns the persisted balances for an account, or nil when
// none have been saved yet.
func (s *BadgerStore) LoadBalances(ctx context.Context, accountID string) ([]acct.Balance, error) {
	var balances []acct.Balance
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(balancesKey(accountID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &balances)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// SaveBalances replaces the stored balances for an account.
func (s *BadgerStore) SaveBalances(ctx context.Context, accountID string, balances []acct.Balance) error {
	data, err := json.Marshal(balances)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(balancesKey(accountID), data)
	})
}

// SaveTrade appends a closed trade to the account's trade history.
func (s *BadgerStore) SaveTrade(ctx context.Context, accountID string, trade backtest.ClosedTrade) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tradeKey(accountID, trade.ID), data)
	})
}

// Trades returns every closed trade stored for an account.
func (s *BadgerStore) Trades(ctx context.Context, accountID string) ([]backtest.ClosedTrade, error) {
	var trades []backtest.ClosedTrade
	prefix := []byte(fmt.Sprintf("acct:%s:trade:", accountID))

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var trade backtest.ClosedTrade
				if err := json.Unmarshal(val, &trade); err != nil {
					return err
				}
				trades = append(trades, trade)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trades, nil
}

// UpdateOrderStatus records the latest status of an order.
func (s *BadgerStore) UpdateOrderStatus(ctx context.Context, orderID string, status acct.OrderStatus) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(orderKey(orderID), []byte(status))
	})
}

// OrderStatus returns the stored status of an order, or "" if unknown.
func (s *BadgerStore) OrderStatus(ctx context.Context, orderID string) (acct.OrderStatus, error) {
	var status acct.OrderStatus
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(orderKey(orderID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			status = acct.OrderStatus(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	return status, err
}

// AppendMetrics stores a report snapshot in the account's metrics history.
// Snapshots are keyed by write time so history reads back in the order it
// was recorded.
func (s *BadgerStore) AppendMetrics(ctx context.Context, accountID string, report backtest.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metricsKey(accountID, time.Now().UnixNano()), data)
	})
}

// MetricsHistory returns all stored report snapshots for an account.
func (s *BadgerStore) MetricsHistory(ctx context.Context, accountID string) ([]backtest.Report, error) {
	var reports []backtest.Report
	prefix := []byte(fmt.Sprintf("acct:%s:metrics:", accountID))

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var report backtest.Report
				if err := json.Unmarshal(val, &report); err != nil {
					return err
				}
				reports = append(reports, report)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
