package account

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acct "github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/backtest"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTrade(id string) backtest.ClosedTrade {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return backtest.ClosedTrade{
		ID:         id,
		Symbol:     "BTCUSDT",
		Strategy:   "ma_cross",
		Side:       acct.PositionLong,
		Quantity:   decimal.RequireFromString("0.5"),
		EntryPrice: decimal.RequireFromString("50000"),
		ExitPrice:  decimal.RequireFromString("52000"),
		Fees:       decimal.RequireFromString("51"),
		PnL:        decimal.RequireFromString("949"),
		PnLPercent: 3.79,
		EntryTime:  entry,
		ExitTime:   entry.Add(48 * time.Hour),
		Reason:     "death cross",
	}
}

func TestBadgerStore_ImplementsAccountStore(t *testing.T) {
	var _ backtest.AccountStore = (*BadgerStore)(nil)
}

func TestBadgerStore_Balances(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	loaded, err := store.LoadBalances(ctx, "acct-1")
	require.NoError(t, err)
	assert.Nil(t, loaded, "fresh account should have no balances")

	balances := []acct.Balance{
		{Asset: "USDT", Free: decimal.RequireFromString("10000")},
		{Asset: "BTC", Free: decimal.RequireFromString("0.25"), Locked: decimal.RequireFromString("0.1")},
	}
	require.NoError(t, store.SaveBalances(ctx, "acct-1", balances))

	loaded, err = store.LoadBalances(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "USDT", loaded[0].Asset)
	assert.True(t, loaded[0].Free.Equal(decimal.RequireFromString("10000")))
	assert.True(t, loaded[1].Locked.Equal(decimal.RequireFromString("0.1")))
}

func TestBadgerStore_BalancesReplaced(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBalances(ctx, "acct-1", []acct.Balance{
		{Asset: "USDT", Free: decimal.RequireFromString("10000")},
	}))
	require.NoError(t, store.SaveBalances(ctx, "acct-1", []acct.Balance{
		{Asset: "USDT", Free: decimal.RequireFromString("12500")},
	}))

	loaded, err := store.LoadBalances(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].Free.Equal(decimal.RequireFromString("12500")))
}

func TestBadgerStore_Trades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTrade(ctx, "acct-1", sampleTrade("t1")))
	require.NoError(t, store.SaveTrade(ctx, "acct-1", sampleTrade("t2")))
	require.NoError(t, store.SaveTrade(ctx, "acct-2", sampleTrade("t3")))

	trades, err := store.Trades(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, trades, 2, "accounts must not see each other's trades")

	assert.Equal(t, "BTCUSDT", trades[0].Symbol)
	assert.True(t, trades[0].PnL.Equal(decimal.RequireFromString("949")))
	assert.Equal(t, 48*time.Hour, trades[0].HoldDuration())
}

func TestBadgerStore_OrderStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	status, err := store.OrderStatus(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, status)

	require.NoError(t, store.UpdateOrderStatus(ctx, "ord-1", acct.OrderStatusFilled))

	status, err = store.OrderStatus(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, acct.OrderStatusFilled, status)
}

func TestBadgerStore_MetricsHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := backtest.Report{Symbol: "BTCUSDT", Strategy: "ma_cross", TotalReturnPct: 5}
	second := backtest.Report{Symbol: "BTCUSDT", Strategy: "ma_cross", TotalReturnPct: 8}

	require.NoError(t, store.AppendMetrics(ctx, "acct-1", first))
	require.NoError(t, store.AppendMetrics(ctx, "acct-1", second))

	history, err := store.MetricsHistory(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 5.0, history[0].TotalReturnPct)
	assert.Equal(t, 8.0, history[1].TotalReturnPct)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveBalances(ctx, "acct-1", []acct.Balance{
		{Asset: "USDT", Free: decimal.RequireFromString("9000")},
	}))
	require.NoError(t, store.Close())

	store, err = NewBadgerStore(dir)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.LoadBalances(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].Free.Equal(decimal.RequireFromString("9000")))
}
