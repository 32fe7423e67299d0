// Package backtest replays a bar series through a strategy, tracking a
// single position, balance and trade history, and computes the performance
// report for the run.
package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marlinquant/marlin/internal/account"
	"github.com/marlinquant/marlin/internal/core"
	"github.com/marlinquant/marlin/internal/metrics"
	"github.com/marlinquant/marlin/internal/storage/archive"
	"github.com/marlinquant/marlin/internal/strategy"
)

// EndOfPeriodReason marks the forced close of a position still open at the
// final bar. Every run terminates with zero open positions so the equity
// curve is fully realized.
const EndOfPeriodReason = "end of period"

// Config holds the simulation parameters. Nothing here is read from
// process-wide state; the caller passes an explicit value.
type Config struct {
	// InitialBalance is the starting uninvested capital in the quote asset.
	InitialBalance float64
	// FeeRate is the proportional fee charged per fill, e.g. 0.001.
	FeeRate float64
	// QuoteAsset names the balance currency (default "USDT").
	QuoteAsset string
	// Annualization is the Sharpe scaling factor; 252 fits a daily trade
	// cadence, other timeframes configure their own.
	Annualization float64
	// Policy gates which entry signals are acted on.
	Policy core.SignalPolicy
	// MaxSignalAge discards signals older than this at the bar being
	// processed. Zero disables the check.
	MaxSignalAge time.Duration
	// AccountID keys persisted state. Parallel runs must use disjoint IDs.
	AccountID string
}

// DefaultConfig returns the simulation defaults.
func DefaultConfig() Config {
	return Config{
		InitialBalance: 10000,
		QuoteAsset:     "USDT",
		Annualization:  252,
		Policy:         core.DefaultSignalPolicy(),
		AccountID:      "backtest",
	}
}

// Simulator drives one strategy over one bar series. It owns all of its
// in-memory state, so independent simulators may run in parallel.
type Simulator struct {
	strategy strategy.Strategy
	cfg      Config
	logger   *zap.Logger
	store    AccountStore
	archive  archive.Storage
	recorder *metrics.Recorder
}

// Option configures optional simulator collaborators.
type Option func(*Simulator)

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithStore attaches a durable account store. Trades, order status changes
// and the final report are persisted through it, and a failed write aborts
// the run.
func WithStore(st AccountStore) Option {
	return func(s *Simulator) { s.store = st }
}

// WithArchive attaches a cold archive; the full result JSON is written
// there after each run.
func WithArchive(a archive.Storage) Option {
	return func(s *Simulator) { s.archive = a }
}

// WithRecorder attaches an instrumentation recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// New creates a simulator for the given strategy and configuration.
func New(strat strategy.Strategy, cfg Config, opts ...Option) (*Simulator, error) {
	if strat == nil {
		return nil, core.WrapError(core.ErrValidation, fmt.Errorf("strategy is nil"))
	}
	if cfg.InitialBalance <= 0 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial balance must be positive, got %v", cfg.InitialBalance))
	}
	if cfg.FeeRate < 0 || cfg.FeeRate >= 1 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fee rate must be in [0,1), got %v", cfg.FeeRate))
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	if cfg.Annualization <= 0 {
		cfg.Annualization = 252
	}
	if cfg.Policy.MinStrength == "" {
		cfg.Policy = core.DefaultSignalPolicy()
	}
	if cfg.AccountID == "" {
		cfg.AccountID = "backtest"
	}

	s := &Simulator{
		strategy: strat,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// openPosition carries the entry-side state between the opening and
// closing fills of one round trip.
type openPosition struct {
	pos        *account.Position
	entryOrder account.Order
	entryFee   decimal.Decimal
	cost       decimal.Decimal // total balance spent, fee included
}

// Run replays the series. Bars must be strictly chronological; the series
// must be longer than the strategy's warm-up window. The run is
// deterministic: identical bars and configuration produce identical trades
// and metrics.
func (s *Simulator) Run(ctx context.Context, bars []core.Bar) (*Result, error) {
	started := time.Now()
	result, err := s.run(ctx, bars)
	if s.recorder != nil {
		status := "completed"
		if err != nil {
			status = "failed"
		}
		s.recorder.RecordRun(status, time.Since(started).Seconds())
	}
	return result, err
}

func (s *Simulator) run(ctx context.Context, bars []core.Bar) (*Result, error) {
	if err := core.ValidateSeries(bars); err != nil {
		return nil, err
	}
	symbol := bars[0].Symbol

	frame, err := s.strategy.ComputeIndicators(bars)
	if err != nil {
		return nil, core.WrapError(core.ErrStrategyFailed, err)
	}

	warm := s.strategy.WarmUp()
	if len(bars) <= warm {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("strategy %s needs more than %d bars, got %d", s.strategy.Name(), warm, len(bars)))
	}

	cash, err := s.startingBalance(ctx)
	if err != nil {
		return nil, err
	}
	initial := cash.InexactFloat64()

	res := &Result{
		Strategy:       s.strategy.Name(),
		Symbol:         symbol,
		Start:          bars[warm].Time,
		End:            bars[len(bars)-1].Time,
		InitialBalance: initial,
	}

	var open *openPosition

	for i := warm; i < len(bars); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row := frame.Row(i)
		bar := row.Bar()
		price := decimal.NewFromFloat(bar.Close)

		if open == nil {
			sig := s.strategy.ShouldEnter(row)
			if sig != nil {
				res.Signals = append(res.Signals, *sig)
				switch {
				case sig.Expired(bar.Time, s.cfg.MaxSignalAge):
					s.logger.Debug("entry signal expired", zap.String("symbol", symbol), zap.Time("bar", bar.Time))
				case !sig.Actionable(s.cfg.Policy):
					s.logger.Debug("entry signal below policy",
						zap.String("strength", string(sig.Strength)),
						zap.Float64("confidence", sig.Confidence))
				default:
					if s.recorder != nil {
						s.recorder.RecordSignal(s.strategy.Name(), string(sig.Type))
					}
					open, err = s.enter(ctx, res, row, price, cash, sig.Reason)
					if err != nil {
						return nil, err
					}
					if open != nil {
						cash = cash.Sub(open.cost)
					}
				}
			}
		} else {
			open.pos.MarkPrice(price)
			sig := s.strategy.ShouldExit(row, open.pos)
			if sig != nil {
				res.Signals = append(res.Signals, *sig)
				if s.recorder != nil {
					s.recorder.RecordSignal(s.strategy.Name(), string(sig.Type))
				}
				proceeds, err := s.exit(ctx, res, open, price, bar.Time, sig.Reason)
				if err != nil {
					return nil, err
				}
				cash = cash.Add(proceeds)
				open = nil
			}
		}

		equity := cash
		if open != nil {
			equity = equity.Add(open.pos.Value())
		}
		res.Equity = append(res.Equity, EquityPoint{Time: bar.Time, Equity: equity.InexactFloat64()})
	}

	// Force-close anything still open at the final bar so the curve is
	// fully realized.
	if open != nil {
		last := bars[len(bars)-1]
		price := decimal.NewFromFloat(last.Close)
		open.pos.MarkPrice(price)
		proceeds, err := s.exit(ctx, res, open, price, last.Time, EndOfPeriodReason)
		if err != nil {
			return nil, err
		}
		cash = cash.Add(proceeds)
		open = nil
		res.Equity[len(res.Equity)-1] = EquityPoint{Time: last.Time, Equity: cash.InexactFloat64()}
	}

	res.FinalBalance = cash.InexactFloat64()
	res.Report = CalculateReport(symbol, s.strategy.Name(), initial, res.FinalBalance,
		res.Trades, bars[warm].Close, bars[len(bars)-1].Close, s.cfg.Annualization)

	if err := s.persistRun(ctx, cash, res); err != nil {
		return nil, err
	}

	s.logger.Info("backtest complete",
		zap.String("strategy", res.Strategy),
		zap.String("symbol", symbol),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("return_pct", res.Report.TotalReturnPct),
		zap.Float64("alpha", res.Report.Alpha))

	return res, nil
}

// startingBalance resolves the initial cash: a persisted quote balance for
// the account wins over the configured default, so interrupted accounts
// resume where they left off.
func (s *Simulator) startingBalance(ctx context.Context) (decimal.Decimal, error) {
	cash := decimal.NewFromFloat(s.cfg.InitialBalance)
	if s.store == nil {
		return cash, nil
	}

	balances, err := s.store.LoadBalances(ctx, s.cfg.AccountID)
	if err != nil {
		return decimal.Zero, core.WrapError(core.ErrStoreFailed, err)
	}
	for _, b := range balances {
		if b.Asset == s.cfg.QuoteAsset && b.Free.Sign() > 0 {
			s.logger.Info("resuming persisted balance",
				zap.String("account", s.cfg.AccountID),
				zap.String("balance", b.Free.String()))
			return b.Free, nil
		}
	}
	return cash, nil
}

// enter opens a position at the bar close, spending the strategy's entry
// fraction (default all) of available cash. Returns nil when the balance
// is too small to buy anything.
func (s *Simulator) enter(ctx context.Context, res *Result, row strategy.Row, price decimal.Decimal, cash decimal.Decimal, reason string) (*openPosition, error) {
	bar := row.Bar()

	fraction := 1.0
	if sizer, ok := s.strategy.(strategy.Sizer); ok {
		fraction = sizer.EntryFraction(row)
		if fraction <= 0 || fraction > 1 {
			fraction = 1.0
		}
	}

	notional := cash.Mul(decimal.NewFromFloat(fraction))
	feeRate := decimal.NewFromFloat(s.cfg.FeeRate)
	invest := notional.Div(decimal.NewFromInt(1).Add(feeRate))
	fee := invest.Mul(feeRate)
	quantity := invest.Div(price)

	if quantity.Sign() <= 0 {
		s.logger.Warn("entry skipped, balance too small",
			zap.String("cash", cash.String()), zap.String("price", price.String()))
		return nil, nil
	}

	order, err := account.NewOrder(bar.Symbol, account.SideBuy, account.OrderTypeMarket, quantity, price, bar.Time)
	if err != nil {
		return nil, err
	}
	order, err = order.Transition(account.OrderStatusFilled, bar.Time)
	if err != nil {
		return nil, err
	}
	if err := s.saveOrderStatus(ctx, order); err != nil {
		return nil, err
	}
	res.Orders = append(res.Orders, order)

	pos, err := account.NewPosition(bar.Symbol, account.PositionLong, quantity, price, 1, bar.Time)
	if err != nil {
		return nil, err
	}

	s.logger.Info("position opened",
		zap.String("symbol", bar.Symbol),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("reason", reason))

	return &openPosition{
		pos:        pos,
		entryOrder: order,
		entryFee:   fee,
		cost:       invest.Add(fee),
	}, nil
}

// exit closes the open position at the given price, appends the settled
// trade and returns the net proceeds to add back to cash.
func (s *Simulator) exit(ctx context.Context, res *Result, open *openPosition, price decimal.Decimal, at time.Time, reason string) (decimal.Decimal, error) {
	pos := open.pos
	gross := pos.Quantity.Mul(price)
	exitFee := gross.Mul(decimal.NewFromFloat(s.cfg.FeeRate))
	proceeds := gross.Sub(exitFee)

	order, err := account.NewOrder(pos.Symbol, account.SideSell, account.OrderTypeMarket, pos.Quantity, price, at)
	if err != nil {
		return decimal.Zero, err
	}
	order, err = order.Transition(account.OrderStatusFilled, at)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.saveOrderStatus(ctx, order); err != nil {
		return decimal.Zero, err
	}
	res.Orders = append(res.Orders, order)

	fees := open.entryFee.Add(exitFee)
	pnl := proceeds.Sub(open.cost)
	var pnlPct float64
	if open.cost.Sign() > 0 {
		pnlPct, _ = pnl.Div(open.cost).Mul(decimal.NewFromInt(100)).Float64()
	}

	trade := ClosedTrade{
		ID:         order.ID,
		Symbol:     pos.Symbol,
		Strategy:   s.strategy.Name(),
		Side:       pos.Side,
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		Fees:       fees,
		PnL:        pnl,
		PnLPercent: pnlPct,
		EntryTime:  pos.OpenedAt,
		ExitTime:   at,
		Reason:     reason,
	}

	if s.store != nil {
		if err := s.store.SaveTrade(ctx, s.cfg.AccountID, trade); err != nil {
			return decimal.Zero, core.WrapError(core.ErrStoreFailed, err)
		}
	}
	res.Trades = append(res.Trades, trade)
	if s.recorder != nil {
		s.recorder.RecordTrade(s.strategy.Name())
	}

	s.logger.Info("position closed",
		zap.String("symbol", pos.Symbol),
		zap.String("pnl", pnl.String()),
		zap.String("reason", reason))

	return proceeds, nil
}

func (s *Simulator) saveOrderStatus(ctx context.Context, order account.Order) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.UpdateOrderStatus(ctx, order.ID, order.Status); err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// persistRun writes the final balance, report snapshot and archived result.
func (s *Simulator) persistRun(ctx context.Context, cash decimal.Decimal, res *Result) error {
	if s.store != nil {
		balances := []account.Balance{{Asset: s.cfg.QuoteAsset, Free: cash}}
		if err := s.store.SaveBalances(ctx, s.cfg.AccountID, balances); err != nil {
			return core.WrapError(core.ErrStoreFailed, err)
		}
		if err := s.store.AppendMetrics(ctx, s.cfg.AccountID, res.Report); err != nil {
			return core.WrapError(core.ErrStoreFailed, err)
		}
	}

	if s.archive != nil {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		path := fmt.Sprintf("results/%s/%s-%d.json", res.Symbol, res.Strategy, res.End.Unix())
		if err := s.archive.Write(ctx, path, data); err != nil {
			return core.WrapError(core.ErrStoreFailed, err)
		}
	}
	return nil
}
