package backtest

import "math"

// Report is the flat performance summary of one run. Every field is
// computable from the trade list plus the two boundary prices, which keeps
// the calculation independently testable.
type Report struct {
	Symbol           string  `json:"symbol"`
	Strategy         string  `json:"strategy"`
	InitialBalance   float64 `json:"initial_balance"`
	FinalBalance     float64 `json:"final_balance"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	BuyHoldReturnPct float64 `json:"buy_hold_return_pct"`
	Alpha            float64 `json:"alpha"`
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRate          float64 `json:"win_rate"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
}

// CalculateReport computes the performance report for one run.
//
// The buy-and-hold baseline assumes full allocation at the first usable
// bar's close (firstPrice) held until the last close (lastPrice). The
// Sharpe ratio annualizes per-trade returns with the given factor (252 for
// a daily cadence; other timeframes configure their own) and degrades to 0
// rather than failing on fewer than two trades or zero variance. Max
// drawdown is the most negative peak-to-trough percentage of the realized
// equity curve built by applying each trade's P&L in order.
func CalculateReport(symbol, strategyName string, initial, final float64, trades []ClosedTrade, firstPrice, lastPrice, annualization float64) Report {
	r := Report{
		Symbol:         symbol,
		Strategy:       strategyName,
		InitialBalance: initial,
		FinalBalance:   final,
		TotalTrades:    len(trades),
	}

	if initial > 0 {
		r.TotalReturnPct = (final - initial) / initial * 100
	}
	if firstPrice > 0 {
		r.BuyHoldReturnPct = (lastPrice - firstPrice) / firstPrice * 100
	}
	r.Alpha = r.TotalReturnPct - r.BuyHoldReturnPct

	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		returns = append(returns, t.PnLPercent)
		if t.IsWin() {
			r.WinningTrades++
		} else {
			r.LosingTrades++
		}
	}
	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
	}

	r.SharpeRatio = sharpe(returns, annualization)
	r.MaxDrawdownPct = maxDrawdown(initial, trades)

	return r
}

// sharpe is mean over sample standard deviation of per-trade returns,
// scaled by sqrt(annualization). Fewer than two trades or zero variance
// yields 0 by definition, never an arithmetic failure.
func sharpe(returns []float64, annualization float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(annualization)
}

// maxDrawdown walks the realized equity curve and returns the minimum of
// (equity - peak) / peak * 100, a value <= 0.
func maxDrawdown(initial float64, trades []ClosedTrade) float64 {
	equity := initial
	peak := initial
	var maxDD float64

	for _, t := range trades {
		equity += t.PnL.InexactFloat64()
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (equity - peak) / peak * 100
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
