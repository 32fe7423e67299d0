// Package report renders backtest results as terminal tables.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/marlinquant/marlin/internal/backtest"
)

// WriteSummary renders the performance report of one run.
func WriteSummary(w io.Writer, res *backtest.Result) {
	r := res.Report

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s / %s  %s – %s",
		r.Symbol, r.Strategy,
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02")))

	t.AppendRows([]table.Row{
		{"Initial balance", fmt.Sprintf("%.2f", r.InitialBalance)},
		{"Final balance", fmt.Sprintf("%.2f", r.FinalBalance)},
		{"Total return", pct(r.TotalReturnPct)},
		{"Buy & hold return", pct(r.BuyHoldReturnPct)},
		{"Alpha", pct(r.Alpha)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Trades", r.TotalTrades},
		{"Winning / losing", fmt.Sprintf("%d / %d", r.WinningTrades, r.LosingTrades)},
		{"Win rate", pct(r.WinRate)},
		{"Sharpe ratio", fmt.Sprintf("%.2f", r.SharpeRatio)},
		{"Max drawdown", pct(r.MaxDrawdownPct)},
	})
	t.Render()
}

// WriteTrades renders the closed-trade list of one run.
func WriteTrades(w io.Writer, trades []backtest.ClosedTrade) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "no trades")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Entry", "Exit", "Qty", "Entry Px", "Exit Px", "PnL", "PnL %", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "PnL", Align: text.AlignRight},
		{Name: "PnL %", Align: text.AlignRight},
	})

	for i, trade := range trades {
		t.AppendRow(table.Row{
			i + 1,
			trade.EntryTime.Format("2006-01-02"),
			trade.ExitTime.Format("2006-01-02"),
			trade.Quantity.StringFixed(6),
			trade.EntryPrice.StringFixed(2),
			trade.ExitPrice.StringFixed(2),
			trade.PnL.StringFixed(2),
			fmt.Sprintf("%.2f", trade.PnLPercent),
			trade.Reason,
		})
	}
	t.Render()
}

// WriteComparison renders several runs side by side, one row per strategy.
func WriteComparison(w io.Writer, results []*backtest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{
		"Strategy", "Return %", "B&H %", "Alpha", "Trades", "Win %", "Sharpe", "Max DD %",
	})

	for _, res := range results {
		r := res.Report
		t.AppendRow(table.Row{
			r.Strategy,
			fmt.Sprintf("%.2f", r.TotalReturnPct),
			fmt.Sprintf("%.2f", r.BuyHoldReturnPct),
			fmt.Sprintf("%.2f", r.Alpha),
			r.TotalTrades,
			fmt.Sprintf("%.1f", r.WinRate),
			fmt.Sprintf("%.2f", r.SharpeRatio),
			fmt.Sprintf("%.2f", r.MaxDrawdownPct),
		})
	}
	t.Render()
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
