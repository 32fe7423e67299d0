package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marlinquant/marlin/internal/backtest"
	"github.com/marlinquant/marlin/internal/report"
)

var (
	backtestSymbol string
	backtestFile   string
	backtestTrades bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run one strategy against historical data",
	Long:  "Replay a kline series through a strategy and show its performance report",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFile, "file", "", "Kline CSV file (defaults to the configured instrument file)")
	backtestCmd.Flags().BoolVar(&backtestTrades, "trades", false, "Also print the closed-trade list")

	backtestCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	name := args[0]
	strat, err := a.buildStrategy(name)
	if err != nil {
		return err
	}

	bars, err := a.loadBars(backtestSymbol, backtestFile)
	if err != nil {
		return err
	}
	a.logger.Info("loaded kline series",
		zap.String("symbol", backtestSymbol),
		zap.Int("bars", len(bars)))

	opts := []backtest.Option{
		backtest.WithLogger(a.logger),
		backtest.WithStore(a.store),
		backtest.WithRecorder(a.recorder),
	}
	if a.archive != nil {
		opts = append(opts, backtest.WithArchive(a.archive))
	}

	sim, err := backtest.New(strat, a.simulatorConfig(a.cfg.Backtest.AccountID), opts...)
	if err != nil {
		return err
	}

	res, err := sim.Run(cmd.Context(), bars)
	if err != nil {
		return err
	}

	report.WriteSummary(os.Stdout, res)
	if backtestTrades {
		report.WriteTrades(os.Stdout, res.Trades)
	}
	return nil
}
