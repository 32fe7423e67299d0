package main

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marlinquant/marlin/internal/backtest"
	"github.com/marlinquant/marlin/internal/report"
)

var (
	compareSymbol string
	compareFile   string
)

var compareCmd = &cobra.Command{
	Use:   "compare [strategy...]",
	Short: "Run several strategies over the same data and rank them",
	Long: `Run each named strategy (or every enabled one) against the same kline
series and print a side-by-side comparison. Runs execute in parallel on
disjoint accounts, so persisted state never mixes between strategies.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareSymbol, "symbol", "", "Symbol to backtest (required)")
	compareCmd.Flags().StringVar(&compareFile, "file", "", "Kline CSV file (defaults to the configured instrument file)")

	compareCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	names := args
	if len(names) == 0 {
		names = a.enabledStrategies()
	}
	if len(names) == 0 {
		return fmt.Errorf("no strategies enabled")
	}

	bars, err := a.loadBars(compareSymbol, compareFile)
	if err != nil {
		return err
	}

	type outcome struct {
		name string
		res  *backtest.Result
		err  error
	}

	results := make([]outcome, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()

			strat, err := a.buildStrategy(name)
			if err != nil {
				results[i] = outcome{name: name, err: err}
				return
			}

			accountID := fmt.Sprintf("%s-%s", a.cfg.Backtest.AccountID, name)
			sim, err := backtest.New(strat, a.simulatorConfig(accountID),
				backtest.WithLogger(a.logger),
				backtest.WithStore(a.store),
				backtest.WithRecorder(a.recorder))
			if err != nil {
				results[i] = outcome{name: name, err: err}
				return
			}

			res, err := sim.Run(cmd.Context(), bars)
			results[i] = outcome{name: name, res: res, err: err}
		}(i, name)
	}
	wg.Wait()

	var ok []*backtest.Result
	for _, o := range results {
		if o.err != nil {
			a.logger.Error("strategy run failed", zap.String("strategy", o.name), zap.Error(o.err))
			continue
		}
		ok = append(ok, o.res)
	}
	if len(ok) == 0 {
		return fmt.Errorf("every strategy run failed")
	}

	sort.Slice(ok, func(i, j int) bool {
		return ok[i].Report.TotalReturnPct > ok[j].Report.TotalReturnPct
	})
	report.WriteComparison(os.Stdout, ok)
	return nil
}
