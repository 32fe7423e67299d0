package main

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/marlinquant/marlin/internal/backtest"
	"github.com/marlinquant/marlin/internal/config"
	"github.com/marlinquant/marlin/internal/core"
	"github.com/marlinquant/marlin/internal/logger"
	"github.com/marlinquant/marlin/internal/marketdata"
	"github.com/marlinquant/marlin/internal/metrics"
	accountstore "github.com/marlinquant/marlin/internal/storage/account"
	"github.com/marlinquant/marlin/internal/storage/archive"
	"github.com/marlinquant/marlin/internal/strategy"
	"github.com/marlinquant/marlin/internal/strategy/dca"
	"github.com/marlinquant/marlin/internal/strategy/macross"
	"github.com/marlinquant/marlin/internal/strategy/rsithreshold"
)

// app bundles the wired collaborators every command shares.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *strategy.Registry
	store    backtest.AccountStore
	archive  archive.Storage
	recorder *metrics.Recorder

	close func()
}

// newApp loads configuration and wires the logger, strategy registry,
// account store and archive.
func newApp() (*app, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		loaded.ApplyDefaults()
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}, debug)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: newStrategyRegistry(log),
		recorder: metrics.NewRecorder(),
	}
	a.close = func() { _ = log.Sync() }

	switch cfg.Storage.Account.Type {
	case "badger":
		store, err := accountstore.NewBadgerStore(cfg.Storage.Account.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
		prev := a.close
		a.close = func() {
			_ = store.Close()
			prev()
		}
	case "memory":
		a.store = accountstore.NewMemoryStore()
	}

	if cfg.Storage.Archive.Enabled {
		switch cfg.Storage.Archive.Type {
		case "localfs":
			a.archive, err = archive.NewLocalFS(cfg.Storage.Archive.Path)
		case "s3":
			s3 := cfg.Storage.Archive.S3
			a.archive, err = archive.NewS3(archive.S3Config{
				Bucket:    s3.Bucket,
				Endpoint:  s3.Endpoint,
				Region:    s3.Region,
				AccessKey: s3.AccessKey,
				SecretKey: s3.SecretKey,
				Prefix:    s3.Prefix,
			})
		}
		if err != nil {
			return nil, err
		}
	}

	if cfg.Metrics.Enabled {
		a.serveMetrics()
	}

	return a, nil
}

func newStrategyRegistry(log *zap.Logger) *strategy.Registry {
	r := strategy.NewRegistry(log)
	r.Register("macross", func(p strategy.Params) (strategy.Strategy, error) { return macross.New(p) })
	r.Register("rsithreshold", func(p strategy.Params) (strategy.Strategy, error) { return rsithreshold.New(p) })
	r.Register("dca", func(p strategy.Params) (strategy.Strategy, error) { return dca.New(p) })
	return r
}

// serveMetrics exposes the Prometheus endpoint for the lifetime of the
// process. Scrapes of finished runs still work while the process is up.
func (a *app) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(a.recorder, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(a.cfg.Metrics.Listen, mux); err != nil {
			a.logger.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
	a.logger.Info("metrics endpoint started",
		zap.String("listen", a.cfg.Metrics.Listen),
		zap.String("path", a.cfg.Metrics.Path))
}

// buildStrategy constructs a registered strategy with its configured
// parameters.
func (a *app) buildStrategy(name string) (strategy.Strategy, error) {
	var params strategy.Params
	if sc, ok := a.cfg.Strategies[name]; ok {
		params = strategy.Params(sc.Params)
	}
	return a.registry.Build(name, params)
}

// enabledStrategies lists the strategies the config enables, or every
// registered one when the config names none.
func (a *app) enabledStrategies() []string {
	if len(a.cfg.Strategies) == 0 {
		return a.registry.Names()
	}
	var names []string
	for _, name := range a.registry.Names() {
		if sc, ok := a.cfg.Strategies[name]; ok && sc.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// loadBars resolves a symbol to its kline file and loads the series. An
// explicit file path wins over the instrument table.
func (a *app) loadBars(symbol, file string) ([]core.Bar, error) {
	if file == "" {
		for _, inst := range a.cfg.Instruments {
			if inst.Symbol == symbol {
				file = inst.File
				break
			}
		}
		if file == "" {
			return nil, fmt.Errorf("no kline file configured for symbol %s", symbol)
		}
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(a.cfg.Data.Dir, file)
	}
	return marketdata.LoadCSV(file, symbol)
}

// simulatorConfig translates the config file into simulation parameters.
func (a *app) simulatorConfig(accountID string) backtest.Config {
	return backtest.Config{
		InitialBalance: a.cfg.Backtest.InitialBalance,
		FeeRate:        a.cfg.Backtest.FeeRate,
		QuoteAsset:     a.cfg.Backtest.QuoteAsset,
		Annualization:  a.cfg.Backtest.Annualization,
		Policy:         a.cfg.Policy(),
		MaxSignalAge:   a.cfg.Signal.MaxAge,
		AccountID:      accountID,
	}
}
