package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/marlinquant/marlin/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Log         LogConfig                 `mapstructure:"log"`
	Data        DataConfig                `mapstructure:"data"`
	Backtest    BacktestConfig            `mapstructure:"backtest"`
	Signal      SignalConfig              `mapstructure:"signal"`
	Storage     StorageConfig             `mapstructure:"storage"`
	Metrics     MetricsConfig             `mapstructure:"metrics"`
	Strategies  map[string]StrategyConfig `mapstructure:"strategies"`
	Instruments []InstrumentConfig        `mapstructure:"instruments"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DataConfig locates the kline files fed to the simulator.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type BacktestConfig struct {
	InitialBalance float64 `mapstructure:"initial_balance"`
	FeeRate        float64 `mapstructure:"fee_rate"`
	QuoteAsset     string  `mapstructure:"quote_asset"`
	Annualization  float64 `mapstructure:"annualization"`
	AccountID      string  `mapstructure:"account_id"`
}

// SignalConfig gates which entry signals the simulator acts on.
type SignalConfig struct {
	MinStrength   string        `mapstructure:"min_strength"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	MaxAge        time.Duration `mapstructure:"max_age"`
}

type StorageConfig struct {
	Account AccountStorageConfig `mapstructure:"account"`
	Archive ArchiveStorageConfig `mapstructure:"archive"`
}

// AccountStorageConfig selects the durable account store.
type AccountStorageConfig struct {
	Type string `mapstructure:"type"` // "badger" or "memory"
	Path string `mapstructure:"path"` // For badger
}

// ArchiveStorageConfig selects the cold archive for run results.
type ArchiveStorageConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

type StrategyConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// InstrumentConfig names one symbol and the kline file backing it.
type InstrumentConfig struct {
	Symbol    string `mapstructure:"symbol"`
	Timeframe string `mapstructure:"timeframe"`
	File      string `mapstructure:"file"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Data: DataConfig{
			Dir: "data",
		},
		Backtest: BacktestConfig{
			InitialBalance: 10000,
			FeeRate:        0.001,
			QuoteAsset:     "USDT",
			Annualization:  252,
			AccountID:      "backtest",
		},
		Signal: SignalConfig{
			MinStrength:   string(core.StrengthModerate),
			MinConfidence: 0.7,
		},
		Storage: StorageConfig{
			Account: AccountStorageConfig{
				Type: "memory",
				Path: "marlin-db",
			},
			Archive: ArchiveStorageConfig{
				Type: "localfs",
				Path: "archive",
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
			Path:    "/metrics",
		},
	}
}

// ApplyDefaults fills unset fields from Defaults so a partial config file
// still validates.
func (c *Config) ApplyDefaults() {
	def := Defaults()

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if c.Data.Dir == "" {
		c.Data.Dir = def.Data.Dir
	}
	if c.Backtest.InitialBalance == 0 {
		c.Backtest.InitialBalance = def.Backtest.InitialBalance
	}
	if c.Backtest.QuoteAsset == "" {
		c.Backtest.QuoteAsset = def.Backtest.QuoteAsset
	}
	if c.Backtest.Annualization == 0 {
		c.Backtest.Annualization = def.Backtest.Annualization
	}
	if c.Backtest.AccountID == "" {
		c.Backtest.AccountID = def.Backtest.AccountID
	}
	if c.Signal.MinStrength == "" {
		c.Signal.MinStrength = def.Signal.MinStrength
	}
	if c.Signal.MinConfidence == 0 {
		c.Signal.MinConfidence = def.Signal.MinConfidence
	}
	if c.Storage.Account.Type == "" {
		c.Storage.Account.Type = def.Storage.Account.Type
	}
	if c.Storage.Archive.Type == "" {
		c.Storage.Archive.Type = def.Storage.Archive.Type
	}
	if c.Storage.Archive.Path == "" {
		c.Storage.Archive.Path = def.Storage.Archive.Path
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = def.Metrics.Listen
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = def.Metrics.Path
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Backtest.InitialBalance <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_balance must be positive, got %v", c.Backtest.InitialBalance))
	}
	if c.Backtest.FeeRate < 0 || c.Backtest.FeeRate >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fee_rate must be in [0,1), got %v", c.Backtest.FeeRate))
	}

	switch core.SignalStrength(c.Signal.MinStrength) {
	case core.StrengthWeak, core.StrengthModerate, core.StrengthStrong:
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_strength must be WEAK, MODERATE or STRONG, got %q", c.Signal.MinStrength))
	}
	if c.Signal.MinConfidence < 0 || c.Signal.MinConfidence > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_confidence must be between 0 and 1, got %f", c.Signal.MinConfidence))
	}

	switch c.Storage.Account.Type {
	case "badger":
		if c.Storage.Account.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.account.path required when type is badger"))
		}
	case "memory":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage.account.type must be badger or memory, got %q", c.Storage.Account.Type))
	}

	if c.Storage.Archive.Enabled {
		switch c.Storage.Archive.Type {
		case "localfs":
			if c.Storage.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("storage.archive.path required when type is localfs"))
			}
		case "s3":
			if c.Storage.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("storage.archive.s3.bucket required when type is s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("storage.archive.type must be localfs or s3, got %q", c.Storage.Archive.Type))
		}
	}

	for _, inst := range c.Instruments {
		if inst.Symbol == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("every instrument needs a symbol"))
		}
		if inst.File == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("instrument %s needs a kline file", inst.Symbol))
		}
	}

	return nil
}

// Policy converts the signal section into the policy the simulator uses.
func (c *Config) Policy() core.SignalPolicy {
	return core.SignalPolicy{
		MinStrength:   core.SignalStrength(c.Signal.MinStrength),
		MinConfidence: c.Signal.MinConfidence,
	}
}
