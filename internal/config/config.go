package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the goldcross platform.
type Config struct {
	Storage    Storage        `yaml:"storage"`
	Alpaca     Alpaca         `yaml:"alpaca"`
	Logging    Logging        `yaml:"logging"`
	Audit      Audit          `yaml:"audit"`
	Trading    Trading        `yaml:"trading"`
	Strategies []StrategySpec `yaml:"strategies"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	CSVDir     string `yaml:"csv_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca broker API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Audit configures the append-only operations log.
type Audit struct {
	LogPath string `yaml:"log_path"`
}

// Trading defines the cash pool, sizing, and the universe to trade.
type Trading struct {
	Cash               float64  `yaml:"cash"`
	InvestmentFraction float64  `yaml:"investment_fraction"`
	Symbols            []string `yaml:"symbols"`
	StartDate          string   `yaml:"start_date"`
	EndDate            string   `yaml:"end_date"`
}

// StrategySpec selects and parameterizes one strategy instance. Type is
// "sma-cross" (uses Period) or "golden-death" (uses ShortPeriod and
// LongPeriod). An omitted InvestmentFraction falls back to the trading
// default.
type StrategySpec struct {
	Type               string  `yaml:"type"`
	Period             int     `yaml:"period"`
	ShortPeriod        int     `yaml:"short_period"`
	LongPeriod         int     `yaml:"long_period"`
	InvestmentFraction float64 `yaml:"investment_fraction"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("AUDIT_LOG_PATH"); v != "" {
		cfg.Audit.LogPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// applyDefaults fills in values the file may omit.
func applyDefaults(cfg *Config) {
	if cfg.Trading.InvestmentFraction == 0 {
		cfg.Trading.InvestmentFraction = 0.1
	}
	if cfg.Audit.LogPath == "" {
		cfg.Audit.LogPath = "logs/operations.log"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	for i := range cfg.Strategies {
		if cfg.Strategies[i].InvestmentFraction == 0 {
			cfg.Strategies[i].InvestmentFraction = cfg.Trading.InvestmentFraction
		}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if f := c.Trading.InvestmentFraction; f <= 0 || f > 1 {
		return fmt.Errorf("config: investment_fraction must be in (0, 1], got %v", f)
	}
	for i, s := range c.Strategies {
		if f := s.InvestmentFraction; f <= 0 || f > 1 {
			return fmt.Errorf("config: strategies[%d]: investment_fraction must be in (0, 1], got %v", i, f)
		}
		switch s.Type {
		case "sma-cross":
			if s.Period < 1 {
				return fmt.Errorf("config: strategies[%d]: sma-cross requires period >= 1", i)
			}
		case "golden-death":
			if s.ShortPeriod < 1 || s.ShortPeriod >= s.LongPeriod {
				return fmt.Errorf("config: strategies[%d]: golden-death requires 0 < short_period < long_period", i)
			}
		default:
			return fmt.Errorf("config: strategies[%d]: unknown strategy type %q", i, s.Type)
		}
	}
	return nil
}
