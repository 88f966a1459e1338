package portlib

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the account and market-data settings of the tool.
type Config struct {
	AccountsDir  string             `toml:"accounts_dir"`  // per-account ledger files live here
	DataDir      string             `toml:"data_dir"`      // persisted market data series
	BaseCurrency string             `toml:"base_currency"` // portfolio currency
	Source       string             `toml:"source"`        // market data source selection
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
}

// AlphaVantageConfig holds the vendor client settings.
type AlphaVantageConfig struct {
	APIKey            string `toml:"api_key"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// NewDefaultConfig returns the configuration used when no file is present.
func NewDefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	root := filepath.Join(home, ".portlib")
	return &Config{
		AccountsDir:  filepath.Join(root, "accounts"),
		DataDir:      filepath.Join(root, "data"),
		BaseCurrency: "USD",
		Source:       "alphavantage",
		AlphaVantage: AlphaVantageConfig{RequestsPerMinute: 5},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(config)
	return config, nil
}

// AccountDir returns the directory holding one account's ledger files.
func (c *Config) AccountDir(account string) string {
	return filepath.Join(c.AccountsDir, account)
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PORTLIB_ACCOUNTS_DIR"); v != "" {
		config.AccountsDir = v
	}
	if v := os.Getenv("PORTLIB_DATA_DIR"); v != "" {
		config.DataDir = v
	}
	if v := os.Getenv("PORTLIB_BASE_CURRENCY"); v != "" {
		config.BaseCurrency = v
	}
	if v := os.Getenv("PORTLIB_SOURCE"); v != "" {
		config.Source = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		config.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_RPM"); v != "" {
		if rpm, err := strconv.Atoi(v); err == nil && rpm > 0 {
			config.AlphaVantage.RequestsPerMinute = rpm
		}
	}
}
