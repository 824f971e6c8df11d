// Package config loads and saves salescast settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Default file names, relative to the working directory.
const (
	DefaultDataFile    = "instax_sales_transaction_data.csv"
	DefaultSARIMAModel = "model_sarima.json"
	DefaultHWModel     = "model_holtwinters.json"
)

// Environment overrides.
const (
	EnvDataFile    = "SALESCAST_DATA_FILE"
	EnvSARIMAModel = "SALESCAST_SARIMA_MODEL"
	EnvHWModel     = "SALESCAST_HW_MODEL"
	EnvLogLevel    = "SALESCAST_LOG_LEVEL"
)

// DotEnvFile is read from the working directory for the environment
// overrides. Variables already set in the process environment win.
const DotEnvFile = ".env"

// Config holds all salescast configuration.
type Config struct {
	Data       DataConfig       `toml:"data"`
	Forecast   ForecastConfig   `toml:"forecast"`
	General    GeneralConfig    `toml:"general"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
}

// DataConfig holds the input file locations.
type DataConfig struct {
	Transactions     string `toml:"transactions"`
	SARIMAModel      string `toml:"sarima_model"`
	HoltWintersModel string `toml:"holtwinters_model"`
}

// ForecastConfig holds forecast page defaults.
type ForecastConfig struct {
	DefaultPeriods int     `toml:"default_periods"`
	Confidence     float64 `toml:"confidence"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	LogLevel    string `toml:"log_level"`
	NotebookURL string `toml:"notebook_url,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds settings for the HTTP mode.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	PollIntervalSec int    `toml:"poll_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			Transactions:     DefaultDataFile,
			SARIMAModel:      DefaultSARIMAModel,
			HoltWintersModel: DefaultHWModel,
		},
		Forecast: ForecastConfig{
			DefaultPeriods: 3,
			Confidence:     0.95,
		},
		General: GeneralConfig{
			LogLevel: "INFO",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			PollIntervalSec: 10,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "salescast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "salescast")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func applyEnv(cfg *Config) {
	dotenv, _ := godotenv.Read(DotEnvFile)
	getenv := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	if v := getenv(EnvDataFile); v != "" {
		cfg.Data.Transactions = v
	}
	if v := getenv(EnvSARIMAModel); v != "" {
		cfg.Data.SARIMAModel = v
	}
	if v := getenv(EnvHWModel); v != "" {
		cfg.Data.HoltWintersModel = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.General.LogLevel = v
	}
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Data.Transactions == "" {
		c.Data.Transactions = def.Data.Transactions
	}
	if c.Data.SARIMAModel == "" {
		c.Data.SARIMAModel = def.Data.SARIMAModel
	}
	if c.Data.HoltWintersModel == "" {
		c.Data.HoltWintersModel = def.Data.HoltWintersModel
	}
	if c.Forecast.DefaultPeriods < 1 {
		c.Forecast.DefaultPeriods = 1
	}
	if c.Forecast.DefaultPeriods > 12 {
		c.Forecast.DefaultPeriods = 12
	}
	if c.Forecast.Confidence <= 0 || c.Forecast.Confidence >= 1 {
		c.Forecast.Confidence = def.Forecast.Confidence
	}
	if c.Server.PollIntervalSec < 1 {
		c.Server.PollIntervalSec = def.Server.PollIntervalSec
	}
}

// Set assigns a config value by its dotted key, e.g. "forecast.default_periods".
func (c *Config) Set(key, value string) error {
	switch key {
	case "data.transactions":
		c.Data.Transactions = value
	case "data.sarima_model":
		c.Data.SARIMAModel = value
	case "data.holtwinters_model":
		c.Data.HoltWintersModel = value
	case "forecast.default_periods":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 12 {
			return fmt.Errorf("%s must be an integer between 1 and 12", key)
		}
		c.Forecast.DefaultPeriods = n
	case "forecast.confidence":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("%s must be a number between 0 and 1", key)
		}
		c.Forecast.Confidence = f
	case "general.log_level":
		c.General.LogLevel = value
	case "general.notebook_url":
		c.General.NotebookURL = value
	case "appearance.theme":
		c.Appearance.Theme = value
	case "server.addr":
		c.Server.Addr = value
	case "server.poll_interval_sec":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer", key)
		}
		c.Server.PollIntervalSec = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
