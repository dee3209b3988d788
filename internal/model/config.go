package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// BackendConfig holds connection settings for the dispatch backend.
type BackendConfig struct {
	// BaseURL is the root URL of the dispatch service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// DriverID identifies the driver whose task list is synced.
	DriverID string `mapstructure:"driver_id" yaml:"driver_id"`
}

// SyncConfig controls the reconciliation loop.
type SyncConfig struct {
	// PollIntervalSec is how often (in seconds) to refetch the full task
	// list as a fallback for missed push notifications.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// DebounceMs is the quiet period (in milliseconds) applied to
	// change-feed events before refetching, so a dispatcher batch-assign
	// collapses into a single fetch.
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// CompanyConfig holds per-company business settings.
type CompanyConfig struct {
	// DeadlineHours is the pickup window measured from request creation.
	DeadlineHours float64 `mapstructure:"deadline_hours" yaml:"deadline_hours"`
}

// HistoryConfig controls the local confirmation journal.
type HistoryConfig struct {
	// DBPath is the SQLite database file for the journal.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Company CompanyConfig `mapstructure:"company" yaml:"company"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/driversync/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "driversync", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Sync: SyncConfig{
			PollIntervalSec: 120,
			DebounceMs:      1000,
		},
		Company: CompanyConfig{
			DeadlineHours: DefaultDeadlineHours,
		},
		History: HistoryConfig{
			DBPath: defaultHistoryPath(),
		},
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "history.db")
	}
	return filepath.Join(home, ".local", "share", "driversync", "history.db")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("sync.poll_interval_sec", 120)
	v.SetDefault("sync.debounce_ms", 1000)
	v.SetDefault("company.deadline_hours", DefaultDeadlineHours)
	v.SetDefault("history.db_path", defaultHistoryPath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// An explicit nonpositive window would make every task instantly
	// overdue; fall back to the default instead.
	if cfg.Company.DeadlineHours <= 0 {
		cfg.Company.DeadlineHours = DefaultDeadlineHours
	}
	if cfg.Sync.PollIntervalSec <= 0 {
		cfg.Sync.PollIntervalSec = 120
	}
	if cfg.Sync.DebounceMs <= 0 {
		cfg.Sync.DebounceMs = 1000
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("sync", cfg.Sync)
	v.Set("company", cfg.Company)
	v.Set("history", cfg.History)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
