// Package config provides configuration management for the Collab Hub host
// process.
//
// The configuration is loaded from platform-specific locations:
//   - Windows: %APPDATA%\CollabHub\config.json
//   - macOS: ~/Library/Application Support/CollabHub/config.json
//   - Linux: ~/.config/collab-hub/config.json
//
// A missing file is created with defaults on first run. Sections:
//   - Bridge: message bridge listen port and UI asset directory
//   - Monitor: resource sampling interval and alert threshold
//   - Update: release feed, channel, and runtime mode
//   - Window: main surface sizing bounds
//   - Diagnostics: diagnostics store path
//   - Tray: menu-bar residency
//   - Logging: log level and file path
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scottieai/collab-hub/host/internal/platform"
)

// HostConfig represents the complete host process configuration
type HostConfig struct {
	Bridge      BridgeConfig      `json:"bridge"`
	Monitor     MonitorConfig     `json:"monitor"`
	Update      UpdateConfig      `json:"update"`
	Window      WindowConfig      `json:"window"`
	Diagnostics DiagnosticsConfig `json:"diagnostics"`
	Tray        TrayConfig        `json:"tray"`
	Logging     LoggingConfig     `json:"logging"`

	configPath string
}

// BridgeConfig contains message bridge settings
type BridgeConfig struct {
	Port  int    `json:"port"`
	UIDir string `json:"ui_dir"`
}

// MonitorConfig contains resource monitor settings
type MonitorConfig struct {
	IntervalSeconds    int     `json:"interval_seconds"`
	MemoryAlertPercent float64 `json:"memory_alert_percent"`
}

// UpdateConfig contains auto-update settings. Runtime selects between the
// packaged production flow and the development flow, which never contacts
// the update feed.
type UpdateConfig struct {
	FeedURL string `json:"feed_url"`
	Channel string `json:"channel"` // "stable" or "beta"
	Runtime string `json:"runtime"` // "production" or "development"
}

// WindowConfig contains main surface sizing bounds
type WindowConfig struct {
	DefaultWidth  int `json:"default_width"`
	DefaultHeight int `json:"default_height"`
	MinWidth      int `json:"min_width"`
	MinHeight     int `json:"min_height"`
}

// DiagnosticsConfig contains diagnostics store settings
type DiagnosticsConfig struct {
	Path    string `json:"path"`
	Retain  int    `json:"retain_entries"`
	Enabled bool   `json:"enabled"`
}

// TrayConfig contains menu-bar integration settings
type TrayConfig struct {
	Enabled bool `json:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `json:"level"` // "debug", "info", "warn", "error"
	File  string `json:"file"`
}

// GetDefaultConfigPath returns the platform-specific default configuration path
func GetDefaultConfigPath() (string, error) {
	appData, err := platform.AppDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appData, "config.json"), nil
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() (*HostConfig, error) {
	diagDir, err := platform.DiagnosticsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnostics directory: %w", err)
	}

	logDir, err := platform.LogDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get log directory: %w", err)
	}

	return &HostConfig{
		Bridge: BridgeConfig{
			Port:  17630,
			UIDir: "web/app",
		},
		Monitor: MonitorConfig{
			IntervalSeconds:    30,
			MemoryAlertPercent: 90,
		},
		Update: UpdateConfig{
			FeedURL: "https://updates.scottieai.dev/collab-hub/latest.json",
			Channel: "stable",
			Runtime: "production",
		},
		Window: WindowConfig{
			DefaultWidth:  1280,
			DefaultHeight: 800,
			MinWidth:      800,
			MinHeight:     600,
		},
		Diagnostics: DiagnosticsConfig{
			Path:    diagDir,
			Retain:  5000,
			Enabled: true,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(logDir, "hubhost.log"),
		},
	}, nil
}

// LoadConfig loads configuration from the default platform-specific path
func LoadConfig() (*HostConfig, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get default config path: %w", err)
	}

	return LoadConfigFromPath(configPath)
}

// LoadConfigFromPath loads configuration from a specific path
func LoadConfigFromPath(path string) (*HostConfig, error) {
	config, err := DefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create default config: %w", err)
	}

	config.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := config.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	// Rewrite flat legacy files in the sectioned format before loading.
	if result, err := migrateIfLegacy(path, data); err != nil {
		return nil, fmt.Errorf("failed to migrate legacy config: %w", err)
	} else if result.WasMigrated {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read migrated config: %w", err)
		}
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration to disk
func (c *HostConfig) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config path not set")
	}

	dir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *HostConfig) Validate() error {
	if c.Bridge.Port < 1 || c.Bridge.Port > 65535 {
		return fmt.Errorf("bridge port must be between 1 and 65535")
	}

	if c.Monitor.IntervalSeconds < 1 {
		return fmt.Errorf("monitor interval must be at least 1 second")
	}
	if c.Monitor.MemoryAlertPercent <= 0 || c.Monitor.MemoryAlertPercent > 100 {
		return fmt.Errorf("memory alert percent must be between 0 and 100")
	}

	if c.Update.Runtime != "production" && c.Update.Runtime != "development" {
		return fmt.Errorf("update runtime must be 'production' or 'development'")
	}
	if c.Update.Channel != "stable" && c.Update.Channel != "beta" {
		return fmt.Errorf("update channel must be 'stable' or 'beta'")
	}
	if c.Update.Runtime == "production" && c.Update.FeedURL == "" {
		return fmt.Errorf("update feed URL cannot be empty in production runtime")
	}

	if c.Window.MinWidth < 1 || c.Window.MinHeight < 1 {
		return fmt.Errorf("window minimum size must be positive")
	}
	if c.Window.DefaultWidth < c.Window.MinWidth || c.Window.DefaultHeight < c.Window.MinHeight {
		return fmt.Errorf("window default size cannot be below the minimum size")
	}

	if c.Diagnostics.Enabled && c.Diagnostics.Path == "" {
		return fmt.Errorf("diagnostics path cannot be empty when diagnostics are enabled")
	}
	if c.Diagnostics.Retain < 0 {
		return fmt.Errorf("diagnostics retain entries cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.File == "" {
		return fmt.Errorf("log file path cannot be empty")
	}

	logDir := filepath.Dir(c.Logging.File)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("cannot create log directory %s: %w", logDir, err)
	}

	return nil
}
