// Configuration migration from the legacy flat format.
//
// Early host releases used a single-level config file:
//
//	{"bridge_port": 17630, "monitor_interval_seconds": 30, ...}
//
// Current releases use the sectioned HostConfig format. Loading detects a
// legacy file, backs it up next to the original, and rewrites it in the
// sectioned format. The migration is automatic and transparent.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// legacyConfig is the flat single-level format of early releases.
type legacyConfig struct {
	BridgePort         int     `json:"bridge_port"`
	UIDir              string  `json:"ui_dir"`
	IntervalSeconds    int     `json:"monitor_interval_seconds"`
	MemoryAlertPercent float64 `json:"memory_alert_percent"`
	UpdateFeedURL      string  `json:"update_feed_url"`
	UpdateChannel      string  `json:"update_channel"`
	TrayEnabled        *bool   `json:"tray_enabled"`
	LogLevel           string  `json:"log_level"`
	LogFile            string  `json:"log_file"`
}

// MigrationResult reports what a migration did.
type MigrationResult struct {
	WasMigrated bool
	BackupPath  string
}

// IsLegacyFormat detects the flat single-level configuration format. A
// file is legacy when it has none of the current section keys and at
// least one flat key.
func IsLegacyFormat(data []byte) (bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return false, fmt.Errorf("failed to parse configuration: %w", err)
	}

	for _, section := range []string{"bridge", "monitor", "update", "window", "logging"} {
		if _, exists := raw[section]; exists {
			return false, nil
		}
	}

	for _, flat := range []string{"bridge_port", "monitor_interval_seconds", "update_feed_url", "log_level"} {
		if _, exists := raw[flat]; exists {
			return true, nil
		}
	}
	return false, nil
}

// migrateIfLegacy rewrites a legacy config file in the sectioned format,
// keeping a timestamped backup of the original. A non-legacy file is
// left untouched.
func migrateIfLegacy(path string, data []byte) (*MigrationResult, error) {
	result := &MigrationResult{}

	isLegacy, err := IsLegacyFormat(data)
	if err != nil {
		return result, err
	}
	if !isLegacy {
		return result, nil
	}

	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		return result, fmt.Errorf("failed to parse legacy config: %w", err)
	}

	migrated, err := DefaultConfig()
	if err != nil {
		return result, err
	}
	if legacy.BridgePort != 0 {
		migrated.Bridge.Port = legacy.BridgePort
	}
	if legacy.UIDir != "" {
		migrated.Bridge.UIDir = legacy.UIDir
	}
	if legacy.IntervalSeconds != 0 {
		migrated.Monitor.IntervalSeconds = legacy.IntervalSeconds
	}
	if legacy.MemoryAlertPercent != 0 {
		migrated.Monitor.MemoryAlertPercent = legacy.MemoryAlertPercent
	}
	if legacy.UpdateFeedURL != "" {
		migrated.Update.FeedURL = legacy.UpdateFeedURL
	}
	if legacy.UpdateChannel != "" {
		migrated.Update.Channel = legacy.UpdateChannel
	}
	if legacy.TrayEnabled != nil {
		migrated.Tray.Enabled = *legacy.TrayEnabled
	}
	if legacy.LogLevel != "" {
		migrated.Logging.Level = legacy.LogLevel
	}
	if legacy.LogFile != "" {
		migrated.Logging.File = legacy.LogFile
	}

	backupPath := path + ".backup." + time.Now().Format("20060102-150405")
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return result, fmt.Errorf("failed to back up legacy config: %w", err)
	}
	result.BackupPath = backupPath

	migrated.configPath = path
	if err := migrated.Save(); err != nil {
		return result, fmt.Errorf("failed to write migrated config: %w", err)
	}

	result.WasMigrated = true
	return result, nil
}
