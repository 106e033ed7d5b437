package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsLegacyFormat(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"flat legacy", `{"bridge_port": 17630, "log_level": "info"}`, true},
		{"sectioned current", `{"bridge": {"port": 17630}}`, false},
		{"mixed counts as current", `{"bridge": {"port": 17630}, "log_level": "info"}`, false},
		{"empty object", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsLegacyFormat([]byte(tt.data))
			if err != nil {
				t.Fatalf("failed to detect format: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsLegacyFormat(%s) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}

	if _, err := IsLegacyFormat([]byte("not json")); err == nil {
		t.Error("expected error for unparseable file")
	}
}

func TestLoadConfigMigratesLegacyFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	logFile := filepath.Join(tmpDir, "host.log")

	legacy := `{
		"bridge_port": 27699,
		"monitor_interval_seconds": 12,
		"update_feed_url": "https://feed.test/latest.json",
		"update_channel": "beta",
		"log_level": "debug",
		"log_file": "` + logFile + `"
	}`
	if err := os.WriteFile(configPath, []byte(legacy), 0644); err != nil {
		t.Fatalf("failed to write legacy config: %v", err)
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load legacy config: %v", err)
	}

	if cfg.Bridge.Port != 27699 {
		t.Errorf("expected migrated port 27699, got %d", cfg.Bridge.Port)
	}
	if cfg.Monitor.IntervalSeconds != 12 {
		t.Errorf("expected migrated interval 12, got %d", cfg.Monitor.IntervalSeconds)
	}
	if cfg.Update.Channel != "beta" {
		t.Errorf("expected migrated channel 'beta', got %q", cfg.Update.Channel)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected migrated log level 'debug', got %q", cfg.Logging.Level)
	}

	// Untouched settings keep their defaults.
	if cfg.Monitor.MemoryAlertPercent != 90 {
		t.Errorf("expected default alert percent, got %v", cfg.Monitor.MemoryAlertPercent)
	}

	// The original file must have been backed up.
	matches, err := filepath.Glob(configPath + ".backup.*")
	if err != nil || len(matches) != 1 {
		t.Errorf("expected one backup file, got %v (err %v)", matches, err)
	}

	// The rewritten file must now be in the sectioned format.
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read migrated file: %v", err)
	}
	isLegacy, err := IsLegacyFormat(data)
	if err != nil {
		t.Fatalf("failed to detect migrated format: %v", err)
	}
	if isLegacy {
		t.Error("expected migrated file to be in the sectioned format")
	}

	// A second load must not migrate again.
	if _, err := LoadConfigFromPath(configPath); err != nil {
		t.Fatalf("failed to reload migrated config: %v", err)
	}
	matches, _ = filepath.Glob(configPath + ".backup.*")
	if len(matches) != 1 {
		t.Errorf("expected migration to run once, found backups %v", matches)
	}
}
