package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "CollabHub"

// AppDataDir returns the per-user application data directory, creating it
// if necessary.
//   - Windows: %APPDATA%\CollabHub
//   - macOS: ~/Library/Application Support/CollabHub
//   - Linux: ~/.config/collab-hub
func AppDataDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dir = filepath.Join(appData, appDirName)
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support", appDirName)
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "collab-hub")
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create app data directory: %w", err)
	}

	return dir, nil
}

// LogDir returns the per-user log directory, creating it if necessary.
func LogDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return "", fmt.Errorf("LOCALAPPDATA environment variable not set")
		}
		dir = filepath.Join(localAppData, appDirName, "logs")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Logs", appDirName)
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "collab-hub", "logs")
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	return dir, nil
}

// UpdatesDir returns the directory used to stage downloaded updates.
func UpdatesDir() (string, error) {
	appData, err := AppDataDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(appData, "updates")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create updates directory: %w", err)
	}

	return dir, nil
}

// DiagnosticsDir returns the directory holding the diagnostics store.
func DiagnosticsDir() (string, error) {
	appData, err := AppDataDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(appData, "diagnostics")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create diagnostics directory: %w", err)
	}

	return dir, nil
}
