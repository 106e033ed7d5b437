//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// darwinDisplayProvider queries display geometry through AppleScript.
type darwinDisplayProvider struct{}

func newDisplayProvider() DisplayProvider {
	return &darwinDisplayProvider{}
}

func (p *darwinDisplayProvider) PrimaryDisplaySize() (DisplaySize, error) {
	// Finder's desktop bounds are "{left, top, right, bottom}" for the
	// primary display.
	script := `tell application "Finder" to get bounds of window of desktop`
	out, err := exec.Command("osascript", "-e", script).Output()
	if err != nil {
		return DisplaySize{}, fmt.Errorf("osascript display query failed: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(parts) != 4 {
		return DisplaySize{}, fmt.Errorf("unexpected desktop bounds: %q", string(out))
	}

	right, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return DisplaySize{}, fmt.Errorf("unexpected desktop bounds: %q", string(out))
	}
	bottom, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return DisplaySize{}, fmt.Errorf("unexpected desktop bounds: %q", string(out))
	}

	return DisplaySize{Width: right, Height: bottom}, nil
}
