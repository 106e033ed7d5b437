//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// windowsDisplayProvider queries display geometry through PowerShell.
type windowsDisplayProvider struct{}

func newDisplayProvider() DisplayProvider {
	return &windowsDisplayProvider{}
}

func (p *windowsDisplayProvider) PrimaryDisplaySize() (DisplaySize, error) {
	script := `Add-Type -AssemblyName System.Windows.Forms; ` +
		`$b = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds; ` +
		`Write-Output "$($b.Width) $($b.Height)"`

	out, err := exec.Command("powershell", "-NoProfile", "-Command", script).Output()
	if err != nil {
		return DisplaySize{}, fmt.Errorf("powershell display query failed: %w", err)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) != 2 {
		return DisplaySize{}, fmt.Errorf("unexpected display query output: %q", string(out))
	}

	w, err := strconv.Atoi(fields[0])
	if err != nil {
		return DisplaySize{}, fmt.Errorf("unexpected display query output: %q", string(out))
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil {
		return DisplaySize{}, fmt.Errorf("unexpected display query output: %q", string(out))
	}

	return DisplaySize{Width: w, Height: h}, nil
}
