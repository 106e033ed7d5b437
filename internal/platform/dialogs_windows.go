//go:build windows

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// windowsDialogProvider drives native file dialogs through PowerShell and
// the WinForms common dialogs.
type windowsDialogProvider struct{}

func newDialogProvider() DialogProvider {
	return &windowsDialogProvider{}
}

func (p *windowsDialogProvider) OpenFile(ctx context.Context, opts FileDialogOptions) ([]string, error) {
	script := "Add-Type -AssemblyName System.Windows.Forms; " +
		"$d = New-Object System.Windows.Forms.OpenFileDialog; "
	if opts.Title != "" {
		script += fmt.Sprintf("$d.Title = %s; ", psQuote(opts.Title))
	}
	if opts.DefaultPath != "" {
		script += fmt.Sprintf("$d.InitialDirectory = %s; ", psQuote(opts.DefaultPath))
	}
	if opts.Multiple {
		script += "$d.Multiselect = $true; "
	}
	if filter := winFilter(opts.Filters); filter != "" {
		script += fmt.Sprintf("$d.Filter = %s; ", psQuote(filter))
	}
	script += "if ($d.ShowDialog() -eq 'OK') { $d.FileNames | ForEach-Object { Write-Output $_ } }"

	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script).Output()
	if err != nil {
		return nil, fmt.Errorf("open dialog failed: %w", err)
	}

	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		// Dialog dismissed; not an error.
		return []string{}, nil
	}

	return strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n"), nil
}

func (p *windowsDialogProvider) SaveFile(ctx context.Context, opts FileDialogOptions) (string, error) {
	script := "Add-Type -AssemblyName System.Windows.Forms; " +
		"$d = New-Object System.Windows.Forms.SaveFileDialog; "
	if opts.Title != "" {
		script += fmt.Sprintf("$d.Title = %s; ", psQuote(opts.Title))
	}
	if opts.DefaultPath != "" {
		script += fmt.Sprintf("$d.FileName = %s; ", psQuote(opts.DefaultPath))
	}
	if filter := winFilter(opts.Filters); filter != "" {
		script += fmt.Sprintf("$d.Filter = %s; ", psQuote(filter))
	}
	script += "if ($d.ShowDialog() -eq 'OK') { Write-Output $d.FileName }"

	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script).Output()
	if err != nil {
		return "", fmt.Errorf("save dialog failed: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// winFilter converts dialog filters to the WinForms "Name|*.a;*.b" form.
func winFilter(filters []FileFilter) string {
	var parts []string
	for _, f := range filters {
		patterns := make([]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			patterns = append(patterns, "*."+strings.TrimPrefix(ext, "."))
		}
		parts = append(parts, f.Name+"|"+strings.Join(patterns, ";"))
	}
	return strings.Join(parts, "|")
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
