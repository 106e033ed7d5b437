//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// darwinDialogProvider drives native file dialogs through AppleScript.
type darwinDialogProvider struct{}

func newDialogProvider() DialogProvider {
	return &darwinDialogProvider{}
}

// osascript reports "User canceled. (-128)" on stderr and exits non-zero
// when the user dismisses the dialog.
func isDialogCancelled(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	return ok && strings.Contains(string(exitErr.Stderr), "-128")
}

func (p *darwinDialogProvider) OpenFile(ctx context.Context, opts FileDialogOptions) ([]string, error) {
	script := "choose file"
	if opts.Multiple {
		script += " with multiple selections allowed"
	}
	if opts.Title != "" {
		script += fmt.Sprintf(" with prompt %q", opts.Title)
	}
	script = fmt.Sprintf("set out to (%s)\nset sep to ASCII character 10\n"+
		"if class of out is list then\n"+
		"  set paths to \"\"\n"+
		"  repeat with f in out\n"+
		"    set paths to paths & POSIX path of f & sep\n"+
		"  end repeat\n"+
		"  return paths\n"+
		"else\n"+
		"  return POSIX path of out\n"+
		"end if", script)

	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		if isDialogCancelled(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("open dialog failed: %w", err)
	}

	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return []string{}, nil
	}

	return strings.Split(trimmed, "\n"), nil
}

func (p *darwinDialogProvider) SaveFile(ctx context.Context, opts FileDialogOptions) (string, error) {
	script := "choose file name"
	if opts.Title != "" {
		script += fmt.Sprintf(" with prompt %q", opts.Title)
	}
	if opts.DefaultPath != "" {
		script += fmt.Sprintf(" default name %q", opts.DefaultPath)
	}
	script = fmt.Sprintf("POSIX path of (%s)", script)

	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		if isDialogCancelled(err) {
			return "", nil
		}
		return "", fmt.Errorf("save dialog failed: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}
