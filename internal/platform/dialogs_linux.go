//go:build linux

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// linuxDialogProvider drives native file dialogs through zenity.
type linuxDialogProvider struct{}

func newDialogProvider() DialogProvider {
	return &linuxDialogProvider{}
}

// zenity exits with status 1 when the user cancels the dialog.
func isDialogCancelled(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	return ok && exitErr.ExitCode() == 1
}

func (p *linuxDialogProvider) OpenFile(ctx context.Context, opts FileDialogOptions) ([]string, error) {
	args := []string{"--file-selection", "--separator=\n"}
	if opts.Title != "" {
		args = append(args, "--title="+opts.Title)
	}
	if opts.DefaultPath != "" {
		args = append(args, "--filename="+opts.DefaultPath)
	}
	if opts.Multiple {
		args = append(args, "--multiple")
	}
	args = append(args, zenityFilters(opts.Filters)...)

	out, err := exec.CommandContext(ctx, "zenity", args...).Output()
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

func (p *linuxDialogProvider) SaveFile(ctx context.Context, opts FileDialogOptions) (string, error) {
	args := []string{"--file-selection", "--save", "--confirm-overwrite"}
	if opts.Title != "" {
		args = append(args, "--title="+opts.Title)
	}
	if opts.DefaultPath != "" {
		args = append(args, "--filename="+opts.DefaultPath)
	}
	args = append(args, zenityFilters(opts.Filters)...)

	out, err := exec.CommandContext(ctx, "zenity", args...).Output()
	if err != nil {
		if isDialogCancelled(err) {
			return "", nil
		}
		return "", fmt.Errorf("save dialog failed: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

func zenityFilters(filters []FileFilter) []string {
	var args []string
	for _, f := range filters {
		patterns := make([]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			patterns = append(patterns, "*."+strings.TrimPrefix(ext, "."))
		}
		args = append(args, fmt.Sprintf("--file-filter=%s | %s", f.Name, strings.Join(patterns, " ")))
	}
	return args
}
