// Package platform abstracts the host's OS integration points: display
// queries, native file dialogs, and per-user data directories. Each
// abstraction has a platform-specific implementation selected with build
// tags, so the rest of the host stays portable.
package platform

import "context"

// DisplaySize describes the primary display's working area in pixels.
type DisplaySize struct {
	Width  int
	Height int
}

// DisplayProvider abstracts primary-display geometry queries.
type DisplayProvider interface {
	// PrimaryDisplaySize returns the primary display's size in pixels.
	PrimaryDisplaySize() (DisplaySize, error)
}

// FileFilter restricts a file dialog to files with the given extensions.
type FileFilter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// FileDialogOptions configures a native open/save file dialog.
type FileDialogOptions struct {
	Title       string       `json:"title,omitempty"`
	DefaultPath string       `json:"defaultPath,omitempty"`
	Filters     []FileFilter `json:"filters,omitempty"`
	Multiple    bool         `json:"multiple,omitempty"`
}

// DialogProvider abstracts native file dialogs. Cancellation is not an
// error: OpenFile returns an empty slice and SaveFile returns "".
type DialogProvider interface {
	OpenFile(ctx context.Context, opts FileDialogOptions) ([]string, error)
	SaveFile(ctx context.Context, opts FileDialogOptions) (string, error)
}

// NewDisplayProvider returns the display provider for this platform.
func NewDisplayProvider() DisplayProvider {
	return newDisplayProvider()
}

// NewDialogProvider returns the dialog provider for this platform.
func NewDialogProvider() DialogProvider {
	return newDialogProvider()
}
