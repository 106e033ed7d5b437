package update

import "time"

// EventKind identifies a provider-emitted event. The provider contract is
// exactly these six kinds.
type EventKind string

const (
	EventChecking     EventKind = "checking"
	EventAvailable    EventKind = "available"
	EventNotAvailable EventKind = "not-available"
	EventError        EventKind = "error"
	EventProgress     EventKind = "progress"
	EventDownloaded   EventKind = "downloaded"
)

// ReleaseInfo holds metadata about a published release.
type ReleaseInfo struct {
	Version     string    `json:"version"`
	Notes       string    `json:"notes,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	DownloadURL string    `json:"url"`
	Size        int64     `json:"size"`
}

// ProviderEvent is one entry in the provider's ordered event stream.
type ProviderEvent struct {
	Kind     EventKind
	Info     *ReleaseInfo // set for available and downloaded
	Progress float64      // set for progress, 0-100
	Err      string       // set for error
}

// Provider is the external update collaborator. Its operations return
// immediately; outcomes arrive on the Events stream. Retry and timeout
// policy are the provider's own concern.
type Provider interface {
	// CheckForUpdates queries the release feed for a newer version.
	CheckForUpdates()

	// DownloadUpdate fetches the release reported by the last check.
	DownloadUpdate()

	// QuitAndInstall applies the downloaded release and replaces the
	// running process. It does not return on success.
	QuitAndInstall() error

	// Events returns the provider's ordered event stream.
	Events() <-chan ProviderEvent
}
