package update

// Phase names one node of the update lifecycle.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseChecking    Phase = "checking"
	PhaseAvailable   Phase = "available"
	PhaseDownloading Phase = "downloading"
	PhaseDownloaded  Phase = "downloaded"
	PhaseError       Phase = "error"
)

// State is a snapshot of the update lifecycle. Every transition is
// broadcast as an updateStatus event carrying one of these.
type State struct {
	Phase    Phase        `json:"phase"`
	Info     *ReleaseInfo `json:"info,omitempty"`
	Progress float64      `json:"progress,omitempty"`
	Message  string       `json:"message,omitempty"`
}
