package bridge

import "encoding/json"

// Command names reachable from the UI context. This list is the complete
// whitelist: the bridge rejects anything else at the boundary.
const (
	CmdGetAppDataPath  = "getAppDataPath"
	CmdGetSystemInfo   = "getSystemInfo"
	CmdOpenFileDialog  = "openFileDialog"
	CmdSaveFileDialog  = "saveFileDialog"
	CmdCheckForUpdates = "checkForUpdates"
	CmdDownloadUpdate  = "downloadUpdate"
	CmdInstallUpdate   = "installUpdate"
)

// Event names emitted from host to UI.
const (
	EventResourceUsage     = "resourceUsage"
	EventHighResourceUsage = "highResourceUsage"
	EventUpdateStatus      = "updateStatus"
)

// Request is a command invocation from the UI context.
type Request struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response answers a Request. Exactly one of Result and Error is
// meaningful, selected by OK.
type Response struct {
	ID     string      `json:"id"`
	OK     bool        `json:"ok"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Event is a fire-and-forget notification from host to UI.
type Event struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

// SystemInfo is the result shape of the getSystemInfo command.
type SystemInfo struct {
	Platform        string            `json:"platform"`
	Arch            string            `json:"arch"`
	AppVersion      string            `json:"appVersion"`
	RuntimeVersions map[string]string `json:"runtimeVersions"`
	CPUInfo         string            `json:"cpuInfo"`
	CPUCores        int               `json:"cpuCores"`
	TotalMemory     uint64            `json:"totalMemory"`
	FreeMemory      uint64            `json:"freeMemory"`
}

// AppDataPath is the result shape of the getAppDataPath command.
type AppDataPath struct {
	Path string `json:"path"`
}

// CheckResult is the result shape of the checkForUpdates command. Initiated
// reports whether a provider check was actually started.
type CheckResult struct {
	Initiated bool   `json:"initiated"`
	Reason    string `json:"reason,omitempty"`
}
