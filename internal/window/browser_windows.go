//go:build windows
// +build windows

package window

import (
	"os"
	"path/filepath"
)

func newProvider() (Provider, error) {
	return newBrowserProvider()
}

func browserCandidates() []string {
	candidates := []string{"chrome.exe", "msedge.exe"}
	for _, root := range []string{os.Getenv("ProgramFiles"), os.Getenv("ProgramFiles(x86)"), os.Getenv("LocalAppData")} {
		if root == "" {
			continue
		}
		candidates = append(candidates,
			filepath.Join(root, "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(root, "Microsoft", "Edge", "Application", "msedge.exe"),
		)
	}
	return candidates
}
