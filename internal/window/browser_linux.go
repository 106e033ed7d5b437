//go:build linux
// +build linux

package window

func newProvider() (Provider, error) {
	return newBrowserProvider()
}

func browserCandidates() []string {
	return []string{
		"chromium",
		"chromium-browser",
		"google-chrome",
		"google-chrome-stable",
		"brave-browser",
		"microsoft-edge",
	}
}
