package update

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/scottieai/collab-hub/host/internal/logger"
)

// Version is the running release, stamped at build time via
// -ldflags "-X .../internal/update.Version=1.2.3".
var Version = "0.0.0-dev"

// feedManifest is the JSON document served by the release feed. Channels
// map to the latest release published on each of them.
type feedManifest struct {
	Channels map[string]ReleaseInfo `json:"channels"`
}

// FeedProvider implements Provider against an HTTP release feed.
// Downloads are staged into the updates directory before install.
type FeedProvider struct {
	feedURL        string
	channel        string
	currentVersion string
	updatesDir     string
	client         *http.Client
	events         chan ProviderEvent
	logger         *logger.Logger

	mu      sync.Mutex
	pending *ReleaseInfo
	staged  string
}

// NewFeedProvider creates a provider for the given feed URL and channel.
func NewFeedProvider(feedURL, channel, updatesDir string) *FeedProvider {
	return &FeedProvider{
		feedURL:        feedURL,
		channel:        channel,
		currentVersion: Version,
		updatesDir:     updatesDir,
		client:         &http.Client{Timeout: 30 * time.Second},
		events:         make(chan ProviderEvent, 16),
		logger:         logger.NewComponentLogger("FeedProvider"),
	}
}

// Events returns the provider's ordered event stream.
func (p *FeedProvider) Events() <-chan ProviderEvent {
	return p.events
}

// CheckForUpdates fetches the feed manifest and compares the channel's
// latest release against the running version.
func (p *FeedProvider) CheckForUpdates() {
	go func() {
		p.emit(ProviderEvent{Kind: EventChecking})

		manifest, err := p.fetchManifest()
		if err != nil {
			p.emit(ProviderEvent{Kind: EventError, Err: err.Error()})
			return
		}

		release, ok := manifest.Channels[p.channel]
		if !ok {
			p.emit(ProviderEvent{Kind: EventError, Err: fmt.Sprintf("feed has no %q channel", p.channel)})
			return
		}

		if compareVersions(release.Version, p.currentVersion) <= 0 {
			p.logger.Info("No update available (current %s, feed %s)", p.currentVersion, release.Version)
			p.emit(ProviderEvent{Kind: EventNotAvailable})
			return
		}

		p.mu.Lock()
		p.pending = &release
		p.mu.Unlock()
		p.logger.Info("Update available: %s", release.Version)
		p.emit(ProviderEvent{Kind: EventAvailable, Info: &release})
	}()
}

// DownloadUpdate streams the pending release into the updates directory,
// emitting progress as it goes.
func (p *FeedProvider) DownloadUpdate() {
	go func() {
		p.mu.Lock()
		release := p.pending
		p.mu.Unlock()
		if release == nil {
			p.emit(ProviderEvent{Kind: EventError, Err: "no release selected for download"})
			return
		}

		dest := filepath.Join(p.updatesDir, fmt.Sprintf("collab-hub-%s%s", release.Version, artifactExt(release.DownloadURL)))
		if err := p.download(release, dest); err != nil {
			p.emit(ProviderEvent{Kind: EventError, Err: err.Error()})
			return
		}

		p.mu.Lock()
		p.staged = dest
		p.mu.Unlock()
		p.logger.Info("Update %s staged at %s", release.Version, dest)
		p.emit(ProviderEvent{Kind: EventDownloaded, Info: release})
	}()
}

// QuitAndInstall launches the staged installer and exits the process.
func (p *FeedProvider) QuitAndInstall() error {
	p.mu.Lock()
	staged := p.staged
	p.mu.Unlock()
	if staged == "" {
		return fmt.Errorf("no staged update to install")
	}

	if err := os.Chmod(staged, 0o755); err != nil {
		return fmt.Errorf("failed to mark installer executable: %w", err)
	}
	cmd := exec.Command(staged)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch installer: %w", err)
	}
	p.logger.Info("Installer launched (pid %d), exiting", cmd.Process.Pid)
	os.Exit(0)
	return nil
}

func (p *FeedProvider) fetchManifest() (*feedManifest, error) {
	resp, err := p.client.Get(p.feedURL)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var manifest feedManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode feed manifest: %w", err)
	}
	return &manifest, nil
}

func (p *FeedProvider) download(release *ReleaseInfo, dest string) error {
	resp, err := p.client.Get(release.DownloadURL)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	total := release.Size
	if total <= 0 {
		total = resp.ContentLength
	}

	var written int64
	buf := make([]byte, 64*1024)
	lastReported := -1.0
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write %s: %w", dest, err)
			}
			written += int64(n)
			if total > 0 {
				percent := float64(written) / float64(total) * 100
				if percent-lastReported >= 1 || percent >= 100 {
					lastReported = percent
					p.emit(ProviderEvent{Kind: EventProgress, Progress: percent})
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("download stream failed: %w", readErr)
		}
	}
	return out.Sync()
}

func (p *FeedProvider) emit(evt ProviderEvent) {
	p.events <- evt
}

func artifactExt(url string) string {
	ext := filepath.Ext(url)
	switch ext {
	case ".exe", ".dmg", ".AppImage", ".deb", ".rpm":
		return ext
	}
	return ""
}

// compareVersions orders dotted release versions numerically, falling
// back to string comparison for non-numeric segments. Pre-release
// suffixes after a hyphen are ignored.
func compareVersions(a, b string) int {
	as := versionSegments(a)
	bs := versionSegments(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv string
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		an, aerr := strconv.Atoi(av)
		bn, berr := strconv.Atoi(bv)
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if av != bv {
			return strings.Compare(av, bv)
		}
	}
	return 0
}

func versionSegments(v string) []string {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexByte(v, '-'); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return nil
	}
	return strings.Split(v, ".")
}
