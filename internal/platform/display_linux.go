//go:build linux

package platform

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// linuxDisplayProvider queries display geometry through xrandr.
type linuxDisplayProvider struct{}

func newDisplayProvider() DisplayProvider {
	return &linuxDisplayProvider{}
}

// xrandr reports the primary output on a line like:
//
//	eDP-1 connected primary 1920x1080+0+0 ...
var xrandrGeometry = regexp.MustCompile(`(\d+)x(\d+)\+\d+\+\d+`)

func (p *linuxDisplayProvider) PrimaryDisplaySize() (DisplaySize, error) {
	out, err := exec.Command("xrandr", "--query").Output()
	if err != nil {
		return DisplaySize{}, fmt.Errorf("xrandr query failed: %w", err)
	}

	var fallback DisplaySize
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, " connected") {
			continue
		}

		m := xrandrGeometry.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		size := DisplaySize{Width: w, Height: h}

		if strings.Contains(line, " primary ") {
			return size, nil
		}
		if fallback.Width == 0 {
			fallback = size
		}
	}

	if fallback.Width > 0 {
		return fallback, nil
	}

	return DisplaySize{}, fmt.Errorf("no connected display found")
}
