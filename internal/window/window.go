package window

import (
	"fmt"

	"github.com/scottieai/collab-hub/host/internal/platform"
)

// Kind distinguishes the two surfaces the host presents.
type Kind string

const (
	KindSplash Kind = "splash"
	KindMain   Kind = "main"
)

// Options describe a surface to open.
type Options struct {
	Kind   Kind
	URL    string
	Width  int
	Height int
}

// Surface is a live on-screen surface. Closed is signalled whether the
// surface was closed by the user or by Close.
type Surface interface {
	Close() error
	Closed() <-chan struct{}
}

// Provider opens surfaces. The concrete implementation is selected per
// platform at build time.
type Provider interface {
	Open(opts Options) (Surface, error)
}

// NewProvider returns the surface provider for the current platform.
func NewProvider() (Provider, error) {
	p, err := newProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to create surface provider: %w", err)
	}
	return p, nil
}

// MainSize computes the main surface dimensions: 80% of the primary
// display, capped at the configured default and floored at the minimum.
func MainSize(display platform.DisplayProvider, defaultW, defaultH, minW, minH int) (int, int) {
	w, h := defaultW, defaultH
	if size, err := display.PrimaryDisplaySize(); err == nil && size.Width > 0 && size.Height > 0 {
		if scaled := size.Width * 80 / 100; scaled < w {
			w = scaled
		}
		if scaled := size.Height * 80 / 100; scaled < h {
			h = scaled
		}
	}
	if w < minW {
		w = minW
	}
	if h < minH {
		h = minH
	}
	return w, h
}
