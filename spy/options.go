// SPDX-License-Identifier: MIT

package spy

import "gonum.org/v1/plot/vg"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultSize is the side of the square canvas.
	DefaultSize = 4 * vg.Inch

	// DefaultFormat is the image encoding.
	DefaultFormat = "png"

	// DefaultResolution bounds the number of distinct cells drawn per axis.
	// Matrices larger than this are binned, so a plot never carries more
	// than DefaultResolution² markers.
	DefaultResolution = 512

	// DefaultMarker is the radius of one non-zero marker.
	DefaultMarker = vg.Length(1)
)

const (
	panicSizeInvalid       = "spy: WithSize: size must be > 0"
	panicResolutionInvalid = "spy: WithResolution: n must be > 0"
	panicMarkerInvalid     = "spy: WithMarkerRadius: radius must be > 0"
)

// Option configures a rendering.
type Option func(*Options)

// Options is the resolved rendering configuration.
type Options struct {
	title      string
	size       vg.Length
	format     string
	resolution int
	marker     vg.Length
}

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(o *Options) { o.title = title }
}

// WithSize sets the canvas side. Panics if size <= 0.
func WithSize(size vg.Length) Option {
	if size <= 0 {
		panic(panicSizeInvalid)
	}

	return func(o *Options) { o.size = size }
}

// WithFormat selects the encoding: png, svg, pdf, eps, jpg or tif.
// Unknown formats are reported by Render as ErrUnsupportedFormat.
func WithFormat(format string) Option {
	return func(o *Options) { o.format = format }
}

// WithResolution sets the per-axis cell budget. Panics if n <= 0.
func WithResolution(n int) Option {
	if n <= 0 {
		panic(panicResolutionInvalid)
	}

	return func(o *Options) { o.resolution = n }
}

// WithMarkerRadius sets the marker radius. Panics if radius <= 0.
func WithMarkerRadius(radius vg.Length) Option {
	if radius <= 0 {
		panic(panicMarkerInvalid)
	}

	return func(o *Options) { o.marker = radius }
}

func gatherOptions(user ...Option) Options {
	o := Options{
		size:       DefaultSize,
		format:     DefaultFormat,
		resolution: DefaultResolution,
		marker:     DefaultMarker,
	}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
