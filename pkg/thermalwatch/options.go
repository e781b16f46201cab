package thermalwatch

import (
	"image/color"
	"time"
)

type options struct {
	quiet       time.Duration
	workers     int
	palette     map[string]color.RGBA
	republish   bool
	removeStale bool
}

// Option configures a Watcher.
type Option func(*options)

// WithQuietWindow sets how long a record must stay unchanged before it is
// considered settled and regeneration starts. Default: 750ms.
func WithQuietWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.quiet = d
		}
	}
}

// WithWorkers bounds how many regenerations run concurrently.
// Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPalette overrides the per-fault-type box colors, keyed by fault type
// identifier (e.g. "wire_overload"). Unknown types render gray.
func WithPalette(p map[string]color.RGBA) Option {
	return func(o *options) {
		o.palette = p
	}
}

// WithRepublish controls whether a successful regeneration also rewrites the
// record with recomputed centers and classification. Default: true.
func WithRepublish(enable bool) Option {
	return func(o *options) {
		o.republish = enable
	}
}

// WithRemoveStale makes deleting a record also delete its derived images.
// Default: false, stale images are left in place.
func WithRemoveStale(enable bool) Option {
	return func(o *options) {
		o.removeStale = enable
	}
}

func defaultOptions() options {
	return options{
		quiet:     750 * time.Millisecond,
		republish: true,
	}
}
