package viewport

import "github.com/asthmatracker/asthmaviz/internal/geom"

// OnBreakpoint wraps fn so it only fires when the bucket computed from the
// observed width changes. The first measurement always fires.
func OnBreakpoint[B comparable](classify func(width float64) B, fn func(B, geom.Size)) Listener {
	var (
		current B
		seen    bool
	)
	return func(size geom.Size) {
		b := classify(size.Width)
		if seen && b == current {
			return
		}
		current, seen = b, true
		fn(b, size)
	}
}
