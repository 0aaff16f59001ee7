package geom

import "math"

const (
	DesktopWidthFloor = 700
	MobileWidthFloor  = 320

	// MobileBreakpoint is the measured container width below which charts
	// track the container instead of scrolling.
	MobileBreakpoint = 768
)

// WidthPolicy computes a chart viewport width from the series density and the
// measured container width.
type WidthPolicy interface {
	Width(points int, pxPerPoint float64, m Margins, container float64) float64
	Scrolls() bool
}

// DesktopWidth keeps charts comfortably wide and lets the container scroll.
type DesktopWidth struct {
	Floor float64
}

func (p DesktopWidth) Width(points int, pxPerPoint float64, m Margins, _ float64) float64 {
	segments := math.Max(1, float64(points-1))
	return math.Max(p.Floor, m.Horizontal()+pxPerPoint*segments)
}

func (DesktopWidth) Scrolls() bool { return true }

// MobileWidth follows the container so no horizontal scroll is needed.
type MobileWidth struct {
	Floor float64
}

func (p MobileWidth) Width(_ int, _ float64, _ Margins, container float64) float64 {
	if container <= 0 {
		container = p.Floor
	}
	return math.Max(p.Floor, container)
}

func (MobileWidth) Scrolls() bool { return false }

// IsMobile is the single breakpoint predicate selecting the width policy.
func IsMobile(container float64) bool {
	return container > 0 && container < MobileBreakpoint
}

// PolicyFor selects the width policy for a measured container width. An
// unmeasured container (0) is treated as desktop.
func PolicyFor(container float64) WidthPolicy {
	if IsMobile(container) {
		return MobileWidth{Floor: MobileWidthFloor}
	}
	return DesktopWidth{Floor: DesktopWidthFloor}
}
