package heatmap

import "github.com/asthmatracker/asthmaviz/internal/geom"

const (
	tooltipPad = 8
	tooltipGap = 8
)

// DefaultTooltipSize is assumed until the tooltip has been measured.
var DefaultTooltipSize = geom.Size{Width: 240, Height: 120}

// Place positions a tooltip for a cell, everything in viewport coordinates.
// It prefers centered below the cell, flips above when the bottom would run
// into the reserved safe area, then clamps to the edges.
func Place(cell geom.Rect, tip, vp geom.Size, safeBottom float64) geom.Point {
	floor := vp.Height - safeBottom - tooltipPad

	x := cell.CenterX() - tip.Width/2
	y := cell.Bottom() + tooltipGap
	if y+tip.Height > floor {
		y = cell.Top() - tip.Height - tooltipGap
	}
	if y < tooltipPad {
		y = tooltipPad
	}
	if y+tip.Height > floor {
		y = floor - tip.Height
	}

	if x < tooltipPad {
		x = tooltipPad
	}
	if x+tip.Width > vp.Width-tooltipPad {
		x = vp.Width - tooltipPad - tip.Width
	}
	return geom.Point{X: x, Y: y}
}

// Reclamp corrects a pinned tooltip after the viewport changed. It only pulls
// the last position back inside the edges and never re-derives it from the cell.
func Reclamp(pos geom.Point, tip, vp geom.Size, safeBottom float64) geom.Point {
	return geom.Point{
		X: geom.Clamp(pos.X, tooltipPad, vp.Width-tooltipPad-tip.Width),
		Y: geom.Clamp(pos.Y, tooltipPad, vp.Height-safeBottom-tooltipPad-tip.Height),
	}
}
