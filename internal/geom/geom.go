// Package geom holds the pixel geometry shared by the chart and heatmap
// renderers: rectangles, clamping and the index/value to pixel mapping.
package geom

import (
	"math"
	"strconv"
)

// Epsilon floors the value-domain span so a degenerate domain never divides by zero.
const Epsilon = 1e-6

type Point struct {
	X, Y float64
}

type Size struct {
	Width, Height float64
}

// Or returns s, or def when s has a non-positive dimension (not yet measured).
func (s Size) Or(def Size) Size {
	if s.Width <= 0 || s.Height <= 0 {
		return def
	}
	return s
}

type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Translate offsets r by d, e.g. container-relative to viewport coordinates.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, Width: r.Width, Height: r.Height}
}

type Margins struct {
	Left, Right, Top, Bottom float64
}

func (m Margins) Horizontal() float64 { return m.Left + m.Right }
func (m Margins) Vertical() float64   { return m.Top + m.Bottom }

// Clamp bounds v to [lo, hi]. When hi < lo the lower bound wins, which keeps
// oversized boxes pinned to the leading padding.
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// CeilTo rounds n up to the next multiple of step.
func CeilTo(n, step float64) float64 {
	if step <= 0 {
		return n
	}
	return math.Ceil(n/step) * step
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatPx formats a pixel coordinate for SVG output, at most two decimals.
func FormatPx(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
