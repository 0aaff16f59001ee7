package geom

import "math"

// Mapper maps an ordinal index and a numeric value into the plot rectangle
// of a chart. It is a pure value; the zero Mapper maps everything to the origin.
type Mapper struct {
	N       int // series length
	Margins Margins
	W, H    float64 // plot width and height, viewport minus margins
	YMin    float64
	YMax    float64
}

// NewMapper derives the plot rectangle from the full viewport size.
func NewMapper(n int, m Margins, viewport Size, yMin, yMax float64) Mapper {
	return Mapper{
		N:       n,
		Margins: m,
		W:       viewport.Width - m.Horizontal(),
		H:       viewport.Height - m.Vertical(),
		YMin:    yMin,
		YMax:    yMax,
	}
}

// XAt maps index i to a horizontal pixel. A single-point series sits on the left edge.
func (m Mapper) XAt(i int) float64 {
	denom := math.Max(1, float64(m.N-1))
	return m.Margins.Left + m.W*(float64(i)/denom)
}

// YAt maps v to a vertical pixel; larger values are higher on screen.
func (m Mapper) YAt(v float64) float64 {
	t := (v - m.YMin) / math.Max(Epsilon, m.YMax-m.YMin)
	return m.Margins.Top + m.H*(1-t)
}

// Plot returns the plotting rectangle.
func (m Mapper) Plot() Rect {
	return Rect{X: m.Margins.Left, Y: m.Margins.Top, Width: m.W, Height: m.H}
}

// Nearest returns the index whose x pixel, scaled from viewBoxWidth to
// renderedWidth, is closest to cursorX. Ties keep the lower index. It returns
// -1 for an empty series.
func (m Mapper) Nearest(cursorX, viewBoxWidth, renderedWidth float64) int {
	if m.N == 0 {
		return -1
	}
	scale := 1.0
	if viewBoxWidth > 0 && renderedWidth > 0 {
		scale = renderedWidth / viewBoxWidth
	}
	best, bestDist := 0, math.Inf(1)
	for i := 0; i < m.N; i++ {
		d := math.Abs(cursorX - m.XAt(i)*scale)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
