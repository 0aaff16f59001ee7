package chart

import (
	"math"
	"strings"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/geom"
)

type Tick struct {
	Value float64
	Y     float64
}

type XLabel struct {
	Index int
	X     float64
	Text  string
}

type Zone string

const (
	ZoneRed    Zone = "red"
	ZoneYellow Zone = "yellow"
	ZoneGreen  Zone = "green"
)

// Band is one horizontal zone fill, already clipped to the value domain.
type Band struct {
	Zone Zone
	Rect geom.Rect
}

type NormLine struct {
	Value float64
	Y     float64
	X1    float64
	X2    float64
}

// Layout is everything needed to paint the chart, in viewBox pixels.
type Layout struct {
	Variant Variant
	Width   float64
	Height  float64
	Scrolls bool
	Mapper  geom.Mapper

	YMin, YMax float64
	YTicks     []Tick
	XLabels    []XLabel
	Bands      []Band
	Norm       *NormLine
	Path       string
	Points     []geom.Point
}

// Empty reports whether there is nothing to plot. The caller shows its own
// "no data" message in that case.
func (l Layout) Empty() bool { return len(l.Points) == 0 }

// LabelStride returns the x-label stride that keeps at most maxXTicks labels
// plus the always-labeled last index.
func LabelStride(n, maxXTicks int) int {
	return max(1, int(math.Ceil(float64(n)/float64(max(1, maxXTicks)))))
}

func ShowLabel(i, n, stride int) bool {
	return i%stride == 0 || i == n-1
}

// PeakFlowDomain returns the y-domain maximum and tick step for a peak-flow
// series. The domain always starts at zero.
func PeakFlowDomain(values []float64, zones *core.ZoneSet, yStep float64) (yMax, step float64) {
	base := 0.0
	for _, v := range values {
		base = math.Max(base, v)
	}
	if zones != nil {
		base = math.Max(base, zones.Max())
	}
	padded := base * peakFlowHeadroom
	if padded <= 0 {
		padded = yStep
	}
	yMax = math.Max(yStep, geom.CeilTo(padded, yStep))
	step = math.Max(yStep, math.Round(yMax/yTickTarget/yStep)*yStep)
	return yMax, step
}

func (c *Chart) values() []float64 {
	out := make([]float64, len(c.data))
	for i, p := range c.data {
		v := p.Value
		if !geom.IsFinite(v) {
			v = 0
		}
		if c.variant == Severity {
			v = geom.Clamp(v, SeverityMin, SeverityMax)
		}
		out[i] = v
	}
	return out
}

// Layout computes the chart geometry for the current data and container width.
func (c *Chart) Layout() Layout {
	n := len(c.data)
	policy := geom.PolicyFor(c.container)
	width := policy.Width(n, c.opts.MinPxPerPoint, c.opts.Margins, c.container)
	height := c.opts.Height
	values := c.values()

	l := Layout{
		Variant: c.variant,
		Width:   width,
		Height:  height,
		Scrolls: policy.Scrolls(),
	}

	var ticks []float64
	switch c.variant {
	case PeakFlow:
		yMax, step := PeakFlowDomain(values, c.zones, c.opts.YStep)
		l.YMin, l.YMax = 0, yMax
		for v := 0.0; v <= yMax; v += step {
			ticks = append(ticks, v)
		}
	default:
		l.YMin, l.YMax = SeverityMin, SeverityMax
		for v := SeverityMin; v <= SeverityMax; v++ {
			ticks = append(ticks, float64(v))
		}
	}

	m := geom.NewMapper(n, c.opts.Margins, geom.Size{Width: width, Height: height}, l.YMin, l.YMax)
	l.Mapper = m

	for _, v := range ticks {
		l.YTicks = append(l.YTicks, Tick{Value: v, Y: m.YAt(v)})
	}

	stride := LabelStride(n, c.opts.MaxXTicks)
	for i, p := range c.data {
		if ShowLabel(i, n, stride) {
			l.XLabels = append(l.XLabels, XLabel{Index: i, X: m.XAt(i), Text: p.Label})
		}
	}

	if c.zones != nil {
		plot := m.Plot()
		for _, zr := range []struct {
			zone Zone
			r    core.Range
		}{
			{ZoneRed, c.zones.Red},
			{ZoneYellow, c.zones.Yellow},
			{ZoneGreen, c.zones.Green},
		} {
			if b, ok := band(m, plot, zr.zone, zr.r, l.YMin, l.YMax); ok {
				l.Bands = append(l.Bands, b)
			}
		}
		if geom.IsFinite(c.zones.Norm) {
			l.Norm = &NormLine{Value: c.zones.Norm, Y: m.YAt(c.zones.Norm), X1: plot.Left(), X2: plot.Right()}
		}
	}

	l.Points = make([]geom.Point, n)
	var path strings.Builder
	for i, v := range values {
		pt := geom.Point{X: m.XAt(i), Y: m.YAt(v)}
		l.Points[i] = pt
		if i == 0 {
			path.WriteString("M ")
		} else {
			path.WriteString(" L ")
		}
		path.WriteString(num(pt.X) + "," + num(pt.Y))
	}
	l.Path = path.String()
	return l
}

func band(m geom.Mapper, plot geom.Rect, zone Zone, r core.Range, yMin, yMax float64) (Band, bool) {
	if !r.Finite() {
		return Band{}, false
	}
	y1 := m.YAt(math.Max(r[0], yMin))
	y2 := m.YAt(math.Min(r[1], yMax))
	h := math.Abs(y1 - y2)
	if h <= 0 {
		return Band{}, false
	}
	return Band{
		Zone: zone,
		Rect: geom.Rect{X: plot.Left(), Y: math.Min(y1, y2), Width: plot.Width, Height: h},
	}, true
}

func num(v float64) string { return geom.FormatPx(v) }
