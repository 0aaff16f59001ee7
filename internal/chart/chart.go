package chart

import (
	"fmt"
	"math"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/geom"
	"github.com/asthmatracker/asthmaviz/internal/viewport"
)

const (
	tooltipPad    = 8
	tooltipOffset = 10
)

// DefaultTooltipSize is used until the tooltip has been measured.
var DefaultTooltipSize = geom.Size{Width: 160, Height: 60}

// Hover is the live tooltip state. Point is in viewBox pixels, Left/Top are
// container-relative pixels of the tooltip box.
type Hover struct {
	Index int
	Point geom.Point
	Left  float64
	Top   float64
}

// Chart owns one chart's data and its hover state. It is not safe for
// concurrent use; drive it from a single event loop.
type Chart struct {
	variant   Variant
	opts      Options
	data      []core.TimeSeriesPoint
	zones     *core.ZoneSet
	container float64

	hover   Hover
	hovered bool
}

func NewSeverityChart(data []core.TimeSeriesPoint, opts Options) *Chart {
	return &Chart{
		variant: Severity,
		opts:    opts.normalize(SeverityOptions()),
		data:    data,
	}
}

// NewPeakFlowChart builds the peak-flow variant. A zone set with any
// non-finite field is dropped as a whole.
func NewPeakFlowChart(data []core.TimeSeriesPoint, zones *core.ZoneSet, opts Options) *Chart {
	c := &Chart{
		variant: PeakFlow,
		opts:    opts.normalize(PeakFlowOptions()),
		data:    data,
	}
	c.SetZones(zones)
	return c
}

func (c *Chart) Variant() Variant             { return c.variant }
func (c *Chart) Options() Options             { return c.opts }
func (c *Chart) Data() []core.TimeSeriesPoint { return c.data }

func (c *Chart) Zones() (core.ZoneSet, bool) {
	if c.zones == nil {
		return core.ZoneSet{}, false
	}
	return *c.zones, true
}

// SetData replaces the series and clears any hover.
func (c *Chart) SetData(data []core.TimeSeriesPoint) {
	c.data = data
	c.Leave()
}

func (c *Chart) SetZones(zones *core.ZoneSet) {
	if zones == nil || !zones.Valid() {
		c.zones = nil
		return
	}
	z := *zones
	c.zones = &z
}

// Resize records the measured container width. Zero means not yet measured.
func (c *Chart) Resize(containerWidth float64) {
	if !geom.IsFinite(containerWidth) || containerWidth < 0 {
		containerWidth = 0
	}
	c.container = containerWidth
}

// Observe keeps the chart width in sync with a container-size stream until
// the returned function is called.
func (c *Chart) Observe(o *viewport.Observer) (unsubscribe func()) {
	return o.Subscribe(func(s geom.Size) { c.Resize(s.Width) })
}

// PointerMove moves the hover to the point nearest cursorX. cursorX is
// relative to the rendered chart, whose on-screen size may differ from the
// viewBox when scaled. A zero tooltip size falls back to DefaultTooltipSize.
func (c *Chart) PointerMove(cursorX float64, rendered, tooltip geom.Size) (Hover, bool) {
	if len(c.data) == 0 {
		return Hover{}, false
	}
	l := c.Layout()
	if rendered.Width <= 0 || rendered.Height <= 0 {
		rendered = geom.Size{Width: l.Width, Height: l.Height}
	}
	tooltip = tooltip.Or(DefaultTooltipSize)

	i := l.Mapper.Nearest(cursorX, l.Width, rendered.Width)
	pt := l.Points[i]

	leftRaw := pt.X/l.Width*rendered.Width - tooltip.Width/2
	left := geom.Clamp(leftRaw, tooltipPad, rendered.Width-tooltip.Width-tooltipPad)
	top := math.Max(tooltipPad, pt.Y/l.Height*rendered.Height-tooltip.Height-tooltipOffset)

	c.hover = Hover{Index: i, Point: pt, Left: left, Top: top}
	c.hovered = true
	return c.hover, true
}

// TouchMove behaves like PointerMove using the first touch. No touches is a no-op.
func (c *Chart) TouchMove(touches []geom.Point, rendered, tooltip geom.Size) (Hover, bool) {
	if len(touches) == 0 {
		return c.Hover()
	}
	return c.PointerMove(touches[0].X, rendered, tooltip)
}

// Leave clears the hover; used for pointer leave and touch end.
func (c *Chart) Leave() {
	c.hover = Hover{}
	c.hovered = false
}

func (c *Chart) Hover() (Hover, bool) {
	return c.hover, c.hovered
}

// TooltipLines returns the caption and value line of the hovered point.
func (c *Chart) TooltipLines() (caption, value string, ok bool) {
	if !c.hovered || c.hover.Index >= len(c.data) {
		return "", "", false
	}
	p := c.data[c.hover.Index]
	return p.Caption(), FormatValue(c.variant, p.Value), true
}

func FormatValue(v Variant, value float64) string {
	if v == PeakFlow {
		return fmt.Sprintf("ПЭФ: %s л/мин", trimFloat(value))
	}
	return "Шкала: " + trimFloat(value)
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
