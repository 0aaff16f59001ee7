package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/asthmatracker/asthmaviz/internal/chart"
	"github.com/asthmatracker/asthmaviz/internal/geom"
)

// Terminal cells are mapped onto the layout's pixel space with these ratios.
const (
	pxPerCol  = 8
	pxPerLine = 16
)

const (
	minChartLines = 6
	noDataCaption = "Нет данных за выбранный период"
)

// chartPane is one chart tab: the chart itself plus its horizontal scroll.
type chartPane struct {
	chart  *chart.Chart
	title  string
	offset int
}

// chartFrame is a chart laid out for a w×h terminal area. Columns are
// absolute, before the pane's scroll offset is applied.
type chartFrame struct {
	layout  chart.Layout
	cols    int
	lines   int
	originX int
	graphW  int
	lc      linechart.Model
}

func newChartFrame(c *chart.Chart, w, h int) chartFrame {
	l := c.Layout()
	f := chartFrame{layout: l}
	f.cols = max(w, int(math.Ceil(l.Width/pxPerCol)))
	f.lines = clamp(int(l.Height/pxPerLine), minChartLines, max(minChartLines, h))

	yFmt := func(_ int, v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) }
	f.lc = linechart.New(
		f.cols, f.lines,
		0, f.xMax(),
		l.YMin, l.YMax,
		linechart.WithXYSteps(0, 2),
		linechart.WithStyles(axisStyle, labelStyle, pointStyle),
		linechart.WithYLabelFormatter(yFmt),
	)
	f.originX = f.lc.Origin().X
	f.graphW = max(1, f.lc.GraphWidth())
	return f
}

func (f chartFrame) points() int { return len(f.layout.Points) }

func (f chartFrame) xMax() float64 { return float64(max(f.points()-1, 1)) }

// columnOf is the absolute terminal column of point i.
func (f chartFrame) columnOf(i int) int {
	return f.originX + int(math.Round(float64(i)/f.xMax()*float64(f.graphW-1)))
}

// indexAt is the point nearest to an absolute terminal column.
func (f chartFrame) indexAt(col int) int {
	if f.points() == 0 {
		return 0
	}
	rel := float64(col-f.originX) / float64(max(1, f.graphW-1))
	return clamp(int(math.Round(rel*f.xMax())), 0, f.points()-1)
}

func (f chartFrame) scrolls(w int) bool { return f.layout.Scrolls && f.cols > w }

// plot draws zones, the series and the x labels onto the canvas and returns
// all lines, the label line included.
func (f *chartFrame) plot(c *chart.Chart) []string {
	l := f.layout
	f.lc.DrawXYAxisAndLabel()

	if z, ok := c.Zones(); ok {
		boundary := func(v float64, zone chart.Zone, r rune) {
			if v <= l.YMin || v >= l.YMax {
				return
			}
			f.lc.DrawRuneLineWithStyle(
				canvas.Float64Point{X: 0, Y: v},
				canvas.Float64Point{X: f.xMax(), Y: v},
				r, zoneStyle(zone),
			)
		}
		boundary(z.Yellow[0], chart.ZoneRed, '┄')
		boundary(z.Green[0], chart.ZoneYellow, '┄')
		if l.Norm != nil {
			boundary(l.Norm.Value, chart.ZoneGreen, '═')
		}
	}

	values := f.values(c)
	for i := 1; i < len(values); i++ {
		f.lc.DrawBrailleLineWithStyle(
			canvas.Float64Point{X: float64(i - 1), Y: values[i-1]},
			canvas.Float64Point{X: float64(i), Y: values[i]},
			lineStyle,
		)
	}
	hover, hovered := c.Hover()
	for i, v := range values {
		r, style := '●', pointStyle
		if hovered && hover.Index == i {
			r, style = '◉', pointActiveStyle
		}
		f.lc.DrawRuneWithStyle(canvas.Float64Point{X: float64(i), Y: v}, r, style)
	}

	lines := strings.Split(f.lc.View(), "\n")
	return append(lines, f.labelLine())
}

// values are the plotted values, clamped into the y domain.
func (f chartFrame) values(c *chart.Chart) []float64 {
	data := c.Data()
	out := make([]float64, len(data))
	for i, p := range data {
		v := p.Value
		if !geom.IsFinite(v) {
			v = f.layout.YMin
		}
		out[i] = geom.Clamp(v, f.layout.YMin, f.layout.YMax)
	}
	return out
}

// labelLine spreads the layout's x labels under their points, skipping any
// label that would overlap the previous one.
func (f chartFrame) labelLine() string {
	buf := []rune(strings.Repeat(" ", f.cols))
	next := 0
	for _, xl := range f.layout.XLabels {
		text := []rune(xl.Text)
		start := f.columnOf(xl.Index) - len(text)/2
		start = clamp(start, 0, max(0, f.cols-len(text)))
		if start < next {
			continue
		}
		copy(buf[start:], text)
		next = start + len(text) + 1
	}
	return labelStyle.Render(string(buf))
}

// render paints the pane into a w×h block, tooltip and scroll bar included.
func (p *chartPane) render(w, h int) string {
	if p.chart == nil || len(p.chart.Data()) == 0 {
		return padToSize(headerStyle.Render(p.title)+"\n\n"+dimStyle.Render("  "+noDataCaption), w, h)
	}

	head := headerStyle.Render(p.title) + p.legend()
	f := newChartFrame(p.chart, w, h-3)
	p.offset = clamp(p.offset, 0, max(0, f.cols-w))

	lines := f.plot(p.chart)
	for i, line := range lines {
		lines[i] = fitAnsiWidth(ansi.Cut(line, p.offset, p.offset+w), w)
	}
	body := strings.Join(lines, "\n")

	if box, col, line, ok := p.tooltip(f); ok {
		body = overlayAt(body, box, col-p.offset, line)
	}

	out := head + "\n" + body
	if f.scrolls(w) {
		out += "\n" + renderScrollBarLine(w, p.offset, w, f.cols)
	}
	return padToSize(out, w, h)
}

func (p *chartPane) legend() string {
	z, ok := p.chart.Zones()
	if !ok {
		return ""
	}
	item := func(zone chart.Zone, text string) string {
		return zoneStyle(zone).Render("  ■ ") + labelStyle.Render(text)
	}
	return item(chart.ZoneRed, "<"+trimNum(z.Yellow[0])) +
		item(chart.ZoneYellow, trimNum(z.Yellow[0])+"–"+trimNum(z.Green[0])) +
		item(chart.ZoneGreen, "норма "+trimNum(z.Norm))
}

// tooltip returns the hover box and its absolute column and line.
func (p *chartPane) tooltip(f chartFrame) (string, int, int, bool) {
	h, ok := p.chart.Hover()
	if !ok {
		return "", 0, 0, false
	}
	box, ok := chartTooltipBox(p.chart)
	if !ok {
		return "", 0, 0, false
	}
	col := int(h.Left / f.layout.Width * float64(f.cols))
	line := int(h.Top / f.layout.Height * float64(f.lines))
	return box, col, line, true
}

func chartTooltipBox(c *chart.Chart) (string, bool) {
	caption, value, ok := c.TooltipLines()
	if !ok {
		return "", false
	}
	return tooltipStyle.Render(caption + "\n" + value), true
}

// hoverIndex moves the hover to point i. The first pass renders the box so
// the second can place it with its measured size.
func (p *chartPane) hoverIndex(i, w, h int) {
	if p.chart == nil || len(p.chart.Data()) == 0 {
		return
	}
	f := newChartFrame(p.chart, w, h-3)
	i = clamp(i, 0, f.points()-1)
	x := f.layout.Points[i].X
	p.chart.PointerMove(x, geom.Size{}, chart.DefaultTooltipSize)

	if box, ok := chartTooltipBox(p.chart); ok {
		size := geom.Size{
			Width:  float64(lipgloss.Width(box)) / float64(f.cols) * f.layout.Width,
			Height: float64(lipgloss.Height(box)) / float64(f.lines) * f.layout.Height,
		}
		p.chart.PointerMove(x, geom.Size{}, size)
	}

	col := f.columnOf(i)
	switch {
	case col < p.offset:
		p.offset = max(0, col-2)
	case col >= p.offset+w:
		p.offset = col - w + 3
	}
}

// hoverColumn hovers the point under a visible column.
func (p *chartPane) hoverColumn(col, w, h int) {
	if p.chart == nil || len(p.chart.Data()) == 0 {
		return
	}
	f := newChartFrame(p.chart, w, h-3)
	p.hoverIndex(f.indexAt(col+p.offset), w, h)
}

func (p *chartPane) hovered() (int, bool) {
	if p.chart == nil {
		return 0, false
	}
	hv, ok := p.chart.Hover()
	return hv.Index, ok
}

func (p *chartPane) scroll(delta, w, h int) {
	if p.chart == nil {
		return
	}
	f := newChartFrame(p.chart, w, h-3)
	p.offset = clamp(p.offset+delta, 0, max(0, f.cols-w))
}

func trimNum(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
