package chart

import (
	"math"
	"strings"
	"testing"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/geom"
	"github.com/asthmatracker/asthmaviz/internal/viewport"
)

func series(values ...float64) []core.TimeSeriesPoint {
	out := make([]core.TimeSeriesPoint, len(values))
	for i, v := range values {
		out[i] = core.TimeSeriesPoint{Label: "0" + string(rune('1'+i%9)) + "-01", Value: v}
	}
	return out
}

func tickValues(l Layout) []float64 {
	out := make([]float64, len(l.YTicks))
	for i, t := range l.YTicks {
		out[i] = t.Value
	}
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSeverityChartFixedDomain(t *testing.T) {
	data := []core.TimeSeriesPoint{{Label: "01-01", Value: 1}, {Label: "01-02", Value: 5}}
	l := NewSeverityChart(data, SeverityOptions()).Layout()

	if l.YMin != 1 || l.YMax != 5 {
		t.Fatalf("domain = [%v, %v], want [1, 5]", l.YMin, l.YMax)
	}
	if got := tickValues(l); !equalFloats(got, []float64{1, 2, 3, 4, 5}) {
		t.Fatalf("ticks = %v, want [1 2 3 4 5]", got)
	}
	plot := l.Mapper.Plot()
	if l.Points[0].Y != plot.Bottom() || l.Points[1].Y != plot.Top() {
		t.Fatalf("points = %v, want bottom %v and top %v", l.Points, plot.Bottom(), plot.Top())
	}
}

func TestSeverityChartClampsOutOfRangeValues(t *testing.T) {
	l := NewSeverityChart(series(0, 9, 3), Options{}).Layout()

	if l.YMin != 1 || l.YMax != 5 {
		t.Fatalf("domain = [%v, %v], want [1, 5]", l.YMin, l.YMax)
	}
	plot := l.Mapper.Plot()
	for i, p := range l.Points {
		if p.Y < plot.Top() || p.Y > plot.Bottom() {
			t.Fatalf("point %d y = %v outside plot [%v, %v]", i, p.Y, plot.Top(), plot.Bottom())
		}
	}
}

func TestChartWidthPolicy(t *testing.T) {
	c := NewSeverityChart(series(1, 2), SeverityOptions())
	if l := c.Layout(); l.Width != 700 || !l.Scrolls {
		t.Fatalf("unmeasured width = %v scrolls=%v, want 700 true", l.Width, l.Scrolls)
	}

	c.SetData(series(make([]float64, 30)...))
	if l := c.Layout(); l.Width != 48+20+42*29 {
		t.Fatalf("dense width = %v, want %v", l.Width, 48+20+42*29)
	}

	c.Resize(412)
	if l := c.Layout(); l.Width != 412 || l.Scrolls {
		t.Fatalf("mobile width = %v scrolls=%v, want 412 false", l.Width, l.Scrolls)
	}

	c.Resize(200)
	if l := c.Layout(); l.Width != 320 {
		t.Fatalf("narrow mobile width = %v, want 320", l.Width)
	}
}

func TestChartObserveTracksContainer(t *testing.T) {
	o := viewport.NewObserver()
	c := NewPeakFlowChart(series(300, 400), nil, PeakFlowOptions())
	unsubscribe := c.Observe(o)

	o.Publish(geom.Size{Width: 500, Height: 600})
	if l := c.Layout(); l.Width != 500 {
		t.Fatalf("width = %v, want 500", l.Width)
	}

	unsubscribe()
	o.Publish(geom.Size{Width: 600, Height: 600})
	if l := c.Layout(); l.Width != 500 {
		t.Fatalf("width after unsubscribe = %v, want 500", l.Width)
	}
}

func TestPeakFlowDomain(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		zones    *core.ZoneSet
		wantMax  float64
		wantStep float64
	}{
		{"data only", []float64{300, 450}, nil, 525, 100},
		{"zones raise max", []float64{300, 450}, &core.ZoneSet{
			Red: core.Range{0, 300}, Yellow: core.Range{300, 480}, Green: core.Range{480, 600}, Norm: 600,
		}, 700, 150},
		{"empty", nil, nil, 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yMax, step := PeakFlowDomain(tt.values, tt.zones, 25)
			if yMax != tt.wantMax || step != tt.wantStep {
				t.Fatalf("domain = (%v, %v), want (%v, %v)", yMax, step, tt.wantMax, tt.wantStep)
			}
		})
	}
}

func TestPeakFlowTicksStartAtZero(t *testing.T) {
	l := NewPeakFlowChart(series(300, 450), nil, PeakFlowOptions()).Layout()
	if got := tickValues(l); !equalFloats(got, []float64{0, 100, 200, 300, 400, 500}) {
		t.Fatalf("ticks = %v", got)
	}
}

func TestZonesAllOrNothing(t *testing.T) {
	bad := &core.ZoneSet{
		Red:    core.Range{0, 300},
		Yellow: core.Range{math.NaN(), 100},
		Green:  core.Range{480, 600},
		Norm:   600,
	}
	c := NewPeakFlowChart(series(300, 450), bad, PeakFlowOptions())
	l := c.Layout()
	if len(l.Bands) != 0 {
		t.Fatalf("bands = %d, want 0", len(l.Bands))
	}
	if l.Norm != nil {
		t.Fatal("norm line rendered for an invalid zone set")
	}
	if _, ok := c.Zones(); ok {
		t.Fatal("invalid zone set kept")
	}
	svg := c.SVG()
	if strings.Contains(svg, `class="zone-`) || strings.Contains(svg, `class="norm"`) || strings.Contains(svg, normCaption) {
		t.Fatal("svg contains zone markup for an invalid zone set")
	}

	valid := &core.ZoneSet{Red: core.Range{0, 300}, Yellow: core.Range{300, 480}, Green: core.Range{480, 600}, Norm: 600}
	svg = NewPeakFlowChart(series(300, 450), valid, PeakFlowOptions()).SVG()
	if !strings.Contains(svg, `class="zone-`) || !strings.Contains(svg, `class="norm"`) {
		t.Fatal("svg is missing zone markup for a valid zone set")
	}
}

func TestZoneBandsAndNorm(t *testing.T) {
	zones := &core.ZoneSet{
		Red:    core.Range{0, 300},
		Yellow: core.Range{300, 480},
		Green:  core.Range{480, 600},
		Norm:   600,
	}
	l := NewPeakFlowChart(series(350, 500), zones, PeakFlowOptions()).Layout()
	if len(l.Bands) != 3 {
		t.Fatalf("bands = %d, want 3", len(l.Bands))
	}
	m := l.Mapper
	red := l.Bands[0]
	if red.Zone != ZoneRed || red.Rect.Y != m.YAt(300) || math.Abs(red.Rect.Bottom()-m.YAt(0)) > 1e-9 {
		t.Fatalf("red band = %+v", red)
	}
	if l.Norm == nil || l.Norm.Y != m.YAt(600) || l.Norm.X2 != m.Plot().Right() {
		t.Fatalf("norm = %+v", l.Norm)
	}
}

func TestZoneBandOutsideDomainIsOmitted(t *testing.T) {
	zones := &core.ZoneSet{
		Red:    core.Range{0, 0},
		Yellow: core.Range{100, 200},
		Green:  core.Range{200, 300},
		Norm:   300,
	}
	l := NewPeakFlowChart(series(250), zones, PeakFlowOptions()).Layout()
	for _, b := range l.Bands {
		if b.Zone == ZoneRed {
			t.Fatalf("zero-height red band rendered: %+v", b)
		}
	}
	if len(l.Bands) != 2 {
		t.Fatalf("bands = %d, want 2", len(l.Bands))
	}
}

func TestLastIndexAlwaysLabeled(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for maxTicks := 0; maxTicks <= 10; maxTicks++ {
			stride := LabelStride(n, maxTicks)
			if !ShowLabel(n-1, n, stride) {
				t.Fatalf("n=%d maxXTicks=%d: last index not labeled", n, maxTicks)
			}
			count := 0
			for i := 0; i < n; i++ {
				if ShowLabel(i, n, stride) {
					count++
				}
			}
			if limit := max(1, maxTicks) + 1; count > limit {
				t.Fatalf("n=%d maxXTicks=%d: %d labels, want <= %d", n, maxTicks, count, limit)
			}
		}
	}
}

func TestLayoutXLabels(t *testing.T) {
	opts := SeverityOptions()
	opts.MaxXTicks = 4
	l := NewSeverityChart(series(1, 2, 3, 4, 5, 1, 2, 3, 4, 5), opts).Layout()
	var idx []int
	for _, xl := range l.XLabels {
		idx = append(idx, xl.Index)
	}
	want := []int{0, 3, 6, 9}
	if len(idx) != len(want) {
		t.Fatalf("labeled = %v, want %v", idx, want)
	}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("labeled = %v, want %v", idx, want)
		}
	}
}

func TestEmptyChart(t *testing.T) {
	c := NewPeakFlowChart(nil, nil, PeakFlowOptions())
	l := c.Layout()
	if !l.Empty() || l.Path != "" {
		t.Fatalf("empty layout = %+v", l)
	}
	if _, ok := c.PointerMove(100, geom.Size{}, geom.Size{}); ok {
		t.Fatal("hover on empty chart")
	}
	if svg := c.SVG(); !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("svg = %q", svg)
	}
}

func TestSinglePointSitsOnLeftEdge(t *testing.T) {
	l := NewSeverityChart(series(3), SeverityOptions()).Layout()
	if l.Points[0].X != SeverityOptions().Margins.Left {
		t.Fatalf("x = %v, want %v", l.Points[0].X, SeverityOptions().Margins.Left)
	}
}

func TestPointerMoveClampsTooltip(t *testing.T) {
	c := NewSeverityChart(series(2, 3, 5), SeverityOptions())
	rendered := geom.Size{Width: 700, Height: 250}

	h, ok := c.PointerMove(699, rendered, geom.Size{Width: 160, Height: 60})
	if !ok || h.Index != 2 {
		t.Fatalf("hover = %+v %v, want index 2", h, ok)
	}
	if h.Left != 700-160-8 {
		t.Fatalf("left = %v, want %v", h.Left, 700-160-8)
	}
	if h.Top != 8 {
		t.Fatalf("top = %v, want 8", h.Top)
	}

	h, _ = c.PointerMove(0, rendered, geom.Size{})
	if h.Index != 0 || h.Left != 8 {
		t.Fatalf("left edge hover = %+v, want index 0 left 8", h)
	}
}

func TestPointerMoveScaledRendering(t *testing.T) {
	c := NewSeverityChart(series(1, 1, 1), SeverityOptions())
	// viewBox is 700 wide, drawn at half size; the middle point sits at 182 on screen
	h, _ := c.PointerMove(190, geom.Size{Width: 350, Height: 125}, geom.Size{Width: 100, Height: 40})
	if h.Index != 1 {
		t.Fatalf("index = %d, want 1", h.Index)
	}
	wantLeft := h.Point.X/700*350 - 50
	if math.Abs(h.Left-wantLeft) > 1e-9 {
		t.Fatalf("left = %v, want %v", h.Left, wantLeft)
	}
	wantTop := h.Point.Y/250*125 - 40 - 10
	if math.Abs(h.Top-wantTop) > 1e-9 {
		t.Fatalf("top = %v, want %v", h.Top, wantTop)
	}
}

func TestTouchUsesFirstTouchAndLeaveClears(t *testing.T) {
	c := NewSeverityChart(series(1, 2, 3), SeverityOptions())
	rendered := geom.Size{Width: 700, Height: 250}

	if _, ok := c.TouchMove(nil, rendered, geom.Size{}); ok {
		t.Fatal("touch without points should not hover")
	}
	h, ok := c.TouchMove([]geom.Point{{X: 680}, {X: 0}}, rendered, geom.Size{})
	if !ok || h.Index != 2 {
		t.Fatalf("touch hover = %+v %v, want index 2", h, ok)
	}

	c.Leave()
	if _, ok := c.Hover(); ok {
		t.Fatal("hover survived Leave")
	}
	if _, _, ok := c.TooltipLines(); ok {
		t.Fatal("tooltip survived Leave")
	}
}

func TestTooltipLines(t *testing.T) {
	data := []core.TimeSeriesPoint{{Label: "05-03", LabelFull: "05-03-2025 08:30", Value: 420}}
	c := NewPeakFlowChart(data, nil, PeakFlowOptions())
	c.PointerMove(0, geom.Size{}, geom.Size{})
	caption, value, ok := c.TooltipLines()
	if !ok || caption != "05-03-2025 08:30" || value != "ПЭФ: 420 л/мин" {
		t.Fatalf("tooltip = %q %q %v", caption, value, ok)
	}

	s := NewSeverityChart([]core.TimeSeriesPoint{{Label: "05-03", Value: 4}}, SeverityOptions())
	s.PointerMove(0, geom.Size{}, geom.Size{})
	caption, value, _ = s.TooltipLines()
	if caption != "05-03" || value != "Шкала: 4" {
		t.Fatalf("tooltip = %q %q", caption, value)
	}
}

func TestSVGPaintOrder(t *testing.T) {
	zones := &core.ZoneSet{
		Red:    core.Range{0, 300},
		Yellow: core.Range{300, 480},
		Green:  core.Range{480, 600},
		Norm:   600,
	}
	c := NewPeakFlowChart(series(350, 500, 450), zones, PeakFlowOptions())
	c.PointerMove(0, geom.Size{}, geom.Size{})
	svg := c.SVG()

	order := []string{`class="grid"`, `class="zones"`, `class="axis-y"`, `class="axis-x"`, `class="norm"`, `class="line"`, `class="points"`, `class="tooltip"`}
	last := -1
	for _, marker := range order {
		i := strings.Index(svg, marker)
		if i < 0 {
			t.Fatalf("svg missing %s", marker)
		}
		if i < last {
			t.Fatalf("%s painted out of order", marker)
		}
		last = i
	}
	if !strings.Contains(svg, `class="pt active"`) {
		t.Fatal("hovered point not highlighted")
	}
	if !strings.Contains(svg, "График пикфлоуметрии") {
		t.Fatal("missing aria label")
	}
}
