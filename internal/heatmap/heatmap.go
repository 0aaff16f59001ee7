package heatmap

import (
	"fmt"
	"slices"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/geom"
	"github.com/asthmatracker/asthmaviz/internal/viewport"
)

const noTimesCaption = "Нет временных отметок"

type Options struct {
	Height        float64
	CellMinWidth  float64 // desktop date-column floor
	BottomSafe    float64 // fixed bottom navigation the tooltip must not cover
	SafeAreaInset float64 // device bottom inset, added to BottomSafe
}

func DefaultOptions() Options {
	return Options{Height: 320, CellMinWidth: 64, BottomSafe: 96}
}

func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.CellMinWidth <= 0 {
		o.CellMinWidth = def.CellMinWidth
	}
	o.BottomSafe = max(0, o.BottomSafe)
	o.SafeAreaInset = max(0, o.SafeAreaInset)
	return o
}

func (o Options) SafeBottom() float64 { return o.BottomSafe + o.SafeAreaInset }

type CellRef struct {
	Row, Col int
}

// Tooltip is the detail popup of one cell. Pos is its top-left corner in
// viewport coordinates.
type Tooltip struct {
	Cell     CellRef
	Pos      geom.Point
	Title    string
	DateFull string
	Count    int
	Times    []string
}

// Lines returns the tooltip body top to bottom.
func (t Tooltip) Lines() []string {
	lines := []string{t.Title, t.DateFull, fmt.Sprintf("Записей: %d", t.Count)}
	if len(t.Times) == 0 {
		return append(lines, noTimesCaption)
	}
	for _, tm := range t.Times {
		lines = append(lines, "• "+tm)
	}
	return lines
}

// Target is what a global pointer-down landed on.
type Target int

const (
	TargetOutside Target = iota
	TargetGrid
	TargetCell
	TargetTooltip
)

// Used until the first measurement arrives.
const defaultContainerWidth = 1024

var defaultViewport = geom.Size{Width: 1024, Height: 768}

// Heatmap owns one grid's data and its tooltip state. It is not safe for
// concurrent use.
type Heatmap struct {
	rows  []core.HeatmapRow
	dates []core.DateColumn
	opts  Options

	container float64
	origin    geom.Point
	viewport  geom.Size
	tipSize   geom.Size

	tooltip *Tooltip
	pinned  bool
}

func New(rows []core.HeatmapRow, dates []core.DateColumn, opts Options) *Heatmap {
	return &Heatmap{
		rows:      rows,
		dates:     dates,
		opts:      opts.normalize(),
		container: defaultContainerWidth,
		viewport:  defaultViewport,
	}
}

func (h *Heatmap) Rows() []core.HeatmapRow { return h.rows }
func (h *Heatmap) Dates() []core.DateColumn { return h.dates }
func (h *Heatmap) Options() Options { return h.opts }
func (h *Heatmap) ContainerWidth() float64 { return h.container }
func (h *Heatmap) Viewport() geom.Size { return h.viewport }
func (h *Heatmap) Pinned() bool { return h.pinned }
func (h *Heatmap) Mode() Mode { return ModeFor(h.container) }

func (h *Heatmap) Layout() Layout {
	return NewLayout(h.container, len(h.rows), len(h.dates), h.opts)
}

// SetData replaces the grid contents and drops any tooltip.
func (h *Heatmap) SetData(rows []core.HeatmapRow, dates []core.DateColumn) {
	h.rows, h.dates = rows, dates
	h.Reset()
}

// Resize records the measured container width.
func (h *Heatmap) Resize(containerWidth float64) {
	if !geom.IsFinite(containerWidth) || containerWidth <= 0 {
		return
	}
	h.container = containerWidth
}

// Observe follows a container-size stream until the returned function is called.
func (h *Heatmap) Observe(o *viewport.Observer) (unsubscribe func()) {
	return o.Subscribe(func(s geom.Size) { h.Resize(s.Width) })
}

// SetOrigin places the container's top-left corner in viewport coordinates,
// scroll offset included.
func (h *Heatmap) SetOrigin(p geom.Point) { h.origin = p }

// SetTooltipSize records the measured tooltip box. Zero reverts to the default estimate.
func (h *Heatmap) SetTooltipSize(s geom.Size) { h.tipSize = s }

func (h *Heatmap) tooltipSize() geom.Size { return h.tipSize.Or(DefaultTooltipSize) }

func (h *Heatmap) Tooltip() (Tooltip, bool) {
	if h.tooltip == nil {
		return Tooltip{}, false
	}
	return *h.tooltip, true
}

func (h *Heatmap) Cell(ref CellRef) (core.HeatmapRow, core.HeatmapCell, bool) {
	if ref.Row < 0 || ref.Row >= len(h.rows) {
		return core.HeatmapRow{}, core.HeatmapCell{}, false
	}
	row := h.rows[ref.Row]
	if ref.Col < 0 || ref.Col >= len(row.Data) {
		return core.HeatmapRow{}, core.HeatmapCell{}, false
	}
	return row, row.Data[ref.Col], true
}

// CellViewportRect is the cell's bounding box in viewport coordinates.
func (h *Heatmap) CellViewportRect(ref CellRef) geom.Rect {
	return h.Layout().CellRect(ref.Row, ref.Col).Translate(h.origin)
}

func (h *Heatmap) show(ref CellRef) bool {
	row, cell, ok := h.Cell(ref)
	if !ok {
		return false
	}
	pos := Place(h.CellViewportRect(ref), h.tooltipSize(), h.viewport, h.opts.SafeBottom())
	h.tooltip = &Tooltip{
		Cell:     ref,
		Pos:      pos,
		Title:    row.DisplayTitle(),
		DateFull: cell.DateFull,
		Count:    cell.Count,
		Times:    slices.Clone(cell.Times),
	}
	return true
}

// HoverCell previews a cell. Ignored while a tooltip is pinned.
func (h *Heatmap) HoverCell(ref CellRef) {
	if h.pinned {
		return
	}
	h.show(ref)
}

// LeaveCell hides the preview unless it is pinned.
func (h *Heatmap) LeaveCell() {
	if !h.pinned {
		h.tooltip = nil
	}
}

// ClickCell pins the cell's tooltip. Taps behave the same.
func (h *Heatmap) ClickCell(ref CellRef) {
	if h.show(ref) {
		h.pinned = true
	}
}

// KeyCell pins on Enter or Space and reports whether the key was handled.
func (h *Heatmap) KeyCell(ref CellRef, key string) bool {
	switch key {
	case "enter", "Enter", " ", "space":
		h.ClickCell(ref)
		return true
	}
	return false
}

// PointerDown handles a pointer-down seen before any other handler. Only
// presses outside both the grid and the tooltip dismiss here.
func (h *Heatmap) PointerDown(target Target) {
	if target == TargetOutside {
		h.dismiss()
	}
}

// BackgroundClick handles a click on the grid that did not hit a cell.
func (h *Heatmap) BackgroundClick() { h.dismiss() }

func (h *Heatmap) Escape() { h.dismiss() }

// Reset clears all transient state.
func (h *Heatmap) Reset() { h.dismiss() }

func (h *Heatmap) dismiss() {
	h.tooltip = nil
	h.pinned = false
}

// WindowResize records the new viewport and pulls a pinned tooltip back
// inside it, starting from where it was.
func (h *Heatmap) WindowResize(vp geom.Size) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	h.viewport = vp
	if !h.pinned || h.tooltip == nil {
		return
	}
	h.tooltip.Pos = Reclamp(h.tooltip.Pos, h.tooltipSize(), vp, h.opts.SafeBottom())
}

// AriaLabel is the accessible name of a cell.
func AriaLabel(row core.HeatmapRow, cell core.HeatmapCell) string {
	return fmt.Sprintf("%s. %s. Записей: %d", row.DisplayTitle(), cell.DateFull, cell.Count)
}
