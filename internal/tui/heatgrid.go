package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/asthmatracker/asthmaviz/internal/geom"
	"github.com/asthmatracker/asthmaviz/internal/heatmap"
)

// The grid has a one-line header and two lines per medicine row. Vertically
// those lines map onto the heatmap's header and row heights.
const (
	heatRowLines  = 2
	heatLinePx    = heatmap.RowHeight / heatRowLines
	minCellCols   = 4
	noIntakeTitle = "Нет приёмов лекарств за выбранный период"
)

// heatGrid is the terminal rendering of a heatmap layout.
type heatGrid struct {
	layout    heatmap.Layout
	firstCols int
	cellCols  int
}

func newHeatGrid(h *heatmap.Heatmap) heatGrid {
	l := h.Layout()
	return heatGrid{
		layout:    l,
		firstCols: max(8, int(l.FirstCol/pxPerCol)),
		cellCols:  max(minCellCols, int(l.CellWidth/pxPerCol)),
	}
}

func (g heatGrid) width() int { return g.firstCols + g.cellCols*g.layout.Cols }

func (g heatGrid) lines() int { return 1 + heatRowLines*g.layout.Rows }

// linePx is the top of a content line in heatmap pixels.
func linePx(line int) float64 {
	if line <= 0 {
		return 0
	}
	return heatmap.HeaderHeight + float64(line-1)*heatLinePx
}

// lineAt is the inverse of linePx.
func lineAt(y float64) int {
	if y < heatmap.HeaderHeight {
		return 0
	}
	return 1 + int((y-heatmap.HeaderHeight)/heatLinePx)
}

// The whole screen is the heatmap's viewport. Header and footer lines are
// mapped at row-line height; the footer is the bar a tooltip must not cover.
const (
	heatTopPx    = headerLines * heatLinePx
	heatFooterPx = footerLines * heatLinePx
)

// heatOrigin is the grid's top-left corner in screen pixels.
func heatOrigin() geom.Point { return geom.Point{Y: heatTopPx} }

// heatViewport is the viewport of a w-column screen whose content area is h
// lines tall.
func heatViewport(w, h int) geom.Size {
	return geom.Size{Width: float64(w * pxPerCol), Height: heatTopPx + linePx(h) + heatFooterPx}
}

// contentLineAt maps a screen pixel row to a content-relative line. Rows in
// the header come out negative.
func contentLineAt(y float64) int {
	if y < heatTopPx {
		return int(y/heatLinePx) - headerLines
	}
	return lineAt(y - heatTopPx)
}

// pointAt converts a content-relative cell position to a grid point in the
// middle of the terminal cell.
func (g heatGrid) pointAt(col, line int) geom.Point {
	y := linePx(line) + heatLinePx/2
	if line == 0 {
		y = heatmap.HeaderHeight / 2
	}
	if col < g.firstCols {
		return geom.Point{X: g.layout.FirstCol * float64(col) / float64(g.firstCols), Y: y}
	}
	cellX := float64(col-g.firstCols) / float64(g.cellCols)
	return geom.Point{X: g.layout.FirstCol + cellX*g.layout.CellWidth, Y: y}
}

// target classifies a content-relative position for a pointer-down.
func (g heatGrid) target(col, line int, tip heatTip, tipOK bool) heatmap.Target {
	if tipOK && tip.contains(col, line) {
		return heatmap.TargetTooltip
	}
	if col < 0 || line < 0 || col >= g.width() || line >= g.lines() {
		return heatmap.TargetOutside
	}
	if _, ok := g.layout.CellAt(g.pointAt(col, line)); ok {
		return heatmap.TargetCell
	}
	return heatmap.TargetGrid
}

func (g heatGrid) render(h *heatmap.Heatmap, cursor heatmap.CellRef, focused bool) string {
	var b strings.Builder

	b.WriteString(heatHeaderStyle.Render(padRight(truncateCells("Лекарство", g.firstCols-1), g.firstCols)))
	for _, d := range h.Dates() {
		b.WriteString(heatHeaderStyle.Render(centerText(d.Label, g.cellCols)))
	}

	titleLines := min(heatRowLines, h.Mode().TitleLines())
	for r, row := range h.Rows() {
		title := heatmap.ClampTitle(row.DisplayTitle(), titleLines, g.firstCols-1)
		for line := 0; line < heatRowLines; line++ {
			b.WriteString("\n")
			label := ""
			style := heatTitleStyle
			switch {
			case line < len(title):
				label = title[line]
			case line == len(title) && row.Sub != "":
				label, style = row.Sub, heatSubStyle
			}
			b.WriteString(style.Render(padRight(truncateCells(label, g.firstCols-1), g.firstCols)))

			for c, cell := range row.Data {
				text := ""
				if line == 0 {
					text = fmt.Sprintf("%d", cell.Count)
					if cell.Count == 0 {
						text = "·"
					}
				}
				st := densityStyle(heatmap.Classify(cell.Count))
				if focused && cursor == (heatmap.CellRef{Row: r, Col: c}) {
					st = cellCursorStyle.Inherit(st)
					if line == 0 {
						text = "[" + text + "]"
					}
				}
				b.WriteString(st.Render(centerText(text, g.cellCols-1)) + " ")
			}
		}
	}
	return b.String()
}

// heatTip is a rendered tooltip box at a content-relative position. The line
// is negative when the tooltip rises over the header.
type heatTip struct {
	box       string
	col, line int
}

func (t heatTip) contains(col, line int) bool {
	return col >= t.col && col < t.col+lipgloss.Width(t.box) &&
		line >= t.line && line < t.line+lipgloss.Height(t.box)
}

func heatTooltipBox(tip heatmap.Tooltip) string {
	return tooltipStyle.Render(strings.Join(tip.Lines(), "\n"))
}

func currentHeatTip(h *heatmap.Heatmap) (heatTip, bool) {
	tip, ok := h.Tooltip()
	if !ok {
		return heatTip{}, false
	}
	return heatTip{
		box:  heatTooltipBox(tip),
		col:  int((tip.Pos.X - heatOrigin().X) / pxPerCol),
		line: contentLineAt(tip.Pos.Y),
	}, true
}

// measureHeatTip feeds the rendered size of the current tooltip back into
// the heatmap so its placement uses the real box.
func measureHeatTip(h *heatmap.Heatmap) {
	tip, ok := h.Tooltip()
	if !ok {
		return
	}
	box := heatTooltipBox(tip)
	h.SetTooltipSize(geom.Size{
		Width:  float64(lipgloss.Width(box) * pxPerCol),
		Height: float64(lipgloss.Height(box) * heatLinePx),
	})
}

func centerText(s string, w int) string {
	s = truncateCells(s, w)
	pad := w - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

func truncateCells(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}
