// Package heatmap lays out the medicine-by-day intake grid, classifies cell
// density and drives the detail tooltip (hover preview, pin, dismiss).
package heatmap

import (
	"fmt"
	"math"
	"strings"

	"github.com/asthmatracker/asthmaviz/internal/geom"
)

type Density string

const (
	DensityZero Density = "zero"
	DensityOne  Density = "one"
	DensityFew  Density = "few"
	DensityMany Density = "many"
)

// Classify bands an intake count: 0, 1, 2..3, more than 3.
func Classify(count int) Density {
	switch {
	case count <= 0:
		return DensityZero
	case count == 1:
		return DensityOne
	case count <= 3:
		return DensityFew
	default:
		return DensityMany
	}
}

type Mode int

const (
	Mobile Mode = iota
	Tablet
	Desktop
)

const (
	TabletBreakpoint  = 540
	DesktopBreakpoint = 900
)

func (m Mode) String() string {
	switch m {
	case Mobile:
		return "mobile"
	case Tablet:
		return "tablet"
	default:
		return "desktop"
	}
}

// ModeFor picks the column layout from the measured container width.
func ModeFor(width float64) Mode {
	switch {
	case width < TabletBreakpoint:
		return Mobile
	case width < DesktopBreakpoint:
		return Tablet
	default:
		return Desktop
	}
}

// TitleLines is how many lines a medicine title may wrap to before it is cut.
func (m Mode) TitleLines() int {
	if m == Mobile {
		return 2
	}
	return 3
}

// Template returns the CSS grid-template-columns value for the mode.
func Template(m Mode, dates int, cellMinWidth float64) string {
	switch m {
	case Mobile:
		return fmt.Sprintf("minmax(120px, 1.3fr) repeat(%d, 1fr)", dates)
	case Tablet:
		return fmt.Sprintf("minmax(160px, 1.1fr) repeat(%d, 1fr)", dates)
	}
	cols := make([]string, 0, dates+1)
	cols = append(cols, "minmax(220px, 1fr)")
	cell := fmt.Sprintf("minmax(%gpx, 1fr)", cellMinWidth)
	for i := 0; i < dates; i++ {
		cols = append(cols, cell)
	}
	return strings.Join(cols, " ")
}

type track struct {
	min    float64
	weight float64
}

func tracksFor(m Mode, dates int, cellMinWidth float64) []track {
	first := track{min: 220, weight: 1}
	cellMin := cellMinWidth
	switch m {
	case Mobile:
		first, cellMin = track{min: 120, weight: 1.3}, 0
	case Tablet:
		first, cellMin = track{min: 160, weight: 1.1}, 0
	}
	out := make([]track, 0, dates+1)
	out = append(out, first)
	for i := 0; i < dates; i++ {
		out = append(out, track{min: cellMin, weight: 1})
	}
	return out
}

// resolveTracks sizes minmax(min, Nfr) tracks the way a CSS grid does:
// tracks whose fractional share falls below their floor are frozen at the
// floor and the remaining space is shared by the rest.
func resolveTracks(tracks []track, width float64) []float64 {
	sizes := make([]float64, len(tracks))
	frozen := make([]bool, len(tracks))
	for {
		remaining, weights := width, 0.0
		for i, t := range tracks {
			if frozen[i] {
				remaining -= sizes[i]
			} else {
				weights += t.weight
			}
		}
		if weights == 0 {
			return sizes
		}
		fr := math.Max(0, remaining) / weights

		changed := false
		for i, t := range tracks {
			if !frozen[i] && t.weight*fr < t.min {
				sizes[i], frozen[i] = t.min, true
				changed = true
			}
		}
		if !changed {
			for i, t := range tracks {
				if !frozen[i] {
					sizes[i] = t.weight * fr
				}
			}
			return sizes
		}
	}
}

const (
	HeaderHeight = 36
	RowHeight    = 52
)

// Layout is the resolved grid geometry, relative to the grid container.
type Layout struct {
	Mode      Mode
	Template  string
	Width     float64 // at least the container width; wider means it scrolls
	Height    float64
	FirstCol  float64
	CellWidth float64
	Rows      int
	Cols      int
}

func NewLayout(containerWidth float64, rows, dates int, opts Options) Layout {
	mode := ModeFor(containerWidth)
	sizes := resolveTracks(tracksFor(mode, dates, opts.CellMinWidth), containerWidth)
	l := Layout{
		Mode:     mode,
		Template: Template(mode, dates, opts.CellMinWidth),
		FirstCol: sizes[0],
		Rows:     rows,
		Cols:     dates,
		Height:   math.Max(opts.Height, HeaderHeight+RowHeight*float64(rows)),
	}
	if dates > 0 {
		l.CellWidth = sizes[1]
	}
	l.Width = math.Max(containerWidth, l.FirstCol+l.CellWidth*float64(dates))
	return l
}

func (l Layout) CellRect(row, col int) geom.Rect {
	return geom.Rect{
		X:      l.FirstCol + l.CellWidth*float64(col),
		Y:      HeaderHeight + RowHeight*float64(row),
		Width:  l.CellWidth,
		Height: RowHeight,
	}
}

// CellAt hit-tests a container-relative point.
func (l Layout) CellAt(p geom.Point) (CellRef, bool) {
	if l.CellWidth <= 0 || p.X < l.FirstCol || p.Y < HeaderHeight {
		return CellRef{}, false
	}
	col := int((p.X - l.FirstCol) / l.CellWidth)
	row := int((p.Y - HeaderHeight) / RowHeight)
	if col >= l.Cols || row >= l.Rows {
		return CellRef{}, false
	}
	return CellRef{Row: row, Col: col}, true
}

// ClampTitle word-wraps title into at most lines lines of perLine runes,
// ending with an ellipsis when text was cut.
func ClampTitle(title string, lines, perLine int) []string {
	if lines <= 0 || perLine <= 0 {
		return nil
	}
	var out []string
	var cur []rune
	words := strings.Fields(title)
	for wi := 0; wi < len(words); wi++ {
		w := []rune(words[wi])
		for len(w) > perLine {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(w[:perLine]))
			w = w[perLine:]
		}
		if len(w) == 0 {
			continue
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= perLine:
			cur = append(append(cur, ' '), w...)
		default:
			out = append(out, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	if len(out) <= lines {
		return out
	}
	out = out[:lines]
	last := []rune(out[lines-1])
	if len(last) >= perLine {
		last = last[:perLine-1]
	}
	out[lines-1] = string(last) + "…"
	return out
}
