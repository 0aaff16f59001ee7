package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// overlayAt paints box over base with its top-left corner at column x and
// line y. Parts of the box outside base are dropped.
func overlayAt(base, box string, x, y int) string {
	if box == "" {
		return base
	}
	lines := strings.Split(base, "\n")
	for i, boxLine := range strings.Split(box, "\n") {
		row := y + i
		if row < 0 || row >= len(lines) {
			continue
		}
		lines[row] = spliceLine(lines[row], boxLine, x)
	}
	return strings.Join(lines, "\n")
}

func spliceLine(line, insert string, x int) string {
	x = max(0, x)
	lineW := lipgloss.Width(line)
	if lineW < x {
		line += strings.Repeat(" ", x-lineW)
		lineW = x
	}
	insW := lipgloss.Width(insert)
	left := ansi.Cut(line, 0, x)
	right := ""
	if x+insW < lineW {
		right = ansi.Cut(line, x+insW, lineW)
	}
	return left + insert + right
}

// centerBox places box in the middle of a w×h area.
func centerBox(box string, w, h int) string {
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
}
