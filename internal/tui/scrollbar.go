package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// renderScrollBarLine draws the horizontal scroll indicator of a chart that
// is wider than the terminal. It is empty when everything fits.
func renderScrollBarLine(width, offset, visible, total int) string {
	if width <= 0 || visible <= 0 || total <= 0 || total <= visible {
		return ""
	}

	maxOffset := total - visible
	offset = clamp(offset, 0, maxOffset)

	const prefix = "  ↔ "
	trackW := width - lipgloss.Width(prefix) - 2
	if trackW < 6 {
		return fitAnsiWidth(fmt.Sprintf("%s%d/%d", prefix, offset, maxOffset), width)
	}

	thumbW := int(math.Round(float64(visible) / float64(total) * float64(trackW)))
	thumbW = clamp(thumbW, 1, trackW)

	thumbPos := 0
	if trackW > thumbW {
		thumbPos = int(math.Round(float64(offset) / float64(maxOffset) * float64(trackW-thumbW)))
	}

	line := prefix +
		scrollArrowStyle.Render("◀") +
		scrollRailStyle.Render(strings.Repeat("─", thumbPos)) +
		scrollThumbStyle.Render(strings.Repeat("━", thumbW)) +
		scrollRailStyle.Render(strings.Repeat("─", trackW-thumbPos-thumbW)) +
		scrollArrowStyle.Render("▶")

	return fitAnsiWidth(line, width)
}

// fitAnsiWidth cuts or pads s to exactly width cells, escape codes aside.
func fitAnsiWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	out := ansi.Cut(s, 0, width)
	if pad := width - lipgloss.Width(out); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out
}
