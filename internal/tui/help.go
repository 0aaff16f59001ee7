package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/asthmatracker/asthmaviz/internal/chart"
	"github.com/asthmatracker/asthmaviz/internal/heatmap"
)

// ─── Help Overlay ───────────────────────────────────────────────────────────

// renderHelpOverlay draws a centered help popup with the keybindings and the
// color legends. Dismissed by pressing any key.
func (m Model) renderHelpOverlay(screenW, screenH int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headingStyle := lipgloss.NewStyle().Bold(true).Foreground(colorLine)
	descStyle := lipgloss.NewStyle().Foreground(colorText)
	dimHintStyle := lipgloss.NewStyle().Foreground(colorDim).Italic(true)

	var lines []string
	lines = append(lines, titleStyle.Render("  asthmaviz"), "")

	section := func(title string, keys []struct{ key, desc string }) {
		lines = append(lines, headingStyle.Render("  "+title), "")
		for _, k := range keys {
			lines = append(lines, "    "+helpKeyStyle.Render(padRight(k.key, 14))+descStyle.Render(k.desc))
		}
		lines = append(lines, "")
	}

	section("Screens", []struct{ key, desc string }{
		{"Tab / 1-3", "Attacks, peak flow, medicine"},
		{"Shift+Tab", "Previous screen"},
		{"w", "Cycle 7 / 14 / 30 days"},
		{"t", "Cycle theme"},
		{"r", "Reload records"},
		{"q / Ctrl+C", "Quit"},
	})
	section("Charts", []struct{ key, desc string }{
		{"← → / h l", "Move between points"},
		{"Home / End", "First / last point"},
		{"[ ] / wheel", "Scroll a wide chart"},
		{"mouse", "Hover a point for its value"},
		{"Esc", "Hide the tooltip"},
	})
	section("Medicine", []struct{ key, desc string }{
		{"arrows / hjkl", "Move between cells"},
		{"Enter / Space", "Pin the cell details"},
		{"click", "Pin, click outside to close"},
		{"Esc", "Close the details"},
	})

	lines = append(lines, headingStyle.Render("  Peak flow zones"), "")
	zoneLine := "    "
	for _, z := range []struct {
		style lipgloss.Style
		label string
	}{
		{zoneStyle(chart.ZoneRed), "red"},
		{zoneStyle(chart.ZoneYellow), "yellow"},
		{zoneStyle(chart.ZoneGreen), "green (norm)"},
	} {
		zoneLine += z.style.Render("■ ") + descStyle.Render(padRight(z.label, 14))
	}
	lines = append(lines, zoneLine, "")

	lines = append(lines, headingStyle.Render("  Intakes per day"), "")
	densityLine := "    "
	for _, d := range []struct {
		count int
		label string
	}{{0, "none"}, {1, "one"}, {2, "2-3"}, {4, "4+"}} {
		densityLine += densityStyle(heatmap.Classify(d.count)).Render("  ") + " " + descStyle.Render(padRight(d.label, 6))
	}
	lines = append(lines, densityLine, "")
	lines = append(lines, dimHintStyle.Render("  Press any key to close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))

	return centerBox(box, screenW, screenH)
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
