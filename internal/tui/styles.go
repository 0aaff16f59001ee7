package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/asthmatracker/asthmaviz/internal/chart"
	"github.com/asthmatracker/asthmaviz/internal/heatmap"
)

// ─── Color Palette ──────────────────────────────────────────────────────────

var (
	colorBase    lipgloss.Color
	colorSurface lipgloss.Color
	colorOverlay lipgloss.Color
	colorText    lipgloss.Color
	colorSubtext lipgloss.Color
	colorDim     lipgloss.Color
	colorAccent  lipgloss.Color
	colorLine    lipgloss.Color
	colorPoint   lipgloss.Color

	colorZone    map[chart.Zone]lipgloss.Color
	colorDensity map[heatmap.Density]lipgloss.Color
)

// ─── Reusable Styles ────────────────────────────────────────────────────────

var (
	headerStyle      lipgloss.Style
	helpStyle        lipgloss.Style
	helpKeyStyle     lipgloss.Style
	labelStyle       lipgloss.Style
	dimStyle         lipgloss.Style
	tabActiveStyle   lipgloss.Style
	tabInactiveStyle lipgloss.Style
	tooltipStyle     lipgloss.Style
	axisStyle        lipgloss.Style
	lineStyle        lipgloss.Style
	pointStyle       lipgloss.Style
	pointActiveStyle lipgloss.Style
	cellCursorStyle  lipgloss.Style
	statusStyle      lipgloss.Style
	separatorStyle   lipgloss.Style
	heatTitleStyle   lipgloss.Style
	heatSubStyle     lipgloss.Style
	heatHeaderStyle  lipgloss.Style
	scrollRailStyle  lipgloss.Style
	scrollThumbStyle lipgloss.Style
	scrollArrowStyle lipgloss.Style
)

// applyTheme rebinds the palette and every derived style to t.
func applyTheme(t Theme) {
	colorBase, colorSurface, colorOverlay = t.Base, t.Surface, t.Overlay
	colorText, colorSubtext, colorDim, colorAccent = t.Text, t.Subtext, t.Dim, t.Accent
	colorLine, colorPoint = t.Line, t.Point

	colorZone = map[chart.Zone]lipgloss.Color{
		chart.ZoneRed:    t.ZoneRed,
		chart.ZoneYellow: t.ZoneYellow,
		chart.ZoneGreen:  t.ZoneGreen,
	}
	colorDensity = map[heatmap.Density]lipgloss.Color{
		heatmap.DensityZero: t.HeatZero,
		heatmap.DensityOne:  t.HeatOne,
		heatmap.DensityFew:  t.HeatFew,
		heatmap.DensityMany: t.HeatMany,
	}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	helpStyle = lipgloss.NewStyle().Foreground(colorDim)
	helpKeyStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(colorSubtext)
	dimStyle = lipgloss.NewStyle().Foreground(colorDim)

	tabActiveStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorText).
		Background(colorSurface).
		Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().
		Foreground(colorDim).
		Padding(0, 1)

	tooltipStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Foreground(colorText).
		Background(colorOverlay).
		Padding(0, 1)

	axisStyle = lipgloss.NewStyle().Foreground(colorDim)
	lineStyle = lipgloss.NewStyle().Foreground(colorLine)
	pointStyle = lipgloss.NewStyle().Foreground(colorPoint)
	pointActiveStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	cellCursorStyle = lipgloss.NewStyle().Underline(true).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(colorSubtext).Italic(true)
	separatorStyle = lipgloss.NewStyle().Foreground(colorSurface)

	heatTitleStyle = lipgloss.NewStyle().Foreground(colorText)
	heatSubStyle = lipgloss.NewStyle().Foreground(colorDim)
	heatHeaderStyle = lipgloss.NewStyle().Foreground(colorSubtext).Bold(true)

	scrollRailStyle = lipgloss.NewStyle().Foreground(colorSurface)
	scrollThumbStyle = lipgloss.NewStyle().Foreground(colorAccent)
	scrollArrowStyle = lipgloss.NewStyle().Foreground(colorDim)
}

func zoneStyle(z chart.Zone) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorZone[z])
}

func densityStyle(d heatmap.Density) lipgloss.Style {
	s := lipgloss.NewStyle().Background(colorDensity[d]).Foreground(colorBase)
	if d == heatmap.DensityZero {
		s = s.Foreground(colorDim)
	}
	return s
}
