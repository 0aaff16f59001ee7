// Package tui is the terminal patient view: the attack and peak-flow charts
// and the medicine intake heatmap, with pointer and keyboard navigation.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/asthmatracker/asthmaviz/internal/chart"
	"github.com/asthmatracker/asthmaviz/internal/config"
	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/geom"
	"github.com/asthmatracker/asthmaviz/internal/heatmap"
	"github.com/asthmatracker/asthmaviz/internal/norms"
	"github.com/asthmatracker/asthmaviz/internal/records"
	"github.com/asthmatracker/asthmaviz/internal/viewport"
)

type screenTab int

const (
	screenAttacks screenTab = iota
	screenPeakFlow
	screenMedicine
)

var screenTabs = []screenTab{screenAttacks, screenPeakFlow, screenMedicine}

var screenLabelByTab = map[screenTab]string{
	screenAttacks:  "Приступы",
	screenPeakFlow: "ПЭФ",
	screenMedicine: "Лекарства",
}

const (
	headerLines = 2
	footerLines = 2
	loadTimeout = 10 * time.Second
)

// Loader fetches the patient snapshot for the given windows.
type Loader func(ctx context.Context, w records.Windows) (records.Snapshot, error)

// SnapshotMsg delivers a loaded snapshot, or the error that prevented it.
type SnapshotMsg struct {
	Snapshot records.Snapshot
	Err      error
}

type themePersistedMsg struct {
	err error
}

type Options struct {
	Attacks  chart.Options
	PeakFlow chart.Options
	Heatmap  heatmap.Options
	Windows  records.Windows
	Loader   Loader
	Logger   *zap.Logger
	Now      func() time.Time
}

// layoutState is shared by every copy of the model; breakpoint listeners
// write into it.
type layoutState struct {
	heatMode heatmap.Mode
	changes  int
}

type Model struct {
	snap    records.Snapshot
	hasData bool
	loading bool
	err     error

	panes  [2]chartPane
	heat   *heatmap.Heatmap
	cursor heatmap.CellRef

	observer *viewport.Observer
	layout   *layoutState

	screen   screenTab
	showHelp bool
	status   string
	width    int
	height   int

	window  core.TimeWindow
	windows records.Windows
	loader  Loader
	log     *zap.Logger
	now     func() time.Time
}

func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Windows.ChartDays < 1 || opts.Windows.MedicineDays < 1 {
		opts.Windows = records.DefaultWindows()
	}

	heatOpts := opts.Heatmap
	heatOpts.BottomSafe, heatOpts.SafeAreaInset = heatFooterPx, 0

	m := Model{
		heat:     heatmap.New(nil, nil, heatOpts),
		observer: viewport.NewObserver(),
		layout:   &layoutState{},
		windows:  opts.Windows,
		window:   windowFor(opts.Windows.ChartDays),
		loader:   opts.Loader,
		log:      opts.Logger,
		now:      opts.Now,
		loading:  opts.Loader != nil,
	}
	m.panes[0] = chartPane{chart: chart.NewSeverityChart(nil, opts.Attacks), title: "График приступов"}
	m.panes[1] = chartPane{chart: chart.NewPeakFlowChart(nil, nil, opts.PeakFlow), title: "График пикфлоуметрии"}

	for _, p := range m.panes {
		p.chart.Observe(m.observer)
	}
	m.heat.Observe(m.observer)
	m.heat.SetOrigin(heatOrigin())

	state := m.layout
	m.observer.Subscribe(viewport.OnBreakpoint(heatmap.ModeFor, func(mode heatmap.Mode, _ geom.Size) {
		state.heatMode = mode
		state.changes++
	}))
	return m
}

func windowFor(days int) core.TimeWindow {
	for _, tw := range core.ValidTimeWindows {
		if tw.Days() == days {
			return tw
		}
	}
	return core.TimeWindow14d
}

func (m Model) loadCmd() tea.Cmd {
	if m.loader == nil {
		return nil
	}
	loader, w := m.loader, m.windows
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		snap, err := loader(ctx, w)
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

func (m Model) persistThemeCmd(themeName string) tea.Cmd {
	log := m.log
	return func() tea.Msg {
		err := config.SaveTheme(themeName)
		if err != nil {
			log.Warn("theme persist failed", zap.Error(err))
		}
		return themePersistedMsg{err: err}
	}
}

func (m Model) Init() tea.Cmd { return m.loadCmd() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		before := m.layout.changes
		m.observer.Publish(geom.Size{
			Width:  float64(msg.Width * pxPerCol),
			Height: float64(msg.Height * pxPerLine),
		})
		if before > 0 && m.layout.changes != before {
			m.status = "layout: " + m.layout.heatMode.String()
		}
		m.heat.WindowResize(heatViewport(m.width, m.contentHeight()))
		return m, nil

	case SnapshotMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.status = "load failed: " + msg.Err.Error()
			m.log.Error("loading snapshot", zap.Error(msg.Err))
			return m, nil
		}
		m.setSnapshot(msg.Snapshot)
		return m, nil

	case themePersistedMsg:
		if msg.err != nil {
			m.status = "theme save failed"
		} else {
			m.status = "theme saved"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m *Model) setSnapshot(snap records.Snapshot) {
	m.snap = snap
	m.hasData = true
	m.err = nil
	m.panes[0].chart.SetData(snap.Attacks)
	m.panes[1].chart.SetData(snap.PeakFlows)
	m.panes[1].chart.SetZones(snap.Zones)
	for i := range m.panes {
		m.panes[i].chart.Leave()
	}
	m.heat.SetData(snap.MedicineRows, snap.MedicineDates)
	m.clampCursor()
}

func (m *Model) clampCursor() {
	rows := m.heat.Rows()
	if len(rows) == 0 {
		m.cursor = heatmap.CellRef{}
		return
	}
	m.cursor.Row = clamp(m.cursor.Row, 0, len(rows)-1)
	m.cursor.Col = clamp(m.cursor.Col, 0, max(0, len(rows[m.cursor.Row].Data)-1))
}

func (m Model) contentHeight() int {
	return max(3, m.height-headerLines-footerLines)
}

func (m *Model) activePane() (*chartPane, bool) {
	switch m.screen {
	case screenAttacks:
		return &m.panes[0], true
	case screenPeakFlow:
		return &m.panes[1], true
	}
	return nil, false
}

func (m Model) switchScreen(s screenTab) Model {
	if s == m.screen {
		return m
	}
	for i := range m.panes {
		m.panes[i].chart.Leave()
	}
	m.heat.Reset()
	m.screen = s
	return m
}

func (m Model) nextScreen(step int) screenTab {
	n := len(screenTabs)
	return screenTabs[((int(m.screen)+step)%n+n)%n]
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "?" {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m.switchScreen(m.nextScreen(1)), nil
	case "shift+tab":
		return m.switchScreen(m.nextScreen(-1)), nil
	case "1", "2", "3":
		return m.switchScreen(screenTabs[int(key[0]-'1')]), nil
	case "t":
		name := CycleTheme()
		m.status = "theme: " + name
		return m, m.persistThemeCmd(name)
	case "r":
		if m.loader == nil {
			return m, nil
		}
		m.loading = true
		m.status = "reloading…"
		return m, m.loadCmd()
	case "w":
		if m.loader == nil {
			return m, nil
		}
		m.window = core.NextTimeWindow(m.window)
		m.windows.ChartDays = m.window.Days()
		m.loading = true
		m.status = "window: " + m.window.Label()
		return m, m.loadCmd()
	}

	if m.screen == screenMedicine {
		return m.handleHeatmapKey(key)
	}
	return m.handleChartKey(key)
}

func (m Model) handleChartKey(key string) (tea.Model, tea.Cmd) {
	p, ok := m.activePane()
	if !ok {
		return m, nil
	}
	w, h := m.width, m.contentHeight()
	idx, hovered := p.hovered()
	n := len(p.chart.Data())

	switch key {
	case "left", "h":
		if !hovered {
			idx = n
		}
		p.hoverIndex(idx-1, w, h)
	case "right", "l":
		if !hovered {
			idx = -1
		}
		p.hoverIndex(idx+1, w, h)
	case "home", "g":
		p.hoverIndex(0, w, h)
	case "end", "G":
		p.hoverIndex(n-1, w, h)
	case "[":
		p.scroll(-max(1, w/2), w, h)
	case "]":
		p.scroll(max(1, w/2), w, h)
	case "esc":
		p.chart.Leave()
	}
	return m, nil
}

func (m Model) handleHeatmapKey(key string) (tea.Model, tea.Cmd) {
	rows := m.heat.Rows()
	if len(rows) == 0 {
		return m, nil
	}
	moved := true
	switch key {
	case "up", "k":
		m.cursor.Row--
	case "down", "j":
		m.cursor.Row++
	case "left", "h":
		m.cursor.Col--
	case "right", "l":
		m.cursor.Col++
	case "esc":
		m.heat.Escape()
		return m, nil
	default:
		moved = false
	}
	if moved {
		m.clampCursor()
		m.heat.HoverCell(m.cursor)
		measureHeatTip(m.heat)
		m.heat.HoverCell(m.cursor)
		return m, nil
	}
	if m.heat.KeyCell(m.cursor, key) {
		measureHeatTip(m.heat)
		m.heat.ClickCell(m.cursor)
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || !m.hasData {
		return m, nil
	}
	col, line := msg.X, msg.Y-headerLines

	if m.screen == screenMedicine {
		return m.handleHeatmapMouse(msg, col, line)
	}

	p, ok := m.activePane()
	if !ok {
		return m, nil
	}
	w, h := m.width, m.contentHeight()
	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelLeft:
		p.scroll(-3, w, h)
	case msg.Button == tea.MouseButtonWheelDown || msg.Button == tea.MouseButtonWheelRight:
		p.scroll(3, w, h)
	case msg.Action == tea.MouseActionMotion || msg.Action == tea.MouseActionPress:
		// line 0 is the chart title; the plot follows it.
		if line < 1 || line >= h {
			p.chart.Leave()
			return m, nil
		}
		p.hoverColumn(col, w, h)
	}
	return m, nil
}

func (m Model) handleHeatmapMouse(msg tea.MouseMsg, col, line int) (tea.Model, tea.Cmd) {
	grid := newHeatGrid(m.heat)
	tip, tipOK := currentHeatTip(m.heat)

	switch msg.Action {
	case tea.MouseActionMotion:
		ref, ok := grid.layout.CellAt(grid.pointAt(col, line))
		if !ok || grid.target(col, line, tip, tipOK) != heatmap.TargetCell {
			m.heat.LeaveCell()
			return m, nil
		}
		m.heat.HoverCell(ref)
		measureHeatTip(m.heat)
		m.heat.HoverCell(ref)

	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		target := grid.target(col, line, tip, tipOK)
		m.heat.PointerDown(target)
		switch target {
		case heatmap.TargetCell:
			ref, _ := grid.layout.CellAt(grid.pointAt(col, line))
			m.cursor = ref
			m.heat.ClickCell(ref)
			measureHeatTip(m.heat)
			m.heat.ClickCell(ref)
		case heatmap.TargetGrid:
			m.heat.BackgroundClick()
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.width < 30 || m.height < 8 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Render("\n  Terminal too small. Resize to at least 30×8.")
	}
	if m.showHelp {
		return m.renderHelpOverlay(m.width, m.height)
	}

	w := m.width
	h := m.contentHeight()

	var content string
	switch {
	case !m.hasData && m.err != nil:
		content = padToSize("\n  "+statusStyle.Render(m.err.Error()), w, h)
	case !m.hasData:
		content = padToSize("\n  "+dimStyle.Render("Загрузка…"), w, h)
	case m.screen == screenMedicine:
		content = m.renderMedicine(w, h)
	default:
		p, _ := m.activePane()
		content = p.render(w, h)
	}
	out := m.renderHeader(w) + "\n" + content + "\n" + m.renderFooter(w)
	if m.screen == screenMedicine && len(m.heat.Rows()) > 0 {
		if tip, ok := currentHeatTip(m.heat); ok {
			out = overlayAt(out, tip.box, tip.col, headerLines+tip.line)
		}
	}
	return out
}

func (m Model) renderMedicine(w, h int) string {
	if len(m.heat.Rows()) == 0 {
		return padToSize(headerStyle.Render("Приём лекарств")+"\n\n"+dimStyle.Render("  "+noIntakeTitle), w, h)
	}
	grid := newHeatGrid(m.heat)
	body := grid.render(m.heat, m.cursor, true)

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = fitAnsiWidth(line, w)
	}
	return padToSize(strings.Join(lines, "\n"), w, h)
}

func (m Model) renderHeader(w int) string {
	brand := headerStyle.Render("◉ asthmaviz")
	left := brand + " " + m.renderScreenTabs()

	info := m.patientCaption()
	if m.hasData {
		info += " · " + m.window.Label() + " · " + m.layout.heatMode.String()
	}
	if m.loading {
		info += " · loading"
	}
	infoRendered := labelStyle.Render(info)

	gap := max(1, w-lipgloss.Width(left)-lipgloss.Width(infoRendered))
	line := fitAnsiWidth(left+strings.Repeat(" ", gap)+infoRendered, w)
	return line + "\n" + separatorStyle.Render(strings.Repeat("━", w))
}

func (m Model) patientCaption() string {
	p := m.snap.Patient
	if p.OMS == "" {
		return ""
	}
	parts := []string{}
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	parts = append(parts, "ОМС "+p.OMS)
	if birth, ok := norms.ParseBirthDate(p.Birthday); ok {
		parts = append(parts, core.AgeCaption(norms.AgeYears(birth, m.now())))
	}
	if p.Height > 0 {
		parts = append(parts, fmt.Sprintf("%s см", trimNum(p.Height)))
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderScreenTabs() string {
	var parts []string
	for i, screen := range screenTabs {
		tabStr := fmt.Sprintf("%d:%s", i+1, screenLabelByTab[screen])
		if screen == m.screen {
			parts = append(parts, tabActiveStyle.Render(tabStr))
		} else {
			parts = append(parts, tabInactiveStyle.Render(tabStr))
		}
	}
	return strings.Join(parts, "")
}

func (m Model) renderFooter(w int) string {
	sep := separatorStyle.Render(strings.Repeat("━", w))
	status := " " + helpStyle.Render("? help")
	if m.status != "" {
		status = " " + statusStyle.Render(m.status) + "  " + helpStyle.Render("? help")
	}
	return sep + "\n" + fitAnsiWidth(status, w)
}

func padToSize(content string, w, h int) string {
	lines := strings.Split(content, "\n")
	for len(lines) < h {
		lines = append(lines, "")
	}
	if len(lines) > h {
		lines = lines[:h]
	}
	return strings.Join(lines, "\n")
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
