package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ASTHMAVIZ_THEME_DIR can point to one or more additional theme directories
// (path-list separated, e.g. ":" on unix, ";" on Windows).
const themeDirEnvVar = "ASTHMAVIZ_THEME_DIR"

const defaultThemeName = "Catppuccin Mocha"

// Theme is the token set of the viewer: base tones, the chart line, the three
// peak-flow zones and the four heatmap densities.
//
// External themes are JSON files with matching snake_case fields, for
// example: {"name":"My Theme","base":"#111111",...}.
type Theme struct {
	Name string `json:"name"`

	Base    lipgloss.Color `json:"base"`
	Surface lipgloss.Color `json:"surface"`
	Overlay lipgloss.Color `json:"overlay"`
	Text    lipgloss.Color `json:"text"`
	Subtext lipgloss.Color `json:"subtext"`
	Dim     lipgloss.Color `json:"dim"`
	Accent  lipgloss.Color `json:"accent"`

	Line  lipgloss.Color `json:"line"`
	Point lipgloss.Color `json:"point"`

	ZoneRed    lipgloss.Color `json:"zone_red"`
	ZoneYellow lipgloss.Color `json:"zone_yellow"`
	ZoneGreen  lipgloss.Color `json:"zone_green"`

	HeatZero lipgloss.Color `json:"heat_zero"`
	HeatOne  lipgloss.Color `json:"heat_one"`
	HeatFew  lipgloss.Color `json:"heat_few"`
	HeatMany lipgloss.Color `json:"heat_many"`
}

var (
	themeMu        sync.RWMutex
	themes         []Theme
	activeThemeIdx int
)

func init() {
	themes = builtinThemes()
	activeThemeIdx = defaultThemeIndex(themes)
	applyTheme(themes[activeThemeIdx])
}

func builtinThemes() []Theme {
	return []Theme{
		{
			Name: "Catppuccin Mocha",
			Base: "#1E1E2E", Surface: "#313244", Overlay: "#45475A",
			Text: "#CDD6F4", Subtext: "#A6ADC8", Dim: "#585B70", Accent: "#CBA6F7",
			Line: "#89B4FA", Point: "#B4BEFE",
			ZoneRed: "#F38BA8", ZoneYellow: "#F9E2AF", ZoneGreen: "#A6E3A1",
			HeatZero: "#313244", HeatOne: "#94E2D5", HeatFew: "#74C7EC", HeatMany: "#89B4FA",
		},
		{
			Name: "Gruvbox",
			Base: "#282828", Surface: "#3C3836", Overlay: "#504945",
			Text: "#EBDBB2", Subtext: "#D5C4A1", Dim: "#665C54", Accent: "#D3869B",
			Line: "#83A598", Point: "#EBDBB2",
			ZoneRed: "#FB4934", ZoneYellow: "#FABD2F", ZoneGreen: "#B8BB26",
			HeatZero: "#3C3836", HeatOne: "#8EC07C", HeatFew: "#83A598", HeatMany: "#458588",
		},
		{
			Name: "Nord",
			Base: "#2E3440", Surface: "#3B4252", Overlay: "#434C5E",
			Text: "#ECEFF4", Subtext: "#D8DEE9", Dim: "#4C566A", Accent: "#B48EAD",
			Line: "#88C0D0", Point: "#ECEFF4",
			ZoneRed: "#BF616A", ZoneYellow: "#EBCB8B", ZoneGreen: "#A3BE8C",
			HeatZero: "#3B4252", HeatOne: "#8FBCBB", HeatFew: "#88C0D0", HeatMany: "#5E81AC",
		},
		{
			Name: "Dracula",
			Base: "#282A36", Surface: "#44475A", Overlay: "#6272A4",
			Text: "#F8F8F2", Subtext: "#BFBFBF", Dim: "#6272A4", Accent: "#BD93F9",
			Line: "#8BE9FD", Point: "#FF79C6",
			ZoneRed: "#FF5555", ZoneYellow: "#F1FA8C", ZoneGreen: "#50FA7B",
			HeatZero: "#44475A", HeatOne: "#8BE9FD", HeatFew: "#BD93F9", HeatMany: "#FF79C6",
		},
		{
			Name: "Grayscale",
			Base: "#000000", Surface: "#181818", Overlay: "#2A2A2A",
			Text: "#F5F5F5", Subtext: "#D6D6D6", Dim: "#A8A8A8", Accent: "#FFFFFF",
			Line: "#E8E8E8", Point: "#FFFFFF",
			ZoneRed: "#6E6E6E", ZoneYellow: "#9E9E9E", ZoneGreen: "#CECECE",
			HeatZero: "#181818", HeatOne: "#5A5A5A", HeatFew: "#9A9A9A", HeatMany: "#DADADA",
		},
	}
}

func defaultThemeIndex(all []Theme) int {
	for i, t := range all {
		if strings.EqualFold(strings.TrimSpace(t.Name), defaultThemeName) {
			return i
		}
	}
	return 0
}

func normalizeTheme(in Theme) Theme {
	in.Name = strings.TrimSpace(in.Name)
	for _, c := range in.colors() {
		*c.ptr = lipgloss.Color(strings.TrimSpace(string(*c.ptr)))
	}
	return in
}

type themeColor struct {
	name string
	ptr  *lipgloss.Color
}

func (t *Theme) colors() []themeColor {
	return []themeColor{
		{"base", &t.Base}, {"surface", &t.Surface}, {"overlay", &t.Overlay},
		{"text", &t.Text}, {"subtext", &t.Subtext}, {"dim", &t.Dim}, {"accent", &t.Accent},
		{"line", &t.Line}, {"point", &t.Point},
		{"zone_red", &t.ZoneRed}, {"zone_yellow", &t.ZoneYellow}, {"zone_green", &t.ZoneGreen},
		{"heat_zero", &t.HeatZero}, {"heat_one", &t.HeatOne}, {"heat_few", &t.HeatFew}, {"heat_many", &t.HeatMany},
	}
}

func (t Theme) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("missing required field: name")
	}
	var missing []string
	for _, c := range t.colors() {
		if strings.TrimSpace(string(*c.ptr)) == "" {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required color fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func themeSearchDirs(configDir string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		path = strings.TrimSpace(path)
		if path == "" {
			return
		}
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}

	if strings.TrimSpace(configDir) != "" {
		add(filepath.Join(configDir, "themes"))
	}
	if env := strings.TrimSpace(os.Getenv(themeDirEnvVar)); env != "" {
		for _, part := range strings.Split(env, string(os.PathListSeparator)) {
			add(part)
		}
	}
	return out
}

func loadThemesFromDir(dir string) ([]Theme, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read theme dir %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	var (
		loaded []Theme
		errs   []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		var t Theme
		if err := json.Unmarshal(data, &t); err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", path, err))
			continue
		}
		t = normalizeTheme(t)
		if err := t.validate(); err != nil {
			errs = append(errs, fmt.Errorf("validate %s: %w", path, err))
			continue
		}
		loaded = append(loaded, t)
	}
	return loaded, errors.Join(errs...)
}

// mergeThemes appends extra to base; an extra theme with a known name
// replaces the built-in one in place.
func mergeThemes(base, extra []Theme) []Theme {
	merged := append([]Theme(nil), base...)
	indexByName := make(map[string]int, len(merged))
	for i, t := range merged {
		indexByName[strings.ToLower(t.Name)] = i
	}
	for _, t := range extra {
		k := strings.ToLower(t.Name)
		if i, ok := indexByName[k]; ok {
			merged[i] = t
			continue
		}
		indexByName[k] = len(merged)
		merged = append(merged, t)
	}
	return merged
}

func setActiveThemeByNameLocked(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for i, t := range themes {
		if strings.EqualFold(t.Name, name) {
			activeThemeIdx = i
			applyTheme(t)
			return true
		}
	}
	return false
}

// LoadThemes reloads the catalog from built-ins plus <configDir>/themes and
// every directory in ASTHMAVIZ_THEME_DIR. Invalid files are skipped and
// reported in the returned error; valid themes stay available.
func LoadThemes(configDir string) error {
	themeMu.Lock()
	defer themeMu.Unlock()

	current := themes[activeThemeIdx].Name
	next := builtinThemes()
	var errs []error
	for _, dir := range themeSearchDirs(configDir) {
		loaded, err := loadThemesFromDir(dir)
		if err != nil {
			errs = append(errs, err)
		}
		next = mergeThemes(next, loaded)
	}

	themes = next
	if !setActiveThemeByNameLocked(current) {
		activeThemeIdx = defaultThemeIndex(themes)
		applyTheme(themes[activeThemeIdx])
	}
	return errors.Join(errs...)
}

func AvailableThemes() []Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return append([]Theme(nil), themes...)
}

func ActiveTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return themes[activeThemeIdx]
}

// CycleTheme activates the next theme and returns its name.
func CycleTheme() string {
	themeMu.Lock()
	defer themeMu.Unlock()
	activeThemeIdx = (activeThemeIdx + 1) % len(themes)
	applyTheme(themes[activeThemeIdx])
	return themes[activeThemeIdx].Name
}

func SetThemeByName(name string) bool {
	themeMu.Lock()
	defer themeMu.Unlock()
	return setActiveThemeByNameLocked(name)
}
