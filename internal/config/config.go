package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/kelseyhightower/envconfig"

	"github.com/asthmatracker/asthmaviz/internal/chart"
	"github.com/asthmatracker/asthmaviz/internal/heatmap"
	"github.com/asthmatracker/asthmaviz/internal/records"
)

// EnvPrefix namespaces environment overrides, e.g. ASTHMAVIZ_DB_PATH.
const EnvPrefix = "asthmaviz"

type ChartConfig struct {
	Height        float64 `json:"height"`
	MinPxPerPoint float64 `json:"min_px_per_point"`
	MaxXTicks     int     `json:"max_x_ticks"`
	YStep         float64 `json:"y_step,omitempty"`
}

type HeatmapConfig struct {
	Height        float64 `json:"height"`
	CellMinWidth  float64 `json:"cell_min_width"`
	BottomSafe    float64 `json:"bottom_safe"`
	SafeAreaInset float64 `json:"safe_area_inset"`
}

type WindowConfig struct {
	ChartDays    int `json:"chart_days"`
	MedicineDays int `json:"medicine_days"`
}

type Config struct {
	AttacksChart  ChartConfig   `json:"attacks_chart"`
	PeakFlowChart ChartConfig   `json:"pef_chart"`
	Heatmap       HeatmapConfig `json:"heatmap"`
	WindowDays    WindowConfig  `json:"window_days"`
	DBPath        string        `json:"db_path"`
	NormsPath     string        `json:"norms_path,omitempty"`
	ListenAddr    string        `json:"listen_addr"`
	Theme         string        `json:"theme"`
	Debug         bool          `json:"debug"`
}

// Env holds the overrides read from ASTHMAVIZ_* variables. Unset variables
// leave the file value alone.
type Env struct {
	DBPath     string `envconfig:"DB_PATH"`
	NormsPath  string `envconfig:"NORMS_PATH"`
	ListenAddr string `envconfig:"LISTEN_ADDR"`
	Theme      string `envconfig:"THEME"`
	Debug      *bool  `envconfig:"DEBUG"`
}

func DefaultConfig() Config {
	attacks, pef, hm := chart.SeverityOptions(), chart.PeakFlowOptions(), heatmap.DefaultOptions()
	w := records.DefaultWindows()
	return Config{
		AttacksChart: ChartConfig{
			Height:        attacks.Height,
			MinPxPerPoint: attacks.MinPxPerPoint,
			MaxXTicks:     attacks.MaxXTicks,
		},
		PeakFlowChart: ChartConfig{
			Height:        pef.Height,
			MinPxPerPoint: pef.MinPxPerPoint,
			MaxXTicks:     pef.MaxXTicks,
			YStep:         pef.YStep,
		},
		Heatmap: HeatmapConfig{
			Height:       hm.Height,
			CellMinWidth: hm.CellMinWidth,
			BottomSafe:   hm.BottomSafe,
		},
		WindowDays: WindowConfig{ChartDays: w.ChartDays, MedicineDays: w.MedicineDays},
		DBPath:     filepath.Join(ConfigDir(), "records.db"),
		ListenAddr: "127.0.0.1:8087",
		Theme:      "Catppuccin Mocha",
	}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "asthmaviz")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "asthmaviz")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

// Load reads the settings file and applies environment overrides.
func Load() (Config, error) {
	cfg, err := LoadFrom(ConfigPath())
	if err != nil {
		return cfg, err
	}
	return ApplyEnv(cfg)
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	def := DefaultConfig()
	clampChart(&c.AttacksChart, def.AttacksChart)
	clampChart(&c.PeakFlowChart, def.PeakFlowChart)

	if c.Heatmap.Height <= 0 {
		c.Heatmap.Height = def.Heatmap.Height
	}
	if c.Heatmap.CellMinWidth <= 0 {
		c.Heatmap.CellMinWidth = def.Heatmap.CellMinWidth
	}
	if c.Heatmap.BottomSafe < 0 {
		c.Heatmap.BottomSafe = 0
	}
	if c.Heatmap.SafeAreaInset < 0 {
		c.Heatmap.SafeAreaInset = 0
	}
	if c.WindowDays.ChartDays <= 0 {
		c.WindowDays.ChartDays = def.WindowDays.ChartDays
	}
	if c.WindowDays.MedicineDays <= 0 {
		c.WindowDays.MedicineDays = def.WindowDays.MedicineDays
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.Theme == "" {
		c.Theme = def.Theme
	}
}

func clampChart(c *ChartConfig, def ChartConfig) {
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.MinPxPerPoint <= 0 {
		c.MinPxPerPoint = def.MinPxPerPoint
	}
	if c.MaxXTicks <= 0 {
		c.MaxXTicks = def.MaxXTicks
	}
	if c.YStep < 0 {
		c.YStep = def.YStep
	}
}

// ApplyEnv overlays ASTHMAVIZ_* variables onto cfg.
func ApplyEnv(cfg Config) (Config, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	if env.DBPath != "" {
		cfg.DBPath = env.DBPath
	}
	if env.NormsPath != "" {
		cfg.NormsPath = env.NormsPath
	}
	if env.ListenAddr != "" {
		cfg.ListenAddr = env.ListenAddr
	}
	if env.Theme != "" {
		cfg.Theme = env.Theme
	}
	if env.Debug != nil {
		cfg.Debug = *env.Debug
	}
	return cfg, nil
}

func (c Config) AttackOptions() chart.Options {
	opts := chart.SeverityOptions()
	opts.Height = c.AttacksChart.Height
	opts.MinPxPerPoint = c.AttacksChart.MinPxPerPoint
	opts.MaxXTicks = c.AttacksChart.MaxXTicks
	return opts
}

func (c Config) PeakFlowOptions() chart.Options {
	opts := chart.PeakFlowOptions()
	opts.Height = c.PeakFlowChart.Height
	opts.MinPxPerPoint = c.PeakFlowChart.MinPxPerPoint
	opts.MaxXTicks = c.PeakFlowChart.MaxXTicks
	if c.PeakFlowChart.YStep > 0 {
		opts.YStep = c.PeakFlowChart.YStep
	}
	return opts
}

func (c Config) HeatmapOptions() heatmap.Options {
	return heatmap.Options{
		Height:        c.Heatmap.Height,
		CellMinWidth:  c.Heatmap.CellMinWidth,
		BottomSafe:    c.Heatmap.BottomSafe,
		SafeAreaInset: c.Heatmap.SafeAreaInset,
	}
}

func (c Config) Windows() records.Windows {
	return records.Windows{ChartDays: c.WindowDays.ChartDays, MedicineDays: c.WindowDays.MedicineDays}
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveTheme persists a theme name into the config file (read-modify-write).
func SaveTheme(theme string) error {
	return SaveThemeTo(ConfigPath(), theme)
}

func SaveThemeTo(path string, theme string) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.Theme = theme
	return SaveTo(path, cfg)
}
