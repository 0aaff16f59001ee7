// Package chart lays out and renders a single time-ordered series as a line
// chart. Two variants exist: the fixed 1..5 attack severity scale and the
// auto-scaled peak-flow series with optional red/yellow/green zone bands.
package chart

import "github.com/asthmatracker/asthmaviz/internal/geom"

type Variant int

const (
	Severity Variant = iota
	PeakFlow
)

func (v Variant) String() string {
	switch v {
	case Severity:
		return "attacks"
	case PeakFlow:
		return "pef"
	default:
		return "unknown"
	}
}

const (
	SeverityMin = 1
	SeverityMax = 5

	// headroom reserved above the highest plotted or zone value
	peakFlowHeadroom = 1.15
	yTickTarget      = 5

	pointRadius = 4
)

// Options are the sizing parameters of one chart instance.
type Options struct {
	Height        float64
	MinPxPerPoint float64
	MaxXTicks     int
	YStep         float64 // peak-flow only
	Margins       geom.Margins
}

func SeverityOptions() Options {
	return Options{
		Height:        250,
		MinPxPerPoint: 42,
		MaxXTicks:     8,
		Margins:       geom.Margins{Left: 48, Right: 20, Top: 18, Bottom: 34},
	}
}

func PeakFlowOptions() Options {
	return Options{
		Height:        320,
		MinPxPerPoint: 56,
		MaxXTicks:     8,
		YStep:         25,
		Margins:       geom.Margins{Left: 56, Right: 20, Top: 18, Bottom: 50},
	}
}

// normalize fills zero fields from def so partially specified options from
// config files still produce a drawable chart.
func (o Options) normalize(def Options) Options {
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.MinPxPerPoint <= 0 {
		o.MinPxPerPoint = def.MinPxPerPoint
	}
	if o.MaxXTicks <= 0 {
		o.MaxXTicks = def.MaxXTicks
	}
	if o.YStep <= 0 {
		o.YStep = def.YStep
	}
	if o.Margins == (geom.Margins{}) {
		o.Margins = def.Margins
	}
	return o
}
