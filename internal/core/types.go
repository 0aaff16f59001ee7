package core

import "math"

// TimeSeriesPoint is one observation on an ordinal x-axis. Position in the
// slice, not the timestamp, determines horizontal spacing.
type TimeSeriesPoint struct {
	Label     string  `json:"label"`      // short axis caption, "02-01"
	LabelFull string  `json:"label_full"` // tooltip caption, "02-01-2006 15:04"
	Value     float64 `json:"value"`
}

// Caption returns the tooltip caption, falling back to the short label.
func (p TimeSeriesPoint) Caption() string {
	if p.LabelFull != "" {
		return p.LabelFull
	}
	return p.Label
}

type Range [2]float64

func (r Range) Finite() bool {
	return isFinite(r[0]) && isFinite(r[1])
}

// ZoneSet holds the clinical peak-flow bands of one patient.
type ZoneSet struct {
	Red    Range   `json:"red"`
	Yellow Range   `json:"yellow"`
	Green  Range   `json:"green"`
	Norm   float64 `json:"norm"`
}

// Valid reports whether every bound and the norm are finite. A zone set that
// is not valid must be treated as absent as a whole.
func (z ZoneSet) Valid() bool {
	return z.Red.Finite() && z.Yellow.Finite() && z.Green.Finite() && isFinite(z.Norm)
}

// Max returns the largest boundary value of the set, including the norm.
func (z ZoneSet) Max() float64 {
	m := z.Norm
	for _, r := range []Range{z.Red, z.Yellow, z.Green} {
		for _, v := range r {
			if v > m {
				m = v
			}
		}
	}
	return m
}

// HeatmapCell counts the intakes of one medicine on one day.
// Count always equals len(Times).
type HeatmapCell struct {
	Date     string   `json:"date"`
	DateFull string   `json:"date_full"`
	Count    int      `json:"count"`
	Times    []string `json:"times"`
}

// HeatmapRow is one medicine across the visible date window. Data is aligned
// positionally with the shared []DateColumn.
type HeatmapRow struct {
	Key   string        `json:"key"`
	Title string        `json:"title"`
	Sub   string        `json:"sub"`
	Data  []HeatmapCell `json:"data"`
}

// DisplayTitle joins title and sub the way tooltips and aria labels show it.
func (r HeatmapRow) DisplayTitle() string {
	if r.Sub == "" {
		return r.Title
	}
	return r.Title + ", " + r.Sub
}

type DateColumn struct {
	Label     string `json:"label"`
	LabelFull string `json:"label_full"`
	ISO       string `json:"iso"` // YYYY-MM-DD, local calendar day
}

type Patient struct {
	ID       string  `json:"id"`
	OMS      string  `json:"oms"`
	Name     string  `json:"name,omitempty"`
	Sex      string  `json:"sex"`
	Birthday string  `json:"birthday"` // ISO date
	Height   float64 `json:"height"`   // cm
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
