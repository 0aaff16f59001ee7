package records

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/asthmatracker/asthmaviz/internal/core"
)

const unknownMedicine = "Неизвестно"

// AttackSeries turns attacks into severity points captioned in loc.
func AttackSeries(attacks []Attack, loc *time.Location) []core.TimeSeriesPoint {
	return lo.Map(attacks, func(a Attack, _ int) core.TimeSeriesPoint {
		return point(a.At, loc, float64(a.Scale))
	})
}

// PeakFlowSeries turns readings into l/min points captioned in loc.
func PeakFlowSeries(readings []PeakFlow, loc *time.Location) []core.TimeSeriesPoint {
	return lo.Map(readings, func(pf PeakFlow, _ int) core.TimeSeriesPoint {
		return point(pf.At, loc, pf.Result)
	})
}

func point(at time.Time, loc *time.Location, v float64) core.TimeSeriesPoint {
	t := at.In(loc)
	return core.TimeSeriesPoint{
		Label:     core.ShortDate(t),
		LabelFull: core.FullDateTime(t),
		Value:     v,
	}
}

func medicineTitle(in Intake) string {
	if in.Medicine == "" {
		return unknownMedicine
	}
	return in.Medicine
}

func formatMkg(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func medicineKey(in Intake) string {
	return medicineTitle(in) + "|" + formatMkg(in.Mkg)
}

// MedicineRows groups intakes by medicine and dose into heatmap rows aligned
// with dates. Rows are ordered by Russian collation of their titles; clock
// times within a day are ascending. Intakes on days outside dates are dropped.
func MedicineRows(intakes []Intake, dates []core.DateColumn, loc *time.Location) []core.HeatmapRow {
	groups := lo.GroupBy(intakes, medicineKey)
	keys := lo.Keys(groups)

	coll := collate.New(language.Russian)
	titles := lo.MapValues(groups, func(items []Intake, _ string) string { return medicineTitle(items[0]) })
	slices.SortFunc(keys, func(a, b string) int {
		if c := coll.CompareString(titles[a], titles[b]); c != 0 {
			return c
		}
		return coll.CompareString(a, b)
	})

	return lo.Map(keys, func(key string, _ int) core.HeatmapRow {
		items := groups[key]
		daily := make(map[string][]string)
		for _, in := range items {
			t := in.At.In(loc)
			day := core.ISODate(t)
			daily[day] = append(daily[day], core.ClockTime(t))
		}

		row := core.HeatmapRow{Key: key, Title: medicineTitle(items[0])}
		if mkg := formatMkg(items[0].Mkg); mkg != "" {
			row.Sub = fmt.Sprintf("%s мкг", mkg)
		}
		row.Data = lo.Map(dates, func(d core.DateColumn, _ int) core.HeatmapCell {
			times := slices.Clone(daily[d.ISO])
			slices.Sort(times)
			if times == nil {
				times = []string{}
			}
			return core.HeatmapCell{Date: d.Label, DateFull: d.LabelFull, Count: len(times), Times: times}
		})
		return row
	})
}
