package records

import (
	"context"
	"time"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/norms"
)

// Windows are the trailing day counts loaded for one patient view.
type Windows struct {
	ChartDays    int `json:"chart_days"`
	MedicineDays int `json:"medicine_days"`
}

func DefaultWindows() Windows {
	return Windows{ChartDays: 14, MedicineDays: 7}
}

// Snapshot is everything the patient view renders, already shaped.
type Snapshot struct {
	Patient       core.Patient           `json:"patient"`
	Attacks       []core.TimeSeriesPoint `json:"attacks"`
	PeakFlows     []core.TimeSeriesPoint `json:"peak_flows"`
	Zones         *core.ZoneSet          `json:"zones,omitempty"`
	MedicineRows  []core.HeatmapRow      `json:"medicine_rows"`
	MedicineDates []core.DateColumn      `json:"medicine_dates"`
}

// Snapshot loads and shapes the data for the patient with the given OMS
// number as of now. Zones are nil when the reference table has no match.
func (s *Store) Snapshot(ctx context.Context, oms string, now time.Time, w Windows, table *norms.Table) (Snapshot, error) {
	p, err := s.PatientByOMS(ctx, oms)
	if err != nil {
		return Snapshot{}, err
	}
	if w.ChartDays < 1 {
		w.ChartDays = DefaultWindows().ChartDays
	}
	if w.MedicineDays < 1 {
		w.MedicineDays = DefaultWindows().MedicineDays
	}
	loc := now.Location()

	chartFrom, chartTo := core.DayRange(now, w.ChartDays)
	attacks, err := s.Attacks(ctx, p.ID, chartFrom, chartTo)
	if err != nil {
		return Snapshot{}, err
	}
	readings, err := s.PeakFlows(ctx, p.ID, chartFrom, chartTo)
	if err != nil {
		return Snapshot{}, err
	}

	medFrom, medTo := core.DayRange(now, w.MedicineDays)
	intakes, err := s.Intakes(ctx, p.ID, medFrom, medTo)
	if err != nil {
		return Snapshot{}, err
	}
	dates := core.LastNDates(now, w.MedicineDays)

	snap := Snapshot{
		Patient:       p,
		Attacks:       AttackSeries(attacks, loc),
		PeakFlows:     PeakFlowSeries(readings, loc),
		MedicineRows:  MedicineRows(intakes, dates, loc),
		MedicineDates: dates,
	}
	if z, ok := norms.ZonesForPatient(table, p, now); ok {
		snap.Zones = &z
	}
	return snap, nil
}
