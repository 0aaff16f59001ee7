package norms

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/asthmatracker/asthmaviz/internal/core"
)

const (
	SexMale   = "муж"
	SexFemale = "жен"
)

var sexSynonyms = map[string]string{
	"м":       SexMale,
	"муж":     SexMale,
	"мужской": SexMale,
	"male":    SexMale,
	"m":       SexMale,
	"ж":       SexFemale,
	"жен":     SexFemale,
	"женский": SexFemale,
	"female":  SexFemale,
	"f":       SexFemale,
}

// NormSex maps known synonyms to "муж"/"жен". Anything else comes back
// trimmed and lower-cased, and will not match any row.
func NormSex(s string) string {
	x := strings.ToLower(strings.TrimSpace(s))
	if canon, ok := sexSynonyms[x]; ok {
		return canon
	}
	return x
}

// AgeYears counts completed years between birth and now.
func AgeYears(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

var birthLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "02.01.2006"}

func ParseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range birthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Pick selects the best reference row: same sex, then exact or nearest age
// (ties kept), then exact or nearest height. Among rows equally close by
// height the lower height wins, then table order.
func Pick(t *Table, sex string, ageYears int, heightCm float64) (Row, bool) {
	if t.Len() == 0 {
		return Row{}, false
	}

	sx := NormSex(sex)
	candidates := lo.Filter(t.Rows, func(r Row, _ int) bool { return NormSex(r.Sex) == sx })
	if len(candidates) == 0 {
		return Row{}, false
	}

	age := float64(ageYears)
	ageMatches := lo.Filter(candidates, func(r Row, _ int) bool { return r.AgeYears == age })
	if len(ageMatches) == 0 {
		minDiff := math.Inf(1)
		for _, r := range candidates {
			minDiff = math.Min(minDiff, math.Abs(r.AgeYears-age))
		}
		ageMatches = lo.Filter(candidates, func(r Row, _ int) bool { return math.Abs(r.AgeYears-age) == minDiff })
	}

	for _, r := range ageMatches {
		if r.HeightCm == heightCm {
			return r, true
		}
	}

	sort.SliceStable(ageMatches, func(i, j int) bool {
		di := math.Abs(ageMatches[i].HeightCm - heightCm)
		dj := math.Abs(ageMatches[j].HeightCm - heightCm)
		if di != dj {
			return di < dj
		}
		return ageMatches[i].HeightCm < ageMatches[j].HeightCm
	})
	return ageMatches[0], true
}

// Zones derives the zone set from the row. Missing bounds default to
// 0-0.5, 0.5-0.8 and 0.8-1.0 of the predicted value. The result is absent
// if anything is not finite.
func (r Row) Zones() (core.ZoneSet, bool) {
	pred := r.PefPred
	z := core.ZoneSet{
		Red:    core.Range{orDefault(r.RedFrom, 0), orDefault(r.RedTo, 0.5*pred)},
		Yellow: core.Range{orDefault(r.YellowFrom, 0.5*pred), orDefault(r.YellowTo, 0.8*pred)},
		Green:  core.Range{orDefault(r.GreenFrom, 0.8*pred), orDefault(r.GreenTo, pred)},
		Norm:   pred,
	}
	if !z.Valid() {
		return core.ZoneSet{}, false
	}
	return z, true
}

// ZonesForPatient runs the full lookup for a patient as of now. Malformed
// attributes (empty sex, unparseable birthday, missing height) short-circuit
// to absent before the table is consulted.
func ZonesForPatient(t *Table, p core.Patient, now time.Time) (core.ZoneSet, bool) {
	if strings.TrimSpace(p.Sex) == "" {
		return core.ZoneSet{}, false
	}
	birth, ok := ParseBirthDate(p.Birthday)
	if !ok {
		return core.ZoneSet{}, false
	}
	if math.IsNaN(p.Height) || math.IsInf(p.Height, 0) || p.Height <= 0 {
		return core.ZoneSet{}, false
	}

	row, ok := Pick(t, p.Sex, AgeYears(birth, now), p.Height)
	if !ok {
		return core.ZoneSet{}, false
	}
	return row.Zones()
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
