// Package norms selects a predicted peak-flow reference row for a patient and
// derives the red/yellow/green zone bands from it.
package norms

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
)

// SupportedMajor is the only reference-table schema major this package reads.
const SupportedMajor = "v1"

var ErrUnsupportedVersion = errors.New("norms: unsupported reference table version")

//go:embed pef_norms.json
var bundledTable []byte

// Row is one reference-table entry. Missing boundaries default to fractions
// of PefPred, see Row.Zones.
type Row struct {
	Sex        string   `json:"sex"`
	AgeYears   float64  `json:"age_years"`
	HeightCm   float64  `json:"height_cm"`
	PefPred    float64  `json:"pef_pred_l_min"`
	RedFrom    *float64 `json:"red_from,omitempty"`
	RedTo      *float64 `json:"red_to,omitempty"`
	YellowFrom *float64 `json:"yellow_from,omitempty"`
	YellowTo   *float64 `json:"yellow_to,omitempty"`
	GreenFrom  *float64 `json:"green_from,omitempty"`
	GreenTo    *float64 `json:"green_to,omitempty"`
}

// Table is read-only once loaded and safe to share between lookups.
type Table struct {
	Version string `json:"version"`
	Source  string `json:"source,omitempty"`
	Rows    []Row  `json:"rows"`
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Load decodes a reference table. Unversioned tables are accepted as legacy
// v1 data; a versioned table must be valid semver with a v1 major.
func Load(r io.Reader) (*Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("norms: decoding table: %w", err)
	}
	if t.Version != "" {
		v := t.Version
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) || semver.Major(v) != SupportedMajor {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, t.Version)
		}
		t.Version = semver.Canonical(v)
	}
	return &t, nil
}

func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("norms: opening table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var bundled = sync.OnceValues(func() (*Table, error) {
	return Load(strings.NewReader(string(bundledTable)))
})

// Bundled returns the reference table shipped with the binary.
func Bundled() (*Table, error) {
	return bundled()
}

// Resolve loads the table at path, or the bundled one when path is empty.
func Resolve(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Bundled()
	}
	return LoadFile(path)
}
