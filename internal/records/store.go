// Package records persists patients and their diary entries (attacks,
// peak-flow readings, medicine intakes) in sqlite and shapes them into chart
// inputs.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/asthmatracker/asthmaviz/internal/core"
)

var (
	ErrPatientNotFound = errors.New("records: patient not found")
	ErrInvalidRecord   = errors.New("records: invalid record")
)

// Fixed-width UTC timestamps so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Attack struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	At        time.Time `json:"date_time"`
	Scale     int       `json:"scale"`
}

type PeakFlow struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	At        time.Time `json:"date_time"`
	Result    float64   `json:"result"` // l/min
}

type Intake struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	At        time.Time `json:"date_time"`
	Medicine  string    `json:"medicine_name"`
	Mkg       *float64  `json:"mkg,omitempty"`
}

type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("records: creating DB dir: %w", err)
	}

	// _foreign_keys applies the pragma to every pooled connection.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("records: opening DB: %w", err)
	}
	if err := configureSQLiteConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("records: configuring DB: %w", err)
	}

	store := NewStore(db)
	if err := store.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now, newID: uuid.NewString}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS patients (
			patient_id TEXT PRIMARY KEY,
			oms TEXT NOT NULL UNIQUE,
			name TEXT,
			sex TEXT,
			birthday TEXT,
			height_cm REAL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attacks (
			attack_id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			scale INTEGER NOT NULL,
			FOREIGN KEY(patient_id) REFERENCES patients(patient_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attacks_patient_time ON attacks(patient_id, occurred_at);`,
		`CREATE TABLE IF NOT EXISTS peak_flows (
			peak_flow_id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			result REAL NOT NULL,
			FOREIGN KEY(patient_id) REFERENCES patients(patient_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_peak_flows_patient_time ON peak_flows(patient_id, occurred_at);`,
		`CREATE TABLE IF NOT EXISTS medicine_intakes (
			intake_id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			medicine_name TEXT,
			mkg REAL,
			FOREIGN KEY(patient_id) REFERENCES patients(patient_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_medicine_intakes_patient_time ON medicine_intakes(patient_id, occurred_at);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("records: init schema: %w", err)
		}
	}
	return nil
}

// UpsertPatient inserts the patient or updates the one with the same OMS
// number. The stored patient, with its ID, is returned.
func (s *Store) UpsertPatient(ctx context.Context, p core.Patient) (core.Patient, error) {
	p.OMS = strings.TrimSpace(p.OMS)
	if p.OMS == "" {
		return core.Patient{}, fmt.Errorf("%w: empty OMS number", ErrInvalidRecord)
	}

	existing, err := s.PatientByOMS(ctx, p.OMS)
	switch {
	case err == nil:
		p.ID = existing.ID
	case errors.Is(err, ErrPatientNotFound):
		p.ID = s.newID()
	default:
		return core.Patient{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patients (patient_id, oms, name, sex, birthday, height_cm, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(oms) DO UPDATE SET
			name = excluded.name,
			sex = excluded.sex,
			birthday = excluded.birthday,
			height_cm = excluded.height_cm,
			updated_at = excluded.updated_at
	`, p.ID, p.OMS, p.Name, p.Sex, p.Birthday, p.Height, formatTime(s.now()))
	if err != nil {
		return core.Patient{}, fmt.Errorf("records: upsert patient: %w", err)
	}
	return p, nil
}

func (s *Store) PatientByOMS(ctx context.Context, oms string) (core.Patient, error) {
	var (
		p                   core.Patient
		name, sex, birthday sql.NullString
		height              sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT patient_id, oms, name, sex, birthday, height_cm
		FROM patients WHERE oms = ?
	`, strings.TrimSpace(oms)).Scan(&p.ID, &p.OMS, &name, &sex, &birthday, &height)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Patient{}, fmt.Errorf("%w: oms %q", ErrPatientNotFound, oms)
	}
	if err != nil {
		return core.Patient{}, fmt.Errorf("records: query patient: %w", err)
	}
	p.Name, p.Sex, p.Birthday, p.Height = name.String, sex.String, birthday.String, height.Float64
	return p, nil
}

func (s *Store) AddAttack(ctx context.Context, a Attack) (Attack, error) {
	if a.Scale < 1 || a.Scale > 5 {
		return Attack{}, fmt.Errorf("%w: attack scale %d outside 1..5", ErrInvalidRecord, a.Scale)
	}
	a.ID = s.newID()
	a.At = s.stamp(a.At)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attacks (attack_id, patient_id, occurred_at, scale) VALUES (?, ?, ?, ?)`,
		a.ID, a.PatientID, formatTime(a.At), a.Scale)
	if err != nil {
		return Attack{}, fmt.Errorf("records: insert attack: %w", err)
	}
	return a, nil
}

func (s *Store) AddPeakFlow(ctx context.Context, pf PeakFlow) (PeakFlow, error) {
	if math.IsNaN(pf.Result) || math.IsInf(pf.Result, 0) || pf.Result <= 0 {
		return PeakFlow{}, fmt.Errorf("%w: peak flow %v", ErrInvalidRecord, pf.Result)
	}
	pf.ID = s.newID()
	pf.At = s.stamp(pf.At)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO peak_flows (peak_flow_id, patient_id, occurred_at, result) VALUES (?, ?, ?, ?)`,
		pf.ID, pf.PatientID, formatTime(pf.At), pf.Result)
	if err != nil {
		return PeakFlow{}, fmt.Errorf("records: insert peak flow: %w", err)
	}
	return pf, nil
}

func (s *Store) AddIntake(ctx context.Context, in Intake) (Intake, error) {
	in.ID = s.newID()
	in.At = s.stamp(in.At)
	in.Medicine = strings.TrimSpace(in.Medicine)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO medicine_intakes (intake_id, patient_id, occurred_at, medicine_name, mkg) VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.PatientID, formatTime(in.At), nullString(in.Medicine), nullFloat(in.Mkg))
	if err != nil {
		return Intake{}, fmt.Errorf("records: insert intake: %w", err)
	}
	return in, nil
}

// Attacks lists a patient's attacks with from <= time <= to, oldest first.
func (s *Store) Attacks(ctx context.Context, patientID string, from, to time.Time) ([]Attack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT attack_id, patient_id, occurred_at, scale FROM attacks
		WHERE patient_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at, attack_id
	`, patientID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("records: query attacks: %w", err)
	}
	defer rows.Close()

	var out []Attack
	for rows.Next() {
		var (
			a  Attack
			at string
		)
		if err := rows.Scan(&a.ID, &a.PatientID, &at, &a.Scale); err != nil {
			return nil, fmt.Errorf("records: scan attack: %w", err)
		}
		if a.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) PeakFlows(ctx context.Context, patientID string, from, to time.Time) ([]PeakFlow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT peak_flow_id, patient_id, occurred_at, result FROM peak_flows
		WHERE patient_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at, peak_flow_id
	`, patientID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("records: query peak flows: %w", err)
	}
	defer rows.Close()

	var out []PeakFlow
	for rows.Next() {
		var (
			pf PeakFlow
			at string
		)
		if err := rows.Scan(&pf.ID, &pf.PatientID, &at, &pf.Result); err != nil {
			return nil, fmt.Errorf("records: scan peak flow: %w", err)
		}
		if pf.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, pf)
	}
	return out, rows.Err()
}

func (s *Store) Intakes(ctx context.Context, patientID string, from, to time.Time) ([]Intake, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intake_id, patient_id, occurred_at, medicine_name, mkg FROM medicine_intakes
		WHERE patient_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at, intake_id
	`, patientID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("records: query intakes: %w", err)
	}
	defer rows.Close()

	var out []Intake
	for rows.Next() {
		var (
			in   Intake
			at   string
			name sql.NullString
			mkg  sql.NullFloat64
		)
		if err := rows.Scan(&in.ID, &in.PatientID, &at, &name, &mkg); err != nil {
			return nil, fmt.Errorf("records: scan intake: %w", err)
		}
		if in.At, err = parseTime(at); err != nil {
			return nil, err
		}
		in.Medicine = name.String
		if mkg.Valid {
			v := mkg.Float64
			in.Mkg = &v
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// stamp defaults a zero time to now.
func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("records: parse time %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
