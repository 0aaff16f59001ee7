package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/norms"
	"github.com/asthmatracker/asthmaviz/internal/records"
)

var fixedNow = time.Date(2025, time.May, 14, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	store, err := records.OpenStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	p, err := store.UpsertPatient(ctx, core.Patient{OMS: "5005", Sex: "муж", Birthday: "1995-01-10", Height: 175})
	if err != nil {
		t.Fatalf("UpsertPatient: %v", err)
	}
	for i, v := range []int{2, 4, 3} {
		at := fixedNow.AddDate(0, 0, -i-1)
		if _, err := store.AddAttack(ctx, records.Attack{PatientID: p.ID, At: at, Scale: v}); err != nil {
			t.Fatalf("AddAttack: %v", err)
		}
		if _, err := store.AddPeakFlow(ctx, records.PeakFlow{PatientID: p.ID, At: at, Result: float64(400 + 10*i)}); err != nil {
			t.Fatalf("AddPeakFlow: %v", err)
		}
	}
	if _, err := store.AddIntake(ctx, records.Intake{PatientID: p.ID, At: fixedNow.Add(-time.Hour), Medicine: "Сальбутамол"}); err != nil {
		t.Fatalf("AddIntake: %v", err)
	}

	table, err := norms.Bundled()
	if err != nil {
		t.Fatalf("Bundled: %v", err)
	}
	s, err := New(Params{Store: store, Norms: table, Windows: records.DefaultWindows(), CacheSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.now = func() time.Time { return fixedNow }
	return s
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if got := rec.Header().Get("Server"); !strings.HasPrefix(got, "asthmaviz/") {
		t.Errorf("Server header = %q", got)
	}
}

func TestZones(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"by age", "sex=m&age=30&height=175", http.StatusOK},
		{"by birthday", "sex=male&birthday=1995-01-10&height=175", http.StatusOK},
		{"unknown sex", "sex=x&age=30&height=175", http.StatusNotFound},
		{"bad birthday", "sex=m&birthday=soon&height=175", http.StatusNotFound},
		{"bad height", "sex=m&age=30&height=tall", http.StatusBadRequest},
		{"bad age", "sex=m&age=old&height=175", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodGet, "/api/zones?"+tt.query, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var z core.ZoneSet
			if err := json.Unmarshal(rec.Body.Bytes(), &z); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !z.Valid() || z.Norm <= 0 {
				t.Errorf("zones = %+v", z)
			}
		})
	}
}

func TestRenderDocument_Caches(t *testing.T) {
	s := newTestServer(t)
	body := `{"kind":"attacks","points":[{"label":"01-05","value":3}]}`

	first := do(s, http.MethodPost, "/api/render", body)
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", first.Code, first.Body.String())
	}
	if ct := first.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/svg+xml") {
		t.Errorf("content type = %q", ct)
	}
	if first.Header().Get("X-Cache") != "miss" {
		t.Errorf("first X-Cache = %q, want miss", first.Header().Get("X-Cache"))
	}

	second := do(s, http.MethodPost, "/api/render", body)
	if second.Header().Get("X-Cache") != "hit" {
		t.Errorf("second X-Cache = %q, want hit", second.Header().Get("X-Cache"))
	}
	if second.Body.String() != first.Body.String() {
		t.Error("cached body differs")
	}

	if rec := do(s, http.MethodPost, "/api/render", `{"kind":"pie"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", rec.Code)
	}
	if rec := do(s, http.MethodPost, "/api/render", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestPatientCharts(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		target string
		status int
		want   string
	}{
		{"/api/patients/5005/charts/attacks.svg", http.StatusOK, `class="attacks-svg"`},
		{"/api/patients/5005/charts/pef.svg?width=412", http.StatusOK, `class="zone-green"`},
		{"/api/patients/5005/charts/medicine.svg", http.StatusOK, "Сальбутамол"},
		{"/api/patients/5005/charts/pie.svg", http.StatusNotFound, ""},
		{"/api/patients/5005/charts/attacks", http.StatusNotFound, ""},
		{"/api/patients/5005/charts/pef.svg?width=-1", http.StatusBadRequest, ""},
		{"/api/patients/0000/charts/attacks.svg", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(s, http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.want != "" && !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
		})
	}
}

func TestPatientChart_MobileWidth(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/patients/5005/charts/attacks.svg?width=412", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `width="412"`) {
		t.Errorf("mobile chart should track the container width")
	}
}

func TestSnapshotJSON(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/patients/5005", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap records.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Attacks) != 3 || len(snap.PeakFlows) != 3 || snap.Zones == nil || len(snap.MedicineRows) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestWithoutStore(t *testing.T) {
	s, err := New(Params{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rec := do(s, http.MethodGet, "/api/patients/1", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/api/zones?sex=m&age=30&height=175", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
