package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/heatmap"
	"github.com/asthmatracker/asthmaviz/internal/records"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"attacks": KindAttacks, " PEF ": KindPeakFlow, "medicine": KindMedicine} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseKind("pie"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"kind":"pef","width":412,"points":[{"label":"01-05","value":400}],
		"zones":{"red":[0,300],"yellow":[300,480],"green":[480,600],"norm":600}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Kind != KindPeakFlow || doc.Width != 412 || len(doc.Points) != 1 || doc.Zones == nil || doc.Zones.Norm != 600 {
		t.Fatalf("doc = %+v", doc)
	}

	if _, err := Decode(strings.NewReader(`{"kind":"bar"}`)); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
	if _, err := Decode(strings.NewReader(`{`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestRender_Kinds(t *testing.T) {
	points := []core.TimeSeriesPoint{{Label: "01-05", Value: 2}, {Label: "02-05", Value: 4}}

	tests := []struct {
		name string
		doc  Document
		want []string
	}{
		{
			name: "attacks",
			doc:  Document{Kind: KindAttacks, Points: points},
			want: []string{`class="attacks-svg"`, "График приступов"},
		},
		{
			name: "pef with zones",
			doc: Document{Kind: KindPeakFlow, Points: points, Zones: &core.ZoneSet{
				Red: core.Range{0, 300}, Yellow: core.Range{300, 480}, Green: core.Range{480, 600}, Norm: 600,
			}},
			want: []string{`class="pef-svg"`, `class="zone-red"`, "Норма"},
		},
		{
			name: "medicine",
			doc: Document{
				Kind:  KindMedicine,
				Rows:  []core.HeatmapRow{{Key: "a|", Title: "Будесонид", Data: []core.HeatmapCell{{Date: "01-05", Count: 1, Times: []string{"08:00"}}}}},
				Dates: []core.DateColumn{{Label: "01-05", LabelFull: "01-05-2025", ISO: "2025-05-01"}},
			},
			want: []string{"med-heat-wrap", "med-cell"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			if err := Render(tt.doc, &b); err != nil {
				t.Fatalf("Render: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(b.String(), w) {
					t.Errorf("output missing %q", w)
				}
			}
		})
	}

	if err := Render(Document{Kind: "bar"}, &strings.Builder{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestRender_HoverAndPin(t *testing.T) {
	x := 0.0
	doc := Document{Kind: KindAttacks, Points: []core.TimeSeriesPoint{{Label: "01-05", Value: 3}}, HoverX: &x}
	var b strings.Builder
	if err := Render(doc, &b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(b.String(), `class="tooltip"`) {
		t.Error("hovered chart should render its tooltip")
	}

	r := New(DefaultOptions(), nil)
	h := r.Heatmap(Document{
		Kind:  KindMedicine,
		Rows:  []core.HeatmapRow{{Key: "a|", Title: "A", Data: []core.HeatmapCell{{Count: 0, Times: []string{}}}}},
		Dates: []core.DateColumn{{Label: "01-05"}},
		Pin:   &Pin{Row: 0, Col: 0},
	})
	if !h.Pinned() {
		t.Error("pin should pin the heatmap tooltip")
	}
}

func medicineDoc(rows int, pin Pin) Document {
	dates := []core.DateColumn{{Label: "01-05"}, {Label: "02-05"}, {Label: "03-05"}, {Label: "04-05"}, {Label: "05-05"}}
	doc := Document{Kind: KindMedicine, Dates: dates, Pin: &pin}
	for i := 0; i < rows; i++ {
		cells := make([]core.HeatmapCell, len(dates))
		for j := range cells {
			cells[j] = core.HeatmapCell{Count: 1, Times: []string{"08:00"}}
		}
		doc.Rows = append(doc.Rows, core.HeatmapRow{Key: fmt.Sprintf("m%d|", i), Title: fmt.Sprintf("M%d", i), Data: cells})
	}
	return doc
}

func TestRender_PinnedTooltipStaysInsideGrid(t *testing.T) {
	tests := []struct {
		name string
		rows int
		pin  Pin
	}{
		{"tall grid", 20, Pin{Row: 18, Col: 3}},
		{"short grid", 4, Pin{Row: 3, Col: 3}},
		{"top row", 20, Pin{Row: 0, Col: 0}},
	}
	r := New(DefaultOptions(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := r.Heatmap(medicineDoc(tt.rows, tt.pin))
			tip, ok := h.Tooltip()
			if !ok || !h.Pinned() {
				t.Fatal("pin should show a pinned tooltip")
			}
			l := h.Layout()
			size := heatmap.DefaultTooltipSize
			if tip.Pos.Y < 0 || tip.Pos.Y+size.Height > l.Height {
				t.Fatalf("tooltip y = [%v,%v], outside svg height %v", tip.Pos.Y, tip.Pos.Y+size.Height, l.Height)
			}
			if tip.Pos.X < 0 || tip.Pos.X+size.Width > l.Width {
				t.Fatalf("tooltip x = [%v,%v], outside svg width %v", tip.Pos.X, tip.Pos.X+size.Width, l.Width)
			}

			cell := l.CellRect(tt.pin.Row, tt.pin.Col)
			above := cell.Top() - (tip.Pos.Y + size.Height)
			below := tip.Pos.Y - cell.Bottom()
			if above < 0 && below < 0 {
				t.Fatalf("tooltip y = %v overlaps cell [%v,%v]", tip.Pos.Y, cell.Top(), cell.Bottom())
			}
			if gap := max(above, below); gap > 16 {
				t.Fatalf("tooltip is %vpx away from its cell", gap)
			}
		})
	}
}

func TestFromSnapshot(t *testing.T) {
	snap := records.Snapshot{
		Attacks:       []core.TimeSeriesPoint{{Value: 1}},
		PeakFlows:     []core.TimeSeriesPoint{{Value: 300}, {Value: 320}},
		Zones:         &core.ZoneSet{Norm: 500},
		MedicineRows:  []core.HeatmapRow{{Key: "x|"}},
		MedicineDates: []core.DateColumn{{ISO: "2025-05-01"}},
	}
	if d := FromSnapshot(snap, KindAttacks, 400); len(d.Points) != 1 || d.Zones != nil || d.Width != 400 {
		t.Errorf("attacks doc = %+v", d)
	}
	if d := FromSnapshot(snap, KindPeakFlow, 0); len(d.Points) != 2 || d.Zones == nil {
		t.Errorf("pef doc = %+v", d)
	}
	if d := FromSnapshot(snap, KindMedicine, 0); len(d.Rows) != 1 || len(d.Dates) != 1 || d.Points != nil {
		t.Errorf("medicine doc = %+v", d)
	}
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "attacks.json")
	out := filepath.Join(dir, "out", "attacks.svg")
	if err := os.WriteFile(in, []byte(`{"kind":"attacks","points":[{"label":"01-05","value":5}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := New(DefaultOptions(), nil).RenderFile(in, out); err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") {
		t.Errorf("output = %.40q", data)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	if err := New(DefaultOptions(), nil).RenderFile(filepath.Join(dir, "missing.json"), out); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestWatch_RerendersOnChange(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.json")
	out := filepath.Join(dir, "doc.svg")
	if err := os.WriteFile(in, []byte(`{"kind":"attacks","points":[{"label":"01-05","value":1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	rendered := make(chan error, 8)
	r := New(DefaultOptions(), nil)
	r.OnRender = func(err error) { rendered <- err }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, in, out) }()

	waitRender := func() {
		t.Helper()
		select {
		case err := <-rendered:
			if err != nil {
				t.Fatalf("render: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for render")
		}
	}
	waitRender()

	if err := os.WriteFile(in, []byte(`{"kind":"medicine","rows":[],"dates":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	waitRender()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "med-heat-wrap") {
		t.Errorf("output not re-rendered: %.60q", data)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
