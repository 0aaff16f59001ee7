// Package render turns JSON chart documents into standalone SVG files.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/asthmatracker/asthmaviz/internal/chart"
	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/geom"
	"github.com/asthmatracker/asthmaviz/internal/heatmap"
	"github.com/asthmatracker/asthmaviz/internal/records"
)

var ErrUnknownKind = errors.New("render: unknown document kind")

type Kind string

const (
	KindAttacks  Kind = "attacks"
	KindPeakFlow Kind = "pef"
	KindMedicine Kind = "medicine"
)

var Kinds = []Kind{KindAttacks, KindPeakFlow, KindMedicine}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Kinds, k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Pin selects the heatmap cell whose tooltip is rendered pinned.
type Pin struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Document is the input of one render. Points and Zones feed the line charts,
// Rows and Dates the medicine heatmap. Width is the container width; zero
// means unmeasured.
type Document struct {
	Kind   Kind                   `json:"kind"`
	Width  float64                `json:"width,omitempty"`
	Points []core.TimeSeriesPoint `json:"points,omitempty"`
	Zones  *core.ZoneSet          `json:"zones,omitempty"`
	Rows   []core.HeatmapRow      `json:"rows,omitempty"`
	Dates  []core.DateColumn      `json:"dates,omitempty"`

	// HoverX renders a chart with the tooltip of the point nearest to this
	// cursor offset.
	HoverX *float64 `json:"hover_x,omitempty"`
	Pin    *Pin     `json:"pin,omitempty"`
}

// FromSnapshot builds the document of one patient view panel.
func FromSnapshot(snap records.Snapshot, kind Kind, width float64) Document {
	doc := Document{Kind: kind, Width: width}
	switch kind {
	case KindAttacks:
		doc.Points = snap.Attacks
	case KindPeakFlow:
		doc.Points = snap.PeakFlows
		doc.Zones = snap.Zones
	case KindMedicine:
		doc.Rows = snap.MedicineRows
		doc.Dates = snap.MedicineDates
	}
	return doc
}

func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("render: decoding document: %w", err)
	}
	k, err := ParseKind(string(doc.Kind))
	if err != nil {
		return Document{}, err
	}
	doc.Kind = k
	return doc, nil
}

type Options struct {
	Attacks  chart.Options
	PeakFlow chart.Options
	Heatmap  heatmap.Options
}

func DefaultOptions() Options {
	return Options{
		Attacks:  chart.SeverityOptions(),
		PeakFlow: chart.PeakFlowOptions(),
		Heatmap:  heatmap.DefaultOptions(),
	}
}

// Renderer renders documents with fixed sizing options.
type Renderer struct {
	opts Options
	log  *zap.Logger

	// OnRender, when set, is called after every render triggered by Watch.
	OnRender func(err error)
}

func New(opts Options, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{opts: opts, log: log}
}

// Render writes doc as SVG using the default options.
func Render(doc Document, w io.Writer) error {
	return New(DefaultOptions(), nil).Render(doc, w)
}

func (r *Renderer) Render(doc Document, w io.Writer) error {
	switch doc.Kind {
	case KindAttacks, KindPeakFlow:
		return r.Chart(doc).WriteSVG(w)
	case KindMedicine:
		return r.Heatmap(doc).WriteSVG(w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, doc.Kind)
	}
}

// Chart builds the chart of a line-chart document with its hover applied.
func (r *Renderer) Chart(doc Document) *chart.Chart {
	var c *chart.Chart
	if doc.Kind == KindPeakFlow {
		c = chart.NewPeakFlowChart(doc.Points, doc.Zones, r.opts.PeakFlow)
	} else {
		c = chart.NewSeverityChart(doc.Points, r.opts.Attacks)
	}
	c.Resize(doc.Width)
	if doc.HoverX != nil {
		// unscaled: the cursor offset is in viewBox pixels
		c.PointerMove(*doc.HoverX, geom.Size{}, chart.DefaultTooltipSize)
	}
	return c
}

// Heatmap builds the heatmap of a medicine document with its pin applied.
// A static SVG is its own viewport and has no bottom navigation to avoid, so
// the pinned tooltip is placed within the grid's bounds.
func (r *Renderer) Heatmap(doc Document) *heatmap.Heatmap {
	opts := r.opts.Heatmap
	opts.BottomSafe, opts.SafeAreaInset = 0, 0

	h := heatmap.New(doc.Rows, doc.Dates, opts)
	h.Resize(doc.Width)
	l := h.Layout()
	h.WindowResize(geom.Size{Width: l.Width, Height: l.Height})
	if doc.Pin != nil {
		h.ClickCell(heatmap.CellRef{Row: doc.Pin.Row, Col: doc.Pin.Col})
	}
	return h
}

// RenderFile renders the document at in and replaces out with the result.
func (r *Renderer) RenderFile(in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("render: opening %s: %w", in, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return err
	}

	var b strings.Builder
	if err := r.Render(doc, &b); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("render: creating output dir: %w", err)
	}
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("render: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, out); err != nil {
		return fmt.Errorf("render: replacing %s: %w", out, err)
	}
	r.log.Debug("rendered", zap.String("in", in), zap.String("out", out), zap.String("kind", string(doc.Kind)))
	return nil
}
