package heatmap

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/asthmatracker/asthmaviz/internal/geom"
)

const svgStyle = `text{font:12px sans-serif;fill:#CDD6F4}
.med-heat-head text{fill:#A6ADC8}
.med-sub{fill:#A6ADC8;font-size:11px}
.med-cell rect{stroke:#1E1E2E;stroke-width:2}
.med-cell.zero rect{fill:#313244}
.med-cell.one rect{fill:#A6E3A1;fill-opacity:.45}
.med-cell.few rect{fill:#A6E3A1;fill-opacity:.75}
.med-cell.many rect{fill:#A6E3A1}
.med-cell text{text-anchor:middle;dominant-baseline:middle}
.med-heat-tooltip rect{fill:#313244;stroke:#585B70}`

const (
	headCaption = "Лекарство"
	titleLineH  = 14
	charWidth   = 7.5
	tooltipLine = 18
)

// SVG renders the grid and, when shown, the tooltip in container coordinates.
func (h *Heatmap) SVG() string {
	var b strings.Builder
	h.writeSVG(&b)
	return b.String()
}

func (h *Heatmap) WriteSVG(w io.Writer) error {
	if _, err := io.WriteString(w, h.SVG()); err != nil {
		return fmt.Errorf("heatmap: writing svg: %w", err)
	}
	return nil
}

func (h *Heatmap) writeSVG(b *strings.Builder) {
	l := h.Layout()
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" class="med-heat-wrap is-%s" viewBox="0 0 %s %s" width="%s" height="%s" role="img" aria-label="Приём лекарств">`,
		l.Mode, num(l.Width), num(l.Height), num(l.Width), num(l.Height))
	b.WriteString("<style>" + svgStyle + "</style>")

	b.WriteString(`<g class="med-heat-head">`)
	fmt.Fprintf(b, `<text x="8" y="%s">%s</text>`, num(HeaderHeight/2+4), headCaption)
	for i, d := range h.dates {
		x := l.FirstCol + l.CellWidth*(float64(i)+0.5)
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle">%s</text>`, num(x), num(HeaderHeight/2+4), html.EscapeString(d.Label))
	}
	b.WriteString(`</g>`)

	perLine := int((l.FirstCol - 16) / charWidth)
	for ri, row := range h.rows {
		y := HeaderHeight + RowHeight*float64(ri)
		b.WriteString(`<g class="med-heat-row">`)
		lines := ClampTitle(row.Title, l.Mode.TitleLines(), perLine)
		for li, line := range lines {
			fmt.Fprintf(b, `<text class="med-title" x="8" y="%s">%s</text>`, num(y+16+titleLineH*float64(li)), html.EscapeString(line))
		}
		if row.Sub != "" {
			fmt.Fprintf(b, `<text class="med-sub" x="8" y="%s">%s</text>`, num(y+16+titleLineH*float64(len(lines))), html.EscapeString(row.Sub))
		}
		for ci, cell := range row.Data {
			if ci >= len(h.dates) {
				break
			}
			r := l.CellRect(ri, ci)
			label := "—"
			if cell.Count > 0 {
				label = fmt.Sprint(cell.Count)
			}
			fmt.Fprintf(b, `<g class="med-cell %s" aria-label="%s"><rect x="%s" y="%s" width="%s" height="%s" rx="4"/><text x="%s" y="%s">%s</text></g>`,
				Classify(cell.Count), html.EscapeString(AriaLabel(row, cell)),
				num(r.X), num(r.Y), num(r.Width), num(r.Height),
				num(r.CenterX()), num(r.Y+r.Height/2), label)
		}
		b.WriteString(`</g>`)
	}

	if t, ok := h.Tooltip(); ok {
		size := h.tooltipSize()
		pos := geom.Point{X: t.Pos.X - h.origin.X, Y: t.Pos.Y - h.origin.Y}
		fmt.Fprintf(b, `<g class="med-heat-tooltip" transform="translate(%s,%s)"><rect width="%s" height="%s" rx="6"/>`,
			num(pos.X), num(pos.Y), num(size.Width), num(size.Height))
		for i, line := range t.Lines() {
			fmt.Fprintf(b, `<text x="10" y="%s">%s</text>`, num(22+tooltipLine*float64(i)), html.EscapeString(line))
		}
		b.WriteString(`</g>`)
	}

	b.WriteString(`</svg>`)
}

func num(v float64) string {
	return geom.FormatPx(v)
}
