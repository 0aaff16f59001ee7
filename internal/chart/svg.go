package chart

import (
	"fmt"
	"html"
	"io"
	"strings"
)

const svgStyle = `.grid line{stroke:#45475A;stroke-width:1}
.axis-x line,.axis-y line{stroke:#585B70}
text{font:11px sans-serif;fill:#A6ADC8}
.zone-red{fill:#F38BA8;fill-opacity:.18}
.zone-yellow{fill:#F9E2AF;fill-opacity:.22}
.zone-green{fill:#A6E3A1;fill-opacity:.2}
.norm line{stroke:#89B4FA;stroke-dasharray:6 4}
.norm text{fill:#89B4FA}
.line path{stroke:#CBA6F7;stroke-width:2;fill:none}
.pt{fill:#CBA6F7}
.pt.active{fill:#F5E0DC;stroke:#CBA6F7;stroke-width:2}
.tooltip rect{fill:#313244;stroke:#585B70}
.tooltip text{fill:#CDD6F4}`

const normCaption = "Норма"

func ariaLabel(v Variant) string {
	if v == PeakFlow {
		return "График пикфлоуметрии"
	}
	return "График приступов"
}

// SVG renders the chart, including the hovered tooltip if any.
func (c *Chart) SVG() string {
	var b strings.Builder
	c.writeSVG(&b)
	return b.String()
}

// WriteSVG writes the chart as a standalone SVG document.
func (c *Chart) WriteSVG(w io.Writer) error {
	_, err := io.WriteString(w, c.SVG())
	if err != nil {
		return fmt.Errorf("chart: writing svg: %w", err)
	}
	return nil
}

func (c *Chart) writeSVG(b *strings.Builder) {
	l := c.Layout()
	m := l.Mapper
	plot := m.Plot()

	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" class="%s-svg" viewBox="0 0 %s %s" width="%s" height="%s" role="img" aria-label="%s">`,
		l.Variant, num(l.Width), num(l.Height), num(l.Width), num(l.Height), ariaLabel(l.Variant))
	b.WriteString("<style>" + svgStyle + "</style>")

	b.WriteString(`<g class="grid">`)
	for _, t := range l.YTicks {
		fmt.Fprintf(b, `<line x1="%s" x2="%s" y1="%s" y2="%s"/>`, num(plot.Left()), num(plot.Right()), num(t.Y), num(t.Y))
	}
	b.WriteString(`</g>`)

	if len(l.Bands) > 0 {
		b.WriteString(`<g class="zones">`)
		for _, band := range l.Bands {
			r := band.Rect
			fmt.Fprintf(b, `<rect class="zone-%s" x="%s" y="%s" width="%s" height="%s"/>`,
				band.Zone, num(r.X), num(r.Y), num(r.Width), num(r.Height))
		}
		b.WriteString(`</g>`)
	}

	b.WriteString(`<g class="axis-y">`)
	fmt.Fprintf(b, `<line x1="%s" x2="%s" y1="%s" y2="%s"/>`, num(plot.Left()), num(plot.Left()), num(plot.Top()), num(plot.Bottom()))
	for _, t := range l.YTicks {
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" dominant-baseline="middle">%s</text>`,
			num(plot.Left()-8), num(t.Y), trimFloat(t.Value))
	}
	b.WriteString(`</g>`)

	b.WriteString(`<g class="axis-x">`)
	fmt.Fprintf(b, `<line x1="%s" x2="%s" y1="%s" y2="%s"/>`, num(plot.Left()), num(plot.Right()), num(plot.Bottom()), num(plot.Bottom()))
	for _, xl := range l.XLabels {
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle">%s</text>`,
			num(xl.X), num(plot.Bottom()+16), html.EscapeString(xl.Text))
	}
	b.WriteString(`</g>`)

	if l.Norm != nil {
		n := l.Norm
		fmt.Fprintf(b, `<g class="norm"><line x1="%s" x2="%s" y1="%s" y2="%s"/><text x="%s" y="%s" text-anchor="end">%s</text></g>`,
			num(n.X1), num(n.X2), num(n.Y), num(n.Y), num(n.X2), num(n.Y-6), normCaption)
	}

	if l.Path != "" {
		fmt.Fprintf(b, `<g class="line"><path d="%s"/></g>`, l.Path)
	}

	hover, hovered := c.Hover()
	b.WriteString(`<g class="points">`)
	for i, p := range l.Points {
		class := "pt"
		if hovered && i == hover.Index {
			class = "pt active"
		}
		fmt.Fprintf(b, `<circle class="%s" cx="%s" cy="%s" r="%d"/>`, class, num(p.X), num(p.Y), pointRadius)
	}
	b.WriteString(`</g>`)

	if caption, value, ok := c.TooltipLines(); ok {
		// rendered at viewBox scale, so container pixels equal viewBox pixels
		w, h := DefaultTooltipSize.Width, DefaultTooltipSize.Height
		fmt.Fprintf(b, `<g class="tooltip" transform="translate(%s,%s)"><rect width="%s" height="%s" rx="6"/>`,
			num(hover.Left), num(hover.Top), num(w), num(h))
		fmt.Fprintf(b, `<text x="10" y="22">%s</text><text x="10" y="44">%s</text></g>`,
			html.EscapeString(caption), html.EscapeString(value))
	}

	b.WriteString(`</svg>`)
}
