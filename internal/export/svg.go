package export

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Line is one polyline of an SVG chart. X and Y must have equal length.
// NaN values break the line.
type Line struct {
	Label  string
	Color  string
	X      []float64
	Y      []float64
	Dashed bool
}

// Band is a filled region between Lower and Upper along X.
type Band struct {
	Color string
	X     []float64
	Lower []float64
	Upper []float64
}

type Chart struct {
	Title  string
	Width  int
	Height int
	Lines  []Line
	Bands  []Band
}

var Palette = []string{"#ff4444", "#0077be", "#00aa55", "#ffaa00", "#aa44ff", "#00a8cc"}

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b *bounds) add(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(y, 0) {
		return
	}
	b.minX, b.maxX = math.Min(b.minX, x), math.Max(b.maxX, x)
	b.minY, b.maxY = math.Min(b.minY, y), math.Max(b.maxY, y)
}

func (c Chart) bounds() bounds {
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, l := range c.Lines {
		for i := range l.X {
			b.add(l.X[i], l.Y[i])
		}
	}
	for _, band := range c.Bands {
		for i := range band.X {
			b.add(band.X[i], band.Lower[i])
			b.add(band.X[i], band.Upper[i])
		}
	}

	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	b.maxX = b.minX + rangeX
	return b
}

const margin = 40

// WriteSVG renders the chart. It fails if there is nothing to draw.
func WriteSVG(w io.Writer, c Chart) error {
	b := c.bounds()
	if math.IsInf(b.minX, 0) {
		return fmt.Errorf("export: chart %q has no finite points", c.Title)
	}

	plotW, plotH := float64(c.Width-2*margin), float64(c.Height-2*margin)
	px := func(x float64) float64 { return margin + (x-b.minX)/(b.maxX-b.minX)*plotW }
	py := func(y float64) float64 { return margin + plotH - (y-b.minY)/(b.maxY-b.minY)*plotH }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, c.Width, c.Height, c.Width, c.Height)
	if c.Title != "" {
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="14">%s</text>
`, margin, margin/2, escape(c.Title))
	}

	// axes
	fmt.Fprintf(&sb, `<path fill="none" stroke="#888888" d="M%.1f,%.1f L%.1f,%.1f L%.1f,%.1f"/>
`, px(b.minX), py(b.maxY), px(b.minX), py(b.minY), px(b.maxX), py(b.minY))
	if b.minY < 0 && b.maxY > 0 {
		fmt.Fprintf(&sb, `<path fill="none" stroke="#cccccc" stroke-dasharray="2,2" d="M%.1f,%.1f L%.1f,%.1f"/>
`, px(b.minX), py(0), px(b.maxX), py(0))
	}
	fmt.Fprintf(&sb, `<g font-family="sans-serif" font-size="10" fill="#444444">
<text x="%.1f" y="%.1f">%.0f</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.0f</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.2f</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.2f</text>
</g>
`, px(b.minX), py(b.minY)+14, b.minX,
		px(b.maxX), py(b.minY)+14, b.maxX,
		px(b.minX)-4, py(b.minY), b.minY,
		px(b.minX)-4, py(b.maxY)+8, b.maxY)

	for _, band := range c.Bands {
		var upper, lower []string
		for i := range band.X {
			if math.IsNaN(band.Lower[i]) || math.IsNaN(band.Upper[i]) {
				continue
			}
			upper = append(upper, fmt.Sprintf("%.1f,%.1f", px(band.X[i]), py(band.Upper[i])))
			lower = append(lower, fmt.Sprintf("%.1f,%.1f", px(band.X[i]), py(band.Lower[i])))
		}
		if len(upper) < 2 {
			continue
		}
		for i, j := 0, len(lower)-1; i < j; i, j = i+1, j-1 {
			lower[i], lower[j] = lower[j], lower[i]
		}
		fmt.Fprintf(&sb, `<polygon fill="%s" fill-opacity="0.25" stroke="none" points="%s %s"/>
`, band.Color, strings.Join(upper, " "), strings.Join(lower, " "))
	}

	for i, l := range c.Lines {
		color := l.Color
		if color == "" {
			color = Palette[i%len(Palette)]
		}
		d := path(l, px, py)
		if d == "" {
			continue
		}
		dash := ""
		if l.Dashed {
			dash = ` stroke-dasharray="4,3"`
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5"%s d="%s"/>
`, color, dash, d)
		if l.Label != "" {
			fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" fill="%s">%s</text>
`, c.Width-margin-100, margin+14*(i+1), color, escape(l.Label))
		}
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// path builds the d attribute, starting a new segment after each gap.
func path(l Line, px, py func(float64) float64) string {
	var sb strings.Builder
	pen := false
	for i := range l.X {
		if math.IsNaN(l.Y[i]) || math.IsInf(l.Y[i], 0) {
			pen = false
			continue
		}
		cmd := "L"
		if !pen {
			cmd = "M"
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		} else {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, px(l.X[i]), py(l.Y[i]))
		pen = true
	}
	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
