// Package canvas provides the annotation drawing surface: a render pass that
// paints annotations into an RGBA overlay, and the Fyne widget that hosts it.
package canvas

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/interaction"
	"chart-annotator/pkg/colorutil"
	"chart-annotator/pkg/geometry"
)

const (
	previewOpacity = 0.5
	handleSize     = 6
)

var (
	selectionColor = color.RGBA{R: 255, G: 179, B: 0, A: 255}
	labelFace      = basicfont.Face7x13
)

// Frame is everything the render pass needs for one repaint.
type Frame struct {
	Annotations []annotation.Annotation
	Converter   chart.Converter
	SelectedID  string

	// In-progress two-click draw, rendered at reduced opacity.
	PreviewTool  interaction.Tool
	PreviewStart annotation.DomainPoint
	PreviewAt    geometry.Point2D
	HasPreview   bool
}

// Render paints the frame onto dst. Annotations whose geometry cannot be
// resolved at the current visible range are skipped for this frame; they
// reappear once panned back into range. The pass is idempotent, so redundant
// repaints are harmless.
func Render(dst *image.RGBA, f Frame) {
	for i := range f.Annotations {
		a := &f.Annotations[i]
		if !a.Visible {
			continue
		}
		drawAnnotation(dst, a, f.Converter, 1.0)
		if a.ID == f.SelectedID {
			drawHandles(dst, a, f.Converter)
		}
	}
	if f.HasPreview {
		drawPreview(dst, f)
	}
}

func drawPreview(dst *image.RGBA, f Frame) {
	var a annotation.Annotation
	switch f.PreviewTool {
	case interaction.ToolText:
		// Pending placement: a placeholder box at the anchor until the host
		// submits the text.
		a = annotation.NewTextLabel(f.PreviewStart, "...", annotation.DefaultStyle)
	case interaction.ToolTrendline, interaction.ToolRectangle, interaction.ToolFibonacci:
		end, ok := chart.PixelToDomain(f.Converter, f.PreviewAt.X, f.PreviewAt.Y)
		if !ok {
			return
		}
		switch f.PreviewTool {
		case interaction.ToolTrendline:
			a = annotation.NewTrendline(f.PreviewStart, end, annotation.DefaultStyle)
		case interaction.ToolRectangle:
			a = annotation.NewRectangle(f.PreviewStart, end, annotation.DefaultStyle)
		case interaction.ToolFibonacci:
			a = annotation.NewFibonacciGrid(f.PreviewStart, end, annotation.DefaultStyle)
		}
	default:
		return
	}
	drawAnnotation(dst, &a, f.Converter, previewOpacity)
}

func drawAnnotation(dst *image.RGBA, a *annotation.Annotation, conv chart.Converter, opacity float64) {
	col := colorutil.ParseHex(a.Color, colorutil.Blue)
	_, h := conv.PlotSize()

	switch a.Type {
	case annotation.TypeHorizontalLine:
		y, ok := conv.PriceToPixel(a.Price)
		if !ok {
			return
		}
		x1, x2 := interaction.HorizontalSpan(a, conv)
		drawLine(dst, int(x1), int(y), int(x2), int(y), col, a.Thickness, a.LineStyle, opacity)
		if a.Label != "" {
			drawText(dst, a.Label, int(x1)+4, int(y)-4, col, opacity)
		}

	case annotation.TypeVerticalLine:
		x, ok := conv.TimeToPixel(a.Time)
		if !ok {
			return
		}
		drawLine(dst, int(x), 0, int(x), int(h), col, a.Thickness, a.LineStyle, opacity)

	case annotation.TypeTrendline:
		p1, p2, ok := interaction.TrendlineEndpoints(a, conv)
		if !ok {
			return
		}
		drawLine(dst, int(p1.X), int(p1.Y), int(p2.X), int(p2.Y), col, a.Thickness, a.LineStyle, opacity)

	case annotation.TypeRectangle:
		p1, ok := chart.DomainToPixel(conv, a.Start)
		if !ok {
			return
		}
		p2, ok := chart.DomainToPixel(conv, a.End)
		if !ok {
			return
		}
		r := geometry.RectFromCorners(p1, p2)
		fillRect(dst, r, col, a.FillOpacity*opacity)
		drawRectOutline(dst, r, col, a.Thickness, a.BorderStyle, opacity)

	case annotation.TypeFibonacci:
		drawFibonacci(dst, a, conv, col, opacity)

	case annotation.TypeArrow:
		at, ok := chart.DomainToPixel(conv, a.Point)
		if !ok {
			return
		}
		drawArrow(dst, a, at, col, opacity)

	case annotation.TypeText:
		at, ok := chart.DomainToPixel(conv, a.Point)
		if !ok {
			return
		}
		box := interaction.TextFootprint(a, at)
		bg := colorutil.ParseHex(a.BackgroundColor, colorutil.Black)
		fillRect(dst, box, bg, a.BackgroundOpacity*opacity)
		drawText(dst, a.Text, int(at.X)+3, int(at.Y)+4, col, opacity)
	}
}

func drawFibonacci(dst *image.RGBA, a *annotation.Annotation, conv chart.Converter, col color.RGBA, opacity float64) {
	p1, ok := chart.DomainToPixel(conv, a.Start)
	if !ok {
		return
	}
	p2, ok := chart.DomainToPixel(conv, a.End)
	if !ok {
		return
	}
	// Anchor diagonal, dotted so level lines stand out.
	drawLine(dst, int(p1.X), int(p1.Y), int(p2.X), int(p2.Y), col, 1, annotation.StyleDotted, opacity)

	x1, x2 := int(p1.X), int(p2.X)
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	levels, prices := annotation.FibLevelPrices(a)
	for i, level := range levels {
		y, ok := conv.PriceToPixel(prices[i])
		if !ok {
			continue
		}
		lc := colorutil.ParseHex(a.LevelColor(level), col)
		drawLine(dst, x1, int(y), x2, int(y), lc, a.Thickness, a.LineStyle, opacity)
		if a.ShowPrices {
			tag := fmt.Sprintf("%.3g  %.2f", level, prices[i])
			drawText(dst, tag, x2+4, int(y)+4, lc, opacity)
		}
	}
}

func drawArrow(dst *image.RGBA, a *annotation.Annotation, at geometry.Point2D, col color.RGBA, opacity float64) {
	box := interaction.ArrowFootprint(a, at)
	cx := int(at.X)
	top, bottom := int(box.Y), int(box.Y+box.Height)
	half := int(box.Width / 2)
	headH := half

	// Triangle head plus a stem, pointing up or down.
	if a.Direction == annotation.ArrowUp {
		for row := 0; row <= headH; row++ {
			span := row * half / headH
			hline(dst, cx-span, cx+span, top+row, col, opacity)
		}
		drawLine(dst, cx, top+headH, cx, bottom, col, maxInt(a.Thickness, 2), annotation.StyleSolid, opacity)
	} else {
		for row := 0; row <= headH; row++ {
			span := row * half / headH
			hline(dst, cx-span, cx+span, bottom-row, col, opacity)
		}
		drawLine(dst, cx, top, cx, bottom-headH, col, maxInt(a.Thickness, 2), annotation.StyleSolid, opacity)
	}
}

// drawHandles marks the selected annotation's grab points.
func drawHandles(dst *image.RGBA, a *annotation.Annotation, conv chart.Converter) {
	var anchors []geometry.Point2D
	switch a.Type {
	case annotation.TypeTrendline, annotation.TypeRectangle, annotation.TypeFibonacci:
		if p, ok := chart.DomainToPixel(conv, a.Start); ok {
			anchors = append(anchors, p)
		}
		if p, ok := chart.DomainToPixel(conv, a.End); ok {
			anchors = append(anchors, p)
		}
	case annotation.TypeArrow, annotation.TypeText:
		if p, ok := chart.DomainToPixel(conv, a.Point); ok {
			anchors = append(anchors, p)
		}
	case annotation.TypeHorizontalLine:
		if y, ok := conv.PriceToPixel(a.Price); ok {
			w, _ := conv.PlotSize()
			anchors = append(anchors, geometry.Point2D{X: w / 2, Y: y})
		}
	case annotation.TypeVerticalLine:
		if x, ok := conv.TimeToPixel(a.Time); ok {
			_, h := conv.PlotSize()
			anchors = append(anchors, geometry.Point2D{X: x, Y: h / 2})
		}
	}
	for _, p := range anchors {
		r := geometry.NewRect(p.X-handleSize/2, p.Y-handleSize/2, handleSize, handleSize)
		fillRect(dst, r, selectionColor, 1.0)
	}
}

// dash patterns in pixel steps: on-length, off-length.
func dashPattern(style annotation.LineStyle) (int, int) {
	switch style {
	case annotation.StyleDashed:
		return 8, 4
	case annotation.StyleDotted:
		return 2, 3
	default:
		return 1, 0
	}
}

// drawLine draws a Bresenham line with thickness, dash style, and opacity.
func drawLine(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int, style annotation.LineStyle, opacity float64) {
	if thickness < 1 {
		thickness = 1
	}
	on, off := dashPattern(style)

	dx := absInt(x2 - x1)
	dy := absInt(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	step := 0
	for {
		if off == 0 || step%(on+off) < on {
			for t := -thickness / 2; t <= thickness/2; t++ {
				for s := -thickness / 2; s <= thickness/2; s++ {
					setPix(dst, x1+s, y1+t, col, opacity)
				}
			}
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		step++
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func drawRectOutline(dst *image.RGBA, r geometry.Rect, col color.RGBA, thickness int, style annotation.LineStyle, opacity float64) {
	x1, y1 := int(r.X), int(r.Y)
	x2, y2 := int(r.X+r.Width), int(r.Y+r.Height)
	drawLine(dst, x1, y1, x2, y1, col, thickness, style, opacity)
	drawLine(dst, x1, y2, x2, y2, col, thickness, style, opacity)
	drawLine(dst, x1, y1, x1, y2, col, thickness, style, opacity)
	drawLine(dst, x2, y1, x2, y2, col, thickness, style, opacity)
}

func fillRect(dst *image.RGBA, r geometry.Rect, col color.RGBA, opacity float64) {
	if opacity <= 0 {
		return
	}
	x1, y1 := int(r.X), int(r.Y)
	x2, y2 := int(r.X+r.Width), int(r.Y+r.Height)
	for y := y1; y <= y2; y++ {
		hline(dst, x1, x2, y, col, opacity)
	}
}

func hline(dst *image.RGBA, x1, x2, y int, col color.RGBA, opacity float64) {
	for x := x1; x <= x2; x++ {
		setPix(dst, x, y, col, opacity)
	}
}

func setPix(dst *image.RGBA, x, y int, col color.RGBA, opacity float64) {
	bounds := dst.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	if opacity >= 1 {
		dst.SetRGBA(x, y, col)
		return
	}
	dst.SetRGBA(x, y, colorutil.Blend(dst.RGBAAt(x, y), col, opacity))
}

// drawText renders a string with the bitmap face; (x, y) is the baseline
// start.
func drawText(dst *image.RGBA, s string, x, y int, col color.RGBA, opacity float64) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorutil.WithAlpha(col, opacity)),
		Face: labelFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
