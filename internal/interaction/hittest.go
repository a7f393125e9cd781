package interaction

import (
	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/pkg/geometry"
)

// HitTolerance is the pixel distance within which a pointer hits a line-like
// annotation.
const HitTolerance = 8.0

// arrowHalfExtent maps an arrow size class to half the glyph footprint in
// pixels.
func arrowHalfExtent(size annotation.ArrowSize) float64 {
	switch size {
	case annotation.ArrowSmall:
		return 6
	case annotation.ArrowLarge:
		return 14
	default:
		return 10
	}
}

// ArrowFootprint returns the glyph bounding box for an arrow anchored at the
// given pixel position. The render pass and hit-tester share this footprint.
func ArrowFootprint(a *annotation.Annotation, at geometry.Point2D) geometry.Rect {
	half := arrowHalfExtent(a.Size)
	return geometry.NewRect(at.X-half, at.Y-half, 2*half, 2*half)
}

// TextFootprint approximates the rendered bounding box of a text label
// anchored at the given pixel position (top-left anchor).
func TextFootprint(a *annotation.Annotation, at geometry.Point2D) geometry.Rect {
	size := float64(a.FontSize)
	if size <= 0 {
		size = float64(annotation.DefaultStyle.FontSize)
	}
	w := float64(len(a.Text)) * size * 0.62
	if w < size {
		w = size
	}
	h := size * 1.5
	return geometry.NewRect(at.X, at.Y-h/2, w, h)
}

// TrendlineEndpoints resolves a trendline's pixel endpoints, extending the
// segment along its own line to the plot edge on each flagged side. The
// returned points are ordered left to right. A vertical segment cannot
// extend sideways and is returned as-is.
func TrendlineEndpoints(a *annotation.Annotation, conv chart.Converter) (geometry.Point2D, geometry.Point2D, bool) {
	p1, ok := chart.DomainToPixel(conv, a.Start)
	if !ok {
		return geometry.Point2D{}, geometry.Point2D{}, false
	}
	p2, ok := chart.DomainToPixel(conv, a.End)
	if !ok {
		return geometry.Point2D{}, geometry.Point2D{}, false
	}
	if (!a.ExtendLeft && !a.ExtendRight) || p1.X == p2.X {
		return p1, p2, true
	}

	left, right := p1, p2
	if left.X > right.X {
		left, right = right, left
	}
	slope := (right.Y - left.Y) / (right.X - left.X)
	w, _ := conv.PlotSize()
	if a.ExtendLeft {
		left = geometry.Point2D{X: 0, Y: left.Y - slope*left.X}
	}
	if a.ExtendRight {
		right = geometry.Point2D{X: w, Y: left.Y + slope*(w-left.X)}
	}
	return left, right, true
}

// HorizontalSpan returns the x extent of a horizontal line. The line spans
// the visible bar range; each extend flag stretches its side to the plot
// edge. When no bar is resolvable the span covers the full width.
func HorizontalSpan(a *annotation.Annotation, conv chart.Converter) (float64, float64) {
	w, _ := conv.PlotSize()
	x1, x2 := 0.0, w
	if !a.ExtendLeft {
		if tv, ok := conv.PixelToNearestBarTime(0); ok {
			if x, ok := conv.TimeToPixel(tv); ok {
				x1 = x
			}
		}
	}
	if !a.ExtendRight {
		if tv, ok := conv.PixelToNearestBarTime(w); ok {
			if x, ok := conv.TimeToPixel(tv); ok {
				x2 = x
			}
		}
	}
	return x1, x2
}

// HitTest finds the topmost annotation under the pointer. Annotations are
// tested in reverse creation order so the most recently created wins ties;
// hidden annotations are skipped. Unresolvable geometry skips the annotation
// for this test, matching the render pass.
func HitTest(anns []annotation.Annotation, conv chart.Converter, p geometry.Point2D) (string, bool) {
	for i := len(anns) - 1; i >= 0; i-- {
		a := &anns[i]
		if !a.Visible {
			continue
		}
		if hitOne(a, conv, p) {
			return a.ID, true
		}
	}
	return "", false
}

func hitOne(a *annotation.Annotation, conv chart.Converter, p geometry.Point2D) bool {
	switch a.Type {
	case annotation.TypeHorizontalLine:
		y, ok := conv.PriceToPixel(a.Price)
		if !ok {
			return false
		}
		x1, x2 := HorizontalSpan(a, conv)
		return abs(p.Y-y) <= HitTolerance && p.X >= x1-HitTolerance && p.X <= x2+HitTolerance

	case annotation.TypeVerticalLine:
		x, ok := conv.TimeToPixel(a.Time)
		if !ok {
			return false
		}
		return abs(p.X-x) <= HitTolerance

	case annotation.TypeTrendline:
		start, end, ok := TrendlineEndpoints(a, conv)
		if !ok {
			return false
		}
		return geometry.DistancePointToSegment(p, start, end) <= HitTolerance

	case annotation.TypeRectangle:
		start, ok := chart.DomainToPixel(conv, a.Start)
		if !ok {
			return false
		}
		end, ok := chart.DomainToPixel(conv, a.End)
		if !ok {
			return false
		}
		return geometry.RectFromCorners(start, end).Contains(p)

	case annotation.TypeFibonacci:
		start, ok := chart.DomainToPixel(conv, a.Start)
		if !ok {
			return false
		}
		end, ok := chart.DomainToPixel(conv, a.End)
		if !ok {
			return false
		}
		if geometry.DistancePointToSegment(p, start, end) <= HitTolerance {
			return true
		}
		// Level lines span the grid's time range at their level price.
		_, prices := annotation.FibLevelPrices(a)
		for _, price := range prices {
			y, ok := conv.PriceToPixel(price)
			if !ok {
				continue
			}
			la := geometry.Point2D{X: start.X, Y: y}
			lb := geometry.Point2D{X: end.X, Y: y}
			if geometry.DistancePointToSegment(p, la, lb) <= HitTolerance {
				return true
			}
		}
		return false

	case annotation.TypeArrow:
		at, ok := chart.DomainToPixel(conv, a.Point)
		if !ok {
			return false
		}
		return ArrowFootprint(a, at).Contains(p)

	case annotation.TypeText:
		at, ok := chart.DomainToPixel(conv, a.Point)
		if !ok {
			return false
		}
		return TextFootprint(a, at).Contains(p)
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
