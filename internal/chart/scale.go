// Package chart provides the coordinate mapping between domain coordinates
// (time, price) and surface pixels. The Converter interface is the contract
// the host charting surface fulfils; Scale is the concrete implementation
// bound to a bar series and a visible range.
package chart

import (
	"time"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/market"
	"chart-annotator/pkg/geometry"
)

// Converter resolves between pixel and domain coordinates for one surface.
// Every method degrades to ok=false when the value cannot be resolved at the
// current visible range; callers skip the current operation or frame.
type Converter interface {
	PriceToPixel(price float64) (float64, bool)
	PixelToPrice(y float64) (float64, bool)
	TimeToPixel(t annotation.TimeValue) (float64, bool)
	PixelToTime(x float64) (annotation.TimeValue, bool)
	// PixelToNearestBarTime clamps out-of-range x to the first or last
	// visible bar. ok is false only when no bars are loaded.
	PixelToNearestBarTime(x float64) (annotation.TimeValue, bool)
	PlotSize() (width, height float64)
}

// Scale maps a visible window of a bar series onto a pixel plot area. The
// price axis is linear; the time axis is linear in bar index, so session gaps
// do not stretch the chart.
type Scale struct {
	series *market.Series
	daily  bool // emit calendar-date TimeValues instead of epoch seconds

	first, last        int // visible bar index range, inclusive
	priceMin, priceMax float64
	width, height      float64

	listeners map[int]func()
	nextSub   int
}

// NewScale creates a scale over the series. Daily (and above) timeframes set
// daily so produced TimeValues use the calendar-date form.
func NewScale(series *market.Series, daily bool) *Scale {
	s := &Scale{
		series:    series,
		daily:     daily,
		listeners: make(map[int]func()),
	}
	if series.Len() > 0 {
		s.last = series.Len() - 1
	}
	return s
}

// SetPlotSize sets the pixel dimensions of the plot area.
func (s *Scale) SetPlotSize(width, height float64) {
	if width == s.width && height == s.height {
		return
	}
	s.width = width
	s.height = height
	s.notifyRangeChanged()
}

// SetVisibleRange sets the visible bar window and price bounds, then
// notifies range listeners (driving a repaint).
func (s *Scale) SetVisibleRange(firstBar, lastBar int, priceMin, priceMax float64) {
	if firstBar < 0 {
		firstBar = 0
	}
	if lastBar >= s.series.Len() {
		lastBar = s.series.Len() - 1
	}
	s.first = firstBar
	s.last = lastBar
	s.priceMin = priceMin
	s.priceMax = priceMax
	s.notifyRangeChanged()
}

// OnVisibleRangeChanged registers a callback fired after every visible-range
// or plot-size change. Returns the unsubscribe function.
func (s *Scale) OnVisibleRangeChanged(fn func()) func() {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		delete(s.listeners, id)
	}
}

func (s *Scale) notifyRangeChanged() {
	for _, fn := range s.listeners {
		fn()
	}
}

// PlotSize returns the pixel dimensions of the plot area.
func (s *Scale) PlotSize() (float64, float64) {
	return s.width, s.height
}

// visibleCount returns the number of visible bars.
func (s *Scale) visibleCount() int {
	if s.series.Len() == 0 || s.last < s.first {
		return 0
	}
	return s.last - s.first + 1
}

// slotWidth returns the pixel width of one bar slot.
func (s *Scale) slotWidth() float64 {
	n := s.visibleCount()
	if n == 0 || s.width <= 0 {
		return 0
	}
	return s.width / float64(n)
}

// PriceToPixel maps a price to a y coordinate. Fails when the price lies
// outside the visible bounds or the scale is degenerate.
func (s *Scale) PriceToPixel(price float64) (float64, bool) {
	span := s.priceMax - s.priceMin
	if span <= 0 || s.height <= 0 {
		return 0, false
	}
	if price < s.priceMin || price > s.priceMax {
		return 0, false
	}
	return (s.priceMax - price) / span * s.height, true
}

// PixelToPrice maps a y coordinate to a price. Fails outside the plot area.
func (s *Scale) PixelToPrice(y float64) (float64, bool) {
	span := s.priceMax - s.priceMin
	if span <= 0 || s.height <= 0 {
		return 0, false
	}
	if y < 0 || y > s.height {
		return 0, false
	}
	return s.priceMax - y/s.height*span, true
}

// barCenterX returns the x coordinate of a bar's center slot.
func (s *Scale) barCenterX(idx int) float64 {
	return (float64(idx-s.first) + 0.5) * s.slotWidth()
}

// TimeToPixel maps a time to an x coordinate. Times between bars interpolate
// linearly inside the gap. Fails when the time falls outside the visible bar
// window.
func (s *Scale) TimeToPixel(tv annotation.TimeValue) (float64, bool) {
	t, ok := tv.Time()
	if !ok || s.visibleCount() == 0 || s.slotWidth() == 0 {
		return 0, false
	}

	firstTime := s.series.At(s.first).Time
	lastTime := s.series.At(s.last).Time
	if t.Before(firstTime) || t.After(lastTime) {
		return 0, false
	}

	idx, _ := s.series.IndexOf(t)
	bar := s.series.At(idx)
	if bar.Time.Equal(t) || idx == s.first {
		return s.barCenterX(idx), true
	}

	// Interpolate between the surrounding bar centers.
	prev := s.series.At(idx - 1)
	gap := bar.Time.Sub(prev.Time).Seconds()
	if gap <= 0 {
		return s.barCenterX(idx), true
	}
	frac := t.Sub(prev.Time).Seconds() / gap
	x0 := s.barCenterX(idx - 1)
	x1 := s.barCenterX(idx)
	return x0 + frac*(x1-x0), true
}

// PixelToTime maps an x coordinate to a time. Intraday scales interpolate
// between bars for sub-slot precision; daily scales snap to the bar date.
// Fails outside the plot area.
func (s *Scale) PixelToTime(x float64) (annotation.TimeValue, bool) {
	if s.visibleCount() == 0 || s.slotWidth() == 0 {
		return annotation.TimeValue{}, false
	}
	if x < 0 || x > s.width {
		return annotation.TimeValue{}, false
	}

	pos := x/s.slotWidth() - 0.5 // fractional bar offset from first visible center
	lo := s.first + int(pos)
	if pos < 0 {
		return s.timeValue(s.series.At(s.first).Time), true
	}
	if lo >= s.last {
		return s.timeValue(s.series.At(s.last).Time), true
	}

	if s.daily {
		// Snap to the nearest bar date.
		frac := pos - float64(lo-s.first)
		if frac >= 0.5 {
			lo++
		}
		return s.timeValue(s.series.At(lo).Time), true
	}

	a := s.series.At(lo).Time
	b := s.series.At(lo + 1).Time
	frac := pos - float64(lo-s.first)
	interp := a.Add(time.Duration(frac * float64(b.Sub(a))))
	return s.timeValue(interp), true
}

// PixelToNearestBarTime resolves x to the closest visible bar time, clamping
// out-of-range x to the window's edges.
func (s *Scale) PixelToNearestBarTime(x float64) (annotation.TimeValue, bool) {
	if s.visibleCount() == 0 {
		return annotation.TimeValue{}, false
	}
	slot := s.slotWidth()
	if slot == 0 {
		return s.timeValue(s.series.At(s.first).Time), true
	}

	idx := s.first + int(x/slot)
	if idx < s.first {
		idx = s.first
	}
	if idx > s.last {
		idx = s.last
	}
	return s.timeValue(s.series.At(idx).Time), true
}

func (s *Scale) timeValue(t time.Time) annotation.TimeValue {
	if s.daily {
		return annotation.DateTime(t.UTC().Format("2006-01-02"))
	}
	return annotation.EpochTime(t)
}

// PixelToDomain resolves a pixel to a domain point. The price must resolve;
// an unresolvable time falls back to the nearest visible bar.
func PixelToDomain(c Converter, x, y float64) (annotation.DomainPoint, bool) {
	price, ok := c.PixelToPrice(y)
	if !ok {
		return annotation.DomainPoint{}, false
	}
	tv, ok := c.PixelToTime(x)
	if !ok {
		tv, ok = c.PixelToNearestBarTime(x)
		if !ok {
			return annotation.DomainPoint{}, false
		}
	}
	return annotation.DomainPoint{Time: tv, Price: price}, true
}

// DomainToPixel resolves a domain point to surface pixels. Fails when either
// axis cannot resolve at the current visible range.
func DomainToPixel(c Converter, pt annotation.DomainPoint) (geometry.Point2D, bool) {
	x, ok := c.TimeToPixel(pt.Time)
	if !ok {
		return geometry.Point2D{}, false
	}
	y, ok := c.PriceToPixel(pt.Price)
	if !ok {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{X: x, Y: y}, true
}
