package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/market"
)

func minuteSeries(n int) *market.Series {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{Time: start.Add(time.Duration(i) * time.Minute), Close: 100 + float64(i)}
	}
	return market.NewSeries(bars)
}

func testScale() *Scale {
	s := NewScale(minuteSeries(60), false)
	s.SetPlotSize(600, 400)
	s.SetVisibleRange(0, 59, 100, 200)
	return s
}

func TestPriceToPixel(t *testing.T) {
	s := testScale()

	y, ok := s.PriceToPixel(200)
	require.True(t, ok)
	assert.InDelta(t, 0, y, 1e-9)

	y, ok = s.PriceToPixel(100)
	require.True(t, ok)
	assert.InDelta(t, 400, y, 1e-9)

	y, ok = s.PriceToPixel(150)
	require.True(t, ok)
	assert.InDelta(t, 200, y, 1e-9)

	_, ok = s.PriceToPixel(99)
	assert.False(t, ok)
	_, ok = s.PriceToPixel(201)
	assert.False(t, ok)
}

func TestPixelToPriceOutsidePlot(t *testing.T) {
	s := testScale()
	_, ok := s.PixelToPrice(-1)
	assert.False(t, ok)
	_, ok = s.PixelToPrice(401)
	assert.False(t, ok)
}

func TestDegeneratePriceSpanFailsResolution(t *testing.T) {
	s := NewScale(minuteSeries(10), false)
	s.SetPlotSize(600, 400)
	s.SetVisibleRange(0, 9, 150, 150)

	_, ok := s.PriceToPixel(150)
	assert.False(t, ok)
	_, ok = s.PixelToPrice(200)
	assert.False(t, ok)
}

func TestTimeToPixelBarCenters(t *testing.T) {
	s := testScale()
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	// 60 visible bars over 600px: slot width 10, first center at 5.
	x, ok := s.TimeToPixel(annotation.EpochTime(base))
	require.True(t, ok)
	assert.InDelta(t, 5, x, 1e-9)

	x, ok = s.TimeToPixel(annotation.EpochTime(base.Add(30 * time.Minute)))
	require.True(t, ok)
	assert.InDelta(t, 305, x, 1e-9)

	// Between bars interpolates.
	x, ok = s.TimeToPixel(annotation.EpochTime(base.Add(30*time.Minute + 30*time.Second)))
	require.True(t, ok)
	assert.InDelta(t, 310, x, 1e-9)

	// Outside the visible window fails.
	_, ok = s.TimeToPixel(annotation.EpochTime(base.Add(-time.Minute)))
	assert.False(t, ok)
	_, ok = s.TimeToPixel(annotation.EpochTime(base.Add(2 * time.Hour)))
	assert.False(t, ok)
}

func TestPixelDomainRoundTrip(t *testing.T) {
	s := testScale()

	// Epoch seconds quantize time, so x reconstructs to within a second's
	// worth of pixels (10px slot / 60s = 0.17px); price is exact.
	for _, x := range []float64{5, 47, 113, 300, 594.5} {
		for _, y := range []float64{0, 37, 200, 399} {
			pt, ok := PixelToDomain(s, x, y)
			require.True(t, ok, "pixelToDomain(%v,%v)", x, y)

			px, ok := DomainToPixel(s, pt)
			require.True(t, ok)
			assert.InDelta(t, x, px.X, 0.25, "x round trip at %v", x)
			assert.InDelta(t, y, px.Y, 1e-6, "y round trip at %v", y)
		}
	}
}

func TestPixelToTimeDailySnapsToBarDate(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 10)
	for i := range bars {
		bars[i] = market.Bar{Time: start.AddDate(0, 0, i)}
	}
	s := NewScale(market.NewSeries(bars), true)
	s.SetPlotSize(100, 100)
	s.SetVisibleRange(0, 9, 0, 10)

	tv, ok := s.PixelToTime(37)
	require.True(t, ok)
	assert.Equal(t, "2024-03-04", tv.Date)
	assert.Zero(t, tv.Epoch)
}

func TestPixelToNearestBarTimeClamps(t *testing.T) {
	s := testScale()
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	tv, ok := s.PixelToNearestBarTime(-50)
	require.True(t, ok)
	assert.Equal(t, base.Unix(), tv.Epoch)

	tv, ok = s.PixelToNearestBarTime(10000)
	require.True(t, ok)
	assert.Equal(t, base.Add(59*time.Minute).Unix(), tv.Epoch)
}

func TestPixelToDomainFallsBackToNearestBar(t *testing.T) {
	s := testScale()

	// y resolves but x is off-plot: time falls back to the clamped bar.
	pt, ok := PixelToDomain(s, -20, 200)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC).Unix(), pt.Time.Epoch)
	assert.InDelta(t, 150, pt.Price, 1e-9)

	// Unresolvable price fails outright.
	_, ok = PixelToDomain(s, 300, -5)
	assert.False(t, ok)
}

func TestOnVisibleRangeChanged(t *testing.T) {
	s := testScale()

	fired := 0
	unsub := s.OnVisibleRangeChanged(func() { fired++ })

	s.SetVisibleRange(10, 50, 110, 180)
	assert.Equal(t, 1, fired)

	s.SetPlotSize(800, 400)
	assert.Equal(t, 2, fired)

	// Unchanged plot size does not notify.
	s.SetPlotSize(800, 400)
	assert.Equal(t, 2, fired)

	unsub()
	s.SetVisibleRange(0, 59, 100, 200)
	assert.Equal(t, 2, fired)
}

func TestEmptySeriesScale(t *testing.T) {
	s := NewScale(market.NewSeries(nil), false)
	s.SetPlotSize(600, 400)

	_, ok := s.PixelToTime(10)
	assert.False(t, ok)
	_, ok = s.PixelToNearestBarTime(10)
	assert.False(t, ok)
	_, ok = s.TimeToPixel(annotation.EpochTime(time.Now()))
	assert.False(t, ok)
}
