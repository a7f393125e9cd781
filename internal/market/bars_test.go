package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func minuteBars(n int) []Bar {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{Time: start.Add(time.Duration(i) * time.Minute), Close: 100 + float64(i)}
	}
	return bars
}

func TestNewSeriesSortsBars(t *testing.T) {
	bars := minuteBars(5)
	shuffled := []Bar{bars[3], bars[0], bars[4], bars[2], bars[1]}

	s := NewSeries(shuffled)
	for i := 0; i < s.Len(); i++ {
		assert.Equal(t, bars[i].Time, s.At(i).Time)
	}
}

func TestNearestIndex(t *testing.T) {
	s := NewSeries(minuteBars(10))
	base := s.At(0).Time

	assert.Equal(t, 3, s.NearestIndex(base.Add(3*time.Minute)))
	assert.Equal(t, 3, s.NearestIndex(base.Add(3*time.Minute+20*time.Second)))
	assert.Equal(t, 4, s.NearestIndex(base.Add(3*time.Minute+40*time.Second)))

	// Out of range clamps to the ends.
	assert.Equal(t, 0, s.NearestIndex(base.Add(-time.Hour)))
	assert.Equal(t, 9, s.NearestIndex(base.Add(time.Hour)))
}

func TestClampTime(t *testing.T) {
	s := NewSeries(minuteBars(5))
	base := s.At(0).Time

	assert.Equal(t, base, s.ClampTime(base.Add(-time.Hour)))
	assert.Equal(t, s.At(4).Time, s.ClampTime(base.Add(time.Hour)))
	assert.Equal(t, s.At(2).Time, s.ClampTime(base.Add(2*time.Minute+10*time.Second)))
}

func TestEmptySeries(t *testing.T) {
	s := NewSeries(nil)
	_, ok := s.IndexOf(time.Now())
	assert.False(t, ok)

	now := time.Now()
	assert.Equal(t, now, s.ClampTime(now))
}
