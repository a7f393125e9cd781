// Package market provides the bar series the annotation layer consumes for
// time resolution. Bars are produced by an external data pipeline; this
// package only holds them in time order and answers nearest-bar queries.
package market

import (
	"sort"
	"time"
)

// Bar is one OHLCV candle.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered list of bars, ascending by time.
type Series struct {
	bars []Bar
}

// NewSeries creates a series from bars, sorting them by time if needed.
func NewSeries(bars []Bar) *Series {
	s := &Series{bars: make([]Bar, len(bars))}
	copy(s.bars, bars)
	if !sort.SliceIsSorted(s.bars, func(i, j int) bool {
		return s.bars[i].Time.Before(s.bars[j].Time)
	}) {
		sort.Slice(s.bars, func(i, j int) bool {
			return s.bars[i].Time.Before(s.bars[j].Time)
		})
	}
	return s
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.bars)
}

// At returns the bar at index i.
func (s *Series) At(i int) Bar {
	return s.bars[i]
}

// Bars returns the underlying slice. Callers must not mutate it.
func (s *Series) Bars() []Bar {
	return s.bars
}

// IndexOf returns the index of the first bar at or after t, and whether t
// falls within the series range at all.
func (s *Series) IndexOf(t time.Time) (int, bool) {
	if len(s.bars) == 0 {
		return 0, false
	}
	i := sort.Search(len(s.bars), func(i int) bool {
		return !s.bars[i].Time.Before(t)
	})
	if i == len(s.bars) {
		return i - 1, false
	}
	return i, true
}

// NearestIndex returns the index of the bar whose time is closest to t.
// The series must be non-empty.
func (s *Series) NearestIndex(t time.Time) int {
	i, _ := s.IndexOf(t)
	if i == 0 {
		return 0
	}
	if i >= len(s.bars) {
		return len(s.bars) - 1
	}
	// Compare bar i against its predecessor.
	if t.Sub(s.bars[i-1].Time) <= s.bars[i].Time.Sub(t) {
		return i - 1
	}
	return i
}

// ClampTime returns the bar time nearest to t, clamping to the first or last
// bar when t lies outside the series range.
func (s *Series) ClampTime(t time.Time) time.Time {
	if len(s.bars) == 0 {
		return t
	}
	if t.Before(s.bars[0].Time) {
		return s.bars[0].Time
	}
	last := s.bars[len(s.bars)-1].Time
	if t.After(last) {
		return last
	}
	return s.bars[s.NearestIndex(t)].Time
}
