// Package annotation provides the chart annotation data model and its store.
// Annotations are user-drawn objects (lines, boxes, Fibonacci grids, arrows,
// text) positioned in domain coordinates (time, price) so they stay anchored
// under panning and zooming.
package annotation

import (
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Type discriminates the annotation variants. It is the persisted tag; do not
// renumber or rename existing values.
type Type string

const (
	TypeHorizontalLine Type = "horizontal_line"
	TypeVerticalLine   Type = "vertical_line"
	TypeTrendline      Type = "trendline"
	TypeRectangle      Type = "rectangle"
	TypeFibonacci      Type = "fibonacci"
	TypeArrow          Type = "arrow"
	TypeText           Type = "text"
)

// LineStyle selects the stroke pattern for line-like annotations.
type LineStyle string

const (
	StyleSolid  LineStyle = "solid"
	StyleDashed LineStyle = "dashed"
	StyleDotted LineStyle = "dotted"
)

// ArrowDirection is the orientation of an arrow marker.
type ArrowDirection string

const (
	ArrowUp   ArrowDirection = "up"
	ArrowDown ArrowDirection = "down"
)

// ArrowSize is the display size class of an arrow marker.
type ArrowSize string

const (
	ArrowSmall  ArrowSize = "small"
	ArrowMedium ArrowSize = "medium"
	ArrowLarge  ArrowSize = "large"
)

// TimeValue is a chart time: either epoch seconds (intraday timeframes) or a
// calendar date string "2006-01-02" (daily and above). Exactly one of the two
// is set; the two forms are never mixed within one annotation.
type TimeValue struct {
	Epoch int64  `json:"epoch,omitempty"`
	Date  string `json:"date,omitempty"`
}

// EpochTime returns a TimeValue in epoch-seconds form.
func EpochTime(t time.Time) TimeValue {
	return TimeValue{Epoch: t.Unix()}
}

// DateTime returns a TimeValue in calendar-date form.
func DateTime(date string) TimeValue {
	return TimeValue{Date: date}
}

// IsZero reports whether the value is unset.
func (tv TimeValue) IsZero() bool {
	return tv.Epoch == 0 && tv.Date == ""
}

// Time resolves the value to a time.Time. Calendar dates resolve to midnight
// UTC. ok is false when the value is unset or the date string is malformed.
func (tv TimeValue) Time() (time.Time, bool) {
	if tv.Date != "" {
		t, err := time.Parse("2006-01-02", tv.Date)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	if tv.Epoch != 0 {
		return time.Unix(tv.Epoch, 0).UTC(), true
	}
	return time.Time{}, false
}

// DomainPoint is a point in domain coordinates.
type DomainPoint struct {
	Time  TimeValue `json:"time"`
	Price float64   `json:"price"`
}

// Annotation is one drawn object. The Type field discriminates which variant
// fields are meaningful; unrelated fields stay at their zero value and are
// omitted from the persisted JSON.
type Annotation struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Color     string    `json:"color"`
	Thickness int       `json:"thickness"`
	Label     string    `json:"label,omitempty"`
	Visible   bool      `json:"visible"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// HorizontalLine
	Price float64 `json:"price,omitempty"`
	// VerticalLine
	Time TimeValue `json:"time,omitzero"`
	// Trendline, Rectangle, FibonacciGrid
	Start DomainPoint `json:"start,omitzero"`
	End   DomainPoint `json:"end,omitzero"`
	// HorizontalLine, Trendline
	ExtendLeft  bool `json:"extend_left,omitempty"`
	ExtendRight bool `json:"extend_right,omitempty"`
	// Line-like variants
	LineStyle LineStyle `json:"line_style,omitempty"`
	// Rectangle
	FillOpacity float64   `json:"fill_opacity,omitempty"`
	BorderStyle LineStyle `json:"border_style,omitempty"`
	// FibonacciGrid
	Levels          []float64         `json:"levels,omitempty"`
	ShowExtensions  bool              `json:"show_extensions,omitempty"`
	ExtensionLevels []float64         `json:"extension_levels,omitempty"`
	ShowPrices      bool              `json:"show_prices,omitempty"`
	LevelColors     map[string]string `json:"level_colors,omitempty"`
	// Arrow, TextLabel
	Point DomainPoint `json:"point,omitzero"`
	// Arrow
	Direction ArrowDirection `json:"direction,omitempty"`
	Size      ArrowSize      `json:"size,omitempty"`
	// TextLabel
	Text              string  `json:"text,omitempty"`
	FontSize          int     `json:"font_size,omitempty"`
	BackgroundColor   string  `json:"background_color,omitempty"`
	BackgroundOpacity float64 `json:"background_opacity,omitempty"`
}

// Style carries the default appearance applied by the constructors.
type Style struct {
	Color              string
	Thickness          int
	LineStyle          LineStyle
	FontSize           int
	FibLevels          []float64
	FibExtensionLevels []float64
}

// DefaultStyle is the out-of-the-box appearance.
var DefaultStyle = Style{
	Color:              "#2196f3",
	Thickness:          2,
	LineStyle:          StyleSolid,
	FontSize:           14,
	FibLevels:          []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1},
	FibExtensionLevels: []float64{1.272, 1.618, 2.618},
}

// NewHorizontalLine creates a horizontal line payload at the given price.
func NewHorizontalLine(price float64, style Style) Annotation {
	return Annotation{
		Type:        TypeHorizontalLine,
		Color:       style.Color,
		Thickness:   style.Thickness,
		Visible:     true,
		Price:       price,
		ExtendLeft:  true,
		ExtendRight: true,
		LineStyle:   style.LineStyle,
	}
}

// NewVerticalLine creates a vertical line payload at the given time.
func NewVerticalLine(t TimeValue, style Style) Annotation {
	return Annotation{
		Type:      TypeVerticalLine,
		Color:     style.Color,
		Thickness: style.Thickness,
		Visible:   true,
		Time:      t,
		LineStyle: style.LineStyle,
	}
}

// NewTrendline creates a trendline payload between two domain points.
func NewTrendline(start, end DomainPoint, style Style) Annotation {
	return Annotation{
		Type:      TypeTrendline,
		Color:     style.Color,
		Thickness: style.Thickness,
		Visible:   true,
		Start:     start,
		End:       end,
		LineStyle: style.LineStyle,
	}
}

// NewRectangle creates a rectangle payload between two opposite corners.
func NewRectangle(start, end DomainPoint, style Style) Annotation {
	return Annotation{
		Type:        TypeRectangle,
		Color:       style.Color,
		Thickness:   style.Thickness,
		Visible:     true,
		Start:       start,
		End:         end,
		FillOpacity: 0.15,
		BorderStyle: style.LineStyle,
	}
}

// NewFibonacciGrid creates a Fibonacci grid payload between two domain points.
func NewFibonacciGrid(start, end DomainPoint, style Style) Annotation {
	levels := style.FibLevels
	if len(levels) == 0 {
		levels = DefaultStyle.FibLevels
	}
	extensions := style.FibExtensionLevels
	if len(extensions) == 0 {
		extensions = DefaultStyle.FibExtensionLevels
	}
	return Annotation{
		Type:            TypeFibonacci,
		Color:           style.Color,
		Thickness:       1,
		Visible:         true,
		Start:           start,
		End:             end,
		Levels:          append([]float64(nil), levels...),
		ExtensionLevels: append([]float64(nil), extensions...),
		ShowPrices:      true,
	}
}

// NewArrow creates an arrow payload at the given point.
func NewArrow(point DomainPoint, dir ArrowDirection, style Style) Annotation {
	return Annotation{
		Type:      TypeArrow,
		Color:     style.Color,
		Thickness: style.Thickness,
		Visible:   true,
		Point:     point,
		Direction: dir,
		Size:      ArrowMedium,
	}
}

// NewTextLabel creates a text label payload at the given point.
func NewTextLabel(point DomainPoint, text string, style Style) Annotation {
	return Annotation{
		Type:              TypeText,
		Color:             style.Color,
		Thickness:         style.Thickness,
		Visible:           true,
		Point:             point,
		Text:              text,
		FontSize:          style.FontSize,
		BackgroundColor:   "#222222",
		BackgroundOpacity: 0.7,
	}
}

// Clone returns a deep copy. Slices and maps are copied so the store's
// internal state cannot be mutated through returned values.
func (a Annotation) Clone() Annotation {
	cp := a
	if a.Levels != nil {
		cp.Levels = append([]float64(nil), a.Levels...)
	}
	if a.ExtensionLevels != nil {
		cp.ExtensionLevels = append([]float64(nil), a.ExtensionLevels...)
	}
	if a.LevelColors != nil {
		cp.LevelColors = make(map[string]string, len(a.LevelColors))
		for k, v := range a.LevelColors {
			cp.LevelColors[k] = v
		}
	}
	return cp
}

// LevelKey formats a Fibonacci level for use as a LevelColors key.
func LevelKey(level float64) string {
	return strconv.FormatFloat(level, 'f', -1, 64)
}

// LevelColor resolves the color for a Fibonacci level, falling back to the
// annotation's base color when no per-level color is configured.
func (a *Annotation) LevelColor(level float64) string {
	if c, ok := a.LevelColors[LevelKey(level)]; ok && c != "" {
		return c
	}
	return a.Color
}

// ActiveLevels returns the retracement levels, plus the extension levels when
// ShowExtensions is set.
func (a *Annotation) ActiveLevels() []float64 {
	levels := append([]float64(nil), a.Levels...)
	if a.ShowExtensions {
		levels = append(levels, a.ExtensionLevels...)
	}
	return levels
}

// FibLevelPrices maps the grid's active levels onto prices. Level 0 sits at
// the end point, level 1 at the start point; extensions project beyond the
// start. A zero price span yields the same price for every level.
func FibLevelPrices(a *Annotation) ([]float64, []float64) {
	levels := a.ActiveLevels()
	prices := make([]float64, len(levels))
	copy(prices, levels)
	floats.Scale(a.Start.Price-a.End.Price, prices)
	floats.AddConst(a.End.Price, prices)
	return levels, prices
}
