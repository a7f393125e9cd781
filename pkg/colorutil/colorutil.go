// Package colorutil provides shared color utilities for the chart annotator.
package colorutil

import (
	"fmt"
	"image/color"
	"strings"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 33, G: 150, B: 243, A: 255}
	Green   = color.RGBA{R: 76, G: 175, B: 80, A: 255}
	Red     = color.RGBA{R: 244, G: 67, B: 54, A: 255}
	Yellow  = color.RGBA{R: 255, G: 235, B: 59, A: 255}
)

// ParseHex parses a "#rrggbb" or "#rgb" hex color string. The leading '#' is
// optional. Returns fallback when the string cannot be parsed.
func ParseHex(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(s) {
	case 6:
		var r, g, b uint8
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return fallback
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}
	case 3:
		var r, g, b uint8
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return fallback
		}
		return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 255}
	default:
		return fallback
	}
}

// FormatHex formats a color as "#rrggbb". Alpha is not represented.
func FormatHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Blend mixes src over dst at the given opacity in [0, 1]. Opacity outside the
// range is clamped. The result is fully opaque.
func Blend(dst, src color.RGBA, opacity float64) color.RGBA {
	if opacity <= 0 {
		return color.RGBA{R: dst.R, G: dst.G, B: dst.B, A: 255}
	}
	if opacity >= 1 {
		return color.RGBA{R: src.R, G: src.G, B: src.B, A: 255}
	}

	inv := 1 - opacity
	return color.RGBA{
		R: uint8(float64(src.R)*opacity + float64(dst.R)*inv),
		G: uint8(float64(src.G)*opacity + float64(dst.G)*inv),
		B: uint8(float64(src.B)*opacity + float64(dst.B)*inv),
		A: 255,
	}
}

// WithAlpha returns the color with the alpha channel set from opacity in [0, 1].
func WithAlpha(c color.RGBA, opacity float64) color.RGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	c.A = uint8(opacity * 255)
	return c
}
