package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHex(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x21, G: 0x96, B: 0xf3, A: 255}, ParseHex("#2196f3", Black))
	assert.Equal(t, color.RGBA{R: 0x21, G: 0x96, B: 0xf3, A: 255}, ParseHex("2196F3", Black))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x00, B: 0xff, A: 255}, ParseHex("#f0f", Black))

	// Unparseable input falls back.
	assert.Equal(t, Yellow, ParseHex("", Yellow))
	assert.Equal(t, Yellow, ParseHex("#zzzzzz", Yellow))
	assert.Equal(t, Yellow, ParseHex("#12345", Yellow))
}

func TestFormatHexRoundTrip(t *testing.T) {
	c := color.RGBA{R: 0x4c, G: 0xaf, B: 0x50, A: 255}
	assert.Equal(t, c, ParseHex(FormatHex(c), Black))
}

func TestBlend(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, Blend(Black, White, 1.0))
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 0, A: 255}, Blend(Black, White, 0.0))

	mid := Blend(Black, White, 0.5)
	assert.InDelta(t, 127, int(mid.R), 1)
	assert.Equal(t, uint8(255), mid.A)
}

func TestWithAlpha(t *testing.T) {
	assert.Equal(t, uint8(127), WithAlpha(White, 0.5).A)
	assert.Equal(t, uint8(0), WithAlpha(White, -1).A)
	assert.Equal(t, uint8(255), WithAlpha(White, 2).A)
}
