package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
)

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	p := LoadFrom(path)
	p.SetString(KeyLastSymbol, "BTCUSD")
	p.SetBool(KeyToolPanelVisible, true)
	p.SetFloat(KeyDefaultThickness, 3)
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal(t, "BTCUSD", q.String(KeyLastSymbol))
	assert.True(t, q.Bool(KeyToolPanelVisible, false))
	assert.Equal(t, 3.0, q.FloatWithFallback(KeyDefaultThickness, 0))
}

func TestMissingFileYieldsDefaults(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	assert.Equal(t, "", p.String(KeyLastSymbol))
	assert.False(t, p.Bool(KeyToolPanelVisible, false))
	assert.Equal(t, annotation.DefaultStyle, p.Style())
}

func TestStyleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	p := LoadFrom(path)

	style := annotation.DefaultStyle
	style.Color = "#ff0000"
	style.Thickness = 4
	style.LineStyle = annotation.StyleDashed
	p.SetStyle(style)
	require.NoError(t, p.Save())

	got := LoadFrom(path).Style()
	assert.Equal(t, "#ff0000", got.Color)
	assert.Equal(t, 4, got.Thickness)
	assert.Equal(t, annotation.StyleDashed, got.LineStyle)
	assert.Equal(t, annotation.DefaultStyle.FibLevels, got.FibLevels)
}
