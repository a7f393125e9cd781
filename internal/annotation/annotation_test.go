package annotation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeValue(t *testing.T) {
	epoch := EpochTime(time.Unix(1709280000, 0))
	resolved, ok := epoch.Time()
	require.True(t, ok)
	assert.Equal(t, int64(1709280000), resolved.Unix())

	date := DateTime("2024-03-01")
	resolved, ok = date.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), resolved)

	_, ok = DateTime("not-a-date").Time()
	assert.False(t, ok)

	_, ok = TimeValue{}.Time()
	assert.False(t, ok)
	assert.True(t, TimeValue{}.IsZero())
}

func TestFibLevelPrices(t *testing.T) {
	fib := NewFibonacciGrid(
		DomainPoint{Time: DateTime("2024-03-01"), Price: 100},
		DomainPoint{Time: DateTime("2024-03-15"), Price: 200},
		DefaultStyle,
	)

	levels, prices := FibLevelPrices(&fib)
	require.Equal(t, len(levels), len(prices))

	// Level 0 anchors at the end price, level 1 at the start price.
	byLevel := map[float64]float64{}
	for i, l := range levels {
		byLevel[l] = prices[i]
	}
	assert.InDelta(t, 200.0, byLevel[0], 1e-9)
	assert.InDelta(t, 100.0, byLevel[1], 1e-9)
	assert.InDelta(t, 150.0, byLevel[0.5], 1e-9)
	assert.InDelta(t, 138.2, byLevel[0.618], 1e-9)
}

func TestFibLevelPricesDegenerateSpan(t *testing.T) {
	fib := NewFibonacciGrid(
		DomainPoint{Time: DateTime("2024-03-01"), Price: 100},
		DomainPoint{Time: DateTime("2024-03-15"), Price: 100},
		DefaultStyle,
	)

	_, prices := FibLevelPrices(&fib)
	for _, p := range prices {
		assert.Equal(t, 100.0, p)
	}
}

func TestFibExtensions(t *testing.T) {
	fib := NewFibonacciGrid(DomainPoint{Price: 100}, DomainPoint{Price: 200}, DefaultStyle)
	base := len(fib.Levels)

	assert.Len(t, fib.ActiveLevels(), base)

	fib.ShowExtensions = true
	assert.Len(t, fib.ActiveLevels(), base+len(fib.ExtensionLevels))
}

func TestLevelColorFallback(t *testing.T) {
	fib := NewFibonacciGrid(DomainPoint{Price: 100}, DomainPoint{Price: 200}, DefaultStyle)
	fib.LevelColors = map[string]string{LevelKey(0.618): "#ffd700"}

	assert.Equal(t, "#ffd700", fib.LevelColor(0.618))
	assert.Equal(t, fib.Color, fib.LevelColor(0.5))
}

func TestCloneIsDeep(t *testing.T) {
	fib := NewFibonacciGrid(DomainPoint{Price: 100}, DomainPoint{Price: 200}, DefaultStyle)
	fib.LevelColors = map[string]string{LevelKey(0.5): "#111111"}

	cp := fib.Clone()
	cp.Levels[0] = 99
	cp.LevelColors[LevelKey(0.5)] = "#222222"

	assert.Equal(t, 0.0, fib.Levels[0])
	assert.Equal(t, "#111111", fib.LevelColors[LevelKey(0.5)])
}

func TestJSONOmitsUnrelatedVariantFields(t *testing.T) {
	hline := NewHorizontalLine(55800, DefaultStyle)
	hline.ID = "a"

	data, err := json.Marshal(hline)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "price")
	assert.NotContains(t, raw, "start")
	assert.NotContains(t, raw, "point")
	assert.NotContains(t, raw, "levels")
	assert.NotContains(t, raw, "text")
}
