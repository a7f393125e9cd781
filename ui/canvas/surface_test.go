package canvas

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/interaction"
	"chart-annotator/internal/storage"
)

func newTestSurface(t *testing.T, tool interaction.Tool, activate func(string) bool) (*Surface, *annotation.Store) {
	t.Helper()
	test.NewApp()
	scale := testSurfaceScale()
	store := annotation.NewStore(storage.NewMemKV(), annotation.Context{
		Symbol: "BTCUSD", Timeframe: "1m", SurfaceID: "aux-1",
	}, zerolog.Nop())
	ctrl := interaction.NewController(store, scale, nil, zerolog.Nop())
	s := NewSurface("aux-1", store, scale, ctrl, func() interaction.Tool { return tool }, activate, zerolog.Nop())
	s.content.Resize(fyne.NewSize(600, 400))
	return s, store
}

// activateOnce reports an activation change on the first call only.
func activateOnce() func(string) bool {
	inactive := true
	return func(string) bool {
		was := inactive
		inactive = false
		return was
	}
}

func TestActivationClickIsConsumed(t *testing.T) {
	s, store := newTestSurface(t, interaction.ToolHorizontalLine, activateOnce())

	ev := &fyne.PointEvent{Position: fyne.NewPos(100, 100)}
	s.content.Tapped(ev)
	assert.Equal(t, 0, store.Len())

	s.content.Tapped(ev)
	require.Equal(t, 1, store.Len())
	assert.InDelta(t, 175, store.GetAll()[0].Price, 1e-9)
}

func TestActivationDragIsConsumedWhole(t *testing.T) {
	s, store := newTestSurface(t, interaction.ToolTrendline, activateOnce())

	// A short drag on an inactive surface activates it and must not
	// dispatch as a click when it ends.
	s.content.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(103, 100)},
		Dragged:    fyne.Delta{DX: 3, DY: 0},
	})
	s.content.DragEnd()
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, interaction.StateIdle, s.Controller().State())

	// The surface is active now; the next click starts a draw.
	s.content.Tapped(&fyne.PointEvent{Position: fyne.NewPos(105, 100)})
	assert.Equal(t, interaction.StateAwaitingSecondPoint, s.Controller().State())
	assert.Equal(t, 0, store.Len())
}
