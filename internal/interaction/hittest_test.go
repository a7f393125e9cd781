package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
	"chart-annotator/pkg/geometry"
)

func TestHitTestReverseCreationOrder(t *testing.T) {
	_, store, scale := newFixture(t)

	first := store.Create(annotation.NewRectangle(
		annotation.DomainPoint{Time: barCenter(5), Price: 180},
		annotation.DomainPoint{Time: barCenter(25), Price: 120},
		annotation.DefaultStyle))
	second := store.Create(annotation.NewRectangle(
		annotation.DomainPoint{Time: barCenter(10), Price: 170},
		annotation.DomainPoint{Time: barCenter(20), Price: 130},
		annotation.DefaultStyle))

	// Inside both boxes; the newer one wins.
	id, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 150, Y: 200})
	require.True(t, ok)
	assert.Equal(t, second.ID, id)

	// Hiding the newer box exposes the older one at the same point.
	store.Update(second.ID, annotation.Patch{Visible: annotation.Ptr(false)})
	id, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 150, Y: 200})
	require.True(t, ok)
	assert.Equal(t, first.ID, id)
}

func TestHitTestRectangleContainment(t *testing.T) {
	_, store, scale := newFixture(t)
	store.Create(annotation.NewRectangle(
		annotation.DomainPoint{Time: barCenter(10), Price: 170},
		annotation.DomainPoint{Time: barCenter(20), Price: 130},
		annotation.DefaultStyle))

	// Box spans (105,120)..(205,280) in pixels.
	_, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 150, Y: 200})
	assert.True(t, ok)

	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 150, Y: 119})
	assert.False(t, ok)
}

func TestHitTestTrendlineSegmentDistance(t *testing.T) {
	_, store, scale := newFixture(t)
	store.Create(annotation.NewTrendline(
		annotation.DomainPoint{Time: barCenter(10), Price: 175},
		annotation.DomainPoint{Time: barCenter(30), Price: 175},
		annotation.DefaultStyle))

	// Line runs (105,100)..(305,100).
	_, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 200, Y: 106})
	assert.True(t, ok)
	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 200, Y: 110})
	assert.False(t, ok)
	// Beyond the segment end the distance grows past tolerance.
	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 320, Y: 100})
	assert.False(t, ok)
}

func TestHitTestFibonacciLevelLines(t *testing.T) {
	_, store, scale := newFixture(t)
	store.Create(annotation.NewFibonacciGrid(
		annotation.DomainPoint{Time: barCenter(10), Price: 200}, // level 1 anchor
		annotation.DomainPoint{Time: barCenter(30), Price: 100}, // level 0 anchor
		annotation.DefaultStyle))

	// The 0.5 level sits at price 150, y=200, spanning x 105..305.
	_, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 250, Y: 202})
	assert.True(t, ok)

	// Well away from the diagonal and every level line.
	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 250, Y: 230})
	assert.False(t, ok)
}

func TestHitTestArrowAndTextFootprints(t *testing.T) {
	_, store, scale := newFixture(t)
	arrow := store.Create(annotation.NewArrow(
		annotation.DomainPoint{Time: barCenter(10), Price: 150},
		annotation.ArrowUp, annotation.DefaultStyle))
	label := store.Create(annotation.NewTextLabel(
		annotation.DomainPoint{Time: barCenter(40), Price: 150},
		"breakout", annotation.DefaultStyle))

	// Arrow anchored at (105,200), medium glyph half-extent 10.
	id, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 112, Y: 206})
	require.True(t, ok)
	assert.Equal(t, arrow.ID, id)
	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 105, Y: 215})
	assert.False(t, ok)

	// Text box extends right of its anchor at (405,200).
	id, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 440, Y: 200})
	require.True(t, ok)
	assert.Equal(t, label.ID, id)
}

func TestHitTestTrendlineExtendFlags(t *testing.T) {
	_, store, scale := newFixture(t)
	tl := store.Create(annotation.NewTrendline(
		annotation.DomainPoint{Time: barCenter(10), Price: 175},
		annotation.DomainPoint{Time: barCenter(30), Price: 175},
		annotation.DefaultStyle))

	// Segment (105,100)..(305,100); not extended, beyond the end is a miss.
	_, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 400, Y: 100})
	assert.False(t, ok)

	store.Update(tl.ID, annotation.Patch{ExtendRight: annotation.Ptr(true)})
	id, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 400, Y: 100})
	require.True(t, ok)
	assert.Equal(t, tl.ID, id)

	// The left side stays clipped at the start anchor.
	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 50, Y: 100})
	assert.False(t, ok)

	store.Update(tl.ID, annotation.Patch{ExtendLeft: annotation.Ptr(true)})
	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 50, Y: 100})
	assert.True(t, ok)
}

func TestHitTestHorizontalLineSpanWhenNotExtended(t *testing.T) {
	_, store, scale := newFixture(t)
	h := store.Create(annotation.NewHorizontalLine(150, annotation.DefaultStyle))

	// Zoom to bars 20..39; the first visible bar centers at x=15.
	scale.SetVisibleRange(20, 39, 100, 200)
	id, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 2, Y: 200})
	require.True(t, ok)
	assert.Equal(t, h.ID, id)

	store.Update(h.ID, annotation.Patch{ExtendLeft: annotation.Ptr(false)})
	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 2, Y: 200})
	assert.False(t, ok)

	// Inside the bar range the line still hits.
	_, ok = HitTest(store.GetAll(), scale, geometry.Point2D{X: 300, Y: 200})
	assert.True(t, ok)
}

func TestHitTestUnresolvableGeometrySkips(t *testing.T) {
	_, store, scale := newFixture(t)
	store.Create(annotation.NewHorizontalLine(150, annotation.DefaultStyle))

	scale.SetVisibleRange(0, 59, 150, 150)
	_, ok := HitTest(store.GetAll(), scale, geometry.Point2D{X: 100, Y: 200})
	assert.False(t, ok)
}
