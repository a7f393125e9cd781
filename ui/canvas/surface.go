package canvas

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/interaction"
	"chart-annotator/pkg/geometry"
)

var backgroundColor = color.RGBA{R: 0x12, G: 0x16, B: 0x1D, A: 0xFF}

// Surface is one drawing surface: a raster the render pass paints into, plus
// an event layer feeding the interaction controller. Tool selection comes
// from the host through the tool func so all surfaces share it.
type Surface struct {
	widget.BaseWidget

	log   zerolog.Logger
	id    string
	store *annotation.Store
	scale *chart.Scale
	ctrl  *interaction.Controller

	tool func() interaction.Tool
	// activate is called on pointer-down; returning true means the click
	// activated this surface and is consumed rather than drawn with.
	activate func(surfaceID string) bool

	raster  *fynecanvas.Raster
	content *eventLayer

	unsubStore func()
	unsubRange func()
}

// NewSurface builds a surface over one store and scale.
func NewSurface(id string, store *annotation.Store, scale *chart.Scale, ctrl *interaction.Controller, tool func() interaction.Tool, activate func(string) bool, log zerolog.Logger) *Surface {
	s := &Surface{
		log:      log.With().Str("component", "surface").Str("surface", id).Logger(),
		id:       id,
		store:    store,
		scale:    scale,
		ctrl:     ctrl,
		tool:     tool,
		activate: activate,
	}
	if s.activate == nil {
		s.activate = func(string) bool { return false }
	}

	s.raster = fynecanvas.NewRaster(s.draw)
	s.raster.ScaleMode = fynecanvas.ImageScalePixels
	s.content = newEventLayer(s)

	s.unsubStore = store.Subscribe(func(annotation.Change) { s.Refresh() })
	s.unsubRange = scale.OnVisibleRangeChanged(func() { s.Refresh() })
	ctrl.OnStateChanged = s.Refresh

	s.ExtendBaseWidget(s)
	return s
}

// ID returns the surface identifier.
func (s *Surface) ID() string {
	return s.id
}

// Controller returns the surface's interaction controller.
func (s *Surface) Controller() *interaction.Controller {
	return s.ctrl
}

// Store returns the surface's annotation store.
func (s *Surface) Store() *annotation.Store {
	return s.store
}

// Scale returns the surface's coordinate scale.
func (s *Surface) Scale() *chart.Scale {
	return s.scale
}

// Close releases the surface's subscriptions.
func (s *Surface) Close() {
	s.unsubStore()
	s.unsubRange()
}

// Refresh triggers a repaint.
func (s *Surface) Refresh() {
	s.raster.Refresh()
}

// draw is the raster callback; it runs the render pass over the current
// annotation set.
func (s *Surface) draw(w, h int) image.Image {
	s.scale.SetPlotSize(float64(w), float64(h))

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = backgroundColor.R
		out.Pix[i+1] = backgroundColor.G
		out.Pix[i+2] = backgroundColor.B
		out.Pix[i+3] = 0xFF
	}

	frame := Frame{
		Annotations: s.store.GetAll(),
		Converter:   s.scale,
		SelectedID:  s.ctrl.Selection(),
	}
	if tool, start, ok := s.ctrl.PendingFirstPoint(); ok {
		if at, okPtr := s.ctrl.LastPointer(); okPtr {
			frame.PreviewTool = tool
			frame.PreviewStart = start
			frame.PreviewAt = at
			frame.HasPreview = true
		}
	} else if pt, ok := s.ctrl.PendingTextPoint(); ok {
		frame.PreviewTool = interaction.ToolText
		frame.PreviewStart = pt
		frame.HasPreview = true
	}
	Render(out, frame)
	return out
}

// CreateRenderer implements fyne.Widget.
func (s *Surface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.content)
}

// eventLayer translates Fyne pointer events into controller events.
type eventLayer struct {
	widget.BaseWidget
	surface *Surface

	dragging bool
	consumed bool
	dragTool interaction.Tool
	lastDrag geometry.Point2D
}

var _ fyne.Tappable = (*eventLayer)(nil)
var _ fyne.SecondaryTappable = (*eventLayer)(nil)
var _ fyne.Draggable = (*eventLayer)(nil)
var _ desktop.Hoverable = (*eventLayer)(nil)

func newEventLayer(s *Surface) *eventLayer {
	el := &eventLayer{surface: s}
	el.ExtendBaseWidget(el)
	return el
}

func (el *eventLayer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(el.surface.raster)
}

func pos(ev fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(ev.X), Y: float64(ev.Y)}
}

// Tapped handles a left click: a pointer-down/up pair with no travel. A click
// that activates an inactive surface is consumed.
func (el *eventLayer) Tapped(ev *fyne.PointEvent) {
	size := el.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	if el.surface.activate(el.surface.id) {
		return
	}
	p := pos(ev.Position)
	tool := el.surface.tool()
	el.surface.ctrl.PointerDown(p, tool)
	el.surface.ctrl.PointerUp(p, tool)
}

// TappedSecondary handles right clicks.
func (el *eventLayer) TappedSecondary(ev *fyne.PointEvent) {
	el.surface.activate(el.surface.id)
	el.surface.ctrl.RightClick(pos(ev.Position))
}

// Dragged drives annotation drags. The first event synthesizes the pointer
// down at the drag origin. A gesture that activated an inactive surface is
// consumed whole so it cannot dispatch as a click on DragEnd.
func (el *eventLayer) Dragged(ev *fyne.DragEvent) {
	p := pos(ev.Position)
	if !el.dragging {
		el.dragging = true
		el.consumed = el.surface.activate(el.surface.id)
		if !el.consumed {
			el.dragTool = el.surface.tool()
			start := geometry.Point2D{
				X: p.X - float64(ev.Dragged.DX),
				Y: p.Y - float64(ev.Dragged.DY),
			}
			el.surface.ctrl.PointerDown(start, el.dragTool)
		}
	}
	if !el.consumed {
		el.surface.ctrl.PointerMove(p)
	}
	el.lastDrag = p
}

func (el *eventLayer) DragEnd() {
	if !el.dragging {
		return
	}
	el.dragging = false
	if el.consumed {
		el.consumed = false
		return
	}
	el.surface.ctrl.PointerUp(el.lastDrag, el.dragTool)
}

func (el *eventLayer) MouseIn(*desktop.MouseEvent) {}

// MouseMoved keeps the controller's pointer position current so previews
// track the cursor.
func (el *eventLayer) MouseMoved(ev *desktop.MouseEvent) {
	el.surface.ctrl.PointerMove(pos(ev.Position))
}

func (el *eventLayer) MouseOut() {}
