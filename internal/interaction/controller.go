// Package interaction turns raw pointer and keyboard events into annotation
// mutations. A single controller per surface owns the drawing state machine,
// the selection, and hit-testing; it never touches the durable store directly,
// only the annotation store API.
package interaction

import (
	"github.com/rs/zerolog"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/pkg/geometry"
)

// Tool is the active drawing tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolDelete
	ToolHorizontalLine
	ToolVerticalLine
	ToolTrendline
	ToolRectangle
	ToolFibonacci
	ToolArrow
	ToolText
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolDelete:
		return "delete"
	case ToolHorizontalLine:
		return "horizontal_line"
	case ToolVerticalLine:
		return "vertical_line"
	case ToolTrendline:
		return "trendline"
	case ToolRectangle:
		return "rectangle"
	case ToolFibonacci:
		return "fibonacci"
	case ToolArrow:
		return "arrow"
	case ToolText:
		return "text"
	}
	return "unknown"
}

// twoClick reports whether the tool draws with a first and a second anchor.
func (t Tool) twoClick() bool {
	return t == ToolTrendline || t == ToolRectangle || t == ToolFibonacci
}

// State is the controller's drawing state.
type State int

const (
	StateIdle State = iota
	StateAwaitingSecondPoint
	StateTextEntryPending
	StateDragging
)

// Handle identifies which part of an annotation a drag moves.
type Handle int

const (
	HandleNone Handle = iota
	HandleStart
	HandleEnd
	HandlePoint // whole-object move for arrows and text labels
	HandleLine  // price/time move for horizontal and vertical lines
)

// DragThreshold is the cumulative pointer movement in pixels beyond which a
// gesture is treated as host-surface panning rather than a click.
const DragThreshold = 5.0

// handleTolerance is the pixel radius for grabbing a selection handle.
const handleTolerance = 8.0

// Controller is the per-surface interaction state machine. All methods must
// be called from the event-dispatch goroutine; there is no internal locking.
type Controller struct {
	log   zerolog.Logger
	store *annotation.Store
	conv  chart.Converter
	style func() annotation.Style

	state       State
	pendingTool Tool
	firstPoint  annotation.DomainPoint
	textPoint   annotation.DomainPoint
	dragID      string
	dragHandle  Handle

	selection string

	pointerDown bool
	downPos     geometry.Point2D
	travelled   float64
	lastPointer geometry.Point2D
	havePointer bool
	prevClickY  float64
	havePrevY   bool

	textInputFocused bool

	// OnSelectionChanged fires with the new selection id, "" on clear.
	OnSelectionChanged func(id string)
	// OnDrawCompleted fires with the created annotation when a draw commits,
	// so the host can react (auto-deselect the tool, focus the editor).
	OnDrawCompleted func(a annotation.Annotation)
	// OnTextEntryRequested fires when a text-tool click needs external text
	// input; the host answers with SubmitText or CancelTextEntry.
	OnTextEntryRequested func(at annotation.DomainPoint)
	// OnContextMenu fires on a right-click hit, without changing the tool.
	OnContextMenu func(id string, at geometry.Point2D)
	// OnStateChanged fires after any state or pending-geometry change so the
	// surface can repaint previews.
	OnStateChanged func()
}

// NewController wires a controller to one surface's store and converter. The
// style func supplies creation defaults so preference edits apply to the next
// drawn annotation without rebuilding the controller.
func NewController(store *annotation.Store, conv chart.Converter, style func() annotation.Style, log zerolog.Logger) *Controller {
	if style == nil {
		style = func() annotation.Style { return annotation.DefaultStyle }
	}
	return &Controller{
		log:   log.With().Str("component", "interaction").Logger(),
		store: store,
		conv:  conv,
		style: style,
	}
}

// State returns the current drawing state.
func (c *Controller) State() State {
	return c.state
}

// Selection returns the selected annotation id, "" when nothing is selected.
func (c *Controller) Selection() string {
	return c.selection
}

// PendingFirstPoint returns the committed first anchor of an in-progress
// two-click draw, for preview rendering.
func (c *Controller) PendingFirstPoint() (Tool, annotation.DomainPoint, bool) {
	if c.state != StateAwaitingSecondPoint {
		return ToolSelect, annotation.DomainPoint{}, false
	}
	return c.pendingTool, c.firstPoint, true
}

// PendingTextPoint returns the anchor of a pending text placement, for
// preview rendering.
func (c *Controller) PendingTextPoint() (annotation.DomainPoint, bool) {
	if c.state != StateTextEntryPending {
		return annotation.DomainPoint{}, false
	}
	return c.textPoint, true
}

// LastPointer returns the last known pointer position, for preview rendering.
func (c *Controller) LastPointer() (geometry.Point2D, bool) {
	return c.lastPointer, c.havePointer
}

// SetSelection sets the selection directly (property panel, context menu).
func (c *Controller) SetSelection(id string) {
	c.applySelection(id)
}

// SetTextInputFocused suppresses Delete/Backspace handling while an external
// text field has keyboard focus.
func (c *Controller) SetTextInputFocused(focused bool) {
	c.textInputFocused = focused
}

// Reset aborts any in-progress draw or drag and clears the selection. Called
// on context switches so a pending draw cannot complete against the wrong
// symbol or timeframe.
func (c *Controller) Reset() {
	c.state = StateIdle
	c.dragID = ""
	c.dragHandle = HandleNone
	c.pointerDown = false
	c.applySelection("")
	c.changed()
}

// PointerDown records the gesture start. With the select tool over a handle
// of the selected annotation it engages a drag immediately; otherwise nothing
// commits until PointerUp discriminates click from pan.
func (c *Controller) PointerDown(pos geometry.Point2D, tool Tool) {
	c.pointerDown = true
	c.downPos = pos
	c.travelled = 0
	c.trackPointer(pos)

	if tool != ToolSelect || c.selection == "" || c.state != StateIdle {
		return
	}
	a, ok := c.store.Get(c.selection)
	if !ok || a.Locked {
		return
	}
	if h := c.findHandle(&a, pos); h != HandleNone {
		c.state = StateDragging
		c.dragID = a.ID
		c.dragHandle = h
		c.changed()
	}
}

// PointerMove tracks movement, drives an engaged drag, and repaints previews
// while a multi-step draw is pending.
func (c *Controller) PointerMove(pos geometry.Point2D) {
	if c.pointerDown {
		c.travelled += pos.Distance(c.lastPointer)
	}
	c.trackPointer(pos)

	switch c.state {
	case StateDragging:
		c.applyDrag(pos)
	case StateAwaitingSecondPoint:
		c.changed()
	}
}

// PointerUp completes the gesture. An engaged drag always ends here; a
// movement beyond DragThreshold without a drag is host panning and is
// ignored; anything else dispatches as a click on the active tool.
func (c *Controller) PointerUp(pos geometry.Point2D, tool Tool) {
	wasDown := c.pointerDown
	c.pointerDown = false
	c.trackPointer(pos)

	if c.state == StateDragging {
		c.applyDrag(pos)
		c.state = StateIdle
		c.dragID = ""
		c.dragHandle = HandleNone
		c.changed()
		return
	}
	if !wasDown || c.travelled > DragThreshold {
		return
	}
	c.click(pos, tool)
}

// RightClick hit-tests under the pointer and raises the context menu callback
// on a hit. The active tool is not changed.
func (c *Controller) RightClick(pos geometry.Point2D) {
	id, ok := HitTest(c.store.GetAll(), c.conv, pos)
	if !ok {
		return
	}
	c.applySelection(id)
	if c.OnContextMenu != nil {
		c.OnContextMenu(id, pos)
	}
}

// KeyEscape aborts an in-progress multi-step draw, discarding the pending
// geometry.
func (c *Controller) KeyEscape() {
	switch c.state {
	case StateAwaitingSecondPoint, StateTextEntryPending:
		c.state = StateIdle
		c.changed()
	}
}

// KeyDelete deletes the current selection. Suppressed while a text input has
// focus so editing a label cannot destroy the annotation under it.
func (c *Controller) KeyDelete() {
	if c.textInputFocused || c.selection == "" {
		return
	}
	id := c.selection
	c.applySelection("")
	c.store.Delete(id)
}

// SubmitText completes a pending text-tool placement. Empty or
// whitespace-only submissions behave like a cancel.
func (c *Controller) SubmitText(text string) {
	if c.state != StateTextEntryPending {
		return
	}
	at := c.textPoint
	c.state = StateIdle
	if text == "" {
		c.changed()
		return
	}
	a := c.store.Create(annotation.NewTextLabel(at, text, c.style()))
	c.applySelection(a.ID)
	c.drawCompleted(a)
	c.changed()
}

// CancelTextEntry aborts a pending text placement.
func (c *Controller) CancelTextEntry() {
	if c.state != StateTextEntryPending {
		return
	}
	c.state = StateIdle
	c.changed()
}

func (c *Controller) click(pos geometry.Point2D, tool Tool) {
	if c.state == StateAwaitingSecondPoint {
		if tool != c.pendingTool {
			// Tool switched mid-draw; restart with the new tool.
			c.state = StateIdle
		} else {
			c.finishTwoClick(pos)
			return
		}
	}
	if c.state == StateTextEntryPending {
		return
	}

	switch tool {
	case ToolSelect:
		id, _ := HitTest(c.store.GetAll(), c.conv, pos)
		c.applySelection(id)

	case ToolDelete:
		id, ok := HitTest(c.store.GetAll(), c.conv, pos)
		if !ok {
			return
		}
		if a, found := c.store.Get(id); found && a.Locked {
			return
		}
		if id == c.selection {
			c.applySelection("")
		}
		c.store.Delete(id)

	case ToolHorizontalLine:
		price, ok := c.conv.PixelToPrice(pos.Y)
		if !ok {
			return
		}
		c.drawCompleted(c.store.Create(annotation.NewHorizontalLine(price, c.style())))

	case ToolVerticalLine:
		tv, ok := c.conv.PixelToTime(pos.X)
		if !ok {
			tv, ok = c.conv.PixelToNearestBarTime(pos.X)
			if !ok {
				return
			}
		}
		c.drawCompleted(c.store.Create(annotation.NewVerticalLine(tv, c.style())))

	case ToolArrow:
		pt, ok := chart.PixelToDomain(c.conv, pos.X, pos.Y)
		if !ok {
			return
		}
		dir := annotation.ArrowDown
		if c.havePrevY && pos.Y < c.prevClickY {
			dir = annotation.ArrowUp
		}
		c.drawCompleted(c.store.Create(annotation.NewArrow(pt, dir, c.style())))

	case ToolText:
		pt, ok := chart.PixelToDomain(c.conv, pos.X, pos.Y)
		if !ok {
			return
		}
		c.textPoint = pt
		c.state = StateTextEntryPending
		c.changed()
		if c.OnTextEntryRequested != nil {
			c.OnTextEntryRequested(pt)
		}

	case ToolTrendline, ToolRectangle, ToolFibonacci:
		pt, ok := chart.PixelToDomain(c.conv, pos.X, pos.Y)
		if !ok {
			return
		}
		c.pendingTool = tool
		c.firstPoint = pt
		c.state = StateAwaitingSecondPoint
		c.changed()
	}

	c.prevClickY = pos.Y
	c.havePrevY = true
}

// finishTwoClick commits the second anchor of a two-click draw. The tool
// stays active so the next click starts another instance.
func (c *Controller) finishTwoClick(pos geometry.Point2D) {
	pt, ok := chart.PixelToDomain(c.conv, pos.X, pos.Y)
	if !ok {
		return
	}
	start := c.firstPoint
	tool := c.pendingTool
	c.state = StateIdle

	var a annotation.Annotation
	switch tool {
	case ToolTrendline:
		a = c.store.Create(annotation.NewTrendline(start, pt, c.style()))
	case ToolRectangle:
		a = c.store.Create(annotation.NewRectangle(start, pt, c.style()))
	case ToolFibonacci:
		a = c.store.Create(annotation.NewFibonacciGrid(start, pt, c.style()))
	}
	c.applySelection(a.ID)
	c.drawCompleted(a)
	c.prevClickY = pos.Y
	c.havePrevY = true
	c.changed()
}

func (c *Controller) drawCompleted(a annotation.Annotation) {
	if c.OnDrawCompleted != nil {
		c.OnDrawCompleted(a)
	}
}

// findHandle returns the grab handle under the pointer for the annotation,
// or HandleNone.
func (c *Controller) findHandle(a *annotation.Annotation, pos geometry.Point2D) Handle {
	switch a.Type {
	case annotation.TypeTrendline, annotation.TypeRectangle, annotation.TypeFibonacci:
		if p, ok := chart.DomainToPixel(c.conv, a.Start); ok && pos.Distance(p) <= handleTolerance {
			return HandleStart
		}
		if p, ok := chart.DomainToPixel(c.conv, a.End); ok && pos.Distance(p) <= handleTolerance {
			return HandleEnd
		}
	case annotation.TypeArrow, annotation.TypeText:
		if hitOne(a, c.conv, pos) {
			return HandlePoint
		}
	case annotation.TypeHorizontalLine, annotation.TypeVerticalLine:
		if hitOne(a, c.conv, pos) {
			return HandleLine
		}
	}
	return HandleNone
}

// applyDrag moves the dragged handle to the pointer. Resolution failures
// skip the update without breaking the drag.
func (c *Controller) applyDrag(pos geometry.Point2D) {
	a, ok := c.store.Get(c.dragID)
	if !ok {
		c.state = StateIdle
		c.dragID = ""
		c.dragHandle = HandleNone
		return
	}

	var patch annotation.Patch
	switch c.dragHandle {
	case HandleStart, HandleEnd:
		pt, ok := chart.PixelToDomain(c.conv, pos.X, pos.Y)
		if !ok {
			return
		}
		if c.dragHandle == HandleStart {
			patch.Start = &pt
		} else {
			patch.End = &pt
		}
	case HandlePoint:
		pt, ok := chart.PixelToDomain(c.conv, pos.X, pos.Y)
		if !ok {
			return
		}
		patch.Point = &pt
	case HandleLine:
		if a.Type == annotation.TypeHorizontalLine {
			price, ok := c.conv.PixelToPrice(pos.Y)
			if !ok {
				return
			}
			patch.Price = &price
		} else {
			tv, ok := c.conv.PixelToTime(pos.X)
			if !ok {
				tv, ok = c.conv.PixelToNearestBarTime(pos.X)
				if !ok {
					return
				}
			}
			patch.Time = &tv
		}
	default:
		return
	}
	c.store.Update(a.ID, patch)
}

func (c *Controller) trackPointer(pos geometry.Point2D) {
	c.lastPointer = pos
	c.havePointer = true
}

func (c *Controller) applySelection(id string) {
	if id == c.selection {
		return
	}
	c.selection = id
	if c.OnSelectionChanged != nil {
		c.OnSelectionChanged(id)
	}
}

func (c *Controller) changed() {
	if c.OnStateChanged != nil {
		c.OnStateChanged()
	}
}
