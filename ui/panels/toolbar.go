// Package panels provides the tool palette and the annotation property
// editor.
package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"chart-annotator/internal/app"
	"chart-annotator/internal/interaction"
)

// toolButton pairs a palette entry with its tool.
type toolButton struct {
	tool  interaction.Tool
	label string
}

var paletteOrder = []toolButton{
	{interaction.ToolSelect, "Select"},
	{interaction.ToolDelete, "Delete"},
	{interaction.ToolHorizontalLine, "H-Line"},
	{interaction.ToolVerticalLine, "V-Line"},
	{interaction.ToolTrendline, "Trend"},
	{interaction.ToolRectangle, "Box"},
	{interaction.ToolFibonacci, "Fib"},
	{interaction.ToolArrow, "Arrow"},
	{interaction.ToolText, "Text"},
}

// Toolbar is the shared tool palette. Selecting a button changes the active
// tool for every surface.
type Toolbar struct {
	state   *app.State
	buttons map[interaction.Tool]*widget.Button
	box     *fyne.Container
}

// NewToolbar builds the palette bound to the application state.
func NewToolbar(state *app.State) *Toolbar {
	tb := &Toolbar{
		state:   state,
		buttons: make(map[interaction.Tool]*widget.Button),
	}

	items := make([]fyne.CanvasObject, 0, len(paletteOrder))
	for _, entry := range paletteOrder {
		tool := entry.tool
		btn := widget.NewButton(entry.label, func() {
			state.SetActiveTool(tool)
		})
		tb.buttons[tool] = btn
		items = append(items, btn)
	}
	tb.box = container.NewVBox(items...)

	state.On(app.EventToolChanged, func(interface{}) { tb.refresh() })
	state.On(app.EventToolPanelToggled, func(data interface{}) {
		if visible, ok := data.(bool); ok {
			tb.setVisible(visible)
		}
	})
	tb.setVisible(state.ToolPanelVisible())
	tb.refresh()
	return tb
}

// Widget returns the panel for embedding.
func (tb *Toolbar) Widget() fyne.CanvasObject {
	return tb.box
}

func (tb *Toolbar) setVisible(visible bool) {
	if visible {
		tb.box.Show()
	} else {
		tb.box.Hide()
	}
}

// refresh highlights the active tool.
func (tb *Toolbar) refresh() {
	active := tb.state.ActiveTool()
	for tool, btn := range tb.buttons {
		if tool == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}
