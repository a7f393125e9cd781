package panels

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"chart-annotator/internal/annotation"
)

// PropertySheet edits the selected annotation. All edits go through the
// store's update API so persistence and repaints follow automatically.
type PropertySheet struct {
	log zerolog.Logger

	store *annotation.Store
	id    string

	box        *fyne.Container
	form       *fyne.Container
	emptyLabel *widget.Label

	colorEntry    *widget.Entry
	thickness     *widget.Select
	lineStyle     *widget.Select
	labelEntry    *widget.Entry
	visibleChk    *widget.Check
	lockedChk     *widget.Check
	textEntry     *widget.Entry
	fillEntry     *widget.Entry
	extendLeftChk *widget.Check
	extendRightCk *widget.Check
	showPricesChk *widget.Check
	extensionsChk *widget.Check
	dirSelect     *widget.Select
	sizeSelect    *widget.Select
	deleteBtn     *widget.Button
	textRow       *fyne.Container
	fillRow       *fyne.Container
	extendRow     *fyne.Container
	fibRow        *fyne.Container
	arrowRow      *fyne.Container
	refreshing    bool
	onDelete      func(id string)
}

// NewPropertySheet builds the editor panel. onDelete is invoked after the
// delete button removes the annotation, so the host can clear selection.
func NewPropertySheet(log zerolog.Logger, onDelete func(id string)) *PropertySheet {
	ps := &PropertySheet{
		log:      log.With().Str("component", "propertysheet").Logger(),
		onDelete: onDelete,
	}

	ps.colorEntry = widget.NewEntry()
	ps.colorEntry.OnSubmitted = func(s string) {
		ps.patch(annotation.Patch{Color: annotation.Ptr(s)})
	}

	ps.thickness = widget.NewSelect([]string{"1", "2", "3", "4", "5"}, func(s string) {
		if ps.refreshing {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return
		}
		ps.patch(annotation.Patch{Thickness: annotation.Ptr(n)})
	})

	ps.lineStyle = widget.NewSelect([]string{
		string(annotation.StyleSolid),
		string(annotation.StyleDashed),
		string(annotation.StyleDotted),
	}, func(s string) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{LineStyle: annotation.Ptr(annotation.LineStyle(s))})
	})

	ps.labelEntry = widget.NewEntry()
	ps.labelEntry.OnSubmitted = func(s string) {
		ps.patch(annotation.Patch{Label: annotation.Ptr(s)})
	}

	ps.visibleChk = widget.NewCheck("Visible", func(v bool) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{Visible: annotation.Ptr(v)})
	})
	ps.lockedChk = widget.NewCheck("Locked", func(v bool) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{Locked: annotation.Ptr(v)})
	})

	ps.textEntry = widget.NewEntry()
	ps.textEntry.OnSubmitted = func(s string) {
		ps.patch(annotation.Patch{Text: annotation.Ptr(s)})
	}
	ps.textRow = container.NewVBox(widget.NewLabel("Text"), ps.textEntry)

	ps.fillEntry = widget.NewEntry()
	ps.fillEntry.OnSubmitted = func(s string) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 || v > 1 {
			return
		}
		ps.patch(annotation.Patch{FillOpacity: annotation.Ptr(v)})
	}
	ps.fillRow = container.NewVBox(widget.NewLabel("Fill opacity"), ps.fillEntry)

	ps.extendLeftChk = widget.NewCheck("Extend left", func(v bool) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{ExtendLeft: annotation.Ptr(v)})
	})
	ps.extendRightCk = widget.NewCheck("Extend right", func(v bool) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{ExtendRight: annotation.Ptr(v)})
	})
	ps.extendRow = container.NewVBox(ps.extendLeftChk, ps.extendRightCk)

	ps.showPricesChk = widget.NewCheck("Show prices", func(v bool) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{ShowPrices: annotation.Ptr(v)})
	})
	ps.extensionsChk = widget.NewCheck("Show extensions", func(v bool) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{ShowExtensions: annotation.Ptr(v)})
	})
	ps.fibRow = container.NewVBox(ps.showPricesChk, ps.extensionsChk)

	ps.dirSelect = widget.NewSelect([]string{
		string(annotation.ArrowUp),
		string(annotation.ArrowDown),
	}, func(s string) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{Direction: annotation.Ptr(annotation.ArrowDirection(s))})
	})
	ps.sizeSelect = widget.NewSelect([]string{
		string(annotation.ArrowSmall),
		string(annotation.ArrowMedium),
		string(annotation.ArrowLarge),
	}, func(s string) {
		if ps.refreshing {
			return
		}
		ps.patch(annotation.Patch{Size: annotation.Ptr(annotation.ArrowSize(s))})
	})
	ps.arrowRow = container.NewVBox(
		widget.NewLabel("Direction"), ps.dirSelect,
		widget.NewLabel("Size"), ps.sizeSelect,
	)

	ps.deleteBtn = widget.NewButton("Delete annotation", func() {
		if ps.store == nil || ps.id == "" {
			return
		}
		id := ps.id
		ps.store.Delete(id)
		ps.SetTarget(ps.store, "")
		if ps.onDelete != nil {
			ps.onDelete(id)
		}
	})

	ps.form = container.NewVBox(
		widget.NewLabel("Color"), ps.colorEntry,
		widget.NewLabel("Thickness"), ps.thickness,
		widget.NewLabel("Line style"), ps.lineStyle,
		widget.NewLabel("Label"), ps.labelEntry,
		ps.textRow,
		ps.fillRow,
		ps.extendRow,
		ps.fibRow,
		ps.arrowRow,
		ps.visibleChk,
		ps.lockedChk,
		ps.deleteBtn,
	)
	ps.emptyLabel = widget.NewLabel("No annotation selected")
	ps.box = container.NewVBox(ps.emptyLabel, ps.form)
	ps.form.Hide()

	return ps
}

// Widget returns the panel for embedding.
func (ps *PropertySheet) Widget() fyne.CanvasObject {
	return ps.box
}

// SetTarget points the editor at one annotation in one store; an empty id
// shows the placeholder.
func (ps *PropertySheet) SetTarget(store *annotation.Store, id string) {
	ps.store = store
	ps.id = id
	ps.refresh()
}

func (ps *PropertySheet) patch(p annotation.Patch) {
	if ps.store == nil || ps.id == "" {
		return
	}
	if _, ok := ps.store.Update(ps.id, p); !ok {
		ps.log.Warn().Str("id", ps.id).Msg("update of missing annotation")
	}
	ps.refresh()
}

func (ps *PropertySheet) refresh() {
	if ps.store == nil || ps.id == "" {
		ps.form.Hide()
		ps.emptyLabel.Show()
		return
	}
	a, ok := ps.store.Get(ps.id)
	if !ok {
		ps.form.Hide()
		ps.emptyLabel.Show()
		return
	}

	ps.refreshing = true
	ps.colorEntry.SetText(a.Color)
	ps.thickness.SetSelected(strconv.Itoa(a.Thickness))
	ps.lineStyle.SetSelected(string(a.LineStyle))
	ps.labelEntry.SetText(a.Label)
	ps.visibleChk.SetChecked(a.Visible)
	ps.lockedChk.SetChecked(a.Locked)

	ps.textRow.Hide()
	ps.fillRow.Hide()
	ps.extendRow.Hide()
	ps.fibRow.Hide()
	ps.arrowRow.Hide()
	switch a.Type {
	case annotation.TypeText:
		ps.textEntry.SetText(a.Text)
		ps.textRow.Show()
	case annotation.TypeRectangle:
		ps.fillEntry.SetText(strconv.FormatFloat(a.FillOpacity, 'f', 2, 64))
		ps.fillRow.Show()
	case annotation.TypeHorizontalLine, annotation.TypeTrendline:
		ps.extendLeftChk.SetChecked(a.ExtendLeft)
		ps.extendRightCk.SetChecked(a.ExtendRight)
		ps.extendRow.Show()
	case annotation.TypeFibonacci:
		ps.showPricesChk.SetChecked(a.ShowPrices)
		ps.extensionsChk.SetChecked(a.ShowExtensions)
		ps.fibRow.Show()
	case annotation.TypeArrow:
		ps.dirSelect.SetSelected(string(a.Direction))
		ps.sizeSelect.SetSelected(string(a.Size))
		ps.arrowRow.Show()
	}
	ps.refreshing = false

	ps.emptyLabel.Hide()
	ps.form.Show()
}
