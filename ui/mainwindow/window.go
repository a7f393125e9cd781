// Package mainwindow assembles the application window: the drawing surfaces,
// the tool palette, the property editor, and keyboard shortcuts.
package mainwindow

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/app"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/export"
	"chart-annotator/internal/interaction"
	"chart-annotator/internal/market"
	"chart-annotator/pkg/geometry"
	"chart-annotator/ui/canvas"
	"chart-annotator/ui/panels"
	"chart-annotator/ui/prefs"
)

const (
	primarySurfaceID   = "main"
	auxiliarySurfaceID = "aux-1"
)

var timeframes = []string{"1m", "1h", "1D"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	log   zerolog.Logger
	state *app.State

	registry *annotation.Registry
	prefs    *prefs.Prefs

	symbol    string
	timeframe string

	surfaces    []*canvas.Surface
	storeUnsubs []func()

	toolbar     *panels.Toolbar
	sheet       *panels.PropertySheet
	surfaceArea *fyne.Container
	statusBar   *widget.Label
}

// New creates the main window over the shared state and store registry.
func New(fyneApp fyne.App, state *app.State, registry *annotation.Registry, p *prefs.Prefs, log zerolog.Logger) *MainWindow {
	win := fyneApp.NewWindow("Chart Annotator")

	mw := &MainWindow{
		Window:    win,
		app:       fyneApp,
		log:       log.With().Str("component", "mainwindow").Logger(),
		state:     state,
		registry:  registry,
		prefs:     p,
		symbol:    orDefault(p.String(prefs.KeyLastSymbol), "BTCUSD"),
		timeframe: orDefault(p.String(prefs.KeyLastTimeframe), "1h"),
	}

	state.SetToolPanelVisible(p.Bool(prefs.KeyToolPanelVisible, true))
	state.SetDefaultStyle(p.Style())

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeyboard()

	win.SetOnClosed(mw.persistPrefs)
	win.Resize(fyne.NewSize(1280, 800))
	return mw
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func (mw *MainWindow) setupUI() {
	mw.toolbar = panels.NewToolbar(mw.state)
	mw.sheet = panels.NewPropertySheet(mw.log, nil)
	mw.statusBar = widget.NewLabel("")

	symbolEntry := widget.NewEntry()
	symbolEntry.SetText(mw.symbol)
	symbolEntry.OnSubmitted = func(s string) {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || s == mw.symbol {
			return
		}
		mw.symbol = s
		mw.switchContext()
	}

	tfSelect := widget.NewSelect(timeframes, func(tf string) {
		if tf == mw.timeframe {
			return
		}
		mw.timeframe = tf
		mw.switchContext()
	})
	tfSelect.SetSelected(mw.timeframe)

	topBar := container.NewHBox(
		widget.NewLabel("Symbol"), symbolEntry,
		widget.NewLabel("Timeframe"), tfSelect,
	)

	mw.surfaceArea = container.NewWithoutLayout()
	mw.buildSurfaces()

	side := container.NewVBox(mw.toolbar.Widget(), widget.NewSeparator(), mw.sheet.Widget())
	split := container.NewHSplit(side, mw.surfaceArea)
	split.SetOffset(0.2)

	mw.SetContent(container.NewBorder(topBar, mw.statusBar, nil, nil, split))
}

// buildSurfaces (re)creates the primary and auxiliary surfaces for the
// current symbol/timeframe.
func (mw *MainWindow) buildSurfaces() {
	for _, s := range mw.surfaces {
		s.Close()
	}
	for _, unsub := range mw.storeUnsubs {
		unsub()
	}
	mw.surfaces = nil
	mw.storeUnsubs = nil

	primary := mw.buildSurface(primarySurfaceID)
	aux := mw.buildSurface(auxiliarySurfaceID)
	mw.surfaces = []*canvas.Surface{primary, aux}

	// Primary starts active for drawing; a click on the auxiliary surface
	// activates it instead of drawing.
	mw.state.ActivateSurface(primarySurfaceID)

	split := container.NewVSplit(primary, aux)
	split.SetOffset(0.7)
	mw.surfaceArea.Objects = []fyne.CanvasObject{split}
	mw.surfaceArea.Layout = &fillLayout{}
	mw.surfaceArea.Refresh()

	mw.updateStatus()
}

func (mw *MainWindow) buildSurface(surfaceID string) *canvas.Surface {
	ctx := annotation.Context{Symbol: mw.symbol, Timeframe: mw.timeframe, SurfaceID: surfaceID}
	store := mw.registry.Get(ctx)
	unsub := store.Subscribe(func(annotation.Change) { mw.updateStatus() })
	mw.storeUnsubs = append(mw.storeUnsubs, unsub)

	series := demoSeries(mw.symbol, mw.timeframe)
	scale := chart.NewScale(series, mw.timeframe == "1D")
	lo, hi := priceBounds(series)
	scale.SetVisibleRange(0, series.Len()-1, lo, hi)

	ctrl := interaction.NewController(store, scale, mw.state.DefaultStyle, mw.log)
	ctrl.OnSelectionChanged = func(id string) {
		if mw.state.ActiveSurfaceID() == surfaceID || id != "" {
			mw.sheet.SetTarget(store, id)
		}
	}
	ctrl.OnDrawCompleted = func(a annotation.Annotation) {
		mw.sheet.SetTarget(store, a.ID)
	}
	ctrl.OnTextEntryRequested = func(annotation.DomainPoint) {
		mw.promptText(ctrl)
	}
	ctrl.OnContextMenu = func(id string, _ geometry.Point2D) {
		mw.showContextMenu(store, ctrl, id)
	}

	return canvas.NewSurface(surfaceID, store, scale, ctrl, mw.state.ActiveTool, mw.state.ActivateSurface, mw.log)
}

// switchContext repoints every surface at the new symbol/timeframe. Pending
// draws are cancelled so they cannot commit against the wrong context.
func (mw *MainWindow) switchContext() {
	mw.log.Info().Str("symbol", mw.symbol).Str("timeframe", mw.timeframe).Msg("context switch")
	mw.sheet.SetTarget(nil, "")
	mw.buildSurfaces()
	mw.state.Emit(app.EventContextChanged, mw.symbol+":"+mw.timeframe)
}

func (mw *MainWindow) activeSurface() *canvas.Surface {
	id := mw.state.ActiveSurfaceID()
	for _, s := range mw.surfaces {
		if s.ID() == id {
			return s
		}
	}
	if len(mw.surfaces) > 0 {
		return mw.surfaces[0]
	}
	return nil
}

func (mw *MainWindow) setupKeyboard() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		s := mw.activeSurface()
		if s == nil {
			return
		}
		switch ev.Name {
		case fyne.KeyEscape:
			s.Controller().KeyEscape()
		case fyne.KeyDelete, fyne.KeyBackspace:
			s.Controller().KeyDelete()
		case fyne.KeyT:
			mw.state.SetToolPanelVisible(!mw.state.ToolPanelVisible())
		}
	})
}

func (mw *MainWindow) setupMenus() {
	exportItem := fyne.NewMenuItem("Export snapshot...", func() {
		s := mw.activeSurface()
		if s == nil {
			return
		}
		dialog.ShowFileSave(func(w fyne.URIWriteCloser, err error) {
			if err != nil || w == nil {
				return
			}
			path := w.URI().Path()
			_ = w.Close()
			if err := export.WriteFile(s.Store(), path); err != nil {
				dialog.ShowError(err, mw.Window)
				return
			}
			mw.log.Info().Str("path", path).Msg("snapshot exported")
		}, mw.Window)
	})
	importItem := fyne.NewMenuItem("Import snapshot...", func() {
		s := mw.activeSurface()
		if s == nil {
			return
		}
		dialog.ShowFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil || r == nil {
				return
			}
			path := r.URI().Path()
			_ = r.Close()
			n, err := export.ReadFile(s.Store(), path)
			if err != nil {
				dialog.ShowError(err, mw.Window)
				return
			}
			mw.log.Info().Str("path", path).Int("count", n).Msg("snapshot imported")
		}, mw.Window)
	})
	clearItem := fyne.NewMenuItem("Clear all annotations", func() {
		s := mw.activeSurface()
		if s == nil {
			return
		}
		dialog.ShowConfirm("Clear all", "Remove every annotation in this context?", func(ok bool) {
			if ok {
				s.Store().ClearAll()
				mw.sheet.SetTarget(nil, "")
			}
		}, mw.Window)
	})
	togglePanel := fyne.NewMenuItem("Toggle tool panel", func() {
		mw.state.SetToolPanelVisible(!mw.state.ToolPanelVisible())
	})

	mw.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", exportItem, importItem, fyne.NewMenuItemSeparator(), clearItem),
		fyne.NewMenu("View", togglePanel),
	))
}

// promptText collects the label text for a pending text annotation.
func (mw *MainWindow) promptText(ctrl *interaction.Controller) {
	entry := widget.NewEntry()
	ctrl.SetTextInputFocused(true)
	d := dialog.NewForm("Add text", "Place", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			ctrl.SetTextInputFocused(false)
			if ok {
				ctrl.SubmitText(strings.TrimSpace(entry.Text))
			} else {
				ctrl.CancelTextEntry()
			}
		}, mw.Window)
	d.Show()
	mw.Canvas().Focus(entry)
}

// showContextMenu offers edit/hide/lock/delete for a hit annotation.
func (mw *MainWindow) showContextMenu(store *annotation.Store, ctrl *interaction.Controller, id string) {
	a, ok := store.Get(id)
	if !ok {
		return
	}

	visLabel := "Hide"
	if !a.Visible {
		visLabel = "Show"
	}
	lockLabel := "Lock"
	if a.Locked {
		lockLabel = "Unlock"
	}

	items := []*fyne.MenuItem{
		fyne.NewMenuItem("Edit", func() { mw.sheet.SetTarget(store, id) }),
		fyne.NewMenuItem(visLabel, func() {
			store.Update(id, annotation.Patch{Visible: annotation.Ptr(!a.Visible)})
		}),
		fyne.NewMenuItem(lockLabel, func() {
			store.Update(id, annotation.Patch{Locked: annotation.Ptr(!a.Locked)})
		}),
		fyne.NewMenuItem("Delete", func() {
			store.Delete(id)
			ctrl.SetSelection("")
			mw.sheet.SetTarget(nil, "")
		}),
	}
	menu := fyne.NewMenu("", items...)
	pop := widget.NewPopUpMenu(menu, mw.Canvas())
	pop.ShowAtPosition(fyne.CurrentApp().Driver().AbsolutePositionForObject(mw.surfaceArea))
}

func (mw *MainWindow) updateStatus() {
	s := mw.activeSurface()
	if s == nil {
		mw.statusBar.SetText("")
		return
	}
	mw.statusBar.SetText(fmt.Sprintf("%s %s | surface %s | %d annotations",
		mw.symbol, mw.timeframe, s.ID(), s.Store().Len()))
}

// persistPrefs saves session state on close.
func (mw *MainWindow) persistPrefs() {
	mw.prefs.SetString(prefs.KeyLastSymbol, mw.symbol)
	mw.prefs.SetString(prefs.KeyLastTimeframe, mw.timeframe)
	mw.prefs.SetBool(prefs.KeyToolPanelVisible, mw.state.ToolPanelVisible())
	mw.prefs.SetStyle(mw.state.DefaultStyle())
	if err := mw.prefs.Save(); err != nil {
		mw.log.Warn().Err(err).Msg("saving preferences")
	}
}

// demoSeries synthesizes a deterministic random-walk bar series for a symbol
// and timeframe. It stands in for the external data pipeline.
func demoSeries(symbol, timeframe string) *market.Series {
	var (
		n    int
		step time.Duration
	)
	switch timeframe {
	case "1m":
		n, step = 390, time.Minute
	case "1D":
		n, step = 260, 24*time.Hour
	default:
		n, step = 500, time.Hour
	}

	seed := int64(0)
	for _, c := range symbol {
		seed = seed*31 + int64(c)
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	price := 100 + rng.Float64()*100
	bars := make([]market.Bar, n)
	for i := range bars {
		drift := rng.NormFloat64() * price * 0.004
		open := price
		closeP := price + drift
		high := math.Max(open, closeP) * (1 + rng.Float64()*0.002)
		low := math.Min(open, closeP) * (1 - rng.Float64()*0.002)
		bars[i] = market.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeP,
			Volume: 1000 + rng.Float64()*5000,
		}
		price = closeP
	}
	return market.NewSeries(bars)
}

func priceBounds(series *market.Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < series.Len(); i++ {
		b := series.At(i)
		lo = math.Min(lo, b.Low)
		hi = math.Max(hi, b.High)
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	return lo - span*0.05, hi + span*0.05
}

// fillLayout stretches the single child to the container size.
type fillLayout struct{}

func (l *fillLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Resize(size)
		o.Move(fyne.NewPos(0, 0))
	}
}

func (l *fillLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(400, 300)
}
