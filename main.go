// Package main provides the entry point for the Chart Annotator application.
package main

import (
	"os"
	"path/filepath"
	"time"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/app"
	"chart-annotator/internal/storage"
	"chart-annotator/ui/mainwindow"
	"chart-annotator/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"
)

const (
	appTitle   = "Chart Annotator"
	appVersion = "0.1.0"
)

// maxCachedStores bounds how many per-surface stores stay resident at once.
const maxCachedStores = 32

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	log.Info().Str("version", appVersion).Msgf("starting %s", appTitle)

	appPrefs := prefs.Load()

	kv := openStore(appPrefs, log)
	defer kv.Close()

	registry := annotation.NewRegistry(kv, maxCachedStores, log)
	appState := app.NewState()

	fyneApp := fyneapp.NewWithID("chart-annotator")
	fyneApp.Settings().SetTheme(&app.ChartTheme{})

	win := mainwindow.New(fyneApp, appState, registry, appPrefs, log)
	win.ShowAndRun()
}

// openStore opens the annotation database, falling back to an in-memory
// store when the file cannot be opened so the UI still comes up.
func openStore(p *prefs.Prefs, log zerolog.Logger) storage.KV {
	dbPath := p.String(prefs.KeyDatabasePath)
	if dbPath == "" {
		dbPath = defaultDatabasePath()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("cannot create data directory, using in-memory store")
		return storage.NewMemKV()
	}

	kv, err := storage.OpenSQLite(dbPath, log)
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("cannot open database, using in-memory store")
		return storage.NewMemKV()
	}

	log.Info().Str("path", dbPath).Msg("annotation database opened")
	return kv
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "chart-annotator", "annotations.db")
}
