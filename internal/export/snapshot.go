// Package export serializes an annotation set to a portable snapshot so it
// can be moved between databases, machines, or contexts.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"chart-annotator/internal/annotation"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// Snapshot is the portable form of one context's annotation set.
type Snapshot struct {
	Version     int                     `msgpack:"version"`
	Symbol      string                  `msgpack:"symbol"`
	Timeframe   string                  `msgpack:"timeframe"`
	SurfaceID   string                  `msgpack:"surface_id"`
	ExportedAt  time.Time               `msgpack:"exported_at"`
	Annotations []annotation.Annotation `msgpack:"annotations"`
}

// Export captures the store's current annotation set.
func Export(store *annotation.Store) Snapshot {
	ctx := store.Context()
	return Snapshot{
		Version:     SnapshotVersion,
		Symbol:      ctx.Symbol,
		Timeframe:   ctx.Timeframe,
		SurfaceID:   ctx.SurfaceID,
		ExportedAt:  time.Now().UTC(),
		Annotations: store.GetAll(),
	}
}

// Marshal encodes a snapshot.
func Marshal(s Snapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

// Unmarshal decodes a snapshot and validates its version.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s, nil
}

// Import replays a snapshot's annotations into the store through its create
// API, so persistence and subscribers stay consistent. Fresh ids are
// assigned; the snapshot's creation order is preserved. Returns the number
// of annotations created.
func Import(store *annotation.Store, s Snapshot) int {
	for _, a := range s.Annotations {
		store.Create(a)
	}
	return len(s.Annotations)
}

// WriteFile exports the store to a snapshot file.
func WriteFile(store *annotation.Store, path string) error {
	data, err := Marshal(Export(store))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile loads a snapshot file and imports it into the store.
func ReadFile(store *annotation.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s, err := Unmarshal(data)
	if err != nil {
		return 0, err
	}
	return Import(store, s), nil
}
