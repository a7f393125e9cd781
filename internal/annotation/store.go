package annotation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chart-annotator/internal/storage"
)

// Context scopes one independent annotation set. Switching any component of
// the tuple swaps to a disjoint set with its own persisted record.
type Context struct {
	Symbol    string
	Timeframe string
	SurfaceID string
}

// Key returns the deterministic storage key for this context.
func (c Context) Key() string {
	return fmt.Sprintf("annotations:%s:%s:%s",
		strings.ToUpper(strings.TrimSpace(c.Symbol)), c.Timeframe, c.SurfaceID)
}

// envelopeVersion is the persisted format version. Bump when the Annotation
// wire shape changes incompatibly.
const envelopeVersion = 1

// envelope is the persisted record for one context.
type envelope struct {
	Version     int          `json:"version"`
	Annotations []Annotation `json:"annotations"`
}

// ChangeKind identifies what a store notification describes.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeUpdated
	ChangeDeleted
	ChangeCleared
	ChangeContextSwitched
)

// Change is delivered to subscribers after every store mutation, before the
// mutating call returns.
type Change struct {
	Kind       ChangeKind
	Context    Context
	Annotation *Annotation // nil for Cleared and ContextSwitched
}

// Listener receives store change notifications.
type Listener func(Change)

// Store owns the authoritative annotation set for one context. All mutation
// goes through Create/Update/Delete/ClearAll; every mutation persists
// synchronously and notifies subscribers before returning.
type Store struct {
	mu      sync.RWMutex
	baseLog zerolog.Logger
	log     zerolog.Logger
	kv      storage.KV
	ctx     Context
	items   []*Annotation // creation order
	byID    map[string]*Annotation
	subs    map[int]Listener
	nextSub int
	now     func() time.Time
}

// NewStore creates a store bound to kv and loads the set for ctx. A missing
// or corrupt persisted record yields an empty context, never an error.
func NewStore(kv storage.KV, ctx Context, log zerolog.Logger) *Store {
	s := &Store{
		baseLog: log.With().Str("component", "annotation-store").Logger(),
		kv:      kv,
		byID:    make(map[string]*Annotation),
		subs:    make(map[int]Listener),
		now:     time.Now,
	}
	s.loadContext(ctx)
	return s
}

// Context returns the store's current context.
func (s *Store) Context() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Create assigns an id, timestamps, and defaults to the payload, appends it,
// persists, and notifies. The stored copy is returned.
func (s *Store) Create(payload Annotation) Annotation {
	s.mu.Lock()

	a := payload.Clone()
	a.ID = uuid.NewString()
	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Color == "" {
		a.Color = DefaultStyle.Color
	}
	if a.Thickness <= 0 {
		a.Thickness = DefaultStyle.Thickness
	}

	s.items = append(s.items, &a)
	s.byID[a.ID] = &a
	s.persistLocked()

	result := a.Clone()
	ctx := s.ctx
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeCreated, Context: ctx, Annotation: &result})
	return result.Clone()
}

// Update merges the patch into the annotation with the given id, preserving
// id, type, and created_at and stamping updated_at. Returns ok=false when the
// id is unknown.
func (s *Store) Update(id string, patch Patch) (Annotation, bool) {
	s.mu.Lock()

	a, exists := s.byID[id]
	if !exists {
		s.mu.Unlock()
		return Annotation{}, false
	}

	patch.apply(a)
	a.UpdatedAt = s.now().UTC()
	if a.UpdatedAt.Before(a.CreatedAt) {
		a.UpdatedAt = a.CreatedAt
	}
	s.persistLocked()

	result := a.Clone()
	ctx := s.ctx
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeUpdated, Context: ctx, Annotation: &result})
	return result.Clone(), true
}

// Delete removes the annotation with the given id. Returns false when the id
// is unknown.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()

	a, exists := s.byID[id]
	if !exists {
		s.mu.Unlock()
		return false
	}

	delete(s.byID, id)
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.persistLocked()

	result := a.Clone()
	ctx := s.ctx
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeDeleted, Context: ctx, Annotation: &result})
	return true
}

// ClearAll removes every annotation in the current context.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.items = nil
	s.byID = make(map[string]*Annotation)
	s.persistLocked()
	ctx := s.ctx
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeCleared, Context: ctx})
}

// Get returns the annotation with the given id.
func (s *Store) Get(id string) (Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return Annotation{}, false
	}
	return a.Clone(), true
}

// GetAll returns every annotation in creation order.
func (s *Store) GetAll() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]Annotation, len(s.items))
	for i, a := range s.items {
		all[i] = a.Clone()
	}
	return all
}

// Len returns the number of annotations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SwitchContext flushes the in-memory set and loads (or initializes empty)
// the set for the new context.
func (s *Store) SwitchContext(ctx Context) {
	s.mu.Lock()
	if ctx == s.ctx {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.loadContext(ctx)
	s.notify(Change{Kind: ChangeContextSwitched, Context: ctx})
}

// loadContext replaces the in-memory set with the persisted set for ctx.
func (s *Store) loadContext(ctx Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx = ctx
	s.items = nil
	s.byID = make(map[string]*Annotation)
	s.log = s.baseLog.With().Str("context", ctx.Key()).Logger()

	payload, ok, err := s.kv.Get(ctx.Key())
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load annotations, starting empty")
		return
	}
	if !ok {
		return
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.log.Warn().Err(err).Msg("corrupt annotation record, starting empty")
		return
	}
	if env.Version > envelopeVersion {
		s.log.Warn().Int("version", env.Version).Msg("annotation record from a newer format, starting empty")
		return
	}

	for i := range env.Annotations {
		a := env.Annotations[i].Clone()
		if a.ID == "" {
			continue
		}
		s.items = append(s.items, &a)
		s.byID[a.ID] = &a
	}
}

// persistLocked writes the current set through the KV store. Persistence
// failures degrade to in-memory state with a warning; annotation loss is
// always preferable to breaking chart interaction.
func (s *Store) persistLocked() {
	env := envelope{Version: envelopeVersion, Annotations: make([]Annotation, len(s.items))}
	for i, a := range s.items {
		env.Annotations[i] = a.Clone()
	}

	payload, err := json.Marshal(env)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to encode annotations")
		return
	}
	if err := s.kv.Put(s.ctx.Key(), payload); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist annotations")
	}
}

func (s *Store) notify(change Change) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(change)
	}
}
