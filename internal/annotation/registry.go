package annotation

import (
	"container/list"
	"sync"

	"github.com/rs/zerolog"

	"chart-annotator/internal/storage"
)

// DefaultMaxContexts bounds how many per-context stores the registry keeps
// alive. Visiting many symbol/timeframe/surface combinations in one session
// evicts the least recently used store; its state is already persisted, so
// eviction only drops the in-memory copy.
const DefaultMaxContexts = 32

// Registry hands out one Store per context. It is owned by the application's
// composition root and passed down; it is not ambient state.
type Registry struct {
	mu     sync.Mutex
	log    zerolog.Logger
	kv     storage.KV
	max    int
	stores map[string]*list.Element
	order  *list.List // front = most recently used
}

type registryEntry struct {
	key   string
	store *Store
}

// NewRegistry creates a registry backed by kv, keeping at most max stores
// in memory. max <= 0 uses DefaultMaxContexts.
func NewRegistry(kv storage.KV, max int, log zerolog.Logger) *Registry {
	if max <= 0 {
		max = DefaultMaxContexts
	}
	return &Registry{
		log:    log.With().Str("component", "annotation-registry").Logger(),
		kv:     kv,
		max:    max,
		stores: make(map[string]*list.Element),
		order:  list.New(),
	}
}

// Get returns the store for ctx, creating and loading it on first access.
func (r *Registry) Get(ctx Context) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ctx.Key()
	if el, ok := r.stores[key]; ok {
		r.order.MoveToFront(el)
		return el.Value.(*registryEntry).store
	}

	store := NewStore(r.kv, ctx, r.log)
	el := r.order.PushFront(&registryEntry{key: key, store: store})
	r.stores[key] = el

	for r.order.Len() > r.max {
		oldest := r.order.Back()
		entry := oldest.Value.(*registryEntry)
		r.order.Remove(oldest)
		delete(r.stores, entry.key)
		r.log.Debug().Str("context", entry.key).Msg("evicted context store")
	}

	return store
}

// Close drops the store for ctx from the registry. Its persisted state is
// untouched.
func (r *Registry) Close(ctx Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ctx.Key()
	if el, ok := r.stores[key]; ok {
		r.order.Remove(el)
		delete(r.stores, key)
	}
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
