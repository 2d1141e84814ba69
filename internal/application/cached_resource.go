package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"epages-rest-layer/internal/ports"

	"github.com/rs/zerolog"
)

// DefaultWait is the minimum interval between two fetches of a cached
// static resource.
const DefaultWait = 10 * time.Minute

// CacheOptions configure where and how long static resources are cached. A nil
// Store keeps snapshots in process memory.
type CacheOptions struct {
	Store     ports.SnapshotStore
	Clock     ports.Clock
	Wait      time.Duration
	Namespace string // prefixes every key, e.g. the shop id
}

func (o CacheOptions) withDefaults() CacheOptions {
	if o.Store == nil {
		o.Store = newLocalStore()
	}
	if o.Clock == nil {
		o.Clock = ports.SystemClock{}
	}
	if o.Wait <= 0 {
		o.Wait = DefaultWait
	}
	return o
}

func (o CacheOptions) key(name string) string {
	if o.Namespace == "" {
		return name
	}
	return o.Namespace + ":" + name
}

// LoadFunc fetches a fresh value from the server.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// CachedResource is a lazily loaded value that is fetched at most once per
// wait interval. The value is kept in a snapshot store, so several processes
// can share it.
type CachedResource[T any] struct {
	key    string
	load   LoadFunc[T]
	opts   CacheOptions
	logger zerolog.Logger

	mu sync.Mutex
}

// NewCachedResource creates an empty cached resource stored under key.
func NewCachedResource[T any](key string, load LoadFunc[T], opts CacheOptions, logger zerolog.Logger) *CachedResource[T] {
	opts = opts.withDefaults()
	return &CachedResource[T]{
		key:    opts.key(key),
		load:   load,
		opts:   opts,
		logger: logger.With().Str("cache_key", opts.key(key)).Logger(),
	}
}

// Get returns the cached value while it is fresh. Otherwise the stored value
// is dropped and loaded again; if that load fails the resource stays empty.
func (r *CachedResource[T]) Get(ctx context.Context) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.fresh(ctx); ok {
		return v, nil
	}

	if err := r.opts.Store.Delete(ctx, r.key); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to clear cached resource")
	}
	var zero T
	v, err := r.load(ctx)
	if err != nil {
		return zero, err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", r.key, err)
	}
	next := r.opts.Clock.Now().Add(r.opts.Wait)
	if err := r.opts.Store.Put(ctx, r.key, ports.Snapshot{Payload: payload, NextAllowed: next}); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to store cached resource")
	}
	r.logger.Debug().Time("next_allowed", next).Msg("Loaded cached resource")
	return v, nil
}

// IsFresh reports whether a value is stored and may not be fetched again yet.
func (r *CachedResource[T]) IsFresh(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.fresh(ctx)
	return ok
}

func (r *CachedResource[T]) fresh(ctx context.Context) (T, bool) {
	var v T
	snap, ok, err := r.opts.Store.Get(ctx, r.key)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to read cached resource")
		return v, false
	}
	if !ok || !r.opts.Clock.Now().Before(snap.NextAllowed) {
		return v, false
	}
	if err := json.Unmarshal(snap.Payload, &v); err != nil {
		r.logger.Warn().Err(err).Msg("Dropping unreadable cached resource")
		return v, false
	}
	return v, true
}

// Reset empties the resource; the next Get loads it again.
func (r *CachedResource[T]) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.opts.Store.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("failed to reset %s: %w", r.key, err)
	}
	return nil
}

// localStore is the fallback snapshot store of a single process.
type localStore struct {
	mu      sync.Mutex
	entries map[string]ports.Snapshot
}

func newLocalStore() *localStore {
	return &localStore{entries: make(map[string]ports.Snapshot)}
}

func (s *localStore) Get(_ context.Context, key string) (*ports.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &snap, true, nil
}

func (s *localStore) Put(_ context.Context, key string, snap ports.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = snap
	return nil
}

func (s *localStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
