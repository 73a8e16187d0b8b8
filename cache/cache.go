package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sineshashi/sinecache/aol"
	"github.com/sineshashi/sinecache/internal/singleflight"
	"github.com/sineshashi/sinecache/policy/lru"
)

// cache is the concurrent facade: one mutex serializes every store
// mutation, and the matching log record is emitted while that mutex is
// still held, so for a single cache the log order equals the order of
// observable store mutations.
type cache[K comparable, V any] struct {
	mu    sync.Mutex
	store *Store[K, V]
	hub   *eventHub[K, V]

	// persistReads is resolved once at construction; see Options.Log.
	persistReads bool

	closed atomic.Bool
	opt    Options[K, V]

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[K, V]
}

// New constructs a cache from the provided Options and, when a log is
// configured, replays it into the store before returning.
//
// Replay stops silently at a truncated tail (the state up to the last
// complete record is recovered); any other decode failure is returned as a
// *ReplayError carrying the byte offset of the bad record.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[K]()
	}
	if err := opt.Log.validate(); err != nil {
		return nil, err
	}

	st := NewStore[K, V](opt.MaxSize, opt.Policy)
	hub, err := newEventHub(opt.Log, opt.Metrics)
	if err != nil {
		return nil, err
	}
	c := &cache[K, V]{
		store:        st,
		hub:          hub,
		persistReads: resolvePersistReads(opt.Policy, opt.Log),
		opt:          opt,
	}

	if hub.configured() {
		if err := c.replay(); err != nil {
			_ = hub.close()
			return nil, err
		}
	}

	// Observability hooks go live only now, so replayed mutations stay
	// silent.
	st.onEvict = func(k K, v V) {
		opt.Metrics.Evict()
		if opt.OnEvict != nil {
			opt.OnEvict(k, v)
		}
	}
	return c, nil
}

// replay iterates the log from offset 0 and re-applies each record to the
// store without re-emitting events. The cache is not yet shared, so no
// locking is needed; the facade is published only after replay completes.
func (c *cache[K, V]) replay() error {
	it, err := c.hub.iter()
	if err != nil {
		return err
	}
	defer func() { _ = it.Close() }()

	for {
		rec, ok, err := it.Next()
		if err != nil {
			if errors.Is(err, aol.ErrTruncatedTail) {
				// Abrupt termination left a partial record; everything
				// before it has been applied.
				return nil
			}
			var mal *aol.MalformedRecordError
			if errors.As(err, &mal) {
				return &ReplayError{Offset: mal.Offset, Err: err}
			}
			return err
		}
		if !ok {
			return nil
		}
		switch rec.Op {
		case aol.OpGet:
			c.store.Get(rec.Key)
		case aol.OpPut:
			c.store.Put(rec.Key, rec.Value)
		case aol.OpRemove:
			c.store.Remove(rec.Key)
		}
	}
}

// ---- Cache[K,V] implementation ----

// Get returns the value for k, promotes the entry, and — when read
// persistence is on — records the read.
func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	c.mu.Lock()
	v, ok := c.store.Get(k)
	if c.persistReads {
		_ = c.hub.onEvent(aol.Record[K, V]{Op: aol.OpGet, Key: k})
	}
	c.mu.Unlock()

	if ok {
		c.opt.Metrics.Hit()
	} else {
		c.opt.Metrics.Miss()
	}
	return v, ok
}

// GetRef returns a pointer into the store; see the interface warning about
// its concurrency caveats.
func (c *cache[K, V]) GetRef(k K) (*V, bool) {
	if c.closed.Load() {
		return nil, false
	}
	c.mu.Lock()
	p, ok := c.store.GetMut(k)
	if c.persistReads {
		_ = c.hub.onEvent(aol.Record[K, V]{Op: aol.OpGet, Key: k})
	}
	c.mu.Unlock()

	if ok {
		c.opt.Metrics.Hit()
	} else {
		c.opt.Metrics.Miss()
	}
	return p, ok
}

// Put inserts or updates k→v and records the write.
func (c *cache[K, V]) Put(k K, v V) {
	if c.closed.Load() {
		return
	}
	c.mu.Lock()
	c.store.Put(k, v)
	_ = c.hub.onEvent(aol.Record[K, V]{Op: aol.OpPut, Key: k, Value: v})
	size := c.store.Size()
	c.mu.Unlock()

	c.opt.Metrics.Size(size)
}

// Remove deletes k and records the deletion.
func (c *cache[K, V]) Remove(k K) {
	if c.closed.Load() {
		return
	}
	c.mu.Lock()
	c.store.Remove(k)
	_ = c.hub.onEvent(aol.Record[K, V]{Op: aol.OpRemove, Key: k})
	size := c.store.Size()
	c.mu.Unlock()

	c.opt.Metrics.Size(size)
}

// Contains reports presence without promoting the entry or logging.
func (c *cache[K, V]) Contains(k K) bool {
	if c.closed.Load() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Contains(k)
}

// Size returns the number of resident entries.
func (c *cache[K, V]) Size() int {
	if c.closed.Load() {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Size()
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key. A successful load is
// stored through the normal Put path and therefore reaches the log.
func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	// fast path
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return c.sf.Do(ctx, k, func() (V, error) {
		// double-check after flight join
		if v, ok := c.Get(k); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, k)
		if err == nil {
			c.Put(k, v)
		}
		return v, err
	})
}

// Err surfaces the subscriber's latched persistence failure.
func (c *cache[K, V]) Err() error { return c.hub.err() }

// Close marks the cache closed and tears down persistence: the flusher
// stops, staged records are drained with a final flush, and the log file
// is closed. Subsequent operations are ignored. Close is idempotent.
func (c *cache[K, V]) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.hub.close()
}
