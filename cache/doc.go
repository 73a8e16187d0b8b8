// Package cache provides a generic, embeddable in-memory key/value cache
// with pluggable eviction policies (LRU by default), optional durable
// persistence via an append-only log, singleflight loading, and
// lightweight metrics hooks.
//
// # Design
//
//   - Concurrency: one mutex serializes every operation of a Cache. The
//     log record for a mutation is emitted while that mutex is held, so
//     the on-disk record order always matches the order of observable
//     store mutations. Independent Cache instances share nothing and run
//     in parallel freely.
//
//   - Storage: a Store keeps a map[K]*entry for lookups; all per-key
//     ordering metadata lives inside the eviction policy. Map operations
//     are O(1) expected; see package lfu for the one policy-side exception.
//
//   - Policies: eviction is pluggable via the policy package. FIFO, LRU,
//     LFU, and NoEviction are provided; custom policies only implement
//     four methods. LRU is the default.
//
//   - Persistence: with Options.Log set, every Put and Remove (and every
//     Get and GetRef when reads are persisted) appends a record
//     to <Dir>/<Name>.dat — either synchronously (durable-per-write) or
//     staged and batch-flushed every FlushPeriod. On New the log is
//     replayed into the store, reconstructing both contents and policy
//     state. A log that ends mid-record (abrupt termination) is cut at the
//     last complete record and the cache opens normally.
//
//   - GetOrLoad: coalesces concurrent loads for the same key using
//     singleflight. If Loader is nil, GetOrLoad returns ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size and log
//     append/error signals. By default NoopMetrics is used; plug the
//     Prometheus adapter from metrics/prom to export them.
//
// # Basic usage
//
//	// An LRU cache with capacity for 10k entries.
//	c, _ := cache.New[string, []byte](cache.Options[string, []byte]{MaxSize: 10_000})
//	defer c.Close()
//	c.Put("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v // use value
//	}
//	c.Remove("a")
//
// # With persistence
//
//	c, err := cache.New[string, string](cache.Options[string, string]{
//	    MaxSize: 1024,
//	    Policy:  lfu.New[string](),
//	    Log: &cache.LogOptions[string, string]{
//	        Dir:         "./data",
//	        Name:        "sessions",
//	        FlushPeriod: 500 * time.Millisecond, // batched; zero = flush every write
//	    },
//	})
//	// After a restart, the same configuration replays ./data/sessions.dat
//	// and the cache comes back with its previous contents and ordering.
//
// # Choosing a policy
//
//	cache.New[string, string](cache.Options[string, string]{
//	    MaxSize: 50_000,
//	    Policy:  fifo.New[string](), // or lru.New, lfu.New, noeviction.New
//	})
//
// Two caches must never share one log file; give every concurrently open
// cache a distinct (Dir, Name) pair.
package cache
