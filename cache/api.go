package cache

import "context"

// Cache is a concurrent in-memory key/value cache with a pluggable
// eviction policy and optional append-only-log persistence. All methods
// are safe for concurrent use by multiple goroutines.
//
// Every operation is amortized O(1) (under the LFU policy, Put and Remove
// also pay for the frequency walk described in package lfu) plus, when
// persistence is configured,
// the cost of emitting one log record (a staged enqueue in periodic-flush
// mode, an append+flush in durable-per-write mode).
type Cache[K comparable, V any] interface {
	// Get returns the value for k and a presence flag. The entry is
	// promoted according to the active policy.
	Get(k K) (V, bool)

	// GetRef returns a pointer to the stored value. The pointer is NOT
	// protected by the cache mutex after GetRef returns: a concurrent
	// eviction or Remove may race with accesses through it. Reserve it for
	// single-goroutine use or externally synchronized call sites.
	GetRef(k K) (*V, bool)

	// Put inserts or updates k→v, evicting a victim first when a new key
	// would exceed the capacity.
	Put(k K, v V)

	// Remove deletes k if present.
	Remove(k K)

	// Contains reports whether k is present without touching the policy.
	Contains(k K) bool

	// Size returns the number of resident entries.
	Size() int

	// GetOrLoad returns the value for k, loading it via Options.Loader on
	// miss. Concurrent loads for the same key are coalesced. If no Loader
	// was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// Err returns the first persistence failure observed, if any. The
	// cache keeps serving from memory after a log failure; Err is how a
	// caller finds out the log is no longer complete.
	Err() error

	// Close stops the background flusher, drains staged records with a
	// final flush, and closes the log file. The cache ignores operations
	// after Close.
	Close() error
}
