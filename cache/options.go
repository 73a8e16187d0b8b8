package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sineshashi/sinecache/aol"
	"github.com/sineshashi/sinecache/policy"
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict()
	Size(entries int)
	// LogAppend reports records handed to the OS by the append-only log.
	LogAppend(records int)
	// LogError reports a failed log append.
	LogError()
}

// Options configures the cache behavior. Zero values are safe; sane
// defaults are applied in New():
//   - nil Policy  => LRU
//   - nil Metrics => NoopMetrics
//   - nil Log     => no persistence
type Options[K comparable, V any] struct {
	// MaxSize is the entry count limit. When a new key would exceed it the
	// policy chooses a victim. A value <= 0 means unbounded, which is the
	// intended configuration for the NoEviction policy (other policies
	// then simply never evict).
	MaxSize int

	// Policy is the pluggable eviction policy (FIFO/LRU/LFU/NoEviction or
	// custom); nil => LRU by default.
	//
	// Changing the policy between runs against the same log is undefined:
	// replay drives the new policy's OnSet/OnGet with the old event
	// stream.
	Policy policy.Policy[K]

	// Log enables persistence via an append-only log. Nil disables it.
	Log *LogOptions[K, V]

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// Observability.
	// OnEvict is called for every policy eviction while the cache mutex is
	// held; keep callbacks lightweight. Not invoked during replay.
	OnEvict func(k K, v V)
	Metrics Metrics
}

// LogOptions configure the append-only log behind a cache. Dir and Name
// are both required; the log file lives at <Dir>/<Name>.dat and Dir is
// created if missing. Two caches must never share the same (Dir, Name)
// pair concurrently.
type LogOptions[K comparable, V any] struct {
	// Dir is the folder for the log file.
	Dir string
	// Name is the cache name and the base of the log file name. It must be
	// unique per concurrently open cache.
	Name string

	// FlushPeriod selects the write mode. Zero: durable-per-write — every
	// operation appends and flushes its record before returning. Positive:
	// records are staged in memory and batch-flushed every period by a
	// background flusher; a crash may lose the records staged since the
	// last tick. Negative values are rejected.
	FlushPeriod time.Duration

	// PersistReads controls whether Get operations are recorded. It is
	// only honored for policies whose victim choice does not depend on
	// reads (NoEviction, and custom policies that report so or do not
	// say): for FIFO/LRU/LFU it is forced on, since replay cannot rebuild
	// recency or frequency order without the reads.
	PersistReads bool

	// Keys/Vals encode key and value payloads; nil defaults to aol.JSON.
	Keys aol.Codec[K]
	Vals aol.Codec[V]

	// Logger receives background flusher failures. Nil => no-op logger.
	Logger *zap.Logger
}

// validate enforces the construction-time configuration rules.
func (l *LogOptions[K, V]) validate() error {
	if l == nil {
		return nil
	}
	if l.Dir == "" {
		return ErrMissingDir
	}
	if l.Name == "" {
		return ErrMissingName
	}
	if l.FlushPeriod < 0 {
		return ErrNegativeFlushPeriod
	}
	return nil
}

// resolvePersistReads applies the read-recording rules: a policy that
// declares its state depends on reads forces recording on; otherwise the
// log configuration decides.
func resolvePersistReads[K comparable, V any](pol policy.Policy[K], l *LogOptions[K, V]) bool {
	if l == nil {
		return false
	}
	if rr, ok := pol.(policy.ReadRecorder); ok && rr.RecordsReads() {
		return true
	}
	return l.PersistReads
}
