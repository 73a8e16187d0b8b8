package aol

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SubscriberOptions configure a Subscriber. Dir and Name are required; the
// log file is created at <Dir>/<Name>.dat and Dir is created if missing.
type SubscriberOptions[K, V any] struct {
	// Dir is the folder holding the log file.
	Dir string
	// Name is the cache name; it becomes the log file name.
	Name string
	// FlushPeriod selects the write mode. Zero means durable-per-write:
	// every record is appended and flushed before OnEvent returns. A
	// positive period stages records in memory and batch-flushes them from
	// a background flusher every period. Negative periods are rejected.
	FlushPeriod time.Duration
	// Keys/Vals encode payloads; nil defaults to JSON.
	Keys Codec[K]
	Vals Codec[V]
	// Logger receives background-flusher failures, which have no caller to
	// return to. Nil defaults to a no-op logger.
	Logger *zap.Logger
	// OnAppend and OnError are optional observability hooks, invoked with
	// the number of records handed to the OS and with append failures.
	OnAppend func(records int)
	OnError  func(err error)
}

// Subscriber owns a Log plus the in-memory staging queue and decides, per
// configuration, whether a record is appended immediately or left for the
// periodic flusher it spawns.
//
// Records reach the file in OnEvent order: the staging queue is FIFO and a
// batch is written as one contiguous buffer under the log's append mutex.
//
// In batched mode a crash may lose the records staged since the last tick;
// that window is bounded by FlushPeriod.
type Subscriber[K, V any] struct {
	log      *Log[K, V]
	period   time.Duration
	logger   *zap.Logger
	onAppend func(int)
	onError  func(error)

	mu     sync.Mutex
	staged []Record[K, V]
	sticky error // first append failure; observable via Err

	stop      chan struct{}
	flusherWG sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewSubscriber creates the log directory and file and, for a positive
// FlushPeriod, spawns the periodic flusher.
func NewSubscriber[K, V any](opt SubscriberOptions[K, V]) (*Subscriber[K, V], error) {
	if opt.Dir == "" || opt.Name == "" {
		return nil, errors.New("aol: subscriber requires both dir and cache name")
	}
	if opt.FlushPeriod < 0 {
		return nil, errors.Errorf("aol: negative flush period %v", opt.FlushPeriod)
	}
	if err := os.MkdirAll(opt.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "aol: create dir %s", opt.Dir)
	}
	l, err := Open[K, V](filepath.Join(opt.Dir, opt.Name+".dat"), opt.Keys, opt.Vals)
	if err != nil {
		return nil, err
	}
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Subscriber[K, V]{
		log:      l,
		period:   opt.FlushPeriod,
		logger:   logger,
		onAppend: opt.OnAppend,
		onError:  opt.OnError,
		stop:     make(chan struct{}),
	}
	if s.period > 0 {
		s.flusherWG.Add(1)
		go s.runFlusher()
	}
	return s, nil
}

// OnEvent hands one record to the subscriber. In durable-per-write mode it
// appends and flushes before returning; in batched mode it stages the
// record and returns immediately. The returned error is the append failure
// (durable mode) or the latched flusher failure (batched mode), so a
// poisoned subscriber is never silent.
func (s *Subscriber[K, V]) OnEvent(r Record[K, V]) error {
	if s.period > 0 {
		s.mu.Lock()
		s.staged = append(s.staged, r)
		err := s.sticky
		s.mu.Unlock()
		return err
	}
	if err := s.log.Append(r, true); err != nil {
		s.fail(err)
		return err
	}
	if s.onAppend != nil {
		s.onAppend(1)
	}
	return nil
}

// Err returns the first append failure observed, if any.
func (s *Subscriber[K, V]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sticky
}

// Iter opens an iterator over the log from offset 0.
func (s *Subscriber[K, V]) Iter() (*Iterator[K, V], error) { return s.log.Iter() }

// Close stops the flusher, drains any staged records with a final batched
// write, and closes the log file.
func (s *Subscriber[K, V]) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.flusherWG.Wait()
		err := s.flushToDisk()
		if cerr := s.log.Close(); err == nil {
			err = cerr
		}
		s.closeErr = err
	})
	return s.closeErr
}

// runFlusher wakes every period, drains the staging queue, and issues one
// batched write. It is the only goroutine draining the queue, so batches
// reach the file in staging order.
func (s *Subscriber[K, V]) runFlusher() {
	defer s.flusherWG.Done()
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.flushToDisk(); err != nil {
				s.logger.Error("aol periodic flush failed",
					zap.String("path", s.log.Path()),
					zap.Error(err))
			}
		}
	}
}

// flushToDisk atomically drains the staging queue and writes it as a
// single batch. On failure the drained records are dropped and the error
// is latched.
func (s *Subscriber[K, V]) flushToDisk() error {
	s.mu.Lock()
	records := s.staged
	s.staged = nil
	s.mu.Unlock()
	if len(records) == 0 {
		return nil
	}
	if err := s.log.AppendBatch(records, true); err != nil {
		s.fail(err)
		return err
	}
	if s.onAppend != nil {
		s.onAppend(len(records))
	}
	return nil
}

// fail latches the first error and reports it to the hooks.
func (s *Subscriber[K, V]) fail(err error) {
	s.mu.Lock()
	if s.sticky == nil {
		s.sticky = err
	}
	s.mu.Unlock()
	if s.onError != nil {
		s.onError(err)
	}
}
