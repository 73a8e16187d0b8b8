package cache

import (
	"github.com/sineshashi/sinecache/aol"
)

// eventHub is the thin adapter between store mutations and the log
// subscriber. When no log is configured it swallows events; iteration then
// fails with aol.ErrNotConfigured.
type eventHub[K comparable, V any] struct {
	sub *aol.Subscriber[K, V]
}

// newEventHub builds the subscriber (which spawns the periodic flusher
// when applicable) from the optional log configuration.
func newEventHub[K comparable, V any](opt *LogOptions[K, V], m Metrics) (*eventHub[K, V], error) {
	if opt == nil {
		return &eventHub[K, V]{}, nil
	}
	sub, err := aol.NewSubscriber(aol.SubscriberOptions[K, V]{
		Dir:         opt.Dir,
		Name:        opt.Name,
		FlushPeriod: opt.FlushPeriod,
		Keys:        opt.Keys,
		Vals:        opt.Vals,
		Logger:      opt.Logger,
		OnAppend:    m.LogAppend,
		OnError:     func(error) { m.LogError() },
	})
	if err != nil {
		return nil, err
	}
	return &eventHub[K, V]{sub: sub}, nil
}

func (h *eventHub[K, V]) configured() bool { return h.sub != nil }

// onEvent forwards a record to the subscriber when configured. The
// subscriber latches append failures; the returned error mirrors them.
func (h *eventHub[K, V]) onEvent(r aol.Record[K, V]) error {
	if h.sub == nil {
		return nil
	}
	return h.sub.OnEvent(r)
}

// iter opens a log iterator, or fails with aol.ErrNotConfigured.
func (h *eventHub[K, V]) iter() (*aol.Iterator[K, V], error) {
	if h.sub == nil {
		return nil, aol.ErrNotConfigured
	}
	return h.sub.Iter()
}

// err returns the subscriber's latched append failure, if any.
func (h *eventHub[K, V]) err() error {
	if h.sub == nil {
		return nil
	}
	return h.sub.Err()
}

// close stops the flusher, drains staged records, and closes the file.
func (h *eventHub[K, V]) close() error {
	if h.sub == nil {
		return nil
	}
	return h.sub.Close()
}
