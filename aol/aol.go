// Package aol implements the append-only log used for cache persistence:
// a binary record codec, the log file with append/flush/iterate, and a
// subscriber that coordinates immediate versus periodic batched flushing.
//
// Durability contract: Append with flushNow=true hands the bytes to the OS
// before returning. The package never calls fsync; crash durability is
// whatever the OS buffer cache provides.
package aol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Log is an append-only record file. Appends are serialized by an internal
// mutex so concurrent callers can never interleave partial records; the
// file is opened O_APPEND and is never truncated or compacted here.
type Log[K, V any] struct {
	path string
	keys Codec[K]
	vals Codec[V]

	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// Open opens the log at path for appending, creating it if missing. Nil
// codecs default to JSON.
func Open[K, V any](path string, keys Codec[K], vals Codec[V]) (*Log[K, V], error) {
	if keys == nil {
		keys = JSON[K]{}
	}
	if vals == nil {
		vals = JSON[V]{}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "aol: open %s", path)
	}
	return &Log[K, V]{
		path: path,
		keys: keys,
		vals: vals,
		f:    f,
		w:    bufio.NewWriter(f),
	}, nil
}

// Path returns the log file path.
func (l *Log[K, V]) Path() string { return l.path }

// Append encodes one record and writes it. With flushNow the buffered
// bytes are handed to the OS before returning.
func (l *Log[K, V]) Append(r Record[K, V], flushNow bool) error {
	buf, err := appendRecord(nil, r, l.keys, l.vals)
	if err != nil {
		return errors.Wrap(err, "aol: encode record")
	}
	return l.write(buf, flushNow)
}

// AppendBatch encodes all records into a single contiguous buffer and
// issues one write, so a batch can never interleave with other appenders.
// This is the path the periodic flusher uses.
func (l *Log[K, V]) AppendBatch(rs []Record[K, V], flushNow bool) error {
	if len(rs) == 0 {
		return nil
	}
	var buf []byte
	var err error
	for _, r := range rs {
		if buf, err = appendRecord(buf, r, l.keys, l.vals); err != nil {
			return errors.Wrap(err, "aol: encode batch")
		}
	}
	return l.write(buf, flushNow)
}

func (l *Log[K, V]) write(buf []byte, flushNow bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(buf); err != nil {
		return errors.Wrapf(err, "aol: append %s", l.path)
	}
	if flushNow {
		if err := l.w.Flush(); err != nil {
			return errors.Wrapf(err, "aol: flush %s", l.path)
		}
	}
	return nil
}

// Flush hands any buffered bytes to the OS.
func (l *Log[K, V]) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		return errors.Wrapf(err, "aol: flush %s", l.path)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log[K, V]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ferr := l.w.Flush()
	cerr := l.f.Close()
	if ferr != nil {
		return errors.Wrapf(ferr, "aol: flush %s", l.path)
	}
	if cerr != nil {
		return errors.Wrapf(cerr, "aol: close %s", l.path)
	}
	return nil
}

// Iter opens a second, independent read handle at offset 0. Buffered but
// unflushed appends are not visible to the iterator.
func (l *Log[K, V]) Iter() (*Iterator[K, V], error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "aol: open %s for read", l.path)
	}
	return &Iterator[K, V]{
		f:    f,
		r:    bufio.NewReader(f),
		keys: l.keys,
		vals: l.vals,
	}, nil
}

// Iterator yields log records in file order.
type Iterator[K, V any] struct {
	f    *os.File
	r    *bufio.Reader
	off  int64
	keys Codec[K]
	vals Codec[V]
}

// Next decodes the next record.
//
//	ok=true          a record was decoded
//	ok=false, err=nil clean end of log (EOF at a record boundary)
//	ErrTruncatedTail  the log ends inside a record
//	*MalformedRecordError any other decode failure, with the record offset
func (it *Iterator[K, V]) Next() (rec Record[K, V], ok bool, err error) {
	start := it.off

	op, err := it.r.ReadByte()
	if err == io.EOF {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, errors.Wrap(err, "aol: read operation byte")
	}
	it.off++
	rec.Op = Op(op)
	if !rec.Op.valid() {
		return rec, false, &MalformedRecordError{Offset: start, Reason: fmt.Sprintf("unknown operation code %d", op)}
	}

	var lenBuf [8]byte
	if err := it.readFull(lenBuf[:4]); err != nil {
		return rec, false, err
	}
	keyLen := binary.LittleEndian.Uint32(lenBuf[:4])
	if keyLen > math.MaxInt32 {
		return rec, false, &MalformedRecordError{Offset: start, Reason: fmt.Sprintf("key length %d overflows", keyLen)}
	}
	keyBuf := make([]byte, keyLen)
	if err := it.readFull(keyBuf); err != nil {
		return rec, false, err
	}
	if rec.Key, err = it.keys.Decode(keyBuf); err != nil {
		return rec, false, &MalformedRecordError{Offset: start, Reason: "key payload", Err: err}
	}

	if rec.Op == OpPut {
		if err := it.readFull(lenBuf[:]); err != nil {
			return rec, false, err
		}
		valLen := binary.LittleEndian.Uint64(lenBuf[:])
		if valLen > uint64(math.MaxInt32) {
			return rec, false, &MalformedRecordError{Offset: start, Reason: fmt.Sprintf("value length %d overflows", valLen)}
		}
		valBuf := make([]byte, valLen)
		if err := it.readFull(valBuf); err != nil {
			return rec, false, err
		}
		if rec.Value, err = it.vals.Decode(valBuf); err != nil {
			return rec, false, &MalformedRecordError{Offset: start, Reason: "value payload", Err: err}
		}
	}
	return rec, true, nil
}

// readFull reads len(b) bytes, mapping any end-of-file inside the record
// to ErrTruncatedTail.
func (it *Iterator[K, V]) readFull(b []byte) error {
	n, err := io.ReadFull(it.r, b)
	it.off += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncatedTail
	}
	if err != nil {
		return errors.Wrap(err, "aol: read record")
	}
	return nil
}

// Close releases the iterator's file handle.
func (it *Iterator[K, V]) Close() error { return it.f.Close() }
