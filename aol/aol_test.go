package aol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log[string, string] {
	t.Helper()
	l, err := Open[string, string](filepath.Join(t.TempDir(), "test.dat"), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// drain reads every record until clean EOF.
func drain(t *testing.T, l *Log[string, string]) []Record[string, string] {
	t.Helper()
	it, err := l.Iter()
	require.NoError(t, err)
	defer it.Close()

	var got []Record[string, string]
	for {
		rec, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			return got
		}
		got = append(got, rec)
	}
}

// A random mix of 200 Put/Get/Remove records survives a write-then-read
// round trip byte-exactly, in order.
func TestLog_RoundTrip(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	r := rand.New(rand.NewSource(42))

	records := make([]Record[string, string], 0, 200)
	for i := 0; i < 200; i++ {
		rec := Record[string, string]{Key: fmt.Sprintf("key%d", i)}
		switch r.Intn(3) {
		case 0:
			rec.Op = OpGet
		case 1:
			rec.Op = OpPut
			rec.Value = fmt.Sprintf("value%d", i)
		case 2:
			rec.Op = OpRemove
		}
		records = append(records, rec)
		// Exercise both flushed and buffered appends.
		require.NoError(t, l.Append(rec, i%2 == 0))
	}
	require.NoError(t, l.Flush())

	assert.Equal(t, records, drain(t, l))
}

// AppendBatch writes all records contiguously and preserves order.
func TestLog_AppendBatch(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	batch := []Record[string, string]{
		{Op: OpPut, Key: "a", Value: "1"},
		{Op: OpGet, Key: "a"},
		{Op: OpPut, Key: "b", Value: "2"},
		{Op: OpRemove, Key: "a"},
	}
	require.NoError(t, l.AppendBatch(batch, true))
	require.NoError(t, l.AppendBatch(nil, true)) // empty batch is a no-op

	assert.Equal(t, batch, drain(t, l))
}

// Reopening an existing log appends, never truncates.
func TestLog_ReopenAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "c.dat")

	l, err := Open[string, string](path, nil, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(Record[string, string]{Op: OpPut, Key: "a", Value: "1"}, true))
	require.NoError(t, l.Close())

	l2, err := Open[string, string](path, nil, nil)
	require.NoError(t, err)
	defer l2.Close()
	require.NoError(t, l2.Append(Record[string, string]{Op: OpRemove, Key: "a"}, true))

	got := drain(t, l2)
	require.Len(t, got, 2)
	assert.Equal(t, OpPut, got[0].Op)
	assert.Equal(t, OpRemove, got[1].Op)
}

// An empty log yields a clean EOF immediately.
func TestIterator_CleanEOF(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	it, err := l.Iter()
	require.NoError(t, err)
	defer it.Close()

	_, ok, err := it.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

// A log cut mid-record reports ErrTruncatedTail after yielding every
// complete record.
func TestIterator_TruncatedTail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "c.dat")
	l, err := Open[string, string](path, nil, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(Record[string, string]{Op: OpPut, Key: "k1", Value: "v1"}, true))
	require.NoError(t, l.Append(Record[string, string]{Op: OpPut, Key: "k2", Value: "v2"}, true))
	require.NoError(t, l.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, fi.Size()-3))

	l2, err := Open[string, string](path, nil, nil)
	require.NoError(t, err)
	defer l2.Close()
	it, err := l2.Iter()
	require.NoError(t, err)
	defer it.Close()

	rec, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "k1", rec.Key)

	_, _, err = it.Next()
	assert.ErrorIs(t, err, ErrTruncatedTail)
}

// An unknown operation byte is malformed, with the offset of the record.
func TestIterator_MalformedOpByte(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "c.dat")
	l, err := Open[string, string](path, nil, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(Record[string, string]{Op: OpGet, Key: "k"}, true))
	require.NoError(t, l.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{9, 0, 0, 0})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l2, err := Open[string, string](path, nil, nil)
	require.NoError(t, err)
	defer l2.Close()
	it, err := l2.Iter()
	require.NoError(t, err)
	defer it.Close()

	_, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = it.Next()
	var mal *MalformedRecordError
	require.ErrorAs(t, err, &mal)
	assert.Equal(t, fi.Size(), mal.Offset)
}

// A key payload the codec rejects is malformed, not truncated.
func TestIterator_MalformedKeyPayload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "c.dat")

	// op=Get, keylen=2, payload "{{" (invalid JSON for a string key).
	raw := []byte{byte(OpGet)}
	raw = binary.LittleEndian.AppendUint32(raw, 2)
	raw = append(raw, '{', '{')
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	l, err := Open[string, string](path, nil, nil)
	require.NoError(t, err)
	defer l.Close()
	it, err := l.Iter()
	require.NoError(t, err)
	defer it.Close()

	_, _, err = it.Next()
	var mal *MalformedRecordError
	require.ErrorAs(t, err, &mal)
	assert.EqualValues(t, 0, mal.Offset)
}

// The wire layout is fixed: op byte, u32 LE key length, key payload, and
// for Put a u64 LE value length plus value payload.
func TestRecord_WireLayout(t *testing.T) {
	t.Parallel()

	keyJSON, _ := json.Marshal("k")
	valJSON, _ := json.Marshal("val")

	put, err := appendRecord(nil, Record[string, string]{Op: OpPut, Key: "k", Value: "val"}, JSON[string]{}, JSON[string]{})
	require.NoError(t, err)

	want := []byte{1}
	want = binary.LittleEndian.AppendUint32(want, uint32(len(keyJSON)))
	want = append(want, keyJSON...)
	want = binary.LittleEndian.AppendUint64(want, uint64(len(valJSON)))
	want = append(want, valJSON...)
	assert.Equal(t, want, put)

	// Get and Remove carry no value block.
	get, err := appendRecord(nil, Record[string, string]{Op: OpGet, Key: "k"}, JSON[string]{}, JSON[string]{})
	require.NoError(t, err)
	wantGet := []byte{0}
	wantGet = binary.LittleEndian.AppendUint32(wantGet, uint32(len(keyJSON)))
	wantGet = append(wantGet, keyJSON...)
	assert.Equal(t, wantGet, get)
}
