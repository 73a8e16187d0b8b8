package aol

import (
	"encoding/binary"
	"encoding/json"
)

// Codec converts keys or values to and from their log payload bytes. The
// log stores opaque payloads; the codec pair is injected by the caller so
// any key/value type can be persisted.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// JSON is the default Codec, payloads are standard-library JSON.
type JSON[T any] struct{}

func (JSON[T]) Encode(v T) ([]byte, error) { return json.Marshal(v) }

func (JSON[T]) Decode(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

// Record wire layout, little-endian, no framing header:
//
//	1 byte  operation code
//	4 bytes key payload length (uint32)
//	N bytes key payload
//	and, only for Put:
//	8 bytes value payload length (uint64)
//	M bytes value payload
//
// appendRecord encodes r onto dst and returns the extended slice.
func appendRecord[K, V any](dst []byte, r Record[K, V], keys Codec[K], vals Codec[V]) ([]byte, error) {
	kb, err := keys.Encode(r.Key)
	if err != nil {
		return dst, err
	}
	dst = append(dst, byte(r.Op))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(kb)))
	dst = append(dst, kb...)
	if r.Op == OpPut {
		vb, err := vals.Encode(r.Value)
		if err != nil {
			return dst, err
		}
		dst = binary.LittleEndian.AppendUint64(dst, uint64(len(vb)))
		dst = append(dst, vb...)
	}
	return dst, nil
}
