// Package blob implements the little-endian byte-stream format shared by all
// persistable engine entities. Every stream starts with the magic "ARSB", a
// type tag, and a version; loaders verify all three before reading payload.
package blob

import (
	"encoding/binary"
	"errors"
	"math"
)

// Magic prefixes every serialized entity.
const Magic = 0x42535241 // "ARSB", little-endian

// Type tags for persistable entities.
const (
	TypeStaticMesh = iota + 1
	TypeScene
	TypeEnergyField
	TypeProbeBatch
	TypeVisibilityGraph
	TypeHRIRSet
)

// ErrFormat is returned when a stream's magic, type tag, or version does not
// match what the loader expects.
var ErrFormat = errors.New("blob: unrecognized serialized data")

// ErrTruncated is returned when a stream ends before its payload does.
var ErrTruncated = errors.New("blob: truncated serialized data")

// Writer appends values to a byte stream.
type Writer struct {
	buf []byte
}

// NewWriter starts a stream with the standard header.
func NewWriter(typeTag, version uint32) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.PutUint32(Magic)
	w.PutUint32(typeTag)
	w.PutUint32(version)
	return w
}

// HeaderSize is the serialized size of the standard header.
const HeaderSize = 12

// Bytes returns the accumulated stream.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) PutInt32(v int32) {
	w.PutUint32(uint32(v))
}

func (w *Writer) PutFloat32(v float32) {
	w.PutUint32(math.Float32bits(v))
}

func (w *Writer) PutFloat64(v float64) {
	w.PutUint64(math.Float64bits(v))
}

func (w *Writer) PutFloat32Slice(v []float32) {
	w.PutUint64(uint64(len(v)))
	for _, x := range v {
		w.PutFloat32(x)
	}
}

func (w *Writer) PutInt32Slice(v []int32) {
	w.PutUint64(uint64(len(v)))
	for _, x := range v {
		w.PutInt32(x)
	}
}

// PutBytes appends a length-prefixed raw byte string, used to nest one
// serialized entity inside another.
func (w *Writer) PutBytes(v []byte) {
	w.PutUint64(uint64(len(v)))
	w.buf = append(w.buf, v...)
}

// Reader consumes a byte stream written by Writer.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader verifies the standard header and positions the reader at the
// payload. The stream's version must equal wantVersion exactly.
func NewReader(data []byte, wantType, wantVersion uint32) (*Reader, error) {
	r := &Reader{buf: data}
	magic := r.Uint32()
	typeTag := r.Uint32()
	version := r.Uint32()
	if r.err != nil {
		return nil, r.err
	}
	if magic != Magic || typeTag != wantType || version != wantVersion {
		return nil, ErrFormat
	}
	return r, nil
}

// Err returns the first error encountered while reading.
func (r *Reader) Err() error { return r.err }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = ErrTruncated
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}

func (r *Reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

func (r *Reader) Float64() float64 {
	return math.Float64frombits(r.Uint64())
}

func (r *Reader) Float32Slice() []float32 {
	n := r.Uint64()
	if r.err != nil || n > uint64(len(r.buf)-r.off)/4 {
		if r.err == nil {
			r.err = ErrTruncated
		}
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.Float32()
	}
	return out
}

// Bytes reads a length-prefixed raw byte string written by PutBytes.
func (r *Reader) Bytes() []byte {
	n := r.Uint64()
	if r.err != nil || n > uint64(len(r.buf)-r.off) {
		if r.err == nil {
			r.err = ErrTruncated
		}
		return nil
	}
	return r.take(int(n))
}

func (r *Reader) Int32Slice() []int32 {
	n := r.Uint64()
	if r.err != nil || n > uint64(len(r.buf)-r.off)/4 {
		if r.err == nil {
			r.err = ErrTruncated
		}
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = r.Int32()
	}
	return out
}
