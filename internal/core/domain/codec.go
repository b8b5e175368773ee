package domain

import (
	"encoding/binary"
	"math"

	"go.trai.ch/zerr"
)

// Cacheable is implemented by metadata records that can be stored in a cache file.
// Load must read fields in exactly the order Save wrote them.
type Cacheable interface {
	Save(w *BinaryWriter)
	Load(r *BinaryReader)
}

// CacheableRecord constrains a record type T whose pointer implements Cacheable.
type CacheableRecord[T any] interface {
	*T
	Cacheable
}

// BinaryWriter appends little-endian fields to an in-memory buffer.
type BinaryWriter struct {
	buf []byte
}

// NewBinaryWriter returns an empty writer.
func NewBinaryWriter() *BinaryWriter {
	return &BinaryWriter{}
}

// Bytes returns the encoded data.
func (w *BinaryWriter) Bytes() []byte {
	return w.buf
}

// WriteString writes a uvarint length prefix followed by the UTF-8 bytes of s.
func (w *BinaryWriter) WriteString(s string) {
	w.buf = binary.AppendUvarint(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteInt32 writes v as four bytes.
func (w *BinaryWriter) WriteInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v)) //nolint:gosec // two's complement round-trip
}

// WriteInt64 writes v as eight bytes.
func (w *BinaryWriter) WriteInt64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v)) //nolint:gosec // two's complement round-trip
}

// WriteUint32 writes v as four bytes.
func (w *BinaryWriter) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteUint64 writes v as eight bytes.
func (w *BinaryWriter) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteRaw appends b without a length prefix.
func (w *BinaryWriter) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteCount writes a collection length as an int32.
func (w *BinaryWriter) WriteCount(n int) {
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	w.WriteInt32(int32(n)) //nolint:gosec // clamped above
}

// WriteStrings writes a count followed by each string.
func (w *BinaryWriter) WriteStrings(values []string) {
	w.WriteCount(len(values))
	for _, v := range values {
		w.WriteString(v)
	}
}

// BinaryReader decodes fields written by BinaryWriter.
// The first decoding failure is sticky: every later read returns a zero value
// and Err reports the original failure.
type BinaryReader struct {
	data []byte
	off  int
	err  error
}

// NewBinaryReader returns a reader over data.
func NewBinaryReader(data []byte) *BinaryReader {
	return &BinaryReader{data: data}
}

// Err returns the first error encountered while reading.
func (r *BinaryReader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *BinaryReader) Remaining() int {
	return len(r.data) - r.off
}

func (r *BinaryReader) fail(field string) {
	if r.err == nil {
		r.err = zerr.With(zerr.Wrap(ErrCacheTruncated, "unexpected end of data"), "field", field)
	}
}

func (r *BinaryReader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.fail(field)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadString reads a uvarint length-prefixed string.
func (r *BinaryReader) ReadString() string {
	if r.err != nil {
		return ""
	}
	n, size := binary.Uvarint(r.data[r.off:])
	if size <= 0 || n > uint64(r.Remaining()-size) {
		r.fail("string")
		return ""
	}
	r.off += size
	return string(r.take(int(n), "string")) //nolint:gosec // bounded by Remaining
}

// ReadInt32 reads four bytes as an int32.
func (r *BinaryReader) ReadInt32() int32 {
	b := r.take(4, "int32")
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b)) //nolint:gosec // two's complement round-trip
}

// ReadInt64 reads eight bytes as an int64.
func (r *BinaryReader) ReadInt64() int64 {
	b := r.take(8, "int64")
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b)) //nolint:gosec // two's complement round-trip
}

// ReadUint32 reads four bytes as a uint32.
func (r *BinaryReader) ReadUint32() uint32 {
	b := r.take(4, "uint32")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadUint64 reads eight bytes as a uint64.
func (r *BinaryReader) ReadUint64() uint64 {
	b := r.take(8, "uint64")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadRaw reads n bytes written by WriteRaw. The result aliases the reader's data.
func (r *BinaryReader) ReadRaw(n int) []byte {
	return r.take(n, "raw")
}

// ReadCount reads a collection length written by WriteCount.
// Negative counts and counts larger than the remaining data are rejected,
// since every element occupies at least one byte.
func (r *BinaryReader) ReadCount() int {
	n := r.ReadInt32()
	if r.err != nil {
		return 0
	}
	if n < 0 || int(n) > r.Remaining() {
		r.err = zerr.With(zerr.Wrap(ErrCacheCorrupt, "invalid element count"), "count", n)
		return 0
	}
	return int(n)
}

// ReadStrings reads a count followed by that many strings.
func (r *BinaryReader) ReadStrings() []string {
	n := r.ReadCount()
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for range n {
		out = append(out, r.ReadString())
	}
	if r.err != nil {
		return nil
	}
	return out
}
