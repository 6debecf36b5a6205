package binio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// FieldOverflowError reports a value that does not fit its fixed-width field.
type FieldOverflowError struct {
	Field string
	Len   int
	Width int
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("field %s: %d bytes exceeds width %d", e.Field, e.Len, e.Width)
}

// Writer encodes big-endian primitives to an io.Writer. The first error
// is sticky: later writes are no-ops and Err reports it.
type Writer struct {
	w   io.Writer
	buf [8]byte
	n   int64
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.n }

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err != nil {
		w.err = err
	}
}

// WriteI32 writes a signed 32-bit integer.
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

// WriteU32 writes an unsigned 32-bit integer.
func (w *Writer) WriteU32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

// WriteI16 writes a signed 16-bit integer.
func (w *Writer) WriteI16(v int16) {
	binary.BigEndian.PutUint16(w.buf[:2], uint16(v))
	w.write(w.buf[:2])
}

// WriteU8 writes a single byte.
func (w *Writer) WriteU8(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

// WriteF32 writes an IEEE-754 single precision float.
func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

// WriteF32s writes each float in order.
func (w *Writer) WriteF32s(vs []float32) {
	for _, v := range vs {
		w.WriteF32(v)
	}
}

// WriteI32s writes each integer in order.
func (w *Writer) WriteI32s(vs []int32) {
	for _, v := range vs {
		w.WriteI32(v)
	}
}

// WriteBytes writes b verbatim.
func (w *Writer) WriteBytes(b []byte) { w.write(b) }

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) {
	var zero [64]byte
	for n > 0 && w.err == nil {
		k := n
		if k > len(zero) {
			k = len(zero)
		}
		w.write(zero[:k])
		n -= k
	}
}

// WriteFixed writes b right-padded with NUL bytes to width. A value longer
// than the field is an error rather than a silent truncation.
func (w *Writer) WriteFixed(field string, b []byte, width int) {
	if w.err != nil {
		return
	}
	if len(b) > width {
		w.err = &FieldOverflowError{Field: field, Len: len(b), Width: width}
		return
	}
	w.write(b)
	w.WriteZeros(width - len(b))
}

// WriteTag writes a 4-byte ASCII chunk tag.
func (w *Writer) WriteTag(tag string) {
	if w.err != nil {
		return
	}
	if len(tag) != TagSize {
		w.err = &FieldOverflowError{Field: "tag " + tag, Len: len(tag), Width: TagSize}
		return
	}
	w.write([]byte(tag))
}
