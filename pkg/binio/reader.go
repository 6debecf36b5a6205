// Package binio provides the big-endian primitive codec used by the model
// file format: fixed-width integer, float and padded string fields, plus the
// 4-byte tag lookahead that drives chunk dispatch.
package binio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TagSize is the width of every chunk tag in the format.
const TagSize = 4

// TruncatedInputError reports that the input ended before a fixed-size
// field could be read.
type TruncatedInputError struct {
	Offset int // cursor position when the read was attempted
	Need   int // bytes requested
	Have   int // bytes remaining
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// Reader is a cursor over an in-memory byte stream. All multi-byte values
// are decoded big-endian.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, &TruncatedInputError{Offset: r.off, Need: n, Have: r.Remaining()}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadI32 reads a signed 32-bit integer.
func (r *Reader) ReadI32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadU32 reads an unsigned 32-bit integer.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadI16 reads a signed 16-bit integer.
func (r *Reader) ReadI16() (int16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

// ReadU8 reads a single unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadF32 reads an IEEE-754 single precision float.
func (r *Reader) ReadF32() (float32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// ReadF32s reads n consecutive floats. A zero count yields a nil slice.
func (r *Reader) ReadF32s(n int) ([]float32, error) {
	if n < 0 || n > r.Remaining()/4 {
		return nil, &TruncatedInputError{Offset: r.off, Need: n * 4, Have: r.Remaining()}
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i], _ = r.ReadF32()
	}
	return out, nil
}

// ReadI32s reads n consecutive signed 32-bit integers. A zero count yields
// a nil slice.
func (r *Reader) ReadI32s(n int) ([]int32, error) {
	if n < 0 || n > r.Remaining()/4 {
		return nil, &TruncatedInputError{Offset: r.off, Need: n * 4, Have: r.Remaining()}
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i], _ = r.ReadI32()
	}
	return out, nil
}

// ReadBytes reads n raw bytes. The returned slice is a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadFixed reads an n-byte field and returns the bytes before the first NUL.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// ReadTag consumes the next 4 bytes as an ASCII chunk tag.
func (r *Reader) ReadTag() (string, error) {
	b, err := r.take(TagSize)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Rewind moves the cursor back n bytes. It is only used to replay a tag
// consumed speculatively, so n never exceeds the bytes already read.
func (r *Reader) Rewind(n int) {
	if n > r.off {
		n = r.off
	}
	r.off -= n
}
