package binio

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderPrimitives(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteTag("IMOD")
	w.WriteI32(-7)
	w.WriteU32(0xdeadbeef)
	w.WriteI16(-2)
	w.WriteU8(200)
	w.WriteF32(1.5)
	w.WriteF32s([]float32{1, 2, 3})
	w.WriteI32s([]int32{-25, 0, -1})
	w.WriteFixed("name", []byte("abc"), 8)
	require.NoError(t, w.Err())
	assert.Equal(t, int64(4+4+4+2+1+4+12+12+8), w.Written())

	r := NewReader(buf.Bytes())
	tag, err := r.ReadTag()
	require.NoError(t, err)
	assert.Equal(t, "IMOD", tag)

	i32, _ := r.ReadI32()
	assert.Equal(t, int32(-7), i32)
	u32, _ := r.ReadU32()
	assert.Equal(t, uint32(0xdeadbeef), u32)
	i16, _ := r.ReadI16()
	assert.Equal(t, int16(-2), i16)
	u8, _ := r.ReadU8()
	assert.Equal(t, uint8(200), u8)
	f, _ := r.ReadF32()
	assert.Equal(t, float32(1.5), f)
	fs, err := r.ReadF32s(3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, fs)
	is, err := r.ReadI32s(3)
	require.NoError(t, err)
	assert.Equal(t, []int32{-25, 0, -1}, is)
	name, err := r.ReadFixed(8)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), name)
	assert.Equal(t, 0, r.Remaining())
}

func TestBigEndianLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteI32(1)
	w.WriteF32(1)
	require.NoError(t, w.Err())

	bits := math.Float32bits(1)
	want := []byte{0, 0, 0, 1, byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
	assert.Equal(t, want, buf.Bytes())
}

func TestReaderTruncation(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_, err := r.ReadI32()
	var te *TruncatedInputError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.Offset)
	assert.Equal(t, 4, te.Need)
	assert.Equal(t, 3, te.Have)

	_, err = r.ReadF32s(1)
	require.ErrorAs(t, err, &te)
	// A failed read does not move the cursor.
	assert.Equal(t, 0, r.Offset())

	_, err = r.ReadI32s(-1)
	require.ErrorAs(t, err, &te)
}

func TestZeroCountArraysAreNil(t *testing.T) {
	r := NewReader(nil)
	fs, err := r.ReadF32s(0)
	require.NoError(t, err)
	assert.Nil(t, fs)
	is, err := r.ReadI32s(0)
	require.NoError(t, err)
	assert.Nil(t, is)
}

func TestTagRewind(t *testing.T) {
	r := NewReader([]byte("CONTMESH"))
	tag, err := r.ReadTag()
	require.NoError(t, err)
	assert.Equal(t, "CONT", tag)
	r.Rewind(TagSize)
	assert.Equal(t, 0, r.Offset())
	r.Rewind(TagSize)
	assert.Equal(t, 0, r.Offset())
	require.NoError(t, r.Skip(4))
	tag, _ = r.ReadTag()
	assert.Equal(t, "MESH", tag)
}

func TestReadBytesCopies(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	b, err := NewReader(data).ReadBytes(4)
	require.NoError(t, err)
	b[0] = 9
	assert.Equal(t, byte(1), data[0])
}

func TestWriterStickyErrors(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteFixed("name", []byte("toolong"), 4)
	var oe *FieldOverflowError
	require.ErrorAs(t, w.Err(), &oe)
	assert.Equal(t, "name", oe.Field)

	w.WriteI32(1)
	assert.Zero(t, buf.Len())

	w = NewWriter(&buf)
	w.WriteTag("TOOLONG")
	require.ErrorAs(t, w.Err(), &oe)
}

func TestWriteZerosLarge(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteZeros(200)
	require.NoError(t, w.Err())
	assert.Equal(t, make([]byte, 200), buf.Bytes())
}
