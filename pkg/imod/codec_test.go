package imod

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeSyntheticModel decodes a minimal hand-built file and checks that
// re-encoding reproduces it byte for byte.
func TestDecodeSyntheticModel(t *testing.T) {
	input := newFixture().
		header(1).
		object("Test", 1, 0).
		contour(1, 2, 3, 4, 5, 6).
		eof().
		bytes(t)

	m, err := DecodeBytes(input, DecodeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "V1.2", m.Version)
	assert.Equal(t, "", m.Name)
	assert.Equal(t, [3]int32{100, 100, 100}, [3]int32{m.XMax, m.YMax, m.ZMax})
	require.Len(t, m.Objects, 1)
	assert.Equal(t, "Test", m.Objects[0].Name)
	require.Len(t, m.Objects[0].Contours, 1)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, m.Objects[0].Contours[0].Points)
	assert.Nil(t, m.Objects[0].Material)
	assert.Nil(t, m.View)
	assert.Nil(t, m.Minx)

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

// TestThreeContoursByteMatch checks count handling and byte fidelity for an
// object with several contours and its material chunk.
func TestThreeContoursByteMatch(t *testing.T) {
	input := newFixture().
		header(1).
		object("three", 3, 0).
		contour(1, 1, 1).
		contour(2, 2, 2, 3, 3, 3).
		contour(4, 4, 4).
		imat(16).
		eof().
		bytes(t)

	m, err := DecodeBytes(input, DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, m.Objects[0].Contours, 3)
	assert.Equal(t, 2, m.Objects[0].Contours[1].NumPoints())
	require.NotNil(t, m.Objects[0].Material)
	assert.Equal(t, DefaultMaterial(), *m.Objects[0].Material)

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

// TestInterleavedChildrenKeepOrder checks that CONT and MESH chunks are
// written back in the order they were read.
func TestInterleavedChildrenKeepOrder(t *testing.T) {
	input := newFixture().
		header(1).
		object("mixed", 2, 1).
		contour(1, 2, 3).
		mesh([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, []int32{-25, 0, 1, 2, -22, -1}).
		contour(4, 5, 6).
		imat(16).
		eof().
		bytes(t)

	m, err := DecodeBytes(input, DecodeOptions{})
	require.NoError(t, err)
	o := m.Objects[0]
	require.Len(t, o.Contours, 2)
	require.Len(t, o.Meshes, 1)
	assert.Equal(t, []int32{-25, 0, 1, 2, -22, -1}, o.Meshes[0].Indices)

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

// TestEmptyObjectAndEmptyContour covers zero counts at both levels.
func TestEmptyObjectAndEmptyContour(t *testing.T) {
	input := newFixture().
		header(2).
		object("empty", 0, 0).
		imat(16).
		object("one", 1, 0).
		contour().
		eof().
		bytes(t)

	m, err := DecodeBytes(input, DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, m.Objects, 2)
	assert.Empty(t, m.Objects[0].Contours)
	assert.Empty(t, m.Objects[0].Meshes)
	assert.NotNil(t, m.Objects[0].Material)
	require.Len(t, m.Objects[1].Contours, 1)
	assert.Empty(t, m.Objects[1].Contours[0].Points)
	assert.Equal(t, 0, m.Objects[1].Contours[0].NumPoints())

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

// TestContourSizeChunk checks the optional SIZE list after the points.
func TestContourSizeChunk(t *testing.T) {
	f := newFixture().header(1).object("sized", 1, 0).contour(1, 2, 3, 4, 5, 6)
	f.tag(TagSizes).i32(8).f32(0.5, 1.5)
	input := f.eof().bytes(t)

	m, err := DecodeBytes(input, DecodeOptions{})
	require.NoError(t, err)
	c := m.Objects[0].Contours[0]
	assert.True(t, c.HasSizes)
	assert.Equal(t, []float32{0.5, 1.5}, c.Sizes)

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

// TestStorageChunkWrittenAsZeros checks the lossy CHUNK round trip.
func TestStorageChunkWrittenAsZeros(t *testing.T) {
	build := func(payload ...uint8) []byte {
		f := newFixture().header(1).object("stored", 0, 0).imat(16)
		f.tag("MOST").i32(int32(len(payload))).u8(payload...)
		return f.eof().bytes(t)
	}
	m, err := DecodeBytes(build(1, 2, 3, 4), DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, m.Objects[0].Chunks, 1)
	assert.Equal(t, "MOST", m.Objects[0].Chunks[0].Tag())
	assert.Equal(t, int32(4), m.Objects[0].Chunks[0].Size)

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, build(0, 0, 0, 0), out)
}

// TestMeshParamsPreserved checks that the MEPA blob is kept verbatim.
func TestMeshParamsPreserved(t *testing.T) {
	f := newFixture().header(1).object("mepa", 0, 0).imat(16)
	f.tag(TagMeshPar).i32(5).u8(9, 8, 7, 6, 5)
	input := f.eof().bytes(t)

	m, err := DecodeBytes(input, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7, 6, 5}, m.Objects[0].MeshParams)

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

// TestIMATLengthMismatchIsLogged checks that an odd IMAT length is tolerated.
func TestIMATLengthMismatchIsLogged(t *testing.T) {
	input := newFixture().header(1).object("odd", 0, 0).imat(20).eof().bytes(t)

	var logs bytes.Buffer
	m, err := DecodeBytes(input, DecodeOptions{Logger: log.New(&logs, "", 0)})
	require.NoError(t, err)
	assert.NotNil(t, m.Objects[0].Material)
	assert.Contains(t, logs.String(), "IMAT length 20")
}

func viewFixture(t *testing.T, legacy bool) []byte {
	f := newFixture().header(2).
		object("a", 1, 0).contour(1, 1, 1).imat(16).
		object("b", 1, 0).contour(2, 2, 2).imat(16)
	if legacy {
		f.tag(TagView).i32(4, 7)
	}
	writeViewChunk(f)
	f.tag(TagMinx).i32(72)
	f.f32(1, 1, 1, 0, 0, 0, 0, 0, 0, 2, 2, 2, 5, 6, 7, 0, 0, 0)
	return f.eof().bytes(t)
}

// writeViewChunk appends a VIEW chunk with two object views.
func writeViewChunk(f *fixture) {
	f.tag(TagView).i32(ModelViewHeaderSize + 2*ObjectViewSize)
	f.f32(0, 4190, 1, 0, 1)
	f.f32(-80, -2, -50, 10, 20, 30, 1, 1, 1)
	f.f32(1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1)
	f.i32(2)
	f.w.WriteFixed("label", []byte("view 1"), 32)
	f.f32(0, 1, 0, 0, 5)
	f.i32(2, 2*ObjectViewSize)
	for i := 0; i < 2; i++ {
		f.w.WriteU32(0)
		f.f32(float32(i), 1, 0)
		f.i32(0)
		f.u8(1, 0, 0, 0, 0, 0, 0)
		f.f32(0, 0, -1, 0, 0, 0)
		f.u8(102, 255, 127, 4, 0, 0, 0, 0)
		f.i32(0)
		f.u8(0, 255, 0, 0)
		for j := 0; j < 5; j++ {
			f.f32(0, 0, -1)
		}
		f.w.WriteZeros(60)
	}
}

// TestViewAndMinxRoundTrip decodes global and per-object views, the legacy
// 4-byte VIEW marker and MINX, and re-encodes them byte for byte.
func TestViewAndMinxRoundTrip(t *testing.T) {
	for _, legacy := range []bool{false, true} {
		input := viewFixture(t, legacy)
		m, err := DecodeBytes(input, DecodeOptions{})
		require.NoError(t, err)

		require.NotNil(t, m.View)
		assert.Equal(t, "view 1", m.View.Label)
		assert.Equal(t, [3]float32{10, 20, 30}, m.View.Trans)
		require.NotNil(t, m.Objects[0].View)
		require.NotNil(t, m.Objects[1].View)
		assert.Equal(t, float32(1), m.Objects[1].View.Red)
		require.NotNil(t, m.Minx)
		assert.Equal(t, [3]float32{2, 2, 2}, m.Scale())
		assert.Equal(t, [3]float32{5, 6, 7}, m.Trans())
		if legacy {
			assert.Equal(t, [][]byte{{0, 0, 0, 7}}, m.LegacyViews)
		} else {
			assert.Nil(t, m.LegacyViews)
		}

		out, err := EncodeBytes(m)
		require.NoError(t, err)
		assert.Equal(t, input, out)
	}
}

// TestLegacyViewMarkersKeepOrder decodes two legacy markers on either side
// of the real VIEW chunk and checks they are written back in place.
func TestLegacyViewMarkersKeepOrder(t *testing.T) {
	f := newFixture().header(2).
		object("a", 1, 0).contour(1, 1, 1).imat(16).
		object("b", 1, 0).contour(2, 2, 2).imat(16)
	f.tag(TagView).i32(4, 7)
	writeViewChunk(f)
	f.tag(TagView).i32(4, 9)
	input := f.eof().bytes(t)

	m, err := DecodeBytes(input, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0, 0, 0, 7}, {0, 0, 0, 9}}, m.LegacyViews)
	require.NotNil(t, m.View)

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

// TestDuplicateViewIsRejected checks that a second full VIEW chunk is an
// error rather than replacing the first.
func TestDuplicateViewIsRejected(t *testing.T) {
	f := newFixture().header(2).
		object("a", 1, 0).contour(1, 1, 1).imat(16).
		object("b", 1, 0).contour(2, 2, 2).imat(16)
	writeViewChunk(f)
	writeViewChunk(f)
	_, err := DecodeBytes(f.eof().bytes(t), DecodeOptions{})
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, TagView, fe.Tag)
}

// TestConstructedViewCoversAllObjects checks that a view set by the caller
// writes a record for every object.
func TestConstructedViewCoversAllObjects(t *testing.T) {
	m := NewModel()
	for _, name := range []string{"a", "b", "c"} {
		o := NewObject()
		require.NoError(t, o.SetName(name))
		m.AddObject(o)
	}
	m.View = DefaultModelView()
	m.Objects[0].View = DefaultObjectView(m.Objects[0])

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	idx := bytes.Index(out, []byte(TagView))
	require.Positive(t, idx)
	size := int32(out[idx+4])<<24 | int32(out[idx+5])<<16 | int32(out[idx+6])<<8 | int32(out[idx+7])
	assert.Equal(t, int32(ModelViewHeaderSize+3*ObjectViewSize), size)

	back, err := DecodeBytes(out, DecodeOptions{})
	require.NoError(t, err)
	for _, o := range back.Objects {
		assert.NotNil(t, o.View, o.Name)
	}
}

// TestViewLengthTracksObjects checks that removing an object shrinks the
// VIEW chunk consistently.
func TestViewLengthTracksObjects(t *testing.T) {
	m, err := DecodeBytes(viewFixture(t, false), DecodeOptions{})
	require.NoError(t, err)
	require.NoError(t, m.RemoveObject(0))

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	back, err := DecodeBytes(out, DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, back.Objects, 1)
	assert.Equal(t, "b", back.Objects[0].Name)
	require.NotNil(t, back.Objects[0].View)
	assert.Equal(t, float32(1), back.Objects[0].View.Red)

	idx := bytes.Index(out, []byte(TagView))
	require.Positive(t, idx)
	size := int32(out[idx+4])<<24 | int32(out[idx+5])<<16 | int32(out[idx+6])<<8 | int32(out[idx+7])
	assert.Equal(t, int32(ModelViewHeaderSize+ObjectViewSize), size)
}

// TestDecodeErrors checks the error taxonomy on malformed input.
func TestDecodeErrors(t *testing.T) {
	valid := newFixture().header(1).object("x", 1, 0).contour(1, 2, 3).eof().bytes(t)

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte("IMAX"), valid[4:]...)
		_, err := DecodeBytes(bad, DecodeOptions{})
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
	})

	t.Run("truncated header", func(t *testing.T) {
		_, err := DecodeBytes(valid[:100], DecodeOptions{})
		var te *TruncatedInputError
		require.ErrorAs(t, err, &te)
	})

	t.Run("truncated points", func(t *testing.T) {
		cut := len(valid) - 4 - 6
		_, err := DecodeBytes(valid[:cut], DecodeOptions{})
		var te *TruncatedInputError
		require.ErrorAs(t, err, &te)
	})

	t.Run("desynchronized child", func(t *testing.T) {
		bad := newFixture().header(1).object("x", 1, 0).tag("JUNK").eof().bytes(t)
		_, err := DecodeBytes(bad, DecodeOptions{})
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "JUNK", fe.Tag)
	})

	t.Run("missing object", func(t *testing.T) {
		bad := newFixture().header(2).object("x", 0, 0).eof().bytes(t)
		_, err := DecodeBytes(bad, DecodeOptions{})
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, TagEOF, fe.Tag)
	})

	t.Run("unknown trailing tag", func(t *testing.T) {
		bad := newFixture().header(1).object("x", 0, 0).tag("ZZZZ").bytes(t)
		_, err := DecodeBytes(bad, DecodeOptions{})
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "ZZZZ", fe.Tag)
	})

	t.Run("missing IEOF", func(t *testing.T) {
		_, err := DecodeBytes(valid[:len(valid)-4], DecodeOptions{})
		var te *TruncatedInputError
		require.True(t, errors.As(err, &te))
	})
}

// TestLenientTrailer checks the soft stop after the last object.
func TestLenientTrailer(t *testing.T) {
	input := newFixture().header(1).object("x", 1, 0).contour(1, 2, 3).tag("ZZZZ").bytes(t)

	var logs bytes.Buffer
	m, err := DecodeBytes(input, DecodeOptions{Lenient: true, Logger: log.New(&logs, "", 0)})
	require.NoError(t, err)
	require.Len(t, m.Objects, 1)
	assert.True(t, strings.Contains(logs.String(), `unexpected tag "ZZZZ"`))
}

// TestRoundTripConstructedGraph encodes a graph built through the API and
// checks that decoding returns the same values.
func TestRoundTripConstructedGraph(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.SetName("round trip"))
	require.NoError(t, m.SetImageSize(512, 512, 60))
	require.NoError(t, m.SetUnits("nm"))
	m.View = DefaultModelView()
	m.Minx = &Minx{OScale: [3]float32{1, 1, 1}, CScale: [3]float32{1, 1, 2}}

	a := NewObject()
	require.NoError(t, a.SetName("membrane"))
	require.NoError(t, a.SetColor(128, 64, 255))
	require.NoError(t, a.SetType(Open))
	a.Contours = []*Contour{
		{Points: []float32{1, 2, 3, 4, 5, 3}},
		{Flags: 1 << 3, Type: 2, Surface: 1, Points: []float32{7, 8, 9}, Sizes: []float32{2.5}, HasSizes: true},
	}
	a.Meshes = []*Mesh{{Flag: 1 << 16, Type: 1, Vertices: []float32{0, 0, 0, 1, 1, 1}, Indices: []int32{-23, 0, 1, -1}}}
	a.MeshParams = []byte{1, 2, 3}
	m.AddObject(a)

	b := NewObject()
	require.NoError(t, b.SetName("vesicles"))
	require.NoError(t, b.SetType(Scattered))
	b.Contours = []*Contour{{Points: []float32{10, 10, 10}}}
	m.AddObject(b)

	out, err := EncodeBytes(m)
	require.NoError(t, err)
	back, err := DecodeBytes(out, DecodeOptions{})
	require.NoError(t, err)

	for _, o := range back.Objects {
		o.order = nil
	}
	back.trailer = nil
	assert.Equal(t, m, back)

	again, err := EncodeBytes(back)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

// TestEncodeRejectsMalformedArrays checks the encoder consistency errors.
func TestEncodeRejectsMalformedArrays(t *testing.T) {
	m := NewModel()
	o := m.AddObject(NewObject())
	o.Contours = []*Contour{{Points: []float32{1, 2}}}
	_, err := EncodeBytes(m)
	require.Error(t, err)

	o.Contours = nil
	o.Meshes = []*Mesh{{Vertices: []float32{1}}}
	_, err = EncodeBytes(m)
	require.Error(t, err)
}
