package imod

import (
	"bytes"
	"testing"

	"imodkit/pkg/binio"
)

// fixture hand-assembles model files field by field, independently of the
// encoder, so decoder tests are not checked against themselves.
type fixture struct {
	buf bytes.Buffer
	w   *binio.Writer
}

func newFixture() *fixture {
	f := &fixture{}
	f.w = binio.NewWriter(&f.buf)
	return f
}

func (f *fixture) bytes(t *testing.T) []byte {
	t.Helper()
	if err := f.w.Err(); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}
	return append([]byte(nil), f.buf.Bytes()...)
}

func (f *fixture) tag(tag string) *fixture {
	f.w.WriteBytes([]byte(tag))
	return f
}

func (f *fixture) i32(vs ...int32) *fixture {
	f.w.WriteI32s(vs)
	return f
}

func (f *fixture) f32(vs ...float32) *fixture {
	f.w.WriteF32s(vs)
	return f
}

func (f *fixture) u8(vs ...uint8) *fixture {
	for _, v := range vs {
		f.w.WriteU8(v)
	}
	return f
}

func (f *fixture) header(nObjects int32) *fixture {
	f.tag("IMODV1.2")
	f.w.WriteZeros(128)
	f.i32(100, 100, 100, nObjects)
	f.w.WriteU32(15360)
	f.i32(1, 2, 0, 255)
	f.f32(0, 0, 0, 1, 1, 1)
	f.i32(0, 0, -1, 3, 0)
	f.f32(1)
	f.i32(0, 0)
	f.f32(0, 0, 0)
	return f
}

func (f *fixture) object(name string, nContours, nMeshes int32) *fixture {
	f.tag(TagObject)
	f.w.WriteFixed("name", []byte(name), 64)
	f.w.WriteZeros(64)
	f.i32(nContours)
	f.w.WriteU32(0)
	f.i32(0, 1)
	f.f32(0, 1, 0)
	f.i32(0)
	f.u8(1, 3, 1, 1, 0, 0, 0, 0)
	f.i32(nMeshes, 0)
	return f
}

func (f *fixture) contour(points ...float32) *fixture {
	f.tag(TagContour)
	f.i32(int32(len(points) / 3))
	f.w.WriteU32(0)
	f.i32(0, 0)
	f.f32(points...)
	return f
}

func (f *fixture) mesh(vertices []float32, indices []int32) *fixture {
	f.tag(TagMesh)
	f.i32(int32(len(vertices)/3), int32(len(indices)))
	f.w.WriteU32(0)
	f.w.WriteI16(0)
	f.w.WriteI16(0)
	f.f32(vertices...)
	f.i32(indices...)
	return f
}

func (f *fixture) imat(length int32) *fixture {
	f.tag(TagMat)
	f.i32(length)
	f.u8(102, 255, 127, 4, 0, 0, 0, 0)
	f.i32(0)
	f.u8(0, 255, 0, 0)
	return f
}

func (f *fixture) eof() *fixture {
	return f.tag(TagEOF)
}
