package imod

import (
	"fmt"

	"imodkit/pkg/binio"
)

// Mesh is a triangulated surface. Indices are kept exactly as stored,
// including the negative sentinels that delimit primitive runs.
type Mesh struct {
	Flag     uint32
	Type     int16
	Pad      int16
	Vertices []float32
	Indices  []int32
}

// NumVertices returns the number of x,y,z vertex triples.
func (m *Mesh) NumVertices() int { return len(m.Vertices) / 3 }

func (d *decoder) mesh() (*Mesh, error) {
	r := d.r
	nv, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	ni, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if nv < 0 || ni < 0 {
		return nil, &FormatError{Offset: r.Offset() - 8, Tag: TagMesh, Msg: fmt.Sprintf("negative counts %d/%d", nv, ni)}
	}
	m := &Mesh{}
	if m.Flag, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if m.Type, err = r.ReadI16(); err != nil {
		return nil, err
	}
	if m.Pad, err = r.ReadI16(); err != nil {
		return nil, err
	}
	if m.Vertices, err = r.ReadF32s(3 * int(nv)); err != nil {
		return nil, err
	}
	if m.Indices, err = r.ReadI32s(int(ni)); err != nil {
		return nil, err
	}
	return m, nil
}

func encodeMesh(w *binio.Writer, m *Mesh) error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("mesh: %d vertex values is not a multiple of 3", len(m.Vertices))
	}
	w.WriteTag(TagMesh)
	w.WriteI32(int32(m.NumVertices()))
	w.WriteI32(int32(len(m.Indices)))
	w.WriteU32(m.Flag)
	w.WriteI16(m.Type)
	w.WriteI16(m.Pad)
	w.WriteF32s(m.Vertices)
	w.WriteI32s(m.Indices)
	return w.Err()
}
