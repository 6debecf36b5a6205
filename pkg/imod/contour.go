package imod

import (
	"fmt"

	"imodkit/pkg/binio"
)

// Contour is one polyline or scattered point set, normally on one Z slice.
type Contour struct {
	Flags   uint32
	Type    int32
	Surface int32

	// Points holds x,y,z triples back to back.
	Points []float32

	// Sizes is the optional per-point radius list carried in a SIZE
	// sub-chunk. HasSizes records whether that sub-chunk was present.
	Sizes    []float32
	HasSizes bool
}

// NumPoints returns the number of x,y,z triples.
func (c *Contour) NumPoints() int { return len(c.Points) / 3 }

// Point returns the i-th point.
func (c *Contour) Point(i int) (x, y, z float32) {
	return c.Points[3*i], c.Points[3*i+1], c.Points[3*i+2]
}

// AddPoint appends one point.
func (c *Contour) AddPoint(x, y, z float32) {
	c.Points = append(c.Points, x, y, z)
}

func (d *decoder) contour() (*Contour, error) {
	r := d.r
	n, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &FormatError{Offset: r.Offset() - 4, Tag: TagContour, Msg: fmt.Sprintf("negative point count %d", n)}
	}
	c := &Contour{}
	// Some writers store the flags signed; the bits are the same either way.
	if c.Flags, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if c.Type, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if c.Surface, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if c.Points, err = r.ReadF32s(3 * int(n)); err != nil {
		return nil, err
	}

	if r.Remaining() < binio.TagSize {
		return c, nil
	}
	_, ok, err := nextTag(r, []string{TagSizes})
	if err != nil || !ok {
		return c, err
	}
	size, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, &FormatError{Offset: r.Offset() - 4, Tag: TagSizes, Msg: fmt.Sprintf("negative length %d", size)}
	}
	c.HasSizes = true
	if c.Sizes, err = r.ReadF32s(int(size) / 4); err != nil {
		return nil, err
	}
	return c, nil
}

func encodeContour(w *binio.Writer, c *Contour) error {
	if len(c.Points)%3 != 0 {
		return fmt.Errorf("contour: %d point values is not a multiple of 3", len(c.Points))
	}
	w.WriteTag(TagContour)
	w.WriteI32(int32(c.NumPoints()))
	w.WriteU32(c.Flags)
	w.WriteI32(c.Type)
	w.WriteI32(c.Surface)
	w.WriteF32s(c.Points)
	if c.HasSizes {
		w.WriteTag(TagSizes)
		w.WriteI32(int32(4 * len(c.Sizes)))
		w.WriteF32s(c.Sizes)
	}
	return w.Err()
}
