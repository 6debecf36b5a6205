package imod

import (
	"fmt"

	"imodkit/pkg/binio"
)

const (
	nameFieldSize     = 64
	objectExtraSize   = 64
	maxObjectNameLen  = 64
	imatPayloadLength = 16
)

// Object flag bits.
const (
	FlagOpen           uint32 = 1 << 3
	FlagScattered      uint32 = 1 << 9
	FlagFilledOutlines uint32 = 1 << 26
)

// ObjectType is the contour interpretation encoded by flag bits 3 and 9.
type ObjectType int

const (
	Closed ObjectType = iota
	Open
	Scattered
	UndefinedType
)

func (t ObjectType) String() string {
	switch t {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Scattered:
		return "scattered"
	}
	return "undefined"
}

// ParseObjectType accepts "closed", "open" or "scattered".
func ParseObjectType(s string) (ObjectType, error) {
	switch s {
	case "closed":
		return Closed, nil
	case "open":
		return Open, nil
	case "scattered":
		return Scattered, nil
	}
	return UndefinedType, &ValidationError{Field: "object type", Value: s, Msg: "must be closed, open or scattered"}
}

// Symbol is the 2D point marker style.
type Symbol uint8

const (
	SymbolCircle Symbol = iota
	SymbolNone
	SymbolSquare
	SymbolTriangle
	SymbolStar
)

var symbolNames = map[string]Symbol{
	"circle":   SymbolCircle,
	"none":     SymbolNone,
	"square":   SymbolSquare,
	"triangle": SymbolTriangle,
	"star":     SymbolStar,
}

// ParseSymbol maps a symbol name to its code.
func ParseSymbol(s string) (Symbol, error) {
	if v, ok := symbolNames[s]; ok {
		return v, nil
	}
	return 0, &ValidationError{Field: "symbol", Value: s, Msg: "unknown symbol"}
}

// Chunk is an object-level storage chunk kept only by tag and size.
type Chunk struct {
	ID   int32
	Size int32
}

// Tag returns the chunk tag encoded in ID.
func (c Chunk) Tag() string { return idTag(c.ID) }

// Object is one named annotation layer.
type Object struct {
	Name string
	// Extra holds the reserved bytes that follow the name field.
	Extra [objectExtraSize]byte

	Flags         uint32
	Axis          int32
	DrawMode      int32
	Red           float32
	Green         float32
	Blue          float32
	PointDrawSize int32
	Symbol        Symbol
	SymbolSize    uint8
	LineWidth2D   uint8
	LineWidth3D   uint8
	LineStyle     uint8
	SymbolFlags   uint8
	SymbolPad     uint8
	Transparency  uint8
	Surfaces      int32

	Contours []*Contour
	Meshes   []*Mesh

	// Material is nil when a decoded object carried no IMAT chunk.
	Material *Material
	// MeshParams is the raw MEPA payload, nil when absent.
	MeshParams []byte
	Chunks     []Chunk
	View       *ObjectView

	// order is the CONT/MESH tag sequence as read, replayed on write.
	order []string
}

// NewObject returns an object with the default display settings.
func NewObject() *Object {
	mat := DefaultMaterial()
	return &Object{
		DrawMode:    1,
		Symbol:      SymbolNone,
		SymbolSize:  3,
		LineWidth2D: 1,
		LineWidth3D: 1,
		Material:    &mat,
	}
}

// Type reports the object type from flag bits 3 and 9.
func (o *Object) Type() ObjectType {
	open := o.Flags&FlagOpen != 0
	scat := o.Flags&FlagScattered != 0
	switch {
	case !open && !scat:
		return Closed
	case open && !scat:
		return Open
	case open && scat:
		return Scattered
	}
	return UndefinedType
}

// IsOpen reports whether flag bit 3 is set.
func (o *Object) IsOpen() bool { return o.Flags&FlagOpen != 0 }

// IsScattered reports whether flag bit 9 is set.
func (o *Object) IsScattered() bool { return o.Flags&FlagScattered != 0 }

// SetType sets flag bits 3 and 9 for t.
func (o *Object) SetType(t ObjectType) error {
	o.Flags &^= FlagOpen | FlagScattered
	switch t {
	case Closed:
	case Open:
		o.Flags |= FlagOpen
	case Scattered:
		o.Flags |= FlagOpen | FlagScattered
	default:
		return &ValidationError{Field: "object type", Value: t, Msg: "must be closed, open or scattered"}
	}
	return nil
}

// SetName sets the object name, 1 to 64 characters.
func (o *Object) SetName(name string) error {
	n, err := textLen(name)
	if err != nil {
		return &ValidationError{Field: "name", Value: name, Msg: err.Error()}
	}
	if n < 1 || n > maxObjectNameLen {
		return &ValidationError{Field: "name", Value: name, Msg: "must be 1-64 characters long"}
	}
	o.Name = name
	return nil
}

// SetColor sets the RGB colour. Components may be given in 0-1 or 0-255;
// any component above 1 is divided by 255.
func (o *Object) SetColor(r, g, b float64) error {
	rgb := [3]float64{r, g, b}
	for _, c := range rgb {
		if !(c >= 0 && c <= 255) {
			return &ValidationError{Field: "color", Value: rgb, Msg: "components must range from 0-1 or 0-255"}
		}
	}
	for i, c := range rgb {
		if c > 1 {
			rgb[i] = c / 255
		}
	}
	o.Red, o.Green, o.Blue = float32(rgb[0]), float32(rgb[1]), float32(rgb[2])
	return nil
}

// SetLineWidth sets the 2D line width, 1 to 10.
func (o *Object) SetLineWidth(width int) error {
	if width < 1 || width > 10 {
		return &ValidationError{Field: "line width", Value: width, Msg: "must range from 1-10"}
	}
	o.LineWidth2D = uint8(width)
	return nil
}

// SetTransparency sets transparency in percent, 0 to 100.
func (o *Object) SetTransparency(t int) error {
	if t < 0 || t > 100 {
		return &ValidationError{Field: "transparency", Value: t, Msg: "must range from 0-100"}
	}
	o.Transparency = uint8(t)
	return nil
}

// SetSymbol sets the point marker.
func (o *Object) SetSymbol(s Symbol) error {
	if s > SymbolStar {
		return &ValidationError{Field: "symbol", Value: s, Msg: "unknown symbol"}
	}
	o.Symbol = s
	return nil
}

// SetSymbolSize sets the marker size, 1 to 100.
func (o *Object) SetSymbolSize(size int) error {
	if size < 1 || size > 100 {
		return &ValidationError{Field: "symbol size", Value: size, Msg: "must range from 1-100"}
	}
	o.SymbolSize = uint8(size)
	return nil
}

// SetSymbolFill toggles bit 0 of the symbol flags.
func (o *Object) SetSymbolFill(on bool) {
	if on {
		o.SymbolFlags |= 1
	} else {
		o.SymbolFlags &^= 1
	}
}

// SetFilledOutlines toggles drawing outlines around filled contours.
func (o *Object) SetFilledOutlines(on bool) {
	if on {
		o.Flags |= FlagFilledOutlines
	} else {
		o.Flags &^= FlagFilledOutlines
	}
}

// NumPoints returns the total point count over all contours.
func (o *Object) NumPoints() int {
	n := 0
	for _, c := range o.Contours {
		n += c.NumPoints()
	}
	return n
}

func (d *decoder) object() (*Object, error) {
	r := d.r
	start := r.Offset()
	tag, err := r.ReadTag()
	if err != nil {
		return nil, err
	}
	if tag != TagObject {
		return nil, &FormatError{Offset: start, Tag: tag, Msg: "expected OBJT"}
	}

	o := &Object{}
	name, err := r.ReadFixed(nameFieldSize)
	if err != nil {
		return nil, err
	}
	o.Name = decodeText(name)
	extra, err := r.ReadBytes(objectExtraSize)
	if err != nil {
		return nil, err
	}
	copy(o.Extra[:], extra)

	nContours, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if o.Flags, err = r.ReadU32(); err != nil {
		return nil, err
	}
	for _, p := range []*int32{&o.Axis, &o.DrawMode} {
		if *p, err = r.ReadI32(); err != nil {
			return nil, err
		}
	}
	for _, p := range []*float32{&o.Red, &o.Green, &o.Blue} {
		if *p, err = r.ReadF32(); err != nil {
			return nil, err
		}
	}
	if o.PointDrawSize, err = r.ReadI32(); err != nil {
		return nil, err
	}
	sym, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	o.Symbol = Symbol(sym)
	for _, p := range []*uint8{&o.SymbolSize, &o.LineWidth2D, &o.LineWidth3D, &o.LineStyle, &o.SymbolFlags, &o.SymbolPad, &o.Transparency} {
		if *p, err = r.ReadU8(); err != nil {
			return nil, err
		}
	}
	nMeshes, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if o.Surfaces, err = r.ReadI32(); err != nil {
		return nil, err
	}
	if nContours < 0 || nMeshes < 0 {
		return nil, &FormatError{Offset: start, Tag: TagObject, Msg: fmt.Sprintf("negative counts %d contours, %d meshes", nContours, nMeshes)}
	}

	if err := d.objectChildren(o, int(nContours), int(nMeshes)); err != nil {
		return nil, err
	}
	if err := d.objectTrailer(o); err != nil {
		return nil, err
	}
	return o, nil
}

// objectChildren reads the interleaved CONT and MESH chunks.
func (d *decoder) objectChildren(o *Object, nContours, nMeshes int) error {
	r := d.r
	for len(o.Contours) < nContours || len(o.Meshes) < nMeshes {
		off := r.Offset()
		tag, ok, err := nextTag(r, childTags)
		if err != nil {
			return err
		}
		if !ok {
			return &FormatError{Offset: off, Tag: tag, Msg: fmt.Sprintf(
				"expected CONT or MESH, have %d/%d contours and %d/%d meshes",
				len(o.Contours), nContours, len(o.Meshes), nMeshes)}
		}
		switch tag {
		case TagContour:
			c, err := d.contour()
			if err != nil {
				return fmt.Errorf("object %q contour %d: %w", o.Name, len(o.Contours), err)
			}
			o.Contours = append(o.Contours, c)
		case TagMesh:
			m, err := d.mesh()
			if err != nil {
				return fmt.Errorf("object %q mesh %d: %w", o.Name, len(o.Meshes), err)
			}
			o.Meshes = append(o.Meshes, m)
		}
		o.order = append(o.order, tag)
	}
	return nil
}

// objectTrailer consumes IMAT, MEPA and storage chunks until a tag that
// belongs to the caller.
func (d *decoder) objectTrailer(o *Object) error {
	r := d.r
	for r.Remaining() >= binio.TagSize {
		tag, ok, err := nextTag(r, trailerTags)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		size, err := r.ReadI32()
		if err != nil {
			return err
		}
		switch tag {
		case TagMat:
			if size != imatPayloadLength {
				d.logf("imod: object %q IMAT length %d, expected %d", o.Name, size, imatPayloadLength)
			}
			mat, err := readMaterial(r)
			if err != nil {
				return err
			}
			o.Material = &mat
		case TagMeshPar:
			if size < 0 {
				return &FormatError{Offset: r.Offset() - 4, Tag: tag, Msg: fmt.Sprintf("negative length %d", size)}
			}
			if o.MeshParams, err = r.ReadBytes(int(size)); err != nil {
				return err
			}
		default:
			if size < 0 {
				return &FormatError{Offset: r.Offset() - 4, Tag: tag, Msg: fmt.Sprintf("negative length %d", size)}
			}
			if err := r.Skip(int(size)); err != nil {
				return err
			}
			o.Chunks = append(o.Chunks, Chunk{ID: tagID(tag), Size: size})
		}
	}
	return nil
}

func encodeObject(w *binio.Writer, o *Object) error {
	name, err := encodeText(o.Name)
	if err != nil {
		return &ValidationError{Field: "name", Value: o.Name, Msg: err.Error()}
	}
	w.WriteTag(TagObject)
	w.WriteFixed("object name", name, nameFieldSize)
	w.WriteBytes(o.Extra[:])
	w.WriteI32(int32(len(o.Contours)))
	w.WriteU32(o.Flags)
	w.WriteI32(o.Axis)
	w.WriteI32(o.DrawMode)
	w.WriteF32(o.Red)
	w.WriteF32(o.Green)
	w.WriteF32(o.Blue)
	w.WriteI32(o.PointDrawSize)
	for _, b := range []uint8{uint8(o.Symbol), o.SymbolSize, o.LineWidth2D, o.LineWidth3D, o.LineStyle, o.SymbolFlags, o.SymbolPad, o.Transparency} {
		w.WriteU8(b)
	}
	w.WriteI32(int32(len(o.Meshes)))
	w.WriteI32(o.Surfaces)
	if err := w.Err(); err != nil {
		return err
	}

	// Replay the interleave recorded at decode time; anything added since
	// goes after it, contours before meshes.
	ci, mi := 0, 0
	for _, tag := range o.order {
		switch {
		case tag == TagContour && ci < len(o.Contours):
			if err := encodeContour(w, o.Contours[ci]); err != nil {
				return fmt.Errorf("contour %d: %w", ci, err)
			}
			ci++
		case tag == TagMesh && mi < len(o.Meshes):
			if err := encodeMesh(w, o.Meshes[mi]); err != nil {
				return fmt.Errorf("mesh %d: %w", mi, err)
			}
			mi++
		}
	}
	for ; ci < len(o.Contours); ci++ {
		if err := encodeContour(w, o.Contours[ci]); err != nil {
			return fmt.Errorf("contour %d: %w", ci, err)
		}
	}
	for ; mi < len(o.Meshes); mi++ {
		if err := encodeMesh(w, o.Meshes[mi]); err != nil {
			return fmt.Errorf("mesh %d: %w", mi, err)
		}
	}

	if o.Material != nil {
		w.WriteTag(TagMat)
		w.WriteI32(imatPayloadLength)
		writeMaterial(w, *o.Material)
	}
	if o.MeshParams != nil {
		w.WriteTag(TagMeshPar)
		w.WriteI32(int32(len(o.MeshParams)))
		w.WriteBytes(o.MeshParams)
	}
	for _, c := range o.Chunks {
		w.WriteTag(c.Tag())
		w.WriteI32(c.Size)
		w.WriteZeros(int(c.Size))
	}
	return w.Err()
}
