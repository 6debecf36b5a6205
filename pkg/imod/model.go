// Package imod reads and writes IMOD binary model files: point, contour and
// mesh annotations laid over a volumetric image stack.
//
// A file is decoded in one pass into a Model graph and written back in the
// same chunk order, so an unmodified graph re-encodes to the bytes it was
// read from. The exceptions are the payloads of object storage chunks,
// which are written as zeros, and reserved bytes the format leaves unused.
package imod

import (
	"fmt"
	"slices"
)

const (
	modelNameSize    = 128
	versionSize      = 4
	defaultVersion   = "V1.2"
	defaultName      = "ImodModel"
	defaultFlags     = 15360
	defaultMouseMode = 2
)

// Model is the root of a decoded model file.
type Model struct {
	Version string
	Name    string

	XMax, YMax, ZMax int32
	Flags            uint32
	DrawMode         int32
	MouseMode        int32
	BlackLevel       int32
	WhiteLevel       int32

	XOffset, YOffset, ZOffset float32
	XScale, YScale, ZScale    float32

	// Editor cursor state, round-tripped untouched.
	Object, Contour, Point int32

	Res         int32
	Thresh      int32
	PixelSizeXY float32
	Units       int32
	Checksum    int32

	Alpha, Beta, Gamma float32

	Objects []*Object

	// View is the global display state; nil when the file had no VIEW chunk.
	View *ModelView
	// LegacyViews holds the payloads of 4-byte VIEW chunks in file order,
	// written back verbatim.
	LegacyViews [][]byte
	Minx        *Minx

	// trailer is the VIEW/MINX chunk sequence as read, replayed on write.
	trailer []trailerChunk
}

type trailerChunk uint8

const (
	trailerLegacyView trailerChunk = iota
	trailerView
	trailerMinx
)

// NewModel returns an empty model with the default header values.
func NewModel() *Model {
	return &Model{
		Version:     defaultVersion,
		Name:        defaultName,
		Flags:       defaultFlags,
		DrawMode:    1,
		MouseMode:   defaultMouseMode,
		WhiteLevel:  255,
		XScale:      1,
		YScale:      1,
		ZScale:      1,
		Point:       -1,
		Res:         3,
		PixelSizeXY: 1,
	}
}

// NumObjects returns len(m.Objects).
func (m *Model) NumObjects() int { return len(m.Objects) }

// AddObject appends o. When the model carries a global view, o receives a
// default object view if it has none, so the view count tracks the objects.
func (m *Model) AddObject(o *Object) *Object {
	if m.View != nil && o.View == nil {
		o.View = DefaultObjectView(o)
	}
	m.Objects = append(m.Objects, o)
	return o
}

// RemoveObject deletes the object at index i (0-based).
func (m *Model) RemoveObject(i int) error {
	if i < 0 || i >= len(m.Objects) {
		return fmt.Errorf("imod: object index %d out of range [0,%d)", i, len(m.Objects))
	}
	m.Objects = append(m.Objects[:i], m.Objects[i+1:]...)
	return nil
}

// PixelSizeZ is the Z voxel size, always zScale × pixelSizeXY.
func (m *Model) PixelSizeZ() float32 { return m.ZScale * m.PixelSizeXY }

// SetPixelSizeXY changes the XY voxel size and rescales zScale so that the
// Z voxel size is unchanged.
func (m *Model) SetPixelSizeXY(size float32) error {
	if !(size > 0) {
		return &ValidationError{Field: "pixel size XY", Value: size, Msg: "must be > 0"}
	}
	z := m.PixelSizeZ()
	m.PixelSizeXY = size
	m.ZScale = z / size
	return nil
}

// SetPixelSizeZ changes the Z voxel size by rescaling zScale.
func (m *Model) SetPixelSizeZ(size float32) error {
	if !(size > 0) {
		return &ValidationError{Field: "pixel size Z", Value: size, Msg: "must be > 0"}
	}
	if !(m.PixelSizeXY > 0) {
		return &ValidationError{Field: "pixel size XY", Value: m.PixelSizeXY, Msg: "must be > 0 before setting Z"}
	}
	m.ZScale = size / m.PixelSizeXY
	return nil
}

// SetImageSize sets the image dimensions; all must be positive.
func (m *Model) SetImageSize(x, y, z int32) error {
	if x <= 0 || y <= 0 || z <= 0 {
		return &ValidationError{Field: "image size", Value: [3]int32{x, y, z}, Msg: "all dimensions must be > 0"}
	}
	m.XMax, m.YMax, m.ZMax = x, y, z
	return nil
}

// UnitsString returns the label of the model's unit code.
func (m *Model) UnitsString() string { return UnitCodeToString(m.Units) }

// SetUnits sets the unit code from its label.
func (m *Model) SetUnits(label string) error {
	code, ok := UnitStringToCode(label)
	if !ok {
		return &ValidationError{Field: "units", Value: label, Msg: "unknown unit"}
	}
	m.Units = code
	return nil
}

// SetName sets the model name (at most 128 bytes).
func (m *Model) SetName(name string) error {
	n, err := textLen(name)
	if err != nil {
		return &ValidationError{Field: "model name", Value: name, Msg: err.Error()}
	}
	if n > modelNameSize {
		return &ValidationError{Field: "model name", Value: name, Msg: "longer than 128 bytes"}
	}
	m.Name = name
	return nil
}

// Scale returns the current MINX scale, or unit scale without MINX.
func (m *Model) Scale() [3]float32 {
	if m.Minx != nil {
		return m.Minx.CScale
	}
	return [3]float32{1, 1, 1}
}

// Trans returns the current MINX translation, or zero without MINX.
func (m *Model) Trans() [3]float32 {
	if m.Minx != nil {
		return m.Minx.CTrans
	}
	return [3]float32{}
}

// objectViewCount is the number of per-object view records to write. A
// decoded view keeps its records up to and including the last object that
// has one; a view set by the caller covers every object.
func (m *Model) objectViewCount() int {
	if !slices.Contains(m.trailer, trailerView) {
		return len(m.Objects)
	}
	n := 0
	for i, o := range m.Objects {
		if o.View != nil {
			n = i + 1
		}
	}
	return n
}
