package imod

import (
	"imodkit/pkg/binio"
)

const (
	// ObjectViewSize is the encoded size of one per-object view record.
	ObjectViewSize = 187
	// ModelViewHeaderSize is the encoded size of the model-level view
	// fields that precede the per-object records.
	ModelViewHeaderSize = 184

	materialSize = 16
	minxSize     = 72
	labelSize    = 32
	clipSlots    = 15
)

// Material is the shading block shared by IMAT chunks and object views.
type Material struct {
	Ambient   uint8
	Diffuse   uint8
	Specular  uint8
	Shininess uint8
	FillRed   uint8
	FillGreen uint8
	FillBlue  uint8
	Quality   uint8
	Mat2      int32
	ValBlack  uint8
	ValWhite  uint8
	MatFlags2 uint8
	Mat3b3    uint8
}

// DefaultMaterial returns the material new objects start with.
func DefaultMaterial() Material {
	return Material{Ambient: 102, Diffuse: 255, Specular: 127, Shininess: 4, ValWhite: 255}
}

func readMaterial(r *binio.Reader) (Material, error) {
	var m Material
	var err error
	u8s := []*uint8{&m.Ambient, &m.Diffuse, &m.Specular, &m.Shininess, &m.FillRed, &m.FillGreen, &m.FillBlue, &m.Quality}
	for _, p := range u8s {
		if *p, err = r.ReadU8(); err != nil {
			return m, err
		}
	}
	if m.Mat2, err = r.ReadI32(); err != nil {
		return m, err
	}
	for _, p := range []*uint8{&m.ValBlack, &m.ValWhite, &m.MatFlags2, &m.Mat3b3} {
		if *p, err = r.ReadU8(); err != nil {
			return m, err
		}
	}
	return m, nil
}

func writeMaterial(w *binio.Writer, m Material) {
	for _, v := range []uint8{m.Ambient, m.Diffuse, m.Specular, m.Shininess, m.FillRed, m.FillGreen, m.FillBlue, m.Quality} {
		w.WriteU8(v)
	}
	w.WriteI32(m.Mat2)
	for _, v := range []uint8{m.ValBlack, m.ValWhite, m.MatFlags2, m.Mat3b3} {
		w.WriteU8(v)
	}
}

// ObjectView is the saved display state of one object inside a VIEW chunk.
// ClipNormal/ClipPoint describe the single clip plane of the older layout;
// ClipNormals/ClipPoints are the 15-slot arrays that follow it. Both are
// kept as read.
type ObjectView struct {
	Flags         uint32
	Red           float32
	Green         float32
	Blue          float32
	PointDrawSize int32
	LineWidth     uint8
	LineStyle     uint8
	Trans         uint8
	ClipCount     uint8
	ClipFlags     uint8
	ClipTrans     uint8
	ClipPlane     uint8
	ClipNormal    [3]float32
	ClipPoint     [3]float32
	Material      Material
	ClipNormals   [clipSlots]float32
	ClipPoints    [clipSlots]float32
}

// DefaultObjectView returns a view record matching o's colour.
func DefaultObjectView(o *Object) *ObjectView {
	v := &ObjectView{
		LineWidth:  1,
		ClipNormal: [3]float32{0, 0, -1},
		Material:   DefaultMaterial(),
	}
	for i := 0; i < clipSlots; i += 3 {
		v.ClipNormals[i+2] = -1
	}
	if o != nil {
		v.Red, v.Green, v.Blue = o.Red, o.Green, o.Blue
	}
	return v
}

func (d *decoder) objectView() (*ObjectView, error) {
	r := d.r
	v := &ObjectView{}
	var err error
	if v.Flags, err = r.ReadU32(); err != nil {
		return nil, err
	}
	for _, p := range []*float32{&v.Red, &v.Green, &v.Blue} {
		if *p, err = r.ReadF32(); err != nil {
			return nil, err
		}
	}
	if v.PointDrawSize, err = r.ReadI32(); err != nil {
		return nil, err
	}
	for _, p := range []*uint8{&v.LineWidth, &v.LineStyle, &v.Trans, &v.ClipCount, &v.ClipFlags, &v.ClipTrans, &v.ClipPlane} {
		if *p, err = r.ReadU8(); err != nil {
			return nil, err
		}
	}
	if err = readVec3(r, &v.ClipNormal); err != nil {
		return nil, err
	}
	if err = readVec3(r, &v.ClipPoint); err != nil {
		return nil, err
	}
	if v.Material, err = readMaterial(r); err != nil {
		return nil, err
	}
	normals, err := r.ReadF32s(clipSlots)
	if err != nil {
		return nil, err
	}
	points, err := r.ReadF32s(clipSlots)
	if err != nil {
		return nil, err
	}
	copy(v.ClipNormals[:], normals)
	copy(v.ClipPoints[:], points)
	return v, nil
}

func encodeObjectView(w *binio.Writer, v *ObjectView) {
	w.WriteU32(v.Flags)
	w.WriteF32(v.Red)
	w.WriteF32(v.Green)
	w.WriteF32(v.Blue)
	w.WriteI32(v.PointDrawSize)
	for _, b := range []uint8{v.LineWidth, v.LineStyle, v.Trans, v.ClipCount, v.ClipFlags, v.ClipTrans, v.ClipPlane} {
		w.WriteU8(b)
	}
	w.WriteF32s(v.ClipNormal[:])
	w.WriteF32s(v.ClipPoint[:])
	writeMaterial(w, v.Material)
	w.WriteF32s(v.ClipNormals[:])
	w.WriteF32s(v.ClipPoints[:])
}

// ModelView is the global camera and display state of a VIEW chunk.
// The number of per-object records that follow it is derived from the
// objects when encoding.
type ModelView struct {
	Fovy       float32
	Rad        float32
	Aspect     float32
	CNear      float32
	CFar       float32
	Rot        [3]float32
	Trans      [3]float32
	Scale      [3]float32
	Mat        [16]float32
	World      int32
	Label      string
	DepthStart float32
	DepthEnd   float32
	LightX     float32
	LightY     float32
	Parallax   float32
}

// DefaultModelView returns the view state used for new models.
func DefaultModelView() *ModelView {
	return &ModelView{
		Rad:      4190,
		Aspect:   1,
		CFar:     1,
		Rot:      [3]float32{-80, -2, -50},
		Trans:    [3]float32{-6262.07958984, -4235.96142578, -90.3249206543},
		Scale:    [3]float32{1, 1, 1},
		Mat:      [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
		World:    2,
		Label:    "view 1",
		DepthEnd: 1,
		Parallax: 5,
	}
}

// modelView reads the model-level view fields and returns the count of
// per-object records that follow.
func (d *decoder) modelView() (*ModelView, int32, error) {
	r := d.r
	v := &ModelView{}
	var err error
	for _, p := range []*float32{&v.Fovy, &v.Rad, &v.Aspect, &v.CNear, &v.CFar} {
		if *p, err = r.ReadF32(); err != nil {
			return nil, 0, err
		}
	}
	for _, vec := range []*[3]float32{&v.Rot, &v.Trans, &v.Scale} {
		if err = readVec3(r, vec); err != nil {
			return nil, 0, err
		}
	}
	mat, err := r.ReadF32s(16)
	if err != nil {
		return nil, 0, err
	}
	copy(v.Mat[:], mat)
	if v.World, err = r.ReadI32(); err != nil {
		return nil, 0, err
	}
	label, err := r.ReadFixed(labelSize)
	if err != nil {
		return nil, 0, err
	}
	v.Label = decodeText(label)
	for _, p := range []*float32{&v.DepthStart, &v.DepthEnd, &v.LightX, &v.LightY, &v.Parallax} {
		if *p, err = r.ReadF32(); err != nil {
			return nil, 0, err
		}
	}
	objvsize, err := r.ReadI32()
	if err != nil {
		return nil, 0, err
	}
	// Byte count of the object records; recomputed on write.
	if err = r.Skip(4); err != nil {
		return nil, 0, err
	}
	return v, objvsize, nil
}

func encodeModelView(w *binio.Writer, v *ModelView, objvsize int32) error {
	label, err := encodeText(v.Label)
	if err != nil {
		return &ValidationError{Field: "view label", Value: v.Label, Msg: err.Error()}
	}
	w.WriteTag(TagView)
	w.WriteI32(ModelViewHeaderSize + objvsize*ObjectViewSize)
	w.WriteF32(v.Fovy)
	w.WriteF32(v.Rad)
	w.WriteF32(v.Aspect)
	w.WriteF32(v.CNear)
	w.WriteF32(v.CFar)
	w.WriteF32s(v.Rot[:])
	w.WriteF32s(v.Trans[:])
	w.WriteF32s(v.Scale[:])
	w.WriteF32s(v.Mat[:])
	w.WriteI32(v.World)
	w.WriteFixed("view label", label, labelSize)
	w.WriteF32(v.DepthStart)
	w.WriteF32(v.DepthEnd)
	w.WriteF32(v.LightX)
	w.WriteF32(v.LightY)
	w.WriteF32(v.Parallax)
	w.WriteI32(objvsize)
	w.WriteI32(objvsize * ObjectViewSize)
	return w.Err()
}

// Minx is the stack alignment transform: original and current scale,
// translation and rotation.
type Minx struct {
	OScale [3]float32
	OTrans [3]float32
	ORot   [3]float32
	CScale [3]float32
	CTrans [3]float32
	CRot   [3]float32
}

func (d *decoder) minx() (*Minx, error) {
	r := d.r
	// Length field, always 72.
	if err := r.Skip(4); err != nil {
		return nil, err
	}
	m := &Minx{}
	for _, vec := range []*[3]float32{&m.OScale, &m.OTrans, &m.ORot, &m.CScale, &m.CTrans, &m.CRot} {
		if err := readVec3(r, vec); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func encodeMinx(w *binio.Writer, m *Minx) {
	w.WriteTag(TagMinx)
	w.WriteI32(minxSize)
	for _, vec := range [][3]float32{m.OScale, m.OTrans, m.ORot, m.CScale, m.CTrans, m.CRot} {
		w.WriteF32s(vec[:])
	}
}

func readVec3(r *binio.Reader, v *[3]float32) error {
	vals, err := r.ReadF32s(3)
	if err != nil {
		return err
	}
	copy(v[:], vals)
	return nil
}
