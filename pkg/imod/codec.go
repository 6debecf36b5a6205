package imod

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"imodkit/pkg/binio"
)

// DecodeOptions controls decoding.
type DecodeOptions struct {
	// Lenient turns an unknown or missing tag after the last object into a
	// logged warning instead of an error. Everything decoded up to that
	// point is kept.
	Lenient bool
	// Logger receives warnings. Defaults to log.Default().
	Logger *log.Logger
}

type decoder struct {
	r    *binio.Reader
	opts DecodeOptions
}

func (d *decoder) logf(format string, args ...any) {
	l := d.opts.Logger
	if l == nil {
		l = log.Default()
	}
	l.Printf(format, args...)
}

// Decode reads a complete model from r in strict mode.
func Decode(r io.Reader) (*Model, error) {
	return DecodeWithOptions(r, DecodeOptions{})
}

// DecodeWithOptions reads a complete model from r.
func DecodeWithOptions(r io.Reader, opts DecodeOptions) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("imod: read: %w", err)
	}
	return DecodeBytes(data, opts)
}

// DecodeBytes decodes a model held in memory.
func DecodeBytes(data []byte, opts DecodeOptions) (*Model, error) {
	d := &decoder{r: binio.NewReader(data), opts: opts}
	return d.model()
}

func (d *decoder) model() (*Model, error) {
	r := d.r
	magic, err := r.ReadTag()
	if err != nil {
		return nil, err
	}
	if magic != TagModel {
		return nil, &FormatError{Offset: 0, Tag: magic, Msg: "not an IMOD model file"}
	}
	m := &Model{}
	version, err := r.ReadBytes(versionSize)
	if err != nil {
		return nil, err
	}
	m.Version = decodeText(version)
	name, err := r.ReadFixed(modelNameSize)
	if err != nil {
		return nil, err
	}
	m.Name = decodeText(name)

	nObjects, err := d.header(m)
	if err != nil {
		return nil, err
	}
	if nObjects < 0 {
		return nil, &FormatError{Offset: r.Offset(), Msg: fmt.Sprintf("negative object count %d", nObjects)}
	}

	for i := 0; i < int(nObjects); i++ {
		o, err := d.object()
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		m.Objects = append(m.Objects, o)
	}

	if err := d.trailer(m); err != nil {
		return nil, err
	}
	return m, nil
}

// header reads the fixed scalar header and returns the object count.
func (d *decoder) header(m *Model) (int32, error) {
	r := d.r
	var nObjects int32
	var err error
	for _, p := range []*int32{&m.XMax, &m.YMax, &m.ZMax, &nObjects} {
		if *p, err = r.ReadI32(); err != nil {
			return 0, err
		}
	}
	if m.Flags, err = r.ReadU32(); err != nil {
		return 0, err
	}
	for _, p := range []*int32{&m.DrawMode, &m.MouseMode, &m.BlackLevel, &m.WhiteLevel} {
		if *p, err = r.ReadI32(); err != nil {
			return 0, err
		}
	}
	for _, p := range []*float32{&m.XOffset, &m.YOffset, &m.ZOffset, &m.XScale, &m.YScale, &m.ZScale} {
		if *p, err = r.ReadF32(); err != nil {
			return 0, err
		}
	}
	for _, p := range []*int32{&m.Object, &m.Contour, &m.Point, &m.Res, &m.Thresh} {
		if *p, err = r.ReadI32(); err != nil {
			return 0, err
		}
	}
	if m.PixelSizeXY, err = r.ReadF32(); err != nil {
		return 0, err
	}
	for _, p := range []*int32{&m.Units, &m.Checksum} {
		if *p, err = r.ReadI32(); err != nil {
			return 0, err
		}
	}
	for _, p := range []*float32{&m.Alpha, &m.Beta, &m.Gamma} {
		if *p, err = r.ReadF32(); err != nil {
			return 0, err
		}
	}
	return nObjects, nil
}

// trailer reads VIEW and MINX chunks up to the IEOF sentinel.
func (d *decoder) trailer(m *Model) error {
	r := d.r
	for {
		if r.Remaining() < binio.TagSize {
			if d.opts.Lenient {
				d.logf("imod: missing IEOF at offset %d, stopping", r.Offset())
				return nil
			}
			return &TruncatedInputError{Offset: r.Offset(), Need: binio.TagSize, Have: r.Remaining()}
		}
		off := r.Offset()
		tag, ok, err := nextTag(r, modelTags)
		if err != nil {
			return err
		}
		if !ok {
			if d.opts.Lenient {
				d.logf("imod: unexpected tag %q at offset %d, stopping", tag, off)
				return nil
			}
			return &FormatError{Offset: off, Tag: tag, Msg: "expected VIEW, MINX or IEOF"}
		}

		switch tag {
		case TagEOF:
			return nil
		case TagMinx:
			if m.Minx != nil {
				return &FormatError{Offset: off, Tag: tag, Msg: "duplicate MINX chunk"}
			}
			if m.Minx, err = d.minx(); err != nil {
				return fmt.Errorf("MINX: %w", err)
			}
			m.trailer = append(m.trailer, trailerMinx)
		case TagView:
			if err := d.view(m); err != nil {
				return fmt.Errorf("VIEW: %w", err)
			}
		}
	}
}

func (d *decoder) view(m *Model) error {
	r := d.r
	size, err := r.ReadI32()
	if err != nil {
		return err
	}
	if size == 4 {
		marker, err := r.ReadBytes(4)
		if err != nil {
			return err
		}
		m.LegacyViews = append(m.LegacyViews, marker)
		m.trailer = append(m.trailer, trailerLegacyView)
		return nil
	}
	off := r.Offset()
	if m.View != nil {
		return &FormatError{Offset: off - 8, Tag: TagView, Msg: "duplicate VIEW chunk"}
	}
	v, objvsize, err := d.modelView()
	if err != nil {
		return err
	}
	if objvsize < 0 || int(objvsize) > len(m.Objects) {
		return &FormatError{Offset: off, Tag: TagView, Msg: fmt.Sprintf("%d object views for %d objects", objvsize, len(m.Objects))}
	}
	if want := ModelViewHeaderSize + objvsize*ObjectViewSize; size != want {
		d.logf("imod: VIEW length %d, expected %d for %d object views", size, want, objvsize)
	}
	m.View = v
	for i := 0; i < int(objvsize); i++ {
		ov, err := d.objectView()
		if err != nil {
			return fmt.Errorf("object view %d: %w", i, err)
		}
		m.Objects[i].View = ov
	}
	m.trailer = append(m.trailer, trailerView)
	return nil
}

// Encode writes m to w. Object, contour and mesh counts are taken from the
// list lengths at the time of the call.
func Encode(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	if err := encodeModel(binio.NewWriter(bw), m); err != nil {
		return err
	}
	return bw.Flush()
}

// EncodeBytes returns the encoded form of m.
func EncodeBytes(m *Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeModel(w *binio.Writer, m *Model) error {
	version, err := encodeText(m.Version)
	if err != nil {
		return &ValidationError{Field: "version", Value: m.Version, Msg: err.Error()}
	}
	name, err := encodeText(m.Name)
	if err != nil {
		return &ValidationError{Field: "model name", Value: m.Name, Msg: err.Error()}
	}
	w.WriteTag(TagModel)
	w.WriteFixed("version", version, versionSize)
	w.WriteFixed("model name", name, modelNameSize)
	w.WriteI32(m.XMax)
	w.WriteI32(m.YMax)
	w.WriteI32(m.ZMax)
	w.WriteI32(int32(len(m.Objects)))
	w.WriteU32(m.Flags)
	w.WriteI32(m.DrawMode)
	w.WriteI32(m.MouseMode)
	w.WriteI32(m.BlackLevel)
	w.WriteI32(m.WhiteLevel)
	for _, f := range []float32{m.XOffset, m.YOffset, m.ZOffset, m.XScale, m.YScale, m.ZScale} {
		w.WriteF32(f)
	}
	for _, v := range []int32{m.Object, m.Contour, m.Point, m.Res, m.Thresh} {
		w.WriteI32(v)
	}
	w.WriteF32(m.PixelSizeXY)
	w.WriteI32(m.Units)
	w.WriteI32(m.Checksum)
	w.WriteF32(m.Alpha)
	w.WriteF32(m.Beta)
	w.WriteF32(m.Gamma)
	if err := w.Err(); err != nil {
		return fmt.Errorf("imod: header: %w", err)
	}

	for i, o := range m.Objects {
		if err := encodeObject(w, o); err != nil {
			return fmt.Errorf("imod: object %d: %w", i, err)
		}
	}

	if err := encodeTrailer(w, m); err != nil {
		return err
	}
	w.WriteTag(TagEOF)
	if err := w.Err(); err != nil {
		return fmt.Errorf("imod: %w", err)
	}
	return nil
}

// encodeTrailer replays the VIEW/MINX sequence recorded at decode time.
// Chunks not covered by it follow in the order legacy markers, VIEW, MINX.
func encodeTrailer(w *binio.Writer, m *Model) error {
	legacy := 0
	viewDone, minxDone := m.View == nil, m.Minx == nil
	writeLegacy := func() {
		w.WriteTag(TagView)
		w.WriteI32(4)
		w.WriteFixed("legacy view", m.LegacyViews[legacy], 4)
		legacy++
	}
	writeView := func() error {
		viewDone = true
		n := m.objectViewCount()
		if err := encodeModelView(w, m.View, int32(n)); err != nil {
			return fmt.Errorf("imod: VIEW: %w", err)
		}
		for _, o := range m.Objects[:n] {
			v := o.View
			if v == nil {
				v = DefaultObjectView(o)
			}
			encodeObjectView(w, v)
		}
		return nil
	}

	for _, c := range m.trailer {
		switch {
		case c == trailerLegacyView && legacy < len(m.LegacyViews):
			writeLegacy()
		case c == trailerView && !viewDone:
			if err := writeView(); err != nil {
				return err
			}
		case c == trailerMinx && !minxDone:
			encodeMinx(w, m.Minx)
			minxDone = true
		}
	}
	for legacy < len(m.LegacyViews) {
		writeLegacy()
	}
	if !viewDone {
		if err := writeView(); err != nil {
			return err
		}
	}
	if !minxDone {
		encodeMinx(w, m.Minx)
	}
	return nil
}

// ReadFile decodes the model file at path in strict mode.
func ReadFile(path string) (*Model, error) {
	return ReadFileWithOptions(path, DecodeOptions{})
}

// ReadFileWithOptions decodes the model file at path.
func ReadFileWithOptions(path string, opts DecodeOptions) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imod: read %s: %w", path, err)
	}
	m, err := DecodeBytes(data, opts)
	if err != nil {
		return nil, fmt.Errorf("imod: decode %s: %w", path, err)
	}
	return m, nil
}

// WriteFile encodes m to path, replacing any existing file.
func WriteFile(path string, m *Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imod: create %s: %w", path, err)
	}
	if err := Encode(f, m); err != nil {
		f.Close()
		return fmt.Errorf("imod: write %s: %w", path, err)
	}
	return f.Close()
}
