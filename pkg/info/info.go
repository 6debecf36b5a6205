// Package info summarizes a decoded model: header calibration and
// per-object contour, point and mesh metrics in physical units.
package info

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"imodkit/internal/models"
	"imodkit/pkg/imod"
)

// Summary describes a whole model.
type Summary struct {
	Name    string
	Version string
	Dims    [3]int32
	Offsets [3]float32
	Scales  [3]float32
	PixelXY float64
	PixelZ  float64
	Units   string
	HasView bool
	HasMinx bool
	// CurScale and CurTrans are the MINX current transform, identity
	// without MINX.
	CurScale   [3]float32
	CurTrans   [3]float32
	Objects    []ObjectSummary
	Contours   int
	Points     int
	TotalLen   float64
	MaxObjLen  float64
	MeshedObjs int
}

// ObjectSummary describes one object. Lengths and bounds are calibrated.
type ObjectSummary struct {
	Index    int // 1-based
	Name     string
	Type     imod.ObjectType
	Contours int
	Points   int
	Meshes   int
	Vertices int
	// Length is the summed contour length; closed objects include the
	// closing segment of each contour.
	Length float64
	// MinPoints and MaxPoints range over contours; zero without contours.
	MinPoints int
	MaxPoints int
	Bounds    r3.Box
	HasBounds bool
	Center    r3.Vec
}

// Summarize computes a Summary of m.
func Summarize(m *imod.Model) Summary {
	cal := models.CalibrationOf(m)
	s := Summary{
		Name:     m.Name,
		Version:  m.Version,
		Dims:     [3]int32{m.XMax, m.YMax, m.ZMax},
		Offsets:  [3]float32{m.XOffset, m.YOffset, m.ZOffset},
		Scales:   [3]float32{m.XScale, m.YScale, m.ZScale},
		PixelXY:  cal.PixelXY,
		PixelZ:   cal.PixelZ,
		Units:    cal.Units,
		HasView:  m.View != nil,
		HasMinx:  m.Minx != nil,
		CurScale: m.Scale(),
		CurTrans: m.Trans(),
	}

	lengths := make([]float64, 0, len(m.Objects))
	for i, o := range m.Objects {
		obj := summarizeObject(i+1, o, cal)
		s.Objects = append(s.Objects, obj)
		s.Contours += obj.Contours
		s.Points += obj.Points
		if obj.Meshes > 0 {
			s.MeshedObjs++
		}
		lengths = append(lengths, obj.Length)
	}
	if len(lengths) > 0 {
		s.TotalLen = floats.Sum(lengths)
		s.MaxObjLen = floats.Max(lengths)
	}
	return s
}

func summarizeObject(index int, o *imod.Object, cal models.Calibration) ObjectSummary {
	obj := ObjectSummary{
		Index:    index,
		Name:     o.Name,
		Type:     o.Type(),
		Contours: len(o.Contours),
		Points:   o.NumPoints(),
		Meshes:   len(o.Meshes),
	}
	for _, me := range o.Meshes {
		obj.Vertices += me.NumVertices()
	}

	closed := o.Type() == imod.Closed
	counts := make([]float64, 0, len(o.Contours))
	lengths := make([]float64, 0, len(o.Contours))
	var all models.Points3D
	for _, c := range o.Contours {
		pts := cal.Points(c.Points, 1)
		counts = append(counts, float64(len(pts)))
		if o.Type() != imod.Scattered {
			lengths = append(lengths, models.PathLength(pts, closed))
		}
		all = append(all, pts...)
	}
	if len(counts) > 0 {
		obj.MinPoints = int(floats.Min(counts))
		obj.MaxPoints = int(floats.Max(counts))
	}
	if len(lengths) > 0 {
		obj.Length = floats.Sum(lengths)
	}
	if box, ok := models.Bounds(all); ok {
		obj.Bounds = box
		obj.HasBounds = true
		obj.Center = r3.Scale(0.5, r3.Add(box.Min, box.Max))
	}
	return obj
}

// MeshOf returns the single mesh of object n (1-based).
func MeshOf(m *imod.Model, n int) (*imod.Mesh, error) {
	if n < 1 || n > len(m.Objects) {
		return nil, fmt.Errorf("object %d out of range 1-%d", n, len(m.Objects))
	}
	o := m.Objects[n-1]
	if len(o.Meshes) != 1 {
		return nil, fmt.Errorf("object %d has %d meshes, need exactly 1", n, len(o.Meshes))
	}
	return o.Meshes[0], nil
}

// Fprint writes a human-readable report of s to w.
func Fprint(w io.Writer, s Summary) error {
	ew := &errWriter{w: w}
	ew.printf("Model: %s (%s)\n\n", s.Name, s.Version)
	ew.printf("Image Dimensions: %d %d %d\n", s.Dims[0], s.Dims[1], s.Dims[2])
	ew.printf("Image Offsets: %g %g %g\n\n", s.Offsets[0], s.Offsets[1], s.Offsets[2])
	ew.printf("Number of Objects: %d\n", len(s.Objects))
	ew.printf("Model Scales: %g %g %g\n", s.Scales[0], s.Scales[1], s.Scales[2])
	if s.HasMinx {
		ew.printf("Current Scale: %g %g %g\n", s.CurScale[0], s.CurScale[1], s.CurScale[2])
		ew.printf("Current Translation: %g %g %g\n", s.CurTrans[0], s.CurTrans[1], s.CurTrans[2])
	}
	ew.printf("Voxel Size (X/Y): %g %s\n", s.PixelXY, s.Units)
	ew.printf("Voxel Size (Z): %g %s\n", s.PixelZ, s.Units)
	ew.printf("Contours: %d  Points: %d  Meshed objects: %d\n", s.Contours, s.Points, s.MeshedObjs)
	ew.printf("Total contour length: %.3f %s\n", s.TotalLen, s.Units)

	for _, o := range s.Objects {
		ew.printf("\nOBJECT %d: %s (%s)\n", o.Index, o.Name, o.Type)
		ew.printf("  Contours: %d  Points: %d (%d-%d per contour)\n", o.Contours, o.Points, o.MinPoints, o.MaxPoints)
		ew.printf("  Meshes: %d  Vertices: %d\n", o.Meshes, o.Vertices)
		ew.printf("  Length: %.3f %s\n", o.Length, s.Units)
		if o.HasBounds {
			ew.printf("  Bounding Box: (%.2f, %.2f, %.2f) - (%.2f, %.2f, %.2f)\n",
				o.Bounds.Min.X, o.Bounds.Min.Y, o.Bounds.Min.Z, o.Bounds.Max.X, o.Bounds.Max.Y, o.Bounds.Max.Z)
			ew.printf("  Center: (%.2f, %.2f, %.2f)\n", o.Center.X, o.Center.Y, o.Center.Z)
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
