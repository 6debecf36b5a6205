package models

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"imodkit/pkg/imod"
)

// Calibration maps model pixel coordinates to physical units
type Calibration struct {
	// PixelXY is the physical size of one pixel along X and Y
	PixelXY float64

	// PixelZ is the physical size of one section along Z
	PixelZ float64

	// Units is the label of the physical unit, e.g. "nm"
	Units string
}

// CalibrationOf returns the voxel calibration of m
func CalibrationOf(m *imod.Model) Calibration {
	return Calibration{
		PixelXY: float64(m.PixelSizeXY),
		PixelZ:  float64(m.PixelSizeZ()),
		Units:   m.UnitsString(),
	}
}

// Point converts a pixel coordinate triple to a calibrated point
func (c Calibration) Point(x, y, z float32) Point3D {
	return Point3D{X: float64(x) * c.PixelXY, Y: float64(y) * c.PixelXY, Z: float64(z) * c.PixelZ}
}

// Points converts packed x,y,z triples, keeping every skip-th triple.
// A skip below 1 keeps all of them.
func (c Calibration) Points(xyz []float32, skip int) Points3D {
	if skip < 1 {
		skip = 1
	}
	n := len(xyz) / 3
	out := make(Points3D, 0, (n+skip-1)/skip)
	for i := 0; i < n; i += skip {
		out = append(out, c.Point(xyz[3*i], xyz[3*i+1], xyz[3*i+2]))
	}
	return out
}

// Bounds returns the axis-aligned box enclosing pts.
// ok is false for an empty set.
func Bounds(pts []Point3D) (box r3.Box, ok bool) {
	if len(pts) == 0 {
		return r3.Box{}, false
	}
	// r3.Box.Union treats flat boxes as empty, so extend by hand.
	box = r3.Box{Min: pts[0].Vec(), Max: pts[0].Vec()}
	for _, p := range pts[1:] {
		box.Min = r3.Vec{X: math.Min(box.Min.X, p.X), Y: math.Min(box.Min.Y, p.Y), Z: math.Min(box.Min.Z, p.Z)}
		box.Max = r3.Vec{X: math.Max(box.Max.X, p.X), Y: math.Max(box.Max.Y, p.Y), Z: math.Max(box.Max.Z, p.Z)}
	}
	return box, true
}

// PathLength returns the summed segment lengths along pts. When closed is
// set the segment from the last point back to the first is included.
func PathLength(pts []Point3D, closed bool) float64 {
	if len(pts) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(pts); i++ {
		total += r3.Norm(r3.Sub(pts[i].Vec(), pts[i-1].Vec()))
	}
	if closed {
		total += r3.Norm(r3.Sub(pts[0].Vec(), pts[len(pts)-1].Vec()))
	}
	return total
}
