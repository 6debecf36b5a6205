// Package stl exports model meshes as binary STL files.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"imodkit/internal/models"
	"imodkit/pkg/imod"
	"imodkit/pkg/info"
)

// Mesh index list codes. Non-negative entries are vertex indices.
const (
	meshEnd         = -1
	meshNormal      = -2
	meshBgnLine     = -3
	meshEndLine     = -4
	meshSwap        = -10
	meshBgnPoly     = -21
	meshEndPoly     = -22
	meshBgnPolyNorm = -23
	meshBgnBigPoly  = -24
	meshPolyNorm2   = -25
)

const (
	headerSize   = 80
	triangleSize = 50
)

// Triangle represents a triangle in 3D space with a normal vector
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// FromMesh converts the polygon runs of mesh into calibrated triangles.
// Line runs are skipped. Normals are recomputed from the winding.
func FromMesh(mesh *imod.Mesh, cal models.Calibration) ([]Triangle, error) {
	nv := mesh.NumVertices()
	vertex := func(i int32) (r3.Vec, error) {
		if i < 0 || int(i) >= nv {
			return r3.Vec{}, fmt.Errorf("vertex index %d out of range [0,%d)", i, nv)
		}
		v := mesh.Vertices[3*i : 3*i+3]
		return cal.Point(v[0], v[1], v[2]).Vec(), nil
	}

	var tris []Triangle
	var poly []int32
	pairs := false
	inPoly, inLine := false, false
	flush := func() error {
		for k := 0; k+3 <= len(poly); k += 3 {
			a, err := vertex(poly[k])
			if err != nil {
				return err
			}
			b, err := vertex(poly[k+1])
			if err != nil {
				return err
			}
			c, err := vertex(poly[k+2])
			if err != nil {
				return err
			}
			tris = append(tris, newTriangle(a, b, c))
		}
		poly = poly[:0]
		return nil
	}

	idx := mesh.Indices
	for i := 0; i < len(idx); i++ {
		switch v := idx[i]; {
		case v == meshEnd:
			return tris, flush()
		case v == meshBgnPoly, v == meshBgnBigPoly, v == meshPolyNorm2:
			inPoly, pairs = true, false
		case v == meshBgnPolyNorm:
			inPoly, pairs = true, true
		case v == meshEndPoly:
			if err := flush(); err != nil {
				return nil, err
			}
			inPoly = false
		case v == meshBgnLine:
			inLine = true
		case v == meshEndLine:
			inLine = false
		case v == meshNormal, v == meshSwap:
		case v < 0:
			return nil, fmt.Errorf("unknown mesh code %d at index %d", v, i)
		case inLine || !inPoly:
		case pairs:
			// Normal index first, then vertex index.
			if i+1 >= len(idx) {
				return nil, fmt.Errorf("unpaired normal index at %d", i)
			}
			i++
			poly = append(poly, idx[i])
		default:
			poly = append(poly, v)
		}
	}
	return tris, flush()
}

func newTriangle(a, b, c r3.Vec) Triangle {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if norm := r3.Norm(n); norm > 0 {
		n = r3.Scale(1/norm, n)
	}
	return Triangle{
		Normal:  vec32(n),
		Vertex1: vec32(a),
		Vertex2: vec32(b),
		Vertex3: vec32(c),
	}
}

func vec32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// WriteSTL writes triangles in binary STL format. name fills the header
// and is truncated to 80 bytes.
func WriteSTL(w io.Writer, name string, triangles []Triangle) error {
	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:], name)
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return err
	}

	var rec [triangleSize]byte
	for _, t := range triangles {
		off := 0
		for _, v := range [][3]float32{t.Normal, t.Vertex1, t.Vertex2, t.Vertex3} {
			for _, f := range v {
				binary.LittleEndian.PutUint32(rec[off:], math.Float32bits(f))
				off += 4
			}
		}
		// Attribute byte count, unused.
		binary.LittleEndian.PutUint16(rec[off:], 0)
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveToSTL saves triangles to a binary STL file
func SaveToSTL(filename string, triangles []Triangle) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %w", err)
	}
	if err := WriteSTL(f, "imodkit", triangles); err != nil {
		f.Close()
		return fmt.Errorf("failed to write STL file: %w", err)
	}
	return f.Close()
}

// ExportObject writes the single mesh of object n (1-based) of m to path,
// in the model's calibrated units.
func ExportObject(m *imod.Model, n int, path string) (int, error) {
	mesh, err := info.MeshOf(m, n)
	if err != nil {
		return 0, err
	}
	tris, err := FromMesh(mesh, models.CalibrationOf(m))
	if err != nil {
		return 0, fmt.Errorf("object %d: %w", n, err)
	}
	if err := SaveToSTL(path, tris); err != nil {
		return 0, err
	}
	return len(tris), nil
}
