package edit

import (
	"fmt"
	"math"

	"imodkit/internal/models"
	"imodkit/pkg/imod"
)

// DistanceResult is the outcome of one distance test.
type DistanceResult struct {
	Object   int // 1-based, numbered before any removal
	Contour  int // 1-based; 0 for whole-object tests
	Distance float64
	Removed  bool
}

// DistanceOptions thins the point sets before measuring. A skip of n keeps
// every n-th vertex or point; values below 1 keep all of them.
type DistanceOptions struct {
	SkipRef  int
	SkipTest int
}

// meshVertices returns the calibrated vertices of the single mesh of o.
// Mesh vertex arrays alternate position and normal triples; only the
// positions are kept.
func meshVertices(o *imod.Object, cal models.Calibration, skip int) (models.Points3D, error) {
	if len(o.Meshes) != 1 {
		return nil, fmt.Errorf("object %q has %d meshes, need exactly 1", o.Name, len(o.Meshes))
	}
	v := o.Meshes[0].Vertices
	pos := make([]float32, 0, len(v)/2)
	for i := 0; i+3 <= len(v); i += 6 {
		pos = append(pos, v[i:i+3]...)
	}
	return cal.Points(pos, skip), nil
}

func referenceIndex(m *imod.Model, ref int, skip int) (*models.PointIndex, models.Calibration, error) {
	cal := models.CalibrationOf(m)
	if ref < 1 || ref > len(m.Objects) {
		return nil, cal, fmt.Errorf("reference object %d out of range 1-%d", ref, len(m.Objects))
	}
	pts, err := meshVertices(m.Objects[ref-1], cal, skip)
	if err != nil {
		return nil, cal, fmt.Errorf("reference object: %w", err)
	}
	return models.NewPointIndex(pts), cal, nil
}

// FilterByMeshDistance measures, for every object other than ref, the
// minimum calibrated distance between its mesh vertices and those of the
// reference object, and removes the objects whose distance fails cmp
// against threshold. Objects without a mesh measure +Inf.
func FilterByMeshDistance(m *imod.Model, ref int, cmp Comparison, threshold float64, opts DistanceOptions) ([]DistanceResult, error) {
	ix, cal, err := referenceIndex(m, ref, opts.SkipRef)
	if err != nil {
		return nil, err
	}

	var results []DistanceResult
	for i, o := range m.Objects {
		if i == ref-1 {
			continue
		}
		d := math.Inf(1)
		if len(o.Meshes) > 0 {
			pts, err := meshVertices(o, cal, opts.SkipTest)
			if err != nil {
				return nil, err
			}
			d = ix.MinDistance(pts)
		}
		results = append(results, DistanceResult{Object: i + 1, Distance: d, Removed: !cmp(d, threshold)})
	}

	removed := make(map[int]bool, len(results))
	for _, r := range results {
		removed[r.Object] = r.Removed
	}
	kept := m.Objects[:0]
	for i, o := range m.Objects {
		if !removed[i+1] {
			kept = append(kept, o)
		}
	}
	clearTail(m.Objects, len(kept))
	m.Objects = kept
	return results, nil
}

// FilterByContourDistance measures the minimum calibrated distance between
// each contour of every other object and the reference object's mesh
// vertices, and removes the contours whose distance fails cmp against
// threshold. Objects themselves are kept even when left empty.
func FilterByContourDistance(m *imod.Model, ref int, cmp Comparison, threshold float64, opts DistanceOptions) ([]DistanceResult, error) {
	ix, cal, err := referenceIndex(m, ref, opts.SkipRef)
	if err != nil {
		return nil, err
	}

	var results []DistanceResult
	for i, o := range m.Objects {
		if i == ref-1 {
			continue
		}
		kept := o.Contours[:0]
		for j, c := range o.Contours {
			d := ix.MinDistance(cal.Points(c.Points, opts.SkipTest))
			res := DistanceResult{Object: i + 1, Contour: j + 1, Distance: d, Removed: !cmp(d, threshold)}
			results = append(results, res)
			if !res.Removed {
				kept = append(kept, c)
			}
		}
		clearTail(o.Contours, len(kept))
		o.Contours = kept
	}
	return results, nil
}
