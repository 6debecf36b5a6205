package edit

import (
	"imodkit/pkg/imod"
)

// FilterByNContours keeps only the objects whose contour count passes cmp
// against n. It returns the number of objects removed.
func FilterByNContours(m *imod.Model, cmp Comparison, n int) int {
	kept := m.Objects[:0]
	removed := 0
	for _, o := range m.Objects {
		if cmp(float64(len(o.Contours)), float64(n)) {
			kept = append(kept, o)
		} else {
			removed++
		}
	}
	clearTail(m.Objects, len(kept))
	m.Objects = kept
	return removed
}

// FilterByNPoints keeps only the contours of o whose point count passes cmp
// against n. It returns the number of contours removed.
func FilterByNPoints(o *imod.Object, cmp Comparison, n int) int {
	kept := o.Contours[:0]
	removed := 0
	for _, c := range o.Contours {
		if cmp(float64(c.NumPoints()), float64(n)) {
			kept = append(kept, c)
		} else {
			removed++
		}
	}
	clearTail(o.Contours, len(kept))
	o.Contours = kept
	return removed
}

// RemoveEmptyContours drops every contour without points.
func RemoveEmptyContours(m *imod.Model) int {
	return filterAllContours(m, 0)
}

// RemoveSmallContours drops every contour with fewer than three points.
func RemoveSmallContours(m *imod.Model) int {
	return filterAllContours(m, 2)
}

func filterAllContours(m *imod.Model, min int) int {
	gt := comparisons[">"]
	removed := 0
	for _, o := range m.Objects {
		removed += FilterByNPoints(o, gt, min)
	}
	return removed
}

// RemoveBorderObjects drops every object with a point on the image border:
// x or y within one pixel of the edge, or z on the first or last section.
func RemoveBorderObjects(m *imod.Model) int {
	xMax, yMax, zMax := float32(m.XMax), float32(m.YMax), float32(m.ZMax)
	onBorder := func(o *imod.Object) bool {
		for _, c := range o.Contours {
			for i := 0; i < c.NumPoints(); i++ {
				x, y, z := c.Point(i)
				if x < 1 || x > xMax-1 || y < 1 || y > yMax-1 || z == 0 || z == zMax-1 {
					return true
				}
			}
		}
		return false
	}

	kept := m.Objects[:0]
	removed := 0
	for _, o := range m.Objects {
		if onBorder(o) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	clearTail(m.Objects, len(kept))
	m.Objects = kept
	return removed
}

// clearTail nils the entries past n so filtered-out elements can be
// collected.
func clearTail[T any](s []*T, n int) {
	for i := n; i < len(s); i++ {
		s[i] = nil
	}
}
