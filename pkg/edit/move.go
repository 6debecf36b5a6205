package edit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"imodkit/pkg/imod"
)

// ParseObjectList expands a 1-based object list such as "1-3,7" into its
// numbers in the order given.
func ParseObjectList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("object list %q: empty entry", s)
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("object list %q: %w", s, err)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("object list %q: %w", s, err)
			}
		}
		if first < 1 || last < first {
			return nil, fmt.Errorf("object list %q: invalid range %q", s, part)
		}
		for i := first; i <= last; i++ {
			out = append(out, i)
		}
	}
	return out, nil
}

// MoveObjects appends the contours of every listed object to the
// destination object and removes the listed objects. Object numbers are
// 1-based; duplicates in list are ignored.
func MoveObjects(m *imod.Model, dest int, list []int) error {
	n := len(m.Objects)
	if dest < 1 || dest > n {
		return fmt.Errorf("destination object %d out of range 1-%d", dest, n)
	}
	move := make(map[int]bool, len(list))
	for _, i := range list {
		if i < 1 || i > n {
			return fmt.Errorf("object %d out of range 1-%d", i, n)
		}
		if i == dest {
			return fmt.Errorf("object %d is both source and destination", i)
		}
		move[i] = true
	}
	order := make([]int, 0, len(move))
	for i := range move {
		order = append(order, i)
	}
	sort.Ints(order)

	target := m.Objects[dest-1]
	for _, i := range order {
		target.Contours = append(target.Contours, m.Objects[i-1].Contours...)
	}
	kept := m.Objects[:0]
	for i, o := range m.Objects {
		if !move[i+1] {
			kept = append(kept, o)
		}
	}
	clearTail(m.Objects, len(kept))
	m.Objects = kept
	return nil
}
