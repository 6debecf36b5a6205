// Package edit implements bulk edits on decoded models: filtering objects
// and contours by count or distance, merging objects and applying display
// properties from the command line or a table.
package edit

import (
	"fmt"
	"sort"
	"strings"
)

// Comparison reports whether a value passes a threshold.
type Comparison func(value, threshold float64) bool

var comparisons = map[string]Comparison{
	">":  func(a, b float64) bool { return a > b },
	"<":  func(a, b float64) bool { return a < b },
	">=": func(a, b float64) bool { return a >= b },
	"<=": func(a, b float64) bool { return a <= b },
	"=":  func(a, b float64) bool { return a == b },
	"==": func(a, b float64) bool { return a == b },
}

// ParseComparison looks up one of >, <, >=, <=, = or ==.
func ParseComparison(op string) (Comparison, error) {
	if c, ok := comparisons[op]; ok {
		return c, nil
	}
	ops := make([]string, 0, len(comparisons))
	for k := range comparisons {
		ops = append(ops, k)
	}
	sort.Strings(ops)
	return nil, fmt.Errorf("invalid comparison %q: must be one of %s", op, strings.Join(ops, " "))
}
