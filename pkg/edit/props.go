package edit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"imodkit/pkg/imod"
)

// Properties are display settings applied to every object by SetAll.
// Zero values leave the corresponding setting unchanged.
type Properties struct {
	Color        []float64
	LineWidth    int
	Transparency *int
	Name         string
}

// ParseColor reads three components separated by commas or whitespace.
func ParseColor(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 3 {
		return nil, fmt.Errorf("color %q: need 3 components, have %d", s, len(fields))
	}
	rgb := make([]float64, 3)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", s, err)
		}
		rgb[i] = v
	}
	return rgb, nil
}

// SetAll applies p to every object of m and stops at the first invalid
// value.
func SetAll(m *imod.Model, p Properties) error {
	if p.Color != nil && len(p.Color) != 3 {
		return fmt.Errorf("color needs 3 components, have %d", len(p.Color))
	}
	for i, o := range m.Objects {
		if err := apply(o, p); err != nil {
			return fmt.Errorf("object %d: %w", i+1, err)
		}
	}
	return nil
}

func apply(o *imod.Object, p Properties) error {
	if p.Color != nil {
		if err := o.SetColor(p.Color[0], p.Color[1], p.Color[2]); err != nil {
			return err
		}
	}
	if p.LineWidth != 0 {
		if err := o.SetLineWidth(p.LineWidth); err != nil {
			return err
		}
	}
	if p.Transparency != nil {
		if err := o.SetTransparency(*p.Transparency); err != nil {
			return err
		}
	}
	if p.Name != "" {
		if err := o.SetName(p.Name); err != nil {
			return err
		}
	}
	return nil
}

// Change records one property edited by SetFromTable.
type Change struct {
	Object int // 1-based
	Name   string
	Field  string
	Before string
	After  string
}

func (c Change) String() string {
	return fmt.Sprintf("object %d (%s) %s: %s -> %s", c.Object, c.Name, c.Field, c.Before, c.After)
}

var tableColumns = map[string]string{
	"name":         "name",
	"names":        "name",
	"object name":  "name",
	"object names": "name",
	"color":        "color",
	"colors":       "color",
	"rgb":          "color",
	"transparency": "transparency",
	"transp":       "transparency",
	"line width":   "linewidth",
	"linewidth":    "linewidth",
}

// SetFromTable applies per-object properties read from a CSV table. The
// first column holds object names; the header names the remaining columns
// (color, linewidth, transparency and their aliases). Lines starting with
// '#' are ignored and single quotes around values are stripped. Objects
// not named in the table are left alone.
func SetFromTable(m *imod.Model, r io.Reader) ([]Change, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("table header: %w", err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		k, ok := tableColumns[strings.ToLower(unquote(h))]
		if !ok {
			return nil, fmt.Errorf("table header: unknown column %q", h)
		}
		keys[i] = k
	}
	if keys[0] != "name" {
		return nil, fmt.Errorf("table header: first column must be the object name, have %q", header[0])
	}

	rows := make(map[string][]string)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: %w", err)
		}
		for i := range rec {
			rec[i] = unquote(rec[i])
		}
		rows[rec[0]] = rec[1:]
	}

	var changes []Change
	for i, o := range m.Objects {
		props, ok := rows[o.Name]
		if !ok {
			continue
		}
		for j, v := range props {
			if j+1 >= len(keys) {
				break
			}
			ch := Change{Object: i + 1, Name: o.Name, Field: keys[j+1]}
			switch ch.Field {
			case "color":
				rgb, err := ParseColor(v)
				if err != nil {
					return changes, fmt.Errorf("object %q: %w", o.Name, err)
				}
				ch.Before = formatColor(o)
				if err := o.SetColor(rgb[0], rgb[1], rgb[2]); err != nil {
					return changes, fmt.Errorf("object %q: %w", o.Name, err)
				}
				ch.After = formatColor(o)
			case "linewidth":
				lw, err := strconv.Atoi(v)
				if err != nil {
					return changes, fmt.Errorf("object %q line width: %w", o.Name, err)
				}
				ch.Before = strconv.Itoa(int(o.LineWidth2D))
				if err := o.SetLineWidth(lw); err != nil {
					return changes, fmt.Errorf("object %q: %w", o.Name, err)
				}
				ch.After = strconv.Itoa(int(o.LineWidth2D))
			case "transparency":
				tr, err := strconv.Atoi(v)
				if err != nil {
					return changes, fmt.Errorf("object %q transparency: %w", o.Name, err)
				}
				ch.Before = strconv.Itoa(int(o.Transparency))
				if err := o.SetTransparency(tr); err != nil {
					return changes, fmt.Errorf("object %q: %w", o.Name, err)
				}
				ch.After = strconv.Itoa(int(o.Transparency))
			default:
				continue
			}
			changes = append(changes, ch)
		}
	}
	return changes, nil
}

func unquote(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "'", ""))
}

func formatColor(o *imod.Object) string {
	return fmt.Sprintf("%.2f,%.2f,%.2f", o.Red, o.Green, o.Blue)
}
