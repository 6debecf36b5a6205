// Package colormap assigns display colours to objects from a cycling
// palette.
package colormap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"imodkit/pkg/imod"
)

// DefaultName is the name of the built-in palette.
const DefaultName = "imod"

// Colormap is an ordered palette. Components range from 0 to 255.
type Colormap struct {
	Name   string
	Colors [][3]float64
}

var imodColors = [][3]float64{
	{0, 255, 0},
	{0, 255, 255},
	{255, 0, 255},
	{255, 255, 0},
	{0, 0, 255},
	{255, 0, 0},
	{0, 255, 128},
	{200, 140, 255},
	{255, 128, 0},
	{128, 255, 0},
	{0, 128, 255},
	{255, 0, 128},
}

// Default returns the built-in palette.
func Default() *Colormap {
	c := &Colormap{Name: DefaultName, Colors: make([][3]float64, len(imodColors))}
	copy(c.Colors, imodColors)
	return c
}

// Resolve returns the built-in palette for "" or DefaultName and loads any
// other value as a .cmap file path.
func Resolve(nameOrPath string) (*Colormap, error) {
	if nameOrPath == "" || nameOrPath == DefaultName {
		return Default(), nil
	}
	return Load(nameOrPath)
}

// Load reads a .cmap file. Its name is the file name without extension.
func Load(path string) (*Colormap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("colormap: %w", err)
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, f)
}

// Parse reads one "R G B" triple per line. Blank lines are skipped.
func Parse(name string, r io.Reader) (*Colormap, error) {
	c := &Colormap{Name: name}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("colormap %s line %d: need 3 values, have %d", name, line, len(fields))
		}
		var rgb [3]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("colormap %s line %d: %w", name, line, err)
			}
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("colormap %s line %d: value %v outside 0-255", name, line, v)
			}
			rgb[i] = v
		}
		c.Colors = append(c.Colors, rgb)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("colormap %s: %w", name, err)
	}
	if len(c.Colors) == 0 {
		return nil, fmt.Errorf("colormap %s: no colours", name)
	}
	return c, nil
}

// Color returns entry i, wrapping around the palette. Negative indices
// count from the end. An empty palette yields black.
func (c *Colormap) Color(i int) [3]float64 {
	n := len(c.Colors)
	if n == 0 {
		return [3]float64{}
	}
	return c.Colors[((i%n)+n)%n]
}

// Apply colours o with entry i, scaled to 0-1.
func (c *Colormap) Apply(o *imod.Object, i int) error {
	if len(c.Colors) == 0 {
		return fmt.Errorf("colormap %q has no colors", c.Name)
	}
	rgb := c.Color(i)
	return o.SetColor(rgb[0]/255, rgb[1]/255, rgb[2]/255)
}

// ApplyAll colours every object of m by its position in the model.
func (c *Colormap) ApplyAll(m *imod.Model) error {
	for i, o := range m.Objects {
		if err := c.Apply(o, i); err != nil {
			return fmt.Errorf("object %d: %w", i+1, err)
		}
	}
	return nil
}
