// Package gen builds synthetic models: primitive shapes, the blank model
// used to draw training labels, and the tutorial model.
package gen

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"imodkit/pkg/colormap"
	"imodkit/pkg/imod"
)

// Mesher turns contours into meshes, normally by running an external tool.
type Mesher interface {
	Run(ctx context.Context, m *imod.Model) (*imod.Model, error)
}

// SphereObject returns a closed object approximating a sphere of the given
// radius: one contour of n points on every integer section strictly inside
// the sphere. X and Y are rounded to two decimals.
func SphereObject(center r3.Vec, radius, n int) *imod.Object {
	o := imod.NewObject()
	o.Name = fmt.Sprintf("sphere r=%d", radius)
	r := float64(radius)
	for z := -radius + 1; z < radius; z++ {
		phi := math.Acos(float64(z) / r)
		c := &imod.Contour{Points: make([]float32, 0, 3*n)}
		for i := 0; i < n; i++ {
			theta := 2 * math.Pi * float64(i) / float64(n)
			off := r3.Vec{
				X: r * math.Sin(phi) * math.Cos(theta),
				Y: r * math.Sin(phi) * math.Sin(theta),
				Z: float64(z),
			}
			p := r3.Add(center, off)
			c.AddPoint(round2(p.X), round2(p.Y), float32(p.Z))
		}
		o.Contours = append(o.Contours, c)
	}
	return o
}

// CubeObject returns a closed object with one square contour of side dim
// (integer half-width) per section across dim sections.
func CubeObject(center r3.Vec, dim int) *imod.Object {
	o := imod.NewObject()
	o.Name = fmt.Sprintf("cube %d", dim)
	half := float64(dim / 2)
	lo, hi := -(dim / 2), dim/2
	if dim%2 == 0 {
		lo++
	}
	corners := []r3.Vec{{X: half, Y: half}, {X: half, Y: -half}, {X: -half, Y: -half}, {X: -half, Y: half}}
	for z := lo; z <= hi; z++ {
		c := &imod.Contour{Points: make([]float32, 0, 12)}
		for _, k := range corners {
			p := r3.Add(center, r3.Vec{X: k.X, Y: k.Y, Z: float64(z)})
			c.AddPoint(float32(p.X), float32(p.Y), float32(p.Z))
		}
		o.Contours = append(o.Contours, c)
	}
	return o
}

func round2(v float64) float32 {
	return float32(math.Round(v*100) / 100)
}

// BlankTrainingModel returns an empty two-object model for drawing
// training labels: scattered seed points and closed training contours.
// It has no image size so it loads over any image stack.
func BlankTrainingModel() (*imod.Model, error) {
	m := imod.NewModel()

	seeds := imod.NewObject()
	if err := seeds.SetName("Seed Points"); err != nil {
		return nil, err
	}
	if err := seeds.SetColor(0, 1, 0); err != nil {
		return nil, err
	}
	if err := seeds.SetType(imod.Scattered); err != nil {
		return nil, err
	}
	if err := seeds.SetSymbol(imod.SymbolCircle); err != nil {
		return nil, err
	}
	if err := seeds.SetSymbolSize(10); err != nil {
		return nil, err
	}
	seeds.SetSymbolFill(true)
	m.AddObject(seeds)

	contours := imod.NewObject()
	if err := contours.SetName("Training Contours"); err != nil {
		return nil, err
	}
	if err := contours.SetColor(0, 1, 1); err != nil {
		return nil, err
	}
	if err := contours.SetType(imod.Closed); err != nil {
		return nil, err
	}
	if err := contours.SetLineWidth(2); err != nil {
		return nil, err
	}
	m.AddObject(contours)
	return m, nil
}

type shape struct {
	center r3.Vec
	size   int
	points int // sphere contour points; 0 for cubes
}

var tutorialShapes = []shape{
	{r3.Vec{X: 500, Y: 500, Z: 500}, 200, 100},

	{r3.Vec{X: 700, Y: 700, Z: 700}, 50, 25},
	{r3.Vec{X: 700, Y: 800, Z: 400}, 50, 25},
	{r3.Vec{X: 300, Y: 300, Z: 500}, 50, 25},
	{r3.Vec{X: 450, Y: 300, Z: 100}, 50, 25},
	{r3.Vec{X: 100, Y: 100, Z: 100}, 50, 25},
	{r3.Vec{X: 850, Y: 200, Z: 600}, 50, 25},
	{r3.Vec{X: 400, Y: 700, Z: 300}, 50, 25},
	{r3.Vec{X: 800, Y: 100, Z: 700}, 50, 25},
	{r3.Vec{X: 200, Y: 900, Z: 400}, 50, 25},

	{r3.Vec{X: 200, Y: 200, Z: 400}, 100, 50},
	{r3.Vec{X: 150, Y: 750, Z: 800}, 100, 50},
	{r3.Vec{X: 900, Y: 500, Z: 500}, 100, 50},
	{r3.Vec{X: 800, Y: 350, Z: 350}, 100, 50},
	{r3.Vec{X: 500, Y: 100, Z: 100}, 100, 50},

	{r3.Vec{X: 150, Y: 500, Z: 500}, 50, 0},
	{r3.Vec{X: 850, Y: 900, Z: 850}, 50, 0},
	{r3.Vec{X: 700, Y: 200, Z: 200}, 50, 0},
	{r3.Vec{X: 850, Y: 150, Z: 800}, 50, 0},
	{r3.Vec{X: 500, Y: 500, Z: 800}, 50, 0},

	{r3.Vec{X: 450, Y: 850, Z: 700}, 100, 0},
	{r3.Vec{X: 800, Y: 500, Z: 850}, 100, 0},
	{r3.Vec{X: 150, Y: 500, Z: 250}, 100, 0},
	{r3.Vec{X: 750, Y: 800, Z: 200}, 100, 0},
	{r3.Vec{X: 250, Y: 200, Z: 800}, 100, 0},
}

// TutorialModel returns a 1000³ model at 4 nm per voxel holding spheres
// and cubes of several sizes, coloured from cmap (the default palette when
// nil). When mesher is non-nil the result is meshed with it.
func TutorialModel(ctx context.Context, cmap *colormap.Colormap, mesher Mesher) (*imod.Model, error) {
	m := imod.NewModel()
	if err := m.SetImageSize(1000, 1000, 1000); err != nil {
		return nil, err
	}
	if err := m.SetPixelSizeXY(4); err != nil {
		return nil, err
	}
	if err := m.SetPixelSizeZ(4); err != nil {
		return nil, err
	}
	if err := m.SetUnits("nm"); err != nil {
		return nil, err
	}

	for _, s := range tutorialShapes {
		if s.points > 0 {
			m.AddObject(SphereObject(s.center, s.size, s.points))
		} else {
			m.AddObject(CubeObject(s.center, s.size))
		}
	}
	if cmap == nil {
		cmap = colormap.Default()
	}
	if err := cmap.ApplyAll(m); err != nil {
		return nil, err
	}

	if mesher == nil {
		return m, nil
	}
	meshed, err := mesher.Run(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("mesh tutorial model: %w", err)
	}
	return meshed, nil
}
