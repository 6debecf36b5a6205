package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"gonum.org/v1/gonum/spatial/r3"

	"imodkit/pkg/config"
	"imodkit/pkg/gen"
	"imodkit/pkg/imod"
)

func main() {
	// Parse command line arguments
	kind := flag.String("kind", "blank", "Model to generate: blank, tutorial, sphere or cube")
	output := flag.String("o", "", "Output model file")
	configFile := flag.String("config", "imodkit.yaml", "Path to YAML config file")
	mesh := flag.Bool("mesh", false, "Mesh the tutorial model with the configured tool")
	x := flag.Float64("x", 0, "Shape center X")
	y := flag.Float64("y", 0, "Shape center Y")
	z := flag.Float64("z", 0, "Shape center Z")
	size := flag.Int("size", 50, "Sphere radius or cube width")
	points := flag.Int("points", 25, "Points per sphere contour")
	flag.Parse()

	// Validate inputs
	if *output == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cmap, err := cfg.LoadColormap()
	if err != nil {
		log.Fatalf("Failed to load colormap: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var m *imod.Model
	center := r3.Vec{X: *x, Y: *y, Z: *z}
	switch *kind {
	case "blank":
		m, err = gen.BlankTrainingModel()
	case "tutorial":
		var mesher gen.Mesher
		if *mesh {
			r, merr := cfg.Mesher()
			if merr != nil {
				log.Fatalf("Invalid mesh command: %v", merr)
			}
			mesher = r
		}
		m, err = gen.TutorialModel(ctx, cmap, mesher)
	case "sphere", "cube":
		if *size < 1 || *points < 3 {
			log.Fatalf("Size must be >= 1 and points >= 3")
		}
		m = imod.NewModel()
		if *kind == "sphere" {
			m.AddObject(gen.SphereObject(center, *size, *points))
		} else {
			m.AddObject(gen.CubeObject(center, *size))
		}
		err = cmap.ApplyAll(m)
	default:
		log.Fatalf("Unknown model kind %q", *kind)
	}
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	if err := imod.WriteFile(*output, m); err != nil {
		log.Fatalf("Failed to write model: %v", err)
	}
	fmt.Printf("Generated %s model with %d objects: %s\n", *kind, m.NumObjects(), *output)
}
