package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"imodkit/pkg/batch"
	"imodkit/pkg/colormap"
	"imodkit/pkg/edit"
	"imodkit/pkg/imod"
)

// editFlags are the edits requested on the command line, applied in the
// order the fields are declared.
type editFlags struct {
	units         string
	pixelXY       float64
	pixelZ        float64
	removeEmpty   bool
	removeSmall   bool
	removeBorder  bool
	minContours   string
	move          string
	meshDist      string
	contourDist   string
	skip          int
	color         string
	lineWidth     int
	transparency  int
	name          string
	table         string
	applyColormap bool
}

// distanceArg is a parsed "ref:op:distance" argument
type distanceArg struct {
	ref       int
	cmp       edit.Comparison
	threshold float64
}

func parseDistanceArg(s string) (distanceArg, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return distanceArg{}, fmt.Errorf("distance filter %q: want ref:op:distance", s)
	}
	ref, err := strconv.Atoi(parts[0])
	if err != nil {
		return distanceArg{}, fmt.Errorf("distance filter %q: %w", s, err)
	}
	cmp, err := edit.ParseComparison(parts[1])
	if err != nil {
		return distanceArg{}, err
	}
	d, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return distanceArg{}, fmt.Errorf("distance filter %q: %w", s, err)
	}
	return distanceArg{ref: ref, cmp: cmp, threshold: d}, nil
}

// parseCountArg parses "op:n", e.g. ">=:3"
func parseCountArg(s string) (edit.Comparison, int, error) {
	op, num, ok := strings.Cut(s, ":")
	if !ok {
		return nil, 0, fmt.Errorf("count filter %q: want op:n", s)
	}
	cmp, err := edit.ParseComparison(op)
	if err != nil {
		return nil, 0, err
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return nil, 0, fmt.Errorf("count filter %q: %w", s, err)
	}
	return cmp, n, nil
}

// parseMoveArg parses "dest:list", e.g. "1:2-4,7"
func parseMoveArg(s string) (int, []int, error) {
	d, list, ok := strings.Cut(s, ":")
	if !ok {
		return 0, nil, fmt.Errorf("move %q: want dest:list", s)
	}
	dest, err := strconv.Atoi(d)
	if err != nil {
		return 0, nil, fmt.Errorf("move %q: %w", s, err)
	}
	objs, err := edit.ParseObjectList(list)
	if err != nil {
		return 0, nil, err
	}
	return dest, objs, nil
}

// buildOp validates the flags once and returns the edit applied per file
func buildOp(f editFlags, cmap *colormap.Colormap) (batch.Op, error) {
	var steps []func(m *imod.Model, log func(string, ...any)) error

	if f.units != "" {
		steps = append(steps, func(m *imod.Model, _ func(string, ...any)) error { return m.SetUnits(f.units) })
	}
	if f.pixelXY > 0 {
		steps = append(steps, func(m *imod.Model, _ func(string, ...any)) error { return m.SetPixelSizeXY(float32(f.pixelXY)) })
	}
	if f.pixelZ > 0 {
		steps = append(steps, func(m *imod.Model, _ func(string, ...any)) error { return m.SetPixelSizeZ(float32(f.pixelZ)) })
	}
	if f.removeEmpty {
		steps = append(steps, func(m *imod.Model, log func(string, ...any)) error {
			log("removed %d empty contours", edit.RemoveEmptyContours(m))
			return nil
		})
	}
	if f.removeSmall {
		steps = append(steps, func(m *imod.Model, log func(string, ...any)) error {
			log("removed %d contours with fewer than 3 points", edit.RemoveSmallContours(m))
			return nil
		})
	}
	if f.removeBorder {
		steps = append(steps, func(m *imod.Model, log func(string, ...any)) error {
			log("removed %d objects touching the image border", edit.RemoveBorderObjects(m))
			return nil
		})
	}
	if f.minContours != "" {
		cmp, n, err := parseCountArg(f.minContours)
		if err != nil {
			return nil, err
		}
		steps = append(steps, func(m *imod.Model, log func(string, ...any)) error {
			log("removed %d objects by contour count", edit.FilterByNContours(m, cmp, n))
			return nil
		})
	}
	if f.move != "" {
		dest, list, err := parseMoveArg(f.move)
		if err != nil {
			return nil, err
		}
		steps = append(steps, func(m *imod.Model, _ func(string, ...any)) error { return edit.MoveObjects(m, dest, list) })
	}
	opts := edit.DistanceOptions{SkipRef: f.skip, SkipTest: f.skip}
	if f.meshDist != "" {
		arg, err := parseDistanceArg(f.meshDist)
		if err != nil {
			return nil, err
		}
		steps = append(steps, func(m *imod.Model, log func(string, ...any)) error {
			res, err := edit.FilterByMeshDistance(m, arg.ref, arg.cmp, arg.threshold, opts)
			for _, r := range res {
				log("%06d. dmin = %g %s. %s", r.Object, r.Distance, m.UnitsString(), removedLabel(r.Removed))
			}
			return err
		})
	}
	if f.contourDist != "" {
		arg, err := parseDistanceArg(f.contourDist)
		if err != nil {
			return nil, err
		}
		steps = append(steps, func(m *imod.Model, log func(string, ...any)) error {
			res, err := edit.FilterByContourDistance(m, arg.ref, arg.cmp, arg.threshold, opts)
			for _, r := range res {
				log("%06d %06d. dmin = %g %s. %s", r.Object, r.Contour, r.Distance, m.UnitsString(), removedLabel(r.Removed))
			}
			return err
		})
	}
	if f.applyColormap {
		steps = append(steps, func(m *imod.Model, _ func(string, ...any)) error { return cmap.ApplyAll(m) })
	}

	props := edit.Properties{LineWidth: f.lineWidth, Name: f.name}
	if f.color != "" {
		rgb, err := edit.ParseColor(f.color)
		if err != nil {
			return nil, err
		}
		props.Color = rgb
	}
	if f.transparency >= 0 {
		tr := f.transparency
		props.Transparency = &tr
	}
	if props.Color != nil || props.LineWidth != 0 || props.Transparency != nil || props.Name != "" {
		steps = append(steps, func(m *imod.Model, _ func(string, ...any)) error { return edit.SetAll(m, props) })
	}

	if f.table != "" {
		if _, err := os.Stat(f.table); err != nil {
			return nil, fmt.Errorf("table: %w", err)
		}
		steps = append(steps, func(m *imod.Model, log func(string, ...any)) error {
			tf, err := os.Open(f.table)
			if err != nil {
				return err
			}
			defer tf.Close()
			changes, err := edit.SetFromTable(m, tf)
			for _, c := range changes {
				log("%s", c)
			}
			return err
		})
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("no edits requested")
	}

	var mu sync.Mutex
	return func(ctx context.Context, path string, m *imod.Model) error {
		var lines []string
		logf := func(format string, args ...any) {
			lines = append(lines, fmt.Sprintf(format, args...))
		}
		var err error
		for _, step := range steps {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = step(m, logf); err != nil {
				break
			}
		}
		// Keep each file's lines together when workers finish at once.
		mu.Lock()
		for _, l := range lines {
			fmt.Printf("%s: %s\n", path, l)
		}
		mu.Unlock()
		return err
	}, nil
}

func removedLabel(removed bool) string {
	if removed {
		return "REMOVED"
	}
	return ""
}

func runEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	configFile := fs.String("config", "imodkit.yaml", "Path to YAML config file")
	workers := fs.Int("workers", 0, "Number of files processed in parallel (default: from config)")
	outDir := fs.String("outdir", "", "Output directory (default: from config, else next to input)")
	suffix := fs.String("suffix", "", "Suffix added to output names (default: from config)")
	lenient := fs.Bool("lenient", false, "Tolerate unknown or missing trailing chunks")

	var f editFlags
	fs.StringVar(&f.units, "units", "", "Set units (pix, nm, microns, ...)")
	fs.Float64Var(&f.pixelXY, "pixel-xy", 0, "Set XY pixel size, keeping Z pixel size")
	fs.Float64Var(&f.pixelZ, "pixel-z", 0, "Set Z pixel size")
	fs.BoolVar(&f.removeEmpty, "remove-empty", false, "Remove contours without points")
	fs.BoolVar(&f.removeSmall, "remove-small", false, "Remove contours with fewer than 3 points")
	fs.BoolVar(&f.removeBorder, "remove-border", false, "Remove objects touching the image border")
	fs.StringVar(&f.minContours, "ncontours", "", "Keep objects whose contour count passes op:n, e.g. '>:10'")
	fs.StringVar(&f.move, "move", "", "Merge objects into one, dest:list, e.g. '1:2-4,7'")
	fs.StringVar(&f.meshDist, "mesh-distance", "", "Keep objects whose mesh distance to ref passes ref:op:d")
	fs.StringVar(&f.contourDist, "contour-distance", "", "Keep contours whose distance to ref mesh passes ref:op:d")
	fs.IntVar(&f.skip, "skip", 1, "Use every n-th vertex or point in distance filters")
	fs.StringVar(&f.color, "color", "", "Set all object colours, 'r,g,b' in 0-1 or 0-255")
	fs.IntVar(&f.lineWidth, "linewidth", 0, "Set all 2D line widths (1-10)")
	fs.IntVar(&f.transparency, "transparency", -1, "Set all transparencies (0-100)")
	fs.StringVar(&f.name, "name", "", "Set all object names")
	fs.StringVar(&f.table, "table", "", "CSV table of per-object properties keyed by name")
	fs.BoolVar(&f.applyColormap, "colormap", false, "Colour objects from the configured colormap")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no model files given")
	}

	cfg := loadConfig(*configFile)
	bc := cfg.Batch()
	if *workers > 0 {
		bc.Workers = *workers
	}
	if *outDir != "" {
		bc.OutputDir = *outDir
	}
	if *suffix != "" {
		bc.Suffix = *suffix
	}
	bc.Decode.Lenient = bc.Decode.Lenient || *lenient
	if cfg.Output.Verbose {
		bc.ProgressInterval = 2 * time.Second
	}
	if bc.OutputDir != "" {
		if err := os.MkdirAll(bc.OutputDir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	var cmap *colormap.Colormap
	if f.applyColormap {
		var err error
		if cmap, err = cfg.LoadColormap(); err != nil {
			return err
		}
	}
	op, err := buildOp(f, cmap)
	if err != nil {
		return err
	}

	fmt.Printf("Editing %d files with %d workers...\n", fs.NArg(), bc.Workers)
	startTime := time.Now()
	results := batch.Run(ctx, bc, fs.Args(), op)
	return report(results, time.Since(startTime), cfg.Output.Verbose)
}
