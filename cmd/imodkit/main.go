package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"imodkit/pkg/batch"
	"imodkit/pkg/config"
	"imodkit/pkg/imod"
	"imodkit/pkg/info"
	"imodkit/pkg/stl"
)

const usage = `Usage: imodkit <command> [flags] <model files...>

Commands:
  info     print header and per-object metrics
  check    decode and re-encode, reporting any byte difference
  edit     filter and restyle models in place or into -outdir
  mesh     mesh a model with the configured external tool
  export   write the mesh of one object as binary STL
  config   write a default configuration file

Run "imodkit <command> -h" for the flags of each command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "info":
		err = runInfo(args)
	case "check":
		err = runCheck(args)
	case "edit":
		err = runEdit(ctx, args)
	case "mesh":
		err = runMesh(ctx, args)
	case "export":
		err = runExport(args)
	case "config":
		err = runConfig(args)
	case "-h", "-help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("imodkit %s: %v", os.Args[1], err)
	}
}

// loadConfig reads the -config file, falling back to defaults
func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	configFile := fs.String("config", "imodkit.yaml", "Path to YAML config file")
	lenient := fs.Bool("lenient", false, "Tolerate unknown or missing trailing chunks")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no model files given")
	}

	cfg := loadConfig(*configFile)
	opts := cfg.DecodeOptions()
	opts.Lenient = opts.Lenient || *lenient

	for i, path := range fs.Args() {
		m, err := imod.ReadFileWithOptions(path, opts)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Filename: %s\n", path)
		if err := info.Fprint(os.Stdout, info.Summarize(m)); err != nil {
			return err
		}
	}
	return nil
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(args)

	failed := 0
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		m, err := imod.DecodeBytes(data, imod.DecodeOptions{})
		if err != nil {
			fmt.Printf("%s: decode failed: %v\n", path, err)
			failed++
			continue
		}
		out, err := imod.EncodeBytes(m)
		if err != nil {
			fmt.Printf("%s: encode failed: %v\n", path, err)
			failed++
			continue
		}
		if bytes.Equal(data, out) {
			fmt.Printf("%s: OK (%d objects, %d bytes)\n", path, m.NumObjects(), len(data))
			continue
		}
		off := firstDiff(data, out)
		fmt.Printf("%s: re-encoded bytes differ at offset %d (%d vs %d bytes)\n", path, off, len(data), len(out))
		failed++
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, fs.NArg())
	}
	return nil
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func runMesh(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mesh", flag.ExitOnError)
	configFile := fs.String("config", "imodkit.yaml", "Path to YAML config file")
	command := fs.String("cmd", "", "Meshing command (default: from config)")
	output := fs.String("o", "", "Output model file (default: overwrite input)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("need exactly one model file")
	}

	cfg := loadConfig(*configFile)
	if *command != "" {
		cfg.Mesh.Command = *command
	}
	runner, err := cfg.Mesher()
	if err != nil {
		return err
	}
	if cfg.Output.Verbose {
		runner.Logger = log.Default()
	}

	in := fs.Arg(0)
	m, err := imod.ReadFileWithOptions(in, cfg.DecodeOptions())
	if err != nil {
		return err
	}
	startTime := time.Now()
	meshed, err := runner.Run(ctx, m)
	if err != nil {
		return err
	}
	out := *output
	if out == "" {
		out = in
	}
	if err := imod.WriteFile(out, meshed); err != nil {
		return err
	}
	fmt.Printf("Meshed %d objects in %.2f seconds, saved to %s\n", meshed.NumObjects(), time.Since(startTime).Seconds(), out)
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	object := fs.Int("object", 1, "Object number (1-based) whose mesh is exported")
	output := fs.String("o", "", "Output STL file (default: input with .stl extension)")
	lenient := fs.Bool("lenient", false, "Tolerate unknown or missing trailing chunks")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("need exactly one model file")
	}

	in := fs.Arg(0)
	m, err := imod.ReadFileWithOptions(in, imod.DecodeOptions{Lenient: *lenient})
	if err != nil {
		return err
	}
	out := *output
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".stl"
	}
	n, err := stl.ExportObject(m, *object, out)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d triangles to %s\n", n, out)
	return nil
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	fs.Parse(args)
	path := "imodkit.yaml"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if err := config.CreateDefaultConfigFile(path); err != nil {
		return err
	}
	fmt.Printf("Default configuration written to %s\n", path)
	return nil
}

// report prints batch results and returns an error when any file failed
func report(results []batch.Result, elapsed time.Duration, verbose bool) error {
	failed := batch.Failed(results)
	if verbose {
		for _, r := range results {
			if r.Success {
				fmt.Printf("  %s -> %s\n", r.Input, r.Output)
			}
		}
	}
	for _, r := range failed {
		fmt.Printf("  FAILED %s: %s\n", r.Input, r.Error)
	}
	fmt.Printf("\nProcessed %d files in %.2f seconds (%d failed)\n", len(results), elapsed.Seconds(), len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d files failed", len(failed))
	}
	return nil
}
