// Package batch applies one edit to many model files in parallel.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"imodkit/pkg/imod"
)

// Op edits a decoded model in place. path is the input file.
type Op func(ctx context.Context, path string, m *imod.Model) error

// Config holds the shared settings of a batch run.
type Config struct {
	// OutputDir receives the edited files; empty means next to the input.
	OutputDir string
	// Suffix is inserted before the .mod extension of each output name.
	// With no OutputDir and no Suffix the input is overwritten.
	Suffix  string
	Workers int
	Decode  imod.DecodeOptions
	// ProgressInterval between progress lines; zero disables them.
	ProgressInterval time.Duration
}

// Result holds the outcome of processing one file.
type Result struct {
	Input   string
	Output  string
	Success bool
	Error   string
}

// OutputPath returns where the edited copy of input is written.
func (c Config) OutputPath(input string) string {
	dir := c.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+c.Suffix+ext)
}

// Run processes all paths using a worker pool. Results are in input order.
// Files not started before ctx is cancelled are reported as failed.
func Run(ctx context.Context, cfg Config, paths []string, op Op) []Result {
	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.ProgressInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						elapsed := time.Since(start).Seconds()
						rate := float64(p) / elapsed
						fmt.Printf("  [%d/%d] %.1f files/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	// Worker pool
	pathChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pathChan {
				results[idx] = processFile(ctx, cfg, paths[idx], op)
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range paths {
		pathChan <- i
	}
	close(pathChan)

	wg.Wait()
	close(done)

	return results
}

func processFile(ctx context.Context, cfg Config, path string, op Op) Result {
	res := Result{Input: path, Output: cfg.OutputPath(path)}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	m, err := imod.ReadFileWithOptions(path, cfg.Decode)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if op != nil {
		if err := op(ctx, path, m); err != nil {
			res.Error = err.Error()
			return res
		}
	}
	if err := imod.WriteFile(res.Output, m); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
