// Package meshcmd runs an external meshing tool over a model. The model is
// written to a temporary file, the tool rewrites that file in place, and the
// result is decoded back.
package meshcmd

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"imodkit/pkg/imod"
)

// DefaultCommand meshes all objects with capping turned on.
const DefaultCommand = "imodmesh -C"

// Runner invokes Command with Args followed by the temporary file path
// twice, as input and output.
type Runner struct {
	Command string
	Args    []string
	// TempDir holds the temporary model; empty means os.TempDir().
	TempDir string
	Decode  imod.DecodeOptions
	Logger  *log.Logger
}

// Parse splits a command line such as "imodmesh -C" into a Runner.
func Parse(cmdline string) (*Runner, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, fmt.Errorf("meshcmd: empty command")
	}
	return &Runner{Command: fields[0], Args: fields[1:]}, nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// Run meshes m and returns the model the tool wrote. m itself is not
// modified. Cancelling ctx kills the tool.
func (r *Runner) Run(ctx context.Context, m *imod.Model) (*imod.Model, error) {
	f, err := os.CreateTemp(r.TempDir, "imodkit-*.mod")
	if err != nil {
		return nil, fmt.Errorf("meshcmd: %w", err)
	}
	tmp := f.Name()
	f.Close()
	defer func() {
		os.Remove(tmp)
		// Some tools leave a backup of their input.
		if err := os.Remove(tmp + "~"); err == nil {
			r.logf("meshcmd: removed backup %s~", tmp)
		}
	}()

	if err := imod.WriteFile(tmp, m); err != nil {
		return nil, fmt.Errorf("meshcmd: %w", err)
	}

	args := append(append([]string(nil), r.Args...), tmp, tmp)
	cmd := exec.CommandContext(ctx, r.Command, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	r.logf("meshcmd: running %s %s", r.Command, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("meshcmd: %s: %w", r.Command, ctx.Err())
		}
		return nil, fmt.Errorf("meshcmd: %s: %w: %s", r.Command, err, strings.TrimSpace(out.String()))
	}

	meshed, err := imod.ReadFileWithOptions(tmp, r.Decode)
	if err != nil {
		return nil, fmt.Errorf("meshcmd: read result: %w", err)
	}
	return meshed, nil
}
