// Package cmdexec runs task steps as subprocesses.
package cmdexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// Cmd is a single invocation. Env is laid over the current process environment.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type Error struct {
	Cmd      Cmd
	ExitCode int
	Stderr   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("(in %s) %s", e.Cmd.Dir, e.Cmd)
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit %d\n%s", msg, e.ExitCode, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s: exit %d", msg, e.ExitCode)
}

// Output runs c and returns its stdout.
func Output(ctx context.Context, c Cmd) (string, error) {
	cmd, err := command(ctx, c)
	if err != nil {
		return "", err
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", wrapErr(c, err, stderr.String())
	}
	return string(out), nil
}

// Run runs c attached to the terminal.
func Run(ctx context.Context, c Cmd) error {
	cmd, err := command(ctx, c)
	if err != nil {
		return err
	}

	var stderrBuf bytes.Buffer
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = io.MultiWriter(os.Stderr, &stderrBuf)

	if err := cmd.Run(); err != nil {
		return wrapErr(c, err, stderrBuf.String())
	}
	return nil
}

func command(ctx context.Context, c Cmd) (*exec.Cmd, error) {
	if !filepath.IsAbs(c.Dir) {
		return nil, errors.Newf("cmdexec: dir must be absolute, got %q", c.Dir)
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = Environ(os.Environ(), c.Env)
	return cmd, nil
}

// Environ overlays vars on base, a list of KEY=value pairs. Keys in vars are
// appended in sorted order so the result is stable.
func Environ(base []string, vars map[string]string) []string {
	out := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := vars[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		out = append(out, key+"="+vars[key])
	}
	return out
}

func wrapErr(c Cmd, err error, stderr string) error {
	exitCode := 1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
		if stderr == "" {
			stderr = string(exitErr.Stderr)
		}
	}
	return &Error{
		Cmd:      c,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}
