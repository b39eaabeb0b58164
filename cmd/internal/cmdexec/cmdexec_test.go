package cmdexec_test

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/basewarphq/cdkflow/cmd/internal/cmdexec"
	"github.com/cockroachdb/errors"
)

func TestEnviron(t *testing.T) {
	t.Parallel()
	got := cmdexec.Environ(
		[]string{"HOME=/root", "AWS_REGION=us-west-2", "PATH=/bin"},
		map[string]string{"AWS_REGION": "eu-west-1", "ENVIRONMENT": "dev"},
	)
	want := []string{"HOME=/root", "PATH=/bin", "AWS_REGION=eu-west-1", "ENVIRONMENT=dev"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOutputPassesEnv(t *testing.T) {
	t.Parallel()
	out, err := cmdexec.Output(context.Background(), cmdexec.Cmd{
		Name: "sh",
		Args: []string{"-c", "printf %s \"$ENVIRONMENT\""},
		Dir:  t.TempDir(),
		Env:  map[string]string{"ENVIRONMENT": "dev"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "dev" {
		t.Errorf("got %q, want %q", out, "dev")
	}
}

func TestOutputExitCode(t *testing.T) {
	t.Parallel()
	_, err := cmdexec.Output(context.Background(), cmdexec.Cmd{
		Name: "sh",
		Args: []string{"-c", "echo boom >&2; exit 3"},
		Dir:  t.TempDir(),
	})
	var execErr *cmdexec.Error
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *cmdexec.Error, got %v", err)
	}
	if execErr.ExitCode != 3 {
		t.Errorf("got exit code %d, want 3", execErr.ExitCode)
	}
	if !strings.Contains(execErr.Error(), "boom") {
		t.Errorf("error should carry stderr, got: %v", execErr)
	}
}

func TestRelativeDir(t *testing.T) {
	t.Parallel()
	err := cmdexec.Run(context.Background(), cmdexec.Cmd{Name: "true", Dir: "infra"})
	if err == nil || !strings.Contains(err.Error(), "must be absolute") {
		t.Errorf("expected absolute dir error, got %v", err)
	}
}
