package scaffold_test

import (
	"strings"
	"testing"

	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/basewarphq/cdkflow/cmd/internal/testutil"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func TestAddTaskRejectsDuplicate(t *testing.T) {
	t.Parallel()
	host := scaffold.New(t.TempDir(), zap.NewNop())

	if _, err := host.AddTask("deploy:dev", scaffold.Task{}); err != nil {
		t.Fatal(err)
	}
	_, err := host.AddTask("deploy:dev", scaffold.Task{})
	if err == nil {
		t.Fatal("expected error for duplicate task")
	}

	var cfgErr *scaffold.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
	if cfgErr.Kind != scaffold.KindTask || cfgErr.Name != "deploy:dev" {
		t.Errorf("got %+v, want task deploy:dev", cfgErr)
	}
}

func TestAddTaskKeepsOrder(t *testing.T) {
	t.Parallel()
	host := scaffold.New(t.TempDir(), zap.NewNop())
	names := []string{"diff:dev", "deploy:dev", "destroy:dev", "diff:test"}
	for _, name := range names {
		if _, err := host.AddTask(name, scaffold.Task{}); err != nil {
			t.Fatal(err)
		}
	}
	tasks := host.Tasks()
	for i, name := range names {
		if tasks[i].Name != name {
			t.Errorf("Tasks()[%d] = %q, want %q", i, tasks[i].Name, name)
		}
	}
}

func TestWriteWorkflowFileRejectsDuplicate(t *testing.T) {
	t.Parallel()
	host := scaffold.New(t.TempDir(), zap.NewNop())
	if err := host.WriteWorkflowFile(".github/workflows/cdk-dev.yml", []byte("a")); err != nil {
		t.Fatal(err)
	}
	err := host.WriteWorkflowFile(".github/workflows/./cdk-dev.yml", []byte("b"))
	if !scaffold.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestWriteWorkflowFileRejectsEscapingPath(t *testing.T) {
	t.Parallel()
	host := scaffold.New(t.TempDir(), zap.NewNop())
	err := host.WriteWorkflowFile("../outside.yml", []byte("a"))
	if err == nil {
		t.Fatal("expected error for path outside the root")
	}
	if scaffold.IsConfigurationError(err) {
		t.Error("escaping path is not a name collision")
	}
}

func TestFindExistingWorkflowFile(t *testing.T) {
	t.Parallel()
	root := testutil.Setup(t, map[string]string{
		".github/workflows/auto-approve.yml": "name: auto-approve\n",
	})
	host := scaffold.New(root, zap.NewNop())

	f, ok, err := host.FindExistingWorkflowFile(".github/workflows/auto-approve.yml")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected to find existing file")
	}
	if string(f.Content) != "name: auto-approve\n" {
		t.Errorf("Content = %q", f.Content)
	}

	_, ok, err = host.FindExistingWorkflowFile(".github/workflows/missing.yml")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing file should not be found")
	}
}

func TestSynthWritesTasksAndWorkflows(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	host := scaffold.New(root, zap.NewNop())
	host.AddEnvironmentVariable("CDK_DEFAULT_REGION", "us-east-1")

	_, err := host.AddTask("deploy:dev", scaffold.Task{
		Description: "Deploy dev",
		Env:         map[string]string{"ENVIRONMENT": "dev"},
		Steps:       []scaffold.TaskStep{{Cmd: "cdk", Args: []string{"deploy"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	content := scaffold.GeneratedMarker + "\nname: cdk-dev\n"
	if err := host.WriteWorkflowFile(".github/workflows/cdk-dev.yml", []byte(content)); err != nil {
		t.Fatal(err)
	}

	if err := host.Synth(); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ReadFile(t, root, ".github/workflows/cdk-dev.yml"); got != content {
		t.Errorf("workflow content = %q, want %q", got, content)
	}

	m, err := scaffold.LoadTasks(root)
	if err != nil {
		t.Fatal(err)
	}
	task, ok := m.Find("deploy:dev")
	if !ok {
		t.Fatal("deploy:dev not in manifest")
	}
	env := m.TaskEnv(task)
	if env["CDK_DEFAULT_REGION"] != "us-east-1" || env["ENVIRONMENT"] != "dev" {
		t.Errorf("TaskEnv = %v", env)
	}
}

func TestSynthRemovesStaleGeneratedWorkflows(t *testing.T) {
	t.Parallel()
	root := testutil.Setup(t, map[string]string{
		".github/workflows/cdk-old.yml":      scaffold.GeneratedMarker + "\nname: old\n",
		".github/workflows/handwritten.yml":  "name: mine\n",
		".github/workflows/auto-approve.yml": "name: auto-approve\n",
	})
	host := scaffold.New(root, zap.NewNop())
	if err := host.Synth(); err != nil {
		t.Fatal(err)
	}

	if testutil.Exists(t, root, ".github/workflows/cdk-old.yml") {
		t.Error("stale generated workflow should be removed")
	}
	if !testutil.Exists(t, root, ".github/workflows/handwritten.yml") {
		t.Error("handwritten workflow must be kept")
	}
	if !testutil.Exists(t, root, ".github/workflows/auto-approve.yml") {
		t.Error("auto-approve workflow must be kept")
	}
}

func TestSynthWritesModifiedExistingFile(t *testing.T) {
	t.Parallel()
	root := testutil.Setup(t, map[string]string{
		".github/workflows/auto-approve.yml": "name: auto-approve\n",
	})
	host := scaffold.New(root, zap.NewNop())
	f, ok, err := host.FindExistingWorkflowFile(".github/workflows/auto-approve.yml")
	if err != nil || !ok {
		t.Fatalf("FindExistingWorkflowFile: ok=%v err=%v", ok, err)
	}
	f.SetContent([]byte("name: patched\n"))

	if err := host.Synth(); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ReadFile(t, root, ".github/workflows/auto-approve.yml"); got != "name: patched\n" {
		t.Errorf("content = %q, want patched", got)
	}
}

func TestLoadTasksMissing(t *testing.T) {
	t.Parallel()
	_, err := scaffold.LoadTasks(t.TempDir())
	if err == nil {
		t.Fatal("expected error when tasks file is missing")
	}
	if !strings.Contains(err.Error(), "cdkflow synth") {
		t.Errorf("error should suggest running synth, got: %v", err)
	}
}
