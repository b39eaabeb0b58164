package workflowgen_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/basewarphq/cdkflow/cmd/internal/lifecycle"
	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/basewarphq/cdkflow/cmd/internal/workflowgen"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func devInput() workflowgen.Input {
	return workflowgen.Input{
		GitHub:          "acme/infra",
		AccountID:       "987654321012",
		EnvironmentName: "dev",
		RuntimeVersion:  "1.25",
	}
}

func TestDeriveRoleIsPure(t *testing.T) {
	t.Parallel()
	first := workflowgen.DeriveRole("123456789012", "")
	second := workflowgen.DeriveRole("123456789012", "")
	if first != second {
		t.Errorf("DeriveRole not deterministic: %q != %q", first, second)
	}
	want := "arn:aws:iam::123456789012:role/GitHubActionsServiceRole"
	if first != want {
		t.Errorf("DeriveRole = %q, want %q", first, want)
	}
	if got := workflowgen.DeriveRole("123456789012", "Deployer"); got != "arn:aws:iam::123456789012:role/Deployer" {
		t.Errorf("DeriveRole with role name = %q", got)
	}
}

func TestDescribeStepOrder(t *testing.T) {
	t.Parallel()
	gen := workflowgen.New(workflowgen.Options{Region: "us-east-1"})
	desc := gen.Describe(devInput())

	wantKinds := []workflowgen.StepKind{
		workflowgen.StepCheckout,
		workflowgen.StepRuntime,
		workflowgen.StepDependencies,
		workflowgen.StepAssumeRole,
		workflowgen.StepAction,
		workflowgen.StepAction,
	}
	if len(desc.Steps) != len(wantKinds) {
		t.Fatalf("got %d steps, want %d", len(desc.Steps), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if desc.Steps[i].Kind != kind {
			t.Errorf("step[%d].Kind = %d, want %d", i, desc.Steps[i].Kind, kind)
		}
	}
	if desc.Steps[4].Task != "diff:dev" || desc.Steps[5].Task != "deploy:dev" {
		t.Errorf("action steps = %q, %q; want diff:dev, deploy:dev", desc.Steps[4].Task, desc.Steps[5].Task)
	}
	if desc.Steps[4].If != "" {
		t.Error("diff should also run on pull requests")
	}
	if desc.Steps[5].If == "" {
		t.Error("deploy should not run on pull requests")
	}
	if got := desc.Steps[1].With["go-version"]; got != "1.25" {
		t.Errorf("go-version = %q, want %q", got, "1.25")
	}
}

func TestDescribeActionsInEnumerationOrder(t *testing.T) {
	t.Parallel()
	gen := workflowgen.New(workflowgen.Options{
		Actions: []lifecycle.Action{lifecycle.ActionDestroy, lifecycle.ActionDiff, lifecycle.ActionDestroy},
	})
	desc := gen.Describe(devInput())

	var tasks []string
	for _, step := range desc.Steps {
		if step.Kind == workflowgen.StepAction {
			tasks = append(tasks, step.Task)
		}
	}
	if strings.Join(tasks, ",") != "diff:dev,destroy:dev" {
		t.Errorf("action tasks = %v, want [diff:dev destroy:dev]", tasks)
	}
}

func TestDescribeAssumesAccountRole(t *testing.T) {
	t.Parallel()
	gen := workflowgen.New(workflowgen.Options{Region: "eu-west-1"})
	desc := gen.Describe(devInput())

	if desc.AuthRoleRef != "arn:aws:iam::987654321012:role/GitHubActionsServiceRole" {
		t.Errorf("AuthRoleRef = %q", desc.AuthRoleRef)
	}
	auth := desc.Steps[3]
	if auth.With["role-to-assume"] != desc.AuthRoleRef {
		t.Errorf("role-to-assume = %q, want %q", auth.With["role-to-assume"], desc.AuthRoleRef)
	}
	if auth.With["aws-region"] != "eu-west-1" {
		t.Errorf("aws-region = %q, want eu-west-1", auth.With["aws-region"])
	}
}

func TestTriggersAreNotShared(t *testing.T) {
	t.Parallel()
	gen := workflowgen.New(workflowgen.Options{
		Paths:    []string{"infra/**"},
		Branches: map[string]string{"production": "release"},
	})
	dev := gen.Describe(devInput())
	in := devInput()
	in.EnvironmentName = "production"
	prod := gen.Describe(in)

	if dev.Triggers.Push == prod.Triggers.Push {
		t.Fatal("environments must not share trigger filters")
	}
	if dev.Triggers.Push.Branches[0] != "main" {
		t.Errorf("dev branch = %q, want main", dev.Triggers.Push.Branches[0])
	}
	if prod.Triggers.Push.Branches[0] != "release" {
		t.Errorf("production branch = %q, want release", prod.Triggers.Push.Branches[0])
	}

	dev.Triggers.Push.Paths[0] = "mutated"
	if prod.Triggers.Push.Paths[0] != "infra/**" {
		t.Error("mutating one environment's paths must not affect another")
	}
}

func TestRenderIsValidWorkflow(t *testing.T) {
	t.Parallel()
	gen := workflowgen.New(workflowgen.Options{Region: "us-east-1", Paths: []string{"infra/**"}})
	content, err := gen.Describe(devInput()).Render()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(content, []byte(scaffold.GeneratedMarker)) {
		t.Error("rendered workflow should start with the generated marker")
	}

	var doc struct {
		Name string         `yaml:"name"`
		On   map[string]any `yaml:"on"`
		Jobs map[string]struct {
			Permissions map[string]string `yaml:"permissions"`
			Steps       []map[string]any  `yaml:"steps"`
		} `yaml:"jobs"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		t.Fatalf("rendered workflow is not valid YAML: %v", err)
	}
	if doc.Name != "cdk-dev" {
		t.Errorf("name = %q, want cdk-dev", doc.Name)
	}
	for _, trigger := range []string{"push", "pull_request", "workflow_dispatch"} {
		if _, ok := doc.On[trigger]; !ok {
			t.Errorf("missing trigger %q", trigger)
		}
	}
	deploy, ok := doc.Jobs["deploy"]
	if !ok {
		t.Fatal("missing deploy job")
	}
	if deploy.Permissions["id-token"] != "write" {
		t.Errorf("id-token permission = %q, want write", deploy.Permissions["id-token"])
	}
	if len(deploy.Steps) != 6 {
		t.Errorf("got %d steps, want 6", len(deploy.Steps))
	}
	if !strings.Contains(string(content), "987654321012") {
		t.Error("workflow should reference its account")
	}
}

func TestRenderRunsTasksInCdkDir(t *testing.T) {
	t.Parallel()
	gen := workflowgen.New(workflowgen.Options{
		Region:        "us-east-1",
		CdkDir:        "infra/cdk",
		CdkCliVersion: "2.1031.0",
	})
	content, err := gen.Describe(devInput()).Render()
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Jobs map[string]struct {
			Steps []struct {
				Run              string `yaml:"run"`
				WorkingDirectory string `yaml:"working-directory"`
			} `yaml:"steps"`
		} `yaml:"jobs"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		t.Fatal(err)
	}

	var runs []string
	for _, step := range doc.Jobs["deploy"].Steps {
		if step.Run == "" {
			continue
		}
		runs = append(runs, step.Run)
		if step.WorkingDirectory != "infra/cdk" {
			t.Errorf("step %q: working-directory = %q, want %q", step.Run, step.WorkingDirectory, "infra/cdk")
		}
	}
	want := []string{
		"npm install -g aws-cdk@2.1031.0\ngo mod download",
		"go tool cdkflow run diff:dev",
		"go tool cdkflow run deploy:dev",
	}
	if strings.Join(runs, "|") != strings.Join(want, "|") {
		t.Errorf("got run lines %q, want %q", runs, want)
	}
}

func TestRenderIsByteIdentical(t *testing.T) {
	t.Parallel()
	gen := workflowgen.New(workflowgen.Options{Region: "us-east-1"})
	first, err := gen.Describe(devInput()).Render()
	if err != nil {
		t.Fatal(err)
	}
	second, err := gen.Describe(devInput()).Render()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("rendering the same input twice should be byte-identical")
	}
}

func TestGenerateRegistersWorkflow(t *testing.T) {
	t.Parallel()
	host := scaffold.New(t.TempDir(), zap.NewNop())
	gen := workflowgen.New(workflowgen.Options{})

	desc, err := gen.Generate(host, devInput())
	if err != nil {
		t.Fatal(err)
	}
	if desc.Path != ".github/workflows/cdk-dev.yml" {
		t.Errorf("Path = %q", desc.Path)
	}
	files := host.WorkflowFiles()
	if len(files) != 1 || files[0].Path != desc.Path {
		t.Errorf("host files = %v, want [%s]", files, desc.Path)
	}
}

func TestGenerateNameCollision(t *testing.T) {
	t.Parallel()
	host := scaffold.New(t.TempDir(), zap.NewNop())
	gen := workflowgen.New(workflowgen.Options{})

	in := devInput()
	in.EnvironmentName = "Prod"
	if _, err := gen.Generate(host, in); err != nil {
		t.Fatal(err)
	}
	in.EnvironmentName = "prod"
	_, err := gen.Generate(host, in)
	if !scaffold.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGenerateWithoutAccount(t *testing.T) {
	t.Parallel()
	host := scaffold.New(t.TempDir(), zap.NewNop())
	gen := workflowgen.New(workflowgen.Options{})

	in := devInput()
	in.AccountID = ""
	_, err := gen.Generate(host, in)
	if !errors.HasAssertionFailure(err) {
		t.Fatalf("expected assertion failure, got %v", err)
	}
}
