// Package workflowgen derives the GitHub Actions workflow of one deployment
// environment: its triggers, the OIDC role it assumes and the tasks it runs.
package workflowgen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/basewarphq/cdkflow/cmd/internal/envtable"
	"github.com/basewarphq/cdkflow/cmd/internal/lifecycle"
	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/basewarphq/cdkflow/cmd/internal/taskgen"
	"github.com/cockroachdb/errors"
)

const (
	DefaultRoleName = "GitHubActionsServiceRole"
	DefaultBranch   = "main"
	// DefaultRunner expects cdkflow as a tool dependency of the CDK module
	// ("go get -tool github.com/basewarphq/cdkflow/cmd/cdkflow").
	DefaultRunner = "go tool cdkflow run"
)

// DeriveRole returns the ARN of the role GitHub Actions assumes in accountID.
func DeriveRole(accountID, roleName string) string {
	if roleName == "" {
		roleName = DefaultRoleName
	}
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, roleName)
}

// Registrar accepts workflow files by path.
type Registrar interface {
	WriteWorkflowFile(path string, content []byte) error
}

type Options struct {
	Region   string
	RoleName string
	// CdkDir is the CDK module directory, relative to the repository root.
	// Dependency install and task steps run there.
	CdkDir        string
	Runner        string
	CdkCliVersion string
	Branch        string
	// Branches overrides Branch per environment name.
	Branches map[string]string
	Paths    []string
	// Actions run by the workflow; empty means lifecycle.WorkflowDefault.
	Actions []lifecycle.Action
}

type Generator struct {
	opts Options
}

func New(opts Options) *Generator {
	if opts.RoleName == "" {
		opts.RoleName = DefaultRoleName
	}
	if opts.Runner == "" {
		opts.Runner = DefaultRunner
	}
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if len(opts.Actions) == 0 {
		opts.Actions = lifecycle.WorkflowDefault
	}
	opts.Paths = slices.Clone(opts.Paths)
	opts.Actions = slices.Clone(opts.Actions)
	slices.Sort(opts.Actions)
	opts.Actions = slices.Compact(opts.Actions)
	return &Generator{opts: opts}
}

// Input is what one workflow is derived from.
type Input struct {
	// GitHub is the "owner/repo" handle the workflow runs in.
	GitHub          string
	AccountID       string
	EnvironmentName string
	RuntimeVersion  string
}

// WorkflowPath is the file a workflow for envName is written to.
func WorkflowPath(envName string) string {
	return scaffold.WorkflowDir + "/" + workflowName(envName) + ".yml"
}

func workflowName(envName string) string {
	return "cdk-" + envtable.Slug(envName)
}

// Generate builds the workflow for one environment and registers it with reg.
func (g *Generator) Generate(reg Registrar, in Input) (*Descriptor, error) {
	if in.AccountID == "" {
		return nil, errors.AssertionFailedf("workflowgen: environment %q has no account", in.EnvironmentName)
	}

	desc := g.Describe(in)
	content, err := desc.Render()
	if err != nil {
		return nil, err
	}
	if err := reg.WriteWorkflowFile(desc.Path, content); err != nil {
		return nil, errors.Wrapf(err, "environment %q", in.EnvironmentName)
	}
	return desc, nil
}

// Describe derives the workflow without registering it.
func (g *Generator) Describe(in Input) *Descriptor {
	return &Descriptor{
		Name:            workflowName(in.EnvironmentName),
		Path:            WorkflowPath(in.EnvironmentName),
		EnvironmentName: in.EnvironmentName,
		AccountID:       in.AccountID,
		AuthRoleRef:     DeriveRole(in.AccountID, g.opts.RoleName),
		Repository:      in.GitHub,
		Triggers:        g.triggers(in.EnvironmentName),
		Steps:           g.steps(in),
	}
}

// triggers builds fresh filters per environment so no two workflows share them.
func (g *Generator) triggers(envName string) Triggers {
	branch := g.opts.Branch
	if override, ok := g.opts.Branches[envName]; ok && override != "" {
		branch = override
	}
	filter := func() *BranchFilter {
		return &BranchFilter{
			Branches: []string{branch},
			Paths:    slices.Clone(g.opts.Paths),
		}
	}
	return Triggers{
		Push:             filter(),
		PullRequest:      filter(),
		WorkflowDispatch: &struct{}{},
	}
}

func (g *Generator) steps(in Input) []Step {
	var deps []string
	if g.opts.CdkCliVersion != "" {
		deps = append(deps, "npm install -g aws-cdk@"+g.opts.CdkCliVersion)
	} else {
		deps = append(deps, "npm install -g aws-cdk")
	}
	deps = append(deps, "go mod download")

	steps := []Step{
		{
			Kind: StepCheckout,
			Name: "Checkout",
			Uses: "actions/checkout@v5",
		},
		{
			Kind: StepRuntime,
			Name: "Set up Go",
			Uses: "actions/setup-go@v6",
			With: map[string]string{"go-version": in.RuntimeVersion},
		},
		{
			Kind:             StepDependencies,
			Name:             "Install dependencies",
			Run:              strings.Join(deps, "\n"),
			WorkingDirectory: g.opts.CdkDir,
		},
		{
			Kind: StepAssumeRole,
			Name: "Configure AWS credentials",
			Uses: "aws-actions/configure-aws-credentials@v5",
			With: map[string]string{
				"role-to-assume":    DeriveRole(in.AccountID, g.opts.RoleName),
				"aws-region":        g.opts.Region,
				"role-session-name": "cdkflow-" + envtable.Slug(in.EnvironmentName),
			},
		},
	}

	for _, action := range g.opts.Actions {
		task := taskgen.TaskName(action, in.EnvironmentName)
		step := Step{
			Kind:             StepAction,
			Task:             task,
			Name:             fmt.Sprintf("Run cdk %s", action),
			Run:              g.opts.Runner + " " + task,
			WorkingDirectory: g.opts.CdkDir,
		}
		if action != lifecycle.ActionDiff {
			step.If = "github.event_name != 'pull_request'"
		}
		steps = append(steps, step)
	}
	return steps
}
