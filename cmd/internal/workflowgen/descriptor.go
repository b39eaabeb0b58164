package workflowgen

import (
	"bytes"
	"fmt"

	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// StepKind identifies the role of a step within the deploy job.
type StepKind int

const (
	StepCheckout StepKind = iota
	StepRuntime
	StepDependencies
	StepAssumeRole
	StepAction
)

// Step is a GitHub Actions job step. Kind and Task are not rendered.
type Step struct {
	Kind             StepKind          `yaml:"-"`
	Task             string            `yaml:"-"`
	Name             string            `yaml:"name"`
	If               string            `yaml:"if,omitempty"`
	Uses             string            `yaml:"uses,omitempty"`
	With             map[string]string `yaml:"with,omitempty"`
	Run              string            `yaml:"run,omitempty"`
	WorkingDirectory string            `yaml:"working-directory,omitempty"`
	Env              map[string]string `yaml:"env,omitempty"`
}

type BranchFilter struct {
	Branches []string `yaml:"branches"`
	Paths    []string `yaml:"paths,omitempty"`
}

type Triggers struct {
	Push             *BranchFilter `yaml:"push,omitempty"`
	PullRequest      *BranchFilter `yaml:"pull_request,omitempty"`
	WorkflowDispatch *struct{}     `yaml:"workflow_dispatch,omitempty"`
}

// Descriptor is the CI workflow of one environment.
type Descriptor struct {
	Name            string
	Path            string
	EnvironmentName string
	AccountID       string
	AuthRoleRef     string
	Repository      string
	Triggers        Triggers
	Steps           []Step
}

type document struct {
	Name string         `yaml:"name"`
	On   Triggers       `yaml:"on"`
	Jobs map[string]job `yaml:"jobs"`
}

type job struct {
	Name        string            `yaml:"name"`
	If          string            `yaml:"if,omitempty"`
	RunsOn      string            `yaml:"runs-on"`
	Environment string            `yaml:"environment"`
	Permissions map[string]string `yaml:"permissions"`
	Concurrency concurrency       `yaml:"concurrency"`
	Steps       []Step            `yaml:"steps"`
}

type concurrency struct {
	Group            string `yaml:"group"`
	CancelInProgress bool   `yaml:"cancel-in-progress"`
}

// Render encodes the descriptor as a workflow file, starting with the generated-file marker.
func (d *Descriptor) Render() ([]byte, error) {
	doc := document{
		Name: d.Name,
		On:   d.Triggers,
		Jobs: map[string]job{
			"deploy": {
				Name:        fmt.Sprintf("Deploy to %s (%s)", d.EnvironmentName, d.AccountID),
				If:          fmt.Sprintf("github.repository == '%s'", d.Repository),
				RunsOn:      "ubuntu-latest",
				Environment: d.EnvironmentName,
				Permissions: map[string]string{
					"id-token": "write",
					"contents": "read",
				},
				Concurrency: concurrency{Group: d.Name},
				Steps:       d.Steps,
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(scaffold.GeneratedMarker)
	buf.WriteString(" To modify, edit cdkflow.toml and run \"cdkflow synth\".\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrapf(err, "encoding workflow %s", d.Name)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrapf(err, "encoding workflow %s", d.Name)
	}
	return buf.Bytes(), nil
}
