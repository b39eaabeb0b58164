// Package taskgen derives the lifecycle tasks of one deployment environment.
package taskgen

import (
	"fmt"
	"slices"

	"github.com/basewarphq/cdkflow/cmd/internal/awsenv"
	"github.com/basewarphq/cdkflow/cmd/internal/envtable"
	"github.com/basewarphq/cdkflow/cmd/internal/lifecycle"
	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/cockroachdb/errors"
)

// Registrar accepts tasks by name.
type Registrar interface {
	AddTask(name string, task scaffold.Task) (*scaffold.Task, error)
}

type Options struct {
	// CdkDir is the CDK app directory, relative to the project root.
	CdkDir string
	// CdkArgs are appended to every cdk invocation, e.g. --profile.
	CdkArgs []string
}

type Generator struct {
	cdkDir  string
	cdkArgs []string
}

func New(opts Options) *Generator {
	return &Generator{
		cdkDir:  opts.CdkDir,
		cdkArgs: slices.Clone(opts.CdkArgs),
	}
}

// TaskName is the name a task is registered and invoked under, e.g. "deploy:dev".
func TaskName(action lifecycle.Action, envName string) string {
	return action.String() + ":" + envtable.Slug(envName)
}

// Generate registers one task per lifecycle action for env. The environment must
// have an account; callers filter unconfigured environments out beforehand.
func (g *Generator) Generate(
	reg Registrar,
	env envtable.Environment,
	defaults awsenv.Defaults,
) ([]*scaffold.Task, error) {
	account, ok := env.Account.Get()
	if !ok {
		return nil, errors.AssertionFailedf("taskgen: environment %q has no account", env.Name)
	}

	tasks := make([]*scaffold.Task, 0, len(lifecycle.All))
	for _, action := range lifecycle.All {
		vars := defaults.Merge(map[string]string{
			awsenv.VarDefaultAccount: account,
			awsenv.VarEnvironment:    env.Name,
		})
		task, err := reg.AddTask(TaskName(action, env.Name), scaffold.Task{
			Description: fmt.Sprintf("Run cdk %s against %s (%s)", action, env.Name, account),
			Env:         vars,
			Steps: []scaffold.TaskStep{{
				Cmd:  "cdk",
				Args: slices.Concat(action.CdkArgs(), g.cdkArgs),
				Dir:  g.cdkDir,
			}},
		})
		if err != nil {
			return nil, errors.Wrapf(err, "environment %q", env.Name)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
