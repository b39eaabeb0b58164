// Package generate drives task and workflow generation over an environment table.
package generate

import (
	"fmt"

	"github.com/basewarphq/cdkflow/cmd/internal/awsenv"
	"github.com/basewarphq/cdkflow/cmd/internal/envtable"
	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/basewarphq/cdkflow/cmd/internal/taskgen"
	"github.com/basewarphq/cdkflow/cmd/internal/workflowgen"
	"go.uber.org/zap"
)

// State is where an environment is in the generation pass.
type State int

const (
	StatePending State = iota
	StateSkipped
	StateGenerated
)

var stateNames = [...]string{
	StatePending:   "pending",
	StateSkipped:   "skipped",
	StateGenerated: "generated",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Host is what generated tasks and workflows are registered with.
type Host interface {
	taskgen.Registrar
	workflowgen.Registrar
}

// Settings are fixed for the whole pass.
type Settings struct {
	GitHub         string
	RuntimeVersion string
	Defaults       awsenv.Defaults
}

// Result records what happened to one environment.
type Result struct {
	Environment  string
	State        State
	Tasks        []string
	WorkflowPath string
	AuthRoleRef  string
}

// Report lists results in table order.
type Report struct {
	Results []Result
}

// Generated returns the number of environments that produced output.
func (r *Report) Generated() int {
	var n int
	for _, res := range r.Results {
		if res.State == StateGenerated {
			n++
		}
	}
	return n
}

type Driver struct {
	tasks     *taskgen.Generator
	workflows *workflowgen.Generator
	log       *zap.Logger
}

func NewDriver(tasks *taskgen.Generator, workflows *workflowgen.Generator, log *zap.Logger) *Driver {
	return &Driver{tasks: tasks, workflows: workflows, log: log}
}

// Run visits every environment once, in table order. Environments without an
// account are skipped; the rest get their tasks and then their workflow. The
// first error ends the pass.
func (d *Driver) Run(host Host, table *envtable.Table, settings Settings) (*Report, error) {
	envs := table.All()
	report := &Report{Results: make([]Result, len(envs))}
	for i, env := range envs {
		report.Results[i] = Result{Environment: env.Name, State: StatePending}
	}

	for i, env := range envs {
		res := &report.Results[i]

		switch account, ok := env.Account.Get(); {
		case !ok:
			res.State = StateSkipped
			d.log.Debug("skipping environment without account", zap.String("environment", env.Name))
		default:
			if err := d.generate(host, env, account, settings, res); err != nil {
				return nil, err
			}
			res.State = StateGenerated
			d.log.Info("generated environment",
				zap.String("environment", env.Name),
				zap.String("account", account),
				zap.Strings("tasks", res.Tasks),
				zap.String("workflow", res.WorkflowPath),
			)
		}
	}

	return report, nil
}

func (d *Driver) generate(
	host Host,
	env envtable.Environment,
	account string,
	settings Settings,
	res *Result,
) error {
	tasks, err := d.tasks.Generate(host, env, settings.Defaults)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		res.Tasks = append(res.Tasks, task.Name)
	}

	desc, err := d.workflows.Generate(host, workflowgen.Input{
		GitHub:          settings.GitHub,
		AccountID:       account,
		EnvironmentName: env.Name,
		RuntimeVersion:  settings.RuntimeVersion,
	})
	if err != nil {
		return err
	}
	res.WorkflowPath = desc.Path
	res.AuthRoleRef = desc.AuthRoleRef
	return nil
}

var _ Host = (*scaffold.Host)(nil)
