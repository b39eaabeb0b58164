package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/basewarphq/cdkflow/cmd/internal/awsenv"
	"github.com/basewarphq/cdkflow/cmd/internal/generate"
	"github.com/basewarphq/cdkflow/cmd/internal/projcfg"
	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/basewarphq/cdkflow/cmd/internal/taskgen"
	"github.com/basewarphq/cdkflow/cmd/internal/workflowgen"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type SynthCmd struct{}

func (c *SynthCmd) Run(penv awsenv.Environment, log *zap.Logger) error {
	if err := penv.Validate(); err != nil {
		return err
	}

	var report *generate.Report

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Supply(penv, log),
		fx.Provide(
			projcfg.Load,
			newHost,
			newTaskGenerator,
			newWorkflowGenerator,
			newSettings,
			generate.NewDriver,
		),
		fx.Invoke(func(
			driver *generate.Driver, host *scaffold.Host, cfg *projcfg.Config, settings generate.Settings,
		) error {
			var err error
			report, err = driver.Synth(host, cfg.Table, settings)
			return err
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}

	return printReport(report)
}

func newHost(cfg *projcfg.Config, log *zap.Logger) *scaffold.Host {
	return scaffold.New(cfg.Root, log)
}

func newTaskGenerator(cfg *projcfg.Config) *taskgen.Generator {
	return taskgen.New(taskgen.Options{
		CdkDir:  cfg.Project.CdkDir,
		CdkArgs: cfg.CdkArgs(),
	})
}

func newWorkflowGenerator(cfg *projcfg.Config, penv awsenv.Environment) *workflowgen.Generator {
	return workflowgen.New(workflowgen.Options{
		Region:        penv.Region,
		RoleName:      cfg.Workflow.RoleName,
		CdkDir:        cfg.Project.CdkDir,
		Runner:        cfg.Workflow.Runner,
		CdkCliVersion: cfg.Project.CdkCliVersion,
		Branch:        cfg.Workflow.Branch,
		Branches:      cfg.Workflow.Branches,
		Paths:         cfg.Workflow.Paths,
		Actions:       cfg.Actions,
	})
}

func newSettings(cfg *projcfg.Config, penv awsenv.Environment) generate.Settings {
	return generate.Settings{
		GitHub:         cfg.Project.GitHub,
		RuntimeVersion: cfg.Project.RuntimeVersion,
		Defaults:       penv.Defaults(),
	}
}

func printReport(report *generate.Report) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "ENVIRONMENT\tSTATE\tWORKFLOW\tROLE")
	for _, res := range report.Results {
		workflow, role := "-", "-"
		if res.State == generate.StateGenerated {
			workflow, role = res.WorkflowPath, res.AuthRoleRef
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", res.Environment, res.State, workflow, role)
	}
	return writer.Flush()
}
