package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/basewarphq/cdkflow/cmd/internal/awsenv"
	"github.com/basewarphq/cdkflow/cmd/internal/awsident"
	"github.com/basewarphq/cdkflow/cmd/internal/bincheck"
	"github.com/basewarphq/cdkflow/cmd/internal/cmdexec"
	"github.com/basewarphq/cdkflow/cmd/internal/projcfg"
	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type RunCmd struct {
	Task            string `arg:"" help:"Task name (e.g., diff:dev, deploy:production)."`
	NoVerifyAccount bool   `name:"no-verify-account" help:"Skip checking that AWS credentials belong to the task's account."`
}

func (c *RunCmd) Run(ctx context.Context, log *zap.Logger) error {
	cfg, err := projcfg.Load()
	if err != nil {
		return err
	}
	manifest, err := scaffold.LoadTasks(cfg.Root)
	if err != nil {
		return err
	}

	task, ok := manifest.Find(c.Task)
	if !ok {
		return errors.Newf("unknown task %q; run \"cdkflow tasks\" to list tasks", c.Task)
	}
	vars := manifest.TaskEnv(task)

	bins := make([]string, 0, len(task.Steps))
	for _, step := range task.Steps {
		bins = append(bins, step.Cmd)
	}
	if missing := bincheck.NewChecker().Missing(bins...); len(missing) > 0 {
		return errors.Newf("task %s needs %s on PATH", task.Name, strings.Join(missing, ", "))
	}

	if account := vars[awsenv.VarDefaultAccount]; account != "" && !c.NoVerifyAccount {
		id, err := awsident.Load(ctx, vars[awsenv.VarDefaultRegion], cfg.Project.Profile)
		if err != nil {
			return err
		}
		if err := id.VerifyAccount(ctx, account); err != nil {
			return errors.Wrapf(err, "task %s", task.Name)
		}
		log.Debug("verified caller account", zap.String("account", account))
	}

	for _, step := range task.Steps {
		cmd := cmdexec.Cmd{
			Name: step.Cmd,
			Args: step.Args,
			Dir:  filepath.Join(cfg.Root, step.Dir),
			Env:  vars,
		}
		log.Info("running", zap.String("task", task.Name), zap.Stringer("cmd", cmd))
		if err := cmdexec.Run(ctx, cmd); err != nil {
			return errors.Wrapf(err, "task %s", task.Name)
		}
	}
	return nil
}
