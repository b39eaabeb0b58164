package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/basewarphq/cdkflow/cmd/internal/awsenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

type App struct {
	Version kong.VersionFlag `help:"Show version."`

	Synth SynthCmd `cmd:"" help:"Generate tasks and GitHub workflows from cdkflow.toml."`
	Tasks TasksCmd `cmd:"" help:"List generated tasks."`
	Run   RunCmd   `cmd:"" help:"Run a generated task."`
	Role  RoleCmd  `cmd:"" help:"Print the role ARN workflows assume in an account."`
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

func main() {
	penv, err := awsenv.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(penv.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var app App
	kctx := kong.Parse(&app,
		kong.Name("cdkflow"),
		kong.Description("Per-environment CDK tasks and GitHub Actions workflows."),
		kong.Vars{"version": version},
		kong.Bind(penv, logger),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	if err := kctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1) //nolint:gocritic // exitAfterDefer
	}
}
