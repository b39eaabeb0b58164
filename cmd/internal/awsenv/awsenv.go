// Package awsenv resolves the process-wide settings that every generated task
// inherits. It is read once per run; generators receive the resolved values.
package awsenv

import (
	"maps"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// DefaultRegion is used when AWS_REGION is not set.
const DefaultRegion = "us-east-1"

const (
	VarDefaultRegion  = "CDK_DEFAULT_REGION"
	VarDefaultAccount = "CDK_DEFAULT_ACCOUNT"
	VarEnvironment    = "ENVIRONMENT"
)

type Environment struct {
	Region   string        `env:"AWS_REGION" envDefault:"us-east-1"`
	LogLevel zapcore.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Parse reads the process environment. The region is not checked here; commands
// that use it call Validate.
func Parse() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return e, errors.Wrap(err, "parsing environment")
	}
	return e, nil
}

// ParseFrom reads the given variables instead of the process environment.
func ParseFrom(vars map[string]string) (Environment, error) {
	var e Environment
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return e, errors.Wrap(err, "parsing environment")
	}
	return e, nil
}

// Validate checks that the region is one generated workflows can target.
func (e Environment) Validate() error {
	if !IsKnownRegion(e.Region) {
		return errors.Newf("unknown AWS region %q in AWS_REGION", e.Region)
	}
	return nil
}

// Defaults returns the variables injected into every task. The returned map is a copy.
func (e Environment) Defaults() Defaults {
	return Defaults{VarDefaultRegion: e.Region}
}

// Defaults are process-wide task variables, resolved once and then read-only.
type Defaults map[string]string

// Merge returns a new map with base overlaid on the defaults.
func (d Defaults) Merge(base map[string]string) map[string]string {
	out := make(map[string]string, len(d)+len(base))
	maps.Copy(out, d)
	maps.Copy(out, base)
	return out
}
