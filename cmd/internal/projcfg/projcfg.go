package projcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/basewarphq/cdkflow/cmd/internal/envtable"
	"github.com/basewarphq/cdkflow/cmd/internal/lifecycle"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

const ConfigFile = "cdkflow.toml"

const environmentsKey = "environments"

type Config struct {
	Root         string            `toml:"-"`
	Project      ProjectConfig     `toml:"project"`
	Environments map[string]string `toml:"environments" validate:"dive,keys,required,endkeys,omitempty,number,len=12"`
	Workflow     WorkflowConfig    `toml:"workflow"`

	// Table holds Environments in file order.
	Table *envtable.Table `toml:"-"`
	// Actions is Workflow.Actions parsed and in declaration order.
	Actions []lifecycle.Action `toml:"-"`
}

type ProjectConfig struct {
	RuntimeVersion string `toml:"runtime-version" validate:"required"`
	GitHub         string `toml:"github" validate:"required,ghrepo"`
	CdkDir         string `toml:"cdk-dir" validate:"required"`
	CdkCliVersion  string `toml:"cdk-cli-version"`
	Profile        string `toml:"profile"`
}

type WorkflowConfig struct {
	Branch   string            `toml:"branch"`
	Branches map[string]string `toml:"branches"`
	Paths    []string          `toml:"paths"`
	Actions  []string          `toml:"actions"`
	RoleName string            `toml:"role-name"`
	Runner   string            `toml:"runner"`
}

func (c *Config) CdkDir() string {
	return filepath.Join(c.Root, c.Project.CdkDir)
}

// CdkArgs are appended to every cdk invocation.
func (c *Config) CdkArgs() []string {
	if c.Project.Profile != "" {
		return []string{"--profile", c.Project.Profile}
	}
	return nil
}

// Load finds cdkflow.toml in the working directory or one of its parents.
func Load() (*Config, error) {
	root, err := findRoot()
	if err != nil {
		return nil, err
	}
	return LoadDir(root)
}

// LoadDir loads cdkflow.toml from root.
func LoadDir(root string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(filepath.Join(root, ConfigFile), &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", ConfigFile)
	}

	cfg.Root = root
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", ConfigFile)
	}

	if cfg.Table, err = buildTable(meta, cfg.Environments); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", ConfigFile)
	}
	if cfg.Actions, err = lifecycle.ParseActions(cfg.Workflow.Actions); err != nil {
		return nil, errors.Wrapf(err, "invalid %s: workflow.actions", ConfigFile)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Workflow.Actions) == 0 {
		for _, act := range lifecycle.WorkflowDefault {
			c.Workflow.Actions = append(c.Workflow.Actions, act.String())
		}
	}
	if c.Workflow.Paths == nil && c.Project.CdkDir != "" {
		c.Workflow.Paths = []string{
			filepath.ToSlash(filepath.Clean(c.Project.CdkDir)) + "/**",
			ConfigFile,
		}
	}
}

// buildTable orders environments the way they appear in the file. TOML has no
// null, so an empty account marks an environment without one.
func buildTable(meta toml.MetaData, accounts map[string]string) (*envtable.Table, error) {
	envs := make([]envtable.Environment, 0, len(accounts))
	for _, key := range meta.Keys() {
		if len(key) != 2 || key[0] != environmentsKey {
			continue
		}
		name := key[1]
		account := envtable.None()
		if id := accounts[name]; id != "" {
			account = envtable.Some(id)
		}
		envs = append(envs, envtable.Environment{Name: name, Account: account})
	}
	return envtable.New(envs...)
}

var ghRepoPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*/[A-Za-z0-9._-]+$`)

func (c *Config) validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("ghrepo", func(fl validator.FieldLevel) bool {
		return ghRepoPattern.MatchString(fl.Field().String())
	}); err != nil {
		return errors.Wrap(err, "registering ghrepo validation")
	}

	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, e := range validationErrs {
				msgs = append(msgs, formatValidationError(e))
			}
			return errors.Newf("validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return errors.Wrap(err, "validation failed")
	}

	if filepath.IsAbs(c.Project.CdkDir) {
		return errors.Newf("project.cdk-dir must be relative, got %q", c.Project.CdkDir)
	}
	for name := range c.Workflow.Branches {
		if _, ok := c.Environments[name]; !ok {
			return errors.Newf("workflow.branches: unknown environment %q", name)
		}
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "number", "len":
		return fmt.Sprintf("%s must be a 12-digit AWS account ID (got %q)", field, e.Value())
	case "ghrepo":
		return fmt.Sprintf("%s must be in the form owner/repo (got %q)", field, e.Value())
	default:
		return fmt.Sprintf("%s failed validation %q", field, e.Tag())
	}
}

func findRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Newf("could not find %s in any parent directory", ConfigFile)
		}
		dir = parent
	}
}
