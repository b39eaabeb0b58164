// Package envtable holds the ordered table of deployment environments and the
// AWS account each one is bound to.
package envtable

import (
	"regexp"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
)

// Account is an AWS account ID that may be absent.
type Account struct {
	id  string
	set bool
}

// Some returns an Account bound to id.
func Some(id string) Account { return Account{id: id, set: true} }

// None returns an absent Account.
func None() Account { return Account{} }

// Get returns the account ID and whether one is present.
func (a Account) Get() (string, bool) { return a.id, a.set }

func (a Account) String() string {
	if !a.set {
		return "<none>"
	}
	return a.id
}

// Environment is a named deployment target, optionally bound to one account.
type Environment struct {
	Name    string
	Account Account
}

// Slug is the kebab-cased environment name used in task and file names.
func (e Environment) Slug() string {
	return Slug(e.Name)
}

// Slug converts an environment name into its task and file name form,
// e.g. "StagingEu" becomes "staging-eu".
func Slug(name string) string {
	return strcase.ToKebab(name)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var validate = validator.New()

// ValidateAccountID checks that id is a 12-digit AWS account ID.
func ValidateAccountID(id string) error {
	if err := validate.Var(id, "number,len=12"); err != nil {
		return errors.Newf("invalid account ID %q: must be 12 digits", id)
	}
	return nil
}

// validateName rejects names whose slug cannot be used in a task or workflow file name.
func validateName(name string) error {
	if slug := Slug(name); !slugPattern.MatchString(slug) {
		return errors.Newf(
			"environment %q: name must map to lowercase letters, digits and single dashes (got %q)",
			name, slug)
	}
	return nil
}

// Table is an insertion-ordered mapping from environment name to account.
type Table struct {
	envs  []Environment
	index map[string]int
}

// New builds a Table, keeping the order of envs. Names must be non-empty, unique
// and slug to lowercase letters, digits and inner dashes.
func New(envs ...Environment) (*Table, error) {
	tbl := &Table{
		envs:  make([]Environment, 0, len(envs)),
		index: make(map[string]int, len(envs)),
	}
	for i, env := range envs {
		if env.Name == "" {
			return nil, errors.Newf("environment[%d]: name is required", i)
		}
		if err := validateName(env.Name); err != nil {
			return nil, err
		}
		if _, dup := tbl.index[env.Name]; dup {
			return nil, errors.Newf("duplicate environment name %q", env.Name)
		}
		tbl.index[env.Name] = len(tbl.envs)
		tbl.envs = append(tbl.envs, env)
	}
	return tbl, nil
}

// All returns the environments in insertion order.
func (t *Table) All() []Environment {
	return append([]Environment(nil), t.envs...)
}

// Get looks up an environment by name.
func (t *Table) Get(name string) (Environment, bool) {
	i, ok := t.index[name]
	if !ok {
		return Environment{}, false
	}
	return t.envs[i], true
}

// Len returns the number of environments, configured or not.
func (t *Table) Len() int { return len(t.envs) }

// Configured returns only the environments with an account, in insertion order.
func (t *Table) Configured() []Environment {
	var result []Environment
	for _, env := range t.envs {
		if _, ok := env.Account.Get(); ok {
			result = append(result, env)
		}
	}
	return result
}
