// Package bincheck reports which of the binaries a task invokes are not installed.
package bincheck

import (
	"os/exec"
	"slices"
	"sync"
)

type Checker struct {
	cache    sync.Map
	lookPath func(string) (string, error)
}

func NewChecker() *Checker {
	return &Checker{lookPath: exec.LookPath}
}

// InPath reports whether name resolves on PATH. Results are cached per name.
func (c *Checker) InPath(name string) bool {
	if v, ok := c.cache.Load(name); ok {
		found, _ := v.(bool)
		return found
	}
	_, err := c.lookPath(name)
	actual, _ := c.cache.LoadOrStore(name, err == nil)
	found, _ := actual.(bool)
	return found
}

// Missing returns the names not on PATH, sorted and without duplicates.
func (c *Checker) Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if !c.InPath(name) {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return slices.Compact(missing)
}
