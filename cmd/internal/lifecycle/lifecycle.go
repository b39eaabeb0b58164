// Package lifecycle enumerates the infrastructure actions a task can run.
package lifecycle

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Action is an infrastructure operation executable against one account and region.
type Action int

const (
	ActionDiff Action = iota
	ActionDeploy
	ActionDestroy
)

var actionNames = [...]string{
	ActionDiff:    "diff",
	ActionDeploy:  "deploy",
	ActionDestroy: "destroy",
}

func (a Action) String() string {
	if int(a) >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// CdkArgs returns the cdk CLI arguments that perform the action.
func (a Action) CdkArgs() []string {
	switch a {
	case ActionDiff:
		return []string{"diff", "--all"}
	case ActionDeploy:
		return []string{"deploy", "--all", "--require-approval", "never"}
	case ActionDestroy:
		return []string{"destroy", "--all", "--force"}
	default:
		return nil
	}
}

// All lists every action in declaration order.
var All = []Action{ActionDiff, ActionDeploy, ActionDestroy}

// WorkflowDefault is the subset run by generated CI workflows when none is configured.
var WorkflowDefault = []Action{ActionDiff, ActionDeploy}

// ParseAction returns the action called name, e.g. "deploy".
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, errors.Newf("unknown lifecycle action: %q", name)
}

// ParseActions parses names and returns them in declaration order without duplicates.
func ParseActions(names []string) ([]Action, error) {
	seen := make(map[Action]struct{}, len(names))
	for _, name := range names {
		act, err := ParseAction(name)
		if err != nil {
			return nil, err
		}
		seen[act] = struct{}{}
	}
	result := make([]Action, 0, len(seen))
	for _, act := range All {
		if _, ok := seen[act]; ok {
			result = append(result, act)
		}
	}
	return result, nil
}
