// Package wfpatch edits existing GitHub Actions workflow files in place at the
// YAML node level, keeping comments and unrelated keys intact.
package wfpatch

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// AutoApprovePath is the auto-approve workflow that AutoMerge is applied to.
const AutoApprovePath = ".github/workflows/auto-approve.yml"

const approveJob = "approve"

// AutoMerge makes the approve job of an auto-approve workflow also enable
// auto-merge: it grants contents: write and sets steps 1 and 2 to a checkout
// and a "gh pr merge --auto" step. Applying it twice yields the same document.
func AutoMerge(workflowYAML []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(workflowYAML, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing workflow YAML")
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("invalid YAML document")
	}

	jobs, err := mappingValue(doc.Content[0], "jobs")
	if err != nil {
		return nil, err
	}

	job, err := mappingValue(jobs, approveJob)
	if err != nil {
		return nil, errors.Wrap(err, "in jobs")
	}

	perms, err := ensureMapping(job, "permissions")
	if err != nil {
		return nil, errors.Wrapf(err, "in jobs.%s", approveJob)
	}
	setScalar(perms, "contents", "write")

	steps, err := mappingValue(job, "steps")
	if err != nil {
		return nil, errors.Wrapf(err, "in jobs.%s", approveJob)
	}
	if steps.Kind != yaml.SequenceNode {
		return nil, errors.Newf("jobs.%s.steps is not a sequence", approveJob)
	}

	if err := setIndex(steps, 1, checkoutStep()); err != nil {
		return nil, err
	}
	if err := setIndex(steps, 2, mergeStep()); err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling patched workflow")
	}
	return out, nil
}

func mappingValue(node *yaml.Node, key string) (*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.Newf("expected mapping node for key %q", key)
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1], nil
		}
	}
	return nil, errors.Newf("key %q not found", key)
}

func ensureMapping(node *yaml.Node, key string) (*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.Newf("expected mapping node for key %q", key)
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value != key {
			continue
		}
		val := node.Content[i+1]
		if val.Kind != yaml.MappingNode {
			// A scalar such as "permissions: read-all" is replaced by an explicit map.
			val = &yaml.Node{Kind: yaml.MappingNode}
			node.Content[i+1] = val
		}
		return val, nil
	}
	val := &yaml.Node{Kind: yaml.MappingNode}
	node.Content = append(node.Content, scalar(key), val)
	return val, nil
}

func setScalar(node *yaml.Node, key, value string) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			node.Content[i+1] = scalar(value)
			return
		}
	}
	node.Content = append(node.Content, scalar(key), scalar(value))
}

func setIndex(seq *yaml.Node, idx int, item *yaml.Node) error {
	switch {
	case idx < len(seq.Content):
		seq.Content[idx] = item
	case idx == len(seq.Content):
		seq.Content = append(seq.Content, item)
	default:
		return errors.Newf("cannot set step %d: workflow only has %d steps", idx, len(seq.Content))
	}
	return nil
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func checkoutStep() *yaml.Node {
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalar("name"), scalar("Checkout"),
			scalar("uses"), scalar("actions/checkout@v5"),
		},
	}
}

func mergeStep() *yaml.Node {
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalar("name"), scalar("Enable Pull Request Automerge"),
			scalar("run"), scalar(`gh pr merge --merge --auto "${{ github.event.pull_request.number }}"`),
			scalar("env"), {
				Kind: yaml.MappingNode,
				Content: []*yaml.Node{
					scalar("GH_TOKEN"), scalar("${{ secrets.PROJEN_GITHUB_TOKEN }}"),
				},
			},
		},
	}
}
