package generate

import (
	"maps"
	"slices"

	"github.com/basewarphq/cdkflow/cmd/internal/envtable"
	"github.com/basewarphq/cdkflow/cmd/internal/scaffold"
	"github.com/basewarphq/cdkflow/cmd/internal/wfpatch"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Synth runs a full pass against host and persists the result. Nothing is
// written unless every environment generated successfully.
func (d *Driver) Synth(host *scaffold.Host, table *envtable.Table, settings Settings) (*Report, error) {
	for _, key := range slices.Sorted(maps.Keys(settings.Defaults)) {
		host.AddEnvironmentVariable(key, settings.Defaults[key])
	}

	report, err := d.Run(host, table, settings)
	if err != nil {
		return nil, err
	}

	if err := d.patchAutoApprove(host); err != nil {
		return nil, err
	}

	if err := host.Synth(); err != nil {
		return nil, err
	}
	return report, nil
}

func (d *Driver) patchAutoApprove(host *scaffold.Host) error {
	f, ok, err := host.FindExistingWorkflowFile(wfpatch.AutoApprovePath)
	if err != nil {
		return err
	}
	if !ok {
		d.log.Debug("no auto-approve workflow to patch", zap.String("path", wfpatch.AutoApprovePath))
		return nil
	}
	patched, err := wfpatch.AutoMerge(f.Content)
	if err != nil {
		return errors.Wrapf(err, "patching %s", wfpatch.AutoApprovePath)
	}
	f.SetContent(patched)
	return nil
}
