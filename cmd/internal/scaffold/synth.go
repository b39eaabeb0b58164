package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Synth writes the tasks file and every registered or modified workflow file,
// then removes generated workflow files that were not registered this run.
func (h *Host) Synth() error {
	tasks, err := encodeManifest(h.manifest())
	if err != nil {
		return err
	}
	if err := h.writeFile(TasksFile, tasks); err != nil {
		return err
	}

	for _, f := range h.WorkflowFiles() {
		if err := h.writeFile(f.Path, f.Content); err != nil {
			return err
		}
	}
	for _, f := range h.existing {
		if !f.dirty {
			continue
		}
		if err := h.writeFile(f.Path, f.Content); err != nil {
			return err
		}
	}

	return h.removeStale()
}

func (h *Host) writeFile(rel string, content []byte) error {
	full := filepath.Join(h.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", rel)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil { //nolint:gosec // checked-in project files
		return errors.Wrapf(err, "writing %s", rel)
	}
	h.log.Info("wrote file", zap.String("path", rel))
	return nil
}

func (h *Host) removeStale() error {
	dir := filepath.Join(h.root, WorkflowDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "listing %s", WorkflowDir)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
			continue
		}
		rel := WorkflowDir + "/" + name
		if _, ok := h.files[rel]; ok {
			continue
		}
		full := filepath.Join(dir, name)
		data, err := os.ReadFile(full)
		if err != nil {
			return errors.Wrapf(err, "reading %s", rel)
		}
		if !bytes.HasPrefix(data, []byte(GeneratedMarker)) {
			continue
		}
		if err := os.Remove(full); err != nil {
			return errors.Wrapf(err, "removing stale %s", rel)
		}
		h.log.Info("removed stale workflow", zap.String("path", rel))
	}
	return nil
}
