// Package scaffold is the project host that generated tasks and workflow files
// are registered with. Registration is in memory; nothing touches disk until
// Synth, so a failed generation pass leaves the project unchanged.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// GeneratedMarker starts every file cdkflow owns. Synth only deletes files carrying it.
const GeneratedMarker = "# ~~ Generated by cdkflow."

// WorkflowDir is where GitHub Actions workflow files live, relative to the project root.
const WorkflowDir = ".github/workflows"

// ConfigurationError reports a name registered twice.
type ConfigurationError struct {
	Kind string
	Name string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %q is already registered", e.Kind, e.Name)
}

const (
	KindTask     = "task"
	KindWorkflow = "workflow file"
)

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// File is a workflow file, either registered during this run or read from disk.
type File struct {
	Path    string
	Content []byte
	dirty   bool
}

// SetContent replaces the file content; the file is written on Synth.
func (f *File) SetContent(content []byte) {
	f.Content = content
	f.dirty = true
}

type Host struct {
	root      string
	log       *zap.Logger
	env       map[string]string
	tasks     map[string]*Task
	taskOrder []string
	files     map[string]*File
	fileOrder []string
	existing  map[string]*File
}

func New(root string, log *zap.Logger) *Host {
	return &Host{
		root:     root,
		log:      log,
		env:      make(map[string]string),
		tasks:    make(map[string]*Task),
		files:    make(map[string]*File),
		existing: make(map[string]*File),
	}
}

func (h *Host) Root() string { return h.root }

// AddEnvironmentVariable sets a variable every task is run with.
func (h *Host) AddEnvironmentVariable(key, value string) {
	h.env[key] = value
}

// AddTask registers task under name. The host takes ownership of task.
func (h *Host) AddTask(name string, task Task) (*Task, error) {
	if name == "" {
		return nil, errors.New("task name is required")
	}
	if _, dup := h.tasks[name]; dup {
		return nil, &ConfigurationError{Kind: KindTask, Name: name}
	}
	task.Name = name
	h.tasks[name] = &task
	h.taskOrder = append(h.taskOrder, name)
	h.log.Debug("registered task", zap.String("task", name))
	return &task, nil
}

// WriteWorkflowFile registers content to be written at path, relative to the root.
func (h *Host) WriteWorkflowFile(path string, content []byte) error {
	if !filepath.IsLocal(path) {
		return errors.Newf("workflow path must be relative to the project root, got %q", path)
	}
	path = filepath.ToSlash(filepath.Clean(path))
	if _, dup := h.files[path]; dup {
		return &ConfigurationError{Kind: KindWorkflow, Name: path}
	}
	h.files[path] = &File{Path: path, Content: content, dirty: true}
	h.fileOrder = append(h.fileOrder, path)
	h.log.Debug("registered workflow file", zap.String("path", path))
	return nil
}

// FindExistingWorkflowFile returns the registered file at path, or the file on
// disk if nothing registered it. Changes made through SetContent are written on Synth.
func (h *Host) FindExistingWorkflowFile(path string) (*File, bool, error) {
	path = filepath.ToSlash(filepath.Clean(path))
	if f, ok := h.files[path]; ok {
		return f, true, nil
	}
	if f, ok := h.existing[path]; ok {
		return f, true, nil
	}
	data, err := os.ReadFile(filepath.Join(h.root, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading %s", path)
	}
	f := &File{Path: path, Content: data}
	h.existing[path] = f
	return f, true, nil
}

// Tasks returns the registered tasks in registration order.
func (h *Host) Tasks() []*Task {
	result := make([]*Task, 0, len(h.taskOrder))
	for _, name := range h.taskOrder {
		result = append(result, h.tasks[name])
	}
	return result
}

// WorkflowFiles returns the registered workflow files in registration order.
func (h *Host) WorkflowFiles() []*File {
	result := make([]*File, 0, len(h.fileOrder))
	for _, path := range h.fileOrder {
		result = append(result, h.files[path])
	}
	return result
}

// Environment returns a copy of the process-wide task variables.
func (h *Host) Environment() map[string]string {
	out := make(map[string]string, len(h.env))
	for k, v := range h.env {
		out[k] = v
	}
	return out
}
