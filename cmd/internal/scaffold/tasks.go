package scaffold

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// TasksFile is where Synth persists tasks, relative to the project root.
const TasksFile = ".cdkflow/tasks.json"

// TaskStep is one command of a task. Dir is relative to the project root.
type TaskStep struct {
	Cmd  string   `json:"cmd"`
	Args []string `json:"args,omitempty"`
	Dir  string   `json:"dir,omitempty"`
}

type Task struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Steps       []TaskStep        `json:"steps"`
}

// Manifest is the persisted form of all registered tasks.
type Manifest struct {
	Comment string            `json:"//"`
	Env     map[string]string `json:"env,omitempty"`
	Tasks   []Task            `json:"tasks"`
}

// Find returns the task called name.
func (m *Manifest) Find(name string) (Task, bool) {
	for _, task := range m.Tasks {
		if task.Name == name {
			return task, true
		}
	}
	return Task{}, false
}

// TaskEnv returns the variables the task runs with: process-wide first, task-specific on top.
func (m *Manifest) TaskEnv(task Task) map[string]string {
	out := make(map[string]string, len(m.Env)+len(task.Env))
	for k, v := range m.Env {
		out[k] = v
	}
	for k, v := range task.Env {
		out[k] = v
	}
	return out
}

func (h *Host) manifest() Manifest {
	m := Manifest{
		Comment: "~~ Generated by cdkflow. To modify, edit cdkflow.toml and run \"cdkflow synth\".",
		Env:     h.Environment(),
		Tasks:   make([]Task, 0, len(h.taskOrder)),
	}
	for _, task := range h.Tasks() {
		m.Tasks = append(m.Tasks, *task)
	}
	return m
}

func encodeManifest(m Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding tasks")
	}
	return append(data, '\n'), nil
}

// LoadTasks reads the tasks file written by a previous Synth.
func LoadTasks(root string) (*Manifest, error) {
	path := filepath.Join(root, TasksFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Newf("%s not found; run \"cdkflow synth\" first", TasksFile)
		}
		return nil, errors.Wrapf(err, "reading %s", TasksFile)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", TasksFile)
	}
	return &m, nil
}
