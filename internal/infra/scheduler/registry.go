package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"groona_alerts/internal/domain/alerttask"

	"github.com/sirupsen/logrus"
)

const execPrefix = "exec:"

var ErrUnknownTask = errors.New("unknown alert task")

// Registry maps task names to built-in handlers.
type Registry struct {
	builtins map[string]alerttask.Task
	order    []string
}

func NewRegistry(tasks ...alerttask.Task) *Registry {
	r := &Registry{builtins: make(map[string]alerttask.Task)}
	for _, t := range tasks {
		r.Register(t)
	}
	return r
}

// Register adds a built-in task; a later registration under the same name wins.
func (r *Registry) Register(t alerttask.Task) {
	if t == nil {
		return
	}
	if _, exists := r.builtins[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.builtins[t.Name()] = t
}

// Names lists the registered built-ins in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// ExecSettings describe where exec tasks live and what they receive.
type ExecSettings struct {
	Dir    string
	Env    []string
	Logger *logrus.Entry
}

// Resolve turns an ordered list of names into tasks. "exec:<program>"
// entries become ExecTasks in settings.Dir.
func (r *Registry) Resolve(names []string, settings ExecSettings) ([]alerttask.Task, error) {
	out := make([]alerttask.Task, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("alert task %q listed twice", name)
		}
		seen[name] = true

		if program, ok := strings.CutPrefix(name, execPrefix); ok {
			if program == "" || strings.ContainsAny(program, `/\`) || program == "." || program == ".." {
				return nil, fmt.Errorf("invalid exec task name %q", name)
			}
			logger := settings.Logger
			if logger == nil {
				logger = logrus.NewEntry(logrus.StandardLogger())
			}
			out = append(out, NewExecTask(program, settings.Dir, settings.Env, logger))
			continue
		}
		t, ok := r.builtins[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
		}
		out = append(out, t)
	}
	return out, nil
}
