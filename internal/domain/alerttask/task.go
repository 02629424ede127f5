// Package alerttask defines the unit of work the scheduler launches each tick.
package alerttask

import "context"

// Task is one independently runnable alert-generation unit.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Func adapts a plain function into a Task.
type Func struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (f Func) Name() string { return f.TaskName }

func (f Func) Run(ctx context.Context) error { return f.Fn(ctx) }
