// Package task defines build tasks, their dependencies and arguments, and the
// registry that turns a set of tasks into a dependency graph.
package task

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/unit"
)

// BuildFunc populates the units of a task for one run
type BuildFunc func(b *Builder) error

// Option configures a Task
type Option func(*Task)

// WithDir sets the working directory of the task
func WithDir(dir string) Option {
	return func(t *Task) {
		t.dir = dir
	}
}

// WithBuild sets the callback that creates the task's units
func WithBuild(fn BuildFunc) Option {
	return func(t *Task) {
		t.build = fn
	}
}

// Task is a named unit of work with dependencies on other tasks
type Task struct {
	name  string
	dir   string
	build BuildFunc

	dependencies []*Dependency

	buildMu sync.Mutex

	mu       sync.Mutex
	args     Args
	units    []unit.Unit
	built    bool
	buildErr error
	output   unit.Sink
	errOut   unit.Sink
}

// New creates a task
func New(name string, opts ...Option) *Task {
	t := &Task{
		name: name,
		dir:  ".",
		args: Args{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Task) Name() string {
	return t.name
}

func (t *Task) Dir() string {
	return t.dir
}

// Dependencies returns the dependency declarations in declaration order
func (t *Task) Dependencies() []*Dependency {
	return append([]*Dependency(nil), t.dependencies...)
}

// DependsOn declares that this task waits on the task called name. watch may be
// nil, in which case the dependency is always active.
func (t *Task) DependsOn(name string, watch WatchFunc) *Task {
	t.dependencies = append(t.dependencies, &Dependency{
		Name:  name,
		watch: watch,
		owner: t,
	})
	return t
}

// Args returns the arguments of the current run
func (t *Task) Args() Args {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.args
}

// Load stores the arguments for the next run and discards previously built units
func (t *Task) Load(args Args) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if args == nil {
		args = Args{}
	}
	t.args = args
	t.units = nil
	t.built = false
	t.buildErr = nil
}

// OnOutput registers the sink receiving output lines of every unit
func (t *Task) OnOutput(sink unit.Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output = sink
}

// OnError registers the sink receiving error lines of every unit
func (t *Task) OnError(sink unit.Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errOut = sink
}

// Units returns the units created by the build callback, building them if needed
func (t *Task) Units() ([]unit.Unit, error) {
	if err := t.ensureBuilt(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]unit.Unit(nil), t.units...), nil
}

// Execute builds the task's units once per Load and runs them in order. The
// first failing unit stops the task.
func (t *Task) Execute(ctx context.Context) error {
	units, err := t.Units()
	if err != nil {
		return err
	}

	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return t.executionError(u.Description(), err)
		}
		if err := u.Execute(ctx); err != nil {
			return t.executionError(u.Description(), err)
		}
	}

	return nil
}

func (t *Task) ensureBuilt() error {
	t.buildMu.Lock()
	defer t.buildMu.Unlock()

	t.mu.Lock()
	built, buildErr := t.built, t.buildErr
	build, args := t.build, t.args
	t.mu.Unlock()

	// a failed build stays failed until the next Load
	if built {
		return buildErr
	}

	var units []unit.Unit
	var err error
	if build != nil {
		units, err = t.runBuild(build, args)
	}

	t.mu.Lock()
	t.built = true
	t.units = units
	t.buildErr = err
	t.mu.Unlock()

	return err
}

func (t *Task) runBuild(build BuildFunc, args Args) (units []unit.Unit, err error) {
	defer errors.Recover(func(cause error) {
		units, err = nil, t.executionError("build", cause)
	})

	b := &Builder{task: t, args: args}
	if err := build(b); err != nil {
		return nil, t.executionError("build", err)
	}
	return b.units, nil
}

// executionError attaches the task name to err. Errors already produced by a
// unit keep their unit description and cause.
func (t *Task) executionError(description string, err error) error {
	var unitErr *errors.TaskExecutionError
	if errors.As(err, &unitErr) && unitErr.Task == "" {
		return &errors.TaskExecutionError{Task: t.name, Unit: unitErr.Unit, Err: unitErr.Err}
	}
	return &errors.TaskExecutionError{Task: t.name, Unit: description, Err: err}
}

func (t *Task) emit(line string) {
	t.mu.Lock()
	sink := t.output
	t.mu.Unlock()

	if sink != nil {
		sink(line)
	}
}

func (t *Task) emitError(line string) {
	t.mu.Lock()
	sink := t.errOut
	t.mu.Unlock()

	if sink != nil {
		sink(line)
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("task %s", t.name)
}

// Builder is handed to a BuildFunc to add units to a task
type Builder struct {
	task  *Task
	args  Args
	units []unit.Unit
}

// Args returns the arguments of the run being built
func (b *Builder) Args() Args {
	return b.args
}

// Dir returns the task's working directory
func (b *Builder) Dir() string {
	return b.task.dir
}

// Add appends a unit and forwards its output to the task
func (b *Builder) Add(u unit.Unit) unit.Unit {
	u.OnOutput(b.task.emit)
	u.OnError(b.task.emitError)
	b.units = append(b.units, u)
	return u
}

// Command adds a shell command. chdir is relative to the task directory.
func (b *Builder) Command(line, chdir string, env map[string]string) *unit.Command {
	cmd := unit.NewCommand(line, unit.WithDir(b.path(chdir)), unit.WithEnv(env))
	b.Add(cmd)
	return cmd
}

// Copy adds a copy of src to dest, relative to the task directory
func (b *Builder) Copy(src, dest string) *unit.Copy {
	cp := unit.NewCopy(src, dest, b.task.dir)
	b.Add(cp)
	return cp
}

// Mkdir adds the creation of path, relative to the task directory
func (b *Builder) Mkdir(path string, parents bool) *unit.Mkdir {
	mkdir := unit.NewMkdir(path, parents, b.task.dir)
	b.Add(mkdir)
	return mkdir
}

// Inline adds a Go function as a unit
func (b *Builder) Inline(name string, fn unit.InlineFunc) *unit.Inline {
	inline := unit.NewInline(name, fn)
	b.Add(inline)
	return inline
}

func (b *Builder) path(rel string) string {
	if rel == "" {
		return b.task.dir
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(b.task.dir, rel)
}
