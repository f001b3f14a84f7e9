// Package orchestrator runs the tasks of a registry in dependency order with a
// bounded number of concurrent workers.
//
// A run proceeds in rounds. Each round admits the ready tasks, those whose
// prerequisites are all built, up to the worker limit, runs them concurrently
// and waits for every one of them before computing the next round. The first
// round that contains a failure ends the run.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/maxkimambo/barista/internal/dag"
	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/logger"
	"github.com/maxkimambo/barista/internal/task"
)

// Registry is the source of tasks and of the dependency graph
type Registry interface {
	DAG(lock task.Lock) (*dag.Graph, error)
	Lookup(name string) (*task.Task, bool)
}

// Config contains the settings of a run
type Config struct {
	// Workers is the maximum number of tasks building at once. Values below 1 mean 1.
	Workers int

	// Targets restricts the run to these tasks and their ancestors. Empty means every task.
	Targets []string

	// Lock is the snapshot used to decide which dependencies are active
	Lock task.Lock

	Hooks Hooks
}

// Orchestrator holds the state of one run
type Orchestrator struct {
	graph     *dag.Graph
	tasks     map[string]*task.Task
	buildList []string
	inBuild   map[string]bool
	workers   int
	hooks     Hooks

	mu         sync.Mutex
	building   []string
	built      []string
	failed     []string
	isBuilding map[string]bool
	isBuilt    map[string]bool
}

// New plans a run. It fails when the graph cannot be built, when a target is
// unknown, or when a task of the build list was never registered.
func New(reg Registry, cfg Config) (*Orchestrator, error) {
	graph, err := reg.DAG(cfg.Lock)
	if err != nil {
		return nil, err
	}

	for _, target := range cfg.Targets {
		if !graph.Has(target) {
			return nil, errors.NewUnknownTaskError(target, "Build planning")
		}
	}

	buildList := graph.Nodes()
	if len(cfg.Targets) > 0 {
		buildList = graph.Filter(cfg.Targets...)
	}

	tasks := make(map[string]*task.Task, len(buildList))
	inBuild := make(map[string]bool, len(buildList))
	for _, name := range buildList {
		t, ok := reg.Lookup(name)
		if !ok {
			return nil, errors.NewUnknownTaskError(name, "Build planning").
				WithContext("reason", "named as a dependency but never declared")
		}
		tasks[name] = t
		inBuild[name] = true
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Orchestrator{
		graph:      graph,
		tasks:      tasks,
		buildList:  buildList,
		inBuild:    inBuild,
		workers:    workers,
		hooks:      cfg.Hooks,
		isBuilding: make(map[string]bool),
		isBuilt:    make(map[string]bool),
	}, nil
}

// Execute runs the build until every task of the build list is built, a task
// fails or ctx is cancelled. Cancellation prevents new rounds from starting and
// is passed on to running tasks.
func (o *Orchestrator) Execute(ctx context.Context) error {
	runLog := logger.Op.With(
		logger.WithRun(uuid.NewString()),
		logger.Field{Key: "workers", Value: o.workers},
	)

	o.hooks.runStart()
	defer o.hooks.runFinish()

	start := time.Now()
	runLog.Debugf("Starting build of %d tasks", len(o.buildList))

	for round := 1; !o.complete(); round++ {
		if err := ctx.Err(); err != nil {
			runLog.Debugf("Build cancelled before round %d", round)
			return errors.NewCancelledRunError(o.remaining(), err)
		}

		info := o.admit(round)
		if len(info.Admitted) == 0 {
			return errors.NewStalledRunError(info.Blocked)
		}

		runLog.WithField("round", round).Debugf("Admitted %v, blocked %v", info.Admitted, info.Blocked)
		o.hooks.round(info)

		if err := o.dispatch(ctx, info.Admitted); err != nil {
			runLog.WithField("round", round).Debugf("Round failed: %v", err)
			return err
		}
	}

	runLog.Debugf("Build finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// admit computes the ready frontier in graph order and moves as many names as
// capacity allows into building.
func (o *Orchestrator) admit(round int) RoundInfo {
	o.mu.Lock()
	defer o.mu.Unlock()

	var admitted []string
	for _, name := range o.graph.Nodes() {
		if len(o.building) >= o.workers {
			break
		}
		if !o.inBuild[name] || o.isBuilt[name] || o.isBuilding[name] {
			continue
		}
		if !o.prerequisitesBuilt(name) {
			continue
		}

		admitted = append(admitted, name)
		o.building = append(o.building, name)
		o.isBuilding[name] = true
	}

	var blocked []string
	for _, name := range o.buildList {
		if !o.isBuilding[name] && !o.isBuilt[name] {
			blocked = append(blocked, name)
		}
	}

	return RoundInfo{
		Round:    round,
		Admitted: admitted,
		Blocked:  blocked,
		Building: append([]string(nil), o.building...),
		Built:    append([]string(nil), o.built...),
	}
}

func (o *Orchestrator) prerequisitesBuilt(name string) bool {
	vertex, ok := o.graph.Vertex(name)
	if !ok {
		return true
	}
	for _, incoming := range vertex.IncomingNames {
		if !o.isBuilt[incoming] {
			return false
		}
	}
	return true
}

// dispatch runs the admitted tasks concurrently and waits for all of them
func (o *Orchestrator) dispatch(ctx context.Context, names []string) error {
	results := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(o.workers)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = o.work(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	var failedTasks []string
	var failures *errors.MultiError
	for i, err := range results {
		if err != nil {
			failedTasks = append(failedTasks, names[i])
			failures = failures.Append(err)
		}
	}

	if failures.ErrorOrNil() == nil {
		return nil
	}
	return &errors.RunError{Tasks: failedTasks, Errors: failures}
}

// work executes one task and records its outcome
func (o *Orchestrator) work(ctx context.Context, name string) (err error) {
	o.hooks.taskStart(name)
	defer o.hooks.taskFinished(name)

	err = o.execute(ctx, name)

	o.mu.Lock()
	o.removeBuilding(name)
	if err == nil {
		o.built = append(o.built, name)
		o.isBuilt[name] = true
	} else {
		o.failed = append(o.failed, name)
	}
	o.mu.Unlock()

	if err != nil {
		logger.Op.With(
			logger.WithTask(name),
			logger.Field{Key: "error", Value: errors.DisplayErrorSummary(err)},
		).Debug("Task failed")
		o.hooks.taskFailed(name, err)
		return err
	}

	o.hooks.taskSucceed(name)
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, name string) (err error) {
	defer errors.Recover(func(cause error) {
		err = &errors.TaskExecutionError{Task: name, Err: cause}
	})

	return o.tasks[name].Execute(ctx)
}

func (o *Orchestrator) removeBuilding(name string) {
	delete(o.isBuilding, name)
	for i, n := range o.building {
		if n == name {
			o.building = append(o.building[:i], o.building[i+1:]...)
			return
		}
	}
}

func (o *Orchestrator) complete() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.built) == len(o.buildList)
}

func (o *Orchestrator) remaining() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var remaining []string
	for _, name := range o.buildList {
		if !o.isBuilt[name] {
			remaining = append(remaining, name)
		}
	}
	return remaining
}

// BuildList returns the names this run builds
func (o *Orchestrator) BuildList() []string {
	return append([]string(nil), o.buildList...)
}

// Building returns the names currently building, in admission order
func (o *Orchestrator) Building() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.building...)
}

// Built returns the names built so far, in completion order
func (o *Orchestrator) Built() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.built...)
}

// Failed returns the names of the tasks that failed
func (o *Orchestrator) Failed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.failed...)
}

// Workers returns the effective worker limit
func (o *Orchestrator) Workers() int {
	return o.workers
}

// Graph returns the dependency graph of the run
func (o *Orchestrator) Graph() *dag.Graph {
	return o.graph
}
