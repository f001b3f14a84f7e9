package task

import (
	"sort"

	"github.com/maxkimambo/barista/internal/dag"
)

// Registry holds the declared tasks in registration order
type Registry struct {
	tasks    []*Task
	byName   map[string]*Task
	inverted bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Task),
	}
}

// Register adds t unless a task with the same name exists. It reports whether t was added.
func (r *Registry) Register(t *Task) bool {
	if _, exists := r.byName[t.Name()]; exists {
		return false
	}
	r.tasks = append(r.tasks, t)
	r.byName[t.Name()] = t
	return true
}

// Tasks returns the registered tasks in registration order
func (r *Registry) Tasks() []*Task {
	return append([]*Task(nil), r.tasks...)
}

// Lookup returns the task called name
func (r *Registry) Lookup(name string) (*Task, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Invert makes subsequent graphs point from a task to its dependencies, which
// answers "what depends on X" instead of "what does X need".
func (r *Registry) Invert() *Registry {
	r.inverted = true
	return r
}

// Inverted reports whether the registry builds inverted graphs
func (r *Registry) Inverted() bool {
	return r.inverted
}

// Reset removes all tasks and clears inversion
func (r *Registry) Reset() *Registry {
	r.tasks = nil
	r.byName = make(map[string]*Task)
	r.inverted = false
	return r
}

// DAG builds the dependency graph. Every task becomes a node; every active
// dependency becomes an edge from the dependency to the task. Dependencies are
// evaluated against the lock entry of the owning task.
func (r *Registry) DAG(lock Lock) (*dag.Graph, error) {
	graph := dag.NewGraph()

	for _, t := range r.tasks {
		graph.AddNode(t.Name())

		for _, dep := range t.dependencies {
			active, err := dep.Active(lock[t.Name()])
			if err != nil {
				return nil, err
			}
			if !active {
				continue
			}

			from, to := dep.Name, t.Name()
			if r.inverted {
				from, to = to, from
			}
			if err := graph.AddEdge(from, to); err != nil {
				return nil, err
			}
		}
	}

	return graph, nil
}

// AncestorsOf returns every task t transitively depends on, sorted by name.
// Dependencies on undeclared tasks are left out.
func (r *Registry) AncestorsOf(t *Task) ([]*Task, error) {
	graph, err := r.DAG(nil)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, name := range graph.Filter(t.Name()) {
		if name != t.Name() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	ancestors := make([]*Task, 0, len(names))
	for _, name := range names {
		if found, ok := r.byName[name]; ok {
			ancestors = append(ancestors, found)
		}
	}
	return ancestors, nil
}
