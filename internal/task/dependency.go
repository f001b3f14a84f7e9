package task

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-zglob"

	"github.com/maxkimambo/barista/internal/errors"
)

// FileTimes maps a watched path to the modification time recorded for it
type FileTimes map[string]time.Time

// Lock is a snapshot of watched file times per task name, taken by a previous run
type Lock map[string]FileTimes

// WatchFunc declares the files a dependency watches. It runs every time the
// dependency is evaluated.
type WatchFunc func(w *Watch) error

// Watch collects the files declared by a WatchFunc
type Watch struct {
	args     Args
	patterns []string
}

// Files adds paths or glob patterns to the watch list. Relative paths are
// resolved against the directory of the task owning the dependency.
func (w *Watch) Files(patterns ...string) {
	w.patterns = append(w.patterns, patterns...)
}

// Args returns the arguments of the task owning the dependency
func (w *Watch) Args() Args {
	return w.args
}

// Observation is the state of one watched file at evaluation time
type Observation struct {
	Path    string
	ModTime time.Time
	Present bool
}

// Dependency is an edge declaration from the owning task to the task named Name
type Dependency struct {
	Name string

	watch    WatchFunc
	owner    *Task
	observed []Observation
}

// Observed returns the files recorded by the last call to Active
func (d *Dependency) Observed() []Observation {
	return append([]Observation(nil), d.observed...)
}

// Active evaluates the watch list against locked. The dependency is active when
// every watched file is absent, has no locked time, or is at least as new as
// the locked time. A dependency without watched files is always active.
func (d *Dependency) Active(locked FileTimes) (bool, error) {
	d.observed = nil

	if d.watch == nil {
		return true, nil
	}

	w := &Watch{}
	dir := ""
	if d.owner != nil {
		w.args = d.owner.Args()
		dir = d.owner.Dir()
	}

	if err := d.watch(w); err != nil {
		return false, errors.Errorf("evaluating files of dependency %s: %w", d.Name, err)
	}

	for _, pattern := range w.patterns {
		d.observed = append(d.observed, observe(dir, pattern)...)
	}

	for _, obs := range d.observed {
		if !obs.Present {
			continue
		}
		lockedTime, ok := locked[obs.Path]
		if !ok {
			continue
		}
		if obs.ModTime.Before(lockedTime) {
			return false, nil
		}
	}

	return true, nil
}

func observe(dir, pattern string) []Observation {
	resolved := pattern
	if dir != "" && !filepath.IsAbs(pattern) {
		resolved = filepath.Join(dir, pattern)
	}

	if !isGlob(pattern) {
		return []Observation{stat(pattern, resolved)}
	}

	matches, err := zglob.Glob(resolved)
	if err != nil || len(matches) == 0 {
		return []Observation{{Path: pattern}}
	}
	sort.Strings(matches)

	observations := make([]Observation, 0, len(matches))
	for _, match := range matches {
		key := match
		if dir != "" && !filepath.IsAbs(pattern) {
			if rel, err := filepath.Rel(dir, match); err == nil {
				key = rel
			}
		}
		observations = append(observations, stat(key, match))
	}
	return observations
}

func stat(key, path string) Observation {
	info, err := os.Stat(path)
	if err != nil {
		return Observation{Path: key}
	}
	return Observation{Path: key, ModTime: info.ModTime(), Present: true}
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
