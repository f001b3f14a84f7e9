package cmd

import (
	"context"
	"path/filepath"

	"github.com/maxkimambo/barista/internal/config"
	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/lock"
	"github.com/maxkimambo/barista/internal/logger"
	"github.com/maxkimambo/barista/internal/resolver"
	"github.com/maxkimambo/barista/internal/task"
)

// DefaultLockFile is the lock snapshot used by --update-lock when --lock is not given
const DefaultLockFile = "barista.lock"

// gemLoader resolves the gems of a project and the gems of those gems
type gemLoader struct {
	cacheDir string
	workers  int
	resolved *resolver.Set
	seen     map[string]bool
}

func newGemLoader(cacheDir string, workers int) *gemLoader {
	return &gemLoader{
		cacheDir: cacheDir,
		workers:  workers,
		resolved: resolver.NewSet(),
		seen:     make(map[string]bool),
	}
}

// load returns the gem projects of root in build order: a gem always comes
// after the gems it declares. Gems are identified by resolver ID and by
// project name, each is loaded once.
func (l *gemLoader) load(ctx context.Context, root *config.Project) ([]*config.Project, error) {
	l.seen[root.Name] = true
	return l.gemsOf(ctx, root)
}

func (l *gemLoader) gemsOf(ctx context.Context, project *config.Project) ([]*config.Project, error) {
	batch := resolver.NewSet()
	gems := make([]resolver.Resolver, 0, len(project.Gems))
	for _, opts := range project.Gems {
		if opts.CacheDir == "" {
			opts.CacheDir = l.cacheDir
		}
		r, added := l.resolved.Add(resolver.Locate(opts))
		if added {
			logger.User.Fetchingf("Resolving gem %s", r.ID())
			batch.Add(r)
		}
		gems = append(gems, r)
	}

	// gems resolved by an earlier batch are visited again so that a shared
	// gem still lands before every project declaring it
	if batch.Len() > 0 {
		if err := batch.Resolve(ctx, l.workers); err != nil {
			return nil, err
		}
	}

	var projects []*config.Project
	for _, r := range gems {
		gem, err := config.Load(r.Path())
		if err != nil {
			return nil, err
		}
		if l.seen[gem.Name] {
			logger.Op.WithFields(map[string]interface{}{
				"gem":     r.ID(),
				"project": gem.Name,
			}).Debug("Skipping gem already loaded under the same project name")
			continue
		}
		l.seen[gem.Name] = true

		nested, err := l.gemsOf(ctx, gem)
		if err != nil {
			return nil, err
		}
		projects = append(projects, nested...)
		projects = append(projects, gem)
	}
	return projects, nil
}

// lockPath returns the lock file of a project: path when set, otherwise DefaultLockFile
// next to the project file.
func lockPath(project *config.Project, path string) string {
	if path != "" {
		return path
	}
	return filepath.Join(project.Dir, DefaultLockFile)
}

// loadLock reads the lock snapshot at path. An empty path means no snapshot.
func loadLock(ctx context.Context, path string) (task.Lock, error) {
	if path == "" {
		return task.Lock{}, nil
	}

	file, err := lock.Open(path)
	if err != nil {
		return nil, err
	}
	snapshot, err := file.Load(ctx)
	if err != nil {
		return nil, err
	}

	logger.Op.WithFields(map[string]interface{}{
		"file":  file.Path(),
		"tasks": len(snapshot),
	}).Debug("Loaded lock snapshot")
	return snapshot, nil
}

// recordLock captures the watched files of every registry and merges them into the snapshot at path
func recordLock(ctx context.Context, path string, registries ...*task.Registry) error {
	file, err := lock.Open(path)
	if err != nil {
		return err
	}

	snapshot, err := file.Load(ctx)
	if err != nil {
		return err
	}

	for _, reg := range registries {
		captured, err := lock.Capture(reg)
		if err != nil {
			return errors.WithStackTrace(err)
		}
		snapshot = lock.Merge(snapshot, captured)
	}

	if err := file.Save(ctx, snapshot); err != nil {
		return err
	}
	logger.User.Lockingf("Updated lock snapshot %s", file.Path())
	return nil
}
