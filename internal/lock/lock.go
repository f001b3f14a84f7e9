// Package lock persists the snapshot of watched file times that decides which
// dependencies are active on the next run.
package lock

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/mitchellh/go-homedir"

	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/logger"
	"github.com/maxkimambo/barista/internal/task"
)

// RetryDelay is the pause between attempts to acquire the file lock
const RetryDelay = 100 * time.Millisecond

// File is a lock snapshot on disk, guarded by a sibling ".lock" file
type File struct {
	path string
	lock *flock.Flock
}

// Open prepares access to the snapshot at path. A leading ~ is expanded.
func Open(path string) (*File, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.NewLockFileError(errors.CodeLockRead, path, err)
	}

	return &File{
		path: expanded,
		lock: flock.New(expanded + ".lock"),
	}, nil
}

// Path returns the expanded snapshot path
func (f *File) Path() string {
	return f.path
}

// Load reads the snapshot. A missing file is an empty snapshot.
func (f *File) Load(ctx context.Context) (task.Lock, error) {
	if err := f.acquire(ctx); err != nil {
		return nil, err
	}
	defer f.release()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		logger.Op.WithFields(map[string]interface{}{"file": f.path}).Debug("No lock snapshot, starting from an empty one")
		return task.Lock{}, nil
	}
	if err != nil {
		return nil, errors.NewLockFileError(errors.CodeLockRead, f.path, err)
	}

	snapshot := task.Lock{}
	if len(data) == 0 {
		return snapshot, nil
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.NewLockFileError(errors.CodeLockRead, f.path, err)
	}
	return snapshot, nil
}

// Save writes the snapshot, replacing the previous file atomically
func (f *File) Save(ctx context.Context, snapshot task.Lock) error {
	if err := f.acquire(ctx); err != nil {
		return err
	}
	defer f.release()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.NewLockFileError(errors.CodeLockWrite, f.path, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewLockFileError(errors.CodeLockWrite, f.path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*")
	if err != nil {
		return errors.NewLockFileError(errors.CodeLockWrite, f.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.NewLockFileError(errors.CodeLockWrite, f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewLockFileError(errors.CodeLockWrite, f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.NewLockFileError(errors.CodeLockWrite, f.path, err)
	}

	logger.Op.WithFields(map[string]interface{}{
		"file":  f.path,
		"tasks": len(snapshot),
	}).Debug("Saved lock snapshot")
	return nil
}

func (f *File) acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.NewLockFileError(errors.CodeLockBusy, f.path, err)
	}

	locked, err := f.lock.TryLockContext(ctx, RetryDelay)
	if err != nil {
		return errors.NewLockFileError(errors.CodeLockBusy, f.path, err)
	}
	if !locked {
		return errors.NewLockFileError(errors.CodeLockBusy, f.path, errors.New("file is locked by another process"))
	}
	return nil
}

func (f *File) release() {
	if err := f.lock.Unlock(); err != nil {
		logger.Op.Warnf("Failed to release lock on %s: %v", f.path, err)
	}
}

// Capture evaluates every dependency of the registry and snapshots the current
// time of each watched file that exists.
func Capture(reg *task.Registry) (task.Lock, error) {
	if _, err := reg.DAG(nil); err != nil {
		return nil, err
	}

	snapshot := task.Lock{}
	for _, t := range reg.Tasks() {
		times := task.FileTimes{}
		for _, dep := range t.Dependencies() {
			for _, obs := range dep.Observed() {
				if obs.Present {
					times[obs.Path] = obs.ModTime
				}
			}
		}
		if len(times) > 0 {
			snapshot[t.Name()] = times
		}
	}
	return snapshot, nil
}

// Merge returns base with the entries of update applied on top. Tasks missing
// from update keep their previous entry.
func Merge(base, update task.Lock) task.Lock {
	merged := make(task.Lock, len(base)+len(update))
	for name, times := range base {
		merged[name] = times
	}
	for name, times := range update {
		merged[name] = times
	}
	return merged
}
