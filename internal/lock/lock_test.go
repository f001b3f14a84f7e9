package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/task"
)

func TestFile_LoadMissing(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "barista.lock"))
	require.NoError(t, err)

	snapshot, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestFile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "barista.lock")
	f, err := Open(path)
	require.NoError(t, err)

	mtime := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	snapshot := task.Lock{"build": {"src/main.c": mtime}}

	require.NoError(t, f.Save(context.Background(), snapshot))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"src/main.c": "2024-05-01T12:00:00.123456789Z"`)

	loaded, err := f.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, loaded, "build")
	assert.True(t, mtime.Equal(loaded["build"]["src/main.c"]))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"barista.lock", "barista.lock.lock"}, names, "temporary file left behind")
}

func TestFile_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barista.lock")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	f, err := Open(path)
	require.NoError(t, err)

	_, err = f.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "LOCK-001", errors.GetErrorCode(err))
}

func TestFile_LoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barista.lock")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	f, err := Open(path)
	require.NoError(t, err)

	snapshot, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestFile_Busy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barista.lock")
	holder := flock.New(path + ".lock")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer holder.Unlock()

	f, err := Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = f.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, "LOCK-003", errors.GetErrorCode(err))
}

func TestOpen_ExpandsHome(t *testing.T) {
	f, err := Open("~/barista.lock")
	require.NoError(t, err)
	assert.NotContains(t, f.Path(), "~")
}

func TestCapture(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(dir, "hello.world")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	reg := task.NewRegistry()
	reg.Register(task.New("a"))
	reg.Register(task.New("b", task.WithDir(dir)).DependsOn("a", func(w *task.Watch) error {
		w.Files("hello.world", "missing.txt")
		return nil
	}))

	snapshot, err := Capture(reg)
	require.NoError(t, err)

	require.Len(t, snapshot, 1)
	require.Len(t, snapshot["b"], 1)
	assert.True(t, mtime.Equal(snapshot["b"]["hello.world"]))
}

func TestMerge(t *testing.T) {
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := old.Add(time.Hour)

	merged := Merge(
		task.Lock{"a": {"x": old}, "b": {"y": old}},
		task.Lock{"b": {"y": fresh}},
	)

	assert.Equal(t, old, merged["a"]["x"])
	assert.Equal(t, fresh, merged["b"]["y"])
}
