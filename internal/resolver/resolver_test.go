package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/barista/internal/errors"
)

// stubFetch replaces go-getter for the duration of a test
func stubFetch(t *testing.T, fn func(dst, src string) error) {
	t.Helper()
	original := fetch
	fetch = func(ctx context.Context, dst, src string) error {
		return fn(dst, src)
	}
	t.Cleanup(func() { fetch = original })
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want interface{}
	}{
		{"none", Options{}, &None{}},
		{"github wins", Options{GitHub: "org/repo", Git: "https://x/y.git", Path: "p"}, &Git{}},
		{"git", Options{Git: "https://x/y.git", Path: "p"}, &Git{}},
		{"path", Options{Path: "vendor/theorem", HTTP: "https://x/y.tgz"}, &Local{}},
		{"http", Options{HTTP: "https://x/y.tgz"}, &HTTP{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.want, Locate(tt.opts))
		})
	}
}

func TestNone(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	r := NewNone()
	assert.NoError(t, r.Resolve(context.Background()))
	assert.Equal(t, cwd, r.Path())
	assert.Equal(t, cwd, r.ID())
}

func TestLocal(t *testing.T) {
	dir := t.TempDir()

	r := NewLocal(dir)
	assert.NoError(t, r.Resolve(context.Background()))
	assert.Equal(t, dir, r.Path())
	assert.Equal(t, dir, r.ID())

	missing := NewLocal(filepath.Join(dir, "missing"))
	err := missing.Resolve(context.Background())
	var resolverErr *errors.ResolverError
	require.ErrorAs(t, err, &resolverErr)
	assert.Equal(t, "local", resolverErr.Kind)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, NewLocal(file).Resolve(context.Background()))
}

func TestGitHub(t *testing.T) {
	r := NewGitHub("org/repo", "", "/cache")

	assert.Equal(t, "https://github.com/org/repo.git", r.URL)
	assert.Equal(t, "org/repo", r.ID())
	assert.Equal(t, "git::https://github.com/org/repo.git", r.Source())
	assert.Equal(t, filepath.Join("/cache", "org_repo"), r.Path())

	branched := NewGitHub("/org/repo/", "feature/x", "/cache")
	assert.Equal(t, "org/repo@feature/x", branched.ID())
	assert.Equal(t, "git::https://github.com/org/repo.git?ref=feature%2Fx", branched.Source())
	assert.Equal(t, filepath.Join("/cache", "org_repo_feature_x"), branched.Path())
}

func TestGit_Resolve(t *testing.T) {
	cache := t.TempDir()
	var calls []string
	stubFetch(t, func(dst, src string) error {
		calls = append(calls, src)
		require.NoError(t, os.MkdirAll(dst, 0o755))
		return os.WriteFile(filepath.Join(dst, "barista.hcl"), nil, 0o644)
	})

	r := NewGit("https://example.com/theorem.git", "main", cache)
	require.NoError(t, r.Resolve(context.Background()))
	require.NoError(t, r.Resolve(context.Background()))

	assert.Equal(t, []string{"git::https://example.com/theorem.git?ref=main"}, calls)
	assert.FileExists(t, filepath.Join(r.Path(), "barista.hcl"))
}

func TestHTTP_ResolveError(t *testing.T) {
	stubFetch(t, func(dst, src string) error {
		return fmt.Errorf("404 not found")
	})

	r := NewHTTP("https://example.com/gem.tar.gz", t.TempDir())
	err := r.Resolve(context.Background())

	var resolverErr *errors.ResolverError
	require.ErrorAs(t, err, &resolverErr)
	assert.Equal(t, "http", resolverErr.Kind)
	assert.Equal(t, "https://example.com/gem.tar.gz", resolverErr.Location)
	assert.Contains(t, err.Error(), "404 not found")
}

// countingResolver counts how often it is resolved
type countingResolver struct {
	id  string
	err error

	mu    sync.Mutex
	calls int
}

func (c *countingResolver) Resolve(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func (c *countingResolver) Path() string { return "/gems/" + c.id }
func (c *countingResolver) ID() string   { return c.id }

func TestSet(t *testing.T) {
	set := NewSet()

	first := &countingResolver{id: "b"}
	_, added := set.Add(first)
	assert.True(t, added)

	stored, added := set.Add(&countingResolver{id: "b"})
	assert.False(t, added)
	assert.Same(t, first, stored)

	_, added = set.Add(&countingResolver{id: "a"})
	assert.True(t, added)

	assert.Equal(t, 2, set.Len())
	ids := []string{}
	for _, r := range set.Resolvers() {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, set.Resolve(context.Background(), 4))
	assert.Equal(t, 1, first.calls)
}

func TestSet_ResolveCollectsFailures(t *testing.T) {
	set := NewSet()
	set.Add(&countingResolver{id: "ok"})
	set.Add(&countingResolver{id: "bad1", err: fmt.Errorf("first")})
	set.Add(&countingResolver{id: "bad2", err: fmt.Errorf("second")})

	err := set.Resolve(context.Background(), 0)
	require.Error(t, err)

	var multi *errors.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Equal(t, 2, multi.Len())
}
