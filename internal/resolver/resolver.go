// Package resolver fetches gems, external projects whose tasks are merged into
// a build, from local paths, git repositories, GitHub or HTTP archives.
package resolver

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hashicorp/go-getter"
	"github.com/mitchellh/go-homedir"

	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/logger"
)

// DefaultCacheDir is where remote gems are fetched when no cache dir is configured
const DefaultCacheDir = "~/.barista/gems"

// Resolver makes a gem available on the local file system
type Resolver interface {
	// Resolve fetches or validates the gem
	Resolve(ctx context.Context) error
	// Path is the local directory of the gem once resolved
	Path() string
	// ID is a stable key used to resolve each gem once
	ID() string
}

// Options select a resolver. At most one of Path, Git, GitHub and HTTP is expected.
type Options struct {
	Path     string
	Git      string
	GitHub   string
	HTTP     string
	Branch   string
	CacheDir string
}

// Locate returns the resolver matching opts. GitHub wins over Git, Git over
// Path and Path over HTTP. Without any location the no-op resolver is returned.
func Locate(opts Options) Resolver {
	switch {
	case opts.GitHub != "":
		return NewGitHub(opts.GitHub, opts.Branch, opts.CacheDir)
	case opts.Git != "":
		return NewGit(opts.Git, opts.Branch, opts.CacheDir)
	case opts.Path != "":
		return NewLocal(opts.Path)
	case opts.HTTP != "":
		return NewHTTP(opts.HTTP, opts.CacheDir)
	default:
		return NewNone()
	}
}

// fetch downloads src into dst with go-getter
var fetch = func(ctx context.Context, dst, src string) error {
	return getter.GetAny(dst, src, getter.WithContext(ctx))
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// cachePath returns the directory a remote gem with the given id is fetched to
func cachePath(cacheDir, id string) (string, error) {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir
	}
	expanded, err := homedir.Expand(cacheDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(expanded, unsafeChars.ReplaceAllString(id, "_")), nil
}

// fetchOnce fetches src into dst unless dst already holds a previous download
func fetchOnce(ctx context.Context, kind, dst, src string) error {
	if entries, err := os.ReadDir(dst); err == nil && len(entries) > 0 {
		logger.Op.WithFields(map[string]interface{}{
			"kind": kind,
			"path": dst,
		}).Debug("Gem already fetched, reusing cache")
		return nil
	}

	logger.Op.WithFields(map[string]interface{}{
		"kind":   kind,
		"source": src,
		"path":   dst,
	}).Debug("Fetching gem")

	if err := fetch(ctx, dst, src); err != nil {
		return &errors.ResolverError{Kind: kind, Location: src, Err: errors.WithStackTrace(err)}
	}
	return nil
}
