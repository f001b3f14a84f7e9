package resolver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/maxkimambo/barista/internal/errors"
)

// None resolves to the current working directory and fetches nothing
type None struct {
	dir string
}

func NewNone() *None {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return &None{dir: dir}
}

func (n *None) Resolve(ctx context.Context) error { return nil }
func (n *None) Path() string                      { return n.dir }
func (n *None) ID() string                        { return n.dir }

// Local is a gem that already lives on disk
type Local struct {
	location string
}

func NewLocal(location string) *Local {
	return &Local{location: location}
}

// Resolve checks that the directory exists
func (l *Local) Resolve(ctx context.Context) error {
	path, err := homedir.Expand(l.location)
	if err != nil {
		return &errors.ResolverError{Kind: "local", Location: l.location, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return &errors.ResolverError{Kind: "local", Location: l.location, Err: err}
	}
	if !info.IsDir() {
		return &errors.ResolverError{Kind: "local", Location: l.location, Err: fmt.Errorf("not a directory")}
	}
	return nil
}

func (l *Local) Path() string {
	path, err := homedir.Expand(l.location)
	if err != nil {
		return l.location
	}
	return path
}

func (l *Local) ID() string {
	return l.location
}

// Git is a gem cloned from a git repository
type Git struct {
	URL      string
	Branch   string
	CacheDir string
	kind     string
	id       string
}

func NewGit(repoURL, branch, cacheDir string) *Git {
	return &Git{URL: repoURL, Branch: branch, CacheDir: cacheDir, kind: "git", id: repoURL}
}

// NewGitHub creates a git resolver for an org/repo on GitHub
func NewGitHub(repo, branch, cacheDir string) *Git {
	repo = strings.Trim(repo, "/")
	return &Git{
		URL:      fmt.Sprintf("https://github.com/%s.git", repo),
		Branch:   branch,
		CacheDir: cacheDir,
		kind:     "github",
		id:       repo,
	}
}

// Source returns the go-getter source address of the repository
func (g *Git) Source() string {
	src := "git::" + g.URL
	if g.Branch != "" {
		src += "?ref=" + url.QueryEscape(g.Branch)
	}
	return src
}

func (g *Git) Resolve(ctx context.Context) error {
	dst, err := cachePath(g.CacheDir, g.ID())
	if err != nil {
		return &errors.ResolverError{Kind: g.kind, Location: g.URL, Err: err}
	}
	return fetchOnce(ctx, g.kind, dst, g.Source())
}

func (g *Git) Path() string {
	dst, err := cachePath(g.CacheDir, g.ID())
	if err != nil {
		return ""
	}
	return dst
}

func (g *Git) ID() string {
	if g.Branch != "" {
		return g.id + "@" + g.Branch
	}
	return g.id
}

// HTTP is a gem downloaded as an archive
type HTTP struct {
	URL      string
	CacheDir string
}

func NewHTTP(archiveURL, cacheDir string) *HTTP {
	return &HTTP{URL: archiveURL, CacheDir: cacheDir}
}

func (h *HTTP) Resolve(ctx context.Context) error {
	dst, err := cachePath(h.CacheDir, h.ID())
	if err != nil {
		return &errors.ResolverError{Kind: "http", Location: h.URL, Err: err}
	}
	return fetchOnce(ctx, "http", dst, h.URL)
}

func (h *HTTP) Path() string {
	dst, err := cachePath(h.CacheDir, h.ID())
	if err != nil {
		return ""
	}
	return dst
}

func (h *HTTP) ID() string {
	return h.URL
}
