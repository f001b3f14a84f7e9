package unit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maxkimambo/barista/internal/errors"
)

// Copy copies a file, or a directory recursively, using cp
type Copy struct {
	*Command

	Src  string
	Dest string
}

// NewCopy creates a copy unit. Relative paths are resolved against dir.
func NewCopy(src, dest, dir string) *Copy {
	return &Copy{
		Command: NewExec(nil, WithDir(dir)),
		Src:     src,
		Dest:    dest,
	}
}

func (c *Copy) Description() string {
	return fmt.Sprintf("copy %s to %s", c.Src, c.Dest)
}

// Execute picks "cp -R" for directories and plain "cp" otherwise
func (c *Copy) Execute(ctx context.Context) error {
	argv := []string{"cp", c.Src, c.Dest}
	if isDir(c.Command.Dir, c.Src) {
		argv = []string{"cp", "-R", c.Src, c.Dest}
	}

	c.Command.Argv = argv
	c.Command.Line = strings.Join(argv, " ")

	return relabel(c.Description(), c.Command.Execute(ctx))
}

// Mkdir creates a directory using mkdir
type Mkdir struct {
	*Command

	Path    string
	Parents bool
}

// NewMkdir creates a mkdir unit. With parents set, missing parent directories
// are created too and an existing directory is not an error.
func NewMkdir(path string, parents bool, dir string) *Mkdir {
	argv := []string{"mkdir", path}
	if parents {
		argv = []string{"mkdir", "-p", path}
	}

	return &Mkdir{
		Command: NewExec(argv, WithDir(dir)),
		Path:    path,
		Parents: parents,
	}
}

func (m *Mkdir) Description() string {
	return fmt.Sprintf("mkdir %s", m.Path)
}

func (m *Mkdir) Execute(ctx context.Context) error {
	return relabel(m.Description(), m.Command.Execute(ctx))
}

// relabel reports a failure of the delegated command under the unit's own description
func relabel(description string, err error) error {
	var unitErr *errors.TaskExecutionError
	if errors.As(err, &unitErr) {
		return errors.NewTaskExecutionError(description, unitErr.Err)
	}
	return err
}

func isDir(base, path string) bool {
	if base != "" && !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
