// Package config loads barista project files. A project file is HCL and
// declares tasks, their dependencies and steps, and the gems whose tasks are
// merged into the build.
package config

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/logger"
	"github.com/maxkimambo/barista/internal/resolver"
	"github.com/maxkimambo/barista/internal/task"
)

// DefaultFile is the project file looked up when a directory is given
const DefaultFile = "barista.hcl"

// Project is a loaded project file
type Project struct {
	Name     string
	Path     string
	Dir      string
	Workers  int
	Gems     []resolver.Options
	Registry *task.Registry
}

type projectFile struct {
	Name    string       `hcl:"name,optional"`
	Workers int          `hcl:"workers,optional"`
	Gems    []*gemBlock  `hcl:"gem,block"`
	Tasks   []*taskBlock `hcl:"task,block"`
}

type gemBlock struct {
	Path   string `hcl:"path,optional"`
	Git    string `hcl:"git,optional"`
	GitHub string `hcl:"github,optional"`
	HTTP   string `hcl:"http,optional"`
	Branch string `hcl:"branch,optional"`
}

type taskBlock struct {
	Name      string            `hcl:"name,label"`
	Dir       string            `hcl:"dir,optional"`
	DependsOn []*dependsOnBlock `hcl:"depends_on,block"`
	Steps     []*stepBlock      `hcl:"step,block"`
}

type dependsOnBlock struct {
	Task  string         `hcl:"task,label"`
	Files hcl.Expression `hcl:"files,optional"`
}

// Load parses the project file at path. A directory is taken to contain DefaultFile.
func Load(path string) (*Project, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFile)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.NewConfigParseError(path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, errors.NewConfigParseError(path, diags)
	}

	return decode(abs, file.Body)
}

// Parse loads a project from src as if it was read from path
func Parse(src []byte, path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.NewConfigParseError(path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, abs)
	if diags.HasErrors() {
		return nil, errors.NewConfigParseError(path, diags)
	}

	return decode(abs, file.Body)
}

func decode(path string, body hcl.Body) (*Project, error) {
	var root projectFile
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, errors.NewConfigDecodeError(path, diags)
	}

	dir := filepath.Dir(path)
	project := &Project{
		Name:     root.Name,
		Path:     path,
		Dir:      dir,
		Workers:  root.Workers,
		Registry: task.NewRegistry(),
	}
	if project.Name == "" {
		project.Name = filepath.Base(dir)
	}

	for _, gem := range root.Gems {
		opts := resolver.Options{
			Path:   gem.Path,
			Git:    gem.Git,
			GitHub: gem.GitHub,
			HTTP:   gem.HTTP,
			Branch: gem.Branch,
		}
		if opts.Path != "" && !filepath.IsAbs(opts.Path) && opts.Path[0] != '~' {
			opts.Path = filepath.Join(dir, opts.Path)
		}
		project.Gems = append(project.Gems, opts)
	}

	for _, block := range root.Tasks {
		t, err := block.task(dir)
		if err != nil {
			return nil, errors.NewConfigDecodeError(path, err)
		}
		if !project.Registry.Register(t) {
			logger.Op.WithFields(map[string]interface{}{
				"task": block.Name,
				"file": path,
			}).Warn("Task declared more than once, keeping the first declaration")
		}
	}

	logger.Op.WithFields(map[string]interface{}{
		"project": project.Name,
		"file":    path,
		"tasks":   len(project.Registry.Tasks()),
		"gems":    len(project.Gems),
	}).Debug("Loaded project file")

	return project, nil
}

func (b *taskBlock) task(projectDir string) (*task.Task, error) {
	for _, step := range b.Steps {
		if _, ok := stepKinds[step.Kind]; !ok {
			return nil, errors.Errorf("task %s: unsupported step kind %q", b.Name, step.Kind)
		}
	}

	dir := b.Dir
	if dir == "" {
		dir = "."
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectDir, dir)
	}

	t := task.New(b.Name, task.WithDir(dir), task.WithBuild(b.build))
	for _, dep := range b.DependsOn {
		t.DependsOn(dep.Task, dep.watch(t))
	}
	return t, nil
}

func (b *taskBlock) build(builder *task.Builder) error {
	ctx := evalContext(b.Name, builder.Dir(), builder.Args())
	for _, step := range b.Steps {
		if err := step.add(builder, ctx); err != nil {
			return err
		}
	}
	return nil
}

// watch evaluates the files attribute against the owner's arguments. A missing
// attribute decodes to a null expression, leaving the dependency always active.
func (d *dependsOnBlock) watch(t *task.Task) task.WatchFunc {
	return func(w *task.Watch) error {
		ctx := evalContext(t.Name(), t.Dir(), w.Args())

		value, diags := d.Files.Value(ctx)
		if diags.HasErrors() {
			return diags
		}
		if value.IsNull() {
			return nil
		}

		var patterns []string
		if diags := gohcl.DecodeExpression(d.Files, ctx, &patterns); diags.HasErrors() {
			return diags
		}
		w.Files(patterns...)
		return nil
	}
}
