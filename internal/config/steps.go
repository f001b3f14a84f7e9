package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/task"
)

type stepBlock struct {
	Kind string   `hcl:"kind,label"`
	Body hcl.Body `hcl:",remain"`
}

type commandStep struct {
	Run   string            `hcl:"run"`
	Chdir string            `hcl:"chdir,optional"`
	Env   map[string]string `hcl:"env,optional"`
	Shell *bool             `hcl:"shell,optional"`
}

type copyStep struct {
	Src  string `hcl:"src"`
	Dest string `hcl:"dest"`
}

type mkdirStep struct {
	Path    string `hcl:"path"`
	Parents bool   `hcl:"parents,optional"`
}

// stepKinds maps a step label to the function adding its unit
var stepKinds = map[string]func(b *task.Builder, body hcl.Body, ctx *hcl.EvalContext) hcl.Diagnostics{
	"command": addCommand,
	"copy":    addCopy,
	"mkdir":   addMkdir,
}

// add decodes the step body with the task's arguments in scope and adds the resulting unit
func (s *stepBlock) add(b *task.Builder, ctx *hcl.EvalContext) error {
	addUnit, ok := stepKinds[s.Kind]
	if !ok {
		return errors.Errorf("unsupported step kind %q", s.Kind)
	}
	if diags := addUnit(b, s.Body, ctx); diags.HasErrors() {
		return errors.Errorf("decoding %s step: %w", s.Kind, diags)
	}
	return nil
}

func addCommand(b *task.Builder, body hcl.Body, ctx *hcl.EvalContext) hcl.Diagnostics {
	var step commandStep
	if diags := gohcl.DecodeBody(body, ctx, &step); diags.HasErrors() {
		return diags
	}

	cmd := b.Command(step.Run, step.Chdir, step.Env)
	if step.Shell != nil {
		cmd.Shell = *step.Shell
	}
	return nil
}

func addCopy(b *task.Builder, body hcl.Body, ctx *hcl.EvalContext) hcl.Diagnostics {
	var step copyStep
	if diags := gohcl.DecodeBody(body, ctx, &step); diags.HasErrors() {
		return diags
	}

	b.Copy(step.Src, step.Dest)
	return nil
}

func addMkdir(b *task.Builder, body hcl.Body, ctx *hcl.EvalContext) hcl.Diagnostics {
	var step mkdirStep
	if diags := gohcl.DecodeBody(body, ctx, &step); diags.HasErrors() {
		return diags
	}

	b.Mkdir(step.Path, step.Parents)
	return nil
}
