package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/maxkimambo/barista/internal/task"
)

var functions = map[string]function.Function{
	"upper":   stdlib.UpperFunc,
	"lower":   stdlib.LowerFunc,
	"trim":    stdlib.TrimSpaceFunc,
	"join":    stdlib.JoinFunc,
	"split":   stdlib.SplitFunc,
	"format":  stdlib.FormatFunc,
	"concat":  stdlib.ConcatFunc,
	"replace": stdlib.ReplaceFunc,
}

// evalContext exposes the task as `task.name` and `task.dir` and its
// arguments as `args.<key>`
func evalContext(name, dir string, args task.Args) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"args": argsValue(args),
			"task": cty.ObjectVal(map[string]cty.Value{
				"name": cty.StringVal(name),
				"dir":  cty.StringVal(dir),
			}),
		},
		Functions: functions,
	}
}

func argsValue(args task.Args) cty.Value {
	if len(args) == 0 {
		return cty.EmptyObjectVal
	}

	attrs := make(map[string]cty.Value, len(args))
	for key, value := range args {
		switch v := value.(type) {
		case string:
			attrs[key] = cty.StringVal(v)
		case int:
			attrs[key] = cty.NumberIntVal(int64(v))
		case float64:
			attrs[key] = cty.NumberFloatVal(v)
		case bool:
			attrs[key] = cty.BoolVal(v)
		}
	}
	return cty.ObjectVal(attrs)
}
