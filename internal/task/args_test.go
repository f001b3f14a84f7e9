package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/barista/internal/errors"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantTask string
		wantArgs Args
	}{
		{
			name:     "bare task",
			token:    "build",
			wantTask: "build",
			wantArgs: Args{},
		},
		{
			name:     "mixed values",
			token:    `deploy:retries=3:dryRun=true:label="prod box"`,
			wantTask: "deploy",
			wantArgs: Args{"retries": 3, "dryRun": true, "label": "prod box"},
		},
		{
			name:     "float and negative int",
			token:    "scale:factor=1.5:offset=-2",
			wantTask: "scale",
			wantArgs: Args{"factor": 1.5, "offset": -2},
		},
		{
			name:     "quoted value containing separators",
			token:    `run:cmd="a:b=c"`,
			wantTask: "run",
			wantArgs: Args{"cmd": "a:b=c"},
		},
		{
			name:     "value split on first equals only",
			token:    `env:pair="k=v"`,
			wantTask: "env",
			wantArgs: Args{"pair": "k=v"},
		},
		{
			name:     "false and empty string",
			token:    `t:on=false:label=""`,
			wantTask: "t",
			wantArgs: Args{"on": false, "label": ""},
		},
		{
			name:     "exponent float",
			token:    "t:x=2e3",
			wantTask: "t",
			wantArgs: Args{"x": 2000.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, args, err := ParseToken(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTask, task)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestParseToken_Unsupported(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantKey string
	}{
		{"bare word", "deploy:env=prod", "env"},
		{"capitalised bool", "deploy:force=True", "force"},
		{"unterminated quote", `deploy:label="prod`, "label"},
		{"version string", "deploy:v=1.2.3", "v"},
		{"missing equals", "deploy:verbose", ""},
		{"trailing colon", "deploy:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseToken(tt.token)
			require.Error(t, err)

			var unsupported *errors.UnsupportedArgumentError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tt.wantKey, unsupported.Key)
			assert.Equal(t, tt.token, unsupported.Token)
		})
	}
}

func TestParseToken_MissingName(t *testing.T) {
	_, _, err := ParseToken(":a=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing task name")
}

func TestParseTokens(t *testing.T) {
	tasks, order, err := ParseTokens(`  deploy:label="prod box"   test:n=2 deploy:retries=1 `)
	require.NoError(t, err)

	assert.Equal(t, []string{"deploy", "test"}, order)
	assert.Equal(t, Args{"label": "prod box", "retries": 1}, tasks["deploy"])
	assert.Equal(t, Args{"n": 2}, tasks["test"])
}

func TestParseArgs(t *testing.T) {
	tasks, order, err := ParseArgs([]string{`package:version="1.2.0"`, "", "lint", "package:release=true"})
	require.NoError(t, err)

	assert.Equal(t, []string{"package", "lint"}, order)
	assert.Equal(t, Args{"version": "1.2.0", "release": true}, tasks["package"])
	assert.Equal(t, Args{}, tasks["lint"])
}

func TestParseTokens_Error(t *testing.T) {
	_, _, err := ParseTokens("ok bad:x=nope")
	require.Error(t, err)
}

func TestArgs_Getters(t *testing.T) {
	args := Args{"s": "str", "i": 4, "f": 2.5, "b": true}

	s, ok := args.String("s")
	assert.True(t, ok)
	assert.Equal(t, "str", s)

	i, ok := args.Int("i")
	assert.True(t, ok)
	assert.Equal(t, 4, i)

	f, ok := args.Float("f")
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	widened, ok := args.Float("i")
	assert.True(t, ok)
	assert.Equal(t, 4.0, widened)

	b, ok := args.Bool("b")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = args.Int("s")
	assert.False(t, ok)
	_, ok = args.String("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"b", "f", "i", "s"}, args.Keys())

	clone := args.Clone()
	clone["s"] = "changed"
	assert.Equal(t, "str", args["s"])
}
