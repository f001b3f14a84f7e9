package unit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/maxkimambo/barista/internal/errors"
	"github.com/maxkimambo/barista/internal/logger"
)

// WaitDelay is the time to wait after interrupting a cancelled command before killing it.
const WaitDelay = 5 * time.Second

// Command runs an external process.
//
// When Argv is set it is executed as is. Otherwise Line is run through
// "sh -c" when Shell is true, or split into arguments with shell quoting
// rules when it is false.
type Command struct {
	sinks

	Line  string
	Argv  []string
	Shell bool
	Dir   string
	Env   map[string]string
}

// CommandOption configures a Command
type CommandOption func(*Command)

// WithDir sets the working directory of the command
func WithDir(dir string) CommandOption {
	return func(c *Command) {
		c.Dir = dir
	}
}

// WithEnv overlays the given variables on top of the current environment
func WithEnv(env map[string]string) CommandOption {
	return func(c *Command) {
		if c.Env == nil {
			c.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.Env[k] = v
		}
	}
}

// WithoutShell splits the command line into arguments instead of handing it to sh
func WithoutShell() CommandOption {
	return func(c *Command) {
		c.Shell = false
	}
}

// NewCommand creates a shell command unit
func NewCommand(line string, opts ...CommandOption) *Command {
	c := &Command{Line: line, Shell: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewExec creates a command unit from an argument vector
func NewExec(argv []string, opts ...CommandOption) *Command {
	c := &Command{Argv: argv, Line: strings.Join(argv, " ")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Command) Description() string {
	return fmt.Sprintf("command %q", c.Line)
}

func (c *Command) argv() ([]string, error) {
	if len(c.Argv) > 0 {
		return c.Argv, nil
	}
	if c.Shell {
		return []string{"sh", "-c", c.Line}, nil
	}

	argv, err := shlex.Split(c.Line)
	if err != nil {
		return nil, fmt.Errorf("failed to split command line: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}

func (c *Command) environ() []string {
	env := os.Environ()
	if len(c.Env) == 0 {
		return env
	}

	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}

// Execute runs the process and blocks until it exits. Cancelling ctx interrupts
// the process and kills it after WaitDelay.
func (c *Command) Execute(ctx context.Context) error {
	argv, err := c.argv()
	if err != nil {
		return errors.NewTaskExecutionError(c.Description(), err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.environ()
	cmd.WaitDelay = WaitDelay
	setGracefulShutdown(cmd)

	stdout := newLineWriter(c.emit)
	stderr := newLineWriter(c.emitError)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	c.emit("running command: " + c.Line)

	if logger.Op != nil {
		logger.Op.WithFields(map[string]interface{}{
			"argv": argv,
			"dir":  c.Dir,
		}).Debug("Starting process")
	}

	if err := cmd.Start(); err != nil {
		return errors.NewTaskExecutionError(c.Description(), err)
	}

	err = cmd.Wait()
	stdout.Flush()
	stderr.Flush()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return errors.NewTaskExecutionError(c.Description(), err)
	}

	return nil
}

// lineWriter splits written bytes into lines and hands each complete line to sink
type lineWriter struct {
	sink func(string)
	buf  []byte
}

func newLineWriter(sink func(string)) *lineWriter {
	return &lineWriter{sink: sink}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.sink(strings.TrimSuffix(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line that was not terminated by a newline
func (w *lineWriter) Flush() {
	if len(w.buf) > 0 {
		w.sink(string(w.buf))
		w.buf = nil
	}
}
