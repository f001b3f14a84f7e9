package unit

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/barista/internal/errors"
)

// recorder collects lines sent to a sink
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) sink(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func attach(u Unit) (*recorder, *recorder) {
	out, errOut := &recorder{}, &recorder{}
	u.OnOutput(out.sink)
	u.OnError(errOut.sink)
	return out, errOut
}

func TestCommand_StreamsOutput(t *testing.T) {
	cmd := NewCommand("echo hello; echo oops >&2; printf tail")
	out, errOut := attach(cmd)

	require.NoError(t, cmd.Execute(context.Background()))

	assert.Equal(t, []string{"running command: echo hello; echo oops >&2; printf tail", "hello", "tail"}, out.Lines())
	assert.Equal(t, []string{"oops"}, errOut.Lines())
}

func TestCommand_StreamsBeforeExit(t *testing.T) {
	cmd := NewCommand("echo first; sleep 2; echo second")

	first := make(chan struct{})
	var once sync.Once
	cmd.OnOutput(func(line string) {
		if line == "first" {
			once.Do(func() { close(first) })
		}
	})

	done := make(chan error, 1)
	go func() { done <- cmd.Execute(context.Background()) }()

	select {
	case <-first:
	case err := <-done:
		t.Fatalf("command finished before its first line was seen: %v", err)
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("first line was not streamed while the command was running")
	}

	select {
	case err := <-done:
		t.Fatalf("command finished too early: %v", err)
	default:
	}

	require.NoError(t, <-done)
}

func TestCommand_NonZeroExit(t *testing.T) {
	cmd := NewCommand("exit 3")

	err := cmd.Execute(context.Background())
	require.Error(t, err)

	var taskErr *errors.TaskExecutionError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, `command "exit 3"`, taskErr.Unit)
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestCommand_DirAndEnv(t *testing.T) {
	dir := t.TempDir()
	cmd := NewCommand("pwd; echo $BARISTA_TEST", WithDir(dir), WithEnv(map[string]string{"BARISTA_TEST": "brewed"}))
	out, _ := attach(cmd)

	require.NoError(t, cmd.Execute(context.Background()))

	lines := out.Lines()
	require.Len(t, lines, 3)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, []string{dir, resolved}, lines[1])
	assert.Equal(t, "brewed", lines[2])
}

func TestCommand_WithoutShell(t *testing.T) {
	cmd := NewCommand(`echo "two words" $HOME`, WithoutShell())
	out, _ := attach(cmd)

	require.NoError(t, cmd.Execute(context.Background()))

	// no shell means no variable expansion
	assert.Equal(t, "two words $HOME", out.Lines()[1])
}

func TestCommand_WithoutShellEmpty(t *testing.T) {
	cmd := NewCommand("   ", WithoutShell())

	err := cmd.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty command")
}

func TestCommand_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := NewCommand("sleep 30", WithoutShell())

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(WaitDelay + 5*time.Second):
		t.Fatal("command was not stopped after cancellation")
	}
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tree", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tree", "nested", "b.txt"), []byte("b"), 0o644))

	t.Run("file", func(t *testing.T) {
		u := NewCopy("a.txt", "copy.txt", dir)
		out, _ := attach(u)

		require.NoError(t, u.Execute(context.Background()))
		assert.FileExists(t, filepath.Join(dir, "copy.txt"))
		assert.Equal(t, "running command: cp a.txt copy.txt", out.Lines()[0])
		assert.Equal(t, "copy a.txt to copy.txt", u.Description())
	})

	t.Run("directory", func(t *testing.T) {
		u := NewCopy("tree", "tree-copy", dir)
		out, _ := attach(u)

		require.NoError(t, u.Execute(context.Background()))
		assert.FileExists(t, filepath.Join(dir, "tree-copy", "nested", "b.txt"))
		assert.Equal(t, "running command: cp -R tree tree-copy", out.Lines()[0])
	})

	t.Run("missing source", func(t *testing.T) {
		u := NewCopy("nope.txt", "x.txt", dir)
		_, errOut := attach(u)

		err := u.Execute(context.Background())
		require.Error(t, err)
		assert.NotEmpty(t, errOut.Lines())

		var taskErr *errors.TaskExecutionError
		require.ErrorAs(t, err, &taskErr)
		assert.Equal(t, "copy nope.txt to x.txt", taskErr.Unit)
	})
}

func TestMkdir(t *testing.T) {
	dir := t.TempDir()

	u := NewMkdir("out/deep/er", true, dir)
	require.NoError(t, u.Execute(context.Background()))
	assert.DirExists(t, filepath.Join(dir, "out", "deep", "er"))
	assert.Equal(t, []string{"mkdir", "-p", "out/deep/er"}, u.Argv)

	// existing directory is fine with parents
	require.NoError(t, u.Execute(context.Background()))

	plain := NewMkdir("missing/child", false, dir)
	err := plain.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, "mkdir missing/child", plain.Description())

	var taskErr *errors.TaskExecutionError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "mkdir missing/child", taskErr.Unit)
}

func TestInline(t *testing.T) {
	t.Run("success writes output", func(t *testing.T) {
		u := NewInline("greet", func(ctx context.Context, out Sink) error {
			out("hi")
			return nil
		})
		out, _ := attach(u)

		require.NoError(t, u.Execute(context.Background()))
		assert.Equal(t, []string{"hi"}, out.Lines())
	})

	t.Run("error", func(t *testing.T) {
		u := NewInline("fail", func(ctx context.Context, out Sink) error {
			return errors.New("boom")
		})

		err := u.Execute(context.Background())
		var taskErr *errors.TaskExecutionError
		require.ErrorAs(t, err, &taskErr)
		assert.Equal(t, "inline fail", taskErr.Unit)
		assert.EqualError(t, taskErr.Err, "boom")
	})

	t.Run("panic", func(t *testing.T) {
		u := NewInline("explode", func(ctx context.Context, out Sink) error {
			panic("kaboom")
		})

		err := u.Execute(context.Background())
		var taskErr *errors.TaskExecutionError
		require.ErrorAs(t, err, &taskErr)
		assert.Contains(t, err.Error(), "panic: kaboom")
	})

	t.Run("nil function", func(t *testing.T) {
		assert.NoError(t, NewInline("noop", nil).Execute(context.Background()))
	})
}

func TestLineWriter(t *testing.T) {
	rec := &recorder{}
	w := newLineWriter(rec.sink)

	_, _ = w.Write([]byte("par"))
	_, _ = w.Write([]byte("tial\r\nnext\n"))
	_, _ = w.Write([]byte("rest"))
	assert.Equal(t, []string{"partial", "next"}, rec.Lines())

	w.Flush()
	assert.Equal(t, []string{"partial", "next", "rest"}, rec.Lines())
}
