// Package progress presents a running build: task output in a colour per task,
// success and failure lines, round details and a final summary.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/maxkimambo/barista/internal/dag"
	"github.com/maxkimambo/barista/internal/logger"
	"github.com/maxkimambo/barista/internal/orchestrator"
	"github.com/maxkimambo/barista/internal/task"
	"github.com/maxkimambo/barista/internal/utils"
)

var (
	palette = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // yellow
		lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // blue
		lipgloss.NewStyle().Foreground(lipgloss.Color("13")), // pink
		lipgloss.NewStyle().Foreground(lipgloss.Color("14")), // light blue
	}
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Result is the outcome of one task
type Result struct {
	Task     string
	Duration time.Duration
	Err      error
}

// Presenter writes the progress of a build to out. It is safe for concurrent use.
type Presenter struct {
	out io.Writer
	now func() time.Time

	mu       sync.Mutex
	styles   map[string]lipgloss.Style
	started  map[string]time.Time
	results  []Result
	runStart time.Time
	runEnd   time.Time
}

func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{
		out:     out,
		now:     time.Now,
		styles:  make(map[string]lipgloss.Style),
		started: make(map[string]time.Time),
	}
}

// Attach forwards the output of t to the presenter
func (p *Presenter) Attach(t *task.Task) {
	name := t.Name()
	t.OnOutput(func(line string) { p.output(name, line) })
	t.OnError(func(line string) { p.errorOutput(name, line) })
}

// Hooks returns orchestrator hooks reporting to the presenter
func (p *Presenter) Hooks() orchestrator.Hooks {
	return orchestrator.Hooks{
		OnRunStart:    p.runStarted,
		OnRunFinish:   p.runFinished,
		OnTaskStart:   p.taskStarted,
		OnTaskSucceed: p.taskSucceeded,
		OnTaskFailed:  p.taskFailed,
		OnRound:       p.round,
	}
}

// Results returns the finished tasks in completion order
func (p *Presenter) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Result(nil), p.results...)
}

// Statuses maps every task the presenter has seen start to its current state
func (p *Presenter) Statuses() map[string]dag.NodeStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make(map[string]dag.NodeStatus, len(p.started))
	for name := range p.started {
		statuses[name] = dag.StatusRunning
	}
	for _, r := range p.results {
		if r.Err != nil {
			statuses[r.Task] = dag.StatusFailed
		} else {
			statuses[r.Task] = dag.StatusCompleted
		}
	}
	return statuses
}

// Elapsed returns the duration of the run, or the time since it started when still running
func (p *Presenter) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.runStart.IsZero() {
		return 0
	}
	if p.runEnd.IsZero() {
		return p.now().Sub(p.runStart)
	}
	return p.runEnd.Sub(p.runStart)
}

// Summary renders a box listing the outcome of the run
func (p *Presenter) Summary() string {
	results := p.Results()
	elapsed := FormatDuration(p.Elapsed())

	var built, failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		} else {
			built = append(built, r)
		}
	}

	if len(failed) == 0 {
		return utils.Success(
			fmt.Sprintf("Build finished in %s", elapsed),
			fmt.Sprintf("%d %s built", len(built), plural(len(built), "task")),
		)
	}

	box := utils.NewBox(utils.ErrorMessage, fmt.Sprintf("Build failed after %s", elapsed)).
		AddLine(fmt.Sprintf("%d built, %d failed", len(built), len(failed)))
	for _, r := range failed {
		box.AddBullet(fmt.Sprintf("%s: %v", r.Task, r.Err))
	}
	return box.Render()
}

func (p *Presenter) runStarted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runStart = p.now()
	p.runEnd = time.Time{}
}

func (p *Presenter) runFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runEnd = p.now()
}

func (p *Presenter) taskStarted(name string) {
	p.mu.Lock()
	p.started[name] = p.now()
	style := p.style(name)
	p.mu.Unlock()

	p.write(style.Render(fmt.Sprintf("▶ %s", name)))
}

func (p *Presenter) taskSucceeded(name string) {
	d := p.finish(name, nil)
	p.write(successStyle.Render(fmt.Sprintf("✓ %s (%s)", name, FormatDuration(d))))
}

func (p *Presenter) taskFailed(name string, err error) {
	d := p.finish(name, err)
	p.write(failureStyle.Render(fmt.Sprintf("✗ %s failed after %s: %v", name, FormatDuration(d), err)))
}

func (p *Presenter) round(info orchestrator.RoundInfo) {
	logger.Op.Debugf("Round %d\n%s", info.Round, info)
}

func (p *Presenter) finish(name string, err error) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	var d time.Duration
	if start, ok := p.started[name]; ok {
		d = p.now().Sub(start)
	}
	p.results = append(p.results, Result{Task: name, Duration: d, Err: err})
	return d
}

func (p *Presenter) output(name, line string) {
	p.mu.Lock()
	style := p.style(name)
	p.mu.Unlock()

	p.write(style.Render("["+name+"]") + " " + line)
}

func (p *Presenter) errorOutput(name, line string) {
	p.mu.Lock()
	style := p.style(name)
	p.mu.Unlock()

	p.write(style.Render("["+name+"]") + " " + failureStyle.Render(line))
}

// style assigns palette colours to tasks in the order they first print. Callers hold mu.
func (p *Presenter) style(name string) lipgloss.Style {
	if s, ok := p.styles[name]; ok {
		return s
	}
	s := palette[len(p.styles)%len(palette)]
	p.styles[name] = s
	return s
}

func (p *Presenter) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, strings.TrimRight(line, "\n"))
}

// FormatDuration formats a duration in a user-friendly way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
