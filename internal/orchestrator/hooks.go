package orchestrator

import (
	"fmt"
	"strings"
)

// Hooks are the lifecycle callbacks of a run. Every field is optional. Hooks
// of tasks in the same round may be called concurrently.
type Hooks struct {
	OnRunStart     func()
	OnRunFinish    func()
	OnTaskStart    func(name string)
	OnTaskSucceed  func(name string)
	OnTaskFailed   func(name string, err error)
	OnTaskFinished func(name string)
	OnRound        func(info RoundInfo)
}

func (h Hooks) runStart() {
	if h.OnRunStart != nil {
		h.OnRunStart()
	}
}

func (h Hooks) runFinish() {
	if h.OnRunFinish != nil {
		h.OnRunFinish()
	}
}

func (h Hooks) taskStart(name string) {
	if h.OnTaskStart != nil {
		h.OnTaskStart(name)
	}
}

func (h Hooks) taskSucceed(name string) {
	if h.OnTaskSucceed != nil {
		h.OnTaskSucceed(name)
	}
}

func (h Hooks) taskFailed(name string, err error) {
	if h.OnTaskFailed != nil {
		h.OnTaskFailed(name, err)
	}
}

func (h Hooks) taskFinished(name string) {
	if h.OnTaskFinished != nil {
		h.OnTaskFinished(name)
	}
}

func (h Hooks) round(info RoundInfo) {
	if h.OnRound != nil {
		h.OnRound(info)
	}
}

// RoundInfo describes the state of a run when a round is dispatched
type RoundInfo struct {
	Round    int
	Admitted []string
	Blocked  []string
	Building []string
	Built    []string
}

func (r RoundInfo) String() string {
	return strings.Join([]string{
		fmt.Sprintf("Unblocked %s", formatNames(r.Admitted)),
		fmt.Sprintf("Blocked %s", formatNames(r.Blocked)),
		fmt.Sprintf("Building %s", formatNames(r.Building)),
		fmt.Sprintf("Built %s", formatNames(r.Built)),
	}, "\n")
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}
