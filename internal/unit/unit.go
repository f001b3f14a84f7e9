// Package unit contains the runnable units a task is made of: shell commands,
// file system helpers and inline functions. Every unit streams its output line
// by line to the sinks registered on it.
package unit

import (
	"context"
)

// Sink receives one line of unit output, without the trailing newline
type Sink func(line string)

// Unit is the smallest executable piece of a task
type Unit interface {
	Execute(ctx context.Context) error
	Description() string
	OnOutput(sink Sink)
	OnError(sink Sink)
}

// sinks holds the output and error sinks shared by all unit kinds
type sinks struct {
	output Sink
	errOut Sink
}

func (s *sinks) OnOutput(sink Sink) {
	s.output = sink
}

func (s *sinks) OnError(sink Sink) {
	s.errOut = sink
}

func (s *sinks) emit(line string) {
	if s.output != nil {
		s.output(line)
	}
}

func (s *sinks) emitError(line string) {
	if s.errOut != nil {
		s.errOut(line)
	}
}
