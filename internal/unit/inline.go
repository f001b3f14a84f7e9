package unit

import (
	"context"
	"fmt"

	"github.com/maxkimambo/barista/internal/errors"
)

// InlineFunc is the body of an inline unit. Lines written to out reach the
// unit's output sink.
type InlineFunc func(ctx context.Context, out Sink) error

// Inline runs a Go function as a unit
type Inline struct {
	sinks

	Name string
	fn   InlineFunc
}

// NewInline creates an inline unit
func NewInline(name string, fn InlineFunc) *Inline {
	return &Inline{Name: name, fn: fn}
}

func (i *Inline) Description() string {
	return fmt.Sprintf("inline %s", i.Name)
}

// Execute calls the function. Returned errors and panics are reported as task
// execution errors.
func (i *Inline) Execute(ctx context.Context) (err error) {
	defer errors.Recover(func(cause error) {
		err = errors.NewTaskExecutionError(i.Description(), cause)
	})

	if i.fn == nil {
		return nil
	}

	if fnErr := i.fn(ctx, i.emit); fnErr != nil {
		return errors.NewTaskExecutionError(i.Description(), fnErr)
	}
	return nil
}
