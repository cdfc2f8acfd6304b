package cmd

import (
	"context"
	"fmt"
)

// Middleware wraps a command (logging, guards, audit). The result is still a
// Command and unwraps to the original.
type Middleware func(Command) Command

// Apply applies middlewares in order; the first in the list is the outermost.
func Apply(c Command, mws ...Middleware) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// PanicError is returned by Recover when a command panics.
type PanicError struct {
	Command string
	Value   any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command %s panicked: %v", e.Command, e.Value)
}

// Recover turns a panic inside Run into a *PanicError.
func Recover() Middleware {
	return func(c Command) Command {
		return Wrap(c, func(ctx context.Context, inv *Invocation) (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = &PanicError{Command: c.Name(), Value: p}
				}
			}()
			return c.Run(ctx, inv)
		})
	}
}
