// Package cmd is the transport-agnostic command core. A command has a name,
// a description and Run(ctx, invocation); registration and dispatch over a
// concrete transport (Discord interactions, the operator CLI) live in
// adapters built on top of it.
package cmd

import "context"

// Invocation carries what any runner can pass to a command. Options holds
// named string arguments; Data is the adapter's own context (for Discord, the
// interaction context).
type Invocation struct {
	Args    []string
	Options map[string]string
	Data    any
}

// Option returns the named option or "".
func (inv *Invocation) Option(name string) string {
	if inv == nil || inv.Options == nil {
		return ""
	}
	return inv.Options[name]
}

// Command is the universal contract: identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
