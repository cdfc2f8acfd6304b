package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	name string
	run  func(ctx context.Context, inv *Invocation) error
}

func (s *stubCommand) Name() string        { return s.name }
func (s *stubCommand) Description() string { return s.name + " command" }
func (s *stubCommand) Run(ctx context.Context, inv *Invocation) error {
	if s.run == nil {
		return nil
	}
	return s.run(ctx, inv)
}

type marker interface{ Marked() bool }

type markedCommand struct{ stubCommand }

func (markedCommand) Marked() bool { return true }

func TestRegistryFirstWins(t *testing.T) {
	r := NewRegistry()
	first := &stubCommand{name: "votenext"}
	require.NoError(t, r.Register(first))

	err := r.Register(&stubCommand{name: "VoteNext"})
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "votenext", dup.Name)

	assert.Same(t, first, r.Get("VOTENEXT"))
	assert.True(t, r.Has("votenext"))
	assert.Nil(t, r.Get("missing"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryGetAllSorted(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubCommand{name: "stats"}, &stubCommand{name: "help"}, &stubCommand{name: "linkstatus"})

	var names []string
	for _, c := range r.GetAll() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"help", "linkstatus", "stats"}, names)
	assert.Panics(t, func() { r.MustRegister(&stubCommand{name: "help"}) })
}

func TestApplyOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, name)
				return c.Run(ctx, inv)
			})
		}
	}
	c := Apply(&stubCommand{name: "x", run: func(context.Context, *Invocation) error {
		order = append(order, "run")
		return nil
	}}, tag("outer"), tag("inner"))

	require.NoError(t, c.Run(context.Background(), &Invocation{}))
	assert.Equal(t, []string{"outer", "inner", "run"}, order)
	assert.Equal(t, "x", c.Name())
}

func TestRecover(t *testing.T) {
	c := Apply(&stubCommand{name: "boom", run: func(context.Context, *Invocation) error {
		panic("nil map")
	}}, Recover())

	err := c.Run(context.Background(), &Invocation{})
	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "boom", pe.Command)
}

func TestRootAndAs(t *testing.T) {
	inner := &markedCommand{stubCommand{name: "stats"}}
	wrapped := Apply(inner, Recover(), Recover())

	assert.Same(t, inner, Root(wrapped))
	m, ok := As[marker](wrapped)
	require.True(t, ok)
	assert.True(t, m.Marked())

	_, ok = As[marker](&stubCommand{name: "plain"})
	assert.False(t, ok)
}

func TestInvocationOption(t *testing.T) {
	var nilInv *Invocation
	assert.Empty(t, nilInv.Option("player"))
	inv := &Invocation{Options: map[string]string{"player": "uuid"}}
	assert.Equal(t, "uuid", inv.Option("player"))
}
