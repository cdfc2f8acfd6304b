package cmd

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DuplicateError is returned when a name is already taken.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("command %q is already registered", e.Name)
}

// Registry stores commands by lower-cased name. It does not dispatch; each
// adapter looks commands up and invokes them with its own context. It is
// safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds c. The first command registered under a name wins.
func (r *Registry) Register(c Command) error {
	key := strings.ToLower(c.Name())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[key]; ok {
		return &DuplicateError{Name: key}
	}
	r.commands[key] = c
	return nil
}

// MustRegister is Register for built-in commands, whose names never clash.
func (r *Registry) MustRegister(cs ...Command) {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Get returns the command with the given name, or nil.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[strings.ToLower(name)]
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
