package command

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// NotFoundError is returned when a name or path has no registered command.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command or path was not found: %s", e.Path)
}

// Registry maps command names to implementations.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]Command)}
}

// Register adds a command, replacing any command of the same name.
func (r *Registry) Register(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds[c.Name()] = c
}

// Lookup returns a command by its exact registered name.
func (r *Registry) Lookup(name string) (Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cmds[name]
	if !ok {
		return nil, &NotFoundError{Path: name}
	}
	return c, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmds := make([]Command, 0, len(r.cmds))
	for _, c := range r.cmds {
		cmds = append(cmds, c)
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name() < cmds[j].Name()
	})
	return cmds
}

type contextKey struct{}

// NewContext returns a context with the registry attached.
func NewContext(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, contextKey{}, reg)
}

// RegistryFromContext retrieves the registry from a context.
func RegistryFromContext(ctx context.Context) (*Registry, bool) {
	reg, ok := ctx.Value(contextKey{}).(*Registry)
	return reg, ok
}
