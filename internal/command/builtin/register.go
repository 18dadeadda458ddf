package builtin

import "github.com/marcelocantos/gsh/internal/command"

// RegisterAll adds all built-in commands to the registry.
func RegisterAll(r *command.Registry) {
	r.Register(&Alias{})
	r.Register(&Cat{})
	r.Register(&Echo{})
	r.Register(&Eval{})
	r.Register(&Exit{})
	r.Register(&Help{})
	r.Register(&Set{})
	r.Register(&Sleep{})
	r.Register(&Unalias{})
	r.Register(&Unset{})
}
