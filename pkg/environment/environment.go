// Package environment implements the lexical mapping from in-scope
// identifier names to stack offsets threaded through code generation. It is
// a singly linked list of frames, exactly as the original's env_t chain
// (env_add prepends, env_ref walks linearly, free_env_partial truncates a
// prefix) — translated here into an immutable cons-list so "truncating" a
// scope is just remembering and later reverting to an earlier *Env pointer,
// with no explicit freeing required.
package environment

// Env is one frame of the chain, or nil for the empty environment.
type Env struct {
	name   string
	offset int
	next   *Env
}

// Empty returns the environment with no bindings.
func Empty() *Env { return nil }

// Extend returns a new environment with (name, offset) visible ahead of
// every binding already in env. The previous chain is untouched, so
// multiple extensions of the same base env do not interfere.
func Extend(env *Env, name string, offset int) *Env {
	return &Env{name: name, offset: offset, next: env}
}

// Lookup returns the offset of the nearest (innermost) binding for name,
// implementing shadowing by linear search from the head. ok is false if no
// frame in the chain matches.
func Lookup(env *Env, name string) (offset int, ok bool) {
	for e := env; e != nil; e = e.next {
		if e.name == name {
			return e.offset, true
		}
	}
	return 0, false
}

// Truncate returns mark, discarding any frames extend added since it was
// captured. It exists (rather than callers just reassigning their own
// variable back to mark) to document the scope-exit operation the spec
// names explicitly and to give it a single call site to audit.
func Truncate(mark *Env) *Env { return mark }
