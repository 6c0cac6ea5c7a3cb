// Package prim holds the static, ordered table of primitive operators this
// compiler recognises: every name a procedure-call's operator may resolve
// to, and the arity it demands. It intentionally does not carry emitter
// function pointers the way the C original's primitives table does — doing
// so here would force this package to depend on pkg/ast (for the node types
// an emitter walks) and on pkg/codegen (for the generator state an emitter
// writes through), which pkg/ast already depends on prim for (an AST node
// borrows a *Descriptor). pkg/codegen dispatches on Descriptor.Name with its
// own switch instead; see DESIGN.md.
package prim

// Descriptor is a single primitive's identity: its source-level name and the
// number of operands a procedure call to it must supply. Descriptors are
// never duplicated, never mutated after package init, and never owned by an
// AST node — only borrowed by pointer.
type Descriptor struct {
	Name  string
	Arity int
}

// Table lists every primitive this compiler recognises, in the order they
// appear in the language reference. Order has no semantic effect (lookup is
// exact-name match) but is kept stable for readable diagnostics and tests.
var Table = []*Descriptor{
	{"fxadd1", 1},
	{"fxsub1", 1},
	{"fxzero?", 1},
	{"char->fixnum", 1},
	{"fixnum->char", 1},
	{"null?", 1},
	{"not", 1},
	{"fixnum?", 1},
	{"boolean?", 1},
	{"char?", 1},
	{"fxlognot", 1},
	{"fx+", 2},
	{"fx-", 2},
	{"fx*", 2},
	{"fxlogand", 2},
	{"fxlogor", 2},
	{"fx=", 2},
	{"fx<=", 2},
	{"fx<", 2},
	{"fx>=", 2},
	{"fx>", 2},
	{"char=", 2},
	{"char<=", 2},
	{"char<", 2},
	{"char>=", 2},
	{"char>", 2},
}

var byName map[string]*Descriptor

func init() {
	byName = make(map[string]*Descriptor, len(Table))
	for _, d := range Table {
		byName[d.Name] = d
	}
}

// Lookup resolves a source-level operator name to its descriptor. Returns
// false if name is not a registered primitive (the caller should report
// UnknownPrimitive).
func Lookup(name string) (*Descriptor, bool) {
	d, ok := byName[name]
	return d, ok
}
