// Package ast defines the sum-typed node set produced by pkg/parser and
// consumed (read-only) by pkg/codegen. Go has no native sum types, so each
// variant is its own struct and the shared supertype is the empty interface
// Node, matched against with a type switch at every consumer — the same
// "marker interface + concrete structs" shape the teacher project uses for
// its own Statement/Expression node sets.
//
// There is no destructor: node lifetime is managed by the garbage collector,
// not by explicit ownership transfer, so the "destroying a node destroys the
// subtree" rule becomes simply "nothing references a discarded node."
package ast

import "fxc.dev/fxc/pkg/prim"

// Node is the marker type every AST variant implements.
type Node interface{ isNode() }

// Fixnum is an immediate integer literal.
type Fixnum struct{ Value int64 }

// Char is an immediate character literal.
type Char struct{ Value byte }

// Bool is an immediate boolean literal.
type Bool struct{ Value bool }

// Null is the empty-list immediate literal.
type Null struct{}

// Id is a reference to a lexically bound identifier.
type Id struct{ Name string }

// If is a three-branch conditional.
type If struct {
	Cond, Then, Else Node
}

// LetFlavor discriminates which of let / let* / letrec produced a Let node.
// The AST representation is shared across all three; only code generation
// differs (letrec generates identically to let*, see the Let doc).
type LetFlavor int

const (
	LetPlain LetFlavor = iota
	LetStar
	LetRec
)

func (f LetFlavor) String() string {
	switch f {
	case LetPlain:
		return "let"
	case LetStar:
		return "let*"
	case LetRec:
		return "letrec"
	default:
		return "let?"
	}
}

// Binding is one (identifier expression) pair inside a Let's binding list.
type Binding struct {
	Name string
	Expr Node
}

// Let is a local-binding form. Flavor == LetRec is accepted by the parser
// but generates exactly the code LetStar would for the same bindings/body:
// this core has no closures, so there is nothing for letrec's recursive
// scope to capture. See DESIGN.md for the open-question resolution.
type Let struct {
	Flavor   LetFlavor
	Bindings []Binding
	Body     Node // always an *ExprSeq
}

// ExprSeq is a non-empty ordered sequence of expressions; only the last
// result survives emission, earlier ones are evaluated for effect only
// (there are no side-effecting primitives in this core, so in practice only
// the last expression's value is ever observable, but all are emitted).
type ExprSeq struct{ Exprs []Node }

// PrimEval1 is a call to a unary primitive.
type PrimEval1 struct {
	Prim *prim.Descriptor
	Arg  Node
}

// PrimEval2 is a call to a binary primitive.
type PrimEval2 struct {
	Prim       *prim.Descriptor
	Arg1, Arg2 Node
}

func (*Fixnum) isNode()    {}
func (*Char) isNode()      {}
func (*Bool) isNode()      {}
func (*Null) isNode()      {}
func (*Id) isNode()        {}
func (*If) isNode()        {}
func (*Let) isNode()       {}
func (*ExprSeq) isNode()   {}
func (*PrimEval1) isNode() {}
func (*PrimEval2) isNode() {}

// Program is an ordered, non-empty sequence of top-level commands, each a
// full expression in its own right (this core has no separate "definition"
// command — see grammar in SPEC_FULL.md §4.2).
type Program struct{ Commands []Node }
