// Package codegen emits AT&T-syntax x86-64 assembly for a parsed program,
// one AST node at a time, threading a free stack index and a lexical
// environment exactly as SPEC_FULL.md §4.5 describes. It is a single-pass,
// stack-threaded emitter with no intermediate representation: every emit*
// method writes finished assembly text directly to the Generator's writer,
// the same shape the source's emit.c uses (a FILE*, an si, and an env
// threaded through a family of emit_asm_* functions) translated into Go
// methods on a Generator that owns the writer, the label counter and the
// target platform instead of taking them as loose parameters.
package codegen

import (
	"bufio"
	"fmt"
	"io"

	"fxc.dev/fxc/pkg/ast"
	"fxc.dev/fxc/pkg/environment"
	"fxc.dev/fxc/pkg/fxerr"
	"fxc.dev/fxc/pkg/value"
)

// Platform selects the small set of assembler-directive and symbol-naming
// differences between host families the spec calls out in §6.
type Platform int

const (
	Linux Platform = iota
	Darwin
)

// Generator emits assembly for a parsed program. It is not safe for
// concurrent use — the spec's concurrency model is single-threaded by
// design (§5).
type Generator struct {
	w        *bufio.Writer
	labels   *Labels
	platform Platform
}

// NewGenerator returns a Generator that writes to w, targeting platform.
func NewGenerator(w io.Writer, platform Platform) *Generator {
	return &Generator{w: bufio.NewWriter(w), labels: NewLabels(".L"), platform: platform}
}

func (g *Generator) line(format string, args ...any) {
	fmt.Fprintf(g.w, format+"\n", args...)
}

// symbol applies the platform's symbol-naming convention: an underscore
// prefix on the Darwin/Mach-O family, none on Linux/ELF.
func (g *Generator) symbol(name string) string {
	if g.platform == Darwin {
		return "_" + name
	}
	return name
}

// Generate emits the full program: the entry thunk and the compiled body.
// A program is one or more top-level commands; they are emitted exactly
// like the elements of an ExprSeq — left-to-right, each discarding the
// previous result — so the program's value is its last command's value,
// generalising the single-expression examples in SPEC_FULL.md §8 to the
// command+ grammar production.
func (g *Generator) Generate(program *ast.Program) error {
	g.emitPrologue()

	env := environment.Empty()
	si := value.WordBytes
	for _, cmd := range program.Commands {
		if err := g.emitExpr(cmd, si, env); err != nil {
			return err
		}
	}

	g.emitEpilogue()
	return g.w.Flush()
}

func (g *Generator) emitPrologue() {
	switch g.platform {
	case Darwin:
		g.line(".text")
		g.line(".globl %s", g.symbol("scheme_entry"))
	default:
		g.line(".text")
		g.line(".globl %s", g.symbol("scheme_entry"))
		g.line(".type %s, @function", g.symbol("scheme_entry"))
	}

	// L_scheme_entry: the compiled body. Ordinary function, standard return.
	g.line("%s:", g.symbol("L_scheme_entry"))
}

func (g *Generator) emitEpilogue() {
	g.line("ret")

	// scheme_entry: the entry thunk. Marshals the host %rsp aside, switches
	// onto the runtime-supplied, page-guarded stack passed in the first
	// integer argument register, runs the compiled body, then restores the
	// host stack before returning — so the compiled code never runs on the
	// same stack as the calling C runtime. %rcx holds the saved host %rsp
	// across the call to L_scheme_entry, which makes it live for the whole
	// compiled program, not just this thunk: it is caller-saved, so nothing
	// in emitPrim1Body/emitPrim2Body may use it as scratch.
	g.line("%s:", g.symbol("scheme_entry"))
	g.line("movq %%rsp, %%rcx")
	g.line("movq %%rdi, %%rsp")
	g.line("call %s", g.symbol("L_scheme_entry"))
	g.line("movq %%rcx, %%rsp")
	g.line("ret")

	if g.platform != Darwin {
		g.line(".size %s, .-%s", g.symbol("scheme_entry"), g.symbol("scheme_entry"))
	}
}

// emitExpr dispatches on the AST node's concrete type, emitting the code
// that leaves its value in %rax. si is the next free stack slot available
// to this node's children; env is the lexical chain visible to it.
func (g *Generator) emitExpr(node ast.Node, si int, env *environment.Env) error {
	switch n := node.(type) {
	case *ast.Fixnum:
		g.emitImmediate(value.EncodeFixnum(n.Value))
		return nil
	case *ast.Char:
		g.emitImmediate(value.EncodeChar(n.Value))
		return nil
	case *ast.Bool:
		g.emitImmediate(value.EncodeBool(n.Value))
		return nil
	case *ast.Null:
		g.emitImmediate(value.NullConst)
		return nil
	case *ast.Id:
		return g.emitIdentifier(n, env)
	case *ast.If:
		return g.emitIf(n, si, env)
	case *ast.Let:
		return g.emitLet(n, si, env)
	case *ast.ExprSeq:
		return g.emitExprSeq(n, si, env)
	case *ast.PrimEval1:
		return g.emitPrim1(n, si, env)
	case *ast.PrimEval2:
		return g.emitPrim2(n, si, env)
	default:
		panic(fmt.Sprintf("codegen: unhandled AST node %T", node))
	}
}

// emitImmediate loads a fully-encoded tagged constant into %rax, using the
// shorter 32-bit form when the constant fits, the absolute 64-bit form
// otherwise — exactly the choice SPEC_FULL.md §4.5.2 specifies.
func (g *Generator) emitImmediate(v uint64) {
	if v <= 0xffffffff {
		g.line("movl $%d, %%eax", v)
		return
	}
	g.line("movabsq $%d, %%rax", v)
}

func (g *Generator) emitIdentifier(n *ast.Id, env *environment.Env) error {
	offset, ok := environment.Lookup(env, n.Name)
	if !ok {
		return &fxerr.UnboundIdentifier{Name: n.Name}
	}
	g.line("movq -%d(%%rsp), %%rax", offset)
	return nil
}

func (g *Generator) emitIf(n *ast.If, si int, env *environment.Env) error {
	elseLabel := g.labels.Next("else")
	endLabel := g.labels.Next("endif")

	if err := g.emitExpr(n.Cond, si, env); err != nil {
		return err
	}
	g.line("cmpq $%d, %%rax", value.FalseConst)
	g.line("je %s", elseLabel)
	if err := g.emitExpr(n.Then, si, env); err != nil {
		return err
	}
	g.line("jmp %s", endLabel)
	g.line("%s:", elseLabel)
	if err := g.emitExpr(n.Else, si, env); err != nil {
		return err
	}
	g.line("%s:", endLabel)
	return nil
}

func (g *Generator) emitExprSeq(n *ast.ExprSeq, si int, env *environment.Env) error {
	for _, e := range n.Exprs {
		if err := g.emitExpr(e, si, env); err != nil {
			return err
		}
	}
	return nil
}

// emitLet handles let, let* and letrec uniformly: letrec carries no
// distinct recursive-scope semantics in this core (no closures to capture),
// so it is generated identically to let* — see DESIGN.md for the open
// question this resolves.
func (g *Generator) emitLet(n *ast.Let, si int, env *environment.Env) error {
	env0 := env
	curEnv := env
	curSi := si

	for _, b := range n.Bindings {
		evalEnv := env0
		if n.Flavor == ast.LetStar || n.Flavor == ast.LetRec {
			evalEnv = curEnv
		}
		if err := g.emitExpr(b.Expr, curSi, evalEnv); err != nil {
			return err
		}
		g.line("movq %%rax, -%d(%%rsp)", curSi)
		curEnv = environment.Extend(curEnv, b.Name, curSi)
		curSi += value.WordBytes
	}

	if err := g.emitExpr(n.Body, curSi, curEnv); err != nil {
		return err
	}
	environment.Truncate(env0) // no-op under GC; documents the scope-exit point
	return nil
}

func (g *Generator) emitPrim1(n *ast.PrimEval1, si int, env *environment.Env) error {
	if err := g.emitExpr(n.Arg, si, env); err != nil {
		return err
	}
	return g.emitPrim1Body(n.Prim.Name)
}

func (g *Generator) emitPrim2(n *ast.PrimEval2, si int, env *environment.Env) error {
	if err := g.emitExpr(n.Arg1, si, env); err != nil {
		return err
	}
	g.line("movq %%rax, -%d(%%rsp)", si)
	if err := g.emitExpr(n.Arg2, si+value.WordBytes, env); err != nil {
		return err
	}
	// Arg2's value is now in %rax, Arg1's spilled at -si(%rsp).
	// emitPrim2Body operates on those two locations (plus %rdx for the
	// comparisons' boolean materialisation) — no primitive may
	// use %rcx as scratch, since scheme_entry keeps the host's saved %rsp
	// live there for the whole compiled program (see emitEpilogue).
	return g.emitPrim2Body(n.Prim.Name, si)
}
