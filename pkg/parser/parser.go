// Package parser reads the surface grammar with the same two-phase pattern
// the teacher project uses throughout: goparsec combinators turn source
// text into a raw, generically-queryable parse tree (FromSource), then a
// second pass (FromAST) walks that tree once, depth-first, to build the
// typed pkg/ast node set the rest of the compiler consumes.
//
// The grammar is self-recursive (an expression can contain further
// expressions as if-branches, let-bindings, and call operands), which the
// combinator values themselves cannot express directly: goparsec parsers
// are plain function values assigned to package variables, and Go rejects
// an initialization cycle among package-level vars. The fix used below is
// the standard technique for recursive combinator grammars: pExpr is
// forward-declared as a bare variable, every rule that needs to recurse
// into "any expression" calls the small exprRef indirection function
// instead of referencing pExpr directly, and pExpr itself is only assigned
// once every leaf rule exists, from an init() func. exprRef reads pExpr at
// call time (parse time), long after init() has run, so the indirection
// costs nothing but a pointer dereference.
package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"

	pc "github.com/prataprc/goparsec"

	fxast "fxc.dev/fxc/pkg/ast"
	"fxc.dev/fxc/pkg/fxerr"
	"fxc.dev/fxc/pkg/prim"
	"fxc.dev/fxc/pkg/value"
)

// ----------------------------------------------------------------------------
// Parser Combinators

// Top level object, generates the traversable raw AST the PCs below build.
var ast = pc.NewAST("fxc_program", 0)

// pExpr is assigned below, in init(), once every other rule exists. Every
// recursive occurrence of "an expression" inside another rule goes through
// exprRef rather than this variable directly — see the package doc comment.
var pExpr pc.Parser

func exprRef(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return pExpr(s) }

var (
	pLParen = pc.Atom("(", "LPAREN")
	pRParen = pc.Atom(")", "RPAREN")

	// Immediate literals. Named-character forms are tried before the bare
	// "#\\x" form since they share a prefix and OrdChoice commits to the
	// first alternative that matches.
	pNamedChar = pc.Token(`#\\(alarm|backspace|delete|escape|newline|null|return|space|tab)`, "NAMED_CHAR")
	pBareChar  = pc.Token(`#\\.`, "CHAR")
	pBoolTrue  = pc.Atom("#t", "BOOL_TRUE")
	pBoolFalse = pc.Atom("#f", "BOOL_FALSE")
	pNullLit   = pc.Atom("()", "NULL")
	pFixnum    = pc.Token(`[+-]?[0-9]+`, "FIXNUM")

	pImmediate = ast.OrdChoice("immediate", nil, pNamedChar, pBareChar, pBoolTrue, pBoolFalse, pNullLit, pFixnum)

	// Identifiers: the two-pipe-delimited form (|sym elt*|) and the common
	// initial/subsequent form, which also covers primitive names such as
	// fx+, fx<=, char->fixnum and the peculiar bare +/- identifiers.
	pQuotedIdent = pc.Token(`\|[^|]*\|`, "QIDENT")
	pPlainIdent  = pc.Token(`[A-Za-z!$%&*/:<=>?^_~][0-9A-Za-z!$%&*/:<=>?^_~+\-.@]*|[+\-]`, "IDENT")
	pIdentAtom   = ast.OrdChoice("identifier", nil, pQuotedIdent, pPlainIdent)

	// let / let* / letrec share a keyword prefix; the two longer keywords
	// must be tried first or the plain "let" alternative would consume the
	// "let" prefix of "let*"/"letrec" and strand the "*"/"rec" suffix.
	pLetKeyword = ast.OrdChoice("let_kw", nil,
		pc.Atom("let*", "LETSTAR"), pc.Atom("letrec", "LETREC"), pc.Atom("let", "LET"))

	pIfExpr = ast.And("if_expr", nil, pLParen, pc.Atom("if", "IF"), exprRef, exprRef, exprRef, pRParen)

	pBinding     = ast.And("binding", nil, pLParen, pIdentAtom, exprRef, pRParen)
	pBindingList = ast.Kleene("bindings", nil, pBinding)
	pBody        = ast.Kleene("body", nil, exprRef)

	pLetExpr = ast.And("let_expr", nil,
		pLParen, pLetKeyword, pLParen, pBindingList, pRParen, pBody, pRParen)

	pOperandList = ast.Kleene("operands", nil, exprRef)
	pProcCall    = ast.And("proc_call", nil, pLParen, pIdentAtom, pOperandList, pRParen)

	pProgram = ast.ManyUntil("program", nil, exprRef, pc.End())
)

func init() {
	pExpr = ast.OrdChoice("expression", nil, pImmediate, pIfExpr, pLetExpr, pProcCall, pIdentAtom)
}

// ----------------------------------------------------------------------------
// Parser

// Parser reads a fxc source program from an io.Reader and produces a
// pkg/ast.Program. Debug output is controlled by the same environment
// variables the teacher project's parsers honour: PARSEC_DEBUG enables
// goparsec's own verbose trace, PRINT_AST pretty-prints the raw combinator
// tree before the second pass runs.
type Parser struct{ reader io.Reader }

// NewParser returns a Parser reading source from r.
func NewParser(r io.Reader) Parser { return Parser{reader: r} }

// Parse runs both phases: FromSource builds the raw combinator tree,
// FromAST walks it into a typed *fxast.Program.
func (p *Parser) Parse() (*fxast.Program, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, &fxerr.Io{Op: "read", Path: "<source>", Err: err}
	}

	root, ok := p.FromSource(content)
	if !ok {
		return nil, &fxerr.Parse{Message: "input did not match the program grammar"}
	}

	return p.FromAST(root)
}

// FromSource scans source into a raw, queryable parse tree. ok is false
// when the scanner could not consume the entire input as a program — per
// the grammar's use of ManyUntil(..., pc.End()), that includes the
// trailing-garbage case: a source with extra content after a complete
// program is rejected outright, the one behaviour the spec asks
// implementations to lock in per mode.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, scanner := ast.Parsewith(pProgram, pc.NewScanner(stripComments(source)))
	if root == nil || !scanner.Endof() {
		return nil, false
	}

	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, true
}

// FromAST walks the raw parse tree's top level, dispatching each command to
// FromExpr. Comments never reach this tree — stripComments removes them
// from the source before scanning.
func (p *Parser) FromAST(root pc.Queryable) (*fxast.Program, error) {
	if root.GetName() != "program" {
		return nil, &fxerr.Parse{Message: fmt.Sprintf("expected node 'program', found %q", root.GetName())}
	}

	program := &fxast.Program{}
	for _, child := range root.GetChildren() {
		node, err := p.FromExpr(child)
		if err != nil {
			return nil, err
		}
		program.Commands = append(program.Commands, node)
	}

	if len(program.Commands) == 0 {
		return nil, &fxerr.Parse{Message: "program contains no commands"}
	}
	return program, nil
}

// FromExpr converts a single raw expression node into its typed
// counterpart, recursing into children as needed.
func (p *Parser) FromExpr(node pc.Queryable) (fxast.Node, error) {
	switch node.GetName() {
	case "FIXNUM":
		return p.handleFixnum(node)
	case "NAMED_CHAR":
		b, err := decodeNamedChar(node.GetValue())
		if err != nil {
			return nil, err
		}
		return &fxast.Char{Value: b}, nil
	case "CHAR":
		text := node.GetValue()
		return &fxast.Char{Value: text[len(text)-1]}, nil
	case "BOOL_TRUE":
		return &fxast.Bool{Value: true}, nil
	case "BOOL_FALSE":
		return &fxast.Bool{Value: false}, nil
	case "NULL":
		return &fxast.Null{}, nil
	case "IDENT", "QIDENT":
		return &fxast.Id{Name: identText(node)}, nil
	case "if_expr":
		return p.handleIf(node)
	case "let_expr":
		return p.handleLet(node)
	case "proc_call":
		return p.handleProcCall(node)
	default:
		return nil, &fxerr.Parse{Message: fmt.Sprintf("unrecognized expression node %q", node.GetName())}
	}
}

func (p *Parser) handleFixnum(node pc.Queryable) (fxast.Node, error) {
	n, err := strconv.ParseInt(node.GetValue(), 10, 64)
	if err != nil {
		return nil, &fxerr.Parse{Message: fmt.Sprintf("malformed fixnum literal %q", node.GetValue())}
	}
	if n < value.FxMin || n > value.FxMax {
		return nil, &fxerr.Parse{Message: fmt.Sprintf("fixnum literal %d out of representable range", n)}
	}
	return &fxast.Fixnum{Value: n}, nil
}

func (p *Parser) handleIf(node pc.Queryable) (fxast.Node, error) {
	children := node.GetChildren()
	if len(children) != 6 {
		return nil, &fxerr.Parse{Message: fmt.Sprintf("malformed 'if', expected 6 children, got %d", len(children))}
	}

	cond, err := p.FromExpr(children[2])
	if err != nil {
		return nil, err
	}
	then, err := p.FromExpr(children[3])
	if err != nil {
		return nil, err
	}
	els, err := p.FromExpr(children[4])
	if err != nil {
		return nil, err
	}
	return &fxast.If{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) handleLet(node pc.Queryable) (fxast.Node, error) {
	children := node.GetChildren()
	if len(children) != 7 {
		return nil, &fxerr.Parse{Message: fmt.Sprintf("malformed let-form, expected 7 children, got %d", len(children))}
	}

	flavor, err := letFlavorOf(children[1])
	if err != nil {
		return nil, err
	}

	var bindings []fxast.Binding
	for _, b := range children[3].GetChildren() {
		bc := b.GetChildren()
		if len(bc) != 4 {
			return nil, &fxerr.Parse{Message: fmt.Sprintf("malformed binding, expected 4 children, got %d", len(bc))}
		}
		expr, err := p.FromExpr(bc[2])
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, fxast.Binding{Name: identText(bc[1]), Expr: expr})
	}

	bodyNodes := children[5].GetChildren()
	if len(bodyNodes) == 0 {
		return nil, &fxerr.Parse{Message: "let-form body must contain at least one expression"}
	}
	body := &fxast.ExprSeq{}
	for _, bn := range bodyNodes {
		expr, err := p.FromExpr(bn)
		if err != nil {
			return nil, err
		}
		body.Exprs = append(body.Exprs, expr)
	}

	return &fxast.Let{Flavor: flavor, Bindings: bindings, Body: body}, nil
}

func (p *Parser) handleProcCall(node pc.Queryable) (fxast.Node, error) {
	children := node.GetChildren()
	if len(children) != 4 {
		return nil, &fxerr.Parse{Message: fmt.Sprintf("malformed procedure call, expected 4 children, got %d", len(children))}
	}

	name := identText(children[1])
	descriptor, ok := prim.Lookup(name)
	if !ok {
		return nil, &fxerr.UnknownPrimitive{Name: name}
	}

	operandNodes := children[2].GetChildren()
	if len(operandNodes) != descriptor.Arity {
		return nil, &fxerr.ArityMismatch{Name: name, Want: descriptor.Arity, Got: len(operandNodes)}
	}

	operands := make([]fxast.Node, len(operandNodes))
	for i, on := range operandNodes {
		expr, err := p.FromExpr(on)
		if err != nil {
			return nil, err
		}
		operands[i] = expr
	}

	switch descriptor.Arity {
	case 1:
		return &fxast.PrimEval1{Prim: descriptor, Arg: operands[0]}, nil
	case 2:
		return &fxast.PrimEval2{Prim: descriptor, Arg1: operands[0], Arg2: operands[1]}, nil
	default:
		panic(fmt.Sprintf("primitive %q has unsupported arity %d", name, descriptor.Arity))
	}
}

func letFlavorOf(node pc.Queryable) (fxast.LetFlavor, error) {
	switch node.GetName() {
	case "LET":
		return fxast.LetPlain, nil
	case "LETSTAR":
		return fxast.LetStar, nil
	case "LETREC":
		return fxast.LetRec, nil
	default:
		return 0, &fxerr.Parse{Message: fmt.Sprintf("unrecognized let keyword node %q", node.GetName())}
	}
}

func identText(node pc.Queryable) string {
	text := node.GetValue()
	if node.GetName() == "QIDENT" {
		return text[1 : len(text)-1]
	}
	return text
}

var namedChars = map[string]byte{
	"alarm": 0x7, "backspace": 0x8, "delete": 0x7f, "escape": 0x1b,
	"newline": 0xa, "null": 0x0, "return": 0xd, "space": ' ', "tab": 0x9,
}

func decodeNamedChar(text string) (byte, error) {
	// text is the full match, e.g. `#\newline`; strip the two-character prefix.
	name := text[2:]
	b, ok := namedChars[name]
	if !ok {
		return 0, &fxerr.Parse{Message: fmt.Sprintf("unknown named character %q", text)}
	}
	return b, nil
}

// stripComments blanks out every line comment (';' to end of line) in
// source, replacing each character with a space so byte offsets and line
// numbers are undisturbed. goparsec's scanner only skips whitespace between
// tokens, not comments, and the grammar has no rule for "a comment may occur
// between any two tokens" without threading it through every production —
// so comments are removed in a pre-pass instead, which makes them skippable
// anywhere, including nested inside a form, not just between top-level
// commands.
//
// A ';' inside a character literal (the bare form #\; or, in principle, any
// #\<letter-run> that happened to start with one) is not a comment, so the
// pre-pass recognises and skips over #\ character literals whole rather than
// scanning byte by byte past them.
func stripComments(source []byte) []byte {
	out := make([]byte, len(source))
	copy(out, source)

	i := 0
	for i < len(out) {
		switch {
		case out[i] == '#' && i+1 < len(out) && out[i+1] == '\\':
			i += 2
			if i < len(out) && isCharLiteralLetter(out[i]) {
				for i < len(out) && isCharLiteralLetter(out[i]) {
					i++
				}
			} else if i < len(out) {
				i++
			}
		case out[i] == ';':
			for i < len(out) && out[i] != '\n' {
				out[i] = ' '
				i++
			}
		default:
			i++
		}
	}
	return out
}

func isCharLiteralLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
