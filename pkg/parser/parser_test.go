package parser

import (
	"strings"
	"testing"

	fxast "fxc.dev/fxc/pkg/ast"
	"fxc.dev/fxc/pkg/fxerr"
)

func parse(t *testing.T, source string) *fxast.Program {
	t.Helper()
	p := NewParser(strings.NewReader(source))
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse(%q): unexpected error: %v", source, err)
	}
	return program
}

func parseErr(t *testing.T, source string) error {
	t.Helper()
	p := NewParser(strings.NewReader(source))
	program, err := p.Parse()
	if err == nil {
		t.Fatalf("Parse(%q): expected an error, got program %+v", source, program)
	}
	return err
}

func TestParseImmediates(t *testing.T) {
	program := parse(t, "42")
	if len(program.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(program.Commands))
	}
	fx, ok := program.Commands[0].(*fxast.Fixnum)
	if !ok || fx.Value != 42 {
		t.Fatalf("expected Fixnum{42}, got %#v", program.Commands[0])
	}
}

func TestParseNegativeFixnum(t *testing.T) {
	program := parse(t, "-7")
	fx, ok := program.Commands[0].(*fxast.Fixnum)
	if !ok || fx.Value != -7 {
		t.Fatalf("expected Fixnum{-7}, got %#v", program.Commands[0])
	}
}

func TestParseBooleansAndNull(t *testing.T) {
	program := parse(t, "#t #f ()")
	if len(program.Commands) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(program.Commands))
	}
	if b, ok := program.Commands[0].(*fxast.Bool); !ok || !b.Value {
		t.Errorf("expected Bool{true}, got %#v", program.Commands[0])
	}
	if b, ok := program.Commands[1].(*fxast.Bool); !ok || b.Value {
		t.Errorf("expected Bool{false}, got %#v", program.Commands[1])
	}
	if _, ok := program.Commands[2].(*fxast.Null); !ok {
		t.Errorf("expected Null{}, got %#v", program.Commands[2])
	}
}

func TestParseNamedAndBareChar(t *testing.T) {
	program := parse(t, `#\newline #\a`)
	c0, ok := program.Commands[0].(*fxast.Char)
	if !ok || c0.Value != 0xa {
		t.Fatalf("expected Char{0xa}, got %#v", program.Commands[0])
	}
	c1, ok := program.Commands[1].(*fxast.Char)
	if !ok || c1.Value != 'a' {
		t.Fatalf("expected Char{'a'}, got %#v", program.Commands[1])
	}
}

func TestParseIfExpr(t *testing.T) {
	program := parse(t, "(if #t 1 2)")
	ifNode, ok := program.Commands[0].(*fxast.If)
	if !ok {
		t.Fatalf("expected If, got %#v", program.Commands[0])
	}
	if _, ok := ifNode.Cond.(*fxast.Bool); !ok {
		t.Errorf("expected Bool condition, got %#v", ifNode.Cond)
	}
	then, ok := ifNode.Then.(*fxast.Fixnum)
	if !ok || then.Value != 1 {
		t.Errorf("expected Fixnum{1} then-branch, got %#v", ifNode.Then)
	}
}

func TestParseLetStarAndLetrecDistinctFlavors(t *testing.T) {
	program := parse(t, "(let* ((x 1) (y 2)) (fx+ x y))")
	let, ok := program.Commands[0].(*fxast.Let)
	if !ok {
		t.Fatalf("expected Let, got %#v", program.Commands[0])
	}
	if let.Flavor != fxast.LetStar {
		t.Errorf("expected LetStar, got %v", let.Flavor)
	}
	if len(let.Bindings) != 2 || let.Bindings[0].Name != "x" || let.Bindings[1].Name != "y" {
		t.Fatalf("unexpected bindings: %#v", let.Bindings)
	}

	program = parse(t, "(letrec ((x 1)) x)")
	let, ok = program.Commands[0].(*fxast.Let)
	if !ok || let.Flavor != fxast.LetRec {
		t.Fatalf("expected LetRec, got %#v", program.Commands[0])
	}
}

func TestParsePlainLetKeywordNotConfusedWithLetStar(t *testing.T) {
	program := parse(t, "(let ((x 1)) x)")
	let, ok := program.Commands[0].(*fxast.Let)
	if !ok || let.Flavor != fxast.LetPlain {
		t.Fatalf("expected LetPlain, got %#v", program.Commands[0])
	}
}

func TestParseProcCall(t *testing.T) {
	program := parse(t, "(fx+ 1 2)")
	call, ok := program.Commands[0].(*fxast.PrimEval2)
	if !ok {
		t.Fatalf("expected PrimEval2, got %#v", program.Commands[0])
	}
	if call.Prim.Name != "fx+" {
		t.Errorf("expected fx+, got %q", call.Prim.Name)
	}
}

func TestParseUnaryPrimCall(t *testing.T) {
	program := parse(t, "(fxadd1 41)")
	call, ok := program.Commands[0].(*fxast.PrimEval1)
	if !ok || call.Prim.Name != "fxadd1" {
		t.Fatalf("expected PrimEval1{fxadd1}, got %#v", program.Commands[0])
	}
}

func TestParseUnknownPrimitiveIsRejected(t *testing.T) {
	err := parseErr(t, "(fxfrobnicate 1)")
	if _, ok := err.(*fxerr.UnknownPrimitive); !ok {
		t.Errorf("expected *fxerr.UnknownPrimitive, got %#v", err)
	}
}

func TestParseArityMismatchIsRejected(t *testing.T) {
	err := parseErr(t, "(fx+ 1)")
	if _, ok := err.(*fxerr.ArityMismatch); !ok {
		t.Errorf("expected *fxerr.ArityMismatch, got %#v", err)
	}
}

func TestParseTrailingGarbageRejected(t *testing.T) {
	parseErr(t, "1 )")
}

func TestParseEmptyProgramRejected(t *testing.T) {
	parseErr(t, "")
}

func TestParseQuotedIdentifier(t *testing.T) {
	program := parse(t, "(let ((|weird name| 1)) |weird name|)")
	let, ok := program.Commands[0].(*fxast.Let)
	if !ok || let.Bindings[0].Name != "weird name" {
		t.Fatalf("expected binding named \"weird name\", got %#v", program.Commands[0])
	}
}

func TestParseCommentsAreSkipped(t *testing.T) {
	program := parse(t, "; a leading comment\n42")
	if len(program.Commands) != 1 {
		t.Fatalf("expected comment to be skipped, got %d commands", len(program.Commands))
	}
	if _, ok := program.Commands[0].(*fxast.Fixnum); !ok {
		t.Fatalf("expected Fixnum, got %#v", program.Commands[0])
	}
}

func TestParseCommentNestedInsideFormIsSkipped(t *testing.T) {
	program := parse(t, "(fx+ 1 ; note\n2)")
	call, ok := program.Commands[0].(*fxast.PrimEval2)
	if !ok || call.Prim.Name != "fx+" {
		t.Fatalf("expected PrimEval2{fx+}, got %#v", program.Commands[0])
	}
	a1, ok := call.Arg1.(*fxast.Fixnum)
	if !ok || a1.Value != 1 {
		t.Fatalf("expected Arg1 Fixnum{1}, got %#v", call.Arg1)
	}
	a2, ok := call.Arg2.(*fxast.Fixnum)
	if !ok || a2.Value != 2 {
		t.Fatalf("expected Arg2 Fixnum{2}, got %#v", call.Arg2)
	}
}

func TestParseCommentDoesNotSwallowCharLiteralSemicolon(t *testing.T) {
	program := parse(t, `#\;`)
	c, ok := program.Commands[0].(*fxast.Char)
	if !ok || c.Value != ';' {
		t.Fatalf("expected Char{';'}, got %#v", program.Commands[0])
	}
}
