package codegen

import (
	"bytes"
	"strings"
	"testing"

	"fxc.dev/fxc/pkg/ast"
	"fxc.dev/fxc/pkg/prim"
)

func mustPrim(t *testing.T, name string) *prim.Descriptor {
	t.Helper()
	d, ok := prim.Lookup(name)
	if !ok {
		t.Fatalf("test setup: %q is not a registered primitive", name)
	}
	return d
}

func generate(t *testing.T, program *ast.Program) string {
	t.Helper()
	var buf bytes.Buffer
	g := NewGenerator(&buf, Linux)
	if err := g.Generate(program); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	return buf.String()
}

func TestGenerateImmediates(t *testing.T) {
	test := func(name string, node ast.Node, wantMnemonic string) {
		t.Run(name, func(t *testing.T) {
			out := generate(t, &ast.Program{Commands: []ast.Node{node}})
			if !strings.Contains(out, wantMnemonic) {
				t.Fatalf("output for %s missing %q:\n%s", name, wantMnemonic, out)
			}
		})
	}

	test("fixnum", &ast.Fixnum{Value: 42}, "movl $85, %eax")
	test("bool true", &ast.Bool{Value: true}, "movabsq $17179869188, %rax")
	test("null", &ast.Null{}, "movl $12, %eax")
}

func TestGenerateIfEmitsTwoLabelsAndBranch(t *testing.T) {
	prog := &ast.Program{Commands: []ast.Node{
		&ast.If{Cond: &ast.Bool{Value: false}, Then: &ast.Fixnum{Value: 1}, Else: &ast.Fixnum{Value: 2}},
	}}
	out := generate(t, prog)

	for _, want := range []string{"cmpq $4, %rax", "je .Lelse0", "jmp .Lendif1", ".Lelse0:", ".Lendif1:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("if-output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateLetExtendsAndSpillsDistinctOffsets(t *testing.T) {
	prog := &ast.Program{Commands: []ast.Node{
		&ast.Let{
			Flavor: ast.LetPlain,
			Bindings: []ast.Binding{
				{Name: "x", Expr: &ast.Fixnum{Value: 10}},
				{Name: "y", Expr: &ast.Fixnum{Value: 20}},
			},
			Body: &ast.ExprSeq{Exprs: []ast.Node{&ast.PrimEval2{
				Prim: mustPrim(t, "fx+"),
				Arg1: &ast.Id{Name: "x"},
				Arg2: &ast.Id{Name: "y"},
			}}},
		},
	}}
	out := generate(t, prog)

	if !strings.Contains(out, "movq %rax, -8(%rsp)") || !strings.Contains(out, "movq %rax, -16(%rsp)") {
		t.Fatalf("let did not spill bindings at strictly increasing offsets:\n%s", out)
	}
}

func TestGenerateUnboundIdentifierFails(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Linux)
	err := g.Generate(&ast.Program{Commands: []ast.Node{&ast.Id{Name: "y"}}})
	if err == nil {
		t.Fatalf("expected an UnboundIdentifier error, got nil")
	}
}

func TestThreeBindingLetOffsetsStrictlyIncrease(t *testing.T) {
	// A three-binding let must spill at three strictly increasing offsets,
	// none of which alias an already-active binding's slot.
	let := &ast.Let{
		Flavor: ast.LetPlain,
		Bindings: []ast.Binding{
			{Name: "a", Expr: &ast.Fixnum{Value: 1}},
			{Name: "b", Expr: &ast.Fixnum{Value: 2}},
			{Name: "c", Expr: &ast.Fixnum{Value: 3}},
		},
		Body: &ast.ExprSeq{Exprs: []ast.Node{&ast.Id{Name: "c"}}},
	}
	out := generate(t, &ast.Program{Commands: []ast.Node{let}})

	for _, want := range []string{"-8(%rsp)", "-16(%rsp)", "-24(%rsp)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing spill at offset %q:\n%s", want, out)
		}
	}
}
