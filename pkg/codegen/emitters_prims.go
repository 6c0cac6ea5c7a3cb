package codegen

import (
	"fmt"

	"fxc.dev/fxc/pkg/value"
)

// emitPrim1Body emits the fixed instruction sequence for a unary
// primitive. The argument's value is already in %rax; each case leaves the
// correctly tagged result there. The exact pre/post tag manipulation below
// mirrors SPEC_FULL.md §4.5.3 — it must stay consistent with pkg/value's
// constants, since both are wire format baked into the emitted text.
func (g *Generator) emitPrim1Body(name string) error {
	switch name {
	case "fxadd1":
		g.line("addq $%d, %%rax", 1<<value.FxShift)
	case "fxsub1":
		g.line("subq $%d, %%rax", 1<<value.FxShift)
	case "fxzero?":
		g.line("cmpq $%d, %%rax", value.EncodeFixnum(0))
		g.materializeBool("cmovne")
	case "char->fixnum":
		g.line("sarq $%d, %%rax", value.CharShift)
		g.line("shlq $%d, %%rax", value.FxShift)
		g.line("orq $%d, %%rax", value.FxTag)
	case "fixnum->char":
		g.line("sarq $%d, %%rax", value.FxShift)
		g.line("shlq $%d, %%rax", value.CharShift)
		g.line("orq $%d, %%rax", value.CharTag)
	case "fixnum?":
		g.testMask(value.FxMask, value.FxTag)
	case "boolean?":
		g.testMask(value.BoolMask, value.BoolTag)
	case "char?":
		g.testMask(value.CharMask, value.CharTag)
	case "null?":
		g.line("cmpq $%d, %%rax", value.NullConst)
		g.materializeBool("cmovne")
	case "not":
		// #f is the only falsy value, so 'not' is true exactly when the
		// argument equals the #f constant.
		g.line("cmpq $%d, %%rax", value.FalseConst)
		g.materializeBool("cmovne")
	case "fxlognot":
		g.line("sarq $%d, %%rax", value.FxShift)
		g.line("notq %%rax")
		g.line("shlq $%d, %%rax", value.FxShift)
		g.line("orq $%d, %%rax", value.FxTag)
	default:
		panic(fmt.Sprintf("codegen: %q is not a registered unary primitive emitter", name))
	}
	return nil
}

// emitPrim2Body emits the fixed instruction sequence for a binary
// primitive. Argument 1's tagged value sits spilled at -si(%rsp); argument
// 2's is in %rax. Each case leaves the correctly tagged result in %rax.
//
// The arithmetic cases touch no general-purpose register besides %rax: the
// spill slot at -si(%rsp) is operated on directly (x86-64 arithmetic and
// compare instructions take a memory operand). The comparison cases also use
// %rdx, as materializeBool's holder for the #f constant. None of them uses
// %rcx, and this matters beyond style: %rcx holds the host's saved %rsp across the whole
// compiled program (see emitEpilogue's scheme_entry thunk), so any primitive
// that clobbered it would corrupt the stack-pointer restore on return.
func (g *Generator) emitPrim2Body(name string, si int) error {
	switch name {
	case "fx+":
		// Untag one operand only: its tag bit cancels against the other
		// operand's, which stays tagged, so the sum is tagged automatically.
		g.line("xorq $%d, %%rax", value.FxMask)
		g.line("addq -%d(%%rsp), %%rax", si)
	case "fx-":
		// mem := arg1_tagged - arg2_tagged = 2*(arg1-arg2); the tag bits
		// (both 1) cancel in the subtraction, so only the low tag bit needs
		// restoring once the difference is back in %rax.
		g.line("subq %%rax, -%d(%%rsp)", si)
		g.line("movq -%d(%%rsp), %%rax", si)
		g.line("orq $%d, %%rax", value.FxTag)
	case "fx*":
		g.line("sarq $%d, %%rax", value.FxShift)
		g.line("sarq $%d, -%d(%%rsp)", value.FxShift, si)
		g.line("imulq -%d(%%rsp), %%rax", si)
		g.line("shlq $%d, %%rax", value.FxShift)
		g.line("orq $%d, %%rax", value.FxTag)
	case "fxlogand":
		// Both operands share the fixnum tag bit, which AND preserves.
		g.line("andq -%d(%%rsp), %%rax", si)
	case "fxlogor":
		g.line("orq -%d(%%rsp), %%rax", si)
	case "fx=", "fx<", "fx<=", "fx>", "fx>=", "char=", "char<", "char<=", "char>", "char>=":
		g.emitComparison(name, si)
	default:
		panic(fmt.Sprintf("codegen: %q is not a registered binary primitive emitter", name))
	}
	return nil
}

// emitComparison handles both the fixnum and character ordered-comparison
// families. Both encodings are order-preserving affine transforms of the
// underlying value (encode(x) = k*x + tag for a fixed positive k), so
// comparing the tagged words directly yields the same ordering as
// comparing the decoded payloads — no untagging is needed, unlike the
// arithmetic primitives above, where the tag bits would otherwise corrupt
// the magnitude of an add/subtract/multiply.
func (g *Generator) emitComparison(name string, si int) {
	g.line("cmpq %%rax, -%d(%%rsp)", si) // flags = arg1 - arg2, no scratch register needed

	switch name {
	case "fx=", "char=":
		g.materializeBool("cmovne")
	case "fx<", "char<":
		g.materializeBool("cmovge")
	case "fx<=", "char<=":
		g.materializeBool("cmovg")
	case "fx>", "char>":
		g.materializeBool("cmovle")
	case "fx>=", "char>=":
		g.materializeBool("cmovl")
	}
}

// materializeBool loads %rax with the true constant, %rdx with the false
// constant, then conditionally overwrites %rax with %rdx using invertedCC —
// the condition under which the comparison just emitted did NOT hold. This
// implements "materialise #t/#f using a conditional move between the two
// tagged constants" (SPEC_FULL.md §4.5.3) without a branch.
func (g *Generator) materializeBool(invertedCC string) {
	g.line("movabsq $%d, %%rax", value.TrueConst)
	g.line("movl $%d, %%edx", value.FalseConst)
	g.line("%s %%rdx, %%rax", invertedCC)
}

// testMask sets %rax to a tagged boolean according to whether %rax, masked,
// equals tag. The argument's own value is discarded either way, so the mask
// is applied to %rax in place rather than a scratch copy.
func (g *Generator) testMask(mask, tag uint64) {
	g.line("andq $%d, %%rax", mask)
	g.line("cmpq $%d, %%rax", tag)
	g.materializeBool("cmovne")
}
