package lower

import (
	"strings"
	"testing"

	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/parser"
	"github.com/cobold-lang/cobold/internal/typecheck"
	"github.com/cobold-lang/cobold/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowerSource(t *testing.T, src string) (string, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	p := parser.New("t.cbld", []byte(src), bag)
	sf := p.Parse()
	require.False(t, bag.HasErrors(), "unexpected parse errors: %v", bag.Items())

	c := typecheck.New(bag, "__lib_malloc")
	sf = c.Check(sf)
	require.False(t, bag.HasErrors(), "unexpected typecheck errors: %v", bag.Items())

	lw := New(bag)
	mod := lw.Lower(sf)
	return mod.String(), bag
}

func TestLowerMinimalMainProducesEntryPoint(t *testing.T) {
	ir, bag := lowerSource(t, `fn Main() -> i32 { return 0; }`)
	assert.False(t, bag.HasErrors())
	assert.Contains(t, ir, "define i32 @main(i32 %argc, i8** %argv)")
	assert.Contains(t, ir, "call i32 @Main()")
}

func TestLowerExternFunctionDeclaration(t *testing.T) {
	ir, bag := lowerSource(t, `
fn Puts(s: i32) -> i32 #extern("puts");
fn Main() -> i32 { return Puts(1); }
`)
	assert.False(t, bag.HasErrors())
	assert.Contains(t, ir, "declare i32 @puts")
}

func TestLowerArithmeticAndCall(t *testing.T) {
	ir, bag := lowerSource(t, `
fn Add(a: i32, b: i32) -> i32 { return a + b; }
fn Main() -> i32 { return Add(1, 2); }
`)
	assert.False(t, bag.HasErrors())
	assert.Contains(t, ir, "add i32")
	assert.Contains(t, ir, "call i32")
}

func TestLowerIfWithSyntheticElse(t *testing.T) {
	ir, bag := lowerSource(t, `
fn Main() -> i32 {
	if (true) {
		return 1;
	}
	return 0;
}
`)
	assert.False(t, bag.HasErrors())
	assert.Contains(t, ir, "br")
	assert.Contains(t, ir, "if.end")
}

func TestLowerForLoopUsesSignedComparison(t *testing.T) {
	ir, bag := lowerSource(t, `
fn Main() -> i32 {
	var total: i32 = 0;
	for i in [1..11] {
		total += 1;
	}
	return total;
}
`)
	assert.False(t, bag.HasErrors())
	assert.True(t, strings.Contains(ir, "icmp slt"), "expected a signed loop-continuation comparison")
}

func TestLowerTernaryBuildsPhi(t *testing.T) {
	ir, bag := lowerSource(t, `
fn Main() -> i32 {
	var x: i32 = true ? 1 : 2;
	return x;
}
`)
	assert.False(t, bag.HasErrors())
	assert.Contains(t, ir, "phi")
}

func TestLowerMallocDesugarsToAllocatorCallAndBitcast(t *testing.T) {
	ir, bag := lowerSource(t, `
fn Main() -> i32* {
	return malloc(i32, 4);
}
`)
	assert.False(t, bag.HasErrors())
	assert.Contains(t, ir, "call i8* @__lib_malloc")
	assert.Contains(t, ir, "bitcast")
}

func TestLLTypeMapping(t *testing.T) {
	assert.Equal(t, "i1", LLType(types.Bool()).String())
	assert.Equal(t, "i8", LLType(types.Char()).String())
	assert.Equal(t, "i32", LLType(types.Integral(32)).String())
	assert.Equal(t, "float", LLType(types.Floating(32)).String())
	assert.Equal(t, "double", LLType(types.Floating(64)).String())
	assert.Equal(t, StringType.String(), LLType(types.String()).String())
	assert.Equal(t, "i32*", LLType(types.PointerTo(types.Integral(32))).String())
}

func TestAllocSizeMapping(t *testing.T) {
	assert.Equal(t, int64(1), AllocSize(types.Bool()))
	assert.Equal(t, int64(4), AllocSize(types.Integral(32)))
	assert.Equal(t, int64(8), AllocSize(types.Integral(64)))
	assert.Equal(t, int64(8), AllocSize(types.PointerTo(types.Integral(32))))
	assert.Equal(t, int64(16), AllocSize(types.String()))
}
