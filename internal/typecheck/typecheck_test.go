package typecheck

import (
	"testing"

	"github.com/cobold-lang/cobold/internal/ast"
	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/parser"
	"github.com/cobold-lang/cobold/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkSource(t *testing.T, src string) (*ast.SourceFile, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	p := parser.New("t.cbld", []byte(src), bag)
	sf := p.Parse()
	require.False(t, bag.HasErrors(), "unexpected parse errors: %v", bag.Items())
	c := New(bag, "__lib_malloc")
	return c.Check(sf), bag
}

func TestDeclarationTypeInference(t *testing.T) {
	sf, bag := checkSource(t, `fn Main() -> i32 { var x = 5; return 0; }`)
	require.False(t, bag.HasErrors())
	decl := sf.Functions[0].Body.Stmts[0].(*ast.Declaration)
	assert.Same(t, types.Integral(64), decl.DeclType)
}

func TestDashWithoutDeclaredTypeIsError(t *testing.T) {
	_, bag := checkSource(t, `fn Main() -> i32 { let x = --; return 0; }`)
	assert.True(t, bag.HasErrors())
}

func TestDuplicateDeclarationInSameScopeIsError(t *testing.T) {
	_, bag := checkSource(t, `fn Main() -> i32 { var x: i32 = 1; var x: i32 = 2; return 0; }`)
	assert.True(t, bag.HasErrors())
}

func TestExplicitCastInsertedOnDeclarationTypeMismatch(t *testing.T) {
	sf, bag := checkSource(t, `fn Main() -> i32 { let x: i32 = 5; return 0; }`)
	require.False(t, bag.HasErrors())
	decl := sf.Functions[0].Body.Stmts[0].(*ast.Declaration)
	cast, ok := decl.Init.(*ast.Cast)
	require.True(t, ok)
	assert.Same(t, types.Integral(32), cast.TargetType)
}

func TestReturnOfIncompatibleTypeIsError(t *testing.T) {
	_, bag := checkSource(t, `fn Main() -> i32 { return "s"; }`)
	assert.True(t, bag.HasErrors())
}

func TestCompoundAssignmentDesugars(t *testing.T) {
	sf, bag := checkSource(t, `fn Main() -> i32 { var x: i64 = 1; x += 2; return x; }`)
	require.False(t, bag.HasErrors())
	assign := sf.Functions[0].Body.Stmts[1].(*ast.Assignment)
	assert.Equal(t, ast.AssignEq, assign.Op)
	bin, ok := assign.Rhs.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
}

func TestWhileUnboundedRangeBecomesTrue(t *testing.T) {
	sf, bag := checkSource(t, `fn Main() -> i32 { while ([..]) { break; } return 0; }`)
	require.False(t, bag.HasErrors())
	w := sf.Functions[0].Body.Stmts[0].(*ast.While)
	c, ok := w.Cond.(*ast.Constant)
	require.True(t, ok)
	assert.Equal(t, ast.ConstBool, c.Kind)
	assert.True(t, c.BoolValue)
}

func TestForInfersElementTypeFromRange(t *testing.T) {
	sf, bag := checkSource(t, `fn Main() -> i32 { for i in [1..11] { } return 0; }`)
	require.False(t, bag.HasErrors())
	forStmt := sf.Functions[0].Body.Stmts[0].(*ast.For)
	assert.Same(t, types.Integral(64), forStmt.DeclType)
}

func TestNoResidualMallocAfterCheck(t *testing.T) {
	sf, bag := checkSource(t, `fn Main() -> i32* { return malloc(i32, 4); }`)
	require.False(t, bag.HasErrors())
	ret := sf.Functions[0].Body.Stmts[0].(*ast.Return)
	cast, ok := ret.Expr.(*ast.Cast)
	require.True(t, ok, "malloc should desugar to a cast around a call")
	assert.Same(t, types.PointerTo(types.Integral(32)), cast.TargetType)
	call, ok := cast.Operand.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "__lib_malloc", call.Name)

	var walk func(e ast.Expr) bool
	walk = func(e ast.Expr) bool {
		if _, isMalloc := e.(*ast.Malloc); isMalloc {
			return true
		}
		switch n := e.(type) {
		case *ast.Cast:
			return walk(n.Operand)
		case *ast.Call:
			for _, a := range n.Args {
				if walk(a) {
					return true
				}
			}
		case *ast.Binary:
			return walk(n.Lhs) || walk(n.Rhs)
		}
		return false
	}
	assert.False(t, walk(ret.Expr))
}

func TestMemberAccessIsRejected(t *testing.T) {
	_, bag := checkSource(t, `fn Main() -> i32 { var p: i32* = --; return p->x; }`)
	assert.True(t, bag.HasErrors())
}

func TestCallArgumentCountMismatchIsError(t *testing.T) {
	_, bag := checkSource(t, `fn Add(a: i32, b: i32) -> i32 { return a + b; } fn Main() -> i32 { return Add(1); }`)
	assert.True(t, bag.HasErrors())
}

func TestTernaryUnification(t *testing.T) {
	sf, bag := checkSource(t, `fn Main() -> i32 { var x: i32 = true ? 1 : 2; return 0; }`)
	require.False(t, bag.HasErrors())
	decl := sf.Functions[0].Body.Stmts[0].(*ast.Declaration)
	_, ok := decl.Init.(*ast.Cast)
	assert.True(t, ok)
}
