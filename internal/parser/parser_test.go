package parser

import (
	"testing"

	"github.com/cobold-lang/cobold/internal/ast"
	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*ast.SourceFile, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	p := New("t.cbld", []byte(src), bag)
	return p.Parse(), bag
}

func TestParseFunctionSignature(t *testing.T) {
	sf, bag := parse(t, `fn Add(a: i32, b: i32) -> i32 { return a + b; }`)
	require.False(t, bag.HasErrors())
	require.Len(t, sf.Functions, 1)

	fn := sf.Functions[0]
	assert.Equal(t, "Add", fn.Name)
	require.Len(t, fn.Args, 2)
	assert.Equal(t, "a", fn.Args[0].Name)
	assert.Same(t, types.Integral(32), fn.Args[0].Type)
	assert.Same(t, types.Integral(32), fn.ReturnType)
	require.NotNil(t, fn.Body)
	require.Len(t, fn.Body.Stmts, 1)
}

func TestParseExternFunction(t *testing.T) {
	sf, bag := parse(t, `fn Puts(s: string) -> nil #extern("puts");`)
	require.False(t, bag.HasErrors())
	fn := sf.Functions[0]
	assert.True(t, fn.IsExternal())
	assert.Equal(t, "puts", fn.ExternSymbol)
}

func TestParseDefaultReturnType(t *testing.T) {
	sf, _ := parse(t, `fn DoNothing() { }`)
	assert.Same(t, types.Nil(), sf.Functions[0].ReturnType)
}

func TestIfSynthesizesFinalTrueBranch(t *testing.T) {
	t.Run("without else", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { if (true) { return 1; } return 0; }`)
		require.False(t, bag.HasErrors())
		ifStmt := sf.Functions[0].Body.Stmts[0].(*ast.If)
		require.Len(t, ifStmt.Branches, 2)
		assert.True(t, ast.IsSyntheticElse(ifStmt.Branches[1]))
	})

	t.Run("with else", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { if (true) { return 1; } else { return 2; } return 0; }`)
		require.False(t, bag.HasErrors())
		ifStmt := sf.Functions[0].Body.Stmts[0].(*ast.If)
		require.Len(t, ifStmt.Branches, 2)
		last := ifStmt.Branches[1]
		cond, ok := last.Cond.(*ast.Constant)
		require.True(t, ok)
		assert.Equal(t, ast.ConstBool, cond.Kind)
		assert.True(t, cond.BoolValue)
		assert.Len(t, last.Body.Stmts, 1)
	})

	t.Run("else if chain", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { if (false) { return 1; } else if (true) { return 2; } return 0; }`)
		require.False(t, bag.HasErrors())
		ifStmt := sf.Functions[0].Body.Stmts[0].(*ast.If)
		require.Len(t, ifStmt.Branches, 3)
		assert.True(t, ast.IsSyntheticElse(ifStmt.Branches[2]))
	})
}

func TestBinaryPrecedence(t *testing.T) {
	sf, bag := parse(t, `fn Main() -> i32 { return 1 + 2 * 3; }`)
	require.False(t, bag.HasErrors())
	ret := sf.Functions[0].Body.Stmts[0].(*ast.Return)
	bin := ret.Expr.(*ast.Binary)
	assert.Equal(t, ast.OpAdd, bin.Op)
	_, lhsIsConst := bin.Lhs.(*ast.Constant)
	assert.True(t, lhsIsConst)
	rhs := bin.Rhs.(*ast.Binary)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestLeftAssociativeChain(t *testing.T) {
	sf, bag := parse(t, `fn Main() -> i32 { return 1 - 2 - 3; }`)
	require.False(t, bag.HasErrors())
	ret := sf.Functions[0].Body.Stmts[0].(*ast.Return)
	top := ret.Expr.(*ast.Binary)
	// (1 - 2) - 3 : outer rhs is the literal 3, outer lhs is the (1-2) subtree.
	_, rhsIsConst := top.Rhs.(*ast.Constant)
	assert.True(t, rhsIsConst)
	_, lhsIsBinary := top.Lhs.(*ast.Binary)
	assert.True(t, lhsIsBinary)
}

func TestCastVsGroupingDisambiguation(t *testing.T) {
	t.Run("cast of a scalar type", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { let x: i64 = (i64) 5; return 0; }`)
		require.False(t, bag.HasErrors())
		decl := sf.Functions[0].Body.Stmts[0].(*ast.Declaration)
		cast, ok := decl.Init.(*ast.Cast)
		require.True(t, ok)
		assert.Same(t, types.Integral(64), cast.TargetType)
	})

	t.Run("parenthesized grouping of an identifier", func(t *testing.T) {
		sf, bag := parse(t, `fn Main(x: i32) -> i32 { return (x); }`)
		require.False(t, bag.HasErrors())
		ret := sf.Functions[0].Body.Stmts[0].(*ast.Return)
		_, isIdent := ret.Expr.(*ast.Identifier)
		assert.True(t, isIdent)
	})

	t.Run("parenthesized arithmetic expression", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { return (1 + 2) * 3; }`)
		require.False(t, bag.HasErrors())
		ret := sf.Functions[0].Body.Stmts[0].(*ast.Return)
		top := ret.Expr.(*ast.Binary)
		assert.Equal(t, ast.OpMul, top.Op)
		_, lhsIsBinary := top.Lhs.(*ast.Binary)
		assert.True(t, lhsIsBinary)
	})
}

func TestArrayVsRangeLiteral(t *testing.T) {
	t.Run("array literal", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { var a: [i32] = [1, 2, 3]; return 0; }`)
		require.False(t, bag.HasErrors())
		decl := sf.Functions[0].Body.Stmts[0].(*ast.Declaration)
		arr, ok := decl.Init.(*ast.ArrayExpr)
		require.True(t, ok)
		assert.Len(t, arr.Elements, 3)
	})

	t.Run("empty array literal", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { var a: [i32] = []; return 0; }`)
		require.False(t, bag.HasErrors())
		decl := sf.Functions[0].Body.Stmts[0].(*ast.Declaration)
		arr, ok := decl.Init.(*ast.ArrayExpr)
		require.True(t, ok)
		assert.Len(t, arr.Elements, 0)
	})

	t.Run("bounded range literal", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { for i in [1..11] { } return 0; }`)
		require.False(t, bag.HasErrors())
		forStmt := sf.Functions[0].Body.Stmts[0].(*ast.For)
		rng, ok := forStmt.Iterable.(*ast.RangeExpr)
		require.True(t, ok)
		require.NotNil(t, rng.Lhs)
		require.NotNil(t, rng.Rhs)
	})

	t.Run("fully unbounded range literal", func(t *testing.T) {
		sf, bag := parse(t, `fn Main() -> i32 { while ([..]) { break; } return 0; }`)
		require.False(t, bag.HasErrors())
		whileStmt := sf.Functions[0].Body.Stmts[0].(*ast.While)
		rng, ok := whileStmt.Cond.(*ast.RangeExpr)
		require.True(t, ok)
		assert.True(t, rng.Unbounded())
	})
}

func TestDeclarationWithoutInitializerIsDash(t *testing.T) {
	sf, bag := parse(t, `fn Main() -> i32 { var p: i32*; return 0; }`)
	require.False(t, bag.HasErrors())
	decl := sf.Functions[0].Body.Stmts[0].(*ast.Declaration)
	c, ok := decl.Init.(*ast.Constant)
	require.True(t, ok)
	assert.Equal(t, ast.ConstDash, c.Kind)
}

func TestCompoundAssignmentIsPreserved(t *testing.T) {
	sf, bag := parse(t, `fn Main() -> i32 { var x: i32 = 1; x += 2; return x; }`)
	require.False(t, bag.HasErrors())
	assign := sf.Functions[0].Body.Stmts[1].(*ast.Assignment)
	assert.Equal(t, ast.AssignAddEq, assign.Op)
}

func TestSyntaxErrorRecoveryContinuesParsingNextFunction(t *testing.T) {
	sf, bag := parse(t, `fn Broken( -> i32 { return 1; } fn Main() -> i32 { return 2; }`)
	assert.True(t, bag.HasErrors())
	require.Len(t, sf.Functions, 1)
	assert.Equal(t, "Main", sf.Functions[0].Name)
}

func TestMallocAndSizeofParse(t *testing.T) {
	sf, bag := parse(t, `fn Main() -> i32* { var n: i64 = sizeof(i32); return malloc(i32, n); }`)
	require.False(t, bag.HasErrors())
	decl := sf.Functions[0].Body.Stmts[0].(*ast.Declaration)
	_, ok := decl.Init.(*ast.Sizeof)
	require.True(t, ok)
	ret := sf.Functions[0].Body.Stmts[1].(*ast.Return)
	_, ok = ret.Expr.(*ast.Malloc)
	require.True(t, ok)
}
