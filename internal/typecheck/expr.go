package typecheck

import (
	"fmt"

	"github.com/cobold-lang/cobold/internal/ast"
	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/types"
)

// checkExpr infers e's type (and the type of every descendant),
// returning the possibly-replaced node. Every expression that leaves
// this function carries a non-nil ExprType(), even on error paths
// (falling back to Nil so later passes don't need nil checks).
func (c *Checker) checkExpr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Constant:
		return c.checkConstant(n)
	case *ast.Identifier:
		return c.checkIdentifier(n)
	case *ast.Binary:
		return c.checkBinary(n)
	case *ast.Unary:
		return c.checkUnary(n)
	case *ast.Ternary:
		return c.checkTernary(n)
	case *ast.Call:
		return c.checkCall(n)
	case *ast.CallOp:
		return c.checkCallOp(n)
	case *ast.RangeExpr:
		return c.checkRange(n)
	case *ast.ArrayExpr:
		return c.checkArray(n)
	case *ast.Cast:
		return c.checkCast(n)
	case *ast.MemberAccess:
		return c.checkMemberAccess(n)
	case *ast.ArrayAccess:
		return c.checkArrayAccess(n)
	case *ast.Malloc:
		return c.checkMalloc(n)
	case *ast.Sizeof:
		return c.checkSizeof(n)
	default:
		c.bag.Report(diag.InternalError, e.Span(), fmt.Sprintf("typecheck: unhandled expression %T", e))
		e.SetExprType(types.Nil())
		return e
	}
}

// Literal widths default to 64 bits regardless of receiver context;
// downstream Cast insertion (declarations, assignments, call actuals)
// narrows them where a target type is known.
func (c *Checker) checkConstant(n *ast.Constant) ast.Expr {
	switch n.Kind {
	case ast.ConstDash:
		n.SetExprType(types.Dash())
	case ast.ConstBool:
		n.SetExprType(types.Bool())
	case ast.ConstInt:
		n.SetExprType(types.Integral(64))
	case ast.ConstFloat:
		n.SetExprType(types.Floating(64))
	case ast.ConstChar:
		n.SetExprType(types.Char())
	case ast.ConstString:
		n.SetExprType(types.String())
	}
	return n
}

func (c *Checker) checkIdentifier(n *ast.Identifier) ast.Expr {
	if t, ok := c.scope.lookup(n.Name); ok {
		n.SetExprType(t)
		return n
	}
	if sig, ok := c.funcs[n.Name]; ok {
		// A bare function name used as a value: the language has no
		// function-value type, so this only type-checks in callee
		// position (handled directly in checkCall); here it is an
		// error since we only reach this path for a freestanding use.
		_ = sig
	}
	c.bag.Report(diag.TypeError, n.Span(), fmt.Sprintf("unknown identifier `%s`", n.Name))
	n.SetExprType(types.Nil())
	return n
}

func (c *Checker) checkBinary(n *ast.Binary) ast.Expr {
	n.Lhs = c.checkExpr(n.Lhs)
	n.Rhs = c.checkExpr(n.Rhs)
	lt, rt := n.Lhs.ExprType(), n.Rhs.ExprType()

	switch n.Op {
	case ast.OpLogicalOr, ast.OpLogicalAnd:
		n.Lhs = c.wrapExplicitCast(n.Lhs, types.Bool())
		n.Rhs = c.wrapExplicitCast(n.Rhs, types.Bool())
		n.SetExprType(types.Bool())

	case ast.OpBitOr, ast.OpBitXor, ast.OpBitAnd, ast.OpShl, ast.OpShr, ast.OpMod:
		if !IsIntegral(lt) || !IsIntegral(rt) {
			c.typeError(n.Span(), "operator `%s` requires integral operands, got %s and %s",
				n.Op, lt.DebugString(), rt.DebugString())
			n.SetExprType(types.Integral(64))
			break
		}
		promoted := PromoteIntegral(lt.(*types.IntegralType), rt.(*types.IntegralType))
		n.Lhs = c.wrapExplicitCast(n.Lhs, promoted)
		n.Rhs = c.wrapExplicitCast(n.Rhs, promoted)
		n.SetExprType(promoted)

	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		n.SetExprType(c.checkComparison(n, lt, rt))

	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		n.SetExprType(c.checkArithmeticOrPointer(n, lt, rt))

	default:
		c.bag.Report(diag.InternalError, n.Span(), fmt.Sprintf("typecheck: unhandled binary operator %s", n.Op))
		n.SetExprType(types.Nil())
	}
	return n
}

func (c *Checker) checkComparison(n *ast.Binary, lt, rt types.Type) types.Type {
	if sameType(lt, rt) {
		return types.Bool()
	}
	if promoted, ok := PromoteArithmetic(lt, rt); ok {
		n.Lhs = c.wrapExplicitCast(n.Lhs, promoted)
		n.Rhs = c.wrapExplicitCast(n.Rhs, promoted)
		return types.Bool()
	}
	if IsPointer(lt) && IsIntegral(rt) {
		n.Rhs = c.wrapExplicitCast(n.Rhs, lt)
		return types.Bool()
	}
	if IsPointer(rt) && IsIntegral(lt) {
		n.Lhs = c.wrapExplicitCast(n.Lhs, rt)
		return types.Bool()
	}
	if lt.Class() == types.ClassChar && rt.Class() == types.ClassChar {
		return types.Bool()
	}
	if lt.Class() == types.ClassBool && rt.Class() == types.ClassBool {
		return types.Bool()
	}
	c.typeError(n.Span(), "operator `%s` cannot compare %s and %s", n.Op, lt.DebugString(), rt.DebugString())
	return types.Bool()
}

func (c *Checker) checkArithmeticOrPointer(n *ast.Binary, lt, rt types.Type) types.Type {
	if promoted, ok := PromoteArithmetic(lt, rt); ok {
		n.Lhs = c.wrapExplicitCast(n.Lhs, promoted)
		n.Rhs = c.wrapExplicitCast(n.Rhs, promoted)
		return promoted
	}
	if ArePointerMathTypes(lt, rt) {
		return PromotePointer(lt, rt)
	}
	c.typeError(n.Span(), "operator `%s` requires arithmetic or pointer operands, got %s and %s",
		n.Op, lt.DebugString(), rt.DebugString())
	return lt
}

func (c *Checker) checkUnary(n *ast.Unary) ast.Expr {
	n.Operand = c.checkExpr(n.Operand)
	t := n.Operand.ExprType()

	switch n.Op {
	case ast.OpPreIncrement, ast.OpPreDecrement, ast.OpPostIncrement, ast.OpPostDecrement:
		if !IsIntegral(t) && !IsPointer(t) {
			c.typeError(n.Span(), "`%s` requires an integral or pointer operand, got %s", n.Op, t.DebugString())
		}
		n.SetExprType(t)

	case ast.OpAddressOf:
		if _, ok := n.Operand.(*ast.Identifier); !ok {
			c.typeError(n.Span(), "`&` requires an identifier operand")
		}
		n.SetExprType(types.PointerTo(t))

	case ast.OpDereference:
		elem, ok := types.Elem(t)
		if !ok || t.Class() != types.ClassPointer {
			c.typeError(n.Span(), "dereference requires a pointer operand, got %s", t.DebugString())
			n.SetExprType(types.Nil())
			break
		}
		n.SetExprType(elem)

	case ast.OpNegative, ast.OpPositive:
		if !IsIntegral(t) && !IsFloating(t) {
			c.typeError(n.Span(), "`%s` requires an arithmetic operand, got %s", n.Op, t.DebugString())
		}
		n.SetExprType(t)

	case ast.OpInvert:
		if !IsIntegral(t) {
			c.typeError(n.Span(), "`~` requires an integral operand, got %s", t.DebugString())
		}
		n.SetExprType(t)

	case ast.OpNot:
		n.Operand = c.wrapExplicitCast(n.Operand, types.Bool())
		n.SetExprType(types.Bool())

	default:
		c.bag.Report(diag.InternalError, n.Span(), fmt.Sprintf("typecheck: unhandled unary operator %s", n.Op))
		n.SetExprType(types.Nil())
	}
	return n
}

func (c *Checker) checkTernary(n *ast.Ternary) ast.Expr {
	n.Cond = c.checkExpr(n.Cond)
	n.Cond = c.wrapExplicitCast(n.Cond, types.Bool())
	n.Then = c.checkExpr(n.Then)
	n.Else = c.checkExpr(n.Else)

	unified, ok := UnifyArrayTypes([]types.Type{n.Then.ExprType(), n.Else.ExprType()})
	if !ok {
		c.typeError(n.Span(), "ternary branches have incompatible types %s and %s",
			n.Then.ExprType().DebugString(), n.Else.ExprType().DebugString())
		unified = n.Then.ExprType()
	}
	n.Then = c.wrapExplicitCast(n.Then, unified)
	n.Else = c.wrapExplicitCast(n.Else, unified)
	n.SetExprType(unified)
	return n
}

func (c *Checker) checkCallArgs(span ast.Expr, name string, args []ast.Expr) ([]ast.Expr, types.Type) {
	sig, ok := c.funcs[name]
	if !ok {
		c.typeError(span.Span(), "call to unknown function `%s`", name)
		return args, types.Nil()
	}
	if len(args) != len(sig.argTypes) {
		c.typeError(span.Span(), "function `%s` expects %d argument(s), got %d", name, len(sig.argTypes), len(args))
	}
	for i := range args {
		args[i] = c.checkExpr(args[i])
		if i < len(sig.argTypes) {
			lit, isLit := args[i].(*ast.Constant)
			narrowsLiteral := isLit && lit.Kind == ast.ConstInt && IsIntegral(sig.argTypes[i])
			if !narrowsLiteral && !CanCastImplicitTo(args[i].ExprType(), sig.argTypes[i]) && !sameType(args[i].ExprType(), sig.argTypes[i]) {
				c.typeError(args[i].Span(), "argument %d to `%s`: cannot implicitly cast %s to %s",
					i+1, name, args[i].ExprType().DebugString(), sig.argTypes[i].DebugString())
			}
			args[i] = c.wrapExplicitCast(args[i], sig.argTypes[i])
		}
	}
	return args, sig.ret
}

func (c *Checker) checkCall(n *ast.Call) ast.Expr {
	args, ret := c.checkCallArgs(n, n.Name, n.Args)
	n.Args = args
	n.SetExprType(ret)
	return n
}

// checkCallOp resolves the callee (always an Identifier naming a
// function, since the language has no function values) the same way
// checkCall resolves a by-name Call; both forms lower to the same IR
// call instruction.
func (c *Checker) checkCallOp(n *ast.CallOp) ast.Expr {
	id, ok := n.Callee.(*ast.Identifier)
	if !ok {
		c.typeError(n.Span(), "call target must be a function name")
		n.SetExprType(types.Nil())
		return n
	}
	args, ret := c.checkCallArgs(n, id.Name, n.Args)
	n.Args = args
	n.SetExprType(ret)
	return n
}

func (c *Checker) checkRange(n *ast.RangeExpr) ast.Expr {
	var candidates []types.Type
	if n.Lhs != nil {
		n.Lhs = c.checkExpr(n.Lhs)
		candidates = append(candidates, n.Lhs.ExprType())
	}
	if n.Rhs != nil {
		n.Rhs = c.checkExpr(n.Rhs)
		candidates = append(candidates, n.Rhs.ExprType())
	}
	if len(candidates) == 0 {
		n.SetExprType(types.RangeOf(types.Integral(64)))
		return n
	}
	unified, ok := UnifyArrayTypes(candidates)
	if !ok {
		c.typeError(n.Span(), "range endpoints have incompatible types")
		unified = candidates[0]
	}
	if n.Lhs != nil {
		n.Lhs = c.wrapExplicitCast(n.Lhs, unified)
	}
	if n.Rhs != nil {
		n.Rhs = c.wrapExplicitCast(n.Rhs, unified)
	}
	n.SetExprType(types.RangeOf(unified))
	return n
}

func (c *Checker) checkArray(n *ast.ArrayExpr) ast.Expr {
	if len(n.Elements) == 0 {
		n.SetExprType(types.ArrayOf(types.Nil()))
		return n
	}
	candidates := make([]types.Type, len(n.Elements))
	for i, el := range n.Elements {
		n.Elements[i] = c.checkExpr(el)
		candidates[i] = n.Elements[i].ExprType()
	}
	unified, ok := UnifyArrayTypes(candidates)
	if !ok {
		c.typeError(n.Span(), "array elements have incompatible types")
		unified = candidates[0]
	}
	for i := range n.Elements {
		n.Elements[i] = c.wrapExplicitCast(n.Elements[i], unified)
	}
	n.SetExprType(types.ArrayOf(unified))
	return n
}

func (c *Checker) checkCast(n *ast.Cast) ast.Expr {
	n.Operand = c.checkExpr(n.Operand)
	if !CanCastExplicitTo(n.Operand.ExprType(), n.TargetType) {
		c.typeError(n.Span(), "cannot cast %s to %s", n.Operand.ExprType().DebugString(), n.TargetType.DebugString())
	}
	n.SetExprType(n.TargetType)
	return n
}

// checkMemberAccess types the expression for completeness but member
// access is inert past this pass: the language has no aggregate
// (struct) type, so MemberAccess never reaches Lower in a program
// that type-checks cleanly. It is surfaced as an error rather than
// silently accepted.
func (c *Checker) checkMemberAccess(n *ast.MemberAccess) ast.Expr {
	n.Base = c.checkExpr(n.Base)
	c.typeError(n.Span(), "member access is not supported by this language (no aggregate types)")
	n.SetExprType(types.Nil())
	return n
}

func (c *Checker) checkArrayAccess(n *ast.ArrayAccess) ast.Expr {
	n.Base = c.checkExpr(n.Base)
	n.Index = c.checkExpr(n.Index)
	if !IsIntegral(n.Index.ExprType()) {
		c.typeError(n.Index.Span(), "array index must be integral, got %s", n.Index.ExprType().DebugString())
	}

	bt := n.Base.ExprType()
	switch bt.Class() {
	case types.ClassString:
		n.SetExprType(types.Char())
	case types.ClassArray, types.ClassRange:
		elem, _ := types.Elem(bt)
		n.SetExprType(elem)
	default:
		c.typeError(n.Base.Span(), "cannot index into %s", bt.DebugString())
		n.SetExprType(types.Nil())
	}
	return n
}

func (c *Checker) checkSizeof(n *ast.Sizeof) ast.Expr {
	n.SetExprType(types.Integral(64))
	return n
}

// checkMalloc desugars `malloc(T, n)` into a call to the external
// allocator (see DESIGN.md: the source's own desugaring was an open
// question, resolved here as `(T*) __lib_malloc(sizeof(T) * n)`), so
// no Malloc node survives into Lower.
func (c *Checker) checkMalloc(n *ast.Malloc) ast.Expr {
	n.Count = c.checkExpr(n.Count)
	byteCount := n.Count
	byteCount = c.wrapExplicitCast(byteCount, types.Integral(64))

	sizeofExpr := ast.NewSizeof(n.TargetType, n.Span())
	sizeofExpr.SetExprType(types.Integral(64))

	totalBytes := ast.NewBinary(sizeofExpr, ast.OpMul, byteCount, n.Span())
	totalBytes.SetExprType(types.Integral(64))

	call := ast.NewCall(c.externAllocatorName, []ast.Expr{totalBytes}, n.Span())
	call.SetExprType(types.Opaque())

	resultType := types.PointerTo(n.TargetType)
	cast := ast.NewCast(resultType, call, n.Span())
	cast.SetExprType(resultType)
	return cast
}
