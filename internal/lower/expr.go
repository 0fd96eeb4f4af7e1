package lower

import (
	"fmt"

	"github.com/cobold-lang/cobold/internal/ast"
	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/types"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irenum "github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func (fs *funcState) lowerExpr(e ast.Expr) value.Value {
	switch n := e.(type) {
	case *ast.Constant:
		return fs.lowerConstant(n)
	case *ast.Identifier:
		return fs.lowerIdentifier(n)
	case *ast.Binary:
		return fs.lowerBinary(n)
	case *ast.Unary:
		return fs.lowerUnary(n)
	case *ast.Ternary:
		return fs.lowerTernary(n)
	case *ast.Call:
		return fs.lowerCall(n.Name, n.Args)
	case *ast.CallOp:
		id := n.Callee.(*ast.Identifier)
		return fs.lowerCall(id.Name, n.Args)
	case *ast.Cast:
		return fs.lowerCast(n)
	case *ast.ArrayAccess:
		return fs.lowerArrayAccess(n)
	case *ast.Sizeof:
		return constant.NewInt(irtypes.I64, AllocSize(n.TargetType))
	case *ast.ArrayExpr:
		fs.lw.bag.Report(diag.InternalError, n.Span(), "lower: array literal lowering is not yet supported")
		return constant.NewInt(irtypes.I64, 0)
	case *ast.RangeExpr:
		fs.lw.bag.Report(diag.InternalError, n.Span(), "lower: range value lowering is not yet supported")
		return constant.NewInt(irtypes.I64, 0)
	case *ast.MemberAccess:
		fs.lw.bag.Report(diag.InternalError, n.Span(), "lower: member access has no lowering")
		return constant.NewInt(irtypes.I64, 0)
	case *ast.Malloc:
		fs.lw.bag.Report(diag.InternalError, n.Span(), "lower: residual Malloc reached Lower (typecheck should have desugared it)")
		return constant.NewInt(irtypes.I64, 0)
	default:
		fs.lw.bag.Report(diag.InternalError, e.Span(), fmt.Sprintf("lower: unhandled expression %T", e))
		return constant.NewInt(irtypes.I64, 0)
	}
}

func (fs *funcState) lowerConstant(n *ast.Constant) value.Value {
	switch n.Kind {
	case ast.ConstDash:
		return zeroValueFor(LLType(n.ExprType()))
	case ast.ConstBool:
		if n.BoolValue {
			return constant.NewInt(irtypes.I1, 1)
		}
		return constant.NewInt(irtypes.I1, 0)
	case ast.ConstInt:
		it := LLType(n.ExprType()).(*irtypes.IntType)
		return constant.NewInt(it, n.IntValue)
	case ast.ConstFloat:
		ft := LLType(n.ExprType())
		switch ft {
		case irtypes.Float:
			return constant.NewFloat(irtypes.Float, n.FloatValue)
		default:
			return constant.NewFloat(irtypes.Double, n.FloatValue)
		}
	case ast.ConstChar:
		return constant.NewInt(irtypes.I8, int64(n.CharValue))
	case ast.ConstString:
		return fs.lw.internString(n.StrValue)
	default:
		fs.lw.bag.Report(diag.InternalError, n.Span(), "lower: unhandled constant kind")
		return constant.NewInt(irtypes.I64, 0)
	}
}

func (fs *funcState) lowerIdentifier(n *ast.Identifier) value.Value {
	slot, ok := fs.locals[n.Name]
	if !ok {
		fs.lw.bag.Report(diag.InternalError, n.Span(), fmt.Sprintf("lower: unknown local `%s`", n.Name))
		return constant.NewInt(irtypes.I64, 0)
	}
	return fs.cur.NewLoad(LLType(n.ExprType()), slot)
}

var intPredicates = map[ast.BinaryOp]irenum.IPred{
	ast.OpEq: irenum.IPredEQ, ast.OpNe: irenum.IPredNE,
	ast.OpLt: irenum.IPredSLT, ast.OpGt: irenum.IPredSGT,
	ast.OpLe: irenum.IPredSLE, ast.OpGe: irenum.IPredSGE,
}

var floatPredicates = map[ast.BinaryOp]irenum.FPred{
	ast.OpEq: irenum.FPredOEQ, ast.OpNe: irenum.FPredONE,
	ast.OpLt: irenum.FPredOLT, ast.OpGt: irenum.FPredOGT,
	ast.OpLe: irenum.FPredOLE, ast.OpGe: irenum.FPredOGE,
}

func (fs *funcState) lowerBinary(n *ast.Binary) value.Value {
	lhs := fs.lowerExpr(n.Lhs)
	rhs := fs.lowerExpr(n.Rhs)
	isFloat := n.Lhs.ExprType().Class() == types.ClassFloating

	switch n.Op {
	case ast.OpLogicalAnd:
		return fs.cur.NewAnd(lhs, rhs)
	case ast.OpLogicalOr:
		return fs.cur.NewOr(lhs, rhs)
	case ast.OpBitAnd:
		return fs.cur.NewAnd(lhs, rhs)
	case ast.OpBitOr:
		return fs.cur.NewOr(lhs, rhs)
	case ast.OpBitXor:
		return fs.cur.NewXor(lhs, rhs)
	case ast.OpShl:
		return fs.cur.NewShl(lhs, rhs)
	case ast.OpShr:
		return fs.cur.NewAShr(lhs, rhs)
	case ast.OpMod:
		return fs.cur.NewSRem(lhs, rhs)
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		if isFloat {
			return fs.cur.NewFCmp(floatPredicates[n.Op], lhs, rhs)
		}
		return fs.cur.NewICmp(intPredicates[n.Op], lhs, rhs)
	case ast.OpAdd:
		if isFloat {
			return fs.cur.NewFAdd(lhs, rhs)
		}
		if types.IsArithmetic(n.Lhs.ExprType()) && types.IsArithmetic(n.Rhs.ExprType()) {
			return fs.cur.NewAdd(lhs, rhs)
		}
		return fs.lowerPointerArith(n, lhs, rhs, false)
	case ast.OpSub:
		if isFloat {
			return fs.cur.NewFSub(lhs, rhs)
		}
		if types.IsArithmetic(n.Lhs.ExprType()) && types.IsArithmetic(n.Rhs.ExprType()) {
			return fs.cur.NewSub(lhs, rhs)
		}
		return fs.lowerPointerArith(n, lhs, rhs, true)
	case ast.OpMul:
		if isFloat {
			return fs.cur.NewFMul(lhs, rhs)
		}
		return fs.cur.NewMul(lhs, rhs)
	case ast.OpDiv:
		if isFloat {
			return fs.cur.NewFDiv(lhs, rhs)
		}
		return fs.cur.NewSDiv(lhs, rhs)
	default:
		fs.lw.bag.Report(diag.InternalError, n.Span(), fmt.Sprintf("lower: unhandled binary operator %s", n.Op))
		return lhs
	}
}

// lowerPointerArith handles `pointer +/- integer`: a getelementptr
// over the pointee type, negating the offset for subtraction.
func (fs *funcState) lowerPointerArith(n *ast.Binary, lhs, rhs value.Value, negate bool) value.Value {
	ptrType, elemType := lhs.Type(), n.Lhs.ExprType()
	base := lhs
	offset := rhs
	if _, ok := ptrType.(*irtypes.PointerType); !ok {
		base = rhs
		offset = lhs
		elemType = n.Rhs.ExprType()
	}
	pointee, _ := types.Elem(elemType)
	if negate {
		offset = fs.cur.NewSub(constant.NewInt(offset.Type().(*irtypes.IntType), 0), offset)
	}
	return fs.cur.NewGetElementPtr(LLType(pointee), base, offset)
}

func (fs *funcState) lowerUnary(n *ast.Unary) value.Value {
	switch n.Op {
	case ast.OpPreIncrement, ast.OpPreDecrement:
		addr := fs.lowerLValue(n.Operand)
		v := fs.lowerExpr(n.Operand)
		next := fs.stepBy(v, n.Op == ast.OpPreIncrement)
		fs.cur.NewStore(next, addr)
		return next
	case ast.OpPostIncrement, ast.OpPostDecrement:
		addr := fs.lowerLValue(n.Operand)
		v := fs.lowerExpr(n.Operand)
		next := fs.stepBy(v, n.Op == ast.OpPostIncrement)
		fs.cur.NewStore(next, addr)
		return v
	case ast.OpAddressOf:
		return fs.lowerLValue(n.Operand)
	case ast.OpDereference:
		ptr := fs.lowerExpr(n.Operand)
		return fs.cur.NewLoad(LLType(n.ExprType()), ptr)
	case ast.OpNegative:
		v := fs.lowerExpr(n.Operand)
		if n.ExprType().Class() == types.ClassFloating {
			return fs.cur.NewFNeg(v)
		}
		return fs.cur.NewSub(constant.NewInt(v.Type().(*irtypes.IntType), 0), v)
	case ast.OpPositive:
		return fs.lowerExpr(n.Operand)
	case ast.OpInvert:
		v := fs.lowerExpr(n.Operand)
		allOnes := constant.NewInt(v.Type().(*irtypes.IntType), -1)
		return fs.cur.NewXor(v, allOnes)
	case ast.OpNot:
		v := fs.lowerExpr(n.Operand)
		return fs.cur.NewXor(v, constant.NewInt(irtypes.I1, 1))
	default:
		fs.lw.bag.Report(diag.InternalError, n.Span(), fmt.Sprintf("lower: unhandled unary operator %s", n.Op))
		return fs.lowerExpr(n.Operand)
	}
}

func (fs *funcState) stepBy(v value.Value, increment bool) value.Value {
	if pt, ok := v.Type().(*irtypes.PointerType); ok {
		delta := int64(1)
		if !increment {
			delta = -1
		}
		return fs.cur.NewGetElementPtr(pt.ElemType, v, constant.NewInt(irtypes.I64, delta))
	}
	it := v.Type().(*irtypes.IntType)
	delta := constant.NewInt(it, 1)
	if increment {
		return fs.cur.NewAdd(v, delta)
	}
	return fs.cur.NewSub(v, delta)
}

func (fs *funcState) lowerTernary(n *ast.Ternary) value.Value {
	thenBlock := fs.newBlock("tern.then")
	elseBlock := fs.newBlock("tern.else")
	after := fs.newBlock("tern.end")

	cond := fs.lowerExpr(n.Cond)
	fs.cur.NewCondBr(cond, thenBlock, elseBlock)

	fs.cur = thenBlock
	thenV := fs.lowerExpr(n.Then)
	fs.cur.NewBr(after)
	thenEnd := fs.cur

	fs.cur = elseBlock
	elseV := fs.lowerExpr(n.Else)
	fs.cur.NewBr(after)
	elseEnd := fs.cur

	fs.cur = after
	phi := fs.cur.NewPhi(ir.NewIncoming(thenV, thenEnd), ir.NewIncoming(elseV, elseEnd))
	return phi
}

func (fs *funcState) lowerCall(name string, argExprs []ast.Expr) value.Value {
	callee, ok := fs.lw.funcs[name]
	if !ok {
		fs.lw.bag.Report(diag.InternalError, argExprs[0].Span(), fmt.Sprintf("lower: unknown function `%s`", name))
		return constant.NewInt(irtypes.I64, 0)
	}
	args := make([]value.Value, len(argExprs))
	for i, a := range argExprs {
		args[i] = fs.lowerExpr(a)
	}
	return fs.cur.NewCall(callee, args...)
}

func (fs *funcState) lowerCast(n *ast.Cast) value.Value {
	v := fs.lowerExpr(n.Operand)
	from, to := n.Operand.ExprType(), n.TargetType
	toLL := LLType(to)

	switch {
	case from.Class() == types.ClassDash:
		return zeroValueFor(toLL)
	case types.IsArithmetic(from) && to.Class() == types.ClassBool:
		zero := zeroValueFor(v.Type())
		if from.Class() == types.ClassFloating {
			return fs.cur.NewFCmp(irenum.FPredONE, v, zero)
		}
		return fs.cur.NewICmp(irenum.IPredNE, v, zero)
	case isIntegralClass(from) && isIntegralClass(to):
		return fs.intConvert(v, toLL.(*irtypes.IntType))
	case from.Class() == types.ClassFloating && isIntegralClass(to):
		return fs.cur.NewFPToSI(v, toLL)
	case isIntegralClass(from) && to.Class() == types.ClassFloating:
		return fs.cur.NewSIToFP(v, toLL)
	case from.Class() == types.ClassFloating && to.Class() == types.ClassFloating:
		return fs.floatConvert(v, toLL)
	case from.Class() == types.ClassPointer && to.Class() == types.ClassPointer:
		return fs.cur.NewBitCast(v, toLL)
	case isIntegralClass(from) && to.Class() == types.ClassPointer:
		return fs.cur.NewIntToPtr(v, toLL)
	case from.Class() == types.ClassPointer && isIntegralClass(to):
		return fs.cur.NewPtrToInt(v, toLL)
	default:
		return v
	}
}

func isIntegralClass(t types.Type) bool {
	return t.Class() == types.ClassIntegral || t.Class() == types.ClassBool || t.Class() == types.ClassChar
}

func (fs *funcState) intConvert(v value.Value, to *irtypes.IntType) value.Value {
	from := v.Type().(*irtypes.IntType)
	switch {
	case from.BitSize == to.BitSize:
		return v
	case from.BitSize > to.BitSize:
		return fs.cur.NewTrunc(v, to)
	default:
		return fs.cur.NewSExt(v, to)
	}
}

func (fs *funcState) floatConvert(v value.Value, to irtypes.Type) value.Value {
	if v.Type() == to {
		return v
	}
	if to == irtypes.Double {
		return fs.cur.NewFPExt(v, to)
	}
	return fs.cur.NewFPTrunc(v, to)
}

func (fs *funcState) lowerArrayAccess(n *ast.ArrayAccess) value.Value {
	index := fs.lowerExpr(n.Index)
	baseType := n.Base.ExprType()

	if baseType.Class() == types.ClassString {
		strVal := fs.lowerExpr(n.Base)
		data := fs.cur.NewExtractValue(strVal, 1)
		ptr := fs.cur.NewGetElementPtr(irtypes.I8, data, index)
		return fs.cur.NewLoad(irtypes.I8, ptr)
	}

	base := fs.lowerExpr(n.Base)
	elem, _ := types.Elem(baseType)
	ptr := fs.cur.NewGetElementPtr(LLType(elem), base, index)
	return fs.cur.NewLoad(LLType(elem), ptr)
}
