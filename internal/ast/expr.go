// Package ast is the typed expression/statement/function tree shared
// by Parser, TypeCheck and Lower. Every node carries a source.Span and,
// for expressions, a mutable expr-type slot that TypeCheck fills in.
//
// Passes walk the tree by borrowing; TypeCheck may replace a child
// with a new node (e.g. wrap it in a Cast). Because Go has no
// algebraic sum types, replacement is modeled the way a hand-rolled
// AST for a single-dispatch language usually is: each pass exposes a
// function that takes an Expr and returns the (possibly different)
// Expr to write back into the parent slot, rather than mutating
// through the Expr interface itself.
package ast

import (
	"fmt"

	"github.com/cobold-lang/cobold/internal/source"
	"github.com/cobold-lang/cobold/internal/types"
)

// Expr is the uniform header every expression variant implements.
type Expr interface {
	Span() source.Span
	ExprType() types.Type
	SetExprType(types.Type)
	Accept(ExprVisitor) error
	String() string
}

// exprBase is embedded by every concrete expression and supplies the
// Span/ExprType bookkeeping the interface promises.
type exprBase struct {
	span source.Span
	typ  types.Type
}

func (e *exprBase) Span() source.Span        { return e.span }
func (e *exprBase) ExprType() types.Type     { return e.typ }
func (e *exprBase) SetExprType(t types.Type) { e.typ = t }

// ConstantKind distinguishes the payload carried by a Constant.
type ConstantKind int

const (
	ConstDash ConstantKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstChar
	ConstString
)

// Constant is a literal: the Dash initializer, a bool, an integer
// (default width 64), a float (default width 64), a char or a string.
type Constant struct {
	exprBase
	Kind       ConstantKind
	BoolValue  bool
	IntValue   int64
	FloatValue float64
	CharValue  byte
	StrValue   string
}

func NewDash(span source.Span) *Constant {
	return &Constant{exprBase: exprBase{span: span}, Kind: ConstDash}
}
func NewBoolConstant(v bool, span source.Span) *Constant {
	return &Constant{exprBase: exprBase{span: span}, Kind: ConstBool, BoolValue: v}
}
func NewIntConstant(v int64, span source.Span) *Constant {
	return &Constant{exprBase: exprBase{span: span}, Kind: ConstInt, IntValue: v}
}
func NewFloatConstant(v float64, span source.Span) *Constant {
	return &Constant{exprBase: exprBase{span: span}, Kind: ConstFloat, FloatValue: v}
}
func NewCharConstant(v byte, span source.Span) *Constant {
	return &Constant{exprBase: exprBase{span: span}, Kind: ConstChar, CharValue: v}
}
func NewStringConstant(v string, span source.Span) *Constant {
	return &Constant{exprBase: exprBase{span: span}, Kind: ConstString, StrValue: v}
}

func (c *Constant) Accept(v ExprVisitor) error { return v.VisitConstant(c) }
func (c *Constant) String() string {
	switch c.Kind {
	case ConstDash:
		return "--"
	case ConstBool:
		return fmt.Sprintf("%t", c.BoolValue)
	case ConstInt:
		return fmt.Sprintf("%d", c.IntValue)
	case ConstFloat:
		return fmt.Sprintf("%g", c.FloatValue)
	case ConstChar:
		return fmt.Sprintf("%q", c.CharValue)
	case ConstString:
		return fmt.Sprintf("%q", c.StrValue)
	default:
		return "<constant>"
	}
}

// Identifier is a reference to a local, argument or global function.
type Identifier struct {
	exprBase
	Name string
}

func NewIdentifier(name string, span source.Span) *Identifier {
	return &Identifier{exprBase: exprBase{span: span}, Name: name}
}

func (i *Identifier) Accept(v ExprVisitor) error { return v.VisitIdentifier(i) }
func (i *Identifier) String() string             { return i.Name }

// BinaryOp enumerates the binary operators in precedence-group order.
type BinaryOp int

const (
	OpLogicalOr BinaryOp = iota
	OpLogicalAnd
	OpBitOr
	OpBitXor
	OpBitAnd
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpShl
	OpShr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

var binaryOpStrings = map[BinaryOp]string{
	OpLogicalOr: "||", OpLogicalAnd: "&&", OpBitOr: "|", OpBitXor: "^", OpBitAnd: "&",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpGt: ">", OpLe: "<=", OpGe: ">=",
	OpShl: "<<", OpShr: ">>", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
}

func (op BinaryOp) String() string { return binaryOpStrings[op] }

// Binary is a two-operand expression; op is one of the arithmetic,
// bitwise, comparison or logical operators.
type Binary struct {
	exprBase
	Lhs Expr
	Op  BinaryOp
	Rhs Expr
}

func NewBinary(lhs Expr, op BinaryOp, rhs Expr, span source.Span) *Binary {
	return &Binary{exprBase: exprBase{span: span}, Lhs: lhs, Op: op, Rhs: rhs}
}

func (b *Binary) Accept(v ExprVisitor) error { return v.VisitBinary(b) }
func (b *Binary) String() string             { return fmt.Sprintf("(%s %s %s)", b.Lhs, b.Op, b.Rhs) }

// UnaryOp enumerates the unary/prefix/postfix operators.
type UnaryOp int

const (
	OpPreIncrement UnaryOp = iota
	OpPreDecrement
	OpPostIncrement
	OpPostDecrement
	OpAddressOf
	OpDereference
	OpNegative
	OpPositive
	OpInvert
	OpNot
)

var unaryOpStrings = map[UnaryOp]string{
	OpPreIncrement: "++", OpPreDecrement: "--", OpPostIncrement: "++", OpPostDecrement: "--",
	OpAddressOf: "&", OpDereference: "*", OpNegative: "-", OpPositive: "+", OpInvert: "~", OpNot: "!",
}

func (op UnaryOp) String() string { return unaryOpStrings[op] }

// IsPostfix reports whether the operator follows its operand in
// source (post++/post--); all others are prefix.
func (op UnaryOp) IsPostfix() bool {
	return op == OpPostIncrement || op == OpPostDecrement
}

// Unary is a single-operand expression.
type Unary struct {
	exprBase
	Op       UnaryOp
	Operand  Expr
}

func NewUnary(op UnaryOp, operand Expr, span source.Span) *Unary {
	return &Unary{exprBase: exprBase{span: span}, Op: op, Operand: operand}
}

func (u *Unary) Accept(v ExprVisitor) error { return v.VisitUnary(u) }
func (u *Unary) String() string {
	if u.Op.IsPostfix() {
		return fmt.Sprintf("(%s%s)", u.Operand, u.Op)
	}
	return fmt.Sprintf("(%s%s)", u.Op, u.Operand)
}

// Ternary is `cond ? then : else`.
type Ternary struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

func NewTernary(cond, then, els Expr, span source.Span) *Ternary {
	return &Ternary{exprBase: exprBase{span: span}, Cond: cond, Then: then, Else: els}
}

func (t *Ternary) Accept(v ExprVisitor) error { return v.VisitTernary(t) }
func (t *Ternary) String() string             { return fmt.Sprintf("(%s ? %s : %s)", t.Cond, t.Then, t.Else) }

// Call is a by-name call, the parser's pre-inference form. TypeCheck
// resolves Name against the function table; it never rewrites Call
// into CallOp (both lower to the same IR concept, see CallOp).
type Call struct {
	exprBase
	Name string
	Args []Expr
}

func NewCall(name string, args []Expr, span source.Span) *Call {
	return &Call{exprBase: exprBase{span: span}, Name: name, Args: args}
}

func (c *Call) Accept(v ExprVisitor) error { return v.VisitCall(c) }
func (c *Call) String() string             { return fmt.Sprintf("%s(...)", c.Name) }

// CallOp is the first-class-callable form: Callee is itself an
// expression (in this language, always an Identifier naming a
// function, since the language has no function values).
type CallOp struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func NewCallOp(callee Expr, args []Expr, span source.Span) *CallOp {
	return &CallOp{exprBase: exprBase{span: span}, Callee: callee, Args: args}
}

func (c *CallOp) Accept(v ExprVisitor) error { return v.VisitCallOp(c) }
func (c *CallOp) String() string             { return fmt.Sprintf("%s(...)", c.Callee) }

// RangeExpr is `lhs..rhs`; either side may be nil (unbounded). Both
// nil denotes the fully-unbounded range literal `[..]`.
type RangeExpr struct {
	exprBase
	Lhs Expr
	Rhs Expr
}

func NewRange(lhs, rhs Expr, span source.Span) *RangeExpr {
	return &RangeExpr{exprBase: exprBase{span: span}, Lhs: lhs, Rhs: rhs}
}

func (r *RangeExpr) Accept(v ExprVisitor) error { return v.VisitRange(r) }

// Unbounded reports whether both endpoints are absent.
func (r *RangeExpr) Unbounded() bool { return r.Lhs == nil && r.Rhs == nil }

func (r *RangeExpr) String() string {
	lhs, rhs := "", ""
	if r.Lhs != nil {
		lhs = r.Lhs.String()
	}
	if r.Rhs != nil {
		rhs = r.Rhs.String()
	}
	return fmt.Sprintf("[%s..%s]", lhs, rhs)
}

// ArrayExpr is an array literal `[e0, e1, ...]`.
type ArrayExpr struct {
	exprBase
	Elements []Expr
}

func NewArray(elements []Expr, span source.Span) *ArrayExpr {
	return &ArrayExpr{exprBase: exprBase{span: span}, Elements: elements}
}

func (a *ArrayExpr) Accept(v ExprVisitor) error { return v.VisitArray(a) }
func (a *ArrayExpr) String() string             { return "[...]" }

// Cast is an explicit `(T) expr` conversion. TypeCheck also inserts
// Cast nodes implicitly (WrapExplicitCast) wherever an implicit
// promotion is legal but the operand types differ.
type Cast struct {
	exprBase
	TargetType types.Type
	Operand    Expr
}

func NewCast(target types.Type, operand Expr, span source.Span) *Cast {
	return &Cast{exprBase: exprBase{span: span}, TargetType: target, Operand: operand}
}

func (c *Cast) Accept(v ExprVisitor) error { return v.VisitCast(c) }
func (c *Cast) String() string             { return fmt.Sprintf("(%s) %s", c.TargetType.DebugString(), c.Operand) }

// MemberAccess is `.field` or `->field`; parsed but never lowered
// (member access requires an aggregate-type layer this language does
// not have, see Non-goals).
type MemberAccess struct {
	exprBase
	Base   Expr
	Direct bool
	Field  string
}

func NewMemberAccess(base Expr, direct bool, field string, span source.Span) *MemberAccess {
	return &MemberAccess{exprBase: exprBase{span: span}, Base: base, Direct: direct, Field: field}
}

func (m *MemberAccess) Accept(v ExprVisitor) error { return v.VisitMemberAccess(m) }
func (m *MemberAccess) String() string {
	if m.Direct {
		return fmt.Sprintf("%s.%s", m.Base, m.Field)
	}
	return fmt.Sprintf("%s->%s", m.Base, m.Field)
}

// ArrayAccess is `base[index]`.
type ArrayAccess struct {
	exprBase
	Base  Expr
	Index Expr
}

func NewArrayAccess(base, index Expr, span source.Span) *ArrayAccess {
	return &ArrayAccess{exprBase: exprBase{span: span}, Base: base, Index: index}
}

func (a *ArrayAccess) Accept(v ExprVisitor) error { return v.VisitArrayAccess(a) }
func (a *ArrayAccess) String() string             { return fmt.Sprintf("%s[%s]", a.Base, a.Index) }

// Malloc is the `malloc(T, n)` built-in. TypeCheck desugars it into a
// call to the external allocator before Lower ever sees the tree; no
// Malloc node survives past TypeCheck.
type Malloc struct {
	exprBase
	TargetType types.Type
	Count      Expr
}

func NewMalloc(target types.Type, count Expr, span source.Span) *Malloc {
	return &Malloc{exprBase: exprBase{span: span}, TargetType: target, Count: count}
}

func (m *Malloc) Accept(v ExprVisitor) error { return v.VisitMalloc(m) }
func (m *Malloc) String() string             { return fmt.Sprintf("malloc(%s, %s)", m.TargetType.DebugString(), m.Count) }

// Sizeof is the `sizeof(T)` built-in; its value is computed at lowering
// time from the target data layout.
type Sizeof struct {
	exprBase
	TargetType types.Type
}

func NewSizeof(target types.Type, span source.Span) *Sizeof {
	return &Sizeof{exprBase: exprBase{span: span}, TargetType: target}
}

func (s *Sizeof) Accept(v ExprVisitor) error { return v.VisitSizeof(s) }
func (s *Sizeof) String() string             { return fmt.Sprintf("sizeof(%s)", s.TargetType.DebugString()) }
