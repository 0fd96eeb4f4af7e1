package ast

import (
	"fmt"

	"github.com/cobold-lang/cobold/internal/source"
	"github.com/cobold-lang/cobold/internal/types"
)

// Stmt is the uniform header every statement variant implements.
type Stmt interface {
	Span() source.Span
	Accept(StmtVisitor) error
}

type stmtBase struct{ span source.Span }

func (s *stmtBase) Span() source.Span { return s.span }

// Return is `return expr;`.
type Return struct {
	stmtBase
	Expr Expr
}

func NewReturn(expr Expr, span source.Span) *Return {
	return &Return{stmtBase: stmtBase{span: span}, Expr: expr}
}
func (r *Return) Accept(v StmtVisitor) error { return v.VisitReturn(r) }

// Declaration is `let`/`var name[: T][ = init];`. The parser
// normalizes a missing initializer to Init = a Dash Constant, so
// Init is never nil. DeclType is nil until TypeCheck infers it from
// Init (or validates it against an explicit annotation).
type Declaration struct {
	stmtBase
	IsConst  bool
	Name     string
	DeclType types.Type
	Init     Expr
}

func NewDeclaration(isConst bool, name string, declType types.Type, init Expr, span source.Span) *Declaration {
	return &Declaration{stmtBase: stmtBase{span: span}, IsConst: isConst, Name: name, DeclType: declType, Init: init}
}
func (d *Declaration) Accept(v StmtVisitor) error { return v.VisitDeclaration(d) }

// AssignOp enumerates simple and compound assignment operators.
type AssignOp int

const (
	AssignEq AssignOp = iota
	AssignMulEq
	AssignDivEq
	AssignModEq
	AssignAddEq
	AssignSubEq
	AssignShlEq
	AssignShrEq
	AssignAndEq
	AssignXorEq
	AssignOrEq
)

var assignOpStrings = map[AssignOp]string{
	AssignEq: "=", AssignMulEq: "*=", AssignDivEq: "/=", AssignModEq: "%=",
	AssignAddEq: "+=", AssignSubEq: "-=", AssignShlEq: "<<=", AssignShrEq: ">>=",
	AssignAndEq: "&=", AssignXorEq: "^=", AssignOrEq: "|=",
}

func (op AssignOp) String() string { return assignOpStrings[op] }

// BinaryOpFor returns the Binary operator a compound-assignment
// operator desugars to (`a += b` -> `a = a + b`). It panics for
// AssignEq, which never needs desugaring.
func (op AssignOp) BinaryOpFor() BinaryOp {
	switch op {
	case AssignMulEq:
		return OpMul
	case AssignDivEq:
		return OpDiv
	case AssignModEq:
		return OpMod
	case AssignAddEq:
		return OpAdd
	case AssignSubEq:
		return OpSub
	case AssignShlEq:
		return OpShl
	case AssignShrEq:
		return OpShr
	case AssignAndEq:
		return OpBitAnd
	case AssignXorEq:
		return OpBitXor
	case AssignOrEq:
		return OpBitOr
	default:
		panic(fmt.Sprintf("ast: %s has no desugared binary operator", op))
	}
}

// Assignment is `lhs op= rhs;`.
type Assignment struct {
	stmtBase
	Lhs Expr
	Op  AssignOp
	Rhs Expr
}

func NewAssignment(lhs Expr, op AssignOp, rhs Expr, span source.Span) *Assignment {
	return &Assignment{stmtBase: stmtBase{span: span}, Lhs: lhs, Op: op, Rhs: rhs}
}
func (a *Assignment) Accept(v StmtVisitor) error { return v.VisitAssignment(a) }

// ExprStmt is a side-effecting expression used as a statement, e.g. a
// bare call or a pre/post increment.
type ExprStmt struct {
	stmtBase
	Expr Expr
}

func NewExprStmt(expr Expr, span source.Span) *ExprStmt {
	return &ExprStmt{stmtBase: stmtBase{span: span}, Expr: expr}
}
func (e *ExprStmt) Accept(v StmtVisitor) error { return v.VisitExprStmt(e) }

// Compound is `{ stmt... }`; it introduces a lexical scope.
type Compound struct {
	stmtBase
	Stmts []Stmt
}

func NewCompound(stmts []Stmt, span source.Span) *Compound {
	return &Compound{stmtBase: stmtBase{span: span}, Stmts: stmts}
}
func (c *Compound) Accept(v StmtVisitor) error { return v.VisitCompound(c) }

// Branch is one arm of an If: a condition and the body to run when
// it is true.
type Branch struct {
	Cond Expr
	Body *Compound
}

// If holds every `if`/`else if`/`else` arm as a Branch. The parser
// always synthesizes a final branch whose condition is the literal
// `true`, so every If has a terminal branch at the AST level; later
// passes may rely on this (If-chain totality).
type If struct {
	stmtBase
	Branches []Branch
}

func NewIf(branches []Branch, span source.Span) *If {
	return &If{stmtBase: stmtBase{span: span}, Branches: branches}
}
func (i *If) Accept(v StmtVisitor) error { return v.VisitIf(i) }

// IsSyntheticElse reports whether branch b is the parser-synthesized
// `(true, empty)` terminal branch standing in for a missing `else`.
func IsSyntheticElse(b Branch) bool {
	c, ok := b.Cond.(*Constant)
	return ok && c.Kind == ConstBool && c.BoolValue && len(b.Body.Stmts) == 0
}

// While is `while cond { body }`.
type While struct {
	stmtBase
	Cond Expr
	Body *Compound
}

func NewWhile(cond Expr, body *Compound, span source.Span) *While {
	return &While{stmtBase: stmtBase{span: span}, Cond: cond, Body: body}
}
func (w *While) Accept(v StmtVisitor) error { return v.VisitWhile(w) }

// For is `for name[: T] in iterable { body }`. Iterable must have
// type Range, Array or String once TypeCheck has run; DeclType is
// nil until TypeCheck infers it from the iterable's element type.
type For struct {
	stmtBase
	Name     string
	DeclType types.Type
	Iterable Expr
	Body     *Compound
}

func NewFor(name string, declType types.Type, iterable Expr, body *Compound, span source.Span) *For {
	return &For{stmtBase: stmtBase{span: span}, Name: name, DeclType: declType, Iterable: iterable, Body: body}
}
func (f *For) Accept(v StmtVisitor) error { return v.VisitFor(f) }

// Break is `break;`.
type Break struct{ stmtBase }

func NewBreak(span source.Span) *Break          { return &Break{stmtBase{span: span}} }
func (b *Break) Accept(v StmtVisitor) error { return v.VisitBreak(b) }

// Continue is `continue;`.
type Continue struct{ stmtBase }

func NewContinue(span source.Span) *Continue       { return &Continue{stmtBase{span: span}} }
func (c *Continue) Accept(v StmtVisitor) error { return v.VisitContinue(c) }
