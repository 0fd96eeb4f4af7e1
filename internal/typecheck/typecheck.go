// Package typecheck is the single AST-rewriting traversal that infers
// missing types, validates every operator's operand types, inserts
// explicit Cast nodes wherever an implicit promotion is legal, and
// desugars compound assignments. It runs after Parser and before
// Lower; by the time it returns (with no reported errors) every
// expression carries a concrete type and the tree contains no
// residual Malloc node.
//
// Because Go has no algebraic sum types, the AST's mutating passes
// (this one included) are plain recursive functions with type
// switches that return the possibly-replaced node, rather than an
// extension of the read-only Accept/Visitor interfaces: a visitor
// method returns only an error, which cannot hand a replacement
// child back to its caller.
package typecheck

import (
	"fmt"

	"github.com/cobold-lang/cobold/internal/ast"
	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/source"
	"github.com/cobold-lang/cobold/internal/types"
)

// signature is a function's arity/type shape, used to validate calls
// before a body has necessarily been lowered.
type signature struct {
	argTypes []types.Type
	ret      types.Type
}

// Checker holds the state threaded through one SourceFile's check:
// the function table (built up front so forward references and
// mutual recursion resolve), the scope stack, and the return-type
// stack (a stack rather than a single value so nested function
// literals could be supported later, though the language has none
// today).
type Checker struct {
	bag   *diag.Bag
	funcs map[string]signature
	scope *scopeStack

	returnStack []types.Type
	loopDepth   int

	// externAllocatorName is the function Malloc desugars into: a
	// call to the external allocator declared by the runtime, taking
	// a byte count and returning Pointer(Nil) (see DESIGN.md for the
	// desugaring choice).
	externAllocatorName string
}

// New creates a Checker that reports into bag. externAllocator is the
// symbol name Malloc desugars calls to (wired from cmd/cobold once
// the runtime's allocator symbol is known).
func New(bag *diag.Bag, externAllocator string) *Checker {
	return &Checker{
		bag:                  bag,
		funcs:                make(map[string]signature),
		scope:                newScopeStack(),
		externAllocatorName:  externAllocator,
	}
}

// Check type-checks every function in sf in place, returning sf for
// convenience. Errors are reported into the Checker's diag.Bag.
func (c *Checker) Check(sf *ast.SourceFile) *ast.SourceFile {
	c.registerAllocator()
	for _, fn := range sf.Functions {
		if _, dup := c.funcs[fn.Name]; dup {
			c.bag.Report(diag.TypeError, fn.Span, fmt.Sprintf("duplicate function `%s`", fn.Name))
			continue
		}
		c.funcs[fn.Name] = signatureOf(fn)
	}
	for _, fn := range sf.Functions {
		c.checkFunction(fn)
	}
	// Declare the allocator as an external function so Lower can
	// resolve the calls desugared Malloc nodes make to it.
	if c.externAllocatorName != "" && sf.FunctionByName(c.externAllocatorName) == nil {
		sf.Functions = append(sf.Functions, &ast.Function{
			Name:         c.externAllocatorName,
			Args:         []ast.Argument{{Name: "size", Type: types.Integral(64)}},
			ReturnType:   types.Opaque(),
			ExternSymbol: c.externAllocatorName,
		})
	}
	return sf
}

// registerAllocator installs the external allocator's signature so
// desugared Malloc calls resolve like any other Call.
func (c *Checker) registerAllocator() {
	if c.externAllocatorName == "" {
		return
	}
	c.funcs[c.externAllocatorName] = signature{
		argTypes: []types.Type{types.Integral(64)},
		ret:      types.Opaque(),
	}
}

func signatureOf(fn *ast.Function) signature {
	sig := signature{ret: fn.ReturnType}
	for _, a := range fn.Args {
		sig.argTypes = append(sig.argTypes, a.Type)
	}
	return sig
}

func (c *Checker) checkFunction(fn *ast.Function) {
	if fn.IsExternal() {
		return
	}
	c.scope.push()
	defer c.scope.pop()

	for _, a := range fn.Args {
		if !c.scope.declare(a.Name, a.Type) {
			c.bag.Report(diag.TypeError, fn.Span, fmt.Sprintf("duplicate parameter `%s`", a.Name))
		}
	}

	c.returnStack = append(c.returnStack, fn.ReturnType)
	defer func() { c.returnStack = c.returnStack[:len(c.returnStack)-1] }()

	fn.Body = c.checkCompound(fn.Body)
}

func (c *Checker) currentReturnType() types.Type {
	return c.returnStack[len(c.returnStack)-1]
}

// --- Statements -------------------------------------------------------

func (c *Checker) checkCompound(cp *ast.Compound) *ast.Compound {
	c.scope.push()
	defer c.scope.pop()
	for i, s := range cp.Stmts {
		cp.Stmts[i] = c.checkStmt(s)
	}
	return cp
}

func (c *Checker) checkStmt(s ast.Stmt) ast.Stmt {
	switch n := s.(type) {
	case *ast.Return:
		return c.checkReturn(n)
	case *ast.Declaration:
		return c.checkDeclaration(n)
	case *ast.Assignment:
		return c.checkAssignment(n)
	case *ast.ExprStmt:
		n.Expr = c.checkExpr(n.Expr)
		return n
	case *ast.Compound:
		return c.checkCompound(n)
	case *ast.If:
		return c.checkIf(n)
	case *ast.While:
		return c.checkWhile(n)
	case *ast.For:
		return c.checkFor(n)
	case *ast.Break:
		return n
	case *ast.Continue:
		return n
	default:
		c.bag.Report(diag.InternalError, s.Span(), fmt.Sprintf("typecheck: unhandled statement %T", s))
		return s
	}
}

func (c *Checker) checkReturn(r *ast.Return) ast.Stmt {
	want := c.currentReturnType()
	if r.Expr == nil {
		return r
	}
	r.Expr = c.checkExpr(r.Expr)
	r.Expr = c.wrapExplicitCast(r.Expr, want)
	return r
}

func (c *Checker) checkDeclaration(d *ast.Declaration) ast.Stmt {
	d.Init = c.checkExpr(d.Init)
	initType := d.Init.ExprType()

	if d.DeclType == nil {
		if isUntypedInit(d.Init) {
			c.bag.Report(diag.TypeError, d.Span(), fmt.Sprintf("declaration `%s` needs an explicit type", d.Name))
			d.DeclType = types.Nil()
		} else {
			d.DeclType = initType
		}
	} else if !sameType(d.DeclType, initType) {
		if arr, ok := d.Init.(*ast.ArrayExpr); ok {
			if elem, ok := types.Elem(d.DeclType); ok {
				for i, el := range arr.Elements {
					arr.Elements[i] = c.wrapExplicitCast(el, elem)
				}
				arr.SetExprType(d.DeclType)
			}
		} else if !isDash(d.Init) {
			d.Init = c.wrapExplicitCast(d.Init, d.DeclType)
		}
	}

	if !c.scope.declare(d.Name, d.DeclType) {
		c.bag.Report(diag.TypeError, d.Span(), fmt.Sprintf("duplicate declaration of `%s` in this scope", d.Name))
	}
	return d
}

func isUntypedInit(e ast.Expr) bool {
	c, ok := e.(*ast.Constant)
	return ok && (c.Kind == ast.ConstDash)
}

func isDash(e ast.Expr) bool {
	c, ok := e.(*ast.Constant)
	return ok && c.Kind == ast.ConstDash
}

// checkAssignment rewrites `lhs op= rhs` into `lhs = lhs <op> rhs` and
// re-dispatches through the `=` path, per the compound-assignment
// desugaring rule.
func (c *Checker) checkAssignment(a *ast.Assignment) ast.Stmt {
	if a.Op != ast.AssignEq {
		binOp := a.Op.BinaryOpFor()
		rhs := ast.NewBinary(a.Lhs, binOp, a.Rhs, a.Span())
		a.Rhs = rhs
		a.Op = ast.AssignEq
	}

	a.Lhs = c.checkExpr(a.Lhs)
	a.Rhs = c.checkExpr(a.Rhs)
	a.Rhs = c.wrapExplicitCast(a.Rhs, a.Lhs.ExprType())
	return a
}

func (c *Checker) checkIf(i *ast.If) ast.Stmt {
	for bi := range i.Branches {
		i.Branches[bi].Cond = c.checkExpr(i.Branches[bi].Cond)
		i.Branches[bi].Body = c.checkCompound(i.Branches[bi].Body)
	}
	return i
}

func (c *Checker) checkWhile(w *ast.While) ast.Stmt {
	if r, ok := w.Cond.(*ast.RangeExpr); ok && r.Unbounded() {
		w.Cond = ast.NewBoolConstant(true, w.Cond.Span())
		w.Cond.SetExprType(types.Bool())
	} else {
		w.Cond = c.checkExpr(w.Cond)
		if !CanCastImplicitTo(w.Cond.ExprType(), types.Bool()) {
			c.typeError(w.Cond.Span(), "while condition must be bool, got %s", w.Cond.ExprType().DebugString())
		}
		w.Cond = c.wrapExplicitCast(w.Cond, types.Bool())
	}
	c.loopDepth++
	w.Body = c.checkCompound(w.Body)
	c.loopDepth--
	return w
}

func (c *Checker) checkFor(f *ast.For) ast.Stmt {
	f.Iterable = c.checkExpr(f.Iterable)
	elem, ok := IteratorType(f.Iterable.ExprType())
	if !ok {
		c.bag.Report(diag.TypeError, f.Iterable.Span(),
			fmt.Sprintf("cannot iterate over %s", f.Iterable.ExprType().DebugString()))
		elem = types.Nil()
	}
	if f.DeclType == nil {
		f.DeclType = elem
	}

	c.scope.push()
	if !c.scope.declare(f.Name, f.DeclType) {
		c.bag.Report(diag.TypeError, f.Span(), fmt.Sprintf("duplicate declaration of `%s` in this scope", f.Name))
	}
	c.loopDepth++
	f.Body = c.checkCompound(f.Body)
	c.loopDepth--
	c.scope.pop()
	return f
}

// wrapExplicitCast is the `WrapExplicitCast` helper: it inserts a Cast
// node when e's type differs from want and an explicit cast is legal,
// is a no-op (cast idempotence) when the types already match, and
// never wraps a Dash-typed expression (it stays a zero-init marker).
func (c *Checker) wrapExplicitCast(e ast.Expr, want types.Type) ast.Expr {
	got := e.ExprType()
	if got == nil || want == nil {
		return e
	}
	if sameType(got, want) {
		return e
	}
	if got.Class() == types.ClassDash {
		return e
	}
	if !CanCastExplicitTo(got, want) {
		c.bag.Report(diag.TypeError, e.Span(),
			fmt.Sprintf("cannot cast %s to %s", got.DebugString(), want.DebugString()))
		return e
	}
	cast := ast.NewCast(want, e, e.Span())
	cast.SetExprType(want)
	return cast
}

func (c *Checker) typeError(span source.Span, format string, args ...interface{}) {
	c.bag.Report(diag.TypeError, span, fmt.Sprintf(format, args...))
}
