package lower

import (
	"fmt"

	"github.com/cobold-lang/cobold/internal/ast"
	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irenum "github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// loopTargets is one entry in the loop-stack Break/Continue resolve
// against: the block `continue` jumps to and the block `break` jumps
// to, for the innermost enclosing While/For.
type loopTargets struct {
	continueBlock *ir.Block
	breakBlock    *ir.Block
}

// funcState is the per-function lowering context: the current
// insertion block (the "cursor" the teacher's own codegen carries
// through a single-pass statement walk), the named-locals table
// mapping a source name to its stack slot, and the loop-target stack.
type funcState struct {
	lw     *Lowerer
	fn     *ir.Func
	entry  *ir.Block
	cur    *ir.Block
	locals map[string]*ir.InstAlloca
	loops  []loopTargets
	blockN int
}

func (fs *funcState) newBlock(name string) *ir.Block {
	fs.blockN++
	b := fs.fn.NewBlock(fmt.Sprintf("%s.%d", name, fs.blockN))
	return b
}

// terminated reports whether the current block already ends in a
// terminator, so lowering never appends a second one (e.g. after a
// Return inside an If branch).
func (fs *funcState) terminated() bool {
	return fs.cur.Term != nil
}

func (lw *Lowerer) defineFunc(fn *ast.Function) {
	f := lw.funcs[fn.Name]
	fs := &funcState{lw: lw, fn: f, locals: make(map[string]*ir.InstAlloca)}
	fs.entry = f.NewBlock("entry")
	fs.cur = fs.entry

	for i, a := range fn.Args {
		slot := fs.cur.NewAlloca(LLType(a.Type))
		slot.SetName(a.Name + ".addr")
		fs.cur.NewStore(f.Params[i], slot)
		fs.locals[a.Name] = slot
	}

	fs.lowerCompound(fn.Body)

	if !fs.terminated() {
		fs.cur.NewRet(zeroValueFor(f.Sig.RetType))
	}
}

func zeroValueFor(t irtypes.Type) value.Value {
	switch tt := t.(type) {
	case *irtypes.VoidType:
		return nil
	case *irtypes.IntType:
		return constant.NewInt(tt, 0)
	case *irtypes.FloatType:
		return constant.NewFloat(tt, 0)
	case *irtypes.PointerType:
		return constant.NewNull(tt)
	default:
		return constant.NewZeroInitializer(t)
	}
}

// --- Statements -------------------------------------------------------

func (fs *funcState) lowerCompound(cp *ast.Compound) {
	for _, s := range cp.Stmts {
		if fs.terminated() {
			return
		}
		fs.lowerStmt(s)
	}
}

func (fs *funcState) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Return:
		fs.lowerReturn(n)
	case *ast.Declaration:
		fs.lowerDeclaration(n)
	case *ast.Assignment:
		fs.lowerAssignment(n)
	case *ast.ExprStmt:
		fs.lowerExpr(n.Expr)
	case *ast.Compound:
		fs.lowerCompound(n)
	case *ast.If:
		fs.lowerIf(n)
	case *ast.While:
		fs.lowerWhile(n)
	case *ast.For:
		fs.lowerFor(n)
	case *ast.Break:
		fs.lowerBreak(n)
	case *ast.Continue:
		fs.lowerContinue(n)
	default:
		fs.lw.bag.Report(diag.InternalError, s.Span(), fmt.Sprintf("lower: unhandled statement %T", s))
	}
}

func (fs *funcState) lowerReturn(r *ast.Return) {
	if r.Expr == nil {
		fs.cur.NewRet(nil)
		return
	}
	v := fs.lowerExpr(r.Expr)
	fs.cur.NewRet(v)
}

func (fs *funcState) lowerDeclaration(d *ast.Declaration) {
	llType := LLType(d.DeclType)
	slot := fs.entry.NewAlloca(llType)
	slot.SetName(d.Name + ".addr")
	fs.locals[d.Name] = slot

	if !isDashExpr(d.Init) {
		v := fs.lowerExpr(d.Init)
		fs.cur.NewStore(v, slot)
	}
}

func isDashExpr(e ast.Expr) bool {
	c, ok := e.(*ast.Constant)
	return ok && c.Kind == ast.ConstDash
}

func (fs *funcState) lowerAssignment(a *ast.Assignment) {
	addr := fs.lowerLValue(a.Lhs)
	v := fs.lowerExpr(a.Rhs)
	fs.cur.NewStore(v, addr)
}

// lowerLValue resolves an assignable expression to its storage
// address: an Identifier's slot, or a dereferenced pointer.
func (fs *funcState) lowerLValue(e ast.Expr) value.Value {
	switch n := e.(type) {
	case *ast.Identifier:
		slot, ok := fs.locals[n.Name]
		if !ok {
			fs.lw.bag.Report(diag.InternalError, n.Span(), fmt.Sprintf("lower: unknown local `%s`", n.Name))
			return constant.NewNull(irtypes.NewPointer(irtypes.I8))
		}
		return slot
	case *ast.Unary:
		if n.Op == ast.OpDereference {
			return fs.lowerExpr(n.Operand)
		}
	}
	fs.lw.bag.Report(diag.InternalError, e.Span(), "lower: expression is not assignable")
	return constant.NewNull(irtypes.NewPointer(irtypes.I8))
}

func (fs *funcState) lowerIf(n *ast.If) {
	after := fs.newBlock("if.end")
	for _, br := range n.Branches {
		if ast.IsSyntheticElse(br) {
			fs.lowerCompound(br.Body)
			if !fs.terminated() {
				fs.cur.NewBr(after)
			}
			continue
		}
		thenBlock := fs.newBlock("if.then")
		elseBlock := fs.newBlock("if.else")
		cond := fs.lowerExpr(br.Cond)
		fs.cur.NewCondBr(cond, thenBlock, elseBlock)

		fs.cur = thenBlock
		fs.lowerCompound(br.Body)
		if !fs.terminated() {
			fs.cur.NewBr(after)
		}
		fs.cur = elseBlock
	}
	if !fs.terminated() {
		fs.cur.NewBr(after)
	}
	fs.cur = after
}

func (fs *funcState) lowerWhile(n *ast.While) {
	cond := fs.newBlock("while.cond")
	body := fs.newBlock("while.body")
	after := fs.newBlock("while.end")

	fs.cur.NewBr(cond)
	fs.cur = cond
	c := fs.lowerExpr(n.Cond)
	fs.cur.NewCondBr(c, body, after)

	fs.cur = body
	fs.loops = append(fs.loops, loopTargets{continueBlock: cond, breakBlock: after})
	fs.lowerCompound(n.Body)
	fs.loops = fs.loops[:len(fs.loops)-1]
	if !fs.terminated() {
		fs.cur.NewBr(cond)
	}
	fs.cur = after
}

// lowerFor lowers `for name in iterable { body }` over a Range by
// counting from the lower to the upper bound. The loop-continuation
// test is a signed `icmp slt` of the loop variable against the upper
// bound (the original used an unsigned ICmpUGE), matching the signed
// integer comparisons used everywhere else in this pass, see DESIGN.md.
func (fs *funcState) lowerFor(n *ast.For) {
	rangeExpr, isRange := n.Iterable.(*ast.RangeExpr)
	if !isRange {
		fs.lw.bag.Report(diag.InternalError, n.Span(), "lower: for-loop over non-range iterables is not yet supported")
		return
	}

	elemType := LLType(n.DeclType)
	slot := fs.entry.NewAlloca(elemType)
	slot.SetName(n.Name + ".addr")
	fs.locals[n.Name] = slot

	var lo value.Value = constant.NewInt(elemType.(*irtypes.IntType), 0)
	if rangeExpr.Lhs != nil {
		lo = fs.lowerExpr(rangeExpr.Lhs)
	}
	var hi value.Value
	if rangeExpr.Rhs != nil {
		hi = fs.lowerExpr(rangeExpr.Rhs)
	}
	fs.cur.NewStore(lo, slot)

	cond := fs.newBlock("for.cond")
	body := fs.newBlock("for.body")
	after := fs.newBlock("for.end")

	fs.cur.NewBr(cond)
	fs.cur = cond
	cur := fs.cur.NewLoad(elemType, slot)
	if hi != nil {
		test := fs.cur.NewICmp(irenum.IPredSLT, cur, hi)
		fs.cur.NewCondBr(test, body, after)
	} else {
		fs.cur.NewBr(body)
	}

	fs.cur = body
	fs.loops = append(fs.loops, loopTargets{continueBlock: cond, breakBlock: after})
	fs.lowerCompound(n.Body)
	fs.loops = fs.loops[:len(fs.loops)-1]
	if !fs.terminated() {
		loaded := fs.cur.NewLoad(elemType, slot)
		one := constant.NewInt(elemType.(*irtypes.IntType), 1)
		next := fs.cur.NewAdd(loaded, one)
		fs.cur.NewStore(next, slot)
		fs.cur.NewBr(cond)
	}
	fs.cur = after
}

func (fs *funcState) lowerBreak(n *ast.Break) {
	if len(fs.loops) == 0 {
		fs.lw.bag.Report(diag.InternalError, n.Span(), "lower: break outside of a loop")
		return
	}
	fs.cur.NewBr(fs.loops[len(fs.loops)-1].breakBlock)
}

func (fs *funcState) lowerContinue(n *ast.Continue) {
	if len(fs.loops) == 0 {
		fs.lw.bag.Report(diag.InternalError, n.Span(), "lower: continue outside of a loop")
		return
	}
	fs.cur.NewBr(fs.loops[len(fs.loops)-1].continueBlock)
}
