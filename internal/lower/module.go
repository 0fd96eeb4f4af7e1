// Package lower translates a type-checked ast.SourceFile into an LLIR
// module using github.com/llir/llvm, a pure-Go LLVM IR library chosen
// so the module never needs a system LLVM toolchain or cgo: LLIR
// stays "machine-independent" the way the source frames it, and the
// actual object-file backend remains a separate, out-of-scope
// collaborator that consumes the textual/bitcode IR this package
// produces.
package lower

import (
	"fmt"

	"github.com/cobold-lang/cobold/internal/ast"
	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/source"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
)

// StringType is the `string = { i64, i8* }` record, created once per
// process and reused across every module this package builds.
var StringType = irtypes.NewStruct(irtypes.I64, irtypes.NewPointer(irtypes.I8))

// Lowerer holds the state threaded through one SourceFile's lowering:
// the destination module, the function symbol table, and the string
// literal interning cache (repeated literals share one global).
type Lowerer struct {
	bag     *diag.Bag
	module  *ir.Module
	funcs   map[string]*ir.Func
	strings map[string]*ir.Global
	strSeq  int
}

// New creates a Lowerer that reports structural problems into bag.
func New(bag *diag.Bag) *Lowerer {
	m := ir.NewModule()
	m.NewTypeDef("string", StringType)
	return &Lowerer{
		bag:     bag,
		module:  m,
		funcs:   make(map[string]*ir.Func),
		strings: make(map[string]*ir.Global),
	}
}

// Lower translates sf into this Lowerer's module, declaring/defining
// every function and synthesizing the `main` entry point that calls
// the source's `Main`. Returns the finished module.
func (lw *Lowerer) Lower(sf *ast.SourceFile) *ir.Module {
	for _, fn := range sf.Functions {
		lw.declareFunc(fn)
	}
	for _, fn := range sf.Functions {
		if !fn.IsExternal() {
			lw.defineFunc(fn)
		}
	}
	lw.synthesizeMain(sf)
	return lw.module
}

func (lw *Lowerer) declareFunc(fn *ast.Function) {
	params := make([]*ir.Param, len(fn.Args))
	for i, a := range fn.Args {
		params[i] = ir.NewParam(a.Name, LLType(a.Type))
	}
	retType := LLType(fn.ReturnType)
	f := lw.module.NewFunc(fn.Name, retType, params...)
	if fn.IsExternal() {
		f.Linkage = ir.LinkageExternal
	} else {
		f.Linkage = ir.LinkagePrivate
	}
	lw.funcs[fn.Name] = f
}

// synthesizeMain builds the LLIR entry point `main(argc, argv) -> i32`
// whose body is exactly one call to the source function named `Main`.
func (lw *Lowerer) synthesizeMain(sf *ast.SourceFile) {
	target := sf.FunctionByName("Main")
	if target == nil {
		lw.bag.Report(diag.InternalError, source.Span{}, "no `Main` function to synthesize an entry point from")
		return
	}

	argc := ir.NewParam("argc", irtypes.I32)
	argv := ir.NewParam("argv", irtypes.NewPointer(irtypes.NewPointer(irtypes.I8)))
	main := lw.module.NewFunc("main", irtypes.I32, argc, argv)
	main.Linkage = ir.LinkageExternal

	entry := main.NewBlock("entry")
	mainFn := lw.funcs["Main"]
	call := entry.NewCall(mainFn)
	entry.NewRet(call)
}

// internString interns literal into a private global `[n x i8]` array
// and returns the `{size, data}` struct constant referencing it.
func (lw *Lowerer) internString(literal string) constant.Constant {
	g, ok := lw.strings[literal]
	if !ok {
		lw.strSeq++
		name := fmt.Sprintf(".str.%d", lw.strSeq)
		data := constant.NewCharArrayFromString(literal)
		g = lw.module.NewGlobalDef(name, data)
		g.Immutable = true
		lw.strings[literal] = g
	}
	zero := constant.NewInt(irtypes.I64, 0)
	ptr := constant.NewGetElementPtr(g.ContentType, g, zero, zero)
	size := constant.NewInt(irtypes.I64, int64(len(literal)))
	return constant.NewStruct(StringType, size, ptr)
}
