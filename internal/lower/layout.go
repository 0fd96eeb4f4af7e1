package lower

import (
	"fmt"

	"github.com/cobold-lang/cobold/internal/types"
	irtypes "github.com/llir/llvm/ir/types"
)

// pointerByteSize is the lowering target's pointer width. The package
// assumes a single 64-bit target; a port to a 32-bit target would
// thread this through instead of hardcoding it.
const pointerByteSize = 8

// LLType maps a Cobold type to its LLIR representation. Strings lower
// to the fixed `{i64, i8*}` struct pair; everything else is a direct
// scalar/pointer/array mapping.
func LLType(t types.Type) irtypes.Type {
	switch t.Class() {
	case types.ClassNil:
		return irtypes.Void
	case types.ClassDash:
		return irtypes.Void
	case types.ClassBool:
		return irtypes.I1
	case types.ClassChar:
		return irtypes.I8
	case types.ClassIntegral:
		it := t.(*types.IntegralType)
		return irtypes.NewInt(uint64(it.Size()))
	case types.ClassFloating:
		ft := t.(*types.FloatingType)
		if ft.Size() <= 32 {
			return irtypes.Float
		}
		return irtypes.Double
	case types.ClassString:
		return StringType
	case types.ClassArray:
		elem, _ := types.Elem(t)
		return irtypes.NewPointer(LLType(elem))
	case types.ClassRange:
		elem, _ := types.Elem(t)
		return irtypes.NewPointer(LLType(elem))
	case types.ClassPointer:
		elem, _ := types.Elem(t)
		inner := LLType(elem)
		if _, isVoid := inner.(*irtypes.VoidType); isVoid {
			return irtypes.NewPointer(irtypes.I8)
		}
		return irtypes.NewPointer(inner)
	default:
		panic(fmt.Sprintf("lower: unhandled type class %v", t.Class()))
	}
}

// AllocSize is the target data layout's allocation size, in bytes, of
// t's LLIR translation -- what Sizeof(t) lowers to.
func AllocSize(t types.Type) int64 {
	switch t.Class() {
	case types.ClassBool, types.ClassChar:
		return 1
	case types.ClassIntegral:
		return int64((t.(*types.IntegralType).Size() + 7) / 8)
	case types.ClassFloating:
		return int64((t.(*types.FloatingType).Size() + 7) / 8)
	case types.ClassString:
		return 8 + pointerByteSize
	case types.ClassPointer, types.ClassArray, types.ClassRange:
		return pointerByteSize
	case types.ClassNil, types.ClassDash:
		return 0
	default:
		panic(fmt.Sprintf("lower: unhandled type class %v in AllocSize", t.Class()))
	}
}
