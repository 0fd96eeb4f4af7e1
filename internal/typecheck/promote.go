package typecheck

import "github.com/cobold-lang/cobold/internal/types"

// CanCastImplicitTo reports whether a value of type from may be used
// where a value of type to is expected without an explicit Cast node,
// per the cast-legality table: identity, Dash-to-anything, widening
// Integral/Floating, and nothing else.
func CanCastImplicitTo(from, to types.Type) bool {
	if sameType(from, to) {
		return true
	}
	if from.Class() == types.ClassDash {
		return true
	}
	if a, ok := from.(*types.IntegralType); ok {
		if b, ok := to.(*types.IntegralType); ok {
			return a.Size() <= b.Size()
		}
	}
	if a, ok := from.(*types.FloatingType); ok {
		if b, ok := to.(*types.FloatingType); ok {
			return a.Size() <= b.Size()
		}
	}
	return false
}

// CanCastExplicitTo reports whether an explicit Cast from `from` to
// `to` is legal. Every implicit cast is also a legal explicit one;
// beyond that, integer<->integer and float<->float of any widths,
// integer<->float, integer<->bool/char/pointer and pointer<->pointer
// bitcasts are allowed, and nothing else is.
func CanCastExplicitTo(from, to types.Type) bool {
	if CanCastImplicitTo(from, to) {
		return true
	}
	if sameType(from, to) {
		return true
	}

	isIntegral := func(t types.Type) bool { _, ok := t.(*types.IntegralType); return ok }
	isFloating := func(t types.Type) bool { _, ok := t.(*types.FloatingType); return ok }
	isPointer := func(t types.Type) bool { return t.Class() == types.ClassPointer }

	switch {
	case isIntegral(from) && isIntegral(to), isFloating(from) && isFloating(to):
		return true
	case isIntegral(from) && isFloating(to), isFloating(from) && isIntegral(to):
		return true
	case isIntegral(from) && (to.Class() == types.ClassBool || to.Class() == types.ClassChar || isPointer(to)):
		return true
	case isPointer(from) && isIntegral(to):
		return true
	case (from.Class() == types.ClassBool || from.Class() == types.ClassChar) && isIntegral(to):
		return true
	case isPointer(from) && isPointer(to):
		return true
	}
	return false
}

func sameType(a, b types.Type) bool {
	if a == b {
		return true
	}
	ai, aok := a.(*types.IntegralType)
	bi, bok := b.(*types.IntegralType)
	if aok && bok {
		return ai.Size() == bi.Size()
	}
	af, aok := a.(*types.FloatingType)
	bf, bok := b.(*types.FloatingType)
	if aok && bok {
		return af.Size() == bf.Size()
	}
	return a.Class() == b.Class() && a.DebugString() == b.DebugString()
}

// IsIntegral/IsFloating/IsPointer are small predicates used throughout
// the operator rules below.
func IsIntegral(t types.Type) bool { _, ok := t.(*types.IntegralType); return ok }
func IsFloating(t types.Type) bool { _, ok := t.(*types.FloatingType); return ok }
func IsPointer(t types.Type) bool  { return t.Class() == types.ClassPointer }

// PromoteIntegral returns the wider of two Integral types.
func PromoteIntegral(a, b *types.IntegralType) *types.IntegralType {
	if a.Size() >= b.Size() {
		return a
	}
	return b
}

// PromoteFloating returns the wider of two Floating types.
func PromoteFloating(a, b *types.FloatingType) *types.FloatingType {
	if a.Size() >= b.Size() {
		return a
	}
	return b
}

// PromoteArithmetic implements the `+ - * /` / `==` promotion rule for
// two arithmetic operands: if either side is Floating, float
// dominates (promoted to the wider float, widening the integer side
// notionally); if both are Integral, the wider integral wins.
func PromoteArithmetic(a, b types.Type) (types.Type, bool) {
	af, aIsFloat := a.(*types.FloatingType)
	bf, bIsFloat := b.(*types.FloatingType)
	switch {
	case aIsFloat && bIsFloat:
		return PromoteFloating(af, bf), true
	case aIsFloat && IsIntegral(b):
		return af, true
	case bIsFloat && IsIntegral(a):
		return bf, true
	}
	ai, aIsInt := a.(*types.IntegralType)
	bi, bIsInt := b.(*types.IntegralType)
	if aIsInt && bIsInt {
		return PromoteIntegral(ai, bi), true
	}
	return nil, false
}

// ArePointerMathTypes reports whether (a, b) is a legal operand pair
// for pointer arithmetic: pointer+integral in either order, or the
// same pointer type on both sides.
func ArePointerMathTypes(a, b types.Type) bool {
	if IsPointer(a) && IsIntegral(b) {
		return true
	}
	if IsPointer(b) && IsIntegral(a) {
		return true
	}
	if IsPointer(a) && IsPointer(b) && sameType(a, b) {
		return true
	}
	return false
}

// PromotePointer returns the pointer-typed operand of a legal pointer
// math pair, i.e. the type the whole expression retains.
func PromotePointer(a, b types.Type) types.Type {
	if IsPointer(a) {
		return a
	}
	return b
}

// UnifyArrayTypes implements the array/ternary unification rule: the
// unique type U every candidate implicit-casts to. Returns ok=false
// if no such U exists (candidates diverge).
func UnifyArrayTypes(candidates []types.Type) (types.Type, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	u := candidates[0]
	for _, t := range candidates[1:] {
		switch {
		case CanCastImplicitTo(t, u):
			// keep u
		case CanCastImplicitTo(u, t):
			u = t
		default:
			return nil, false
		}
	}
	return u, true
}

// IteratorType returns the element type yielded by iterating over an
// Array, Range or String (a String yields Char).
func IteratorType(t types.Type) (types.Type, bool) {
	if t.Class() == types.ClassString {
		return types.Char(), true
	}
	return types.Elem(t)
}
