package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterning(t *testing.T) {
	t.Run("integral is cached per size", func(t *testing.T) {
		assert.Same(t, Integral(32), Integral(32))
		assert.NotSame(t, Integral(32), Integral(64))
	})

	t.Run("floating is cached per size", func(t *testing.T) {
		assert.Same(t, Floating(64), Floating(64))
	})

	t.Run("array/pointer/range are cached per element type", func(t *testing.T) {
		assert.Same(t, ArrayOf(Integral(32)), ArrayOf(Integral(32)))
		assert.Same(t, PointerTo(Bool()), PointerTo(Bool()))
		assert.Same(t, RangeOf(Char()), RangeOf(Char()))
		assert.NotSame(t, ArrayOf(Integral(32)), ArrayOf(Integral(64)))
	})

	t.Run("singletons are stable", func(t *testing.T) {
		assert.Same(t, Nil(), Nil())
		assert.Same(t, Dash(), Dash())
		assert.Same(t, Bool(), Bool())
		assert.Same(t, Char(), Char())
		assert.Same(t, String(), String())
	})
}

func TestDebugString(t *testing.T) {
	assert.Equal(t, "i32", Integral(32).DebugString())
	assert.Equal(t, "f64", Floating(64).DebugString())
	assert.Equal(t, "[i32]", ArrayOf(Integral(32)).DebugString())
	assert.Equal(t, "[|i32|]", RangeOf(Integral(32)).DebugString())
	assert.Equal(t, "i32*", PointerTo(Integral(32)).DebugString())
	assert.Equal(t, "nil*", Opaque().DebugString())
}

func TestElem(t *testing.T) {
	elem, ok := Elem(ArrayOf(Bool()))
	assert.True(t, ok)
	assert.Same(t, Bool(), elem)

	_, ok = Elem(Bool())
	assert.False(t, ok)
}

func TestIsArithmetic(t *testing.T) {
	assert.True(t, IsArithmetic(Integral(64)))
	assert.True(t, IsArithmetic(Floating(32)))
	assert.False(t, IsArithmetic(Bool()))
	assert.False(t, IsArithmetic(String()))
}
