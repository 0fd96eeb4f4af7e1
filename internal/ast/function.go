package ast

import (
	"github.com/cobold-lang/cobold/internal/source"
	"github.com/cobold-lang/cobold/internal/types"
)

// Argument is one formal parameter of a Function.
type Argument struct {
	Name string
	Type types.Type
}

// Function is a top-level function: either a Defined body or an
// External declaration naming the linker symbol to bind to.
type Function struct {
	Name       string
	Args       []Argument
	ReturnType types.Type
	Span       source.Span

	// Body is non-nil iff the function is Defined.
	Body *Compound

	// ExternSymbol is non-empty iff the function has no body and is
	// declared with `#extern("symbol")`.
	ExternSymbol string
}

// IsExternal reports whether the function has no Cobold-level body.
func (f *Function) IsExternal() bool { return f.Body == nil }

// SourceFile is the parse unit: a filename, its (unresolved) imports
// and its function list.
type SourceFile struct {
	Filename  string
	Imports   []string
	Functions []*Function
}

// FunctionByName returns the function named name, or nil.
func (s *SourceFile) FunctionByName(name string) *Function {
	for _, fn := range s.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
