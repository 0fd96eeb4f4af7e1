// Package source tracks positions within a compiled file and renders
// the surrounding text for diagnostics.
package source

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Location is a single point within a source file: a 1-indexed
// line/column pair plus the raw byte cursor it was derived from.
type Location struct {
	File   string
	Line   int32
	Column int32
	Cursor int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Span covers the half-open range of text between Start and End.
// Every AST node and every diagnostic carries one.
type Span struct {
	Start Location
	End   Location
}

// Generated is the zero-width span attached to nodes synthesized by
// a compiler pass rather than read from source (e.g. the inserted
// `true` branch that terminates an if-chain, or a cast node wrapped
// around an expression by TypeInference).
func Generated() Span {
	return Span{}
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line && s.Start.Column == s.End.Column {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d..%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d..%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	start, end := a.Start, b.End
	if b.Start.Cursor < a.Start.Cursor {
		start = b.Start
	}
	if a.End.Cursor > b.End.Cursor {
		end = a.End
	}
	return Span{Start: start, End: end}
}

// LineIndex converts byte cursors into line/column locations without
// rescanning the input on every lookup. It is built once per file and
// shared by the lexer, the parser and diagnostic rendering.
type LineIndex struct {
	file      string
	input     []byte
	lineStart []int
}

// NewLineIndex scans input once, recording where every line begins.
func NewLineIndex(file string, input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{file: file, input: input, lineStart: lineStart}
}

// LocationAt returns the Location of the given byte cursor.
func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}

	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	lineStart := li.lineStart[lineIdx]
	col := int32(utf8.RuneCount(li.input[lineStart:cursor])) + 1

	return Location{
		File:   li.file,
		Line:   int32(lineIdx + 1),
		Column: col,
		Cursor: cursor,
	}
}

// Span builds a Span from a pair of byte cursors.
func (li *LineIndex) Span(startCursor, endCursor int) Span {
	return Span{Start: li.LocationAt(startCursor), End: li.LocationAt(endCursor)}
}

// Line returns the raw text of the 1-indexed line n, without its
// trailing newline. Used by diagnostics rendering to show the
// offending line and an optional line of leading context.
func (li *LineIndex) Line(n int32) string {
	if n < 1 || int(n) > len(li.lineStart) {
		return ""
	}
	start := li.lineStart[n-1]
	end := len(li.input)
	if int(n) < len(li.lineStart) {
		end = li.lineStart[n] - 1
	}
	if end < start {
		end = start
	}
	for end > start && (li.input[end-1] == '\n' || li.input[end-1] == '\r') {
		end--
	}
	return string(li.input[start:end])
}
