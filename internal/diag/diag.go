// Package diag is the compiler's append-only error bundle. Parser,
// TypeCheck and Lower all write to the same Bag; the phase driver
// drains it at phase boundaries.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/cobold-lang/cobold/internal/source"
)

// Kind classifies a Diagnostic for callers that want to branch on it
// without string-matching the message.
type Kind int

const (
	ParseError Kind = iota
	BadLiteral
	TypeError
	UnsupportedConstruct
	InternalError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "parse-error"
	case BadLiteral:
		return "bad-literal"
	case TypeError:
		return "type-error"
	case UnsupportedConstruct:
		return "unsupported-construct"
	case InternalError:
		return "internal-error"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem, carrying enough context to
// render a caret under the offending column.
type Diagnostic struct {
	Kind    Kind
	Span    source.Span
	Message string
	// Context, when set, is an additional line appended below the
	// rendered source (e.g. "expected one of: i32, i64").
	Context string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s @ %s", d.Kind, d.Message, d.Span)
}

// Bag accumulates diagnostics across phases. It never panics and
// never aborts a pass on the first error; a pass keeps walking the
// tree so it can report as many problems as possible in one run.
type Bag struct {
	lines []*source.LineIndex
	items []Diagnostic
}

// NewBag creates an empty bag. The LineIndex used to render each
// file's content is registered afterwards via SetLines, once per
// parsed file.
func NewBag() *Bag {
	return &Bag{}
}

// SetLines registers the LineIndex used to render source context for
// diagnostics belonging to a given file.
func (b *Bag) SetLines(li *source.LineIndex) {
	b.lines = append(b.lines, li)
}

func (b *Bag) lineIndexFor(file string) *source.LineIndex {
	for _, li := range b.lines {
		if li != nil && li.LocationAt(0).File == file {
			return li
		}
	}
	return nil
}

// Report appends a Diagnostic to the bag.
func (b *Bag) Report(kind Kind, span source.Span, message string) {
	b.items = append(b.items, Diagnostic{Kind: kind, Span: span, Message: message})
}

// ReportWithContext is like Report but attaches a trailing context
// line (e.g. listing expected tokens).
func (b *Bag) ReportWithContext(kind Kind, span source.Span, message, context string) {
	b.items = append(b.items, Diagnostic{Kind: kind, Span: span, Message: message, Context: context})
}

// HasErrors reports whether any diagnostic was logged.
func (b *Bag) HasErrors() bool { return len(b.items) > 0 }

// Len returns the number of diagnostics logged so far.
func (b *Bag) Len() int { return len(b.items) }

// Items returns the accumulated diagnostics, for programmatic callers
// that don't want the bag to terminate the process.
func (b *Bag) Items() []Diagnostic { return append([]Diagnostic(nil), b.items...) }

// Drain renders every diagnostic to w, in the order reported, then
// returns the number of diagnostics drained. It does not clear the
// bag; callers that need to terminate the process should check the
// returned count themselves.
func (b *Bag) Drain(w io.Writer) int {
	for _, d := range b.items {
		renderOne(w, b.lineIndexFor(d.Span.Start.File), d)
	}
	if n := len(b.items); n > 0 {
		plural := "s"
		if n == 1 {
			plural = ""
		}
		fmt.Fprintf(w, "%d error%s\n", n, plural)
	}
	return len(b.items)
}

func renderOne(w io.Writer, li *source.LineIndex, d Diagnostic) {
	fmt.Fprintf(w, "%s: %s\n", d.Span.Start, d.Message)
	if li == nil {
		return
	}
	if d.Span.Start.Line > 1 {
		if prev := li.Line(d.Span.Start.Line - 1); prev != "" {
			fmt.Fprintf(w, "  %4d | %s\n", d.Span.Start.Line-1, prev)
		}
	}
	line := li.Line(d.Span.Start.Line)
	fmt.Fprintf(w, "  %4d | %s\n", d.Span.Start.Line, line)
	caretPad := strings.Repeat(" ", 9+int(d.Span.Start.Column)-1)
	fmt.Fprintf(w, "%s^\n", caretPad)
	if d.Context != "" {
		fmt.Fprintf(w, "        %s\n", d.Context)
	}
}
