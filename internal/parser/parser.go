// Package parser implements the recursive-descent bridge from the
// Cobold grammar's token stream to the internal/ast tree. It is the
// in-scope half of the front end: tokenizing and matching the
// grammar's concrete syntax is the lexer's job and an external
// grammar-tool's job respectively, but building (and validating the
// shape of) the AST from those tokens is the Parser's.
//
// The Parser never aborts on the first syntax error: it reports each
// one into a diag.Bag, resynchronizes at the next statement or
// top-level boundary, and keeps going, so a single invocation can
// surface every syntax error in a file.
package parser

import (
	"fmt"
	"strconv"

	"github.com/cobold-lang/cobold/internal/ast"
	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/lexer"
	"github.com/cobold-lang/cobold/internal/source"
	"github.com/cobold-lang/cobold/internal/types"
)

// Parser turns one file's token stream into an ast.SourceFile. The
// whole stream is buffered up front (Cobold source files are small
// compiler inputs, not multi-gigabyte logs) so that speculative
// lookahead -- the `(T) expr` cast vs. `(expr)` grouping ambiguity
// needs more than one token of lookahead -- is a plain index save and
// restore instead of a streaming-lexer pushback stack.
type Parser struct {
	bag  *diag.Bag
	file string

	toks []lexer.Token
	pos  int
}

// New creates a Parser over input, reporting syntax errors into bag.
func New(file string, input []byte, bag *diag.Bag) *Parser {
	lx := lexer.New(file, input)
	bag.SetLines(lx.Lines())

	var toks []lexer.Token
	for {
		t, err := lx.Next()
		if err != nil {
			bag.Report(diag.ParseError, t.Span, err.Error())
			break
		}
		toks = append(toks, t)
		if t.Kind == lexer.EOF {
			break
		}
	}
	if len(toks) == 0 || toks[len(toks)-1].Kind != lexer.EOF {
		toks = append(toks, lexer.Token{Kind: lexer.EOF})
	}
	return &Parser{bag: bag, file: file, toks: toks}
}

// errStop is a sentinel used internally to unwind out of a
// mid-expression parse once a syntax error has already been reported,
// so the caller can resynchronize instead of compounding the error.
type errStop struct{}

func (errStop) Error() string { return "parser: unwind to resync point" }

// tok is the token under the cursor.
func (p *Parser) tok() lexer.Token { return p.toks[p.pos] }

// tokAt returns the token off tokens ahead of the cursor, clamped to
// the final EOF token.
func (p *Parser) tokAt(off int) lexer.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		i = len(p.toks) - 1
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	cur := p.tok()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return cur
}

// checkpoint/restore implement one-shot backtracking for speculative
// parses (the cast-vs-grouping ambiguity).
func (p *Parser) checkpoint() int   { return p.pos }
func (p *Parser) restore(mark int)  { p.pos = mark }

func (p *Parser) at(k lexer.Kind) bool { return p.tok().Kind == k }

func (p *Parser) expect(k lexer.Kind, what string) lexer.Token {
	if p.tok().Kind != k {
		p.bag.Report(diag.ParseError, p.tok().Span,
			fmt.Sprintf("expected %s, found %s", what, p.tok()))
		panic(errStop{})
	}
	return p.advance()
}

func (p *Parser) accept(k lexer.Kind) bool {
	if p.tok().Kind == k {
		p.advance()
		return true
	}
	return false
}

// Parse consumes the whole token stream and returns the resulting
// SourceFile. Errors are reported into the Parser's diag.Bag, not
// returned; callers should check bag.HasErrors() afterwards. The
// returned SourceFile is best-effort when errors were reported:
// functions that failed to parse are skipped, not nil-padded.
func (p *Parser) Parse() *ast.SourceFile {
	sf := &ast.SourceFile{Filename: p.file}
	for !p.at(lexer.EOF) {
		func() {
			defer p.resyncTopLevel()
			if p.at(lexer.KwImport) {
				sf.Imports = append(sf.Imports, p.parseImport())
				return
			}
			if fn := p.parseFunction(); fn != nil {
				sf.Functions = append(sf.Functions, fn)
			}
		}()
	}
	return sf
}

// resyncTopLevel recovers from a panic(errStop{}) raised anywhere
// below by skipping tokens until the next plausible top-level
// boundary (`fn` or `import`), so one malformed declaration does not
// stop the whole file from being parsed.
func (p *Parser) resyncTopLevel() {
	if r := recover(); r != nil {
		if _, ok := r.(errStop); !ok {
			panic(r)
		}
		for !p.at(lexer.EOF) && !p.at(lexer.KwFn) && !p.at(lexer.KwImport) {
			p.advance()
		}
	}
}

// resyncStatement recovers the same way, but to the next `;` or `}`,
// for use inside a function body.
func (p *Parser) resyncStatement() {
	if r := recover(); r != nil {
		if _, ok := r.(errStop); !ok {
			panic(r)
		}
		for !p.at(lexer.EOF) && !p.at(lexer.Semicolon) && !p.at(lexer.RBrace) {
			p.advance()
		}
		p.accept(lexer.Semicolon)
	}
}

func (p *Parser) parseImport() string {
	start := p.tok().Span
	p.advance() // import
	tok := p.expect(lexer.StringLit, "import path string")
	if tok.Text == "" {
		p.bag.Report(diag.BadLiteral, source.Join(start, tok.Span), "import path must not be empty")
	}
	p.expect(lexer.Semicolon, "`;`")
	return tok.Text
}

func (p *Parser) parseFunction() *ast.Function {
	start := p.tok().Span
	p.expect(lexer.KwFn, "`fn`")
	name := p.expect(lexer.Ident, "function name").Text

	p.expect(lexer.LParen, "`(`")
	var args []ast.Argument
	for !p.at(lexer.RParen) {
		argName := p.expect(lexer.Ident, "parameter name").Text
		p.expect(lexer.Colon, "`:`")
		argType := p.parseType()
		args = append(args, ast.Argument{Name: argName, Type: argType})
		if !p.accept(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RParen, "`)`")

	var retType types.Type = types.Nil()
	if p.accept(lexer.Arrow) {
		retType = p.parseType()
	}

	fn := &ast.Function{Name: name, Args: args, ReturnType: retType}

	if p.accept(lexer.Hash) {
		p.expect(lexer.KwExtern, "`extern`")
		p.expect(lexer.LParen, "`(`")
		sym := p.expect(lexer.StringLit, "extern symbol string")
		if sym.Text == "" {
			p.bag.Report(diag.BadLiteral, sym.Span, "extern symbol must not be empty")
		}
		fn.ExternSymbol = sym.Text
		p.expect(lexer.RParen, "`)`")
		p.expect(lexer.Semicolon, "`;`")
		fn.Span = source.Join(start, sym.Span)
		return fn
	}

	body := p.parseCompound()
	fn.Body = body
	fn.Span = source.Join(start, body.Span())
	return fn
}

// parseType parses a Cobold type expression: scalar names, `T*`,
// `[T]` and `[|T|]`. Array and range types are written around their
// element type; only `*` is postfix, and repeated `*` suffixes apply
// left to right (`i32**` is a pointer to `i32*`).
func (p *Parser) parseType() types.Type {
	var base types.Type
	switch {
	case p.at(lexer.Ident):
		base = p.parseScalarType()
	case p.at(lexer.LBracket):
		p.advance()
		elem := p.parseType()
		p.expect(lexer.RBracket, "`]`")
		base = types.ArrayOf(elem)
	case p.at(lexer.LRangeBracket):
		p.advance()
		elem := p.parseType()
		p.expect(lexer.RRangeBracket, "`|]`")
		base = types.RangeOf(elem)
	default:
		p.bag.Report(diag.ParseError, p.tok().Span, fmt.Sprintf("expected type, found %s", p.tok()))
		panic(errStop{})
	}
	for p.at(lexer.Star) {
		p.advance()
		base = types.PointerTo(base)
	}
	return base
}

func (p *Parser) parseScalarType() types.Type {
	tok := p.expect(lexer.Ident, "type name")
	switch tok.Text {
	case "bool":
		return types.Bool()
	case "char":
		return types.Char()
	case "string":
		return types.String()
	case "nil":
		return types.Nil()
	}
	if len(tok.Text) > 1 && (tok.Text[0] == 'i' || tok.Text[0] == 'f') {
		if size, err := strconv.Atoi(tok.Text[1:]); err == nil {
			if tok.Text[0] == 'i' {
				return types.Integral(size)
			}
			return types.Floating(size)
		}
	}
	p.bag.Report(diag.ParseError, tok.Span, fmt.Sprintf("unknown type name `%s`", tok.Text))
	panic(errStop{})
}

func (p *Parser) parseCompound() *ast.Compound {
	start := p.tok().Span
	p.expect(lexer.LBrace, "`{`")
	var stmts []ast.Stmt
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		func() {
			defer p.resyncStatement()
			stmts = append(stmts, p.parseStatement())
		}()
	}
	end := p.tok().Span
	p.expect(lexer.RBrace, "`}`")
	return ast.NewCompound(stmts, source.Join(start, end))
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.tok().Kind {
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.KwLet, lexer.KwVar:
		return p.parseDeclaration()
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwBreak:
		start := p.tok().Span
		p.advance()
		p.expect(lexer.Semicolon, "`;`")
		return ast.NewBreak(start)
	case lexer.KwContinue:
		start := p.tok().Span
		p.advance()
		p.expect(lexer.Semicolon, "`;`")
		return ast.NewContinue(start)
	case lexer.LBrace:
		return p.parseCompound()
	default:
		return p.parseExprOrAssignment()
	}
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.tok().Span
	p.advance()
	if p.accept(lexer.Semicolon) {
		return ast.NewReturn(nil, start)
	}
	e := p.parseExpr()
	end := p.tok().Span
	p.expect(lexer.Semicolon, "`;`")
	return ast.NewReturn(e, source.Join(start, end))
}

// parseDeclaration handles `let`/`var name[: T][ = init];`. A missing
// initializer is normalized to a synthetic Dash constant, per the
// fixed parser rule that Declaration.Init is never nil.
func (p *Parser) parseDeclaration() ast.Stmt {
	start := p.tok().Span
	isConst := p.tok().Kind == lexer.KwLet
	p.advance()
	name := p.expect(lexer.Ident, "declaration name").Text

	var declType types.Type
	if p.accept(lexer.Colon) {
		declType = p.parseType()
	}

	var init ast.Expr
	if p.accept(lexer.Eq) {
		init = p.parseExpr()
	} else {
		init = ast.NewDash(source.Span{})
	}
	end := p.tok().Span
	p.expect(lexer.Semicolon, "`;`")
	return ast.NewDeclaration(isConst, name, declType, init, source.Join(start, end))
}

// parseIf always ends the chain with a branch whose condition is the
// literal `true`: the `else` body when the source has one, otherwise a
// synthesized empty compound. Every If in the tree therefore satisfies
// the if-chain totality invariant.
func (p *Parser) parseIf() ast.Stmt {
	start := p.tok().Span
	var branches []ast.Branch

	p.advance() // if
	p.expect(lexer.LParen, "`(`")
	cond := p.parseExpr()
	p.expect(lexer.RParen, "`)`")
	body := p.parseCompound()
	branches = append(branches, ast.Branch{Cond: cond, Body: body})

	for p.at(lexer.KwElse) {
		p.advance()
		if p.at(lexer.KwIf) {
			p.advance()
			p.expect(lexer.LParen, "`(`")
			c := p.parseExpr()
			p.expect(lexer.RParen, "`)`")
			b := p.parseCompound()
			branches = append(branches, ast.Branch{Cond: c, Body: b})
			continue
		}
		elseBody := p.parseCompound()
		branches = append(branches, ast.Branch{
			Cond: ast.NewBoolConstant(true, source.Span{}),
			Body: elseBody,
		})
		return ast.NewIf(branches, source.Join(start, elseBody.Span()))
	}

	last := branches[len(branches)-1]
	branches = append(branches, ast.Branch{
		Cond: ast.NewBoolConstant(true, source.Span{}),
		Body: ast.NewCompound(nil, source.Span{}),
	})
	return ast.NewIf(branches, source.Join(start, last.Body.Span()))
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.tok().Span
	p.advance()
	p.expect(lexer.LParen, "`(`")
	cond := p.parseExpr()
	p.expect(lexer.RParen, "`)`")
	body := p.parseCompound()
	return ast.NewWhile(cond, body, source.Join(start, body.Span()))
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.tok().Span
	p.advance()
	paren := p.accept(lexer.LParen)
	name := p.expect(lexer.Ident, "loop variable name").Text
	var declType types.Type
	if p.accept(lexer.Colon) {
		declType = p.parseType()
	}
	p.expect(lexer.KwIn, "`in`")
	iterable := p.parseExpr()
	if paren {
		p.expect(lexer.RParen, "`)`")
	}
	body := p.parseCompound()
	return ast.NewFor(name, declType, iterable, body, source.Join(start, body.Span()))
}

var compoundAssignOps = map[lexer.Kind]ast.AssignOp{
	lexer.Eq:        ast.AssignEq,
	lexer.StarEq:    ast.AssignMulEq,
	lexer.SlashEq:   ast.AssignDivEq,
	lexer.PercentEq: ast.AssignModEq,
	lexer.PlusEq:    ast.AssignAddEq,
	lexer.MinusEq:   ast.AssignSubEq,
	lexer.ShlEq:     ast.AssignShlEq,
	lexer.ShrEq:     ast.AssignShrEq,
	lexer.AmpEq:     ast.AssignAndEq,
	lexer.CaretEq:   ast.AssignXorEq,
	lexer.PipeEq:    ast.AssignOrEq,
}

func (p *Parser) parseExprOrAssignment() ast.Stmt {
	start := p.tok().Span
	lhs := p.parseExpr()
	if op, ok := compoundAssignOps[p.tok().Kind]; ok {
		p.advance()
		rhs := p.parseExpr()
		end := p.tok().Span
		p.expect(lexer.Semicolon, "`;`")
		return ast.NewAssignment(lhs, op, rhs, source.Join(start, end))
	}
	end := p.tok().Span
	p.expect(lexer.Semicolon, "`;`")
	return ast.NewExprStmt(lhs, source.Join(start, end))
}

// --- Expressions -----------------------------------------------------

// binaryLevels lists precedence levels from lowest to highest binding,
// each a chain `E (op E)*` folded left-associatively, per the fixed
// parser rule that such chains bind into a left-leaning Binary tree.
var binaryLevels = []map[lexer.Kind]ast.BinaryOp{
	{lexer.OrOr: ast.OpLogicalOr},
	{lexer.AndAnd: ast.OpLogicalAnd},
	{lexer.Pipe: ast.OpBitOr},
	{lexer.Caret: ast.OpBitXor},
	{lexer.Amp: ast.OpBitAnd},
	{lexer.EqEq: ast.OpEq, lexer.NotEq: ast.OpNe},
	{lexer.Lt: ast.OpLt, lexer.Gt: ast.OpGt, lexer.Le: ast.OpLe, lexer.Ge: ast.OpGe},
	{lexer.Shl: ast.OpShl, lexer.Shr: ast.OpShr},
	{lexer.Plus: ast.OpAdd, lexer.Minus: ast.OpSub},
	{lexer.Star: ast.OpMul, lexer.Slash: ast.OpDiv, lexer.Percent: ast.OpMod},
}

// parseExpr is the entry point: ternary sits above every binary level
// and below nothing (assignment is handled at the statement level,
// not as an expression-level operator).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseTernary()
}

func (p *Parser) parseTernary() ast.Expr {
	cond := p.parseBinary(0)
	if !p.accept(lexer.Question) {
		return cond
	}
	then := p.parseExpr()
	p.expect(lexer.Colon, "`:`")
	els := p.parseExpr()
	return ast.NewTernary(cond, then, els, source.Join(cond.Span(), els.Span()))
}

func (p *Parser) parseBinary(level int) ast.Expr {
	if level >= len(binaryLevels) {
		return p.parseUnary()
	}
	lhs := p.parseBinary(level + 1)
	ops := binaryLevels[level]
	for {
		op, ok := ops[p.tok().Kind]
		if !ok {
			return lhs
		}
		p.advance()
		rhs := p.parseBinary(level + 1)
		lhs = ast.NewBinary(lhs, op, rhs, source.Join(lhs.Span(), rhs.Span()))
	}
}

var prefixUnaryOps = map[lexer.Kind]ast.UnaryOp{
	lexer.PlusPlus:   ast.OpPreIncrement,
	lexer.MinusMinus: ast.OpPreDecrement,
	lexer.Amp:        ast.OpAddressOf,
	lexer.Star:       ast.OpDereference,
	lexer.Minus:      ast.OpNegative,
	lexer.Plus:       ast.OpPositive,
	lexer.Tilde:      ast.OpInvert,
	lexer.Bang:       ast.OpNot,
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.tok().Span

	if op, ok := prefixUnaryOps[p.tok().Kind]; ok {
		p.advance()
		operand := p.parseUnary()
		return ast.NewUnary(op, operand, source.Join(start, operand.Span()))
	}

	if p.at(lexer.LParen) {
		if target, ok := p.tryParseCastPrefix(); ok {
			operand := p.parseUnary()
			return ast.NewCast(target, operand, source.Join(start, operand.Span()))
		}
	}

	return p.parsePostfix(p.parsePrimary())
}

// tryParseCastPrefix speculatively parses `( T )` and reports success
// only if it consumes a balanced, well-formed type in parens; on
// failure the cursor is restored so the caller can fall back to
// parsing `(` as a grouped expression.
func (p *Parser) tryParseCastPrefix() (types.Type, bool) {
	mark := p.checkpoint()
	ok := false
	var target types.Type

	// A failed speculation is not a syntax error: report into a scratch
	// bag so nothing it logs reaches the caller's diagnostics.
	realBag := p.bag
	p.bag = diag.NewBag()
	defer func() { p.bag = realBag }()

	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, isStop := r.(errStop); !isStop {
					panic(r)
				}
				ok = false
			}
		}()
		p.advance() // (
		if !looksLikeTypeStart(p.tok().Kind) {
			return
		}
		target = p.parseType()
		if !p.at(lexer.RParen) {
			return
		}
		p.advance() // )
		ok = true
	}()

	if !ok {
		p.restore(mark)
		return nil, false
	}
	return target, true
}

func looksLikeTypeStart(k lexer.Kind) bool {
	return k == lexer.Ident || k == lexer.LBracket || k == lexer.LRangeBracket
}

var postfixAssignOps = map[lexer.Kind]ast.UnaryOp{
	lexer.PlusPlus:   ast.OpPostIncrement,
	lexer.MinusMinus: ast.OpPostDecrement,
}

func (p *Parser) parsePostfix(e ast.Expr) ast.Expr {
	for {
		switch {
		case p.at(lexer.Dot) || p.at(lexer.Arrow):
			direct := p.at(lexer.Dot)
			p.advance()
			field := p.expect(lexer.Ident, "field name").Text
			e = ast.NewMemberAccess(e, direct, field, source.Join(e.Span(), p.tokAt(-1).Span))
		case p.at(lexer.LBracket):
			p.advance()
			idx := p.parseExpr()
			end := p.tok().Span
			p.expect(lexer.RBracket, "`]`")
			e = ast.NewArrayAccess(e, idx, source.Join(e.Span(), end))
		case p.at(lexer.LParen):
			p.advance()
			var args []ast.Expr
			for !p.at(lexer.RParen) {
				args = append(args, p.parseExpr())
				if !p.accept(lexer.Comma) {
					break
				}
			}
			end := p.tok().Span
			p.expect(lexer.RParen, "`)`")
			if id, isIdent := e.(*ast.Identifier); isIdent {
				e = ast.NewCall(id.Name, args, source.Join(e.Span(), end))
			} else {
				e = ast.NewCallOp(e, args, source.Join(e.Span(), end))
			}
		case p.at(lexer.PlusPlus) || p.at(lexer.MinusMinus):
			op := postfixAssignOps[p.tok().Kind]
			end := p.tok().Span
			p.advance()
			e = ast.NewUnary(op, e, source.Join(e.Span(), end))
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.tok().Span
	switch p.tok().Kind {
	case lexer.Dash:
		p.advance()
		return ast.NewDash(start)
	case lexer.KwTrue:
		p.advance()
		return ast.NewBoolConstant(true, start)
	case lexer.KwFalse:
		p.advance()
		return ast.NewBoolConstant(false, start)
	case lexer.IntLit:
		tok := p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.bag.Report(diag.BadLiteral, tok.Span, fmt.Sprintf("invalid integer literal `%s`", tok.Text))
			v = 0
		}
		return ast.NewIntConstant(v, tok.Span)
	case lexer.FloatLit:
		tok := p.advance()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.bag.Report(diag.BadLiteral, tok.Span, fmt.Sprintf("invalid float literal `%s`", tok.Text))
			v = 0
		}
		return ast.NewFloatConstant(v, tok.Span)
	case lexer.CharLit:
		tok := p.advance()
		var b byte
		if len(tok.Text) > 0 {
			b = tok.Text[0]
		} else {
			p.bag.Report(diag.BadLiteral, tok.Span, "empty char literal")
		}
		return ast.NewCharConstant(b, tok.Span)
	case lexer.StringLit:
		tok := p.advance()
		return ast.NewStringConstant(tok.Text, tok.Span)
	case lexer.Ident:
		tok := p.advance()
		return ast.NewIdentifier(tok.Text, tok.Span)
	case lexer.KwMalloc:
		return p.parseMalloc()
	case lexer.KwSizeof:
		return p.parseSizeof()
	case lexer.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.RParen, "`)`")
		return e
	case lexer.LBracket:
		return p.parseArrayOrRange()
	default:
		p.bag.Report(diag.ParseError, p.tok().Span, fmt.Sprintf("expected expression, found %s", p.tok()))
		panic(errStop{})
	}
}

func (p *Parser) parseMalloc() ast.Expr {
	start := p.tok().Span
	p.advance()
	p.expect(lexer.LParen, "`(`")
	target := p.parseType()
	p.expect(lexer.Comma, "`,`")
	count := p.parseExpr()
	end := p.tok().Span
	p.expect(lexer.RParen, "`)`")
	return ast.NewMalloc(target, count, source.Join(start, end))
}

func (p *Parser) parseSizeof() ast.Expr {
	start := p.tok().Span
	p.advance()
	p.expect(lexer.LParen, "`(`")
	target := p.parseType()
	end := p.tok().Span
	p.expect(lexer.RParen, "`)`")
	return ast.NewSizeof(target, source.Join(start, end))
}

// parseArrayOrRange disambiguates `[e0, e1, ...]` array literals from
// `[lhs..rhs]` range literals (either bound optional) by parsing the
// first element, if any, and then checking for `..`.
func (p *Parser) parseArrayOrRange() ast.Expr {
	start := p.tok().Span
	p.advance() // [

	if p.at(lexer.DotDot) {
		p.advance()
		var rhs ast.Expr
		if !p.at(lexer.RBracket) {
			rhs = p.parseExpr()
		}
		end := p.tok().Span
		p.expect(lexer.RBracket, "`]`")
		return ast.NewRange(nil, rhs, source.Join(start, end))
	}

	if p.at(lexer.RBracket) {
		end := p.tok().Span
		p.advance()
		return ast.NewArray(nil, source.Join(start, end))
	}

	first := p.parseExpr()
	if p.accept(lexer.DotDot) {
		var rhs ast.Expr
		if !p.at(lexer.RBracket) {
			rhs = p.parseExpr()
		}
		end := p.tok().Span
		p.expect(lexer.RBracket, "`]`")
		return ast.NewRange(first, rhs, source.Join(start, end))
	}

	elements := []ast.Expr{first}
	for p.accept(lexer.Comma) {
		if p.at(lexer.RBracket) {
			break
		}
		elements = append(elements, p.parseExpr())
	}
	end := p.tok().Span
	p.expect(lexer.RBracket, "`]`")
	return ast.NewArray(elements, source.Join(start, end))
}
