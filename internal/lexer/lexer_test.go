package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	lx := New("t.cbld", []byte(src))
	var toks []Token
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func TestKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "fn Main x_1")
	require.Len(t, toks, 4)
	assert.Equal(t, KwFn, toks[0].Kind)
	assert.Equal(t, Ident, toks[1].Kind)
	assert.Equal(t, "Main", toks[1].Text)
	assert.Equal(t, Ident, toks[2].Kind)
	assert.Equal(t, "x_1", toks[2].Text)
}

func TestNumberLiterals(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		toks := scanAll(t, "42")
		assert.Equal(t, IntLit, toks[0].Kind)
		assert.Equal(t, "42", toks[0].Text)
	})

	t.Run("float with exponent", func(t *testing.T) {
		toks := scanAll(t, "1.5e3")
		assert.Equal(t, FloatLit, toks[0].Kind)
		assert.Equal(t, "1.5e3", toks[0].Text)
	})
}

func TestStringAndCharLiterals(t *testing.T) {
	toks := scanAll(t, `"hi\n" 'a' '\''`)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, StringLit, toks[0].Kind)
	assert.Equal(t, "hi\n", toks[0].Text)
	assert.Equal(t, CharLit, toks[1].Kind)
	assert.Equal(t, "a", toks[1].Text)
	assert.Equal(t, CharLit, toks[2].Kind)
	assert.Equal(t, "'", toks[2].Text)
}

func TestUnterminatedStringErrors(t *testing.T) {
	lx := New("t.cbld", []byte(`"abc`))
	_, err := lx.Next()
	require.Error(t, err)
}

func TestOperators(t *testing.T) {
	cases := []struct {
		src  string
		kind Kind
	}{
		{"==", EqEq}, {"!=", NotEq}, {"<=", Le}, {">=", Ge},
		{"&&", AndAnd}, {"||", OrOr}, {"++", PlusPlus},
		{"<<=", ShlEq}, {">>=", ShrEq}, {"->", Arrow},
		{"[|", LRangeBracket}, {"|]", RRangeBracket}, {"..", DotDot},
	}
	for _, c := range cases {
		toks := scanAll(t, c.src)
		assert.Equalf(t, c.kind, toks[0].Kind, "scanning %q", c.src)
	}
}

func TestDashLiteral(t *testing.T) {
	toks := scanAll(t, "--")
	assert.Equal(t, Dash, toks[0].Kind)
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := scanAll(t, "fn // a comment\nMain /* block */ ()")
	kinds := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{KwFn, Ident, LParen, RParen, EOF}, kinds)
}

func TestUnescape(t *testing.T) {
	out, err := Unescape(`a\nb\tc\\d`)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\tc\\d", out)

	_, err = Unescape(`bad\q`)
	assert.Error(t, err)
}
