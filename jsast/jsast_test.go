package jsast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heshanpadmasiri/cy2pw/diagnostics"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		path string
		want Dialect
	}{
		{"login.cy.js", JavaScript},
		{"login.cy.ts", TypeScript},
		{"pages/Login.tsx", TSX},
		{"support/commands.mjs", JavaScript},
		{"x.MTS", TypeScript},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DialectFor(tt.path))
		})
	}
}

func TestCheckSyntax(t *testing.T) {
	t.Run("clean source", func(t *testing.T) {
		src := []byte("describe('a', () => { it('b', () => {}) })\n")
		tree := Parse(src, JavaScript)
		defer tree.Close()
		assert.NoError(t, CheckSyntax(tree, src, "a.cy.js"))
	})

	t.Run("broken source names the location", func(t *testing.T) {
		src := []byte("describe('a', () => {\n  it('b', () => {\n    cy.visit(\n")
		tree := Parse(src, JavaScript)
		defer tree.Close()
		err := CheckSyntax(tree, src, "broken.cy.js")
		require.Error(t, err)
		var syntaxErr *diagnostics.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, "broken.cy.js", syntaxErr.Path)
		assert.GreaterOrEqual(t, syntaxErr.Line, 1)
		assert.Contains(t, err.Error(), "broken.cy.js:")
	})

	t.Run("typescript annotations need the typescript grammar", func(t *testing.T) {
		src := []byte("class LoginPage { visit(path: string): void { cy.visit(path) } }\n")
		tree := Parse(src, TypeScript)
		defer tree.Close()
		assert.NoError(t, CheckSyntax(tree, src, "LoginPage.ts"))
	})
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "bob", Unquote(`'bob'`))
	assert.Equal(t, "bob", Unquote(`"bob"`))
	assert.Equal(t, "it's", Unquote(`'it\'s'`))
	assert.Equal(t, "a\nb", Unquote(`"a\nb"`))
	assert.Equal(t, "plain", Unquote("plain"))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'it\'s'`, Quote("it's"))
	assert.Equal(t, `'[data-testid="u"]'`, Quote(`[data-testid="u"]`))
}
