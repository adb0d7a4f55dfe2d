// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package lang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSupportedLanguages(t *testing.T) {
	parser := NewParser()
	tests := []struct {
		language Language
		source   string
	}{
		{LangTypeScript, "function f() { return 1; }"},
		{LangTSX, "export const C = () => <div/>;"},
		{LangPython, "def f():\n    return 1\n"},
		{LangC, "int main(void) { return 0; }"},
	}
	for _, tt := range tests {
		tree, err := parser.Parse(context.Background(), []byte(tt.source), tt.language)
		require.NoError(t, err, "language %s", tt.language)
		require.NotNil(t, tree.RootNode())
		assert.False(t, tree.RootNode().HasError(), "language %s", tt.language)
		tree.Close()
	}
}

func TestParseUnknownLanguage(t *testing.T) {
	parser := NewParser()
	_, err := parser.Parse(context.Background(), []byte("x"), Language("cobol"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGrammarUnavailable)
}

func TestParseErrorTolerant(t *testing.T) {
	parser := NewParser()
	tree, err := parser.Parse(context.Background(), []byte("function ( {{{"), LangTypeScript)
	require.NoError(t, err, "syntax errors yield a marked tree, not a failure")
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
	assert.Greater(t, CountErrors(tree.RootNode()), 0)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"src/a.ts", LangTypeScript},
		{"src/A.TSX", LangTSX},
		{"pkg/mod.py", LangPython},
		{"lib/impl.c", LangC},
		{"lib/impl.h", LangC},
		{"web/app.jsx", LangTSX},
		{"README.md", ""},
		{"Makefile", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.path), "path %s", tt.path)
	}
}

func TestSupported(t *testing.T) {
	parser := NewParser()
	assert.True(t, parser.Supported(LangTypeScript))
	assert.True(t, parser.Supported(LangC))
	assert.False(t, parser.Supported(Language("ruby")))
}
