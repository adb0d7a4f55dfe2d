// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lang wraps the Tree-sitter grammars used by the indexing engine.
// Parsing is not re-entrant, so parsers are pooled per language.
package lang

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a supported source language.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangC          Language = "c"
)

// ErrGrammarUnavailable is returned when no grammar is registered for the
// requested language.
var ErrGrammarUnavailable = errors.New("grammar unavailable")

// ErrParseFailed is returned only on catastrophic parser failure. Syntax
// errors in the source do not trigger it; Tree-sitter returns an
// error-marked tree instead.
var ErrParseFailed = errors.New("parse failed")

// Parser produces concrete syntax trees for (source, language) pairs.
// Grammars are registered lazily on first use; each language keeps a
// sync.Pool of parsers because a Tree-sitter parser is single-threaded.
type Parser struct {
	pools    map[Language]*sync.Pool
	poolInit sync.Once
}

// NewParser creates a parser facade with all supported grammars.
func NewParser() *Parser {
	return &Parser{}
}

// initPools registers the language grammars.
func (p *Parser) initPools() {
	p.poolInit.Do(func() {
		newPool := func(l *sitter.Language) *sync.Pool {
			return &sync.Pool{New: func() any {
				parser := sitter.NewParser()
				parser.SetLanguage(l)
				return parser
			}}
		}
		p.pools = map[Language]*sync.Pool{
			LangTypeScript: newPool(typescript.GetLanguage()),
			LangTSX:        newPool(tsx.GetLanguage()),
			LangPython:     newPool(python.GetLanguage()),
			LangC:          newPool(c.GetLanguage()),
		}
	})
}

// Parse parses source into a syntax tree. The returned tree may contain
// ERROR nodes; callers own the tree and must Close it.
func (p *Parser) Parse(ctx context.Context, source []byte, language Language) (*sitter.Tree, error) {
	p.initPools()

	pool, ok := p.pools[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGrammarUnavailable, language)
	}

	parserObj := pool.Get()
	parser, ok := parserObj.(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("invalid parser type from %s pool", language)
	}
	defer pool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return tree, nil
}

// Supported reports whether a grammar is registered for language.
func (p *Parser) Supported(language Language) bool {
	switch language {
	case LangTypeScript, LangTSX, LangPython, LangC:
		return true
	}
	return false
}

// DetectLanguage maps a file path to its language by extension.
// Returns "" for unsupported extensions.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		return LangTypeScript
	case ".tsx", ".jsx":
		return LangTSX
	case ".py":
		return LangPython
	case ".c", ".h":
		return LangC
	}
	return ""
}

// CountErrors counts ERROR nodes in a tree, used for parse diagnostics.
func CountErrors(node *sitter.Node) int {
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += CountErrors(node.Child(i))
	}
	return count
}
