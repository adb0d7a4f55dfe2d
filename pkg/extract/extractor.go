// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codescope/codescope/pkg/lang"
)

// langRules is the per-language dispatch table. Node kinds differ between
// grammars, so each language contributes its own tables; the traversal
// itself is shared.
type langRules struct {
	// symbolKinds maps declaration node kinds to the symbol type they emit.
	symbolKinds map[string]SymbolType
	// varDeclKinds are declaration-list kinds whose declarators emit either
	// a function or a variable depending on the initializer.
	varDeclKinds map[string]bool
	// funcValueKinds are anonymous function-valued expression kinds.
	funcValueKinds map[string]bool
	// callKinds are call-expression node kinds.
	callKinds map[string]bool
	// importKinds are import-statement node kinds.
	importKinds map[string]bool
	// bodyRequiredKinds only emit a symbol when the node carries a body
	// field; a bodiless struct_specifier is a type reference, not a
	// definition.
	bodyRequiredKinds map[string]bool
	// decisionKinds are the node kinds counted for cyclomatic complexity.
	decisionKinds map[string]bool
	// logicalExprKinds are expression kinds that may carry a short-circuit
	// operator; logicalOps are the operator tokens counted within them.
	logicalExprKinds map[string]bool
	logicalOps       map[string]bool

	// recordImports parses one import statement into the walker's buffers.
	recordImports func(w *walker, node *sitter.Node)
	// calleeName derives the called name from a call node's function child.
	calleeName func(node *sitter.Node, content []byte) string
}

var rulesByLanguage = map[lang.Language]*langRules{
	lang.LangTypeScript: typescriptRules,
	lang.LangTSX:        typescriptRules,
	lang.LangPython:     pythonRules,
	lang.LangC:          cRules,
}

// Extractor emits symbols, imports, and calls from a parsed file in a
// single recursive traversal.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract walks the tree rooted at root and returns the file's symbols,
// transient import/call records, and the key→index correlation map.
// Unsupported languages yield an empty result, never an error.
func (e *Extractor) Extract(root *sitter.Node, content []byte, filePath string, language lang.Language) *FileResult {
	res := &FileResult{LocalKeyToIndex: make(map[string]int)}

	rules, ok := rulesByLanguage[language]
	if !ok {
		e.logger.Debug("extract.skip_unsupported_language", "path", filePath, "language", string(language))
		return res
	}

	if root.HasError() {
		if n := lang.CountErrors(root); n > 0 {
			e.logger.Warn("extract.syntax_errors", "path", filePath, "error_count", n)
		}
	}

	w := &walker{
		content:        content,
		filePath:       filePath,
		rules:          rules,
		res:            res,
		importsByLocal: make(map[string]ImportInfo),
		scopeStack:     []ScopeEntry{{Name: "<module>", Type: ScopeModule, Line: 1}},
	}
	w.walk(root, "", false)
	return res
}

// walker holds the per-file traversal state. All buffers are released when
// the walk returns; nothing here outlives the batch.
type walker struct {
	content        []byte
	filePath       string
	rules          *langRules
	res            *FileResult
	importsByLocal map[string]ImportInfo
	scopeStack     []ScopeEntry
}

// walk visits node and its subtree. parentSymbolKey is the key of the
// nearest enclosing declared symbol; skipEmit suppresses symbol emission on
// this node when its declarator has already emitted it under a real name.
func (w *walker) walk(node *sitter.Node, parentSymbolKey string, skipEmit bool) {
	if node == nil {
		return
	}
	kind := node.Type()

	if w.rules.importKinds[kind] {
		w.rules.recordImports(w, node)
		return
	}

	if w.rules.callKinds[kind] {
		w.recordCall(node, parentSymbolKey)
		// fall through: arguments may contain nested functions and calls
	}

	if !skipEmit {
		if w.rules.varDeclKinds[kind] {
			w.walkVariableDeclaration(node, parentSymbolKey)
			return
		}
		if symType, ok := w.rules.symbolKinds[kind]; ok {
			if !w.rules.bodyRequiredKinds[kind] || node.ChildByFieldName("body") != nil {
				w.emitAndDescend(node, symType, w.declarationName(node))
				return
			}
		}
		// Keyword tokens can share a kind name with a function value (the
		// `function` and `lambda` keywords), so only named nodes count.
		if w.rules.funcValueKinds[kind] && node.IsNamed() {
			// Inline anonymous functions emit their own symbol, but calls in
			// their body stay attributed to the enclosing named symbol: the
			// arrow passed to reduce is not the caller a reader asks about.
			name := fmt.Sprintf("<anonymous:%d>", int(node.StartPoint().Row)+1)
			sym := w.emitSymbol(node, SymFunction, name)
			w.pushScope(name, ScopeFunction, sym.StartLine)
			for i := 0; i < int(node.ChildCount()); i++ {
				w.walk(node.Child(i), parentOr(parentSymbolKey, sym.Key()), false)
			}
			w.popScope()
			return
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), parentSymbolKey, false)
	}
}

// walkVariableDeclaration handles lexical/variable declaration lists. Each
// declarator with a function-valued initializer emits a function under the
// declarator's name; anything else emits a variable.
func (w *walker) walkVariableDeclaration(node *sitter.Node, parentSymbolKey string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)
		value := child.ChildByFieldName("value")

		if value != nil && w.rules.funcValueKinds[value.Type()] {
			// Range the symbol over the whole declarator so the function
			// body is inside its own subtree for complexity counting.
			sym := w.emitSymbol(child, SymFunction, name)
			w.pushScope(name, ScopeFunction, sym.StartLine)
			w.walk(value, sym.Key(), true)
			w.popScope()
			continue
		}

		sym := w.emitSymbol(child, SymVariable, name)
		if value != nil {
			w.walk(value, parentOr(parentSymbolKey, sym.Key()), false)
		}
	}
}

// parentOr keeps call attribution on the enclosing declared symbol when one
// exists; top-level variable initializers attribute to the variable itself.
func parentOr(parent, self string) string {
	if parent != "" {
		return parent
	}
	return self
}

// emitAndDescend emits a symbol for node and walks its children with the
// new symbol as parent and a fresh scope frame.
func (w *walker) emitAndDescend(node *sitter.Node, symType SymbolType, name string) {
	sym := w.emitSymbol(node, symType, name)

	scopeType := ScopeFunction
	if symType == SymClass || symType == SymInterface || symType == SymStruct || symType == SymUnion || symType == SymEnum {
		scopeType = ScopeClass
	}
	w.pushScope(name, scopeType, sym.StartLine)
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), sym.Key(), false)
	}
	w.popScope()
}

// emitSymbol appends a symbol spanning node, computes its cyclomatic
// complexity, and records its key in the correlation map.
func (w *walker) emitSymbol(node *sitter.Node, symType SymbolType, name string) *Symbol {
	if name == "" {
		name = fmt.Sprintf("<anonymous:%d>", int(node.StartPoint().Row)+1)
	}
	sym := Symbol{
		Name:        name,
		Type:        symType,
		FilePath:    w.filePath,
		StartLine:   int(node.StartPoint().Row) + 1,
		StartColumn: int(node.StartPoint().Column),
		EndLine:     int(node.EndPoint().Row) + 1,
		EndColumn:   int(node.EndPoint().Column),
		Complexity:  w.complexity(node),
	}
	w.res.Symbols = append(w.res.Symbols, sym)
	idx := len(w.res.Symbols) - 1
	if _, exists := w.res.LocalKeyToIndex[sym.Key()]; !exists {
		w.res.LocalKeyToIndex[sym.Key()] = idx
	}
	return &w.res.Symbols[idx]
}

// declarationName finds the declared name of a symbol-emitting node: the
// name field when the grammar provides one, otherwise the first
// identifier-like token among children (descending through declarators).
func (w *walker) declarationName(node *sitter.Node) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return w.text(nameNode)
	}
	if decl := node.ChildByFieldName("declarator"); decl != nil {
		if id := firstIdentifier(decl); id != nil {
			return w.text(id)
		}
	}
	if id := firstIdentifier(node); id != nil {
		return w.text(id)
	}
	return ""
}

// firstIdentifier returns the first identifier-like descendant of node.
func firstIdentifier(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier", "type_identifier", "property_identifier", "field_identifier":
			return child
		}
		if found := firstIdentifier(child); found != nil {
			return found
		}
	}
	return nil
}

// recordCall appends a CallInfo for a call node. Calls outside any declared
// symbol are skipped; calls whose callee is an imported binding carry the
// import-bridge fields for strategy-1 resolution.
func (w *walker) recordCall(node *sitter.Node, parentSymbolKey string) {
	if parentSymbolKey == "" {
		return
	}
	calleeName := w.rules.calleeName(node, w.content)
	if calleeName == "" {
		return
	}

	info := CallInfo{
		CallerSymbolKey: parentSymbolKey,
		CalleeName:      calleeName,
		FilePath:        w.filePath,
		Line:            int(node.StartPoint().Row) + 1,
		ScopeContext:    w.scopeContext(),
	}
	if imp, ok := w.importsByLocal[calleeName]; ok {
		info.IsImported = true
		info.ImportSourceModule = imp.SourceModule
		info.ImportedOriginalName = imp.ImportedName
	}
	w.res.Calls = append(w.res.Calls, info)
}

// recordImport appends an ImportInfo and indexes it by local name for the
// import bridge.
func (w *walker) recordImport(importedName, localName, sourceModule string, line int) {
	info := ImportInfo{
		ImportedName: importedName,
		LocalName:    localName,
		SourceModule: sourceModule,
		FilePath:     w.filePath,
		Line:         line,
	}
	w.res.Imports = append(w.res.Imports, info)
	w.importsByLocal[localName] = info
}

func (w *walker) pushScope(name string, scopeType ScopeType, line int) {
	w.scopeStack = append(w.scopeStack, ScopeEntry{Name: name, Type: scopeType, Line: line})
}

func (w *walker) popScope() {
	w.scopeStack = w.scopeStack[:len(w.scopeStack)-1]
}

// scopeContext renders the scope stack for call disambiguation, skipping
// module and block frames.
func (w *walker) scopeContext() string {
	var parts []string
	for _, entry := range w.scopeStack {
		if entry.Type == ScopeModule || entry.Type == ScopeBlock {
			continue
		}
		parts = append(parts, entry.Name)
	}
	return strings.Join(parts, " > ")
}

// complexity computes cyclomatic complexity for the subtree at node:
// 1 + decision points + short-circuit operators.
func (w *walker) complexity(node *sitter.Node) int {
	return 1 + w.countDecisions(node)
}

func (w *walker) countDecisions(node *sitter.Node) int {
	count := 0
	kind := node.Type()
	if w.rules.decisionKinds[kind] {
		count++
	}
	if w.rules.logicalExprKinds[kind] {
		for i := 0; i < int(node.ChildCount()); i++ {
			if w.rules.logicalOps[node.Child(i).Type()] {
				count++
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += w.countDecisions(node.Child(i))
	}
	return count
}

func (w *walker) text(node *sitter.Node) string {
	return string(w.content[node.StartByte():node.EndByte()])
}

// stripQuotes removes surrounding string quotes from a module specifier.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
