// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
)

var pythonRules = &langRules{
	symbolKinds: map[string]SymbolType{
		"function_definition": SymFunction,
		"class_definition":    SymClass,
	},
	varDeclKinds:   map[string]bool{},
	funcValueKinds: map[string]bool{"lambda": true},
	callKinds:      map[string]bool{"call": true},
	importKinds: map[string]bool{
		"import_statement":      true,
		"import_from_statement": true,
	},
	decisionKinds: map[string]bool{
		"if_statement":           true,
		"elif_clause":            true,
		"while_statement":        true,
		"for_statement":          true,
		"case_clause":            true,
		"except_clause":          true,
		"conditional_expression": true,
	},
	logicalExprKinds: map[string]bool{"boolean_operator": true},
	logicalOps:       map[string]bool{"and": true, "or": true},
	recordImports:    recordPythonImports,
	calleeName:       pythonCalleeName,
}

// recordPythonImports parses both import forms:
//
//	import a.b            → (a.b, a.b, a.b)
//	import a.b as c       → (a.b, c, a.b)
//	from m import x, y    → (x, x, m), (y, y, m)
//	from m import x as z  → (x, z, m)
func recordPythonImports(w *walker, node *sitter.Node) {
	line := int(node.StartPoint().Row) + 1

	if node.Type() == "import_statement" {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "dotted_name":
				name := w.text(child)
				w.recordImport(name, name, name, line)
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode == nil || aliasNode == nil {
					continue
				}
				name := w.text(nameNode)
				w.recordImport(name, w.text(aliasNode), name, line)
			}
		}
		return
	}

	// import_from_statement
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	module := w.text(moduleNode)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		// Skip the module-name node itself; compare by span, field lookups
		// may hand back a distinct wrapper for the same node.
		if child.StartByte() == moduleNode.StartByte() && child.EndByte() == moduleNode.EndByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			name := w.text(child)
			w.recordImport(name, name, module, line)
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			w.recordImport(w.text(nameNode), w.text(aliasNode), module, line)
		case "wildcard_import":
			w.recordImport("*", "*", module, line)
		}
	}
}

// pythonCalleeName derives the called name: a direct identifier, or the
// trailing attribute of an attribute access (obj.method() → method).
func pythonCalleeName(node *sitter.Node, content []byte) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return string(content[fn.StartByte():fn.EndByte()])
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return string(content[attr.StartByte():attr.EndByte()])
		}
	}
	return ""
}
