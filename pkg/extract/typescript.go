// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// typescriptRules covers both the typescript and tsx grammars; the node
// kinds relevant here are identical.
var typescriptRules = &langRules{
	symbolKinds: map[string]SymbolType{
		"function_declaration":   SymFunction,
		"method_definition":      SymMethod,
		"class_declaration":      SymClass,
		"interface_declaration":  SymInterface,
		"type_alias_declaration": SymType,
		"enum_declaration":       SymEnum,
	},
	varDeclKinds: map[string]bool{
		"lexical_declaration":  true,
		"variable_declaration": true,
	},
	funcValueKinds: map[string]bool{
		"arrow_function":      true,
		"function_expression": true,
		"function":            true, // older grammar name for function_expression
	},
	callKinds:   map[string]bool{"call_expression": true},
	importKinds: map[string]bool{"import_statement": true},
	decisionKinds: map[string]bool{
		"if_statement":       true,
		"while_statement":    true,
		"for_statement":      true,
		"for_in_statement":   true,
		"switch_case":        true,
		"catch_clause":       true,
		"ternary_expression": true,
	},
	logicalExprKinds: map[string]bool{"binary_expression": true},
	logicalOps:       map[string]bool{"&&": true, "||": true},
	recordImports:    recordTypeScriptImports,
	calleeName:       typescriptCalleeName,
}

// recordTypeScriptImports parses an import_statement:
//
//	import { a, b as c } from './m'   → (a,a,'./m'), (b,c,'./m')
//	import * as ns from './m'         → (*,ns,'./m')
//	import d from './m'               → (default,d,'./m')
func recordTypeScriptImports(w *walker, node *sitter.Node) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	sourceModule := stripQuotes(w.text(sourceNode))
	line := int(node.StartPoint().Row) + 1

	for i := 0; i < int(node.ChildCount()); i++ {
		clause := node.Child(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.ChildCount()); j++ {
			part := clause.Child(j)
			switch part.Type() {
			case "identifier":
				w.recordImport("default", w.text(part), sourceModule, line)
			case "namespace_import":
				if id := firstIdentifier(part); id != nil {
					w.recordImport("*", w.text(id), sourceModule, line)
				}
			case "named_imports":
				recordNamedImports(w, part, sourceModule, line)
			}
		}
	}
}

func recordNamedImports(w *walker, namedImports *sitter.Node, sourceModule string, line int) {
	for i := 0; i < int(namedImports.ChildCount()); i++ {
		spec := namedImports.Child(i)
		if spec.Type() != "import_specifier" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		imported := w.text(nameNode)
		local := imported
		if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
			local = w.text(aliasNode)
		}
		w.recordImport(imported, local, sourceModule, line)
	}
}

// typescriptCalleeName derives the called name: a direct identifier, or the
// trailing property of a member expression (obj.method() → method).
func typescriptCalleeName(node *sitter.Node, content []byte) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return string(content[fn.StartByte():fn.EndByte()])
	case "member_expression":
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return string(content[prop.StartByte():prop.EndByte()])
		}
	}
	return ""
}
