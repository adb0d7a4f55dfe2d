// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// cRules covers C sources and headers. #include is not recorded: header
// inclusion has no symbol-level resolution.
var cRules = &langRules{
	symbolKinds: map[string]SymbolType{
		"function_definition": SymFunction,
		"struct_specifier":    SymStruct,
		"enum_specifier":      SymEnum,
		"union_specifier":     SymUnion,
	},
	varDeclKinds:   map[string]bool{},
	funcValueKinds: map[string]bool{},
	callKinds:      map[string]bool{"call_expression": true},
	importKinds:    map[string]bool{},
	bodyRequiredKinds: map[string]bool{
		"struct_specifier": true,
		"enum_specifier":   true,
		"union_specifier":  true,
	},
	decisionKinds: map[string]bool{
		"if_statement":           true,
		"while_statement":        true,
		"for_statement":          true,
		"do_statement":           true,
		"case_statement":         true,
		"conditional_expression": true,
	},
	logicalExprKinds: map[string]bool{"binary_expression": true},
	logicalOps:       map[string]bool{"&&": true, "||": true},
	recordImports:    func(*walker, *sitter.Node) {},
	calleeName:       cCalleeName,
}

// cCalleeName derives the called name: a direct identifier, or the field of
// a struct member call (s->fn() / s.fn() → fn).
func cCalleeName(node *sitter.Node, content []byte) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return string(content[fn.StartByte():fn.EndByte()])
	case "field_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return string(content[field.StartByte():field.EndByte()])
		}
	}
	return ""
}
