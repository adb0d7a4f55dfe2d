// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/pkg/lang"
)

func extractSource(t *testing.T, source, filePath string, language lang.Language) *FileResult {
	t.Helper()
	parser := lang.NewParser()
	tree, err := parser.Parse(context.Background(), []byte(source), language)
	require.NoError(t, err)
	defer tree.Close()
	return NewExtractor(nil).Extract(tree.RootNode(), []byte(source), filePath, language)
}

func symbolNames(res *FileResult) []string {
	names := make([]string, 0, len(res.Symbols))
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	return names
}

func findSymbol(t *testing.T, res *FileResult, name string) *Symbol {
	t.Helper()
	for i := range res.Symbols {
		if res.Symbols[i].Name == name {
			return &res.Symbols[i]
		}
	}
	t.Fatalf("symbol %q not found in %v", name, symbolNames(res))
	return nil
}

func TestExtractTypeScriptFunctionsAndArrow(t *testing.T) {
	source := `export function add(a:number,b:number){ return a+b; }
export function sum(xs:number[]){ return xs.reduce((s,x)=>add(s,x),0); }
`
	res := extractSource(t, source, "math.ts", lang.LangTypeScript)

	require.Len(t, res.Symbols, 3)

	add := findSymbol(t, res, "add")
	assert.Equal(t, SymFunction, add.Type)
	assert.Equal(t, 1, add.Complexity)
	assert.Equal(t, 1, add.StartLine)

	sum := findSymbol(t, res, "sum")
	assert.Equal(t, SymFunction, sum.Type)
	assert.Equal(t, 1, sum.Complexity)

	anon := findSymbol(t, res, "<anonymous:2>")
	assert.Equal(t, SymFunction, anon.Type)

	assert.Empty(t, res.Imports)

	// Calls inside the arrow attribute to the enclosing named function.
	var addCall *CallInfo
	for i := range res.Calls {
		if res.Calls[i].CalleeName == "add" {
			addCall = &res.Calls[i]
		}
	}
	require.NotNil(t, addCall, "expected a recorded call to add")
	assert.Equal(t, sum.Key(), addCall.CallerSymbolKey)
	assert.False(t, addCall.IsImported)
}

func TestExtractTypeScriptDeclarationKinds(t *testing.T) {
	source := `class Repo {
  save(x: string) { return x; }
}
interface Entity { id: number }
type Alias = string;
enum Color { Red, Green }
const handler = (e: number) => e + 1;
const limit = 10;
`
	res := extractSource(t, source, "kinds.ts", lang.LangTypeScript)

	tests := []struct {
		name string
		typ  SymbolType
	}{
		{"Repo", SymClass},
		{"save", SymMethod},
		{"Entity", SymInterface},
		{"Alias", SymType},
		{"Color", SymEnum},
		{"handler", SymFunction},
		{"limit", SymVariable},
	}
	for _, tt := range tests {
		sym := findSymbol(t, res, tt.name)
		assert.Equal(t, tt.typ, sym.Type, "symbol %s", tt.name)
	}
}

func TestExtractTypeScriptImports(t *testing.T) {
	source := `import { hash, verify as check } from './crypto';
import * as fs from 'fs';
import React from 'react';
export function go() { return hash('x'); }
`
	res := extractSource(t, source, "main.ts", lang.LangTypeScript)

	require.Len(t, res.Imports, 4)
	byLocal := make(map[string]ImportInfo)
	for _, imp := range res.Imports {
		byLocal[imp.LocalName] = imp
	}

	assert.Equal(t, "hash", byLocal["hash"].ImportedName)
	assert.Equal(t, "./crypto", byLocal["hash"].SourceModule)
	assert.Equal(t, "verify", byLocal["check"].ImportedName)
	assert.Equal(t, "*", byLocal["fs"].ImportedName)
	assert.Equal(t, "default", byLocal["React"].ImportedName)

	// The call to hash carries the import bridge fields.
	require.NotEmpty(t, res.Calls)
	call := res.Calls[0]
	assert.Equal(t, "hash", call.CalleeName)
	assert.True(t, call.IsImported)
	assert.Equal(t, "./crypto", call.ImportSourceModule)
	assert.Equal(t, "hash", call.ImportedOriginalName)
}

func TestExtractTypeScriptComplexity(t *testing.T) {
	// 1 + 3 if + 1 for + 1 && + 1 ternary = 7.
	source := `function checker(a: number, b: number) {
  if (a > 0) { b++; }
  if (a > 1) { b++; }
  if (a > 2) { b++; }
  for (let i = 0; i < a; i++) { b++; }
  if (a > 3 && b > 0) {}
  return a > b ? a : b;
}
`
	res := extractSource(t, source, "cx.ts", lang.LangTypeScript)
	sym := findSymbol(t, res, "checker")
	// The fourth if adds one more decision on top of the scenario's count.
	assert.Equal(t, 8, sym.Complexity)
}

func TestExtractTypeScriptComplexityScenario(t *testing.T) {
	source := `function f(a: number, b: number) {
  if (a > 0) { b++; }
  if (a > 1) { b++; }
  if (a > 2) { b++; }
  for (let i = 0; i < a; i++) { b += (a > 3 && b > 0) ? 1 : 0; }
  return b;
}
`
	res := extractSource(t, source, "cx2.ts", lang.LangTypeScript)
	sym := findSymbol(t, res, "f")
	assert.Equal(t, 7, sym.Complexity)
}

func TestExtractScopeContext(t *testing.T) {
	source := `class Service {
  run() { helper(); }
}
function helper() {}
`
	res := extractSource(t, source, "svc.ts", lang.LangTypeScript)

	var call *CallInfo
	for i := range res.Calls {
		if res.Calls[i].CalleeName == "helper" {
			call = &res.Calls[i]
		}
	}
	require.NotNil(t, call)
	assert.Equal(t, "Service > run", call.ScopeContext)
}

func TestExtractEmptyFile(t *testing.T) {
	res := extractSource(t, "const x = 1;\n", "tiny.ts", lang.LangTypeScript)
	// A bare variable still emits one symbol; a comment-only file emits none.
	assert.Len(t, res.Symbols, 1)

	res = extractSource(t, "// nothing here\n", "empty.ts", lang.LangTypeScript)
	assert.Empty(t, res.Symbols)
	assert.Empty(t, res.Calls)
	assert.Empty(t, res.Imports)
}

func TestExtractLocalKeyToIndex(t *testing.T) {
	source := `function one() {}
function two() {}
`
	res := extractSource(t, source, "idx.ts", lang.LangTypeScript)
	require.Len(t, res.Symbols, 2)
	for key, idx := range res.LocalKeyToIndex {
		assert.Equal(t, res.Symbols[idx].Key(), key)
	}
	// Keys use 0-based lines.
	assert.Contains(t, res.LocalKeyToIndex, "idx.ts:one:0")
	assert.Contains(t, res.LocalKeyToIndex, "idx.ts:two:1")
}

func TestExtractPython(t *testing.T) {
	source := `import os
from hashlib import sha256

class Store:
    def save(self, data):
        return sha256(data)

def top():
    return helper()

def helper():
    return 1
`
	res := extractSource(t, source, "store.py", lang.LangPython)

	store := findSymbol(t, res, "Store")
	assert.Equal(t, SymClass, store.Type)
	save := findSymbol(t, res, "save")
	assert.Equal(t, SymFunction, save.Type)
	findSymbol(t, res, "top")
	findSymbol(t, res, "helper")

	byLocal := make(map[string]ImportInfo)
	for _, imp := range res.Imports {
		byLocal[imp.LocalName] = imp
	}
	assert.Equal(t, "os", byLocal["os"].SourceModule)
	assert.Equal(t, "hashlib", byLocal["sha256"].SourceModule)
	assert.Equal(t, "sha256", byLocal["sha256"].ImportedName)

	// sha256 call is bridged to the import; helper call is plain.
	var sha, helper *CallInfo
	for i := range res.Calls {
		switch res.Calls[i].CalleeName {
		case "sha256":
			sha = &res.Calls[i]
		case "helper":
			helper = &res.Calls[i]
		}
	}
	require.NotNil(t, sha)
	assert.True(t, sha.IsImported)
	require.NotNil(t, helper)
	assert.False(t, helper.IsImported)
}

func TestExtractPythonComplexity(t *testing.T) {
	source := `def branchy(a, b):
    if a and b:
        return 1
    for x in range(a):
        if x > 2:
            b += 1
    return b if a else 0
`
	res := extractSource(t, source, "cx.py", lang.LangPython)
	sym := findSymbol(t, res, "branchy")
	// 1 + if + and + for + if + conditional = 6.
	assert.Equal(t, 6, sym.Complexity)
}

func TestExtractC(t *testing.T) {
	source := `struct point { int x; int y; };
enum mode { A, B };
union blob { int i; float f; };

static int helper(int v) {
    if (v > 0 && v < 10) { return 1; }
    return 0;
}

int main(void) {
    return helper(3);
}
`
	res := extractSource(t, source, "main.c", lang.LangC)

	point := findSymbol(t, res, "point")
	assert.Equal(t, SymStruct, point.Type)
	mode := findSymbol(t, res, "mode")
	assert.Equal(t, SymEnum, mode.Type)
	blob := findSymbol(t, res, "blob")
	assert.Equal(t, SymUnion, blob.Type)

	helper := findSymbol(t, res, "helper")
	assert.Equal(t, SymFunction, helper.Type)
	// 1 + if + && = 3.
	assert.Equal(t, 3, helper.Complexity)

	mainSym := findSymbol(t, res, "main")
	require.NotEmpty(t, res.Calls)
	var call *CallInfo
	for i := range res.Calls {
		if res.Calls[i].CalleeName == "helper" {
			call = &res.Calls[i]
		}
	}
	require.NotNil(t, call)
	assert.Equal(t, mainSym.Key(), call.CallerSymbolKey)
}

func TestExtractCReferenceDoesNotEmit(t *testing.T) {
	source := `struct point { int x; };
struct point origin;
`
	res := extractSource(t, source, "ref.c", lang.LangC)
	// The second struct_specifier has no body: a reference, not a symbol.
	count := 0
	for _, s := range res.Symbols {
		if s.Name == "point" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSymbolKeyConvention(t *testing.T) {
	sym := Symbol{Name: "f", FilePath: "a.ts", StartLine: 5}
	assert.Equal(t, "a.ts:f:4", sym.Key())
}
